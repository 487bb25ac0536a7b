package main

import (
	"io"
	"os"

	"github.com/go-authgate/tokenstore/internal/config"
	"github.com/go-authgate/tokenstore/internal/logger"

	"github.com/alecthomas/kong"
)

// Context is handed to every command's Run method
type Context struct {
	Config *config.Config
	Out    io.Writer
}

var cli struct {
	LogLevel string `help:"Override LOG_LEVEL (debug, info, warn, error)." name:"log-level"`

	Serve      ServeCmd      `cmd:"" help:"Serve the token store HTTP API."`
	Client     ClientCmd     `cmd:"" help:"Manage OAuth clients."`
	Issue      IssueCmd      `cmd:"" help:"Issue a client token that is not bound to an identity."`
	Grant      GrantCmd      `cmd:"" help:"Get or issue the active token for an identity."`
	Revoke     RevokeCmd     `cmd:"" help:"Revoke an active token by its code."`
	Tokens     TokensCmd     `cmd:"" help:"List tokens for a client or an identity."`
	Historical HistoricalCmd `cmd:"" help:"Report tokens granted per day."`
	Version    VersionCmd    `cmd:"" help:"Show version information."`
}

func main() {
	cfg := config.Load()

	ctx := kong.Parse(&cli,
		kong.Name("tokenstore"),
		kong.Description("OAuth2 access token store."),
		kong.UsageOnError(),
	)

	if cli.LogLevel != "" {
		cfg.LogLevel = cli.LogLevel
	}
	logger.Init(cfg.LogLevel)

	err := ctx.Run(&Context{Config: cfg, Out: os.Stdout})
	ctx.FatalIfErrorf(err)
}
