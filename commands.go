package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-authgate/tokenstore/internal/bootstrap"
	"github.com/go-authgate/tokenstore/internal/models"
	"github.com/go-authgate/tokenstore/internal/services"
	"github.com/go-authgate/tokenstore/internal/store"
	"github.com/go-authgate/tokenstore/internal/version"
)

// openStore validates the configuration and connects to the database
func (c *Context) openStore(ctx context.Context) (*store.Store, error) {
	if err := c.Config.Validate(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, c.Config.DBInitTimeout)
	defer cancel()
	return store.New(ctx, c.Config.DatabaseDriver, c.Config.DatabaseDSN)
}

// withService runs fn against a token service backed by a fresh store
func (c *Context) withService(fn func(context.Context, *services.TokenService) error) error {
	ctx := context.Background()
	s, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	return fn(ctx, services.NewTokenService(s, nil, c.Config.HistoricalDays))
}

func (c *Context) printJSON(v any) error {
	enc := json.NewEncoder(c.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type ServeCmd struct{}

func (s *ServeCmd) Run(ctx *Context) error {
	return bootstrap.Run(ctx.Config)
}

type ClientCmd struct {
	Create ClientCreateCmd `cmd:"" help:"Register a client."`
	List   ClientListCmd   `cmd:"" help:"List registered clients."`
}

type ClientCreateCmd struct {
	Name string `arg:"" help:"Client name."`
}

func (cc *ClientCreateCmd) Run(ctx *Context) error {
	bg := context.Background()
	s, err := ctx.openStore(bg)
	if err != nil {
		return err
	}
	defer s.Close()

	client := &models.OAuthClient{Name: cc.Name}
	if err := s.CreateClient(bg, client); err != nil {
		return err
	}
	return ctx.printJSON(client)
}

type ClientListCmd struct{}

func (cl *ClientListCmd) Run(ctx *Context) error {
	bg := context.Background()
	s, err := ctx.openStore(bg)
	if err != nil {
		return err
	}
	defer s.Close()

	clients, err := s.ListClients(bg)
	if err != nil {
		return err
	}
	return ctx.printJSON(clients)
}

type IssueCmd struct {
	Client uint   `help:"Client ID." required:""`
	Scope  string `help:"Space separated scope."`
}

func (i *IssueCmd) Run(ctx *Context) error {
	return ctx.withService(func(bg context.Context, svc *services.TokenService) error {
		token, err := svc.IssueToken(bg, i.Client, i.Scope)
		if err != nil {
			return err
		}
		return ctx.printJSON(token)
	})
}

type GrantCmd struct {
	Identity string `help:"Identity the token is issued for." required:""`
	Client   uint   `help:"Client ID." required:""`
	Scope    string `help:"Space separated scope."`
}

func (g *GrantCmd) Run(ctx *Context) error {
	return ctx.withService(func(bg context.Context, svc *services.TokenService) error {
		token, err := svc.GetOrIssueToken(bg, models.StringIdentity(g.Identity), g.Client, g.Scope)
		if err != nil {
			return err
		}
		return ctx.printJSON(token)
	})
}

type RevokeCmd struct {
	Code string `arg:"" help:"Token code."`
}

func (r *RevokeCmd) Run(ctx *Context) error {
	return ctx.withService(func(bg context.Context, svc *services.TokenService) error {
		token, err := svc.RevokeByCode(bg, r.Code)
		if errors.Is(err, store.ErrTokenNotFound) {
			return fmt.Errorf("no active token with code %q", r.Code)
		}
		if err != nil {
			return err
		}
		return ctx.printJSON(token)
	})
}

type TokensCmd struct {
	Client   uint   `help:"List tokens of this client." xor:"owner"`
	Identity string `help:"List tokens of this identity." xor:"owner"`
	Offset   int    `help:"Page offset (client listing)." default:"0"`
	Limit    int    `help:"Page size (client listing)." default:"100"`
}

func (t *TokensCmd) Run(ctx *Context) error {
	return ctx.withService(func(bg context.Context, svc *services.TokenService) error {
		var (
			tokens []models.AccessToken
			err    error
		)
		switch {
		case t.Identity != "":
			tokens, err = svc.TokensForIdentity(bg, models.StringIdentity(t.Identity))
		case t.Client != 0:
			tokens, err = svc.TokensForClient(bg, t.Client, t.Offset, t.Limit)
		default:
			return errors.New("one of --client or --identity is required")
		}
		if err != nil {
			return err
		}
		return ctx.printJSON(tokens)
	})
}

type HistoricalCmd struct {
	Days   int  `help:"Window size in days (defaults to HISTORICAL_DAYS)."`
	Client uint `help:"Restrict the report to one client."`
}

func (h *HistoricalCmd) Run(ctx *Context) error {
	return ctx.withService(func(bg context.Context, svc *services.TokenService) error {
		var clientID *uint
		if h.Client != 0 {
			clientID = &h.Client
		}
		buckets, err := svc.HistoricalGrants(bg, h.Days, clientID)
		if err != nil {
			return err
		}
		return ctx.printJSON(buckets)
	})
}

type VersionCmd struct{}

func (v *VersionCmd) Run(ctx *Context) error {
	version.WriteVersion(ctx.Out)
	return nil
}
