package version

import (
	"fmt"
	"io"
)

var (
	App       string = "tokenstore"
	Version   string
	GitCommit string
	BuildTime string
	GoVersion string
	BuildOS   string
	BuildArch string
)

// WriteVersion writes the version information to w
func WriteVersion(w io.Writer) {
	fmt.Fprintf(w, "%s version %s\n", App, getVersion())
	if GitCommit != "" {
		fmt.Fprintf(w, "Git commit: %s\n", getShortCommit())
	}
	if BuildTime != "" {
		fmt.Fprintf(w, "Build time: %s\n", BuildTime)
	}
	if GoVersion != "" {
		fmt.Fprintf(w, "Go version: %s\n", GoVersion)
	}
	if BuildOS != "" && BuildArch != "" {
		fmt.Fprintf(w, "Built for: %s/%s\n", BuildOS, BuildArch)
	}
}

func getShortCommit() string {
	if len(GitCommit) > 7 {
		return GitCommit[:7]
	}
	return GitCommit
}

func getVersion() string {
	if Version != "" {
		return Version
	}
	return "dev"
}
