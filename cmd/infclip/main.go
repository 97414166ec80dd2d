package main

import (
	"github.com/mindmorass/infinity-clipboard/internal/cli"
)

// Set at build time via -ldflags
var (
	Version   string
	BuildTime string
	GitCommit string
)

func main() {
	cli.Version = Version
	cli.BuildTime = BuildTime
	cli.GitCommit = GitCommit

	cli.Execute()
}
