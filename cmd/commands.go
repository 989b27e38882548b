package cmd

import (
	"github.com/urfave/cli/v2"
)

// Version is reported by --version and to telemetry.
var Version = "v0.1.0"

var Commands = []*cli.Command{
	WebServer,
	WatchCommand,
	FetchCommand,
	HiddenCommand,
	BlockedCommand,
	FavoritesCommand,
}
