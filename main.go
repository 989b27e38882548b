package main

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	stdlog "log"

	"feedsync/cmd"
	"feedsync/internal/config"
	"feedsync/internal/logger"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := app().Run(os.Args); err != nil {
		stdlog.Fatalf("error running the app: %v", err)
	}
}

func app() *cli.App {
	helpName := color.YellowString(filepath.Base(os.Args[0]))
	year := strconv.Itoa(time.Now().UTC().Year())

	app := &cli.App{
		Usage:       "Live feed synchronisation engine",
		HelpName:    helpName,
		Version:     cmd.Version,
		Compiled:    time.Now().UTC(),
		Copyright:   "© " + year + " feedsync",
		Description: "Follows a listing, keeps hidden items, blocked origins and favorites across restarts, and reports how items move between refreshes.",
		Commands:    cmd.Commands,
		Before:      before,
	}

	app.Suggest = true
	return app
}

func before(*cli.Context) error {
	if err := config.InitConfig(); err != nil {
		stdlog.Printf("error loading config: %v", err)
		return err
	}

	logger.InitializeLogger()
	return nil
}
