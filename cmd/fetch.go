package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"feedsync/features/blocklist"
	"feedsync/features/feed"
	"feedsync/internal/config"
	"feedsync/internal/tracing"

	"github.com/fatih/color"
	"github.com/rs/xid"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

// FetchCommand fetches one listing once, bypassing the engine.
var FetchCommand = &cli.Command{
	Name:  "fetch",
	Usage: "Fetch one listing and print it",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "source",
			Aliases:  []string{"s"},
			Usage:    "Source path to fetch.",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "sort",
			Aliases: []string{"o"},
			Usage:   "Sort mode: [hot, new, rising, controversial, top].",
			Value:   string(feed.SortHot),
		},
		&cli.BoolFlag{
			Name:    "json",
			Aliases: []string{"j"},
			Usage:   "Output items in JSON format.",
		},
	},
	Action: fetchListing,
}

func fetchListing(c *cli.Context) error {
	stopTrace := tracing.Start("fetch", xid.New().String())
	defer stopTrace()

	src, err := feed.NewSource(c.String("source"))
	if err != nil {
		return err
	}
	mode, err := feed.ParseSortMode(c.String("sort"))
	if err != nil {
		return err
	}

	if err := config.InitConfig(); err != nil {
		return err
	}
	gw, err := newGateway(config.GetConfig())
	if err != nil {
		return err
	}

	log.Debug().Str("url", gw.URL(src, mode)).Msg("Fetching listing")
	items, err := gw.Fetch(context.Background(), src, mode)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", src, err)
	}

	return printItems(items, c.Bool("json"))
}

func printItems(items []feed.Item, asJSON bool) error {
	if asJSON {
		data, err := json.MarshalIndent(items, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(color.Output, string(data))
		return nil
	}

	faint := color.New(color.Faint).SprintFunc()
	for _, it := range items {
		origin := it.OriginDomain
		if origin != "" {
			origin = blocklist.Normalize(origin)
		}
		fmt.Fprintf(color.Output, "%6d %s %s\n", it.Score, it.Title, faint(origin))
	}
	return nil
}
