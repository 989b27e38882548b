package cmd

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

// HiddenCommand manages the hidden-item ledger.
var HiddenCommand = &cli.Command{
	Name:  "hidden",
	Usage: "Inspect or purge hidden items",
	Subcommands: []*cli.Command{
		{
			Name:  "count",
			Usage: "Print how many items are hidden across all sources",
			Action: func(c *cli.Context) error {
				s, err := openSession(c.Context, nil)
				if err != nil {
					return err
				}
				defer s.Close()
				fmt.Fprintln(color.Output, s.engine.HiddenTotal())
				return nil
			},
		},
		{
			Name:  "purge",
			Usage: "Forget every hidden item",
			Action: func(c *cli.Context) error {
				s, err := openSession(c.Context, nil)
				if err != nil {
					return err
				}
				defer s.Close()
				n, err := s.engine.PurgeHidden(c.Context)
				if err != nil {
					return err
				}
				fmt.Fprintf(color.Output, "purged %d hidden items\n", n)
				return nil
			},
		},
	},
}

// BlockedCommand manages blocked origins.
var BlockedCommand = &cli.Command{
	Name:  "blocked",
	Usage: "Manage blocked origin domains",
	Subcommands: []*cli.Command{
		{
			Name:  "list",
			Usage: "List blocked domains",
			Action: func(c *cli.Context) error {
				s, err := openSession(c.Context, nil)
				if err != nil {
					return err
				}
				defer s.Close()
				for _, d := range s.engine.Blocked() {
					fmt.Fprintln(color.Output, d)
				}
				return nil
			},
		},
		{
			Name:      "add",
			Usage:     "Block a domain",
			ArgsUsage: "<domain>",
			Action: func(c *cli.Context) error {
				s, err := openSession(c.Context, nil)
				if err != nil {
					return err
				}
				defer s.Close()
				d, err := s.engine.Block(c.Context, c.Args().First())
				if err != nil {
					return err
				}
				fmt.Fprintf(color.Output, "blocked %s\n", color.RedString(d))
				return nil
			},
		},
		{
			Name:      "remove",
			Usage:     "Unblock a domain",
			ArgsUsage: "<domain>",
			Action: func(c *cli.Context) error {
				s, err := openSession(c.Context, nil)
				if err != nil {
					return err
				}
				defer s.Close()
				removed, err := s.engine.Unblock(c.Context, c.Args().First())
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("%s is not blocked", c.Args().First())
				}
				fmt.Fprintf(color.Output, "unblocked %s\n", c.Args().First())
				return nil
			},
		},
	},
}

// FavoritesCommand manages favorite sources.
var FavoritesCommand = &cli.Command{
	Name:    "favorites",
	Aliases: []string{"fav"},
	Usage:   "Manage favorite sources",
	Subcommands: []*cli.Command{
		{
			Name:  "list",
			Usage: "List favorites, newest first",
			Action: func(c *cli.Context) error {
				s, err := openSession(c.Context, nil)
				if err != nil {
					return err
				}
				defer s.Close()
				for _, f := range s.engine.Favorites() {
					added := time.UnixMilli(f.AddedAt).Format(time.DateOnly)
					fmt.Fprintf(color.Output, "%-40s %-10s %s\n", f.Label, f.Type, color.New(color.Faint).Sprint(added))
				}
				return nil
			},
		},
		{
			Name:      "add",
			Usage:     "Add a source to favorites",
			ArgsUsage: "<source>",
			Action: func(c *cli.Context) error {
				s, err := openSession(c.Context, nil)
				if err != nil {
					return err
				}
				defer s.Close()
				added, err := s.engine.AddFavorite(c.Context, c.Args().First())
				if err != nil {
					return err
				}
				if !added {
					fmt.Fprintln(color.Output, "already a favorite")
				}
				return nil
			},
		},
		{
			Name:      "remove",
			Usage:     "Remove a source from favorites",
			ArgsUsage: "<path>",
			Action: func(c *cli.Context) error {
				s, err := openSession(c.Context, nil)
				if err != nil {
					return err
				}
				defer s.Close()
				if !s.engine.RemoveFavorite(c.Context, c.Args().First()) {
					return fmt.Errorf("%s is not a favorite", c.Args().First())
				}
				return nil
			},
		},
	},
}
