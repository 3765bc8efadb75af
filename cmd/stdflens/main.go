// ABOUTME: stdflens command line entry point
// ABOUTME: Inspects STDF test logs and maintains the ingest catalog

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/prateek/stdflens"
)

var formatFlag = &cli.StringFlag{
	Name:    "format",
	Aliases: []string{"f"},
	Usage:   "Output format: table, json (default from config)",
}

var catalogFlag = &cli.StringFlag{
	Name:  "catalog",
	Usage: "Path to the catalog file (default from config)",
}

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	e := &env{}

	return &cli.App{
		Name:      "stdflens",
		Usage:     "Inspect STDF V4 semiconductor test logs",
		Version:   stdflens.Version,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a TOML config file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn, error",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Files decoded concurrently (default from config)",
			},
			&cli.BoolFlag{
				Name:  "stats",
				Usage: "Print decoder metrics after the command",
			},
		},
		Before: e.setup,
		After:  e.teardown,
		Commands: []*cli.Command{
			{
				Name:      "dump",
				Usage:     "Show the lot header, record counts and bins of each file",
				ArgsUsage: "FILE...",
				Flags:     []cli.Flag{formatFlag},
				Action:    e.dumpAction,
			},
			{
				Name:      "summary",
				Usage:     "Compare files by yield",
				ArgsUsage: "FILE...",
				Flags:     []cli.Flag{formatFlag},
				Action:    e.summaryAction,
			},
			{
				Name:      "yield",
				Usage:     "Per-wafer yield of one file",
				ArgsUsage: "FILE",
				Flags:     []cli.Flag{formatFlag},
				Action:    e.yieldAction,
			},
			{
				Name:      "fails",
				Usage:     "Tests with the highest fail rate",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					formatFlag,
					&cli.IntFlag{
						Name:    "top",
						Aliases: []string{"n"},
						Usage:   "Number of tests to show, 0 for all (default from config)",
					},
				},
				Action: e.failsAction,
			},
			{
				Name:      "bins",
				Usage:     "Soft-bin distribution and bin summary records",
				ArgsUsage: "FILE",
				Flags:     []cli.Flag{formatFlag},
				Action:    e.binsAction,
			},
			{
				Name:      "ingest",
				Usage:     "Record files in the catalog, skipping unchanged ones",
				ArgsUsage: "FILE...",
				Flags: []cli.Flag{
					formatFlag,
					catalogFlag,
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Re-ingest files even when unchanged",
					},
				},
				Action: e.ingestAction,
			},
			{
				Name:   "lots",
				Usage:  "List the lots in the catalog",
				Flags:  []cli.Flag{formatFlag, catalogFlag},
				Action: e.lotsAction,
			},
		},
	}
}
