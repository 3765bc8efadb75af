// ABOUTME: Per-run command environment built from config and flags
// ABOUTME: Owns the logger, the metrics sink and concurrent file loading

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	gometrics "github.com/hashicorp/go-metrics"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/prateek/stdflens/internal/config"
	"github.com/prateek/stdflens/internal/metrics"
	"github.com/prateek/stdflens/internal/output"
	"github.com/prateek/stdflens/lot"
	"github.com/prateek/stdflens/lotdump"
	"github.com/prateek/stdflens/lotdump/stdf"
)

type env struct {
	cfg    *config.Config
	logger *slog.Logger
	rec    *metrics.Recorder
	sink   *gometrics.InmemSink
}

func (e *env) setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("log-level") {
		cfg.LogConfig.LogLevel = c.String("log-level")
	}
	if c.IsSet("workers") {
		cfg.Parse.Workers = c.Int("workers")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.cfg = cfg

	e.logger = cfg.LogConfig.NewLogger(c.App.ErrWriter)
	slog.SetDefault(e.logger)

	m, sink, err := metrics.Setup("stdflens")
	if err != nil {
		return fmt.Errorf("setting up metrics: %w", err)
	}
	e.rec = metrics.NewRecorder(m)
	e.sink = sink
	return nil
}

func (e *env) teardown(c *cli.Context) error {
	if !c.Bool("stats") || e.sink == nil {
		return nil
	}
	return metrics.DumpStats(e.sink, c.App.ErrWriter)
}

func (e *env) formatter(c *cli.Context) (output.Formatter, error) {
	format := e.cfg.Output.Format
	if c.IsSet("format") {
		format = c.String("format")
	}
	format = strings.ToLower(strings.TrimSpace(format))
	if format != "table" && format != "json" {
		return nil, fmt.Errorf("invalid format %q: must be 'table' or 'json'", format)
	}
	return output.NewFormatter(output.Format(format)), nil
}

func (e *env) catalogPath(c *cli.Context) string {
	if c.IsSet("catalog") {
		return c.String("catalog")
	}
	return e.cfg.Catalog.Path
}

// loaded is one decoded file.
type loaded struct {
	path    string
	lot     *lot.Lot
	stats   metrics.FileStats
	elapsed time.Duration
}

// loadFiles decodes paths concurrently, bounded by the configured worker
// count. Results keep the order of paths.
func (e *env) loadFiles(ctx context.Context, paths []string) ([]loaded, error) {
	out := make([]loaded, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Parse.Workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ld, err := e.loadFile(path)
			if err != nil {
				return err
			}
			out[i] = ld
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *env) loadFile(path string) (loaded, error) {
	ld := loaded{path: path}

	hooks := e.rec.Hooks(&ld.stats)
	countError := hooks.OnDecodeError
	hooks.OnDecodeError = func(err *stdf.RecordError) {
		countError(err)
		e.logger.Debug("[stdflens.cmd] record dropped", "path", path, "error", err)
	}
	countTruncated := hooks.OnTruncated
	hooks.OnTruncated = func(h stdf.Header, got int) {
		countTruncated(h, got)
		e.logger.Warn("[stdflens.cmd] truncated input",
			"path", path,
			"record", h.Name(),
			"declared", h.Len,
			"available", got,
		)
	}
	countReadError := hooks.OnReadError
	hooks.OnReadError = func(err error) {
		countReadError(err)
		e.logger.Warn("[stdflens.cmd] read failed, keeping records decoded so far",
			"path", path,
			"error", err,
		)
	}

	start := time.Now()
	l, err := lotdump.OpenFile(path, &stdf.Parser{Hooks: hooks}, &lotdump.JSONParser{})
	e.rec.FileDone(start)
	ld.elapsed = time.Since(start)
	if err != nil {
		return ld, err
	}
	ld.lot = l

	if ld.stats.DecodeErrors > 0 {
		e.logger.Warn("[stdflens.cmd] records failed to decode",
			"path", path,
			"count", ld.stats.DecodeErrors,
		)
	}
	e.logger.Debug("[stdflens.cmd] decoded",
		"path", path,
		"lot_id", l.LotID,
		"records", ld.stats.Records,
		"duration", ld.elapsed,
	)
	return ld, nil
}

func (e *env) loadOne(c *cli.Context) (loaded, error) {
	if c.NArg() != 1 {
		return loaded{}, fmt.Errorf("%s needs exactly one FILE", c.Command.Name)
	}
	lds, err := e.loadFiles(c.Context, c.Args().Slice())
	if err != nil {
		return loaded{}, err
	}
	return lds[0], nil
}

func statFile(path string) (os.FileInfo, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return fi, nil
}
