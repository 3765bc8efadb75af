// ABOUTME: Command actions for inspecting files and maintaining the catalog
// ABOUTME: Each action loads its inputs, runs the analysis and formats the result

package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/urfave/cli/v2"

	"github.com/prateek/stdflens/analysis"
	"github.com/prateek/stdflens/internal/catalog"
	"github.com/prateek/stdflens/internal/output"
	"github.com/prateek/stdflens/lot"
)

var errNoFiles = errors.New("no input files")

func (e *env) dumpAction(c *cli.Context) error {
	formatter, err := e.formatter(c)
	if err != nil {
		return err
	}
	if c.NArg() == 0 {
		return errNoFiles
	}

	lds, err := e.loadFiles(c.Context, c.Args().Slice())
	if err != nil {
		return err
	}
	for i, ld := range lds {
		if _, isTable := formatter.(*output.TableFormatter); isTable && len(lds) > 1 {
			if i > 0 {
				fmt.Fprintln(c.App.Writer)
			}
			fmt.Fprintf(c.App.Writer, "==> %s <==\n", ld.path)
		}
		if err := formatter.WriteLot(c.App.Writer, ld.lot); err != nil {
			return err
		}
	}
	return nil
}

func (e *env) summaryAction(c *cli.Context) error {
	formatter, err := e.formatter(c)
	if err != nil {
		return err
	}
	if c.NArg() == 0 {
		return errNoFiles
	}

	lds, err := e.loadFiles(c.Context, c.Args().Slice())
	if err != nil {
		return err
	}
	lots := make([]*lot.Lot, 0, len(lds))
	for _, ld := range lds {
		lots = append(lots, ld.lot)
	}
	return formatter.WriteSummaries(c.App.Writer, analysis.CompareLots(lots...))
}

func (e *env) yieldAction(c *cli.Context) error {
	formatter, err := e.formatter(c)
	if err != nil {
		return err
	}
	ld, err := e.loadOne(c)
	if err != nil {
		return err
	}
	return formatter.WriteWaferYields(c.App.Writer, analysis.WaferYields(ld.lot))
}

func (e *env) failsAction(c *cli.Context) error {
	formatter, err := e.formatter(c)
	if err != nil {
		return err
	}
	top := e.cfg.Output.TopFailingTests
	if c.IsSet("top") {
		top = c.Int("top")
	}

	ld, err := e.loadOne(c)
	if err != nil {
		return err
	}
	return formatter.WriteFailingTests(c.App.Writer, analysis.FailingTests(ld.lot, top))
}

func (e *env) binsAction(c *cli.Context) error {
	formatter, err := e.formatter(c)
	if err != nil {
		return err
	}
	ld, err := e.loadOne(c)
	if err != nil {
		return err
	}
	return formatter.WriteBins(c.App.Writer, output.BinReport{
		Distribution: analysis.SoftBinDistribution(ld.lot),
		HardBins:     ld.lot.SortedHardBins(),
		SoftBins:     ld.lot.SortedSoftBins(),
	})
}

func (e *env) ingestAction(c *cli.Context) error {
	formatter, err := e.formatter(c)
	if err != nil {
		return err
	}
	if c.NArg() == 0 {
		return errNoFiles
	}

	cat, err := catalog.Open(e.catalogPath(c))
	if err != nil {
		return err
	}
	defer cat.Close()

	force := c.Bool("force")
	results := make([]output.IngestResult, 0, c.NArg())
	entries := make(map[string]catalog.FileEntry)
	var pending []string

	for _, arg := range c.Args().Slice() {
		path, err := filepath.Abs(arg)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", arg, err)
		}
		if _, dup := entries[path]; dup {
			continue
		}
		fi, err := statFile(path)
		if err != nil {
			return err
		}

		entries[path] = catalog.FileEntry{Path: path, Size: fi.Size(), ModTime: fi.ModTime()}
		res := output.IngestResult{Path: path, Size: fi.Size()}
		if !force && cat.IsIngested(path, fi.Size(), fi.ModTime()) {
			res.Skipped = true
			e.logger.Info("[stdflens.cmd] unchanged, skipping", "path", path)
		} else {
			pending = append(pending, path)
		}
		results = append(results, res)
	}

	lds, err := e.loadFiles(c.Context, pending)
	if err != nil {
		return err
	}
	for _, ld := range lds {
		entry := entries[ld.path]
		entry.Records = ld.stats.Records
		entry.DecodeErrors = ld.stats.DecodeErrors
		summary := analysis.Summarize(ld.lot)
		if err := cat.Record(entry, summary); err != nil {
			return err
		}

		i := slices.IndexFunc(results, func(r output.IngestResult) bool { return r.Path == ld.path })
		results[i].LotID = summary.LotID
		results[i].Records = ld.stats.Records
		results[i].DecodeErrors = ld.stats.DecodeErrors
		results[i].Duration = ld.elapsed
	}

	e.logger.Info("[stdflens.cmd] ingest finished",
		"catalog", e.catalogPath(c),
		"ingested", len(lds),
		"unchanged", len(results)-len(lds),
	)
	return formatter.WriteIngestResults(c.App.Writer, results)
}

func (e *env) lotsAction(c *cli.Context) error {
	formatter, err := e.formatter(c)
	if err != nil {
		return err
	}

	cat, err := catalog.Open(e.catalogPath(c))
	if err != nil {
		return err
	}
	defer cat.Close()

	lots, err := cat.Lots()
	if err != nil {
		return err
	}
	return formatter.WriteCatalogLots(c.App.Writer, lots)
}
