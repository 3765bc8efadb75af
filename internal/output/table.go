package output

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/prateek/stdflens/analysis"
	"github.com/prateek/stdflens/internal/catalog"
	"github.com/prateek/stdflens/lot"
)

var (
	passColor = color.New(color.FgGreen)
	failColor = color.New(color.FgRed, color.Bold)
)

// TableFormatter outputs data in human-readable table format.
type TableFormatter struct{}

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// stdfTime renders an STDF U4 timestamp (seconds since the epoch).
func stdfTime(sec uint32) string {
	if sec == 0 {
		return "-"
	}
	return time.Unix(int64(sec), 0).UTC().Format(time.RFC3339)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.RFC3339)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func passFail(pf string) string {
	switch pf {
	case "P":
		return passColor.Sprint("PASS")
	case "F":
		return failColor.Sprint("FAIL")
	default:
		return "-"
	}
}

func comma(n int) string { return humanize.Comma(int64(n)) }

// WriteLot writes the lot header, record counts and bins.
func (f *TableFormatter) WriteLot(w io.Writer, l *lot.Lot) error {
	fmt.Fprintln(w, "Lot Details")
	fmt.Fprintln(w, "===========")
	fmt.Fprintf(w, "Lot ID:       %s\n", orDash(l.LotID))
	fmt.Fprintf(w, "Sublot ID:    %s\n", orDash(l.SublotID))
	fmt.Fprintf(w, "Part Type:    %s\n", orDash(l.PartType))
	fmt.Fprintf(w, "Job:          %s %s\n", orDash(l.JobName), l.JobRev)
	fmt.Fprintf(w, "Tester:       %s on %s\n", orDash(l.TesterType), orDash(l.NodeName))
	fmt.Fprintf(w, "Test Code:    %s\n", orDash(l.TestCode))
	fmt.Fprintf(w, "Started:      %s\n", stdfTime(l.StartTime))
	fmt.Fprintf(w, "Finished:     %s\n", stdfTime(l.FinishTime))
	fmt.Fprintf(w, "STDF:         V%d, cpu type %d\n", l.STDFVersion, l.CPUType)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Wafers:       %s\n", comma(len(l.Wafers)))
	fmt.Fprintf(w, "Parts:        %s (%s passed)\n", comma(len(l.Parts)), comma(l.PassedParts()))
	fmt.Fprintf(w, "Tests:        %s\n", comma(len(l.Tests)))
	fmt.Fprintf(w, "Test Results: %s\n", comma(len(l.TestResults)))

	return f.WriteBins(w, BinReport{HardBins: l.SortedHardBins(), SoftBins: l.SortedSoftBins()})
}

// WriteSummaries writes one row per lot.
func (f *TableFormatter) WriteSummaries(w io.Writer, summaries []analysis.LotSummary) error {
	tw := newTabWriter(w)
	fmt.Fprintln(tw, "LOT\tPART_TYPE\tJOB\tWAFERS\tPARTS\tGOOD\tYIELD")

	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%.2f%%\n",
			orDash(s.LotID),
			orDash(s.PartType),
			orDash(s.JobName),
			s.WaferCount,
			comma(s.TotalParts),
			comma(s.GoodParts),
			s.YieldPct,
		)
	}
	return tw.Flush()
}

func (f *TableFormatter) WriteWaferYields(w io.Writer, yields []analysis.WaferYield) error {
	tw := newTabWriter(w)
	fmt.Fprintln(tw, "WAFER\tTOTAL\tGOOD\tYIELD")

	for _, y := range yields {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f%%\n",
			orDash(y.WaferID),
			comma(y.Total),
			comma(y.Good),
			y.YieldPct,
		)
	}
	return tw.Flush()
}

func (f *TableFormatter) WriteFailingTests(w io.Writer, fails []analysis.TestFailRate) error {
	if len(fails) == 0 {
		fmt.Fprintln(w, "No failing tests.")
		return nil
	}

	tw := newTabWriter(w)
	fmt.Fprintln(tw, "TEST\tNAME\tEXECUTED\tFAILS\tFAIL_RATE")
	for _, t := range fails {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			t.TestNum,
			orDash(t.TestName),
			comma(t.Total),
			comma(t.Fails),
			failColor.Sprintf("%.2f%%", t.FailPct),
		)
	}
	return tw.Flush()
}

// WriteBins writes the part distribution followed by the bin records.
func (f *TableFormatter) WriteBins(w io.Writer, report BinReport) error {
	if len(report.Distribution) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Soft Bin Distribution:")
		tw := newTabWriter(w)
		fmt.Fprintln(tw, "  BIN\tNAME\tPARTS\tSHARE")
		for _, b := range report.Distribution {
			fmt.Fprintf(tw, "  %d\t%s\t%s\t%.2f%%\n", b.Bin, orDash(b.Name), comma(b.Count), b.Percent)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	for _, section := range []struct {
		title string
		bins  []lot.Bin
	}{
		{"Hard Bins:", report.HardBins},
		{"Soft Bins:", report.SoftBins},
	} {
		if len(section.bins) == 0 {
			continue
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, section.title)
		tw := newTabWriter(w)
		fmt.Fprintln(tw, "  BIN\tNAME\tCOUNT\tP/F")
		for _, b := range section.bins {
			fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\n",
				b.BinNum,
				orDash(b.Name),
				humanize.Comma(int64(b.Count)),
				passFail(b.PassFail),
			)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func (f *TableFormatter) WriteIngestResults(w io.Writer, results []IngestResult) error {
	tw := newTabWriter(w)
	fmt.Fprintln(tw, "FILE\tLOT\tSIZE\tRECORDS\tERRORS\tSTATUS")

	for _, r := range results {
		status := passColor.Sprint("ingested")
		if r.Skipped {
			status = "unchanged"
		}
		errs := humanize.Comma(r.DecodeErrors)
		if r.DecodeErrors > 0 {
			errs = failColor.Sprint(errs)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Path,
			orDash(r.LotID),
			humanize.Bytes(uint64(r.Size)),
			humanize.Comma(r.Records),
			errs,
			status,
		)
	}
	return tw.Flush()
}

func (f *TableFormatter) WriteCatalogLots(w io.Writer, lots []catalog.LotEntry) error {
	if len(lots) == 0 {
		fmt.Fprintln(w, "Catalog is empty.")
		return nil
	}

	tw := newTabWriter(w)
	fmt.Fprintln(tw, "LOT\tPART_TYPE\tFILES\tPARTS\tYIELD\tUPDATED")
	for _, l := range lots {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%.2f%%\t%s\n",
			orDash(l.Summary.LotID),
			orDash(l.Summary.PartType),
			len(l.Files),
			comma(l.Summary.TotalParts),
			l.Summary.YieldPct,
			formatTime(l.UpdatedAt),
		)
	}
	return tw.Flush()
}
