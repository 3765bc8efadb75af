package output

import (
	"encoding/json"
	"io"

	"github.com/prateek/stdflens/analysis"
	"github.com/prateek/stdflens/internal/catalog"
	"github.com/prateek/stdflens/lot"
)

// JSONFormatter outputs data in JSON format.
type JSONFormatter struct{}

// WriteLot writes the whole decoded lot.
func (f *JSONFormatter) WriteLot(w io.Writer, l *lot.Lot) error {
	return writeJSON(w, l)
}

func (f *JSONFormatter) WriteSummaries(w io.Writer, summaries []analysis.LotSummary) error {
	return writeJSON(w, nonNil(summaries))
}

func (f *JSONFormatter) WriteWaferYields(w io.Writer, yields []analysis.WaferYield) error {
	return writeJSON(w, nonNil(yields))
}

func (f *JSONFormatter) WriteFailingTests(w io.Writer, fails []analysis.TestFailRate) error {
	return writeJSON(w, nonNil(fails))
}

func (f *JSONFormatter) WriteBins(w io.Writer, report BinReport) error {
	report.Distribution = nonNil(report.Distribution)
	report.HardBins = nonNil(report.HardBins)
	report.SoftBins = nonNil(report.SoftBins)
	return writeJSON(w, report)
}

func (f *JSONFormatter) WriteIngestResults(w io.Writer, results []IngestResult) error {
	return writeJSON(w, nonNil(results))
}

func (f *JSONFormatter) WriteCatalogLots(w io.Writer, lots []catalog.LotEntry) error {
	return writeJSON(w, nonNil(lots))
}

// nonNil keeps empty listings as [] instead of null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
