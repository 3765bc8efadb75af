// ABOUTME: Output formatters for the stdflens command
// ABOUTME: Renders lots, analytics and catalog listings as tables or JSON

package output

import (
	"io"
	"time"

	"github.com/prateek/stdflens/analysis"
	"github.com/prateek/stdflens/internal/catalog"
	"github.com/prateek/stdflens/lot"
)

// Format represents the output format type.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// BinReport is the soft-bin distribution of the parts plus the bin
// summary records the tester wrote.
type BinReport struct {
	Distribution []analysis.BinCount `json:"distribution"`
	HardBins     []lot.Bin           `json:"hard_bins"`
	SoftBins     []lot.Bin           `json:"soft_bins"`
}

// IngestResult is the outcome of ingesting one file.
type IngestResult struct {
	Path         string        `json:"path"`
	LotID        string        `json:"lot_id,omitempty"`
	Size         int64         `json:"size"`
	Records      int64         `json:"records"`
	DecodeErrors int64         `json:"decode_errors"`
	Skipped      bool          `json:"skipped"`
	Duration     time.Duration `json:"duration_ns"`
}

// Formatter is the interface for output formatting.
type Formatter interface {
	WriteLot(w io.Writer, l *lot.Lot) error
	WriteSummaries(w io.Writer, summaries []analysis.LotSummary) error
	WriteWaferYields(w io.Writer, yields []analysis.WaferYield) error
	WriteFailingTests(w io.Writer, fails []analysis.TestFailRate) error
	WriteBins(w io.Writer, report BinReport) error
	WriteIngestResults(w io.Writer, results []IngestResult) error
	WriteCatalogLots(w io.Writer, lots []catalog.LotEntry) error
}

// NewFormatter creates a new formatter for the given format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{}
	default:
		return &TableFormatter{}
	}
}
