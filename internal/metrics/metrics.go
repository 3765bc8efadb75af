// ABOUTME: go-metrics adapter that turns STDF decoder hooks into counters
// ABOUTME: Also keeps per-file decode statistics for the ingest catalog

package metrics

import (
	"time"

	"github.com/hashicorp/go-metrics"

	"github.com/prateek/stdflens/lotdump/stdf"
)

var (
	packageKey = []string{"stdf"}

	mKeyRecordsTotal   = append(packageKey, "records", "total")
	mKeyRecordsSkipped = append(packageKey, "records", "skipped")
	mKeyRecordErrors   = append(packageKey, "records", "errors")
	mKeyTruncated      = append(packageKey, "records", "truncated")
	mKeyReadErrors     = append(packageKey, "read", "errors")
	mKeyBytesTotal     = append(packageKey, "bytes", "total")
	mKeyParseDuration  = append(packageKey, "parse", "duration")
	mKeyFilesTotal     = append(packageKey, "files", "total")
)

// Setup returns a metrics instance backed by an in-memory sink. The sink
// interval is long enough that a whole command run lands in one interval.
func Setup(service string) (*metrics.Metrics, *metrics.InmemSink, error) {
	inm := metrics.NewInmemSink(time.Hour, time.Hour)
	cfg := metrics.DefaultConfig(service)
	cfg.EnableHostname = false
	cfg.EnableRuntimeMetrics = false
	cfg.TimerGranularity = time.Millisecond

	m, err := metrics.New(cfg, inm)
	if err != nil {
		return nil, nil, err
	}
	return m, inm, nil
}

// FileStats is what the decoder reported for one file.
type FileStats struct {
	Records      int64
	Skipped      int64
	DecodeErrors int64
	Bytes        int64
	Truncated    bool
	ReadFailed   bool
}

// Recorder publishes decoder events. It is safe to share across files
// decoded concurrently; each file gets its own FileStats.
type Recorder struct {
	m *metrics.Metrics
}

func NewRecorder(m *metrics.Metrics) *Recorder {
	return &Recorder{m: m}
}

// Hooks returns decoder hooks that update stats and the shared counters.
// The hooks must only be used by one parse at a time.
func (r *Recorder) Hooks(stats *FileStats) stdf.Hooks {
	labels := make(map[string][]metrics.Label)
	kindLabel := func(h stdf.Header) []metrics.Label {
		name := h.Name()
		l, ok := labels[name]
		if !ok {
			l = []metrics.Label{{Name: "kind", Value: name}}
			labels[name] = l
		}
		return l
	}

	return stdf.Hooks{
		OnRecord: func(h stdf.Header) {
			stats.Records++
			r.m.IncrCounterWithLabels(mKeyRecordsTotal, 1, kindLabel(h))
		},
		OnSkip: func(h stdf.Header) {
			stats.Skipped++
			r.m.IncrCounter(mKeyRecordsSkipped, 1)
		},
		OnDecodeError: func(err *stdf.RecordError) {
			stats.DecodeErrors++
			r.m.IncrCounterWithLabels(mKeyRecordErrors, 1, kindLabel(err.Header))
		},
		OnTruncated: func(stdf.Header, int) {
			stats.Truncated = true
			r.m.IncrCounter(mKeyTruncated, 1)
		},
		OnReadError: func(error) {
			stats.ReadFailed = true
			r.m.IncrCounter(mKeyReadErrors, 1)
		},
		OnProgress: func(bytesRead, _ int64) {
			r.m.IncrCounter(mKeyBytesTotal, float32(bytesRead-stats.Bytes))
			stats.Bytes = bytesRead
		},
	}
}

// FileDone records the end of one file parse that started at start.
func (r *Recorder) FileDone(start time.Time) {
	r.m.MeasureSince(mKeyParseDuration, start)
	r.m.IncrCounter(mKeyFilesTotal, 1)
}
