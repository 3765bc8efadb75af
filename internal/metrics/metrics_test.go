// ABOUTME: Tests for the decoder metrics recorder and the stats dump
// ABOUTME: Hooks are driven directly with synthetic headers

package metrics

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/hashicorp/go-metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prateek/stdflens/lotdump/stdf"
)

func TestRecorderHooks(t *testing.T) {
	m, inm, err := Setup("stdflens")
	require.NoError(t, err)

	rec := NewRecorder(m)
	var stats FileStats
	hooks := rec.Hooks(&stats)

	ptr := stdf.Header{Len: 28, Type: 15, Sub: 10}
	pcr := stdf.Header{Len: 20, Type: 1, Sub: 30}
	prr := stdf.Header{Len: 3, Type: 5, Sub: 20}

	start := time.Now()
	hooks.OnRecord(ptr)
	hooks.OnRecord(ptr)
	hooks.OnRecord(pcr)
	hooks.OnSkip(pcr)
	hooks.OnRecord(prr)
	hooks.OnDecodeError(&stdf.RecordError{Header: prr, Offset: 64, Err: errors.New("short")})
	hooks.OnProgress(40, 3)
	hooks.OnProgress(100, 4)
	hooks.OnTruncated(ptr, 5)
	rec.FileDone(start)

	assert.Equal(t, FileStats{Records: 4, Skipped: 1, DecodeErrors: 1, Bytes: 100, Truncated: true}, stats)

	var buf bytes.Buffer
	require.NoError(t, DumpStats(inm, &buf))
	out := buf.String()

	assert.Contains(t, out, "'stdflens.stdf.records.total.PTR': Count: 2")
	assert.Contains(t, out, "'stdflens.stdf.records.total.PCR': Count: 1")
	assert.Contains(t, out, "'stdflens.stdf.records.errors.PRR': Count: 1")
	assert.Contains(t, out, "'stdflens.stdf.records.skipped'")
	assert.Contains(t, out, "'stdflens.stdf.records.truncated'")
	assert.Contains(t, out, "'stdflens.stdf.bytes.total': Count: 2")
	assert.Contains(t, out, "Sum: 100")
	assert.Contains(t, out, "[S] 'stdflens.stdf.parse.duration'")
	assert.Contains(t, out, "'stdflens.stdf.files.total': Count: 1")
}

func TestRecorderReadError(t *testing.T) {
	m, inm, err := Setup("stdflens")
	require.NoError(t, err)

	var stats FileStats
	hooks := NewRecorder(m).Hooks(&stats)
	hooks.OnRecord(stdf.Header{Type: 0, Sub: 10})
	hooks.OnReadError(errors.New("gzip: invalid checksum"))

	assert.True(t, stats.ReadFailed)
	assert.False(t, stats.Truncated)

	var buf bytes.Buffer
	require.NoError(t, DumpStats(inm, &buf))
	assert.Contains(t, buf.String(), "'stdflens.stdf.read.errors': Count: 1")
}

func TestRecorderSharedAcrossFiles(t *testing.T) {
	m, inm, err := Setup("stdflens")
	require.NoError(t, err)
	rec := NewRecorder(m)

	var a, b FileStats
	ha, hb := rec.Hooks(&a), rec.Hooks(&b)
	ha.OnRecord(stdf.Header{Type: 0, Sub: 10})
	hb.OnRecord(stdf.Header{Type: 0, Sub: 10})
	hb.OnRecord(stdf.Header{Type: 1, Sub: 10})

	assert.Equal(t, int64(1), a.Records)
	assert.Equal(t, int64(2), b.Records)

	var buf bytes.Buffer
	require.NoError(t, DumpStats(inm, &buf))
	assert.Contains(t, buf.String(), "'stdflens.stdf.records.total.FAR': Count: 2")
}

func TestFlattenLabels(t *testing.T) {
	assert.Equal(t, "a.b.x_y.1_2", flattenLabels("a.b", []metrics.Label{{Name: "k", Value: "x y"}, {Name: "j", Value: "1:2"}}))
}
