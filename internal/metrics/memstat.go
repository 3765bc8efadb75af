// ABOUTME: Text dump of an in-memory metrics sink
// ABOUTME: Printed by the command when --stats is set

package metrics

import (
	"bytes"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/hashicorp/go-metrics"
)

// DumpStats writes every interval held by the sink, current one included,
// one sorted line per metric.
func DumpStats(inm *metrics.InmemSink, w io.Writer) error {
	var lines []string

	for _, intv := range inm.Data() {
		intv.RLock()
		for _, val := range intv.Gauges {
			name := flattenLabels(val.Name, val.Labels)
			lines = append(lines, fmt.Sprintf("[G] '%s': %0.3f", name, val.Value))
		}
		for name, vals := range intv.Points {
			for _, val := range vals {
				lines = append(lines, fmt.Sprintf("[P] '%s': %0.3f", name, val))
			}
		}
		for _, agg := range intv.Counters {
			name := flattenLabels(agg.Name, agg.Labels)
			lines = append(lines, fmt.Sprintf("[C] '%s': %s", name, agg.AggregateSample))
		}
		for _, agg := range intv.Samples {
			name := flattenLabels(agg.Name, agg.Labels)
			lines = append(lines, fmt.Sprintf("[S] '%s': %s", name, agg.AggregateSample))
		}
		intv.RUnlock()
	}
	slices.Sort(lines)

	buf := bytes.NewBuffer(nil)
	for _, l := range lines {
		buf.WriteString(l)
		buf.WriteByte('\n')
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// Flattens the key for formatting along with its labels, removes spaces.
func flattenLabels(name string, labels []metrics.Label) string {
	buf := bytes.NewBufferString(name)
	replacer := strings.NewReplacer(" ", "_", ":", "_")

	for _, label := range labels {
		replacer.WriteString(buf, ".")
		replacer.WriteString(buf, label.Value)
	}

	return buf.String()
}
