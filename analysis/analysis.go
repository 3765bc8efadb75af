// ABOUTME: Yield, failure and bin analytics computed over a decoded lot
// ABOUTME: All functions are pure and return deterministic, sorted results

package analysis

import (
	"cmp"
	"slices"

	"github.com/prateek/stdflens/lot"
)

// LotSummary is the headline view of one lot.
type LotSummary struct {
	LotID      string  `json:"lot_id"`
	PartType   string  `json:"part_type"`
	JobName    string  `json:"job_name"`
	JobRev     string  `json:"job_rev"`
	TestCode   string  `json:"test_code"`
	WaferCount int     `json:"wafer_count"`
	TotalParts int     `json:"total_parts"`
	GoodParts  int     `json:"good_parts"`
	YieldPct   float64 `json:"yield_pct"`
}

// WaferYield is the outcome of the latest test pass of one wafer.
type WaferYield struct {
	WaferID  string  `json:"wafer_id"`
	Total    int     `json:"total"`
	Good     int     `json:"good"`
	YieldPct float64 `json:"yield_pct"`
}

// TestFailRate counts failing executions of one test number.
type TestFailRate struct {
	TestNum  uint32  `json:"test_num"`
	TestName string  `json:"test_name"`
	Total    int     `json:"total"`
	Fails    int     `json:"fails"`
	FailPct  float64 `json:"fail_rate"`
}

// BinCount is the share of parts that landed in one soft bin.
type BinCount struct {
	Bin     uint16  `json:"soft_bin"`
	Name    string  `json:"bin_name"`
	Count   int     `json:"count"`
	Percent float64 `json:"pct"`
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(n) / float64(total)
}

// latestWafers returns one entry per wafer id, keeping the last one seen.
// Retested wafers appear several times; only the final pass counts.
func latestWafers(l *lot.Lot) []lot.Wafer {
	idx := make(map[string]int)
	var out []lot.Wafer
	for _, w := range l.Wafers {
		if i, ok := idx[w.WaferID]; ok {
			out[i] = w
			continue
		}
		idx[w.WaferID] = len(out)
		out = append(out, w)
	}
	return out
}

// Summarize reports the lot header and its overall yield. Part totals come
// from wafer results when the log carries them, otherwise from part records.
func Summarize(l *lot.Lot) LotSummary {
	s := LotSummary{
		LotID:    l.LotID,
		PartType: l.PartType,
		JobName:  l.JobName,
		JobRev:   l.JobRev,
		TestCode: l.TestCode,
	}

	wafers := latestWafers(l)
	s.WaferCount = len(wafers)
	for _, w := range wafers {
		s.TotalParts += int(w.PartCount)
		s.GoodParts += int(w.GoodCount)
	}
	if s.TotalParts == 0 {
		s.TotalParts = len(l.Parts)
		s.GoodParts = l.PassedParts()
	}
	s.YieldPct = percent(s.GoodParts, s.TotalParts)
	return s
}

// WaferYields returns per-wafer yield, best wafer first.
func WaferYields(l *lot.Lot) []WaferYield {
	wafers := latestWafers(l)
	out := make([]WaferYield, 0, len(wafers))
	for _, w := range wafers {
		out = append(out, WaferYield{
			WaferID:  w.WaferID,
			Total:    int(w.PartCount),
			Good:     int(w.GoodCount),
			YieldPct: percent(int(w.GoodCount), int(w.PartCount)),
		})
	}
	slices.SortFunc(out, func(a, b WaferYield) int {
		return cmp.Or(
			cmp.Compare(b.YieldPct, a.YieldPct),
			cmp.Compare(a.WaferID, b.WaferID),
		)
	})
	return out
}

// FailingTests returns tests with at least one failure, worst first.
// topN <= 0 returns all of them.
func FailingTests(l *lot.Lot, topN int) []TestFailRate {
	byNum := make(map[uint32]*TestFailRate)
	for _, r := range l.TestResults {
		t, ok := byNum[r.TestNum]
		if !ok {
			t = &TestFailRate{TestNum: r.TestNum, TestName: r.TestName}
			if def, ok := l.Test(r.TestNum); ok {
				t.TestName = def.TestName
			}
			byNum[r.TestNum] = t
		}
		t.Total++
		if !r.Passed {
			t.Fails++
		}
	}

	out := make([]TestFailRate, 0, len(byNum))
	for _, t := range byNum {
		if t.Fails == 0 {
			continue
		}
		t.FailPct = percent(t.Fails, t.Total)
		out = append(out, *t)
	}
	slices.SortFunc(out, func(a, b TestFailRate) int {
		return cmp.Or(
			cmp.Compare(b.FailPct, a.FailPct),
			cmp.Compare(a.TestNum, b.TestNum),
		)
	})

	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}

// SoftBinDistribution groups parts by soft bin, most populated first.
func SoftBinDistribution(l *lot.Lot) []BinCount {
	counts := make(map[uint16]int)
	for _, p := range l.Parts {
		counts[p.SoftBin]++
	}

	out := make([]BinCount, 0, len(counts))
	for bin, n := range counts {
		out = append(out, BinCount{
			Bin:     bin,
			Name:    l.SoftBins[bin].Name,
			Count:   n,
			Percent: percent(n, len(l.Parts)),
		})
	}
	slices.SortFunc(out, func(a, b BinCount) int {
		return cmp.Or(
			cmp.Compare(b.Count, a.Count),
			cmp.Compare(a.Bin, b.Bin),
		)
	})
	return out
}

// CompareLots summarises several lots, highest yield first.
func CompareLots(lots ...*lot.Lot) []LotSummary {
	out := make([]LotSummary, 0, len(lots))
	for _, l := range lots {
		out = append(out, Summarize(l))
	}
	slices.SortStableFunc(out, func(a, b LotSummary) int {
		return cmp.Compare(b.YieldPct, a.YieldPct)
	})
	return out
}
