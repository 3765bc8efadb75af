// ABOUTME: Constructor and query helpers for the Lot aggregate
// ABOUTME: Provides ordered lookups over tests, bins and wafers

package lot

import (
	"cmp"
	"slices"
)

// New creates an empty lot with initialised maps.
func New() *Lot {
	return &Lot{
		Wafers:      make([]Wafer, 0),
		Parts:       make([]Part, 0),
		TestResults: make([]TestResult, 0),
		Tests:       make(map[uint32]TestDef),
		HardBins:    make(map[uint16]Bin),
		SoftBins:    make(map[uint16]Bin),
	}
}

// Test returns the definition for a test number.
func (l *Lot) Test(num uint32) (TestDef, bool) {
	t, ok := l.Tests[num]
	return t, ok
}

// Wafer returns the last wafer entry with the given id.
// Retested wafers appear more than once; the latest one wins.
func (l *Lot) Wafer(id string) (Wafer, bool) {
	for i := len(l.Wafers) - 1; i >= 0; i-- {
		if l.Wafers[i].WaferID == id {
			return l.Wafers[i], true
		}
	}
	return Wafer{}, false
}

// LastPart returns the most recently created part.
func (l *Lot) LastPart() (Part, bool) {
	if len(l.Parts) == 0 {
		return Part{}, false
	}
	return l.Parts[len(l.Parts)-1], true
}

// TestNums returns all defined test numbers in ascending order.
func (l *Lot) TestNums() []uint32 {
	nums := make([]uint32, 0, len(l.Tests))
	for n := range l.Tests {
		nums = append(nums, n)
	}
	slices.Sort(nums)
	return nums
}

// SortedHardBins returns the hard bin records ordered by bin number.
func (l *Lot) SortedHardBins() []Bin {
	return sortedBins(l.HardBins)
}

// SortedSoftBins returns the soft bin records ordered by bin number.
func (l *Lot) SortedSoftBins() []Bin {
	return sortedBins(l.SoftBins)
}

func sortedBins(m map[uint16]Bin) []Bin {
	bins := make([]Bin, 0, len(m))
	for _, b := range m {
		bins = append(bins, b)
	}
	slices.SortFunc(bins, func(a, b Bin) int {
		return cmp.Compare(a.BinNum, b.BinNum)
	})
	return bins
}

// ResultsForPart returns the test results recorded against a part id.
func (l *Lot) ResultsForPart(partID string) []TestResult {
	var out []TestResult
	for _, r := range l.TestResults {
		if r.PartID == partID {
			out = append(out, r)
		}
	}
	return out
}

// PassedParts counts parts whose pass/fail flag is pass.
func (l *Lot) PassedParts() int {
	n := 0
	for _, p := range l.Parts {
		if p.Passed {
			n++
		}
	}
	return n
}
