// ABOUTME: Running parse state that turns decoded records into a lot
// ABOUTME: Tracks byte order, the open wafer and per-site part counters

package stdf

import (
	"cmp"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/prateek/stdflens/lot"
)

const noCoord = lot.NoCoord

type siteKey struct {
	head, site uint8
}

// state is exclusively owned by one in-progress parse.
type state struct {
	order   binary.ByteOrder
	farSeen bool
	lot     *lot.Lot

	partCounter  int
	currentWafer string
	waferIdx     int // index of the open wafer in lot.Wafers, -1 when none

	// counter value assigned by the last PIR on each head/site
	sites map[siteKey]int
}

func newState() *state {
	return &state{
		order:    binary.LittleEndian,
		lot:      lot.New(),
		waferIdx: -1,
		sites:    make(map[siteKey]int),
	}
}

// partID builds the identifier of the part under test on a head/site.
func (s *state) partID(head, site uint8) string {
	n, ok := s.sites[siteKey{head, site}]
	if !ok {
		n = s.partCounter
	}
	return fmt.Sprintf("%s_%s_%d", s.lot.LotID, s.currentWafer, n)
}

// applyFAR fixes the byte order for the rest of the stream. Only the first
// FAR counts; a repeated one is ignored.
func (s *state) applyFAR(r FileAttributes) {
	if s.farSeen {
		return
	}
	s.farSeen = true
	s.order = OrderForCPU(r.CPUType)
	s.lot.CPUType = r.CPUType
	s.lot.STDFVersion = r.STDFVersion
}

func (s *state) applyMIR(r LotInfo) {
	l := s.lot
	l.SetupTime = r.SetupTime
	l.StartTime = r.StartTime
	l.StationNum = r.StationNum
	l.LotID = r.LotID
	l.SublotID = r.SublotID
	l.PartType = r.PartType
	l.NodeName = r.NodeName
	l.TesterType = r.TesterType
	l.JobName = r.JobName
	l.JobRev = r.JobRev
	l.Operator = r.Operator
	l.ExecType = r.ExecType
	l.ExecVersion = r.ExecVersion
	l.TestCode = r.TestCode
}

func (s *state) applyMRR(r LotResults) {
	s.lot.FinishTime = r.FinishTime
}

func (s *state) applyWIR(r WaferInfo) {
	s.currentWafer = r.WaferID
	s.lot.Wafers = append(s.lot.Wafers, lot.Wafer{
		WaferID:   r.WaferID,
		LotID:     s.lot.LotID,
		HeadNum:   r.HeadNum,
		StartTime: r.StartTime,
	})
	s.waferIdx = len(s.lot.Wafers) - 1
}

func (s *state) applyWRR(r WaferResults) {
	if s.waferIdx < 0 {
		return
	}
	w := &s.lot.Wafers[s.waferIdx]
	w.FinishTime = r.FinishTime
	w.PartCount = r.PartCount
	w.GoodCount = r.GoodCount
	w.RetestCount = r.RetestCount
	w.AbortCount = r.AbortCount
}

func (s *state) applyPIR(r PartInfo) {
	s.partCounter++
	s.sites[siteKey{r.HeadNum, r.SiteNum}] = s.partCounter
}

func (s *state) applyPRR(r PartResults) {
	key := siteKey{r.HeadNum, r.SiteNum}
	s.lot.Parts = append(s.lot.Parts, lot.Part{
		PartID:    s.partID(r.HeadNum, r.SiteNum),
		LotID:     s.lot.LotID,
		WaferID:   s.currentWafer,
		HeadNum:   r.HeadNum,
		SiteNum:   r.SiteNum,
		X:         r.X,
		Y:         r.Y,
		HardBin:   r.HardBin,
		SoftBin:   r.SoftBin,
		Passed:    r.Passed(),
		TestCount: r.NumTest,
		TestTime:  r.TestTime,
	})
	delete(s.sites, key)
}

func (s *state) applyPTR(r ParametricTest) {
	s.addResult(testObservation{
		num:     r.TestNum,
		head:    r.HeadNum,
		site:    r.SiteNum,
		kind:    lot.KindPTR,
		name:    r.TestText,
		loLimit: r.LoLimit,
		hiLimit: r.HiLimit,
		units:   r.Units,
		result:  r.Result,
		passed:  r.Passed(),
	})
}

func (s *state) applyMPR(r MultiResultTest) {
	s.addResult(testObservation{
		num:     r.TestNum,
		head:    r.HeadNum,
		site:    r.SiteNum,
		kind:    lot.KindMPR,
		name:    r.TestText,
		loLimit: r.LoLimit,
		hiLimit: r.HiLimit,
		units:   r.Units,
		result:  r.FirstResult,
		passed:  r.Passed(),
	})
}

func (s *state) applyFTR(r FunctionalTest) {
	s.addResult(testObservation{
		num:     r.TestNum,
		head:    r.HeadNum,
		site:    r.SiteNum,
		kind:    lot.KindFTR,
		loLimit: math.NaN(),
		hiLimit: math.NaN(),
		result:  math.NaN(),
		passed:  r.Passed(),
	})
}

func (s *state) applyHBR(r BinRecord) {
	s.lot.HardBins[r.BinNum] = toBin(r)
}

func (s *state) applySBR(r BinRecord) {
	s.lot.SoftBins[r.BinNum] = toBin(r)
}

func toBin(r BinRecord) lot.Bin {
	return lot.Bin{
		BinNum:   r.BinNum,
		Count:    r.Count,
		PassFail: r.PassFail,
		Name:     r.Name,
	}
}

// testObservation is the common shape of PTR, MPR and FTR.
type testObservation struct {
	num              uint32
	head, site       uint8
	kind             string
	name             string
	loLimit, hiLimit float64
	units            string
	result           float64
	passed           bool
}

// addResult defines the test on first sight and appends one result row.
// Limits and units missing from the record come from the definition.
func (s *state) addResult(o testObservation) {
	def, ok := s.lot.Tests[o.num]
	if !ok {
		def = lot.TestDef{
			TestNum:  o.num,
			TestName: o.name,
			RecType:  o.kind,
			LoLimit:  o.loLimit,
			HiLimit:  o.hiLimit,
			Units:    o.units,
		}
		s.lot.Tests[o.num] = def
	}

	x, y := noCoord, noCoord
	if p, ok := s.lot.LastPart(); ok {
		x, y = p.X, p.Y
	}

	s.lot.TestResults = append(s.lot.TestResults, lot.TestResult{
		LotID:    s.lot.LotID,
		PartID:   s.partID(o.head, o.site),
		WaferID:  s.currentWafer,
		X:        x,
		Y:        y,
		TestNum:  o.num,
		TestName: def.TestName,
		RecType:  o.kind,
		LoLimit:  orDefault(o.loLimit, def.LoLimit),
		HiLimit:  orDefault(o.hiLimit, def.HiLimit),
		Units:    cmp.Or(o.units, def.Units),
		Result:   o.result,
		Passed:   o.passed,
	})
}

func orDefault(v, def float64) float64 {
	if math.IsNaN(v) {
		return def
	}
	return v
}
