// ABOUTME: STDF V4 record kinds, header framing and typed record payloads
// ABOUTME: Each decoder reads its fields in declaration order from a Cursor

package stdf

import (
	"encoding/binary"
	"fmt"
	"math"
)

// HeaderSize is the size of the REC_LEN/REC_TYP/REC_SUB record header.
const HeaderSize = 4

// Kind identifies a decoded record kind. Anything the decoder does not
// understand maps to KindUnsupported.
type Kind uint8

const (
	KindUnsupported Kind = iota
	KindFAR              // file attributes
	KindMIR              // master (lot) information
	KindMRR              // master (lot) results
	KindHBR              // hardware bin
	KindSBR              // software bin
	KindWIR              // wafer information
	KindWRR              // wafer results
	KindPIR              // part information
	KindPRR              // part results
	KindPTR              // parametric test
	KindMPR              // multiple-result parametric test
	KindFTR              // functional test
)

var kindNames = [...]string{
	KindUnsupported: "unsupported",
	KindFAR:         "FAR",
	KindMIR:         "MIR",
	KindMRR:         "MRR",
	KindHBR:         "HBR",
	KindSBR:         "SBR",
	KindWIR:         "WIR",
	KindWRR:         "WRR",
	KindPIR:         "PIR",
	KindPRR:         "PRR",
	KindPTR:         "PTR",
	KindMPR:         "MPR",
	KindFTR:         "FTR",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// typeSub packs REC_TYP and REC_SUB into one switchable value.
func typeSub(typ, sub uint8) uint16 { return uint16(typ)<<8 | uint16(sub) }

// kindOf maps a (REC_TYP, REC_SUB) pair to a decoded kind.
func kindOf(typ, sub uint8) Kind {
	switch typeSub(typ, sub) {
	case typeSub(0, 10):
		return KindFAR
	case typeSub(1, 10):
		return KindMIR
	case typeSub(1, 20):
		return KindMRR
	case typeSub(1, 40):
		return KindHBR
	case typeSub(1, 50):
		return KindSBR
	case typeSub(2, 10):
		return KindWIR
	case typeSub(2, 20):
		return KindWRR
	case typeSub(5, 10):
		return KindPIR
	case typeSub(5, 20):
		return KindPRR
	case typeSub(15, 10):
		return KindPTR
	case typeSub(15, 15):
		return KindMPR
	case typeSub(15, 20):
		return KindFTR
	default:
		return KindUnsupported
	}
}

// skippedNames names STDF V4 records that are framed but not decoded.
var skippedNames = map[uint16]string{
	typeSub(0, 20):  "ATR",
	typeSub(1, 30):  "PCR",
	typeSub(1, 60):  "PMR",
	typeSub(1, 62):  "PGR",
	typeSub(1, 63):  "PLR",
	typeSub(1, 70):  "RDR",
	typeSub(1, 80):  "SDR",
	typeSub(2, 30):  "WCR",
	typeSub(10, 30): "TSR",
	typeSub(20, 10): "BPS",
	typeSub(20, 20): "EPS",
	typeSub(50, 10): "GDR",
	typeSub(50, 30): "DTR",
	typeSub(0, 30):  "VUR",
	typeSub(1, 90):  "PSR",
	typeSub(1, 91):  "NMR",
	typeSub(1, 92):  "CNR",
	typeSub(1, 93):  "SSR",
	typeSub(1, 94):  "CDR",
	typeSub(15, 30): "STR",
	typeSub(180, 0): "REC180",
	typeSub(181, 0): "REC181",
}

// Header is a framed record header.
type Header struct {
	Len  uint16
	Type uint8
	Sub  uint8
}

// Kind returns the decoded kind for the header's type and subtype.
func (h Header) Kind() Kind { return kindOf(h.Type, h.Sub) }

// Name returns the STDF mnemonic of the record, or "typ/sub" when unknown.
func (h Header) Name() string {
	if k := h.Kind(); k != KindUnsupported {
		return k.String()
	}
	if name, ok := skippedNames[typeSub(h.Type, h.Sub)]; ok {
		return name
	}
	return fmt.Sprintf("%d/%d", h.Type, h.Sub)
}

// farLen is the payload length of every STDF V4 FAR.
const farLen = 2

// decodeHeader decodes a raw header with the current byte order. A FAR
// written big-endian carries REC_LEN 00 02, which reads as 512 under the
// optimistic little-endian bootstrap; that one case is corrected here.
func decodeHeader(raw [HeaderSize]byte, order binary.ByteOrder) Header {
	h := Header{
		Len:  order.Uint16(raw[0:2]),
		Type: raw[2],
		Sub:  raw[3],
	}
	if h.Kind() == KindFAR && h.Len != farLen && binary.BigEndian.Uint16(raw[0:2]) == farLen {
		h.Len = farLen
	}
	return h
}

// FileAttributes is the FAR payload.
type FileAttributes struct {
	CPUType     uint8
	STDFVersion uint8
}

// LotInfo is the MIR payload.
type LotInfo struct {
	SetupTime   uint32
	StartTime   uint32
	StationNum  uint8
	ModeCode    string
	RetestCode  string
	ProtCode    string
	BurnTime    uint16
	CmodCode    string
	LotID       string
	PartType    string
	NodeName    string
	TesterType  string
	JobName     string
	JobRev      string
	SublotID    string
	Operator    string
	ExecType    string
	ExecVersion string
	TestCode    string
}

// LotResults is the MRR payload.
type LotResults struct {
	FinishTime uint32
}

// WaferInfo is the WIR payload.
type WaferInfo struct {
	HeadNum   uint8
	SiteGroup uint8
	StartTime uint32
	WaferID   string
}

// WaferResults is the WRR payload.
type WaferResults struct {
	HeadNum     uint8
	SiteGroup   uint8
	FinishTime  uint32
	PartCount   uint32
	RetestCount uint32
	AbortCount  uint32
	GoodCount   uint32
}

// PartInfo is the PIR payload.
type PartInfo struct {
	HeadNum uint8
	SiteNum uint8
}

// PartResults is the PRR payload.
type PartResults struct {
	HeadNum  uint8
	SiteNum  uint8
	PartFlag uint8
	NumTest  uint16
	HardBin  uint16
	SoftBin  uint16
	X        int16
	Y        int16
	TestTime uint32
}

// partFailed is PART_FLG bit 3.
const partFailed = 0x08

// Passed reports whether the part-failed bit is clear.
func (r PartResults) Passed() bool { return r.PartFlag&partFailed == 0 }

// testFailed is TEST_FLG bit 7.
const testFailed = 0x80

// ParametricTest is the PTR payload.
type ParametricTest struct {
	TestNum    uint32
	HeadNum    uint8
	SiteNum    uint8
	TestFlag   uint8
	ParmFlag   uint8
	Result     float64
	TestText   string
	AlarmID    string
	OptFlag    uint8
	ResScale   int8
	LoLimScale int8
	HiLimScale int8
	LoLimit    float64
	HiLimit    float64
	Units      string
}

// Passed reports whether the test-failed bit is clear.
func (r ParametricTest) Passed() bool { return r.TestFlag&testFailed == 0 }

// MultiResultTest is the MPR payload. Only the first of RTN_RSLT is kept.
type MultiResultTest struct {
	TestNum     uint32
	HeadNum     uint8
	SiteNum     uint8
	TestFlag    uint8
	ParmFlag    uint8
	ReturnCount uint16
	ResultCount uint16
	FirstResult float64
	TestText    string
	AlarmID     string
	OptFlag     uint8
	ResScale    int8
	LoLimScale  int8
	HiLimScale  int8
	LoLimit     float64
	HiLimit     float64
	StartIn     float64
	IncrIn      float64
	Units       string
}

// Passed reports whether the test-failed bit is clear.
func (r MultiResultTest) Passed() bool { return r.TestFlag&testFailed == 0 }

// FunctionalTest is the FTR payload, limited to the fields the lot keeps.
type FunctionalTest struct {
	TestNum  uint32
	HeadNum  uint8
	SiteNum  uint8
	TestFlag uint8
}

// Passed reports whether the test-failed bit is clear.
func (r FunctionalTest) Passed() bool { return r.TestFlag&testFailed == 0 }

// BinRecord is the shared HBR/SBR payload.
type BinRecord struct {
	HeadNum  uint8
	SiteNum  uint8
	BinNum   uint16
	Count    uint32
	PassFail string
	Name     string
}

func decodeFAR(c *Cursor) FileAttributes {
	var r FileAttributes
	r.CPUType = c.U1("CPU_TYPE")
	r.STDFVersion = c.U1("STDF_VER")
	return r
}

func decodeMIR(c *Cursor) LotInfo {
	var r LotInfo
	r.SetupTime = c.U4("SETUP_T")
	r.StartTime = c.U4("START_T")
	r.StationNum = c.U1("STAT_NUM")
	r.ModeCode = c.OptC1("MODE_COD")
	r.RetestCode = c.OptC1("RTST_COD")
	r.ProtCode = c.OptC1("PROT_COD")
	r.BurnTime = c.OptU2("BURN_TIM", 0)
	r.CmodCode = c.OptC1("CMOD_COD")
	r.LotID = c.OptCn("LOT_ID")
	r.PartType = c.OptCn("PART_TYP")
	r.NodeName = c.OptCn("NODE_NAM")
	r.TesterType = c.OptCn("TSTR_TYP")
	r.JobName = c.OptCn("JOB_NAM")
	r.JobRev = c.OptCn("JOB_REV")
	r.SublotID = c.OptCn("SBLOT_ID")
	r.Operator = c.OptCn("OPER_NAM")
	r.ExecType = c.OptCn("EXEC_TYP")
	r.ExecVersion = c.OptCn("EXEC_VER")
	r.TestCode = c.OptCn("TEST_COD")
	return r
}

func decodeMRR(c *Cursor) LotResults {
	return LotResults{FinishTime: c.U4("FINISH_T")}
}

func decodeWIR(c *Cursor) WaferInfo {
	var r WaferInfo
	r.HeadNum = c.U1("HEAD_NUM")
	r.SiteGroup = c.OptU1("SITE_GRP", 0)
	r.StartTime = c.OptU4("START_T", 0)
	r.WaferID = c.OptCn("WAFER_ID")
	return r
}

func decodeWRR(c *Cursor) WaferResults {
	var r WaferResults
	r.HeadNum = c.U1("HEAD_NUM")
	r.SiteGroup = c.OptU1("SITE_GRP", 0)
	r.FinishTime = c.OptU4("FINISH_T", 0)
	r.PartCount = c.OptU4("PART_CNT", 0)
	r.RetestCount = c.OptU4("RTST_CNT", 0)
	r.AbortCount = c.OptU4("ABRT_CNT", 0)
	r.GoodCount = c.OptU4("GOOD_CNT", 0)
	return r
}

func decodePIR(c *Cursor) PartInfo {
	var r PartInfo
	r.HeadNum = c.U1("HEAD_NUM")
	r.SiteNum = c.U1("SITE_NUM")
	return r
}

func decodePRR(c *Cursor) PartResults {
	var r PartResults
	r.HeadNum = c.U1("HEAD_NUM")
	r.SiteNum = c.U1("SITE_NUM")
	r.PartFlag = c.U1("PART_FLG")
	r.NumTest = c.U2("NUM_TEST")
	r.HardBin = c.U2("HARD_BIN")
	r.SoftBin = c.OptU2("SOFT_BIN", 0)
	r.X = c.OptI2("X_COORD", noCoord)
	r.Y = c.OptI2("Y_COORD", noCoord)
	r.TestTime = c.OptU4("TEST_T", 0)
	return r
}

func decodePTR(c *Cursor) ParametricTest {
	var r ParametricTest
	r.TestNum = c.U4("TEST_NUM")
	r.HeadNum = c.U1("HEAD_NUM")
	r.SiteNum = c.U1("SITE_NUM")
	r.TestFlag = c.U1("TEST_FLG")
	r.ParmFlag = c.U1("PARM_FLG")
	r.Result = c.OptR4("RESULT")
	r.TestText = c.OptCn("TEST_TXT")
	r.AlarmID = c.OptCn("ALARM_ID")
	r.OptFlag = c.OptU1("OPT_FLAG", 0xFF)
	r.ResScale = c.OptI1("RES_SCAL", 0)
	r.LoLimScale = c.OptI1("LLM_SCAL", 0)
	r.HiLimScale = c.OptI1("HLM_SCAL", 0)
	r.LoLimit = c.OptR4("LO_LIMIT")
	r.HiLimit = c.OptR4("HI_LIMIT")
	r.Units = c.OptCn("UNITS")
	return r
}

func decodeMPR(c *Cursor) MultiResultTest {
	var r MultiResultTest
	r.TestNum = c.U4("TEST_NUM")
	r.HeadNum = c.U1("HEAD_NUM")
	r.SiteNum = c.U1("SITE_NUM")
	r.TestFlag = c.U1("TEST_FLG")
	r.ParmFlag = c.U1("PARM_FLG")
	r.ReturnCount = c.OptU2("RTN_ICNT", 0)
	r.ResultCount = c.OptU2("RSLT_CNT", 0)

	// RTN_STAT packs two 4-bit states per byte
	c.SkipUpTo((int(r.ReturnCount) + 1) / 2)

	r.FirstResult = math.NaN()
	for i := 0; i < int(r.ResultCount) && !c.AtEnd(); i++ {
		v := c.R4("RTN_RSLT")
		if i == 0 {
			r.FirstResult = v
		}
	}

	r.TestText = c.OptCn("TEST_TXT")
	r.AlarmID = c.OptCn("ALARM_ID")
	r.OptFlag = c.OptU1("OPT_FLAG", 0xFF)
	r.ResScale = c.OptI1("RES_SCAL", 0)
	r.LoLimScale = c.OptI1("LLM_SCAL", 0)
	r.HiLimScale = c.OptI1("HLM_SCAL", 0)
	r.LoLimit = c.OptR4("LO_LIMIT")
	r.HiLimit = c.OptR4("HI_LIMIT")
	r.StartIn = c.OptR4("START_IN")
	r.IncrIn = c.OptR4("INCR_IN")

	for i := 0; i < int(r.ReturnCount) && !c.AtEnd(); i++ {
		c.U2("RTN_INDX")
	}

	r.Units = c.OptCn("UNITS")
	return r
}

func decodeFTR(c *Cursor) FunctionalTest {
	var r FunctionalTest
	r.TestNum = c.U4("TEST_NUM")
	r.HeadNum = c.U1("HEAD_NUM")
	r.SiteNum = c.U1("SITE_NUM")
	r.TestFlag = c.U1("TEST_FLG")
	return r
}

func decodeBin(c *Cursor) BinRecord {
	var r BinRecord
	r.HeadNum = c.U1("HEAD_NUM")
	r.SiteNum = c.U1("SITE_NUM")
	r.BinNum = c.U2("BIN_NUM")
	r.Count = c.U4("BIN_CNT")
	r.PassFail = c.OptC1("BIN_PF")
	r.Name = c.OptCn("BIN_NAM")
	return r
}
