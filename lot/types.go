// ABOUTME: Core data types for a parsed STDF test lot
// ABOUTME: Defines Lot, Wafer, Part, TestDef, TestResult and Bin

package lot

import "math"

// NoCoord is the x/y value of a part whose wafer has no coordinate system.
const NoCoord int16 = -32768

// Record kinds that can originate a test definition or result.
const (
	KindPTR = "PTR" // parametric test
	KindMPR = "MPR" // multi-result parametric test
	KindFTR = "FTR" // functional test
)

// Wafer is one wafer-info record, completed by its wafer-results record.
type Wafer struct {
	WaferID     string `json:"wafer_id"`
	LotID       string `json:"lot_id"`
	HeadNum     uint8  `json:"head_num"`
	StartTime   uint32 `json:"start_time"`
	FinishTime  uint32 `json:"finish_time"`
	PartCount   uint32 `json:"part_count"`
	GoodCount   uint32 `json:"good_count"`
	RetestCount uint32 `json:"rtst_count"`
	AbortCount  uint32 `json:"abrt_count"`
}

// Part is a single die or packaged unit, created once per part-results record.
type Part struct {
	PartID    string `json:"part_id"`
	LotID     string `json:"lot_id"`
	WaferID   string `json:"wafer_id"`
	HeadNum   uint8  `json:"head_num"`
	SiteNum   uint8  `json:"site_num"`
	X         int16  `json:"x_coord"`
	Y         int16  `json:"y_coord"`
	HardBin   uint16 `json:"hard_bin"`
	SoftBin   uint16 `json:"soft_bin"`
	Passed    bool   `json:"passed"`
	TestCount uint16 `json:"test_count"`
	TestTime  uint32 `json:"test_time"`
}

// HasCoords reports whether the part carries wafer coordinates.
func (p Part) HasCoords() bool {
	return p.X != NoCoord && p.Y != NoCoord
}

// TestDef is the canonical description of a test number.
// The first record seen for a test number defines it.
type TestDef struct {
	TestNum  uint32  `json:"test_num"`
	TestName string  `json:"test_name"`
	RecType  string  `json:"rec_type"`
	LoLimit  float64 `json:"lo_limit"`
	HiLimit  float64 `json:"hi_limit"`
	Units    string  `json:"units"`
}

// TestResult is one execution of a test on a part.
type TestResult struct {
	LotID    string  `json:"lot_id"`
	PartID   string  `json:"part_id"`
	WaferID  string  `json:"wafer_id"`
	X        int16   `json:"x_coord"`
	Y        int16   `json:"y_coord"`
	TestNum  uint32  `json:"test_num"`
	TestName string  `json:"test_name"`
	RecType  string  `json:"rec_type"`
	LoLimit  float64 `json:"lo_limit"`
	HiLimit  float64 `json:"hi_limit"`
	Units    string  `json:"units"`
	Result   float64 `json:"result"`
	Passed   bool    `json:"passed"`
}

// HasResult reports whether the row carries a numeric value.
func (r TestResult) HasResult() bool {
	return !math.IsNaN(r.Result)
}

// Bin is a hard or soft bin summary record.
type Bin struct {
	BinNum   uint16 `json:"bin_num"`
	Count    uint32 `json:"bin_count"`
	PassFail string `json:"bin_pf"`
	Name     string `json:"bin_name"`
}

// Lot is the aggregate produced by decoding one STDF stream.
type Lot struct {
	LotID       string `json:"lot_id"`
	SublotID    string `json:"sublot_id"`
	PartType    string `json:"part_type"`
	JobName     string `json:"job_name"`
	JobRev      string `json:"job_rev"`
	NodeName    string `json:"node_name"`
	TesterType  string `json:"tester_type"`
	ExecType    string `json:"exec_type"`
	ExecVersion string `json:"exec_ver"`
	Operator    string `json:"operator"`
	TestCode    string `json:"test_code"`
	StationNum  uint8  `json:"station_num"`
	SetupTime   uint32 `json:"setup_time"`
	StartTime   uint32 `json:"start_time"`
	FinishTime  uint32 `json:"finish_time"`
	CPUType     uint8  `json:"cpu_type"`
	STDFVersion uint8  `json:"stdf_ver"`

	Wafers      []Wafer      `json:"wafers"`
	Parts       []Part       `json:"parts"`
	TestResults []TestResult `json:"test_results"`

	Tests    map[uint32]TestDef `json:"tests"`
	HardBins map[uint16]Bin     `json:"bins_hard"`
	SoftBins map[uint16]Bin     `json:"bins_soft"`
}
