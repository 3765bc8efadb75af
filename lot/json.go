// ABOUTME: JSON encoding for test rows with optional float fields
// ABOUTME: Absent limits and results (NaN) travel as JSON null

package lot

import (
	"encoding/json"
	"math"
)

func nullable(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func orNaN(f *float64) float64 {
	if f == nil {
		return math.NaN()
	}
	return *f
}

type testDefJSON struct {
	TestNum  uint32   `json:"test_num"`
	TestName string   `json:"test_name"`
	RecType  string   `json:"rec_type"`
	LoLimit  *float64 `json:"lo_limit"`
	HiLimit  *float64 `json:"hi_limit"`
	Units    string   `json:"units"`
}

// MarshalJSON encodes NaN limits as null.
func (t TestDef) MarshalJSON() ([]byte, error) {
	return json.Marshal(testDefJSON{
		TestNum:  t.TestNum,
		TestName: t.TestName,
		RecType:  t.RecType,
		LoLimit:  nullable(t.LoLimit),
		HiLimit:  nullable(t.HiLimit),
		Units:    t.Units,
	})
}

// UnmarshalJSON decodes null limits as NaN.
func (t *TestDef) UnmarshalJSON(data []byte) error {
	var v testDefJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*t = TestDef{
		TestNum:  v.TestNum,
		TestName: v.TestName,
		RecType:  v.RecType,
		LoLimit:  orNaN(v.LoLimit),
		HiLimit:  orNaN(v.HiLimit),
		Units:    v.Units,
	}
	return nil
}

type testResultJSON struct {
	LotID    string   `json:"lot_id"`
	PartID   string   `json:"part_id"`
	WaferID  string   `json:"wafer_id"`
	X        int16    `json:"x_coord"`
	Y        int16    `json:"y_coord"`
	TestNum  uint32   `json:"test_num"`
	TestName string   `json:"test_name"`
	RecType  string   `json:"rec_type"`
	LoLimit  *float64 `json:"lo_limit"`
	HiLimit  *float64 `json:"hi_limit"`
	Units    string   `json:"units"`
	Result   *float64 `json:"result"`
	Passed   bool     `json:"passed"`
}

// MarshalJSON encodes NaN limits and results as null.
func (r TestResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(testResultJSON{
		LotID:    r.LotID,
		PartID:   r.PartID,
		WaferID:  r.WaferID,
		X:        r.X,
		Y:        r.Y,
		TestNum:  r.TestNum,
		TestName: r.TestName,
		RecType:  r.RecType,
		LoLimit:  nullable(r.LoLimit),
		HiLimit:  nullable(r.HiLimit),
		Units:    r.Units,
		Result:   nullable(r.Result),
		Passed:   r.Passed,
	})
}

// UnmarshalJSON decodes null limits and results as NaN.
func (r *TestResult) UnmarshalJSON(data []byte) error {
	var v testResultJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = TestResult{
		LotID:    v.LotID,
		PartID:   v.PartID,
		WaferID:  v.WaferID,
		X:        v.X,
		Y:        v.Y,
		TestNum:  v.TestNum,
		TestName: v.TestName,
		RecType:  v.RecType,
		LoLimit:  orNaN(v.LoLimit),
		HiLimit:  orNaN(v.HiLimit),
		Units:    v.Units,
		Result:   orNaN(v.Result),
		Passed:   v.Passed,
	}
	return nil
}
