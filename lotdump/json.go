// ABOUTME: JSON lot parser for exported lots and test fixtures
// ABOUTME: Reads the same document the dump command writes with --format json

package lotdump

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/prateek/stdflens/lot"
)

// JSONParser reads lots previously exported as JSON.
type JSONParser struct{}

// CanParse checks for a JSON object carrying a lot_id key
func (p *JSONParser) CanParse(r io.Reader) bool {
	buf := make([]byte, sniffSize)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return false
	}

	head := bytes.TrimLeft(buf[:n], " \t\r\n")
	if len(head) == 0 || head[0] != '{' {
		return false
	}
	return bytes.Contains(head, []byte(`"lot_id"`))
}

// Parse decodes a JSON lot
func (p *JSONParser) Parse(r io.Reader) (*lot.Lot, error) {
	l := lot.New()
	if err := json.NewDecoder(r).Decode(l); err != nil {
		return nil, fmt.Errorf("decoding JSON lot: %w", err)
	}

	for num, def := range l.Tests {
		if def.TestNum != num {
			return nil, fmt.Errorf("test definition %d carries test_num %d", num, def.TestNum)
		}
	}

	if l.Wafers == nil {
		l.Wafers = []lot.Wafer{}
	}
	if l.Parts == nil {
		l.Parts = []lot.Part{}
	}
	if l.TestResults == nil {
		l.TestResults = []lot.TestResult{}
	}
	if l.Tests == nil {
		l.Tests = map[uint32]lot.TestDef{}
	}
	if l.HardBins == nil {
		l.HardBins = map[uint16]lot.Bin{}
	}
	if l.SoftBins == nil {
		l.SoftBins = map[uint16]lot.Bin{}
	}
	return l, nil
}

func init() {
	Register(&JSONParser{})
}
