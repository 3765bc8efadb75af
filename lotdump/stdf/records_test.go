// ABOUTME: Tests for record header framing and the per-record decoders
// ABOUTME: Decoders are exercised directly on hand-built payloads

package stdf

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeHeader(t *testing.T) {
	tests := []struct {
		name  string
		raw   [HeaderSize]byte
		order binary.ByteOrder
		want  Header
	}{
		{name: "little-endian FAR", raw: [4]byte{2, 0, 0, 10}, order: binary.LittleEndian, want: Header{Len: 2, Type: 0, Sub: 10}},
		{name: "big-endian FAR read optimistically", raw: [4]byte{0, 2, 0, 10}, order: binary.LittleEndian, want: Header{Len: 2, Type: 0, Sub: 10}},
		{name: "big-endian PTR under big-endian order", raw: [4]byte{0, 28, 15, 10}, order: binary.BigEndian, want: Header{Len: 28, Type: 15, Sub: 10}},
		{name: "big-endian PTR under little-endian order", raw: [4]byte{0, 28, 15, 10}, order: binary.LittleEndian, want: Header{Len: 28 << 8, Type: 15, Sub: 10}},
		{name: "long little-endian record", raw: [4]byte{0x10, 0x01, 1, 10}, order: binary.LittleEndian, want: Header{Len: 0x0110, Type: 1, Sub: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decodeHeader(tt.raw, tt.order))
		})
	}
}

func TestHeaderKindAndName(t *testing.T) {
	tests := []struct {
		typ, sub uint8
		kind     Kind
		name     string
	}{
		{0, 10, KindFAR, "FAR"},
		{1, 10, KindMIR, "MIR"},
		{1, 20, KindMRR, "MRR"},
		{1, 40, KindHBR, "HBR"},
		{1, 50, KindSBR, "SBR"},
		{2, 10, KindWIR, "WIR"},
		{2, 20, KindWRR, "WRR"},
		{5, 10, KindPIR, "PIR"},
		{5, 20, KindPRR, "PRR"},
		{15, 10, KindPTR, "PTR"},
		{15, 15, KindMPR, "MPR"},
		{15, 20, KindFTR, "FTR"},
		{1, 30, KindUnsupported, "PCR"},
		{10, 30, KindUnsupported, "TSR"},
		{1, 80, KindUnsupported, "SDR"},
		{99, 9, KindUnsupported, "99/9"},
	}

	for _, tt := range tests {
		h := Header{Type: tt.typ, Sub: tt.sub}
		assert.Equal(t, tt.kind, h.Kind(), "%d/%d", tt.typ, tt.sub)
		assert.Equal(t, tt.name, h.Name(), "%d/%d", tt.typ, tt.sub)
	}
	assert.Equal(t, "Kind(200)", Kind(200).String())
}

func TestPartFlag(t *testing.T) {
	tests := []struct {
		flag   uint8
		passed bool
	}{
		{0x00, true},
		{0x08, false},
		{0xF7, true},
		{0xFF, false},
		{0x10, true},
	}

	for _, tt := range tests {
		f := &fields{order: binary.LittleEndian}
		f.u1(1).u1(1).u1(tt.flag).u2(3).u2(1)
		r := decodePRR(NewCursor(f.b, binary.LittleEndian))
		assert.Equal(t, tt.passed, r.Passed(), "flag %#02x", tt.flag)
	}
}

func TestTestFlag(t *testing.T) {
	for _, tt := range []struct {
		flag   uint8
		passed bool
	}{
		{0x00, true},
		{0x80, false},
		{0x7F, true},
		{0xC0, false},
	} {
		f := &fields{order: binary.LittleEndian}
		f.u4(7).u1(1).u1(1).u1(tt.flag).u1(0)

		ptr := decodePTR(NewCursor(f.b, binary.LittleEndian))
		mpr := decodeMPR(NewCursor(f.b, binary.LittleEndian))
		ftr := decodeFTR(NewCursor(f.b[:7], binary.LittleEndian))

		assert.Equal(t, tt.passed, ptr.Passed(), "PTR flag %#02x", tt.flag)
		assert.Equal(t, tt.passed, mpr.Passed(), "MPR flag %#02x", tt.flag)
		assert.Equal(t, tt.passed, ftr.Passed(), "FTR flag %#02x", tt.flag)
	}
}

func TestMissingTailDefaults(t *testing.T) {
	t.Run("PRR", func(t *testing.T) {
		f := &fields{order: binary.LittleEndian}
		f.u1(1).u1(2).u1(0).u2(4).u2(9)
		c := NewCursor(f.b, binary.LittleEndian)
		r := decodePRR(c)
		require.NoError(t, c.Err())
		assert.Equal(t, uint16(9), r.HardBin)
		assert.Equal(t, uint16(0), r.SoftBin)
		assert.Equal(t, noCoord, r.X)
		assert.Equal(t, noCoord, r.Y)
		assert.Equal(t, uint32(0), r.TestTime)
	})

	t.Run("PTR", func(t *testing.T) {
		f := &fields{order: binary.LittleEndian}
		f.u4(100).u1(1).u1(1).u1(0).u1(0)
		c := NewCursor(f.b, binary.LittleEndian)
		r := decodePTR(c)
		require.NoError(t, c.Err())
		assert.True(t, math.IsNaN(r.Result))
		assert.True(t, math.IsNaN(r.LoLimit))
		assert.True(t, math.IsNaN(r.HiLimit))
		assert.Equal(t, "", r.TestText)
		assert.Equal(t, "", r.Units)
		assert.Equal(t, uint8(0xFF), r.OptFlag)
	})

	t.Run("PTR with result and name only", func(t *testing.T) {
		f := &fields{order: binary.LittleEndian}
		f.u4(100).u1(1).u1(1).u1(0).u1(0).r4(0.25).cn("ileak")
		c := NewCursor(f.b, binary.LittleEndian)
		r := decodePTR(c)
		require.NoError(t, c.Err())
		assert.Equal(t, 0.25, r.Result)
		assert.Equal(t, "ileak", r.TestText)
		assert.True(t, math.IsNaN(r.LoLimit))
	})

	t.Run("MIR", func(t *testing.T) {
		f := &fields{order: binary.LittleEndian}
		f.u4(1).u4(2).u1(3)
		c := NewCursor(f.b, binary.LittleEndian)
		r := decodeMIR(c)
		require.NoError(t, c.Err())
		assert.Equal(t, uint32(2), r.StartTime)
		assert.Equal(t, "", r.LotID)
		assert.Equal(t, "", r.TestCode)
	})

	t.Run("WIR", func(t *testing.T) {
		c := NewCursor([]byte{4}, binary.LittleEndian)
		r := decodeWIR(c)
		require.NoError(t, c.Err())
		assert.Equal(t, uint8(4), r.HeadNum)
		assert.Equal(t, "", r.WaferID)
	})

	t.Run("SBR", func(t *testing.T) {
		f := &fields{order: binary.LittleEndian}
		f.u1(255).u1(0).u2(3).u4(12)
		c := NewCursor(f.b, binary.LittleEndian)
		r := decodeBin(c)
		require.NoError(t, c.Err())
		assert.Equal(t, uint16(3), r.BinNum)
		assert.Equal(t, uint32(12), r.Count)
		assert.Equal(t, "", r.PassFail)
		assert.Equal(t, "", r.Name)
	})
}

func TestMandatoryFieldsAreStrict(t *testing.T) {
	tests := []struct {
		name   string
		buf    []byte
		decode func(c *Cursor)
	}{
		{name: "PRR without HARD_BIN", buf: []byte{1, 1, 0, 1, 0}, decode: func(c *Cursor) { decodePRR(c) }},
		{name: "PTR without PARM_FLG", buf: []byte{1, 0, 0, 0, 1, 1, 0}, decode: func(c *Cursor) { decodePTR(c) }},
		{name: "PIR without SITE_NUM", buf: []byte{1}, decode: func(c *Cursor) { decodePIR(c) }},
		{name: "MRR empty", buf: nil, decode: func(c *Cursor) { decodeMRR(c) }},
		{name: "FAR one byte", buf: []byte{2}, decode: func(c *Cursor) { decodeFAR(c) }},
		{name: "HBR without BIN_CNT", buf: []byte{1, 1, 1, 0}, decode: func(c *Cursor) { decodeBin(c) }},
		{name: "WRR empty", buf: nil, decode: func(c *Cursor) { decodeWRR(c) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCursor(tt.buf, binary.LittleEndian)
			tt.decode(c)
			assert.ErrorIs(t, c.Err(), ErrEndOfBuffer)
		})
	}
}

func TestDecodeMPR(t *testing.T) {
	f := &fields{order: binary.BigEndian}
	f.u4(500).u1(1).u1(2).u1(0).u1(0).
		u2(3).u2(3).
		u1(0x12).u1(0x03). // RTN_STAT, three nibbles
		r4(1.5).r4(2.5).r4(3.5).
		cn("multi").cn("").
		u1(0).i1(0).i1(0).i1(0).
		r4(1).r4(4).r4(0).r4(0).
		u2(1).u2(2).u2(3).
		cn("mA")

	c := NewCursor(f.b, binary.BigEndian)
	r := decodeMPR(c)
	require.NoError(t, c.Err())
	assert.True(t, c.AtEnd())

	assert.Equal(t, uint32(500), r.TestNum)
	assert.Equal(t, uint8(2), r.SiteNum)
	assert.Equal(t, 1.5, r.FirstResult)
	assert.Equal(t, "multi", r.TestText)
	assert.Equal(t, 1.0, r.LoLimit)
	assert.Equal(t, 4.0, r.HiLimit)
	assert.Equal(t, "mA", r.Units)
}

func TestDecodeMPRWithoutResults(t *testing.T) {
	f := &fields{order: binary.LittleEndian}
	f.u4(501).u1(1).u1(1).u1(0x80).u1(0).u2(0).u2(0).cn("none")

	c := NewCursor(f.b, binary.LittleEndian)
	r := decodeMPR(c)
	require.NoError(t, c.Err())
	assert.True(t, math.IsNaN(r.FirstResult))
	assert.Equal(t, "none", r.TestText)
	assert.False(t, r.Passed())
}

func TestDecodeMPRShortArrays(t *testing.T) {
	// RSLT_CNT claims more results than the payload holds
	f := &fields{order: binary.LittleEndian}
	f.u4(502).u1(1).u1(1).u1(0).u1(0).u2(2).u2(10).u1(0x11).r4(7.5)

	c := NewCursor(f.b, binary.LittleEndian)
	r := decodeMPR(c)
	require.NoError(t, c.Err())
	assert.Equal(t, 7.5, r.FirstResult)
	assert.Equal(t, "", r.Units)
	assert.True(t, math.IsNaN(r.LoLimit))
}

func TestDecodeMIRFull(t *testing.T) {
	s := newStream(binary.LittleEndian).mir("LOT42")
	payload := s.bytes()[HeaderSize:]

	c := NewCursor(payload, binary.LittleEndian)
	r := decodeMIR(c)
	require.NoError(t, c.Err())
	assert.True(t, c.AtEnd())
	assert.Equal(t, "LOT42", r.LotID)
	assert.Equal(t, "PT-9", r.PartType)
	assert.Equal(t, "job", r.JobName)
	assert.Equal(t, "r2", r.JobRev)
	assert.Equal(t, "tester", r.TesterType)
	assert.Equal(t, "op", r.Operator)
	assert.Equal(t, "WS1", r.TestCode)
	assert.Equal(t, "P", r.ModeCode)
	assert.Equal(t, uint16(0xFFFF), r.BurnTime)
}
