// ABOUTME: Endian-aware field reader over a single STDF record payload
// ABOUTME: Strict reads fail past the end; Opt reads fall back to defaults

package stdf

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrEndOfBuffer is returned when a field extends past the record payload.
var ErrEndOfBuffer = errors.New("end of buffer")

// cpuBigEndian is the FAR CPU_TYPE written by big-endian (Sun/Motorola) testers.
const cpuBigEndian = 1

// OrderForCPU maps a FAR CPU_TYPE to the byte order used by the writer.
func OrderForCPU(cpuType uint8) binary.ByteOrder {
	if cpuType == cpuBigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// Cursor decodes primitive STDF fields from one record payload.
//
// The first failed read is sticky: later reads return zero values and Err
// reports the original failure, so decoders can read a whole field list
// and check once.
type Cursor struct {
	buf   []byte
	off   int
	order binary.ByteOrder
	err   error
}

// NewCursor returns a cursor over buf using the given byte order.
func NewCursor(buf []byte, order binary.ByteOrder) *Cursor {
	return &Cursor{buf: buf, order: order}
}

// Offset returns the number of bytes consumed so far.
func (c *Cursor) Offset() int { return c.off }

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int { return len(c.buf) - c.off }

// AtEnd reports whether the cursor has consumed the whole payload.
func (c *Cursor) AtEnd() bool { return c.off >= len(c.buf) }

// Err returns the first read failure, if any.
func (c *Cursor) Err() error { return c.err }

func (c *Cursor) take(n int, field string) []byte {
	if c.err != nil {
		return nil
	}
	if n > c.Remaining() {
		c.err = fmt.Errorf("reading %s at offset %d: %w", field, c.off, ErrEndOfBuffer)
		return nil
	}
	b := c.buf[c.off : c.off+n]
	c.off += n
	return b
}

// U1 reads an unsigned byte.
func (c *Cursor) U1(field string) uint8 {
	b := c.take(1, field)
	if b == nil {
		return 0
	}
	return b[0]
}

// I1 reads a signed byte.
func (c *Cursor) I1(field string) int8 {
	return int8(c.U1(field))
}

// U2 reads an unsigned 2-byte integer.
func (c *Cursor) U2(field string) uint16 {
	b := c.take(2, field)
	if b == nil {
		return 0
	}
	return c.order.Uint16(b)
}

// I2 reads a signed 2-byte integer.
func (c *Cursor) I2(field string) int16 {
	return int16(c.U2(field))
}

// U4 reads an unsigned 4-byte integer.
func (c *Cursor) U4(field string) uint32 {
	b := c.take(4, field)
	if b == nil {
		return 0
	}
	return c.order.Uint32(b)
}

// R4 reads a 4-byte IEEE float, widened to float64.
func (c *Cursor) R4(field string) float64 {
	b := c.take(4, field)
	if b == nil {
		return 0
	}
	return float64(math.Float32frombits(c.order.Uint32(b)))
}

// C1 reads a single character field.
func (c *Cursor) C1(field string) string {
	b := c.take(1, field)
	if b == nil {
		return ""
	}
	return string(rune(b[0]))
}

// Cn reads a string prefixed by a one-byte length.
// Invalid UTF-8 is replaced rather than rejected.
func (c *Cursor) Cn(field string) string {
	n := int(c.U1(field))
	if n == 0 {
		return ""
	}
	b := c.take(n, field)
	if b == nil {
		return ""
	}
	return strings.ToValidUTF8(string(b), "\uFFFD")
}

// Skip discards exactly n bytes.
func (c *Cursor) Skip(field string, n int) {
	c.take(n, field)
}

// SkipUpTo discards up to n bytes, stopping quietly at the end of the payload.
func (c *Cursor) SkipUpTo(n int) {
	if c.err != nil {
		return
	}
	c.off += min(n, c.Remaining())
}

// OptU1 reads an optional unsigned byte.
func (c *Cursor) OptU1(field string, def uint8) uint8 {
	if c.AtEnd() {
		return def
	}
	return c.U1(field)
}

// OptI1 reads an optional signed byte.
func (c *Cursor) OptI1(field string, def int8) int8 {
	if c.AtEnd() {
		return def
	}
	return c.I1(field)
}

// OptU2 reads an optional unsigned 2-byte integer.
func (c *Cursor) OptU2(field string, def uint16) uint16 {
	if c.AtEnd() {
		return def
	}
	return c.U2(field)
}

// OptI2 reads an optional signed 2-byte integer.
func (c *Cursor) OptI2(field string, def int16) int16 {
	if c.AtEnd() {
		return def
	}
	return c.I2(field)
}

// OptU4 reads an optional unsigned 4-byte integer.
func (c *Cursor) OptU4(field string, def uint32) uint32 {
	if c.AtEnd() {
		return def
	}
	return c.U4(field)
}

// OptR4 reads an optional float; absent values default to NaN.
func (c *Cursor) OptR4(field string) float64 {
	if c.AtEnd() {
		return math.NaN()
	}
	return c.R4(field)
}

// OptC1 reads an optional character; absent values are empty.
func (c *Cursor) OptC1(field string) string {
	if c.AtEnd() {
		return ""
	}
	return c.C1(field)
}

// OptCn reads an optional string; absent values are empty.
func (c *Cursor) OptCn(field string) string {
	if c.AtEnd() {
		return ""
	}
	return c.Cn(field)
}
