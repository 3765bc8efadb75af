// ABOUTME: Byte-level STDF builders shared by the decoder tests
// ABOUTME: Writes framed records in either byte order

package stdf

import (
	"encoding/binary"
	"math"
)

// byteOrder is what both binary.LittleEndian and binary.BigEndian provide.
type byteOrder interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// fields accumulates one record payload.
type fields struct {
	order byteOrder
	b     []byte
}

func (f *fields) u1(v uint8) *fields {
	f.b = append(f.b, v)
	return f
}

func (f *fields) i1(v int8) *fields { return f.u1(uint8(v)) }

func (f *fields) u2(v uint16) *fields {
	f.b = f.order.AppendUint16(f.b, v)
	return f
}

func (f *fields) i2(v int16) *fields { return f.u2(uint16(v)) }

func (f *fields) u4(v uint32) *fields {
	f.b = f.order.AppendUint32(f.b, v)
	return f
}

func (f *fields) r4(v float32) *fields { return f.u4(math.Float32bits(v)) }

func (f *fields) c1(c byte) *fields { return f.u1(c) }

func (f *fields) cn(s string) *fields {
	f.b = append(f.b, byte(len(s)))
	f.b = append(f.b, s...)
	return f
}

// stream accumulates framed records.
type stream struct {
	order byteOrder
	b     []byte
}

func newStream(order byteOrder) *stream {
	return &stream{order: order}
}

func (s *stream) fields() *fields { return &fields{order: s.order} }

func (s *stream) add(typ, sub uint8, f *fields) *stream {
	s.b = s.order.AppendUint16(s.b, uint16(len(f.b)))
	s.b = append(s.b, typ, sub)
	s.b = append(s.b, f.b...)
	return s
}

func (s *stream) raw(b ...byte) *stream {
	s.b = append(s.b, b...)
	return s
}

func (s *stream) bytes() []byte { return s.b }

func (s *stream) far() *stream {
	cpu := uint8(2)
	if s.order == binary.BigEndian {
		cpu = cpuBigEndian
	}
	return s.add(0, 10, s.fields().u1(cpu).u1(4))
}

func (s *stream) mir(lotID string) *stream {
	return s.add(1, 10, s.fields().
		u4(1000).u4(2000).u1(3).
		c1('P').c1(' ').c1(' ').u2(0xFFFF).c1(' ').
		cn(lotID).cn("PT-9").cn("node1").cn("tester").
		cn("job").cn("r2").cn("sub").cn("op").
		cn("exec").cn("9.1").cn("WS1"))
}

func (s *stream) mrr(finish uint32) *stream {
	return s.add(1, 20, s.fields().u4(finish))
}

func (s *stream) wir(head uint8, waferID string) *stream {
	return s.add(2, 10, s.fields().u1(head).u1(255).u4(1500).cn(waferID))
}

func (s *stream) wrr(head uint8, parts, good uint32) *stream {
	return s.add(2, 20, s.fields().
		u1(head).u1(255).u4(2500).
		u4(parts).u4(0).u4(0).u4(good).u4(0xFFFFFFFF))
}

func (s *stream) pir(head, site uint8) *stream {
	return s.add(5, 10, s.fields().u1(head).u1(site))
}

// prr writes a full part-results record.
func (s *stream) prr(head, site, flag uint8, hardBin, softBin uint16, x, y int16) *stream {
	return s.add(5, 20, s.fields().
		u1(head).u1(site).u1(flag).u2(1).u2(hardBin).
		u2(softBin).i2(x).i2(y).u4(125))
}

// ptr writes a parametric test with limits and units.
func (s *stream) ptr(num uint32, site, flag uint8, result float32, name string) *stream {
	return s.add(15, 10, s.fields().
		u4(num).u1(1).u1(site).u1(flag).u1(0).
		r4(result).cn(name).cn("").
		u1(0).i1(0).i1(0).i1(0).
		r4(1).r4(9).cn("V"))
}

func (s *stream) ftr(num uint32, site, flag uint8) *stream {
	return s.add(15, 20, s.fields().u4(num).u1(1).u1(site).u1(flag))
}

func (s *stream) sbr(bin uint16, count uint32, pf byte, name string) *stream {
	return s.add(1, 50, s.fields().u1(255).u1(0).u2(bin).u4(count).c1(pf).cn(name))
}

func (s *stream) hbr(bin uint16, count uint32, pf byte, name string) *stream {
	return s.add(1, 40, s.fields().u1(255).u1(0).u2(bin).u4(count).c1(pf).cn(name))
}

// singlePart is the minimal one-wafer, one-part log.
func singlePart(order byteOrder) *stream {
	return newStream(order).
		far().
		mir("X").
		wir(1, "W1").
		pir(1, 1).
		ptr(100, 1, 0, 5.0, "vdd").
		prr(1, 1, 0, 1, 1, 3, -4).
		wrr(1, 1, 1).
		mrr(3000)
}
