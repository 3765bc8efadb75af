// ABOUTME: STDF V4 parser implementing the lotdump parser interface
// ABOUTME: Frames records, dispatches them to decoders and tolerates corrupt or truncated input

package stdf

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/prateek/stdflens/lot"
	"github.com/prateek/stdflens/lotdump"
)

const (
	readBufferSize = 256 * 1024

	// sniffSize and maxSniffRecords bound how much CanParse inspects.
	sniffSize       = 4096
	maxSniffRecords = 8
)

// Parser decodes STDF V4 streams into a lot.
type Parser struct {
	Hooks Hooks

	// ProgressEvery is the number of records between OnProgress calls.
	// Zero means DefaultProgressEvery; negative disables progress reports.
	ProgressEvery int
}

// Ensure Parser implements the lotdump interface
var _ lotdump.Parser = (*Parser)(nil)

func init() {
	lotdump.Register(&Parser{})
}

// CanParse reports whether the stream looks like STDF. Empty input is
// accepted and decodes to an empty lot. Otherwise the leading headers are
// walked little-endian: the first known record kind accepts the stream, and
// records of unknown kind are stepped over as long as they fit in the
// sniffed head.
func (p *Parser) CanParse(r io.Reader) bool {
	head, err := io.ReadAll(io.LimitReader(r, sniffSize))
	if err != nil && len(head) == 0 {
		return false
	}
	if len(head) == 0 {
		return true
	}

	off := 0
	for range maxSniffRecords {
		if len(head)-off < HeaderSize {
			return false
		}
		h := decodeHeader([HeaderSize]byte(head[off:off+HeaderSize]), binary.LittleEndian)
		if h.Kind() != KindUnsupported {
			return true
		}
		if _, ok := skippedNames[typeSub(h.Type, h.Sub)]; ok {
			return true
		}
		off += HeaderSize + int(h.Len)
	}
	return false
}

// Parse decodes every record in r. Clean end of data, a truncated final
// record and a failing reader all end the parse successfully with the lot
// built so far; a reader failure is reported to Hooks.OnReadError. Records
// that fail to decode are reported to Hooks.OnDecodeError and otherwise
// ignored.
//
// The returned lot is never nil and the error is always nil; the error
// result satisfies the lotdump interface.
func (p *Parser) Parse(r io.Reader) (*lot.Lot, error) {
	every := int64(p.ProgressEvery)
	if every == 0 {
		every = DefaultProgressEvery
	}

	d := &decoder{
		r:     bufio.NewReaderSize(r, readBufferSize),
		st:    newState(),
		hooks: &p.Hooks,
		every: every,
	}
	if err := d.run(); err != nil {
		d.hooks.readError(err)
	}
	d.hooks.progress(d.off, d.records)
	return d.st.lot, nil
}

// ParseBytes decodes an in-memory STDF image.
func ParseBytes(b []byte) *lot.Lot {
	l, _ := (&Parser{}).Parse(bytes.NewReader(b))
	return l
}

type decoder struct {
	r     *bufio.Reader
	st    *state
	hooks *Hooks

	off     int64
	records int64
	every   int64
	payload []byte
}

func isEOF(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

func (d *decoder) run() error {
	var raw [HeaderSize]byte
	for {
		start := d.off
		n, err := io.ReadFull(d.r, raw[:])
		d.off += int64(n)
		if err != nil {
			if !isEOF(err) {
				return fmt.Errorf("reading header at offset %d: %w", start, err)
			}
			if n > 0 {
				d.hooks.truncated(Header{}, n)
			}
			return nil
		}

		h := decodeHeader(raw, d.st.order)
		payload := d.buffer(int(h.Len))
		n, err = io.ReadFull(d.r, payload)
		d.off += int64(n)
		if err != nil {
			if !isEOF(err) {
				return fmt.Errorf("reading %s payload at offset %d: %w", h.Name(), start, err)
			}
			d.hooks.truncated(h, n)
			return nil
		}

		d.records++
		d.hooks.record(h)
		if err := d.dispatch(h, payload); err != nil {
			d.hooks.decodeError(&RecordError{Header: h, Offset: start, Err: err})
		}

		if d.every > 0 && d.records%d.every == 0 {
			d.hooks.progress(d.off, d.records)
		}
	}
}

// buffer returns a payload slice of length n, reusing earlier storage.
// Decoders copy everything they keep, so reuse is safe.
func (d *decoder) buffer(n int) []byte {
	if cap(d.payload) < n {
		d.payload = make([]byte, n)
	}
	return d.payload[:n]
}

// run decodes one typed record and applies it only when every field read
// succeeded, so a corrupt record leaves no partial effect.
func run[T any](c *Cursor, decode func(*Cursor) T, apply func(T)) error {
	rec := decode(c)
	if err := c.Err(); err != nil {
		return err
	}
	apply(rec)
	return nil
}

func (d *decoder) dispatch(h Header, payload []byte) error {
	c := NewCursor(payload, d.st.order)
	st := d.st

	switch h.Kind() {
	case KindFAR:
		return run(c, decodeFAR, st.applyFAR)
	case KindMIR:
		return run(c, decodeMIR, st.applyMIR)
	case KindMRR:
		return run(c, decodeMRR, st.applyMRR)
	case KindHBR:
		return run(c, decodeBin, st.applyHBR)
	case KindSBR:
		return run(c, decodeBin, st.applySBR)
	case KindWIR:
		return run(c, decodeWIR, st.applyWIR)
	case KindWRR:
		return run(c, decodeWRR, st.applyWRR)
	case KindPIR:
		return run(c, decodePIR, st.applyPIR)
	case KindPRR:
		return run(c, decodePRR, st.applyPRR)
	case KindPTR:
		return run(c, decodePTR, st.applyPTR)
	case KindMPR:
		return run(c, decodeMPR, st.applyMPR)
	case KindFTR:
		return run(c, decodeFTR, st.applyFTR)
	case KindUnsupported:
		d.hooks.skip(h)
	}
	return nil
}
