// ABOUTME: Observer callbacks for the STDF decoder
// ABOUTME: The decoder never logs; collaborators attach here for metrics and diagnostics

package stdf

import "fmt"

// DefaultProgressEvery is the record interval between OnProgress calls.
const DefaultProgressEvery = 10000

// Hooks receives decoder events. Every field is optional.
type Hooks struct {
	// OnRecord is called for every framed record whose payload was read in full
	OnRecord func(h Header)

	// OnSkip is called for records of a kind the decoder does not decode
	OnSkip func(h Header)

	// OnDecodeError is called when a known record fails to decode.
	// The record's effect is discarded and decoding continues.
	OnDecodeError func(err *RecordError)

	// OnTruncated is called when the stream ends inside a payload
	OnTruncated func(h Header, got int)

	// OnReadError is called when the underlying reader fails. Decoding
	// stops there and the lot built so far is returned.
	OnReadError func(err error)

	// OnProgress is called periodically with progress updates
	OnProgress func(bytesRead, records int64)
}

// RecordError describes a record that was framed correctly but could not be
// decoded.
type RecordError struct {
	Header Header
	Offset int64 // stream offset of the record header
	Err    error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("decoding %s at offset %d: %v", e.Header.Name(), e.Offset, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// Kind returns the decoded kind of the failing record.
func (e *RecordError) Kind() Kind { return e.Header.Kind() }

func (h *Hooks) record(hdr Header) {
	if h.OnRecord != nil {
		h.OnRecord(hdr)
	}
}

func (h *Hooks) skip(hdr Header) {
	if h.OnSkip != nil {
		h.OnSkip(hdr)
	}
}

func (h *Hooks) decodeError(err *RecordError) {
	if h.OnDecodeError != nil {
		h.OnDecodeError(err)
	}
}

func (h *Hooks) truncated(hdr Header, got int) {
	if h.OnTruncated != nil {
		h.OnTruncated(hdr, got)
	}
}

func (h *Hooks) readError(err error) {
	if h.OnReadError != nil {
		h.OnReadError(err)
	}
}

func (h *Hooks) progress(bytesRead, records int64) {
	if h.OnProgress != nil {
		h.OnProgress(bytesRead, records)
	}
}
