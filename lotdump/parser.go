// ABOUTME: Parser interface for test data log formats
// ABOUTME: Defines the contract for pluggable lot decoders

package lotdump

import (
	"io"

	"github.com/prateek/stdflens/lot"
)

// Parser is the interface for test data log parsers
type Parser interface {
	// CanParse checks if this parser can handle the given format.
	// The reader is a preview of the first bytes of the stream;
	// implementations read only what they need to detect the format.
	CanParse(r io.Reader) bool

	// Parse reads the whole stream and builds a lot.
	// The reader is positioned at the start of the stream.
	Parse(r io.Reader) (*lot.Lot, error)
}
