// ABOUTME: Registry for test data log parsers
// ABOUTME: Manages parser plugins and selects the parser for a stream by sniffing its head

package lotdump

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/prateek/stdflens/lot"
)

// ErrNoParser is returned when no parser can handle the stream format
var ErrNoParser = errors.New("no parser found for input format")

// sniffSize is how much of the stream parsers get to inspect.
const sniffSize = 4096

type parserRegistry struct {
	mu      sync.RWMutex
	parsers []Parser
}

var registry = &parserRegistry{
	parsers: make([]Parser, 0),
}

// Register adds a parser to the registry
func Register(p Parser) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.parsers = append(registry.parsers, p)
}

// Parsers returns a snapshot of the registered parsers in registration order.
func Parsers() []Parser {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	return append([]Parser(nil), registry.parsers...)
}

// Open decodes a lot from r with the first parser that recognises it.
// When parsers are given they are tried instead of the registered ones,
// which lets callers supply configured instances.
func Open(r io.Reader, parsers ...Parser) (*lot.Lot, error) {
	p, br, err := Detect(r, parsers...)
	if err != nil {
		return nil, err
	}
	return p.Parse(br)
}

// Detect picks the parser for r without consuming it. The returned reader
// replays the sniffed bytes and must be used in place of r.
//
// A read failure after some bytes arrived does not stop detection: the
// parsers see what was read and the returned reader yields those bytes
// followed by the failure. Only a failure before any data is returned.
func Detect(r io.Reader, parsers ...Parser) (Parser, io.Reader, error) {
	br := bufio.NewReaderSize(r, sniffSize)
	head, err := br.Peek(sniffSize)
	var src io.Reader = br
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		if len(head) == 0 {
			return nil, nil, fmt.Errorf("reading input head: %w", err)
		}
		head = bytes.Clone(head)
		src = io.MultiReader(bytes.NewReader(head), failedReader{err: err})
	}

	if len(parsers) == 0 {
		parsers = Parsers()
	}
	for _, p := range parsers {
		if p.CanParse(bytes.NewReader(head)) {
			return p, src, nil
		}
	}
	return nil, nil, ErrNoParser
}

// failedReader always returns err.
type failedReader struct {
	err error
}

func (f failedReader) Read([]byte) (int, error) { return 0, f.err }
