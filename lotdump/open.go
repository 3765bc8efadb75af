// ABOUTME: File entry point that opens, decompresses and decodes a lot
// ABOUTME: Gzip-wrapped inputs are recognised by their file extension

package lotdump

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/prateek/stdflens/lot"
)

// IsCompressed reports whether the file name marks a gzip-wrapped input.
func IsCompressed(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".gz", ".gzip":
		return true
	}
	return false
}

// OpenFile decodes the lot stored at path. Open and gzip header failures
// are returned before any decoding starts.
func OpenFile(path string, parsers ...Parser) (*lot.Lot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if IsCompressed(path) {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("opening gzip stream %s: %w", path, err)
		}
		defer zr.Close()
		r = zr
	}

	l, err := Open(r, parsers...)
	if err != nil {
		return l, fmt.Errorf("decoding %s: %w", path, err)
	}
	return l, nil
}
