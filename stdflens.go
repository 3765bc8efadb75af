// ABOUTME: Main stdflens package providing version information and the file entry point
// ABOUTME: Importing it registers the STDF and JSON lot decoders

// Package stdflens decodes STDF V4 semiconductor test logs into lots and
// analyses their yield, failing tests and bins.
package stdflens

import (
	"github.com/prateek/stdflens/lot"
	"github.com/prateek/stdflens/lotdump"
	_ "github.com/prateek/stdflens/lotdump/stdf"
)

// Version is the semantic version of the stdflens tool
const Version = "0.1.0-dev"

// ParseFile decodes the STDF log or exported JSON lot at path. Gzip-wrapped
// files are recognised by extension.
func ParseFile(path string) (*lot.Lot, error) {
	return lotdump.OpenFile(path)
}
