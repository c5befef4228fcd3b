package catalog

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"

	"github.com/npackd/npackd/internal/catalogerr"
)

// validateXML re-parses a stored PACKAGE_VERSION.CONTENT blob far enough to
// confirm it is well-formed. The catalog stores the fragment opaquely;
// document ingestion (internal/repodoc) is the only place that interprets
// its structure, but every read-back re-validates so a corrupted blob
// surfaces as CorruptCatalog rather than as a downstream panic.
func validateXML(source string, content []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(content))
	for {
		_, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			line, col := xmlPos(content, dec.InputOffset())
			return &catalogerr.CorruptCatalog{Source: source, Line: line, Column: col, Err: err}
		}
	}
}

func xmlPos(content []byte, offset int64) (line, col int) {
	line = 1
	col = 1
	n := int(offset)
	if n > len(content) {
		n = len(content)
	}
	for i := 0; i < n; i++ {
		if content[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}
