package repodoc

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"

	"github.com/npackd/npackd/internal/catalogerr"
)

// zipMagic is the four-byte signature of a local file header, used to
// tell a raw XML document apart from a ZIP archive containing Rep.xml.
var zipMagic = []byte{'P', 'K', 0x03, 0x04}

// IsZip reports whether data begins with a ZIP local file header.
func IsZip(data []byte) bool {
	return len(data) >= 4 && bytes.Equal(data[:4], zipMagic)
}

// ExtractRepXML reads Rep.xml out of a ZIP-wrapped repository document. It
// is the Go-native replacement for extracting into a scratch directory:
// archive/zip can read straight from the in-memory byte slice, so no
// temporary directory is needed at all.
func ExtractRepXML(data []byte) ([]byte, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &catalogerr.IOError{Path: "Rep.xml", Err: fmt.Errorf("open zip: %w", err)}
	}

	for _, f := range r.File {
		if f.Name == "Rep.xml" {
			rc, err := f.Open()
			if err != nil {
				return nil, &catalogerr.IOError{Path: "Rep.xml", Err: err}
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, &catalogerr.IOError{Path: "Rep.xml", Err: fmt.Errorf("archive does not contain Rep.xml")}
}

// Unwrap returns the raw XML document to parse, extracting it from a ZIP
// archive first when data is ZIP-wrapped.
func Unwrap(data []byte) ([]byte, error) {
	if IsZip(data) {
		return ExtractRepXML(data)
	}
	return data, nil
}
