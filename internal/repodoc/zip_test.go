package repodoc

import (
	"archive/zip"
	"bytes"
	"testing"
)

func zipWith(t *testing.T, name string, content []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create(name)
	if err != nil {
		t.Fatalf("zip.Create: %v", err)
	}
	if _, err := f.Write(content); err != nil {
		t.Fatalf("zip write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func TestIsZipDetectsLocalFileHeader(t *testing.T) {
	archive := zipWith(t, "Rep.xml", []byte("<root/>"))
	if !IsZip(archive) {
		t.Fatalf("expected IsZip to detect a ZIP archive")
	}
	if IsZip([]byte("<root/>")) {
		t.Fatalf("expected IsZip to reject a raw XML document")
	}
	if IsZip([]byte("xx")) {
		t.Fatalf("expected IsZip to reject input shorter than the magic bytes")
	}
}

func TestExtractRepXMLReturnsContent(t *testing.T) {
	archive := zipWith(t, "Rep.xml", []byte("<root><package name=\"a\"/></root>"))
	got, err := ExtractRepXML(archive)
	if err != nil {
		t.Fatalf("ExtractRepXML: %v", err)
	}
	if string(got) != `<root><package name="a"/></root>` {
		t.Fatalf("got %q", got)
	}
}

func TestExtractRepXMLErrorsWhenMissing(t *testing.T) {
	archive := zipWith(t, "other.xml", []byte("<root/>"))
	if _, err := ExtractRepXML(archive); err == nil {
		t.Fatalf("expected an error when the archive has no Rep.xml")
	}
}

func TestUnwrapPassesThroughRawXML(t *testing.T) {
	got, err := Unwrap([]byte("<root/>"))
	if err != nil {
		t.Fatalf("Unwrap: %v", err)
	}
	if string(got) != "<root/>" {
		t.Fatalf("got %q, want passthrough", got)
	}
}

func TestUnwrapExtractsZipWrappedDocument(t *testing.T) {
	archive := zipWith(t, "Rep.xml", []byte("<root/>"))
	got, err := Unwrap(archive)
	if err != nil {
		t.Fatalf("Unwrap: %v", err)
	}
	if string(got) != "<root/>" {
		t.Fatalf("got %q, want extracted Rep.xml", got)
	}
}
