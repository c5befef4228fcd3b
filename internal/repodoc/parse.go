package repodoc

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/npackd/npackd/internal/catalog"
	"github.com/npackd/npackd/internal/catalogerr"
	"github.com/npackd/npackd/internal/version"
)

// Parse walks a repository document as a SAX-style token stream and emits
// Package, PackageVersion, and License records into target. replace
// controls whether later documents overwrite rows a previous repository
// already wrote (matching catalog.Store's own upsert semantics). source
// names the document in any resulting CorruptCatalog error.
//
// Parse does not unwrap ZIP-wrapped documents; call Unwrap first.
func Parse(source string, data []byte, target catalog.RepositoryWriter, replace bool) error {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var currentPackage string // set by the nearest enclosing <package name="...">

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			line, col := xmlPos(data, dec.InputOffset())
			return &catalogerr.CorruptCatalog{Source: source, Line: line, Column: col, Err: err}
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "package":
			var el struct {
				packageElement
				Versions []StoredVersion `xml:"version"`
			}
			if err := dec.DecodeElement(&el, &start); err != nil {
				line, col := xmlPos(data, dec.InputOffset())
				return &catalogerr.CorruptCatalog{Source: source, Line: line, Column: col, Err: err}
			}
			currentPackage = el.Name
			if err := applyPackage(target, &el.packageElement, replace); err != nil {
				return err
			}
			for i := range el.Versions {
				if el.Versions[i].Package == "" {
					el.Versions[i].Package = el.Name
				}
				if err := applyVersion(target, &el.Versions[i], replace); err != nil {
					return err
				}
			}
		case "version":
			var el StoredVersion
			if err := dec.DecodeElement(&el, &start); err != nil {
				line, col := xmlPos(data, dec.InputOffset())
				return &catalogerr.CorruptCatalog{Source: source, Line: line, Column: col, Err: err}
			}
			if el.Package == "" {
				el.Package = currentPackage
			}
			if err := applyVersion(target, &el, replace); err != nil {
				return err
			}
		case "license":
			var el licenseElement
			if err := dec.DecodeElement(&el, &start); err != nil {
				line, col := xmlPos(data, dec.InputOffset())
				return &catalogerr.CorruptCatalog{Source: source, Line: line, Column: col, Err: err}
			}
			if err := target.UpsertLicense(&catalog.License{
				Name:        el.Name,
				Title:       el.Title,
				Description: el.Description,
				URL:         el.URL,
			}, replace); err != nil {
				return err
			}
		}
	}
}

func applyPackage(target catalog.RepositoryWriter, el *packageElement, replace bool) error {
	links := make([]catalog.Link, 0, len(el.Links))
	for _, l := range el.Links {
		links = append(links, catalog.Link{Rel: l.Rel, Href: l.Href})
	}

	p := &catalog.Package{
		Name:         el.Name,
		Title:        el.Title,
		URL:          el.URL,
		Icon:         el.Icon,
		Description:  el.Description,
		License:      el.License,
		CategoryPath: categoryPath(el),
		Links:        links,
	}
	// UpsertPackage resolves CategoryPath into CATEGORY0..4 itself,
	// inserting any level that does not exist yet.
	return target.UpsertPackage(p, replace)
}

// categoryPath joins the document's category0..4 attributes into the
// "/"-separated path catalog.Package.CategoryPath expects, stopping at the
// first empty level.
func categoryPath(el *packageElement) string {
	levels := []string{el.Category0, el.Category1, el.Category2, el.Category3, el.Category4}
	var segments []string
	for _, l := range levels {
		if l == "" {
			break
		}
		segments = append(segments, l)
	}
	return strings.Join(segments, "/")
}

func applyVersion(target catalog.RepositoryWriter, el *StoredVersion, replace bool) error {
	v, err := version.Parse(el.Name)
	if err != nil {
		return fmt.Errorf("parse version %q for package %q: %w", el.Name, el.Package, err)
	}

	content, err := xml.Marshal(el)
	if err != nil {
		return fmt.Errorf("re-marshal version %q for package %q: %w", el.Name, el.Package, err)
	}

	pv := &catalog.PackageVersion{
		Package:         el.Package,
		Version:         v,
		Content:         content,
		DownloadURL:     el.URL,
		MSIGUID:         el.MSIGUID,
		DetectFileCount: len(el.DetectFiles),
	}
	return target.UpsertPackageVersion(pv, replace)
}

// xmlPos converts a byte offset into the 1-based line and column encoding.
// Decoder.InputOffset reports.
func xmlPos(data []byte, offset int64) (line, col int) {
	line, col = 1, 1
	for i := int64(0); i < offset && i < int64(len(data)); i++ {
		if data[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}
