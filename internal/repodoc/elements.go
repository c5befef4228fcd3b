package repodoc

import "encoding/xml"

// packageElement is the wire shape of a <package> entry in a repository
// document.
type packageElement struct {
	XMLName     xml.Name      `xml:"package"`
	Name        string        `xml:"name,attr"`
	Title       string        `xml:"title,attr"`
	URL         string        `xml:"url,attr"`
	Icon        string        `xml:"icon,attr"`
	Description string        `xml:"description,attr"`
	License     string        `xml:"license,attr"`
	Category0   string        `xml:"category0,attr"`
	Category1   string        `xml:"category1,attr"`
	Category2   string        `xml:"category2,attr"`
	Category3   string        `xml:"category3,attr"`
	Category4   string        `xml:"category4,attr"`
	Links       []linkElement `xml:"link"`
}

type linkElement struct {
	Rel  string `xml:"rel,attr"`
	Href string `xml:"href,attr"`
}

// StoredVersion is the wire shape of a <version> entry, and also the shape
// PackageVersion.Content is re-marshaled into after parsing. Exporting it
// lets internal/oracle decode a stored Content blob back into its
// detect-file list without repeating this schema or importing the parser.
type StoredVersion struct {
	XMLName     xml.Name     `xml:"version"`
	Name        string       `xml:"name,attr"`
	Package     string       `xml:"package,attr"`
	URL         string       `xml:"url,attr"`
	MSIGUID     string       `xml:"msiguid,attr"`
	DetectFiles []DetectFile `xml:"detect-file"`
}

// DecodeStoredVersion re-parses a PackageVersion.Content blob produced by
// Parse, giving back the detect-file list an installation oracle walks.
func DecodeStoredVersion(content []byte) (*StoredVersion, error) {
	var v StoredVersion
	if err := xml.Unmarshal(content, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// DetectFile is one <detect-file> entry within a <version>: a path the
// installation oracle probes on disk, optionally pinned to a SHA1 to
// distinguish it from an unrelated file of the same name.
type DetectFile struct {
	Path string `xml:"path,attr"`
	SHA1 string `xml:"sha1,attr"`
}

type licenseElement struct {
	XMLName     xml.Name `xml:"license"`
	Name        string   `xml:"name,attr"`
	Title       string   `xml:"title,attr"`
	Description string   `xml:"description,attr"`
	URL         string   `xml:"url,attr"`
}
