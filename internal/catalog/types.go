// Package catalog implements the durable, queryable local package catalog:
// schema, upsert, search, category rollup, status computation, and the
// two-phase staging-to-live swap.
package catalog

import "github.com/npackd/npackd/internal/version"

// Status is a package's installation status relative to the catalog's
// advertised versions. Values are ordered so that "status >= Installed"
// is a meaningful comparison (it also matches Updateable).
type Status int

const (
	NotInstalled Status = 0
	Installed    Status = 1
	Updateable   Status = 2
)

func (s Status) String() string {
	switch s {
	case NotInstalled:
		return "NOT_INSTALLED"
	case Installed:
		return "INSTALLED"
	case Updateable:
		return "UPDATEABLE"
	default:
		return "UNKNOWN"
	}
}

// Link is one entry of a Package's typed link multimap: the same Rel may
// repeat, and insertion order within a Rel is preserved.
type Link struct {
	Rel  string
	Href string
}

// Package is a catalog entry identified by its stable reverse-DNS name.
type Package struct {
	Name         string
	Title        string
	URL          string // home URL
	Icon         string
	Description  string
	License      string // foreign reference to License.Name
	Status       Status
	ShortName    string
	CategoryPath string // slash-separated, up to 5 levels; "" if uncategorized
	Repository   int64  // REPOSITORY.ID this row was last written by, 0 if none
	Links        []Link
}

// FullText is the derived, lowercased search blob stored in
// PACKAGE.FULLTEXT: title, description, and name joined by spaces.
func (p *Package) FullText() string {
	return lowerJoin(p.Title, p.Description, p.Name)
}

// PackageVersion is a specific release of a Package.
type PackageVersion struct {
	Package         string
	Version         version.Version
	Content         []byte // raw repository XML fragment, opaque, immutable after insert
	DownloadURL     string
	MSIGUID         string
	DetectFileCount int
}

// License describes a package's license terms; read-heavy and
// cache-worthy per the catalog's license cache.
type License struct {
	Name        string
	Title       string
	Description string
	URL         string
}

// Clone returns a deep copy, used to isolate callers from the license
// cache's backing entries.
func (l *License) Clone() *License {
	if l == nil {
		return nil
	}
	c := *l
	return &c
}

// Category is one node of the category forest, which is at most five
// levels deep.
type Category struct {
	ID     int64
	Name   string
	Parent int64
	Level  int
}

// Repository is a configured repository URL, in the user's declared order.
type Repository struct {
	ID   int64
	URL  string
	SHA1 string
}
