// Package oracle implements the installation oracle: the collaborator
// that determines, for every catalog package, whether a local
// installation exists and which version. Generic covers the
// platform-independent probes (legacy-directory scan, install-root
// traversal, detect-file heuristics); Windows adds MSI and registry
// probes under a build tag.
package oracle

import (
	"github.com/npackd/npackd/internal/catalog"
	"github.com/npackd/npackd/internal/job"
	"github.com/npackd/npackd/internal/version"
)

// InstalledPackageVersion is a single local installation found by a
// probe: which package, which version, where, and whether it was
// installed outside this tool's control.
type InstalledPackageVersion struct {
	Package  string
	Version  version.Version
	Path     string
	External bool
}

// Oracle is the capability set the catalog core requires from the
// installation-detection collaborator.
type Oracle interface {
	// EnumerateInstalled returns every installation found by the last
	// Refresh, in no particular order.
	EnumerateInstalled() ([]InstalledPackageVersion, error)

	// MarkVersion records that package/version was found at path. The
	// oracle owns this record, not the catalog: the catalog only ever
	// reads it back through EnumerateInstalled.
	MarkVersion(pkg string, v version.Version, path string, external bool) error

	// Refresh drives every probe against store and repopulates the set
	// EnumerateInstalled will return.
	Refresh(store *catalog.Store, j *job.Job) error
}
