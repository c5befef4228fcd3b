package oracle

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/npackd/npackd/internal/catalog"
	"github.com/npackd/npackd/internal/catalogerr"
	"github.com/npackd/npackd/internal/job"
	"github.com/npackd/npackd/internal/version"
)

// Generic is the portable Oracle implementation: it never touches the
// registry or the MSI database, only the filesystem and the catalog's own
// detect-file descriptions. It is the implementation exercised on every
// platform and in every test; Windows embeds it and adds registry/MSI
// probes on top.
type Generic struct {
	// InstallRoot is where package versions are installed today, one
	// directory per installed version, named "<package>-<version>".
	InstallRoot string
	// LegacyDir is the pre-1.15 install layout's root, using the same
	// "<package>-<version>" naming. May be empty if there is nothing to
	// migrate from.
	LegacyDir string
	// LegacyExact selects the legacy scan's matching mode: true only
	// accepts directory names matching a package already known to store;
	// false also accepts unknown names, recording an installed version
	// under the package name parsed from the directory name. No catalog
	// package row is created for such a name.
	LegacyExact bool
	// Ignore lists directory names under InstallRoot to skip (hidden
	// caches, work-in-progress extraction directories, and the like).
	Ignore []string

	mu        sync.Mutex
	installed map[string]InstalledPackageVersion // keyed by "<package> <version>"
}

// NewGeneric returns a Generic oracle ready for Refresh.
func NewGeneric(installRoot, legacyDir string, legacyExact bool, ignore []string) *Generic {
	return &Generic{
		InstallRoot: installRoot,
		LegacyDir:   legacyDir,
		LegacyExact: legacyExact,
		Ignore:      ignore,
		installed:   make(map[string]InstalledPackageVersion),
	}
}

func installedKey(pkg string, v version.Version) string {
	return pkg + " " + v.String()
}

func (g *Generic) MarkVersion(pkg string, v version.Version, path string, external bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.installed[installedKey(pkg, v)] = InstalledPackageVersion{
		Package: pkg, Version: v, Path: path, External: external,
	}
	return nil
}

func (g *Generic) EnumerateInstalled() ([]InstalledPackageVersion, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]InstalledPackageVersion, 0, len(g.installed))
	for _, e := range g.installed {
		out = append(out, e)
	}
	return out, nil
}

// Refresh runs every portable probe against store: the legacy-layout scan,
// the current install-root traversal, and detect-file heuristics. Each
// probe is a weighted sub-job so overall progress stays meaningful even
// when one probe has nothing to do (an empty LegacyDir, say).
func (g *Generic) Refresh(store *catalog.Store, j *job.Job) error {
	g.mu.Lock()
	g.installed = make(map[string]InstalledPackageVersion)
	g.mu.Unlock()

	legacy := j.NewSubJob(0.3, "scanning legacy install directory")
	if err := g.scanLegacy(store); err != nil {
		legacy.SetError(err.Error())
		j.SetError(err.Error())
		return err
	}
	legacy.CompleteWithProgress()
	if !j.ShouldProceed() {
		return &catalogerr.Cancelled{JobTitle: j.Title()}
	}

	root := j.NewSubJob(0.4, "scanning install root")
	if err := g.scanInstallRoot(); err != nil {
		root.SetError(err.Error())
		j.SetError(err.Error())
		return err
	}
	root.CompleteWithProgress()
	if !j.ShouldProceed() {
		return &catalogerr.Cancelled{JobTitle: j.Title()}
	}

	detect := j.NewSubJob(0.3, "running detect-file heuristics")
	if err := g.detectFiles(store); err != nil {
		detect.SetError(err.Error())
		j.SetError(err.Error())
		return err
	}
	detect.CompleteWithProgress()

	return nil
}

// scanLegacy walks the pre-1.15 install layout. Each entry is named
// "<package>-<version>"; in exact mode an entry whose package is unknown
// to store is skipped, in loose mode it is recorded anyway, with
// MarkVersion, under the package name and version parsed from the
// directory name. No catalog package row is created for it.
func (g *Generic) scanLegacy(store *catalog.Store) error {
	if g.LegacyDir == "" {
		return nil
	}
	entries, err := os.ReadDir(g.LegacyDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return &catalogerr.IOError{Path: g.LegacyDir, Err: err}
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		pkg, v, ok := parseInstallDirName(entry.Name())
		if !ok {
			continue
		}

		if g.LegacyExact {
			found, err := store.FindPackage(pkg)
			if err != nil {
				return err
			}
			if found == nil {
				continue
			}
		}

		path := filepath.Join(g.LegacyDir, entry.Name())
		if err := g.MarkVersion(pkg, v, path, false); err != nil {
			return err
		}
	}
	return nil
}

// scanInstallRoot walks the current install root. Unlike the legacy scan
// there is no exact/loose split: every recognizable "<package>-<version>"
// directory not on the ignore list is recorded, known to the catalog or
// not, since this is the layout npackd itself writes.
func (g *Generic) scanInstallRoot() error {
	if g.InstallRoot == "" {
		return nil
	}
	entries, err := os.ReadDir(g.InstallRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return &catalogerr.IOError{Path: g.InstallRoot, Err: err}
	}

	for _, entry := range entries {
		if !entry.IsDir() || g.ignored(entry.Name()) {
			continue
		}
		pkg, v, ok := parseInstallDirName(entry.Name())
		if !ok {
			continue
		}
		path := filepath.Join(g.InstallRoot, entry.Name())
		if err := g.MarkVersion(pkg, v, path, false); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generic) ignored(name string) bool {
	for _, ig := range g.Ignore {
		if ig == name {
			return true
		}
	}
	return false
}

// parseInstallDirName splits "<package>-<version>" on the last hyphen,
// since package names may themselves contain hyphens but versions never
// do (they are dotted integers).
func parseInstallDirName(name string) (pkg string, v version.Version, ok bool) {
	idx := strings.LastIndex(name, "-")
	if idx <= 0 || idx == len(name)-1 {
		return "", version.Version{}, false
	}
	v, err := version.Parse(name[idx+1:])
	if err != nil {
		return "", version.Version{}, false
	}
	return name[:idx], v, true
}
