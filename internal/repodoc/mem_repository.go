package repodoc

import (
	"fmt"

	"github.com/npackd/npackd/internal/catalog"
)

// MemRepository is an in-memory catalog.RepositoryWriter, used by this package's
// own tests so Parse can be exercised without an on-disk SQLite store.
type MemRepository struct {
	Packages        map[string]*catalog.Package
	PackageVersions []*catalog.PackageVersion
	Licenses        map[string]*catalog.License
	categories      map[categoryKey]int64
	nextCategoryID  int64
}

type categoryKey struct {
	parent int64
	level  int
	name   string
}

// NewMemRepository returns an empty MemRepository ready for use.
func NewMemRepository() *MemRepository {
	return &MemRepository{
		Packages:   make(map[string]*catalog.Package),
		Licenses:   make(map[string]*catalog.License),
		categories: make(map[categoryKey]int64),
	}
}

func (m *MemRepository) UpsertPackage(p *catalog.Package, replace bool) error {
	if _, exists := m.Packages[p.Name]; exists && !replace {
		return nil
	}
	cp := *p
	cp.Links = append([]catalog.Link(nil), p.Links...)
	m.Packages[p.Name] = &cp
	return nil
}

func (m *MemRepository) UpsertPackageVersion(pv *catalog.PackageVersion, replace bool) error {
	for i, existing := range m.PackageVersions {
		if existing.Package == pv.Package && existing.Version.Equal(pv.Version) {
			if !replace {
				return nil
			}
			cp := *pv
			m.PackageVersions[i] = &cp
			return nil
		}
	}
	cp := *pv
	m.PackageVersions = append(m.PackageVersions, &cp)
	return nil
}

func (m *MemRepository) UpsertLicense(l *catalog.License, replace bool) error {
	if _, exists := m.Licenses[l.Name]; exists && !replace {
		return nil
	}
	m.Licenses[l.Name] = l.Clone()
	return nil
}

func (m *MemRepository) InsertCategory(parent int64, level int, name string) (int64, error) {
	key := categoryKey{parent: parent, level: level, name: name}
	if id, ok := m.categories[key]; ok {
		return id, nil
	}
	m.nextCategoryID++
	m.categories[key] = m.nextCategoryID
	return m.nextCategoryID, nil
}

// VersionsFor returns the package versions recorded for pkg, in insertion
// order, for assertions in tests.
func (m *MemRepository) VersionsFor(pkg string) []*catalog.PackageVersion {
	var out []*catalog.PackageVersion
	for _, pv := range m.PackageVersions {
		if pv.Package == pkg {
			out = append(out, pv)
		}
	}
	return out
}

var _ catalog.RepositoryWriter = (*MemRepository)(nil)

func (m *MemRepository) String() string {
	return fmt.Sprintf("MemRepository{%d packages, %d versions, %d licenses}",
		len(m.Packages), len(m.PackageVersions), len(m.Licenses))
}
