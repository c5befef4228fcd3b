package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/npackd/npackd/internal/catalog"
	"github.com/npackd/npackd/internal/version"
)

func TestFilterDirectlyInstalled(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	store, err := catalog.Open(":memory:", false)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	defer store.Close()

	seedPackage(t, store, "com.example.Direct", "1.0")
	seedPackage(t, store, "com.example.Untouched", "2.0")

	installRoot, err := installRootPath()
	if err != nil {
		t.Fatalf("installRootPath: %v", err)
	}
	if err := os.Mkdir(filepath.Join(installRoot, "com.example.Direct-1.0"), 0755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	packages, err := store.SearchPackages(catalog.SearchFilter{Cat0: -1, Cat1: -1})
	if err != nil {
		t.Fatalf("SearchPackages: %v", err)
	}

	filtered, err := filterDirectlyInstalled(store, packages)
	if err != nil {
		t.Fatalf("filterDirectlyInstalled: %v", err)
	}

	if len(filtered) != 1 || filtered[0].Name != "com.example.Direct" {
		t.Fatalf("filterDirectlyInstalled() = %v, want only com.example.Direct", namesOf(filtered))
	}
}

func seedPackage(t *testing.T, store *catalog.Store, name, ver string) {
	t.Helper()
	if err := store.UpsertPackage(&catalog.Package{Name: name, Title: name}, false); err != nil {
		t.Fatalf("UpsertPackage: %v", err)
	}
	if err := store.UpsertPackageVersion(&catalog.PackageVersion{
		Package: name,
		Version: version.MustParse(ver),
	}, false); err != nil {
		t.Fatalf("UpsertPackageVersion: %v", err)
	}
}

func namesOf(packages []*catalog.Package) []string {
	names := make([]string, len(packages))
	for i, p := range packages {
		names[i] = p.Name
	}
	return names
}
