package catalog

import (
	"testing"

	"github.com/npackd/npackd/internal/job"
	"github.com/npackd/npackd/internal/version"
)

func testJob(t *testing.T) *job.Job {
	t.Helper()
	return job.New("test")
}

func TestUpsertAndFindPackageRoundTrips(t *testing.T) {
	s := openTestStore(t)

	p := &Package{
		Name:         "com.example.Foo",
		Title:        "Foo",
		Description:  "a foo",
		ShortName:    "Foo",
		CategoryPath: "Development/Editors",
		Links:        []Link{{Rel: "screenshot", Href: "http://a"}, {Rel: "screenshot", Href: "http://b"}},
	}
	if err := s.UpsertPackage(p, false); err != nil {
		t.Fatalf("UpsertPackage: %v", err)
	}

	got, err := s.FindPackage("com.example.Foo")
	if err != nil {
		t.Fatalf("FindPackage: %v", err)
	}
	if got == nil {
		t.Fatalf("expected package, got nil")
	}
	if got.Title != "Foo" {
		t.Fatalf("Title = %q, want Foo", got.Title)
	}
	if len(got.Links) != 2 || got.Links[0].Href != "http://a" || got.Links[1].Href != "http://b" {
		t.Fatalf("Links = %+v, want ordered screenshot pair", got.Links)
	}
}

func TestUpsertPackageIgnoreSemanticsPreserveLinks(t *testing.T) {
	s := openTestStore(t)

	original := &Package{Name: "com.example.Foo", Title: "Foo", Links: []Link{{Rel: "x", Href: "1"}}}
	if err := s.UpsertPackage(original, false); err != nil {
		t.Fatalf("initial upsert: %v", err)
	}

	changed := &Package{Name: "com.example.Foo", Title: "Changed", Links: []Link{{Rel: "y", Href: "2"}}}
	if err := s.UpsertPackage(changed, false); err != nil {
		t.Fatalf("ignored upsert: %v", err)
	}

	got, err := s.FindPackage("com.example.Foo")
	if err != nil {
		t.Fatalf("FindPackage: %v", err)
	}
	if got.Title != "Foo" {
		t.Fatalf("Title = %q, want original Foo to survive INSERT OR IGNORE", got.Title)
	}
	if len(got.Links) != 1 || got.Links[0].Rel != "x" {
		t.Fatalf("Links = %+v, want original link preserved since row was not affected", got.Links)
	}
}

func TestUpsertPackageReplaceOverwritesLinks(t *testing.T) {
	s := openTestStore(t)

	if err := s.UpsertPackage(&Package{Name: "com.example.Foo", Title: "Foo", Links: []Link{{Rel: "x", Href: "1"}}}, false); err != nil {
		t.Fatalf("initial upsert: %v", err)
	}
	if err := s.UpsertPackage(&Package{Name: "com.example.Foo", Title: "Changed", Links: []Link{{Rel: "y", Href: "2"}}}, true); err != nil {
		t.Fatalf("replace upsert: %v", err)
	}

	got, err := s.FindPackage("com.example.Foo")
	if err != nil {
		t.Fatalf("FindPackage: %v", err)
	}
	if got.Title != "Changed" {
		t.Fatalf("Title = %q, want Changed", got.Title)
	}
	if len(got.Links) != 1 || got.Links[0].Rel != "y" {
		t.Fatalf("Links = %+v, want rewritten to new link", got.Links)
	}
}

func TestFindPackagesPreservesInputOrderAndChunks(t *testing.T) {
	s := openTestStore(t)

	names := make([]string, 0, 15)
	for i := 0; i < 15; i++ {
		name := "com.example.P" + string(rune('A'+i))
		names = append(names, name)
		if err := s.UpsertPackage(&Package{Name: name, Title: name}, false); err != nil {
			t.Fatalf("upsert %s: %v", name, err)
		}
	}

	// Query in reverse order, across the 10-parameter chunk boundary.
	reversed := make([]string, len(names))
	for i, n := range names {
		reversed[len(names)-1-i] = n
	}

	got, err := s.FindPackages(reversed)
	if err != nil {
		t.Fatalf("FindPackages: %v", err)
	}
	if len(got) != len(reversed) {
		t.Fatalf("got %d packages, want %d", len(got), len(reversed))
	}
	for i, p := range got {
		if p.Name != reversed[i] {
			t.Fatalf("position %d = %s, want %s", i, p.Name, reversed[i])
		}
	}
}

func TestFindPackagesSkipsMissingNames(t *testing.T) {
	s := openTestStore(t)
	if err := s.UpsertPackage(&Package{Name: "com.example.Foo", Title: "Foo"}, false); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := s.FindPackages([]string{"com.example.Missing", "com.example.Foo"})
	if err != nil {
		t.Fatalf("FindPackages: %v", err)
	}
	if len(got) != 1 || got[0].Name != "com.example.Foo" {
		t.Fatalf("got %+v, want only Foo", got)
	}
}

func TestUpsertAndGetPackageVersionsSortedDescending(t *testing.T) {
	s := openTestStore(t)
	if err := s.UpsertPackage(&Package{Name: "com.example.Foo", Title: "Foo"}, false); err != nil {
		t.Fatalf("upsert package: %v", err)
	}

	for _, v := range []string{"1.0", "2.0", "1.5"} {
		pv := &PackageVersion{Package: "com.example.Foo", Version: version.MustParse(v), Content: []byte("<v/>"), DownloadURL: "http://dl/" + v}
		if err := s.UpsertPackageVersion(pv, false); err != nil {
			t.Fatalf("upsert version %s: %v", v, err)
		}
	}

	versions, err := s.GetPackageVersions("com.example.Foo")
	if err != nil {
		t.Fatalf("GetPackageVersions: %v", err)
	}
	if len(versions) != 3 {
		t.Fatalf("got %d versions, want 3", len(versions))
	}
	want := []string{"2", "1.5", "1"}
	for i, v := range versions {
		if v.Version.String() != want[i] {
			t.Fatalf("position %d = %s, want %s", i, v.Version.String(), want[i])
		}
	}
}

func TestFindPackageVersionReparsesXML(t *testing.T) {
	s := openTestStore(t)
	if err := s.UpsertPackage(&Package{Name: "com.example.Foo", Title: "Foo"}, false); err != nil {
		t.Fatalf("upsert package: %v", err)
	}
	pv := &PackageVersion{Package: "com.example.Foo", Version: version.MustParse("1.0"), Content: []byte("<version/>")}
	if err := s.UpsertPackageVersion(pv, false); err != nil {
		t.Fatalf("upsert version: %v", err)
	}

	got, err := s.FindPackageVersion("com.example.Foo", version.MustParse("1.0"))
	if err != nil {
		t.Fatalf("FindPackageVersion: %v", err)
	}
	if got == nil {
		t.Fatalf("expected a version, got nil")
	}
}

func TestFindPackageVersionSurfacesCorruptCatalog(t *testing.T) {
	s := openTestStore(t)
	if err := s.UpsertPackage(&Package{Name: "com.example.Foo", Title: "Foo"}, false); err != nil {
		t.Fatalf("upsert package: %v", err)
	}
	pv := &PackageVersion{Package: "com.example.Foo", Version: version.MustParse("1.0"), Content: []byte("<not-closed>")}
	if err := s.UpsertPackageVersion(pv, false); err != nil {
		t.Fatalf("upsert version: %v", err)
	}

	_, err := s.FindPackageVersion("com.example.Foo", version.MustParse("1.0"))
	if err == nil {
		t.Fatalf("expected an error for malformed XML content")
	}
}

func TestFindPackageVersionByMSIGUID(t *testing.T) {
	s := openTestStore(t)
	if err := s.UpsertPackage(&Package{Name: "com.example.Foo", Title: "Foo"}, false); err != nil {
		t.Fatalf("upsert package: %v", err)
	}
	pv := &PackageVersion{Package: "com.example.Foo", Version: version.MustParse("1.0"), Content: []byte("<v/>"), MSIGUID: "{GUID-1}"}
	if err := s.UpsertPackageVersion(pv, false); err != nil {
		t.Fatalf("upsert version: %v", err)
	}

	got, err := s.FindPackageVersionByMSIGUID("{GUID-1}")
	if err != nil {
		t.Fatalf("FindPackageVersionByMSIGUID: %v", err)
	}
	if got == nil || got.Package != "com.example.Foo" {
		t.Fatalf("got %+v, want com.example.Foo", got)
	}
}

func TestInsertCategoryIsIdempotent(t *testing.T) {
	s := openTestStore(t)

	id1, err := s.InsertCategory(0, 0, "Development")
	if err != nil {
		t.Fatalf("InsertCategory: %v", err)
	}
	id2, err := s.InsertCategory(0, 0, "Development")
	if err != nil {
		t.Fatalf("InsertCategory again: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("InsertCategory returned different IDs for the same triple: %d vs %d", id1, id2)
	}
}

func TestSetRepositoriesRewritesInOrder(t *testing.T) {
	s := openTestStore(t)

	ids, err := s.SetRepositories([]string{"http://a", "http://b"})
	if err != nil {
		t.Fatalf("SetRepositories: %v", err)
	}
	if len(ids) != 2 || ids[0] == ids[1] {
		t.Fatalf("got ids %v, want two distinct IDs", ids)
	}

	if err := s.SetRepositorySHA1(ids[0], "deadbeef"); err != nil {
		t.Fatalf("SetRepositorySHA1: %v", err)
	}

	// A second call must start from a clean slate, not append.
	ids2, err := s.SetRepositories([]string{"http://c"})
	if err != nil {
		t.Fatalf("SetRepositories again: %v", err)
	}
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM REPOSITORY").Scan(&count); err != nil {
		t.Fatalf("count repositories: %v", err)
	}
	if count != 1 {
		t.Fatalf("REPOSITORY row count = %d, want 1 after rewrite", count)
	}
	if len(ids2) != 1 {
		t.Fatalf("got %d ids, want 1", len(ids2))
	}
}

func TestFindLicenseCachesAndClones(t *testing.T) {
	s := openTestStore(t)
	if err := s.UpsertLicense(&License{Name: "MIT", Title: "MIT License"}, false); err != nil {
		t.Fatalf("UpsertLicense: %v", err)
	}

	first, err := s.FindLicense("MIT")
	if err != nil {
		t.Fatalf("FindLicense: %v", err)
	}
	first.Title = "mutated"

	second, err := s.FindLicense("MIT")
	if err != nil {
		t.Fatalf("FindLicense again: %v", err)
	}
	if second.Title != "MIT License" {
		t.Fatalf("Title = %q, want cached entry unaffected by caller mutation", second.Title)
	}
}

func TestClearPurgesEverything(t *testing.T) {
	s := openTestStore(t)
	if err := s.UpsertPackage(&Package{Name: "com.example.Foo", Title: "Foo", Links: []Link{{Rel: "x", Href: "1"}}}, false); err != nil {
		t.Fatalf("upsert package: %v", err)
	}
	if err := s.UpsertLicense(&License{Name: "MIT"}, false); err != nil {
		t.Fatalf("upsert license: %v", err)
	}

	root := testJob(t)
	if err := s.Clear(root); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	got, err := s.FindPackage("com.example.Foo")
	if err != nil {
		t.Fatalf("FindPackage: %v", err)
	}
	if got != nil {
		t.Fatalf("expected package to be gone after Clear")
	}
}
