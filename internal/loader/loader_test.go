package loader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/npackd/npackd/internal/catalog"
	"github.com/npackd/npackd/internal/fetch"
	"github.com/npackd/npackd/internal/job"
	"github.com/npackd/npackd/internal/oracle"
	"github.com/npackd/npackd/internal/version"
)

const repoOneDoc = `<?xml version="1.0"?>
<root>
  <package name="com.example.Foo" title="Foo from repo one" category0="Development"/>
  <version name="1.0" package="com.example.Foo" url="http://dl/foo-1.0.zip"/>
</root>`

const repoTwoDoc = `<?xml version="1.0"?>
<root>
  <package name="com.example.Foo" title="Foo from repo two" category0="Development"/>
  <version name="1.0" package="com.example.Foo" url="http://dl/foo-1.0-again.zip"/>
  <package name="com.example.Bar" title="Bar"/>
  <version name="2.0" package="com.example.Bar" url="http://dl/bar-2.0.zip"/>
</root>`

func TestRefreshFirstRepositoryWinsOnConflictingPackageName(t *testing.T) {
	srv1 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(repoOneDoc))
	}))
	defer srv1.Close()
	srv2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(repoTwoDoc))
	}))
	defer srv2.Close()

	live, err := catalog.Open(":memory:", false)
	if err != nil {
		t.Fatalf("open live: %v", err)
	}
	defer live.Close()

	l := New(fetch.NewFetcher(""), &noopOracle{}, t.TempDir())

	j := job.New("refresh")
	if err := l.Refresh(context.Background(), live, []string{srv1.URL, srv2.URL}, false, j); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	foo, err := live.FindPackage("com.example.Foo")
	if err != nil {
		t.Fatalf("FindPackage: %v", err)
	}
	if foo == nil {
		t.Fatalf("expected com.example.Foo to exist")
	}
	if foo.Title != "Foo from repo one" {
		t.Fatalf("Title = %q, want the first repository's title to win", foo.Title)
	}

	bar, err := live.FindPackage("com.example.Bar")
	if err != nil {
		t.Fatalf("FindPackage: %v", err)
	}
	if bar == nil {
		t.Fatalf("expected com.example.Bar from the second repository to still be ingested")
	}
}

func TestRefreshAggregatesEveryFailingRepository(t *testing.T) {
	live, err := catalog.Open(":memory:", false)
	if err != nil {
		t.Fatalf("open live: %v", err)
	}
	defer live.Close()

	l := New(fetch.NewFetcher(""), &noopOracle{}, t.TempDir())

	j := job.New("refresh")
	err = l.Refresh(context.Background(), live, []string{
		"http://127.0.0.1:1/does-not-exist-one",
		"http://127.0.0.1:1/does-not-exist-two",
	}, false, j)
	if err == nil {
		t.Fatalf("expected a refresh error when every repository fails to download")
	}
}

func TestRefreshRecomputesStatusForInstalledPackages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(repoOneDoc))
	}))
	defer srv.Close()

	live, err := catalog.Open(":memory:", false)
	if err != nil {
		t.Fatalf("open live: %v", err)
	}
	defer live.Close()

	oc := &noopOracle{
		installed: []oracle.InstalledPackageVersion{
			{Package: "com.example.Foo", Version: version.MustParse("1.0")},
		},
	}
	l := New(fetch.NewFetcher(""), oc, t.TempDir())

	j := job.New("refresh")
	if err := l.Refresh(context.Background(), live, []string{srv.URL}, false, j); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	foo, err := live.FindPackage("com.example.Foo")
	if err != nil {
		t.Fatalf("FindPackage: %v", err)
	}
	if foo.Status != catalog.Installed {
		t.Fatalf("Status = %v, want Installed", foo.Status)
	}
}

// noopOracle never actually probes a filesystem; it reports whatever
// InstalledPackageVersion set the test configured, and exists so the loader
// tests can exercise the refresh pipeline deterministically.
type noopOracle struct {
	installed []oracle.InstalledPackageVersion
}

func (o *noopOracle) EnumerateInstalled() ([]oracle.InstalledPackageVersion, error) {
	return o.installed, nil
}

func (o *noopOracle) MarkVersion(pkg string, v version.Version, path string, external bool) error {
	return nil
}

func (o *noopOracle) Refresh(store *catalog.Store, j *job.Job) error { return nil }

var _ oracle.Oracle = (*noopOracle)(nil)
