package oracle

import (
	"crypto/sha1"
	"encoding/hex"
	"io"
	"os"

	"github.com/npackd/npackd/internal/catalog"
	"github.com/npackd/npackd/internal/repodoc"
)

// detectFiles re-parses the stored XML for every package version that
// declared at least one detect-file and tests the described paths on
// disk. A match with no SHA1 pin is accepted on existence alone; a match
// with a SHA1 pin must also hash-match, since some detect-file paths
// (e.g. a shared "uninstall.exe") are ambiguous between unrelated
// products without it.
func (g *Generic) detectFiles(store *catalog.Store) error {
	versions, err := store.GetPackageVersionsWithDetectFiles()
	if err != nil {
		return err
	}

	for _, pv := range versions {
		stored, err := repodoc.DecodeStoredVersion(pv.Content)
		if err != nil {
			// A version that fails to re-parse cannot be probed; skip it
			// rather than aborting the whole refresh over one bad row.
			continue
		}

		for _, df := range stored.DetectFiles {
			path := os.ExpandEnv(df.Path)
			matched, err := detectFileMatches(path, df.SHA1)
			if err != nil {
				continue
			}
			if matched {
				if err := g.MarkVersion(pv.Package, pv.Version, path, true); err != nil {
					return err
				}
				break
			}
		}
	}
	return nil
}

func detectFileMatches(path, wantSHA1 string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false, nil
	}
	if wantSHA1 == "" {
		return true, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return false, err
	}
	return hex.EncodeToString(h.Sum(nil)) == wantSHA1, nil
}
