// Package version implements the catalog's normalized dotted-integer
// version comparator.
//
// Versions are parsed with hashicorp/go-version, whose Segments64 gives a
// canonical []int64 split on ".". The catalog's own equivalence rule —
// trailing zero components are insignificant, so "1.2.0.0" and "1.2" are
// the same version — is layered on top of that parse, since it is specific
// to this catalog's normalization and not something the upstream library
// expresses.
package version

import (
	"strconv"
	"strings"

	hashiversion "github.com/hashicorp/go-version"
)

// Version is a normalized dotted-integer version: trailing zero
// components are trimmed at construction time.
type Version struct {
	segments []int64
}

// Parse parses a dotted-integer version string and normalizes it by
// trimming trailing zero components. "1.2.0.0" and "1.2" parse to equal
// Versions.
func Parse(s string) (Version, error) {
	v, err := hashiversion.NewVersion(s)
	if err != nil {
		return Version{}, err
	}
	return Version{segments: trimTrailingZeros(v.Segments64())}, nil
}

// MustParse parses s and panics on error. Intended for literals in tests
// and constant tables, never for untrusted repository input.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func trimTrailingZeros(segs []int64) []int64 {
	end := len(segs)
	for end > 1 && segs[end-1] == 0 {
		end--
	}
	return segs[:end]
}

// String renders the normalized version as a dot-separated string. This is
// the value stored in PACKAGE_VERSION.NAME.
func (v Version) String() string {
	parts := make([]string, len(v.segments))
	for i, s := range v.segments {
		parts[i] = strconv.FormatInt(s, 10)
	}
	return strings.Join(parts, ".")
}

// Compare returns -1, 0, or 1 as v is less than, equal to, or greater than
// other. Shorter versions are right-padded with zeros before comparing, so
// "1.2" == "1.2.0".
func (v Version) Compare(other Version) int {
	n := len(v.segments)
	if len(other.segments) > n {
		n = len(other.segments)
	}
	for i := 0; i < n; i++ {
		a := segmentAt(v.segments, i)
		b := segmentAt(other.segments, i)
		if a != b {
			if a < b {
				return -1
			}
			return 1
		}
	}
	return 0
}

func segmentAt(segs []int64, i int) int64 {
	if i < len(segs) {
		return segs[i]
	}
	return 0
}

// Equal reports whether v and other normalize to the same version.
func (v Version) Equal(other Version) bool { return v.Compare(other) == 0 }

// Less reports whether v sorts before other.
func (v Version) Less(other Version) bool { return v.Compare(other) < 0 }

// Max returns the larger of a and b.
func Max(a, b Version) Version {
	if a.Compare(b) >= 0 {
		return a
	}
	return b
}
