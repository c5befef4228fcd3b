//go:build windows

package cli

import "github.com/npackd/npackd/internal/oracle"

// newPlatformOracle wraps g with the registry/MSI probes available only
// on Windows.
func newPlatformOracle(g *oracle.Generic) oracle.Oracle {
	return oracle.NewWindows(g)
}
