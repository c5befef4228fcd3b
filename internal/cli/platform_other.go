//go:build !windows

package cli

import "github.com/npackd/npackd/internal/oracle"

// newPlatformOracle returns g unchanged on non-Windows platforms: there
// is no registry/MSI probe to layer on top.
func newPlatformOracle(g *oracle.Generic) oracle.Oracle {
	return g
}
