//go:build windows

package oracle

import (
	"strings"

	"github.com/npackd/npackd/internal/catalog"
	"github.com/npackd/npackd/internal/job"
	"github.com/npackd/npackd/internal/version"
	"golang.org/x/sys/windows/registry"
)

// registryProbe maps a registry key under HKLM\SOFTWARE to the
// catalog package name it represents, mirroring the original's
// detectDotNet/detectJRE/detectJDK/detectMSXML/detectMicrosoftInstaller
// probes. Each entry names the subkey to open and the version value to
// read from it.
type registryProbe struct {
	subkey      string
	versionName string
	pkg         string
}

var registryProbes = []registryProbe{
	{subkey: `Microsoft\NET Framework Setup\NDP\v4\Full`, versionName: "Version", pkg: "com.microsoft.DotNetRuntime"},
	{subkey: `JavaSoft\Java Runtime Environment`, versionName: "CurrentVersion", pkg: "com.oracle.JRE"},
	{subkey: `JavaSoft\Java Development Kit`, versionName: "CurrentVersion", pkg: "com.oracle.JDK"},
	{subkey: `Microsoft\MSXML`, versionName: "Version", pkg: "com.microsoft.MSXML"},
	{subkey: `Microsoft\Windows\CurrentVersion\Installer`, versionName: "Version", pkg: "com.microsoft.WindowsInstaller"},
}

// Windows is the Windows Oracle: it embeds Generic for the portable
// probes and adds MSI product-code enumeration plus the registry-based
// well-known-component probes the original performed in
// detectMSIProducts/detectDotNet/detectJRE/detectJDK/detectMSXML/
// detectMicrosoftInstaller.
type Windows struct {
	*Generic
}

// NewWindows returns a Windows oracle wrapping a Generic configured the
// same way it would be on any other platform.
func NewWindows(g *Generic) *Windows {
	return &Windows{Generic: g}
}

// Refresh runs the portable probes first, then the Windows-specific ones.
// A failure in a registry probe is swallowed (the component is simply not
// detected) rather than aborting the whole refresh, matching the
// original's "best effort" detection philosophy for these optional
// components.
func (w *Windows) Refresh(store *catalog.Store, j *job.Job) error {
	if err := w.Generic.Refresh(store, j); err != nil {
		return err
	}

	registryJob := j.NewSubJob(0, "probing registry for well-known components")
	w.probeRegistry()
	w.probeMSIProducts(store)
	registryJob.CompleteWithProgress()

	return nil
}

func (w *Windows) probeRegistry() {
	for _, p := range registryProbes {
		k, err := registry.OpenKey(registry.LOCAL_MACHINE, `SOFTWARE\`+p.subkey, registry.QUERY_VALUE)
		if err != nil {
			continue
		}
		v, _, err := k.GetStringValue(p.versionName)
		k.Close()
		if err != nil {
			continue
		}
		pv, err := parseVersionLoosely(v)
		if err != nil {
			continue
		}
		_ = w.MarkVersion(p.pkg, pv, "", true)
	}
}

// parseVersionLoosely accepts the dotted-integer prefix of a registry
// version string, since some components (notably .NET Framework) append
// a non-numeric build suffix that version.Parse rejects outright.
func parseVersionLoosely(s string) (version.Version, error) {
	fields := strings.SplitN(s, " ", 2)
	return version.Parse(fields[0])
}

// probeMSIProducts enumerates installed MSI product codes under
// HKLM\SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall and
// cross-references each product code against PACKAGE_VERSION.MSIGUID.
func (w *Windows) probeMSIProducts(store *catalog.Store) {
	k, err := registry.OpenKey(registry.LOCAL_MACHINE,
		`SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall`, registry.ENUMERATE_SUB_KEYS)
	if err != nil {
		return
	}
	defer k.Close()

	names, err := k.ReadSubKeyNames(-1)
	if err != nil {
		return
	}

	for _, guid := range names {
		pv, err := store.FindPackageVersionByMSIGUID(guid)
		if err != nil || pv == nil {
			continue
		}
		_ = w.MarkVersion(pv.Package, pv.Version, "", false)
	}
}
