package catalog

import (
	"github.com/npackd/npackd/internal/catalogerr"
	"github.com/npackd/npackd/internal/version"
)

// UpdateStatus recomputes and persists the status of pkg given the set of
// versions the installation oracle reports as installed. A package with
// no installed versions is NOT_INSTALLED; otherwise it is UPDATEABLE when
// some available version exceeds the newest installed one, else INSTALLED.
func (s *Store) UpdateStatus(pkg string, installed []version.Version) error {
	status := NotInstalled
	if len(installed) > 0 {
		newestInstalled := installed[0]
		for _, v := range installed[1:] {
			newestInstalled = version.Max(newestInstalled, v)
		}

		versions, err := s.GetPackageVersions(pkg)
		if err != nil {
			return err
		}
		status = Installed
		for _, pv := range versions {
			if pv.DownloadURL == "" {
				continue
			}
			if pv.Version.Compare(newestInstalled) > 0 {
				status = Updateable
				break
			}
		}
	}

	if _, err := s.db.Exec("UPDATE PACKAGE SET STATUS = ? WHERE NAME = ?", int(status), pkg); err != nil {
		return &catalogerr.SchemaError{Query: "update status", Err: err}
	}
	return nil
}

// UpdateStatusForInstalled re-evaluates status only for the packages named
// in installedByPackage — the set the oracle actually found something
// for. Every other package keeps its NOT_INSTALLED default from refresh.
func (s *Store) UpdateStatusForInstalled(installedByPackage map[string][]version.Version) error {
	for pkg, versions := range installedByPackage {
		if err := s.UpdateStatus(pkg, versions); err != nil {
			return err
		}
	}
	return nil
}
