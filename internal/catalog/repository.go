package catalog

// RepositoryWriter is the narrow ingestion surface a parsed repository document
// writes into. internal/repodoc's XML parser is written against this
// interface so it can target either the SQL-backed Store directly or an
// in-memory stand-in used by its own tests, mirroring the original's
// AbstractRepository capability split between the SQL-backed and
// in-memory repository implementations.
type RepositoryWriter interface {
	UpsertPackage(p *Package, replace bool) error
	UpsertPackageVersion(pv *PackageVersion, replace bool) error
	UpsertLicense(l *License, replace bool) error
	InsertCategory(parent int64, level int, name string) (int64, error)
}

var _ RepositoryWriter = (*Store)(nil)
