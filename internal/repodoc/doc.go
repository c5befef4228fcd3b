// Package repodoc implements ingestion of a single repository document:
// ZIP-wrapped detection, the SAX-style XML walk, and the in-memory
// repository target used by this package's and internal/oracle's tests
// as a lightweight stand-in for internal/catalog.Store.
package repodoc
