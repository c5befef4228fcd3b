package catalog

import (
	"database/sql"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "modernc.org/sqlite"
)

// schemaVersion is bumped whenever a migration is not purely additive
// (new table/column). Open() compares it against PRAGMA user_version and
// drops the affected tables before recreating them, rather than attempting
// an in-place migration.
const schemaVersion = 1

// Store is the durable, queryable local catalog: packages, versions,
// licenses, categories, links, and repositories in a single SQLite file.
type Store struct {
	db       *sql.DB
	readOnly bool

	licenses *lru.Cache[string, *License]

	categoryIDs map[categoryKey]int64 // cache for InsertCategory lookups
}

type categoryKey struct {
	parent int64
	level  int
	name   string
}

// Open opens (and, on first use, creates) the catalog store at path. Use
// ":memory:" for a transient staging store. readOnly only affects the
// caller's intent — SQLite itself is opened read-write so that pragmas and
// schema probes succeed; callers honoring readOnly simply avoid mutating
// methods.
func Open(path string, readOnly bool) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 30000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign_keys: %w", err)
	}

	cache, err := lru.New[string, *License](256)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create license cache: %w", err)
	}

	s := &Store{db: db, readOnly: readOnly, licenses: cache, categoryIDs: map[categoryKey]int64{}}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB exposes the underlying connection for the loader's ATTACH-based
// transfer, which needs a raw *sql.DB to run outside the Store's own
// query helpers.
func (s *Store) DB() *sql.DB { return s.db }

// migrate creates missing tables/indexes and, if the stored user_version
// predates a breaking change, drops and recreates the affected tables
// empty before bumping user_version. All current tables are additive
// since schemaVersion 1, so this only ever runs the idempotent CREATE
// statements.
func (s *Store) migrate() error {
	var current int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if current != 0 && current < schemaVersion {
		for _, table := range []string{"PACKAGE", "PACKAGE_VERSION", "LICENSE", "CATEGORY", "LINK"} {
			if _, err := s.db.Exec("DROP TABLE IF EXISTS " + table); err != nil {
				return fmt.Errorf("drop stale table %s: %w", table, err)
			}
		}
	}

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("write schema version: %w", err)
	}
	return nil
}
