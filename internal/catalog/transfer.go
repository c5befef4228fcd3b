package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/npackd/npackd/internal/catalogerr"
	"github.com/npackd/npackd/internal/job"
)

// transferTables lists the tables copied during TransferFrom, in copy
// order — REPOSITORY is included here even though Clear doesn't touch
// it, since a fresh repository list is part of every refresh.
var transferTables = []string{"REPOSITORY", "CATEGORY", "LICENSE", "PACKAGE", "PACKAGE_VERSION", "LINK"}

// TransferFrom attaches the staging database at otherPath as a secondary
// schema, clears the live tables, copies every row from staging into live
// within one transaction, then detaches staging. Detach is retried up to
// 10 times with a one-second backoff on SQLITE_BUSY-class errors, since
// some drivers hold a residual read lock briefly after the copy commits.
func (s *Store) TransferFrom(j *job.Job, otherPath string) error {
	attachJob := j.NewSubJob(0.07, "attaching staging catalog")
	if _, err := s.db.Exec(fmt.Sprintf("ATTACH DATABASE %s AS staging", quoteSQLiteLiteral(otherPath))); err != nil {
		return &catalogerr.SchemaError{Query: "attach staging database", Err: err}
	}
	attachJob.CompleteWithProgress()

	copyJob := j.NewSubJob(0.89, "copying catalog")
	if err := s.copyFromStaging(); err != nil {
		s.detach() // best effort; the transfer already failed
		return err
	}
	copyJob.CompleteWithProgress()

	detachJob := j.NewSubJob(0.04, "detaching staging catalog")
	if err := s.detachWithRetry(); err != nil {
		return err
	}
	detachJob.CompleteWithProgress()

	return nil
}

func (s *Store) copyFromStaging() error {
	tx, err := s.db.Begin()
	if err != nil {
		return &catalogerr.SchemaError{Query: "begin transfer transaction", Err: err}
	}

	for _, table := range transferTables {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			tx.Rollback()
			return &catalogerr.SchemaError{Query: "clear live " + table, Err: err}
		}
		if _, err := tx.Exec(fmt.Sprintf("INSERT INTO %s SELECT * FROM staging.%s", table, table)); err != nil {
			tx.Rollback()
			return &catalogerr.SchemaError{Query: "copy " + table + " from staging", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &catalogerr.SchemaError{Query: "commit transfer", Err: err}
	}
	s.licenses.Purge()
	s.categoryIDs = map[categoryKey]int64{}
	return nil
}

func (s *Store) detach() {
	s.db.Exec("DETACH DATABASE staging")
}

func (s *Store) detachWithRetry() error {
	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Second), 10)

	var lastErr error
	op := func() error {
		_, err := s.db.Exec("DETACH DATABASE staging")
		if err != nil && isBusy(err) {
			lastErr = err
			return err
		}
		lastErr = err
		return nil // non-busy errors are not retried
	}

	if err := backoff.Retry(op, policy); err != nil {
		return &catalogerr.SchemaError{Query: "detach staging database", Err: lastErr}
	}
	if lastErr != nil {
		return &catalogerr.SchemaError{Query: "detach staging database", Err: lastErr}
	}
	return nil
}

func isBusy(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "busy") || strings.Contains(msg, "locked")
}

func quoteSQLiteLiteral(path string) string {
	return "'" + strings.ReplaceAll(path, "'", "''") + "'"
}
