// Package resultstore persists fetched exam results so a range scrape
// can be resumed and re-exported without hammering the portal again.
package resultstore

import (
	"context"
	"database/sql"
	"time"

	_ "embed"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

type Record struct {
	SitePath  string
	LookupID  string
	// Outcome is "success" or one of the failure kinds.
	Outcome   string
	Attempts  int
	Body      string
	FetchedAt time.Time
}

type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) Store {
	return Store{db: database}
}

// Put inserts or replaces the record for (site path, lookup id). A
// re-scrape of the same id supersedes the previous row.
func (s Store) Put(ctx context.Context, r Record) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT OR REPLACE INTO results
			(site_path, lookup_id, outcome, attempts, body, fetched_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
		r.SitePath, r.LookupID, r.Outcome, r.Attempts, r.Body, r.FetchedAt.Unix(),
	)
	return err
}

func (s Store) Get(ctx context.Context, sitePath, lookupId string) (Record, bool, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT site_path, lookup_id, outcome, attempts, body, fetched_at
			FROM results WHERE site_path = ? AND lookup_id = ?`,
		sitePath, lookupId,
	)
	record, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	return record, true, nil
}

// List returns every record for a site path in lookup id order.
func (s Store) List(ctx context.Context, sitePath string) ([]Record, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT site_path, lookup_id, outcome, attempts, body, fetched_at
			FROM results WHERE site_path = ? ORDER BY lookup_id`,
		sitePath,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var r Record
	var fetchedAt int64
	err := row.Scan(&r.SitePath, &r.LookupID, &r.Outcome, &r.Attempts, &r.Body, &fetchedAt)
	if err != nil {
		return Record{}, err
	}
	r.FetchedAt = time.Unix(fetchedAt, 0)
	return r, nil
}
