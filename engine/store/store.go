// Package store persists completed searches and recurring queries in
// SQLite. Criteria and schedules are stored as JSON blobs so the schema
// does not chase every new search field.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/DriveScout/drivescout/engine/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS searches (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id     TEXT NOT NULL,
	criteria    TEXT NOT NULL,
	results     TEXT NOT NULL,
	query_type  TEXT NOT NULL,
	result_count INTEGER NOT NULL,
	created_at  TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS recurring_queries (
	query_id    TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	criteria    TEXT NOT NULL,
	schedule    TEXT NOT NULL,
	active      INTEGER NOT NULL DEFAULT 1,
	created_at  TIMESTAMP NOT NULL,
	last_run_at TIMESTAMP
);
`

// ErrNotFound is returned when a recurring query id is unknown.
var ErrNotFound = errors.New("store: query not found")

// RecurringQuery is a stored recurring search with its delivery schedule.
type RecurringQuery struct {
	QueryID   string
	UserID    string
	Criteria  domain.Criteria
	Schedule  domain.Schedule
	Active    bool
	CreatedAt time.Time
	LastRunAt *time.Time
}

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

// Open creates the store at path, applying the schema. Use ":memory:" for
// an ephemeral database.
func Open(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// StoreSearch records a completed search with its results.
func (s *Store) StoreSearch(ctx context.Context, userID string, c domain.Criteria, queryType string, results []domain.Listing) error {
	critBlob, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal criteria: %w", err)
	}
	resBlob, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO searches (user_id, criteria, results, query_type, result_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		userID, string(critBlob), string(resBlob), queryType, len(results), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert search: %w", err)
	}
	return nil
}

// StoreRecurringQuery saves a recurring query and returns its new id.
func (s *Store) StoreRecurringQuery(ctx context.Context, userID string, c domain.Criteria, sch domain.Schedule) (string, error) {
	critBlob, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal criteria: %w", err)
	}
	schedBlob, err := json.Marshal(sch)
	if err != nil {
		return "", fmt.Errorf("marshal schedule: %w", err)
	}
	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO recurring_queries (query_id, user_id, criteria, schedule, active, created_at)
		 VALUES (?, ?, ?, ?, 1, ?)`,
		id, userID, string(critBlob), string(schedBlob), time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("insert recurring query: %w", err)
	}
	return id, nil
}

// GetRecurringQuery loads one recurring query by id.
func (s *Store) GetRecurringQuery(ctx context.Context, id string) (RecurringQuery, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT query_id, user_id, criteria, schedule, active, created_at, last_run_at
		 FROM recurring_queries WHERE query_id = ?`, id)
	q, err := scanRecurring(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RecurringQuery{}, ErrNotFound
	}
	return q, err
}

// DueQueries returns active queries whose schedule interval has elapsed
// since their last run. Queries that never ran are always due.
func (s *Store) DueQueries(ctx context.Context, now time.Time) ([]RecurringQuery, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT query_id, user_id, criteria, schedule, active, created_at, last_run_at
		 FROM recurring_queries WHERE active = 1`)
	if err != nil {
		return nil, fmt.Errorf("select recurring queries: %w", err)
	}
	defer rows.Close()

	var due []RecurringQuery
	for rows.Next() {
		q, err := scanRecurring(rows)
		if err != nil {
			return nil, err
		}
		if q.dueAt(now) {
			due = append(due, q)
		}
	}
	return due, rows.Err()
}

// MarkRun stamps the query's last run time.
func (s *Store) MarkRun(ctx context.Context, id string, ranAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE recurring_queries SET last_run_at = ? WHERE query_id = ?`, ranAt.UTC(), id)
	if err != nil {
		return fmt.Errorf("mark run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Deactivate stops a recurring query from being dispatched.
func (s *Store) Deactivate(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE recurring_queries SET active = 0 WHERE query_id = ?`, id)
	if err != nil {
		return fmt.Errorf("deactivate: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (q RecurringQuery) dueAt(now time.Time) bool {
	if q.LastRunAt == nil {
		return true
	}
	if q.Schedule.Frequency == nil {
		return false
	}
	interval, err := domain.ParseFrequency(*q.Schedule.Frequency)
	if err != nil {
		return false
	}
	return now.Sub(*q.LastRunAt) >= interval
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecurring(r rowScanner) (RecurringQuery, error) {
	var (
		q         RecurringQuery
		critBlob  string
		schedBlob string
		lastRun   sql.NullTime
	)
	if err := r.Scan(&q.QueryID, &q.UserID, &critBlob, &schedBlob, &q.Active, &q.CreatedAt, &lastRun); err != nil {
		return RecurringQuery{}, err
	}
	if err := json.Unmarshal([]byte(critBlob), &q.Criteria); err != nil {
		return RecurringQuery{}, fmt.Errorf("decode criteria: %w", err)
	}
	if err := json.Unmarshal([]byte(schedBlob), &q.Schedule); err != nil {
		return RecurringQuery{}, fmt.Errorf("decode schedule: %w", err)
	}
	if lastRun.Valid {
		t := lastRun.Time
		q.LastRunAt = &t
	}
	return q, nil
}
