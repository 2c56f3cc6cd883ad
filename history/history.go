package history

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS solves (
	id             TEXT PRIMARY KEY,
	created_at     TEXT NOT NULL,
	title          TEXT,
	command        TEXT NOT NULL,
	poly_order     INTEGER NOT NULL,
	tolerance      REAL NOT NULL,
	max_iterations INTEGER NOT NULL,
	iterations     INTEGER NOT NULL,
	converged      INTEGER NOT NULL,
	residual_norms TEXT,
	error          TEXT,
	elapsed_ns     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS solves_created_at ON solves (created_at);
`

var ErrClosed = errors.New("history: store is closed")

// Run is one recorded solve
type Run struct {
	ID            string
	CreatedAt     time.Time
	Title         string
	Command       string // diagnostic or invert
	Order         int
	Tolerance     float64
	MaxIterations int
	Iterations    int
	Converged     bool
	ResidualNorms []float64
	Error         string
	Elapsed       time.Duration
}

// Store keeps the record of solves in a SQLite database
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path, ":memory:" gives a private in-memory store
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}
	if path == ":memory:" {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return ErrClosed
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Record inserts the run, assigning an ID and creation time when they are unset
func (s *Store) Record(r Run) (Run, error) {
	if s.db == nil {
		return Run{}, ErrClosed
	}
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	norms, err := json.Marshal(r.ResidualNorms)
	if err != nil {
		return Run{}, fmt.Errorf("history: marshal residual norms: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO solves (id, created_at, title, command, poly_order, tolerance, max_iterations,
		 iterations, converged, residual_norms, error, elapsed_ns)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID,
		r.CreatedAt.Format(time.RFC3339Nano),
		nullIfEmpty(r.Title),
		r.Command,
		r.Order,
		r.Tolerance,
		r.MaxIterations,
		r.Iterations,
		r.Converged,
		string(norms),
		nullIfEmpty(r.Error),
		int64(r.Elapsed),
	)
	if err != nil {
		return Run{}, fmt.Errorf("history: insert run: %w", err)
	}
	return r, nil
}

// List returns up to limit runs, newest first. A limit below one returns every run.
func (s *Store) List(limit int) (runs []Run, err error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	if limit < 1 {
		limit = -1
	}
	rows, err := s.db.Query(
		`SELECT id, created_at, title, command, poly_order, tolerance, max_iterations,
		 iterations, converged, residual_norms, error, elapsed_ns
		 FROM solves ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: query runs: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			r                  Run
			created            string
			title, norms, text sql.NullString
			elapsed            int64
		)
		if err = rows.Scan(&r.ID, &created, &title, &r.Command, &r.Order, &r.Tolerance,
			&r.MaxIterations, &r.Iterations, &r.Converged, &norms, &text, &elapsed); err != nil {
			return nil, fmt.Errorf("history: scan run: %w", err)
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("history: run %s: %w", r.ID, err)
		}
		if norms.Valid && norms.String != "null" {
			if err = json.Unmarshal([]byte(norms.String), &r.ResidualNorms); err != nil {
				return nil, fmt.Errorf("history: run %s: %w", r.ID, err)
			}
		}
		r.Title, r.Error, r.Elapsed = title.String, text.String, time.Duration(elapsed)
		runs = append(runs, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("history: read runs: %w", err)
	}
	return
}

func (s *Store) Print(limit int) error {
	runs, err := s.List(limit)
	if err != nil {
		return err
	}
	for _, r := range runs {
		status := "converged"
		if !r.Converged {
			status = "failed: " + r.Error
		}
		fmt.Printf("%s  %-10s P%d  iterations = %2d  %-12v %s  [%s]\n",
			r.CreatedAt.Local().Format(time.DateTime), r.Command, r.Order, r.Iterations,
			r.Elapsed.Round(time.Millisecond), status, r.Title)
	}
	return nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
