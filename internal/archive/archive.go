// Package archive persists candidate results in a local SQLite database so
// rankings survive between screening sessions.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/spigell/job-screener/internal/logger"
	"github.com/spigell/job-screener/internal/results"
	"github.com/spigell/job-screener/internal/scoring"
)

const schema = `
CREATE TABLE IF NOT EXISTS candidate_results (
	seq            INTEGER PRIMARY KEY AUTOINCREMENT,
	job_id         TEXT NOT NULL,
	job_title      TEXT NOT NULL,
	candidate_id   TEXT NOT NULL,
	candidate_name TEXT NOT NULL,
	average_score  REAL NOT NULL,
	answers        TEXT NOT NULL,
	submitted_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_candidate_results_job ON candidate_results(job_id);
`

type DB struct {
	Pool   *sql.DB
	logger *zap.Logger
}

// Open opens (creating if needed) the archive at path and applies the schema.
func Open(ctx context.Context, path string, log *zap.Logger) (*DB, error) {
	pool, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, err
	}

	// sqlite wants a single writer.
	pool.SetMaxOpenConns(1)
	pool.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.PingContext(pingCtx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("opening archive %s: %w", path, err)
	}

	if _, err := pool.ExecContext(ctx, schema); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("migrating archive: %w", err)
	}

	return &DB{Pool: pool, logger: logger.OrNop(log)}, nil
}

// dsn builds a sqlite URI for path. The path is percent-escaped so that
// '?', '#' and '%' in file names do not leak into the query part.
func dsn(path string) string {
	u := url.URL{Path: path}
	return "file:" + u.EscapedPath() + "?_pragma=busy_timeout(5000)"
}

func (d *DB) Close() error {
	if d == nil || d.Pool == nil {
		return nil
	}
	return d.Pool.Close()
}

// Save appends a result. Resubmissions become new rows.
func (d *DB) Save(ctx context.Context, r results.CandidateResult) error {
	answers, err := json.Marshal(r.Answers)
	if err != nil {
		return fmt.Errorf("encoding answers: %w", err)
	}

	_, err = d.Pool.ExecContext(ctx, `
		INSERT INTO candidate_results (job_id, job_title, candidate_id, candidate_name, average_score, answers, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.JobID, r.JobTitle, r.CandidateID, r.CandidateName, r.AverageScore, string(answers),
		r.SubmittedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("saving result: %w", err)
	}

	d.logger.Debug("result archived", logger.Screening(r.JobID, r.CandidateID)...)
	return nil
}

// LoadAll returns every archived result in insertion order.
func (d *DB) LoadAll(ctx context.Context) ([]results.CandidateResult, error) {
	rows, err := d.Pool.QueryContext(ctx, `
		SELECT job_id, job_title, candidate_id, candidate_name, average_score, answers, submitted_at
		FROM candidate_results ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("querying results: %w", err)
	}
	defer rows.Close()

	var out []results.CandidateResult
	for rows.Next() {
		var (
			r         results.CandidateResult
			answers   string
			submitted string
		)
		if err := rows.Scan(&r.JobID, &r.JobTitle, &r.CandidateID, &r.CandidateName, &r.AverageScore, &answers, &submitted); err != nil {
			return nil, err
		}

		var scored []scoring.ScoredAnswer
		if err := json.Unmarshal([]byte(answers), &scored); err != nil {
			return nil, fmt.Errorf("decoding answers for candidate %s: %w", r.CandidateID, err)
		}
		r.Answers = scored

		if r.SubmittedAt, err = time.Parse(time.RFC3339Nano, submitted); err != nil {
			return nil, fmt.Errorf("decoding submitted_at for candidate %s: %w", r.CandidateID, err)
		}

		out = append(out, r)
	}
	return out, rows.Err()
}

// Restore loads every archived result into store and returns how many were added.
func (d *DB) Restore(ctx context.Context, store *results.Store) (int, error) {
	all, err := d.LoadAll(ctx)
	if err != nil {
		return 0, err
	}
	for _, r := range all {
		store.Add(r)
	}
	d.logger.Info("results restored from archive", zap.Int("results", len(all)))
	return len(all), nil
}
