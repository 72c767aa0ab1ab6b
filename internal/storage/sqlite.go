// Package storage provides SQLite-based persistence for evaluated episodes
// and experiment runs. Uses the pure-Go modernc.org/sqlite driver to avoid
// CGO dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Store manages the SQLite database connection.
type Store struct {
	db *sql.DB
}

// Episode sources.
const (
	SourceEval    = "eval"
	SourcePlay    = "play"
	SourceCollect = "collect"
)

// Episode is one finished episode of a policy.
type Episode struct {
	ID        int64
	Policy    string
	Source    string
	Seed      int64
	Score     int
	Steps     int
	Return    float64
	Reason    string
	CreatedAt time.Time
}

// Run is one trained configuration of an experiment grid.
type Run struct {
	ID           int64
	RunID        string // uuid shared by all artifacts of the run
	Experiment   string // uuid of the grid invocation
	Index        int
	Episodes     int
	Gap          float64
	Epsilon      float64
	LearningRate float64
	Epochs       int
	Degree       int
	Samples      int
	TrainAcc     float64
	ValAcc       float64
	WeightsPath  string
	CreatedAt    time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	// One writer at a time; concurrent evaluators share the store
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS episodes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			policy TEXT NOT NULL,
			source TEXT NOT NULL,
			seed INTEGER NOT NULL DEFAULT 0,
			score INTEGER NOT NULL,
			steps INTEGER NOT NULL,
			total_return REAL NOT NULL DEFAULT 0,
			reason TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_episodes_policy ON episodes(policy);
		CREATE INDEX IF NOT EXISTS idx_episodes_top ON episodes(policy, score DESC);

		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL UNIQUE,
			experiment TEXT NOT NULL,
			run_index INTEGER NOT NULL,
			episodes INTEGER NOT NULL,
			gap REAL NOT NULL,
			epsilon REAL NOT NULL,
			learning_rate REAL NOT NULL,
			epochs INTEGER NOT NULL,
			degree INTEGER NOT NULL,
			samples INTEGER NOT NULL DEFAULT 0,
			train_acc REAL NOT NULL DEFAULT 0,
			val_acc REAL NOT NULL,
			weights_path TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_runs_experiment ON runs(experiment);
		CREATE INDEX IF NOT EXISTS idx_runs_val_acc ON runs(val_acc DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// parseTime handles both time.Time and string datetimes from the driver.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

// SaveEpisode records a finished episode.
// Returns the ID of the inserted record.
func (s *Store) SaveEpisode(ep Episode) (int64, error) {
	if ep.Source == "" {
		ep.Source = SourceEval
	}
	result, err := s.db.Exec(
		`INSERT INTO episodes (policy, source, seed, score, steps, total_return, reason)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ep.Policy, ep.Source, ep.Seed, ep.Score, ep.Steps, ep.Return, ep.Reason,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save episode: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// TopEpisodes retrieves the best N episodes for the given policy.
// Results are ordered by score descending, then by fewer steps.
func (s *Store) TopEpisodes(policy string, limit int) ([]Episode, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT id, policy, source, seed, score, steps, total_return, reason, created_at
		 FROM episodes
		 WHERE policy = ?
		 ORDER BY score DESC, steps ASC
		 LIMIT ?`,
		policy, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query episodes: %w", err)
	}
	defer rows.Close()

	var entries []Episode
	for rows.Next() {
		var e Episode
		var createdAt any
		if err := rows.Scan(&e.ID, &e.Policy, &e.Source, &e.Seed, &e.Score, &e.Steps, &e.Return, &e.Reason, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return entries, nil
}

// HighScore returns the highest score for the given policy.
// Returns 0 if no episodes exist.
func (s *Store) HighScore(policy string) (int, error) {
	var score sql.NullInt64
	err := s.db.QueryRow(
		"SELECT MAX(score) FROM episodes WHERE policy = ?",
		policy,
	).Scan(&score)

	if err != nil {
		return 0, fmt.Errorf("storage: cannot query high score: %w", err)
	}

	if !score.Valid {
		return 0, nil
	}

	return int(score.Int64), nil
}

// ClearEpisodes deletes all episodes for the given policy.
func (s *Store) ClearEpisodes(policy string) error {
	_, err := s.db.Exec("DELETE FROM episodes WHERE policy = ?", policy)
	if err != nil {
		return fmt.Errorf("storage: cannot clear episodes: %w", err)
	}
	return nil
}

// PolicyStats contains aggregated statistics for a policy.
type PolicyStats struct {
	Policy      string
	Episodes    int
	HighScore   int
	AvgScore    float64
	AvgSteps    float64
	SuccessRate float64 // share of episodes with at least one pass
	LastPlayed  time.Time
}

// PolicyStats retrieves aggregated statistics for a specific policy.
func (s *Store) PolicyStats(policy string) (*PolicyStats, error) {
	stats := &PolicyStats{Policy: policy}

	var lastPlayed any
	err := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(MAX(score), 0), COALESCE(AVG(score), 0),
		        COALESCE(AVG(steps), 0), COALESCE(AVG(CASE WHEN score > 0 THEN 1.0 ELSE 0.0 END), 0),
		        MAX(created_at)
		 FROM episodes WHERE policy = ?`,
		policy,
	).Scan(&stats.Episodes, &stats.HighScore, &stats.AvgScore, &stats.AvgSteps, &stats.SuccessRate, &lastPlayed)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get policy stats: %w", err)
	}
	stats.LastPlayed = parseTime(lastPlayed)

	return stats, nil
}

// AllPolicyStats retrieves statistics for every policy with stored episodes.
func (s *Store) AllPolicyStats() (map[string]*PolicyStats, error) {
	rows, err := s.db.Query(
		`SELECT policy, COUNT(*), MAX(score), AVG(score), AVG(steps),
		        AVG(CASE WHEN score > 0 THEN 1.0 ELSE 0.0 END), MAX(created_at)
		 FROM episodes
		 GROUP BY policy`,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get all policy stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]*PolicyStats)
	for rows.Next() {
		var ps PolicyStats
		var lastPlayed any
		if err := rows.Scan(&ps.Policy, &ps.Episodes, &ps.HighScore, &ps.AvgScore, &ps.AvgSteps, &ps.SuccessRate, &lastPlayed); err != nil {
			return nil, fmt.Errorf("storage: cannot scan stats row: %w", err)
		}
		ps.LastPlayed = parseTime(lastPlayed)
		stats[ps.Policy] = &ps
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return stats, nil
}

// SaveRun records one experiment run.
// Returns the ID of the inserted record.
func (s *Store) SaveRun(r Run) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO runs
		 (run_id, experiment, run_index, episodes, gap, epsilon, learning_rate, epochs, degree,
		  samples, train_acc, val_acc, weights_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Experiment, r.Index, r.Episodes, r.Gap, r.Epsilon, r.LearningRate, r.Epochs, r.Degree,
		r.Samples, r.TrainAcc, r.ValAcc, r.WeightsPath,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

const runColumns = `id, run_id, experiment, run_index, episodes, gap, epsilon, learning_rate, epochs,
	degree, samples, train_acc, val_acc, weights_path, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var r Run
	var createdAt any
	err := row.Scan(
		&r.ID, &r.RunID, &r.Experiment, &r.Index, &r.Episodes, &r.Gap, &r.Epsilon, &r.LearningRate,
		&r.Epochs, &r.Degree, &r.Samples, &r.TrainAcc, &r.ValAcc, &r.WeightsPath, &createdAt,
	)
	r.CreatedAt = parseTime(createdAt)
	return r, err
}

// Runs retrieves the most recent runs, newest first.
func (s *Store) Runs(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT `+runColumns+` FROM runs ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return runs, nil
}

// BestRun returns the run with the highest validation accuracy, or nil if
// no runs are stored. Ties go to the earliest run.
func (s *Store) BestRun() (*Run, error) {
	r, err := scanRun(s.db.QueryRow(
		`SELECT ` + runColumns + ` FROM runs ORDER BY val_acc DESC, id ASC LIMIT 1`,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query best run: %w", err)
	}
	return &r, nil
}
