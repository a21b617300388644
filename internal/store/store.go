// Package store handles SQLite persistence of attempt history.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/speakscore/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrNoCountedAttempt is returned when there is no attempt to supersede.
var ErrNoCountedAttempt = errors.New("no counted attempt")

// Store wraps SQLite access for assessment data.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS assessments (
			id TEXT PRIMARY KEY,
			lang TEXT NOT NULL,
			started_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS attempts (
			id INTEGER PRIMARY KEY,
			assessment_id TEXT NOT NULL,
			skill TEXT NOT NULL,
			attempt_number INTEGER NOT NULL,
			score REAL NOT NULL,
			counted INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS fluency_results (
			attempt_id INTEGER PRIMARY KEY,
			word_count INTEGER NOT NULL,
			total_words INTEGER NOT NULL,
			filler_count INTEGER NOT NULL,
			speaking_time REAL NOT NULL,
			articulation_rate REAL NOT NULL,
			pause_count INTEGER NOT NULL,
			long_pause_count INTEGER NOT NULL,
			max_pause REAL NOT NULL,
			pause_ratio REAL NOT NULL,
			total_pause REAL NOT NULL,
			speed INTEGER NOT NULL,
			pause INTEGER NOT NULL,
			total INTEGER NOT NULL,
			explanation TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_skill_created ON attempts(skill, created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_assessment ON attempts(assessment_id, skill);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// CreateAssessment starts a new assessment session and returns its id.
func (s *Store) CreateAssessment(ctx context.Context, lang string, startedAt time.Time) (string, error) {
	id := uuid.NewString()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO assessments (id, lang, started_at) VALUES (?, ?, ?)`,
		id, lang, formatTime(startedAt),
	); err != nil {
		return "", err
	}
	return id, nil
}

// LatestAssessment returns the most recently started assessment id, or "" if none.
func (s *Store) LatestAssessment(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM assessments ORDER BY started_at DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

// InsertAttempt appends a counted attempt for a skill in an assessment.
func (s *Store) InsertAttempt(ctx context.Context, assessmentID, skill string, score float64, at time.Time) (rec model.AttemptRecord, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.AttemptRecord{}, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	rec, err = insertAttemptTx(ctx, tx, assessmentID, skill, score, at)
	if err != nil {
		return model.AttemptRecord{}, err
	}
	if err = tx.Commit(); err != nil {
		return model.AttemptRecord{}, err
	}
	return rec, nil
}

// SupersedeLatest stops counting the latest counted attempt for a skill and
// appends a replacement. History is kept; only the counted flag changes.
func (s *Store) SupersedeLatest(ctx context.Context, assessmentID, skill string, score float64, at time.Time) (rec model.AttemptRecord, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.AttemptRecord{}, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	var res sql.Result
	res, err = tx.ExecContext(ctx,
		`UPDATE attempts SET counted = 0
		 WHERE id = (
			SELECT id FROM attempts
			WHERE assessment_id = ? AND skill = ? AND counted = 1
			ORDER BY attempt_number DESC
			LIMIT 1
		 )`, assessmentID, skill)
	if err != nil {
		return model.AttemptRecord{}, err
	}
	var n int64
	if n, err = res.RowsAffected(); err != nil {
		return model.AttemptRecord{}, err
	}
	if n == 0 {
		err = ErrNoCountedAttempt
		return model.AttemptRecord{}, err
	}

	rec, err = insertAttemptTx(ctx, tx, assessmentID, skill, score, at)
	if err != nil {
		return model.AttemptRecord{}, err
	}
	if err = tx.Commit(); err != nil {
		return model.AttemptRecord{}, err
	}
	return rec, nil
}

func insertAttemptTx(ctx context.Context, tx *sql.Tx, assessmentID, skill string, score float64, at time.Time) (model.AttemptRecord, error) {
	var next int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(attempt_number), 0) + 1 FROM attempts WHERE assessment_id = ? AND skill = ?`,
		assessmentID, skill).Scan(&next); err != nil {
		return model.AttemptRecord{}, err
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO attempts (assessment_id, skill, attempt_number, score, counted, created_at)
		 VALUES (?, ?, ?, ?, 1, ?)`,
		assessmentID, skill, next, score, formatTime(at))
	if err != nil {
		return model.AttemptRecord{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.AttemptRecord{}, err
	}
	return model.AttemptRecord{
		ID:            id,
		AssessmentID:  assessmentID,
		Skill:         skill,
		AttemptNumber: next,
		Score:         score,
		Counted:       true,
		CreatedAt:     at.UTC(),
	}, nil
}

// InsertFluencyResult stores the metrics and score behind a fluency attempt.
func (s *Store) InsertFluencyResult(ctx context.Context, attemptID int64, m model.FluencyMetrics, score model.FluencyScore) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO fluency_results (attempt_id, word_count, total_words, filler_count, speaking_time,
			articulation_rate, pause_count, long_pause_count, max_pause, pause_ratio, total_pause, speed, pause, total, explanation)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		attemptID,
		m.WordCount,
		m.TotalWords,
		m.FillerCount,
		m.SpeakingTime,
		m.ArticulationRate,
		m.PauseCount,
		m.LongPauseCount,
		m.MaxPause,
		m.PauseRatio,
		m.TotalPause,
		score.Speed,
		score.Pause,
		score.Total,
		score.Explanation,
	)
	return err
}

// GetFluencyResult loads the stored metrics and score for an attempt.
func (s *Store) GetFluencyResult(ctx context.Context, attemptID int64) (model.FluencyMetrics, model.FluencyScore, bool, error) {
	var m model.FluencyMetrics
	var score model.FluencyScore
	err := s.db.QueryRowContext(ctx,
		`SELECT word_count, total_words, filler_count, speaking_time, articulation_rate, pause_count,
			long_pause_count, max_pause, pause_ratio, total_pause, speed, pause, total, explanation
		 FROM fluency_results WHERE attempt_id = ?`, attemptID).Scan(
		&m.WordCount, &m.TotalWords, &m.FillerCount, &m.SpeakingTime, &m.ArticulationRate, &m.PauseCount,
		&m.LongPauseCount, &m.MaxPause, &m.PauseRatio, &m.TotalPause, &score.Speed, &score.Pause, &score.Total, &score.Explanation,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.FluencyMetrics{}, model.FluencyScore{}, false, nil
	}
	if err != nil {
		return model.FluencyMetrics{}, model.FluencyScore{}, false, err
	}
	return m, score, true, nil
}

// ListAttempts returns counted attempts matching the filter, oldest first.
func (s *Store) ListAttempts(ctx context.Context, cfg model.StatsConfig) ([]model.AttemptRecord, error) {
	clauses, args := attemptFilter(cfg)
	query := fmt.Sprintf(`SELECT id, assessment_id, skill, attempt_number, score, counted, created_at
		FROM attempts
		WHERE %s
		ORDER BY created_at ASC, id ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.AttemptRecord
	for rows.Next() {
		var rec model.AttemptRecord
		var createdAt string
		if err := rows.Scan(&rec.ID, &rec.AssessmentID, &rec.Skill, &rec.AttemptNumber, &rec.Score, &rec.Counted, &createdAt); err != nil {
			return nil, err
		}
		parsed, err := parseTime(createdAt)
		if err != nil {
			return nil, err
		}
		rec.CreatedAt = parsed
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListSkills returns counted attempt totals per skill matching the filter.
func (s *Store) ListSkills(ctx context.Context, cfg model.StatsConfig) ([]model.SkillAggregate, error) {
	clauses, args := attemptFilter(cfg)
	query := fmt.Sprintf(`SELECT skill, COUNT(*), MAX(created_at)
		FROM attempts
		WHERE %s
		GROUP BY skill
		ORDER BY skill ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.SkillAggregate
	for rows.Next() {
		var agg model.SkillAggregate
		var last string
		if err := rows.Scan(&agg.Skill, &agg.Attempts, &last); err != nil {
			return nil, err
		}
		parsed, err := parseTime(last)
		if err != nil {
			return nil, err
		}
		agg.LastAttempt = parsed
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func attemptFilter(cfg model.StatsConfig) ([]string, []any) {
	clauses := []string{"counted = 1"}
	args := []any{}
	if cfg.Skill != "" {
		clauses = append(clauses, "skill = ?")
		args = append(args, cfg.Skill)
	}
	if cfg.AssessmentID != "" {
		clauses = append(clauses, "assessment_id = ?")
		args = append(args, cfg.AssessmentID)
	}
	if cfg.Since != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, formatTime(*cfg.Since))
	}
	return clauses, args
}

// timeLayout keeps nine fractional digits so stored times sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, value)
}
