package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// FrameResult is the stored analysis of one frame.
type FrameResult struct {
	SessionID      string          `json:"session_id"`
	Seq            int64           `json:"seq"`
	Exercise       string          `json:"exercise"`
	Confidence     float64         `json:"confidence"`
	Phase          string          `json:"phase"`
	Severity       string          `json:"severity"`
	Mistakes       json.RawMessage `json:"mistakes"`
	FatigueOverall float64         `json:"fatigue_overall"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Summary aggregates the stored results of a session.
type Summary struct {
	Session        *Session       `json:"session"`
	Frames         int            `json:"frames"`
	Exercise       string         `json:"exercise"`
	MeanConfidence float64        `json:"mean_confidence"`
	MaxFatigue     float64        `json:"max_fatigue"`
	Severities     map[string]int `json:"severities"`
}

// ResultRepository provides operations on frame results.
type ResultRepository struct {
	db *sql.DB
}

// Results returns the frame result repository for this store.
func (s *Store) Results() *ResultRepository {
	return &ResultRepository{db: s.db}
}

// Append stores a frame result and updates the session's frame count and
// latest exercise in a single transaction.
func (r *ResultRepository) Append(ctx context.Context, fr *FrameResult) error {
	ctx, span := startSpan(ctx, "results.append",
		attribute.String("session.id", fr.SessionID), attribute.Int64("frame.seq", fr.Seq))
	defer span.End()

	if len(fr.Mistakes) == 0 {
		fr.Mistakes = json.RawMessage("[]")
	}
	fr.CreatedAt = time.Now().UTC()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO frame_results
		 (session_id, seq, exercise, confidence, phase, severity, mistakes, fatigue_overall, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		fr.SessionID, fr.Seq, fr.Exercise, fr.Confidence, fr.Phase, fr.Severity,
		string(fr.Mistakes), fr.FatigueOverall, fr.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert frame result: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE sessions SET frames = frames + 1,
		 exercise = CASE WHEN ? = 'unknown' THEN exercise ELSE ? END
		 WHERE id = ?`,
		fr.Exercise, fr.Exercise, fr.SessionID,
	)
	if err != nil {
		return err
	}
	if err := expectOne(result); err != nil {
		return err
	}

	return tx.Commit()
}

// ListBySession retrieves the results of a session in frame order. A
// non-positive limit returns all results.
func (r *ResultRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]FrameResult, error) {
	ctx, span := startSpan(ctx, "results.list", attribute.String("session.id", sessionID))
	defer span.End()

	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT session_id, seq, exercise, confidence, phase, severity, mistakes, fatigue_overall, created_at
		 FROM frame_results
		 WHERE session_id = ?
		 ORDER BY seq
		 LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []FrameResult{}
	for rows.Next() {
		var fr FrameResult
		var mistakes string
		if err := rows.Scan(&fr.SessionID, &fr.Seq, &fr.Exercise, &fr.Confidence, &fr.Phase,
			&fr.Severity, &mistakes, &fr.FatigueOverall, &fr.CreatedAt); err != nil {
			return nil, err
		}
		fr.Mistakes = json.RawMessage(mistakes)
		results = append(results, fr)
	}
	return results, rows.Err()
}

// Summary aggregates the results of a session. It returns ErrNotFound if
// the session does not exist.
func (r *ResultRepository) Summary(ctx context.Context, sessionID string) (*Summary, error) {
	ctx, span := startSpan(ctx, "results.summary", attribute.String("session.id", sessionID))
	defer span.End()

	sess, err := (&SessionRepository{db: r.db}).GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	sum := &Summary{Session: sess, Exercise: "unknown", Severities: map[string]int{}}

	var meanConf, maxFatigue sql.NullFloat64
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), AVG(confidence), MAX(fatigue_overall)
		 FROM frame_results WHERE session_id = ?`, sessionID,
	).Scan(&sum.Frames, &meanConf, &maxFatigue)
	if err != nil {
		return nil, err
	}
	sum.MeanConfidence = meanConf.Float64
	sum.MaxFatigue = maxFatigue.Float64

	var exercise string
	err = r.db.QueryRowContext(ctx,
		`SELECT exercise FROM frame_results
		 WHERE session_id = ? AND exercise != 'unknown'
		 GROUP BY exercise
		 ORDER BY COUNT(*) DESC, MIN(seq)
		 LIMIT 1`, sessionID,
	).Scan(&exercise)
	switch {
	case err == nil:
		sum.Exercise = exercise
	case !errors.Is(err, sql.ErrNoRows):
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT severity, COUNT(*) FROM frame_results WHERE session_id = ? GROUP BY severity`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var severity string
		var n int
		if err := rows.Scan(&severity, &n); err != nil {
			return nil, err
		}
		sum.Severities[severity] = n
	}
	return sum, rows.Err()
}
