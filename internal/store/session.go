package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// Session is a stored observation session.
type Session struct {
	ID            string     `json:"id"`
	AthleteID     string     `json:"athlete_id,omitempty"`
	Exercise      string     `json:"exercise"`
	Flexibility   string     `json:"flexibility,omitempty"`
	Age           *int       `json:"age,omitempty"`
	Frames        int        `json:"frames"`
	FatigueAlarms int        `json:"fatigue_alarms"`
	StartedAt     time.Time  `json:"started_at"`
	EndedAt       *time.Time `json:"ended_at,omitempty"`
}

// SessionRepository provides operations on sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

const sessionColumns = `id, COALESCE(athlete_id, ''), exercise, user_flexibility, user_age,
	frames, fatigue_alarms, started_at, ended_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*Session, error) {
	s := &Session{}
	var ended sql.NullTime
	var age sql.NullInt64
	err := row.Scan(&s.ID, &s.AthleteID, &s.Exercise, &s.Flexibility, &age,
		&s.Frames, &s.FatigueAlarms, &s.StartedAt, &ended)
	if err != nil {
		return nil, err
	}
	s.Age = intPtr(age)
	if ended.Valid {
		t := ended.Time
		s.EndedAt = &t
	}
	return s, nil
}

// Create inserts a new session. StartedAt defaults to now.
func (r *SessionRepository) Create(ctx context.Context, s *Session) error {
	ctx, span := startSpan(ctx, "sessions.create", attribute.String("session.id", s.ID))
	defer span.End()

	if s.StartedAt.IsZero() {
		s.StartedAt = time.Now().UTC()
	}
	if s.Exercise == "" {
		s.Exercise = "unknown"
	}
	var athleteID any
	if s.AthleteID != "" {
		athleteID = s.AthleteID
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, athlete_id, exercise, user_flexibility, user_age, started_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID, athleteID, s.Exercise, s.Flexibility, nullInt(s.Age), s.StartedAt,
	)
	return err
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*Session, error) {
	ctx, span := startSpan(ctx, "sessions.get", attribute.String("session.id", id))
	defer span.End()

	s, err := scanSession(r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

// List retrieves the most recent sessions, newest first. A non-positive
// limit returns all sessions.
func (r *SessionRepository) List(ctx context.Context, limit int) ([]*Session, error) {
	ctx, span := startSpan(ctx, "sessions.list")
	defer span.End()

	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []*Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// RecordAlarm increments the fatigue alarm count of a session.
func (r *SessionRepository) RecordAlarm(ctx context.Context, id string) error {
	ctx, span := startSpan(ctx, "sessions.record_alarm", attribute.String("session.id", id))
	defer span.End()

	result, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET fatigue_alarms = fatigue_alarms + 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOne(result)
}

// End marks a session as ended.
func (r *SessionRepository) End(ctx context.Context, id string, at time.Time) error {
	ctx, span := startSpan(ctx, "sessions.end", attribute.String("session.id", id))
	defer span.End()

	result, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET ended_at = ? WHERE id = ? AND ended_at IS NULL`, at.UTC(), id)
	if err != nil {
		return err
	}
	return expectOne(result)
}
