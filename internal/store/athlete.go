package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// Athlete is a stored user profile.
type Athlete struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Flexibility string    `json:"flexibility"`
	Age         *int      `json:"age,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// AthleteRepository provides CRUD operations for athletes.
type AthleteRepository struct {
	db *sql.DB
}

// Athletes returns the athlete repository for this store.
func (s *Store) Athletes() *AthleteRepository {
	return &AthleteRepository{db: s.db}
}

// Create inserts a new athlete.
func (r *AthleteRepository) Create(ctx context.Context, a *Athlete) error {
	ctx, span := startSpan(ctx, "athletes.create", attribute.String("athlete.id", a.ID))
	defer span.End()

	a.CreatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO athletes (id, name, flexibility, age, created_at) VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.Flexibility, nullInt(a.Age), a.CreatedAt,
	)
	return err
}

// GetByID retrieves an athlete by its ID.
func (r *AthleteRepository) GetByID(ctx context.Context, id string) (*Athlete, error) {
	ctx, span := startSpan(ctx, "athletes.get", attribute.String("athlete.id", id))
	defer span.End()

	a := &Athlete{}
	var age sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, flexibility, age, created_at FROM athletes WHERE id = ?`, id,
	).Scan(&a.ID, &a.Name, &a.Flexibility, &age, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	a.Age = intPtr(age)
	return a, nil
}

// List retrieves all athletes ordered by name.
func (r *AthleteRepository) List(ctx context.Context) ([]*Athlete, error) {
	ctx, span := startSpan(ctx, "athletes.list")
	defer span.End()

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, flexibility, age, created_at FROM athletes ORDER BY name, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	athletes := []*Athlete{}
	for rows.Next() {
		a := &Athlete{}
		var age sql.NullInt64
		if err := rows.Scan(&a.ID, &a.Name, &a.Flexibility, &age, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Age = intPtr(age)
		athletes = append(athletes, a)
	}
	return athletes, rows.Err()
}

// Delete removes an athlete. Sessions keep their copy of the profile.
func (r *AthleteRepository) Delete(ctx context.Context, id string) error {
	ctx, span := startSpan(ctx, "athletes.delete", attribute.String("athlete.id", id))
	defer span.End()

	result, err := r.db.ExecContext(ctx, `DELETE FROM athletes WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOne(result)
}

// nullInt stores a missing value as NULL.
func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
