package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CheckinRepository handles check-in database operations.
type CheckinRepository struct {
	pool *pgxpool.Pool
}

const checkinColumns = `id, user_id, text, quick_emojis, mood, affirmation, safety_flag, playlist_url, created_at`

// Create inserts a check-in, assigning an ID when it has none and filling
// CreatedAt from the database.
func (r *CheckinRepository) Create(ctx context.Context, c *Checkin) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.QuickEmojis == nil {
		c.QuickEmojis = []string{}
	}

	query := `
		INSERT INTO checkins (id, user_id, text, quick_emojis, mood, affirmation, safety_flag, playlist_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING created_at
	`
	err := r.pool.QueryRow(ctx, query,
		c.ID,
		c.UserID,
		c.Text,
		c.QuickEmojis,
		c.Mood,
		c.Affirmation,
		c.SafetyFlag,
		c.PlaylistURL,
	).Scan(&c.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting checkin: %w", err)
	}
	return nil
}

// Get retrieves a check-in by ID.
func (r *CheckinRepository) Get(ctx context.Context, id uuid.UUID) (*Checkin, error) {
	query := `SELECT ` + checkinColumns + ` FROM checkins WHERE id = $1`

	c, err := scanCheckin(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying checkin: %w", err)
	}
	return c, nil
}

// ListForUser retrieves a user's most recent check-ins, newest first.
func (r *CheckinRepository) ListForUser(ctx context.Context, userID string, limit int) ([]Checkin, error) {
	query := `
		SELECT ` + checkinColumns + `
		FROM checkins
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying user checkins: %w", err)
	}
	defer rows.Close()

	var checkins []Checkin
	for rows.Next() {
		c, err := scanCheckin(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning checkin: %w", err)
		}
		checkins = append(checkins, *c)
	}
	return checkins, rows.Err()
}

func scanCheckin(row pgx.Row) (*Checkin, error) {
	var c Checkin
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.Text,
		&c.QuickEmojis,
		&c.Mood,
		&c.Affirmation,
		&c.SafetyFlag,
		&c.PlaylistURL,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
