package db

import (
	"time"

	"github.com/google/uuid"
)

// Checkin is a stored mood check-in.
type Checkin struct {
	ID          uuid.UUID
	UserID      string
	Text        string
	QuickEmojis []string
	Mood        string
	Affirmation string
	SafetyFlag  string
	PlaylistURL string
	CreatedAt   time.Time
}
