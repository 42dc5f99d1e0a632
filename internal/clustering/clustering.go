// Package clustering groups a user's check-ins into mood phases with k-means
// over valence, energy, and time.
package clustering

import (
	"time"

	"github.com/justestif/go-wellness-mood/internal/mood"
)

// Point is one check-in placed on the mood plane.
type Point struct {
	ID   string
	Mood mood.Label
	At   time.Time
}

// Affect is a position on the valence (unpleasant to pleasant) and energy
// (calm to activated) axes, both in [0, 1].
type Affect struct {
	Valence float64
	Energy  float64
}

var affects = map[mood.Label]Affect{
	mood.Happy:   {Valence: 0.9, Energy: 0.7},
	mood.Sad:     {Valence: 0.15, Energy: 0.25},
	mood.Anxious: {Valence: 0.3, Energy: 0.8},
	mood.Angry:   {Valence: 0.15, Energy: 0.9},
	mood.Fearful: {Valence: 0.2, Energy: 0.65},
	mood.Urgent:  {Valence: 0.0, Energy: 0.5},
	mood.Neutral: {Valence: 0.5, Energy: 0.4},
}

// AffectOf returns the plane position for l. Unknown labels sit at Neutral.
func AffectOf(l mood.Label) Affect {
	if a, ok := affects[l]; ok {
		return a
	}
	return affects[mood.Neutral]
}
