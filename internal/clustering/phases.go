package clustering

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"

	"github.com/justestif/go-wellness-mood/internal/mood"
)

// Config holds phase clustering parameters.
type Config struct {
	NumClusters    int     // Number of clusters to create (default: 3)
	MinClusterSize int     // Minimum check-ins per phase (smaller clusters become outliers)
	TimeWeight     float64 // Scale of the time axis relative to mood (default: 0.5)
}

// DefaultConfig returns the recommended default configuration.
func DefaultConfig() Config {
	return Config{
		NumClusters:    3,
		MinClusterSize: 3,
		TimeWeight:     0.5,
	}
}

// Phase is a run of check-ins with a similar mood.
type Phase struct {
	Name      string     // Descriptive name: "Calm & Content: Jan 15 - Feb 3, 2024"
	Category  Category   // Quadrant of the centroid
	Dominant  mood.Label // Most frequent label
	Points    []Point    // Sorted by time
	Valence   float64    // Centroid valence
	Energy    float64    // Centroid energy
	StartDate time.Time
	EndDate   time.Time
}

// pointObservation wraps a Point to implement clusters.Observation.
type pointObservation struct {
	point  Point
	coords clusters.Coordinates
}

func (o pointObservation) Coordinates() clusters.Coordinates {
	return o.coords
}

func (o pointObservation) Distance(point clusters.Coordinates) float64 {
	return o.coords.Distance(point)
}

// DetectPhases groups points by mood similarity and proximity in time.
// Returns phases (most recent first) and outlier points that don't fit into
// any phase.
func DetectPhases(points []Point, cfg Config) ([]Phase, []Point) {
	if len(points) == 0 {
		return nil, nil
	}

	def := DefaultConfig()
	if cfg.NumClusters <= 0 {
		cfg.NumClusters = def.NumClusters
	}
	if cfg.TimeWeight < 0 {
		cfg.TimeWeight = def.TimeWeight
	}

	// If fewer points than clusters, everything is an outlier
	if len(points) < cfg.NumClusters {
		return nil, slices.Clone(points)
	}

	first, last := timeSpan(points)
	span := last.Sub(first)

	var obs clusters.Observations
	for _, p := range points {
		obs = append(obs, pointObservation{point: p, coords: coordinates(p, first, span, cfg.TimeWeight)})
	}

	km := kmeans.New()
	result, err := km.Partition(obs, cfg.NumClusters)
	if err != nil {
		slog.Warn("k-means clustering failed", "system", "clustering", "error", err)
		return nil, slices.Clone(points)
	}

	var phases []Phase
	var outliers []Point

	for _, cluster := range result {
		var members []Point
		for _, o := range cluster.Observations {
			if po, ok := o.(pointObservation); ok {
				members = append(members, po.point)
			}
		}

		if len(members) == 0 {
			continue
		}
		if len(members) < cfg.MinClusterSize {
			outliers = append(outliers, members...)
			continue
		}

		slices.SortFunc(members, func(a, b Point) int {
			return a.At.Compare(b.At)
		})

		centre := Affect{Valence: cluster.Center[0], Energy: cluster.Center[1]}
		category := CategoryOf(centre)
		start := members[0].At
		end := members[len(members)-1].At

		phases = append(phases, Phase{
			Name:      formatPhaseName(category.Name, start, end),
			Category:  category,
			Dominant:  dominant(members),
			Points:    members,
			Valence:   centre.Valence,
			Energy:    centre.Energy,
			StartDate: start,
			EndDate:   end,
		})
	}

	// Most recent first
	slices.SortFunc(phases, func(a, b Phase) int {
		return b.StartDate.Compare(a.StartDate)
	})

	slices.SortFunc(outliers, func(a, b Point) int {
		return a.At.Compare(b.At)
	})

	return phases, outliers
}

// coordinates places p as (valence, energy, scaled time).
func coordinates(p Point, first time.Time, span time.Duration, weight float64) clusters.Coordinates {
	a := AffectOf(p.Mood)
	var t float64
	if span > 0 {
		t = float64(p.At.Sub(first)) / float64(span) * weight
	}
	return clusters.Coordinates{a.Valence, a.Energy, t}
}

func timeSpan(points []Point) (time.Time, time.Time) {
	first, last := points[0].At, points[0].At
	for _, p := range points[1:] {
		if p.At.Before(first) {
			first = p.At
		}
		if p.At.After(last) {
			last = p.At
		}
	}
	return first, last
}

// dominant returns the most frequent label, preferring label order on ties.
func dominant(points []Point) mood.Label {
	counts := make(map[mood.Label]int)
	for _, p := range points {
		counts[p.Mood]++
	}

	best := mood.Neutral
	bestCount := 0
	for _, l := range mood.Labels() {
		if counts[l] > bestCount {
			best, bestCount = l, counts[l]
		}
	}
	return best
}

// formatPhaseName combines a category name with a date range.
func formatPhaseName(name string, start, end time.Time) string {
	const dateFormat = "Jan 2, 2006"
	startStr := start.Format(dateFormat)
	endStr := end.Format(dateFormat)

	if startStr == endStr {
		return fmt.Sprintf("%s: %s", name, startStr)
	}
	return fmt.Sprintf("%s: %s - %s", name, startStr, endStr)
}
