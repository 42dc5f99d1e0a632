package mood

import "strings"

// Bucket maps a label to the keyword stems that select it.
type Bucket struct {
	Label    Label
	Keywords []string
}

// HeuristicBuckets is checked in order; the first bucket with a matching
// keyword wins.
var HeuristicBuckets = []Bucket{
	{Label: Anxious, Keywords: []string{"stress", "stressed", "anxiet", "panic", "overwhelm"}},
	{Label: Sad, Keywords: []string{"sad", "depress", "lonely", "gloom"}},
	{Label: Happy, Keywords: []string{"happy", "excited", "glad", "joy"}},
	{Label: Angry, Keywords: []string{"angry", "mad", "furious"}},
	{Label: Fearful, Keywords: []string{"fear", "scared", "terrified"}},
}

// Heuristic classifies text with the keyword buckets alone. Text with no
// recognised keyword is Neutral.
func Heuristic(text string) Label {
	return HeuristicWith(HeuristicBuckets, text)
}

// HeuristicWith classifies text against a custom bucket table.
func HeuristicWith(buckets []Bucket, text string) Label {
	t := strings.ToLower(text)
	for _, b := range buckets {
		for _, k := range b.Keywords {
			if strings.Contains(t, k) {
				return b.Label
			}
		}
	}
	if IsUrgent(t) {
		return Urgent
	}
	return Neutral
}

// Match recovers a label from free-form model output. Each line is tried
// first for an exact match, then for containment; finally the whole text is
// searched for any label.
func Match(text string) (Label, bool) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.ToLower(strings.TrimSpace(line))
		if line == "" {
			continue
		}
		for _, l := range labels {
			if line == strings.ToLower(string(l)) {
				return l, true
			}
		}
		for _, l := range labels {
			if strings.Contains(line, strings.ToLower(string(l))) {
				return l, true
			}
		}
	}

	lower := strings.ToLower(text)
	for _, l := range labels {
		if strings.Contains(lower, strings.ToLower(string(l))) {
			return l, true
		}
	}
	return "", false
}
