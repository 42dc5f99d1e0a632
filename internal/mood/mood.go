// Package mood defines the closed set of mood labels, safety verdicts, and the
// local text checks (urgent phrases, keyword buckets) that need no external calls.
package mood

import "strings"

// Label is one of the fixed mood buckets.
type Label string

const (
	Happy   Label = "Happy"
	Sad     Label = "Sad"
	Anxious Label = "Anxious"
	Angry   Label = "Angry"
	Fearful Label = "Fearful"
	Urgent  Label = "Urgent"
	Neutral Label = "Neutral"
)

var labels = []Label{Happy, Sad, Anxious, Angry, Fearful, Urgent, Neutral}

// Labels returns every mood label in prompt order.
func Labels() []Label {
	out := make([]Label, len(labels))
	copy(out, labels)
	return out
}

// Valid reports whether l is a member of the label set.
func (l Label) Valid() bool {
	for _, known := range labels {
		if l == known {
			return true
		}
	}
	return false
}

func (l Label) String() string {
	return string(l)
}

// ParseLabel matches s against the label set, ignoring case and surrounding space.
func ParseLabel(s string) (Label, bool) {
	s = strings.TrimSpace(s)
	for _, l := range labels {
		if strings.EqualFold(s, string(l)) {
			return l, true
		}
	}
	return "", false
}

// Verdict is the safety outcome attached to a response.
type Verdict string

const (
	Safe    Verdict = "safe"
	Flag    Verdict = "flag"
	Unknown Verdict = "unknown"
)

// Flagged reports whether v requires crisis messaging.
func (v Verdict) Flagged() bool {
	return v == Flag
}
