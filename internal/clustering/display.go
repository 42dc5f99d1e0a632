package clustering

import (
	"fmt"
	"strings"
)

const dateFormat = "2006-01-02"

// FormatPhaseSummary returns a human-readable summary of detected phases.
// Outliers are summarized by count only.
func FormatPhaseSummary(phases []Phase, outliers []Point) string {
	var sb strings.Builder

	total := len(outliers)
	for _, p := range phases {
		total += len(p.Points)
	}

	if len(phases) == 0 {
		sb.WriteString(fmt.Sprintf("No mood phases found from %d check-ins", total))
		if len(outliers) > 0 {
			sb.WriteString(fmt.Sprintf(" (%d outliers skipped)", len(outliers)))
		}
		sb.WriteString("\n")
		return sb.String()
	}

	phaseWord := "phase"
	if len(phases) > 1 {
		phaseWord = "phases"
	}

	sb.WriteString(fmt.Sprintf("Found %d mood %s from %d check-ins", len(phases), phaseWord, total))
	if len(outliers) > 0 {
		sb.WriteString(fmt.Sprintf(" (%d outliers skipped)", len(outliers)))
	}
	sb.WriteString("\n")

	for i, p := range phases {
		sb.WriteString("\n")
		sb.WriteString(formatPhase(i+1, p))
	}

	return sb.String()
}

func formatPhase(num int, p Phase) string {
	checkinWord := "check-in"
	if len(p.Points) > 1 {
		checkinWord = "check-ins"
	}

	return fmt.Sprintf("Phase %d: %s, %s to %s (%d %s, mostly %s)\n  %s\n",
		num,
		p.Category.Name,
		p.StartDate.Format(dateFormat),
		p.EndDate.Format(dateFormat),
		len(p.Points),
		checkinWord,
		p.Dominant,
		p.Category.Description,
	)
}
