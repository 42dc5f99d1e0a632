package clustering

// Category is a named quadrant of the mood plane.
type Category struct {
	Name        string
	Description string
}

// CategoryOf names a centroid with a 2x2 energy/valence quadrant system.
//
// Quadrants:
//   - High Energy + High Valence = "Upbeat & Bright"
//   - High Energy + Low Valence  = "Tense & Restless"
//   - Low Energy  + High Valence = "Calm & Content"
//   - Low Energy  + Low Valence  = "Low & Heavy"
func CategoryOf(a Affect) Category {
	highEnergy := a.Energy > 0.6
	highValence := a.Valence > 0.5

	switch {
	case highEnergy && highValence:
		return Category{
			Name:        "Upbeat & Bright",
			Description: "Energised and positive stretch",
		}
	case highEnergy && !highValence:
		return Category{
			Name:        "Tense & Restless",
			Description: "Stressful or agitated stretch, worth some extra care",
		}
	case !highEnergy && highValence:
		return Category{
			Name:        "Calm & Content",
			Description: "Settled and easy-going stretch",
		}
	default:
		return Category{
			Name:        "Low & Heavy",
			Description: "Quiet, low-mood stretch, a good time to reach out",
		}
	}
}
