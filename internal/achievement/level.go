package achievement

import "coursebook/internal/course"

type Level string

const (
	LevelBronze Level = "BRONZE"
	LevelSilver Level = "SILVER"
	LevelGold   Level = "GOLD"
	LevelElite  Level = "ELITE"
)

// CalculateLevel derives a student's badge from how many courses they have
// completed and how many distinct categories those span. First match wins:
//
//	>= 6 completions across >= 3 categories  -> ELITE
//	>= 4 completions, or >= 3 across >= 2    -> GOLD
//	>= 2 completions                         -> SILVER
//	otherwise                                -> BRONZE
func CalculateLevel(completed int, categories []course.Category) Level {
	distinct := map[course.Category]struct{}{}
	for _, c := range categories {
		distinct[c] = struct{}{}
	}

	switch {
	case completed >= 6 && len(distinct) >= 3:
		return LevelElite
	case completed >= 4 || (completed >= 3 && len(distinct) >= 2):
		return LevelGold
	case completed >= 2:
		return LevelSilver
	default:
		return LevelBronze
	}
}
