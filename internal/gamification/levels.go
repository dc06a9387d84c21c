package gamification

import "math"

// levelThresholds[i] is the total XP required to reach level i+1.
// XP past the last entry stays at MaxLevel.
var levelThresholds = []int{
	0, 100, 300, 600, 1000, 1500, 2100, 2800,
	3600, 4500, 5500, 6600, 7800, 9100, 10500,
}

// MaxLevel is the highest reachable level.
const MaxLevel = 15

// LevelForXP returns the level for an XP total. Levels start at 1.
func LevelForXP(xp int) int {
	level := 1
	for i, threshold := range levelThresholds {
		if xp >= threshold {
			level = i + 1
		} else {
			break
		}
	}
	return level
}

// LevelProgress describes where an XP total sits inside its level.
type LevelProgress struct {
	CurrentInLevel int `json:"current_in_level"`
	NeededForLevel int `json:"needed_for_level"`
	Percent        int `json:"percent"`
}

// ProgressToNextLevel returns progress within the current level.
// At MaxLevel the gap of the final level is reused, with percent capped
// at 100.
func ProgressToNextLevel(xp int) LevelProgress {
	level := LevelForXP(xp)

	floor := levelThresholds[level-1]
	var needed int
	if level >= MaxLevel {
		// No next level: reuse the final gap so the bar stays full.
		needed = levelThresholds[MaxLevel-1] - levelThresholds[MaxLevel-2]
	} else {
		needed = levelThresholds[level] - floor
	}

	current := xp - floor
	percent := int(math.Round(100 * float64(current) / float64(needed)))
	if percent > 100 {
		percent = 100
	}

	return LevelProgress{
		CurrentInLevel: current,
		NeededForLevel: needed,
		Percent:        percent,
	}
}
