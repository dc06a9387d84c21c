package gamification

// Badge categories.
const (
	CategoryProgress    = "progress"
	CategoryStreak      = "streak"
	CategoryQuiz        = "quiz"
	CategoryAchievement = "achievement"
)

// Requirement keys recognized by the evaluator. Unknown keys in a
// requirement map are ignored.
const (
	ReqLessonsCompleted = "lessonsCompleted"
	ReqCoursesCompleted = "coursesCompleted"
	ReqStreak           = "streak"
	ReqQuizzesPassed    = "quizzesPassed"
	ReqPerfectQuizzes   = "perfectQuizzes"
	ReqLevel            = "level"
	ReqXP               = "xp"
)

// BadgeDef is a static catalog entry. Requirement maps metric names to
// thresholds; a learner earns the badge when ANY one listed metric meets
// its threshold. The shipped catalog uses single-key requirements, but
// the OR semantics is load-bearing for multi-key definitions.
type BadgeDef struct {
	Code        string
	Name        string
	Description string
	Category    string
	XPReward    int
	Requirement map[string]int
}

// Catalog is the shipped badge set, in award-priority order.
var Catalog = []BadgeDef{
	{Code: "first_lesson", Name: "First Steps", Description: "Complete your first lesson", Category: CategoryProgress, XPReward: 25, Requirement: map[string]int{ReqLessonsCompleted: 1}},
	{Code: "lessons_10", Name: "Getting Going", Description: "Complete 10 lessons", Category: CategoryProgress, XPReward: 50, Requirement: map[string]int{ReqLessonsCompleted: 10}},
	{Code: "lessons_50", Name: "Bookworm", Description: "Complete 50 lessons", Category: CategoryProgress, XPReward: 150, Requirement: map[string]int{ReqLessonsCompleted: 50}},
	{Code: "lessons_100", Name: "Scholar", Description: "Complete 100 lessons", Category: CategoryProgress, XPReward: 300, Requirement: map[string]int{ReqLessonsCompleted: 100}},
	{Code: "first_course", Name: "Course Conqueror", Description: "Finish every lesson in a course", Category: CategoryProgress, XPReward: 100, Requirement: map[string]int{ReqCoursesCompleted: 1}},
	{Code: "streak_3", Name: "Warming Up", Description: "Learn 3 days in a row", Category: CategoryStreak, XPReward: 30, Requirement: map[string]int{ReqStreak: 3}},
	{Code: "streak_7", Name: "Week Warrior", Description: "Learn 7 days in a row", Category: CategoryStreak, XPReward: 75, Requirement: map[string]int{ReqStreak: 7}},
	{Code: "streak_30", Name: "Monthly Master", Description: "Learn 30 days in a row", Category: CategoryStreak, XPReward: 250, Requirement: map[string]int{ReqStreak: 30}},
	{Code: "first_quiz_pass", Name: "Quiz Rookie", Description: "Pass your first quiz", Category: CategoryQuiz, XPReward: 25, Requirement: map[string]int{ReqQuizzesPassed: 1}},
	{Code: "first_perfect", Name: "Flawless", Description: "Score 100% on a quiz", Category: CategoryQuiz, XPReward: 50, Requirement: map[string]int{ReqPerfectQuizzes: 1}},
	{Code: "perfect_10", Name: "Perfectionist", Description: "Score 100% on 10 quizzes", Category: CategoryQuiz, XPReward: 200, Requirement: map[string]int{ReqPerfectQuizzes: 10}},
	{Code: "level_5", Name: "Rising Star", Description: "Reach level 5", Category: CategoryAchievement, XPReward: 100, Requirement: map[string]int{ReqLevel: 5}},
	{Code: "level_10", Name: "Powerhouse", Description: "Reach level 10", Category: CategoryAchievement, XPReward: 250, Requirement: map[string]int{ReqLevel: 10}},
	{Code: "xp_1000", Name: "XP Collector", Description: "Earn 1,000 total XP", Category: CategoryAchievement, XPReward: 100, Requirement: map[string]int{ReqXP: 1000}},
	{Code: "xp_10000", Name: "Legend", Description: "Earn 10,000 total XP", Category: CategoryAchievement, XPReward: 500, Requirement: map[string]int{ReqXP: 10000}},
}

var catalogByCode = map[string]BadgeDef{}

func init() {
	for _, def := range Catalog {
		catalogByCode[def.Code] = def
	}
}

// BadgeByCode looks up a catalog entry.
func BadgeByCode(code string) (BadgeDef, bool) {
	def, ok := catalogByCode[code]
	return def, ok
}

// LearnerStats is the metrics snapshot a badge requirement is evaluated
// against. Taken once per evaluator call.
type LearnerStats struct {
	XP               int
	Level            int
	CurrentStreak    int
	LongestStreak    int
	LessonsCompleted int
	CoursesCompleted int
	QuizzesPassed    int
	PerfectQuizzes   int
}

// MeetsRequirement reports whether the stats satisfy at least one of the
// thresholds named in the badge's requirement map.
func MeetsRequirement(def BadgeDef, stats *LearnerStats) bool {
	for key, threshold := range def.Requirement {
		value, known := metricValue(stats, key)
		if known && value >= threshold {
			return true
		}
	}
	return false
}

func metricValue(stats *LearnerStats, key string) (int, bool) {
	switch key {
	case ReqLessonsCompleted:
		return stats.LessonsCompleted, true
	case ReqCoursesCompleted:
		return stats.CoursesCompleted, true
	case ReqStreak:
		// Streak badges survive a broken streak: the longest streak counts.
		return stats.LongestStreak, true
	case ReqQuizzesPassed:
		return stats.QuizzesPassed, true
	case ReqPerfectQuizzes:
		return stats.PerfectQuizzes, true
	case ReqLevel:
		return stats.Level, true
	case ReqXP:
		return stats.XP, true
	}
	return 0, false
}
