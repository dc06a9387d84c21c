package gamification

import "testing"

func TestCatalogCodesUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, def := range Catalog {
		if seen[def.Code] {
			t.Errorf("duplicate badge code %q", def.Code)
		}
		seen[def.Code] = true
		if len(def.Requirement) == 0 {
			t.Errorf("badge %q has an empty requirement", def.Code)
		}
	}
}

func TestMeetsRequirement_SingleKey(t *testing.T) {
	def := BadgeDef{Code: "lessons_10", Requirement: map[string]int{ReqLessonsCompleted: 10}}

	if MeetsRequirement(def, &LearnerStats{LessonsCompleted: 9}) {
		t.Error("9 lessons should not satisfy a threshold of 10")
	}
	if !MeetsRequirement(def, &LearnerStats{LessonsCompleted: 10}) {
		t.Error("10 lessons should satisfy a threshold of 10")
	}
}

func TestMeetsRequirement_ORAcrossKeys(t *testing.T) {
	// Multi-key requirements are satisfied by ANY one key.
	def := BadgeDef{Code: "hypothetical", Requirement: map[string]int{
		ReqLessonsCompleted: 100,
		ReqQuizzesPassed:    5,
	}}

	stats := &LearnerStats{LessonsCompleted: 3, QuizzesPassed: 5}
	if !MeetsRequirement(def, stats) {
		t.Error("meeting one of two keys should earn the badge")
	}

	stats = &LearnerStats{LessonsCompleted: 3, QuizzesPassed: 4}
	if MeetsRequirement(def, stats) {
		t.Error("meeting neither key should not earn the badge")
	}
}

func TestMeetsRequirement_StreakUsesLongest(t *testing.T) {
	def := BadgeDef{Code: "streak_7", Requirement: map[string]int{ReqStreak: 7}}

	// A broken streak keeps the badge reachable via longest_streak.
	stats := &LearnerStats{CurrentStreak: 1, LongestStreak: 8}
	if !MeetsRequirement(def, stats) {
		t.Error("longest streak of 8 should satisfy a streak threshold of 7")
	}

	stats = &LearnerStats{CurrentStreak: 1, LongestStreak: 6}
	if MeetsRequirement(def, stats) {
		t.Error("longest streak of 6 should not satisfy a streak threshold of 7")
	}
}

func TestMeetsRequirement_UnknownKeyIgnored(t *testing.T) {
	def := BadgeDef{Code: "odd", Requirement: map[string]int{"somethingElse": 1}}
	if MeetsRequirement(def, &LearnerStats{XP: 99999, Level: 15}) {
		t.Error("unknown requirement keys must not match anything")
	}
}

func TestBadgeByCode(t *testing.T) {
	def, ok := BadgeByCode("first_lesson")
	if !ok || def.Name != "First Steps" {
		t.Errorf("BadgeByCode(first_lesson) = %+v, %v", def, ok)
	}
	if _, ok := BadgeByCode("no_such_badge"); ok {
		t.Error("unknown code should not resolve")
	}
}
