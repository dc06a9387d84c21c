package gamification

import "testing"

func TestLevelForXP_TableExactness(t *testing.T) {
	tests := []struct {
		xp   int
		want int
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{299, 2},
		{300, 3},
		{1000, 5},
		{10499, 14},
		{10500, 15},
		{999999, 15},
	}

	for _, tt := range tests {
		if got := LevelForXP(tt.xp); got != tt.want {
			t.Errorf("LevelForXP(%d) = %d, want %d", tt.xp, got, tt.want)
		}
	}
}

func TestLevelForXP_Monotonic(t *testing.T) {
	prev := LevelForXP(0)
	for xp := 1; xp <= 12000; xp += 7 {
		got := LevelForXP(xp)
		if got < prev {
			t.Fatalf("LevelForXP(%d) = %d dropped below previous level %d", xp, got, prev)
		}
		prev = got
	}
}

func TestProgressToNextLevel(t *testing.T) {
	// Level 2 spans [100, 300): at 150 the learner is a quarter through.
	p := ProgressToNextLevel(150)
	if p.CurrentInLevel != 50 {
		t.Errorf("CurrentInLevel = %d, want 50", p.CurrentInLevel)
	}
	if p.NeededForLevel != 200 {
		t.Errorf("NeededForLevel = %d, want 200", p.NeededForLevel)
	}
	if p.Percent != 25 {
		t.Errorf("Percent = %d, want 25", p.Percent)
	}
}

func TestProgressToNextLevel_Fresh(t *testing.T) {
	p := ProgressToNextLevel(0)
	if p.CurrentInLevel != 0 || p.NeededForLevel != 100 || p.Percent != 0 {
		t.Errorf("ProgressToNextLevel(0) = %+v, want {0 100 0}", p)
	}
}

func TestProgressToNextLevel_MaxLevelCapped(t *testing.T) {
	p := ProgressToNextLevel(999999)
	if p.Percent != 100 {
		t.Errorf("Percent at max level = %d, want capped 100", p.Percent)
	}
}

func TestProgressToNextLevel_PercentBounds(t *testing.T) {
	for xp := 0; xp <= 12000; xp += 13 {
		p := ProgressToNextLevel(xp)
		if p.Percent < 0 || p.Percent > 100 {
			t.Fatalf("ProgressToNextLevel(%d).Percent = %d, out of [0, 100]", xp, p.Percent)
		}
	}
}
