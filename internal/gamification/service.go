package gamification

import (
	"fmt"
	"log"
	"time"

	"github.com/moussahe/schoolaris-backend/internal/models"
)

// LearnerState is the ledger slice of a learner row.
type LearnerState struct {
	XP             int
	Level          int
	CurrentStreak  int
	LongestStreak  int
	LastActivityAt *time.Time
}

// Award is one earned badge row.
type Award struct {
	Code     string
	EarnedAt time.Time
}

// Store is the persistence surface the service needs. Implemented by
// SQLStore; tests substitute an in-memory fake.
type Store interface {
	GetLearnerState(learnerID int64) (*LearnerState, error)
	GetLearnerParent(learnerID int64) (int64, error)
	IncrementXP(learnerID int64, amount int) (int, error)
	SetLevel(learnerID int64, level int) error
	UpdateStreak(learnerID int64, currentStreak, longestStreak int, lastActivityAt time.Time) error
	GetLearnerStats(learnerID int64) (*LearnerStats, error)
	GetAwardedCodes(learnerID int64) (map[string]bool, error)
	AwardBadge(learnerID int64, code string) (bool, error)
	ListAwards(learnerID int64) ([]Award, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// ── XP Ledger ───────────────────────────────────────────

// XPResult reports the outcome of one ledger operation.
type XPResult struct {
	NewXP     int  `json:"new_xp"`
	NewLevel  int  `json:"new_level"`
	LeveledUp bool `json:"leveled_up"`
}

// AddXP applies an XP delta and recomputes the level. The increment is a
// single UPDATE so concurrent submissions cannot lose XP; the derived
// level column is written from the post-increment total.
func (s *Service) AddXP(learnerID int64, amount int) (*XPResult, error) {
	state, err := s.store.GetLearnerState(learnerID)
	if err != nil {
		return nil, err
	}

	newXP, err := s.store.IncrementXP(learnerID, amount)
	if err != nil {
		return nil, fmt.Errorf("increment xp: %w", err)
	}

	newLevel := LevelForXP(newXP)
	if newLevel != state.Level {
		if err := s.store.SetLevel(learnerID, newLevel); err != nil {
			return nil, fmt.Errorf("set level: %w", err)
		}
	}

	return &XPResult{
		NewXP:     newXP,
		NewLevel:  newLevel,
		LeveledUp: newLevel > state.Level,
	}, nil
}

// ── Streak Tracker ──────────────────────────────────────

// StreakResult reports the streak after one activity touch.
type StreakResult struct {
	CurrentStreak int  `json:"current_streak"`
	LongestStreak int  `json:"longest_streak"`
	StreakUpdated bool `json:"streak_updated"`
}

// TouchStreak records one unit of daily activity. Multiple touches on
// the same calendar day leave the counters unchanged; the last-activity
// timestamp is refreshed on every call.
func (s *Service) TouchStreak(learnerID int64) (*StreakResult, error) {
	state, err := s.store.GetLearnerState(learnerID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	current, longest, updated := advanceStreak(state.LastActivityAt, state.CurrentStreak, state.LongestStreak, now)

	if err := s.store.UpdateStreak(learnerID, current, longest, now); err != nil {
		return nil, fmt.Errorf("update streak: %w", err)
	}

	return &StreakResult{
		CurrentStreak: current,
		LongestStreak: longest,
		StreakUpdated: updated,
	}, nil
}

// advanceStreak is the streak state machine. A last-activity date in the
// future (clock skew, bad import) is treated like a same-day touch rather
// than resetting the learner's streak.
func advanceStreak(last *time.Time, current, longest int, now time.Time) (int, int, bool) {
	updated := false

	if last == nil {
		current = 1
		updated = true
	} else {
		switch diff := calendarDaysBetween(*last, now); {
		case diff <= 0:
			// Same day (or skew): counters stay put.
		case diff == 1:
			current++
			updated = true
		default:
			current = 1
			updated = true
		}
	}

	if current > longest {
		longest = current
	}
	return current, longest, updated
}

// calendarDaysBetween counts whole UTC calendar days from a to b.
func calendarDaysBetween(a, b time.Time) int {
	au, bu := a.UTC(), b.UTC()
	ad := time.Date(au.Year(), au.Month(), au.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(bu.Year(), bu.Month(), bu.Day(), 0, 0, 0, 0, time.UTC)
	return int(bd.Sub(ad).Hours() / 24)
}

// ── Badge Evaluator ─────────────────────────────────────

// EvaluateAndAwardBadges awards every catalog badge the learner now
// qualifies for and has not yet earned, granting XP rewards through the
// ledger. The stats snapshot is taken once at the start of the call, so
// XP granted by one badge does not qualify a later xp/level badge within
// the same pass.
func (s *Service) EvaluateAndAwardBadges(learnerID int64) ([]models.EarnedBadge, error) {
	stats, err := s.store.GetLearnerStats(learnerID)
	if err != nil {
		return nil, err
	}

	earned, err := s.store.GetAwardedCodes(learnerID)
	if err != nil {
		return nil, fmt.Errorf("get awarded codes: %w", err)
	}

	newBadges := []models.EarnedBadge{}
	for _, def := range Catalog {
		if earned[def.Code] || !MeetsRequirement(def, stats) {
			continue
		}

		// The unique (learner, badge) row is the idempotency gate: the
		// XP reward is only granted when this call actually inserted it.
		inserted, err := s.store.AwardBadge(learnerID, def.Code)
		if err != nil {
			log.Printf("[gamification] WARN: award badge %s for learner %d: %v", def.Code, learnerID, err)
			continue
		}
		if !inserted {
			continue
		}

		if def.XPReward > 0 {
			if _, err := s.AddXP(learnerID, def.XPReward); err != nil {
				log.Printf("[gamification] WARN: grant badge XP %s for learner %d: %v", def.Code, learnerID, err)
			}
		}

		newBadges = append(newBadges, models.EarnedBadge{Code: def.Code, Name: def.Name})
	}

	return newBadges, nil
}

// ── Read Surface ────────────────────────────────────────

type BadgeDetail struct {
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	XPReward    int       `json:"xp_reward"`
	EarnedAt    time.Time `json:"earned_at"`
}

type StateResponse struct {
	XP            int           `json:"xp"`
	Level         int           `json:"level"`
	LevelProgress LevelProgress `json:"level_progress"`
	CurrentStreak int           `json:"current_streak"`
	LongestStreak int           `json:"longest_streak"`
	Badges        []BadgeDetail `json:"badges"`
}

// GetState assembles the gamification view for one learner.
func (s *Service) GetState(learnerID int64) (*StateResponse, error) {
	state, err := s.store.GetLearnerState(learnerID)
	if err != nil {
		return nil, err
	}

	awards, err := s.store.ListAwards(learnerID)
	if err != nil {
		return nil, fmt.Errorf("list awards: %w", err)
	}

	badges := []BadgeDetail{}
	for _, a := range awards {
		if def, ok := BadgeByCode(a.Code); ok {
			badges = append(badges, BadgeDetail{
				Code:        def.Code,
				Name:        def.Name,
				Description: def.Description,
				Category:    def.Category,
				XPReward:    def.XPReward,
				EarnedAt:    a.EarnedAt,
			})
		}
	}

	return &StateResponse{
		XP:            state.XP,
		Level:         state.Level,
		LevelProgress: ProgressToNextLevel(state.XP),
		CurrentStreak: state.CurrentStreak,
		LongestStreak: state.LongestStreak,
		Badges:        badges,
	}, nil
}

// VerifyOwnership returns models.ErrNotFound unless the learner exists
// and belongs to the given parent.
func (s *Service) VerifyOwnership(learnerID, parentID int64) error {
	owner, err := s.store.GetLearnerParent(learnerID)
	if err != nil {
		return err
	}
	if owner != parentID {
		return models.ErrNotFound
	}
	return nil
}
