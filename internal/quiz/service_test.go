package quiz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/moussahe/schoolaris-backend/internal/gamification"
	"github.com/moussahe/schoolaris-backend/internal/insights"
	"github.com/moussahe/schoolaris-backend/internal/models"
)

// ── Fakes ───────────────────────────────────────────────

type progressKey struct {
	learnerID int64
	lessonID  int64
}

type progressEntry struct {
	score     int
	completed bool
	timeSpent int
}

type weakAreaEntry struct {
	category     string
	errorCount   int
	attemptCount int
	resolved     bool
}

type fakeQuizStore struct {
	lessons      map[int64]*LessonContext
	progress     map[progressKey]*progressEntry
	weakAreas    map[string]*weakAreaEntry // key: subject|topic
	resolveCalls []string                  // subjects passed to ResolveMasteredWeakAreas
}

func newFakeQuizStore() *fakeQuizStore {
	return &fakeQuizStore{
		lessons:   make(map[int64]*LessonContext),
		progress:  make(map[progressKey]*progressEntry),
		weakAreas: make(map[string]*weakAreaEntry),
	}
}

func (f *fakeQuizStore) GetLessonContext(lessonID int64) (*LessonContext, error) {
	lesson, ok := f.lessons[lessonID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return lesson, nil
}

func (f *fakeQuizStore) UpsertProgress(learnerID, lessonID int64, score int, completed bool, timeSpent int) error {
	key := progressKey{learnerID, lessonID}
	if p, ok := f.progress[key]; ok {
		p.score = score
		p.completed = completed
		p.timeSpent += timeSpent
		return nil
	}
	f.progress[key] = &progressEntry{score: score, completed: completed, timeSpent: timeSpent}
	return nil
}

func (f *fakeQuizStore) UpsertWeakArea(learnerID int64, subject, topic, category string, gradeLevel int) error {
	key := subject + "|" + topic
	if wa, ok := f.weakAreas[key]; ok {
		wa.errorCount++
		wa.attemptCount++
		wa.category = category
		return nil
	}
	f.weakAreas[key] = &weakAreaEntry{category: category, errorCount: 1, attemptCount: 1}
	return nil
}

func (f *fakeQuizStore) ResolveMasteredWeakAreas(learnerID int64, subject string) (int64, error) {
	f.resolveCalls = append(f.resolveCalls, subject)
	var n int64
	for key, wa := range f.weakAreas {
		if strings.HasPrefix(key, subject+"|") && !wa.resolved &&
			wa.attemptCount >= masteryMinAttempts && wa.errorCount <= masteryMaxErrors {
			wa.resolved = true
			n++
		}
	}
	return n, nil
}

func (f *fakeQuizStore) ListRecentProgress(learnerID int64, limit int) ([]models.Progress, error) {
	return nil, nil
}

func (f *fakeQuizStore) ListWeakAreas(learnerID int64, openOnly bool) ([]models.WeakArea, error) {
	return nil, nil
}

type fakeGamification struct {
	ownerByLearner map[int64]int64
	xpGranted      []int
	streakTouches  int
	badgePasses    int
	leveledUp      bool
	addXPErr       error
}

func (f *fakeGamification) VerifyOwnership(learnerID, parentID int64) error {
	if f.ownerByLearner[learnerID] != parentID {
		return models.ErrNotFound
	}
	return nil
}

func (f *fakeGamification) TouchStreak(learnerID int64) (*gamification.StreakResult, error) {
	f.streakTouches++
	return &gamification.StreakResult{CurrentStreak: 1, LongestStreak: 1, StreakUpdated: true}, nil
}

func (f *fakeGamification) AddXP(learnerID int64, amount int) (*gamification.XPResult, error) {
	if f.addXPErr != nil {
		return nil, f.addXPErr
	}
	f.xpGranted = append(f.xpGranted, amount)
	return &gamification.XPResult{NewXP: amount, NewLevel: 1, LeveledUp: f.leveledUp}, nil
}

func (f *fakeGamification) EvaluateAndAwardBadges(learnerID int64) ([]models.EarnedBadge, error) {
	f.badgePasses++
	return []models.EarnedBadge{}, nil
}

type fakeInsights struct {
	tags     []insights.WeakAreaTag
	feedback string
	fail     bool
}

func (f *fakeInsights) ExtractWeakAreas(ctx context.Context, subject, lessonTitle string, gradeLevel int, wrong []insights.WrongAnswer) ([]insights.WeakAreaTag, error) {
	if f.fail {
		return nil, fmt.Errorf("api unavailable")
	}
	return f.tags, nil
}

func (f *fakeInsights) GenerateFeedback(ctx context.Context, subject, lessonTitle string, score int, wrong []insights.WrongAnswer) (string, error) {
	if f.fail {
		return "", fmt.Errorf("api unavailable")
	}
	return f.feedback, nil
}

type fakeAlertSink struct {
	alerts []*models.Alert
}

func (f *fakeAlertSink) Create(alert *models.Alert) error {
	f.alerts = append(f.alerts, alert)
	return nil
}

// ── Helpers ─────────────────────────────────────────────

func newTestService() (*Service, *fakeQuizStore, *fakeGamification, *fakeInsights, *fakeAlertSink) {
	store := newFakeQuizStore()
	store.lessons[100] = &LessonContext{ID: 100, Title: "Fractions", Subject: "math", GradeLevel: 4}
	gam := &fakeGamification{ownerByLearner: map[int64]int64{1: 10}}
	llm := &fakeInsights{feedback: "Good effort."}
	alerts := &fakeAlertSink{}
	return NewService(store, gam, llm, alerts), store, gam, llm, alerts
}

func validRequest(score int) *models.SubmitQuizRequest {
	return &models.SubmitQuizRequest{
		LearnerID:      1,
		LessonID:       100,
		Score:          score,
		CorrectCount:   score / 25,
		TotalQuestions: 4,
		TimeSpent:      300,
		Questions: []models.AnsweredQuestion{
			{Prompt: "1/2 + 1/4 = ?", LearnerAnswer: "3/4", CorrectAnswer: "3/4", IsCorrect: true},
			{Prompt: "2/3 of 9 = ?", LearnerAnswer: "5", CorrectAnswer: "6", IsCorrect: false},
		},
	}
}

// ── Tests ───────────────────────────────────────────────

func TestSubmit_ValidationAbortsBeforeWrites(t *testing.T) {
	svc, store, gam, _, _ := newTestService()

	cases := []struct {
		name   string
		mutate func(*models.SubmitQuizRequest)
		field  string
	}{
		{"score too high", func(r *models.SubmitQuizRequest) { r.Score = 120 }, "score"},
		{"score negative", func(r *models.SubmitQuizRequest) { r.Score = -1 }, "score"},
		{"no questions", func(r *models.SubmitQuizRequest) { r.Questions = nil }, "questions"},
		{"zero total", func(r *models.SubmitQuizRequest) { r.TotalQuestions = 0 }, "total_questions"},
		{"correct exceeds total", func(r *models.SubmitQuizRequest) { r.CorrectCount = 5 }, "correct_count"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest(80)
			tc.mutate(req)

			_, err := svc.SubmitQuizAttempt(context.Background(), 10, req)
			var vErr *models.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("err = %v, want *ValidationError", err)
			}
			if vErr.Field != tc.field {
				t.Errorf("Field = %q, want %q", vErr.Field, tc.field)
			}
		})
	}

	if len(store.progress) != 0 || gam.streakTouches != 0 {
		t.Error("rejected submissions must not write anything")
	}
}

func TestSubmit_OwnershipFailureIsNotFound(t *testing.T) {
	svc, store, _, _, _ := newTestService()

	// Parent 99 does not own learner 1.
	_, err := svc.SubmitQuizAttempt(context.Background(), 99, validRequest(80))
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if len(store.progress) != 0 {
		t.Error("ownership failure must abort before the progress write")
	}
}

func TestSubmit_UnknownLesson(t *testing.T) {
	svc, _, _, _, _ := newTestService()

	req := validRequest(80)
	req.LessonID = 404
	if _, err := svc.SubmitQuizAttempt(context.Background(), 10, req); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSubmit_XPTiers(t *testing.T) {
	cases := []struct {
		score     int
		xp        int
		passed    bool
		isPerfect bool
	}{
		{100, XPRewardPerfect, true, true},
		{85, XPRewardPass, true, false},
		{70, XPRewardPass, true, false},
		{69, XPRewardCompletion, false, false},
		{0, XPRewardCompletion, false, false},
	}

	for _, tc := range cases {
		svc, _, gam, _, _ := newTestService()

		resp, err := svc.SubmitQuizAttempt(context.Background(), 10, validRequest(tc.score))
		if err != nil {
			t.Fatalf("score %d: %v", tc.score, err)
		}
		if resp.XPEarned != tc.xp {
			t.Errorf("score %d: XPEarned = %d, want %d", tc.score, resp.XPEarned, tc.xp)
		}
		if resp.Passed != tc.passed || resp.IsPerfect != tc.isPerfect {
			t.Errorf("score %d: (passed, perfect) = (%v, %v), want (%v, %v)",
				tc.score, resp.Passed, resp.IsPerfect, tc.passed, tc.isPerfect)
		}
		if len(gam.xpGranted) != 1 || gam.xpGranted[0] != tc.xp {
			t.Errorf("score %d: ledger grants = %v, want [%d]", tc.score, gam.xpGranted, tc.xp)
		}
	}
}

func TestSubmit_ProgressOverwriteNotMonotonic(t *testing.T) {
	svc, store, _, _, _ := newTestService()

	if _, err := svc.SubmitQuizAttempt(context.Background(), 10, validRequest(90)); err != nil {
		t.Fatalf("first attempt: %v", err)
	}
	if _, err := svc.SubmitQuizAttempt(context.Background(), 10, validRequest(60)); err != nil {
		t.Fatalf("second attempt: %v", err)
	}

	p := store.progress[progressKey{1, 100}]
	if p == nil {
		t.Fatal("no progress row written")
	}
	if p.score != 60 {
		t.Errorf("score = %d, want 60 (latest attempt wins)", p.score)
	}
	if p.completed {
		t.Error("completed = true, want false: a failing retake flips completion back")
	}
	if p.timeSpent != 600 {
		t.Errorf("timeSpent = %d, want 600 (accumulated)", p.timeSpent)
	}
}

func TestSubmit_StreakAndBadgesInvoked(t *testing.T) {
	svc, _, gam, _, _ := newTestService()

	if _, err := svc.SubmitQuizAttempt(context.Background(), 10, validRequest(80)); err != nil {
		t.Fatalf("SubmitQuizAttempt: %v", err)
	}
	if gam.streakTouches != 1 {
		t.Errorf("streak touches = %d, want 1", gam.streakTouches)
	}
	if gam.badgePasses != 1 {
		t.Errorf("badge passes = %d, want 1", gam.badgePasses)
	}
}

func TestSubmit_WeakAreasUpserted(t *testing.T) {
	svc, store, _, llm, _ := newTestService()
	llm.tags = []insights.WeakAreaTag{{Topic: "fractions of a quantity", Category: "procedure"}}

	if _, err := svc.SubmitQuizAttempt(context.Background(), 10, validRequest(75)); err != nil {
		t.Fatalf("SubmitQuizAttempt: %v", err)
	}

	wa := store.weakAreas["math|fractions of a quantity"]
	if wa == nil {
		t.Fatal("weak area not recorded")
	}
	if wa.errorCount != 1 || wa.attemptCount != 1 || wa.category != "procedure" {
		t.Errorf("weak area = %+v, want counts 1/1 category procedure", wa)
	}
}

func TestSubmit_MasteryResolution(t *testing.T) {
	svc, store, _, _, _ := newTestService()
	store.weakAreas["math|long division"] = &weakAreaEntry{category: "procedure", errorCount: 2, attemptCount: 4}
	store.weakAreas["math|decimals"] = &weakAreaEntry{category: "concept", errorCount: 5, attemptCount: 6}
	store.weakAreas["reading|main idea"] = &weakAreaEntry{category: "concept", errorCount: 1, attemptCount: 3}

	// 85 is below the mastery threshold: nothing resolves.
	if _, err := svc.SubmitQuizAttempt(context.Background(), 10, validRequest(85)); err != nil {
		t.Fatalf("SubmitQuizAttempt: %v", err)
	}
	if len(store.resolveCalls) != 0 {
		t.Fatal("mastery resolution ran for a sub-threshold score")
	}

	req := validRequest(95)
	if _, err := svc.SubmitQuizAttempt(context.Background(), 10, req); err != nil {
		t.Fatalf("SubmitQuizAttempt: %v", err)
	}
	if len(store.resolveCalls) != 1 || store.resolveCalls[0] != "math" {
		t.Fatalf("resolve calls = %v, want [math]", store.resolveCalls)
	}
	if !store.weakAreas["math|long division"].resolved {
		t.Error("long division met the mastery criteria and should be resolved")
	}
	if store.weakAreas["math|decimals"].resolved {
		t.Error("decimals has too many errors and must stay open")
	}
	if store.weakAreas["reading|main idea"].resolved {
		t.Error("mastery resolution must not cross subjects")
	}
}

func TestSubmit_LowScoreAlert(t *testing.T) {
	svc, _, _, _, alerts := newTestService()

	if _, err := svc.SubmitQuizAttempt(context.Background(), 10, validRequest(55)); err != nil {
		t.Fatalf("SubmitQuizAttempt: %v", err)
	}
	if len(alerts.alerts) != 0 {
		t.Fatalf("score 55 raised %d alerts, want 0", len(alerts.alerts))
	}

	if _, err := svc.SubmitQuizAttempt(context.Background(), 10, validRequest(40)); err != nil {
		t.Fatalf("SubmitQuizAttempt: %v", err)
	}
	if len(alerts.alerts) != 1 {
		t.Fatalf("score 40 raised %d alerts, want exactly 1", len(alerts.alerts))
	}

	a := alerts.alerts[0]
	if a.AlertType != models.AlertTypeLowQuizScore {
		t.Errorf("AlertType = %q, want %q", a.AlertType, models.AlertTypeLowQuizScore)
	}
	if a.Priority != models.AlertPriorityMedium {
		t.Errorf("Priority = %q, want %q", a.Priority, models.AlertPriorityMedium)
	}
	if !strings.Contains(a.Metadata, `"score":40`) {
		t.Errorf("Metadata = %s, want the submitted score embedded", a.Metadata)
	}
	if !strings.Contains(a.Metadata, `"lesson_id":100`) {
		t.Errorf("Metadata = %s, want the lesson reference embedded", a.Metadata)
	}
}

func TestSubmit_DegradedInsights(t *testing.T) {
	svc, store, _, llm, _ := newTestService()
	llm.fail = true

	resp, err := svc.SubmitQuizAttempt(context.Background(), 10, validRequest(75))
	if err != nil {
		t.Fatalf("an insights outage must not fail the submission: %v", err)
	}
	if !resp.Success {
		t.Error("Success = false, want true")
	}
	if resp.Feedback != "" {
		t.Errorf("Feedback = %q, want omitted", resp.Feedback)
	}
	if len(store.weakAreas) != 0 {
		t.Error("weak areas written despite the extraction failing")
	}
	if store.progress[progressKey{1, 100}] == nil {
		t.Error("progress row missing: the commit point must still be written")
	}
}

func TestSubmit_LedgerFailureStillSucceeds(t *testing.T) {
	svc, _, gam, _, _ := newTestService()
	gam.addXPErr = fmt.Errorf("db connection reset")

	resp, err := svc.SubmitQuizAttempt(context.Background(), 10, validRequest(80))
	if err != nil {
		t.Fatalf("a ledger failure after the progress write must not fail the submission: %v", err)
	}
	if resp.XPEarned != 0 {
		t.Errorf("XPEarned = %d, want 0 when the grant did not land", resp.XPEarned)
	}
}
