package app_test

import (
	"context"
	"testing"
	"time"

	"bankprep-service/internal/app"
	"bankprep-service/internal/domain"
	"bankprep-service/internal/infra/memory"
)

func TestAnalyticsOverview(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	seed := []domain.QuizResult{
		{ID: "r1", UserID: "u1", QuizID: "quiz-a", CompletedAt: base, TotalScore: 40, TimeSpentSec: 100, NegativeMarks: 0.5},
		{ID: "r2", UserID: "u2", QuizID: "quiz-a", CompletedAt: base.Add(time.Minute), TotalScore: 80, TimeSpentSec: 300},
		{ID: "r3", UserID: "u1", QuizID: "quiz-b", CompletedAt: base.Add(2 * time.Minute), TotalScore: 90, TimeSpentSec: 200},
	}
	for _, r := range seed {
		if err := store.CreateResult(ctx, r); err != nil {
			t.Fatalf("seed result: %v", err)
		}
	}

	overview, err := app.NewAnalyticsService(store).Overview(ctx)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if overview.TotalAttempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", overview.TotalAttempts)
	}
	if overview.AverageScore != 70 {
		t.Fatalf("expected overall average 70, got %d", overview.AverageScore)
	}
	if len(overview.Quizzes) != 2 {
		t.Fatalf("expected 2 quizzes, got %d", len(overview.Quizzes))
	}

	// quiz-a has more attempts, so it sorts first.
	a := overview.Quizzes[0]
	if a.QuizID != "quiz-a" || a.Attempts != 2 {
		t.Fatalf("unexpected first quiz: %+v", a)
	}
	if a.AverageScore != 60 || a.HighestScore != 80 || a.LowestScore != 40 {
		t.Fatalf("unexpected quiz-a stats: %+v", a)
	}
	if a.AverageTimeSec != 200 {
		t.Fatalf("expected average time 200, got %d", a.AverageTimeSec)
	}
	if a.NegativeMarkHit != 0.5 {
		t.Fatalf("expected penalty sum 0.5, got %v", a.NegativeMarkHit)
	}

	if len(overview.Users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(overview.Users))
	}
	u1 := overview.Users[0]
	if u1.UserID != "u1" || u1.Attempts != 2 || u1.AverageScore != 65 || u1.BestScore != 90 {
		t.Fatalf("unexpected u1 rollup: %+v", u1)
	}
}

func TestAnalyticsOverviewEmpty(t *testing.T) {
	overview, err := app.NewAnalyticsService(memory.NewStore()).Overview(context.Background())
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if overview.TotalAttempts != 0 || overview.AverageScore != 0 || len(overview.Quizzes) != 0 {
		t.Fatalf("expected empty overview, got %+v", overview)
	}
}
