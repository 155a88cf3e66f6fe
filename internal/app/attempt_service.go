package app

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"

	"bankprep-service/internal/domain"
	"bankprep-service/internal/scoring"
)

// Submission is the payload of one quiz attempt.
type Submission struct {
	Answers        map[string]int `json:"answers"` // question id -> selected option index
	TimeSpentSec   int            `json:"timeSpentSec"`
	IdempotencyKey string         `json:"idempotencyKey,omitempty"`
}

// AttemptService runs the submit pipeline: score each question, aggregate,
// record one immutable result, and refresh the owner's derived stats.
type AttemptService struct {
	quizzes QuizRepository
	results ResultRepository
	users   UserRepository
	boards  BoardStore
	now     func() time.Time
}

func NewAttemptService(quizzes QuizRepository, results ResultRepository, users UserRepository, boards BoardStore) *AttemptService {
	return &AttemptService{quizzes: quizzes, results: results, users: users, boards: boards, now: time.Now}
}

// NewAttemptServiceWithClock is test-only for deterministic timestamps.
func NewAttemptServiceWithClock(quizzes QuizRepository, results ResultRepository, users UserRepository, boards BoardStore, now func() time.Time) *AttemptService {
	s := NewAttemptService(quizzes, results, users, boards)
	s.now = now
	return s
}

// Submit scores a submission and records exactly one result. When the
// submission carries an idempotency key and a result with that key already
// exists for the same user and quiz, the recorded result is returned instead
// of creating a duplicate.
func (s *AttemptService) Submit(ctx context.Context, userID, quizID string, sub Submission) (domain.QuizResult, error) {
	if quizID == "" {
		return domain.QuizResult{}, domain.ErrInvalidSubmission
	}

	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.QuizResult{}, err
	}
	if len(sub.Answers) > len(quiz.Questions) {
		return domain.QuizResult{}, domain.ErrInvalidSubmission
	}

	if sub.IdempotencyKey != "" {
		prior, err := s.results.FindResultByKey(ctx, userID, quizID, sub.IdempotencyKey)
		if err == nil {
			return prior, nil
		}
		if !errors.Is(err, domain.ErrResultNotFound) {
			return domain.QuizResult{}, err
		}
	}

	summary := scoring.Score(quiz, sub.Answers)
	result := domain.QuizResult{
		ID:                uuid.NewString(),
		UserID:            userID,
		QuizID:            quizID,
		CompletedAt:       s.now(),
		TotalScore:        summary.TotalScore,
		RawScore:          summary.RawScore,
		PositiveMarks:     summary.PositiveMarks,
		NegativeMarks:     summary.NegativeMarks,
		Correct:           summary.Correct,
		Wrong:             summary.Wrong,
		Unanswered:        summary.Unanswered,
		SectionScores:     summary.SectionScores,
		TimeSpentSec:      sub.TimeSpentSec,
		Answers:           summary.Answers,
		NegativeMarking:   quiz.NegativeMarking,
		NegativeMarkValue: quiz.NegativeMarkValue,
		IdempotencyKey:    sub.IdempotencyKey,
	}

	if err := s.results.CreateResult(ctx, result); err != nil {
		return domain.QuizResult{}, err
	}
	if err := s.refreshUserStats(ctx, userID); err != nil {
		return domain.QuizResult{}, err
	}
	s.publish(ctx, result)
	return result, nil
}

// GetResult fetches one result by id.
func (s *AttemptService) GetResult(ctx context.Context, resultID string) (domain.QuizResult, error) {
	return s.results.GetResult(ctx, resultID)
}

// ListResults returns all results for a user, newest first per the store.
func (s *AttemptService) ListResults(ctx context.Context, userID string) ([]domain.QuizResult, error) {
	return s.results.ListResultsByUser(ctx, userID)
}

// DeleteResult removes exactly one result and recomputes the owning user's
// aggregates from the remaining records.
func (s *AttemptService) DeleteResult(ctx context.Context, resultID string) error {
	result, err := s.results.GetResult(ctx, resultID)
	if err != nil {
		return err
	}
	if err := s.results.DeleteResult(ctx, resultID); err != nil {
		return err
	}
	return s.refreshUserStats(ctx, result.UserID)
}

// Leaderboard returns the current scoreboard for a quiz.
func (s *AttemptService) Leaderboard(ctx context.Context, quizID string) (domain.Leaderboard, error) {
	if board, ok := s.boards.Get(quizID); ok {
		return board.Snapshot(), nil
	}
	// Cold start: rebuild the board from recorded results.
	results, err := s.results.ListResultsByQuiz(ctx, quizID)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	board := s.boards.GetOrCreate(quizID)
	for _, r := range results {
		name := s.displayName(ctx, r.UserID)
		board.Record(r.UserID, name, r.TotalScore, r.CompletedAt)
	}
	return board.Snapshot(), nil
}

// Subscribe streams leaderboard updates for a quiz. The caller must invoke
// the cancel function to avoid leaks.
func (s *AttemptService) Subscribe(ctx context.Context, quizID string) (<-chan domain.Leaderboard, func(), error) {
	if _, err := s.Leaderboard(ctx, quizID); err != nil {
		return nil, nil, err
	}
	board, ok := s.boards.Get(quizID)
	if !ok {
		return nil, nil, domain.ErrBoardNotFound
	}
	ch, cancel := board.Subscribe()
	return ch, cancel, nil
}

// refreshUserStats recomputes totalQuizzes and averageScore from a fresh read
// of the user's results at write time, never by incrementing in place.
func (s *AttemptService) refreshUserStats(ctx context.Context, userID string) error {
	results, err := s.results.ListResultsByUser(ctx, userID)
	if err != nil {
		return err
	}
	total := len(results)
	avg := 0
	if total > 0 {
		sum := 0
		for _, r := range results {
			sum += r.TotalScore
		}
		avg = int(math.Round(float64(sum) / float64(total)))
	}
	return s.users.UpdateUserStats(ctx, userID, total, avg)
}

func (s *AttemptService) publish(ctx context.Context, result domain.QuizResult) {
	board := s.boards.GetOrCreate(result.QuizID)
	board.Record(result.UserID, s.displayName(ctx, result.UserID), result.TotalScore, result.CompletedAt)
}

func (s *AttemptService) displayName(ctx context.Context, userID string) string {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil || user.Name == "" {
		return userID
	}
	return user.Name
}
