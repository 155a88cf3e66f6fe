package app

import (
	"context"

	"bankprep-service/internal/domain"
)

// QuizRepository is the cached read path for quiz content (memory or Redis in
// front of the backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// QuizCacheInvalidator purges cached quiz content after an admin edit.
type QuizCacheInvalidator interface {
	Invalidate(ctx context.Context, quizID string)
}

// QuizStore is the authoritative CRUD store for quizzes.
type QuizStore interface {
	CreateQuiz(ctx context.Context, quiz domain.Quiz) error
	UpdateQuiz(ctx context.Context, quiz domain.Quiz) error
	DeleteQuiz(ctx context.Context, quizID string) error
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	ListQuizzes(ctx context.Context, activeOnly bool) ([]domain.Quiz, error)
}

// ResultRepository persists immutable quiz results.
type ResultRepository interface {
	CreateResult(ctx context.Context, result domain.QuizResult) error
	GetResult(ctx context.Context, resultID string) (domain.QuizResult, error)
	DeleteResult(ctx context.Context, resultID string) error
	ListResultsByUser(ctx context.Context, userID string) ([]domain.QuizResult, error)
	ListResultsByQuiz(ctx context.Context, quizID string) ([]domain.QuizResult, error)
	ListAllResults(ctx context.Context) ([]domain.QuizResult, error)
	// FindResultByKey resolves an idempotent resubmission; returns
	// domain.ErrResultNotFound when no result carries the key.
	FindResultByKey(ctx context.Context, userID, quizID, key string) (domain.QuizResult, error)
}

// UserRepository stores accounts and their derived aggregate stats.
type UserRepository interface {
	CreateUser(ctx context.Context, user domain.User) error
	GetUser(ctx context.Context, userID string) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
	UpdateUserStats(ctx context.Context, userID string, totalQuizzes, averageScore int) error
}

// SubjectRepository stores the syllabus subjects.
type SubjectRepository interface {
	CreateSubject(ctx context.Context, subject domain.Subject) error
	UpdateSubject(ctx context.Context, subject domain.Subject) error
	DeleteSubject(ctx context.Context, subjectID string) error
	GetSubject(ctx context.Context, subjectID string) (domain.Subject, error)
	ListSubjects(ctx context.Context) ([]domain.Subject, error)
}

// ChapterRepository stores chapters under subjects.
type ChapterRepository interface {
	CreateChapter(ctx context.Context, chapter domain.Chapter) error
	DeleteChapter(ctx context.Context, chapterID string) error
	ListChaptersBySubject(ctx context.Context, subjectID string) ([]domain.Chapter, error)
}

// BoardStore abstracts how leaderboard hubs are kept (in-memory, Redis-marked).
type BoardStore interface {
	GetOrCreate(quizID string) *Board
	Get(quizID string) (*Board, bool)
	DeleteIfEmpty(quizID string)
}
