package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"bankprep-service/internal/domain"
)

// QuizLoader reads quiz content straight off the pgx pool. This is the hot
// read path behind the cache during an exam window; CRUD goes through Store.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

func (l *QuizLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var (
		quiz         domain.Quiz
		questionsRaw []byte
		sectionsRaw  []byte
	)
	err := l.pool.QueryRow(ctx, `
		SELECT id, subject_id, chapter_id, title, description,
		       questions_json, sections_json, time_limit_min,
		       negative_marking, negative_mark_value, active
		FROM quizzes WHERE id=$1`, quizID).Scan(
		&quiz.ID, &quiz.SubjectID, &quiz.ChapterID, &quiz.Title, &quiz.Description,
		&questionsRaw, &sectionsRaw, &quiz.TimeLimitMin,
		&quiz.NegativeMarking, &quiz.NegativeMarkValue, &quiz.Active,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Quiz{}, domain.ErrQuizNotFound
		}
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	if err := domain.DecodeJSONText(questionsRaw, &quiz.Questions); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal questions: %w", err)
	}
	if err := domain.DecodeJSONText(sectionsRaw, &quiz.Sections); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal sections: %w", err)
	}
	return quiz, nil
}
