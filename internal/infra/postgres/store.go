package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"bankprep-service/internal/domain"
)

// Store is the bun-backed implementation of the app repositories.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

type quizRow struct {
	bun.BaseModel `bun:"table:quizzes,alias:q"`

	ID                string    `bun:"id,pk"`
	SubjectID         string    `bun:"subject_id"`
	ChapterID         string    `bun:"chapter_id"`
	Title             string    `bun:"title"`
	Description       string    `bun:"description"`
	QuestionsJSON     string    `bun:"questions_json"`
	SectionsJSON      string    `bun:"sections_json"`
	TimeLimitMin      int       `bun:"time_limit_min"`
	NegativeMarking   bool      `bun:"negative_marking"`
	NegativeMarkValue float64   `bun:"negative_mark_value"`
	Active            bool      `bun:"active"`
	CreatedBy         string    `bun:"created_by"`
	CreatedAt         time.Time `bun:"created_at"`
}

type resultRow struct {
	bun.BaseModel `bun:"table:quiz_results,alias:r"`

	ID                string    `bun:"id,pk"`
	UserID            string    `bun:"user_id"`
	QuizID            string    `bun:"quiz_id"`
	CompletedAt       time.Time `bun:"completed_at"`
	TotalScore        int       `bun:"total_score"`
	RawScore          float64   `bun:"raw_score"`
	PositiveMarks     float64   `bun:"positive_marks"`
	NegativeMarks     float64   `bun:"negative_marks"`
	CorrectAnswers    int       `bun:"correct_answers"`
	WrongAnswers      int       `bun:"wrong_answers"`
	Unanswered        int       `bun:"unanswered"`
	SectionsJSON      string    `bun:"sections_json"`
	TimeSpentSec      int       `bun:"time_spent_sec"`
	AnswersJSON       string    `bun:"answers_json"`
	NegativeMarking   bool      `bun:"negative_marking"`
	NegativeMarkValue float64   `bun:"negative_mark_value"`
	IdempotencyKey    string    `bun:"idempotency_key"`
}

type userRow struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           string    `bun:"id,pk"`
	Name         string    `bun:"name"`
	Email        string    `bun:"email"`
	Role         string    `bun:"role"`
	PasswordHash string    `bun:"password_hash"`
	TotalQuizzes int       `bun:"total_quizzes"`
	AverageScore int       `bun:"average_score"`
	CreatedAt    time.Time `bun:"created_at"`
}

type subjectRow struct {
	bun.BaseModel `bun:"table:subjects,alias:s"`

	ID          string `bun:"id,pk"`
	Name        string `bun:"name"`
	Description string `bun:"description"`
}

type chapterRow struct {
	bun.BaseModel `bun:"table:chapters,alias:c"`

	ID        string `bun:"id,pk"`
	SubjectID string `bun:"subject_id"`
	Name      string `bun:"name"`
}

// ---- quizzes ----

func (s *Store) CreateQuiz(ctx context.Context, quiz domain.Quiz) error {
	row, err := quizToRow(quiz)
	if err != nil {
		return fmt.Errorf("encode quiz: %w", err)
	}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert quiz: %w", err)
	}
	return nil
}

func (s *Store) UpdateQuiz(ctx context.Context, quiz domain.Quiz) error {
	row, err := quizToRow(quiz)
	if err != nil {
		return fmt.Errorf("encode quiz: %w", err)
	}
	res, err := s.db.NewUpdate().Model(&row).
		Column("subject_id", "chapter_id", "title", "description", "questions_json",
			"sections_json", "time_limit_min", "negative_marking", "negative_mark_value", "active").
		WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("update quiz: %w", err)
	}
	return requireAffected(res, domain.ErrQuizNotFound)
}

func (s *Store) DeleteQuiz(ctx context.Context, quizID string) error {
	res, err := s.db.NewDelete().Model((*quizRow)(nil)).Where("id = ?", quizID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	return requireAffected(res, domain.ErrQuizNotFound)
}

func (s *Store) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var row quizRow
	err := s.db.NewSelect().Model(&row).Where("id = ?", quizID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Quiz{}, domain.ErrQuizNotFound
		}
		return domain.Quiz{}, fmt.Errorf("select quiz: %w", err)
	}
	return quizFromRow(row)
}

func (s *Store) ListQuizzes(ctx context.Context, activeOnly bool) ([]domain.Quiz, error) {
	var rows []quizRow
	query := s.db.NewSelect().Model(&rows).Order("created_at DESC")
	if activeOnly {
		query = query.Where("active")
	}
	if err := query.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	out := make([]domain.Quiz, 0, len(rows))
	for _, row := range rows {
		quiz, err := quizFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, quiz)
	}
	return out, nil
}

// LoadQuiz makes the store usable as the cache's backing loader.
func (s *Store) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return s.GetQuiz(ctx, quizID)
}

// ---- subjects ----

func (s *Store) CreateSubject(ctx context.Context, subject domain.Subject) error {
	row := subjectToRow(subject)
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert subject: %w", err)
	}
	return nil
}

func (s *Store) UpdateSubject(ctx context.Context, subject domain.Subject) error {
	row := subjectToRow(subject)
	res, err := s.db.NewUpdate().Model(&row).Column("name", "description").WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("update subject: %w", err)
	}
	return requireAffected(res, domain.ErrSubjectNotFound)
}

func (s *Store) DeleteSubject(ctx context.Context, subjectID string) error {
	res, err := s.db.NewDelete().Model((*subjectRow)(nil)).Where("id = ?", subjectID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete subject: %w", err)
	}
	return requireAffected(res, domain.ErrSubjectNotFound)
}

func (s *Store) GetSubject(ctx context.Context, subjectID string) (domain.Subject, error) {
	var row subjectRow
	err := s.db.NewSelect().Model(&row).Where("id = ?", subjectID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Subject{}, domain.ErrSubjectNotFound
		}
		return domain.Subject{}, fmt.Errorf("select subject: %w", err)
	}
	return subjectFromRow(row), nil
}

func (s *Store) ListSubjects(ctx context.Context) ([]domain.Subject, error) {
	var rows []subjectRow
	if err := s.db.NewSelect().Model(&rows).Order("name ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	out := make([]domain.Subject, 0, len(rows))
	for _, row := range rows {
		out = append(out, subjectFromRow(row))
	}
	return out, nil
}

// ---- chapters ----

func (s *Store) CreateChapter(ctx context.Context, chapter domain.Chapter) error {
	row := chapterToRow(chapter)
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert chapter: %w", err)
	}
	return nil
}

func (s *Store) DeleteChapter(ctx context.Context, chapterID string) error {
	res, err := s.db.NewDelete().Model((*chapterRow)(nil)).Where("id = ?", chapterID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete chapter: %w", err)
	}
	return requireAffected(res, domain.ErrChapterNotFound)
}

func (s *Store) ListChaptersBySubject(ctx context.Context, subjectID string) ([]domain.Chapter, error) {
	var rows []chapterRow
	err := s.db.NewSelect().Model(&rows).Where("subject_id = ?", subjectID).Order("name ASC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	out := make([]domain.Chapter, 0, len(rows))
	for _, row := range rows {
		out = append(out, chapterFromRow(row))
	}
	return out, nil
}

// ---- users ----

func (s *Store) CreateUser(ctx context.Context, user domain.User) error {
	row := userToRow(user)
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, userID string) (domain.User, error) {
	var row userRow
	err := s.db.NewSelect().Model(&row).Where("id = ?", userID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("select user: %w", err)
	}
	return userFromRow(row), nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	var row userRow
	err := s.db.NewSelect().Model(&row).Where("email = ?", email).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("select user by email: %w", err)
	}
	return userFromRow(row), nil
}

func (s *Store) UpdateUserStats(ctx context.Context, userID string, totalQuizzes, averageScore int) error {
	res, err := s.db.NewUpdate().Model((*userRow)(nil)).
		Set("total_quizzes = ?", totalQuizzes).
		Set("average_score = ?", averageScore).
		Where("id = ?", userID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("update user stats: %w", err)
	}
	return requireAffected(res, domain.ErrUserNotFound)
}

// ---- results ----

func (s *Store) CreateResult(ctx context.Context, result domain.QuizResult) error {
	row, err := resultToRow(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

func (s *Store) GetResult(ctx context.Context, resultID string) (domain.QuizResult, error) {
	var row resultRow
	err := s.db.NewSelect().Model(&row).Where("id = ?", resultID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.QuizResult{}, domain.ErrResultNotFound
		}
		return domain.QuizResult{}, fmt.Errorf("select result: %w", err)
	}
	return resultFromRow(row)
}

func (s *Store) DeleteResult(ctx context.Context, resultID string) error {
	res, err := s.db.NewDelete().Model((*resultRow)(nil)).Where("id = ?", resultID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete result: %w", err)
	}
	return requireAffected(res, domain.ErrResultNotFound)
}

func (s *Store) ListResultsByUser(ctx context.Context, userID string) ([]domain.QuizResult, error) {
	return s.listResults(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("user_id = ?", userID)
	})
}

func (s *Store) ListResultsByQuiz(ctx context.Context, quizID string) ([]domain.QuizResult, error) {
	return s.listResults(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("quiz_id = ?", quizID)
	})
}

func (s *Store) ListAllResults(ctx context.Context) ([]domain.QuizResult, error) {
	return s.listResults(ctx, func(q *bun.SelectQuery) *bun.SelectQuery { return q })
}

func (s *Store) FindResultByKey(ctx context.Context, userID, quizID, key string) (domain.QuizResult, error) {
	var row resultRow
	err := s.db.NewSelect().Model(&row).
		Where("user_id = ?", userID).
		Where("quiz_id = ?", quizID).
		Where("idempotency_key = ?", key).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.QuizResult{}, domain.ErrResultNotFound
		}
		return domain.QuizResult{}, fmt.Errorf("select result by key: %w", err)
	}
	return resultFromRow(row)
}

func (s *Store) listResults(ctx context.Context, filter func(*bun.SelectQuery) *bun.SelectQuery) ([]domain.QuizResult, error) {
	var rows []resultRow
	query := filter(s.db.NewSelect().Model(&rows)).Order("completed_at DESC")
	if err := query.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	out := make([]domain.QuizResult, 0, len(rows))
	for _, row := range rows {
		result, err := resultFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, result)
	}
	return out, nil
}

// ---- row conversions ----

func quizToRow(quiz domain.Quiz) (quizRow, error) {
	questions, err := domain.EncodeJSONText(quiz.Questions)
	if err != nil {
		return quizRow{}, err
	}
	sections, err := domain.EncodeJSONText(quiz.Sections)
	if err != nil {
		return quizRow{}, err
	}
	return quizRow{
		ID:                quiz.ID,
		SubjectID:         quiz.SubjectID,
		ChapterID:         quiz.ChapterID,
		Title:             quiz.Title,
		Description:       quiz.Description,
		QuestionsJSON:     questions,
		SectionsJSON:      sections,
		TimeLimitMin:      quiz.TimeLimitMin,
		NegativeMarking:   quiz.NegativeMarking,
		NegativeMarkValue: quiz.NegativeMarkValue,
		Active:            quiz.Active,
		CreatedBy:         quiz.CreatedBy,
		CreatedAt:         quiz.CreatedAt,
	}, nil
}

func quizFromRow(row quizRow) (domain.Quiz, error) {
	quiz := domain.Quiz{
		ID:                row.ID,
		SubjectID:         row.SubjectID,
		ChapterID:         row.ChapterID,
		Title:             row.Title,
		Description:       row.Description,
		TimeLimitMin:      row.TimeLimitMin,
		NegativeMarking:   row.NegativeMarking,
		NegativeMarkValue: row.NegativeMarkValue,
		Active:            row.Active,
		CreatedBy:         row.CreatedBy,
		CreatedAt:         row.CreatedAt,
	}
	if err := domain.DecodeJSONText([]byte(row.QuestionsJSON), &quiz.Questions); err != nil {
		return domain.Quiz{}, fmt.Errorf("decode questions_json for quiz %s: %w", row.ID, err)
	}
	if err := domain.DecodeJSONText([]byte(row.SectionsJSON), &quiz.Sections); err != nil {
		return domain.Quiz{}, fmt.Errorf("decode sections_json for quiz %s: %w", row.ID, err)
	}
	return quiz, nil
}

func resultToRow(result domain.QuizResult) (resultRow, error) {
	answers, err := domain.EncodeJSONText(result.Answers)
	if err != nil {
		return resultRow{}, err
	}
	if result.SectionScores == nil {
		result.SectionScores = map[string]int{}
	}
	sections, err := domain.EncodeJSONText(result.SectionScores)
	if err != nil {
		return resultRow{}, err
	}
	return resultRow{
		ID:                result.ID,
		UserID:            result.UserID,
		QuizID:            result.QuizID,
		CompletedAt:       result.CompletedAt,
		TotalScore:        result.TotalScore,
		RawScore:          result.RawScore,
		PositiveMarks:     result.PositiveMarks,
		NegativeMarks:     result.NegativeMarks,
		CorrectAnswers:    result.Correct,
		WrongAnswers:      result.Wrong,
		Unanswered:        result.Unanswered,
		SectionsJSON:      sections,
		TimeSpentSec:      result.TimeSpentSec,
		AnswersJSON:       answers,
		NegativeMarking:   result.NegativeMarking,
		NegativeMarkValue: result.NegativeMarkValue,
		IdempotencyKey:    result.IdempotencyKey,
	}, nil
}

func resultFromRow(row resultRow) (domain.QuizResult, error) {
	result := domain.QuizResult{
		ID:                row.ID,
		UserID:            row.UserID,
		QuizID:            row.QuizID,
		CompletedAt:       row.CompletedAt,
		TotalScore:        row.TotalScore,
		RawScore:          row.RawScore,
		PositiveMarks:     row.PositiveMarks,
		NegativeMarks:     row.NegativeMarks,
		Correct:           row.CorrectAnswers,
		Wrong:             row.WrongAnswers,
		Unanswered:        row.Unanswered,
		TimeSpentSec:      row.TimeSpentSec,
		NegativeMarking:   row.NegativeMarking,
		NegativeMarkValue: row.NegativeMarkValue,
		IdempotencyKey:    row.IdempotencyKey,
	}
	if err := domain.DecodeJSONText([]byte(row.AnswersJSON), &result.Answers); err != nil {
		return domain.QuizResult{}, fmt.Errorf("decode answers_json for result %s: %w", row.ID, err)
	}
	if err := domain.DecodeJSONText([]byte(row.SectionsJSON), &result.SectionScores); err != nil {
		return domain.QuizResult{}, fmt.Errorf("decode sections_json for result %s: %w", row.ID, err)
	}
	return result, nil
}

func subjectToRow(subject domain.Subject) subjectRow {
	return subjectRow{ID: subject.ID, Name: subject.Name, Description: subject.Description}
}

func subjectFromRow(row subjectRow) domain.Subject {
	return domain.Subject{ID: row.ID, Name: row.Name, Description: row.Description}
}

func chapterToRow(chapter domain.Chapter) chapterRow {
	return chapterRow{ID: chapter.ID, SubjectID: chapter.SubjectID, Name: chapter.Name}
}

func chapterFromRow(row chapterRow) domain.Chapter {
	return domain.Chapter{ID: row.ID, SubjectID: row.SubjectID, Name: row.Name}
}

func userToRow(user domain.User) userRow {
	return userRow{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		Role:         user.Role,
		PasswordHash: user.PasswordHash,
		TotalQuizzes: user.TotalQuizzes,
		AverageScore: user.AverageScore,
		CreatedAt:    user.CreatedAt,
	}
}

func userFromRow(row userRow) domain.User {
	return domain.User{
		ID:           row.ID,
		Name:         row.Name,
		Email:        row.Email,
		Role:         row.Role,
		PasswordHash: row.PasswordHash,
		TotalQuizzes: row.TotalQuizzes,
		AverageScore: row.AverageScore,
		CreatedAt:    row.CreatedAt,
	}
}

func requireAffected(res sql.Result, notFound error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return notFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	// pgdriver surfaces SQLSTATE 23505 in the error text.
	return err != nil && (strings.Contains(err.Error(), "23505") || strings.Contains(err.Error(), "duplicate key"))
}
