package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"bankprep-service/internal/domain"
)

// CatalogService covers admin CRUD for subjects, chapters, and quizzes, plus
// the student-facing reads.
type CatalogService struct {
	subjects SubjectRepository
	chapters ChapterRepository
	quizzes  QuizStore
	cache    QuizCacheInvalidator
	now      func() time.Time
}

func NewCatalogService(subjects SubjectRepository, chapters ChapterRepository, quizzes QuizStore) *CatalogService {
	return &CatalogService{subjects: subjects, chapters: chapters, quizzes: quizzes, now: time.Now}
}

// WithCache makes quiz edits purge the given cache so stale content is never
// served past the write.
func (s *CatalogService) WithCache(cache QuizCacheInvalidator) *CatalogService {
	s.cache = cache
	return s
}

func (s *CatalogService) CreateSubject(ctx context.Context, name, description string) (domain.Subject, error) {
	if name == "" {
		return domain.Subject{}, domain.ErrInvalidQuiz
	}
	subject := domain.Subject{ID: uuid.NewString(), Name: name, Description: description}
	if err := s.subjects.CreateSubject(ctx, subject); err != nil {
		return domain.Subject{}, err
	}
	return subject, nil
}

func (s *CatalogService) UpdateSubject(ctx context.Context, subject domain.Subject) error {
	if subject.ID == "" || subject.Name == "" {
		return domain.ErrInvalidQuiz
	}
	return s.subjects.UpdateSubject(ctx, subject)
}

func (s *CatalogService) DeleteSubject(ctx context.Context, subjectID string) error {
	return s.subjects.DeleteSubject(ctx, subjectID)
}

func (s *CatalogService) ListSubjects(ctx context.Context) ([]domain.Subject, error) {
	return s.subjects.ListSubjects(ctx)
}

func (s *CatalogService) CreateChapter(ctx context.Context, subjectID, name string) (domain.Chapter, error) {
	if name == "" {
		return domain.Chapter{}, domain.ErrInvalidQuiz
	}
	if _, err := s.subjects.GetSubject(ctx, subjectID); err != nil {
		return domain.Chapter{}, err
	}
	chapter := domain.Chapter{ID: uuid.NewString(), SubjectID: subjectID, Name: name}
	if err := s.chapters.CreateChapter(ctx, chapter); err != nil {
		return domain.Chapter{}, err
	}
	return chapter, nil
}

func (s *CatalogService) DeleteChapter(ctx context.Context, chapterID string) error {
	return s.chapters.DeleteChapter(ctx, chapterID)
}

func (s *CatalogService) ListChapters(ctx context.Context, subjectID string) ([]domain.Chapter, error) {
	return s.chapters.ListChaptersBySubject(ctx, subjectID)
}

// CreateQuiz validates and stores a quiz authored by an admin.
func (s *CatalogService) CreateQuiz(ctx context.Context, quiz domain.Quiz, createdBy string) (domain.Quiz, error) {
	if err := validateQuiz(quiz); err != nil {
		return domain.Quiz{}, err
	}
	quiz.ID = uuid.NewString()
	quiz.CreatedBy = createdBy
	quiz.CreatedAt = s.now()
	quiz.Sections = sectionLabels(quiz)
	if err := s.quizzes.CreateQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

func (s *CatalogService) UpdateQuiz(ctx context.Context, quiz domain.Quiz) error {
	if quiz.ID == "" {
		return domain.ErrInvalidQuiz
	}
	if err := validateQuiz(quiz); err != nil {
		return err
	}
	quiz.Sections = sectionLabels(quiz)
	if err := s.quizzes.UpdateQuiz(ctx, quiz); err != nil {
		return err
	}
	s.invalidate(ctx, quiz.ID)
	return nil
}

func (s *CatalogService) DeleteQuiz(ctx context.Context, quizID string) error {
	if err := s.quizzes.DeleteQuiz(ctx, quizID); err != nil {
		return err
	}
	s.invalidate(ctx, quizID)
	return nil
}

func (s *CatalogService) invalidate(ctx context.Context, quizID string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, quizID)
	}
}

// ListQuizzes returns active quizzes for students, or everything for admins.
func (s *CatalogService) ListQuizzes(ctx context.Context, includeInactive bool) ([]domain.Quiz, error) {
	return s.quizzes.ListQuizzes(ctx, !includeInactive)
}

// GetQuizForStudent serves a quiz with answer keys and explanations stripped.
func (s *CatalogService) GetQuizForStudent(ctx context.Context, quizID string) (domain.Quiz, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	return quiz.StudentView(), nil
}

// GetQuizAdmin serves the full quiz, answer keys included.
func (s *CatalogService) GetQuizAdmin(ctx context.Context, quizID string) (domain.Quiz, error) {
	return s.quizzes.GetQuiz(ctx, quizID)
}

func validateQuiz(quiz domain.Quiz) error {
	if quiz.Title == "" {
		return domain.ErrInvalidQuiz
	}
	if quiz.NegativeMarking && quiz.NegativeMarkValue < 0 {
		return domain.ErrInvalidQuiz
	}
	for _, q := range quiz.Questions {
		if q.ID == "" || len(q.Options) != 4 {
			return domain.ErrInvalidQuiz
		}
		if q.CorrectIndex < 0 || q.CorrectIndex > 3 {
			return domain.ErrInvalidQuiz
		}
	}
	return nil
}

// sectionLabels rebuilds the section label set from the questions, keeping
// first-seen order.
func sectionLabels(quiz domain.Quiz) []string {
	seen := map[string]bool{}
	labels := make([]string, 0, len(quiz.Sections))
	for _, q := range quiz.Questions {
		if q.Section == "" || seen[q.Section] {
			continue
		}
		seen[q.Section] = true
		labels = append(labels, q.Section)
	}
	return labels
}
