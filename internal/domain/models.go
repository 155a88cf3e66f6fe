package domain

import "time"

// Role labels for User.Role.
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// Question is a four-option multiple-choice question. Immutable once part of a quiz.
type Question struct {
	ID           string   `json:"id"`
	Section      string   `json:"section"`
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"` // exactly four
	CorrectIndex int      `json:"correctIndex"`
	Explanation  string   `json:"explanation,omitempty"`
}

// Quiz is an ordered collection of questions with a marking policy.
type Quiz struct {
	ID                string     `json:"id"`
	SubjectID         string     `json:"subjectId,omitempty"`
	ChapterID         string     `json:"chapterId,omitempty"`
	Title             string     `json:"title"`
	Description       string     `json:"description,omitempty"`
	Questions         []Question `json:"questions"`
	Sections          []string   `json:"sections"`
	TimeLimitMin      int        `json:"timeLimitMin"`
	NegativeMarking   bool       `json:"negativeMarking"`
	NegativeMarkValue float64    `json:"negativeMarkValue"`
	Active            bool       `json:"active"`
	CreatedBy         string     `json:"createdBy,omitempty"`
	CreatedAt         time.Time  `json:"createdAt,omitempty"`
}

// Answer is one user response, recorded at submission time and never mutated.
type Answer struct {
	QuestionID string `json:"questionId"`
	Selected   int    `json:"selected"`
	Correct    bool   `json:"correct"`
}

// QuizResult is the immutable record of one completed attempt. The
// negative-marking parameters are captured as they were at submission time.
type QuizResult struct {
	ID                string         `json:"id"`
	UserID            string         `json:"userId"`
	QuizID            string         `json:"quizId"`
	CompletedAt       time.Time      `json:"completedAt"`
	TotalScore        int            `json:"totalScore"`
	RawScore          float64        `json:"rawScore"`
	PositiveMarks     float64        `json:"positiveMarks"`
	NegativeMarks     float64        `json:"negativeMarks"`
	Correct           int            `json:"correctAnswers"`
	Wrong             int            `json:"wrongAnswers"`
	Unanswered        int            `json:"unanswered"`
	SectionScores     map[string]int `json:"sections"`
	TimeSpentSec      int            `json:"timeSpentSec"`
	Answers           []Answer       `json:"answers"`
	NegativeMarking   bool           `json:"negativeMarking"`
	NegativeMarkValue float64        `json:"negativeMarkValue"`
	IdempotencyKey    string         `json:"-"`
}

// User aggregate stats are derived from the user's results, never edited directly.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	TotalQuizzes int       `json:"totalQuizzes"`
	AverageScore int       `json:"averageScore"`
	CreatedAt    time.Time `json:"createdAt,omitempty"`
}

// Subject groups chapters for the banking-exam syllabus.
type Subject struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Chapter is a unit within a subject.
type Chapter struct {
	ID        string `json:"id"`
	SubjectID string `json:"subjectId"`
	Name      string `json:"name"`
}

// LeaderboardEntry is a snapshot-friendly view of a user's best score on a quiz.
type LeaderboardEntry struct {
	UserID     string `json:"userId"`
	Name       string `json:"name"`
	TotalScore int    `json:"totalScore"`
}

// Leaderboard captures the ordered scoreboard for a quiz.
type Leaderboard struct {
	QuizID    string             `json:"quizId"`
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// StudentView strips answer keys and explanations so the quiz can be served
// to a student taking it.
func (q Quiz) StudentView() Quiz {
	out := q
	out.Questions = make([]Question, len(q.Questions))
	for i, question := range q.Questions {
		question.CorrectIndex = -1
		question.Explanation = ""
		out.Questions[i] = question
	}
	return out
}
