// Package scoring computes per-question outcomes and quiz-level aggregates
// for a submitted attempt. Scoring is total over arbitrary client input:
// unknown question ids and out-of-range option indexes never fail a
// submission, they just don't earn marks.
package scoring

import (
	"math"

	"bankprep-service/internal/domain"
)

// Outcome classifies a single question for one attempt.
type Outcome string

const (
	OutcomeCorrect    Outcome = "correct"
	OutcomeWrong      Outcome = "wrong"
	OutcomeUnanswered Outcome = "unanswered"
)

// QuestionOutcome is the scored view of one question in an attempt.
type QuestionOutcome struct {
	QuestionID string
	Section    string
	Outcome    Outcome
	Selected   int // -1 when unanswered
	Marks      float64
}

// Summary is the aggregate over all questions of a quiz.
// Invariant: Correct + Wrong + Unanswered == number of questions.
type Summary struct {
	RawScore      float64
	PositiveMarks float64
	NegativeMarks float64 // magnitude of penalties applied, always >= 0
	TotalScore    int     // clamped percentage
	Correct       int
	Wrong         int
	Unanswered    int
	SectionScores map[string]int
	Outcomes      []QuestionOutcome
	Answers       []domain.Answer // trail of submitted answers only
}

// Score runs the scorer over every question of the quiz and aggregates the
// outcomes. selections maps question id to the chosen option index; a missing
// entry means the question was left unanswered.
func Score(quiz domain.Quiz, selections map[string]int) Summary {
	penalty := 0.0
	if quiz.NegativeMarking {
		penalty = quiz.NegativeMarkValue
	}

	summary := Summary{
		SectionScores: map[string]int{},
		Outcomes:      make([]QuestionOutcome, 0, len(quiz.Questions)),
	}
	sectionRaw := map[string]float64{}
	sectionCount := map[string]int{}
	for _, label := range quiz.Sections {
		sectionRaw[label] = 0
		sectionCount[label] = 0
	}

	for _, q := range quiz.Questions {
		outcome := scoreQuestion(q, selections, penalty)
		summary.Outcomes = append(summary.Outcomes, outcome)
		sectionCount[q.Section]++

		switch outcome.Outcome {
		case OutcomeCorrect:
			summary.Correct++
			summary.PositiveMarks += outcome.Marks
		case OutcomeWrong:
			summary.Wrong++
			summary.NegativeMarks += -outcome.Marks
		default:
			summary.Unanswered++
		}
		summary.RawScore += outcome.Marks
		sectionRaw[q.Section] += outcome.Marks

		if outcome.Outcome != OutcomeUnanswered {
			summary.Answers = append(summary.Answers, domain.Answer{
				QuestionID: q.ID,
				Selected:   outcome.Selected,
				Correct:    outcome.Outcome == OutcomeCorrect,
			})
		}
	}

	summary.TotalScore = Percentage(summary.RawScore, len(quiz.Questions))
	for label := range sectionRaw {
		summary.SectionScores[label] = Percentage(sectionRaw[label], sectionCount[label])
	}
	return summary
}

// scoreQuestion classifies a single question. A selection outside the option
// range counts as unanswered, matching how absent answers are treated.
func scoreQuestion(q domain.Question, selections map[string]int, penalty float64) QuestionOutcome {
	out := QuestionOutcome{QuestionID: q.ID, Section: q.Section, Selected: -1, Outcome: OutcomeUnanswered}

	selected, ok := selections[q.ID]
	if !ok || selected < 0 || selected >= len(q.Options) {
		return out
	}
	out.Selected = selected
	if selected == q.CorrectIndex {
		out.Outcome = OutcomeCorrect
		out.Marks = 1
		return out
	}
	out.Outcome = OutcomeWrong
	out.Marks = -penalty
	return out
}

// Percentage converts a raw score to a rounded percent of the question count.
// A negative raw score floors at 0 and a zero-question pool scores 0.
func Percentage(raw float64, questionCount int) int {
	if questionCount == 0 {
		return 0
	}
	if raw < 0 {
		raw = 0
	}
	return int(math.Round(raw / float64(questionCount) * 100))
}
