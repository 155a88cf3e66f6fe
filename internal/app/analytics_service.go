package app

import (
	"context"
	"math"
	"sort"
)

// QuizStats is the per-quiz rollup for the admin dashboard.
type QuizStats struct {
	QuizID          string  `json:"quizId"`
	Attempts        int     `json:"attempts"`
	AverageScore    int     `json:"averageScore"`
	AverageTimeSec  int     `json:"averageTimeSec"`
	HighestScore    int     `json:"highestScore"`
	LowestScore     int     `json:"lowestScore"`
	NegativeMarkHit float64 `json:"negativeMarksTotal"` // sum of penalties across attempts
}

// UserStats is the per-user rollup for the admin dashboard.
type UserStats struct {
	UserID       string `json:"userId"`
	Attempts     int    `json:"attempts"`
	AverageScore int    `json:"averageScore"`
	BestScore    int    `json:"bestScore"`
}

// Overview is the aggregate performance report.
type Overview struct {
	TotalAttempts int         `json:"totalAttempts"`
	AverageScore  int         `json:"averageScore"`
	Quizzes       []QuizStats `json:"quizzes"`
	Users         []UserStats `json:"users"`
}

// AnalyticsService reports aggregate performance from recorded results.
type AnalyticsService struct {
	results ResultRepository
}

func NewAnalyticsService(results ResultRepository) *AnalyticsService {
	return &AnalyticsService{results: results}
}

// Overview rolls every recorded result up into per-quiz and overall stats.
func (s *AnalyticsService) Overview(ctx context.Context) (Overview, error) {
	results, err := s.results.ListAllResults(ctx)
	if err != nil {
		return Overview{}, err
	}

	perQuiz := map[string]*QuizStats{}
	perUser := map[string]*UserStats{}
	scoreSum := 0
	timeSum := map[string]int{}
	for _, r := range results {
		user, ok := perUser[r.UserID]
		if !ok {
			user = &UserStats{UserID: r.UserID, BestScore: r.TotalScore}
			perUser[r.UserID] = user
		}
		user.Attempts++
		user.AverageScore += r.TotalScore // running sum, divided below
		if r.TotalScore > user.BestScore {
			user.BestScore = r.TotalScore
		}

		stats, ok := perQuiz[r.QuizID]
		if !ok {
			stats = &QuizStats{QuizID: r.QuizID, LowestScore: r.TotalScore, HighestScore: r.TotalScore}
			perQuiz[r.QuizID] = stats
		}
		stats.Attempts++
		stats.AverageScore += r.TotalScore // running sum, divided below
		stats.NegativeMarkHit += r.NegativeMarks
		timeSum[r.QuizID] += r.TimeSpentSec
		if r.TotalScore > stats.HighestScore {
			stats.HighestScore = r.TotalScore
		}
		if r.TotalScore < stats.LowestScore {
			stats.LowestScore = r.TotalScore
		}
		scoreSum += r.TotalScore
	}

	out := Overview{TotalAttempts: len(results)}
	if len(results) > 0 {
		out.AverageScore = int(math.Round(float64(scoreSum) / float64(len(results))))
	}
	for id, stats := range perQuiz {
		stats.AverageScore = int(math.Round(float64(stats.AverageScore) / float64(stats.Attempts)))
		stats.AverageTimeSec = timeSum[id] / stats.Attempts
		out.Quizzes = append(out.Quizzes, *stats)
	}
	sort.Slice(out.Quizzes, func(i, j int) bool {
		if out.Quizzes[i].Attempts != out.Quizzes[j].Attempts {
			return out.Quizzes[i].Attempts > out.Quizzes[j].Attempts
		}
		return out.Quizzes[i].QuizID < out.Quizzes[j].QuizID
	})

	for _, stats := range perUser {
		stats.AverageScore = int(math.Round(float64(stats.AverageScore) / float64(stats.Attempts)))
		out.Users = append(out.Users, *stats)
	}
	sort.Slice(out.Users, func(i, j int) bool {
		if out.Users[i].Attempts != out.Users[j].Attempts {
			return out.Users[i].Attempts > out.Users[j].Attempts
		}
		return out.Users[i].UserID < out.Users[j].UserID
	})
	return out, nil
}
