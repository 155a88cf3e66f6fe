package app

import (
	"sort"
	"sync"
	"time"

	"bankprep-service/internal/domain"
)

// Board keeps the best recorded score per user for one quiz and fans
// snapshots out to subscribers as new results land.
type Board struct {
	quizID string
	now    func() time.Time

	mu          sync.RWMutex
	best        map[string]*boardEntry
	subscribers map[chan domain.Leaderboard]struct{}
}

type boardEntry struct {
	userID     string
	name       string
	totalScore int
	achievedAt time.Time
}

// NewBoard is exported for infrastructure layers that need to seed boards.
func NewBoard(quizID string) *Board {
	return NewBoardWithClock(quizID, time.Now)
}

// NewBoardWithClock allows deterministic timestamps in tests.
func NewBoardWithClock(quizID string, now func() time.Time) *Board {
	return &Board{
		quizID:      quizID,
		now:         now,
		best:        make(map[string]*boardEntry),
		subscribers: make(map[chan domain.Leaderboard]struct{}),
	}
}

// Record registers a result on the board. Only a user's best score is kept;
// a lower resubmission leaves the board unchanged.
func (b *Board) Record(userID, name string, totalScore int, achievedAt time.Time) domain.Leaderboard {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.best[userID]
	if !ok {
		b.best[userID] = &boardEntry{userID: userID, name: name, totalScore: totalScore, achievedAt: achievedAt}
		return b.broadcastLocked()
	}
	entry.name = name
	if totalScore > entry.totalScore {
		entry.totalScore = totalScore
		entry.achievedAt = achievedAt
	}
	return b.broadcastLocked()
}

// Snapshot returns the current ordered scoreboard.
func (b *Board) Snapshot() domain.Leaderboard {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snapshotLocked()
}

// IsEmpty reports whether the board has no recorded scores.
func (b *Board) IsEmpty() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.best) == 0
}

// Subscribe returns a channel that receives the current snapshot immediately
// and an update per recorded result. The cancel function must be called.
func (b *Board) Subscribe() (<-chan domain.Leaderboard, func()) {
	ch := make(chan domain.Leaderboard, 8)

	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	initial := b.snapshotLocked()
	b.mu.Unlock()

	ch <- initial

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subscribers[ch]; ok {
			delete(b.subscribers, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

func (b *Board) broadcastLocked() domain.Leaderboard {
	lb := b.snapshotLocked()
	for ch := range b.subscribers {
		select {
		case ch <- lb:
		default:
			// Drop the stale update so a slow reader never blocks broadcast.
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
	return lb
}

func (b *Board) snapshotLocked() domain.Leaderboard {
	entries := make([]domain.LeaderboardEntry, 0, len(b.best))
	for _, entry := range b.best {
		entries = append(entries, domain.LeaderboardEntry{
			UserID:     entry.userID,
			Name:       entry.name,
			TotalScore: entry.totalScore,
		})
	}

	// Score desc, then whoever reached the score first, then name.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalScore != entries[j].TotalScore {
			return entries[i].TotalScore > entries[j].TotalScore
		}
		ei := b.best[entries[i].UserID]
		ej := b.best[entries[j].UserID]
		if ei != nil && ej != nil && !ei.achievedAt.Equal(ej.achievedAt) {
			return ei.achievedAt.Before(ej.achievedAt)
		}
		return entries[i].Name < entries[j].Name
	})

	return domain.Leaderboard{
		QuizID:    b.quizID,
		Entries:   entries,
		UpdatedAt: b.now(),
	}
}
