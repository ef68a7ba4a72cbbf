package game

import (
	"sort"
	"time"

	"github.com/manhtruong03/real-time-quiz-sub000/internal/domain"
)

// EventLog is the per-question lifecycle ledger. Entries are upserted by
// question index and kept sorted for deterministic replay and reporting.
type EventLog struct {
	entries []domain.QuestionEvent
}

// Open creates or reactivates the entry for index, marking it ACTIVE.
func (l *EventLog) Open(index int, now time.Time) {
	if e := l.find(index); e != nil {
		e.Status = domain.EventActive
		e.StartedAt = now
		e.EndedAt = nil
		return
	}
	l.entries = append(l.entries, domain.QuestionEvent{
		QuestionIndex: index,
		StartedAt:     now,
		Status:        domain.EventActive,
	})
	l.sortEntries()
}

// Close sets the terminal status for index. The end time is recorded on
// the first close only; later status refinements (STATS_SHOWN to
// SCOREBOARD_SHOWN) keep it. Closing an index with no entry upserts one,
// which covers skipped slides that were never opened.
func (l *EventLog) Close(index int, status domain.EventStatus, now time.Time) {
	if e := l.find(index); e != nil {
		e.Status = status
		if e.EndedAt == nil {
			e.EndedAt = &now
		}
		return
	}
	l.entries = append(l.entries, domain.QuestionEvent{
		QuestionIndex: index,
		StartedAt:     now,
		EndedAt:       &now,
		Status:        status,
	})
	l.sortEntries()
}

// Entries returns a sorted copy of the ledger.
func (l *EventLog) Entries() []domain.QuestionEvent {
	out := make([]domain.QuestionEvent, len(l.entries))
	copy(out, l.entries)
	for i := range out {
		if out[i].EndedAt != nil {
			t := *out[i].EndedAt
			out[i].EndedAt = &t
		}
	}
	return out
}

func (l *EventLog) find(index int) *domain.QuestionEvent {
	for i := range l.entries {
		if l.entries[i].QuestionIndex == index {
			return &l.entries[i]
		}
	}
	return nil
}

func (l *EventLog) sortEntries() {
	sort.Slice(l.entries, func(i, j int) bool {
		return l.entries[i].QuestionIndex < l.entries[j].QuestionIndex
	})
}
