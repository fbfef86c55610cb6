// Package nav persists the last-visited-page record so the UI can restore
// navigation position across reloads. Graded state lives with the sessions,
// not here.
package nav

import (
	"context"

	"github.com/topaz-quiz/quizd/internal/store"
)

const recordKey = "last_visited"

type Record struct {
	PageID   string `json:"pageId"`
	QuizFile string `json:"quizFile,omitempty"`
}

type Tracker struct {
	store *store.Adapter
}

func NewTracker(a *store.Adapter) *Tracker {
	return &Tracker{store: a}
}

// Set records the current page. Best-effort, like all persistence here.
func (t *Tracker) Set(ctx context.Context, rec Record) {
	t.store.Save(ctx, recordKey, rec)
}

// Get returns the stored record, or false when none is available.
func (t *Tracker) Get(ctx context.Context) (Record, bool) {
	var rec Record
	if !t.store.Load(ctx, recordKey, &rec) {
		return Record{}, false
	}
	return rec, true
}
