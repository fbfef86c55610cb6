package http

import (
	"encoding/json"
	"net/http"

	"github.com/topaz-quiz/quizd/internal/nav"
)

// GetNavHandler returns the last-visited-page record, or 404 when nothing has
// been recorded (first visit, or storage unavailable).
func GetNavHandler(tracker *nav.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, ok := tracker.Get(r.Context())
		if !ok {
			http.Error(w, "no navigation record", 404)
			return
		}
		_ = json.NewEncoder(w).Encode(rec)
	}
}

func SetNavHandler(tracker *nav.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rec nav.Record
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if rec.PageID == "" {
			http.Error(w, "pageId required", 400)
			return
		}
		tracker.Set(r.Context(), rec)
		w.WriteHeader(204)
	}
}
