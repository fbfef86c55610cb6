package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/topaz-quiz/quizd/internal/progress"
)

// ProgressWSHandler streams progress snapshots for one quiz over a
// websocket. Subscribing does not require an open session; snapshots simply
// start flowing once one exists.
func ProgressWSHandler(hub *progress.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, chi.URLParam(r, "quizFile"))
	}
}
