package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/topaz-quiz/quizd/internal/quiz"
)

// OpenQuizHandler loads a quiz definition and binds a session to it,
// rehydrating persisted progress when available. A definition failure maps to
// the "quiz not available" path.
func OpenQuizHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quizFile := chi.URLParam(r, "quizFile")
		var req struct {
			Type        quiz.Modality `json:"type"`
			ContainerID string        `json:"containerId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if req.Type == "" {
			req.Type = quiz.ModalitySingleChoice
		}
		view, err := svc.Open(r.Context(), quizFile, req.Type, req.ContainerID)
		if err != nil {
			writeQuizError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(view)
	}
}

func GetSessionHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.View(chi.URLParam(r, "quizFile"))
		if err != nil {
			writeQuizError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(view)
	}
}

// SubmitChoiceHandler grades one single-choice item. Declined submissions
// (empty selection, already graded) return ignored=true with no feedback.
func SubmitChoiceHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quizFile := chi.URLParam(r, "quizFile")
		var req struct {
			ItemIndex int    `json:"itemIndex"`
			OptionKey string `json:"optionKey"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		res, snap, err := svc.SubmitChoice(r.Context(), quizFile, req.ItemIndex, req.OptionKey)
		if err != nil {
			writeQuizError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(struct {
			Ignored  bool                  `json:"ignored"`
			Result   *quiz.ChoiceResult    `json:"result,omitempty"`
			Progress quiz.ProgressSnapshot `json:"progress"`
		}{Ignored: res == nil, Result: res, Progress: snap})
	}
}

// SubmitLabHandler grades the unchecked parts of one lab question block.
func SubmitLabHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quizFile := chi.URLParam(r, "quizFile")
		var req struct {
			QuestionNumber string              `json:"questionNumber"`
			Answers        map[string][]string `json:"answers"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if req.QuestionNumber == "" {
			http.Error(w, "questionNumber required", 400)
			return
		}
		res, snap, err := svc.SubmitLab(r.Context(), quizFile, req.QuestionNumber, req.Answers)
		if err != nil {
			writeQuizError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(struct {
			Ignored  bool                  `json:"ignored"`
			Result   *quiz.BlockResult     `json:"result,omitempty"`
			Progress quiz.ProgressSnapshot `json:"progress"`
		}{Ignored: res == nil, Result: res, Progress: snap})
	}
}

// RetryHandler resets the session: mode "all" restarts the attempt, mode
// "incorrect" re-opens only the missed items.
func RetryHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quizFile := chi.URLParam(r, "quizFile")
		var req struct {
			Mode string `json:"mode"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		var incorrectOnly bool
		switch req.Mode {
		case "all", "":
		case "incorrect":
			incorrectOnly = true
		default:
			http.Error(w, "mode must be all or incorrect", 400)
			return
		}
		view, err := svc.Retry(r.Context(), quizFile, incorrectOnly)
		if err != nil {
			writeQuizError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(view)
	}
}

func ReshuffleHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.Reshuffle(r.Context(), chi.URLParam(r, "quizFile"))
		if err != nil {
			writeQuizError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(view)
	}
}

func writeQuizError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, quiz.ErrUnavailable):
		http.Error(w, "quiz not available", 404)
	case errors.Is(err, quiz.ErrSessionNotFound):
		http.Error(w, err.Error(), 404)
	default:
		http.Error(w, err.Error(), 400)
	}
}
