package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	api "github.com/topaz-quiz/quizd/internal/api/http"
	"github.com/topaz-quiz/quizd/internal/nav"
	"github.com/topaz-quiz/quizd/internal/quiz"
	"github.com/topaz-quiz/quizd/internal/store"
)

type mapSource map[string][]byte

func (m mapSource) Fetch(_ context.Context, name string) ([]byte, error) {
	b, ok := m[name]
	if !ok {
		return nil, errors.New("not found: " + name)
	}
	return b, nil
}

const mcqJSON = `[
  {"question":"First-line drug for strep throat?",
   "choices":{"A":"Amoxicillin","B":"Vancomycin"},
   "correctAnswer":"A",
   "reasoning":{"correct":"Penicillins are first line."}},
  {"question":"Which is an aminoglycoside?",
   "choices":{"A":"Azithromycin","B":"Gentamicin"},
   "correctAnswer":"B",
   "reasoning":{"correct":"Gentamicin is one."}}
]`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	loader := quiz.NewLoader(mapSource{"pharma1.json": []byte(mcqJSON)})
	adapter := store.NewAdapter(store.NewMemoryBackend())
	svc := quiz.NewService(loader, adapter)
	tracker := nav.NewTracker(adapter)

	r := chi.NewRouter()
	r.Route("/quizzes/{quizFile}", func(qr chi.Router) {
		qr.Post("/open", api.OpenQuizHandler(svc))
		qr.Get("/session", api.GetSessionHandler(svc))
		qr.Post("/answers/choice", api.SubmitChoiceHandler(svc))
		qr.Post("/answers/lab", api.SubmitLabHandler(svc))
		qr.Post("/retry", api.RetryHandler(svc))
		qr.Post("/reshuffle", api.ReshuffleHandler(svc))
	})
	r.Get("/nav", api.GetNavHandler(tracker))
	r.Put("/nav", api.SetNavHandler(tracker))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body interface{}, out interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp
}

func TestOpenGradeRetryFlow(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL + "/quizzes/pharma1.json"

	var view quiz.SessionView
	resp := doJSON(t, "POST", base+"/open", map[string]string{"type": "mcq", "containerId": "pharmaQuizContainer"}, &view)
	if resp.StatusCode != 200 {
		t.Fatalf("open status %d", resp.StatusCode)
	}
	if view.Progress.Total != 2 || len(view.Questions) != 2 {
		t.Fatalf("view %+v", view)
	}

	var graded struct {
		Ignored  bool                  `json:"ignored"`
		Result   *quiz.ChoiceResult    `json:"result"`
		Progress quiz.ProgressSnapshot `json:"progress"`
	}
	doJSON(t, "POST", base+"/answers/choice", map[string]interface{}{"itemIndex": 0, "optionKey": "B"}, &graded)
	if graded.Ignored || graded.Result == nil {
		t.Fatalf("graded %+v", graded)
	}
	if graded.Result.Outcome != quiz.OutcomeIncorrect || graded.Result.CorrectAnswer != "A" {
		t.Fatalf("result %+v", graded.Result)
	}
	if graded.Progress.Incorrect != 1 || !graded.Progress.HasIncorrect {
		t.Fatalf("progress %+v", graded.Progress)
	}

	// Re-submitting the same item is ignored.
	doJSON(t, "POST", base+"/answers/choice", map[string]interface{}{"itemIndex": 0, "optionKey": "A"}, &graded)
	if !graded.Ignored || graded.Progress.Answered != 1 {
		t.Fatalf("resubmit %+v", graded)
	}

	doJSON(t, "POST", base+"/retry", map[string]string{"mode": "incorrect"}, &view)
	if view.Progress.Answered != 0 || view.Progress.HasIncorrect {
		t.Fatalf("after retry %+v", view.Progress)
	}

	// The item is answerable again.
	doJSON(t, "POST", base+"/answers/choice", map[string]interface{}{"itemIndex": 0, "optionKey": "A"}, &graded)
	if graded.Ignored || graded.Result.Outcome != quiz.OutcomeCorrect {
		t.Fatalf("regrade %+v", graded)
	}
}

func TestOpenUnavailableQuiz(t *testing.T) {
	srv := newTestServer(t)
	resp := doJSON(t, "POST", srv.URL+"/quizzes/missing.json/open", map[string]string{"type": "mcq"}, nil)
	if resp.StatusCode != 404 {
		t.Fatalf("status %d, want 404", resp.StatusCode)
	}
}

func TestSubmitWithoutSession(t *testing.T) {
	srv := newTestServer(t)
	resp := doJSON(t, "POST", srv.URL+"/quizzes/pharma1.json/answers/choice",
		map[string]interface{}{"itemIndex": 0, "optionKey": "A"}, nil)
	if resp.StatusCode != 404 {
		t.Fatalf("status %d, want 404", resp.StatusCode)
	}
}

func TestSessionViewHidesAnswerKeys(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL + "/quizzes/pharma1.json"
	doJSON(t, "POST", base+"/open", map[string]string{"type": "mcq"}, nil)

	resp := doJSON(t, "GET", base+"/session", nil, nil)
	var raw map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		t.Fatal(err)
	}
	buf, _ := json.Marshal(raw)
	if bytes.Contains(buf, []byte("correctAnswer")) || bytes.Contains(buf, []byte("reasoning")) {
		t.Fatal("session view leaks answer keys")
	}
}

func TestReshuffleEndpoint(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL + "/quizzes/pharma1.json"
	doJSON(t, "POST", base+"/open", map[string]string{"type": "mcq"}, nil)

	var view quiz.SessionView
	resp := doJSON(t, "POST", base+"/reshuffle", nil, &view)
	if resp.StatusCode != 200 {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if view.Progress.Total != 2 || view.Progress.Answered != 0 {
		t.Fatalf("view after reshuffle %+v", view.Progress)
	}
}

func TestNavRecordRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, "GET", srv.URL+"/nav", nil, nil)
	if resp.StatusCode != 404 {
		t.Fatalf("fresh nav status %d, want 404", resp.StatusCode)
	}

	resp = doJSON(t, "PUT", srv.URL+"/nav", nav.Record{PageID: "pharmacologyContent", QuizFile: "pharma1.json"}, nil)
	if resp.StatusCode != 204 {
		t.Fatalf("put status %d", resp.StatusCode)
	}

	var rec nav.Record
	resp = doJSON(t, "GET", srv.URL+"/nav", nil, &rec)
	if resp.StatusCode != 200 || rec.PageID != "pharmacologyContent" || rec.QuizFile != "pharma1.json" {
		t.Fatalf("got %d %+v", resp.StatusCode, rec)
	}
}
