package quiz

import (
	"context"
	"errors"
	"sync"

	"github.com/topaz-quiz/quizd/internal/store"
)

var (
	// ErrSessionNotFound: the quiz has not been opened yet.
	ErrSessionNotFound = errors.New("no active session for quiz")
	// ErrWrongModality: the operation does not apply to the session's quiz type.
	ErrWrongModality = errors.New("operation does not apply to this quiz modality")
)

// Service owns the active sessions, one per quiz file. It serializes all
// session mutations behind a single mutex; grading and retry operations are
// short and synchronous.
type Service struct {
	mu       sync.Mutex
	loader   *Loader
	store    *store.Adapter
	grader   *Grader
	sink     ProgressSink
	sessions map[string]*Session
}

type ServiceOption func(*Service)

// WithProgressSink attaches a consumer for progress snapshots.
func WithProgressSink(sink ProgressSink) ServiceOption {
	return func(s *Service) { s.sink = sink }
}

func NewService(loader *Loader, adapter *store.Adapter, opts ...ServiceOption) *Service {
	s := &Service{
		loader:   loader,
		store:    adapter,
		grader:   NewGrader(),
		sessions: map[string]*Session{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Open loads the definition for quizFile and binds a session to it:
// rehydrated from storage when a usable record exists, fresh otherwise. The
// definition fetch completes before any session state is touched; a fetch
// failure surfaces as ErrUnavailable and no session is created.
func (svc *Service) Open(ctx context.Context, quizFile string, modality Modality, containerID string) (SessionView, error) {
	def, err := svc.loader.Load(ctx, quizFile, modality)
	if err != nil {
		return SessionView{}, err
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()
	sess, ok := Rehydrate(ctx, svc.store, svc.grader, svc.sink, def)
	if !ok {
		sess = NewSession(def, containerID, svc.store, svc.grader, svc.sink)
	}
	if containerID != "" {
		sess.ContainerID = containerID
	}
	svc.sessions[quizFile] = sess
	sess.publishProgress()
	return sess.View(), nil
}

// View returns the current session snapshot without grading anything.
func (svc *Service) View(quizFile string) (SessionView, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	sess, err := svc.session(quizFile)
	if err != nil {
		return SessionView{}, err
	}
	return sess.View(), nil
}

// SubmitChoice grades one single-choice item. A nil result means the
// submission was declined (empty selection or already graded).
func (svc *Service) SubmitChoice(ctx context.Context, quizFile string, idx int, optionKey string) (*ChoiceResult, ProgressSnapshot, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	sess, err := svc.session(quizFile)
	if err != nil {
		return nil, ProgressSnapshot{}, err
	}
	res, err := sess.SubmitChoice(ctx, idx, optionKey)
	return res, sess.Progress(), err
}

// SubmitLab grades the unchecked parts of one lab block.
func (svc *Service) SubmitLab(ctx context.Context, quizFile, questionNumber string, values map[string][]string) (*BlockResult, ProgressSnapshot, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	sess, err := svc.session(quizFile)
	if err != nil {
		return nil, ProgressSnapshot{}, err
	}
	res, err := sess.SubmitLab(ctx, questionNumber, values)
	return res, sess.Progress(), err
}

// Retry resets the session: every item for mode "all", only the missed ones
// for mode "incorrect".
func (svc *Service) Retry(ctx context.Context, quizFile string, incorrectOnly bool) (SessionView, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	sess, err := svc.session(quizFile)
	if err != nil {
		return SessionView{}, err
	}
	if incorrectOnly {
		sess.RetryIncorrect(ctx)
	} else {
		sess.RetryAll(ctx)
	}
	return sess.View(), nil
}

// Reshuffle permutes the working order of a single-choice quiz and restarts
// the attempt.
func (svc *Service) Reshuffle(ctx context.Context, quizFile string) (SessionView, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	sess, err := svc.session(quizFile)
	if err != nil {
		return SessionView{}, err
	}
	if err := sess.Reshuffle(ctx); err != nil {
		return SessionView{}, err
	}
	return sess.View(), nil
}

func (svc *Service) session(quizFile string) (*Session, error) {
	sess, ok := svc.sessions[quizFile]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}
