package quiz

// ProgressSnapshot is the aggregate view consumed by progress displays. One
// snapshot is published after every state-mutating operation.
type ProgressSnapshot struct {
	QuizFile     string  `json:"quizFile"`
	Answered     int     `json:"answered"`
	Total        int     `json:"total"`
	Correct      int     `json:"correct"`
	Incorrect    int     `json:"incorrect"`
	Remaining    int     `json:"remaining"`
	Percent      float64 `json:"percent"`
	HasIncorrect bool    `json:"hasIncorrect"`
}

// ProgressSink receives snapshots. Implementations must not block the
// caller for long; grading happens on the request path.
type ProgressSink interface {
	Publish(ProgressSnapshot)
}

// Progress builds the current snapshot.
func (s *Session) Progress() ProgressSnapshot {
	pct := 0.0
	if s.Total > 0 {
		pct = float64(s.Answered) / float64(s.Total) * 100
	}
	return ProgressSnapshot{
		QuizFile:     s.Key,
		Answered:     s.Answered,
		Total:        s.Total,
		Correct:      s.Correct,
		Incorrect:    s.Incorrect,
		Remaining:    s.Total - s.Answered,
		Percent:      pct,
		HasIncorrect: len(s.IncorrectIndices) > 0 || len(s.IncorrectBlocks) > 0,
	}
}

func (s *Session) publishProgress() {
	if s.sink != nil {
		s.sink.Publish(s.Progress())
	}
}
