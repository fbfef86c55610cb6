package quiz

import (
	"context"
	"fmt"
	"strconv"

	"github.com/topaz-quiz/quizd/internal/store"
)

// ItemOutcome is the graded state of one item, plus the raw submitted values
// kept for re-display after a reload.
type ItemOutcome struct {
	Status     Outcome  `json:"status"`
	UserAnswer []string `json:"userAnswer,omitempty"`
}

// Session is one live attempt at a quiz, keyed by the quiz file name. All
// counter mutations run through the submit and retry entry points, which keep
// the invariant Answered == Correct+Incorrect <= Total and score each item at
// most once per attempt.
//
// A Session is not self-synchronizing; the owning Service serializes access.
type Session struct {
	Key         string
	Modality    Modality
	ContainerID string

	Total     int
	Answered  int
	Correct   int
	Incorrect int

	// Outcomes maps item identity (source index for single-choice, part id
	// for lab) to its graded state.
	Outcomes map[string]*ItemOutcome

	// IncorrectIndices / IncorrectBlocks scope "retry incorrect": source
	// indices of missed single-choice items, question numbers of lab blocks
	// with at least one missed part.
	IncorrectIndices []int
	IncorrectBlocks  []string

	source  *Definition
	working *Definition
	grader  *Grader
	store   *store.Adapter
	sink    ProgressSink
}

// persistedSession is the storage record: counters and outcomes only, never
// the definition arrays.
type persistedSession struct {
	Type             Modality                `json:"type"`
	TotalQuestions   int                     `json:"totalQuestions"`
	Answered         int                     `json:"answered"`
	Correct          int                     `json:"correct"`
	Incorrect        int                     `json:"incorrect"`
	IncorrectIndices []int                   `json:"incorrectIndices,omitempty"`
	IncorrectBlocks  []string                `json:"incorrectQuestionBlocks,omitempty"`
	UserAnswers      map[string]*ItemOutcome `json:"userAnswers,omitempty"` // single-choice
	Answers          map[string]*ItemOutcome `json:"answers,omitempty"`    // lab
	ContainerID      string                  `json:"containerId,omitempty"`
	QuizFile         string                  `json:"quizFile"`
}

// NewSession creates a fresh attempt: all outcomes unchecked, counters zero.
func NewSession(def *Definition, containerID string, adapter *store.Adapter, grader *Grader, sink ProgressSink) *Session {
	s := &Session{
		Key:         def.Key,
		Modality:    def.Modality,
		ContainerID: containerID,
		Total:       def.TotalItems(),
		source:      def,
		working:     cloneDefinition(def),
		grader:      grader,
		store:       adapter,
		sink:        sink,
	}
	s.resetOutcomes()
	return s
}

// Rehydrate reconstructs a session from the persisted record for def.Key,
// merging stored counters and outcomes with the freshly loaded definition.
// Returns false when nothing usable is persisted, signaling the caller to
// start fresh.
func Rehydrate(ctx context.Context, adapter *store.Adapter, grader *Grader, sink ProgressSink, def *Definition) (*Session, bool) {
	var rec persistedSession
	if !adapter.Load(ctx, def.Key, &rec) {
		return nil, false
	}
	s := NewSession(def, rec.ContainerID, adapter, grader, sink)
	if rec.Type != s.Modality || rec.TotalQuestions != s.Total {
		// Stale record for a changed quiz file; treat as absent.
		return nil, false
	}
	saved := rec.UserAnswers
	if s.Modality == ModalityLab {
		saved = rec.Answers
	}
	for id, out := range saved {
		if out == nil {
			continue
		}
		if cur, ok := s.Outcomes[id]; ok {
			cur.Status = out.Status
			cur.UserAnswer = out.UserAnswer
		}
	}
	s.Answered = rec.Answered
	s.Correct = rec.Correct
	s.Incorrect = rec.Incorrect
	s.IncorrectIndices = append([]int(nil), rec.IncorrectIndices...)
	s.IncorrectBlocks = append([]string(nil), rec.IncorrectBlocks...)
	if s.Answered != s.Correct+s.Incorrect || s.Answered > s.Total {
		return nil, false
	}
	return s, true
}

// Persist writes the serializable record under the session key. Best-effort:
// a storage failure never affects the in-memory session.
func (s *Session) Persist(ctx context.Context) {
	rec := persistedSession{
		Type:             s.Modality,
		TotalQuestions:   s.Total,
		Answered:         s.Answered,
		Correct:          s.Correct,
		Incorrect:        s.Incorrect,
		IncorrectIndices: s.IncorrectIndices,
		IncorrectBlocks:  s.IncorrectBlocks,
		ContainerID:      s.ContainerID,
		QuizFile:         s.Key,
	}
	if s.Modality == ModalitySingleChoice {
		rec.UserAnswers = s.Outcomes
	} else {
		rec.Answers = s.Outcomes
	}
	s.store.Save(ctx, s.Key, rec)
}

// ChoiceResult is the grading feedback for one single-choice submission,
// revealed only after the item is graded.
type ChoiceResult struct {
	SourceIndex   int       `json:"sourceIndex"`
	Outcome       Outcome   `json:"outcome"`
	CorrectAnswer string    `json:"correctAnswer"`
	Reasoning     Reasoning `json:"reasoning"`
}

// SubmitChoice grades the working-order item at index idx against the
// selected option key. Empty selections and already-graded items are declined
// without error or state change; the nil result reports that nothing
// happened.
func (s *Session) SubmitChoice(ctx context.Context, idx int, optionKey string) (*ChoiceResult, error) {
	if s.Modality != ModalitySingleChoice {
		return nil, ErrWrongModality
	}
	if idx < 0 || idx >= len(s.working.Questions) {
		return nil, fmt.Errorf("question index %d out of range", idx)
	}
	if optionKey == "" {
		return nil, nil
	}
	q := &s.working.Questions[idx]
	if _, ok := q.Choices[optionKey]; !ok {
		return nil, fmt.Errorf("unknown option %q for question %d", optionKey, idx)
	}
	id := itemKey(q.SourceIndex)
	out := s.Outcomes[id]
	if out.Status != OutcomeUnchecked {
		return nil, nil
	}

	outcome, err := s.grader.Grade(Item{Type: typeSingleChoice, Correct: q.CorrectAnswer}, Submission{OptionKey: optionKey})
	if err != nil {
		return nil, err
	}
	out.Status = outcome
	out.UserAnswer = []string{optionKey}
	s.Answered++
	if outcome == OutcomeCorrect {
		s.Correct++
	} else {
		s.Incorrect++
		s.markIncorrectIndex(q.SourceIndex)
	}
	s.Persist(ctx)
	s.publishProgress()

	return &ChoiceResult{
		SourceIndex:   q.SourceIndex,
		Outcome:       outcome,
		CorrectAnswer: q.CorrectAnswer,
		Reasoning:     q.Reasoning,
	}, nil
}

// PartResult is the grading feedback for one lab part.
type PartResult struct {
	ID            string  `json:"id"`
	Outcome       Outcome `json:"outcome"`
	CorrectAnswer string  `json:"correctAnswer,omitempty"`
	Reasoning     string  `json:"reasoning,omitempty"`
}

// BlockResult is the grading feedback for one checked lab block.
type BlockResult struct {
	QuestionNumber string       `json:"questionNumber"`
	Parts          []PartResult `json:"parts"`
	Reasoning      string       `json:"reasoning,omitempty"`
	Incorrect      bool         `json:"incorrect"`
}

// SubmitLab grades every still-unchecked part of a lab block with the given
// per-part values. Parts graded in an earlier check keep their outcome and
// counters. A submission with no input at all is declined; individual blanks
// left empty within a real submission are graded normally and fail their
// checks.
func (s *Session) SubmitLab(ctx context.Context, questionNumber string, values map[string][]string) (*BlockResult, error) {
	if s.Modality != ModalityLab {
		return nil, ErrWrongModality
	}
	block, ok := s.source.Block(questionNumber)
	if !ok {
		return nil, fmt.Errorf("no such question block %q", questionNumber)
	}

	parts := block.GradableParts()
	unchecked := parts[:0:0]
	for _, p := range parts {
		if s.Outcomes[p.ID].Status == OutcomeUnchecked {
			unchecked = append(unchecked, p)
		}
	}
	if len(unchecked) == 0 || !anyInput(unchecked, values) {
		return nil, nil
	}

	res := &BlockResult{QuestionNumber: questionNumber, Reasoning: block.Reasoning}
	blockIncorrect := false
	for _, p := range unchecked {
		in := Submission{Values: values[p.ID]}
		outcome, err := s.grader.Grade(Item{
			Type:      p.Type,
			Answer:    p.Answer,
			AcceptAny: p.AcceptAny,
			Blanks:    p.Blanks(),
		}, in)
		if err != nil {
			return nil, err
		}
		out := s.Outcomes[p.ID]
		out.Status = outcome
		out.UserAnswer = append([]string(nil), in.Values...)
		s.Answered++
		if outcome == OutcomeCorrect {
			s.Correct++
		} else {
			s.Incorrect++
			blockIncorrect = true
		}
		res.Parts = append(res.Parts, PartResult{
			ID:            p.ID,
			Outcome:       outcome,
			CorrectAnswer: p.Answer.Display(),
			Reasoning:     p.Reasoning,
		})
	}
	if blockIncorrect {
		s.markIncorrectBlock(questionNumber)
		res.Incorrect = true
	}
	s.Persist(ctx)
	s.publishProgress()
	return res, nil
}

func (s *Session) markIncorrectIndex(idx int) {
	for _, v := range s.IncorrectIndices {
		if v == idx {
			return
		}
	}
	s.IncorrectIndices = append(s.IncorrectIndices, idx)
}

func (s *Session) markIncorrectBlock(num string) {
	for _, v := range s.IncorrectBlocks {
		if v == num {
			return
		}
	}
	s.IncorrectBlocks = append(s.IncorrectBlocks, num)
}

func (s *Session) resetOutcomes() {
	s.Answered, s.Correct, s.Incorrect = 0, 0, 0
	s.IncorrectIndices = nil
	s.IncorrectBlocks = nil
	s.Outcomes = map[string]*ItemOutcome{}
	if s.Modality == ModalitySingleChoice {
		for i := range s.source.Questions {
			s.Outcomes[itemKey(s.source.Questions[i].SourceIndex)] = &ItemOutcome{Status: OutcomeUnchecked}
		}
		return
	}
	for i := range s.source.Blocks {
		for _, p := range s.source.Blocks[i].GradableParts() {
			s.Outcomes[p.ID] = &ItemOutcome{Status: OutcomeUnchecked}
		}
	}
}

func anyInput(parts []Part, values map[string][]string) bool {
	for _, p := range parts {
		for _, v := range values[p.ID] {
			if fold(v) != "" {
				return true
			}
		}
	}
	return false
}

func itemKey(sourceIndex int) string {
	return strconv.Itoa(sourceIndex)
}

func cloneDefinition(def *Definition) *Definition {
	cp := &Definition{Key: def.Key, Modality: def.Modality, Blocks: def.Blocks}
	if len(def.Questions) > 0 {
		cp.Questions = make([]Question, len(def.Questions))
		copy(cp.Questions, def.Questions)
		for i := range cp.Questions {
			cp.Questions[i].ChoiceOrder = append([]string(nil), def.Questions[i].ChoiceOrder...)
		}
	}
	return cp
}
