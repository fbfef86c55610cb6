package quiz

import (
	"context"
	"math/rand"
)

// RetryAll resets every item to unchecked and discards the persisted record.
// The working order is preserved: a prior reshuffle is only undone by an
// explicit reshuffle, never by a plain retry.
func (s *Session) RetryAll(ctx context.Context) {
	s.store.Delete(ctx, s.Key)
	s.resetOutcomes()
	s.publishProgress()
}

// RetryIncorrect resets only the currently-incorrect items back to unchecked,
// rolling their counters back one step each. Correct and never-answered items
// are untouched. For lab quizzes the unit of retry is the whole question
// block: every checked part of an incorrect block is reset.
func (s *Session) RetryIncorrect(ctx context.Context) {
	switch s.Modality {
	case ModalitySingleChoice:
		for _, srcIdx := range s.IncorrectIndices {
			out := s.Outcomes[itemKey(srcIdx)]
			if out == nil || out.Status == OutcomeUnchecked {
				continue
			}
			s.Answered--
			if out.Status == OutcomeIncorrect {
				s.Incorrect--
			} else {
				s.Correct--
			}
			out.Status = OutcomeUnchecked
			out.UserAnswer = nil
		}
		s.IncorrectIndices = nil
	case ModalityLab:
		for _, num := range s.IncorrectBlocks {
			block, ok := s.source.Block(num)
			if !ok {
				continue
			}
			for _, p := range block.GradableParts() {
				out := s.Outcomes[p.ID]
				if out == nil || out.Status == OutcomeUnchecked {
					continue
				}
				s.Answered--
				if out.Status == OutcomeIncorrect {
					s.Incorrect--
				} else {
					s.Correct--
				}
				out.Status = OutcomeUnchecked
				out.UserAnswer = nil
			}
		}
		s.IncorrectBlocks = nil
	}
	s.Persist(ctx)
	s.publishProgress()
}

// Reshuffle applies a uniform random permutation to the question order and,
// independently, to each question's choice order, then starts the attempt
// over. The source definition keeps its original order; item identities are
// carried by SourceIndex, so the persisted record for this key is simply
// discarded. Single-choice only.
func (s *Session) Reshuffle(ctx context.Context) error {
	if s.Modality != ModalitySingleChoice {
		return ErrWrongModality
	}
	qs := s.working.Questions
	rand.Shuffle(len(qs), func(i, j int) { qs[i], qs[j] = qs[j], qs[i] })
	for i := range qs {
		order := qs[i].ChoiceOrder
		rand.Shuffle(len(order), func(a, b int) { order[a], order[b] = order[b], order[a] })
	}
	s.store.Delete(ctx, s.Key)
	s.resetOutcomes()
	s.publishProgress()
	return nil
}
