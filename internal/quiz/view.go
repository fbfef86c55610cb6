package quiz

// View types: what the rendering layer sees. Answer keys, rationale and
// keyword requirements stay server-side until an item is graded.

type ChoiceView struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

type QuestionView struct {
	Index       int          `json:"index"` // position in working order
	SourceIndex int          `json:"sourceIndex"`
	Question    string       `json:"question"`
	Choices     []ChoiceView `json:"choices"`
	ImageURL    string       `json:"imageUrl,omitempty"`
	ImageSource string       `json:"imageSource,omitempty"`
}

type PartView struct {
	ID     string   `json:"id"`
	Prompt string   `json:"prompt,omitempty"`
	Type   string   `json:"type"`
	Blanks int      `json:"blanks"`
	Labels []string `json:"labels,omitempty"`
}

type CaseView struct {
	ID    string     `json:"id"`
	Case  string     `json:"case,omitempty"`
	Parts []PartView `json:"parts"`
}

type BlockView struct {
	QuestionNumber string     `json:"questionNumber"`
	Note           string     `json:"note,omitempty"`
	Parts          []PartView `json:"parts,omitempty"`
	Cases          []CaseView `json:"cases,omitempty"`
}

type SessionView struct {
	QuizFile    string                  `json:"quizFile"`
	Modality    Modality                `json:"type"`
	ContainerID string                  `json:"containerId,omitempty"`
	Progress    ProgressSnapshot        `json:"progress"`
	Outcomes    map[string]*ItemOutcome `json:"outcomes"`
	Questions   []QuestionView          `json:"questions,omitempty"`
	Blocks      []BlockView             `json:"blocks,omitempty"`
}

// View renders the session in working order with answer keys stripped. The
// returned value shares nothing mutable with the session: callers encode it
// after the service lock is released, while submissions keep mutating the
// live outcome map.
func (s *Session) View() SessionView {
	outcomes := make(map[string]*ItemOutcome, len(s.Outcomes))
	for id, out := range s.Outcomes {
		cp := &ItemOutcome{Status: out.Status}
		cp.UserAnswer = append([]string(nil), out.UserAnswer...)
		outcomes[id] = cp
	}
	v := SessionView{
		QuizFile:    s.Key,
		Modality:    s.Modality,
		ContainerID: s.ContainerID,
		Progress:    s.Progress(),
		Outcomes:    outcomes,
	}
	if s.Modality == ModalitySingleChoice {
		for i := range s.working.Questions {
			q := &s.working.Questions[i]
			qv := QuestionView{
				Index:       i,
				SourceIndex: q.SourceIndex,
				Question:    q.Question,
				ImageURL:    q.ImageURL,
				ImageSource: q.ImageSource,
			}
			for _, key := range q.ChoiceOrder {
				qv.Choices = append(qv.Choices, ChoiceView{Key: key, Text: q.Choices[key]})
			}
			v.Questions = append(v.Questions, qv)
		}
		return v
	}
	for i := range s.working.Blocks {
		b := &s.working.Blocks[i]
		bv := BlockView{QuestionNumber: b.QuestionNumber, Note: b.Note}
		for j := range b.SubQuestions {
			sq := &b.SubQuestions[j]
			if b.Type == TypeMatchingCase {
				cv := CaseView{ID: sq.ID, Case: sq.Case}
				for _, p := range sq.Parts {
					cv.Parts = append(cv.Parts, partView(p))
				}
				bv.Cases = append(bv.Cases, cv)
				continue
			}
			bv.Parts = append(bv.Parts, partView(sq.Part))
		}
		v.Blocks = append(v.Blocks, bv)
	}
	return v
}

func partView(p Part) PartView {
	return PartView{
		ID:     p.ID,
		Prompt: p.Prompt,
		Type:   p.Type,
		Blanks: p.Blanks(),
		Labels: p.Fields.Labels,
	}
}
