package quiz

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Modality selects the grading discipline applied to a quiz.
type Modality string

const (
	ModalitySingleChoice Modality = "mcq"
	ModalityLab          Modality = "lab"
)

// Outcome of a single gradable item within an attempt. An item moves from
// Unchecked to Correct/Incorrect exactly once; only a retry reset moves it
// back.
type Outcome string

const (
	OutcomeUnchecked Outcome = "unchecked"
	OutcomeCorrect   Outcome = "correct"
	OutcomeIncorrect Outcome = "incorrect"
)

// Item types for lab sub-question parts.
const (
	TypeShortAnswer      = "short_answer"
	TypeMultiShortAnswer = "multi_short_answer"
	TypeKeywords         = "keywords"
	TypeMatchingCase     = "matching_case_study"
)

// Question is one single-choice item.
type Question struct {
	// SourceIndex is the item's stable identity within the quiz, assigned by
	// the loader from its position in the source file. It survives reshuffles,
	// so two questions with identical text stay distinguishable.
	SourceIndex int `json:"-"`

	Question      string            `json:"question"`
	Choices       map[string]string `json:"choices"`
	CorrectAnswer string            `json:"correctAnswer"`
	Reasoning     Reasoning         `json:"reasoning"`
	ImageURL      string            `json:"imageUrl,omitempty"`
	ImageSource   string            `json:"imageSource,omitempty"`

	// ChoiceOrder is the render order of the option keys. Reshuffle permutes
	// it per question; Choices itself is never mutated.
	ChoiceOrder []string `json:"-"`
}

type Reasoning struct {
	Correct   string            `json:"correct"`
	Incorrect map[string]string `json:"incorrect,omitempty"`
}

// LabBlock is one numbered lab question. Its gradable units are the leaf
// parts; plain blocks have one leaf per sub-question, matching_case_study
// blocks nest parts inside case groups.
type LabBlock struct {
	QuestionNumber string        `json:"questionNumber"`
	Type           string        `json:"type,omitempty"` // "" or matching_case_study
	Note           string        `json:"note,omitempty"`
	Reasoning      string        `json:"reasoning,omitempty"`
	SubQuestions   []SubQuestion `json:"subQuestions"`
}

// SubQuestion is either a gradable leaf (embedded Part) or, inside a
// matching_case_study block, a case description grouping its own Parts.
type SubQuestion struct {
	Part
	Case  string `json:"case,omitempty"`
	Parts []Part `json:"parts,omitempty"`
}

// Part is the smallest independently-checkable unit of a lab block.
type Part struct {
	ID          string     `json:"id"`
	Prompt      string     `json:"prompt,omitempty"`
	Type        string     `json:"type,omitempty"`
	Fields      FieldSpec  `json:"fields,omitempty"`
	Answer      AnswerSpec `json:"answer,omitempty"`
	AcceptAny   []int      `json:"acceptAny,omitempty"`
	Reasoning   string     `json:"reasoning,omitempty"`
	ImageURL    string     `json:"imageUrl,omitempty"`
	ImageSource string     `json:"imageSource,omitempty"`
}

// Blanks is the number of input fields the part expects.
func (p Part) Blanks() int {
	if n := p.Fields.Blanks(); n > 0 {
		return n
	}
	return 1
}

// FieldSpec mirrors the definition JSON, where "fields" is either a blank
// count or a list of blank labels.
type FieldSpec struct {
	Count  int
	Labels []string
}

func (f FieldSpec) Blanks() int {
	if len(f.Labels) > 0 {
		return len(f.Labels)
	}
	return f.Count
}

func (f *FieldSpec) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		f.Count = n
		return nil
	}
	var labels []string
	if err := json.Unmarshal(b, &labels); err == nil {
		f.Labels = labels
		return nil
	}
	return fmt.Errorf("fields: expected number or string array, got %s", string(b))
}

func (f FieldSpec) MarshalJSON() ([]byte, error) {
	if len(f.Labels) > 0 {
		return json.Marshal(f.Labels)
	}
	return json.Marshal(f.Count)
}

// KeywordSpec is the accepted-answer shape for keyword items: a list of
// required keywords, each optionally carrying |-delimited synonyms, and the
// minimum number that must be present.
type KeywordSpec struct {
	RequiredKeywords []string `json:"requiredKeywords"`
	RequiredCount    int      `json:"requiredCount"`
}

// AnswerSpec covers the accepted-answer encodings found in definition files:
// a single string, a flat list of alternatives, a per-blank array of either,
// or a keyword requirement object. A `|` has no special meaning here; only
// keyword entries carry |-delimited synonyms, split at grading time.
type AnswerSpec struct {
	Text     []string
	PerBlank [][]string
	Keywords *KeywordSpec
}

func (a *AnswerSpec) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if t := strings.TrimSpace(s); t != "" {
			a.Text = []string{t}
		}
		return nil
	}
	var kw KeywordSpec
	if err := json.Unmarshal(b, &kw); err == nil && len(kw.RequiredKeywords) > 0 {
		a.Keywords = &kw
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("answer: unrecognized shape %s", string(b))
	}
	perBlank := make([][]string, 0, len(raw))
	flat := make([]string, 0, len(raw))
	nested := false
	for _, r := range raw {
		var es string
		if err := json.Unmarshal(r, &es); err == nil {
			t := strings.TrimSpace(es)
			perBlank = append(perBlank, []string{t})
			flat = append(flat, t)
			continue
		}
		var list []string
		if err := json.Unmarshal(r, &list); err != nil {
			return fmt.Errorf("answer: unrecognized element %s", string(r))
		}
		nested = true
		alts := make([]string, 0, len(list))
		for _, e := range list {
			if t := strings.TrimSpace(e); t != "" {
				alts = append(alts, t)
			}
		}
		perBlank = append(perBlank, alts)
	}
	if nested {
		a.PerBlank = perBlank
		return nil
	}
	// A flat string list is ambiguous: alternatives for one blank, or one
	// accepted answer per blank. AcceptedFor resolves it against the blank
	// count at grading time.
	a.Text = flat
	a.PerBlank = perBlank
	return nil
}

func (a AnswerSpec) MarshalJSON() ([]byte, error) {
	switch {
	case a.Keywords != nil:
		return json.Marshal(a.Keywords)
	case len(a.PerBlank) > 0:
		return json.Marshal(a.PerBlank)
	case len(a.Text) == 1:
		return json.Marshal(a.Text[0])
	default:
		return json.Marshal(a.Text)
	}
}

// AcceptedFor returns the accepted alternatives for blank i of an item with
// the given blank count. Single-blank items accept any listed alternative;
// multi-blank items resolve per blank.
func (a AnswerSpec) AcceptedFor(i, blanks int) []string {
	if a.Keywords != nil {
		return nil
	}
	if blanks <= 1 {
		if len(a.Text) > 0 {
			return a.Text
		}
		if len(a.PerBlank) > 0 {
			return a.PerBlank[0]
		}
		return nil
	}
	if i < len(a.PerBlank) {
		return a.PerBlank[i]
	}
	return a.Text
}

// Display returns the canonical answer text revealed after grading: the first
// alternative of each blank, joined for multi-blank items.
func (a AnswerSpec) Display() string {
	if a.Keywords != nil {
		return strings.Join(a.Keywords.RequiredKeywords, ", ")
	}
	firsts := make([]string, 0, len(a.PerBlank))
	for _, alts := range a.PerBlank {
		if len(alts) > 0 {
			firsts = append(firsts, alts[0])
		}
	}
	if len(firsts) > 1 {
		return strings.Join(firsts, " / ")
	}
	if len(a.Text) > 0 {
		return a.Text[0]
	}
	if len(firsts) == 1 {
		return firsts[0]
	}
	return ""
}

// Definition is one loaded quiz file. Exactly one of Questions/Blocks is
// populated depending on the modality.
type Definition struct {
	Key       string
	Modality  Modality
	Questions []Question
	Blocks    []LabBlock
}

// TotalItems counts gradable atomic units: one per single-choice question,
// one per leaf part for lab quizzes.
func (d *Definition) TotalItems() int {
	if d.Modality == ModalitySingleChoice {
		return len(d.Questions)
	}
	n := 0
	for i := range d.Blocks {
		n += len(d.Blocks[i].GradableParts())
	}
	return n
}

// GradableParts flattens a block to its leaf parts, walking nested case-study
// groups.
func (b *LabBlock) GradableParts() []Part {
	var parts []Part
	for i := range b.SubQuestions {
		sq := &b.SubQuestions[i]
		if b.Type == TypeMatchingCase {
			parts = append(parts, sq.Parts...)
			continue
		}
		parts = append(parts, sq.Part)
	}
	return parts
}

// Block returns the lab block with the given question number.
func (d *Definition) Block(questionNumber string) (*LabBlock, bool) {
	for i := range d.Blocks {
		if d.Blocks[i].QuestionNumber == questionNumber {
			return &d.Blocks[i], true
		}
	}
	return nil, false
}
