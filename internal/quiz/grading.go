package quiz

import "fmt"

// Item is the minimal view of a gradable unit the engine needs. The session
// layer builds one from a Question or a lab Part.
type Item struct {
	Type      string // single_choice | short_answer | multi_short_answer | keywords
	Correct   string // single_choice: the correct option key
	Answer    AnswerSpec
	AcceptAny []int
	Blanks    int
}

const typeSingleChoice = "single_choice"

// Submission is the user input for one item.
type Submission struct {
	OptionKey string   // single_choice
	Values    []string // lab blanks, in field order
}

// Strategy decides correctness for one item type. Strategies are pure: they
// never touch session state.
type Strategy interface {
	Grade(item Item, in Submission) Outcome
}

// Grader routes by item type to the correct Strategy.
type Grader struct {
	strategies map[string]Strategy
}

// NewGrader installs the built-in strategies.
func NewGrader() *Grader {
	short := shortAnswerStrategy{}
	return &Grader{
		strategies: map[string]Strategy{
			typeSingleChoice:     singleChoiceStrategy{},
			TypeShortAnswer:      short,
			TypeMultiShortAnswer: short,
			TypeKeywords:         keywordStrategy{},
		},
	}
}

func (g *Grader) Grade(item Item, in Submission) (Outcome, error) {
	s, ok := g.strategies[item.Type]
	if !ok {
		return OutcomeUnchecked, fmt.Errorf("no grading strategy for item type %q", item.Type)
	}
	return s.Grade(item, in), nil
}

type singleChoiceStrategy struct{}

func (singleChoiceStrategy) Grade(item Item, in Submission) Outcome {
	if in.OptionKey == item.Correct {
		return OutcomeCorrect
	}
	return OutcomeIncorrect
}

// shortAnswerStrategy handles both short_answer and multi_short_answer: every
// blank must pass. Blanks flagged accept-any pass regardless of input; the
// rest pass when an accepted alternative is contained in the folded
// submission.
type shortAnswerStrategy struct{}

func (shortAnswerStrategy) Grade(item Item, in Submission) Outcome {
	for i := 0; i < item.Blanks; i++ {
		if acceptAny(item.AcceptAny, i) {
			continue
		}
		submitted := ""
		if i < len(in.Values) {
			submitted = in.Values[i]
		}
		if !containsAccepted(submitted, item.Answer.AcceptedFor(i, item.Blanks)) {
			return OutcomeIncorrect
		}
	}
	return OutcomeCorrect
}

// keywordStrategy scans every submitted value for the required keywords. A
// keyword counts as found when any of its |-delimited synonyms is a substring
// of any submitted value. Correct iff found >= the configured minimum, which
// may be below the keyword count (partial credit via threshold).
type keywordStrategy struct{}

func (keywordStrategy) Grade(item Item, in Submission) Outcome {
	spec := item.Answer.Keywords
	if spec == nil {
		return OutcomeIncorrect
	}
	found := map[string]struct{}{}
	for _, v := range in.Values {
		sub := fold(v)
		if sub == "" {
			continue
		}
		for _, kw := range spec.RequiredKeywords {
			for _, syn := range splitAlternatives(kw) {
				if containsAccepted(sub, []string{syn}) {
					found[kw] = struct{}{}
					break
				}
			}
		}
	}
	if len(found) >= spec.RequiredCount {
		return OutcomeCorrect
	}
	return OutcomeIncorrect
}

func acceptAny(idxs []int, i int) bool {
	for _, v := range idxs {
		if v == i {
			return true
		}
	}
	return false
}
