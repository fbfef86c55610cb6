package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrUnavailable marks every definition failure the view layer renders as the
// "quiz not available" placeholder: missing file, malformed JSON, empty quiz.
var ErrUnavailable = errors.New("quiz unavailable")

// Source fetches raw quiz definition files by name.
type Source interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// DirSource reads definitions from a local directory.
type DirSource struct {
	base string
}

func NewDirSource(base string) *DirSource {
	if base == "" {
		base = "./quizzes"
	}
	return &DirSource{base: base}
}

func (s *DirSource) Fetch(_ context.Context, name string) ([]byte, error) {
	// Names are plain file names; anything with a separator or a dot segment
	// could escape the quiz directory.
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("invalid quiz file name %q", name)
	}
	return os.ReadFile(filepath.Join(s.base, name))
}

// HTTPSource fetches definitions from a static asset base URL.
type HTTPSource struct {
	base   string
	client *http.Client
}

func NewHTTPSource(base string, client *http.Client) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{base: base, client: client}
}

func (s *HTTPSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	u, err := url.JoinPath(s.base, name)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", name, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// Loader fetches, parses and validates quiz definitions. It also assigns the
// stable per-item identities the session layer keys outcomes by.
type Loader struct {
	src Source
}

func NewLoader(src Source) *Loader {
	return &Loader{src: src}
}

// Load returns the definition for a quiz file, or an error wrapping
// ErrUnavailable when no session should be created.
func (l *Loader) Load(ctx context.Context, name string, modality Modality) (*Definition, error) {
	raw, err := l.src.Fetch(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	def := &Definition{Key: name, Modality: modality}
	switch modality {
	case ModalitySingleChoice:
		if err := json.Unmarshal(raw, &def.Questions); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", ErrUnavailable, name, err)
		}
		if len(def.Questions) == 0 {
			return nil, fmt.Errorf("%w: %s is empty", ErrUnavailable, name)
		}
		for i := range def.Questions {
			q := &def.Questions[i]
			q.SourceIndex = i
			q.ChoiceOrder = sortedChoiceKeys(q.Choices)
			if q.CorrectAnswer == "" {
				return nil, fmt.Errorf("%w: %s question %d has no answer key", ErrUnavailable, name, i)
			}
			if _, ok := q.Choices[q.CorrectAnswer]; !ok {
				return nil, fmt.Errorf("%w: %s question %d: answer key %q is not a choice", ErrUnavailable, name, i, q.CorrectAnswer)
			}
		}
	case ModalityLab:
		if err := json.Unmarshal(raw, &def.Blocks); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", ErrUnavailable, name, err)
		}
		if len(def.Blocks) == 0 {
			return nil, fmt.Errorf("%w: %s is empty", ErrUnavailable, name)
		}
		if err := validateBlocks(def.Blocks); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, name, err)
		}
	default:
		return nil, fmt.Errorf("unknown quiz modality %q", modality)
	}
	return def, nil
}

func validateBlocks(blocks []LabBlock) error {
	seen := map[string]string{}
	for i := range blocks {
		b := &blocks[i]
		if b.QuestionNumber == "" {
			return fmt.Errorf("block %d has no questionNumber", i)
		}
		parts := b.GradableParts()
		if len(parts) == 0 {
			return fmt.Errorf("question %s has no gradable parts", b.QuestionNumber)
		}
		for _, p := range parts {
			if p.ID == "" {
				return fmt.Errorf("question %s has a part without an id", b.QuestionNumber)
			}
			if prev, dup := seen[p.ID]; dup {
				return fmt.Errorf("part id %q appears in both question %s and %s", p.ID, prev, b.QuestionNumber)
			}
			seen[p.ID] = b.QuestionNumber
			switch p.Type {
			case TypeShortAnswer, TypeMultiShortAnswer:
			case TypeKeywords:
				if p.Answer.Keywords == nil {
					return fmt.Errorf("part %s: keywords item without requiredKeywords", p.ID)
				}
			default:
				return fmt.Errorf("part %s: unknown type %q", p.ID, p.Type)
			}
		}
	}
	return nil
}

func sortedChoiceKeys(choices map[string]string) []string {
	keys := make([]string, 0, len(choices))
	for k := range choices {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
