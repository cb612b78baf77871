package acquire

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tutorstack/tutorctl/internal/model"
)

// ErrSkipped reports that the operator chose to continue without a model.
var ErrSkipped = errors.New("selection skipped")

// Choice is one round of operator input for Decide.
type Choice struct {
	Index  int    // 1-based position in the candidate list
	Custom string // free-form model name, used when Index is zero
	Skip   bool
}

// Candidates turns configured model names into descriptors for the menu.
func Candidates(names []string) []model.ModelDescriptor {
	descs := make([]model.ModelDescriptor, 0, len(names))
	for _, name := range names {
		descs = append(descs, model.ModelDescriptor{
			RequestedName: name,
			SizeClass:     model.SizeClassFor(name),
		})
	}
	return descs
}

// Decide maps one round of input onto the candidate list. It is pure so the
// selection rules are testable without a terminal; TerminalChooser adapts a
// live prompt into a Choice.
func Decide(candidates []model.ModelDescriptor, c Choice) (model.ModelDescriptor, error) {
	if c.Skip {
		return model.ModelDescriptor{}, ErrSkipped
	}
	if c.Index > 0 {
		if c.Index > len(candidates) {
			return model.ModelDescriptor{}, fmt.Errorf("choice %d out of range (1-%d)", c.Index, len(candidates))
		}
		return candidates[c.Index-1], nil
	}
	custom := strings.TrimSpace(c.Custom)
	if custom == "" {
		return model.ModelDescriptor{}, errors.New("model name is empty")
	}
	return model.ModelDescriptor{
		RequestedName: custom,
		SizeClass:     model.SizeClassFor(custom),
	}, nil
}
