package acquire

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"

	"github.com/tutorstack/tutorctl/internal/model"
)

const (
	pickCustom = "custom"
	pickSkip   = "skip"
)

// TerminalChooser renders the candidate menu on a live terminal and adapts
// the answer into a Choice.
func TerminalChooser(candidates []model.ModelDescriptor, allowCustom bool) (Choice, error) {
	options := make([]huh.Option[string], 0, len(candidates)+2)
	for i, c := range candidates {
		label := fmt.Sprintf("%s (%s)", c.RequestedName, c.SizeClass)
		options = append(options, huh.NewOption(label, strconv.Itoa(i+1)))
	}
	if allowCustom {
		options = append(options, huh.NewOption("Enter another model name", pickCustom))
	}
	options = append(options, huh.NewOption("Skip for now", pickSkip))

	var picked string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Embedding model").
				Description("Used to vectorize your documents for retrieval.").
				Options(options...).
				Value(&picked),
		),
	)
	if err := form.Run(); err != nil {
		return Choice{}, err
	}

	switch picked {
	case pickSkip:
		return Choice{Skip: true}, nil
	case pickCustom:
		var custom string
		input := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Model name").
					Description("Any model from the Ollama library.").
					Placeholder("nomic-embed-text").
					Value(&custom),
			),
		)
		if err := input.Run(); err != nil {
			return Choice{}, err
		}
		return Choice{Custom: custom}, nil
	default:
		idx, err := strconv.Atoi(picked)
		if err != nil {
			return Choice{}, fmt.Errorf("unexpected selection %q", picked)
		}
		return Choice{Index: idx}, nil
	}
}

// ConfirmPull asks whether to download a model right away.
func ConfirmPull(name string) (bool, error) {
	pull := true
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Pull %s now?", name)).
				Description("Downloads can take a few minutes depending on model size.").
				Value(&pull),
		),
	)
	if err := form.Run(); err != nil {
		return false, err
	}
	return pull, nil
}

// AlwaysPull is a PullConfirmer for non-interactive flows.
func AlwaysPull(string) (bool, error) { return true, nil }
