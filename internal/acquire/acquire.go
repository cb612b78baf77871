// Package acquire pulls models into the Ollama daemon and confirms they are
// actually loaded before the stack relies on them.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tutorstack/tutorctl/internal/envfile"
	"github.com/tutorstack/tutorctl/internal/model"
	"github.com/tutorstack/tutorctl/internal/ui"
)

var (
	// ErrPullFailed reports a non-zero exit from the daemon's pull action.
	ErrPullFailed = errors.New("model pull failed")

	// ErrVerificationTimeout reports that a model did not appear in the
	// registry within the wait ceiling. Callers treat it as a warning, not
	// a hard failure: the model may still become usable once the daemon
	// catches up.
	ErrVerificationTimeout = errors.New("model verification timed out")
)

// Registry is the daemon surface acquisition needs.
type Registry interface {
	Ping(ctx context.Context) error
	ListModels(ctx context.Context) ([]string, error)
	FindByPrefix(ctx context.Context, name string) (string, bool, error)
}

// Store persists a committed model choice.
type Store interface {
	Upsert(key, value string) error
}

// Chooser produces one round of operator input for the selection loop.
type Chooser func(candidates []model.ModelDescriptor, allowCustom bool) (Choice, error)

// PullConfirmer asks whether a selected model should be downloaded now.
type PullConfirmer func(name string) (bool, error)

// pullCommand is replaced in tests to avoid touching a real daemon.
var pullCommand = func(name string) error {
	cmd := exec.Command("ollama", "pull", name)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Acquirer pulls models and polls the registry until they are confirmed.
type Acquirer struct {
	Registry Registry
	Store    Store
	Policy   RetryPolicy
	Clock    Clock
	Out      io.Writer
	Log      zerolog.Logger
}

// New wires an Acquirer with the real clock and stdout reporting.
func New(reg Registry, store Store, policy RetryPolicy, log zerolog.Logger) *Acquirer {
	return &Acquirer{
		Registry: reg,
		Store:    store,
		Policy:   policy,
		Clock:    realClock{},
		Out:      os.Stdout,
		Log:      log,
	}
}

// Pull downloads name into the daemon, blocking until the pull completes.
func (a *Acquirer) Pull(name string) error {
	a.Log.Debug().Str("model", name).Msg("pulling model")
	if err := pullCommand(name); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrPullFailed, name, err)
	}
	return nil
}

// VerifyLoaded polls the registry until name resolves to a loaded tag or the
// policy ceiling elapses. The first check happens before any sleep, so an
// already-loaded model returns without waiting. Registry errors during the
// window are retried, covering a daemon that is still coming up.
func (a *Acquirer) VerifyLoaded(ctx context.Context, name string) (string, error) {
	clock := a.clock()
	deadline := clock.Now().Add(a.Policy.Ceiling)
	for {
		tag, ok, err := a.Registry.FindByPrefix(ctx, name)
		if err == nil && ok {
			return tag, nil
		}
		if err != nil {
			a.Log.Debug().Err(err).Msg("registry query failed, retrying")
		}
		if clock.Now().Add(a.Policy.Interval).After(deadline) {
			return "", fmt.Errorf("%w: %s not loaded after %s", ErrVerificationTimeout, name, a.Policy.Ceiling)
		}
		clock.Sleep(a.Policy.Interval)
	}
}

// AcquireInteractive walks the operator through choosing an embedding model.
// The chosen name is persisted as soon as the operator commits to it, so a
// declined pull still leaves the preference on record; a confirmed load
// upgrades the stored value to the resolved tag. Invalid selections loop
// back to the menu, a skip returns ErrSkipped without persisting anything.
func (a *Acquirer) AcquireInteractive(ctx context.Context, candidates []model.ModelDescriptor, choose Chooser, confirmPull PullConfirmer) (model.ModelDescriptor, error) {
	out := a.out()
	for {
		choice, err := choose(candidates, true)
		if err != nil {
			return model.ModelDescriptor{}, err
		}
		desc, err := Decide(candidates, choice)
		if errors.Is(err, ErrSkipped) {
			return model.ModelDescriptor{}, err
		}
		if err != nil {
			fmt.Fprint(out, ui.FormatError("invalid selection", err.Error(), ""))
			continue
		}

		if err := a.Store.Upsert(envfile.KeyEmbeddingModel, desc.RequestedName); err != nil {
			return model.ModelDescriptor{}, err
		}

		doPull, err := confirmPull(desc.RequestedName)
		if err != nil {
			return model.ModelDescriptor{}, err
		}
		if !doPull {
			return desc, nil
		}

		if err := a.Pull(desc.RequestedName); err != nil {
			fmt.Fprint(out, ui.FormatError("pull failed", err.Error(), "retry manually with: ollama pull "+desc.RequestedName))
			continue
		}

		tag, err := a.VerifyLoaded(ctx, desc.RequestedName)
		switch {
		case errors.Is(err, ErrVerificationTimeout):
			fmt.Fprintln(out, ui.Warn("could not confirm "+desc.Name()+" is loaded yet; it may still be warming up"))
			a.reportLoaded(ctx)
		case err != nil:
			return model.ModelDescriptor{}, err
		default:
			desc.ResolvedTag = tag
		}

		// The stored value is upgraded from the requested name to the
		// concrete tag only once the registry confirmed it.
		if !desc.Confirmed() {
			return desc, nil
		}
		if err := a.Store.Upsert(envfile.KeyEmbeddingModel, desc.ResolvedTag); err != nil {
			return desc, err
		}
		fmt.Fprintln(out, ui.Success("model "+desc.ResolvedTag+" is loaded"))
		return desc, nil
	}
}

// EnsureModel checks that name resolves to a loaded tag, pulling it when
// confirmPull agrees. A confirmed tag is persisted under key; a declined
// pull leaves the config untouched; a verification timeout is reported as a
// warning and persists the requested name as-is.
func (a *Acquirer) EnsureModel(ctx context.Context, name, key string, confirmPull PullConfirmer) error {
	if tag, ok, err := a.Registry.FindByPrefix(ctx, name); err == nil && ok {
		a.Log.Debug().Str("model", name).Str("tag", tag).Msg("model already loaded")
		return a.Store.Upsert(key, tag)
	}

	doPull, err := confirmPull(name)
	if err != nil {
		return err
	}
	if !doPull {
		return nil
	}

	if err := a.Pull(name); err != nil {
		return err
	}

	tag, err := a.VerifyLoaded(ctx, name)
	if errors.Is(err, ErrVerificationTimeout) {
		fmt.Fprintln(a.out(), ui.Warn("could not confirm "+name+" is loaded yet; it may still be warming up"))
		a.reportLoaded(ctx)
		return a.Store.Upsert(key, name)
	}
	if err != nil {
		return err
	}
	return a.Store.Upsert(key, tag)
}

// reportLoaded prints what the daemon currently serves, for diagnosis after
// a verification timeout. Best effort only.
func (a *Acquirer) reportLoaded(ctx context.Context) {
	tags, err := a.Registry.ListModels(ctx)
	if err != nil || len(tags) == 0 {
		return
	}
	fmt.Fprintln(a.out(), ui.Dim("currently loaded: "+strings.Join(tags, ", ")))
}

func (a *Acquirer) clock() Clock {
	if a.Clock == nil {
		return realClock{}
	}
	return a.Clock
}

func (a *Acquirer) out() io.Writer {
	if a.Out == nil {
		return os.Stdout
	}
	return a.Out
}
