// Package dispatch maps a requested mode onto a concrete launch action:
// parse the mode token, resolve the launch target, derive the environment
// overrides, then hand off to the native process or the container engine.
package dispatch

import (
	"fmt"

	"github.com/tutorstack/tutorctl/internal/envfile"
	"github.com/tutorstack/tutorctl/internal/model"
)

// UnknownModeError reports an unrecognized mode token.
type UnknownModeError struct {
	Token string
}

func (e *UnknownModeError) Error() string {
	return fmt.Sprintf("unknown mode %q (valid modes: fast, full)", e.Token)
}

// MissingDependencyError reports a tool the chosen launch target needs that
// is absent from the host. Fatal for that target only.
type MissingDependencyError struct {
	Tool   string
	Target model.Target
	Hint   string
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("%s is required for the %s target but was not found", e.Tool, e.Target)
}

// Surface is the launch surface the operator asked for.
type Surface string

const (
	SurfaceNative    Surface = "native"
	SurfaceContainer Surface = "container"
)

// ParseMode maps a mode token to a Mode. The empty token selects fast.
func ParseMode(token string) (model.Mode, error) {
	switch token {
	case "", "fast":
		return model.ModeFast, nil
	case "full":
		return model.ModeFull, nil
	default:
		return "", &UnknownModeError{Token: token}
	}
}

// ResolveTarget maps the requested surface and mode onto a launch target.
func ResolveTarget(surface Surface, mode model.Mode) model.Target {
	if surface == SurfaceContainer {
		if mode == model.ModeFull {
			return model.TargetContainerFull
		}
		return model.TargetContainerNative
	}
	return model.TargetNative
}

// DeriveEnv produces the environment overrides for a mode. This map is the
// only channel by which mode selection reaches the downstream app.
func DeriveEnv(mode model.Mode) map[string]string {
	enabled := "false"
	if mode == model.ModeFull {
		enabled = "true"
	}
	return map[string]string{
		envfile.KeyKnowledgeGraph:   enabled,
		envfile.KeyEntityExtraction: enabled,
	}
}

// Plan runs the parse, resolve and derive steps for one invocation.
func Plan(token string, surface Surface) (model.LaunchPlan, error) {
	mode, err := ParseMode(token)
	if err != nil {
		return model.LaunchPlan{}, err
	}
	return model.LaunchPlan{
		Mode:         mode,
		Target:       ResolveTarget(surface, mode),
		EnvOverrides: DeriveEnv(mode),
	}, nil
}
