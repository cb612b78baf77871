package dispatch

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"

	"github.com/rs/zerolog"

	"github.com/tutorstack/tutorctl/internal/config"
	"github.com/tutorstack/tutorctl/internal/model"
)

// Runner abstracts process launching so dispatch is testable without a real
// toolchain on PATH.
type Runner interface {
	LookPath(file string) (string, error)
	Stat(name string) (os.FileInfo, error)
	// Run starts name with inherited stdio and the given environment and
	// blocks until it exits.
	Run(name string, args []string, env []string) error
	// Probe runs a quiet capability check, discarding all output.
	Probe(name string, args ...string) error
}

type osRunner struct{}

func (osRunner) LookPath(file string) (string, error) { return exec.LookPath(file) }

func (osRunner) Stat(name string) (os.FileInfo, error) { return os.Stat(name) }

func (osRunner) Run(name string, args []string, env []string) error {
	cmd := exec.Command(name, args...)
	cmd.Env = env
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func (osRunner) Probe(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

// Dispatcher executes a LaunchPlan against the host.
type Dispatcher struct {
	Settings config.Settings
	Runner   Runner
	Log      zerolog.Logger
}

// NewDispatcher wires a Dispatcher that launches real processes.
func NewDispatcher(s config.Settings, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{Settings: s, Runner: osRunner{}, Log: log}
}

// Dispatch hands the plan off to its target. The native path blocks until
// the app exits; the container path returns once the engine has accepted
// the up. Neither path supervises the stack afterwards.
func (d *Dispatcher) Dispatch(plan model.LaunchPlan) error {
	switch plan.Target {
	case model.TargetNative:
		return d.launchNative(plan)
	case model.TargetContainerNative, model.TargetContainerFull:
		return d.launchCompose(plan)
	default:
		return fmt.Errorf("unhandled launch target %q", plan.Target)
	}
}

func (d *Dispatcher) launchNative(plan model.LaunchPlan) error {
	runner := d.runner()
	if _, err := runner.LookPath(d.Settings.Python); err != nil {
		return &MissingDependencyError{
			Tool:   d.Settings.Python,
			Target: plan.Target,
			Hint:   "install Python 3.10 or newer from https://www.python.org/downloads",
		}
	}
	if _, err := runner.Stat(d.Settings.AppScript); err != nil {
		return fmt.Errorf("app script %s not found, run from the stack checkout", d.Settings.AppScript)
	}

	d.Log.Info().Str("script", d.Settings.AppScript).Str("mode", string(plan.Mode)).Msg("starting app")
	return runner.Run(d.Settings.Python, []string{d.Settings.AppScript}, mergeEnv(os.Environ(), plan.EnvOverrides))
}

func (d *Dispatcher) launchCompose(plan model.LaunchPlan) error {
	runner := d.runner()
	if _, err := runner.LookPath("docker"); err != nil {
		return &MissingDependencyError{
			Tool:   "docker",
			Target: plan.Target,
			Hint:   "install Docker from https://docs.docker.com/get-docker",
		}
	}
	if err := runner.Probe("docker", "compose", "version"); err != nil {
		return &MissingDependencyError{
			Tool:   "docker compose",
			Target: plan.Target,
			Hint:   "the compose plugin ships with current Docker packages",
		}
	}

	info, err := InspectCompose(d.Settings.ComposeFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &MissingDependencyError{
				Tool:   d.Settings.ComposeFile,
				Target: plan.Target,
				Hint:   "set --compose-file or run from the stack checkout",
			}
		}
		return fmt.Errorf("inspecting %s: %w", d.Settings.ComposeFile, err)
	}
	if !info.HasService(d.Settings.AppService) {
		return fmt.Errorf("service %q not found in %s", d.Settings.AppService, d.Settings.ComposeFile)
	}

	args := []string{"compose", "-f", d.Settings.ComposeFile}
	if plan.Target == model.TargetContainerFull {
		if len(info.ProfileServices(d.Settings.GraphProfile)) == 0 {
			d.Log.Warn().Str("profile", d.Settings.GraphProfile).Str("file", d.Settings.ComposeFile).Msg("no services declare the graph profile")
		}
		args = append(args, "--profile", d.Settings.GraphProfile)
	}
	args = append(args, "up", "-d")

	d.Log.Info().Str("target", string(plan.Target)).Strs("services", info.DefaultServices()).Msg("starting compose stack")
	return runner.Run("docker", args, mergeEnv(os.Environ(), plan.EnvOverrides))
}

func (d *Dispatcher) runner() Runner {
	if d.Runner == nil {
		return osRunner{}
	}
	return d.Runner
}

// mergeEnv appends overrides after base in sorted key order. The child
// process resolves duplicates last-wins, so an override shadows any
// inherited value of the same key.
func mergeEnv(base []string, overrides map[string]string) []string {
	merged := make([]string, len(base), len(base)+len(overrides))
	copy(merged, base)
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		merged = append(merged, k+"="+overrides[k])
	}
	return merged
}
