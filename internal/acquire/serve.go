package acquire

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

const serveProbeInterval = 500 * time.Millisecond

// lookPath is replaced in tests.
var lookPath = exec.LookPath

// serveCommand starts the daemon detached, appending its output to logPath.
// Replaced in tests.
var serveCommand = func(logPath string) error {
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	cmd := exec.Command("ollama", "serve")
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	if err := cmd.Start(); err != nil {
		logFile.Close()
		return err
	}
	go func() {
		cmd.Wait()
		logFile.Close()
	}()
	return nil
}

// EnsureServing confirms the daemon answers, starting "ollama serve" in the
// background when the binary is installed but nothing is listening. Serve
// output goes to ollama-serve.log under stateDir.
func (a *Acquirer) EnsureServing(ctx context.Context, stateDir string, wait time.Duration) error {
	if a.Registry.Ping(ctx) == nil {
		return nil
	}
	if _, err := lookPath("ollama"); err != nil {
		return errors.New("ollama is not installed: get it from https://ollama.com/download")
	}

	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}
	logPath := filepath.Join(stateDir, "ollama-serve.log")
	a.Log.Info().Str("log", logPath).Msg("starting ollama serve")
	if err := serveCommand(logPath); err != nil {
		return fmt.Errorf("starting ollama serve: %w", err)
	}

	clock := a.clock()
	deadline := clock.Now().Add(wait)
	for {
		clock.Sleep(serveProbeInterval)
		if a.Registry.Ping(ctx) == nil {
			return nil
		}
		if clock.Now().After(deadline) {
			return fmt.Errorf("ollama did not answer within %s (log: %s)", wait, logPath)
		}
	}
}
