package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tutorstack/tutorctl/internal/acquire"
	"github.com/tutorstack/tutorctl/internal/config"
	"github.com/tutorstack/tutorctl/internal/dispatch"
	"github.com/tutorstack/tutorctl/internal/envfile"
	"github.com/tutorstack/tutorctl/internal/logging"
	"github.com/tutorstack/tutorctl/internal/registry"
	"github.com/tutorstack/tutorctl/internal/runlog"
	"github.com/tutorstack/tutorctl/internal/ui"
	"github.com/tutorstack/tutorctl/internal/util"
)

var ollamaFull bool

var ollamaCmd = &cobra.Command{
	Use:   "ollama",
	Short: "Start Ollama, verify the models, then launch the app",
	Long: `Brings the inference daemon up first: starts 'ollama serve' if nothing is
listening, confirms the LLM and embedding models are loaded (pulling them
on request), records the choices in .env, and only then launches the app.`,
	RunE: runOllama,
}

func init() {
	ollamaCmd.Flags().BoolVar(&ollamaFull, "full", false, "launch in full mode once the models are ready")
	addLaunchFlags(ollamaCmd)
	rootCmd.AddCommand(ollamaCmd)
}

func runOllama(cmd *cobra.Command, args []string) error {
	settings, err := config.Load()
	if err != nil {
		fmt.Fprint(os.Stderr, ui.FormatError("failed to load settings", err.Error(), ""))
		return err
	}
	applyFlagOverrides(&settings)

	runID := runlog.NewID()
	log := logging.New(verbose, runID)
	ctx := cmd.Context()

	client := registry.New(settings.OllamaHost)
	store := envfile.NewStore(settings.EnvFile, settings.EnvTemplate)
	acq := acquire.New(client, store, acquire.DefaultPolicy(settings.Models.VerifyWaitSeconds), log)

	fmt.Println(ui.Bold("Preparing Ollama..."))
	serveWait := time.Duration(settings.Models.ServeWaitSeconds) * time.Second
	ui.StepStarted("ollama serve")
	if err := acq.EnsureServing(ctx, util.ExpandPath(settings.StateDir), serveWait); err != nil {
		fmt.Fprint(os.Stderr, ui.FormatError("ollama is not ready", err.Error(), "start 'ollama serve' yourself and rerun"))
		return err
	}
	ui.StepDone("ollama serve", settings.OllamaHost)

	if err := ensureModels(ctx, acq, client, settings); err != nil {
		return err
	}

	token := "fast"
	if ollamaFull {
		token = "full"
	}
	return launchWith(settings, token, dispatch.SurfaceNative, runID, log)
}

// ensureModels confirms the LLM and embedding models the stack is configured
// for are actually loaded. A missing LLM gets a plain pull confirmation; a
// missing embedding model opens the candidate menu.
func ensureModels(ctx context.Context, acq *acquire.Acquirer, client *registry.Client, settings config.Settings) error {
	if _, ok, err := client.FindByPrefix(ctx, settings.Models.LLM); err == nil && ok {
		if err := refreshOnly(acq.EnsureModel(ctx, settings.Models.LLM, envfile.KeyLLMModel, acquire.AlwaysPull)); err != nil {
			return err
		}
	} else {
		fmt.Println(ui.Warn("LLM " + settings.Models.LLM + " is not loaded"))
		if err := acq.EnsureModel(ctx, settings.Models.LLM, envfile.KeyLLMModel, acquire.ConfirmPull); err != nil {
			return err
		}
	}

	if _, ok, err := client.FindByPrefix(ctx, settings.Models.Embedding); err == nil && ok {
		return refreshOnly(acq.EnsureModel(ctx, settings.Models.Embedding, envfile.KeyEmbeddingModel, acquire.AlwaysPull))
	}

	fmt.Println(ui.Warn("embedding model " + settings.Models.Embedding + " is not loaded"))
	_, err := acq.AcquireInteractive(ctx, acquire.Candidates(settings.Models.EmbeddingCandidates), acquire.TerminalChooser, acquire.ConfirmPull)
	if errors.Is(err, acquire.ErrSkipped) {
		fmt.Println(ui.Hint("continuing without a confirmed embedding model"))
		return nil
	}
	return err
}

// refreshOnly downgrades a persist failure to a warning. Used where the
// config write merely refreshes an already-loaded model's tag, which must
// not stop the launch.
func refreshOnly(err error) error {
	var perr *envfile.PersistError
	if errors.As(err, &perr) {
		fmt.Println(ui.Warn("config not refreshed: " + perr.Error()))
		return nil
	}
	return err
}
