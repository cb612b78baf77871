package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tutorstack/tutorctl/internal/acquire"
	"github.com/tutorstack/tutorctl/internal/config"
	"github.com/tutorstack/tutorctl/internal/envfile"
	"github.com/tutorstack/tutorctl/internal/logging"
	"github.com/tutorstack/tutorctl/internal/probe"
	"github.com/tutorstack/tutorctl/internal/registry"
	"github.com/tutorstack/tutorctl/internal/runlog"
	"github.com/tutorstack/tutorctl/internal/ui"
	"github.com/tutorstack/tutorctl/internal/util"
)

var skipModels bool

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the stack's dependencies and seed its configuration",
	Long: `Checks the external tools the stack needs, installs the Python
dependencies, writes a starter .env, and walks through the Ollama model
setup. Safe to rerun; an existing .env is only replaced after confirmation.`,
	RunE: runInstall,
}

func init() {
	installCmd.Flags().BoolVar(&skipModels, "skip-models", false, "skip the Ollama model setup")
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	settings, err := config.Load()
	if err != nil {
		fmt.Fprint(os.Stderr, ui.FormatError("failed to load settings", err.Error(), ""))
		return err
	}

	log := logging.New(verbose, runlog.NewID())
	ctx := cmd.Context()

	// Step 1: requirements
	fmt.Println(ui.Bold("Checking requirements..."))
	reqs := probe.Requirements(settings)
	statuses := probe.Probe(reqs, nil)
	reportStatuses(reqs, statuses)

	// A missing Ollama only skips the model setup below; the Python
	// toolchain is what the install itself cannot do without.
	var fatal []string
	for _, req := range probe.MissingRequired(reqs, statuses) {
		if req.Name != "ollama" {
			fatal = append(fatal, req.DisplayName)
		}
	}
	if len(fatal) > 0 {
		return fmt.Errorf("missing required dependencies: %s", strings.Join(fatal, ", "))
	}

	// Step 2: Python dependencies
	fmt.Println()
	fmt.Println(ui.Bold("Installing Python dependencies..."))
	if err := pipInstall(settings); err != nil {
		fmt.Fprint(os.Stderr, ui.FormatError("pip install failed", err.Error(), "inspect "+settings.Requirements+" and rerun"))
		return err
	}
	fmt.Println(ui.Success("Python dependencies installed"))

	// Step 3: seed .env
	fmt.Println()
	if err := seedEnv(settings); err != nil {
		return err
	}

	// Step 4: models
	fmt.Println()
	if skipModels {
		ui.StepSkipped("Ollama model setup")
	} else {
		fmt.Println(ui.Bold("Setting up Ollama models..."))
		client := registry.New(settings.OllamaHost)
		store := envfile.NewStore(settings.EnvFile, settings.EnvTemplate)
		acq := acquire.New(client, store, acquire.DefaultPolicy(settings.Models.VerifyWaitSeconds), log)

		serveWait := time.Duration(settings.Models.ServeWaitSeconds) * time.Second
		if err := acq.EnsureServing(ctx, util.ExpandPath(settings.StateDir), serveWait); err != nil {
			fmt.Println(ui.Warn("skipping model setup, ollama is not serving: " + err.Error()))
		} else if err := ensureModels(ctx, acq, client, settings); err != nil {
			return err
		}
	}

	fmt.Println()
	fmt.Println(ui.Success("Install complete"))
	fmt.Println()
	fmt.Printf("Next step: %s\n", ui.Bold("tutorctl fast"))
	fmt.Printf("           %s\n", ui.Hint("or 'tutorctl full' to enable the knowledge graph"))

	return nil
}

func pipInstall(settings config.Settings) error {
	if _, err := os.Stat(settings.Requirements); err != nil {
		return fmt.Errorf("%s not found, run from the stack checkout", settings.Requirements)
	}
	pip := execCommand(settings.Pip, "install", "-r", settings.Requirements)
	pip.Stdout = os.Stdout
	pip.Stderr = os.Stderr
	return pip.Run()
}

func seedEnv(settings config.Settings) error {
	// Check if the env file already exists
	if _, err := os.Stat(settings.EnvFile); err == nil {
		fmt.Printf("%s already exists.\n", settings.EnvFile)
		fmt.Print("Overwrite? [y/N] ")
		var answer string
		_, _ = fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("Keeping the existing file.")
			return nil
		}
	}

	store := envfile.NewStore(settings.EnvFile, settings.EnvTemplate)
	if err := store.Seed(envfile.SeedData{
		OllamaHost:     settings.OllamaHost,
		LLMModel:       settings.Models.LLM,
		EmbeddingModel: settings.Models.Embedding,
	}); err != nil {
		fmt.Fprint(os.Stderr, ui.FormatError("could not write "+settings.EnvFile, err.Error(), "check directory permissions"))
		return err
	}
	fmt.Println(ui.Success("Created " + settings.EnvFile))
	return nil
}
