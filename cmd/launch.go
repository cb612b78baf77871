package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tutorstack/tutorctl/internal/config"
	"github.com/tutorstack/tutorctl/internal/dispatch"
	"github.com/tutorstack/tutorctl/internal/envfile"
	"github.com/tutorstack/tutorctl/internal/logging"
	"github.com/tutorstack/tutorctl/internal/model"
	"github.com/tutorstack/tutorctl/internal/runlog"
	"github.com/tutorstack/tutorctl/internal/ui"
	"github.com/tutorstack/tutorctl/internal/util"
)

var (
	flagEnvFile     string
	flagComposeFile string
	flagApp         string
)

var fastCmd = &cobra.Command{
	Use:   "fast",
	Short: "Launch the app natively with knowledge-graph features off",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLaunch("fast", dispatch.SurfaceNative)
	},
}

var fullCmd = &cobra.Command{
	Use:   "full",
	Short: "Launch the app natively with knowledge graph and entity extraction on",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLaunch("full", dispatch.SurfaceNative)
	},
}

var dockerCmd = &cobra.Command{
	Use:   "docker",
	Short: "Launch the app container in fast mode",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLaunch("fast", dispatch.SurfaceContainer)
	},
}

var dockerFullCmd = &cobra.Command{
	Use:   "docker-full",
	Short: "Launch the app container plus the knowledge-graph services",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLaunch("full", dispatch.SurfaceContainer)
	},
}

func init() {
	for _, c := range []*cobra.Command{fastCmd, fullCmd, dockerCmd, dockerFullCmd} {
		addLaunchFlags(c)
		rootCmd.AddCommand(c)
	}
}

func addLaunchFlags(c *cobra.Command) {
	c.Flags().StringVar(&flagEnvFile, "env-file", "", "path to the stack .env file")
	c.Flags().StringVar(&flagComposeFile, "compose-file", "", "path to the compose file")
	c.Flags().StringVar(&flagApp, "app", "", "path to the app entry script")
}

func applyFlagOverrides(s *config.Settings) {
	if flagEnvFile != "" {
		s.EnvFile = flagEnvFile
	}
	if flagComposeFile != "" {
		s.ComposeFile = flagComposeFile
	}
	if flagApp != "" {
		s.AppScript = flagApp
	}
}

func runLaunch(modeToken string, surface dispatch.Surface) error {
	settings, err := config.Load()
	if err != nil {
		fmt.Fprint(os.Stderr, ui.FormatError("failed to load settings", err.Error(), ""))
		return err
	}
	applyFlagOverrides(&settings)

	runID := runlog.NewID()
	return launchWith(settings, modeToken, surface, runID, logging.New(verbose, runID))
}

func launchWith(settings config.Settings, modeToken string, surface dispatch.Surface, runID string, log zerolog.Logger) error {
	plan, err := dispatch.Plan(modeToken, surface)
	if err != nil {
		fmt.Fprint(os.Stderr, ui.FormatError("cannot dispatch", err.Error(), "valid modes are fast and full"))
		return err
	}

	rec := runlog.NewRecord(runID, plan)
	if plan.Target == model.TargetContainerFull {
		rec.Profile = settings.GraphProfile
	}
	store := envfile.NewStore(settings.EnvFile, settings.EnvTemplate)
	if v, ok, err := store.Get(envfile.KeyEmbeddingModel); err == nil && ok {
		rec.EmbeddingModel = v
	}
	if v, ok, err := store.Get(envfile.KeyLLMModel); err == nil && ok {
		rec.LLMModel = v
	}
	if err := runlog.Write(util.ExpandPath(settings.StateDir), rec); err != nil {
		log.Warn().Err(err).Msg("run record not written")
	}

	fmt.Println(ui.Bold(fmt.Sprintf("Launching the stack (%s mode, %s)...", plan.Mode, plan.Target)))
	if err := dispatch.NewDispatcher(settings, log).Dispatch(plan); err != nil {
		fmt.Fprint(os.Stderr, ui.FormatError("launch failed", err.Error(), launchHint(err)))
		return err
	}
	return nil
}

func launchHint(err error) string {
	var depErr *dispatch.MissingDependencyError
	if errors.As(err, &depErr) {
		return depErr.Hint
	}
	return ""
}
