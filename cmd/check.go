package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tutorstack/tutorctl/internal/config"
	"github.com/tutorstack/tutorctl/internal/dispatch"
	"github.com/tutorstack/tutorctl/internal/model"
	"github.com/tutorstack/tutorctl/internal/probe"
	"github.com/tutorstack/tutorctl/internal/registry"
	"github.com/tutorstack/tutorctl/internal/runlog"
	"github.com/tutorstack/tutorctl/internal/ui"
	"github.com/tutorstack/tutorctl/internal/util"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report the status of every stack dependency",
	Long: `Probes each external dependency (Python, pip, Ollama, Docker, Neo4j) and
reports what is installed, serving, and which models Ollama has loaded.
Exits non-zero when a required dependency is missing.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	settings, err := config.Load()
	if err != nil {
		fmt.Fprint(os.Stderr, ui.FormatError("failed to load settings", err.Error(), ""))
		return err
	}

	fmt.Println(ui.Bold("Checking stack dependencies..."))
	reqs := probe.Requirements(settings)
	statuses := probe.Probe(reqs, nil)
	passed, missing := reportStatuses(reqs, statuses)

	// When the daemon answers, also check the configured embedding model;
	// a missing one is the most common reason retrieval silently degrades.
	if daemonReachable(reqs, statuses) {
		client := registry.New(settings.OllamaHost)
		if tags, err := client.ListModels(cmd.Context()); err == nil {
			fmt.Println()
			if len(tags) == 0 {
				fmt.Println(ui.Warn("no models loaded"))
			} else if _, ok := registry.MatchPrefix(tags, settings.Models.Embedding); !ok {
				fmt.Println(ui.Warn("embedding model " + settings.Models.Embedding + " is not loaded"))
				fmt.Println(ui.Hint("run 'tutorctl ollama' to set one up"))
			} else {
				fmt.Println(ui.Dim("loaded models: " + strings.Join(tags, ", ")))
			}
		}
	}

	if info, err := dispatch.InspectCompose(settings.ComposeFile); err == nil && len(info.Services) > 0 {
		fmt.Println()
		fmt.Println(ui.Dim("compose services: " + strings.Join(info.Summary(), ", ")))
	}

	if rec, ok, err := runlog.Latest(util.ExpandPath(settings.StateDir)); err == nil && ok {
		fmt.Println()
		fmt.Println(ui.Dim(fmt.Sprintf("last run: %s, %s mode, %s target",
			rec.StartedAt.Local().Format("2006-01-02 15:04"), rec.Mode, rec.Target)))
	}

	fmt.Println()
	if missing == 0 {
		fmt.Println(ui.Success(fmt.Sprintf("%d checks passed, 0 missing", passed)))
		return nil
	}
	fmt.Printf("%d checks passed, %d required missing\n", passed, missing)
	return fmt.Errorf("%d required dependencies missing", missing)
}

func daemonReachable(reqs []model.Requirement, statuses []model.ServiceStatus) bool {
	for i, st := range statuses {
		if reqs[i].Name == "ollama" {
			return st.Reachable
		}
	}
	return false
}

// reportStatuses renders one line per dependency and returns how many are
// usable and how many required ones are absent.
func reportStatuses(reqs []model.Requirement, statuses []model.ServiceStatus) (passed, missingRequired int) {
	for i, st := range statuses {
		req := reqs[i]
		switch {
		case st.Installed && st.Reachable:
			detail := st.Version
			if detail == "" {
				detail = "reachable"
			}
			ui.CheckOK(req.DisplayName, detail)
			passed++
		case st.Installed:
			ui.CheckWarn(req.DisplayName, "installed but not serving", "'tutorctl ollama' starts it for you")
			passed++
		case req.Kind == model.RequirementOptional:
			ui.CheckWarn(req.DisplayName, "not found (optional)", req.Hint)
		default:
			ui.CheckFail(req.DisplayName, "not found", req.Hint)
			missingRequired++
		}
	}
	return passed, missingRequired
}
