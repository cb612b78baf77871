// Package probe checks the host for the external tools and services the
// assistant stack depends on.
package probe

import (
	"net/http"
	"os/exec"
	"strings"
	"time"

	"github.com/tutorstack/tutorctl/internal/config"
	"github.com/tutorstack/tutorctl/internal/model"
)

// Prober abstracts the host lookups so probing is testable without a real
// toolchain on PATH.
type Prober interface {
	LookPath(file string) (string, error)
	CommandOutput(name string, args ...string) (string, error)
	Get(url string) (int, error)
}

type osProber struct {
	client *http.Client
}

func (osProber) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (osProber) CommandOutput(name string, args ...string) (string, error) {
	out, err := exec.Command(name, args...).CombinedOutput()
	return string(out), err
}

func (p osProber) Get(url string) (int, error) {
	resp, err := p.client.Get(url)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

// Requirements lists every dependency in probe order: interpreter, package
// manager, inference daemon, container engine, graph database.
func Requirements(s config.Settings) []model.Requirement {
	return []model.Requirement{
		{
			Name:        "python3",
			DisplayName: "Python 3",
			Binary:      s.Python,
			VersionArgs: []string{"--version"},
			Kind:        model.RequirementRequired,
			Hint:        "install Python 3.10 or newer from https://www.python.org/downloads",
		},
		{
			Name:        "pip3",
			DisplayName: "pip",
			Binary:      s.Pip,
			VersionArgs: []string{"--version"},
			Kind:        model.RequirementRequired,
			Hint:        "install pip, usually bundled with Python (python3 -m ensurepip)",
		},
		{
			Name:        "ollama",
			DisplayName: "Ollama",
			Binary:      "ollama",
			VersionArgs: []string{"--version"},
			URL:         s.OllamaHost + "/api/tags",
			Kind:        model.RequirementRequired,
			Hint:        "install from https://ollama.com/download, then run 'ollama serve'",
		},
		{
			Name:        "docker",
			DisplayName: "Docker",
			Binary:      "docker",
			VersionArgs: []string{"--version"},
			Kind:        model.RequirementOptional,
			Hint:        "needed only for the docker launch modes",
		},
		{
			Name:        "neo4j",
			DisplayName: "Neo4j",
			URL:         s.Neo4jURL,
			Kind:        model.RequirementOptional,
			Hint:        "needed only for knowledge-graph mode; docker-full starts it for you",
		},
	}
}

// Probe checks every requirement and returns one status per entry, in the
// same order. Individual failures never abort the sequence. A nil Prober
// probes the real host.
func Probe(reqs []model.Requirement, p Prober) []model.ServiceStatus {
	if p == nil {
		p = osProber{client: &http.Client{Timeout: 3 * time.Second}}
	}
	statuses := make([]model.ServiceStatus, 0, len(reqs))
	for _, req := range reqs {
		statuses = append(statuses, probeOne(req, p))
	}
	return statuses
}

func probeOne(req model.Requirement, p Prober) model.ServiceStatus {
	st := model.ServiceStatus{Name: req.Name}

	if req.Binary != "" {
		if _, err := p.LookPath(req.Binary); err == nil {
			st.Installed = true
			if len(req.VersionArgs) > 0 {
				if out, err := p.CommandOutput(req.Binary, req.VersionArgs...); err == nil {
					st.Version = firstLine(out)
				}
			}
		}
	}

	switch {
	case req.URL != "":
		if code, err := p.Get(req.URL); err == nil && code >= 200 && code < 300 {
			st.Reachable = true
		}
		if req.Binary == "" {
			// Server-only dependency: presence is reachability.
			st.Installed = st.Reachable
		}
	default:
		st.Reachable = st.Installed
	}

	return st
}

// MissingRequired returns the required dependencies whose probe found them
// absent. Statuses must be in Requirements order.
func MissingRequired(reqs []model.Requirement, statuses []model.ServiceStatus) []model.Requirement {
	var missing []model.Requirement
	for i, req := range reqs {
		if i >= len(statuses) {
			break
		}
		if req.Kind == model.RequirementRequired && !statuses[i].Installed {
			missing = append(missing, req)
		}
	}
	return missing
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
