// Package runlog records what each invocation launched, so check can report
// the last known launch.
package runlog

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/tutorstack/tutorctl/internal/model"
)

const lastRunFile = "last-run.yml"

// Record is one orchestrator invocation.
type Record struct {
	ID             string            `yaml:"id"`
	StartedAt      time.Time         `yaml:"started_at"`
	Mode           string            `yaml:"mode"`
	Target         string            `yaml:"target"`
	Profile        string            `yaml:"profile,omitempty"`
	Env            map[string]string `yaml:"env,omitempty"`
	EmbeddingModel string            `yaml:"embedding_model,omitempty"`
	LLMModel       string            `yaml:"llm_model,omitempty"`
}

// NewID returns a lexically sortable unique run id.
func NewID() string {
	return ulid.Make().String()
}

// NewRecord seeds a record for one invocation of a launch plan.
func NewRecord(id string, plan model.LaunchPlan) Record {
	return Record{
		ID:        id,
		StartedAt: time.Now().UTC(),
		Mode:      string(plan.Mode),
		Target:    string(plan.Target),
		Env:       plan.EnvOverrides,
	}
}

// Write persists the record under dir, both as its own run file and as the
// rolling last-run marker.
func Write(dir string, rec Record) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	data, err := yamlv3.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding run record: %w", err)
	}
	runPath := filepath.Join(dir, "run-"+rec.ID+".yml")
	if err := os.WriteFile(runPath, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", runPath, err)
	}
	lastPath := filepath.Join(dir, lastRunFile)
	if err := os.WriteFile(lastPath, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", lastPath, err)
	}
	return nil
}

// Latest returns the most recent record, or ok=false when none exists.
func Latest(dir string) (Record, bool, error) {
	data, err := os.ReadFile(filepath.Join(dir, lastRunFile))
	if os.IsNotExist(err) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	var rec Record
	if err := yamlv3.Unmarshal(data, &rec); err != nil {
		return Record{}, false, fmt.Errorf("decoding run record: %w", err)
	}
	return rec, true, nil
}
