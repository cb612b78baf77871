package model

// RequirementKind classifies how strongly a dependency is needed.
type RequirementKind string

const (
	RequirementRequired RequirementKind = "required"
	RequirementOptional RequirementKind = "optional"
)

// Requirement describes one external dependency to probe.
type Requirement struct {
	Name        string          // internal key, e.g. "ollama"
	DisplayName string          // human-readable, e.g. "Ollama inference daemon"
	Binary      string          // executable to look up, empty for server-only deps
	VersionArgs []string        // args that print a version, e.g. ["--version"]
	URL         string          // HTTP endpoint to probe, empty for CLI-only deps
	Kind        RequirementKind // required or optional
	Hint        string          // how to install or start it
}

// ServiceStatus is the probe result for a single dependency.
// Built fresh on every probe run and never persisted.
type ServiceStatus struct {
	Name      string
	Installed bool
	Reachable bool
	Version   string // empty when unknown
}
