package model

// Mode selects how much of the stack is active.
type Mode string

const (
	ModeFast Mode = "fast"
	ModeFull Mode = "full"
)

// Target is the concrete launch surface a dispatch resolves to.
type Target string

const (
	TargetNative          Target = "native"
	TargetContainerNative Target = "containerNative"
	TargetContainerFull   Target = "containerFull"
)

// LaunchPlan is the outcome of mode resolution. Computed once per
// invocation and consumed exactly once by the launch action.
type LaunchPlan struct {
	Mode         Mode
	Target       Target
	EnvOverrides map[string]string
}
