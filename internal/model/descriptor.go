package model

// ModelDescriptor identifies a model the operator asked for and, once the
// registry confirms it, the concrete tag it resolved to.
type ModelDescriptor struct {
	RequestedName string
	ResolvedTag   string // filled in only after the registry confirms a loaded tag
	SizeClass     SizeClass
}

// Confirmed reports whether the registry has resolved a concrete tag.
func (d ModelDescriptor) Confirmed() bool {
	return d.ResolvedTag != ""
}

// Name returns the best known name for the model: the resolved tag when
// confirmed, the requested name otherwise.
func (d ModelDescriptor) Name() string {
	if d.ResolvedTag != "" {
		return d.ResolvedTag
	}
	return d.RequestedName
}
