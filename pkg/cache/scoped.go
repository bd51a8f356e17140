package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation.
// This is useful on shared Redis deployments where different training
// corpora or experiments need separate cache namespaces.
//
// Example usage:
//
//	// Experiment-specific keys
//	expKeyer := NewScopedKeyer(NewDefaultKeyer(), "exp:tri4b:")
//
//	// Global keys
//	globalKeyer := NewDefaultKeyer()
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ArtifactKey generates a prefixed key for a built denominator-graph artifact.
func (k *ScopedKeyer) ArtifactKey(fstHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(fstHash, opts)
}

// RenderKey generates a prefixed key for a rendered automaton artifact.
func (k *ScopedKeyer) RenderKey(fstHash, format string) string {
	return k.prefix + k.inner.RenderKey(fstHash, format)
}
