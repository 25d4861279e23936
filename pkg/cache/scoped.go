package cache

// ScopedKeyer wraps a Keyer with a prefix so separate sessions or users
// get isolated cache namespaces while sharing one backend.
//
// Example usage:
//
//	// Session-specific keys for the HTTP API
//	sessionKeyer := NewScopedKeyer(NewDefaultKeyer(), "session:abc123:")
//
//	// Shared keys for local CLI runs
//	localKeyer := NewDefaultKeyer()
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

// DocumentKey generates a prefixed key for a parsed document snapshot.
func (k *ScopedKeyer) DocumentKey(docHash string, opts DocumentKeyOpts) string {
	return k.prefix + k.inner.DocumentKey(docHash, opts)
}

// ResolveKey generates a prefixed key for an instance resolution.
func (k *ScopedKeyer) ResolveKey(docHash, instanceKey string) string {
	return k.prefix + k.inner.ResolveKey(docHash, instanceKey)
}

// ArtifactKey generates a prefixed key for a rendered artifact.
func (k *ScopedKeyer) ArtifactKey(docHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(docHash, opts)
}
