package cache

// ScopedKeyer prefixes every key of an inner Keyer. A Redis instance shared
// with other applications gets its own namespace this way:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "chaosgame:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner uses
// [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// PointsKey implements Keyer.
func (k *ScopedKeyer) PointsKey(rowsHash string, opts PointsKeyOpts) string {
	return k.prefix + k.inner.PointsKey(rowsHash, opts)
}

// ArtifactKey implements Keyer.
func (k *ScopedKeyer) ArtifactKey(pointsHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(pointsHash, opts)
}
