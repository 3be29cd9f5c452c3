package memdb

// Config for the in-memory engine.
type Config struct {
	// Degree of the underlying btree, 32 when unset.
	Degree int
}
