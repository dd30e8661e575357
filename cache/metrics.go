package cache

// Metrics carries the monotonically non-decreasing counters spec.md §3.1
// asks for, plus the two size gauges. Callers get a read-only copy via
// Cache.Metrics; the live counters live on the Cache itself, guarded by the
// same lock as everything else, mirroring how the teacher's own metrics
// structs are plain fields mutated under a containing lock rather than
// atomics.
type Metrics struct {
	Hits        int64
	Misses      int64
	Sets        int64
	Deletes     int64
	Evictions   int64
	Expirations int64
	TotalSize   int64
	PeakSize    int64
}
