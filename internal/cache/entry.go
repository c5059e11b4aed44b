package cache

import (
	"time"

	"github.com/Norgate-AV/labrun/internal/execution"
)

// Entry represents a cached execution result
type Entry struct {
	// Fingerprint is the unique identifier for this cache entry
	// Computed from: language + source code + stdin
	Fingerprint string

	// Result is stored by value so later callers can't mutate it
	Result execution.Result

	// InsertedAt drives both size and age eviction
	InsertedAt time.Time
}

// Stats reports cache size and hit rate
type Stats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}
