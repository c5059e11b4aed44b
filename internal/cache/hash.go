package cache

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/Norgate-AV/labrun/internal/language"
)

// Fingerprint creates the cache key for a (language, code, stdin) triple.
// The key is based on:
// - Language id (kept readable)
// - xxhash of the source code
// - xxhash of stdin
// Collisions are possible and accepted.
func Fingerprint(lang language.ID, code, stdin string) string {
	return fmt.Sprintf("%s-%016x-%016x", lang, HashString(code), HashString(stdin))
}

// HashString returns the 64-bit xxhash of s
func HashString(s string) uint64 {
	return xxhash.Sum64String(s)
}
