// Package execution defines the request and result types shared by the
// dispatcher, the remote compiler clients and the simulated executor.
package execution

import (
	"time"

	"github.com/google/uuid"

	"github.com/Norgate-AV/labrun/internal/language"
)

// Origin tags which execution path produced a result
type Origin string

const (
	OriginPrimary   Origin = "primary"
	OriginFallback  Origin = "fallback"
	OriginSimulated Origin = "simulated"
)

// Options tune a single request
type Options struct {
	// Force skips the cache lookup and always dispatches
	Force bool `json:"force,omitempty"`

	// Simulate skips both remote endpoints
	Simulate bool `json:"simulate,omitempty"`

	// Args are passed to the program by the fallback endpoint
	Args []string `json:"args,omitempty"`
}

// Request is one queued execution. It is not modified after it is enqueued.
type Request struct {
	ID       string
	Language language.ID
	Code     string
	Stdin    string
	Options  Options
	Queued   time.Time
}

// NewRequest builds a request with a fresh id
func NewRequest(lang language.ID, code, stdin string, opts Options) Request {
	return Request{
		ID:       uuid.NewString(),
		Language: lang,
		Code:     code,
		Stdin:    stdin,
		Options:  opts,
		Queued:   time.Now(),
	}
}

// Result is the outcome of one execution request.
// Results are created once and never mutated; the cache stores them by value.
type Result struct {
	// Success is false for remote compile/runtime errors
	Success bool `json:"success"`

	// Output is the program output, or the compiler's error text on failure
	Output string `json:"output"`

	// Error holds the remote diagnostic when Success is false
	Error string `json:"error,omitempty"`

	Language language.ID `json:"language"`

	// Timestamp is the creation time in unix milliseconds
	Timestamp int64 `json:"timestamp"`

	// ExecutionTime and Memory are display labels reported by the executor
	ExecutionTime string `json:"executionTime,omitempty"`
	Memory        string `json:"memory,omitempty"`

	Origin Origin `json:"origin"`

	// Simulated marks canned output that must be shown with a badge
	Simulated bool `json:"simulated,omitempty"`

	Fingerprint string `json:"fingerprint"`
}

// NowMillis returns the current time in unix milliseconds
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
