// Package simulated provides the offline stand-in executor used when neither
// remote API can be reached. It never looks at the code it is given.
package simulated

import (
	"context"
	"fmt"
	"time"

	"github.com/Norgate-AV/labrun/internal/execution"
	"github.com/Norgate-AV/labrun/internal/language"
)

// DefaultDelay keeps simulated runs from feeling instant
const DefaultDelay = 500 * time.Millisecond

const (
	executionTimeLabel = "100ms"
	memoryLabel        = "1MB"
)

// Executor returns canned per-language output
type Executor struct {
	delay time.Duration
}

// New creates an executor that waits delay before answering.
// A negative delay is treated as zero.
func New(delay time.Duration) *Executor {
	if delay < 0 {
		delay = 0
	}

	return &Executor{delay: delay}
}

// Execute returns the simulated result for lang.
// The only error is the context's, if it ends during the delay.
func (e *Executor) Execute(ctx context.Context, lang language.ID, code, stdin string) (*execution.Result, error) {
	if e.delay > 0 {
		timer := time.NewTimer(e.delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return &execution.Result{
		Success:       true,
		Output:        Output(lang, code, stdin),
		Language:      lang,
		Timestamp:     execution.NowMillis(),
		ExecutionTime: executionTimeLabel,
		Memory:        memoryLabel,
		Origin:        execution.OriginSimulated,
		Simulated:     true,
	}, nil
}

// Output builds the canned text without any delay
func Output(lang language.ID, code, stdin string) string {
	var out string
	if d, err := language.Lookup(lang); err == nil && d.Template != "" {
		out = d.Template
	} else {
		input := stdin
		if input == "" {
			input = "None"
		}

		out = fmt.Sprintf("Simulated execution for %s\nCode length: %d characters\nInput: %s", lang, len([]rune(code)), input)
	}

	if stdin != "" {
		out += fmt.Sprintf("\n\nUser input processed: \"%s\"", stdin)
	}

	return out
}
