package compiler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Norgate-AV/labrun/internal/execution"
)

// DefaultFallbackURL is the base of the piston-style fallback API
const DefaultFallbackURL = "https://emkc.org/api/v2/piston"

type fallbackRun struct {
	Code   *int   `json:"code"`
	Output string `json:"output"`
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
	Time   any    `json:"time"`
	Memory any    `json:"memory"`
}

type fallbackResponse struct {
	Run     *fallbackRun `json:"run"`
	Message string       `json:"message"`
}

// Fallback runs code on the fallback API
type Fallback struct {
	base string
	client
}

// NewFallback creates a fallback endpoint client for the given base URL
func NewFallback(base string, timeout time.Duration, doer Doer) *Fallback {
	if base == "" {
		base = DefaultFallbackURL
	}

	return &Fallback{
		base:   strings.TrimRight(base, "/"),
		client: newClient(string(execution.OriginFallback), timeout, doer),
	}
}

func (f *Fallback) Name() execution.Origin {
	return execution.OriginFallback
}

func (f *Fallback) URL() string {
	return f.base
}

// Run submits code to <base>/execute.
// A non-zero exit code is not an error: it comes back as Success=false with
// the program's stderr as the diagnostic.
func (f *Fallback) Run(ctx context.Context, sub Submission) (*execution.Result, error) {
	payload, err := BuildFallbackPayload(sub)
	if err != nil {
		return nil, err
	}

	var resp fallbackResponse
	if err := f.do(ctx, http.MethodPost, f.base+"/execute", payload, &resp); err != nil {
		return nil, err
	}

	if resp.Run == nil {
		reason := "response has no run section"
		if resp.Message != "" {
			reason = resp.Message
		}

		return nil, &ProtocolError{Endpoint: f.endpoint, Reason: reason}
	}

	run := resp.Run
	success := run.Code != nil && *run.Code == 0

	output := run.Output
	if output == "" {
		output = run.Stderr
	}

	result := &execution.Result{
		Success:       success,
		Output:        output,
		Language:      sub.Language,
		Timestamp:     execution.NowMillis(),
		ExecutionTime: label(run.Time),
		Memory:        label(run.Memory),
		Origin:        execution.OriginFallback,
		Fingerprint:   sub.Fingerprint,
	}

	if !success {
		result.Error = run.Stderr
	}

	return result, nil
}

// Ping fetches the runtime list, which the fallback API serves without auth
func (f *Fallback) Ping(ctx context.Context) error {
	return f.do(ctx, http.MethodGet, f.base+"/runtimes", nil, nil)
}
