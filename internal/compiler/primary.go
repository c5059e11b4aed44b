package compiler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Norgate-AV/labrun/internal/execution"
	"github.com/Norgate-AV/labrun/internal/language"
)

// DefaultPrimaryURL is the primary code-execution API
const DefaultPrimaryURL = "https://api.codex.jaagrav.in"

// primaryResponse mirrors the fields the primary API returns.
// time and memory are sometimes numbers and sometimes strings.
type primaryResponse struct {
	Output *string `json:"output"`
	Error  *string `json:"error"`
	Time   any     `json:"time"`
	Memory any     `json:"memory"`
}

// Primary runs code on the primary API
type Primary struct {
	url string
	client
}

// NewPrimary creates a primary endpoint client.
// A zero timeout uses DefaultTimeout and a nil doer uses a plain *http.Client.
func NewPrimary(url string, timeout time.Duration, doer Doer) *Primary {
	if url == "" {
		url = DefaultPrimaryURL
	}

	return &Primary{
		url:    url,
		client: newClient(string(execution.OriginPrimary), timeout, doer),
	}
}

func (p *Primary) Name() execution.Origin {
	return execution.OriginPrimary
}

func (p *Primary) URL() string {
	return p.url
}

// Run submits code to the primary API. An error reported in the response's
// error field comes back as a RemoteError so the caller can fall back.
func (p *Primary) Run(ctx context.Context, sub Submission) (*execution.Result, error) {
	payload, err := BuildPrimaryPayload(sub)
	if err != nil {
		return nil, err
	}

	var resp primaryResponse
	if err := p.do(ctx, http.MethodPost, p.url, payload, &resp); err != nil {
		return nil, err
	}

	if resp.Error != nil && strings.TrimSpace(*resp.Error) != "" {
		return nil, &RemoteError{Endpoint: p.endpoint, Message: *resp.Error}
	}

	if resp.Output == nil {
		return nil, &ProtocolError{Endpoint: p.endpoint, Reason: "response has neither output nor error"}
	}

	return &execution.Result{
		Success:       true,
		Output:        *resp.Output,
		Language:      sub.Language,
		Timestamp:     execution.NowMillis(),
		ExecutionTime: label(resp.Time),
		Memory:        label(resp.Memory),
		Origin:        execution.OriginPrimary,
		Fingerprint:   sub.Fingerprint,
	}, nil
}

// Ping submits a trivial python program. Any 2xx response counts, even one
// reporting an error.
func (p *Primary) Ping(ctx context.Context) error {
	payload := &PrimaryPayload{
		Code:     `print("test")`,
		Language: string(language.Python),
	}

	return p.do(ctx, http.MethodPost, p.url, payload, nil)
}
