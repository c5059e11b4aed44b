// Package compiler talks to the remote code-execution APIs.
//
// Two endpoints are supported: the primary API, which takes {code, language,
// input}, and a piston-style fallback API, which takes a file list. Both
// satisfy Runner so the dispatcher can try them in order.
package compiler

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Norgate-AV/labrun/internal/execution"
	"github.com/Norgate-AV/labrun/internal/language"
)

// Submission is what gets sent to a remote endpoint
type Submission struct {
	Language    language.ID
	Code        string
	Stdin       string
	Args        []string
	Fingerprint string
}

// Runner executes a submission on one endpoint
type Runner interface {
	Name() execution.Origin
	Run(ctx context.Context, sub Submission) (*execution.Result, error)
	Ping(ctx context.Context) error
}

// PrimaryPayload is the request body of the primary API
type PrimaryPayload struct {
	Code     string `json:"code"`
	Language string `json:"language"`
	Input    string `json:"input"`
}

// FallbackFile is one source file sent to the fallback API
type FallbackFile struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// FallbackPayload is the request body of the fallback API
type FallbackPayload struct {
	Language string         `json:"language"`
	Version  string         `json:"version"`
	Files    []FallbackFile `json:"files"`
	Stdin    string         `json:"stdin"`
	Args     []string       `json:"args"`
}

// BuildPrimaryPayload builds the request body for the primary API
func BuildPrimaryPayload(sub Submission) (*PrimaryPayload, error) {
	d, err := language.Lookup(sub.Language)
	if err != nil {
		return nil, err
	}

	return &PrimaryPayload{
		Code:     sub.Code,
		Language: string(d.ID),
		Input:    sub.Stdin,
	}, nil
}

// BuildFallbackPayload builds the request body for the fallback API
func BuildFallbackPayload(sub Submission) (*FallbackPayload, error) {
	d, err := language.Lookup(sub.Language)
	if err != nil {
		return nil, err
	}

	args := sub.Args
	if args == nil {
		args = []string{}
	}

	return &FallbackPayload{
		Language: string(d.ID),
		Version:  d.Version,
		Files: []FallbackFile{
			{
				Name:    fmt.Sprintf("main.%s", d.Extension),
				Content: sub.Code,
			},
		},
		Stdin: sub.Stdin,
		Args:  args,
	}, nil
}

// label turns a loosely typed time/memory field into a display string
func label(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
