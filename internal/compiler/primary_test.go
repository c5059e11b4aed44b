package compiler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Norgate-AV/labrun/internal/execution"
	"github.com/Norgate-AV/labrun/internal/language"
)

// failingDoer implements Doer and never reaches the network
type failingDoer struct {
	err error
}

func (d *failingDoer) Do(*http.Request) (*http.Response, error) {
	return nil, d.err
}

func TestPrimary_Run(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantErr    bool
		errAs      any
		wantOutput string
		wantTime   string
		wantMemory string
	}{
		{
			name:       "successful run",
			status:     http.StatusOK,
			body:       `{"output":"1\n","error":"","time":0.02,"memory":"2MB"}`,
			wantOutput: "1\n",
			wantTime:   "0.02",
			wantMemory: "2MB",
		},
		{
			name:    "remote reported error",
			status:  http.StatusOK,
			body:    `{"output":"","error":"SyntaxError: invalid syntax"}`,
			wantErr: true,
			errAs:   new(*RemoteError),
		},
		{
			name:    "non-2xx status",
			status:  http.StatusBadGateway,
			body:    `{}`,
			wantErr: true,
			errAs:   new(*ProtocolError),
		},
		{
			name:    "malformed json",
			status:  http.StatusOK,
			body:    `<html>`,
			wantErr: true,
			errAs:   new(*ProtocolError),
		},
		{
			name:    "neither output nor error",
			status:  http.StatusOK,
			body:    `{"time":1}`,
			wantErr: true,
			errAs:   new(*ProtocolError),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got PrimaryPayload

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

				data, _ := io.ReadAll(r.Body)
				_ = json.Unmarshal(data, &got)

				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p := NewPrimary(srv.URL, time.Second, nil)
			result, err := p.Run(context.Background(), Submission{
				Language:    language.Python,
				Code:        "print(1)",
				Stdin:       "in",
				Fingerprint: "fp",
			})

			assert.Equal(t, "print(1)", got.Code)
			assert.Equal(t, "python", got.Language)
			assert.Equal(t, "in", got.Input)

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.As(err, tt.errAs), "unexpected error type %T", err)
				assert.Nil(t, result)
				return
			}

			require.NoError(t, err)
			assert.True(t, result.Success)
			assert.Equal(t, tt.wantOutput, result.Output)
			assert.Equal(t, tt.wantTime, result.ExecutionTime)
			assert.Equal(t, tt.wantMemory, result.Memory)
			assert.Equal(t, execution.OriginPrimary, result.Origin)
			assert.Equal(t, "fp", result.Fingerprint)
			assert.Equal(t, language.Python, result.Language)
			assert.NotZero(t, result.Timestamp)
		})
	}
}

func TestPrimary_RunTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	p := NewPrimary(srv.URL, 50*time.Millisecond, nil)

	start := time.Now()
	_, err := p.Run(context.Background(), Submission{Language: language.Go, Code: "package main"})
	require.Error(t, err)

	var netErr *NetworkError
	require.True(t, errors.As(err, &netErr), "timeout should be a NetworkError, got %T", err)
	assert.True(t, netErr.Timeout())
	assert.Contains(t, err.Error(), "timed out")
	assert.Less(t, time.Since(start), 5*time.Second, "timeout should abort the request")
}

func TestPrimary_TransportFailure(t *testing.T) {
	p := NewPrimary("http://primary.invalid", time.Second, &failingDoer{err: errors.New("connection refused")})

	_, err := p.Run(context.Background(), Submission{Language: language.C, Code: "int main(){}"})

	var netErr *NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.False(t, netErr.Timeout())
	assert.Contains(t, err.Error(), "connection refused")
}

func TestPrimary_ResponseTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"output":"`))
		_, _ = w.Write(bytes.Repeat([]byte("x"), maxResponseBytes))
		_, _ = w.Write([]byte(`"}`))
	}))
	defer srv.Close()

	p := NewPrimary(srv.URL, time.Second, nil)
	_, err := p.Run(context.Background(), Submission{Language: language.Python, Code: "print(1)"})
	require.Error(t, err)

	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
	assert.Contains(t, protoErr.Reason, "response too large")
	assert.NotContains(t, protoErr.Reason, "malformed")
}

func TestPrimary_UnsupportedLanguage(t *testing.T) {
	doer := &failingDoer{err: errors.New("should not be called")}
	p := NewPrimary("", 0, doer)

	_, err := p.Run(context.Background(), Submission{Language: "cobol"})
	assert.True(t, errors.Is(err, language.ErrUnsupported))
	assert.Equal(t, DefaultPrimaryURL, p.URL())
}

func TestPrimary_Ping(t *testing.T) {
	var got PrimaryPayload

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &got)
		_, _ = w.Write([]byte(`{"output":"test\n"}`))
	}))
	defer srv.Close()

	p := NewPrimary(srv.URL, time.Second, nil)
	require.NoError(t, p.Ping(context.Background()))

	assert.Equal(t, `print("test")`, got.Code)
	assert.Equal(t, "python", got.Language)

	srv.Close()
	assert.Error(t, p.Ping(context.Background()), "Ping should fail once the endpoint is gone")
}
