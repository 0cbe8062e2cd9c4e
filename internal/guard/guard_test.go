package guard

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/siddhant1729/Trace/pkg/types"
)

type statusErr int

func (e statusErr) Error() string       { return fmt.Sprintf("status %d", int(e)) }
func (e statusErr) HTTPStatusCode() int { return int(e) }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Class
	}{
		{name: "rate_limited", err: statusErr(429), want: Transient},
		{name: "unavailable", err: statusErr(503), want: Transient},
		{name: "model_not_found", err: fmt.Errorf("generate: %w", statusErr(404)), want: Transient},
		{name: "server_error", err: statusErr(500), want: Degradable},
		{name: "bad_request", err: statusErr(400), want: Degradable},
		{name: "genai_exhausted", err: genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED"}, want: Transient},
		{name: "genai_unavailable_status_only", err: genai.APIError{Status: "UNAVAILABLE"}, want: Transient},
		{name: "genai_internal", err: genai.APIError{Code: 500, Status: "INTERNAL"}, want: Degradable},
		{name: "network", err: &net.OpError{Op: "dial", Err: errors.New("connection refused")}, want: Degradable},
		{name: "timeout", err: context.DeadlineExceeded, want: Degradable},
		{name: "canceled", err: fmt.Errorf("infer: %w", context.Canceled), want: Canceled},
		{name: "malformed", err: ErrMalformedOutput, want: Degradable},
		{name: "sentinel", err: fmt.Errorf("x: %w", ErrQuotaExceeded), want: Transient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestSurface(t *testing.T) {
	err := Surface(fmt.Errorf("gemini: %w", genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED", Message: strings.Repeat("x", 500)}))
	require.ErrorIs(t, err, ErrQuotaExceeded)
	assert.NotErrorIs(t, err, ErrUpstreamUnavailable)

	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, 429, ue.Status)
	assert.LessOrEqual(t, len([]rune(ue.Detail)), MaxDetail+1)

	var apiErr genai.APIError
	assert.ErrorAs(t, err, &apiErr, "original error stays reachable")

	assert.Same(t, err, Surface(err))

	plain := errors.New("boom")
	assert.Equal(t, plain, Surface(plain))

	wrapped := Surface(statusErr(503))
	assert.ErrorIs(t, wrapped, ErrUpstreamUnavailable)
	assert.Contains(t, wrapped.Error(), "status 503")
}

func TestPlaceholder(t *testing.T) {
	ig := Placeholder()
	require.Len(t, ig.Nodes, 1)
	assert.Equal(t, PlaceholderLabel, ig.Nodes[0].Label)
	assert.Equal(t, types.TypeProcess, ig.Nodes[0].Type)
	assert.NotNil(t, ig.Edges)
	assert.Empty(t, ig.Edges)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("  abc ", 10))
	assert.Equal(t, "ab…", Truncate("abcdef", 2))
	assert.Equal(t, "日本…", Truncate("日本語です", 2))
	assert.Equal(t, "abc", Truncate("abc", 0))
}

func TestClassString(t *testing.T) {
	assert.Equal(t, "transient", Transient.String())
	assert.Equal(t, "degradable", Degradable.String())
	assert.Equal(t, "canceled", Canceled.String())
}
