// Package guard decides what happens when the inference call fails: transient
// and quota failures surface to the caller, everything else degrades to a
// placeholder graph.
package guard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/siddhant1729/Trace/pkg/types"
)

var (
	// ErrQuotaExceeded marks rate limiting and exhausted quota upstream.
	ErrQuotaExceeded = errors.New("upstream quota exceeded")
	// ErrUpstreamUnavailable marks an unavailable upstream service or model.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrMalformedOutput marks model output with no usable records.
	ErrMalformedOutput = errors.New("malformed upstream output")
)

// PlaceholderLabel names the single node of a placeholder graph.
const PlaceholderLabel = "Unknown Component"

// MaxDetail bounds how much upstream detail reaches callers.
const MaxDetail = 200

type Class int

const (
	// Degradable failures are replaced by a placeholder graph.
	Degradable Class = iota
	// Transient failures propagate to the caller.
	Transient
	// Canceled means the caller gave up; nothing is produced.
	Canceled
)

func (c Class) String() string {
	switch c {
	case Transient:
		return "transient"
	case Canceled:
		return "canceled"
	default:
		return "degradable"
	}
}

// StatusCoder is implemented by errors that carry an upstream HTTP status.
type StatusCoder interface {
	HTTPStatusCode() int
}

// UpstreamError is returned to callers for transient failures.
type UpstreamError struct {
	Kind   error // ErrQuotaExceeded or ErrUpstreamUnavailable
	Status int
	Detail string
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%v (status %d): %s", e.Kind, e.Status, e.Detail)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Detail)
}

func (e *UpstreamError) Unwrap() []error { return []error{e.Kind, e.Err} }

// Classify sorts an inference error. A nil error is Degradable only in the
// sense that it needs no handling; callers check err != nil first.
func Classify(err error) Class {
	if err == nil {
		return Degradable
	}
	if errors.Is(err, context.Canceled) {
		return Canceled
	}
	if errors.Is(err, ErrQuotaExceeded) || errors.Is(err, ErrUpstreamUnavailable) {
		return Transient
	}
	if _, ok := transientKind(err); ok {
		return Transient
	}
	return Degradable
}

// Surface wraps a transient error for the caller. Other errors come back
// unchanged.
func Surface(err error) error {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return err
	}
	kind, ok := transientKind(err)
	if !ok {
		if errors.Is(err, ErrQuotaExceeded) {
			kind = ErrQuotaExceeded
		} else if errors.Is(err, ErrUpstreamUnavailable) {
			kind = ErrUpstreamUnavailable
		} else {
			return err
		}
	}
	return &UpstreamError{Kind: kind, Status: statusOf(err), Detail: Truncate(err.Error(), MaxDetail), Err: err}
}

func transientKind(err error) (error, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch strings.ToUpper(apiErr.Status) {
		case "RESOURCE_EXHAUSTED":
			return ErrQuotaExceeded, true
		case "UNAVAILABLE", "NOT_FOUND":
			return ErrUpstreamUnavailable, true
		}
		if k, ok := kindForStatus(apiErr.Code); ok {
			return k, true
		}
	}
	var sc StatusCoder
	if errors.As(err, &sc) {
		return kindForStatus(sc.HTTPStatusCode())
	}
	return nil, false
}

func kindForStatus(code int) (error, bool) {
	switch code {
	case http.StatusTooManyRequests:
		return ErrQuotaExceeded, true
	case http.StatusServiceUnavailable, http.StatusNotFound:
		return ErrUpstreamUnavailable, true
	}
	return nil, false
}

func statusOf(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var sc StatusCoder
	if errors.As(err, &sc) {
		return sc.HTTPStatusCode()
	}
	return 0
}

// Placeholder is the minimal graph used when extraction fails for
// non-transient reasons: one Process node and no edges.
func Placeholder() types.IntermediateGraph {
	return types.IntermediateGraph{
		Nodes: []types.Node{{Label: PlaceholderLabel, Type: types.TypeProcess, BBox: []float64{}}},
		Edges: []types.Edge{},
	}
}

// Truncate shortens s to at most n runes, marking the cut.
func Truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
