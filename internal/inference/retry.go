package inference

import (
	"context"
	"errors"
	"time"

	"github.com/siddhant1729/Trace/internal/guard"
)

// Retry retries Infer up to maxAttempts with exponential backoff starting at
// baseDelay. Transient (quota/unavailable) and permanent errors are returned
// at once: retrying them would burn quota or hide the condition.
func Retry(next Inferer, maxAttempts int, baseDelay time.Duration) Inferer {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 300 * time.Millisecond
	}
	return &retrying{next: next, max: maxAttempts, base: baseDelay}
}

type retrying struct {
	next Inferer
	max  int
	base time.Duration
}

func (r *retrying) Name() string { return r.next.Name() }

func (r *retrying) Infer(ctx context.Context, prompt string, image []byte) (string, error) {
	var last error
	for i := 0; i < r.max; i++ {
		out, err := r.next.Infer(ctx, prompt, image)
		if err == nil {
			return out, nil
		}
		var pErr *PermanentError
		if errors.As(err, &pErr) || guard.Classify(err) != guard.Degradable {
			return "", err
		}
		last = err
		if i == r.max-1 {
			break
		}
		t := time.NewTimer(r.base * time.Duration(1<<i))
		select {
		case <-ctx.Done():
			t.Stop()
			return "", ctx.Err()
		case <-t.C:
		}
	}
	return "", last
}
