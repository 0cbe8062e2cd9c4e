package inference

import (
	"context"
	"time"

	"github.com/siddhant1729/Trace/internal/guard"
	"github.com/siddhant1729/Trace/internal/logger"
)

// Logged records every call's latency, size and outcome.
func Logged(next Inferer, log *logger.Logger) Inferer {
	return &logging{next: next, log: log}
}

type logging struct {
	next Inferer
	log  *logger.Logger
}

func (l *logging) Name() string { return l.next.Name() }

func (l *logging) Infer(ctx context.Context, prompt string, image []byte) (string, error) {
	start := time.Now()
	out, err := l.next.Infer(ctx, prompt, image)
	kv := []interface{}{
		"model", l.next.Name(),
		"image_bytes", len(image),
		"elapsed_ms", time.Since(start).Milliseconds(),
	}
	if err != nil {
		l.log.Warn("inference failed", append(kv, "class", guard.Classify(err).String(), "error", guard.Truncate(err.Error(), guard.MaxDetail))...)
		return "", err
	}
	l.log.Debug("inference done", append(kv, "response_chars", len(out))...)
	return out, nil
}
