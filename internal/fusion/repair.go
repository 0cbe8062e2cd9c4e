package fusion

import (
	"context"
	"fmt"

	"github.com/siddhant1729/Trace/internal/inference"
)

// Repair re-prompts the model once with its own unparseable answer.
func Repair(ctx context.Context, inf inference.Inferer, image []byte, bad string) (string, error) {
	out, err := inf.Infer(ctx, inference.RepairPrompt(bad), image)
	if err != nil {
		return "", fmt.Errorf("repair via %s: %w", inf.Name(), err)
	}
	return out, nil
}
