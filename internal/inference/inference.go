// Package inference wraps the multimodal models that describe a diagram.
// Every client answers one question: given a prompt and an image, what text
// did the model produce. Parsing that text is someone else's job.
package inference

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Inferer runs one prompt+image through a model.
type Inferer interface {
	Name() string
	Infer(ctx context.Context, prompt string, image []byte) (string, error)
}

// StatusError is a non-2xx answer from an HTTP model endpoint.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("inference: status %d: %s", e.Code, strings.TrimSpace(e.Body))
}

func (e *StatusError) HTTPStatusCode() int { return e.Code }

// PermanentError will not resolve with retries.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

const systemPrompt = `You are a diagram analysis engine.
Look at the diagram image and describe it as a graph.
Return ONLY valid JSON with exactly this shape:
{"nodes":[{"id":"n1","label":"...","type":"Actor|Process|Database|Interface|Decision","bbox":[x1,y1,x2,y2]}],
 "edges":[{"from":"n1","to":"n2","label":"..."}]}
Rules:
- Every node needs a unique id and the text written on the shape as label.
- Use Decision for diamonds; label their outgoing edges "Yes" or "No".
- Edges reference node ids. Use the arrow text as label, or "connects".
- Do NOT invent components that are not drawn.`

// BuildPrompt combines the fixed instructions, optional OCR hints and the
// user's question.
func BuildPrompt(query string, hints []string) string {
	var b strings.Builder
	b.WriteString(systemPrompt)
	if len(hints) > 0 {
		b.WriteString("\n\nText recognized on the image (may be noisy):\n")
		for _, h := range hints {
			b.WriteString("- ")
			b.WriteString(h)
			b.WriteByte('\n')
		}
	}
	if q := strings.TrimSpace(query); q != "" {
		b.WriteString("\n\nUser question: ")
		b.WriteString(q)
	}
	return b.String()
}

// RepairPrompt asks the model to restate a previous answer as JSON.
func RepairPrompt(bad string) string {
	return `Your previous answer could not be parsed as the required JSON.
Repair it so it matches the shape exactly:
{"nodes":[{"id":"...","label":"...","type":"..."}],"edges":[{"from":"...","to":"...","label":"..."}]}
- Keep all facts you already produced.
- Fix only structure.
- Return ONLY valid JSON.

Previous answer:
` + bad
}

// mimeType sniffs the image type; models reject octet-stream.
func mimeType(image []byte) string {
	mt := http.DetectContentType(image)
	if strings.HasPrefix(mt, "image/") {
		return mt
	}
	return "image/png"
}
