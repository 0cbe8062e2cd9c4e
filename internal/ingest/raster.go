package ingest

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/otiai10/gosseract/v2"
)

// MaxHints bounds the OCR lines passed on to the model.
const MaxHints = 20

// OCR reads text lines out of an image.
type OCR interface {
	Lines(image []byte) ([]string, error)
}

// Tesseract runs OCR through a local tesseract install.
type Tesseract struct {
	Languages []string
}

func (t Tesseract) Lines(image []byte) ([]string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if len(t.Languages) > 0 {
		if err := client.SetLanguage(t.Languages...); err != nil {
			return nil, fmt.Errorf("ocr: set language: %w", err)
		}
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return nil, fmt.Errorf("ocr: load image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("ocr: %w", err)
	}
	return Hints(text), nil
}

// Hints turns raw OCR text into distinct short label candidates.
func Hints(text string) []string {
	var out []string
	seen := map[string]bool{}
	for _, ln := range strings.Split(text, "\n") {
		l := strings.Join(strings.Fields(ln), " ")
		if utf8.RuneCountInString(l) < 2 || utf8.RuneCountInString(l) > 60 {
			continue
		}
		k := strings.ToLower(l)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, l)
		if len(out) == MaxHints {
			break
		}
	}
	return out
}
