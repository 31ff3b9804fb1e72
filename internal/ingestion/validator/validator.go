// Package validator checks documents before they enter the pipeline and
// returns per-field error details.
package validator

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/ingestion"
)

const (
	maxTextLength   = 1048576
	maxLabelLength  = 255
	maxSourceLength = 1024
)

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s:%s", field, msg))
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

// ValidateDocument rejects empty, oversized or non-UTF-8 text and overlong
// metadata.
func ValidateDocument(doc ingestion.Document) error {
	errs := make(map[string]string)

	switch {
	case strings.TrimSpace(doc.Text) == "":
		errs["text"] = "text is required and must not be blank"
	case len(doc.Text) > maxTextLength:
		errs["text"] = fmt.Sprintf("text must be at most %d bytes", maxTextLength)
	case !utf8.ValidString(doc.Text):
		errs["text"] = "text must be valid UTF-8"
	}
	if len(doc.Label) > maxLabelLength {
		errs["label"] = fmt.Sprintf("label must be at most %d characters", maxLabelLength)
	}
	if len(doc.Source) > maxSourceLength {
		errs["source"] = fmt.Sprintf("source must be at most %d characters", maxSourceLength)
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// ValidateIngestRequest validates the document carried by req.
func ValidateIngestRequest(req *ingestion.IngestRequest) error {
	return ValidateDocument(ingestion.Document{Text: req.Text, Label: req.Label, Source: req.Source})
}
