package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/okian/brevet/internal/domain/types"
)

// JSONFormatter writes the report document as JSON.
type JSONFormatter struct {
	indent bool
}

// NewJSONFormatter creates a new JSONFormatter.
func NewJSONFormatter(indent bool) *JSONFormatter {
	return &JSONFormatter{indent: indent}
}

// Format encodes r. Numbers keep full precision.
func (f *JSONFormatter) Format(w io.Writer, r types.Report) error {
	enc := json.NewEncoder(w)
	if f.indent {
		enc.SetIndent("", "  ")
	}
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}
