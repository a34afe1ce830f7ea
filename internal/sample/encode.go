package sample

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/okian/brevet/internal/domain/types"
)

// ErrUnknownEncoding is returned by Write for encodings other than json and yaml.
var ErrUnknownEncoding = errors.New("unknown sample encoding")

// Write encodes evals as {"evaluations": [...]} in JSON or YAML, the shape
// the file source reads back.
func Write(w io.Writer, encoding string, evals []types.EvaluationInput) error {
	doc := types.AnalyzeRequest{Evaluations: evals}
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %s", ErrUnknownEncoding, encoding)
	}
}
