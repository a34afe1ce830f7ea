// Package report renders analysis reports for people and machines.
package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/okian/brevet/internal/domain/types"
	"github.com/okian/brevet/internal/i18n"
)

// Supported output formats.
const (
	FormatConsole  = "console"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// ErrUnknownFormat is returned by New for unsupported format names.
var ErrUnknownFormat = errors.New("unknown report format")

// Formatter writes one report.
type Formatter interface {
	Format(w io.Writer, r types.Report) error
}

// Extension returns the file extension used for format.
func Extension(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatJSON:
		return ".json"
	case FormatMarkdown, "md":
		return ".md"
	default:
		return ".txt"
	}
}

// New returns the formatter for format. The console and markdown
// formatters translate labels with p; colorize only affects the console.
func New(format string, p *i18n.Printer, colorize bool) (Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatConsole:
		return NewConsoleFormatter(p, colorize), nil
	case FormatJSON:
		return NewJSONFormatter(true), nil
	case FormatMarkdown, "md":
		return NewMarkdownFormatter(p), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}

// WriteFile renders r with f into path, replacing any existing file.
func WriteFile(path string, f Formatter, r types.Report) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := f.Format(out, r); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
