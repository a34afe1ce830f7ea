// Package grading converts grade symbols into points, aggregates weighted
// averages per subject and derives the Brevet statistics bundle.
//
// Every function in this package is pure: no I/O, no shared state, no
// goroutines. Results are built fresh on each call and never mutated.
package grading

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Symbol is a canonical grade on the four-level scale.
type Symbol int

// Recognized symbols, ordered from lowest to highest.
const (
	SymbolUnknown Symbol = iota
	SymbolE
	SymbolC
	SymbolA
	SymbolAPlus
)

// Points awarded per symbol.
const (
	pointsAPlus = 50
	pointsA     = 40
	pointsC     = 25
	pointsE     = 10

	// MaxPoints is the top of the points scale.
	MaxPoints = pointsAPlus
)

// Both notations name the same scale: letters (A/C/E) and colours
// (V for vert, J for jaune, R for rouge).
var symbolsByNotation = map[string]Symbol{
	"A+": SymbolAPlus,
	"V+": SymbolAPlus,
	"A":  SymbolA,
	"V":  SymbolA,
	"C":  SymbolC,
	"J":  SymbolC,
	"E":  SymbolE,
	"R":  SymbolE,
}

// ParseSymbol resolves a raw grade into its canonical symbol. Matching is
// case-insensitive, ignores surrounding and inner whitespace, accents and
// full-width forms.
func ParseSymbol(raw string) (Symbol, error) {
	key := foldSymbol(raw)
	if s, ok := symbolsByNotation[key]; ok {
		return s, nil
	}
	return SymbolUnknown, fmt.Errorf("%w: %q", ErrInvalidGrade, raw)
}

// foldSymbol builds a fresh transformer per call: x/text chains keep state.
func foldSymbol(raw string) string {
	t := transform.Chain(width.Fold, norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, raw)
	if err != nil {
		folded = raw
	}
	return strings.ToUpper(strings.Join(strings.Fields(folded), ""))
}

// Points returns the points value of s, or 0 for SymbolUnknown.
func (s Symbol) Points() float64 {
	switch s {
	case SymbolAPlus:
		return pointsAPlus
	case SymbolA:
		return pointsA
	case SymbolC:
		return pointsC
	case SymbolE:
		return pointsE
	default:
		return 0
	}
}

// String returns the letter form.
func (s Symbol) String() string {
	return s.Display(NotationLetters)
}

// Display renders s in the requested notation.
func (s Symbol) Display(n Notation) string {
	letters, colors := "?", "?"
	switch s {
	case SymbolAPlus:
		letters, colors = "A+", "V+"
	case SymbolA:
		letters, colors = "A", "V"
	case SymbolC:
		letters, colors = "C", "J"
	case SymbolE:
		letters, colors = "E", "R"
	}
	if n == NotationColors {
		return colors
	}
	return letters
}

// Notation selects how symbols are rendered for people.
type Notation int

// Supported notations.
const (
	NotationLetters Notation = iota
	NotationColors
)

// ParseNotation accepts "letters"/"lettres" and "colors"/"colours"/"couleurs".
func ParseNotation(s string) (Notation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "letters", "lettres":
		return NotationLetters, nil
	case "colors", "colours", "couleurs":
		return NotationColors, nil
	default:
		return NotationLetters, fmt.Errorf("unknown notation: %s", s)
	}
}

func (n Notation) String() string {
	if n == NotationColors {
		return "colors"
	}
	return "letters"
}
