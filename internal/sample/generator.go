// Package sample generates synthetic evaluation sets for demos and load
// tests of the analyzer.
package sample

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/okian/brevet/internal/domain/types"
)

// ErrInvalidConfig is returned for a negative count or an out-of-range ratio.
var ErrInvalidConfig = errors.New("invalid sample config")

// DefaultSubjects is used when Config.Subjects is empty.
var DefaultSubjects = []string{
	"Français", "Mathématiques", "Histoire-Géographie", "Anglais",
	"SVT", "Physique-Chimie", "Technologie", "EPS",
}

var (
	grades       = []string{"A+", "A", "C", "E"}
	colorGrades  = []string{"V+", "V", "J", "R"}
	coefficients = []float64{0.5, 1, 1, 1, 2, 3}
	badGrades    = []string{"Z", "B+", "", "12/20"}
	periods      = []string{"T1", "T2", "T3"}
)

// Grade distribution in tenths: 2/10 A+, 4/10 A, 3/10 C, 1/10 E.
var gradeWeights = []int64{2, 4, 3, 1}

// Config controls generation.
type Config struct {
	Count    int
	Subjects []string
	// Colors emits V+/V/J/R instead of A+/A/C/E.
	Colors bool
	// InvalidRatio is the share of records (0..1) made malformed on purpose.
	InvalidRatio float64
	// Rand defaults to crypto/rand.Reader.
	Rand io.Reader
	// Start is the date of the first evaluation. Defaults to now.
	Start time.Time
}

// Generate returns cfg.Count evaluations spread over the subjects.
func Generate(ctx context.Context, cfg Config) ([]types.EvaluationInput, error) {
	if cfg.Count < 0 {
		return nil, fmt.Errorf("%w: count %d", ErrInvalidConfig, cfg.Count)
	}
	if cfg.InvalidRatio < 0 || cfg.InvalidRatio > 1 {
		return nil, fmt.Errorf("%w: invalid ratio %v", ErrInvalidConfig, cfg.InvalidRatio)
	}
	subjects := cfg.Subjects
	if len(subjects) == 0 {
		subjects = DefaultSubjects
	}
	g := &generator{r: cfg.Rand}
	if g.r == nil {
		g.r = rand.Reader
	}
	start := cfg.Start
	if start.IsZero() {
		start = time.Now().UTC()
	}
	symbols := grades
	if cfg.Colors {
		symbols = colorGrades
	}

	out := make([]types.EvaluationInput, cfg.Count)
	for i := range out {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during generation: %w", err)
		}
		subject := subjects[i%len(subjects)]
		coef, err := g.pick(len(coefficients))
		if err != nil {
			return nil, err
		}
		grade, err := g.weighted(gradeWeights)
		if err != nil {
			return nil, err
		}
		c := coefficients[coef]
		ev := types.EvaluationInput{
			ID:          uuid.NewString(),
			Subject:     subject,
			Name:        fmt.Sprintf("Évaluation %d", i/len(subjects)+1),
			Grade:       symbols[grade],
			Coefficient: &c,
			Period:      periods[(i/len(subjects))%len(periods)],
			Date:        start.AddDate(0, 0, i).Format(time.DateOnly),
		}
		bad, err := g.chance(cfg.InvalidRatio)
		if err != nil {
			return nil, err
		}
		if bad {
			if err := g.corrupt(&ev); err != nil {
				return nil, err
			}
		}
		out[i] = ev
	}
	return out, nil
}

type generator struct {
	r io.Reader
}

// pick returns a uniform index in [0, n).
func (g *generator) pick(n int) (int, error) {
	v, err := rand.Int(g.r, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("random: %w", err)
	}
	return int(v.Int64()), nil
}

func (g *generator) weighted(weights []int64) (int, error) {
	var total int64
	for _, w := range weights {
		total += w
	}
	v, err := rand.Int(g.r, big.NewInt(total))
	if err != nil {
		return 0, fmt.Errorf("random: %w", err)
	}
	n := v.Int64()
	for i, w := range weights {
		if n < w {
			return i, nil
		}
		n -= w
	}
	return len(weights) - 1, nil
}

const ratioScale = 1_000_000

func (g *generator) chance(p float64) (bool, error) {
	if p <= 0 {
		return false, nil
	}
	if p >= 1 {
		return true, nil
	}
	v, err := rand.Int(g.r, big.NewInt(ratioScale))
	if err != nil {
		return false, fmt.Errorf("random: %w", err)
	}
	return float64(v.Int64()) < p*ratioScale, nil
}

// corrupt breaks either the grade or the coefficient.
func (g *generator) corrupt(ev *types.EvaluationInput) error {
	which, err := g.pick(2)
	if err != nil {
		return err
	}
	if which == 0 {
		i, err := g.pick(len(badGrades))
		if err != nil {
			return err
		}
		ev.Grade = badGrades[i]
		return nil
	}
	zero := 0.0
	ev.Coefficient = &zero
	return nil
}
