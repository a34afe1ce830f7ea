package service

import (
	"sort"
	"time"

	"github.com/okian/brevet/internal/domain/grading"
	"github.com/okian/brevet/internal/domain/types"
	"github.com/okian/brevet/internal/i18n"
)

// buildReport turns an engine result into the exported document.
// BrevetStats stays nil when the analysis had no valid evaluation.
func buildReport(
	id string,
	at time.Time,
	policy grading.Policy,
	notation grading.Notation,
	p *i18n.Printer,
	res grading.Analysis,
	total int,
) types.Report {
	r := types.Report{
		AnalysisID:       id,
		GeneratedAt:      at.UTC(),
		Policy:           policy.String(),
		Notation:         notation.String(),
		Language:         p.Tag().String(),
		Evaluations:      make([]types.EvaluationEntry, 0, len(res.Normalized)),
		SubjectAverages:  make(map[string]types.SubjectEntry, len(res.SubjectAverages)),
		Skipped:          make([]types.SkippedEntry, 0, len(res.Skipped)),
		TotalEvaluations: total,
	}

	for _, n := range res.Normalized {
		r.Evaluations = append(r.Evaluations, types.EvaluationEntry{
			ID:             n.ID,
			Subject:        n.Subject,
			Name:           n.Name,
			Grade:          n.Symbol.Display(notation),
			Symbol:         n.Symbol.String(),
			Coefficient:    n.Coefficient,
			Period:         n.Period,
			Date:           n.Date,
			Points:         n.Points,
			WeightedPoints: n.WeightedPoints,
		})
	}

	for name, avg := range res.SubjectAverages {
		r.SubjectAverages[name] = types.SubjectEntry{
			Subject:             name,
			Average:             avg.Average,
			AverageOn20:         avg.AverageOn20,
			TotalWeightedPoints: avg.TotalWeightedPoints,
			TotalCoefficient:    avg.TotalCoefficient,
			Count:               avg.Count,
		}
	}

	for _, sk := range res.Skipped {
		r.Skipped = append(r.Skipped, types.SkippedEntry{
			Index:   sk.Record.Index,
			ID:      sk.Record.ID,
			Subject: sk.Record.Subject,
			Name:    sk.Record.Name,
			Reason:  sk.Reason,
			Message: sk.Err.Error(),
		})
	}
	sort.SliceStable(r.Skipped, func(i, j int) bool { return r.Skipped[i].Index < r.Skipped[j].Index })

	if len(res.Normalized) > 0 {
		r.BrevetStats = &types.BrevetEntry{
			MoyennePoints:          res.Brevet.MoyennePoints,
			MoyenneSur20:           res.Brevet.MoyenneSur20,
			SocleSur400:            res.Brevet.SocleSur400,
			PerformanceLevel:       string(res.Brevet.PerformanceLevel),
			PerformanceDescription: p.Describe(res.Brevet.PerformanceLevel),
		}
	}
	return r
}
