package grading

// Scale factors from the 50-point scale.
const (
	scale20  = 0.4 // 20 / 50
	scale400 = 8.0 // 400 / 50
)

// BrevetStats is derived from the global weighted average of every
// individual evaluation.
type BrevetStats struct {
	MoyennePoints    float64 // 0-50
	MoyenneSur20     float64 // MoyennePoints * 0.4
	SocleSur400      float64 // MoyennePoints * 8
	PerformanceLevel PerformanceLevel
}

// PerformanceLevel is an ordinal bucket of SocleSur400.
type PerformanceLevel string

// Performance levels from highest to lowest.
const (
	LevelExcellent PerformanceLevel = "Excellent"
	LevelBien      PerformanceLevel = "Bien"
	LevelAssezBien PerformanceLevel = "Assez Bien"
	LevelReussite  PerformanceLevel = "Niveau de réussite"
	LevelEnDessous PerformanceLevel = "En dessous du niveau de réussite"
)

// levelThresholds is ordered from the highest floor down; the first floor
// reached wins.
var levelThresholds = []struct {
	floor float64
	level PerformanceLevel
}{
	{350, LevelExcellent},
	{280, LevelBien},
	{240, LevelAssezBien},
	{200, LevelReussite},
}

// Levels lists every level from highest to lowest.
func Levels() []PerformanceLevel {
	return []PerformanceLevel{LevelExcellent, LevelBien, LevelAssezBien, LevelReussite, LevelEnDessous}
}

// LevelFor buckets a socle score on the 400-point scale.
func LevelFor(socle400 float64) PerformanceLevel {
	for _, t := range levelThresholds {
		if socle400 >= t.floor {
			return t.level
		}
	}
	return LevelEnDessous
}

// ComputeBrevet computes the Brevet statistics from one global weighted
// mean over all evaluations. It never averages subject averages, which
// would over-weight subjects with few evaluations. An empty input or a zero
// total coefficient fails with *InsufficientDataError.
func ComputeBrevet(evals []NormalizedEvaluation) (BrevetStats, error) {
	weighted := make([]float64, 0, len(evals))
	coefficients := make([]float64, 0, len(evals))
	for _, n := range evals {
		weighted = append(weighted, n.WeightedPoints)
		coefficients = append(coefficients, n.Coefficient)
	}

	totalCoef := stableSum(coefficients)
	if len(evals) == 0 || totalCoef <= 0 {
		return BrevetStats{}, &InsufficientDataError{Evaluations: len(evals), TotalCoefficient: totalCoef}
	}
	return statsFromMean(stableSum(weighted) / totalCoef), nil
}

func statsFromMean(moyenne float64) BrevetStats {
	socle := moyenne * scale400
	return BrevetStats{
		MoyennePoints:    moyenne,
		MoyenneSur20:     moyenne * scale20,
		SocleSur400:      socle,
		PerformanceLevel: LevelFor(socle),
	}
}
