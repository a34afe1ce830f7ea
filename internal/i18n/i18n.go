// Package i18n localizes report labels and performance descriptions.
package i18n

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/okian/brevet/internal/domain/grading"
)

// Default is used when no preference matches.
var Default = language.French

// Supported lists the report languages, default first.
var Supported = []language.Tag{language.French, language.English, language.Spanish}

var matcher = language.NewMatcher(Supported)

// Report labels. Keys double as the English text.
const (
	LabelTitle           = "Grade analysis results"
	LabelEvaluations     = "Individual evaluations"
	LabelSubjectAverages = "Subject averages (weighted)"
	LabelBrevet          = "Brevet statistics"
	LabelMoyennePoints   = "Average points"
	LabelMoyenneSur20    = "Average (out of 20)"
	LabelSocle           = "Socle score (400)"
	LabelLevel           = "Performance level"
	LabelSkipped         = "Skipped records"
	LabelNoEvaluations   = "No evaluations found or processed."
	LabelSubject         = "Subject"
	LabelName            = "Name"
	LabelDate            = "Date"
	LabelCoefficient     = "Coefficient"
	LabelGrade           = "Grade"
	LabelPoints          = "Points"
	LabelReason          = "Reason"
)

var translations = map[language.Tag]map[string]string{
	language.French: {
		LabelTitle:           "Résultats de l'analyse des notes",
		LabelEvaluations:     "Évaluations",
		LabelSubjectAverages: "Moyennes par matière (pondérées)",
		LabelBrevet:          "Statistiques du Brevet",
		LabelMoyennePoints:   "Moyenne des points",
		LabelMoyenneSur20:    "Moyenne sur 20",
		LabelSocle:           "Socle sur 400",
		LabelLevel:           "Niveau",
		LabelSkipped:         "Évaluations ignorées",
		LabelNoEvaluations:   "Aucune évaluation trouvée ou traitée.",
		LabelSubject:         "Matière",
		LabelName:            "Nom",
		LabelDate:            "Date",
		LabelCoefficient:     "Coefficient",
		LabelGrade:           "Note",
		LabelPoints:          "Points",
		LabelReason:          "Motif",

		levelKey(grading.LevelExcellent): "Excellent (mention Très Bien possible)",
		levelKey(grading.LevelBien):      "Bien (mention Bien possible)",
		levelKey(grading.LevelAssezBien): "Assez bien (mention Assez Bien possible)",
		levelKey(grading.LevelReussite):  "Niveau de réussite",
		levelKey(grading.LevelEnDessous): "En dessous du niveau de réussite",
	},
	language.English: {
		levelKey(grading.LevelExcellent): "Excellent (Mention Très Bien possible)",
		levelKey(grading.LevelBien):      "Good (Mention Bien possible)",
		levelKey(grading.LevelAssezBien): "Satisfactory (Mention Assez Bien possible)",
		levelKey(grading.LevelReussite):  "Pass level",
		levelKey(grading.LevelEnDessous): "Below pass level",
	},
	language.Spanish: {
		LabelTitle:           "Resultados del análisis de notas",
		LabelEvaluations:     "Evaluaciones",
		LabelSubjectAverages: "Promedios por asignatura (ponderados)",
		LabelBrevet:          "Estadísticas del Brevet",
		LabelMoyennePoints:   "Promedio de puntos",
		LabelMoyenneSur20:    "Promedio sobre 20",
		LabelSocle:           "Puntuación del socle (400)",
		LabelLevel:           "Nivel",
		LabelSkipped:         "Evaluaciones omitidas",
		LabelNoEvaluations:   "No se encontraron evaluaciones.",
		LabelSubject:         "Asignatura",
		LabelName:            "Nombre",
		LabelDate:            "Fecha",
		LabelCoefficient:     "Coeficiente",
		LabelGrade:           "Nota",
		LabelPoints:          "Puntos",
		LabelReason:          "Motivo",

		levelKey(grading.LevelExcellent): "Excelente (Mention Très Bien posible)",
		levelKey(grading.LevelBien):      "Bien (Mention Bien posible)",
		levelKey(grading.LevelAssezBien): "Aceptable (Mention Assez Bien posible)",
		levelKey(grading.LevelReussite):  "Nivel de aprobado",
		levelKey(grading.LevelEnDessous): "Por debajo del nivel de aprobado",
	},
}

var cat = mustCatalog(translations)

// buildCatalog loads every message and reports all rejected ones at once.
func buildCatalog(messages map[language.Tag]map[string]string) (catalog.Catalog, error) {
	b := catalog.NewBuilder()
	var errs []error
	for tag, msgs := range messages {
		for key, msg := range msgs {
			// Messages contain no verbs; escape stray percent signs.
			if err := b.SetString(tag, key, strings.ReplaceAll(msg, "%", "%%")); err != nil {
				errs = append(errs, fmt.Errorf("%s %q: %w", tag, key, err))
			}
		}
	}
	return b, errors.Join(errs...)
}

func mustCatalog(messages map[language.Tag]map[string]string) catalog.Catalog {
	c, err := buildCatalog(messages)
	if err != nil {
		panic("i18n: " + err.Error())
	}
	return c
}

func levelKey(l grading.PerformanceLevel) string {
	return "level." + string(l)
}

// Match picks the best supported language for a list of preferences. Each
// preference may be a single tag ("en") or an Accept-Language header value.
func Match(prefs ...string) language.Tag {
	var tags []language.Tag
	for _, p := range prefs {
		if strings.TrimSpace(p) == "" {
			continue
		}
		parsed, _, err := language.ParseAcceptLanguage(p)
		if err != nil {
			continue
		}
		tags = append(tags, parsed...)
	}
	if len(tags) == 0 {
		return Default
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default
	}
	return Supported[idx]
}

// ErrUnsupportedLanguage is returned by Parse for languages outside Supported.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Parse resolves s to a supported language. Empty means Default.
// Unlike Match it does not fall back.
func Parse(s string) (language.Tag, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Default, nil
	}
	tag, err := language.Parse(s)
	if err != nil {
		return language.Und, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, s)
	}
	base, _ := tag.Base()
	for _, sup := range Supported {
		if b, _ := sup.Base(); b == base {
			return sup, nil
		}
	}
	return language.Und, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, s)
}

// Printer translates labels for one language.
type Printer struct {
	tag language.Tag
	p   *message.Printer
}

// NewPrinter returns a Printer for tag.
func NewPrinter(tag language.Tag) *Printer {
	return &Printer{tag: tag, p: message.NewPrinter(tag, message.Catalog(cat))}
}

// Tag returns the printer language.
func (p *Printer) Tag() language.Tag { return p.tag }

// Label translates a report label. Unknown keys come back unchanged.
func (p *Printer) Label(key string) string {
	return p.p.Sprintf(key)
}

// Describe returns the human description of a performance level.
func (p *Printer) Describe(level grading.PerformanceLevel) string {
	key := levelKey(level)
	if s := p.p.Sprintf(key); s != key {
		return s
	}
	return string(level)
}

// Number formats f with two decimals in the printer's locale.
func (p *Printer) Number(f float64) string {
	return p.p.Sprintf("%.2f", f)
}
