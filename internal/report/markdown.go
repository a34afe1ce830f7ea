package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/okian/brevet/internal/domain/types"
	"github.com/okian/brevet/internal/i18n"
)

// MarkdownFormatter writes the report as a Markdown document.
type MarkdownFormatter struct {
	p *i18n.Printer
}

// NewMarkdownFormatter creates a new MarkdownFormatter.
func NewMarkdownFormatter(p *i18n.Printer) *MarkdownFormatter {
	if p == nil {
		p = i18n.NewPrinter(i18n.Default)
	}
	return &MarkdownFormatter{p: p}
}

// Format writes r to w.
func (f *MarkdownFormatter) Format(w io.Writer, r types.Report) error {
	var b strings.Builder
	p := f.p

	fmt.Fprintf(&b, "# %s\n\n", p.Label(i18n.LabelTitle))
	if r.AnalysisID != "" {
		fmt.Fprintf(&b, "**ID:** `%s`  \n", r.AnalysisID)
	}
	if !r.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "**Generated:** %s\n\n", r.GeneratedAt.Format(time.RFC3339))
	}

	if r.BrevetStats != nil {
		bs := r.BrevetStats
		fmt.Fprintf(&b, "## %s\n\n", p.Label(i18n.LabelBrevet))
		b.WriteString("| | |\n|---|---:|\n")
		fmt.Fprintf(&b, "| %s | %s / 50 |\n", p.Label(i18n.LabelMoyennePoints), p.Number(bs.MoyennePoints))
		fmt.Fprintf(&b, "| %s | %s / 20 |\n", p.Label(i18n.LabelMoyenneSur20), p.Number(bs.MoyenneSur20))
		fmt.Fprintf(&b, "| %s | %s / 400 |\n", p.Label(i18n.LabelSocle), p.Number(bs.SocleSur400))
		fmt.Fprintf(&b, "| %s | %s |\n\n", p.Label(i18n.LabelLevel), escapeCell(bs.PerformanceDescription))
	}

	fmt.Fprintf(&b, "## %s\n\n", p.Label(i18n.LabelSubjectAverages))
	if len(r.SubjectAverages) == 0 {
		fmt.Fprintf(&b, "*%s*\n\n", p.Label(i18n.LabelNoEvaluations))
	} else {
		fmt.Fprintf(&b, "| %s | /50 | /20 | %s |\n|---|---:|---:|---:|\n", p.Label(i18n.LabelSubject), p.Label(i18n.LabelCoefficient))
		for _, s := range types.SortedSubjects(r.SubjectAverages) {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
				escapeCell(s.Subject), p.Number(s.Average), p.Number(s.AverageOn20), trimFloat(s.TotalCoefficient))
		}
		b.WriteString("\n")
	}

	if len(r.Evaluations) > 0 {
		fmt.Fprintf(&b, "## %s\n\n", p.Label(i18n.LabelEvaluations))
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n|---|---|---|---|---:|---:|\n",
			p.Label(i18n.LabelSubject), p.Label(i18n.LabelName), p.Label(i18n.LabelDate),
			p.Label(i18n.LabelGrade), p.Label(i18n.LabelCoefficient), p.Label(i18n.LabelPoints))
		for _, e := range r.Evaluations {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
				escapeCell(e.Subject), escapeCell(e.Name), escapeCell(e.Date),
				e.Grade, trimFloat(e.Coefficient), p.Number(e.Points))
		}
		b.WriteString("\n")
	}

	if len(r.Skipped) > 0 {
		fmt.Fprintf(&b, "## %s\n\n", p.Label(i18n.LabelSkipped))
		fmt.Fprintf(&b, "| # | %s | %s |\n|---:|---|---|\n", p.Label(i18n.LabelSubject), p.Label(i18n.LabelReason))
		for _, sk := range r.Skipped {
			fmt.Fprintf(&b, "| %d | %s | %s |\n", sk.Index, escapeCell(sk.Subject), escapeCell(sk.Message))
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
