package report

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/okian/brevet/internal/domain/grading"
	"github.com/okian/brevet/internal/domain/types"
	"github.com/okian/brevet/internal/i18n"
)

const leaderWidth = 32

// ConsoleFormatter prints a human readable report.
type ConsoleFormatter struct {
	p        *i18n.Printer
	colorize bool
}

// NewConsoleFormatter creates a new ConsoleFormatter.
func NewConsoleFormatter(p *i18n.Printer, colorize bool) *ConsoleFormatter {
	if p == nil {
		p = i18n.NewPrinter(i18n.Default)
	}
	return &ConsoleFormatter{p: p, colorize: colorize}
}

type consoleStyles struct {
	title, heading, dim, warn lipgloss.Style
}

func (f *ConsoleFormatter) styles() consoleStyles {
	if !f.colorize {
		plain := lipgloss.NewStyle()
		return consoleStyles{title: plain, heading: plain, dim: plain, warn: plain}
	}
	return consoleStyles{
		title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")), // blue
		heading: lipgloss.NewStyle().Bold(true),
		dim:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")), // gray
		warn:    lipgloss.NewStyle().Foreground(lipgloss.Color("3")), // yellow
	}
}

// levelStyle colours the performance level from red to green.
func (f *ConsoleFormatter) levelStyle(level string) lipgloss.Style {
	if !f.colorize {
		return lipgloss.NewStyle()
	}
	color := "9" // red
	switch grading.PerformanceLevel(level) {
	case grading.LevelExcellent, grading.LevelBien:
		color = "10" // green
	case grading.LevelAssezBien, grading.LevelReussite:
		color = "11" // yellow
	}
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(color))
}

// Format writes r to w.
func (f *ConsoleFormatter) Format(w io.Writer, r types.Report) error {
	s := f.styles()
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n\n", s.title.Render("=== "+f.p.Label(i18n.LabelTitle)+" ==="))

	if len(r.Evaluations) == 0 {
		fmt.Fprintf(&b, "%s\n", f.p.Label(i18n.LabelNoEvaluations))
	} else {
		fmt.Fprintf(&b, "%s\n", s.heading.Render(f.p.Label(i18n.LabelEvaluations)+":"))
		for _, e := range r.Evaluations {
			label := e.Subject
			if e.Name != "" {
				label += " - " + e.Name
			}
			date := ""
			if e.Date != "" {
				date = s.dim.Render(" (" + e.Date + ")")
			}
			fmt.Fprintf(&b, "  %s: %s -> %s/50 x%s%s\n",
				label, e.Grade, f.p.Number(e.Points), trimFloat(e.Coefficient), date)
		}

		fmt.Fprintf(&b, "\n%s\n", s.heading.Render(f.p.Label(i18n.LabelSubjectAverages)+":"))
		for _, sub := range types.SortedSubjects(r.SubjectAverages) {
			fmt.Fprintf(&b, "  %s %s/50 (%s/20)\n",
				leader(sub.Subject, leaderWidth), f.p.Number(sub.Average), f.p.Number(sub.AverageOn20))
		}
	}

	if r.BrevetStats != nil {
		bs := r.BrevetStats
		fmt.Fprintf(&b, "\n%s\n", s.heading.Render(f.p.Label(i18n.LabelBrevet)+":"))
		fmt.Fprintf(&b, "  %s %s/50\n", leader(f.p.Label(i18n.LabelMoyennePoints), leaderWidth), f.p.Number(bs.MoyennePoints))
		fmt.Fprintf(&b, "  %s %s/20\n", leader(f.p.Label(i18n.LabelMoyenneSur20), leaderWidth), f.p.Number(bs.MoyenneSur20))
		fmt.Fprintf(&b, "  %s %s/400\n", leader(f.p.Label(i18n.LabelSocle), leaderWidth), f.p.Number(bs.SocleSur400))
		fmt.Fprintf(&b, "  %s %s\n", leader(f.p.Label(i18n.LabelLevel), leaderWidth),
			f.levelStyle(bs.PerformanceLevel).Render(bs.PerformanceDescription))
	}

	if len(r.Skipped) > 0 {
		fmt.Fprintf(&b, "\n%s\n", s.warn.Render(fmt.Sprintf("%s (%d):", f.p.Label(i18n.LabelSkipped), len(r.Skipped))))
		for _, sk := range r.Skipped {
			fmt.Fprintf(&b, "  #%d %s: %s\n", sk.Index, sk.Subject, s.dim.Render(sk.Message))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// leader pads name with dots up to width runes.
func leader(name string, width int) string {
	n := utf8.RuneCountInString(name)
	if n+2 >= width {
		return name + " .."
	}
	return name + " " + strings.Repeat(".", width-n-1)
}

// trimFloat prints coefficients without trailing zeros: 2, 0.5, 1.25.
func trimFloat(f float64) string {
	s := fmt.Sprintf("%.2f", f)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
