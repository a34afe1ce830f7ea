package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/okian/brevet/internal/adapters/batch"
	"github.com/okian/brevet/internal/adapters/source"
	"github.com/okian/brevet/internal/domain/grading"
	"github.com/okian/brevet/internal/domain/model"
	"github.com/okian/brevet/internal/domain/types"
	"github.com/okian/brevet/internal/i18n"
	"github.com/okian/brevet/internal/report"
	"github.com/okian/brevet/pkg/logger"
)

// ErrBatchFailed is returned when at least one batch job did not produce
// Brevet statistics.
var ErrBatchFailed = errors.New("batch jobs failed")

func newBatchCommand(opts *globalOptions) *cobra.Command {
	var (
		workers int
		outDir  string
	)

	cmd := &cobra.Command{
		Use:   "batch <file|glob>...",
		Short: "Analyze one report per file, concurrently",
		Long: `batch treats every matched file as the evaluations of one student and
analyzes them in parallel. A summary table is printed; with --out-dir each
report is also written in the selected --format, mirroring the input tree
below the inputs' common directory (classes/3A/alice.json and
classes/3B/alice.json give reports/3A/alice.md and reports/3B/alice.md).`,
		Example: `  brevet batch "classes/**/*.json" --workers 8 --out-dir reports --format markdown`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logger.Named("batch")

			paths, err := source.NewFile(args...).Files()
			if err != nil {
				return err
			}
			jobs := make([]batch.Job, len(paths))
			for i, p := range paths {
				jobs[i] = batch.Job{Name: p}
			}

			pool := batch.NewPool(opts.newService(), loadFile,
				batch.WithWorkers(workers),
				batch.WithLogger(log),
			)
			results, runErr := pool.Run(ctx, jobs, types.AnalysisRequest{})

			if outDir != "" {
				if err := writeBatchReports(opts, outDir, results); err != nil {
					return err
				}
			}

			p := i18n.NewPrinter(i18n.Match(opts.cfg.Language))
			fmt.Fprintln(cmd.OutOrStdout(), summaryTable(results, p, !opts.noColor))

			if runErr != nil {
				return runErr
			}
			failed := 0
			for _, r := range results {
				if r.Err != nil {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%w: %d of %d", ErrBatchFailed, failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Concurrent workers (default CPU count)")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Write one report per input file into this directory")
	return cmd
}

func loadFile(_ context.Context, name string) ([]model.Evaluation, error) {
	return source.ReadFile(name)
}

// writeBatchReports writes every report that has content. Partial reports
// from files without any valid evaluation are written too. The directory
// layout below the inputs' common directory is kept, so same-named files
// from different directories do not overwrite each other.
func writeBatchReports(opts *globalOptions, dir string, results []batch.Result) error {
	names := make([]string, len(results))
	for i, r := range results {
		names[i] = r.Job.Name
	}
	targets, err := reportPaths(names, opts.format)
	if err != nil {
		return err
	}

	for i, r := range results {
		if r.Err != nil && !errors.Is(r.Err, grading.ErrInsufficientData) {
			continue
		}
		p := i18n.NewPrinter(i18n.Match(r.Report.Language, opts.cfg.Language))
		f, err := report.New(opts.format, p, false)
		if err != nil {
			return err
		}
		path := filepath.Join(dir, targets[i])
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
		}
		if err := report.WriteFile(path, f, r.Report); err != nil {
			return err
		}
	}
	return nil
}

// reportPaths maps every input file to a unique report path relative to the
// output directory: its path below the inputs' common directory with the
// report extension. Inputs differing only by extension ("alice.json",
// "alice.yaml") keep the input extension in the name ("alice-yaml.json").
func reportPaths(inputs []string, format string) ([]string, error) {
	abs := make([]string, len(inputs))
	for i, in := range inputs {
		a, err := filepath.Abs(in)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", in, err)
		}
		abs[i] = a
	}
	root := commonDir(abs)
	ext := report.Extension(format)

	used := make(map[string]bool, len(abs))
	out := make([]string, len(abs))
	for i, a := range abs {
		rel, err := filepath.Rel(root, a)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", inputs[i], err)
		}
		inExt := filepath.Ext(rel)
		stem := strings.TrimSuffix(rel, inExt)
		name := stem + ext
		for n := 1; used[name]; n++ {
			name = fmt.Sprintf("%s-%s%s", stem, strings.TrimPrefix(inExt, "."), ext)
			if n > 1 {
				name = fmt.Sprintf("%s-%s-%d%s", stem, strings.TrimPrefix(inExt, "."), n, ext)
			}
		}
		used[name] = true
		out[i] = name
	}
	return out, nil
}

// commonDir returns the deepest directory containing every path.
func commonDir(paths []string) string {
	if len(paths) == 0 {
		return "."
	}
	root := filepath.Dir(paths[0])
	for _, p := range paths[1:] {
		for !within(root, p) {
			parent := filepath.Dir(root)
			if parent == root {
				return root
			}
			root = parent
		}
	}
	return root
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func summaryTable(results []batch.Result, p *i18n.Printer, colorize bool) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("File", "Evaluations", "Skipped", "Socle /400", "Level", "Status")

	for _, r := range results {
		socle, level, status := "-", "-", "ok"
		if bs := r.Report.BrevetStats; bs != nil {
			socle = p.Number(bs.SocleSur400)
			level = bs.PerformanceLevel
		}
		if r.Err != nil {
			status = statusOf(r.Err)
		}
		t.Row(
			r.Job.Name,
			strconv.Itoa(len(r.Report.Evaluations)),
			strconv.Itoa(len(r.Report.Skipped)),
			socle,
			level,
			status,
		)
	}

	if colorize {
		header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
		cell := lipgloss.NewStyle().Padding(0, 1)
		t.StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			if row >= 0 && row < len(results) && results[row].Err != nil {
				return cell.Foreground(lipgloss.Color("9"))
			}
			return cell
		})
	} else {
		cell := lipgloss.NewStyle().Padding(0, 1)
		t.StyleFunc(func(_, _ int) lipgloss.Style { return cell })
	}
	return t.String()
}

func statusOf(err error) string {
	switch {
	case errors.Is(err, grading.ErrInsufficientData):
		return "insufficient data"
	case errors.Is(err, grading.ErrInvalidGrade):
		return "invalid grade"
	case errors.Is(err, grading.ErrInvalidCoefficient):
		return "invalid coefficient"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}
