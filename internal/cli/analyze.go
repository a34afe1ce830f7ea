package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/okian/brevet/internal/adapters/source"
	"github.com/okian/brevet/internal/domain/grading"
	"github.com/okian/brevet/internal/domain/types"
	"github.com/okian/brevet/pkg/logger"
)

func newAnalyzeCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <file|glob>...",
		Short: "Analyze evaluations from JSON or YAML files",
		Example: `  brevet analyze grades.json
  brevet analyze "exports/**/*.yaml" --lang en --format markdown -o report.md`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logger.Named("analyze")

			evals, err := source.NewFile(args...).Evaluations(ctx)
			if err != nil {
				return err
			}
			log.Debug(ctx, "evaluations loaded", logger.Int("count", len(evals)))

			svc := opts.newService()
			rep, err := svc.Analyze(ctx, types.AnalysisRequest{Evaluations: evals})
			if err != nil {
				// The skipped records are still worth showing.
				if errors.Is(err, grading.ErrInsufficientData) {
					if rerr := opts.render(cmd, rep); rerr != nil {
						return rerr
					}
				}
				return err
			}
			return opts.render(cmd, rep)
		},
	}
}
