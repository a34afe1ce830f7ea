package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/brevet/internal/sample"
	"github.com/okian/brevet/pkg/logger"
)

func newSampleCommand(opts *globalOptions) *cobra.Command {
	var (
		count        int
		encoding     string
		subjects     []string
		colors       bool
		invalidRatio float64
	)

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Generate a synthetic evaluation file",
		Example: `  brevet sample --count 40 -o grades.json
  brevet sample --colors --invalid-ratio 0.1 --encoding yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			// The output extension wins over --encoding.
			if opts.output != "" && !cmd.Flags().Changed("encoding") {
				switch strings.ToLower(filepath.Ext(opts.output)) {
				case ".yaml", ".yml":
					encoding = "yaml"
				}
			}

			evals, err := sample.Generate(ctx, sample.Config{
				Count:        count,
				Subjects:     subjects,
				Colors:       colors,
				InvalidRatio: invalidRatio,
			})
			if err != nil {
				return err
			}
			logger.Named("sample").Info(ctx, "generated sample evaluations",
				logger.Int("count", len(evals)),
				logger.Float64("invalidRatio", invalidRatio),
			)

			if opts.output == "" {
				return sample.Write(cmd.OutOrStdout(), encoding, evals)
			}
			f, err := os.Create(opts.output)
			if err != nil {
				return fmt.Errorf("create %s: %w", opts.output, err)
			}
			if err := sample.Write(f, encoding, evals); err != nil {
				_ = f.Close()
				return err
			}
			return f.Close()
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&count, "count", "n", 24, "Number of evaluations")
	flags.StringVar(&encoding, "encoding", "json", "File encoding (json|yaml)")
	flags.StringSliceVar(&subjects, "subjects", nil, "Subjects to spread evaluations over")
	flags.BoolVar(&colors, "colors", false, "Use V+/V/J/R grades")
	flags.Float64Var(&invalidRatio, "invalid-ratio", 0, "Share of malformed records (0..1)")
	return cmd
}
