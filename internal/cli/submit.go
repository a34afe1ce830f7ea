package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/brevet/internal/adapters/http/client"
	"github.com/okian/brevet/internal/adapters/source"
	"github.com/okian/brevet/internal/domain/grading"
	"github.com/okian/brevet/pkg/logger"
)

func newSubmitCommand(opts *globalOptions) *cobra.Command {
	var (
		serverURL string
		timeout   time.Duration
		check     bool
	)

	cmd := &cobra.Command{
		Use:   "submit <file|glob>...",
		Short: "Send evaluations to a running brevet server and print its report",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logger.Named("submit")

			if serverURL == "" {
				serverURL = opts.cfg.ServerURL
			}
			c := client.New(serverURL, timeout)
			if check {
				if err := c.Health(ctx); err != nil {
					return err
				}
			}

			evals, err := source.NewFile(args...).Evaluations(ctx)
			if err != nil {
				return err
			}
			log.Info(ctx, "submitting evaluations",
				logger.String("url", serverURL),
				logger.Int("count", len(evals)),
			)

			rep, err := c.Analyze(ctx, evals, client.Options{
				Policy:   opts.cfg.Policy,
				Notation: opts.cfg.Notation,
				Language: opts.cfg.Language,
			})
			if err != nil {
				// Same as analyze: the skipped records are still worth showing.
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

	cmd.Flags().StringVar(&serverURL, "url", "", "Server base URL (default from config server_url)")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "HTTP request timeout")
	cmd.Flags().BoolVar(&check, "check", true, "Check /healthz before submitting")
	return cmd
}
