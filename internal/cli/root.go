// Package cli implements the brevet command-line tool.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	service "github.com/okian/brevet/internal/app"
	"github.com/okian/brevet/internal/config"
	"github.com/okian/brevet/internal/domain/grading"
	"github.com/okian/brevet/internal/domain/types"
	"github.com/okian/brevet/internal/i18n"
	"github.com/okian/brevet/internal/report"
	"github.com/okian/brevet/pkg/logger"
)

// Version is stamped at build time with -ldflags.
var Version = "dev"

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	logLevel   string
	logFile    string
	policy     string
	notation   string
	lang       string
	format     string
	output     string
	noColor    bool

	cfg *config.Config
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "brevet",
		Short: "Brevet grade analyzer",
		Long: `brevet converts graded evaluations (A+/A/C/E or V+/V/J/R) into points,
computes weighted subject averages and the Brevet statistics (socle out of 400
and performance level).

Evaluations are read from JSON or YAML files; glob patterns such as
"exports/**/*.json" are expanded.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup(cmd)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			_ = logger.Sync()
			_ = logger.Close()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "YAML config file (default $"+config.EnvConfigPath+")")
	pf.StringVar(&opts.logLevel, "log-level", "", "Log level (debug|info|warn|error)")
	pf.StringVar(&opts.logFile, "log-file", "", "Also write logs to this file")
	pf.StringVar(&opts.policy, "policy", "", "Invalid record policy (skip|abort)")
	pf.StringVar(&opts.notation, "notation", "", "Grade notation in reports (letters|colors)")
	pf.StringVar(&opts.lang, "lang", "", "Report language (fr|en|es)")
	pf.StringVarP(&opts.format, "format", "f", report.FormatConsole, "Output format (console|json|markdown)")
	pf.StringVarP(&opts.output, "output", "o", "", "Write the report to this file instead of stdout")
	pf.BoolVar(&opts.noColor, "no-color", false, "Disable colours in console output")

	root.AddCommand(
		newAnalyzeCommand(opts),
		newSubmitCommand(opts),
		newSampleCommand(opts),
		newBatchCommand(opts),
	)
	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCode(err)
	}
	return 0
}

// exitCode is 2 for unusable input data and 1 otherwise.
func exitCode(err error) int {
	if errors.Is(err, grading.ErrInsufficientData) ||
		errors.Is(err, grading.ErrInvalidGrade) ||
		errors.Is(err, grading.ErrInvalidCoefficient) {
		return 2
	}
	return 1
}

// setup loads the configuration, applies flag overrides and starts logging.
func (o *globalOptions) setup(cmd *cobra.Command) error {
	path := o.configPath
	if path == "" {
		path = os.Getenv(config.EnvConfigPath)
	}
	cfg, err := config.LoadFile(cmd.Context(), path)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	override := func(name string, dst *string, val string) {
		if flags.Changed(name) {
			*dst = val
		}
	}
	override("log-level", &cfg.LogLevel, o.logLevel)
	override("log-file", &cfg.LogFile, o.logFile)
	override("policy", &cfg.Policy, o.policy)
	override("notation", &cfg.Notation, o.notation)
	override("lang", &cfg.Language, o.lang)
	if err := cfg.Validate(); err != nil {
		return err
	}
	o.cfg = cfg

	return SetupLogging(cmd.ErrOrStderr(), cfg)
}

// SetupLogging configures the global logger to write to w and, when
// configured, to the log file as well.
func SetupLogging(w io.Writer, cfg *config.Config) error {
	if err := logger.Init(
		logger.WithOutput(w),
		logger.WithFile(cfg.LogFile),
		logger.WithJSON(cfg.JSONLogs()),
	); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	if cfg.LogFile != "" {
		logger.Get().Debug(context.Background(), "logging to file", logger.String("logFile", cfg.LogFile))
	}
	return nil
}

// newService builds the analysis service from the loaded configuration.
func (o *globalOptions) newService() *service.Service {
	policy, _ := grading.ParsePolicy(o.cfg.Policy)
	notation, _ := grading.ParseNotation(o.cfg.Notation)
	tag, _ := i18n.Parse(o.cfg.Language)
	return service.New(
		service.WithLogger(logger.Named("service")),
		service.WithPolicy(policy),
		service.WithNotation(notation),
		service.WithLanguage(tag),
		service.WithMaxEvaluations(o.cfg.MaxEvaluations),
	)
}

// render writes r in the selected format to --output or the command output.
// Labels follow the language the report was produced in.
func (o *globalOptions) render(cmd *cobra.Command, r types.Report) error {
	p := i18n.NewPrinter(i18n.Match(r.Language, o.cfg.Language))
	f, err := report.New(o.format, p, !o.noColor && o.output == "")
	if err != nil {
		return err
	}
	if o.output != "" {
		return report.WriteFile(o.output, f, r)
	}
	return f.Format(cmd.OutOrStdout(), r)
}
