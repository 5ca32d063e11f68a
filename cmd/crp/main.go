package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"

	"github.com/rgehrsitz/crp/internal/calculation"
	"github.com/rgehrsitz/crp/internal/config"
	"github.com/rgehrsitz/crp/internal/domain"
	"github.com/rgehrsitz/crp/internal/logger"
	"github.com/rgehrsitz/crp/internal/output"
	"github.com/rgehrsitz/crp/internal/transform"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// app holds state shared by every subcommand once the root pre-run has loaded
// settings.
type app struct {
	settings *config.Settings
	log      *logger.ZerologLogger
}

func (a *app) setup(cmd *cobra.Command) error {
	settingsPath, _ := cmd.Flags().GetString("settings")
	settings, err := config.LoadSettings(settingsPath)
	if err != nil {
		return err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		settings.LogLevel = lvl
	}
	if dbg, _ := cmd.Flags().GetBool("debug"); dbg {
		settings.LogLevel = "debug"
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	l, err := logger.NewWithWriter(cmd.ErrOrStderr(), "crp", settings.LogLevel)
	if err != nil {
		return err
	}
	a.settings = settings
	a.log = l
	return nil
}

// load reads and validates an input document.
func (a *app) load(path string) (*config.AnalysisInput, error) {
	input, err := config.NewInputParser().LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	a.log.Debugf("loaded %s: plant %q, %d scenario(s)", path, input.Plant.Name, len(input.Scenarios))
	return input, nil
}

// engine builds a calculation engine for input, applying settings overrides.
func (a *app) engine(input *config.AnalysisInput) *calculation.CalculationEngine {
	f := a.settings.ApplyTo(input.FinancingParameters())
	engine := calculation.NewCalculationEngineWithFinancing(f)
	engine.BaselineScenario = input.Options.BaselineScenario
	engine.Parallelism = input.Options.Parallelism
	if a.settings.Parallelism > 0 {
		engine.Parallelism = a.settings.Parallelism
	}
	engine.SetLogger(a.log.With("plant", input.Plant.Name))
	return engine
}

// emit renders results with the named formatter, either to w or to a timestamped
// file when an output directory is configured.
func (a *app) emit(cmd *cobra.Command, input *config.AnalysisInput, financing domain.FinancingParameters, results []*domain.ScenarioResult) error {
	format, _ := cmd.Flags().GetString("format")
	if format == "" {
		format = a.settings.Format
	}
	f := output.GetFormatterByName(format)
	if f == nil {
		return fmt.Errorf("unknown output format: %s (available: %s)", format,
			strings.Join(output.AvailableFormatterNames(), ", "))
	}
	report := output.NewReport(input.Plant, financing, results)

	dir, _ := cmd.Flags().GetString("output-dir")
	if dir == "" {
		dir = a.settings.OutputDir
	}
	if dir != "" {
		filename, err := output.WriteFormattedIn(dir, f, report, output.Extension(f))
		if err != nil {
			return err
		}
		a.log.Infof("report %s written to %s", report.RunID, filename)
		fmt.Fprintln(cmd.OutOrStdout(), filename)
		return nil
	}

	data, err := f.Format(report)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "crp",
		Short: "Climate Risk Premium calculator",
		Long: `Estimate how climate transition and physical risk change the cost of capital
for a thermal generating asset. Each scenario is carried through risk adjustment,
cash flow projection, financial metrics, credit rating, and financing to produce
a climate risk premium in basis points.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().String("settings", "", "Path to a settings file (yaml or json)")
	root.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().Bool("debug", false, "Enable debug logging")

	root.AddCommand(
		runCmd(a),
		batchCmd(a),
		compareCmd(a),
		sensitivityCmd(a),
		breakEvenCmd(a),
		validateCmd(a),
		versionCmd(),
	)
	return root
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", "", fmt.Sprintf("Output format (%s)", strings.Join(output.AvailableFormatterNames(), ", ")))
	cmd.Flags().String("output-dir", "", "Write the report to a timestamped file in this directory")
}

func runCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [input-file]",
		Short: "Evaluate a single scenario",
		Long: `Evaluate one scenario from the input file. Without --scenario the first
scenario in the file is used.

Examples:
  crp run plant.yaml --scenario net_zero
  crp run plant.yaml --scenario net_zero --format cashflows`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := a.load(args[0])
			if err != nil {
				return err
			}
			name, _ := cmd.Flags().GetString("scenario")
			if name == "" {
				name = input.Scenarios[0].Name
			}
			bundle, ok := input.Scenario(name)
			if !ok {
				return fmt.Errorf("scenario %s not found (available: %s)", name, strings.Join(input.ScenarioNames(), ", "))
			}
			specs, _ := cmd.Flags().GetStringArray("transform")
			if len(specs) > 0 {
				bundle, err = applyTransformSpecs(bundle, specs)
				if err != nil {
					return err
				}
			}

			engine := a.engine(input)
			if err := engine.Validate(input.Plant); err != nil {
				return err
			}
			baseline, _ := input.Scenario(engine.BaselineScenario)
			ref, err := engine.Reference(cmd.Context(), input.Plant, baseline)
			if err != nil {
				return err
			}
			result, err := engine.RunScenarioWithReference(cmd.Context(), input.Plant, bundle, ref)
			if err != nil {
				return err
			}
			return a.emit(cmd, input, engine.Financing, []*domain.ScenarioResult{result})
		},
	}
	cmd.Flags().StringP("scenario", "s", "", "Scenario name to evaluate")
	cmd.Flags().StringArray("transform", nil, "Transform applied to the scenario before evaluation, e.g. scale_carbon_price:factor=1.5 (repeatable)")
	addOutputFlags(cmd)
	return cmd
}

// applyTransformSpecs parses name:key=value specs and applies them in order.
func applyTransformSpecs(bundle *domain.ScenarioBundle, specs []string) (*domain.ScenarioBundle, error) {
	registry := transform.NewTransformRegistry()
	transforms := make([]transform.ScenarioTransform, 0, len(specs))
	for _, spec := range specs {
		t, err := registry.ParseTransformSpec(spec)
		if err != nil {
			return nil, fmt.Errorf("invalid --transform %q: %w (available: %s)", spec, err, strings.Join(registry.List(), ", "))
		}
		transforms = append(transforms, t)
	}
	return transform.ApplyTransforms(bundle, transforms)
}

func batchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [input-file]",
		Short: "Evaluate every scenario in the input file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := a.load(args[0])
			if err != nil {
				return err
			}
			engine := a.engine(input)
			results, err := engine.RunBatch(cmd.Context(), input.Plant, input.Scenarios)
			if err != nil {
				return err
			}
			return a.emit(cmd, input, engine.Financing, results)
		},
	}
	addOutputFlags(cmd)
	return cmd
}

func validateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [input-file]",
		Short: "Validate an input file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := a.load(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Input file %s is valid: plant %q with %d scenario(s)\n",
				args[0], input.Plant.Name, len(input.Scenarios))
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "crp %s (commit %s, built %s)\n", version, commit, date)
			if info := buildInfo(); info != "" {
				fmt.Fprintln(cmd.OutOrStdout(), info)
			}
		},
	}
}

func buildInfo() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		return bi.Main.Path + " " + bi.GoVersion
	}
	return ""
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := execute(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		stop()
		os.Exit(1)
	}
}
