// rothcast projects multi-year retirement finances and compares a
// Roth conversion plan against a no-conversion baseline.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rothcast/rothcast/internal/calculation"
	"github.com/rothcast/rothcast/internal/config"
	"github.com/rothcast/rothcast/internal/output"
	"github.com/rothcast/rothcast/internal/rules"
)

var version = "dev"

var (
	inputPath  string
	outputPath string
	format     string
	tablesDir  string
	tablesYear int
	verbose    bool
)

func main() {
	root := &cobra.Command{
		Use:   "rothcast",
		Short: "Retirement projection and Roth conversion analysis",
		Long: `rothcast runs year-by-year retirement projections with RMDs,
federal and state taxes, Social Security taxation, and Medicare/IRMAA
surcharges, and compares Roth conversion plans against a baseline.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&inputPath, "input", "i", "", "scenario YAML file")
	root.PersistentFlags().StringVarP(&outputPath, "output", "o", "", "write results to a file instead of stdout")
	root.PersistentFlags().StringVarP(&format, "format", "f", "console", "output format: console, csv, json")
	root.PersistentFlags().StringVar(&tablesDir, "tables", "", "directory of reference table CSVs (default: embedded 2025 tables)")
	root.PersistentFlags().IntVar(&tablesYear, "tables-year", rules.DefaultYear, "tax year of the reference tables")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(projectCmd(), compareCmd(), tablesCmd(), versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func projectCmd() *cobra.Command {
	var baseline bool
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Run a single projection",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, rs, log, err := setup()
			if err != nil {
				return err
			}

			plan := input.Plan
			if baseline {
				plan = nil
			}

			engine := calculation.NewEngineWithLogger(rs, log)
			proj, err := engine.Project(context.Background(), input.Scenario, input.Accounts, plan)
			if err != nil {
				return err
			}
			return withOutput(func(w io.Writer) error {
				switch format {
				case "csv":
					return output.WriteCSV(w, proj)
				case "json":
					return output.WriteJSON(w, proj)
				case "console":
					return output.WriteConsole(w, proj)
				default:
					return fmt.Errorf("unknown format %q", format)
				}
			})
		},
	}
	cmd.Flags().BoolVar(&baseline, "baseline", false, "ignore the conversion plan and run the baseline only")
	return cmd
}

func compareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare",
		Short: "Compare the conversion plan against the baseline",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, rs, log, err := setup()
			if err != nil {
				return err
			}
			if input.Plan == nil {
				return fmt.Errorf("%s defines no conversion plan to compare", inputPath)
			}

			engine := calculation.NewEngineWithLogger(rs, log)
			result, err := engine.Compare(context.Background(), input.Scenario, input.Accounts, input.Plan)
			if err != nil {
				return err
			}
			return withOutput(func(w io.Writer) error {
				switch format {
				case "json":
					return output.WriteComparisonJSON(w, result)
				case "console":
					return output.WriteComparisonConsole(w, result)
				case "csv":
					if err := output.WriteCSV(w, result.Baseline); err != nil {
						return err
					}
					return output.WriteCSV(w, result.Conversion)
				default:
					return fmt.Errorf("unknown format %q", format)
				}
			})
		},
	}
}

func tablesCmd() *cobra.Command {
	var exportDir string
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "Inspect or export the reference tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			if exportDir != "" {
				if err := rules.Export(exportDir); err != nil {
					return err
				}
				fmt.Printf("embedded %d tables written to %s\n", rules.DefaultYear, exportDir)
				return nil
			}
			rs, err := loadRules()
			if err != nil {
				return err
			}
			fmt.Printf("tax year %d\n", rs.Year)
			for _, name := range rules.TableFiles(rs.Year) {
				fmt.Printf("  %s\n", name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&exportDir, "export", "", "write the embedded tables to a directory for editing")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("rothcast %s\n", version)
		},
	}
}

func setup() (*config.Input, *rules.RuleSet, zerolog.Logger, error) {
	log := newLogger()
	if inputPath == "" {
		return nil, nil, log, fmt.Errorf("--input is required")
	}
	input, err := config.NewInputParser().LoadFromFile(inputPath)
	if err != nil {
		return nil, nil, log, err
	}
	rs, err := loadRules()
	if err != nil {
		return nil, nil, log, err
	}
	log.Debug().
		Str("scenario", input.Scenario.Name).
		Int("accounts", len(input.Accounts)).
		Int("tax_year", rs.Year).
		Msg("input loaded")
	return input, rs, log, nil
}

func loadRules() (*rules.RuleSet, error) {
	if tablesDir != "" {
		return rules.Load(tablesDir, tablesYear)
	}
	return rules.Default()
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

// withOutput routes rendered output to --output or stdout.
func withOutput(render func(io.Writer) error) error {
	if outputPath == "" {
		return render(os.Stdout)
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outputPath, err)
	}
	if err := render(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
