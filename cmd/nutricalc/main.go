// Package main provides nutricalc, a command line front end to the
// nutrition service.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/alchemorsel/nutrilab/internal/infrastructure/config"
	"github.com/alchemorsel/nutrilab/internal/infrastructure/container"
	"github.com/alchemorsel/nutrilab/internal/ports/inbound"
	"github.com/alchemorsel/nutrilab/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type globalOptions struct {
	configPath string
	verbose    bool
}

func rootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "nutricalc",
		Short: "Compute recipe nutrition and amino-acid scores",
		Long: `Compute recipe nutrition, glycemic index and amino-acid scores from the
command line using the same reference data as the API server.

Examples:
  nutricalc ingredients --category nuts
  nutricalc presets
  nutricalc calc --preset banana
  nutricalc calc --file recipe.yaml --format json
`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to the configuration file")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log service activity to stderr")

	cmd.AddCommand(ingredientsCmd(opts))
	cmd.AddCommand(presetsCmd(opts))
	cmd.AddCommand(calcCmd(opts))

	return cmd
}

func ingredientsCmd(opts *globalOptions) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "ingredients",
		Short: "List ingredient profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), opts, func(ctx context.Context, svc inbound.NutritionService) error {
				ingredients, err := svc.ListIngredients(ctx, category)
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tKCAL/100G\tPROTEIN/100G\tGI")
				for _, ing := range ingredients {
					fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%g\t%s\n",
						ing.ID, ing.Name, ing.Category,
						ing.CaloriesPer100g, ing.ProteinPer100g, formatGI(ing.GlycemicIndex))
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "only list ingredients in this category")
	return cmd
}

func presetsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List preset recipes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), opts, func(ctx context.Context, svc inbound.NutritionService) error {
				presets, err := svc.ListPresets(ctx)
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tLINES\tDECLARED GI\tPRICE")
				for _, p := range presets {
					fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%g\n", p.ID, p.Name, len(p.Lines), p.DeclaredGI, p.Price)
				}
				return w.Flush()
			})
		},
	}
}

func calcCmd(opts *globalOptions) *cobra.Command {
	var (
		presetID string
		file     string
		format   string
	)

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Compute the nutrition report of a preset or a recipe file",
		Long: `Compute the nutrition report of a preset or of a YAML recipe file.

A recipe file lists lines by ingredient id:

  lines:
    - ingredient_id: oatmeal
      amount_grams: 50
    - ingredient_id: soy_milk
      amount_grams: 80
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (presetID == "") == (file == "") {
				return fmt.Errorf("exactly one of --preset or --file is required")
			}
			if format != "text" && format != "json" {
				return fmt.Errorf("unknown format %q", format)
			}

			var recipe inbound.CalculateCommand
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("failed to read recipe: %w", err)
				}
				if err := yaml.Unmarshal(data, &recipe); err != nil {
					return fmt.Errorf("failed to parse recipe: %w", err)
				}
			}

			return withService(cmd.Context(), opts, func(ctx context.Context, svc inbound.NutritionService) error {
				var (
					report *inbound.NutritionReportDTO
					err    error
				)
				if presetID != "" {
					report, err = svc.CalculatePreset(ctx, presetID)
				} else {
					report, err = svc.Calculate(ctx, recipe)
				}
				if err != nil {
					return err
				}

				if format == "json" {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(report)
				}
				return writeReport(cmd.OutOrStdout(), report)
			})
		},
	}

	cmd.Flags().StringVar(&presetID, "preset", "", "preset recipe id")
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML recipe file")
	cmd.Flags().StringVar(&format, "format", "text", "output format: text or json")
	return cmd
}

// withService builds the core container, runs fn against the nutrition
// service and stops the container again
func withService(ctx context.Context, opts *globalOptions, fn func(context.Context, inbound.NutritionService) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	level := "error"
	if opts.verbose {
		level = "debug"
	}

	var svc inbound.NutritionService
	app := fx.New(
		fx.NopLogger,
		fx.Supply(cfg),
		container.CoreModule,
		fx.Decorate(func() (*zap.Logger, error) {
			return logger.New(logger.Config{Level: level, Format: "console", OutputPaths: []string{"stderr"}})
		}),
		fx.Populate(&svc),
	)
	if err := app.Err(); err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = app.Stop(stopCtx)
	}()

	return fn(ctx, svc)
}

func writeReport(out io.Writer, report *inbound.NutritionReportDTO) error {
	n := report.Nutrition

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if report.Preset != nil {
		fmt.Fprintf(w, "Preset\t%s (%s)\n", report.Preset.Name, report.Preset.ID)
	}
	fmt.Fprintf(w, "Total weight\t%g g\n", n.TotalWeight)
	fmt.Fprintf(w, "Calories\t%g kcal\n", n.Calories)
	fmt.Fprintf(w, "Protein / Fat / Carbs\t%g / %g / %g g\n", n.Protein, n.Fat, n.Carbs)
	fmt.Fprintf(w, "Price\t%g\n", n.Price)
	fmt.Fprintf(w, "Per serving (%d)\t%g g, %g kcal, %g g protein\n",
		n.PerServing.Servings, n.PerServing.Weight, n.PerServing.Calories, n.PerServing.Protein)
	if n.MacroRatio.Defined {
		fmt.Fprintf(w, "PFC ratio\tP %g%% / F %g%% / C %g%%\n", n.MacroRatio.Protein, n.MacroRatio.Fat, n.MacroRatio.Carbs)
	} else {
		fmt.Fprintln(w, "PFC ratio\tundefined")
	}
	fmt.Fprintf(w, "Glycemic index\t%d (%s)\n", n.GlycemicIndex, n.GIBand)
	fmt.Fprintf(w, "Amino acid score\t%d (%s)\n", n.AminoAcidScore.DisplayScore, n.AminoAcidScore.Status)
	if n.AminoAcidScore.LimitingAminoAcid != "" {
		fmt.Fprintf(w, "Limiting amino acid\t%s\n", n.AminoAcidScore.LimitingAminoAcid)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(n.AminoAcidScore.Scores) > 0 {
		fmt.Fprintln(out, "\nScores:")
		keys := make([]string, 0, len(n.AminoAcidScore.Scores))
		for k := range n.AminoAcidScore.Scores {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, k := range keys {
			fmt.Fprintf(w, "  %s\t%g\n", k, n.AminoAcidScore.Scores[k])
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if len(report.Recommendations) > 0 {
		fmt.Fprintln(out, "\nRecommendations:")
		w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, rec := range report.Recommendations {
			fmt.Fprintf(w, "  %s\t%s\t%g mg/100g\tefficiency %g\n",
				rec.IngredientID, rec.Name, rec.ContentMg, rec.Efficiency)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func formatGI(gi *int) string {
	if gi == nil {
		return "-"
	}
	return fmt.Sprint(*gi)
}
