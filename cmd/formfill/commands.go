package main

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/dgallion1/formfill/internal/config"
	"github.com/dgallion1/formfill/internal/layout"
	"github.com/dgallion1/formfill/internal/pipeline"
	"github.com/dgallion1/formfill/internal/render"
	"github.com/spf13/cobra"
)

type assetFlags struct {
	template string
	layout   string
}

func (a *assetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&a.template, "template", "templates_pdf/plantilla.pdf", "Template page (PDF, PNG or JPEG)")
	cmd.Flags().StringVar(&a.layout, "layout", "", "Layout YAML file (default: embedded layout)")
}

// load reads the layout and template and warns through log when they
// do not match.
func (a *assetFlags) load(log *slog.Logger) (*layout.Layout, *render.Template, error) {
	l, err := layout.LoadOrDefault(a.layout)
	if err != nil {
		return nil, nil, err
	}
	ps, err := l.PageSize()
	if err != nil {
		return nil, nil, err
	}
	tpl, err := render.LoadTemplate(a.template)
	if err != nil {
		return nil, nil, err
	}
	render.CheckFit(log, tpl, ps)
	return l, tpl, nil
}

func newLogger(cmd *cobra.Command, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "formfill",
		Short: "Fill affiliation forms from spreadsheet rows",
		Long: `formfill overlays each spreadsheet row onto a template page and
concatenates the filled pages into a single PDF.`,
		SilenceUsage: true,
	}
	root.AddCommand(newRenderCmd(), newGridCmd(), newLayoutCmd())
	return root
}

func newRenderCmd() *cobra.Command {
	var (
		assets    assetFlags
		sheetName string
		output    string
		verbose   bool
	)
	cmd := &cobra.Command{
		Use:   "render [input.xlsx|input.csv]",
		Short: "Render one form page per row into a combined PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			f, err := os.Open(input)
			if err != nil {
				return fmt.Errorf("open input: %w", err)
			}
			defer f.Close()

			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			log := newLogger(cmd, level)

			l, tpl, err := assets.load(log)
			if err != nil {
				return err
			}

			cfg := config.Config{SheetName: sheetName, BatchTTL: time.Hour, StatsWindow: time.Hour}
			proc := pipeline.NewProcessor(cfg, l, tpl, log)
			batch := pipeline.NewBatch(filepath.Base(input))
			out, err := proc.Process(batch, f)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, out, 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}

			snap := batch.Snapshot()
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d pages, %d rows skipped\n",
				output, snap.Progress.RowsRendered, snap.Progress.RowsSkipped)
			for _, s := range snap.Progress.Skipped {
				fmt.Fprintf(cmd.OutOrStdout(), "  row %d: %s\n", s.Row, s.Reason)
			}
			return nil
		},
	}
	assets.register(cmd)
	cmd.Flags().StringVar(&sheetName, "sheet-name", "", "Worksheet to read (default: first sheet)")
	cmd.Flags().StringVarP(&output, "output", "o", "combined.pdf", "Output PDF path")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log every row")
	return cmd
}

func newGridCmd() *cobra.Command {
	var (
		assets assetFlags
		step   float64
		output string
	)
	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Draw a labelled millimetre grid over the template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if step < render.MinGridStep || math.IsNaN(step) {
				return fmt.Errorf("--step must be at least %v mm, got %v", render.MinGridStep, step)
			}
			l, tpl, err := assets.load(newLogger(cmd, slog.LevelWarn))
			if err != nil {
				return err
			}
			ps, err := l.PageSize()
			if err != nil {
				return err
			}
			data, err := render.Grid(tpl, ps, step)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: grid every %g mm\n", output, step)
			return nil
		},
	}
	assets.register(cmd)
	cmd.Flags().Float64Var(&step, "step", render.DefaultGridStep, "Grid spacing in millimetres")
	cmd.Flags().StringVarP(&output, "output", "o", "grid.pdf", "Output PDF path")
	return cmd
}

func newLayoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "layout",
		Short: "Print the embedded default layout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := cmd.OutOrStdout().Write(layout.DefaultYAML())
			return err
		},
	}
}
