package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"sort"
	"syscall"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"github.com/vanderheijden86/readmit/pkg/dashboard"
	"github.com/vanderheijden86/readmit/pkg/export"
	"github.com/vanderheijden86/readmit/pkg/gateway"
	"github.com/vanderheijden86/readmit/pkg/metrics"
	"github.com/vanderheijden86/readmit/pkg/model"
	"github.com/vanderheijden86/readmit/pkg/theme"
	"golang.org/x/term"
)

// exportOptions is what the export command needs to know, from flags or
// from the interactive form.
type exportOptions struct {
	region    string
	targets   []string
	mapFormat string
	dir       string
	snapshot  bool
	timings   bool
}

func newExportCmd(flags *globalFlags) *cobra.Command {
	opts := &exportOptions{mapFormat: export.ExtPNG}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Fetch every dataset once and write the panels to disk",
		Long: `Fetch every dataset for one region without opening the dashboard and
export the panels: tables as CSV, charts as PNG, the map as PNG or SVG.

Run without flags in a terminal to pick region and panels interactively.

Examples:
  readmit export
  readmit export --region CA --dir ./out
  readmit export --target top-hospitals-table --target us-map --map-format svg
  readmit export --snapshot`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.region = flags.region
			if cmd.Flags().NFlag() == 0 && isTerminal() {
				if err := opts.ask(); err != nil {
					return err
				}
			}
			return runExport(cmd, flags, opts)
		},
	}

	f := cmd.Flags()
	f.StringSliceVarP(&opts.targets, "target", "t", nil, "panel to export (repeatable; default all)")
	f.StringVar(&opts.mapFormat, "map-format", export.ExtPNG, "map image format: png or svg")
	f.StringVarP(&opts.dir, "dir", "o", "", "output directory (default from config)")
	f.BoolVar(&opts.snapshot, "snapshot", false, "also write all tables into one SQLite file")
	f.BoolVar(&opts.timings, "timings", false, "print fetch, render and export timings to stderr")
	return cmd
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// ask fills opts from an interactive form.
func (o *exportOptions) ask() error {
	o.targets = slices.Clone(dashboard.Targets)
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Region").
				Description("Two-letter state code; empty for national").
				CharLimit(2).
				Value(&o.region).
				Validate(func(s string) error {
					_, err := model.ParseRegion(s)
					return err
				}),
			huh.NewMultiSelect[string]().
				Title("Panels").
				Options(huh.NewOptions(dashboard.Targets...)...).
				Value(&o.targets),
			huh.NewSelect[string]().
				Title("Map format").
				Options(huh.NewOptions(export.ExtPNG, export.ExtSVG)...).
				Value(&o.mapFormat),
			huh.NewConfirm().
				Title("Write a SQLite snapshot too?").
				Value(&o.snapshot),
		),
	).WithTheme(huh.ThemeDracula())
	return form.Run()
}

func (o *exportOptions) validate() error {
	if o.mapFormat != export.ExtPNG && o.mapFormat != export.ExtSVG {
		return fmt.Errorf("invalid --map-format %q: want png or svg", o.mapFormat)
	}
	for _, t := range o.targets {
		if !slices.Contains(dashboard.Targets, t) {
			return fmt.Errorf("%w: %q (want one of %v)", dashboard.ErrUnknownTarget, t, dashboard.Targets)
		}
	}
	return nil
}

func runExport(cmd *cobra.Command, flags *globalFlags, opts *exportOptions) error {
	if err := opts.validate(); err != nil {
		return err
	}
	cfg, _, err := flags.load()
	if err != nil {
		return err
	}
	region, err := model.ParseRegion(opts.region)
	if err != nil {
		return err
	}
	if opts.dir != "" {
		cfg.Export.Dir = opts.dir
	}
	if err := os.MkdirAll(cfg.Export.Dir, 0o755); err != nil {
		return fmt.Errorf("creating export dir: %w", err)
	}

	gw, err := gateway.New(cfg.API)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	themes := theme.NewController(theme.DefaultStore(), nil)
	ctrl := dashboard.New(ctx, gw, themes, dashboard.WithExportConfig(cfg.Export))
	if err := ctrl.RunHeadless(ctx, region); err != nil {
		return err
	}
	reportFailures(cmd.ErrOrStderr(), ctrl.Failures())

	targets := opts.targets
	if len(targets) == 0 {
		targets = dashboard.Targets
	}
	paths, err := ctrl.ExportTargets(targets, opts.mapFormat)
	out := cmd.OutOrStdout()
	for _, p := range paths {
		fmt.Fprintln(out, p)
	}
	if err != nil {
		return err
	}

	if opts.snapshot {
		path, err := ctrl.Snapshot()
		if err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
		fmt.Fprintln(out, path)
	}
	if opts.timings {
		for _, s := range metrics.AllTimingStats() {
			fmt.Fprintln(cmd.ErrOrStderr(), s)
		}
	}
	return nil
}

func reportFailures(w io.Writer, failures map[gateway.Dataset]error) {
	names := make([]string, 0, len(failures))
	for d := range failures {
		names = append(names, string(d))
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(w, "warning: %s: %v\n", n, failures[gateway.Dataset(n)])
	}
}
