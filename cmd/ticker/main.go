package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/komsit37/ticker/pkg/ticker/columns"
	"github.com/komsit37/ticker/pkg/ticker/filter"
	"github.com/komsit37/ticker/pkg/ticker/grid"
	"github.com/komsit37/ticker/pkg/ticker/pipeline"
	"github.com/komsit37/ticker/pkg/ticker/render"
	"github.com/komsit37/ticker/pkg/ticker/scale"
)

type flags struct {
	config      string
	output      string
	pretty      bool
	noColor     bool
	width       int
	only        string
	columns     []string
	currentOnly bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	v := viper.New()

	root := &cobra.Command{
		Use:           "ticker",
		Short:         "Keep a portfolio grid priced and summarised",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(v, f.config)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&f.config, "config", "", "config file (default ./ticker.yaml)")
	pf.StringVarP(&f.output, "output", "o", "table", "output format: table, json or syms")
	pf.BoolVar(&f.pretty, "pretty", false, "indent json output")
	pf.BoolVar(&f.noColor, "no-color", false, "disable colored output")
	pf.IntVar(&f.width, "width", 0, "max table width (default terminal width)")
	pf.StringVar(&f.only, "only", "", "symbol filter: AAPL,MSFT | BT* | /^X/ | substring; prefix ! to negate")
	pf.StringSliceVar(&f.columns, "columns", nil, "columns or column sets to show")

	refresh := &cobra.Command{
		Use:   "refresh",
		Short: "Fetch prices, rewrite the grid and rebuild the dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, opts, err := prepare(cmd.Context(), v, f)
			if err != nil {
				return err
			}
			rep, err := r.Refresh(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if n := len(rep.Warnings); n > 0 {
				log.WithField("refresh", rep.ID).Warnf("%d warning(s)", n)
			}
			return nil
		},
	}
	refresh.Flags().BoolVar(&f.currentOnly, "current-only", false, "refresh today's prices only")

	dashboard := &cobra.Command{
		Use:   "dashboard",
		Short: "Summarise holdings from the grid without fetching",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, opts, err := prepare(cmd.Context(), v, f)
			if err != nil {
				return err
			}
			_, err = r.Dashboard(cmd.Context(), opts)
			return err
		},
	}

	detail := &cobra.Command{
		Use:   "detail",
		Short: "Show price changes over the tracked periods",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, opts, err := prepare(cmd.Context(), v, f)
			if err != nil {
				return err
			}
			_, err = r.Detail(cmd.Context(), opts)
			return err
		},
	}

	cutoff := &cobra.Command{
		Use:   "cutoff <value>",
		Short: "Print the chart axis floor for a series minimum",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			low, err := decimal.NewFromString(args[0])
			if err != nil {
				return fmt.Errorf("parse %q: %w", args[0], err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), scale.Cutoff(low).String())
			return err
		},
	}

	column := &cobra.Command{Use: "column", Short: "Grid column helpers"}
	column.AddCommand(&cobra.Command{
		Use:   "next <label>",
		Short: "Print the column after label (Z -> AA)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			next, err := grid.NextColumn(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), next)
			return err
		},
	})

	root.AddCommand(refresh, dashboard, detail, cutoff, column)
	return root
}

// prepare builds the runner and run options from config and flags.
func prepare(ctx context.Context, v *viper.Viper, f *flags) (*pipeline.Runner, pipeline.Options, error) {
	var opts pipeline.Options
	cols, err := columns.Compute(f.columns)
	if err != nil {
		return nil, opts, err
	}
	only, err := filter.Parse(f.only)
	if err != nil {
		return nil, opts, err
	}
	renderer, err := render.New(f.output)
	if err != nil {
		return nil, opts, err
	}

	r, err := newRunner(ctx, v)
	if err != nil {
		return nil, opts, err
	}
	width, tty := terminalWidth()
	if f.width > 0 {
		width = f.width
	}
	r.Renderer = renderer
	r.Writer = os.Stdout
	r.RenderOptions = render.Options{Color: tty && !f.noColor, PrettyJSON: f.pretty, Width: width}

	opts = pipeline.Options{CurrentOnly: f.currentOnly, Filter: only, Columns: cols}
	return r, opts, nil
}
