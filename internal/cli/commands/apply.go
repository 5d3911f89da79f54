package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapdq/internal/config"
	"github.com/leapstack-labs/leapdq/pkg/check"
	"github.com/leapstack-labs/leapdq/pkg/core"
	"github.com/leapstack-labs/leapdq/pkg/dataset"
	"github.com/leapstack-labs/leapdq/pkg/engine"
	"github.com/leapstack-labs/leapdq/pkg/metadata"
)

// Apply modes.
const (
	ModeSplit    = "split"
	ModeAnnotate = "annotate"
)

// ApplyOptions holds options for the apply command.
type ApplyOptions struct {
	Input         string // dataset file (csv, parquet, json)
	Table         string // table in the target database
	Query         string // arbitrary SELECT
	Mode          string
	ValidOut      string
	QuarantineOut string
	Out           string // annotated output
	MetricsFile   string
	Preview       int // quarantined rows shown in text output
}

type applySummary struct {
	Mode    string            `json:"mode"`
	Checks  int               `json:"checks"`
	Rows    map[string]int64  `json:"rows"`
	Outputs map[string]string `json:"outputs,omitempty"`

	preview *dataset.Table
}

// NewApplyCommand creates the apply command.
func NewApplyCommand() *cobra.Command {
	opts := &ApplyOptions{}
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply checks to a dataset",
		Long: `Apply the checks file to a dataset in a single pass.

In split mode rows failing any check (error or warning) are quarantined with
their outcome columns; the remaining rows are written without them. In
annotate mode every row is kept and gains the _errors and _warnings columns.`,
		Example: `  # Split a parquet file into valid and quarantined rows
  leapdq apply --input orders.parquet --valid-out valid.parquet --quarantine-out bad.parquet

  # Annotate a table and print a JSON summary
  leapdq apply --table raw.orders --mode annotate --out annotated.csv -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			return runApply(cmd.Context(), cmdCtx, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Dataset file (csv, parquet, json)")
	cmd.Flags().StringVar(&opts.Table, "table", "", "Table in the target database")
	cmd.Flags().StringVar(&opts.Query, "query", "", "SELECT query producing the dataset")
	cmd.Flags().StringVarP(&opts.Mode, "mode", "m", ModeSplit, "Evaluation mode: split or annotate")
	cmd.Flags().StringVar(&opts.ValidOut, "valid-out", "", "Write valid rows to this file (split mode)")
	cmd.Flags().StringVar(&opts.QuarantineOut, "quarantine-out", "", "Write quarantined rows to this file (split mode)")
	cmd.Flags().StringVar(&opts.Out, "out", "", "Write annotated rows to this file (annotate mode)")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this file")
	cmd.Flags().IntVar(&opts.Preview, "preview", 5, "Quarantined rows to show in text output")
	cmd.MarkFlagsMutuallyExclusive("input", "table", "query")
	cmd.MarkFlagsOneRequired("input", "table", "query")

	_ = cmd.RegisterFlagCompletionFunc("mode", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{ModeSplit, ModeAnnotate}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func (o *ApplyOptions) validate() error {
	switch o.Mode {
	case ModeSplit:
		if o.Out != "" {
			return errors.New("--out applies to annotate mode; use --valid-out and --quarantine-out")
		}
	case ModeAnnotate:
		if o.ValidOut != "" || o.QuarantineOut != "" {
			return errors.New("--valid-out and --quarantine-out apply to split mode; use --out")
		}
	default:
		return fmt.Errorf("invalid mode %q: expected split or annotate", o.Mode)
	}
	return nil
}

func runApply(ctx context.Context, c *CommandContext, opts *ApplyOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := opts.validate(); err != nil {
		return err
	}

	checks, err := metadata.LoadFile(c.Cfg.ChecksFile)
	if err != nil {
		return err
	}
	ns, err := c.Functions()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	metrics := engine.NewMetrics(reg)
	eng, err := c.Engine(metrics)
	if err != nil {
		return err
	}

	adp, err := c.Open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = adp.Close() }()

	var ds *dataset.Dataset
	switch {
	case opts.Input != "":
		ds, err = dataset.FromFile(ctx, adp, opts.Input)
	case opts.Table != "":
		ds, err = dataset.FromTable(ctx, adp, opts.Table)
	default:
		ds, err = dataset.FromQuery(ctx, adp, opts.Query)
	}
	if err != nil {
		return fmt.Errorf("failed to open dataset: %w", err)
	}

	summary := applySummary{Mode: opts.Mode, Checks: len(checks), Rows: map[string]int64{}, Outputs: map[string]string{}}
	var flagged *dataset.Dataset
	if opts.Mode == ModeSplit {
		flagged, err = applySplit(ctx, eng, ds, checks, ns, opts, &summary)
	} else {
		flagged, err = applyAnnotate(ctx, eng, ds, checks, ns, opts, &summary)
	}
	if err != nil {
		return err
	}
	if c.Mode == config.OutputText && opts.Preview > 0 && summary.Rows["quarantined"] > 0 {
		if summary.preview, err = flagged.Limit(opts.Preview).Collect(ctx); err != nil {
			return err
		}
	}
	for output, n := range summary.Rows {
		metrics.RecordRows(output, n)
	}

	if opts.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(opts.MetricsFile, reg); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	c.Logger.Info("checks applied", "mode", opts.Mode, "checks", len(checks), "rows", summary.Rows)

	if c.Mode == config.OutputJSON {
		return renderJSON(c.Out, summary)
	}
	t := newTable(c.Out, "Output", "Rows", "File")
	for _, output := range []string{"valid", "quarantined", "annotated"} {
		if n, ok := summary.Rows[output]; ok {
			t.AppendRow([]any{output, n, summary.Outputs[output]})
		}
	}
	t.Render()
	if summary.preview != nil {
		_, _ = fmt.Fprintln(c.Out)
		renderOutcomes(c.Out, summary.preview)
	}
	return nil
}

// renderOutcomes prints rows with their outcome columns reduced to rule names.
func renderOutcomes(w io.Writer, tbl *dataset.Table) {
	header := make([]any, len(tbl.Columns))
	for i, col := range tbl.Columns {
		header[i] = col.Name
	}
	t := newTable(w, header...)
	for _, row := range tbl.Rows {
		cells := make([]any, len(row))
		for i, v := range row {
			cells[i] = formatValue(v)
			if !core.IsOutcomeColumn(tbl.Columns[i].Name) {
				continue
			}
			outcomes, err := dataset.DecodeOutcomes(v)
			if err != nil {
				continue
			}
			names := make([]any, len(outcomes))
			for j, o := range outcomes {
				names[j] = o.Name
			}
			cells[i] = formatValue(names)
		}
		t.AppendRow(cells)
	}
	t.Render()
}

func applySplit(ctx context.Context, eng *engine.Engine, ds *dataset.Dataset, checks []map[string]any, ns *check.Namespace, opts *ApplyOptions, s *applySummary) (*dataset.Dataset, error) {
	valid, quarantined, err := eng.SplitByMetadata(ctx, ds, checks, ns)
	if err != nil {
		return nil, err
	}

	outputs := []struct {
		name string
		ds   *dataset.Dataset
		path string
	}{
		{"valid", valid, opts.ValidOut},
		{"quarantined", quarantined, opts.QuarantineOut},
	}
	counts := make([]int64, len(outputs))

	g, gctx := errgroup.WithContext(ctx)
	for i, o := range outputs {
		g.Go(func() error {
			if o.path != "" {
				if err := o.ds.WriteTo(gctx, o.path); err != nil {
					return err
				}
			}
			n, err := o.ds.Count(gctx)
			if err != nil {
				return err
			}
			counts[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, o := range outputs {
		s.Rows[o.name] = counts[i]
		if o.path != "" {
			s.Outputs[o.name] = o.path
		}
	}
	return quarantined, nil
}

func applyAnnotate(ctx context.Context, eng *engine.Engine, ds *dataset.Dataset, checks []map[string]any, ns *check.Namespace, opts *ApplyOptions, s *applySummary) (*dataset.Dataset, error) {
	annotated, err := eng.AnnotateByMetadata(ctx, ds, checks, ns)
	if err != nil {
		return nil, err
	}
	if opts.Out != "" {
		if err := annotated.WriteTo(ctx, opts.Out); err != nil {
			return nil, err
		}
		s.Outputs["annotated"] = opts.Out
	}
	total, err := annotated.Count(ctx)
	if err != nil {
		return nil, err
	}
	flagged, err := engine.Quarantined(annotated)
	if err != nil {
		return nil, err
	}
	failing, err := flagged.Count(ctx)
	if err != nil {
		return nil, err
	}
	s.Rows["annotated"] = total
	s.Rows["quarantined"] = failing
	return flagged, nil
}
