// Command linreg は CSV または npy のテーブルから線形回帰モデルを学習し、
// 係数の一覧を表示します。
//
// 使用例:
//
//	linreg -t price -p area,rooms --calc-error -o model.lrm houses.csv
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/pflag"

	"github.com/YuminosukeSato/linreg/core/model"
	"github.com/YuminosukeSato/linreg/internal/config"
	"github.com/YuminosukeSato/linreg/linear"
	"github.com/YuminosukeSato/linreg/pkg/errors"
	"github.com/YuminosukeSato/linreg/pkg/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := config.Load(args)
	if err != nil {
		return err
	}
	if err := log.SetupLogger(cfg.LogLevel, cfg.LogFormat, stderr); err != nil {
		return errors.NewValidationError("log_format", err.Error(), cfg.LogFormat)
	}
	logger := log.GetLogger()

	src, err := cfg.OpenSource()
	if err != nil {
		return err
	}

	opts := append(cfg.LearnerOptions(), linear.WithLogger(logger))
	if logger.Enabled(ctx, log.LevelDebug) {
		opts = append(opts, linear.WithProgress(progressLogger(logger)))
	}
	res, err := linear.NewLearner(opts...).Fit(ctx, src, cfg.Design())
	if err != nil {
		return err
	}
	renderReport(stdout, res)

	if cfg.Output != "" {
		if err := model.SaveModel(res, cfg.Output, cfg.CodecType()); err != nil {
			return err
		}
		logger.Info("Model written", log.OperationKey, log.OperationSave, log.PathKey, cfg.Output)
	}
	return nil
}

// renderReport prints the coefficients and row counts of res as a table.
func renderReport(w io.Writer, res *linear.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("LINEAR REGRESSION: " + res.Target())
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Coefficient", Align: text.AlignRight},
		{Name: "Mean", Align: text.AlignRight},
	})
	t.AppendHeader(table.Row{"Column", "Coefficient", "Mean"})

	t.AppendRow(table.Row{"(offset)", formatFloat(res.Offset()), ""})
	means := res.Means()
	for k, name := range res.Predictors() {
		t.AppendRow(table.Row{name, formatFloat(res.Coefficients()[k]), formatFloat(means[k])})
	}

	t.AppendSeparator()
	t.AppendRow(table.Row{"rows", res.RowsTotal(), ""})
	t.AppendRow(table.Row{"rows skipped", res.RowsSkipped(), ""})
	if sse, ok := res.SumSquaredError(); ok {
		t.AppendRow(table.Row{"sum of squared errors", formatFloat(sse), ""})
	}
	t.Render()
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%.6g", v)
}

// progressLogger logs the first row of every pass and then once per tenth
// of the total work.
func progressLogger(logger log.Logger) linear.ProgressFunc {
	var (
		stage linear.Stage
		last  = -1
	)
	return func(p linear.Progress) {
		tenth := -1
		if p.Fraction >= 0 {
			tenth = int(p.Fraction * 10)
		}
		if p.Stage == stage && tenth <= last {
			return
		}
		stage, last = p.Stage, tenth
		logger.Debug("Fit progress",
			log.StageKey, string(p.Stage),
			log.RowIndexKey, p.Row,
			log.RowKeyKey, p.RowKey,
			log.ProgressKey, p.Fraction,
		)
	}
}

// printError writes err followed by any hints attached to it.
func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "linreg: %v\n", err)
	for _, h := range errors.Hints(err) {
		fmt.Fprintf(w, "  hint: %s\n", h)
	}
}
