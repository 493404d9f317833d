package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ducminhle1904/crypto-grid-sim/cmd/common"
	"github.com/ducminhle1904/crypto-grid-sim/cmd/grid-backtest/cli"
	apperrors "github.com/ducminhle1904/crypto-grid-sim/internal/errors"
	"github.com/ducminhle1904/crypto-grid-sim/internal/grid"
	"github.com/ducminhle1904/crypto-grid-sim/internal/logger"
	"github.com/ducminhle1904/crypto-grid-sim/internal/monitoring"
	"github.com/ducminhle1904/crypto-grid-sim/internal/sweep"
	"github.com/ducminhle1904/crypto-grid-sim/pkg/config"
	"github.com/ducminhle1904/crypto-grid-sim/pkg/reporting"
	"github.com/ducminhle1904/crypto-grid-sim/pkg/types"
)

const appName = "grid-backtest"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command and returns the process exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	flags := cli.NewFlags(fs)

	usage := common.NewUsageFormatter(appName, "Simulate a grid trading strategy on historical prices").
		AddExample(appName+" -asset BTC -from 2024-01-01 -to 2024-03-01", "Simulate BTC/USDT with bounds from the series").
		AddExample(appName+" -data prices.csv -lower 40000 -upper 48000 -grids 20", "Simulate a single CSV file").
		AddExample(appName+" -config sim.yaml -sweep grids=10:50:10,investment=1000:5000:1000", "Sweep grid counts and investments")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if common.CheckHelpAndVersion(stdout, appName, flags.Common, usage, fs) {
		return 0
	}

	out := common.SetupLogger(flags.Common)
	out.Out = stdout
	env := common.NewEnvLoader(out)
	if err := env.LoadEnvFile(*flags.Common.EnvFile); err != nil {
		out.Warn("Continuing without %s", *flags.Common.EnvFile)
	}

	logCfg := logger.ConfigFromEnv()
	logCfg.Console = *flags.Common.Verbose
	if level := common.LogLevelName(flags.Common); level != "" {
		logCfg.Level = level
	}
	log, err := logger.New(logCfg)
	if err != nil {
		out.Error("%v", err)
		return 2
	}
	defer func() { _ = log.Sync() }()

	if err := flags.Validate(); err != nil {
		out.Error("%v", err)
		return apperrors.Categorize(&grid.ConfigError{Field: "flags", Message: err.Error()}, appName, "flags").ExitCode()
	}

	bt := &backtest{
		flags:     flags,
		env:       env,
		out:       out,
		formatter: cli.NewOutputFormatter(stdout),
		reporter:  reporting.NewDefaultReporter(),
		stdout:    stdout,
		log:       log,
	}
	if err := bt.run(ctx); err != nil {
		appErr := apperrors.Categorize(err, appName, "run")
		monitoring.RecordError(string(appErr.Category))
		log.Error("grid backtest failed", zap.String("category", string(appErr.Category)), zap.Error(err))
		out.Error("%v", err)
		return appErr.ExitCode()
	}
	return 0
}

type backtest struct {
	flags     *cli.Flags
	env       *common.EnvLoader
	out       *common.Logger
	formatter *cli.OutputFormatter
	reporter  *reporting.DefaultReporter
	stdout    io.Writer
	log       *zap.Logger
}

func (b *backtest) run(ctx context.Context) error {
	b.formatter.ShowHeader(appName, *b.flags.ConfigFile)

	cfg, err := cli.NewConfigLoader(b.env).Load(b.flags)
	if err != nil {
		return err
	}
	b.formatter.ShowConfigSummary(cfg, *b.flags.Common.Verbose)

	if path := *b.flags.SaveConfig; path != "" {
		if err := cfg.Save(path); err != nil {
			return err
		}
		b.out.Success("Configuration saved to %s", path)
	}

	stack, err := cfg.Data.OpenDataStack(ctx, b.env.Connections(), b.log)
	if err != nil {
		return err
	}
	defer stack.Close()

	series, info, err := b.loadSeries(ctx, cfg, stack)
	if err != nil {
		return err
	}
	b.formatter.ShowDataInfo(info)

	if err := grid.ValidateSeries(series); err != nil {
		return err
	}
	cfg.ResolveBounds(series)
	b.formatter.ShowBounds(cfg)

	var (
		result *grid.Result
		report *sweep.Report
	)
	if cfg.Sweep != nil {
		result, report, err = b.runSweep(ctx, cfg, series)
	} else {
		result, err = b.simulate(cfg, series)
	}
	if err != nil {
		return err
	}

	b.reporter.PrintSummary(b.stdout, result, info)
	if limit := *b.flags.Transactions; limit != 0 {
		b.reporter.PrintTransactions(b.stdout, result, limit)
	}
	if report != nil {
		b.reporter.PrintSweep(b.stdout, report, *b.flags.Top)
	}

	if *b.flags.Common.Verbose {
		b.showOpenPositions(result)
	}

	var written []string
	if !*b.flags.ConsoleOnly {
		written, err = b.writeReports(cfg, result, info, report)
		if err != nil {
			return err
		}
	}
	b.formatter.ShowCompletion(written)
	return nil
}

func (b *backtest) loadSeries(ctx context.Context, cfg *config.SimulationConfig, stack *config.DataStack) ([]types.PriceSample, reporting.RunInfo, error) {
	info := reporting.RunInfo{Asset: cfg.Asset, Currency: cfg.Currency, Source: stack.Provider.Name()}

	q, err := cfg.Query(time.Now())
	if err != nil {
		return nil, info, err
	}

	start := time.Now()
	series, err := stack.Provider.FetchPrices(ctx, q)
	if err != nil {
		return nil, info, err
	}
	b.out.Debug("Fetched %d samples in %s", len(series), common.FormatDuration(time.Since(start)))

	info.Samples = len(series)
	info.From, info.To = q.From, q.To
	if len(series) > 0 {
		info.From, info.To = series[0].Timestamp, series[len(series)-1].Timestamp
	}
	return series, info, nil
}

func (b *backtest) simulate(cfg *config.SimulationConfig, series []types.PriceSample) (*grid.Result, error) {
	b.out.Progress("Simulating %d grids over %d samples", cfg.NumGrids, len(series))

	start := time.Now()
	result, err := grid.Simulate(series, cfg.GridConfig())
	if err != nil {
		monitoring.RecordSimulation(time.Since(start), 0, 0, err)
		return nil, err
	}
	monitoring.RecordSimulation(time.Since(start), result.Metrics.BuyCount, result.Metrics.SellCount, nil)
	return result, nil
}

// runSweep evaluates the sweep space; the returned result is the best configuration
func (b *backtest) runSweep(ctx context.Context, cfg *config.SimulationConfig, series []types.PriceSample) (*grid.Result, *sweep.Report, error) {
	configs, err := cfg.SweepSpace().Expand()
	if err != nil {
		return nil, nil, &grid.ConfigError{Field: "sweep", Message: err.Error()}
	}
	if len(configs) == 0 {
		return nil, nil, &grid.ConfigError{Field: "sweep", Message: "contains no valid grid configuration"}
	}
	b.out.Progress("Sweeping %d configurations", len(configs))

	runner := sweep.NewRunner(*b.flags.Workers, b.log)
	if !*b.flags.Common.Silent {
		runner.WithProgress(b.formatter.ShowSweepProgress)
	}
	report, err := runner.Run(ctx, series, configs)
	if err != nil {
		return nil, report, err
	}

	best := report.Best()
	if best == nil {
		return nil, report, fmt.Errorf("sweep %s: all %d configurations failed", report.ID, len(configs))
	}
	b.out.Success("Best of %d configurations: %d grids $%.2f-$%.2f, profit $%.2f",
		len(configs), best.Config.NumGrids, best.Config.LowerLimit, best.Config.UpperLimit, best.Profit())
	return best.Result, report, nil
}

func (b *backtest) showOpenPositions(result *grid.Result) {
	if len(result.OpenPositions) == 0 {
		return
	}
	b.out.Section("Open positions")
	for _, p := range result.OpenPositions {
		target := "none"
		if p.HasTarget() {
			target = reporting.FormatMoney(*p.SellPrice)
		}
		b.out.Info("%s bought at %s, target %s, amount %s",
			p.OpenedAt.Format(time.DateTime), reporting.FormatMoney(p.BuyPrice), target, reporting.FormatAmount(p.Amount))
	}
}

func (b *backtest) writeReports(cfg *config.SimulationConfig, result *grid.Result, info reporting.RunInfo, report *sweep.Report) ([]string, error) {
	dir := *b.flags.OutputDir
	if dir == "" {
		dir = b.reporter.GetDefaultOutputDir(cfg.Asset, cfg.Currency)
	}
	if err := b.reporter.EnsureDirectoryExists(dir); err != nil {
		return nil, err
	}

	files := reporting.OutputFiles(dir, report != nil)
	var written []string
	for _, format := range b.flags.ReportFormats() {
		switch format {
		case cli.ReportJSON:
			if err := b.reporter.WriteResultJSON(result, info, files.JSON); err != nil {
				return written, err
			}
			written = append(written, files.JSON)
		case cli.ReportCSV:
			if err := b.reporter.WriteTransactionsCSV(result, files.Transactions); err != nil {
				return written, err
			}
			written = append(written, files.Transactions)
			if report != nil {
				if err := b.reporter.WriteSweepCSV(report, files.Sweep); err != nil {
					return written, err
				}
				written = append(written, files.Sweep)
			}
		case cli.ReportXLSX:
			if err := b.reporter.WriteReportXLSX(result, info, report, files.Workbook); err != nil {
				return written, err
			}
			written = append(written, files.Workbook)
		}
	}
	return written, nil
}
