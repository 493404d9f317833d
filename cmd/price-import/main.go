package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ducminhle1904/crypto-grid-sim/cmd/common"
	apperrors "github.com/ducminhle1904/crypto-grid-sim/internal/errors"
	"github.com/ducminhle1904/crypto-grid-sim/internal/exchange/bybit"
	"github.com/ducminhle1904/crypto-grid-sim/internal/grid"
	"github.com/ducminhle1904/crypto-grid-sim/internal/logger"
	"github.com/ducminhle1904/crypto-grid-sim/pkg/config"
	"github.com/ducminhle1904/crypto-grid-sim/pkg/data"
	"github.com/ducminhle1904/crypto-grid-sim/pkg/types"
)

const appName = "price-import"

// Import targets
const (
	TargetArchive  = "archive"
	TargetPostgres = "postgres"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type importFlags struct {
	common   *common.CommonFlags
	assets   *string
	currency *string
	from     *string
	to       *string
	interval *string
	category *string
	file     *string
	target   *string
	dataRoot *string
	exchange *string
}

func newImportFlags(fs *flag.FlagSet) *importFlags {
	return &importFlags{
		common:   common.RegisterCommonFlags(fs),
		assets:   fs.String("assets", config.DefaultAsset, "Comma-separated base assets, e.g. BTC,ETH,SOL"),
		currency: fs.String("currency", config.DefaultCurrency, "Quote currency"),
		from:     fs.String("from", "", "Start date, YYYY-MM-DD or RFC3339 (default: 30 days before -to)"),
		to:       fs.String("to", "", "End date, YYYY-MM-DD or RFC3339 (default: now)"),
		interval: fs.String("interval", config.DefaultInterval, "Kline interval (1m, 5m, 15m, 1h, 4h, 1d or exchange codes)"),
		category: fs.String("category", "spot", "Bybit market category (spot, linear, inverse)"),
		file:     fs.String("file", "", "Import a CSV price file instead of downloading from Bybit (single asset)"),
		target:   fs.String("target", TargetArchive, "Where to store prices: archive or postgres"),
		dataRoot: fs.String("data-root", config.DefaultDataRoot, "CSV archive root directory"),
		exchange: fs.String("exchange", config.DefaultExchange, "Archive exchange directory"),
	}
}

func (f *importFlags) assetList() []string {
	var assets []string
	for _, a := range strings.Split(*f.assets, ",") {
		if a = strings.ToUpper(strings.TrimSpace(a)); a != "" {
			assets = append(assets, a)
		}
	}
	return assets
}

func (f *importFlags) validate() error {
	v := common.NewFlagValidator().
		ValidateChoice("target", *f.target, []string{TargetArchive, TargetPostgres}).
		ValidateChoice("category", *f.category, []string{"spot", "linear", "inverse"}).
		ValidateFile("file", *f.file, false)
	if len(f.assetList()) == 0 {
		v.AddError("assets must name at least one asset")
	}
	if *f.file != "" && len(f.assetList()) > 1 {
		v.AddError("file imports take exactly one asset")
	}
	if _, err := bybit.ParseInterval(*f.interval); err != nil {
		v.AddError(err.Error())
	}
	return v.GetError()
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	flags := newImportFlags(fs)

	usage := common.NewUsageFormatter(appName, "Download historical prices into the CSV archive or Postgres").
		AddExample(appName+" -assets BTC,ETH -from 2024-01-01 -to 2024-06-01 -interval 1h", "Archive hourly Bybit spot prices").
		AddExample(appName+" -assets BTC -target postgres", "Load the last 30 days into DATABASE_URL").
		AddExample(appName+" -assets BTC -file prices.csv -target postgres", "Load a CSV file into Postgres")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if common.CheckHelpAndVersion(stdout, appName, flags.common, usage, fs) {
		return 0
	}

	out := common.SetupLogger(flags.common)
	out.Out = stdout
	env := common.NewEnvLoader(out)
	_ = env.LoadEnvFile(*flags.common.EnvFile)

	logCfg := logger.ConfigFromEnv()
	logCfg.Console = *flags.common.Verbose
	if level := common.LogLevelName(flags.common); level != "" {
		logCfg.Level = level
	}
	log, err := logger.New(logCfg)
	if err != nil {
		out.Error("%v", err)
		return 2
	}
	defer func() { _ = log.Sync() }()

	if err := flags.validate(); err != nil {
		out.Error("%v", err)
		return 2
	}

	imp, closeFn, err := newImporter(ctx, flags, env, out, log)
	if err == nil {
		defer closeFn()
		err = imp.run(ctx, flags.assetList())
	}
	if err != nil {
		appErr := apperrors.Categorize(err, appName, "import")
		log.Error("price import failed", zap.String("category", string(appErr.Category)), zap.Error(err))
		out.Error("%v", err)
		return appErr.ExitCode()
	}
	return 0
}

// sink stores one imported series
type sink interface {
	Store(ctx context.Context, asset, currency string, samples []types.PriceSample) (string, error)
}

type archiveSink struct {
	root, exchange, category, interval string
}

func (s archiveSink) Store(_ context.Context, asset, currency string, samples []types.PriceSample) (string, error) {
	path := data.ArchivePath(s.root, s.exchange, s.category, asset+currency, s.interval)
	if err := data.WriteCSV(path, samples); err != nil {
		return "", err
	}
	return path, nil
}

type postgresSink struct {
	provider *data.PostgresProvider
}

func (s postgresSink) Store(ctx context.Context, asset, currency string, samples []types.PriceSample) (string, error) {
	n, err := s.provider.Import(ctx, asset, currency, samples)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("price_samples (%d new rows)", n), nil
}

type importer struct {
	source   data.PriceProvider
	sink     sink
	currency string
	from, to time.Time
	out      *common.Logger
	log      *zap.Logger
}

func newImporter(ctx context.Context, f *importFlags, env *common.EnvLoader, out *common.Logger, log *zap.Logger) (*importer, func(), error) {
	rangeCfg := &config.SimulationConfig{From: *f.from, To: *f.to}
	from, to, err := rangeCfg.TimeRange(time.Now())
	if err != nil {
		return nil, nil, err
	}

	imp := &importer{
		currency: strings.ToUpper(strings.TrimSpace(*f.currency)),
		from:     from,
		to:       to,
		out:      out,
		log:      log,
	}
	closeFn := func() {}

	if *f.file != "" {
		imp.source = data.NewCSVFileProvider(*f.file, log)
	} else {
		interval, err := bybit.ParseInterval(*f.interval)
		if err != nil {
			return nil, nil, &grid.ConfigError{Field: "interval", Message: err.Error()}
		}
		conn := env.Connections()
		client := bybit.NewClient(bybit.Config{APIKey: conn.BybitAPIKey, APISecret: conn.BybitAPISecret, Testnet: conn.BybitTestnet})
		imp.source = data.NewBybitProvider(client, interval, log)
	}

	switch *f.target {
	case TargetPostgres:
		if err := env.ValidateRequiredEnvVars([]string{"DATABASE_URL"}); err != nil {
			return nil, nil, err
		}
		pool, err := data.NewPostgresPool(ctx, env.Connections().DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		provider := data.NewPostgresProvider(pool, log)
		if err := provider.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		imp.sink = postgresSink{provider: provider}
		closeFn = pool.Close
	default:
		imp.sink = archiveSink{root: *f.dataRoot, exchange: *f.exchange, category: *f.category, interval: *f.interval}
	}

	return imp, closeFn, nil
}

// run imports every asset; one failing asset does not stop the others
func (imp *importer) run(ctx context.Context, assets []string) error {
	imp.out.Header("Price import")
	imp.out.Info("Source: %s", imp.source.Name())
	imp.out.Info("Range: %s to %s", imp.from.Format(time.DateTime), imp.to.Format(time.DateTime))

	var (
		failed []string
		errs   []error
	)
	for _, asset := range assets {
		if err := imp.importAsset(ctx, asset); err != nil {
			if ctx.Err() != nil {
				return err
			}
			imp.out.Error("%s/%s: %v", asset, imp.currency, err)
			imp.log.Warn("asset import failed", zap.String("asset", asset), zap.Error(err))
			failed = append(failed, asset)
			errs = append(errs, err)
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("import failed for %d of %d assets (%s): %w",
			len(failed), len(assets), strings.Join(failed, ", "), errors.Join(errs...))
	}
	imp.out.Success("Imported %d assets", len(assets))
	return nil
}

func (imp *importer) importAsset(ctx context.Context, asset string) error {
	imp.out.Progress("Fetching %s/%s", asset, imp.currency)

	start := time.Now()
	q := data.PriceQuery{AssetID: asset, Currency: imp.currency, From: imp.from, To: imp.to}
	samples, err := imp.source.FetchPrices(ctx, q)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no samples in range: %w", data.ErrDataNotFound)
	}

	where, err := imp.sink.Store(ctx, asset, imp.currency, samples)
	if err != nil {
		return err
	}

	low, high := types.PriceRange(samples)
	imp.out.Success("%s/%s: %d samples, $%.2f - $%.2f, %s -> %s",
		asset, imp.currency, len(samples), low, high, common.FormatDuration(time.Since(start)), where)
	return nil
}
