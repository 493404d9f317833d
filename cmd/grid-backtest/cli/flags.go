package cli

import (
	"flag"
	"strings"

	"github.com/ducminhle1904/crypto-grid-sim/cmd/common"
	"github.com/ducminhle1904/crypto-grid-sim/pkg/config"
)

// Report formats accepted by -report
const (
	ReportJSON = "json"
	ReportCSV  = "csv"
	ReportXLSX = "xlsx"
)

// Flags holds all command-line flag values
type Flags struct {
	Common *common.CommonFlags

	ConfigFile *string
	Source     *string
	DataFile   *string
	DataRoot   *string
	Interval   *string
	Cache      *string

	Asset      *string
	Currency   *string
	From       *string
	To         *string
	Lower      *float64
	Upper      *float64
	Grids      *int
	Investment *float64

	Sweep   *string
	Workers *int
	Top     *int

	OutputDir    *string
	Report       *string
	Transactions *int
	ConsoleOnly  *bool
	SaveConfig   *string
}

// NewFlags defines the command-line flags on fs
func NewFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		Common: common.RegisterCommonFlags(fs),

		ConfigFile: fs.String("config", "", "Simulation config file (.json, .yaml or .yml)"),
		Source:     fs.String("source", "", "Price source: csv, bybit or postgres (default: csv)"),
		DataFile:   fs.String("data", "", "Single CSV price file, overrides the archive lookup"),
		DataRoot:   fs.String("data-root", "", "CSV archive root directory (default: data)"),
		Interval:   fs.String("interval", "", "Sample interval, e.g. 1h or 60 (default: 1h)"),
		Cache:      fs.String("cache", "", "Price cache: memory, redis or none (default: memory)"),

		Asset:      fs.String("asset", "", "Base asset (default: BTC)"),
		Currency:   fs.String("currency", "", "Quote currency (default: USDT)"),
		From:       fs.String("from", "", "Start date, YYYY-MM-DD or RFC3339 (default: 30 days before -to)"),
		To:         fs.String("to", "", "End date, YYYY-MM-DD or RFC3339 (default: now)"),
		Lower:      fs.Float64("lower", 0, "Lower grid limit (0 = series minimum)"),
		Upper:      fs.Float64("upper", 0, "Upper grid limit (0 = series maximum)"),
		Grids:      fs.Int("grids", 0, "Number of grid levels (default: 33)"),
		Investment: fs.Float64("investment", 0, "Investment in quote currency (default: 1000)"),

		Sweep:   fs.String("sweep", "", "Sweep ranges, e.g. grids=10:50:10,investment=1000:5000:1000"),
		Workers: fs.Int("workers", 0, "Sweep workers (0 = one per CPU)"),
		Top:     fs.Int("top", 10, "Sweep results shown on the console"),

		OutputDir:    fs.String("output", "", "Report directory (default: results/<ASSET>_<CURRENCY>)"),
		Report:       fs.String("report", "json,csv,xlsx", "Report formats, comma separated: json, csv, xlsx"),
		Transactions: fs.Int("transactions", 20, "Transactions shown on the console (0 = none, -1 = all)"),
		ConsoleOnly:  fs.Bool("console-only", false, "Print results without writing report files"),
		SaveConfig:   fs.String("save-config", "", "Write the effective configuration to this file"),
	}
}

// ReportFormats returns the selected -report formats
func (f *Flags) ReportFormats() []string {
	var formats []string
	for _, item := range strings.Split(*f.Report, ",") {
		if item = strings.ToLower(strings.TrimSpace(item)); item != "" {
			formats = append(formats, item)
		}
	}
	return formats
}

// Validate checks flag values that can be rejected before any data is loaded
func (f *Flags) Validate() error {
	v := common.NewFlagValidator().
		ValidateFile("config", *f.ConfigFile, false).
		ValidateFile("data", *f.DataFile, false).
		ValidateChoice("source", strings.ToLower(*f.Source), []string{config.SourceCSV, config.SourceBybit, config.SourcePostgres}).
		ValidateChoice("cache", strings.ToLower(*f.Cache), []string{config.CacheMemory, config.CacheRedis, config.CacheNone}).
		ValidateInt("grids", *f.Grids, config.MinNumGrids, config.MaxNumGrids).
		ValidateNonNegative("lower", *f.Lower).
		ValidateNonNegative("upper", *f.Upper).
		ValidateNonNegative("investment", *f.Investment)

	for _, format := range f.ReportFormats() {
		v.ValidateChoice("report", format, []string{ReportJSON, ReportCSV, ReportXLSX})
	}
	if *f.Workers < 0 {
		v.AddError("workers must not be negative")
	}

	return v.GetError()
}
