package reporting

import (
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ducminhle1904/crypto-grid-sim/internal/grid"
	"github.com/ducminhle1904/crypto-grid-sim/internal/sweep"
)

// Package reporting renders simulation results to the console and to files

// RunInfo describes the data a result was computed from
type RunInfo struct {
	Asset    string    `json:"asset"`
	Currency string    `json:"currency"`
	Source   string    `json:"source"`
	From     time.Time `json:"from"`
	To       time.Time `json:"to"`
	Samples  int       `json:"samples"`
}

// Pair returns the asset and currency as one symbol
func (i RunInfo) Pair() string {
	return i.Asset + "/" + i.Currency
}

// ConsoleReporter defines interface for console output
type ConsoleReporter interface {
	PrintSummary(w io.Writer, result *grid.Result, info RunInfo)
	PrintTransactions(w io.Writer, result *grid.Result, limit int)
	PrintSweep(w io.Writer, report *sweep.Report, top int)
}

// FileReporter defines interface for file output
type FileReporter interface {
	WriteTransactionsCSV(result *grid.Result, path string) error
	WriteSweepCSV(report *sweep.Report, path string) error
	WriteResultJSON(result *grid.Result, info RunInfo, path string) error
	WriteReportXLSX(result *grid.Result, info RunInfo, report *sweep.Report, path string) error
}

// PathManager defines interface for output path management
type PathManager interface {
	GetDefaultOutputDir(asset, currency string) string
	EnsureDirectoryExists(path string) error
}

// Reporter combines all reporting interfaces
type Reporter interface {
	ConsoleReporter
	FileReporter
	PathManager
}

// ExcelStyles holds Excel formatting styles
type ExcelStyles struct {
	HeaderStyle   int
	TitleStyle    int
	BaseStyle     int
	CurrencyStyle int
	PercentStyle  int
	PriceStyle    int
	PositiveStyle int
	NegativeStyle int
	BuyStyle      int
	SellStyle     int
}

// ExcelFormatter writes the sheets of a workbook
type ExcelFormatter interface {
	WriteSummarySheet(fx *excelize.File, sheet string, result *grid.Result, info RunInfo, styles ExcelStyles) error
	WriteLevelsSheet(fx *excelize.File, sheet string, result *grid.Result, styles ExcelStyles) error
	WriteTransactionsSheet(fx *excelize.File, sheet string, result *grid.Result, styles ExcelStyles) error
	WriteCashTraceSheet(fx *excelize.File, sheet string, result *grid.Result, styles ExcelStyles) error
	WriteSweepSheet(fx *excelize.File, sheet string, report *sweep.Report, styles ExcelStyles) error
}
