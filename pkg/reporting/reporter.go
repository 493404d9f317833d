package reporting

import (
	"io"
	"path/filepath"

	"github.com/ducminhle1904/crypto-grid-sim/internal/grid"
	"github.com/ducminhle1904/crypto-grid-sim/internal/sweep"
)

// DefaultReporter implements the complete Reporter interface
type DefaultReporter struct {
	console *DefaultConsoleReporter
	csv     *DefaultCSVReporter
	excel   *DefaultExcelReporter
	json    *DefaultJSONFormatter
	paths   *DefaultPathManager
}

// NewDefaultReporter creates a new default reporter with all functionality
func NewDefaultReporter() *DefaultReporter {
	return &DefaultReporter{
		console: NewDefaultConsoleReporter(),
		csv:     NewDefaultCSVReporter(),
		excel:   NewDefaultExcelReporter(),
		json:    NewDefaultJSONFormatter(),
		paths:   NewDefaultPathManager(),
	}
}

// Console output methods
func (r *DefaultReporter) PrintSummary(w io.Writer, result *grid.Result, info RunInfo) {
	r.console.PrintSummary(w, result, info)
}

func (r *DefaultReporter) PrintTransactions(w io.Writer, result *grid.Result, limit int) {
	r.console.PrintTransactions(w, result, limit)
}

func (r *DefaultReporter) PrintSweep(w io.Writer, report *sweep.Report, top int) {
	r.console.PrintSweep(w, report, top)
}

// File output methods
func (r *DefaultReporter) WriteTransactionsCSV(result *grid.Result, path string) error {
	return r.csv.WriteTransactionsCSV(result, path)
}

func (r *DefaultReporter) WriteSweepCSV(report *sweep.Report, path string) error {
	return r.csv.WriteSweepCSV(report, path)
}

func (r *DefaultReporter) WriteResultJSON(result *grid.Result, info RunInfo, path string) error {
	return r.json.WriteResultJSON(result, info, path)
}

func (r *DefaultReporter) WriteReportXLSX(result *grid.Result, info RunInfo, report *sweep.Report, path string) error {
	return r.excel.WriteReportXLSX(result, info, report, path)
}

// Path management methods
func (r *DefaultReporter) GetDefaultOutputDir(asset, currency string) string {
	return r.paths.GetDefaultOutputDir(asset, currency)
}

func (r *DefaultReporter) EnsureDirectoryExists(path string) error {
	return r.paths.EnsureDirectoryExists(path)
}

// Files lists the reports WriteAll produces in dir
type Files struct {
	JSON         string
	Transactions string
	Workbook     string
	Sweep        string
}

// OutputFiles returns the report paths inside dir. Sweep is empty when
// withSweep is false.
func OutputFiles(dir string, withSweep bool) Files {
	files := Files{
		JSON:         filepath.Join(dir, "result.json"),
		Transactions: filepath.Join(dir, "transactions.csv"),
		Workbook:     filepath.Join(dir, "grid_report.xlsx"),
	}
	if withSweep {
		files.Sweep = filepath.Join(dir, "sweep.csv")
	}
	return files
}

// WriteAll writes every file report for a run into dir
func (r *DefaultReporter) WriteAll(dir string, result *grid.Result, info RunInfo, report *sweep.Report) (Files, error) {
	files := OutputFiles(dir, report != nil)

	if err := r.WriteResultJSON(result, info, files.JSON); err != nil {
		return files, err
	}
	if err := r.WriteTransactionsCSV(result, files.Transactions); err != nil {
		return files, err
	}
	if err := r.WriteReportXLSX(result, info, report, files.Workbook); err != nil {
		return files, err
	}
	if report != nil {
		if err := r.WriteSweepCSV(report, files.Sweep); err != nil {
			return files, err
		}
	}
	return files, nil
}

var _ Reporter = (*DefaultReporter)(nil)
var _ ExcelFormatter = (*DefaultExcelReporter)(nil)
