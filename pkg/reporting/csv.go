package reporting

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ducminhle1904/crypto-grid-sim/internal/grid"
	"github.com/ducminhle1904/crypto-grid-sim/internal/sweep"
)

// DefaultCSVReporter implements CSV output functionality
type DefaultCSVReporter struct {
	paths *DefaultPathManager
}

// NewDefaultCSVReporter creates a new CSV reporter
func NewDefaultCSVReporter() *DefaultCSVReporter {
	return &DefaultCSVReporter{paths: NewDefaultPathManager()}
}

// WriteTransactionsCSV writes the transaction log. A path ending in .xlsx
// is delegated to the Excel writer.
func (r *DefaultCSVReporter) WriteTransactionsCSV(result *grid.Result, path string) error {
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return NewDefaultExcelReporter().WriteReportXLSX(result, RunInfo{}, nil, path)
	}

	rows := [][]string{{"ID", "Time", "Action", "Price", "Amount", "Value", "Gain"}}
	for _, tx := range result.Transactions {
		gain := ""
		if tx.Gain != nil {
			gain = FormatMoney(*tx.Gain)
		}
		rows = append(rows, []string{
			strconv.Itoa(tx.ID),
			tx.Time.UTC().Format(time.RFC3339),
			string(tx.Action),
			FormatMoney(tx.Price),
			FormatAmount(tx.Amount),
			FormatMoney(tx.Price * tx.Amount),
			gain,
		})
	}

	return r.writeRows(path, rows)
}

// WriteSweepCSV writes one row per configuration in ranking order.
// Failed configurations follow with their error.
func (r *DefaultCSVReporter) WriteSweepCSV(report *sweep.Report, path string) error {
	rows := [][]string{{
		"Rank", "Lower_Limit", "Upper_Limit", "Num_Grids", "Investment",
		"Total_Profit", "Gain_%", "HODL_Profit", "HODL_%", "Max_Invested", "Buys", "Sells", "Error",
	}}

	for rank, res := range report.Ranked() {
		m := res.Result.Metrics
		rows = append(rows, []string{
			strconv.Itoa(rank + 1),
			FormatMoney(res.Config.LowerLimit),
			FormatMoney(res.Config.UpperLimit),
			strconv.Itoa(res.Config.NumGrids),
			FormatMoney(res.Config.Investment),
			FormatMoney(m.TotalProfit),
			fmt.Sprintf("%.2f", m.GainPercentage),
			FormatMoney(m.HodlProfit),
			fmt.Sprintf("%.2f", m.HodlPercentage),
			FormatMoney(m.MaxInvestedAmount),
			strconv.Itoa(m.BuyCount),
			strconv.Itoa(m.SellCount),
			"",
		})
	}

	for _, res := range report.Results {
		if res.Error == nil {
			continue
		}
		rows = append(rows, []string{
			"",
			FormatMoney(res.Config.LowerLimit),
			FormatMoney(res.Config.UpperLimit),
			strconv.Itoa(res.Config.NumGrids),
			FormatMoney(res.Config.Investment),
			"", "", "", "", "", "", "",
			res.Error.Error(),
		})
	}

	return r.writeRows(path, rows)
}

func (r *DefaultCSVReporter) writeRows(path string, rows [][]string) error {
	if err := r.paths.EnsureDirectoryExists(path); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// WriteTransactionsCSV is the package-level form of DefaultCSVReporter.WriteTransactionsCSV
func WriteTransactionsCSV(result *grid.Result, path string) error {
	return NewDefaultCSVReporter().WriteTransactionsCSV(result, path)
}

// WriteSweepCSV is the package-level form of DefaultCSVReporter.WriteSweepCSV
func WriteSweepCSV(report *sweep.Report, path string) error {
	return NewDefaultCSVReporter().WriteSweepCSV(report, path)
}
