package reporting

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ducminhle1904/crypto-grid-sim/internal/grid"
	"github.com/ducminhle1904/crypto-grid-sim/internal/sweep"
)

// DefaultConsoleReporter implements console output functionality
type DefaultConsoleReporter struct{}

// NewDefaultConsoleReporter creates a new console reporter
func NewDefaultConsoleReporter() *DefaultConsoleReporter {
	return &DefaultConsoleReporter{}
}

// PrintSummary prints the metrics of a run and its buy-and-hold baseline
func (r *DefaultConsoleReporter) PrintSummary(w io.Writer, result *grid.Result, info RunInfo) {
	m := result.Metrics

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("GRID SIMULATION RESULTS")
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"📊 Pair", info.Pair()},
		{"🏪 Source", info.Source},
		{"⏰ Period", formatPeriod(info.From, info.To)},
		{"📈 Samples", info.Samples},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"🔻 Lower Limit", FormatMoney(result.Config.LowerLimit)},
		{"🔺 Upper Limit", FormatMoney(result.Config.UpperLimit)},
		{"🔢 Grids", result.Config.NumGrids},
		{"📏 Grid Size", fmt.Sprintf("%s (%.2f%%)", FormatMoney(m.GridSize), m.GridPercentageSize)},
		{"💵 Investment", FormatMoney(result.Config.Investment)},
		{"🧾 Per Order", FormatMoney(m.AmountPerOrder)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"💰 Total Profit", fmt.Sprintf("%s (%.2f%%)", FormatMoney(m.TotalProfit), m.GainPercentage)},
		{"🏦 HODL Profit", fmt.Sprintf("%s (%.2f%%)", FormatMoney(m.HodlProfit), m.HodlPercentage)},
		{"📉 Max Invested", FormatMoney(m.MaxInvestedAmount)},
		{"🔄 Buys / Sells", fmt.Sprintf("%d / %d", m.BuyCount, m.SellCount)},
		{"📦 Open Positions", m.OpenPositions},
		{"🪙 Coin Held", fmt.Sprintf("%s (%s)", FormatAmount(result.FinalCoin), FormatMoney(m.UnrealizedValue))},
		{"💼 Final Cash", FormatMoney(result.FinalCash)},
		{"↕️ Price Range", fmt.Sprintf("%s - %s", FormatMoney(m.MinPrice), FormatMoney(m.MaxPrice))},
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 18, WidthMax: 18, Align: text.AlignLeft},
		{Number: 2, WidthMin: 25, WidthMax: 40, Align: text.AlignLeft},
	})

	t.Render()
}

// PrintTransactions prints the transaction log. limit <= 0 prints everything.
func (r *DefaultConsoleReporter) PrintTransactions(w io.Writer, result *grid.Result, limit int) {
	txs := result.Transactions
	if limit > 0 && len(txs) > limit {
		txs = txs[:limit]
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("TRANSACTIONS")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Time", "Action", "Price", "Amount", "Gain"})

	for _, tx := range txs {
		gain := ""
		if tx.Gain != nil {
			gain = FormatMoney(*tx.Gain)
		}
		t.AppendRow(table.Row{
			tx.ID,
			tx.Time.UTC().Format("2006-01-02 15:04"),
			actionLabel(tx.Action),
			FormatMoney(tx.Price),
			FormatAmount(tx.Amount),
			gain,
		})
	}

	if hidden := len(result.Transactions) - len(txs); hidden > 0 {
		t.AppendFooter(table.Row{"", fmt.Sprintf("... %d more", hidden), "", "", "", ""})
	}
	t.AppendFooter(table.Row{"", "", "", "", "Total", FormatMoney(result.Metrics.TotalProfit)})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})

	t.Render()
}

// PrintSweep prints the best configurations of a sweep
func (r *DefaultConsoleReporter) PrintSweep(w io.Writer, report *sweep.Report, top int) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(fmt.Sprintf("SWEEP %s (%d configs, %d failed, %s)",
		report.ID, len(report.Results), report.Failed, report.Duration.Round(time.Millisecond)))
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Rank", "Lower", "Upper", "Grids", "Investment", "Profit", "Gain %", "HODL %", "Trades"})

	for rank, res := range report.Top(top) {
		m := res.Result.Metrics
		t.AppendRow(table.Row{
			rank + 1,
			FormatMoney(res.Config.LowerLimit),
			FormatMoney(res.Config.UpperLimit),
			res.Config.NumGrids,
			FormatMoney(res.Config.Investment),
			FormatMoney(m.TotalProfit),
			fmt.Sprintf("%.2f", m.GainPercentage),
			fmt.Sprintf("%.2f", m.HodlPercentage),
			m.BuyCount + m.SellCount,
		})
	}

	t.Render()
}

func actionLabel(a grid.Action) string {
	switch a {
	case grid.ActionBuy:
		return "🟢 BUY"
	case grid.ActionSell:
		return "🔴 SELL"
	default:
		return string(a)
	}
}

func formatPeriod(from, to time.Time) string {
	const layout = "2006-01-02 15:04"
	switch {
	case from.IsZero() && to.IsZero():
		return "all data"
	case from.IsZero():
		return "until " + to.UTC().Format(layout)
	case to.IsZero():
		return "from " + from.UTC().Format(layout)
	}
	return from.UTC().Format(layout) + " → " + to.UTC().Format(layout)
}

// PrintSummary is the package-level form of DefaultConsoleReporter.PrintSummary
func PrintSummary(w io.Writer, result *grid.Result, info RunInfo) {
	NewDefaultConsoleReporter().PrintSummary(w, result, info)
}
