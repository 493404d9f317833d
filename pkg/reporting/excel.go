package reporting

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/ducminhle1904/crypto-grid-sim/internal/grid"
	"github.com/ducminhle1904/crypto-grid-sim/internal/sweep"
)

const (
	summarySheet      = "Summary"
	levelsSheet       = "Grid Levels"
	transactionsSheet = "Transactions"
	cashTraceSheet    = "Cash Trace"
	sweepSheet        = "Sweep"
)

// DefaultExcelReporter implements Excel output functionality
type DefaultExcelReporter struct {
	paths *DefaultPathManager
}

// NewDefaultExcelReporter creates a new Excel reporter
func NewDefaultExcelReporter() *DefaultExcelReporter {
	return &DefaultExcelReporter{paths: NewDefaultPathManager()}
}

// WriteReportXLSX writes a workbook with the summary, levels, transactions
// and cash trace of a run. The sweep sheet is added when report is not nil.
func (r *DefaultExcelReporter) WriteReportXLSX(result *grid.Result, info RunInfo, report *sweep.Report, path string) error {
	if err := r.paths.EnsureDirectoryExists(path); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	fx := excelize.NewFile()
	defer fx.Close()

	fx.SetSheetName(fx.GetSheetName(0), summarySheet)
	for _, sheet := range []string{levelsSheet, transactionsSheet, cashTraceSheet} {
		if _, err := fx.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
		}
	}
	if report != nil {
		if _, err := fx.NewSheet(sweepSheet); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sweepSheet, err)
		}
	}

	styles, err := r.CreateStyles(fx)
	if err != nil {
		return fmt.Errorf("failed to create Excel styles: %w", err)
	}

	if err := r.WriteSummarySheet(fx, summarySheet, result, info, styles); err != nil {
		return fmt.Errorf("failed to write summary sheet: %w", err)
	}
	if err := r.WriteLevelsSheet(fx, levelsSheet, result, styles); err != nil {
		return fmt.Errorf("failed to write levels sheet: %w", err)
	}
	if err := r.WriteTransactionsSheet(fx, transactionsSheet, result, styles); err != nil {
		return fmt.Errorf("failed to write transactions sheet: %w", err)
	}
	if err := r.WriteCashTraceSheet(fx, cashTraceSheet, result, styles); err != nil {
		return fmt.Errorf("failed to write cash trace sheet: %w", err)
	}
	if report != nil {
		if err := r.WriteSweepSheet(fx, sweepSheet, report, styles); err != nil {
			return fmt.Errorf("failed to write sweep sheet: %w", err)
		}
	}

	return fx.SaveAs(path)
}

// CreateStyles registers the workbook styles
func (r *DefaultExcelReporter) CreateStyles(fx *excelize.File) (ExcelStyles, error) {
	var styles ExcelStyles
	var err error

	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
	}

	if styles.HeaderStyle, err = fx.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"366092"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	}); err != nil {
		return styles, err
	}

	if styles.TitleStyle, err = fx.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"1F3864"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	}); err != nil {
		return styles, err
	}

	if styles.BaseStyle, err = fx.NewStyle(&excelize.Style{Border: border}); err != nil {
		return styles, err
	}

	if styles.CurrencyStyle, err = fx.NewStyle(&excelize.Style{
		Border:    border,
		NumFmt:    7, // $1,234.56
		Alignment: &excelize.Alignment{Horizontal: "right"},
	}); err != nil {
		return styles, err
	}

	if styles.PercentStyle, err = fx.NewStyle(&excelize.Style{
		Border: border,
		NumFmt: 10,
	}); err != nil {
		return styles, err
	}

	priceFormat := "#,##0.00######"
	if styles.PriceStyle, err = fx.NewStyle(&excelize.Style{
		Border:       border,
		CustomNumFmt: &priceFormat,
	}); err != nil {
		return styles, err
	}

	if styles.PositiveStyle, err = fx.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Color: "006100"},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"C6EFCE"}, Pattern: 1},
		Border: border,
		NumFmt: 7,
	}); err != nil {
		return styles, err
	}

	if styles.NegativeStyle, err = fx.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Color: "9C0006"},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"FFC7CE"}, Pattern: 1},
		Border: border,
		NumFmt: 7,
	}); err != nil {
		return styles, err
	}

	if styles.BuyStyle, err = fx.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Color: "006100"},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"E8F5E8"}, Pattern: 1},
		Border: border,
	}); err != nil {
		return styles, err
	}

	if styles.SellStyle, err = fx.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Color: "9C0006"},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"FFE8E8"}, Pattern: 1},
		Border: border,
	}); err != nil {
		return styles, err
	}

	return styles, nil
}

// WriteSummarySheet writes the run setup and metrics side by side
func (r *DefaultExcelReporter) WriteSummarySheet(fx *excelize.File, sheet string, result *grid.Result, info RunInfo, styles ExcelStyles) error {
	m := result.Metrics

	fx.SetColWidth(sheet, "A", "A", 22)
	fx.SetColWidth(sheet, "B", "B", 18)
	fx.SetColWidth(sheet, "C", "C", 3)
	fx.SetColWidth(sheet, "D", "D", 22)
	fx.SetColWidth(sheet, "E", "E", 18)

	fx.SetCellValue(sheet, "A1", "🎯 GRID SIMULATION SUMMARY")
	fx.SetCellStyle(sheet, "A1", "E1", styles.TitleStyle)
	if err := fx.MergeCell(sheet, "A1", "E1"); err != nil {
		return err
	}

	row := 3
	pair := func(label string, value interface{}, style int, label2 string, value2 interface{}, style2 int) {
		n := strconv.Itoa(row)
		fx.SetCellValue(sheet, "A"+n, label)
		fx.SetCellValue(sheet, "B"+n, value)
		fx.SetCellStyle(sheet, "B"+n, "B"+n, style)
		if label2 != "" {
			fx.SetCellValue(sheet, "D"+n, label2)
			fx.SetCellValue(sheet, "E"+n, value2)
			fx.SetCellStyle(sheet, "E"+n, "E"+n, style2)
		}
		row++
	}
	section := func(title string) error {
		row++
		n := strconv.Itoa(row)
		fx.SetCellValue(sheet, "A"+n, title)
		fx.SetCellStyle(sheet, "A"+n, "E"+n, styles.HeaderStyle)
		row++
		return fx.MergeCell(sheet, "A"+n, "E"+n)
	}
	signed := func(v float64) int {
		if v < 0 {
			return styles.NegativeStyle
		}
		return styles.PositiveStyle
	}

	pair("Pair:", info.Pair(), styles.BaseStyle, "Source:", info.Source, styles.BaseStyle)
	pair("Period:", formatPeriod(info.From, info.To), styles.BaseStyle, "Samples:", info.Samples, styles.BaseStyle)

	if err := section("⚙️ GRID SETUP"); err != nil {
		return err
	}
	pair("Lower Limit:", result.Config.LowerLimit, styles.PriceStyle, "Upper Limit:", result.Config.UpperLimit, styles.PriceStyle)
	pair("Grids:", result.Config.NumGrids, styles.BaseStyle, "Grid Size:", m.GridSize, styles.PriceStyle)
	pair("Investment:", result.Config.Investment, styles.CurrencyStyle, "Grid Size %:", m.GridPercentageSize/100, styles.PercentStyle)
	pair("Amount Per Order:", Money(m.AmountPerOrder), styles.CurrencyStyle, "", nil, 0)

	if err := section("💰 PERFORMANCE"); err != nil {
		return err
	}
	pair("Total Profit:", Money(m.TotalProfit), signed(m.TotalProfit), "Gain:", m.GainPercentage/100, styles.PercentStyle)
	pair("HODL Profit:", Money(m.HodlProfit), signed(m.HodlProfit), "HODL Gain:", m.HodlPercentage/100, styles.PercentStyle)
	pair("Max Invested:", Money(m.MaxInvestedAmount), styles.CurrencyStyle, "Final Cash:", Money(result.FinalCash), styles.CurrencyStyle)
	pair("Coin Held:", result.FinalCoin, styles.PriceStyle, "Coin Value:", Money(m.UnrealizedValue), styles.CurrencyStyle)

	if err := section("📊 TRADING STATISTICS"); err != nil {
		return err
	}
	pair("Buys:", m.BuyCount, styles.BaseStyle, "Sells:", m.SellCount, styles.BaseStyle)
	pair("Round Trips:", m.RoundTrips, styles.BaseStyle, "Open Positions:", m.OpenPositions, styles.BaseStyle)
	pair("First Price:", m.FirstPrice, styles.PriceStyle, "Last Price:", m.LastPrice, styles.PriceStyle)
	pair("Min Price:", m.MinPrice, styles.PriceStyle, "Max Price:", m.MaxPrice, styles.PriceStyle)

	return nil
}

// WriteLevelsSheet writes one row per grid level with its fill counts
func (r *DefaultExcelReporter) WriteLevelsSheet(fx *excelize.File, sheet string, result *grid.Result, styles ExcelStyles) error {
	headers := []string{"Level", "Price", "Buys", "Sells", "Realized Gain"}
	if err := r.writeHeader(fx, sheet, headers, styles); err != nil {
		return err
	}
	fx.SetColWidth(sheet, "A", "E", 16)

	buys := make(map[float64]int)
	sells := make(map[float64]int)
	gains := make(map[float64]float64)
	for _, tx := range result.Transactions {
		switch tx.Action {
		case grid.ActionBuy:
			buys[tx.Price]++
		case grid.ActionSell:
			sells[tx.Price]++
			gains[tx.Price] += tx.GainValue()
		}
	}

	// highest level first, the way a grid is usually drawn
	row := 2
	for i := len(result.Grid.Levels) - 1; i >= 0; i-- {
		level := result.Grid.Levels[i]
		n := strconv.Itoa(row)
		fx.SetCellValue(sheet, "A"+n, i)
		fx.SetCellValue(sheet, "B"+n, level)
		fx.SetCellValue(sheet, "C"+n, buys[level])
		fx.SetCellValue(sheet, "D"+n, sells[level])
		fx.SetCellValue(sheet, "E"+n, Money(gains[level]))
		fx.SetCellStyle(sheet, "A"+n, "A"+n, styles.BaseStyle)
		fx.SetCellStyle(sheet, "B"+n, "B"+n, styles.PriceStyle)
		fx.SetCellStyle(sheet, "C"+n, "D"+n, styles.BaseStyle)
		fx.SetCellStyle(sheet, "E"+n, "E"+n, styles.CurrencyStyle)
		row++
	}
	return nil
}

// WriteTransactionsSheet writes the transaction log
func (r *DefaultExcelReporter) WriteTransactionsSheet(fx *excelize.File, sheet string, result *grid.Result, styles ExcelStyles) error {
	headers := []string{"ID", "Time", "Action", "Price", "Amount", "Value", "Gain"}
	if err := r.writeHeader(fx, sheet, headers, styles); err != nil {
		return err
	}
	fx.SetColWidth(sheet, "A", "A", 8)
	fx.SetColWidth(sheet, "B", "B", 20)
	fx.SetColWidth(sheet, "C", "C", 8)
	fx.SetColWidth(sheet, "D", "G", 16)

	for i, tx := range result.Transactions {
		n := strconv.Itoa(i + 2)
		actionStyle := styles.BuyStyle
		if tx.Action == grid.ActionSell {
			actionStyle = styles.SellStyle
		}

		fx.SetCellValue(sheet, "A"+n, tx.ID)
		fx.SetCellValue(sheet, "B"+n, tx.Time.UTC().Format("2006-01-02 15:04:05"))
		fx.SetCellValue(sheet, "C"+n, string(tx.Action))
		fx.SetCellValue(sheet, "D"+n, tx.Price)
		fx.SetCellValue(sheet, "E"+n, tx.Amount)
		fx.SetCellValue(sheet, "F"+n, Money(tx.Price*tx.Amount))
		fx.SetCellStyle(sheet, "A"+n, "B"+n, styles.BaseStyle)
		fx.SetCellStyle(sheet, "C"+n, "C"+n, actionStyle)
		fx.SetCellStyle(sheet, "D"+n, "E"+n, styles.PriceStyle)
		fx.SetCellStyle(sheet, "F"+n, "F"+n, styles.CurrencyStyle)
		if tx.Gain != nil {
			fx.SetCellValue(sheet, "G"+n, Money(*tx.Gain))
		}
		fx.SetCellStyle(sheet, "G"+n, "G"+n, styles.CurrencyStyle)
	}

	if len(result.Transactions) > 0 {
		fx.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
	}
	return nil
}

// WriteCashTraceSheet writes the cash balance after every step
func (r *DefaultExcelReporter) WriteCashTraceSheet(fx *excelize.File, sheet string, result *grid.Result, styles ExcelStyles) error {
	if err := r.writeHeader(fx, sheet, []string{"Step", "Cash", "Invested"}, styles); err != nil {
		return err
	}
	fx.SetColWidth(sheet, "A", "C", 16)

	for i, cash := range result.CashTrace {
		n := strconv.Itoa(i + 2)
		fx.SetCellValue(sheet, "A"+n, i)
		fx.SetCellValue(sheet, "B"+n, Money(cash))
		fx.SetCellValue(sheet, "C"+n, Money(result.Config.Investment-cash))
		fx.SetCellStyle(sheet, "A"+n, "A"+n, styles.BaseStyle)
		fx.SetCellStyle(sheet, "B"+n, "C"+n, styles.CurrencyStyle)
	}
	return nil
}

// WriteSweepSheet writes the ranked sweep results
func (r *DefaultExcelReporter) WriteSweepSheet(fx *excelize.File, sheet string, report *sweep.Report, styles ExcelStyles) error {
	headers := []string{"Rank", "Lower", "Upper", "Grids", "Investment", "Profit", "Gain %", "HODL Profit", "HODL %", "Max Invested", "Buys", "Sells"}
	if err := r.writeHeader(fx, sheet, headers, styles); err != nil {
		return err
	}
	fx.SetColWidth(sheet, "A", "L", 14)

	for i, res := range report.Ranked() {
		m := res.Result.Metrics
		n := strconv.Itoa(i + 2)
		profitStyle := styles.PositiveStyle
		if m.TotalProfit < 0 {
			profitStyle = styles.NegativeStyle
		}

		fx.SetCellValue(sheet, "A"+n, i+1)
		fx.SetCellValue(sheet, "B"+n, res.Config.LowerLimit)
		fx.SetCellValue(sheet, "C"+n, res.Config.UpperLimit)
		fx.SetCellValue(sheet, "D"+n, res.Config.NumGrids)
		fx.SetCellValue(sheet, "E"+n, res.Config.Investment)
		fx.SetCellValue(sheet, "F"+n, Money(m.TotalProfit))
		fx.SetCellValue(sheet, "G"+n, m.GainPercentage/100)
		fx.SetCellValue(sheet, "H"+n, Money(m.HodlProfit))
		fx.SetCellValue(sheet, "I"+n, m.HodlPercentage/100)
		fx.SetCellValue(sheet, "J"+n, Money(m.MaxInvestedAmount))
		fx.SetCellValue(sheet, "K"+n, m.BuyCount)
		fx.SetCellValue(sheet, "L"+n, m.SellCount)

		fx.SetCellStyle(sheet, "A"+n, "A"+n, styles.BaseStyle)
		fx.SetCellStyle(sheet, "B"+n, "C"+n, styles.PriceStyle)
		fx.SetCellStyle(sheet, "D"+n, "D"+n, styles.BaseStyle)
		fx.SetCellStyle(sheet, "E"+n, "E"+n, styles.CurrencyStyle)
		fx.SetCellStyle(sheet, "F"+n, "F"+n, profitStyle)
		fx.SetCellStyle(sheet, "G"+n, "G"+n, styles.PercentStyle)
		fx.SetCellStyle(sheet, "H"+n, "H"+n, styles.CurrencyStyle)
		fx.SetCellStyle(sheet, "I"+n, "I"+n, styles.PercentStyle)
		fx.SetCellStyle(sheet, "J"+n, "J"+n, styles.CurrencyStyle)
		fx.SetCellStyle(sheet, "K"+n, "L"+n, styles.BaseStyle)
	}
	return nil
}

func (r *DefaultExcelReporter) writeHeader(fx *excelize.File, sheet string, headers []string, styles ExcelStyles) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		fx.SetCellValue(sheet, cell, h)
		fx.SetCellStyle(sheet, cell, cell, styles.HeaderStyle)
	}
	return nil
}

// WriteReportXLSX is the package-level form of DefaultExcelReporter.WriteReportXLSX
func WriteReportXLSX(result *grid.Result, info RunInfo, report *sweep.Report, path string) error {
	return NewDefaultExcelReporter().WriteReportXLSX(result, info, report, path)
}
