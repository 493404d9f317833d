package reporting

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ducminhle1904/crypto-grid-sim/internal/grid"
)

// ResultDocument is the JSON form of a finished run
type ResultDocument struct {
	Info          RunInfo            `json:"info"`
	Config        grid.Config        `json:"config"`
	Levels        []float64          `json:"levels"`
	Metrics       grid.Metrics       `json:"metrics"`
	FinalCash     float64            `json:"final_cash"`
	FinalCoin     float64            `json:"final_coin"`
	Transactions  []grid.Transaction `json:"transactions"`
	OpenPositions []grid.Position    `json:"open_positions"`
}

// DefaultJSONFormatter implements JSON output functionality
type DefaultJSONFormatter struct{}

// NewDefaultJSONFormatter creates a new JSON formatter
func NewDefaultJSONFormatter() *DefaultJSONFormatter {
	return &DefaultJSONFormatter{}
}

// NewResultDocument builds the JSON document of a result. Money metrics are
// rounded to cents; transactions keep full precision.
func NewResultDocument(result *grid.Result, info RunInfo) ResultDocument {
	m := result.Metrics
	m.TotalProfit = Money(m.TotalProfit)
	m.HodlProfit = Money(m.HodlProfit)
	m.MaxInvestedAmount = Money(m.MaxInvestedAmount)
	m.AmountPerOrder = Money(m.AmountPerOrder)
	m.UnrealizedValue = Money(m.UnrealizedValue)

	transactions := result.Transactions
	if transactions == nil {
		transactions = []grid.Transaction{}
	}
	positions := result.OpenPositions
	if positions == nil {
		positions = []grid.Position{}
	}

	return ResultDocument{
		Info:          info,
		Config:        result.Config,
		Levels:        result.Grid.Levels,
		Metrics:       m,
		FinalCash:     Money(result.FinalCash),
		FinalCoin:     result.FinalCoin,
		Transactions:  transactions,
		OpenPositions: positions,
	}
}

// FormatResult formats a result as indented JSON
func (f *DefaultJSONFormatter) FormatResult(result *grid.Result, info RunInfo) ([]byte, error) {
	return json.MarshalIndent(NewResultDocument(result, info), "", "  ")
}

// WriteResultJSON writes a result document to path
func (f *DefaultJSONFormatter) WriteResultJSON(result *grid.Result, info RunInfo, path string) error {
	data, err := f.FormatResult(result, info)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	if err := NewDefaultPathManager().EnsureDirectoryExists(path); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// WriteResultJSON is the package-level form of DefaultJSONFormatter.WriteResultJSON
func WriteResultJSON(result *grid.Result, info RunInfo, path string) error {
	return NewDefaultJSONFormatter().WriteResultJSON(result, info, path)
}
