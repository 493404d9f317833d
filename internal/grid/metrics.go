package grid

import "github.com/ducminhle1904/crypto-grid-sim/pkg/types"

// Metrics summarises a finished run and its buy-and-hold baseline
type Metrics struct {
	TotalProfit        float64 `json:"total_profit"`         // Sum of realized sell gains
	GainPercentage     float64 `json:"gain_percentage"`      // TotalProfit relative to the investment
	GridSize           float64 `json:"grid_size"`
	GridPercentageSize float64 `json:"grid_percentage_size"` // GridSize relative to the grid mid price
	AmountPerOrder     float64 `json:"amount_per_order"`
	MaxInvestedAmount  float64 `json:"max_invested_amount"` // Largest cash drawdown during the run

	HodlProfit     float64 `json:"hodl_profit"`
	HodlPercentage float64 `json:"hodl_percentage"`

	MinPrice   float64 `json:"min_price"`
	MaxPrice   float64 `json:"max_price"`
	FirstPrice float64 `json:"first_price"`
	LastPrice  float64 `json:"last_price"`

	BuyCount        int     `json:"buy_count"`
	SellCount       int     `json:"sell_count"`
	RoundTrips      int     `json:"round_trips"`
	OpenPositions   int     `json:"open_positions"`
	UnrealizedValue float64 `json:"unrealized_value"` // Coin still held, valued at the last price
}

// TotalProfit sums the gains of all sell transactions
func TotalProfit(transactions []Transaction) float64 {
	total := 0.0
	for _, t := range transactions {
		total += t.GainValue()
	}
	return total
}

// MaxInvestedAmount is the investment minus the lowest cash balance ever recorded
func MaxInvestedAmount(investment float64, cashTrace []float64) float64 {
	if len(cashTrace) == 0 {
		return 0
	}
	lowest := cashTrace[0]
	for _, c := range cashTrace[1:] {
		if c < lowest {
			lowest = c
		}
	}
	return investment - lowest
}

// HodlProfit is the profit of buying with the whole investment at firstPrice and selling at lastPrice
func HodlProfit(investment, firstPrice, lastPrice float64) float64 {
	if firstPrice <= 0 {
		return 0
	}
	return investment/firstPrice*lastPrice - investment
}

func computeMetrics(r *Result, series []types.PriceSample) Metrics {
	investment := r.Config.Investment
	first := series[0].Price
	last := series[len(series)-1].Price
	low, high := types.PriceRange(series)

	m := Metrics{
		TotalProfit:        TotalProfit(r.Transactions),
		GridSize:           r.Grid.Size,
		GridPercentageSize: r.Grid.PercentageSize(),
		AmountPerOrder:     r.AmountPerOrder,
		MaxInvestedAmount:  MaxInvestedAmount(investment, r.CashTrace),
		HodlProfit:         HodlProfit(investment, first, last),
		MinPrice:           low,
		MaxPrice:           high,
		FirstPrice:         first,
		LastPrice:          last,
		OpenPositions:      len(r.OpenPositions),
		UnrealizedValue:    r.FinalCoin * last,
	}
	m.GainPercentage = m.TotalProfit / investment * 100
	m.HodlPercentage = m.HodlProfit / investment * 100

	for _, t := range r.Transactions {
		switch t.Action {
		case ActionBuy:
			m.BuyCount++
		case ActionSell:
			m.SellCount++
		}
	}
	m.RoundTrips = m.SellCount

	return m
}
