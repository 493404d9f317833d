package grid

import "time"

// Action is the side of a simulated order
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// Position is a filled buy waiting for the price to reach its sell level
type Position struct {
	ID        int       `json:"id"`                   // Transaction id of the opening buy
	BuyPrice  float64   `json:"buy_price"`            // Grid level the coin was bought at
	SellPrice *float64  `json:"sell_price,omitempty"` // BuyPrice + grid size; nil when that lies above the upper limit
	Amount    float64   `json:"amount"`               // Coin quantity
	OpenedAt  time.Time `json:"opened_at"`
}

// HasTarget reports whether the position can ever be closed by the grid
func (p Position) HasTarget() bool {
	return p.SellPrice != nil
}

// Transaction is one executed buy or sell. A sell carries the id of the buy it closes.
type Transaction struct {
	ID     int       `json:"id"`
	Time   time.Time `json:"time"`
	Action Action    `json:"action"`
	Price  float64   `json:"price"`
	Amount float64   `json:"amount"`
	Gain   *float64  `json:"gain,omitempty"` // Realized gain, sells only
}

// GainValue returns the realized gain, zero for buys
func (t Transaction) GainValue() float64 {
	if t.Gain == nil {
		return 0
	}
	return *t.Gain
}

// ledger holds the mutable state of a single run: balances, open positions,
// the transaction log and the cash trace. It is never shared between runs.
type ledger struct {
	grid           *Grid
	amountPerOrder float64

	cash   float64
	coin   float64
	nextID int

	open         []*Position // in opening order
	transactions []Transaction
	cashTrace    []float64
}

func newLedger(g *Grid, amountPerOrder, investment float64, steps int) *ledger {
	l := &ledger{
		grid:           g,
		amountPerOrder: amountPerOrder,
		cash:           investment,
		open:           make([]*Position, 0),
		transactions:   make([]Transaction, 0),
		cashTrace:      make([]float64, 0, steps+1),
	}
	l.cashTrace = append(l.cashTrace, investment)
	return l
}

// apply executes the orders triggered by one crossing
func (l *ledger) apply(c Crossing, at time.Time) {
	switch c.Direction {
	case DirectionDown:
		for _, idx := range c.Levels {
			l.buy(idx, at)
		}
	case DirectionUp:
		for _, idx := range c.Levels {
			l.sell(idx, at)
		}
	}
}

// buy spends one order's worth of cash at level idx. Without enough cash the
// level is skipped; running out of capital is a normal outcome.
func (l *ledger) buy(idx int, at time.Time) bool {
	if l.cash < l.amountPerOrder {
		return false
	}

	level := l.grid.Levels[idx]
	l.nextID++
	amount := l.amountPerOrder / level
	l.cash -= l.amountPerOrder
	l.coin += amount

	l.transactions = append(l.transactions, Transaction{
		ID:     l.nextID,
		Time:   at,
		Action: ActionBuy,
		Price:  level,
		Amount: amount,
	})

	position := &Position{
		ID:       l.nextID,
		BuyPrice: level,
		Amount:   amount,
		OpenedAt: at,
	}
	if target, ok := l.grid.sellTarget(level); ok {
		position.SellPrice = &target
	}
	l.open = append(l.open, position)
	return true
}

// sell closes every open position whose target equals level idx exactly.
// Matches are collected first and removed afterwards.
func (l *ledger) sell(idx int, at time.Time) int {
	level := l.grid.Levels[idx]

	var matched []*Position
	for _, p := range l.open {
		if p.SellPrice != nil && *p.SellPrice == level {
			matched = append(matched, p)
		}
	}
	if len(matched) == 0 {
		return 0
	}

	for _, p := range matched {
		l.cash += p.Amount * level
		l.coin -= p.Amount
		gain := (level - p.BuyPrice) * p.Amount
		l.transactions = append(l.transactions, Transaction{
			ID:     p.ID,
			Time:   at,
			Action: ActionSell,
			Price:  level,
			Amount: p.Amount,
			Gain:   &gain,
		})
	}

	closed := make(map[int]struct{}, len(matched))
	for _, p := range matched {
		closed[p.ID] = struct{}{}
	}
	remaining := l.open[:0]
	for _, p := range l.open {
		if _, ok := closed[p.ID]; !ok {
			remaining = append(remaining, p)
		}
	}
	l.open = remaining
	return len(matched)
}

func (l *ledger) recordCash() {
	l.cashTrace = append(l.cashTrace, l.cash)
}

// openPositions returns copies of the positions still open
func (l *ledger) openPositions() []Position {
	out := make([]Position, 0, len(l.open))
	for _, p := range l.open {
		out = append(out, *p)
	}
	return out
}
