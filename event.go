package stocktax

import (
	"fmt"
	"iter"
	"log"
	"maps"
	"slices"
	"time"

	"github.com/binsu996/stock-tax-calculator/date"
)

// Side identifies the direction of a trade fill.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// TradeEvent is one normalized fill from a broker loader. Loaders must
// deliver events per symbol in non-decreasing time order with zero-quantity
// rows already filtered out; the ledger does not re-sort or deduplicate.
type TradeEvent struct {
	Symbol     string
	Side       Side
	Price      Money    // per-unit quote price, in the settlement currency
	Quantity   Quantity // units filled, always positive
	Fee        Money    // total fee for this fill
	Time       time.Time
	Multiplier int // shares per unit; 0 or 1 for non-options
}

// Currency returns the event's settlement currency.
func (e TradeEvent) Currency() string { return e.Price.Currency() }

// FeeEvent is a standalone fee line not tied to a fill: an ADR fee, tax
// withholding, interest charge... Symbol may be empty for fees that are only
// currency-scoped.
type FeeEvent struct {
	Symbol   string
	Currency string
	Amount   Money
	Time     time.Time
}

// Ledger owns one Position per traded symbol and replays normalized events
// against them. Positions are created lazily on first event and live only for
// the duration of one batch run; every run recomputes from raw history.
//
// The replay is a plain sequential fold: no retries, no recovery, and no
// concurrent use.
type Ledger struct {
	positions map[string]*Position
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{positions: make(map[string]*Position)}
}

// position returns the position for a symbol, creating it on first use.
func (l *Ledger) position(symbol, currency string) *Position {
	pos, ok := l.positions[symbol]
	if !ok {
		pos = NewPosition(symbol, currency)
		l.positions[symbol] = pos
	}
	return pos
}

// Apply routes one trade event to its position. The event either applies
// fully or fails without touching the position.
func (l *Ledger) Apply(e TradeEvent) error {
	pos := l.position(e.Symbol, e.Currency())
	switch e.Side {
	case SideBuy:
		return pos.Buy(e.Price, e.Quantity, e.Fee, e.Time, e.Multiplier)
	case SideSell:
		return pos.Sell(e.Price, e.Quantity, e.Fee, e.Time, e.Multiplier)
	default:
		return fmt.Errorf("unsupported side %q for %s", e.Side, e.Symbol)
	}
}

// ApplyAll replays a batch of trade events in order, stopping at the first
// failing event.
func (l *Ledger) ApplyAll(events []TradeEvent) error {
	for _, e := range events {
		if err := l.Apply(e); err != nil {
			return fmt.Errorf("replaying %s %s at %s: %w", e.Side, e.Symbol, e.Time, err)
		}
	}
	return nil
}

// ApplyFee books a standalone fee. Currency-scoped fees (empty symbol) go to
// a synthetic per-currency fee account so they still group under the right
// currency in reports.
func (l *Ledger) ApplyFee(e FeeEvent) {
	symbol := e.Symbol
	if symbol == "" {
		symbol = "FEE-" + e.Currency
	}
	l.position(symbol, e.Currency).AddFee(e.Amount, e.Time)
}

// ApplyFees books a batch of standalone fees in order.
func (l *Ledger) ApplyFees(events []FeeEvent) {
	for _, e := range events {
		l.ApplyFee(e)
	}
}

// ExpireOptions writes off every non-flat option position whose embedded
// expiry is on or before asOf. It returns the number of positions written off.
func (l *Ledger) ExpireOptions(asOf date.Date) int {
	expired := 0
	for pos := range l.Positions() {
		expiry, ok := ParseOptionExpiry(pos.Symbol())
		if !ok || pos.Quantity().IsZero() || expiry.After(asOf) {
			continue
		}
		value := pos.AveragePrice().Mul(pos.Quantity())
		pos.Expire(expiry)
		log.Printf("option %s expired on %s: wrote off %s", pos.Symbol(), expiry, value)
		expired++
	}
	return expired
}

// Position returns the position for a symbol, or nil if no event referenced it.
func (l *Ledger) Position(symbol string) *Position {
	return l.positions[symbol]
}

// Positions iterates over all positions in symbol order.
func (l *Ledger) Positions() iter.Seq[*Position] {
	return func(yield func(*Position) bool) {
		symbols := slices.Collect(maps.Keys(l.positions))
		slices.Sort(symbols)
		for _, symbol := range symbols {
			if !yield(l.positions[symbol]) {
				return
			}
		}
	}
}

// Currencies iterates over all settlement currencies seen, sorted.
func (l *Ledger) Currencies() iter.Seq[string] {
	return func(yield func(string) bool) {
		visited := make(map[string]struct{})
		for _, pos := range l.positions {
			visited[pos.Currency()] = struct{}{}
		}
		currencies := slices.Collect(maps.Keys(visited))
		slices.Sort(currencies)
		for _, currency := range currencies {
			if !yield(currency) {
				return
			}
		}
	}
}
