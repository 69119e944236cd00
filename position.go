package stocktax

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/binsu996/stock-tax-calculator/date"
)

// Position tracks one traded symbol under average-cost accounting.
//
// The quantity is signed: positive for a long position, negative for a short
// one, zero when flat. The cost is the signed running cost (quantity times
// average price) and may be negative while short. Closing trades, standalone
// fees and option expiries each add their realized amount exactly once to the
// running total and to the bucket of the event's calendar year.
//
// A Position is built for a single sequential replay of time-ordered events;
// it is not safe for concurrent use.
type Position struct {
	symbol   string
	currency string

	qty  Quantity
	cost Money

	realized Money
	byYear   map[int]Money
}

// NewPosition creates a flat position for a symbol settled in the given currency.
func NewPosition(symbol, currency string) *Position {
	return &Position{
		symbol:   symbol,
		currency: currency,
		cost:     M(0, currency),
		realized: M(0, currency),
		byYear:   make(map[int]Money),
	}
}

func (p *Position) Symbol() string   { return p.symbol }
func (p *Position) Currency() string { return p.currency }

// Quantity returns the current signed position size.
func (p *Position) Quantity() Quantity { return p.qty }

// Cost returns the signed running cost of the open position.
func (p *Position) Cost() Money { return p.cost }

// AveragePrice returns cost divided by quantity, or zero when flat.
func (p *Position) AveragePrice() Money {
	if p.qty.IsZero() {
		return M(0, p.currency)
	}
	return p.cost.Div(p.qty)
}

// RealizedTotal returns the cumulative realized gain or loss.
func (p *Position) RealizedTotal() Money { return p.realized }

// RealizedIn returns the realized gain or loss booked in a calendar year.
func (p *Position) RealizedIn(year int) Money { return p.byYear[year].Add(M(0, p.currency)) }

// RealizedByYear returns a copy of the year to realized-amount mapping.
func (p *Position) RealizedByYear() map[int]Money { return maps.Clone(p.byYear) }

// Years returns the calendar years with a realized amount, sorted.
func (p *Position) Years() []int {
	years := slices.Collect(maps.Keys(p.byYear))
	slices.Sort(years)
	return years
}

// addRealized books a realized amount in the running total and the year
// bucket. Exact-zero amounts are skipped so no-op events never pollute the
// year buckets.
func (p *Position) addRealized(amount Money, year int) {
	if amount.IsZero() {
		return
	}
	p.realized = p.realized.Add(amount)
	p.byYear[year] = p.byYear[year].Add(amount)
}

// Buy applies a buy fill: price is the per-unit quote, qty the number of
// units, fee the total fee for the fill and multiplier the number of shares
// one unit represents (1 for plain stock). The fee is spread pro-rata over
// the quantity and baked into the effective price.
//
// A buy first covers any open short exposure, realizing the gain between the
// average short-sale price and the effective price; whatever quantity remains
// opens or extends a long position.
func (p *Position) Buy(price Money, qty Quantity, fee Money, at time.Time, multiplier int) error {
	truePrice, err := p.effectivePrice(price, qty, fee, multiplier, false)
	if err != nil {
		return err
	}

	// Cover the short leg first.
	if p.qty.IsNegative() {
		cover := minQuantity(qty, p.qty.Abs())
		avg := p.AveragePrice()

		p.addRealized(avg.Sub(truePrice).Mul(cover), at.Year())

		p.cost = p.cost.Add(avg.Mul(cover))
		p.qty = p.qty.Add(cover)
		qty = qty.Sub(cover)
	}

	// The remainder opens or extends a long position.
	if qty.IsPositive() {
		p.cost = p.cost.Add(truePrice.Mul(qty))
		p.qty = p.qty.Add(qty)
	}
	return nil
}

// Sell mirrors Buy: it first closes any open long exposure, realizing the
// gain between the effective price and the average entry price; whatever
// quantity remains opens or extends a short position.
func (p *Position) Sell(price Money, qty Quantity, fee Money, at time.Time, multiplier int) error {
	truePrice, err := p.effectivePrice(price, qty, fee, multiplier, true)
	if err != nil {
		return err
	}

	// Close the long leg first.
	if p.qty.IsPositive() {
		closed := minQuantity(qty, p.qty)
		avg := p.AveragePrice()

		p.addRealized(truePrice.Sub(avg).Mul(closed), at.Year())

		p.cost = p.cost.Sub(avg.Mul(closed))
		p.qty = p.qty.Sub(closed)
		qty = qty.Sub(closed)
	}

	// The remainder opens or extends a short position.
	if qty.IsPositive() {
		p.cost = p.cost.Sub(truePrice.Mul(qty))
		p.qty = p.qty.Sub(qty)
	}
	return nil
}

// effectivePrice computes the fee-inclusive per-unit price. The same per-unit
// fee applies to the covering and opening legs of a reversing trade; the fee
// is not re-allocated per leg.
func (p *Position) effectivePrice(price Money, qty Quantity, fee Money, multiplier int, selling bool) (Money, error) {
	if !qty.IsPositive() {
		return Money{}, fmt.Errorf("position %s: quantity must be positive, got %s", p.symbol, qty)
	}
	if multiplier < 1 {
		multiplier = 1
	}
	perUnitFee := fee.Div(qty)
	gross := price.Mul(Q(multiplier))
	if selling {
		return gross.Sub(perUnitFee), nil
	}
	return gross.Add(perUnitFee), nil
}

// AddFee books a standalone fee (ADR fee, withholding tax, interest...) as a
// realized loss in the event's year. Fees that are zero or negative are
// deliberately ignored: a fee is always a cost, anything else is a refund the
// ledger does not track.
func (p *Position) AddFee(fee Money, at time.Time) {
	if !fee.IsPositive() {
		return
	}
	p.addRealized(fee.Neg(), at.Year())
}

// Expire writes off the whole remaining position as a realized loss in the
// expiry year and resets the position to flat. It is a no-op when flat.
//
// This models a worthless contract expiry, not a market trade: the full
// position value is always booked as a loss, even when the contract would
// have expired in the money. Exercise and intrinsic-value settlement are not
// modeled.
func (p *Position) Expire(expiry date.Date) {
	if p.qty.IsZero() {
		return
	}
	loss := p.AveragePrice().Mul(p.qty).Neg()
	p.addRealized(loss, expiry.Year())

	p.cost = M(0, p.currency)
	p.qty = Q(0)
}
