// Package position models paired long/hedge positions and the book that
// holds them.
package position

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/jantrader/market"
)

type Side int

const (
	Long  Side = 1
	Short Side = -1
)

func (s Side) String() string {
	switch s {
	case Long:
		return "long"
	case Short:
		return "short"
	}
	return fmt.Sprintf("Side(%d)", int(s))
}

type State int

const (
	Open State = iota
	Closed
)

func (s State) String() string {
	if s == Closed {
		return "closed"
	}
	return "open"
}

var (
	ErrDuplicateID     = errors.New("position: duplicate id")
	ErrNotFound        = errors.New("position: not found")
	ErrNotOpen         = errors.New("position: not open")
	ErrExitBeforeEntry = errors.New("position: exit before entry")
	ErrInvalid         = errors.New("position: invalid")
)

// Leg is one side of a position. Exit fields are zero while the leg is open.
type Leg struct {
	Symbol     string
	Side       Side
	Quantity   float64
	EntryDate  market.Date
	EntryPrice float64
	ExitDate   market.Date
	ExitPrice  float64
}

// Notional is the cash committed at entry.
func (l Leg) Notional() decimal.Decimal {
	return decimal.NewFromFloat(l.Quantity).Mul(decimal.NewFromFloat(l.EntryPrice))
}

// PLAt is the leg's profit or loss if it were closed at price. A zero price
// marks the leg at its entry price.
func (l Leg) PLAt(price float64) decimal.Decimal {
	if price == 0 {
		return decimal.Zero
	}
	move := decimal.NewFromFloat(price).Sub(decimal.NewFromFloat(l.EntryPrice))
	return move.Mul(decimal.NewFromFloat(l.Quantity)).Mul(decimal.NewFromInt(int64(l.Side)))
}

func (l Leg) validate() error {
	switch {
	case l.Side != Long && l.Side != Short:
		return fmt.Errorf("%w: %s bad side %d", ErrInvalid, l.Symbol, int(l.Side))
	case !(l.Quantity > 0):
		return fmt.Errorf("%w: %s quantity %v", ErrInvalid, l.Symbol, l.Quantity)
	case !(l.EntryPrice > 0):
		return fmt.Errorf("%w: %s entry price %v", ErrInvalid, l.Symbol, l.EntryPrice)
	case l.EntryDate.IsZero():
		return fmt.Errorf("%w: %s has no entry date", ErrInvalid, l.Symbol)
	}
	return nil
}

// Position pairs a long leg with a hedge leg entered on the same date.
type Position struct {
	ID    string
	Long  Leg
	Hedge Leg

	state State
}

// New returns an open position. Exit fields of both legs are cleared.
func New(id string, long, hedge Leg) Position {
	for _, l := range []*Leg{&long, &hedge} {
		l.ExitDate = market.NoDate
		l.ExitPrice = 0
	}
	return Position{ID: id, Long: long, Hedge: hedge, state: Open}
}

func (p Position) State() State { return p.state }

func (p Position) EntryDate() market.Date { return p.Long.EntryDate }

// ExitDate is NoDate while the position is open.
func (p Position) ExitDate() market.Date { return p.Long.ExitDate }

// HoldDays is the calendar days between entry and exit, 0 while open.
func (p Position) HoldDays() int {
	if p.state != Closed {
		return 0
	}
	return p.ExitDate().Sub(p.EntryDate())
}

// PLAt marks both legs to the given prices.
func (p Position) PLAt(longPrice, hedgePrice float64) decimal.Decimal {
	return p.Long.PLAt(longPrice).Add(p.Hedge.PLAt(hedgePrice))
}

// PL is the realized profit or loss, zero while open.
func (p Position) PL() decimal.Decimal {
	if p.state != Closed {
		return decimal.Zero
	}
	return p.PLAt(p.Long.ExitPrice, p.Hedge.ExitPrice)
}

// ReturnAt is PLAt as a fraction of the long leg's entry notional.
func (p Position) ReturnAt(longPrice, hedgePrice float64) float64 {
	n := p.Long.Notional()
	if n.IsZero() {
		return 0
	}
	r, _ := p.PLAt(longPrice, hedgePrice).Div(n).Float64()
	return r
}

// Return is the realized return, zero while open.
func (p Position) Return() float64 {
	if p.state != Closed {
		return 0
	}
	return p.ReturnAt(p.Long.ExitPrice, p.Hedge.ExitPrice)
}

func (p Position) validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalid)
	}
	if err := p.Long.validate(); err != nil {
		return err
	}
	if err := p.Hedge.validate(); err != nil {
		return err
	}
	if !p.Long.EntryDate.Equal(p.Hedge.EntryDate) {
		return fmt.Errorf("%w: legs entered on %s and %s", ErrInvalid, p.Long.EntryDate, p.Hedge.EntryDate)
	}
	return nil
}

func (p *Position) close(date market.Date, longPrice, hedgePrice float64) error {
	if p.state != Open {
		return fmt.Errorf("%w: %s", ErrNotOpen, p.ID)
	}
	if date.IsZero() || date.Before(p.EntryDate()) {
		return fmt.Errorf("%w: %s exit %s entry %s", ErrExitBeforeEntry, p.ID, date, p.EntryDate())
	}
	if !(longPrice > 0) || !(hedgePrice > 0) {
		return fmt.Errorf("%w: %s exit prices %v / %v", ErrInvalid, p.ID, longPrice, hedgePrice)
	}
	p.Long.ExitDate, p.Long.ExitPrice = date, longPrice
	p.Hedge.ExitDate, p.Hedge.ExitPrice = date, hedgePrice
	p.state = Closed
	return nil
}
