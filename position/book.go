package position

import (
	"fmt"
	"sort"

	"github.com/rustyeddy/jantrader/market"
)

// Book keeps open and closed positions, each in insertion order. A position
// is in exactly one of the two partitions. Accessors hand out copies.
type Book struct {
	open   []string
	closed []string
	order  []string
	byID   map[string]*Position
}

// NewBook returns an empty book.
func NewBook() *Book {
	return &Book{byID: map[string]*Position{}}
}

// Add appends an open position.
func (b *Book) Add(p Position) error {
	if err := p.validate(); err != nil {
		return err
	}
	if p.state != Open {
		return fmt.Errorf("%w: %s", ErrNotOpen, p.ID)
	}
	if _, ok := b.byID[p.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, p.ID)
	}
	if b.byID == nil {
		b.byID = map[string]*Position{}
	}

	b.byID[p.ID] = &p
	b.open = append(b.open, p.ID)
	b.order = append(b.order, p.ID)
	return nil
}

// Close exits the open position id at date and moves it to the closed
// partition. Both partitions keep their relative order.
func (b *Book) Close(id string, date market.Date, longPrice, hedgePrice float64) error {
	p, ok := b.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := p.close(date, longPrice, hedgePrice); err != nil {
		return err
	}

	for i, oid := range b.open {
		if oid == id {
			b.open = append(b.open[:i], b.open[i+1:]...)
			break
		}
	}
	b.closed = append(b.closed, id)
	return nil
}

// Get returns a copy of the position with id.
func (b *Book) Get(id string) (Position, bool) {
	p, ok := b.byID[id]
	if !ok {
		return Position{}, false
	}
	return *p, true
}

// Len returns the number of positions, open and closed.
func (b *Book) Len() int { return len(b.order) }

// Open returns copies of the open positions in insertion order.
func (b *Book) Open() []Position { return b.list(b.open) }

// Closed returns copies of the closed positions in the order they closed.
func (b *Book) Closed() []Position { return b.list(b.closed) }

// Chronological returns every position ordered by entry date. Positions
// entered the same day keep insertion order.
func (b *Book) Chronological() []Position {
	out := b.list(b.order)
	sort.SliceStable(out, func(i, j int) bool { return out[i].EntryDate().Before(out[j].EntryDate()) })
	return out
}

func (b *Book) list(ids []string) []Position {
	out := make([]Position, 0, len(ids))
	for _, id := range ids {
		out = append(out, *b.byID[id])
	}
	return out
}
