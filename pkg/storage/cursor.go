package storage

import (
	"bytes"
	"sort"

	"github.com/hyperclear/matchengine/pkg/types"
)

// Cursor is the engine-facing view of one side of one market's order
// book: Valid/Order/Advance, matching §4.3's contract. Bid cursors start
// at the highest price and Advance toward lower prices; ask cursors
// start at the lowest price and Advance toward higher prices. Once
// Valid returns false the cursor has run off the end of the book and is
// never advanced again.
//
// Price is an exact rational with a per-order denominator, so a raw
// byte-ordered store key cannot double as the sort key the way a fixed
// scalar could: two prices with different denominators do not compare
// the same way lexicographically as they do numerically. Rather than
// force an approximate fixed-scale encoding into the key, the cursor
// sorts a full per-market snapshot with the exact cross-multiplying
// comparator and walks it with a plain index.
type Cursor struct {
	orders []types.Order
	idx    int
	step   int
}

func sortOrdersAscending(orders []types.Order) {
	sort.Slice(orders, func(i, j int) bool {
		pi, pj := orders[i].Price(), orders[j].Price()
		if !pi.Equal(pj) {
			return pi.Less(pj)
		}
		return bytes.Compare(orders[i].Owner().Bytes(), orders[j].Owner().Bytes()) < 0
	})
}

func newBidCursor(orders []types.Order) *Cursor {
	sortOrdersAscending(orders)
	return &Cursor{orders: orders, idx: len(orders) - 1, step: -1}
}

func newAskCursor(orders []types.Order) *Cursor {
	sortOrdersAscending(orders)
	return &Cursor{orders: orders, idx: 0, step: 1}
}

func (c *Cursor) Valid() bool {
	return c.idx >= 0 && c.idx < len(c.orders)
}

func (c *Cursor) Advance() {
	c.idx += c.step
}

// Order returns the order the cursor currently sits on. Callers must
// only call this when Valid() is true.
func (c *Cursor) Order() types.Order {
	return c.orders[c.idx]
}
