package fixed

import "math/big"

// Price is an exact rational quote_per_base, annotated with the asset
// pair it trades. Equality and ordering are lexicographic on
// (QuoteID, BaseID, ratio). The zero value (both asset ids zero, ratio
// 0/0) is the sentinel "unset" marker used by history accumulators; it
// never describes a real market, since a market always has distinct
// quote and base ids.
type Price struct {
	QuoteID AssetID
	BaseID  AssetID
	Num     int64 // numerator of quote-per-base ratio
	Denom   int64 // denominator; > 0 whenever the price is set
}

// NewPrice builds a price, reducing is intentionally skipped: the engine
// never needs a canonical reduced form, only exact cross-multiplication
// for comparisons and widened multiply/divide for sizing.
func NewPrice(quoteID, baseID AssetID, num, denom int64) Price {
	return Price{QuoteID: quoteID, BaseID: baseID, Num: num, Denom: denom}
}

// IsZero reports whether p is the unset sentinel.
func (p Price) IsZero() bool {
	return p.QuoteID == 0 && p.BaseID == 0
}

// Equal reports exact equality of the (quote, base, ratio) tuple, where
// the ratio compares by cross-multiplication rather than reduced form.
func (p Price) Equal(o Price) bool {
	if p.QuoteID != o.QuoteID || p.BaseID != o.BaseID {
		return false
	}
	return crossCompare(p, o) == 0
}

// Less orders prices lexicographically on (QuoteID, BaseID, ratio).
func (p Price) Less(o Price) bool {
	if p.QuoteID != o.QuoteID {
		return p.QuoteID < o.QuoteID
	}
	if p.BaseID != o.BaseID {
		return p.BaseID < o.BaseID
	}
	return crossCompare(p, o) < 0
}

// Greater is the converse of Less, kept for readability at call sites
// that compare bid/ask extrema.
func (p Price) Greater(o Price) bool { return o.Less(p) }

// crossCompare compares p.Num/p.Denom to o.Num/o.Denom via widened
// cross-multiplication, avoiding any floating-point division. Denom is
// always positive for a set price.
func crossCompare(p, o Price) int {
	lhs := new(big.Int).Mul(big.NewInt(p.Num), big.NewInt(o.Denom))
	rhs := new(big.Int).Mul(big.NewInt(o.Num), big.NewInt(p.Denom))
	return lhs.Cmp(rhs)
}

// MulBase computes baseShares * (Num/Denom), i.e. the quote-asset amount
// paid for baseShares units of the base asset at this price. The
// division truncates toward zero.
func (p Price) MulBase(baseShares int64) int64 {
	n := new(big.Int).Mul(big.NewInt(baseShares), big.NewInt(p.Num))
	n.Quo(n, big.NewInt(p.Denom)) // Quo truncates toward zero
	return n.Int64()
}

// BaseFromQuote computes quoteShares / (Num/Denom), i.e. how many units
// of the base asset quoteShares buys at this price. Truncates toward
// zero.
func (p Price) BaseFromQuote(quoteShares int64) int64 {
	if p.Num == 0 {
		return 0
	}
	n := new(big.Int).Mul(big.NewInt(quoteShares), big.NewInt(p.Denom))
	n.Quo(n, big.NewInt(p.Num))
	return n.Int64()
}
