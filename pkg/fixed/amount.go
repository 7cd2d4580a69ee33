// Package fixed implements the engine's fixed-point arithmetic: integer
// asset amounts and exact rational prices. No floating-point type appears
// anywhere in this package; every computation that affects consensus
// state stays on int64 shares and widened big.Int intermediates.
package fixed

// AssetID identifies an asset. Asset 0 is the native/core asset used to
// denominate trading volume.
type AssetID uint32

// Amount is a signed quantity of shares of a single asset. Negative
// values never appear in persisted state; callers that produce one have
// a bug.
type Amount struct {
	AssetID AssetID
	Shares  int64
}

func (a Amount) IsZero() bool { return a.Shares == 0 }

func (a Amount) Add(shares int64) Amount {
	return Amount{AssetID: a.AssetID, Shares: a.Shares + shares}
}
