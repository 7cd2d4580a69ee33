// Package types holds the matching engine's persisted data model: asset
// records, balances, orders, market transactions, status, and history.
// These are the wire-compatible shapes every other package builds on.
package types

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/hyperclear/matchengine/pkg/fixed"
)

// AssetID re-exports fixed.AssetID so callers of this package don't need
// to import pkg/fixed just to name an asset.
type AssetID = fixed.AssetID

// MaxMarketFeeRate is the denominator for AssetRecord.MarketFeeRate: a
// fee rate is expressed in parts-per-MaxMarketFeeRate.
const MaxMarketFeeRate int64 = 10000

// AssetFlag is a bitmask of per-asset toggles.
type AssetFlag uint32

const (
	// FlagHaltedMarkets halts all matching against this asset.
	FlagHaltedMarkets AssetFlag = 1 << iota
)

// AssetRecord describes one asset's matching-relevant configuration:
// whether its markets are halted, its issuer market fee rate, the fees
// collected so far, and the owner whitelist that gates who may receive
// a credit denominated in this asset.
type AssetRecord struct {
	AssetID       AssetID
	Flags         AssetFlag
	MarketFeeRate int64 // parts-per-MaxMarketFeeRate
	CollectedFees int64
	Whitelist     Whitelist
}

// HaltedMarkets reports whether this asset's markets are halted.
func (a AssetRecord) HaltedMarkets() bool { return a.Flags&FlagHaltedMarkets != 0 }

// Whitelist gates which owner addresses may be credited in an asset. An
// asset with whitelisting disabled accepts any address; one with it
// enabled accepts only addresses explicitly listed.
type Whitelist struct {
	Enabled   bool
	Addresses map[common.Address]bool
}

// Accepts reports whether addr passes this whitelist.
func (w Whitelist) Accepts(addr common.Address) bool {
	if !w.Enabled {
		return true
	}
	return w.Addresses[addr]
}

// Side distinguishes a bid (buy base, pay quote) from an ask (sell
// base, receive quote).
type Side uint8

const (
	Bid Side = iota
	Ask
)

func (s Side) String() string {
	if s == Bid {
		return "bid"
	}
	return "ask"
}

// MarketIndexKey is the order book key: price (which embeds the
// quote/base pair) plus the owning address. Orders from different
// markets never collide because the price's (QuoteID, BaseID) makes the
// keys totally separable.
type MarketIndexKey struct {
	Price fixed.Price
	Owner common.Address
}

// OrderState is the mutable part of an order: its remaining balance.
// Balance is always non-negative; an order whose balance reaches zero is
// fully consumed.
type OrderState struct {
	Balance int64
}

// Order is a resting limit order: which side of the book it rests on,
// its key, and its current state.
type Order struct {
	Side  Side
	Key   MarketIndexKey
	State OrderState
}

func (o Order) Owner() common.Address { return o.Key.Owner }
func (o Order) Price() fixed.Price    { return o.Key.Price }

// BalanceRecord is a (owner, asset) credit balance.
type BalanceRecord struct {
	Owner       common.Address
	AssetID     AssetID
	Shares      int64
	LastUpdate  int64
	DepositDate int64
}

// MarketTransaction is one matched trade, emitted append-only per block.
type MarketTransaction struct {
	BidOwner common.Address
	AskOwner common.Address

	BidPrice fixed.Price
	AskPrice fixed.Price

	BidType Side
	AskType Side

	BidPaid     int64
	BidReceived int64
	AskPaid     int64
	AskReceived int64

	QuoteFees int64
	BaseFees  int64
}

// IsAutoCancel reports whether mtrx represents a null match with no
// actual transfer, the one case where the non-negativity and
// cross-amount invariants do not apply.
func (m MarketTransaction) IsAutoCancel() bool {
	return m.AskPaid == 0 && m.AskReceived == 0 && m.BidReceived == 0 && m.BidPaid == 0
}

// MarketStatus is written after every engine invocation for a market.
type MarketStatus struct {
	QuoteID            AssetID
	BaseID             AssetID
	LastError          *string // structured capture, nil on success
	LastValidFeedPrice *fixed.Price
}

// Granularity is a market-history bucket width.
type Granularity uint8

const (
	EachBlock Granularity = iota
	EachHour
	EachDay
)

// MarketHistoryKey identifies one history bucket.
type MarketHistoryKey struct {
	QuoteID     AssetID
	BaseID      AssetID
	Granularity Granularity
	Timestamp   int64
}

// MarketHistoryRecord is the OHLC+volume payload of one history bucket.
type MarketHistoryRecord struct {
	HighestBid   fixed.Price
	LowestAsk    fixed.Price
	OpeningPrice fixed.Price
	ClosingPrice fixed.Price
	VolumeShares int64
}
