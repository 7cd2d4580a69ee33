// Package storage implements the matching engine's chain-state
// collaborator: a durable ordered key-value store, an in-memory fake for
// tests, and the copy-on-write pending overlay the engine stages every
// mutation through before an atomic commit.
package storage

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/hyperclear/matchengine/pkg/fixed"
	"github.com/hyperclear/matchengine/pkg/types"
)

// ChainState is the collaborator the engine depends on: asset, balance,
// market-status and history accessors, ordered order-book cursors, and a
// clock. Committing is not part of this interface: Overlay.ApplyChanges
// merges staged writes into its parent. MemChainState and PebbleChainState are
// committed-state implementations; Overlay wraps either one as a
// copy-on-write staging layer and also satisfies this interface, so the
// engine never has to know which kind of state it was handed.
type ChainState interface {
	GetAssetRecord(id fixed.AssetID) (types.AssetRecord, bool)
	StoreAssetRecord(rec types.AssetRecord)

	GetBalanceRecord(owner common.Address, assetID fixed.AssetID) (types.BalanceRecord, bool)
	StoreBalanceRecord(rec types.BalanceRecord)

	GetMarketStatus(quoteID, baseID fixed.AssetID) (types.MarketStatus, bool)
	StoreMarketStatus(status types.MarketStatus)

	GetOrder(side types.Side, key types.MarketIndexKey) (types.OrderState, bool)
	StoreOrder(side types.Side, key types.MarketIndexKey, state types.OrderState)
	DeleteOrder(side types.Side, key types.MarketIndexKey)

	GetHistoryRecord(key types.MarketHistoryKey) (types.MarketHistoryRecord, bool)
	StoreHistoryRecord(key types.MarketHistoryKey, rec types.MarketHistoryRecord)

	Now() time.Time

	BidCursor(quoteID, baseID fixed.AssetID) *Cursor
	AskCursor(quoteID, baseID fixed.AssetID) *Cursor

	// snapshotOrders returns every resting order on one side of one
	// market, order undefined (BidCursor/AskCursor sort it). Unexported
	// so an Overlay can merge its pending writes into whatever it was
	// layered over (committed state or another overlay) and so only this
	// package may supply a ChainState.
	snapshotOrders(side types.Side, quoteID, baseID fixed.AssetID) []types.Order
}
