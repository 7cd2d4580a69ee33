package storage

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/hyperclear/matchengine/pkg/fixed"
	"github.com/hyperclear/matchengine/pkg/types"
)

type orderDiff struct {
	state   types.OrderState
	deleted bool
}

// Overlay is the copy-on-write pending layer the engine stages every
// mutation through. Reads fall through to the parent for anything not
// yet touched; writes land only in the overlay's own maps until
// ApplyChanges merges them into the parent. Discarding an overlay is
// simply never calling ApplyChanges: nothing was ever written to the
// parent to undo.
type Overlay struct {
	parent ChainState

	assets   map[fixed.AssetID]types.AssetRecord
	balances map[string]types.BalanceRecord
	statuses map[string]types.MarketStatus
	history  map[string]historyEntry
	orders   map[string]orderDiff
}

type historyEntry struct {
	key types.MarketHistoryKey
	rec types.MarketHistoryRecord
}

// NewOverlay builds an overlay over parent. The engine takes exclusive
// ownership of the returned value for the duration of one execute call.
func NewOverlay(parent ChainState) *Overlay {
	return &Overlay{
		parent:   parent,
		assets:   make(map[fixed.AssetID]types.AssetRecord),
		balances: make(map[string]types.BalanceRecord),
		statuses: make(map[string]types.MarketStatus),
		history:  make(map[string]historyEntry),
		orders:   make(map[string]orderDiff),
	}
}

func (o *Overlay) GetAssetRecord(id fixed.AssetID) (types.AssetRecord, bool) {
	if rec, ok := o.assets[id]; ok {
		return rec, true
	}
	return o.parent.GetAssetRecord(id)
}

func (o *Overlay) StoreAssetRecord(rec types.AssetRecord) {
	o.assets[rec.AssetID] = rec
}

func (o *Overlay) GetBalanceRecord(owner common.Address, assetID fixed.AssetID) (types.BalanceRecord, bool) {
	k := string(balanceKey(owner, assetID))
	if rec, ok := o.balances[k]; ok {
		return rec, true
	}
	return o.parent.GetBalanceRecord(owner, assetID)
}

func (o *Overlay) StoreBalanceRecord(rec types.BalanceRecord) {
	o.balances[string(balanceKey(rec.Owner, rec.AssetID))] = rec
}

func (o *Overlay) GetMarketStatus(quoteID, baseID fixed.AssetID) (types.MarketStatus, bool) {
	k := string(marketStatusKey(quoteID, baseID))
	if rec, ok := o.statuses[k]; ok {
		return rec, true
	}
	return o.parent.GetMarketStatus(quoteID, baseID)
}

func (o *Overlay) StoreMarketStatus(status types.MarketStatus) {
	o.statuses[string(marketStatusKey(status.QuoteID, status.BaseID))] = status
}

func (o *Overlay) GetOrder(side types.Side, key types.MarketIndexKey) (types.OrderState, bool) {
	k := string(orderKey(side, key))
	if d, ok := o.orders[k]; ok {
		if d.deleted {
			return types.OrderState{}, false
		}
		return d.state, true
	}
	return o.parent.GetOrder(side, key)
}

func (o *Overlay) StoreOrder(side types.Side, key types.MarketIndexKey, state types.OrderState) {
	o.orders[string(orderKey(side, key))] = orderDiff{state: state}
}

func (o *Overlay) DeleteOrder(side types.Side, key types.MarketIndexKey) {
	o.orders[string(orderKey(side, key))] = orderDiff{deleted: true}
}

func (o *Overlay) GetHistoryRecord(key types.MarketHistoryKey) (types.MarketHistoryRecord, bool) {
	k := string(historyKey(key))
	if e, ok := o.history[k]; ok {
		return e.rec, true
	}
	return o.parent.GetHistoryRecord(key)
}

func (o *Overlay) StoreHistoryRecord(key types.MarketHistoryKey, rec types.MarketHistoryRecord) {
	o.history[string(historyKey(key))] = historyEntry{key: key, rec: rec}
}

func (o *Overlay) Now() time.Time { return o.parent.Now() }

func (o *Overlay) snapshotOrders(side types.Side, quoteID, baseID fixed.AssetID) []types.Order {
	base := o.parent.snapshotOrders(side, quoteID, baseID)
	merged := make(map[string]types.Order, len(base))
	for _, ord := range base {
		merged[string(orderKey(side, ord.Key))] = ord
	}
	prefix := string(marketKeyPrefix(side, quoteID, baseID))
	for k, d := range o.orders {
		if len(k) < len(prefix) || k[:len(prefix)] != prefix {
			continue
		}
		if d.deleted {
			delete(merged, k)
			continue
		}
		key := decodeOrderKey(side, quoteID, baseID, []byte(k))
		merged[k] = types.Order{Side: side, Key: key, State: d.state}
	}
	out := make([]types.Order, 0, len(merged))
	for _, ord := range merged {
		out = append(out, ord)
	}
	return out
}

func (o *Overlay) BidCursor(quoteID, baseID fixed.AssetID) *Cursor {
	return newBidCursor(o.snapshotOrders(types.Bid, quoteID, baseID))
}

func (o *Overlay) AskCursor(quoteID, baseID fixed.AssetID) *Cursor {
	return newAskCursor(o.snapshotOrders(types.Ask, quoteID, baseID))
}

// ApplyChanges merges every pending write into the parent store. There
// is no partial-failure path: the underlying stores panic on a genuine
// storage error, which the
// engine's top-level recovery turns into a StorageError for the market
// rather than a partially-applied commit.
func (o *Overlay) ApplyChanges() {
	for _, rec := range o.assets {
		o.parent.StoreAssetRecord(rec)
	}
	for _, rec := range o.balances {
		o.parent.StoreBalanceRecord(rec)
	}
	for _, rec := range o.statuses {
		o.parent.StoreMarketStatus(rec)
	}
	for _, e := range o.history {
		o.parent.StoreHistoryRecord(e.key, e.rec)
	}
	for k, d := range o.orders {
		side, quoteID, baseID := decodeOrderMarket([]byte(k))
		key := decodeOrderKey(side, quoteID, baseID, []byte(k))
		if d.deleted {
			o.parent.DeleteOrder(side, key)
		} else {
			o.parent.StoreOrder(side, key, d.state)
		}
	}
}

var _ ChainState = (*Overlay)(nil)
