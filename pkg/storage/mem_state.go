package storage

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/hyperclear/matchengine/pkg/fixed"
	"github.com/hyperclear/matchengine/pkg/types"
	"github.com/hyperclear/matchengine/pkg/util"
)

// MemChainState is an in-memory ChainState fake for tests that don't
// need pebble's durability: fast, and deterministic once given a fixed
// clock.
type MemChainState struct {
	Clock util.Clock

	assets   map[fixed.AssetID]types.AssetRecord
	balances map[string]types.BalanceRecord
	statuses map[string]types.MarketStatus
	history  map[string]types.MarketHistoryRecord
	bids     map[string][]byte
	asks     map[string][]byte
}

// NewMemChainState returns an empty store using the real wall clock.
func NewMemChainState() *MemChainState {
	return &MemChainState{
		Clock:    util.RealClock{},
		assets:   make(map[fixed.AssetID]types.AssetRecord),
		balances: make(map[string]types.BalanceRecord),
		statuses: make(map[string]types.MarketStatus),
		history:  make(map[string]types.MarketHistoryRecord),
		bids:     make(map[string][]byte),
		asks:     make(map[string][]byte),
	}
}

func (s *MemChainState) GetAssetRecord(id fixed.AssetID) (types.AssetRecord, bool) {
	rec, ok := s.assets[id]
	return rec, ok
}

func (s *MemChainState) StoreAssetRecord(rec types.AssetRecord) {
	s.assets[rec.AssetID] = rec
}

func (s *MemChainState) GetBalanceRecord(owner common.Address, assetID fixed.AssetID) (types.BalanceRecord, bool) {
	rec, ok := s.balances[string(balanceKey(owner, assetID))]
	return rec, ok
}

func (s *MemChainState) StoreBalanceRecord(rec types.BalanceRecord) {
	s.balances[string(balanceKey(rec.Owner, rec.AssetID))] = rec
}

func (s *MemChainState) GetMarketStatus(quoteID, baseID fixed.AssetID) (types.MarketStatus, bool) {
	rec, ok := s.statuses[string(marketStatusKey(quoteID, baseID))]
	return rec, ok
}

func (s *MemChainState) StoreMarketStatus(status types.MarketStatus) {
	s.statuses[string(marketStatusKey(status.QuoteID, status.BaseID))] = status
}

func (s *MemChainState) sideMap(side types.Side) map[string][]byte {
	if side == types.Bid {
		return s.bids
	}
	return s.asks
}

func (s *MemChainState) GetOrder(side types.Side, key types.MarketIndexKey) (types.OrderState, bool) {
	v, ok := s.sideMap(side)[string(orderKey(side, key))]
	if !ok {
		return types.OrderState{}, false
	}
	var st types.OrderState
	if err := decodeJSON(v, &st); err != nil {
		panic(err)
	}
	return st, true
}

func (s *MemChainState) StoreOrder(side types.Side, key types.MarketIndexKey, state types.OrderState) {
	s.sideMap(side)[string(orderKey(side, key))] = encodeJSON(state)
}

func (s *MemChainState) DeleteOrder(side types.Side, key types.MarketIndexKey) {
	delete(s.sideMap(side), string(orderKey(side, key)))
}

func (s *MemChainState) GetHistoryRecord(key types.MarketHistoryKey) (types.MarketHistoryRecord, bool) {
	rec, ok := s.history[string(historyKey(key))]
	return rec, ok
}

func (s *MemChainState) StoreHistoryRecord(key types.MarketHistoryKey, rec types.MarketHistoryRecord) {
	s.history[string(historyKey(key))] = rec
}

func (s *MemChainState) Now() time.Time { return s.Clock.Now() }

func (s *MemChainState) snapshotOrders(side types.Side, quoteID, baseID fixed.AssetID) []types.Order {
	prefix := string(marketKeyPrefix(side, quoteID, baseID))
	m := s.sideMap(side)
	orders := make([]types.Order, 0, len(m))
	for k, v := range m {
		if len(k) < len(prefix) || k[:len(prefix)] != prefix {
			continue
		}
		var st types.OrderState
		if err := decodeJSON(v, &st); err != nil {
			panic(err)
		}
		orders = append(orders, types.Order{Side: side, Key: decodeOrderKey(side, quoteID, baseID, []byte(k)), State: st})
	}
	return orders
}

func (s *MemChainState) BidCursor(quoteID, baseID fixed.AssetID) *Cursor {
	return newBidCursor(s.snapshotOrders(types.Bid, quoteID, baseID))
}

func (s *MemChainState) AskCursor(quoteID, baseID fixed.AssetID) *Cursor {
	return newAskCursor(s.snapshotOrders(types.Ask, quoteID, baseID))
}

var _ ChainState = (*MemChainState)(nil)
