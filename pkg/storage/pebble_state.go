package storage

import (
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/hyperclear/matchengine/pkg/fixed"
	"github.com/hyperclear/matchengine/pkg/types"
	"github.com/hyperclear/matchengine/pkg/util"
)

// PebbleChainState is the production ChainState, backed by a
// cockroachdb/pebble ordered key-value store standing in for the chain
// database at the ordered-iteration boundary this engine actually needs.
type PebbleChainState struct {
	db    *pebble.DB
	Clock util.Clock
}

// NewPebbleChainState opens (creating if absent) a pebble store at path.
func NewPebbleChainState(path string) (*PebbleChainState, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, errors.Wrap(err, "open pebble store")
	}
	return &PebbleChainState{db: db, Clock: util.RealClock{}}, nil
}

func (s *PebbleChainState) Close() error { return s.db.Close() }

func (s *PebbleChainState) get(key []byte, v any) bool {
	val, closer, err := s.db.Get(key)
	if err != nil {
		if err == pebble.ErrNotFound {
			return false
		}
		panic(errors.Wrapf(err, "get key %x", key))
	}
	defer closer.Close()
	if err := decodeJSON(val, v); err != nil {
		panic(errors.Wrapf(err, "decode key %x", key))
	}
	return true
}

func (s *PebbleChainState) set(key []byte, v any) {
	if err := s.db.Set(key, encodeJSON(v), pebble.Sync); err != nil {
		panic(errors.Wrapf(err, "set key %x", key))
	}
}

func (s *PebbleChainState) GetAssetRecord(id fixed.AssetID) (types.AssetRecord, bool) {
	var rec types.AssetRecord
	ok := s.get(assetKey(id), &rec)
	return rec, ok
}

func (s *PebbleChainState) StoreAssetRecord(rec types.AssetRecord) {
	s.set(assetKey(rec.AssetID), rec)
}

func (s *PebbleChainState) GetBalanceRecord(owner common.Address, assetID fixed.AssetID) (types.BalanceRecord, bool) {
	var rec types.BalanceRecord
	ok := s.get(balanceKey(owner, assetID), &rec)
	return rec, ok
}

func (s *PebbleChainState) StoreBalanceRecord(rec types.BalanceRecord) {
	s.set(balanceKey(rec.Owner, rec.AssetID), rec)
}

func (s *PebbleChainState) GetMarketStatus(quoteID, baseID fixed.AssetID) (types.MarketStatus, bool) {
	var rec types.MarketStatus
	ok := s.get(marketStatusKey(quoteID, baseID), &rec)
	return rec, ok
}

func (s *PebbleChainState) StoreMarketStatus(status types.MarketStatus) {
	s.set(marketStatusKey(status.QuoteID, status.BaseID), status)
}

func (s *PebbleChainState) GetOrder(side types.Side, key types.MarketIndexKey) (types.OrderState, bool) {
	var st types.OrderState
	ok := s.get(orderKey(side, key), &st)
	return st, ok
}

func (s *PebbleChainState) StoreOrder(side types.Side, key types.MarketIndexKey, state types.OrderState) {
	s.set(orderKey(side, key), state)
}

func (s *PebbleChainState) DeleteOrder(side types.Side, key types.MarketIndexKey) {
	if err := s.db.Delete(orderKey(side, key), pebble.Sync); err != nil {
		panic(errors.Wrapf(err, "delete order %v", key))
	}
}

func (s *PebbleChainState) GetHistoryRecord(key types.MarketHistoryKey) (types.MarketHistoryRecord, bool) {
	var rec types.MarketHistoryRecord
	ok := s.get(historyKey(key), &rec)
	return rec, ok
}

func (s *PebbleChainState) StoreHistoryRecord(key types.MarketHistoryKey, rec types.MarketHistoryRecord) {
	s.set(historyKey(key), rec)
}

func (s *PebbleChainState) Now() time.Time { return s.Clock.Now() }

func (s *PebbleChainState) snapshotOrders(side types.Side, quoteID, baseID fixed.AssetID) []types.Order {
	lower := marketKeyPrefix(side, quoteID, baseID)
	upper := marketUpperBound(side, quoteID, baseID)
	it, err := s.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		panic(errors.Wrap(err, "open order iterator"))
	}
	defer it.Close()

	var orders []types.Order
	for it.First(); it.Valid(); it.Next() {
		var st types.OrderState
		if err := decodeJSON(it.Value(), &st); err != nil {
			panic(errors.Wrap(err, "decode order"))
		}
		key := append([]byte(nil), it.Key()...)
		orders = append(orders, types.Order{Side: side, Key: decodeOrderKey(side, quoteID, baseID, key), State: st})
	}
	return orders
}

func (s *PebbleChainState) BidCursor(quoteID, baseID fixed.AssetID) *Cursor {
	return newBidCursor(s.snapshotOrders(types.Bid, quoteID, baseID))
}

func (s *PebbleChainState) AskCursor(quoteID, baseID fixed.AssetID) *Cursor {
	return newAskCursor(s.snapshotOrders(types.Ask, quoteID, baseID))
}

var _ ChainState = (*PebbleChainState)(nil)
