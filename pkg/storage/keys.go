package storage

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"

	"github.com/hyperclear/matchengine/pkg/fixed"
	"github.com/hyperclear/matchengine/pkg/types"
)

// Key schema. Every order key is prefixed by a fixed-width (side,
// quoteID, baseID) header so a market's orders form one contiguous
// prefix range for scanning; the trailing price+owner bytes only need
// to be unique per order. Price order is produced at the Cursor layer
// with the exact rational comparator, not from byte order (see
// cursor.go): an order's price is an arbitrary-denominator rational,
// so no fixed-width byte encoding of it sorts the same as its numeric
// value across different denominators.
//
// Each key starts with one prefix byte:
//
//	'a' <assetid>                                     → AssetRecord
//	'b' <owner><assetid>                              → BalanceRecord
//	'm' <quoteid><baseid>                             → MarketStatus
//	'B' <quoteid><baseid><num><denom><owner>          → OrderState (bid)
//	'A' <quoteid><baseid><num><denom><owner>          → OrderState (ask)
//	'h' <quoteid><baseid><granularity><ts>            → MarketHistoryRecord
const (
	prefixAsset   = 'a'
	prefixBalance = 'b'
	prefixMarket  = 'm'
	prefixBid     = 'B'
	prefixAsk     = 'A'
	prefixHistory = 'h'
)

func putUint32(b []byte, v fixed.AssetID) { binary.BigEndian.PutUint32(b, uint32(v)) }

func putInt64(b []byte, v int64) { binary.BigEndian.PutUint64(b, uint64(v)) }

func assetKey(id fixed.AssetID) []byte {
	k := make([]byte, 1+4)
	k[0] = prefixAsset
	putUint32(k[1:], id)
	return k
}

func balanceKey(owner common.Address, assetID fixed.AssetID) []byte {
	k := make([]byte, 1+20+4)
	k[0] = prefixBalance
	copy(k[1:], owner[:])
	putUint32(k[21:], assetID)
	return k
}

func marketStatusKey(quoteID, baseID fixed.AssetID) []byte {
	k := make([]byte, 1+4+4)
	k[0] = prefixMarket
	putUint32(k[1:], quoteID)
	putUint32(k[5:], baseID)
	return k
}

func orderSidePrefix(side types.Side) byte {
	if side == types.Bid {
		return prefixBid
	}
	return prefixAsk
}

// marketKeyPrefix is the fixed-width (prefix, quoteID, baseID) header
// shared by every order key of one market and one side.
func marketKeyPrefix(side types.Side, quoteID, baseID fixed.AssetID) []byte {
	k := make([]byte, 1+4+4)
	k[0] = orderSidePrefix(side)
	putUint32(k[1:], quoteID)
	putUint32(k[5:], baseID)
	return k
}

// orderKey is the full ordered key of a resting order: the market
// header, then the price ratio, then the owner, matching
// MarketIndexKey's (price, owner) tuple from the data model.
func orderKey(side types.Side, key types.MarketIndexKey) []byte {
	k := marketKeyPrefix(side, key.Price.QuoteID, key.Price.BaseID)
	k = append(k, make([]byte, 8+8+20)...)
	putInt64(k[9:17], key.Price.Num)
	putInt64(k[17:25], key.Price.Denom)
	copy(k[25:], key.Owner[:])
	return k
}

// marketUpperBound returns the exclusive upper bound of every order key
// in (side, quoteID, baseID): the lower-bound key of the next market in
// key order, used as a pebble scan bound.
func marketUpperBound(side types.Side, quoteID, baseID fixed.AssetID) []byte {
	nextQuote, nextBase := quoteID, baseID+1
	if nextBase == quoteID {
		nextQuote, nextBase = quoteID+1, 0
	}
	return marketKeyPrefix(side, nextQuote, nextBase)
}

// decodeOrderKey reconstructs the (price, owner) index key from the raw
// storage bytes orderKey produced.
func decodeOrderKey(side types.Side, quoteID, baseID fixed.AssetID, key []byte) types.MarketIndexKey {
	num := int64(binary.BigEndian.Uint64(key[9:17]))
	denom := int64(binary.BigEndian.Uint64(key[17:25]))
	var owner common.Address
	copy(owner[:], key[25:45])
	return types.MarketIndexKey{
		Price: fixed.NewPrice(quoteID, baseID, num, denom),
		Owner: owner,
	}
}

// decodeOrderMarket reads the side and market out of a raw order key,
// the inverse of marketKeyPrefix's first nine bytes.
func decodeOrderMarket(key []byte) (side types.Side, quoteID, baseID fixed.AssetID) {
	if key[0] == prefixBid {
		side = types.Bid
	} else {
		side = types.Ask
	}
	quoteID = fixed.AssetID(binary.BigEndian.Uint32(key[1:5]))
	baseID = fixed.AssetID(binary.BigEndian.Uint32(key[5:9]))
	return side, quoteID, baseID
}

func historyKey(k types.MarketHistoryKey) []byte {
	key := make([]byte, 1+4+4+1+8)
	key[0] = prefixHistory
	putUint32(key[1:], k.QuoteID)
	putUint32(key[5:], k.BaseID)
	key[9] = byte(k.Granularity)
	binary.BigEndian.PutUint64(key[10:], uint64(k.Timestamp))
	return key
}
