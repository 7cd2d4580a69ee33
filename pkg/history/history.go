// Package history implements the per-block, per-hour, per-day OHLC and
// volume roll-up written after a market's successful execution.
package history

import (
	"github.com/hyperclear/matchengine/pkg/fixed"
	"github.com/hyperclear/matchengine/pkg/storage"
	"github.com/hyperclear/matchengine/pkg/types"
)

const (
	secondsPerHour = 60 * 60
	secondsPerDay  = 60 * 60 * 24
)

// Update rolls one block's matching results into the three history
// granularities. It is a no-op when volume is zero: only blocks that
// actually matched something leave a history trace.
func Update(state storage.ChainState, quoteID, baseID types.AssetID, blockTimestamp, volume int64, highest, lowest, opening, closing fixed.Price) {
	if volume <= 0 {
		return
	}

	newRecord := types.MarketHistoryRecord{
		HighestBid:   highest,
		LowestAsk:    lowest,
		OpeningPrice: opening,
		ClosingPrice: closing,
		VolumeShares: volume,
	}

	blockKey := types.MarketHistoryKey{QuoteID: quoteID, BaseID: baseID, Granularity: types.EachBlock, Timestamp: blockTimestamp}
	// Dedup: don't clobber an already-written record for this exact
	// block timestamp (a replay of the same block, in practice).
	if _, exists := state.GetHistoryRecord(blockKey); !exists {
		state.StoreHistoryRecord(blockKey, newRecord)
	}

	mergeBucket(state, types.MarketHistoryKey{
		QuoteID: quoteID, BaseID: baseID,
		Granularity: types.EachHour,
		Timestamp:   floorTo(blockTimestamp, secondsPerHour),
	}, newRecord)

	mergeBucket(state, types.MarketHistoryKey{
		QuoteID: quoteID, BaseID: baseID,
		Granularity: types.EachDay,
		Timestamp:   floorTo(blockTimestamp, secondsPerDay),
	}, newRecord)
}

// mergeBucket adds newRecord's volume into whatever bucket key already
// holds, overwrites its closing price, and widens the high/low extrema,
// or inserts newRecord as-is if the bucket is empty. Opening price is
// never touched once a bucket exists: it stays the first trade's price.
func mergeBucket(state storage.ChainState, key types.MarketHistoryKey, newRecord types.MarketHistoryRecord) {
	old, exists := state.GetHistoryRecord(key)
	if !exists {
		state.StoreHistoryRecord(key, newRecord)
		return
	}

	old.VolumeShares += newRecord.VolumeShares
	old.ClosingPrice = newRecord.ClosingPrice
	old.HighestBid = maxPrice(old.HighestBid, newRecord.HighestBid)
	old.LowestAsk = minPrice(old.LowestAsk, newRecord.LowestAsk)
	state.StoreHistoryRecord(key, old)
}

func maxPrice(a, b fixed.Price) fixed.Price {
	if a.Less(b) {
		return b
	}
	return a
}

func minPrice(a, b fixed.Price) fixed.Price {
	if b.Less(a) {
		return b
	}
	return a
}

func floorTo(timestamp, bucket int64) int64 {
	return timestamp - (timestamp % bucket)
}
