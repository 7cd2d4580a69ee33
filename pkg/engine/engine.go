// Package engine implements the block-scoped match loop driver: pairing
// the resting bid and ask at the top of one market's book, sizing and
// settling each match, and rolling the results into per-asset fees,
// trading volume, and price history.
package engine

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/hyperclear/matchengine/pkg/fixed"
	"github.com/hyperclear/matchengine/pkg/history"
	"github.com/hyperclear/matchengine/pkg/settlement"
	"github.com/hyperclear/matchengine/pkg/storage"
	"github.com/hyperclear/matchengine/pkg/telemetry"
	"github.com/hyperclear/matchengine/pkg/types"
)

// passCount is the number of reserved match-loop pass slots. Only
// processAskOrdersPass carries behavior; margin calls and expired covers
// are out of scope, so those slots run as true no-ops: they never touch
// either cursor, which is behaviorally identical to fetching nothing and
// exiting immediately.
const (
	passCount            = 3
	processAskOrdersPass = 2
)

// Engine drives one market's matching for one block. It owns the
// pending overlay for the duration of Execute and the transactions
// produced by the most recent call.
type Engine struct {
	prior        storage.ChainState
	Transactions []types.MarketTransaction
}

// New builds an Engine over committed, the parent state Execute writes
// failure markers to directly (bypassing whatever pending overlay it
// builds internally per call).
func New(committed storage.ChainState) *Engine {
	return &Engine{prior: committed}
}

// Execute matches (quoteID, baseID) for one block timestamped
// blockTimestamp. On success it returns true and committed now reflects
// every match; on failure it returns false, discards all pending work,
// and has stored a MarketStatus carrying the error directly against
// committed.
func (e *Engine) Execute(quoteID, baseID fixed.AssetID, blockTimestamp int64) (ok bool) {
	e.Transactions = nil
	overlay := storage.NewOverlay(e.prior)

	quoteLabel, baseLabel := strconv.FormatUint(uint64(quoteID), 10), strconv.FormatUint(uint64(baseID), 10)

	var runErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				if err, isErr := r.(error); isErr {
					runErr = newError(StorageError, err)
				} else {
					runErr = newErrorf(StorageError, "%v", r)
				}
			}
		}()
		runErr = e.execute(overlay, quoteID, baseID, blockTimestamp, quoteLabel, baseLabel)
	}()

	if runErr != nil {
		e.recordFailure(quoteID, baseID, runErr)
		kind := "unknown"
		if engErr, ok := runErr.(*Error); ok {
			kind = string(engErr.Kind)
			if engErr.Kind == MatchingLoopStuck {
				telemetry.MatchingLoopAborts.WithLabelValues(quoteLabel, baseLabel).Inc()
			}
		}
		telemetry.ExecuteFailures.WithLabelValues(quoteLabel, baseLabel, kind).Inc()
		return false
	}

	telemetry.TradesMatched.WithLabelValues(quoteLabel, baseLabel).Add(float64(len(e.Transactions)))
	return true
}

func (e *Engine) recordFailure(quoteID, baseID fixed.AssetID, err error) {
	status, ok := e.prior.GetMarketStatus(quoteID, baseID)
	if !ok {
		status = types.MarketStatus{QuoteID: quoteID, BaseID: baseID}
	}
	msg := err.Error()
	status.LastError = &msg
	e.prior.StoreMarketStatus(status)
}

func (e *Engine) execute(overlay *storage.Overlay, quoteID, baseID fixed.AssetID, blockTimestamp int64, quoteLabel, baseLabel string) error {
	quoteAsset, ok := overlay.GetAssetRecord(quoteID)
	if !ok {
		return newErrorf(InvalidMarket, "quote asset %d not found", quoteID)
	}
	baseAsset, ok := overlay.GetAssetRecord(baseID)
	if !ok {
		return newErrorf(InvalidMarket, "base asset %d not found", baseID)
	}
	if quoteAsset.HaltedMarkets() {
		return newErrorf(InvalidMarket, "quote asset %d markets halted", quoteID)
	}
	if baseAsset.HaltedMarkets() {
		return newErrorf(InvalidMarket, "base asset %d markets halted", baseID)
	}

	bidCur := overlay.BidCursor(quoteID, baseID)
	askCur := overlay.AskCursor(quoteID, baseID)

	var currentBid, currentAsk types.Order
	bidValid, askValid := false, false
	ordersFilled, lastOrdersFilled := 0, -1

	var tradingVolume int64
	var openingPrice, closingPrice, highestPrice, lowestPrice fixed.Price

	for pass := 0; pass < passCount; pass++ {
		if pass != processAskOrdersPass {
			continue
		}
		askValid = false
		for {
			if !bidValid || currentBid.State.Balance <= 0 {
				currentBid, bidValid = nextOrder(bidCur)
				ordersFilled++
				if !bidValid {
					break
				}
			}
			if !askValid || currentAsk.State.Balance <= 0 {
				currentAsk, askValid = nextOrder(askCur)
				ordersFilled++
				if !askValid {
					break
				}
			}

			if ordersFilled == lastOrdersFilled {
				return newErrorf(MatchingLoopStuck, "no progress matching %d/%d", quoteID, baseID)
			}
			lastOrdersFilled = ordersFilled

			if currentBid.Price().Less(currentAsk.Price()) {
				break
			}

			mtrx := types.MarketTransaction{
				BidOwner: currentBid.Owner(),
				AskOwner: currentAsk.Owner(),
				BidPrice: currentBid.Price(),
				AskPrice: currentAsk.Price(),
				BidType:  types.Bid,
				AskType:  types.Ask,
			}
			sizeTrade(&mtrx, currentBid, currentAsk)

			if err := settlement.Settle(overlay, &mtrx, &currentBid, &currentAsk, &quoteAsset, &baseAsset); err != nil {
				return newError(InvariantViolation, err)
			}

			if err := validateTransaction(mtrx); err != nil {
				return newError(InvariantViolation, err)
			}

			e.Transactions = append(e.Transactions, mtrx)

			quoteAsset.CollectedFees += mtrx.QuoteFees
			baseAsset.CollectedFees += mtrx.BaseFees

			if mtrx.QuoteFees > 0 {
				telemetry.FeesCollected.WithLabelValues(quoteLabel, baseLabel, "quote").Add(float64(mtrx.QuoteFees))
			}
			if mtrx.BaseFees > 0 {
				telemetry.FeesCollected.WithLabelValues(quoteLabel, baseLabel, "base").Add(float64(mtrx.BaseFees))
			}

			// Trading volume is tracked in whichever leg is denominated
			// in the native asset (id 0), checking the ask-received leg
			// before the bid-received leg.
			if quoteID == 0 {
				tradingVolume += mtrx.AskReceived
			} else if baseID == 0 {
				tradingVolume += mtrx.BidReceived
			}

			if openingPrice.IsZero() {
				openingPrice = mtrx.BidPrice
			}
			closingPrice = mtrx.BidPrice
			// Only prices of matched orders feed market history. Highest
			// and opening/closing all track bid price; lowest tracks ask
			// price. This asymmetry is intentional, not a bug: it is not
			// symmetrized.
			if highestPrice.IsZero() || highestPrice.Less(mtrx.BidPrice) {
				highestPrice = mtrx.BidPrice
			}
			if lowestPrice.IsZero() || lowestPrice.Greater(mtrx.AskPrice) {
				lowestPrice = mtrx.AskPrice
			}
		}
	}

	overlay.StoreAssetRecord(quoteAsset)
	overlay.StoreAssetRecord(baseAsset)

	status, ok := overlay.GetMarketStatus(quoteID, baseID)
	if !ok {
		status = types.MarketStatus{QuoteID: quoteID, BaseID: baseID}
	}
	status.LastError = nil
	overlay.StoreMarketStatus(status)

	history.Update(overlay, quoteID, baseID, blockTimestamp, tradingVolume, highestPrice, lowestPrice, openingPrice, closingPrice)

	overlay.ApplyChanges()
	return nil
}

// validateTransaction checks the amount invariants every non-auto-cancel
// match must satisfy: all six amounts non-negative, fee totals
// non-negative, and each side's paid amount at least covers what the
// other side received (the difference is the issuer fee plus any
// overlap wedge, which can never be negative). A violation here means
// sizeTrade or settlement computed an impossible transaction, and the
// whole market fails rather than persisting it.
func validateTransaction(mtrx types.MarketTransaction) error {
	if mtrx.IsAutoCancel() {
		return nil
	}
	switch {
	case mtrx.BidPaid < 0, mtrx.AskPaid < 0, mtrx.BidReceived < 0, mtrx.AskReceived < 0:
		return errors.Errorf("negative transaction amount: %+v", mtrx)
	case mtrx.QuoteFees < 0, mtrx.BaseFees < 0:
		return errors.Errorf("negative fee total: %+v", mtrx)
	case mtrx.BidPaid < mtrx.AskReceived:
		return errors.Errorf("bid_paid %d less than ask_received %d", mtrx.BidPaid, mtrx.AskReceived)
	case mtrx.AskPaid < mtrx.BidReceived:
		return errors.Errorf("ask_paid %d less than bid_received %d", mtrx.AskPaid, mtrx.BidReceived)
	}
	return nil
}

func nextOrder(cur *storage.Cursor) (types.Order, bool) {
	if !cur.Valid() {
		return types.Order{}, false
	}
	ord := cur.Order()
	cur.Advance()
	return ord, true
}
