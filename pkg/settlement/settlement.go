// Package settlement implements the balance movements, whitelist
// assertions, issuer fee assessment, and dust sweeping a matched
// MarketTransaction triggers on both sides of a trade.
package settlement

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/hyperclear/matchengine/pkg/fixed"
	"github.com/hyperclear/matchengine/pkg/storage"
	"github.com/hyperclear/matchengine/pkg/types"
)

// Settle applies both sides of mtrx against state: it debits each
// order's resting balance, credits the counterparty, assesses the
// receiving asset's issuer fee, and sweeps any now-untradeable dust
// into mtrx's fee totals, and persists both orders' final state.
// mtrx's *_received and *_fees fields are adjusted in place by the
// issuer fee and dust steps. Settle does not touch quoteAsset's or
// baseAsset's CollectedFees itself; the caller accumulates
// mtrx.QuoteFees/mtrx.BaseFees into those once per transaction, since
// those totals also include the bid/ask overlap wedge that never
// passes through either settle step individually.
//
// Any error here is an invariant violation fatal to the market: a
// negative resting balance, a fee rate out of bounds, or a payee that
// fails the counterparty asset's whitelist.
// bid and ask are pointers because a settled order's balance must be
// visible to the caller's own copy immediately afterward. The engine
// checks the current bid/ask's remaining balance in place to decide
// whether to fetch a replacement before the next match.
func Settle(
	state storage.ChainState,
	mtrx *types.MarketTransaction,
	bid, ask *types.Order,
	quoteAsset, baseAsset *types.AssetRecord,
) error {
	if err := settleBid(state, mtrx, bid, baseAsset); err != nil {
		return errors.Wrap(err, "settle bid side")
	}
	if err := settleAsk(state, mtrx, ask, quoteAsset); err != nil {
		return errors.Wrap(err, "settle ask side")
	}
	return nil
}

// settleBid: the bid order pays quote and receives base.
func settleBid(state storage.ChainState, mtrx *types.MarketTransaction, bid *types.Order, baseAsset *types.AssetRecord) error {
	bid.State.Balance -= mtrx.BidPaid
	if bid.State.Balance < 0 {
		return errors.Errorf("bid order balance went negative: %d", bid.State.Balance)
	}

	if !baseAsset.Whitelist.Accepts(mtrx.BidOwner) {
		return errors.Errorf("bid owner %s not whitelisted for base asset %d", mtrx.BidOwner, baseAsset.AssetID)
	}

	issuerFee, err := marketFee(mtrx.BidReceived, baseAsset.MarketFeeRate)
	if err != nil {
		return errors.Wrap(err, "base asset")
	}
	mtrx.BaseFees += issuerFee
	mtrx.BidReceived -= issuerFee

	creditBalance(state, mtrx.BidOwner, fixed.Amount{AssetID: baseAsset.AssetID, Shares: mtrx.BidReceived})

	// Dust sweep: if what remains of the bid's quote balance buys zero
	// units of base at its own limit price, it can never trade again.
	// Sweep it to the quote fee accumulator instead of leaving it stuck.
	if bid.Price().BaseFromQuote(bid.State.Balance) == 0 {
		mtrx.QuoteFees += bid.State.Balance
		bid.State.Balance = 0
	}

	state.StoreOrder(types.Bid, bid.Key, bid.State)
	return nil
}

// settleAsk: the ask order pays base and receives quote.
func settleAsk(state storage.ChainState, mtrx *types.MarketTransaction, ask *types.Order, quoteAsset *types.AssetRecord) error {
	ask.State.Balance -= mtrx.AskPaid
	if ask.State.Balance < 0 {
		return errors.Errorf("ask order balance went negative: %d", ask.State.Balance)
	}

	if !quoteAsset.Whitelist.Accepts(mtrx.AskOwner) {
		return errors.Errorf("ask owner %s not whitelisted for quote asset %d", mtrx.AskOwner, quoteAsset.AssetID)
	}

	issuerFee, err := marketFee(mtrx.AskReceived, quoteAsset.MarketFeeRate)
	if err != nil {
		return errors.Wrap(err, "quote asset")
	}
	mtrx.QuoteFees += issuerFee
	mtrx.AskReceived -= issuerFee

	creditBalance(state, mtrx.AskOwner, fixed.Amount{AssetID: quoteAsset.AssetID, Shares: mtrx.AskReceived})

	// Dust sweep: if what remains of the ask's base balance is worth
	// zero units of quote at its own limit price, sweep it to base fees.
	if ask.Price().MulBase(ask.State.Balance) == 0 {
		mtrx.BaseFees += ask.State.Balance
		ask.State.Balance = 0
	}

	state.StoreOrder(types.Ask, ask.Key, ask.State)
	return nil
}

func marketFee(received, feeRate int64) (int64, error) {
	if feeRate < 0 || feeRate > types.MaxMarketFeeRate {
		return 0, errors.Errorf("market_fee_rate %d out of bounds [0,%d]", feeRate, types.MaxMarketFeeRate)
	}
	if feeRate == 0 {
		return 0, nil
	}
	return received * feeRate / types.MaxMarketFeeRate, nil
}

// creditBalance looks up or creates the payee's balance record for
// credit.AssetID and adds credit.Shares to it, stamping
// last_update/deposit_date at the overlay's current time.
func creditBalance(state storage.ChainState, owner common.Address, credit fixed.Amount) {
	rec, ok := state.GetBalanceRecord(owner, credit.AssetID)
	if !ok {
		rec = types.BalanceRecord{Owner: owner, AssetID: credit.AssetID}
	}
	rec.Shares = credit.Add(rec.Shares).Shares
	now := state.Now().Unix()
	rec.LastUpdate = now
	rec.DepositDate = now
	state.StoreBalanceRecord(rec)
}
