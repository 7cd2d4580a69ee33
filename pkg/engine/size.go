package engine

import "github.com/hyperclear/matchengine/pkg/types"

// sizeTrade fills in the *_paid/*_received fields of mtrx for one match
// between bid and ask, given both sides already agreed to trade (their
// prices overlap). Both sides trade at their own limit price; the gap
// between what the bid pays and what the ask receives is the quote-fee
// overlap wedge.
func sizeTrade(mtrx *types.MarketTransaction, bid, ask types.Order) {
	bidQtyBase := bid.Price().BaseFromQuote(bid.State.Balance)
	askQtyBase := ask.State.Balance
	tradedBase := bidQtyBase
	if askQtyBase < tradedBase {
		tradedBase = askQtyBase
	}

	mtrx.AskReceived = ask.Price().MulBase(tradedBase)
	mtrx.BidPaid = bid.Price().MulBase(tradedBase)
	mtrx.AskPaid = tradedBase
	mtrx.BidReceived = tradedBase

	// Truncation residuals: a fully-consumed side sweeps whatever's left
	// of its resting balance rather than leaving untradeable dust behind.
	if tradedBase == bidQtyBase {
		mtrx.BidPaid = bid.State.Balance
	}
	if tradedBase == askQtyBase {
		mtrx.AskPaid = ask.State.Balance
	}

	mtrx.QuoteFees = mtrx.BidPaid - mtrx.AskReceived
}
