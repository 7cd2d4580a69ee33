package engine

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/hyperclear/matchengine/pkg/fixed"
	"github.com/hyperclear/matchengine/pkg/storage"
	"github.com/hyperclear/matchengine/pkg/types"
)

var (
	ownerA = common.HexToAddress("0xa")
	ownerB = common.HexToAddress("0xb")
)

func seedMarket(t *testing.T, state *storage.MemChainState, quoteFeeRate, baseFeeRate int64) {
	t.Helper()
	state.StoreAssetRecord(types.AssetRecord{AssetID: 1, MarketFeeRate: quoteFeeRate})
	state.StoreAssetRecord(types.AssetRecord{AssetID: 0, MarketFeeRate: baseFeeRate})
}

func placeBid(state *storage.MemChainState, owner common.Address, price fixed.Price, quoteBalance int64) {
	state.StoreOrder(types.Bid, types.MarketIndexKey{Price: price, Owner: owner}, types.OrderState{Balance: quoteBalance})
}

func placeAsk(state *storage.MemChainState, owner common.Address, price fixed.Price, baseBalance int64) {
	state.StoreOrder(types.Ask, types.MarketIndexKey{Price: price, Owner: owner}, types.OrderState{Balance: baseBalance})
}

func TestExecuteEmptyBook(t *testing.T) {
	state := storage.NewMemChainState()
	seedMarket(t, state, 0, 0)

	e := New(state)
	if ok := e.Execute(1, 0, 1000); !ok {
		t.Fatal("Execute on an empty book must return true")
	}
	if len(e.Transactions) != 0 {
		t.Errorf("expected zero transactions, got %d", len(e.Transactions))
	}
	status, ok := state.GetMarketStatus(1, 0)
	if !ok {
		t.Fatal("expected a market status record")
	}
	if status.LastError != nil {
		t.Errorf("expected last_error nil, got %q", *status.LastError)
	}
}

func TestExecuteExactMatchNoFees(t *testing.T) {
	state := storage.NewMemChainState()
	seedMarket(t, state, 0, 0)
	price := fixed.NewPrice(1, 0, 2, 1)
	placeBid(state, ownerA, price, 200)
	placeAsk(state, ownerB, price, 100)

	e := New(state)
	if ok := e.Execute(1, 0, 1000); !ok {
		t.Fatal("Execute failed")
	}
	if len(e.Transactions) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(e.Transactions))
	}
	tx := e.Transactions[0]
	if tx.BidPaid != 200 || tx.BidReceived != 100 || tx.AskPaid != 100 || tx.AskReceived != 200 || tx.QuoteFees != 0 {
		t.Errorf("unexpected transaction: %+v", tx)
	}

	bidOrder, _ := state.GetOrder(types.Bid, types.MarketIndexKey{Price: price, Owner: ownerA})
	if bidOrder.Balance != 0 {
		t.Errorf("bid order balance = %d, want 0", bidOrder.Balance)
	}
	askOrder, _ := state.GetOrder(types.Ask, types.MarketIndexKey{Price: price, Owner: ownerB})
	if askOrder.Balance != 0 {
		t.Errorf("ask order balance = %d, want 0", askOrder.Balance)
	}
}

func TestExecutePriceOverlapWedge(t *testing.T) {
	state := storage.NewMemChainState()
	seedMarket(t, state, 0, 0)
	bidPrice := fixed.NewPrice(1, 0, 3, 1)
	askPrice := fixed.NewPrice(1, 0, 2, 1)
	placeBid(state, ownerA, bidPrice, 300)
	placeAsk(state, ownerB, askPrice, 100)

	e := New(state)
	if ok := e.Execute(1, 0, 1000); !ok {
		t.Fatal("Execute failed")
	}
	tx := e.Transactions[0]
	if tx.BidPaid != 300 || tx.AskReceived != 200 || tx.QuoteFees != 100 || tx.AskPaid != 100 || tx.BidReceived != 100 {
		t.Errorf("unexpected transaction: %+v", tx)
	}
	quoteAsset, _ := state.GetAssetRecord(1)
	if quoteAsset.CollectedFees != 100 {
		t.Errorf("quote collected_fees = %d, want 100", quoteAsset.CollectedFees)
	}
}

func TestExecutePartialFillWithDustSweep(t *testing.T) {
	state := storage.NewMemChainState()
	seedMarket(t, state, 0, 0)
	price := fixed.NewPrice(1, 0, 3, 2) // 1.5
	placeBid(state, ownerA, price, 10)
	placeAsk(state, ownerB, price, 100)

	e := New(state)
	if ok := e.Execute(1, 0, 1000); !ok {
		t.Fatal("Execute failed")
	}
	tx := e.Transactions[0]
	if tx.BidPaid != 10 {
		t.Errorf("bid_paid = %d, want 10 (fully swept)", tx.BidPaid)
	}
	if tx.AskReceived != 9 {
		t.Errorf("ask_received = %d, want 9", tx.AskReceived)
	}
	if tx.QuoteFees != 1 {
		t.Errorf("quote_fees = %d, want 1", tx.QuoteFees)
	}
	askOrder, _ := state.GetOrder(types.Ask, types.MarketIndexKey{Price: price, Owner: ownerB})
	if askOrder.Balance != 94 {
		t.Errorf("ask order remaining balance = %d, want 94", askOrder.Balance)
	}
}

func TestExecuteIssuerFee(t *testing.T) {
	state := storage.NewMemChainState()
	seedMarket(t, state, 0, types.MaxMarketFeeRate/100)
	price := fixed.NewPrice(1, 0, 2, 1)
	placeBid(state, ownerA, price, 200)
	placeAsk(state, ownerB, price, 100)

	e := New(state)
	if ok := e.Execute(1, 0, 1000); !ok {
		t.Fatal("Execute failed")
	}
	bidCredit, _ := state.GetBalanceRecord(ownerA, 0)
	if bidCredit.Shares != 99 {
		t.Errorf("bid owner base credit = %d, want 99", bidCredit.Shares)
	}
	askCredit, _ := state.GetBalanceRecord(ownerB, 1)
	if askCredit.Shares != 200 {
		t.Errorf("ask owner quote credit = %d, want 200", askCredit.Shares)
	}
	tx := e.Transactions[0]
	if tx.BaseFees != 1 || tx.QuoteFees != 0 {
		t.Errorf("unexpected fee split: base=%d quote=%d", tx.BaseFees, tx.QuoteFees)
	}
	baseAsset, _ := state.GetAssetRecord(0)
	if baseAsset.CollectedFees != 1 {
		t.Errorf("base collected_fees = %d, want 1", baseAsset.CollectedFees)
	}
}

func TestExecuteNoOverlap(t *testing.T) {
	state := storage.NewMemChainState()
	seedMarket(t, state, 0, 0)
	placeBid(state, ownerA, fixed.NewPrice(1, 0, 1, 1), 100)
	placeAsk(state, ownerB, fixed.NewPrice(1, 0, 2, 1), 100)

	e := New(state)
	if ok := e.Execute(1, 0, 1000); !ok {
		t.Fatal("Execute failed")
	}
	if len(e.Transactions) != 0 {
		t.Errorf("expected zero transactions when bid < ask, got %d", len(e.Transactions))
	}
	status, _ := state.GetMarketStatus(1, 0)
	if status.LastError != nil {
		t.Errorf("expected last_error nil, got %q", *status.LastError)
	}
}

func TestExecuteInvalidMarketMissingAsset(t *testing.T) {
	state := storage.NewMemChainState()
	state.StoreAssetRecord(types.AssetRecord{AssetID: 1})
	// base asset 0 never stored.

	e := New(state)
	if ok := e.Execute(1, 0, 1000); ok {
		t.Fatal("expected Execute to fail when base asset is missing")
	}
	status, ok := state.GetMarketStatus(1, 0)
	if !ok || status.LastError == nil {
		t.Fatal("expected a market status with last_error set")
	}
}

func TestExecuteHaltedMarketFails(t *testing.T) {
	state := storage.NewMemChainState()
	state.StoreAssetRecord(types.AssetRecord{AssetID: 1, Flags: types.FlagHaltedMarkets})
	state.StoreAssetRecord(types.AssetRecord{AssetID: 0})

	e := New(state)
	if ok := e.Execute(1, 0, 1000); ok {
		t.Fatal("expected Execute to fail when quote asset's markets are halted")
	}
}

// TestExecuteMultipleMatchesDrainBothSides exercises a resting book
// with more than one order per side so the match loop actually walks
// its cursors across iterations.
func TestExecuteMultipleMatchesDrainBothSides(t *testing.T) {
	state := storage.NewMemChainState()
	seedMarket(t, state, 0, 0)
	price := fixed.NewPrice(1, 0, 1, 1)
	ownerC := common.HexToAddress("0xc")
	ownerD := common.HexToAddress("0xd")

	placeBid(state, ownerA, price, 100)
	placeBid(state, ownerC, price, 50)
	placeAsk(state, ownerB, price, 80)
	placeAsk(state, ownerD, price, 70)

	e := New(state)
	if ok := e.Execute(1, 0, 1000); !ok {
		t.Fatal("Execute failed")
	}
	if len(e.Transactions) != 3 {
		t.Fatalf("expected 3 transactions (50+30+70 traded_base legs), got %d", len(e.Transactions))
	}

	history, ok := state.GetHistoryRecord(types.MarketHistoryKey{QuoteID: 1, BaseID: 0, Granularity: types.EachBlock, Timestamp: 1000})
	if !ok {
		t.Fatal("expected an each_block history record since volume > 0")
	}
	if history.VolumeShares != 150 {
		t.Errorf("history volume = %d, want 150 (native base asset traded)", history.VolumeShares)
	}
}

func TestValidateTransactionSkipsAutoCancel(t *testing.T) {
	if err := validateTransaction(types.MarketTransaction{}); err != nil {
		t.Fatalf("auto-cancel transaction must not be validated, got %v", err)
	}
}

func TestValidateTransactionRejectsNegativeAmount(t *testing.T) {
	mtrx := types.MarketTransaction{BidPaid: 10, AskReceived: -1, AskPaid: 10, BidReceived: 10}
	if err := validateTransaction(mtrx); err == nil {
		t.Fatal("expected a negative amount to fail validation")
	}
}

func TestValidateTransactionRejectsPaidLessThanReceived(t *testing.T) {
	mtrx := types.MarketTransaction{BidPaid: 5, AskReceived: 10, AskPaid: 10, BidReceived: 5}
	if err := validateTransaction(mtrx); err == nil {
		t.Fatal("expected bid_paid < ask_received to fail validation")
	}
}

func TestValidateTransactionAcceptsConsistentAmounts(t *testing.T) {
	mtrx := types.MarketTransaction{BidPaid: 200, AskReceived: 200, AskPaid: 100, BidReceived: 100, QuoteFees: 5, BaseFees: 0}
	if err := validateTransaction(mtrx); err != nil {
		t.Fatalf("expected consistent amounts to pass validation, got %v", err)
	}
}
