package storage

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/hyperclear/matchengine/pkg/fixed"
	"github.com/hyperclear/matchengine/pkg/types"
)

func addr(b byte) common.Address {
	var a common.Address
	a[19] = b
	return a
}

func TestBidCursorOrdersHighestFirstAcrossDenominators(t *testing.T) {
	mem := NewMemChainState()
	// 3/2 = 1.5, 4/3 = 1.333..., 2/1 = 2.0, chosen so naive byte
	// comparison of the raw numerator would get the order wrong.
	mem.StoreOrder(types.Bid, types.MarketIndexKey{Price: fixed.NewPrice(1, 0, 3, 2), Owner: addr(1)}, types.OrderState{Balance: 10})
	mem.StoreOrder(types.Bid, types.MarketIndexKey{Price: fixed.NewPrice(1, 0, 4, 3), Owner: addr(2)}, types.OrderState{Balance: 10})
	mem.StoreOrder(types.Bid, types.MarketIndexKey{Price: fixed.NewPrice(1, 0, 2, 1), Owner: addr(3)}, types.OrderState{Balance: 10})

	cur := mem.BidCursor(1, 0)
	var seen []int64
	for cur.Valid() {
		o := cur.Order()
		seen = append(seen, o.Price().Num*int64(1000)/o.Price().Denom)
		cur.Advance()
	}
	want := []int64{2000, 1500, 1333}
	if len(seen) != len(want) {
		t.Fatalf("got %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("position %d: got %d, want %d", i, seen[i], want[i])
		}
	}
}

func TestOverlayShadowsParentUntilApplied(t *testing.T) {
	mem := NewMemChainState()
	mem.StoreAssetRecord(types.AssetRecord{AssetID: 1, MarketFeeRate: 0})

	ov := NewOverlay(mem)
	ov.StoreAssetRecord(types.AssetRecord{AssetID: 1, MarketFeeRate: 5})

	if rec, _ := mem.GetAssetRecord(1); rec.MarketFeeRate != 0 {
		t.Fatalf("parent must be unaffected before ApplyChanges, got %d", rec.MarketFeeRate)
	}
	if rec, _ := ov.GetAssetRecord(1); rec.MarketFeeRate != 5 {
		t.Fatalf("overlay must read back its own pending write, got %d", rec.MarketFeeRate)
	}

	ov.ApplyChanges()
	if rec, _ := mem.GetAssetRecord(1); rec.MarketFeeRate != 5 {
		t.Fatalf("ApplyChanges must merge into parent, got %d", rec.MarketFeeRate)
	}
}

func TestOverlayOrderDiffMergesWithParentSnapshot(t *testing.T) {
	mem := NewMemChainState()
	key1 := types.MarketIndexKey{Price: fixed.NewPrice(1, 0, 1, 1), Owner: addr(1)}
	key2 := types.MarketIndexKey{Price: fixed.NewPrice(1, 0, 2, 1), Owner: addr(2)}
	mem.StoreOrder(types.Ask, key1, types.OrderState{Balance: 10})
	mem.StoreOrder(types.Ask, key2, types.OrderState{Balance: 20})

	ov := NewOverlay(mem)
	ov.DeleteOrder(types.Ask, key1)
	key3 := types.MarketIndexKey{Price: fixed.NewPrice(1, 0, 1, 2), Owner: addr(3)}
	ov.StoreOrder(types.Ask, key3, types.OrderState{Balance: 5})

	cur := ov.AskCursor(1, 0)
	var owners []byte
	for cur.Valid() {
		owners = append(owners, cur.Order().Owner().Bytes()[19])
		cur.Advance()
	}
	want := []byte{3, 2} // key1 deleted, key3 (0.5) lowest, key2 (2.0) highest
	if len(owners) != len(want) || owners[0] != want[0] || owners[1] != want[1] {
		t.Fatalf("got owner sequence %v, want %v", owners, want)
	}
}
