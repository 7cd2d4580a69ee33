package engine

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hyperclear/matchengine/pkg/fixed"
	"github.com/hyperclear/matchengine/pkg/storage"
	"github.com/hyperclear/matchengine/pkg/types"
)

// MarketPair names one (quote, base) market to clear within a block.
type MarketPair struct {
	QuoteID fixed.AssetID
	BaseID  fixed.AssetID
}

// Result is one market's outcome from a RunBlock call. RunID tags every
// Result produced by the same RunBlock call with a shared identifier, so
// operator logs and dashboards can correlate results belonging to one
// block even though markets clear on independent goroutines.
type Result struct {
	Market       MarketPair
	OK           bool
	RunID        string
	Transactions []types.MarketTransaction
}

// RunBlock drives Execute across every market a block touched. Each
// market gets its own Engine over its own overlay. Overlays never
// share mutable state, so independent markets can clear concurrently up
// to parallelism workers; their per-market transaction order is
// unaffected since ordering is only a within-market consensus
// requirement. parallelism <= 0 runs every market on its own goroutine
// (errgroup's default, unbounded).
//
// committed's StoreX/DeleteX methods are called concurrently by
// separate markets' overlay commits, so only a committed store safe for
// concurrent writes may back this. storage.PebbleChainState qualifies
// (pebble.DB itself is concurrency-safe); storage.MemChainState's plain
// maps are not and are test-only, so exercise RunBlock against it with
// parallelism == 1.
func RunBlock(ctx context.Context, committed storage.ChainState, markets []MarketPair, blockTimestamp int64, parallelism int) ([]Result, error) {
	results := make([]Result, len(markets))
	runID := uuid.New().String()

	g, ctx := errgroup.WithContext(ctx)
	if parallelism > 0 {
		g.SetLimit(parallelism)
	}

	for i, market := range markets {
		i, market := i, market
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			e := New(committed)
			ok := e.Execute(market.QuoteID, market.BaseID, blockTimestamp)
			results[i] = Result{Market: market, OK: ok, RunID: runID, Transactions: e.Transactions}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
