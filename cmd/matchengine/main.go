package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hyperclear/matchengine/params"
	"github.com/hyperclear/matchengine/pkg/addressutil"
	"github.com/hyperclear/matchengine/pkg/engine"
	"github.com/hyperclear/matchengine/pkg/fixed"
	"github.com/hyperclear/matchengine/pkg/storage"
	"github.com/hyperclear/matchengine/pkg/types"
	"github.com/hyperclear/matchengine/pkg/util"
)

// seedDemoMarket stores two assets (a native asset 0 and quote asset 1)
// and one resting bid and one resting ask so the very first block has something
// to match, purely so an operator running this binary cold sees trades
// land instead of an empty book.
func seedDemoMarket(state *storage.PebbleChainState) {
	if _, ok := state.GetAssetRecord(0); ok {
		return // already seeded from a prior run
	}

	state.StoreAssetRecord(types.AssetRecord{AssetID: 0, MarketFeeRate: 0})
	state.StoreAssetRecord(types.AssetRecord{AssetID: 1, MarketFeeRate: 20})

	price := fixed.NewPrice(1, 0, 2, 1) // 2 quote per base
	bidder := common.HexToAddress("0x1111111111111111111111111111111111111111")
	asker := common.HexToAddress("0x2222222222222222222222222222222222222222")

	state.StoreOrder(types.Bid, types.MarketIndexKey{Price: price, Owner: bidder}, types.OrderState{Balance: 2000})
	state.StoreOrder(types.Ask, types.MarketIndexKey{Price: price, Owner: asker}, types.OrderState{Balance: 500})
}

// logTransactions records every matched trade for a market in the
// checksummed hex form operator logs and block explorers expect.
func logTransactions(sugar interface{ Infow(string, ...interface{}) }, height int64, runID string, quoteID, baseID fixed.AssetID, txs []types.MarketTransaction) {
	for _, tx := range txs {
		sugar.Infow("trade_matched",
			"height", height,
			"run_id", runID,
			"quote_id", quoteID,
			"base_id", baseID,
			"bid_owner", addressutil.Checksum(tx.BidOwner),
			"ask_owner", addressutil.Checksum(tx.AskOwner),
			"base_traded", tx.BidReceived,
			"quote_fees", tx.QuoteFees,
			"base_fees", tx.BaseFees)
	}
}

func main() {
	cfg := params.LoadFromEnv("")

	logger, err := util.NewLoggerWithFile(getEnvOr("LOG_FILE", "data/matchengine.log"))
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("config_loaded",
		"pebble_dir", cfg.Store.PebbleDir,
		"max_market_fee_rate", cfg.Engine.MaxMarketFeeRate,
		"parallelism", cfg.Engine.Parallelism,
		"metrics_addr", cfg.Telemetry.MetricsAddr)

	state, err := storage.NewPebbleChainState(cfg.Store.PebbleDir)
	if err != nil {
		sugar.Fatalw("pebble_open_failed", "err", err)
	}
	defer state.Close()

	seedDemoMarket(state)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		sugar.Infow("metrics_server_starting", "addr", cfg.Telemetry.MetricsAddr)
		if err := http.ListenAndServe(cfg.Telemetry.MetricsAddr, mux); err != nil && err != http.ErrServerClosed {
			sugar.Errorw("metrics_server_failed", "err", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	markets := []engine.MarketPair{{QuoteID: 1, BaseID: 0}}

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	var height int64
	for {
		select {
		case <-ctx.Done():
			sugar.Info("shutting_down")
			return
		case <-ticker.C:
			height++
			blockTimestamp := time.Now().Unix()
			results, err := engine.RunBlock(ctx, state, markets, blockTimestamp, cfg.Engine.Parallelism)
			if err != nil {
				sugar.Errorw("run_block_failed", "height", height, "err", err)
				continue
			}
			var runID string
			for _, r := range results {
				runID = r.RunID
				if !r.OK {
					sugar.Warnw("market_execute_failed", "height", height, "quote_id", r.Market.QuoteID, "base_id", r.Market.BaseID)
					continue
				}
				logTransactions(sugar, height, r.RunID, r.Market.QuoteID, r.Market.BaseID, r.Transactions)
			}
			sugar.Infow("block_executed", "height", height, "run_id", runID, "markets", len(results))
		}
	}
}

func getEnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
