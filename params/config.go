package params

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Engine holds the tunables the matching loop itself depends on.
type Engine struct {
	// MaxMarketFeeRate is reported in the startup log only. It is not
	// passed to the engine: settlement always divides issuer fee rates by
	// the constant types.MaxMarketFeeRate, whatever this field holds.
	MaxMarketFeeRate int64
	// Parallelism caps RunBlock's concurrent per-market workers; 0 means
	// unbounded (one goroutine per market in the block).
	Parallelism int
}

// Store holds where the committed chain state lives on disk.
type Store struct {
	PebbleDir string
}

// Telemetry holds the operator-facing metrics endpoint configuration.
type Telemetry struct {
	MetricsAddr string
}

type Config struct {
	Engine    Engine
	Store     Store
	Telemetry Telemetry
}

func Default() Config {
	return Config{
		Engine: Engine{
			MaxMarketFeeRate: 10000,
			Parallelism:      0,
		},
		Store: Store{
			PebbleDir: "./data/matchengine",
		},
		Telemetry: Telemetry{
			MetricsAddr: ":9090",
		},
	}
}

// LoadFromEnv loads configuration from .env file (if exists) and environment
// variables. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	// Try to load .env file (optional - won't fail if not exists)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load() // loads .env from current directory
	}

	if rate := os.Getenv("ENGINE_MAX_MARKET_FEE_RATE"); rate != "" {
		if v, err := strconv.ParseInt(rate, 10, 64); err == nil {
			cfg.Engine.MaxMarketFeeRate = v
		}
	}
	if parallelism := os.Getenv("ENGINE_PARALLELISM"); parallelism != "" {
		if v, err := strconv.Atoi(parallelism); err == nil {
			cfg.Engine.Parallelism = v
		}
	}
	if dir := os.Getenv("STORE_PEBBLE_DIR"); dir != "" {
		cfg.Store.PebbleDir = dir
	}
	if addr := os.Getenv("TELEMETRY_METRICS_ADDR"); addr != "" {
		cfg.Telemetry.MetricsAddr = addr
	}

	return cfg
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
