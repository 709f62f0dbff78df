package cli

import (
	"github.com/rs/zerolog"

	"B3Sentinel/internal/cache"
	"B3Sentinel/internal/collector"
	"B3Sentinel/internal/config"
	"B3Sentinel/internal/pipeline"
)

// buildProviders wires live or demo providers. Live providers sit behind the
// snapshot cache when a cache path is configured. The returned store must be closed.
func buildProviders(cfg *config.Config, log zerolog.Logger) (pipeline.Providers, cache.Store) {
	if cfg.Providers.Offline {
		log.Info().Msg("offline mode: using demo data")
		return pipeline.Providers{
			Equities: &collector.MockFundamentals{Label: "demo-equities", Table: collector.DemoEquities()},
			Funds:    &collector.MockFundamentals{Label: "demo-funds", Table: collector.DemoFunds()},
			History:  &collector.MockHistory{Generate: true},
			Quotes:   &collector.MockQuotes{Quotes: collector.DemoQuotes()},
		}, cache.NewNoopStore()
	}

	var store cache.Store = cache.NewNoopStore()
	if cfg.Cache.SQLitePath != "" {
		s, err := cache.NewSQLiteStore(cfg.Cache.SQLitePath, log)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite cache failed, using noop")
		} else {
			store = s
		}
	}

	history := collector.NewYahooHistory(cfg.Providers, log)
	cachedHistory := cache.NewHistory(history, store, cfg.Cache.TTL, log)
	return pipeline.Providers{
		Equities: cache.NewFundamentals(collector.NewFundamentusEquities(cfg.Providers, log), store, cfg.Cache.TTL, log),
		Funds:    cache.NewFundamentals(collector.NewFundamentusFunds(cfg.Providers, log), store, cfg.Cache.TTL, log),
		History:  cachedHistory,
		// quotes must be current; only their history fallback goes through the cache
		Quotes: collector.NewYahooQuotes(cfg.Providers, cachedHistory, log),
	}, store
}
