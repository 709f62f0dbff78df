package cache

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"B3Sentinel/internal/collector"
	"B3Sentinel/internal/model"
)

// Fundamentals wraps a FundamentalsProvider with a snapshot cache. A fresh
// snapshot short-circuits the fetch; a stale one is served when the provider fails.
type Fundamentals struct {
	inner collector.FundamentalsProvider
	store Store
	ttl   time.Duration
	now   func() time.Time
	log   zerolog.Logger
}

// NewFundamentals wraps inner.
func NewFundamentals(inner collector.FundamentalsProvider, store Store, ttl time.Duration, log zerolog.Logger) *Fundamentals {
	return &Fundamentals{inner: inner, store: store, ttl: ttl, now: time.Now, log: log.With().Str("cache", inner.Name()).Logger()}
}

func (f *Fundamentals) Name() string { return f.inner.Name() }

func (f *Fundamentals) Fetch(ctx context.Context) (collector.RawTable, error) {
	key := f.inner.Name()
	cached, hit := f.load(ctx, key)
	if hit && f.now().Sub(cached.at) < f.ttl {
		f.log.Debug().Time("fetched_at", cached.at).Msg("serving cached table")
		return cached.table, nil
	}

	table, err := f.inner.Fetch(ctx)
	if err != nil {
		if hit {
			f.log.Warn().Err(err).Time("fetched_at", cached.at).Msg("provider failed, serving stale table")
			return cached.table, nil
		}
		return table, err
	}

	if blob, merr := msgpack.Marshal(table); merr == nil {
		if perr := f.store.Put(ctx, KindFundamentals, key, blob); perr != nil {
			f.log.Warn().Err(perr).Msg("cache write failed")
		}
	}
	return table, nil
}

type cachedTable struct {
	table collector.RawTable
	at    time.Time
}

func (f *Fundamentals) load(ctx context.Context, key string) (cachedTable, bool) {
	snap, ok, err := f.store.Get(ctx, KindFundamentals, key)
	if err != nil {
		f.log.Warn().Err(err).Msg("cache read failed")
		return cachedTable{}, false
	}
	if !ok {
		return cachedTable{}, false
	}
	var t collector.RawTable
	if err := msgpack.Unmarshal(snap.Payload, &t); err != nil {
		f.log.Warn().Err(err).Msg("corrupt cached table ignored")
		return cachedTable{}, false
	}
	return cachedTable{table: t, at: snap.FetchedAt}, true
}

// History wraps a HistoryProvider. Fresh symbols are served from the store and
// the rest are fetched in one batch call.
type History struct {
	inner collector.HistoryProvider
	store Store
	ttl   time.Duration
	now   func() time.Time
	log   zerolog.Logger
}

// NewHistory wraps inner.
func NewHistory(inner collector.HistoryProvider, store Store, ttl time.Duration, log zerolog.Logger) *History {
	return &History{inner: inner, store: store, ttl: ttl, now: time.Now, log: log.With().Str("cache", inner.Name()).Logger()}
}

func (h *History) Name() string { return h.inner.Name() }

func (h *History) History(ctx context.Context, tickers []string, lookback string) (map[string][]model.Bar, error) {
	out := make(map[string][]model.Bar, len(tickers))
	var missing []string
	for _, t := range tickers {
		snap, ok, err := h.store.Get(ctx, KindHistory, lookback+":"+t)
		if err != nil || !ok || h.now().Sub(snap.FetchedAt) >= h.ttl {
			missing = append(missing, t)
			continue
		}
		var bars []model.Bar
		if err := msgpack.Unmarshal(snap.Payload, &bars); err != nil {
			missing = append(missing, t)
			continue
		}
		out[t] = bars
	}
	h.log.Debug().Int("cached", len(out)).Int("missing", len(missing)).Msg("history lookup")
	if len(missing) == 0 {
		return out, nil
	}

	fetched, err := h.inner.History(ctx, missing, lookback)
	if err != nil {
		if len(out) > 0 {
			h.log.Warn().Err(err).Int("cached", len(out)).Msg("history fetch failed, serving cached symbols only")
			return out, nil
		}
		return out, err
	}
	for sym, bars := range fetched {
		out[sym] = bars
		if blob, merr := msgpack.Marshal(bars); merr == nil {
			if perr := h.store.Put(ctx, KindHistory, lookback+":"+sym, blob); perr != nil {
				h.log.Warn().Err(perr).Str("symbol", sym).Msg("cache write failed")
			}
		}
	}
	return out, nil
}
