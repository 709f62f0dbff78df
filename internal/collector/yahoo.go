package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wnjoon/go-yfinance/pkg/models"
	"github.com/wnjoon/go-yfinance/pkg/multi"
	"github.com/wnjoon/go-yfinance/pkg/ticker"

	"B3Sentinel/internal/config"
	"B3Sentinel/internal/model"
)

// downloadFunc fetches daily bars for symbols. Per-symbol failures are reported in the error map.
type downloadFunc func(symbols []string, period string) (map[string][]model.Bar, map[string]error, error)

// infoFunc fetches the quote snapshot of one symbol.
type infoFunc func(symbol string) (yahooInfo, error)

type yahooInfo struct {
	CurrentPrice  float64
	PreviousClose float64
	DividendYield float64
	QuoteType     string
	Industry      string
}

func yfDownload(symbols []string, period string) (map[string][]model.Bar, map[string]error, error) {
	params := models.DefaultDownloadParams()
	params.Symbols = symbols
	params.Period = period
	params.Interval = "1d"

	result, err := multi.Download(symbols, &params)
	if err != nil {
		return nil, nil, fmt.Errorf("download history: %w", err)
	}

	data := make(map[string][]model.Bar, len(result.Data))
	for sym, bars := range result.Data {
		out := make([]model.Bar, 0, len(bars))
		for _, b := range bars {
			out = append(out, model.Bar{Date: b.Date, Close: b.Close})
		}
		data[sym] = out
	}
	errs := make(map[string]error, len(result.Errors))
	for sym, e := range result.Errors {
		errs[sym] = e
	}
	return data, errs, nil
}

func yfInfo(symbol string) (yahooInfo, error) {
	t, err := ticker.New(symbol)
	if err != nil {
		return yahooInfo{}, fmt.Errorf("create ticker: %w", err)
	}
	defer t.Close()

	info, err := t.Info()
	if err != nil {
		return yahooInfo{}, fmt.Errorf("get info: %w", err)
	}
	if info == nil {
		return yahooInfo{}, errors.New("empty info")
	}
	return yahooInfo{
		CurrentPrice:  info.CurrentPrice,
		PreviousClose: info.RegularMarketPreviousClose,
		DividendYield: info.DividendYield,
		QuoteType:     info.QuoteType,
		Industry:      info.Industry,
	}, nil
}

// YahooHistory implements HistoryProvider with one batch download per call.
type YahooHistory struct {
	download downloadFunc
	timeout  time.Duration
	retry    RetryConfig
	log      zerolog.Logger
}

// NewYahooHistory creates the batch history provider.
func NewYahooHistory(cfg config.ProvidersConfig, log zerolog.Logger) *YahooHistory {
	retry := DefaultRetryConfig()
	retry.Retries = cfg.Retries
	return &YahooHistory{
		download: yfDownload,
		timeout:  cfg.Timeout,
		retry:    retry,
		log:      log.With().Str("provider", "yahoo-history").Logger(),
	}
}

func (y *YahooHistory) Name() string { return "yahoo-history" }

// History downloads daily closes for all tickers. A single requested ticker
// returned under a different key is re-keyed to the requested symbol.
func (y *YahooHistory) History(ctx context.Context, tickers []string, lookback string) (map[string][]model.Bar, error) {
	if len(tickers) == 0 {
		return map[string][]model.Bar{}, nil
	}
	if y.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, y.timeout)
		defer cancel()
	}

	var data map[string][]model.Bar
	err := WithRetry(ctx, y.retry, func() error {
		type batch struct {
			data map[string][]model.Bar
			errs map[string]error
		}
		b, err := runWithContext(ctx, func() (batch, error) {
			d, e, err := y.download(tickers, lookback)
			return batch{d, e}, err
		})
		if err != nil {
			return err
		}
		for sym, e := range b.errs {
			y.log.Debug().Err(e).Str("symbol", sym).Msg("no history for symbol")
		}
		data = b.data
		return nil
	})
	if err != nil {
		y.log.Warn().Err(err).Int("symbols", len(tickers)).Msg("history download failed")
		return map[string][]model.Bar{}, err
	}
	return rekeySingle(tickers, data), nil
}

func rekeySingle(tickers []string, data map[string][]model.Bar) map[string][]model.Bar {
	if len(tickers) != 1 || len(data) != 1 {
		return data
	}
	want := tickers[0]
	for got, bars := range data {
		if got != want {
			return map[string][]model.Bar{want: bars}
		}
	}
	return data
}

// YahooQuotes implements QuoteProvider using the quote summary endpoint,
// falling back to the last close of a short history.
type YahooQuotes struct {
	info    infoFunc
	history HistoryProvider
	timeout time.Duration
	retry   RetryConfig
	log     zerolog.Logger
}

// NewYahooQuotes creates the per-ticker quote provider.
func NewYahooQuotes(cfg config.ProvidersConfig, history HistoryProvider, log zerolog.Logger) *YahooQuotes {
	retry := DefaultRetryConfig()
	retry.Retries = cfg.Retries
	return &YahooQuotes{
		info:    yfInfo,
		history: history,
		timeout: cfg.Timeout,
		retry:   retry,
		log:     log.With().Str("provider", "yahoo-quotes").Logger(),
	}
}

func (y *YahooQuotes) Name() string { return "yahoo-quotes" }

func (y *YahooQuotes) Quote(ctx context.Context, tick string) (Quote, error) {
	sym := model.NormalizeTicker(tick)
	if y.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, y.timeout)
		defer cancel()
	}

	var info yahooInfo
	err := WithRetry(ctx, y.retry, func() error {
		var err error
		info, err = runWithContext(ctx, func() (yahooInfo, error) { return y.info(sym) })
		return err
	})
	if err != nil {
		y.log.Debug().Err(err).Str("symbol", sym).Msg("info unavailable, falling back to history")
	}

	q := Quote{
		Ticker:        sym,
		Price:         info.CurrentPrice,
		DividendYield: NormalizeYield(info.DividendYield),
		Category:      ClassifyQuote(sym, info.QuoteType),
		Sector:        sectorLabel(info.Industry),
	}
	if q.Price <= 0 {
		q.Price = info.PreviousClose
	}
	if q.Price <= 0 && y.history != nil {
		bars, herr := y.history.History(ctx, []string{sym}, "5d")
		if herr == nil && len(bars[sym]) > 0 {
			q.Price = bars[sym][len(bars[sym])-1].Close
		}
	}
	if q.Price <= 0 {
		if err == nil {
			err = errors.New("no price available")
		}
		return q, fmt.Errorf("quote %s: %w", sym, err)
	}
	return q, nil
}

// NormalizeYield converts a yield given in percent points into a fraction.
func NormalizeYield(dy float64) float64 {
	if dy > 1.5 {
		return dy / 100
	}
	return dy
}

// ClassifyQuote marks a ticker as a fund when it contains "11" and the
// quote type is neither EQUITY nor ETF (units and ETFs also end in 11).
func ClassifyQuote(ticker, quoteType string) model.Category {
	qt := strings.ToUpper(quoteType)
	if strings.Contains(model.BaseTicker(ticker), "11") && qt != "EQUITY" && qt != "ETF" {
		return model.CategoryFund
	}
	return model.CategoryEquity
}

func sectorLabel(industry string) string {
	industry = strings.TrimSpace(industry)
	if industry == "" {
		return "Outros"
	}
	words := strings.Fields(strings.ToLower(industry))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
