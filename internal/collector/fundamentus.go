package collector

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"golang.org/x/text/encoding/charmap"

	"B3Sentinel/internal/config"
)

// FundColumns is the fixed column order of the fundamentus funds table.
var FundColumns = []string{
	"Papel", "Segmento", "Cotação", "FFO Yield", "Dividend Yield", "P/VP",
	"Valor de Mercado", "Liquidez", "Qtd de imóveis", "Preço do m2",
	"Aluguel por m2", "Cap Rate", "Vacância Média",
}

// Fundamentus scrapes the fundamentus.com.br result tables.
type Fundamentus struct {
	client *resty.Client
	url    string
	name   string
	funds  bool
	retry  RetryConfig
	log    zerolog.Logger
}

func newFundamentus(cfg config.ProvidersConfig, url, name string, funds bool, log zerolog.Logger) *Fundamentus {
	client := resty.New()
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("User-Agent", cfg.UserAgent)
	client.SetHeader("Accept", "text/html")
	if cfg.Proxy != "" {
		client.SetProxy(cfg.Proxy)
	}
	retry := DefaultRetryConfig()
	retry.Retries = cfg.Retries
	return &Fundamentus{
		client: client,
		url:    url,
		name:   name,
		funds:  funds,
		retry:  retry,
		log:    log.With().Str("provider", name).Logger(),
	}
}

// NewFundamentusEquities returns the equities table provider.
func NewFundamentusEquities(cfg config.ProvidersConfig, log zerolog.Logger) *Fundamentus {
	return newFundamentus(cfg, cfg.EquitiesURL, "fundamentus-equities", false, log)
}

// NewFundamentusFunds returns the FII table provider.
func NewFundamentusFunds(cfg config.ProvidersConfig, log zerolog.Logger) *Fundamentus {
	return newFundamentus(cfg, cfg.FundsURL, "fundamentus-funds", true, log)
}

// WithRetry overrides the retry policy.
func (f *Fundamentus) WithRetry(r RetryConfig) *Fundamentus {
	f.retry = r
	return f
}

func (f *Fundamentus) Name() string { return f.name }

// Fetch downloads and parses the table. Any failure yields an empty table and the error.
func (f *Fundamentus) Fetch(ctx context.Context) (RawTable, error) {
	var table RawTable
	err := WithRetry(ctx, f.retry, func() error {
		resp, err := f.client.R().SetContext(ctx).Get(f.url)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", f.name, err)
		}
		if resp.StatusCode() != http.StatusOK {
			return fmt.Errorf("%s: HTTP status %d", f.name, resp.StatusCode())
		}

		body := resp.Body()
		if !strings.Contains(strings.ToLower(resp.Header().Get("Content-Type")), "utf-8") {
			decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(body)
			if err != nil {
				return fmt.Errorf("decode %s: %w", f.name, err)
			}
			body = decoded
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("parse %s: %w", f.name, err)
		}

		if f.funds {
			table = parseFundTable(doc)
		} else {
			table = parseHeaderTable(doc)
		}
		if table.Len() == 0 {
			return fmt.Errorf("%s: no rows parsed", f.name)
		}
		return nil
	})
	if err != nil {
		f.log.Warn().Err(err).Msg("provider failed")
		return RawTable{Source: f.name}, err
	}
	table.Source = f.name
	f.log.Debug().Int("rows", table.Len()).Int("columns", len(table.Columns)).Msg("table fetched")
	return table, nil
}

// parseHeaderTable reads the first table whose header row names the columns.
// The first cell of each row is the ticker.
func parseHeaderTable(doc *goquery.Document) RawTable {
	var table RawTable
	sel := doc.Find("table#resultado")
	if sel.Length() == 0 {
		sel = doc.Find("table").First()
	}

	sel.Find("thead th, thead td").Each(func(_ int, cell *goquery.Selection) {
		table.Columns = append(table.Columns, strings.TrimSpace(cell.Text()))
	})
	rows := sel.Find("tbody tr")
	if len(table.Columns) == 0 {
		sel.Find("tr").First().Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			table.Columns = append(table.Columns, strings.TrimSpace(cell.Text()))
		})
		rows = sel.Find("tr").Slice(1, goquery.ToEnd)
	}
	if len(table.Columns) == 0 {
		return table
	}

	table.Rows = collectRows(rows, table.Columns)
	return table
}

// parseFundTable reads the FII table with its known fixed column order.
func parseFundTable(doc *goquery.Document) RawTable {
	table := RawTable{Columns: FundColumns}
	sel := doc.Find("table#tabelaResultado")
	if sel.Length() == 0 {
		sel = doc.Find("table").First()
	}
	table.Rows = collectRows(sel.Find("tbody tr"), FundColumns)
	return table
}

func collectRows(rows *goquery.Selection, columns []string) []RawRow {
	var out []RawRow
	rows.Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() == 0 {
			return
		}
		fields := make(map[string]string, len(columns))
		cells.Each(func(j int, cell *goquery.Selection) {
			if j < len(columns) {
				fields[columns[j]] = strings.TrimSpace(cell.Text())
			}
		})
		ticker := strings.TrimSpace(cells.First().Text())
		if ticker == "" {
			return
		}
		out = append(out, RawRow{Ticker: ticker, Fields: fields})
	})
	return out
}
