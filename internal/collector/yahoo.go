package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"MarketLens/internal/model"
)

const (
	DefaultYahooBaseURL   = "https://query1.finance.yahoo.com"
	DefaultYahooRateLimit = 2 // requests per second
)

// YahooFetcher implements Fetcher using Yahoo Finance public API.
type YahooFetcher struct {
	Client  *http.Client
	BaseURL string
	limiter *rate.Limiter
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(baseURL, proxyURL string, requestsPerSecond int) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if baseURL == "" {
		baseURL = DefaultYahooBaseURL
	}
	if requestsPerSecond <= 0 {
		requestsPerSecond = DefaultYahooRateLimit
	}
	return &YahooFetcher{
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		BaseURL: baseURL,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol    string `json:"symbol"`
				GMTOffset int    `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func valueAt(values []*float64, i int) float64 {
	if i >= len(values) {
		return model.Missing()
	}
	return orMissing(values[i])
}

// FetchHistory downloads daily bars for each symbol and aligns them.
func (f *YahooFetcher) FetchHistory(ctx context.Context, symbols []string, start, end time.Time) (*model.PriceTable, error) {
	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("period1", fmt.Sprint(start.Unix()))
	params.Set("period2", fmt.Sprint(end.Unix()))
	params.Set("includeAdjustedClose", "true")

	bars := make(map[string][]model.OHLCV, len(symbols))
	for _, sym := range symbols {
		b, err := f.fetchChart(ctx, sym, params)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", sym, err)
		}
		bars[sym] = b
	}
	return BuildTable(model.ShapeFieldByInstrument, symbols, bars, false), nil
}

// FetchRecent downloads the trailing days of daily bars for one symbol.
func (f *YahooFetcher) FetchRecent(ctx context.Context, symbol string, days int, autoAdjust bool) (*model.PriceTable, error) {
	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("range", fmt.Sprintf("%dd", days))
	params.Set("includeAdjustedClose", "true")

	b, err := f.fetchChart(ctx, symbol, params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", symbol, err)
	}
	return BuildTable(model.ShapeFlat, []string{symbol}, map[string][]model.OHLCV{symbol: b}, autoAdjust), nil
}

func (f *YahooFetcher) fetchChart(ctx context.Context, symbol string, params url.Values) ([]model.OHLCV, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("yahoo rate limit: %w", err)
	}

	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", f.BaseURL, url.PathEscape(symbol), params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	start := time.Now()
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	log.Debug().Str("symbol", symbol).Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).Msg("yahoo chart response")

	var chart yahooChart
	decodeErr := json.Unmarshal(body, &chart)
	if decodeErr == nil && chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("yahoo decode: %w", decodeErr)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, fmt.Errorf("yahoo: no data returned")
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: no quote data returned")
	}
	quote := result.Indicators.Quote[0]
	var adj []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adj = result.Indicators.AdjClose[0].AdjClose
	}
	loc := time.FixedZone(symbol, result.Meta.GMTOffset)

	bars := make([]model.OHLCV, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		b := model.OHLCV{
			Time:     time.Unix(ts, 0).In(loc),
			Open:     valueAt(quote.Open, i),
			High:     valueAt(quote.High, i),
			Low:      valueAt(quote.Low, i),
			Close:    valueAt(quote.Close, i),
			AdjClose: valueAt(adj, i),
			Volume:   valueAt(quote.Volume, i),
		}
		if model.IsMissing(b.Open) && model.IsMissing(b.High) && model.IsMissing(b.Low) && model.IsMissing(b.Close) {
			continue // skip null bars (holidays etc.)
		}
		bars = append(bars, b)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}
