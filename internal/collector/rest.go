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

	"github.com/tidwall/gjson"

	"MarketLens/internal/model"
)

// RESTFetcher implements Fetcher against a generic daily-bars REST API.
type RESTFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewRESTFetcher creates a new fetcher with optional proxy support.
func NewRESTFetcher(baseURL, apiKey, proxyURL string) *RESTFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &RESTFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (f *RESTFetcher) Name() string { return "rest" }

// restBar is the expected JSON shape from the bars API. Null fields are missing values.
type restBar struct {
	Timestamp int64    `json:"timestamp"`
	Open      *float64 `json:"open"`
	High      *float64 `json:"high"`
	Low       *float64 `json:"low"`
	Close     *float64 `json:"close"`
	AdjClose  *float64 `json:"adj_close"`
	Volume    *float64 `json:"volume"`
}

func (f *RESTFetcher) FetchHistory(ctx context.Context, symbols []string, start, end time.Time) (*model.PriceTable, error) {
	bars := make(map[string][]model.OHLCV, len(symbols))
	for _, sym := range symbols {
		endpoint := fmt.Sprintf("%s/api/v1/bars/daily?symbol=%s&from=%s&to=%s", f.BaseURL,
			url.QueryEscape(sym), start.Format(time.DateOnly), end.Format(time.DateOnly))
		b, err := f.fetchBars(ctx, endpoint)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", sym, err)
		}
		bars[sym] = b
	}
	return BuildTable(model.ShapeFieldByInstrument, symbols, bars, false), nil
}

func (f *RESTFetcher) FetchRecent(ctx context.Context, symbol string, days int, autoAdjust bool) (*model.PriceTable, error) {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -days)
	endpoint := fmt.Sprintf("%s/api/v1/bars/daily?symbol=%s&from=%s&to=%s", f.BaseURL,
		url.QueryEscape(symbol), start.Format(time.DateOnly), end.Format(time.DateOnly))
	b, err := f.fetchBars(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", symbol, err)
	}
	return BuildTable(model.ShapeFlat, []string{symbol}, map[string][]model.OHLCV{symbol: b}, autoAdjust), nil
}

func (f *RESTFetcher) fetchBars(ctx context.Context, endpoint string) ([]model.OHLCV, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		if msg := apiErrorMessage(body); msg != "" {
			return nil, fmt.Errorf("fetch bars: status %d: %s", resp.StatusCode, msg)
		}
		return nil, fmt.Errorf("fetch bars: status %d, body: %s", resp.StatusCode, string(body))
	}
	var raw []restBar
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode bars: %w", err)
	}
	bars := make([]model.OHLCV, len(raw))
	for i, rb := range raw {
		bars[i] = model.OHLCV{
			Time:     time.Unix(rb.Timestamp, 0).UTC(),
			Open:     orMissing(rb.Open),
			High:     orMissing(rb.High),
			Low:      orMissing(rb.Low),
			Close:    orMissing(rb.Close),
			AdjClose: orMissing(rb.AdjClose),
			Volume:   orMissing(rb.Volume),
		}
	}
	// Ensure chronological order
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// apiErrorMessage pulls a message out of a JSON error body, if it has one.
func apiErrorMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	for _, path := range []string{"error.message", "error", "message"} {
		if r := gjson.GetBytes(body, path); r.Type == gjson.String {
			return r.String()
		}
	}
	return ""
}

func orMissing(v *float64) float64 {
	if v == nil {
		return model.Missing()
	}
	return *v
}
