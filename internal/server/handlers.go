package server

import (
	"math"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"MarketLens/internal/model"
	"MarketLens/internal/pipeline"
	"MarketLens/internal/render"
)

const dateLayout = "2006-01-02"

// Chart kinds served under /api/screener/charts.
const (
	ChartCumulative       = "cumulative"
	ChartReturnVolatility = "return-volatility"
	ChartRiskReturn       = "risk-return"
)

// ScreenerRequest is the query of the screener endpoints.
type ScreenerRequest struct {
	Tickers string `query:"tickers" default:"AAPL, MSFT, TSLA"`
	Start   string `query:"start" default:"2023-01-01" validate:"datetime=2006-01-02"`
	End     string `query:"end" validate:"required,datetime=2006-01-02"`
}

// SetDefaults fills End with today's date.
func (r *ScreenerRequest) SetDefaults() {
	if r.End == "" {
		r.End = time.Now().Format(dateLayout)
	}
}

// FXRequest is the query of the FX endpoints.
type FXRequest struct {
	Pair string `query:"pair" default:"USD" validate:"oneof=USD CNY EUR JPY"`
	Days int    `query:"days" default:"180" validate:"min=30,max=365"`
}

// Defaults seeds requests before binding. Zero fields fall back to the tag defaults.
type Defaults struct {
	Tickers string
	Start   string
	Pair    string
	Days    int
}

// Handler serves the pipeline endpoints.
type Handler struct {
	screener *pipeline.Screener
	fx       *pipeline.FX
	defaults Defaults
}

func NewHandler(screener *pipeline.Screener, fx *pipeline.FX, d Defaults) *Handler {
	return &Handler{screener: screener, fx: fx, defaults: d}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/screener", h.Screener)
	g.GET("/screener/charts/:kind", h.ScreenerChart)
	g.GET("/fx", h.FX)
	g.GET("/fx/chart", h.FXChart)
	g.GET("/fx/pairs", h.FXPairs)
}

type cumulativeJSON struct {
	Dates  []string             `json:"dates"`
	Series map[string][]float64 `json:"series"`
}

type screenerResponse struct {
	Tickers    []string           `json:"tickers"`
	Start      string             `json:"start"`
	End        string             `json:"end"`
	Metrics    []model.DisplayRow `json:"metrics"`
	Cumulative cumulativeJSON     `json:"cumulative"`
}

type fxResponse struct {
	Pair          string     `json:"pair"`
	Label         string     `json:"label"`
	Symbol        string     `json:"symbol"`
	Days          int        `json:"days"`
	Dates         []string   `json:"dates"`
	Rates         []float64  `json:"rates"`
	MovingAverage []*float64 `json:"moving_average"`
	LatestRate    float64    `json:"latest_rate"`
}

type pairJSON struct {
	Base   string `json:"base"`
	Label  string `json:"label"`
	Symbol string `json:"symbol"`
}

func (h *Handler) Screener(c echo.Context) error {
	res, verrs, err := h.runScreener(c)
	if verrs != nil {
		return BadRequestResponse(c, verrs)
	}
	if err != nil {
		return PipelineErrorResponse(c, err)
	}

	out := screenerResponse{
		Tickers: res.Tickers,
		Start:   res.Start.Format(dateLayout),
		End:     res.End.Format(dateLayout),
		Metrics: res.Display(),
		Cumulative: cumulativeJSON{
			Dates:  formatDates(res.Cumulative.Dates),
			Series: make(map[string][]float64, len(res.Cumulative.Symbols)),
		},
	}
	for i, sym := range res.Cumulative.Symbols {
		out.Cumulative.Series[sym] = res.Cumulative.Values[i]
	}
	return DataResponse(c, http.StatusOK, out)
}

func (h *Handler) ScreenerChart(c echo.Context) error {
	kind := c.Param("kind")
	switch kind {
	case ChartCumulative, ChartReturnVolatility, ChartRiskReturn:
	default:
		return c.JSON(http.StatusNotFound, APIResponse{
			Status:  http.StatusNotFound,
			Message: "unknown chart kind " + kind,
		})
	}

	res, verrs, err := h.runScreener(c)
	if verrs != nil {
		return BadRequestResponse(c, verrs)
	}
	if err != nil {
		return PipelineErrorResponse(c, err)
	}

	var png []byte
	switch kind {
	case ChartCumulative:
		png, err = render.CumulativeChart(res.Cumulative)
	case ChartReturnVolatility:
		png, err = render.ReturnVolatilityChart(res.Metrics)
	case ChartRiskReturn:
		png, err = render.RiskReturnChart(res.Metrics)
	}
	if err != nil {
		return PipelineErrorResponse(c, err)
	}
	return c.Blob(http.StatusOK, "image/png", png)
}

func (h *Handler) FX(c echo.Context) error {
	res, pair, verrs, err := h.runFX(c)
	if verrs != nil {
		return BadRequestResponse(c, verrs)
	}
	if err != nil {
		return PipelineErrorResponse(c, err)
	}

	out := fxResponse{
		Pair:          pair.Base,
		Label:         pair.Label(),
		Symbol:        res.Symbol,
		Days:          res.Days,
		Dates:         formatDates(res.Dates),
		Rates:         res.Rates,
		MovingAverage: nullable(res.MovingAverage),
		LatestRate:    res.LatestRate,
	}
	return DataResponse(c, http.StatusOK, out)
}

func (h *Handler) FXChart(c echo.Context) error {
	res, pair, verrs, err := h.runFX(c)
	if verrs != nil {
		return BadRequestResponse(c, verrs)
	}
	if err != nil {
		return PipelineErrorResponse(c, err)
	}
	png, err := render.FXChart(res, pair.Label())
	if err != nil {
		return PipelineErrorResponse(c, err)
	}
	return c.Blob(http.StatusOK, "image/png", png)
}

func (h *Handler) FXPairs(c echo.Context) error {
	pairs := make([]pairJSON, len(model.CurrencyPairs))
	for i, p := range model.CurrencyPairs {
		pairs[i] = pairJSON{Base: p.Base, Label: p.Label(), Symbol: p.Symbol()}
	}
	return DataResponse(c, http.StatusOK, pairs)
}

func (h *Handler) runScreener(c echo.Context) (*pipeline.ScreenerResult, []ValidationError, error) {
	req := &ScreenerRequest{Tickers: h.defaults.Tickers, Start: h.defaults.Start}
	if verrs := bindAndValidate(c, req); verrs != nil {
		return nil, verrs, nil
	}
	// Both dates passed the datetime check.
	start, _ := time.Parse(dateLayout, req.Start)
	end, _ := time.Parse(dateLayout, req.End)

	res, err := h.screener.Run(c.Request().Context(), pipeline.ParseTickers(req.Tickers), start, end)
	return res, nil, err
}

func (h *Handler) runFX(c echo.Context) (*pipeline.FxResult, model.CurrencyPair, []ValidationError, error) {
	req := &FXRequest{Pair: h.defaults.Pair, Days: h.defaults.Days}
	if verrs := bindAndValidate(c, req); verrs != nil {
		return nil, model.CurrencyPair{}, verrs, nil
	}
	pair, _ := model.LookupPair(req.Pair)

	res, err := h.fx.Run(c.Request().Context(), pair.Symbol(), req.Days)
	return res, pair, nil, err
}

func formatDates(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format(dateLayout)
	}
	return out
}

// nullable maps undefined values to JSON null.
func nullable(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i := range values {
		if math.IsNaN(values[i]) || math.IsInf(values[i], 0) {
			continue
		}
		v := values[i]
		out[i] = &v
	}
	return out
}
