package marketfeed

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"FraudShield/internal/domain/models"
	pkghttp "FraudShield/pkg/http"
	"FraudShield/pkg/util"
)

// HistoryClient pulls daily bar history over the feed's REST API. The
// websocket stream only carries incremental updates; history backfills the
// lookback window after gaps.
type HistoryClient struct {
	client  *pkghttp.Client
	baseURL string
	apiKey  string
}

func NewHistoryClient(client *pkghttp.Client, baseURL, apiKey string) *HistoryClient {
	return &HistoryClient{client: client, baseURL: baseURL, apiKey: apiKey}
}

type historyResponse struct {
	S string    `json:"s"` // "ok" | "no_data"
	T []int64   `json:"t"` // unix seconds
	C []float64 `json:"c"`
	V []int64   `json:"v"`
}

// FetchDailyBars returns up to days of daily bars for a ticker, ascending
// by day.
func (h *HistoryClient) FetchDailyBars(ctx context.Context, ticker string, days int) ([]*models.Bar, error) {
	if days <= 0 {
		days = 30
	}
	// Day-aligned bounds keep the request to complete daily candles.
	from, to := util.DayRange(time.Now(), days)

	var resp historyResponse
	err := h.client.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodGet,
		URL:    h.baseURL,
		QueryParams: map[string][]string{
			"symbol":     {ticker},
			"resolution": {"D"},
			"from":       {strconv.FormatInt(from.Unix(), 10)},
			"to":         {strconv.FormatInt(to.Unix(), 10)},
			"token":      {h.apiKey},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("fetch daily bars %s: %w", ticker, err)
	}
	if resp.S != "ok" {
		return nil, nil
	}
	if len(resp.T) != len(resp.C) || len(resp.T) != len(resp.V) {
		return nil, fmt.Errorf("fetch daily bars %s: misaligned series", ticker)
	}

	bars := make([]*models.Bar, 0, len(resp.T))
	for i := range resp.T {
		bars = append(bars, &models.Bar{
			Ticker: ticker,
			Day:    time.Unix(resp.T[i], 0).UTC().Truncate(24 * time.Hour),
			Close:  resp.C[i],
			Volume: resp.V[i],
		})
	}
	return bars, nil
}
