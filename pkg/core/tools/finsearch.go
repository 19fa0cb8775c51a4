package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"
)

// FinSearch looks up company fundamentals on Finnhub. Query shape:
// "AAPL EBITDA 2022" (symbol, metric, year).
type FinSearch struct {
	APIKey  string
	BaseURL string // overridable for tests
	Client  *http.Client
}

func NewFinSearch() *FinSearch {
	return &FinSearch{
		APIKey:  os.Getenv("FINNHUB_API_KEY"),
		BaseURL: "https://finnhub.io/api/v1",
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type finnhubMetrics struct {
	Metric map[string]interface{} `json:"metric"`
}

// Search runs one fundamentals lookup. Malformed queries and missing metrics
// come back as descriptive strings, not errors: the agent loop records either
// outcome into its working context the same way.
func (f *FinSearch) Search(ctx context.Context, query string) (string, error) {
	parts := strings.Fields(strings.TrimSpace(query))
	if len(parts) < 3 {
		return "Error: Query should be like 'AAPL EBITDA 2022'", nil
	}
	symbol, metric, year := parts[0], strings.ToUpper(parts[1]), parts[2]

	if f.APIKey == "" {
		return "", fmt.Errorf("FINNHUB_KEY_MISSING: FINNHUB_API_KEY environment variable not set")
	}

	endpoint := fmt.Sprintf("%s/stock/metric?symbol=%s&metric=all&token=%s",
		f.BaseURL, url.QueryEscape(symbol), url.QueryEscape(f.APIKey))

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("FINNHUB_REQ_CREATE_ERROR: %v", err)
	}

	res, err := f.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("FINNHUB_API_CALL_ERROR: %v", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("FINNHUB_READ_BODY_ERROR: %v", err)
	}
	if res.StatusCode != 200 {
		return "", fmt.Errorf("FINNHUB_API_ERROR: status=%d body=%s", res.StatusCode, string(body))
	}

	var fundamentals finnhubMetrics
	if err := json.Unmarshal(body, &fundamentals); err != nil {
		return "", fmt.Errorf("FINNHUB_UNMARSHAL_ERROR: %v", err)
	}
	if len(fundamentals.Metric) == 0 {
		return fmt.Sprintf("No financial data found for %s.", symbol), nil
	}

	if value, ok := fundamentals.Metric[metric]; ok {
		return fmt.Sprintf("%s %s in %s: %v", symbol, metric, year, value), nil
	}

	known := make([]string, 0, len(fundamentals.Metric))
	for k := range fundamentals.Metric {
		known = append(known, k)
	}
	sort.Strings(known)
	return fmt.Sprintf("Metric '%s' not found. Available: %s", metric, strings.Join(known, ", ")), nil
}
