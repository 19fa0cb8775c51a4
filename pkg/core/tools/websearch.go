package tools

import (
	"context"
	"fmt"
	"os"
	"strings"

	customsearch "google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

// WebSearch wraps the Google Custom Search API and formats the top results
// for the agent's working context.
type WebSearch struct {
	APIKey     string
	CSEID      string
	MaxResults int64
}

func NewWebSearch() *WebSearch {
	return &WebSearch{
		APIKey:     os.Getenv("GOOGLE_API_KEY"),
		CSEID:      os.Getenv("GOOGLE_CSE_ID"),
		MaxResults: 3,
	}
}

// Search returns up to MaxResults hits as title/snippet/link blocks.
func (w *WebSearch) Search(ctx context.Context, query string) (string, error) {
	if w.APIKey == "" || w.CSEID == "" {
		return "Missing API key or CSE ID for web search.", nil
	}

	svc, err := customsearch.NewService(ctx, option.WithAPIKey(w.APIKey))
	if err != nil {
		return "", fmt.Errorf("WEBSEARCH_SERVICE_ERROR: %v", err)
	}

	res, err := svc.Cse.List().Q(query).Cx(w.CSEID).Num(w.MaxResults).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("WEBSEARCH_API_ERROR: %v", err)
	}
	if len(res.Items) == 0 {
		return "No search results found.", nil
	}

	var b strings.Builder
	for i, item := range res.Items {
		fmt.Fprintf(&b, "\nResult %d:\n%s\n%s\n%s\n", i+1, item.Title, item.Snippet, item.Link)
	}
	return strings.TrimSpace(b.String()), nil
}
