package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// SECFilings fetches a filing page and reduces it to plain text usable as
// question context. SEC HTML is noisy: styled paragraphs, layout tables,
// pagination artifacts. We strip scripts/styles and collapse whitespace
// rather than attempting structural conversion.
type SECFilings struct {
	Client    *http.Client
	UserAgent string // SEC requires an identifying User-Agent
}

func NewSECFilings() *SECFilings {
	return &SECFilings{
		Client:    &http.Client{Timeout: 60 * time.Second},
		UserAgent: "financeqa-agent research tool",
	}
}

var collapseWS = regexp.MustCompile(`[ \t\r\f\v]+`)
var collapseNL = regexp.MustCompile(`\n{3,}`)

// FetchText downloads the document at url and returns its visible text.
func (s *SECFilings) FetchText(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("SEC_REQ_CREATE_ERROR: %v", err)
	}
	req.Header.Set("User-Agent", s.UserAgent)

	res, err := s.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("SEC_API_CALL_ERROR: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != 200 {
		return "", fmt.Errorf("SEC_HTTP_ERROR: status=%d for %s", res.StatusCode, url)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("SEC_READ_BODY_ERROR: %v", err)
	}
	return HTMLToText(string(body))
}

// HTMLToText strips an HTML document down to readable text, block elements
// separated by newlines.
func HTMLToText(htmlContent string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, noscript, iframe, img").Remove()

	var b strings.Builder
	doc.Find("p, h1, h2, h3, h4, li, td, th, div").Each(func(i int, sel *goquery.Selection) {
		// Only leaf-ish nodes: a div containing other block elements would
		// duplicate its children's text.
		if sel.Children().Filter("p, div, table, ul, ol").Length() > 0 {
			return
		}
		text := strings.TrimSpace(sel.Text())
		if text != "" {
			b.WriteString(text)
			b.WriteByte('\n')
		}
	})

	out := b.String()
	if out == "" {
		out = doc.Text()
	}
	out = collapseWS.ReplaceAllString(out, " ")
	out = collapseNL.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out), nil
}
