package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// RapidDNSSource scrapes rapiddns.io search results, a passive DNS
// aggregator that indexes hostnames by substring.
type RapidDNSSource struct {
	baseURL    string
	rateLimit  time.Duration
	httpClient *http.Client
}

func NewRapidDNSSource(baseURL string, rateLimit, timeout time.Duration) *RapidDNSSource {
	if baseURL == "" {
		baseURL = "https://rapiddns.io"
	}
	return &RapidDNSSource{
		baseURL:    strings.TrimRight(baseURL, "/"),
		rateLimit:  rateLimit,
		httpClient: newHTTPClient(timeout),
	}
}

func (s *RapidDNSSource) Name() string             { return "rapiddns" }
func (s *RapidDNSSource) RateLimit() time.Duration { return s.rateLimit }

func (s *RapidDNSSource) Query(ctx context.Context, pattern string) ([]string, error) {
	u := fmt.Sprintf("%s/s/%s?full=1", s.baseURL, url.PathEscape(pattern))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("rapiddns: new request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rapiddns: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, statusError("rapiddns", resp.StatusCode, string(b))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("rapiddns: parse html: %w", err)
	}

	seen := make(map[string]struct{}, 64)
	hosts := make([]string, 0, 64)
	doc.Find("table tbody tr td:first-child").Each(func(_ int, sel *goquery.Selection) {
		name := strings.TrimSpace(sel.Text())
		if name == "" || !strings.Contains(name, pattern) {
			return
		}
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		hosts = append(hosts, name)
	})
	return hosts, nil
}
