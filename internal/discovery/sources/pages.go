package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/oguzkse/streamseek/internal/discovery/headless"
	"github.com/oguzkse/streamseek/pkg/models"
)

var hostnameRe = regexp.MustCompile(`(?i)\b([a-z0-9][a-z0-9-]*\.)+[a-z]{2,}\b`)

// PagesSource walks the provider's numbered mirror pages and harvests
// hostnames referenced in their markup. When static scraping of a page
// yields nothing, the configured renderer gets one shot at the
// JavaScript-built variant.
type PagesSource struct {
	cfg        models.PageSourceConfig
	renderer   headless.Renderer
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewPagesSource(cfg models.PageSourceConfig, renderer headless.Renderer, timeout time.Duration, logger *logrus.Logger) *PagesSource {
	if logger == nil {
		logger = logrus.New()
	}
	if renderer == nil {
		renderer = headless.NopRenderer{}
	}
	return &PagesSource{
		cfg:        cfg,
		renderer:   renderer,
		httpClient: newHTTPClient(timeout),
		logger:     logger,
	}
}

func (s *PagesSource) Name() string             { return "pages" }
func (s *PagesSource) RateLimit() time.Duration { return s.cfg.RateLimit }

func (s *PagesSource) Query(ctx context.Context, pattern string) ([]string, error) {
	maxPages := s.cfg.MaxPages
	if maxPages <= 0 {
		maxPages = s.cfg.End - s.cfg.Start + 1
	}

	seen := make(map[string]struct{}, 64)
	hosts := make([]string, 0, 64)
	fetched := 0

	for n := s.cfg.Start; n <= s.cfg.End && fetched < maxPages; n++ {
		if err := ctx.Err(); err != nil {
			return hosts, err
		}
		pageURL := fmt.Sprintf(s.cfg.URLFormat, n)
		fetched++

		html, err := s.fetch(ctx, pageURL)
		if err != nil {
			s.logger.Debugf("Page fetch failed for %s: %v", pageURL, err)
			continue
		}

		found := s.extract(html, pattern)
		if len(found) == 0 {
			if rendered, rerr := s.renderer.Render(ctx, pageURL); rerr == nil && rendered != "" {
				found = s.extract(rendered, pattern)
			}
		}

		for _, h := range found {
			if _, dup := seen[h]; dup {
				continue
			}
			seen[h] = struct{}{}
			hosts = append(hosts, h)
		}
	}
	return hosts, nil
}

func (s *PagesSource) fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// extract pulls matching hostnames both from structured attributes (src,
// href, data-*) and from the raw markup, since mirrors embed stream hosts
// in inline script blobs as often as in tags.
func (s *PagesSource) extract(html, pattern string) []string {
	seen := make(map[string]struct{}, 16)
	var out []string
	add := func(raw string) {
		for _, m := range hostnameRe.FindAllString(raw, -1) {
			m = strings.ToLower(m)
			if pattern != "" && !strings.Contains(m, pattern) {
				continue
			}
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}

	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		doc.Find("[src],[href],[data-url]").Each(func(_ int, sel *goquery.Selection) {
			for _, attr := range []string{"src", "href", "data-url"} {
				if v, ok := sel.Attr(attr); ok {
					add(v)
				}
			}
		})
	}
	add(html)
	return out
}
