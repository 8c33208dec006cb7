package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// CRTSHSource searches crt.sh certificate records for hostnames matching
// the naming pattern.
type CRTSHSource struct {
	baseURL    string
	rateLimit  time.Duration
	httpClient *http.Client
}

func NewCRTSHSource(baseURL string, rateLimit, timeout time.Duration) *CRTSHSource {
	if baseURL == "" {
		baseURL = "https://crt.sh"
	}
	return &CRTSHSource{
		baseURL:    strings.TrimRight(baseURL, "/"),
		rateLimit:  rateLimit,
		httpClient: newHTTPClient(timeout),
	}
}

func (s *CRTSHSource) Name() string             { return "crtsh" }
func (s *CRTSHSource) RateLimit() time.Duration { return s.rateLimit }

func (s *CRTSHSource) Query(ctx context.Context, pattern string) ([]string, error) {
	u := fmt.Sprintf("%s/?q=%s&output=json", s.baseURL, url.QueryEscape("%"+pattern+"%"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("crtsh: new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("crtsh: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, statusError("crtsh", resp.StatusCode, string(b))
	}

	var rows []struct {
		NameValue  string `json:"name_value"`
		CommonName string `json:"common_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("crtsh: parse response: %w", err)
	}

	seen := make(map[string]struct{}, len(rows))
	hosts := make([]string, 0, len(rows))
	for _, row := range rows {
		// name_value packs one SAN per line
		for _, name := range strings.Split(row.NameValue, "\n") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			hosts = append(hosts, name)
		}
		if cn := strings.TrimSpace(row.CommonName); cn != "" {
			if _, dup := seen[cn]; !dup {
				seen[cn] = struct{}{}
				hosts = append(hosts, cn)
			}
		}
	}
	return hosts, nil
}
