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

// CertSpotterSource queries the Cert Spotter issuances API for DNS names
// under a known suffix (certspotter matches registered domains, not
// free-text patterns).
type CertSpotterSource struct {
	baseURL    string
	suffix     string
	rateLimit  time.Duration
	httpClient *http.Client
}

func NewCertSpotterSource(baseURL, suffix string, rateLimit, timeout time.Duration) *CertSpotterSource {
	if baseURL == "" {
		baseURL = "https://api.certspotter.com/v1"
	}
	return &CertSpotterSource{
		baseURL:    strings.TrimRight(baseURL, "/"),
		suffix:     suffix,
		rateLimit:  rateLimit,
		httpClient: newHTTPClient(timeout),
	}
}

func (s *CertSpotterSource) Name() string             { return "certspotter" }
func (s *CertSpotterSource) RateLimit() time.Duration { return s.rateLimit }

func (s *CertSpotterSource) Query(ctx context.Context, pattern string) ([]string, error) {
	domain := s.suffix
	if domain == "" {
		domain = pattern
	}
	u := fmt.Sprintf("%s/issuances?domain=%s&include_subdomains=true&expand=dns_names",
		s.baseURL, url.QueryEscape(domain))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("certspotter: new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("certspotter: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, statusError("certspotter", resp.StatusCode, string(b))
	}

	var issuances []struct {
		DNSNames []string `json:"dns_names"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&issuances); err != nil {
		return nil, fmt.Errorf("certspotter: parse response: %w", err)
	}

	seen := make(map[string]struct{}, 64)
	hosts := make([]string, 0, 64)
	for _, iss := range issuances {
		for _, name := range iss.DNSNames {
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
	}
	return hosts, nil
}
