package validation

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oguzkse/streamseek/pkg/models"
	"github.com/oguzkse/streamseek/pkg/utils"
)

// Prober issues single HTTP existence checks and retrievals against
// candidate hosts. The response body is always truncated to the configured
// prefix; callers never see more.
type Prober struct {
	client    *http.Client
	bodyLimit int
	pickUA    UserAgentPicker
	logger    *logrus.Logger
	metrics   *utils.Metrics
}

func NewProber(cfg models.ProbeConfig, pickUA UserAgentPicker, metrics *utils.Metrics, logger *logrus.Logger) *Prober {
	if logger == nil {
		logger = logrus.New()
	}
	if pickUA == nil {
		pickUA = RandomUserAgent
	}
	bodyLimit := cfg.BodyLimit
	if bodyLimit <= 0 {
		bodyLimit = 4000
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
			// rotating throwaway domains routinely serve mismatched certs
			InsecureSkipVerify: true,
		},
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   cfg.Timeout,
		ExpectContinueTimeout: time.Second,
	}

	maxRedirects := cfg.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = 5
	}
	client := &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}

	return &Prober{
		client:    client,
		bodyLimit: bodyLimit,
		pickUA:    pickUA,
		logger:    logger,
		metrics:   metrics,
	}
}

// Head performs the lightweight existence check.
func (p *Prober) Head(ctx context.Context, url string) (*models.ProbeResult, error) {
	return p.do(ctx, http.MethodHead, url)
}

// Get performs the full retrieval used when HEAD is refused or ambiguous.
func (p *Prober) Get(ctx context.Context, url string) (*models.ProbeResult, error) {
	return p.do(ctx, http.MethodGet, url)
}

func (p *Prober) do(ctx context.Context, method, url string) (*models.ProbeResult, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", p.pickUA())
	req.Header.Set("Accept", "*/*")

	resp, err := p.client.Do(req)
	if err != nil {
		p.metrics.ObserveProbe(req.URL.Scheme, "error")
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	var body []byte
	if method != http.MethodHead {
		body, err = io.ReadAll(io.LimitReader(resp.Body, int64(p.bodyLimit)))
		if err != nil {
			// a partial prefix is still usable for the marker check
			p.logger.Debugf("Body read truncated for %s: %v", url, err)
		}
	}

	p.metrics.ObserveProbe(req.URL.Scheme, fmt.Sprintf("%d", resp.StatusCode))
	return &models.ProbeResult{
		URL:         url,
		StatusCode:  resp.StatusCode,
		Body:        string(body),
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}
