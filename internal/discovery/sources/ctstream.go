package sources

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	ct "github.com/google/certificate-transparency-go"
	"github.com/google/certificate-transparency-go/client"
	"github.com/google/certificate-transparency-go/jsonclient"
	ctX509 "github.com/google/certificate-transparency-go/x509"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/oguzkse/streamseek/pkg/models"
)

// CTStreamSource reads the tail of configured Certificate Transparency logs
// directly and extracts certificate names matching the pattern. Unlike the
// crt.sh search it sees very recent issuances that aggregators have not
// indexed yet.
type CTStreamSource struct {
	cfg     models.CTStreamConfig
	clients map[string]*client.LogClient
	logger  *logrus.Logger
	mu      sync.RWMutex
}

func NewCTStreamSource(cfg models.CTStreamConfig, timeout time.Duration, logger *logrus.Logger) (*CTStreamSource, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 256
	}

	s := &CTStreamSource{
		cfg:     cfg,
		clients: make(map[string]*client.LogClient, len(cfg.LogURLs)),
		logger:  logger,
	}

	httpClient := newHTTPClient(timeout)
	for _, logURL := range cfg.LogURLs {
		lc, err := client.New(logURL, httpClient, jsonclient.Options{UserAgent: userAgent})
		if err != nil {
			logger.Warnf("Failed to initialize CT log client for %s: %v", logURL, err)
			continue
		}
		s.clients[logURL] = lc
	}
	if len(s.clients) == 0 {
		return nil, fmt.Errorf("ctstream: no usable CT logs configured")
	}
	return s, nil
}

func (s *CTStreamSource) Name() string             { return "ctstream" }
func (s *CTStreamSource) RateLimit() time.Duration { return s.cfg.RateLimit }

func (s *CTStreamSource) Query(ctx context.Context, pattern string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		mu    sync.Mutex
		seen  = make(map[string]struct{}, 64)
		hosts = make([]string, 0, 64)
	)
	g, ctx := errgroup.WithContext(ctx)

	for logURL, lc := range s.clients {
		logURL, lc := logURL, lc
		g.Go(func() error {
			names, err := s.tailLog(ctx, lc)
			if err != nil {
				s.logger.Warnf("CT log %s: %v", logURL, err)
				return nil
			}
			mu.Lock()
			for _, name := range names {
				if !strings.Contains(name, pattern) {
					continue
				}
				if _, dup := seen[name]; dup {
					continue
				}
				seen[name] = struct{}{}
				hosts = append(hosts, name)
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return hosts, err
	}
	return hosts, nil
}

// tailLog fetches the newest batch of entries from one log.
func (s *CTStreamSource) tailLog(ctx context.Context, lc *client.LogClient) ([]string, error) {
	sth, err := lc.GetSTH(ctx)
	if err != nil {
		return nil, fmt.Errorf("get STH: %w", err)
	}

	end := int64(sth.TreeSize) - 1
	if end < 0 {
		return nil, nil
	}
	start := end - s.cfg.BatchSize + 1
	if start < 0 {
		start = 0
	}

	entries, err := lc.GetEntries(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("get entries [%d,%d]: %w", start, end, err)
	}

	var names []string
	for _, entry := range entries {
		names = append(names, entryNames(entry)...)
	}
	return names, nil
}

func entryNames(entry ct.LogEntry) []string {
	var cert *ctX509.Certificate
	switch {
	case entry.X509Cert != nil:
		cert = entry.X509Cert
	case entry.Precert != nil:
		pre, err := entry.Leaf.Precertificate()
		if err != nil {
			return nil
		}
		cert = pre
	default:
		return nil
	}

	var out []string
	if cn := strings.TrimSpace(cert.Subject.CommonName); cn != "" {
		out = append(out, strings.ToLower(cn))
	}
	for _, dns := range cert.DNSNames {
		if dns = strings.TrimSpace(dns); dns != "" {
			out = append(out, strings.ToLower(dns))
		}
	}
	return out
}
