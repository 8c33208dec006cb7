package sources

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/oguzkse/streamseek/pkg/utils"
)

const userAgent = "streamseek/1.0"

// Source is one OSINT collaborator. Query returns raw hostnames associated
// with the naming pattern; it must not probe the hosts themselves.
type Source interface {
	Name() string
	Query(ctx context.Context, pattern string) ([]string, error)
	RateLimit() time.Duration
}

// Registry fans a pattern query out to every registered source. Source
// failures are logged and swallowed; the merged result only ever shrinks to
// empty, it never errors.
type Registry struct {
	sources      map[string]Source
	rateLimiters map[string]*rate.Limiter
	logger       *logrus.Logger
	mu           sync.RWMutex

	retryAttempts int
	retryBackoff  time.Duration
}

func NewRegistry(retryAttempts int, retryBackoff time.Duration, logger *logrus.Logger) *Registry {
	if logger == nil {
		logger = logrus.New()
	}
	if retryAttempts < 1 {
		retryAttempts = 1
	}
	return &Registry{
		sources:       make(map[string]Source),
		rateLimiters:  make(map[string]*rate.Limiter),
		logger:        logger,
		retryAttempts: retryAttempts,
		retryBackoff:  retryBackoff,
	}
}

func (r *Registry) Add(s Source) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := s.Name()
	if _, exists := r.sources[name]; exists {
		return fmt.Errorf("source %q already registered", name)
	}
	every := s.RateLimit()
	if every <= 0 {
		every = 250 * time.Millisecond
	}
	r.sources[name] = s
	r.rateLimiters[name] = rate.NewLimiter(rate.Every(every), 1)
	r.logger.Debugf("Registered discovery source: %s", name)
	return nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	return names
}

// QueryAll queries every source concurrently and returns hostnames keyed by
// source name. It never returns an error for individual source failures.
func (r *Registry) QueryAll(ctx context.Context, pattern string) map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var mu sync.Mutex
	results := make(map[string][]string, len(r.sources))
	g, ctx := errgroup.WithContext(ctx)

	for name, src := range r.sources {
		name, src := name, src
		g.Go(func() error {
			if err := r.rateLimiters[name].Wait(ctx); err != nil {
				return nil
			}

			var hosts []string
			err := utils.RetryWithContext(ctx, r.retryAttempts, r.retryBackoff, func() error {
				var qerr error
				hosts, qerr = src.Query(ctx, pattern)
				return qerr
			})
			if err != nil {
				r.logger.Warnf("Source %s failed: %v", name, err)
				return nil
			}

			mu.Lock()
			results[name] = hosts
			mu.Unlock()
			r.logger.Debugf("Source %s returned %d hostnames", name, len(hosts))
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// newHTTPClient builds the shared client used by HTTP-backed sources,
// mirroring the transport settings used for probing.
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   15 * time.Second,
			KeepAlive: 60 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// statusError converts a non-200 response into a retryable or permanent
// error: 4xx answers are definitive, everything else is transient.
func statusError(source string, status int, body string) error {
	err := fmt.Errorf("%s: status %d: %s", source, status, strings.TrimSpace(body))
	if status >= 400 && status < 500 {
		return utils.Permanent(err)
	}
	return err
}
