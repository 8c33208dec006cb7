package validation

import (
	"context"
	"fmt"
	"sync"
	"time"

	mdns "github.com/miekg/dns"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/oguzkse/streamseek/pkg/models"
	"github.com/oguzkse/streamseek/pkg/utils"
)

// DNSFilter drops candidates that do not resolve at all before any HTTP
// probing happens. Brute-force candidate sets are mostly NXDOMAIN noise and
// resolving is far cheaper than a TLS handshake.
type DNSFilter struct {
	cfg     models.DNSCheckConfig
	client  *mdns.Client
	logger  *logrus.Logger
	rotate  int
	rotateM sync.Mutex
}

func NewDNSFilter(cfg models.DNSCheckConfig, logger *logrus.Logger) *DNSFilter {
	if logger == nil {
		logger = logrus.New()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &DNSFilter{
		cfg: cfg,
		client: &mdns.Client{
			Net:          "udp",
			Timeout:      timeout,
			DialTimeout:  timeout,
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
			UDPSize:      1232,
		},
		logger: logger,
	}
}

// Filter returns the subset of hosts with at least one A or AAAA record.
// Sets at or below the configured threshold pass through untouched; the
// filter only pays off on large synthetic sets. Lookup errors keep the host
// (probing decides), only a clean NXDOMAIN drops it.
func (f *DNSFilter) Filter(ctx context.Context, hosts []string) []string {
	if !f.cfg.Enabled || len(hosts) <= f.cfg.Threshold {
		return hosts
	}

	var (
		mu   sync.Mutex
		kept = make([]string, 0, len(hosts))
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.cfg.Concurrency)

	for _, host := range hosts {
		host := host
		g.Go(func() error {
			if f.resolves(ctx, host) {
				mu.Lock()
				kept = append(kept, host)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	f.logger.Infof("DNS prefilter kept %d of %d candidates", len(kept), len(hosts))
	return kept
}

func (f *DNSFilter) resolves(ctx context.Context, host string) bool {
	for _, qtype := range []uint16{mdns.TypeA, mdns.TypeAAAA} {
		found, definitiveMiss := f.lookup(ctx, host, qtype)
		if found {
			return true
		}
		if definitiveMiss {
			return false
		}
	}
	// every lookup errored; let the HTTP probe decide
	return true
}

// lookup returns (record found, definitive NXDOMAIN). Transient failures
// retry once with backoff against the next nameserver.
func (f *DNSFilter) lookup(ctx context.Context, host string, qtype uint16) (bool, bool) {
	msg := new(mdns.Msg)
	msg.SetQuestion(mdns.Fqdn(host), qtype)
	msg.RecursionDesired = true

	var (
		found bool
		miss  bool
	)
	err := utils.RetryWithContext(ctx, 2, 200*time.Millisecond, func() error {
		resp, _, err := f.client.ExchangeContext(ctx, msg, f.nextServer())
		if err != nil {
			return fmt.Errorf("exchange %s: %w", host, err)
		}
		switch resp.Rcode {
		case mdns.RcodeSuccess:
			found = len(resp.Answer) > 0
			return nil
		case mdns.RcodeNameError:
			miss = true
			return nil
		default:
			return fmt.Errorf("exchange %s: rcode %s", host, mdns.RcodeToString[resp.Rcode])
		}
	})
	if err != nil {
		f.logger.Debugf("DNS lookup failed for %s: %v", host, err)
		return false, false
	}
	return found, miss
}

func (f *DNSFilter) nextServer() string {
	f.rotateM.Lock()
	defer f.rotateM.Unlock()
	server := f.cfg.Nameservers[f.rotate%len(f.cfg.Nameservers)]
	f.rotate++
	return server
}
