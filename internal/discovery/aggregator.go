package discovery

import (
	"bufio"
	"context"
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oguzkse/streamseek/pkg/models"
	"github.com/oguzkse/streamseek/pkg/utils"
)

// SourceQuerier is the aggregator's view of the OSINT source registry.
type SourceQuerier interface {
	QueryAll(ctx context.Context, pattern string) map[string][]string
}

// Aggregator merges hostnames from OSINT sources, the manual allow-list and
// (only when everything else came up empty) the brute-force generator into
// one normalized candidate set.
type Aggregator struct {
	sources    SourceQuerier
	pattern    string
	manualFile string
	bruteForce models.BruteForceConfig
	logger     *logrus.Logger
	metrics    *utils.Metrics
}

func NewAggregator(sources SourceQuerier, cfg models.DiscoveryConfig, metrics *utils.Metrics, logger *logrus.Logger) *Aggregator {
	if logger == nil {
		logger = logrus.New()
	}
	return &Aggregator{
		sources:    sources,
		pattern:    cfg.Pattern,
		manualFile: cfg.ManualListFile,
		bruteForce: cfg.BruteForce,
		logger:     logger,
		metrics:    metrics,
	}
}

// Aggregate returns the sorted candidate set for one discovery run. It
// never fails: every contributing source degrades to an empty set.
func (a *Aggregator) Aggregate(ctx context.Context) []string {
	set := make(map[string]struct{}, 128)

	manual := a.loadManualList()
	addAll(set, manual)
	a.metrics.AddCandidates("manual", len(manual))

	if a.sources != nil {
		for name, hosts := range a.sources.QueryAll(ctx, a.pattern) {
			added := addAll(set, hosts)
			a.metrics.AddCandidates(name, added)
			a.logger.Infof("Source %s contributed %d candidates (%d new)", name, len(hosts), added)
		}
	}

	if len(set) == 0 {
		a.logger.Info("No candidates from any source, falling back to brute-force generation")
		synthetic := GenerateBruteForce(a.bruteForce)
		added := addAll(set, synthetic)
		a.metrics.AddCandidates("bruteforce", added)
	}

	out := make([]string, 0, len(set))
	for host := range set {
		out = append(out, host)
	}
	sort.Strings(out)

	a.metrics.SetCandidateSetSize(len(out))
	a.logger.Infof("Aggregated %d candidates", len(out))
	return out
}

func addAll(set map[string]struct{}, hosts []string) int {
	added := 0
	for _, raw := range hosts {
		host := Normalize(raw)
		if !ValidCandidate(host) {
			continue
		}
		if _, dup := set[host]; dup {
			continue
		}
		set[host] = struct{}{}
		added++
	}
	return added
}

// loadManualList reads the allow-list file: one hostname per line, blank
// lines and #-comments ignored. A missing file is not an error.
func (a *Aggregator) loadManualList() []string {
	if a.manualFile == "" {
		return nil
	}
	f, err := os.Open(a.manualFile)
	if err != nil {
		if !os.IsNotExist(err) {
			a.logger.Warnf("Failed to read manual domain list %s: %v", a.manualFile, err)
		}
		return nil
	}
	defer f.Close()

	var hosts []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		hosts = append(hosts, line)
	}
	if err := sc.Err(); err != nil {
		a.logger.Warnf("Failed to scan manual domain list %s: %v", a.manualFile, err)
	}
	return hosts
}
