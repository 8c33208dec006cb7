package orchestration

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oguzkse/streamseek/pkg/models"
	"github.com/oguzkse/streamseek/pkg/utils"
)

// CandidateSource produces the candidate set for one run.
type CandidateSource interface {
	Aggregate(ctx context.Context) []string
}

// CandidateFilter may thin a candidate set before probing (DNS prefilter).
type CandidateFilter interface {
	Filter(ctx context.Context, hosts []string) []string
}

// ProbeRacer races candidates to the first accepted verdict.
type ProbeRacer interface {
	RaceSinglePath(ctx context.Context, hosts []string, path string) (models.Verdict, bool)
	RaceFullValidation(ctx context.Context, hosts []string, paths []string) (models.Verdict, bool)
}

// ResultCache persists and gates discovery outcomes.
type ResultCache interface {
	Load() (models.CacheRecord, bool)
	Usable(rec models.CacheRecord, now time.Time) bool
	Store(rec models.CacheRecord) error
}

// Orchestrator runs the top-level discovery policy:
// cache -> single-path race -> full validation race -> configured default.
// Every terminal except a cache hit writes exactly one cache record, and
// Discover always returns a usable base URL.
type Orchestrator struct {
	cfg        models.Config
	candidates CandidateSource
	filter     CandidateFilter
	racer      ProbeRacer
	cache      ResultCache
	metrics    *utils.Metrics
	logger     *logrus.Logger
	now        func() time.Time
}

func New(cfg models.Config, candidates CandidateSource, filter CandidateFilter, racer ProbeRacer, cache ResultCache, metrics *utils.Metrics, logger *logrus.Logger) *Orchestrator {
	if logger == nil {
		logger = logrus.New()
	}
	return &Orchestrator{
		cfg:        cfg,
		candidates: candidates,
		filter:     filter,
		racer:      racer,
		cache:      cache,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

func (o *Orchestrator) Discover(ctx context.Context) string {
	start := o.now()

	if rec, ok := o.cache.Load(); ok && o.cache.Usable(rec, o.now()) {
		o.logger.Infof("Using cached base URL %s (age %s)", rec.BaseURL, rec.Age(o.now()).Round(time.Second))
		o.metrics.ObserveDiscovery("cache", o.now().Sub(start))
		return rec.BaseURL
	}

	if o.cfg.Discovery.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.Discovery.Timeout)
		defer cancel()
	}

	tried := o.candidates.Aggregate(ctx)
	if o.filter != nil {
		tried = o.filter.Filter(ctx, tried)
	}

	if len(tried) > 0 {
		// the cheap sweep needs a primary path; with none configured the
		// validator's defaults only apply in the full race
		if len(o.cfg.Probe.Paths) > 0 {
			primary := o.cfg.Probe.Paths[0]
			if verdict, ok := o.racer.RaceSinglePath(ctx, tried, primary); ok {
				o.persist(verdict.BaseURL, tried)
				o.metrics.ObserveDiscovery("single_path", o.now().Sub(start))
				return verdict.BaseURL
			}
			o.logger.Info("Single-path sweep found nothing, running full validation")
		}

		if verdict, ok := o.racer.RaceFullValidation(ctx, tried, o.fullPaths()); ok {
			o.persist(verdict.BaseURL, tried)
			o.metrics.ObserveDiscovery("multi_path", o.now().Sub(start))
			return verdict.BaseURL
		}
	}

	fallback := o.cfg.Discovery.DefaultBaseURL
	o.logger.Warnf("No candidate validated, falling back to default %s", fallback)
	o.persist(fallback, tried)
	o.metrics.ObserveDiscovery("default", o.now().Sub(start))
	return fallback
}

// fullPaths is the configured probe list extended with a few channel file
// names from the playlist config. Hosts mid-rotation sometimes serve the
// channel files before the index reappears.
func (o *Orchestrator) fullPaths() []string {
	paths := append([]string{}, o.cfg.Probe.Paths...)
	seen := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		seen[p] = struct{}{}
	}
	for _, hint := range o.cfg.PathHints(4) {
		if _, ok := seen[hint]; ok {
			continue
		}
		seen[hint] = struct{}{}
		paths = append(paths, hint)
	}
	return paths
}

func (o *Orchestrator) persist(baseURL string, tried []string) {
	rec := models.CacheRecord{
		BaseURL:    baseURL,
		Timestamp:  o.now().Unix(),
		Candidates: tried,
	}
	if err := o.cache.Store(rec); err != nil {
		o.logger.Warnf("Failed to persist discovery result: %v", err)
	}
}
