package scheduler

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/oguzkse/streamseek/pkg/models"
)

// HostValidator is the per-candidate validation the scheduler races.
type HostValidator interface {
	Validate(ctx context.Context, host string, paths []string) (models.Verdict, bool)
}

// Scheduler races candidate validations under a concurrency cap and
// returns the first accepted verdict, cancelling everything else.
type Scheduler struct {
	validator   HostValidator
	concurrency int
	logger      *logrus.Logger
}

func New(validator HostValidator, concurrency int, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.New()
	}
	if concurrency <= 0 {
		concurrency = 30
	}
	return &Scheduler{
		validator:   validator,
		concurrency: concurrency,
		logger:      logger,
	}
}

// RaceSinglePath checks every candidate against one path only (both
// schemes). Breadth-optimized: cheap per host, many hosts in flight.
func (s *Scheduler) RaceSinglePath(ctx context.Context, hosts []string, path string) (models.Verdict, bool) {
	return s.race(ctx, hosts, []string{path})
}

// RaceFullValidation runs the complete multi-path validation per candidate.
// An empty paths slice lets the validator use its default list.
func (s *Scheduler) RaceFullValidation(ctx context.Context, hosts []string, paths []string) (models.Verdict, bool) {
	return s.race(ctx, hosts, paths)
}

func (s *Scheduler) race(ctx context.Context, hosts []string, paths []string) (models.Verdict, bool) {
	if len(hosts) == 0 {
		return models.Verdict{}, false
	}

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu     sync.Mutex
		winner models.Verdict
		won    bool
	)

	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)

	for _, host := range hosts {
		if raceCtx.Err() != nil {
			break
		}
		host := host
		g.Go(func() error {
			if raceCtx.Err() != nil {
				return nil
			}
			verdict, ok := s.validator.Validate(raceCtx, host, paths)
			if !ok {
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			// only the first acceptance counts; late finishers are
			// discarded along with any result produced after cancellation
			if !won && raceCtx.Err() == nil {
				won = true
				winner = verdict
				cancel()
			}
			return nil
		})
	}

	_ = g.Wait()

	mu.Lock()
	defer mu.Unlock()
	if won {
		s.logger.Infof("Race won by %s", winner.BaseURL)
	}
	return winner, won
}
