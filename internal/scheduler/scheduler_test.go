package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/oguzkse/streamseek/pkg/models"
)

type scriptedValidator struct {
	winner    string
	delay     time.Duration
	cancelled atomic.Int32
	validated atomic.Int32
}

func (v *scriptedValidator) Validate(ctx context.Context, host string, paths []string) (models.Verdict, bool) {
	v.validated.Add(1)
	if host == v.winner {
		if v.delay > 0 {
			time.Sleep(v.delay)
		}
		return models.Verdict{
			BaseURL: fmt.Sprintf("https://%s/", host),
			Host:    host,
			Scheme:  "https",
		}, true
	}

	// losers hang until the race cancels them
	select {
	case <-ctx.Done():
		v.cancelled.Add(1)
	case <-time.After(5 * time.Second):
	}
	return models.Verdict{}, false
}

func TestRaceReturnsFirstWinner(t *testing.T) {
	t.Parallel()

	validator := &scriptedValidator{winner: "host3.sbs", delay: 10 * time.Millisecond}
	s := New(validator, 10, nil)

	hosts := []string{"host1.sbs", "host2.sbs", "host3.sbs", "host4.sbs", "host5.sbs"}
	start := time.Now()
	verdict, ok := s.RaceSinglePath(context.Background(), hosts, "/index.m3u8")
	elapsed := time.Since(start)

	if !ok {
		t.Fatal("expected a winner")
	}
	if verdict.BaseURL != "https://host3.sbs/" {
		t.Errorf("winner = %q, want https://host3.sbs/", verdict.BaseURL)
	}
	if elapsed > 2*time.Second {
		t.Errorf("race took %v, losers were not cancelled", elapsed)
	}
	if validator.cancelled.Load() != 4 {
		t.Errorf("cancelled losers = %d, want 4", validator.cancelled.Load())
	}
}

func TestRaceNoWinner(t *testing.T) {
	t.Parallel()

	validator := &scriptedValidator{winner: "nobody"}
	s := New(validator, 4, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if _, ok := s.RaceFullValidation(ctx, []string{"a.sbs", "b.sbs"}, nil); ok {
		t.Error("expected no winner")
	}
}

func TestRaceEmptyHostList(t *testing.T) {
	t.Parallel()

	s := New(&scriptedValidator{}, 4, nil)
	if _, ok := s.RaceSinglePath(context.Background(), nil, "/index.m3u8"); ok {
		t.Error("empty host list must not produce a winner")
	}
}

func TestRaceHonorsParentCancellation(t *testing.T) {
	t.Parallel()

	validator := &scriptedValidator{winner: "nobody"}
	s := New(validator, 4, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	if _, ok := s.RaceSinglePath(ctx, []string{"a.sbs", "b.sbs", "c.sbs"}, "/index.m3u8"); ok {
		t.Error("cancelled race must not report a winner")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("race outlived its context by %v", elapsed)
	}
}
