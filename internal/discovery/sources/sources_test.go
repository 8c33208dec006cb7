package sources

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/oguzkse/streamseek/pkg/utils"
)

type fakeSource struct {
	name  string
	hosts []string
	err   error
	calls int
}

func (f *fakeSource) Name() string             { return f.name }
func (f *fakeSource) RateLimit() time.Duration { return time.Millisecond }

func (f *fakeSource) Query(ctx context.Context, pattern string) ([]string, error) {
	f.calls++
	return f.hosts, f.err
}

func TestRegistryQueryAll(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(1, time.Millisecond, nil)
	good := &fakeSource{name: "good", hosts: []string{"a.example.sbs", "b.example.sbs"}}
	bad := &fakeSource{name: "bad", err: errors.New("upstream down")}
	if err := reg.Add(good); err != nil {
		t.Fatal(err)
	}
	if err := reg.Add(bad); err != nil {
		t.Fatal(err)
	}

	results := reg.QueryAll(context.Background(), "example")
	if !reflect.DeepEqual(results["good"], good.hosts) {
		t.Errorf("good source results = %v, want %v", results["good"], good.hosts)
	}
	if _, ok := results["bad"]; ok {
		t.Error("failed source must not contribute results")
	}
}

func TestRegistryRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(3, time.Millisecond, nil)
	flaky := &fakeSource{name: "flaky", err: errors.New("timeout")}
	if err := reg.Add(flaky); err != nil {
		t.Fatal(err)
	}

	reg.QueryAll(context.Background(), "example")
	if flaky.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", flaky.calls)
	}
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(1, time.Millisecond, nil)
	if err := reg.Add(&fakeSource{name: "dup"}); err != nil {
		t.Fatal(err)
	}
	if err := reg.Add(&fakeSource{name: "dup"}); err == nil {
		t.Error("expected duplicate registration to fail")
	}
}

func TestStatusError(t *testing.T) {
	t.Parallel()

	if !utils.IsPermanent(statusError("crtsh", 404, "not found")) {
		t.Error("4xx must be permanent")
	}
	if utils.IsPermanent(statusError("crtsh", 503, "overloaded")) {
		t.Error("5xx must stay retryable")
	}
}
