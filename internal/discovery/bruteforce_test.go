package discovery

import (
	"reflect"
	"testing"

	"github.com/oguzkse/streamseek/pkg/models"
)

func TestGenerateBruteForce(t *testing.T) {
	t.Parallel()

	cfg := models.BruteForceConfig{
		Labels:   []string{"app"},
		TLDs:     []string{"xyz"},
		SwapTLDs: []string{"sbs"},
		MaxIndex: 2,
		MaxTotal: 100,
	}
	want := []string{
		"app.sbs", "app.xyz",
		"app1.sbs", "app1.xyz",
		"app2.sbs", "app2.xyz",
	}
	got := GenerateBruteForce(cfg)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("GenerateBruteForce() = %v, want %v", got, want)
	}
}

func TestGenerateBruteForceDeterministic(t *testing.T) {
	t.Parallel()

	cfg := models.BruteForceConfig{
		Labels:   []string{"kodiaq", "zirve", "yayin"},
		TLDs:     []string{"sbs", "xyz"},
		MaxIndex: 10,
		MaxTotal: 500,
	}
	first := GenerateBruteForce(cfg)
	second := GenerateBruteForce(cfg)
	if !reflect.DeepEqual(first, second) {
		t.Error("GenerateBruteForce is not deterministic across runs")
	}
	if len(first) != 3*2*11 {
		t.Errorf("expected %d hosts, got %d", 3*2*11, len(first))
	}
}

func TestGenerateBruteForceRespectsCap(t *testing.T) {
	t.Parallel()

	cfg := models.BruteForceConfig{
		Labels:   []string{"a", "b", "c"},
		TLDs:     []string{"xyz", "fun"},
		MaxIndex: 50,
		MaxTotal: 7,
	}
	got := GenerateBruteForce(cfg)
	if len(got) > 7 {
		t.Errorf("cap exceeded: %d hosts generated", len(got))
	}
}

func TestGenerateBruteForceSwapCapDeterministic(t *testing.T) {
	t.Parallel()

	// swap cap (2*max_total) triggers mid-pass; the surviving variants must
	// still be the same on every run
	cfg := models.BruteForceConfig{
		Labels:   []string{"kodiaq", "zirve", "yayin", "cdn"},
		TLDs:     []string{"xyz", "fun"},
		SwapTLDs: []string{"sbs", "site", "online"},
		MaxIndex: 3,
		MaxTotal: 20,
	}
	first := GenerateBruteForce(cfg)
	if len(first) > 2*cfg.MaxTotal {
		t.Fatalf("swap cap exceeded: %d hosts", len(first))
	}
	for i := 0; i < 20; i++ {
		if !reflect.DeepEqual(GenerateBruteForce(cfg), first) {
			t.Fatal("capped swap pass varies across runs")
		}
	}
}

func TestGenerateBruteForceEmptyInputs(t *testing.T) {
	t.Parallel()

	if got := GenerateBruteForce(models.BruteForceConfig{TLDs: []string{"xyz"}}); got != nil {
		t.Errorf("expected nil for missing labels, got %v", got)
	}
	if got := GenerateBruteForce(models.BruteForceConfig{Labels: []string{"a"}}); got != nil {
		t.Errorf("expected nil for missing TLDs, got %v", got)
	}
}
