package headless

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestNopRenderer(t *testing.T) {
	t.Parallel()

	var r Renderer = NopRenderer{}
	html, err := r.Render(context.Background(), "https://dengetv50.live/")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if html != "" {
		t.Errorf("Render() = %q, want empty", html)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestPlaywrightRendererDefaults(t *testing.T) {
	t.Parallel()

	r := NewPlaywrightRenderer(0, "", logrus.New())
	if r.timeout != 30*time.Second {
		t.Errorf("timeout = %v, want 30s default", r.timeout)
	}
	if r.userAgent == "" {
		t.Error("expected a default user agent")
	}
	// never initialized, so Close must be a no-op
	if err := r.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
