package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/oguzkse/streamseek/pkg/models"
)

type fakeRenderer struct {
	html  string
	calls int
}

func (f *fakeRenderer) Render(ctx context.Context, url string) (string, error) {
	f.calls++
	return f.html, nil
}

func (f *fakeRenderer) Close() error { return nil }

func TestPagesQueryStatic(t *testing.T) {
	t.Parallel()

	var pagesServed []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pagesServed = append(pagesServed, r.URL.Path)
		fmt.Fprintf(w, `<html><body>
			<iframe src="https://kodiaq.zirvedesin24.sbs/yayinzirve.m3u8"></iframe>
			<a href="https://unrelated.example.com/page">other</a>
			<script>var backup = "cdn.zirvedesin24.sbs";</script>
		</body></html>`)
	}))
	defer srv.Close()

	cfg := models.PageSourceConfig{
		Enabled:   true,
		URLFormat: srv.URL + "/page%d",
		Start:     50,
		End:       55,
		MaxPages:  2,
	}
	renderer := &fakeRenderer{}
	src := NewPagesSource(cfg, renderer, 5*time.Second, nil)

	hosts, err := src.Query(context.Background(), "zirvedesin")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	want := []string{"kodiaq.zirvedesin24.sbs", "cdn.zirvedesin24.sbs"}
	if !reflect.DeepEqual(hosts, want) {
		t.Errorf("Query() = %v, want %v", hosts, want)
	}
	if len(pagesServed) != 2 {
		t.Errorf("expected max_pages to cap fetches at 2, served %v", pagesServed)
	}
	if renderer.calls != 0 {
		t.Errorf("renderer must not run when static extraction succeeds, ran %d times", renderer.calls)
	}
}

func TestPagesQueryFallsBackToRenderer(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><div id="app"></div></body></html>`)
	}))
	defer srv.Close()

	cfg := models.PageSourceConfig{
		Enabled:   true,
		URLFormat: srv.URL + "/page%d",
		Start:     1,
		End:       1,
	}
	renderer := &fakeRenderer{html: `<video src="https://kodiaq.zirvedesin24.sbs/index.m3u8"></video>`}
	src := NewPagesSource(cfg, renderer, 5*time.Second, nil)

	hosts, err := src.Query(context.Background(), "zirvedesin")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if renderer.calls != 1 {
		t.Fatalf("expected one render call, got %d", renderer.calls)
	}
	want := []string{"kodiaq.zirvedesin24.sbs"}
	if !reflect.DeepEqual(hosts, want) {
		t.Errorf("Query() = %v, want %v", hosts, want)
	}
}
