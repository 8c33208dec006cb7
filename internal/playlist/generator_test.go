package playlist

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/oguzkse/streamseek/pkg/models"
)

func testPlaylistConfig(outputFile string) models.PlaylistConfig {
	return models.PlaylistConfig{
		OutputFile: outputFile,
		Referrer:   "https://dengetv54.live/",
		GroupTitle: "Live",
		Channels: map[string]string{
			"Kanal B": "yayin1.m3u8",
			"Kanal A": "/yayinzirve.m3u8",
		},
	}
}

func TestRender(t *testing.T) {
	t.Parallel()

	g := NewGenerator(testPlaylistConfig(""), nil)
	got := g.Render("https://kodiaq.zirvedesin24.sbs/")

	want := `#EXTM3U
#EXTINF:-1 group-title="Live",Kanal A
#EXTVLCOPT:http-referrer=https://dengetv54.live/
https://kodiaq.zirvedesin24.sbs/yayinzirve.m3u8
#EXTINF:-1 group-title="Live",Kanal B
#EXTVLCOPT:http-referrer=https://dengetv54.live/
https://kodiaq.zirvedesin24.sbs/yayin1.m3u8
`
	if got != want {
		t.Errorf("Render() =\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderAddsTrailingSlash(t *testing.T) {
	t.Parallel()

	g := NewGenerator(testPlaylistConfig(""), nil)
	got := g.Render("https://kodiaq.zirvedesin24.sbs")
	if !strings.Contains(got, "https://kodiaq.zirvedesin24.sbs/yayin1.m3u8") {
		t.Errorf("missing slash between base URL and file:\n%s", got)
	}
}

func TestRenderWithoutReferrer(t *testing.T) {
	t.Parallel()

	cfg := testPlaylistConfig("")
	cfg.Referrer = ""
	g := NewGenerator(cfg, nil)
	if strings.Contains(g.Render("https://x.sbs/"), "#EXTVLCOPT") {
		t.Error("no referrer configured, no EXTVLCOPT line expected")
	}
}

func TestRenderDeterministic(t *testing.T) {
	t.Parallel()

	g := NewGenerator(testPlaylistConfig(""), nil)
	first := g.Render("https://x.sbs/")
	for i := 0; i < 10; i++ {
		if g.Render("https://x.sbs/") != first {
			t.Fatal("Render output varies across calls with identical input")
		}
	}
}

func TestWrite(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "playlist.m3u")
	g := NewGenerator(testPlaylistConfig(out), nil)

	if err := g.Write("https://kodiaq.zirvedesin24.sbs/"); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "#EXTM3U\n") {
		t.Errorf("playlist must start with #EXTM3U, got:\n%s", data)
	}
	if !strings.Contains(string(data), "Kanal A") {
		t.Error("playlist missing configured channel")
	}
}
