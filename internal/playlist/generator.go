package playlist

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oguzkse/streamseek/pkg/models"
)

// Generator renders an M3U playlist pointing every configured channel at
// the discovered base URL.
type Generator struct {
	cfg    models.PlaylistConfig
	logger *logrus.Logger
}

func NewGenerator(cfg models.PlaylistConfig, logger *logrus.Logger) *Generator {
	if logger == nil {
		logger = logrus.New()
	}
	return &Generator{cfg: cfg, logger: logger}
}

// Render produces the playlist text for the given base URL. Channels are
// emitted in name order so reruns with an unchanged config produce
// byte-identical output.
func (g *Generator) Render(baseURL string) string {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	names := make([]string, 0, len(g.cfg.Channels))
	for name := range g.cfg.Channels {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	for _, name := range names {
		file := strings.TrimPrefix(g.cfg.Channels[name], "/")
		if file == "" {
			continue
		}
		fmt.Fprintf(&b, "#EXTINF:-1 group-title=%q,%s\n", g.cfg.GroupTitle, name)
		if g.cfg.Referrer != "" {
			fmt.Fprintf(&b, "#EXTVLCOPT:http-referrer=%s\n", g.cfg.Referrer)
		}
		b.WriteString(baseURL + file + "\n")
	}
	return b.String()
}

// Write renders the playlist and atomically replaces the output file.
func (g *Generator) Write(baseURL string) error {
	content := g.Render(baseURL)

	if err := os.MkdirAll(filepath.Dir(g.cfg.OutputFile), 0o755); err != nil {
		return fmt.Errorf("create playlist dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(g.cfg.OutputFile), ".playlist_*.m3u.tmp")
	if err != nil {
		return fmt.Errorf("create temp playlist: %w", err)
	}
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write temp playlist: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close temp playlist: %w", err)
	}
	if err := os.Rename(tmp.Name(), g.cfg.OutputFile); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("atomic rename: %w", err)
	}

	g.logger.Infof("Wrote playlist with %d channels to %s", len(g.cfg.Channels), g.cfg.OutputFile)
	return nil
}
