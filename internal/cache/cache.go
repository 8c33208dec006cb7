package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/zeebo/xxh3"

	"github.com/oguzkse/streamseek/pkg/models"
)

// Cache persists the last discovery outcome as a single JSON record.
// Unreadable or unwritable state degrades to "no cache"; the caller then
// rediscovers.
type Cache struct {
	path       string
	ttl        time.Duration
	shortTTL   time.Duration
	defaultURL string
	logger     *logrus.Logger
}

func New(cfg models.CacheConfig, defaultURL string, logger *logrus.Logger) *Cache {
	if logger == nil {
		logger = logrus.New()
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	shortTTL := cfg.ShortTTL
	if shortTTL <= 0 {
		shortTTL = 5 * time.Minute
	}
	return &Cache{
		path:       cfg.File,
		ttl:        ttl,
		shortTTL:   shortTTL,
		defaultURL: defaultURL,
		logger:     logger,
	}
}

// Load reads the record from disk. Any failure yields (zero, false).
func (c *Cache) Load() (models.CacheRecord, bool) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.Warnf("Cache unreadable, rediscovering: %v", err)
		}
		return models.CacheRecord{}, false
	}
	var rec models.CacheRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		c.logger.Warnf("Cache corrupt, rediscovering: %v", err)
		return models.CacheRecord{}, false
	}
	if rec.BaseURL == "" || rec.Timestamp <= 0 {
		return models.CacheRecord{}, false
	}
	return rec, true
}

// Usable decides whether a loaded record may short-circuit discovery.
// Organic results honor the full TTL. The fallback default gets the full
// TTL only when the run that produced it actually had candidates to reject
// (a confirmed negative); a default pinned by an empty-candidate run
// expires on the short TTL so one barren run cannot lock it in.
func (c *Cache) Usable(rec models.CacheRecord, now time.Time) bool {
	age := rec.Age(now)
	if age < 0 {
		return false
	}
	if rec.BaseURL == c.defaultURL {
		if len(rec.Candidates) > 0 {
			return age < c.ttl
		}
		return age < c.shortTTL
	}
	return age < c.ttl
}

// Store atomically replaces the record. Exactly one write happens per
// discovery run; failures are logged, never fatal.
func (c *Cache) Store(rec models.CacheRecord) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache record: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), ".cache_*.json.tmp")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write temp cache file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("sync temp cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close temp cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("atomic rename: %w", err)
	}

	c.logger.Debugf("Cached %s (snapshot %d hosts, fp=%s)",
		rec.BaseURL, len(rec.Candidates), SnapshotFingerprint(rec.Candidates))
	return nil
}

// SnapshotFingerprint is a short stable digest of a candidate snapshot,
// used to spot churn between runs in the logs.
func SnapshotFingerprint(candidates []string) string {
	if len(candidates) == 0 {
		return "empty"
	}
	h := xxh3.HashString(strings.Join(candidates, "\n"))
	return fmt.Sprintf("%012x", h&0xffffffffffff)
}
