package models

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Global    GlobalConfig    `yaml:"global" json:"global"`
	Discovery DiscoveryConfig `yaml:"discovery" json:"discovery"`
	Probe     ProbeConfig     `yaml:"probe" json:"probe"`
	Cache     CacheConfig     `yaml:"cache" json:"cache"`
	Playlist  PlaylistConfig  `yaml:"playlist" json:"playlist"`
}

type GlobalConfig struct {
	LogLevel  string `yaml:"log_level" json:"log_level"`
	LogFormat string `yaml:"log_format" json:"log_format"`
	LogFile   string `yaml:"log_file" json:"log_file"`
	DataDir   string `yaml:"data_dir" json:"data_dir"`
}

type DiscoveryConfig struct {
	// Pattern is the naming pattern the provider's rotating domains share,
	// e.g. "zirvedesin". Sources search for hostnames matching it.
	Pattern        string        `yaml:"pattern" json:"pattern"`
	Suffix         string        `yaml:"suffix" json:"suffix"`
	DefaultBaseURL string        `yaml:"default_base_url" json:"default_base_url"`
	ManualListFile string        `yaml:"manual_list_file" json:"manual_list_file"`
	Timeout        time.Duration `yaml:"timeout" json:"timeout"`
	RetryAttempts  int           `yaml:"retry_attempts" json:"retry_attempts"`
	RetryBackoff   time.Duration `yaml:"retry_backoff" json:"retry_backoff"`

	CRTSH       SourceConfig     `yaml:"crtsh" json:"crtsh"`
	CertSpotter SourceConfig     `yaml:"certspotter" json:"certspotter"`
	RapidDNS    SourceConfig     `yaml:"rapiddns" json:"rapiddns"`
	Pages       PageSourceConfig `yaml:"pages" json:"pages"`
	CTStream    CTStreamConfig   `yaml:"ct_stream" json:"ct_stream"`
	Headless    HeadlessConfig   `yaml:"headless" json:"headless"`
	BruteForce  BruteForceConfig `yaml:"brute_force" json:"brute_force"`
	DNSCheck    DNSCheckConfig   `yaml:"dns_check" json:"dns_check"`
}

type SourceConfig struct {
	Enabled   bool          `yaml:"enabled" json:"enabled"`
	BaseURL   string        `yaml:"base_url" json:"base_url"`
	RateLimit time.Duration `yaml:"rate_limit" json:"rate_limit"`
}

type PageSourceConfig struct {
	Enabled   bool          `yaml:"enabled" json:"enabled"`
	URLFormat string        `yaml:"url_format" json:"url_format"`
	Start     int           `yaml:"start" json:"start"`
	End       int           `yaml:"end" json:"end"`
	MaxPages  int           `yaml:"max_pages" json:"max_pages"`
	RateLimit time.Duration `yaml:"rate_limit" json:"rate_limit"`
}

type CTStreamConfig struct {
	Enabled   bool          `yaml:"enabled" json:"enabled"`
	LogURLs   []string      `yaml:"log_urls" json:"log_urls"`
	BatchSize int64         `yaml:"batch_size" json:"batch_size"`
	RateLimit time.Duration `yaml:"rate_limit" json:"rate_limit"`
}

type HeadlessConfig struct {
	Enabled   bool          `yaml:"enabled" json:"enabled"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent string        `yaml:"user_agent" json:"user_agent"`
}

type BruteForceConfig struct {
	Labels   []string `yaml:"labels" json:"labels"`
	TLDs     []string `yaml:"tlds" json:"tlds"`
	SwapTLDs []string `yaml:"swap_tlds" json:"swap_tlds"`
	MaxIndex int      `yaml:"max_index" json:"max_index"`
	MaxTotal int      `yaml:"max_total" json:"max_total"`
}

type DNSCheckConfig struct {
	Enabled     bool          `yaml:"enabled" json:"enabled"`
	Nameservers []string      `yaml:"nameservers" json:"nameservers"`
	Threshold   int           `yaml:"threshold" json:"threshold"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
	Concurrency int           `yaml:"concurrency" json:"concurrency"`
}

type ProbeConfig struct {
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
	Concurrency  int           `yaml:"concurrency" json:"concurrency"`
	MaxRedirects int           `yaml:"max_redirects" json:"max_redirects"`
	BodyLimit    int           `yaml:"body_limit" json:"body_limit"`
	Paths        []string      `yaml:"paths" json:"paths"`
}

type CacheConfig struct {
	File     string        `yaml:"file" json:"file"`
	TTL      time.Duration `yaml:"ttl" json:"ttl"`
	ShortTTL time.Duration `yaml:"short_ttl" json:"short_ttl"`
}

type PlaylistConfig struct {
	OutputFile string            `yaml:"output_file" json:"output_file"`
	Referrer   string            `yaml:"referrer" json:"referrer"`
	GroupTitle string            `yaml:"group_title" json:"group_title"`
	Channels   map[string]string `yaml:"channels" json:"channels"`
}

func DefaultConfig() *Config {
	return &Config{
		Global: GlobalConfig{
			LogLevel:  "info",
			LogFormat: "text",
			DataDir:   "./data",
		},
		Discovery: DiscoveryConfig{
			Pattern:        "zirvedesin",
			Suffix:         "zirvedesin.sbs",
			DefaultBaseURL: "https://kodiaq.zirvedesin24.sbs/",
			ManualListFile: "./data/domains.txt",
			Timeout:        10 * time.Minute,
			RetryAttempts:  2,
			RetryBackoff:   500 * time.Millisecond,
			CRTSH: SourceConfig{
				Enabled:   true,
				BaseURL:   "https://crt.sh",
				RateLimit: time.Second,
			},
			CertSpotter: SourceConfig{
				Enabled:   true,
				BaseURL:   "https://api.certspotter.com/v1",
				RateLimit: time.Second,
			},
			RapidDNS: SourceConfig{
				Enabled:   true,
				BaseURL:   "https://rapiddns.io",
				RateLimit: 2 * time.Second,
			},
			Pages: PageSourceConfig{
				Enabled:   true,
				URLFormat: "https://dengetv%d.live/",
				Start:     50,
				End:       60,
				MaxPages:  8,
				RateLimit: time.Second,
			},
			CTStream: CTStreamConfig{
				Enabled:   false,
				LogURLs:   []string{"https://ct.googleapis.com/logs/us1/argon2025h2"},
				BatchSize: 256,
				RateLimit: 200 * time.Millisecond,
			},
			Headless: HeadlessConfig{
				Enabled: false,
				Timeout: 30 * time.Second,
			},
			BruteForce: BruteForceConfig{
				Labels:   []string{"kodiaq", "zirve", "yayin", "cdn", "stream", "canli", "tv", "live"},
				TLDs:     []string{"sbs", "xyz", "fun", "site", "online"},
				SwapTLDs: []string{"sbs"},
				MaxIndex: 60,
				MaxTotal: 2400,
			},
			DNSCheck: DNSCheckConfig{
				Enabled:     true,
				Nameservers: []string{"8.8.8.8:53", "1.1.1.1:53"},
				Threshold:   200,
				Timeout:     3 * time.Second,
				Concurrency: 50,
			},
		},
		Probe: ProbeConfig{
			Timeout:      8 * time.Second,
			Concurrency:  30,
			MaxRedirects: 5,
			BodyLimit:    4000,
			Paths: []string{
				"/yayinzirve.m3u8",
				"/yayin1.m3u8",
				"/index.m3u8",
				"/playlist.m3u8",
			},
		},
		Cache: CacheConfig{
			File:     "./data/discovery_cache.json",
			TTL:      12 * time.Hour,
			ShortTTL: 5 * time.Minute,
		},
		Playlist: PlaylistConfig{
			OutputFile: "./data/playlist.m3u",
			GroupTitle: "Live",
			Channels:   map[string]string{},
		},
	}
}

func (c *Config) Validate() error {
	var errs []string

	switch strings.ToLower(c.Global.LogLevel) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic":
	default:
		errs = append(errs, "global.log_level must be one of trace|debug|info|warn|error|fatal|panic")
	}
	if c.Discovery.Pattern == "" {
		errs = append(errs, "discovery.pattern must not be empty")
	}
	if c.Discovery.DefaultBaseURL == "" {
		errs = append(errs, "discovery.default_base_url must not be empty")
	}
	if !strings.HasSuffix(c.Discovery.DefaultBaseURL, "/") {
		errs = append(errs, "discovery.default_base_url must end with a trailing slash")
	}
	if c.Discovery.Timeout <= 0 {
		errs = append(errs, "discovery.timeout must be > 0")
	}
	if c.Discovery.RetryAttempts < 0 {
		errs = append(errs, "discovery.retry_attempts must be >= 0")
	}
	if c.Discovery.Pages.Enabled {
		if c.Discovery.Pages.URLFormat == "" {
			errs = append(errs, "discovery.pages.url_format must not be empty when pages are enabled")
		}
		if c.Discovery.Pages.Start > c.Discovery.Pages.End {
			errs = append(errs, "discovery.pages.start must be <= end")
		}
	}
	if c.Discovery.CTStream.Enabled && len(c.Discovery.CTStream.LogURLs) == 0 {
		errs = append(errs, "discovery.ct_stream.log_urls must not be empty when ct_stream is enabled")
	}
	if c.Discovery.DNSCheck.Enabled {
		if len(c.Discovery.DNSCheck.Nameservers) == 0 {
			errs = append(errs, "discovery.dns_check.nameservers must not be empty when dns_check is enabled")
		}
		if c.Discovery.DNSCheck.Concurrency <= 0 {
			errs = append(errs, "discovery.dns_check.concurrency must be > 0")
		}
	}
	if c.Probe.Timeout <= 0 {
		errs = append(errs, "probe.timeout must be > 0")
	}
	if c.Probe.Concurrency <= 0 {
		errs = append(errs, "probe.concurrency must be > 0")
	}
	if c.Probe.BodyLimit <= 0 {
		errs = append(errs, "probe.body_limit must be > 0")
	}
	if len(c.Probe.Paths) == 0 {
		errs = append(errs, "probe.paths must include at least one path")
	}
	for _, p := range c.Probe.Paths {
		if !strings.HasPrefix(p, "/") {
			errs = append(errs, fmt.Sprintf("probe.path %q must start with /", p))
		}
	}
	if c.Cache.File == "" {
		errs = append(errs, "cache.file must not be empty")
	}
	if c.Cache.TTL <= 0 {
		errs = append(errs, "cache.ttl must be > 0")
	}
	if c.Cache.ShortTTL <= 0 || c.Cache.ShortTTL > c.Cache.TTL {
		errs = append(errs, "cache.short_ttl must be > 0 and <= cache.ttl")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(c, "", "  ")
	default:
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("atomically write config: %w", err)
	}
	return nil
}

func (c *Config) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse yaml: %w", err)
		}
	}

	return c.Validate()
}

// PathHints returns up to n channel resource files usable as extra probe
// paths when the primary playlist names fail.
func (c *Config) PathHints(n int) []string {
	if n <= 0 || len(c.Playlist.Channels) == 0 {
		return nil
	}
	names := make([]string, 0, len(c.Playlist.Channels))
	for name := range c.Playlist.Channels {
		names = append(names, name)
	}
	sort.Strings(names)

	hints := make([]string, 0, n)
	for _, name := range names {
		file := c.Playlist.Channels[name]
		if file == "" {
			continue
		}
		if !strings.HasPrefix(file, "/") {
			file = "/" + file
		}
		hints = append(hints, file)
		if len(hints) == n {
			break
		}
	}
	return hints
}
