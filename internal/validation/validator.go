package validation

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oguzkse/streamseek/pkg/models"
)

// contentMarkers are the playlist-format substrings accepted as evidence
// that a host genuinely serves stream indexes.
var contentMarkers = []string{"EXTM3U", ".m3u8", "#EXTINF"}

// Schemes in fixed trial order; https always first.
var schemes = []string{"https", "http"}

func existsStatus(code int) bool {
	switch code {
	case 200, 206, 301, 302:
		return true
	}
	return false
}

// ProbeClient is the subset of Prober the validator needs; tests supply
// stubs.
type ProbeClient interface {
	Head(ctx context.Context, url string) (*models.ProbeResult, error)
	Get(ctx context.Context, url string) (*models.ProbeResult, error)
}

// Validator decides whether a candidate host serves the expected resource.
type Validator struct {
	prober       ProbeClient
	defaultPaths []string
	logger       *logrus.Logger
}

func NewValidator(prober ProbeClient, defaultPaths []string, logger *logrus.Logger) *Validator {
	if logger == nil {
		logger = logrus.New()
	}
	return &Validator{
		prober:       prober,
		defaultPaths: defaultPaths,
		logger:       logger,
	}
}

// Validate tries every (scheme, path) pair in fixed order and returns the
// base URL on first acceptance. HEAD goes first for speed; GET is the
// fallback when HEAD errors or answers outside the "exists" set. An empty
// paths argument falls back to the configured default list.
func (v *Validator) Validate(ctx context.Context, host string, paths []string) (models.Verdict, bool) {
	if host == "" {
		return models.Verdict{}, false
	}
	if len(paths) == 0 {
		paths = v.defaultPaths
	}

	for _, scheme := range schemes {
		for _, path := range paths {
			if ctx.Err() != nil {
				return models.Verdict{}, false
			}

			url := fmt.Sprintf("%s://%s%s", scheme, host, path)
			result, err := v.prober.Head(ctx, url)
			if err != nil || !existsStatus(result.StatusCode) {
				result, err = v.prober.Get(ctx, url)
				if err != nil {
					continue
				}
			}

			if accepted(result) {
				v.logger.Infof("Validated %s via %s (path=%s, status=%d)", host, scheme, path, result.StatusCode)
				return models.Verdict{
					BaseURL: fmt.Sprintf("%s://%s/", scheme, host),
					Host:    host,
					Scheme:  scheme,
					Path:    path,
				}, true
			}
		}
	}
	return models.Verdict{}, false
}

// accepted applies the content-sanity heuristic: status 200/206 plus a
// playlist marker in the body prefix, or a bare 200 with no marker. Some
// live indexes answer 200 with an empty or unrelated body, so a bare 200
// still passes.
func accepted(r *models.ProbeResult) bool {
	if r == nil {
		return false
	}
	if r.StatusCode != 200 && r.StatusCode != 206 {
		return false
	}
	for _, marker := range contentMarkers {
		if strings.Contains(r.Body, marker) {
			return true
		}
	}
	if strings.Contains(r.ContentType, "mpegurl") {
		return true
	}
	return r.StatusCode == 200
}
