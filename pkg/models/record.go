package models

import "time"

// CacheRecord is the persisted outcome of one discovery run.
type CacheRecord struct {
	BaseURL    string   `json:"base_stream_url"`
	Timestamp  int64    `json:"base_ts"`
	Candidates []string `json:"candidates"`
}

func (r CacheRecord) Age(now time.Time) time.Duration {
	return now.Sub(time.Unix(r.Timestamp, 0))
}

// ProbeResult is the outcome of a single (scheme, host, path) attempt.
// Body holds only a bounded prefix of the response.
type ProbeResult struct {
	URL         string
	StatusCode  int
	Body        string
	ContentType string
}

// Verdict is an accepted validation outcome: the base URL under which the
// resource was found, always of the form scheme://host/.
type Verdict struct {
	BaseURL string
	Host    string
	Scheme  string
	Path    string
}
