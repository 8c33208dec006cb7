package headless

import "context"

// Renderer fetches a page after JavaScript execution and returns the final
// HTML. Whether a real browser backs it is decided at configuration time;
// callers never probe for one.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
	Close() error
}

// NopRenderer is the absent-capability implementation: it renders nothing
// and never fails.
type NopRenderer struct{}

func (NopRenderer) Render(context.Context, string) (string, error) { return "", nil }
func (NopRenderer) Close() error                                   { return nil }
