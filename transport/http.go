package transport

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/back2basic/linkcollector/model"
)

const maxReplySize = 4 << 20

// HTTP fetches stats over HTTP. Each prefix maps to the base URL of the
// peer serving it; prefixes without a route fall back to Default.
type HTTP struct {
	client  *http.Client
	routes  map[string]string
	Default string
}

func NewHTTP(routes map[string]string, fallback string, client *http.Client) *HTTP {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTP{
		client:  client,
		routes:  routes,
		Default: fallback,
	}
}

func (h *HTTP) baseURL(prefix string) (string, bool) {
	if base, ok := h.routes[prefix]; ok {
		return base, true
	}
	return h.Default, h.Default != ""
}

// RequestPath escapes every component of the request name.
func RequestPath(req model.Request) string {
	var b strings.Builder
	for _, c := range strings.Split(strings.Trim(req.Prefix, "/"), "/") {
		if c == "" {
			continue
		}
		b.WriteString("/")
		b.WriteString(url.PathEscape(c))
	}
	b.WriteString(model.AppSuffix)
	for _, a := range req.Addresses {
		b.WriteString("/")
		b.WriteString(url.PathEscape(a))
	}
	return b.String()
}

func (h *HTTP) Fetch(ctx context.Context, req model.Request) ([]byte, error) {
	base, ok := h.baseURL(req.Prefix)
	if !ok {
		return nil, errors.Wrap(ErrNoRoute, req.Prefix)
	}

	target := strings.TrimRight(base, "/") + RequestPath(req)
	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	hreq.Header.Set("Accept", "application/json")
	// replies must never come from a cache
	hreq.Header.Set("Cache-Control", "no-cache")
	hreq.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := h.client.Do(hreq)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.Wrap(ErrTimeout, req.Name())
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Errorf("peer returned %s", resp.Status)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxReplySize))
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.Wrap(ErrTimeout, req.Name())
		}
		return nil, errors.Wrap(err, "read reply")
	}
	return payload, nil
}
