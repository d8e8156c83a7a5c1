package transport

import (
	"context"

	"github.com/pkg/errors"

	"github.com/back2basic/linkcollector/model"
)

var (
	// ErrTimeout is returned when a request outlives its lifetime without a reply.
	ErrTimeout = errors.New("request timed out")
	// ErrNoRoute is returned when no peer is configured for a request's prefix.
	ErrNoRoute = errors.New("no route for prefix")
)

// Transport carries one batched request to the peer behind its prefix and
// returns the encoded reply. ctx carries the request lifetime.
type Transport interface {
	Fetch(ctx context.Context, req model.Request) ([]byte, error)
}

// IsTimeout reports whether err is a lifetime expiry rather than a failure.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}
