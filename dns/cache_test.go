package dns

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolveCaches(t *testing.T) {
	calls := 0
	r := NewResolver(time.Minute)
	r.lookup = func(addr string) ([]string, error) {
		calls++
		return []string{"peer.example.net."}, nil
	}

	assert.Equal(t, "peer.example.net.", r.Resolve("192.0.2.1"))
	assert.Equal(t, "peer.example.net.", r.Resolve("192.0.2.1"))
	assert.Equal(t, 1, calls)
}

func TestResolveCachesMisses(t *testing.T) {
	calls := 0
	r := NewResolver(time.Minute)
	r.lookup = func(addr string) ([]string, error) {
		calls++
		return nil, errors.New("no such host")
	}

	assert.Equal(t, "", r.Resolve("192.0.2.7"))
	assert.Equal(t, "", r.Resolve("192.0.2.7"))
	assert.Equal(t, 1, calls)
}

func TestResolveIgnoresNonIP(t *testing.T) {
	r := NewResolver(time.Minute)
	r.lookup = func(addr string) ([]string, error) {
		t.Fatalf("unexpected lookup of %s", addr)
		return nil, nil
	}
	assert.Equal(t, "", r.Resolve("/ndn/edu/arizona"))
}
