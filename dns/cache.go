package dns

import (
	"net"
	"time"

	"github.com/patrickmn/go-cache"
)

const DefaultTTL = 10 * time.Minute

// Resolver does reverse lookups of peer addresses, caching hits and misses for a TTL.
type Resolver struct {
	cache  *cache.Cache
	lookup func(addr string) ([]string, error)
}

func NewResolver(ttl time.Duration) *Resolver {
	return &Resolver{
		cache:  cache.New(ttl, 2*ttl),
		lookup: net.LookupAddr,
	}
}

// Resolve returns the first PTR name for address, or "" when it has none
// or address is not an IP.
func (r *Resolver) Resolve(address string) string {
	if v, ok := r.cache.Get(address); ok {
		return v.(string)
	}
	if net.ParseIP(address) == nil {
		return ""
	}

	name := ""
	names, err := r.lookup(address)
	if err == nil && len(names) > 0 {
		name = names[0]
	}
	r.cache.SetDefault(address, name)
	return name
}
