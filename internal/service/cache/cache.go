package cache

import "time"

// BytesCache stores raw response bytes with a TTL. The HTTP layer uses it to
// short-circuit repeated identical queries without re-marshaling.
type BytesCache interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
}
