package cache

import "fmt"

// GenerateKeyWithParams builds a cache key from a prefix and its parameters,
// e.g. GenerateKeyWithParams("analyze", "NIFTY", "daily-session") ->
// "analyze:NIFTY:daily-session".
func GenerateKeyWithParams(prefix string, params ...interface{}) string {
	key := prefix
	for _, param := range params {
		key = fmt.Sprintf("%s:%v", key, param)
	}
	return key
}

// BuildPattern creates a trailing-wildcard pattern for key invalidation.
func BuildPattern(prefix string) string {
	return fmt.Sprintf("%s*", prefix)
}
