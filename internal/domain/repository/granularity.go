package repository

// IsValidGranularity returns true if g is a supported bar resolution.
func IsValidGranularity(g Granularity) bool {
	switch g {
	case G1m, G1d:
		return true
	default:
		return false
	}
}

// DefaultGranularity returns the default bar resolution.
func DefaultGranularity() Granularity { return G1m }

// NormalizeGranularity converts a raw string to a valid granularity (or default).
func NormalizeGranularity(s string) Granularity {
	if s == "" {
		return DefaultGranularity()
	}
	g := Granularity(s)
	if IsValidGranularity(g) {
		return g
	}
	return DefaultGranularity()
}
