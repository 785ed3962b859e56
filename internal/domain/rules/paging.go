package rules

const (
	MaxPageLimit     = 100
	DefaultPageLimit = 50
)

// ClampLimit keeps a requested page size in [1, max]. Non-positive values fall
// back to fallback (itself clamped).
func ClampLimit(limit, fallback, max int) int {
	if max <= 0 {
		max = MaxPageLimit
	}
	if limit <= 0 {
		limit = fallback
	}
	if limit < 1 {
		limit = 1
	}
	if limit > max {
		limit = max
	}
	return limit
}

func ClampOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
