package rules

// CanonicalPair orders two user ids so that a pair has exactly one storage key
// regardless of who acted first.
func CanonicalPair(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}
