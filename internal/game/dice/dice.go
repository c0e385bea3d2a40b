// Package dice provides the randomness abstraction used by combat and
// movement: uniform integer ranges drawn from an injectable Source.
package dice

// Source is the randomness provider.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// Range returns a uniformly distributed int in [min, max] drawn from src.
// When max <= min, min is returned without consuming randomness.
//
// Postcondition: min <= result <= max, or result == min when max <= min.
func Range(src Source, min, max int) int {
	if max <= min {
		return min
	}
	return min + src.Intn(max-min+1)
}
