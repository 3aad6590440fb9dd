// Package util contains misc internal utilities.
package util

// Limiter is a closed interval used to clamp commandable values.
// The zero value admits nothing but zero; populate both ends.
type Limiter struct {
	Min float64
	Max float64
}

// Check returns true if v is within the limiter's range
func (l Limiter) Check(v float64) bool {
	return l.Min <= v && v <= l.Max
}
