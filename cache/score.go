package cache

import "strconv"

// formatScore renders a float score the way Redis's ZRANGEBYSCORE-family
// commands expect it on the wire.
func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
