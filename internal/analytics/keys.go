package analytics

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

const cachePrefix = "analytics:"

// cacheKey builds a short result-cache key for kind from the request inputs.
// Parts are NUL-separated so boundaries are part of the hash.
func cacheKey(kind string, parts ...string) string {
	h := xxhash.New()
	for _, p := range parts {
		h.WriteString(p)
		h.Write([]byte{0})
	}
	return cachePrefix + kind + ":" + strconv.FormatUint(h.Sum64(), 16)
}

// hashFloats is an exact, compact fingerprint of xs.
func hashFloats(xs []float64) string {
	h := xxhash.New()
	buf := make([]byte, 0, 24)
	for _, x := range xs {
		buf = strconv.AppendFloat(buf[:0], x, 'g', -1, 64)
		buf = append(buf, ',')
		h.Write(buf)
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

func hashStrings(xs []string) string {
	h := xxhash.New()
	for _, x := range xs {
		h.WriteString(x)
		h.Write([]byte{0})
	}
	return strconv.FormatUint(h.Sum64(), 16)
}
