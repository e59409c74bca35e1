package usecase

import (
	"strconv"
	"unicode/utf16"

	"github.com/shopsmart/backend/internal/domain"
)

// cacheKeyPrefix starts every per-request analysis entry in the store
const cacheKeyPrefix = "analysis_"

// DeriveCacheKey maps (mode, url) to a stable store key.
// Format: "analysis_{mode}_{base36(|hash(url)|)}"
func DeriveCacheKey(mode domain.Mode, url string) string {
	return cacheKeyPrefix + string(mode) + "_" + strconv.FormatInt(abs32(hashString(url)), 36)
}

// hashString is the 31-multiplier string hash (h = h<<5 - h + c) over UTF-16 code units,
// wrapped to int32 after every step. Browsers compute the same value for the same URL.
func hashString(s string) int32 {
	var hash int32
	for _, c := range utf16.Encode([]rune(s)) {
		hash = (hash << 5) - hash + int32(c)
	}
	return hash
}

// abs32 widens before negating so math.MinInt32 does not overflow
func abs32(v int32) int64 {
	n := int64(v)
	if n < 0 {
		return -n
	}
	return n
}
