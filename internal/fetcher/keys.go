package fetcher

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// CompareChannelKeys orders keys of the form "<prefix>-<token>[-...]" used by
// keyed-mapping playlists. The second segment is compared numerically when it
// starts with an integer, so "ch-7-x" sorts before "ch-10-x"; numeric tokens
// sort before non-numeric ones. Keys with fewer than two segments compare as
// plain strings.
func CompareChannelKeys(a, b string) int {
	partsA := strings.Split(a, "-")
	partsB := strings.Split(b, "-")
	if len(partsA) < 2 || len(partsB) < 2 {
		return strings.Compare(a, b)
	}

	tokA, tokB := partsA[1], partsB[1]
	numA, okA := leadingInt(tokA)
	numB, okB := leadingInt(tokB)

	var primary int
	switch {
	case okA && okB:
		primary = cmp.Compare(numA, numB)
	case okA:
		primary = -1
	case okB:
		primary = 1
	default:
		primary = strings.Compare(tokA, tokB)
	}
	if primary != 0 {
		return primary
	}
	return strings.Compare(strings.Join(partsA[1:], "-"), strings.Join(partsB[1:], "-"))
}

// SortChannelKeys sorts keys in place with CompareChannelKeys.
func SortChannelKeys(keys []string) {
	slices.SortStableFunc(keys, CompareChannelKeys)
}

// leadingInt parses an optional sign and the leading run of digits in s,
// ignoring leading whitespace and any trailing text ("7abc" -> 7).
func leadingInt(s string) (float64, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false
	}
	// Out-of-range values saturate to ±Inf, which still orders correctly.
	n, _ := strconv.ParseFloat(s[:end], 64)
	return n, true
}
