package fetcher

import (
	"testing"

	"github.com/matryer/is"
)

func TestCompareChannelKeys(t *testing.T) {
	is := is.New(t)
	is.True(CompareChannelKeys("ch-7-x", "ch-10-x") < 0)   // 7 before 10, not lexicographic
	is.True(CompareChannelKeys("ch-10-x", "ch-7-x") > 0)   // symmetric
	is.True(CompareChannelKeys("ch-a-x", "ch-7-x") > 0)    // numeric token sorts first
	is.True(CompareChannelKeys("ch-7-x", "ch-a-x") < 0)    // numeric token sorts first
	is.True(CompareChannelKeys("abc", "de-f") < 0)         // whole-key fallback
	is.True(CompareChannelKeys("zz", "de-f") > 0)          // whole-key fallback
	is.True(CompareChannelKeys("ch-a-x", "ch-b-x") < 0)    // lexicographic token compare
	is.Equal(CompareChannelKeys("ch-7-x", "ch-7-x"), 0)    // equal keys
	is.True(CompareChannelKeys("ch-7-a", "ch-7-b") < 0)    // tie broken by remainder
	is.True(CompareChannelKeys("aa-7-b", "zz-7-a") > 0)    // prefix ignored on tie
	is.True(CompareChannelKeys("ch-7abc-x", "ch-8-x") < 0) // leading digits parse
	is.True(CompareChannelKeys("ch--3", "ch-1") > 0)       // empty token is non-numeric
}

func TestCompareChannelKeysNumericTieUsesRemainder(t *testing.T) {
	is := is.New(t)
	// "07" and "7" are numerically equal; the rejoined remainder decides.
	is.True(CompareChannelKeys("ch-07-b", "ch-7-a") < 0)
}

func TestSortChannelKeys(t *testing.T) {
	is := is.New(t)
	keys := []string{"mjh-10-seven", "mjh-abc", "mjh-2-nine", "solo", "mjh-7-ten", "mjh-2-abc"}
	SortChannelKeys(keys)
	is.Equal(keys, []string{"mjh-2-abc", "mjh-2-nine", "mjh-7-ten", "mjh-10-seven", "mjh-abc", "solo"})
}

func TestLeadingInt(t *testing.T) {
	is := is.New(t)
	for _, tc := range []struct {
		in   string
		want float64
		ok   bool
	}{
		{"7", 7, true},
		{" 42", 42, true},
		{"-3x", -3, true},
		{"+5", 5, true},
		{"abc", 0, false},
		{"", 0, false},
		{"-", 0, false},
	} {
		got, ok := leadingInt(tc.in)
		is.Equal(ok, tc.ok)    // parse success
		is.Equal(got, tc.want) // parsed value
	}
}
