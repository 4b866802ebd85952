package proptest

import "math"

// Charsets for string generation
const (
	CharsetAlpha      = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	CharsetAlphaLower = "abcdefghijklmnopqrstuvwxyz"
	CharsetDigits     = "0123456789"
	CharsetAlphaNum   = CharsetAlpha + CharsetDigits
	CharsetPrintable  = CharsetAlphaNum + " !\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"
	CharsetIdentStart = CharsetAlpha + "_"
	CharsetIdentBody  = CharsetAlphaNum + "_"

	// CharsetWide holds multi-byte runes, including ones that render wider
	// than one column in a terminal.
	CharsetWide = "éßøπλжΩ日本語中文한국어🎉"
)

// =============================================================================
// Numbers
// =============================================================================

// IntRange returns a random int in [min, max].
// Panics if min > max.
func (g *Generator) IntRange(min, max int) int {
	if min > max {
		panic("proptest: IntRange min > max")
	}
	if min == max {
		return min
	}
	return min + g.rng.IntN(max-min+1)
}

// Int64 returns a random int64 across the whole range, including negatives.
func (g *Generator) Int64() int64 {
	n := g.rng.Int64()
	if g.Bool() {
		n = -n - 1
	}
	return n
}

// Int64Range returns a random int64 in [min, max].
// Panics if min > max or the range does not fit in an int64.
func (g *Generator) Int64Range(min, max int64) int64 {
	if min > max {
		panic("proptest: Int64Range min > max")
	}
	if min == max {
		return min
	}
	return min + g.rng.Int64N(max-min+1)
}

// Float64Range returns a random float64 in [min, max).
func (g *Generator) Float64Range(min, max float64) float64 {
	return min + g.rng.Float64()*(max-min)
}

// EdgeCaseInt64 returns an int64 that is likely to trigger edge cases half
// of the time and a random one otherwise.
func (g *Generator) EdgeCaseInt64() int64 {
	edgeCases := []int64{
		0, 1, -1,
		math.MaxInt32, math.MinInt32,
		math.MaxInt64, math.MinInt64,
		1 << 53, -(1 << 53),
	}
	if g.Bool() {
		return edgeCases[g.Intn(len(edgeCases))]
	}
	return g.Int64()
}

// =============================================================================
// Strings
// =============================================================================

// String returns a random printable ASCII string of length [0, maxLen].
func (g *Generator) String(maxLen int) string {
	return g.StringFrom(CharsetPrintable, maxLen)
}

// StringAlpha returns a random alphabetic string (a-zA-Z) of length [0, maxLen].
func (g *Generator) StringAlpha(maxLen int) string {
	return g.StringFrom(CharsetAlpha, maxLen)
}

// StringFrom returns a random string of [0, maxLen] runes drawn from charset.
func (g *Generator) StringFrom(charset string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	return g.runesOfLen([]rune(charset), g.Intn(maxLen+1))
}

// StringFromN returns a random string of [minLen, maxLen] runes drawn from charset.
func (g *Generator) StringFromN(charset string, minLen, maxLen int) string {
	if minLen > maxLen {
		panic("proptest: StringFromN minLen > maxLen")
	}
	return g.runesOfLen([]rune(charset), g.IntRange(minLen, maxLen))
}

// Unicode returns a string of [0, maxLen] runes mixing printable ASCII and
// multi-byte characters.
func (g *Generator) Unicode(maxLen int) string {
	return g.StringFrom(CharsetPrintable+CharsetWide, maxLen)
}

func (g *Generator) runesOfLen(charset []rune, length int) string {
	if length == 0 {
		return ""
	}
	r := make([]rune, length)
	for i := range r {
		r[i] = charset[g.Intn(len(charset))]
	}
	return string(r)
}

// Identifier returns a valid SQL identifier (starts with letter or
// underscore, followed by alphanumerics or underscores) of length [1, maxLen].
func (g *Generator) Identifier(maxLen int) string {
	if maxLen <= 0 {
		maxLen = 1
	}
	length := g.IntRange(1, maxLen)

	b := make([]byte, length)
	b[0] = CharsetIdentStart[g.Intn(len(CharsetIdentStart))]
	for i := 1; i < length; i++ {
		b[i] = CharsetIdentBody[g.Intn(len(CharsetIdentBody))]
	}
	return string(b)
}

// EdgeCaseString returns a string that is likely to break naive SQL text
// handling 70% of the time and a random printable string otherwise.
func (g *Generator) EdgeCaseString() string {
	edgeCases := []string{
		"",
		" ",
		"\t",
		"line1\nline2",
		"'",
		"''",
		`"`,
		`\`,
		"it's",
		"NULL",
		"null",
		"0",
		"-1",
		"123.456",
		"日本語",
		"hello🎉world",
		"--",
		"/**/",
		"; DROP TABLE People;",
		"' OR '1'='1",
		"$1",
		"?",
	}
	if g.Float64() < 0.7 {
		return edgeCases[g.Intn(len(edgeCases))]
	}
	return g.String(50)
}

// =============================================================================
// Calendar values
// =============================================================================

// CalendarDate returns a valid proleptic Gregorian date with a four digit year.
func (g *Generator) CalendarDate() (year, month, day int) {
	year = g.IntRange(1, 9999)
	month = g.IntRange(1, 12)
	day = g.IntRange(1, daysIn(year, month))
	return year, month, day
}

// ClockTime returns a valid time of day. Half of the results carry a
// fractional second.
func (g *Generator) ClockTime() (hour, minute, second, nanosecond int) {
	hour = g.IntRange(0, 23)
	minute = g.IntRange(0, 59)
	second = g.IntRange(0, 59)
	if g.Bool() {
		nanosecond = g.IntRange(1, 999_999_999)
	}
	return hour, minute, second, nanosecond
}

func daysIn(year, month int) int {
	switch month {
	case 2:
		if year%4 == 0 && (year%100 != 0 || year%400 == 0) {
			return 29
		}
		return 28
	case 4, 6, 9, 11:
		return 30
	default:
		return 31
	}
}
