// Package text provides small text measurement helpers shared by the
// summarizers and the pipeline driver.
package text

import "unicode/utf8"

// CountRunes counts the Unicode characters (runes) in text.
// Multi-byte characters count once.
//
// Examples:
//
//	CountRunes("hello")      // 5
//	CountRunes("naïve café") // 10
//	CountRunes("")           // 0
func CountRunes(text string) int {
	return utf8.RuneCountInString(text)
}

// Truncate returns text cut to at most maxRunes runes. Values below 1 yield "".
func Truncate(text string, maxRunes int) string {
	if maxRunes < 1 {
		return ""
	}
	if utf8.RuneCountInString(text) <= maxRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxRunes])
}
