package validation

import (
	"os"
	"strconv"
	"strings"
	"unicode/utf8"
)

func MaxMessageLength() int {
	maxStr := os.Getenv("MAX_MESSAGE_LENGTH")
	if maxStr == "" {
		return 4000
	}
	max, err := strconv.Atoi(maxStr)
	if err != nil || max < 1 {
		return 4000
	}
	return max
}

// TrimAndLimit trims surrounding whitespace and caps the result at max bytes
// without splitting a multibyte rune.
func TrimAndLimit(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := s[:max]
	for len(cut) > 0 {
		r, size := utf8.DecodeLastRuneInString(cut)
		if r != utf8.RuneError || size != 1 {
			break
		}
		cut = cut[:len(cut)-1]
	}
	return cut
}

// ParsePage parses a non-negative page index, defaulting to 0.
func ParsePage(s string) int {
	if s == "" {
		return 0
	}
	page, err := strconv.Atoi(s)
	if err != nil || page < 0 {
		return 0
	}
	return page
}

// ParsePageSize parses a page size clamped to [1, 100], defaulting to def.
func ParsePageSize(s string, def int) int {
	if s == "" {
		return def
	}
	size, err := strconv.Atoi(s)
	if err != nil || size < 1 {
		return def
	}
	if size > 100 {
		return 100
	}
	return size
}
