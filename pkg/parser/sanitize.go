package parser

import (
	"strings"
)

// SanitizeKey makes s safe to use as a metric key. Dots become underscores, slashes of either kind become
// dashes and anything else outside of [A-Za-z0-9_-] is dropped.
func SanitizeKey(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '.':
			sb.WriteByte('_')
		case c == '/' || c == '\\':
			sb.WriteByte('-')
		case isKeyByte(c):
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// SanitizeValue keeps only the digits, dots and dashes of s.
func SanitizeValue(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isDigit(c) || c == '.' || c == '-' {
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

func isKeyByte(c byte) bool {
	return isDigit(c) || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || c == '_' || c == '-'
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}
