package decklens

import (
	"fmt"
	"strings"
)

// RGB is the canonical color value used throughout the analysis pipeline.
// All native color sources (slide XML srgbClr values, pixel statistics,
// clustering centroids) are normalized to RGB before being stored anywhere.
type RGB struct {
	R, G, B uint8
}

// Hex returns the canonical lowercase "#rrggbb" form.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// HexOf converts an optional color to its hex form. A nil color means
// "no explicit color, inherits from theme/master" and reports ok=false;
// that is a legitimate state, not a failure.
func HexOf(c *RGB) (string, bool) {
	if c == nil {
		return "", false
	}
	return c.Hex(), true
}

// ParseHex parses a 6-digit hex color. A leading "#" is optional and
// both upper and lower case digits are accepted.
func ParseHex(s string) (RGB, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) != 6 {
		return RGB{}, fmt.Errorf("invalid hex color %q: want 6 hex digits", s)
	}
	r := parseHexByte(h, 0)
	g := parseHexByte(h, 2)
	b := parseHexByte(h, 4)
	if r < 0 || g < 0 || b < 0 {
		return RGB{}, fmt.Errorf("invalid hex color %q: non-hex digit", s)
	}
	return RGB{R: uint8(r), G: uint8(g), B: uint8(b)}, nil
}

// parseRGBAttr parses an OOXML srgbClr val attribute ("RRGGBB").
// Returns nil for malformed values; a missing color is never an error.
func parseRGBAttr(val string) *RGB {
	c, err := ParseHex(val)
	if err != nil {
		return nil
	}
	return &c
}

// IsHexColor reports whether s is a syntactically valid canonical
// color string: "#" followed by exactly six lowercase hex digits.
func IsHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for i := 1; i < 7; i++ {
		c := s[i]
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}

// parseHexByte parses two hex characters at offset into 0-255.
// Returns -1 on any error (out of range, invalid chars).
func parseHexByte(s string, offset int) int {
	if offset+2 > len(s) {
		return -1
	}
	h := hexVal(s[offset])
	l := hexVal(s[offset+1])
	if h < 0 || l < 0 {
		return -1
	}
	return h<<4 | l
}

func hexVal(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	default:
		return -1
	}
}
