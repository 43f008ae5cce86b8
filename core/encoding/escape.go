// Package encoding provides shared text encoding and escaping utilities.
package encoding

import (
	"strings"
)

var textEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\r", "&#xD;",
)

var attrEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\"", "&quot;",
	"\t", "&#x9;",
	"\n", "&#xA;",
	"\r", "&#xD;",
)

// EscapeXMLText escapes text for use as XML character data.
// Carriage returns are written as character references so that parsers
// do not fold them into line feeds.
func EscapeXMLText(s string) string {
	return textEscaper.Replace(s)
}

// EscapeXMLAttr escapes text for use in double-quoted XML attributes.
// Whitespace other than the space character is escaped to survive
// attribute-value normalization.
func EscapeXMLAttr(s string) string {
	return attrEscaper.Replace(s)
}

// IsXMLChar reports whether r matches the XML 1.0 Char production.
func IsXMLChar(r rune) bool {
	switch {
	case r == 0x9 || r == 0xA || r == 0xD:
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	}
	return false
}

// ValidXML reports whether every rune of s is a legal XML character.
func ValidXML(s string) bool {
	for _, r := range s {
		if !IsXMLChar(r) {
			return false
		}
	}
	return true
}

// StripInvalidXML removes runes that cannot appear in an XML document.
func StripInvalidXML(s string) string {
	if ValidXML(s) {
		return s
	}
	return strings.Map(func(r rune) rune {
		if IsXMLChar(r) {
			return r
		}
		return -1
	}, s)
}

// Chunk is a piece of text that is either entirely legal XML or a single
// illegal code point.
type Chunk struct {
	Text    string
	Invalid rune // set when the chunk is a single illegal code point
	IsValid bool
}

// SplitInvalidXML splits s into runs of legal text separated by single
// illegal code points, in order.
func SplitInvalidXML(s string) []Chunk {
	var chunks []Chunk
	var b strings.Builder
	for _, r := range s {
		if IsXMLChar(r) {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			chunks = append(chunks, Chunk{Text: b.String(), IsValid: true})
			b.Reset()
		}
		chunks = append(chunks, Chunk{Invalid: r})
	}
	if b.Len() > 0 {
		chunks = append(chunks, Chunk{Text: b.String(), IsValid: true})
	}
	return chunks
}
