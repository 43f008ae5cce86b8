// Package plaintext extracts one text unit per non-blank line of plain
// text and writes translated lines back.
package plaintext

import (
	"strconv"
	"strings"

	"github.com/FocuswithJustin/Polyglot/core/coded"
	"github.com/FocuswithJustin/Polyglot/core/errors"
)

// ReferencePrefix starts every line reference; the line number follows.
const ReferencePrefix = "line:"

// line is one line of the source with its terminator split off.
type line struct {
	text string
	eol  string
}

func splitLines(src string) []line {
	var out []line
	for len(src) > 0 {
		i := strings.IndexByte(src, '\n')
		if i < 0 {
			out = append(out, line{text: src})
			break
		}
		l := line{text: src[:i], eol: "\n"}
		if strings.HasSuffix(l.text, "\r") {
			l.text, l.eol = l.text[:len(l.text)-1], "\r\n"
		}
		out = append(out, l)
		src = src[i+1:]
	}
	return out
}

// Extract returns one content per non-blank line, trimmed. References are
// "line:N" with N counted from 1.
func Extract(src string) []*coded.Content {
	var out []*coded.Content
	for i, l := range splitLines(src) {
		text := strings.TrimSpace(l.text)
		if text == "" {
			continue
		}
		c := &coded.Content{Reference: Reference(i + 1)}
		c.AddText(text)
		out = append(out, c)
	}
	return out
}

// Reference returns the reference of line n.
func Reference(n int) string {
	return ReferencePrefix + strconv.Itoa(n)
}

// ParseReference returns the line number of a reference.
func ParseReference(ref string) (int, error) {
	num, ok := strings.CutPrefix(ref, ReferencePrefix)
	if !ok {
		return 0, errors.NewMalformedReference(ref, "missing "+ReferencePrefix+" prefix")
	}
	n, err := strconv.Atoi(num)
	if err != nil || n < 1 {
		return 0, &errors.MalformedReferenceError{Reference: ref, Reason: "invalid line number", Err: err}
	}
	return n, nil
}

// Reinject replaces the lines addressed by contents with their text. The
// leading and trailing whitespace of each original line and all line
// terminators are kept.
func Reinject(src string, contents []*coded.Content) (string, error) {
	lines := splitLines(src)
	for _, c := range contents {
		n, err := ParseReference(c.Reference)
		if err != nil {
			return "", err
		}
		if n > len(lines) {
			return "", errors.NewMalformedReference(c.Reference, "line "+strconv.Itoa(n)+" does not exist")
		}
		l := &lines[n-1]
		lead := l.text[:len(l.text)-len(strings.TrimLeft(l.text, " \t"))]
		trail := l.text[len(strings.TrimRight(l.text, " \t")):]
		if strings.TrimSpace(l.text) == "" {
			lead, trail = l.text, ""
		}
		l.text = lead + c.Literal() + trail
	}

	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l.text)
		b.WriteString(l.eol)
	}
	return b.String(), nil
}
