package coded

import (
	"github.com/FocuswithJustin/Polyglot/core/content"
)

// ToLine converts coded parts into a content Line in one left-to-right
// pass. Opening codes are recorded in a table keyed by their identity so the
// matching closing code is resolved in constant time. Closing codes without
// an open partner and opening codes never closed become standalone tags.
// Pairs that cross each other lose their well-formed guarantee.
//
// units maps sub-flow contents to the units built for them; contents
// missing from it are dropped from the sub-flow list.
func ToLine(parts []Part, units map[*Content]*content.Unit) content.Line {
	var line content.Line
	openCodes := make(map[*Code]int)
	openMarks := make(map[*Mark]int)

	for _, p := range parts {
		switch v := p.(type) {
		case Text:
			line.AppendText(string(v))
		case *Code:
			tag := tagFromCode(v, units)
			switch v.Kind {
			case Opening:
				openCodes[v] = line.AppendStart(tag, true)
			case Closing:
				if idx, ok := openCodes[v.Pair]; ok && v.Pair != nil {
					line.AppendEnd(tag, idx)
					delete(openCodes, v.Pair)
					continue
				}
				line.AppendInline(tag)
			default:
				line.AppendInline(tag)
			}
		case *Mark:
			switch v.Kind {
			case Opening:
				openMarks[v] = line.AppendAnnotationStart(content.Annotation{Type: v.Type, Value: v.Value}, true)
			case Closing:
				if idx, ok := openMarks[v.Pair]; ok && v.Pair != nil {
					line.AppendAnnotationEnd(idx)
					delete(openMarks, v.Pair)
				}
			}
		}
	}

	for _, idx := range openCodes {
		st := line[idx].(*content.StartTag)
		line[idx] = &content.InlineTag{Tag: st.Tag}
	}

	nested := line.NestedPairs()
	for i, e := range line {
		switch v := e.(type) {
		case *content.StartTag:
			v.WellFormed = nested[i]
		case *content.AnnotationStart:
			v.WellFormed = nested[i]
		}
	}
	return line
}

func tagFromCode(c *Code, units map[*Content]*content.Unit) content.Tag {
	tag := content.Tag{
		Data:        c.Data,
		Type:        c.Type,
		FormatStyle: c.Style,
	}
	for _, sf := range c.SubFlows {
		if u, ok := units[sf]; ok {
			tag.SubFlows = append(tag.SubFlows, u)
		}
	}
	return tag
}

// FromLine converts a content Line back into coded parts. Paired start and
// end tags become linked opening and closing codes; every other tag becomes
// a standalone code. Unpaired annotation boundaries are dropped since they
// carry no literal text.
func FromLine(line content.Line, contents map[*content.Unit]*Content) []Part {
	parts := make([]Part, 0, len(line))
	codes := make([]*Code, len(line))
	marks := make([]*Mark, len(line))

	for i, e := range line {
		switch v := e.(type) {
		case *content.PlainText:
			if n := len(parts); n > 0 {
				if t, ok := parts[n-1].(Text); ok {
					parts[n-1] = t + Text(v.Text)
					continue
				}
			}
			if v.Text != "" {
				parts = append(parts, Text(v.Text))
			}
		case *content.StartTag:
			c := codeFromTag(v.Tag, contents)
			if v.End > i {
				c.Kind = Opening
				codes[i] = c
			}
			parts = append(parts, c)
		case *content.EndTag:
			c := codeFromTag(v.Tag, contents)
			if v.Start >= 0 && v.Start < i && codes[v.Start] != nil {
				c.Kind = Closing
				c.Pair = codes[v.Start]
				codes[v.Start].Pair = c
			}
			parts = append(parts, c)
		case *content.InlineTag:
			parts = append(parts, codeFromTag(v.Tag, contents))
		case *content.AnnotationStart:
			if v.End > i {
				m := &Mark{Kind: Opening, Type: v.Type, Value: v.Value}
				marks[i] = m
				parts = append(parts, m)
			}
		case *content.AnnotationEnd:
			if v.Start >= 0 && v.Start < i && marks[v.Start] != nil {
				m := &Mark{Kind: Closing, Pair: marks[v.Start]}
				marks[v.Start].Pair = m
				parts = append(parts, m)
			}
		}
	}
	return parts
}

func codeFromTag(t content.Tag, contents map[*content.Unit]*Content) *Code {
	c := &Code{
		Kind:  Standalone,
		Data:  t.Data,
		Type:  t.Type,
		Style: t.FormatStyle,
	}
	for _, u := range t.SubFlows {
		if sf, ok := contents[u]; ok {
			c.SubFlows = append(c.SubFlows, sf)
		}
	}
	return c
}

// ToUnits builds one single-segment unit per content, in order. The unit
// name carries the content reference and sub-flow references are resolved
// between the returned units.
func ToUnits(contents []*Content) []*content.Unit {
	units := make([]*content.Unit, len(contents))
	byContent := make(map[*Content]*content.Unit, len(contents))
	for i, c := range contents {
		u := &content.Unit{Name: c.Reference}
		units[i] = u
		byContent[c] = u
	}
	for i, c := range contents {
		units[i].Segments = []*content.Segment{{Source: ToLine(c.Parts, byContent)}}
	}
	return units
}

// FromUnits converts units back into coded contents. With useTarget set,
// each unit contributes its target line (source for untranslated
// segments); otherwise its source line.
func FromUnits(units []*content.Unit, useTarget bool) []*Content {
	contents := make([]*Content, len(units))
	byUnit := make(map[*content.Unit]*Content, len(units))
	for i, u := range units {
		c := &Content{Reference: u.Name}
		contents[i] = c
		byUnit[u] = c
	}
	for i, u := range units {
		line := u.SourceLine()
		if useTarget {
			line = u.TargetLine()
		}
		contents[i].Parts = FromLine(line, byUnit)
		for _, p := range contents[i].Parts {
			if code, ok := p.(*Code); ok {
				for _, sf := range code.SubFlows {
					sf.SubFlow = true
				}
			}
		}
	}
	return contents
}
