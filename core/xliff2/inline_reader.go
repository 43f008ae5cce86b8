package xliff2

import (
	"strconv"
	"strings"

	"github.com/FocuswithJustin/Polyglot/core/content"
	"github.com/FocuswithJustin/Polyglot/core/errors"
	pxml "github.com/FocuswithJustin/Polyglot/core/xml"
	"github.com/antchfx/xmlquery"
)

// inlineReader decodes source and target content of one unit.
type inlineReader struct {
	d    *decoder
	data map[string]string
	fs   *fileState
}

// sideState tracks open sc and sm elements of one source or target.
type sideState struct {
	sc map[string]int
	sm map[string]int
}

var inlineAttrs = map[string]bool{
	"id": true, "canCopy": true, "canDelete": true, "canOverlap": true, "canReorder": true,
	"dir": true, "type": true, "subType": true, "isolated": true, "startRef": true,
	"dataRef": true, "disp": true, "equiv": true, "subFlows": true,
	"dataRefStart": true, "dataRefEnd": true, "dispStart": true, "dispEnd": true,
	"equivStart": true, "equivEnd": true, "subFlowsStart": true, "subFlowsEnd": true,
}

var annotationAttrs = map[string]bool{
	"id": true, "translate": true, "type": true, "value": true, "ref": true, "startRef": true,
}

func (ir *inlineReader) read(n *xmlquery.Node) (content.Line, error) {
	var line content.Line
	st := &sideState{sc: map[string]int{}, sm: map[string]int{}}
	if err := ir.readChildren(n, &line, st); err != nil {
		return nil, err
	}
	return line, nil
}

func (ir *inlineReader) readChildren(n *xmlquery.Node, line *content.Line, st *sideState) error {
	ns := ir.d.ns
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if pxml.IsText(c) {
			line.AppendText(c.Data)
			continue
		}
		if c.Type != xmlquery.ElementNode {
			continue
		}
		if c.NamespaceURI != ns {
			if err := ir.readChildren(c, line, st); err != nil {
				return err
			}
			continue
		}

		switch c.Data {
		case "cp":
			line.AppendText(decodeCP(c))

		case "ph":
			tag, err := ir.tag(c, true)
			if err != nil {
				return err
			}
			idx := line.AppendInline(tag)
			ir.flows(&(*line)[idx].(*content.InlineTag).Tag, c, "subFlows")

		case "pc":
			start, err := ir.tag(c, true)
			if err != nil {
				return err
			}
			end := start
			end.Other = nil
			start.Data = ir.dataRef(c, "dataRefStart")
			start.Disp = pxml.AttrValue(c, "", "dispStart")
			start.Equiv = pxml.AttrValue(c, "", "equivStart")
			end.Data = ir.dataRef(c, "dataRefEnd")
			end.Disp = pxml.AttrValue(c, "", "dispEnd")
			end.Equiv = pxml.AttrValue(c, "", "equivEnd")

			idx := line.AppendStart(start, true)
			ir.flows(&(*line)[idx].(*content.StartTag).Tag, c, "subFlowsStart")
			if err := ir.readChildren(c, line, st); err != nil {
				return err
			}
			e := line.AppendEnd(end, idx)
			ir.flows(&(*line)[e].(*content.EndTag).Tag, c, "subFlowsEnd")

		case "sc":
			tag, err := ir.tag(c, true)
			if err != nil {
				return err
			}
			idx := line.AppendStart(tag, false)
			ir.flows(&(*line)[idx].(*content.StartTag).Tag, c, "subFlows")
			if pxml.AttrValue(c, "", "isolated") != "yes" {
				st.sc[tag.ID] = idx
			}

		case "ec":
			tag, err := ir.tag(c, false)
			if err != nil {
				return err
			}
			start := -1
			if ref := pxml.AttrValue(c, "", "startRef"); ref != "" {
				tag.ID = ref
				if i, ok := st.sc[ref]; ok {
					start = i
					delete(st.sc, ref)
				}
			}
			idx := line.AppendEnd(tag, start)
			ir.flows(&(*line)[idx].(*content.EndTag).Tag, c, "subFlows")

		case "mrk":
			ann, err := readAnnotation(c)
			if err != nil {
				return err
			}
			idx := line.AppendAnnotationStart(ann, true)
			if err := ir.readChildren(c, line, st); err != nil {
				return err
			}
			line.AppendAnnotationEnd(idx)

		case "sm":
			ann, err := readAnnotation(c)
			if err != nil {
				return err
			}
			st.sm[ann.ID] = line.AppendAnnotationStart(ann, false)

		case "em":
			ref := pxml.AttrValue(c, "", "startRef")
			start, ok := st.sm[ref]
			if ok {
				delete(st.sm, ref)
			} else {
				start = -1
			}
			idx := line.AppendAnnotationEnd(start)
			if !ok {
				(*line)[idx].(*content.AnnotationEnd).ID = ref
			}

		default:
			if err := ir.readChildren(c, line, st); err != nil {
				return err
			}
		}
	}
	return nil
}

// tag reads the attributes shared by pc, sc, ec and ph.
func (ir *inlineReader) tag(n *xmlquery.Node, idRequired bool) (content.Tag, error) {
	id := pxml.AttrValue(n, "", "id")
	if id == "" && idRequired {
		return content.Tag{}, errors.NewRequiredAttribute(n.Data, "id", 0)
	}
	return content.Tag{
		ID:          id,
		CanCopy:     content.ParseFlag(pxml.AttrValue(n, "", "canCopy")),
		CanDelete:   content.ParseFlag(pxml.AttrValue(n, "", "canDelete")),
		CanOverlap:  content.ParseFlag(pxml.AttrValue(n, "", "canOverlap")),
		CanReorder:  pxml.AttrValue(n, "", "canReorder"),
		Dir:         content.Direction(pxml.AttrValue(n, "", "dir")),
		Type:        pxml.AttrValue(n, "", "type"),
		SubType:     pxml.AttrValue(n, "", "subType"),
		Data:        ir.dataRef(n, "dataRef"),
		Disp:        pxml.AttrValue(n, "", "disp"),
		Equiv:       pxml.AttrValue(n, "", "equiv"),
		FormatStyle: readFormatStyle(n),
		Other: pxml.OtherAttrs(n, func(space, local string) bool {
			return space == "" && inlineAttrs[local] || space == NamespaceFormatStyle
		}),
	}, nil
}

func (ir *inlineReader) dataRef(n *xmlquery.Node, attr string) string {
	ref := pxml.AttrValue(n, "", attr)
	if ref == "" {
		return ""
	}
	return ir.data[ref]
}

// flows queues the sub-flow references held in attr for resolution at the
// end of the file.
func (ir *inlineReader) flows(tag *content.Tag, n *xmlquery.Node, attr string) {
	ids := strings.Fields(pxml.AttrValue(n, "", attr))
	if len(ids) == 0 {
		return
	}
	ir.fs.pending = append(ir.fs.pending, pendingFlow{tag: tag, ids: ids, attr: attr})
}

func readAnnotation(n *xmlquery.Node) (content.Annotation, error) {
	id := pxml.AttrValue(n, "", "id")
	if id == "" {
		return content.Annotation{}, errors.NewRequiredAttribute(n.Data, "id", 0)
	}
	return content.Annotation{
		ID:        id,
		Translate: content.ParseFlag(pxml.AttrValue(n, "", "translate")),
		Type:      pxml.AttrValue(n, "", "type"),
		Value:     pxml.AttrValue(n, "", "value"),
		Ref:       pxml.AttrValue(n, "", "ref"),
		Other: pxml.OtherAttrs(n, func(space, local string) bool {
			return space == "" && annotationAttrs[local]
		}),
	}, nil
}

// inlineText returns the text of n with cp elements decoded.
func (d *decoder) inlineText(n *xmlquery.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case pxml.IsText(c):
			b.WriteString(c.Data)
		case pxml.Is(c, d.ns, "cp"):
			b.WriteString(decodeCP(c))
		}
	}
	return b.String()
}

func decodeCP(n *xmlquery.Node) string {
	v, err := strconv.ParseUint(pxml.AttrValue(n, "", "hex"), 16, 32)
	if err != nil {
		return ""
	}
	return string(rune(v))
}
