package content

// WalkFunc is called for each child of a Transformation in document order.
// Returning false skips the children of a Group.
type WalkFunc func(child UnitGrouping, depth int) bool

// Walk visits every group and unit depth-first in document order.
func (t *Transformation) Walk(fn WalkFunc) {
	walkChildren(t.Children, 0, fn)
}

func walkChildren(children []UnitGrouping, depth int, fn WalkFunc) {
	for _, c := range children {
		descend := fn(c, depth)
		if g, ok := c.(*Group); ok && descend {
			walkChildren(g.Children, depth+1, fn)
		}
	}
}

// Units returns every unit in document order.
func (t *Transformation) Units() []*Unit {
	var units []*Unit
	t.Walk(func(c UnitGrouping, _ int) bool {
		if u, ok := c.(*Unit); ok {
			units = append(units, u)
		}
		return true
	})
	return units
}

// Groups returns every group in document order.
func (t *Transformation) Groups() []*Group {
	var groups []*Group
	t.Walk(func(c UnitGrouping, _ int) bool {
		if g, ok := c.(*Group); ok {
			groups = append(groups, g)
		}
		return true
	})
	return groups
}

// Segments returns every non-ignorable segment in document order.
func (t *Transformation) Segments() []*Segment {
	var segs []*Segment
	for _, u := range t.Units() {
		segs = append(segs, u.TranslatableSegments()...)
	}
	return segs
}

// UnitByID returns the unit with the given id, or nil.
func (t *Transformation) UnitByID(id string) *Unit {
	for _, u := range t.Units() {
		if u.ID == id {
			return u
		}
	}
	return nil
}

// SubFlowUnits returns the set of units referenced as a sub-flow by some
// code in the transformation.
func (t *Transformation) SubFlowUnits() map[*Unit]bool {
	refs := make(map[*Unit]bool)
	for _, u := range t.Units() {
		for _, s := range u.Segments {
			collectSubFlows(s.Source, refs)
			collectSubFlows(s.Target, refs)
		}
	}
	return refs
}

func collectSubFlows(l Line, refs map[*Unit]bool) {
	for _, e := range l {
		var flows []*Unit
		switch v := e.(type) {
		case *StartTag:
			flows = v.SubFlows
		case *EndTag:
			flows = v.SubFlows
		case *InlineTag:
			flows = v.SubFlows
		}
		for _, f := range flows {
			refs[f] = true
		}
	}
}

// Progress summarizes segment states of a transformation.
type Progress struct {
	Units      int
	Segments   int
	Initial    int
	Translated int
	Reviewed   int
	Final      int
}

// Progress counts segments by effective state.
func (t *Transformation) Progress() Progress {
	var p Progress
	units := t.Units()
	p.Units = len(units)
	for _, u := range units {
		for _, s := range u.TranslatableSegments() {
			p.Segments++
			switch s.EffectiveState() {
			case StateInitial:
				p.Initial++
			case StateTranslated:
				p.Translated++
			case StateReviewed:
				p.Reviewed++
			case StateFinal:
				p.Final++
			}
		}
	}
	return p
}
