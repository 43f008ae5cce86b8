package content

import "strconv"

// IDSet records identities already in use within one scope.
type IDSet map[string]bool

// IDGen synthesizes identities of the form prefix+N in increasing order,
// skipping every identity already in its set. Generators that share a set
// never produce colliding values.
//
// An IDGen belongs to one serialization call; it is not safe for
// concurrent use.
type IDGen struct {
	prefix string
	next   int
	seen   IDSet
}

// NewIDGen returns a generator over seen. A nil set starts empty.
func NewIDGen(prefix string, seen IDSet) *IDGen {
	if seen == nil {
		seen = IDSet{}
	}
	return &IDGen{prefix: prefix, next: 1, seen: seen}
}

// Next returns the next free identity and reserves it.
func (g *IDGen) Next() string {
	for {
		id := g.prefix + strconv.Itoa(g.next)
		g.next++
		if !g.seen[id] {
			g.seen[id] = true
			return id
		}
	}
}

// Use returns id when it is set, otherwise a synthesized one.
func (g *IDGen) Use(id string) string {
	if id != "" {
		g.seen[id] = true
		return id
	}
	return g.Next()
}
