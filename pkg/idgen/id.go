package idgen

import "sync/atomic"

// Generator hands out strictly increasing ids. The zero value starts at 1.
type Generator struct {
	last atomic.Uint64
}

// New returns a generator whose first id is first.
func New(first uint64) *Generator {
	g := &Generator{}
	if first > 0 {
		g.last.Store(first - 1)
	}
	return g
}

func (g *Generator) Next() uint64 {
	return g.last.Add(1)
}

// Last returns the most recently issued id, or first-1 if none was issued.
func (g *Generator) Last() uint64 {
	return g.last.Load()
}

// Observe moves the generator past id so ids supplied by callers are never
// handed out again.
func (g *Generator) Observe(id uint64) {
	for {
		cur := g.last.Load()
		if id <= cur || g.last.CompareAndSwap(cur, id) {
			return
		}
	}
}
