package core

// NodeID addresses a syntax node within one compilation. Zero means "none".
type NodeID int

// SymbolID addresses a symbol within one compilation. Zero means "none".
type SymbolID int

// IDGenerator hands out increasing ids starting at 1.
//
// A generator belongs to exactly one compilation; it is not safe for
// concurrent use and must never be shared between compilations.
type IDGenerator struct {
	next int
}

// NewIDGenerator returns a generator whose first id is 1.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{}
}

// Next returns the next id.
func (g *IDGenerator) Next() int {
	g.next++
	return g.next
}

// Reset restarts the sequence.
func (g *IDGenerator) Reset() {
	g.next = 0
}

// Issued returns how many ids have been handed out since the last reset.
func (g *IDGenerator) Issued() int {
	return g.next
}
