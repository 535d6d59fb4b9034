// Package block defines the Block type shared by the diff scanner and the
// merge engine: a half-open byte range within a file image where two or
// more copies of that file disagree.
package block

// Block is a half-open byte range [Pos, Pos+Size) within a file image.
// Invariants: Pos >= 0, Size >= 1, Pos+Size fits in a signed 64-bit
// integer.
type Block struct {
	Pos  int64
	Size int64
}

// End returns the exclusive end of the block.
func (b Block) End() int64 { return b.Pos + b.Size }

// Shift grows a by one byte at its tail and shrinks b by one byte at its
// head, preserving a.End() == b.Pos. It is used by the merge engine to
// sweep the boundary within a single merged disagreement region that has
// been split into two adjacent sub-blocks.
func Shift(a, b *Block) {
	a.Size++
	b.Pos++
	b.Size--
}
