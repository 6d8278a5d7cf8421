package mir

import (
	"golang.org/x/exp/maps"
)

// CellSet is a set of cell addresses.
type CellSet map[Cell]struct{}

func newCellSet() CellSet { return make(CellSet) }

func (s CellSet) add(c Cell) { s[c] = struct{}{} }

func (s CellSet) Has(c Cell) bool {
	_, ok := s[c]
	return ok
}

// Union merges other into a copy of s and returns it.
func (s CellSet) Union(other CellSet) CellSet {
	out := make(CellSet, len(s)+len(other))
	maps.Copy(out, s)
	maps.Copy(out, other)
	return out
}

// Cells returns the set's members as a slice, order unspecified.
func (s CellSet) Cells() []Cell {
	return maps.Keys(s)
}

// Reads computes the set of cells whose current value can influence
// any observable behavior of block: the cell argument of Copy, the
// condition of If0 and Match, and the cell form of WriteReg. It
// recurses structurally into If0, Loop, Block and Match (spec §4.1).
func Reads(block Block) CellSet {
	out := newCellSet()
	readsInto(block, out)
	return out
}

func readsInto(block Block, out CellSet) {
	for _, n := range block {
		switch n.Kind {
		case KindCopy:
			out.add(n.From)
		case KindIf0:
			out.add(n.Cell)
			readsInto(n.Then, out)
			readsInto(n.Else, out)
		case KindLoop, KindBlock:
			readsInto(n.Body, out)
		case KindMatch:
			out.add(n.Cell)
			for _, arm := range n.Arms {
				readsInto(arm.Body, out)
			}
		case KindWriteReg:
			if !n.UseImm {
				out.add(n.From)
			}
		}
	}
}

// Writes computes the set of cells whose value may change: the
// destination of Set, Copy, Inc, Dec and ReadReg, and the cells
// transitively written in nested blocks (spec §4.1).
func Writes(block Block) CellSet {
	out := newCellSet()
	writesInto(block, out)
	return out
}

func writesInto(block Block, out CellSet) {
	for _, n := range block {
		switch n.Kind {
		case KindSet, KindCopy, KindInc, KindDec, KindReadReg:
			out.add(n.Cell)
		case KindIf0:
			writesInto(n.Then, out)
			writesInto(n.Else, out)
		case KindLoop, KindBlock:
			writesInto(n.Body, out)
		case KindMatch:
			for _, arm := range n.Arms {
				writesInto(arm.Body, out)
			}
		}
	}
}

// Count returns the block's instruction count as defined by spec
// §4.4: counted recursively through nested blocks, where a control
// node counts as 1 plus the count of its children.
func Count(block Block) int {
	n := 0
	for _, node := range block {
		n++
		switch node.Kind {
		case KindIf0:
			n += Count(node.Then) + Count(node.Else)
		case KindLoop, KindBlock:
			n += Count(node.Body)
		case KindMatch:
			for _, arm := range node.Arms {
				n += Count(arm.Body)
			}
		}
	}
	return n
}
