package optimizer

import (
	"github.com/cythanc/cythanc/pkg/mir"
)

// DeadStoreEliminationPass implements spec §4.3: compute reads(block)
// once on the incoming block, then rebuild it discarding any write
// whose destination is never read. Register writes are never
// discarded. Mirrors the teacher's Pass shape
// (pkg/optimizer.DeadCodeEliminationPass) but operates on live-read
// sets instead of per-instruction use-def chains, since the MIR tree
// has no flat register numbering to track.
type DeadStoreEliminationPass struct{}

func NewDeadStoreEliminationPass() *DeadStoreEliminationPass {
	return &DeadStoreEliminationPass{}
}

func (p *DeadStoreEliminationPass) Name() string { return "Dead Store Elimination" }

func (p *DeadStoreEliminationPass) Run(block mir.Block) (mir.Block, bool, error) {
	reads := mir.Reads(block)
	out := eliminate(reads, block)
	changed := mir.Count(out) != mir.Count(block) || !mir.Equal(block, out)
	return out, changed, nil
}

func eliminate(reads mir.CellSet, block mir.Block) mir.Block {
	out := make(mir.Block, 0, len(block))
	for _, n := range block {
		switch n.Kind {
		case mir.KindSet, mir.KindCopy, mir.KindInc, mir.KindDec, mir.KindReadReg:
			if !reads.Has(n.Cell) {
				continue
			}
		case mir.KindIf0:
			n.Then = eliminate(reads, n.Then)
			n.Else = eliminate(reads, n.Else)
		case mir.KindLoop:
			n.Body = eliminate(reads, n.Body)
		case mir.KindBlock:
			n.Body = eliminate(reads, n.Body)
		case mir.KindMatch:
			newArms := make([]mir.MatchArm, len(n.Arms))
			for i, arm := range n.Arms {
				newArms[i] = mir.MatchArm{Values: arm.Values, Body: eliminate(reads, arm.Body)}
			}
			n.Arms = newArms
		}
		out = append(out, n)
	}
	return dropAdjacentDupeStores(out)
}

// dropAdjacentDupeStores implements the minor peephole noted in spec
// §4.3: when two adjacent store-to-same-cell instructions survive,
// drop the earlier one (its value is immediately overwritten).
func dropAdjacentDupeStores(block mir.Block) mir.Block {
	isStore := func(n mir.Node) (mir.Cell, bool) {
		if n.Kind == mir.KindSet || n.Kind == mir.KindCopy {
			return n.Cell, true
		}
		return 0, false
	}

	out := make(mir.Block, 0, len(block))
	for _, n := range block {
		if cell, ok := isStore(n); ok && len(out) > 0 {
			if prevCell, prevOK := isStore(out[len(out)-1]); prevOK && prevCell == cell {
				out = out[:len(out)-1]
			}
		}
		out = append(out, n)
	}
	return out
}
