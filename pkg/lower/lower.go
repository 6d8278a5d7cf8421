// Package lower implements the MIR→LIR lowering of spec §4.5
// (component G): a state machine that allocates labels, maintains
// loop/block stacks, performs structured-jump translation of
// break/continue/skip, and returns a skip-status summarizing whether
// a region unconditionally diverts control. Grounded on the general
// shape of the teacher's single-pass recursive lowering in
// pkg/semantic/analyzer.go, retargeted from AST→IR to MIR→LIR.
package lower

import (
	"fmt"

	"github.com/cythanc/cythanc/pkg/lir"
	"github.com/cythanc/cythanc/pkg/mir"
)

// Status summarizes how a region can terminate, ordered lightest to
// heaviest: None < Continue < Break < Skipped < Stopped (spec §3).
type Status int

const (
	StatusNone Status = iota
	StatusContinue
	StatusBreak
	StatusSkipped
	StatusStopped
)

// lightest returns the lighter (lower-numbered) of two statuses: the
// result of executing two code paths from which either may run.
func lightest(a, b Status) Status {
	if a < b {
		return a
	}
	return b
}

// Lowerer carries the mutable state threaded through lowering: a
// label-id counter, a stack of active loop labels (for break/continue
// targeting) and a stack of active block-end labels (for skip
// targeting), plus the accumulated LIR program (spec §4.5, §5).
type Lowerer struct {
	nextID     int
	loopStack  []lir.Label // LoopStart labels; LoopEnd is derived from the same id
	blockStack []lir.Label // BlockEnd labels, pushed directly
	prog       *lir.Program
}

func New() *Lowerer {
	return &Lowerer{prog: &lir.Program{}}
}

func (lw *Lowerer) allocID() int {
	id := lw.nextID
	lw.nextID++
	return id
}

func (lw *Lowerer) emit(i lir.Instruction) {
	lw.prog.Emit(i)
}

// Lower runs the lowering over a top-level MIR block and returns the
// finalized LIR program.
func Lower(block mir.Block) *lir.Program {
	lw := New()
	lw.lowerBlock(block)
	return lw.prog
}

// lowerBlock lowers a flat sequence of MIR nodes in order. The status
// of the sequence is that of the first node that reports a non-None
// status; nodes after a guaranteed diversion are unreachable and are
// not lowered (spec §3: a block executes until a node diverts).
func (lw *Lowerer) lowerBlock(block mir.Block) Status {
	for _, n := range block {
		st := lw.lowerNode(n)
		if st != StatusNone {
			return st
		}
	}
	return StatusNone
}

func (lw *Lowerer) lowerNode(n mir.Node) Status {
	switch n.Kind {
	case mir.KindSet:
		lw.emit(lir.Copy(n.Cell, lir.ImmValue(n.Imm)))
		return StatusNone

	case mir.KindCopy:
		if n.Cell == n.From {
			return StatusNone
		}
		lw.emit(lir.Copy(n.Cell, lir.CellValue(n.From)))
		return StatusNone

	case mir.KindInc:
		lw.emit(lir.Inc(n.Cell))
		return StatusNone

	case mir.KindDec:
		lw.emit(lir.Dec(n.Cell))
		return StatusNone

	case mir.KindReadReg:
		lw.emit(lir.ReadReg(n.Cell, n.Reg))
		return StatusNone

	case mir.KindWriteReg:
		var v lir.Value
		if n.UseImm {
			v = lir.ImmValue(n.Imm)
		} else {
			v = lir.CellValue(n.From)
		}
		lw.emit(lir.WriteReg(n.Reg, v))
		return StatusNone

	case mir.KindIf0:
		return lw.lowerIf0(n)

	case mir.KindLoop:
		return lw.lowerLoop(n)

	case mir.KindBlock:
		return lw.lowerBlockNode(n)

	case mir.KindBreak:
		top := lw.loopStack[len(lw.loopStack)-1]
		lw.emit(lir.Jump(top.DeriveEnd()))
		return StatusBreak

	case mir.KindContinue:
		top := lw.loopStack[len(lw.loopStack)-1]
		lw.emit(lir.Jump(top))
		return StatusContinue

	case mir.KindSkip:
		top := lw.blockStack[len(lw.blockStack)-1]
		lw.emit(lir.Jump(top))
		return StatusSkipped

	case mir.KindStop:
		lw.emit(lir.Stop())
		return StatusStopped

	case mir.KindMatch:
		return lw.lowerMatch(n)

	default:
		panic(fmt.Sprintf("lower: unknown MIR node kind %s", n.Kind))
	}
}

func (lw *Lowerer) lowerIf0(n mir.Node) Status {
	if mir.Equal(n.Then, n.Else) {
		return lw.lowerBlock(n.Then)
	}

	id := lw.allocID()
	end := lir.Label{ID: id, Kind: lir.IfEnd}

	if len(n.Then) == 0 {
		lw.emit(lir.If0(n.Cell, end))
		elseStatus := lw.lowerBlock(n.Else)
		lw.emit(lir.LabelAt(end))
		return lightest(StatusNone, elseStatus)
	}

	start := lir.Label{ID: id, Kind: lir.IfStart}
	lw.emit(lir.If0(n.Cell, start))
	elseStatus := lw.lowerBlock(n.Else)
	lw.emit(lir.Jump(end))
	lw.emit(lir.LabelAt(start))
	thenStatus := lw.lowerBlock(n.Then)
	lw.emit(lir.LabelAt(end))
	return lightest(thenStatus, elseStatus)
}

func (lw *Lowerer) lowerLoop(n mir.Node) Status {
	if len(n.Body) == 0 {
		id := lw.allocID()
		start := lir.Label{ID: id, Kind: lir.LoopStart}
		lw.emit(lir.LabelAt(start))
		lw.emit(lir.Jump(start))
		return StatusStopped
	}

	id := lw.allocID()
	start := lir.Label{ID: id, Kind: lir.LoopStart}
	end := lir.Label{ID: id, Kind: lir.LoopEnd}

	lw.emit(lir.LabelAt(start))
	lw.loopStack = append(lw.loopStack, start)
	bodyStatus := lw.lowerBlock(n.Body)
	lw.loopStack = lw.loopStack[:len(lw.loopStack)-1]
	lw.emit(lir.Jump(start))
	lw.emit(lir.LabelAt(end))

	if bodyStatus == StatusStopped {
		return StatusStopped
	}
	return StatusNone
}

func (lw *Lowerer) lowerBlockNode(n mir.Node) Status {
	id := lw.allocID()
	end := lir.Label{ID: id, Kind: lir.BlockEnd}

	lw.blockStack = append(lw.blockStack, end)
	bodyStatus := lw.lowerBlock(n.Body)
	lw.blockStack = lw.blockStack[:len(lw.blockStack)-1]
	lw.emit(lir.LabelAt(end))

	if bodyStatus == StatusSkipped {
		return StatusNone
	}
	return bodyStatus
}

func (lw *Lowerer) lowerMatch(n mir.Node) Status {
	endID := lw.allocID()
	end := lir.Label{ID: endID, Kind: lir.MatchLabel}

	var table [mir.Width]lir.Label
	for i := range table {
		table[i] = end
	}

	armLabels := make([]lir.Label, len(n.Arms))
	for i, arm := range n.Arms {
		armID := lw.allocID()
		armLabels[i] = lir.Label{ID: armID, Kind: lir.MatchLabel}
		for v := range arm.Values {
			table[v] = armLabels[i]
		}
	}

	lw.emit(lir.Match(n.Cell, table))
	lw.emit(lir.Jump(end))

	status := StatusStopped // identity for lightest; the first arm overwrites it
	for i, arm := range n.Arms {
		lw.emit(lir.LabelAt(armLabels[i]))
		armStatus := lw.lowerBlock(arm.Body)
		lw.emit(lir.Jump(end))
		if i == 0 {
			status = armStatus
		} else {
			status = lightest(status, armStatus)
		}
	}
	lw.emit(lir.LabelAt(end))

	if len(n.Arms) == 0 {
		return StatusNone
	}
	return status
}
