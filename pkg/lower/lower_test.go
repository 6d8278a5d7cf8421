package lower

import (
	"testing"

	"github.com/cythanc/cythanc/pkg/lir"
	"github.com/cythanc/cythanc/pkg/mir"
)

func opSeq(prog *lir.Program) []lir.Op {
	ops := make([]lir.Op, len(prog.Instructions))
	for i, inst := range prog.Instructions {
		ops[i] = inst.Op
	}
	return ops
}

func eqOps(t *testing.T, got, want []lir.Op) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("op sequence length: got %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("op %d: got %s, want %s (full: got %v want %v)", i, got[i], want[i], got, want)
		}
	}
}

func TestLowerSetEmitsImmediateCopy(t *testing.T) {
	prog := Lower(mir.NewBlock(mir.Set(0, 5)))
	eqOps(t, opSeq(prog), []lir.Op{lir.OpCopy})
	inst := prog.Instructions[0]
	if !inst.Value.IsImm || inst.Value.Imm != 5 {
		t.Fatalf("expected Copy(c0, imm 5), got %s", inst)
	}
}

func TestLowerCopySameCellIsNoOp(t *testing.T) {
	prog := Lower(mir.NewBlock(mir.Copy(0, 0)))
	if len(prog.Instructions) != 0 {
		t.Fatalf("expected Copy(c,c) to lower to nothing, got %v", prog.Instructions)
	}
}

func TestLowerEmptyLoopIsTwoInstructionSelfJump(t *testing.T) {
	prog := Lower(mir.NewBlock(mir.Loop(mir.NewBlock())))
	eqOps(t, opSeq(prog), []lir.Op{lir.OpLabel, lir.OpJump})
	if prog.Instructions[0].Target != prog.Instructions[1].Target {
		t.Fatalf("expected the jump to target its own label, got %s", prog.Instructions)
	}
}

func TestLowerNonEmptyLoopEmitsStartEndPair(t *testing.T) {
	prog := Lower(mir.NewBlock(mir.Loop(mir.NewBlock(mir.Inc(0), mir.Break()))))
	eqOps(t, opSeq(prog), []lir.Op{lir.OpLabel, lir.OpInc, lir.OpJump, lir.OpJump, lir.OpLabel})

	start := prog.Instructions[0].Target
	end := prog.Instructions[4].Target
	if start.ID != end.ID {
		t.Fatalf("expected LoopStart/LoopEnd to share an id, got %s / %s", start, end)
	}
	if start.Kind != lir.LoopStart || end.Kind != lir.LoopEnd {
		t.Fatalf("unexpected label kinds: %s / %s", start.Kind, end.Kind)
	}
	// The Break's jump (instruction index 2) must target the loop end.
	if prog.Instructions[2].Target != end {
		t.Fatalf("expected Break to jump to loop end, got %s", prog.Instructions[2].Target)
	}
	// The body's trailing jump (index 3) must target the loop start.
	if prog.Instructions[3].Target != start {
		t.Fatalf("expected trailing jump back to loop start, got %s", prog.Instructions[3].Target)
	}
}

func TestLowerContinueJumpsToLoopStart(t *testing.T) {
	prog := Lower(mir.NewBlock(mir.Loop(mir.NewBlock(mir.Continue()))))
	start := prog.Instructions[0].Target
	continueJump := prog.Instructions[1]
	if continueJump.Op != lir.OpJump || continueJump.Target != start {
		t.Fatalf("expected Continue to jump straight to loop start, got %s", continueJump)
	}
}

func TestLowerStructurallyEqualArmsCollapseToOneArm(t *testing.T) {
	body := mir.NewBlock(mir.Set(1, 3))
	prog := Lower(mir.NewBlock(mir.If0(0, body, body)))
	eqOps(t, opSeq(prog), []lir.Op{lir.OpCopy})
}

func TestLowerIf0EmptyThenUsesSimpleForm(t *testing.T) {
	prog := Lower(mir.NewBlock(mir.If0(0, mir.NewBlock(), mir.NewBlock(mir.Set(1, 2)))))
	eqOps(t, opSeq(prog), []lir.Op{lir.OpIf0, lir.OpCopy, lir.OpLabel})
	if prog.Instructions[0].Target != prog.Instructions[2].Target {
		t.Fatalf("expected If0 to branch directly to the trailing end label")
	}
}

func TestLowerIf0GeneralFormPutsElseBeforeThen(t *testing.T) {
	prog := Lower(mir.NewBlock(mir.If0(0,
		mir.NewBlock(mir.Set(1, 1)),
		mir.NewBlock(mir.Set(2, 2)),
	)))

	// if0 c0, start; <else: Copy c2,2>; jump end; start:; <then: Copy c1,1>; end:
	eqOps(t, opSeq(prog), []lir.Op{lir.OpIf0, lir.OpCopy, lir.OpJump, lir.OpLabel, lir.OpCopy, lir.OpLabel})

	elseCopy := prog.Instructions[1]
	if elseCopy.Cell != 2 {
		t.Fatalf("expected the else-arm's store to cell 2 to be emitted first, got %s", elseCopy)
	}
	thenCopy := prog.Instructions[4]
	if thenCopy.Cell != 1 {
		t.Fatalf("expected the then-arm's store to cell 1 to be emitted after the jump, got %s", thenCopy)
	}

	start := prog.Instructions[0].Target
	if start != prog.Instructions[3].Target {
		t.Fatalf("expected If0 to branch to the label preceding the then-arm")
	}
	end := prog.Instructions[2].Target
	if end != prog.Instructions[5].Target {
		t.Fatalf("expected the unconditional jump to target the trailing end label")
	}
}

func TestLowerBlockConsumesSkipToNone(t *testing.T) {
	prog := Lower(mir.NewBlock(mir.BlockNode(mir.NewBlock(mir.Skip(), mir.Set(0, 9)))))
	// Skip jumps to block end; the Set after it is unreachable and not lowered.
	eqOps(t, opSeq(prog), []lir.Op{lir.OpJump, lir.OpLabel})
}

func TestLowerBreakWithoutEnclosingLoopPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected lowering an unguarded Break to panic on empty loop stack")
		}
	}()
	Lower(mir.NewBlock(mir.Break()))
}

func TestLowerMatchBuildsSixteenEntryTable(t *testing.T) {
	prog := Lower(mir.NewBlock(mir.Match(0, []mir.MatchArm{
		{Values: map[int]bool{1: true, 2: true}, Body: mir.NewBlock(mir.Stop())},
	})))

	var match *lir.Instruction
	for i := range prog.Instructions {
		if prog.Instructions[i].Op == lir.OpMatch {
			match = &prog.Instructions[i]
		}
	}
	if match == nil {
		t.Fatalf("expected a Match instruction in %v", prog.Instructions)
	}
	if match.Table[1] != match.Table[2] {
		t.Fatalf("expected table entries 1 and 2 to share the arm label")
	}
	if match.Table[0] == match.Table[1] {
		t.Fatalf("expected unassigned table entries to differ from the arm label (default to end)")
	}
}

func TestLowerSequenceStopsAtFirstDivergingNode(t *testing.T) {
	prog := Lower(mir.NewBlock(mir.Stop(), mir.Set(0, 1)))
	eqOps(t, opSeq(prog), []lir.Op{lir.OpStop})
}
