package optimizer

import (
	"testing"

	"github.com/cythanc/cythanc/pkg/lir"
	"github.com/cythanc/cythanc/pkg/mir"
)

func instrsEqual(t *testing.T, got, want []lir.Instruction) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d\ngot:  %v\nwant: %v", len(got), len(want), got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("instruction %d mismatch:\ngot:  %s\nwant: %s", i, got[i], want[i])
		}
	}
}

func TestPeepholeThreadsLabelBeforeJumpToTarget(t *testing.T) {
	l1 := lir.Label{ID: 1, Kind: lir.IfEnd}
	l2 := lir.Label{ID: 2, Kind: lir.BlockEnd}

	prog := &lir.Program{Instructions: []lir.Instruction{
		lir.LabelAt(l1),
		lir.Jump(l2),
		lir.LabelAt(l2),
		lir.Stop(),
	}}

	out := NewLIRPeepholePass().Run(prog)

	// l1 forwards to l2: the standalone Label(l1) is folded away and
	// any jump that targeted l1 would now target l2 directly. Here
	// nothing targets l1, so it simply vanishes from the output.
	want := []lir.Instruction{
		lir.Jump(l2),
		lir.LabelAt(l2),
		lir.Stop(),
	}
	instrsEqual(t, out.Instructions, want)
}

func TestPeepholeDropsUnreachableCodeAfterJump(t *testing.T) {
	l1 := lir.Label{ID: 1, Kind: lir.LoopEnd}
	prog := &lir.Program{Instructions: []lir.Instruction{
		lir.Jump(l1),
		lir.Inc(0), // unreachable: no label or If0 lands here
		lir.Dec(0), // also unreachable
		lir.LabelAt(l1),
		lir.Stop(),
	}}

	out := NewLIRPeepholePass().Run(prog)
	want := []lir.Instruction{
		lir.Jump(l1),
		lir.LabelAt(l1),
		lir.Stop(),
	}
	instrsEqual(t, out.Instructions, want)
}

func TestPeepholeKeepsCodeAfterIf0Landing(t *testing.T) {
	l1 := lir.Label{ID: 1, Kind: lir.IfStart}
	prog := &lir.Program{Instructions: []lir.Instruction{
		lir.Jump(l1),
		lir.If0(0, l1), // a landing site even though it follows a jump
		lir.Inc(0),
		lir.LabelAt(l1),
	}}

	out := NewLIRPeepholePass().Run(prog)
	want := []lir.Instruction{
		lir.Jump(l1),
		lir.If0(0, l1),
		lir.Inc(0),
		lir.LabelAt(l1),
	}
	instrsEqual(t, out.Instructions, want)
}

func TestPeepholePreservesSelfJumpingLabel(t *testing.T) {
	// The empty-Loop lowering schema: Label(Ls); Jump(Ls). Popping the
	// label here would leave a dangling jump target.
	ls := lir.Label{ID: 1, Kind: lir.LoopStart}
	prog := &lir.Program{Instructions: []lir.Instruction{
		lir.LabelAt(ls),
		lir.Jump(ls),
	}}

	out := NewLIRPeepholePass().Run(prog)
	want := []lir.Instruction{
		lir.LabelAt(ls),
		lir.Jump(ls),
	}
	instrsEqual(t, out.Instructions, want)
}

func TestPeepholeResolvesForwardingThroughMatchTable(t *testing.T) {
	alias := lir.Label{ID: 1, Kind: lir.MatchLabel}
	real := lir.Label{ID: 2, Kind: lir.MatchLabel}

	var table [mir.Width]lir.Label
	for i := range table {
		table[i] = alias
	}

	prog := &lir.Program{Instructions: []lir.Instruction{
		lir.Match(0, table),
		lir.Jump(real), // falls straight through to alias's target
		lir.LabelAt(alias),
		lir.Jump(real),
		lir.LabelAt(real),
		lir.Stop(),
	}}

	out := NewLIRPeepholePass().Run(prog)

	for _, inst := range out.Instructions {
		if inst.Op == lir.OpMatch {
			for _, target := range inst.Table {
				if target != real {
					t.Fatalf("expected every match table entry to resolve to %s, got %s", real, target)
				}
			}
		}
	}
}

func TestPeepholeEveryTargetHasExactlyOneLabel(t *testing.T) {
	a := lir.Label{ID: 1, Kind: lir.IfStart}
	b := lir.Label{ID: 2, Kind: lir.IfEnd}

	prog := &lir.Program{Instructions: []lir.Instruction{
		lir.If0(0, a),
		lir.Jump(b),
		lir.LabelAt(a),
		lir.Inc(0),
		lir.LabelAt(b),
		lir.Stop(),
	}}

	out := NewLIRPeepholePass().Run(prog)

	targets := map[lir.Label]bool{}
	for _, inst := range out.Instructions {
		switch inst.Op {
		case lir.OpJump, lir.OpIf0:
			targets[inst.Target] = true
		case lir.OpMatch:
			for _, l := range inst.Table {
				targets[l] = true
			}
		}
	}

	seenLabels := map[lir.Label]int{}
	for _, inst := range out.Instructions {
		if inst.Op == lir.OpLabel {
			seenLabels[inst.Target]++
		}
	}

	for target := range targets {
		if seenLabels[target] != 1 {
			t.Fatalf("target %s has %d matching labels, want exactly 1", target, seenLabels[target])
		}
	}
}
