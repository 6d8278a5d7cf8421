package optimizer

import (
	"testing"

	"github.com/cythanc/cythanc/pkg/mir"
)

func TestDeadStoreEliminationDropsUnreadWrite(t *testing.T) {
	// c0 = 3; c1 = 4  -- c0 is never read, c1 is returned via WriteReg.
	block := mir.NewBlock(mir.Set(0, 3), mir.Set(1, 4), mir.WriteRegCell(mir.RegData1, 1))

	out, changed, err := NewDeadStoreEliminationPass().Run(block)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !changed {
		t.Fatalf("expected changed=true")
	}

	want := mir.NewBlock(mir.Set(1, 4), mir.WriteRegCell(mir.RegData1, 1))
	if !mir.Equal(out, want) {
		t.Fatalf("got %s\nwant %s", mir.Print(out), mir.Print(want))
	}
}

func TestDeadStoreEliminationKeepsReadCells(t *testing.T) {
	block := mir.NewBlock(
		mir.Set(0, 3),
		mir.If0(0, mir.NewBlock(mir.Stop()), mir.NewBlock()),
	)

	out, changed, err := NewDeadStoreEliminationPass().Run(block)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if changed {
		t.Fatalf("expected no change: c0's Set feeds the If0 condition")
	}
	if !mir.Equal(out, block) {
		t.Fatalf("got %s\nwant unchanged %s", mir.Print(out), mir.Print(block))
	}
}

func TestDeadStoreEliminationCollapsesAdjacentStoresToSameCell(t *testing.T) {
	// c0 = 1; c0 = 2; writereg r1, c0  -- the first store to c0 is
	// immediately overwritten and can be dropped outright.
	block := mir.NewBlock(mir.Set(0, 1), mir.Set(0, 2), mir.WriteRegCell(mir.RegData1, 0))

	out, _, err := NewDeadStoreEliminationPass().Run(block)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := mir.NewBlock(mir.Set(0, 2), mir.WriteRegCell(mir.RegData1, 0))
	if !mir.Equal(out, want) {
		t.Fatalf("got %s\nwant %s", mir.Print(out), mir.Print(want))
	}
}

func TestDeadStoreEliminationNeverIntroducesNewReads(t *testing.T) {
	// Invariant 4 (spec §8): reads(eliminate-dead(B)) subset of reads(B).
	block := mir.NewBlock(
		mir.Set(0, 3),
		mir.Set(1, 4),
		mir.Loop(mir.NewBlock(mir.Inc(2), mir.If0(1, mir.NewBlock(mir.Break()), mir.NewBlock()))),
	)

	before := mir.Reads(block)
	out, _, err := NewDeadStoreEliminationPass().Run(block)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	after := mir.Reads(out)
	for c := range after {
		if !before.Has(c) {
			t.Fatalf("eliminate-dead introduced a new read of cell %d", c)
		}
	}
}

func TestDeadStoreEliminationRecursesIntoMatchArms(t *testing.T) {
	block := mir.NewBlock(
		mir.Match(0, []mir.MatchArm{
			{Values: map[int]bool{0: true}, Body: mir.NewBlock(mir.Set(1, 1), mir.Set(2, 2))},
		}),
		mir.WriteRegCell(mir.RegData1, 1),
	)

	out, _, err := NewDeadStoreEliminationPass().Run(block)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	arm := out[0].Arms[0].Body
	for _, n := range arm {
		if n.Kind == mir.KindSet && n.Cell == 2 {
			t.Fatalf("expected unread Set(c2) inside match arm to be dropped: %s", mir.Print(out))
		}
	}
}
