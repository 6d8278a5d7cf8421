package optimizer

import (
	"testing"

	"github.com/cythanc/cythanc/pkg/mir"
)

func TestConstantPropagationFoldsIncChain(t *testing.T) {
	// c0 = 3; c0++; c0++  ->  c0 = 5
	block := mir.NewBlock(mir.Set(0, 3), mir.Inc(0), mir.Inc(0))

	pass := NewConstantPropagationPass()
	out, changed, err := pass.Run(block)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !changed {
		t.Fatalf("expected changed=true")
	}

	want := mir.NewBlock(mir.Set(0, 3), mir.Set(0, 4), mir.Set(0, 5))
	if !mir.Equal(out, want) {
		t.Fatalf("got %s\nwant %s", mir.Print(out), mir.Print(want))
	}
}

func TestConstantPropagationPrunesKnownBranch(t *testing.T) {
	// c0 = 1; if0 c0 { c1 = 9 } else { c1 = 8 }  ->  c0 = 1; c1 = 8
	block := mir.NewBlock(
		mir.Set(0, 1),
		mir.If0(0, mir.NewBlock(mir.Set(1, 9)), mir.NewBlock(mir.Set(1, 8))),
	)

	out, changed, err := NewConstantPropagationPass().Run(block)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !changed {
		t.Fatalf("expected changed=true")
	}

	want := mir.NewBlock(mir.Set(0, 1), mir.Set(1, 8))
	if !mir.Equal(out, want) {
		t.Fatalf("got %s\nwant %s", mir.Print(out), mir.Print(want))
	}
}

func TestConstantPropagationCopyChainResolvesToFlatValue(t *testing.T) {
	// c0 = 7; c1 = c0; c2 = c1  ->  c0=7; c1=7; c2=7
	block := mir.NewBlock(mir.Set(0, 7), mir.Copy(1, 0), mir.Copy(2, 1))

	out, _, err := NewConstantPropagationPass().Run(block)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := mir.NewBlock(mir.Set(0, 7), mir.Set(1, 7), mir.Set(2, 7))
	if !mir.Equal(out, want) {
		t.Fatalf("got %s\nwant %s", mir.Print(out), mir.Print(want))
	}
}

func TestConstantPropagationDropsFactsAcrossReadReg(t *testing.T) {
	// c0 = 5; readreg c0, r1; inc c0  -- the read invalidates the
	// known value, so Inc must not be folded.
	block := mir.NewBlock(mir.Set(0, 5), mir.ReadReg(0, mir.RegData1), mir.Inc(0))

	out, _, err := NewConstantPropagationPass().Run(block)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !mir.Equal(out, block) {
		t.Fatalf("expected no folding past ReadReg, got %s", mir.Print(out))
	}
}

func TestConstantPropagationJoinsDivergentArmsToUnknown(t *testing.T) {
	// if0 c0 { c1 = 1 } else { c1 = 2 }; inc c1 -- c1 differs across
	// arms so the merge must drop the fact and leave Inc unfolded.
	block := mir.NewBlock(
		mir.If0(0, mir.NewBlock(mir.Set(1, 1)), mir.NewBlock(mir.Set(1, 2))),
		mir.Inc(1),
	)

	out, _, err := NewConstantPropagationPass().Run(block)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	last := out[len(out)-1]
	if last.Kind != mir.KindInc {
		t.Fatalf("expected trailing Inc to survive unfolded, got %s", mir.Print(out))
	}
}

func TestConstantPropagationIsIdempotentAtFixpoint(t *testing.T) {
	block := mir.NewBlock(mir.Set(0, 3), mir.Inc(0), mir.Inc(0))
	pass := NewConstantPropagationPass()

	once, _, err := pass.Run(block)
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	twice, changed, err := pass.Run(once)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if changed {
		t.Fatalf("expected no change running an already-folded block again")
	}
	if !mir.Equal(once, twice) {
		t.Fatalf("expected fixpoint: %s vs %s", mir.Print(once), mir.Print(twice))
	}
}
