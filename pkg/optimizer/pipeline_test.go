package optimizer

import (
	"testing"

	"github.com/cythanc/cythanc/pkg/mir"
)

func TestPipelineFoldsThenEliminatesDeadStores(t *testing.T) {
	// c0 = 2; c1 = c0; c0 = 9 (never read again); writereg r1, c1
	// Propagation resolves c1 to 2; c0's final store is dead.
	block := mir.NewBlock(
		mir.Set(0, 2),
		mir.Copy(1, 0),
		mir.Set(0, 9),
		mir.WriteRegCell(mir.RegData1, 1),
	)

	out, err := NewPipeline().Run(block)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := mir.NewBlock(mir.Set(1, 2), mir.WriteRegCell(mir.RegData1, 1))
	if !mir.Equal(out, want) {
		t.Fatalf("got %s\nwant %s", mir.Print(out), mir.Print(want))
	}
}

func TestPipelineReachesFixpointWithinIterationBudget(t *testing.T) {
	// A 20-cell copy chain ending in a register write: propagation
	// resolves the whole chain to the immediate 1 and folds the write,
	// after which dead-store elimination removes every store.
	n := 20
	block := mir.NewBlock(mir.Set(0, 1))
	for i := 1; i < n; i++ {
		block = append(block, mir.Copy(mir.Cell(i), mir.Cell(i-1)))
	}
	block = append(block, mir.WriteRegCell(mir.RegData1, mir.Cell(n-1)))

	out, err := NewPipeline().Run(block)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := mir.NewBlock(mir.WriteRegImm(mir.RegData1, 1))
	if !mir.Equal(out, want) {
		t.Fatalf("got %s\nwant %s", mir.Print(out), mir.Print(want))
	}
}

func TestPipelinePreservesBlockWithNoOpportunities(t *testing.T) {
	block := mir.NewBlock(
		mir.ReadReg(0, mir.RegData1),
		mir.WriteRegCell(mir.RegData1, 0),
	)

	out, err := NewPipeline().Run(block)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !mir.Equal(out, block) {
		t.Fatalf("expected block with no foldable facts to survive unchanged, got %s", mir.Print(out))
	}
}
