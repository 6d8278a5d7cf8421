package optimizer

import (
	"fmt"

	"github.com/cythanc/cythanc/pkg/mir"
)

// Pass is one MIR-to-MIR rewrite. Implementations must be total
// (defined on every input) and idempotent at fixpoint (spec §4.4).
type Pass interface {
	Name() string
	Run(block mir.Block) (mir.Block, bool, error)
}

// Pipeline runs propagate -> eliminate-dead repeatedly until the
// instruction count is stable between two successive iterations
// (spec §4.4), mirroring the teacher's Optimizer.Optimize iteration
// loop (pkg/optimizer/optimizer.go) with its maxIterations guard.
type Pipeline struct {
	passes        []Pass
	maxIterations int
}

// NewPipeline builds the standard propagate/eliminate fixpoint
// pipeline described in spec §4.4.
func NewPipeline() *Pipeline {
	return &Pipeline{
		passes: []Pass{
			NewConstantPropagationPass(),
			NewDeadStoreEliminationPass(),
		},
		maxIterations: 64,
	}
}

// Run iterates the pipeline to a fixpoint (or maxIterations, whichever
// comes first) and returns the final block.
func (pl *Pipeline) Run(block mir.Block) (mir.Block, error) {
	current := block
	lastCount := mir.Count(current)

	for iter := 0; iter < pl.maxIterations; iter++ {
		anyChanged := false
		for _, pass := range pl.passes {
			next, changed, err := pass.Run(current)
			if err != nil {
				return nil, fmt.Errorf("pass %s failed: %w", pass.Name(), err)
			}
			if changed {
				anyChanged = true
			}
			current = next
		}

		count := mir.Count(current)
		if !anyChanged && count == lastCount {
			return current, nil
		}
		lastCount = count
	}

	return current, nil
}
