package optimizer

import (
	"github.com/cythanc/cythanc/pkg/lir"
)

// LIRPeepholePass implements spec §4.6: jump threading plus
// elimination of dead code between an unconditional jump and the next
// label or conditional. It is the only LIR-level optimization (spec
// §4.6), safe because every reachable-from-outside-order instruction
// comes through a Label or an If0 (spec glossary, "landing site").
// Grounded on the pattern-list shape of the teacher's
// pkg/optimizer/peephole.go, reduced to the spec's single algorithm.
type LIRPeepholePass struct{}

func NewLIRPeepholePass() *LIRPeepholePass { return &LIRPeepholePass{} }

func (p *LIRPeepholePass) Name() string { return "LIR Peephole" }

// Run returns a new, threaded and dead-code-free program.
func (p *LIRPeepholePass) Run(prog *lir.Program) *lir.Program {
	out, forwarding := threadJumps(prog.Instructions)
	resolved := resolveForwarding(forwarding)
	rewritten := rewriteTargets(out, resolved)
	return &lir.Program{Instructions: rewritten}
}

// threadJumps performs the single linear pass of spec §4.6 steps 1-2.
func threadJumps(instrs []lir.Instruction) ([]lir.Instruction, map[lir.Label]lir.Label) {
	forwarding := make(map[lir.Label]lir.Label)
	out := make([]lir.Instruction, 0, len(instrs))
	afterJump := false

	for _, inst := range instrs {
		if afterJump {
			if inst.Op != lir.OpLabel && inst.Op != lir.OpIf0 {
				// Between an unconditional jump and the next landing
				// site: provably unreachable, drop it.
				continue
			}
		}

		switch inst.Op {
		case lir.OpJump:
			target := inst.Target
			for len(out) > 0 && out[len(out)-1].Op == lir.OpLabel {
				trailing := out[len(out)-1].Target
				if trailing == target {
					// A label that forwards to itself through an
					// empty loop must resolve to itself, not vanish
					// (spec §9): keep it as the jump's landing site.
					break
				}
				out = out[:len(out)-1]
				forwarding[trailing] = target
			}
			out = append(out, inst)
			afterJump = true

		case lir.OpLabel, lir.OpIf0:
			out = append(out, inst)
			afterJump = false

		default:
			out = append(out, inst)
			afterJump = false
		}
	}

	return out, forwarding
}

// resolveForwarding resolves the forwarding map to a fixpoint; cycles
// (including direct self-references) resolve to themselves (spec §4.6, §9).
func resolveForwarding(forwarding map[lir.Label]lir.Label) map[lir.Label]lir.Label {
	resolved := make(map[lir.Label]lir.Label, len(forwarding))
	for start := range forwarding {
		seen := make(map[lir.Label]bool)
		cur := start
		for {
			if seen[cur] {
				break
			}
			seen[cur] = true
			next, ok := forwarding[cur]
			if !ok {
				break
			}
			cur = next
		}
		resolved[start] = cur
	}
	return resolved
}

func resolveLabel(l lir.Label, resolved map[lir.Label]lir.Label) lir.Label {
	if t, ok := resolved[l]; ok {
		return t
	}
	return l
}

// rewriteTargets rewrites every Jump, Label, If0 and Match target
// through the resolved forwarding map (spec §4.6 step 3).
func rewriteTargets(instrs []lir.Instruction, resolved map[lir.Label]lir.Label) []lir.Instruction {
	out := make([]lir.Instruction, len(instrs))
	for i, inst := range instrs {
		switch inst.Op {
		case lir.OpJump, lir.OpLabel, lir.OpIf0:
			inst.Target = resolveLabel(inst.Target, resolved)
		case lir.OpMatch:
			for j, l := range inst.Table {
				inst.Table[j] = resolveLabel(l, resolved)
			}
		}
		out[i] = inst
	}
	return out
}
