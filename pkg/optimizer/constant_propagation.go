package optimizer

import (
	"github.com/cythanc/cythanc/pkg/mir"
)

// ConstantPropagationPass implements spec §4.2: a forward-flow
// constant/copy propagator with branch pruning, carrying an
// equivalence-class fact store merged at control-flow joins. It
// mirrors the teacher's Pass shape (pkg/optimizer.ConstantFoldingPass)
// but walks a structured tree instead of a flat instruction list.
type ConstantPropagationPass struct{}

func NewConstantPropagationPass() *ConstantPropagationPass {
	return &ConstantPropagationPass{}
}

func (p *ConstantPropagationPass) Name() string { return "Constant/Copy Propagation" }

// Run rebuilds block under a fresh fact store and reports whether the
// rebuilt block differs from the input, in instruction count or
// structurally — passes
// never mutate their input in place (spec §3 lifecycle).
func (p *ConstantPropagationPass) Run(block mir.Block) (mir.Block, bool, error) {
	before := mir.Count(block)
	out, _ := propagate(newStore(), block)
	changed := mir.Count(out) != before || !mir.Equal(block, out)
	return out, changed, nil
}

// propagate transforms block under store s, returning the rebuilt
// block and the outgoing store. s is mutated in place; callers that
// need the pre-transform state must clone first.
func propagate(s *store, block mir.Block) (mir.Block, *store) {
	out := make(mir.Block, 0, len(block))
	for _, n := range block {
		var emitted mir.Block
		emitted, s = propagateNode(s, n)
		out = append(out, emitted...)
	}
	return out, s
}

func propagateNode(s *store, n mir.Node) (mir.Block, *store) {
	switch n.Kind {
	case mir.KindSet:
		s.set(n.Cell, fact{kind: factValue, value: n.Imm})
		return mir.NewBlock(n), s

	case mir.KindCopy:
		f := s.flat(n.From)
		switch f.kind {
		case factValue:
			s.set(n.Cell, fact{kind: factValue, value: f.value})
			return mir.NewBlock(mir.Set(n.Cell, f.value)), s
		case factRef:
			s.set(n.Cell, fact{kind: factRef, ref: f.ref})
			return mir.NewBlock(mir.Copy(n.Cell, f.ref)), s
		default:
			s.set(n.Cell, fact{kind: factRef, ref: n.From})
			return mir.NewBlock(n), s
		}

	case mir.KindInc, mir.KindDec:
		if v, ok := s.value(n.Cell); ok {
			var result mir.Immediate
			if n.Kind == mir.KindInc {
				result = mir.Immediate(mir.IncMod(int(v)))
			} else {
				result = mir.Immediate(mir.DecMod(int(v)))
			}
			s.set(n.Cell, fact{kind: factValue, value: result})
			return mir.NewBlock(mir.Set(n.Cell, result)), s
		}
		s.drop(n.Cell)
		return mir.NewBlock(n), s

	case mir.KindIf0:
		if v, ok := s.value(n.Cell); ok {
			if v == 0 {
				body, next := propagate(s, n.Then)
				return body, next
			}
			body, next := propagate(s, n.Else)
			return body, next
		}
		sThen := s.clone()
		sElse := s.clone()
		then, sThen := propagate(sThen, n.Then)
		els, sElse := propagate(sElse, n.Else)
		merged := merge(sThen, sElse)
		return mir.NewBlock(mir.If0(n.Cell, then, els)), merged

	case mir.KindLoop:
		writes := mir.Writes(n.Body)
		for c := range writes {
			s.drop(c)
		}
		inner := s.clone()
		body, _ := propagate(inner, n.Body)
		return mir.NewBlock(mir.Loop(body)), s

	case mir.KindBlock:
		inner := s.clone()
		body, _ := propagate(inner, n.Body)
		return mir.NewBlock(mir.BlockNode(body)), s

	case mir.KindReadReg:
		s.drop(n.Cell)
		return mir.NewBlock(n), s

	case mir.KindWriteReg:
		if !n.UseImm {
			if v, ok := s.value(n.From); ok {
				return mir.NewBlock(mir.WriteRegImm(n.Reg, v)), s
			}
		}
		return mir.NewBlock(n), s

	case mir.KindMatch:
		if v, ok := s.value(n.Cell); ok {
			for _, arm := range n.Arms {
				if arm.Values[int(v)] {
					return propagate(s, arm.Body)
				}
			}
			return mir.Block{}, s
		}
		newArms := make([]mir.MatchArm, len(n.Arms))
		armStores := make([]*store, len(n.Arms))
		for i, arm := range n.Arms {
			armStore := s.clone()
			body, outStore := propagate(armStore, arm.Body)
			newArms[i] = mir.MatchArm{Values: arm.Values, Body: body}
			armStores[i] = outStore
		}
		return mir.NewBlock(mir.Match(n.Cell, newArms)), mergeAll(armStores)

	case mir.KindBreak, mir.KindContinue, mir.KindSkip, mir.KindStop:
		return mir.NewBlock(n), s

	default:
		return mir.NewBlock(n), s
	}
}

