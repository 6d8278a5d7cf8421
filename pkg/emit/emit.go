// Package emit implements the "final machine-code emitter" spec §1
// names as an external collaborator: it turns a finalized, peephole-
// optimized LIR program into a flat slice of assembled machine words
// ready to be wrapped in a container.Image. Grounded on the two-pass
// label-resolution structure of the teacher's pkg/z80asm.Assembler
// (pass 1 sizes every instruction and records label addresses, pass 2
// emits words and resolves references against that table), reduced to
// the Cythan target's single fixed instruction encoding: no
// addressing modes, no undocumented opcodes, and — unlike Z80 — no
// instruction whose size depends on its operands, so pass 1 never
// needs to converge across more than one walk.
package emit

import (
	"github.com/cythanc/cythanc/pkg/container"
	"github.com/cythanc/cythanc/pkg/diag"
	"github.com/cythanc/cythanc/pkg/lir"
	"github.com/cythanc/cythanc/pkg/mir"
)

// Opcode tags the closed set of machine words this assembler emits as
// the first word of an instruction's encoding.
type Opcode uint64

const (
	OpCopy Opcode = iota
	OpInc
	OpDec
	OpJump
	OpIf0
	OpStop
	OpReadReg
	OpWriteReg
	OpMatch
)

// A Value operand (lir.Value) assembles to a (tag, payload) word
// pair: tag distinguishes a cell reference from an immediate so the
// two can share one encoding.
const (
	valueCell uint64 = 0
	valueImm  uint64 = 1
)

// wordsFor reports the fixed word count an instruction of op
// assembles to. Label contributes no words; it only marks an address.
func wordsFor(op lir.Op) int {
	switch op {
	case lir.OpCopy, lir.OpWriteReg:
		return 4 // opcode, cell-or-reg, value-tag, value-payload
	case lir.OpInc, lir.OpDec:
		return 2 // opcode, cell
	case lir.OpJump:
		return 2 // opcode, target
	case lir.OpLabel:
		return 0
	case lir.OpIf0:
		return 3 // opcode, cell, target
	case lir.OpStop:
		return 1
	case lir.OpReadReg:
		return 3 // opcode, cell, reg
	case lir.OpMatch:
		return 2 + mir.Width // opcode, cell, one target per arm value
	default:
		return 0
	}
}

// Assemble lowers prog to a flat slice of machine words. Every
// Jump/If0/Match target is resolved to the word address its Label was
// assigned while sizing the program; a label assembled twice, or a
// reference to one never assembled, is an emitter error rather than a
// panic, matching spec §8 invariant 6 ("every Jump/If0/Match target
// has exactly one matching Label").
func Assemble(prog *lir.Program) ([]uint64, error) {
	addrs := make(map[lir.Label]uint64, len(prog.Instructions))
	size := uint64(0)
	for _, inst := range prog.Instructions {
		if inst.Op == lir.OpLabel {
			if _, dup := addrs[inst.Target]; dup {
				return nil, diag.IO("label %s assembled twice", inst.Target)
			}
			addrs[inst.Target] = size
			continue
		}
		size += uint64(wordsFor(inst.Op))
	}

	resolve := func(l lir.Label) (uint64, error) {
		a, ok := addrs[l]
		if !ok {
			return 0, diag.IO("unresolved label %s", l)
		}
		return a, nil
	}

	words := make([]uint64, 0, size)
	for _, inst := range prog.Instructions {
		switch inst.Op {
		case lir.OpLabel:
			continue

		case lir.OpCopy:
			tag, payload := valueWords(inst.Value)
			words = append(words, uint64(OpCopy), uint64(inst.Cell), tag, payload)

		case lir.OpInc:
			words = append(words, uint64(OpInc), uint64(inst.Cell))

		case lir.OpDec:
			words = append(words, uint64(OpDec), uint64(inst.Cell))

		case lir.OpJump:
			target, err := resolve(inst.Target)
			if err != nil {
				return nil, err
			}
			words = append(words, uint64(OpJump), target)

		case lir.OpIf0:
			target, err := resolve(inst.Target)
			if err != nil {
				return nil, err
			}
			words = append(words, uint64(OpIf0), uint64(inst.Cell), target)

		case lir.OpStop:
			words = append(words, uint64(OpStop))

		case lir.OpReadReg:
			words = append(words, uint64(OpReadReg), uint64(inst.Cell), uint64(inst.Reg))

		case lir.OpWriteReg:
			tag, payload := valueWords(inst.Value)
			words = append(words, uint64(OpWriteReg), uint64(inst.Reg), tag, payload)

		case lir.OpMatch:
			words = append(words, uint64(OpMatch), uint64(inst.Cell))
			for _, l := range inst.Table {
				target, err := resolve(l)
				if err != nil {
					return nil, err
				}
				words = append(words, target)
			}

		default:
			return nil, diag.IO("unsupported LIR op %v", inst.Op)
		}
	}

	if uint64(len(words)) != size {
		return nil, diag.IO("assembled %d words, expected %d", len(words), size)
	}
	return words, nil
}

func valueWords(v lir.Value) (tag, payload uint64) {
	if v.IsImm {
		return valueImm, uint64(v.Imm)
	}
	return valueCell, uint64(v.Cell)
}

// AssembleToImage assembles prog and wraps the result in a
// container.Image under header, the shape the external driver
// persists to disk (spec §4.7, §6).
func AssembleToImage(prog *lir.Program, header container.Header) (container.Image, error) {
	words, err := Assemble(prog)
	if err != nil {
		return container.Image{}, err
	}
	return container.Image{Header: header, Memory: words}, nil
}
