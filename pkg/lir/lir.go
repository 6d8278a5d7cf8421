// Package lir implements the flat, label-oriented low-level IR that
// the MIR tree is lowered into (spec §3, §4.5). It plays the role the
// teacher's pkg/ir (a flat Opcode/Instruction IR) plays for minzc,
// generalized with a recursion-free operand set sized for the
// Cythan-16 machine.
package lir

import (
	"fmt"

	"github.com/cythanc/cythanc/pkg/mir"
)

// LabelKind distinguishes the role a label plays; two labels are
// equal iff both ID and Kind match (spec §3).
type LabelKind uint8

const (
	LoopStart LabelKind = iota
	LoopEnd
	IfStart
	IfEnd
	BlockEnd
	MatchLabel
)

func (k LabelKind) String() string {
	switch k {
	case LoopStart:
		return "loop_start"
	case LoopEnd:
		return "loop_end"
	case IfStart:
		return "if_start"
	case IfEnd:
		return "if_end"
	case BlockEnd:
		return "block_end"
	case MatchLabel:
		return "match"
	default:
		return "label"
	}
}

// Label is a tuple (id, kind). Label ids are drawn from a monotonic
// counter shared by the lowering state (spec §3, §9): a single
// counter bump allocates a start/end pair so the peephole can fold
// aliases without tracking provenance.
type Label struct {
	ID   int
	Kind LabelKind
}

func (l Label) String() string {
	return fmt.Sprintf("%s_%d", l.Kind, l.ID)
}

// DeriveEnd produces the LoopEnd label sharing l's id: a LoopStart
// label carries enough information on its own to find the matching
// end of its loop without a separate lookup table (spec §3, §9).
func (l Label) DeriveEnd() Label {
	return Label{ID: l.ID, Kind: LoopEnd}
}

// Value is an LIR operand: either a cell or an immediate.
type Value struct {
	IsImm bool
	Cell  mir.Cell
	Imm   mir.Immediate
}

func CellValue(c mir.Cell) Value         { return Value{Cell: c} }
func ImmValue(n mir.Immediate) Value     { return Value{IsImm: true, Imm: n} }

func (v Value) String() string {
	if v.IsImm {
		return v.Imm.String()
	}
	return v.Cell.String()
}

// Op tags the closed set of LIR instruction variants (spec §3).
type Op uint8

const (
	OpCopy Op = iota
	OpInc
	OpDec
	OpJump
	OpLabel
	OpIf0
	OpStop
	OpReadReg
	OpWriteReg
	OpMatch
)

func (op Op) String() string {
	switch op {
	case OpCopy:
		return "copy"
	case OpInc:
		return "inc"
	case OpDec:
		return "dec"
	case OpJump:
		return "jump"
	case OpLabel:
		return "label"
	case OpIf0:
		return "if0"
	case OpStop:
		return "stop"
	case OpReadReg:
		return "readreg"
	case OpWriteReg:
		return "writereg"
	case OpMatch:
		return "match"
	default:
		return "unknown"
	}
}

// Instruction is one flat LIR instruction.
//
//   Copy(to, fromValue)   Op=OpCopy, Cell=to, Value=fromValue
//   Inc(c) / Dec(c)       Op=OpInc/OpDec, Cell=c
//   Jump(L)               Op=OpJump, Target=L
//   Label(L)              Op=OpLabel, Target=L
//   If0(c, L)             Op=OpIf0, Cell=c, Target=L
//   Stop                  Op=OpStop
//   ReadReg(c, r)         Op=OpReadReg, Cell=c, Reg=r
//   WriteReg(r, val)      Op=OpWriteReg, Reg=r, Value=val
//   Match(c, table)       Op=OpMatch, Cell=c, Table=table[16]
type Instruction struct {
	Op     Op
	Cell   mir.Cell
	Value  Value
	Reg    mir.Register
	Target Label
	Table  [mir.Width]Label
}

func Copy(to mir.Cell, from Value) Instruction { return Instruction{Op: OpCopy, Cell: to, Value: from} }
func Inc(c mir.Cell) Instruction                { return Instruction{Op: OpInc, Cell: c} }
func Dec(c mir.Cell) Instruction                { return Instruction{Op: OpDec, Cell: c} }
func Jump(l Label) Instruction                  { return Instruction{Op: OpJump, Target: l} }
func LabelAt(l Label) Instruction               { return Instruction{Op: OpLabel, Target: l} }
func If0(c mir.Cell, l Label) Instruction       { return Instruction{Op: OpIf0, Cell: c, Target: l} }
func Stop() Instruction                         { return Instruction{Op: OpStop} }
func ReadReg(c mir.Cell, r mir.Register) Instruction {
	return Instruction{Op: OpReadReg, Cell: c, Reg: r}
}
func WriteReg(r mir.Register, v Value) Instruction {
	return Instruction{Op: OpWriteReg, Reg: r, Value: v}
}
func Match(c mir.Cell, table [mir.Width]Label) Instruction {
	return Instruction{Op: OpMatch, Cell: c, Table: table}
}

// Program is the finalized, flat LIR instruction sequence produced by
// lowering and consumed by the peephole pass and the emitter.
type Program struct {
	Instructions []Instruction
}

func (p *Program) Emit(i Instruction) {
	p.Instructions = append(p.Instructions, i)
}

func (i Instruction) String() string {
	switch i.Op {
	case OpCopy:
		return fmt.Sprintf("copy %s, %s", i.Cell, i.Value)
	case OpInc:
		return fmt.Sprintf("inc %s", i.Cell)
	case OpDec:
		return fmt.Sprintf("dec %s", i.Cell)
	case OpJump:
		return fmt.Sprintf("jump %s", i.Target)
	case OpLabel:
		return fmt.Sprintf("%s:", i.Target)
	case OpIf0:
		return fmt.Sprintf("if0 %s, %s", i.Cell, i.Target)
	case OpStop:
		return "stop"
	case OpReadReg:
		return fmt.Sprintf("readreg %s, r%d", i.Cell, i.Reg)
	case OpWriteReg:
		return fmt.Sprintf("writereg r%d, %s", i.Reg, i.Value)
	case OpMatch:
		return fmt.Sprintf("match %s, %v", i.Cell, i.Table)
	default:
		return fmt.Sprintf("<unknown op %d>", i.Op)
	}
}

// Print renders the full program, one instruction per line.
func (p *Program) Print() string {
	out := ""
	for _, i := range p.Instructions {
		out += i.String() + "\n"
	}
	return out
}
