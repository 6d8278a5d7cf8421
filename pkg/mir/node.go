package mir

// Register identifies one of the host's I/O registers. Register 0 is
// the control port; registers 1 and 2 are data ports (spec §6).
type Register int

const (
	RegControl Register = 0
	RegData1   Register = 1
	RegData2   Register = 2
)

// Kind tags the closed set of MIR node variants (spec §3). An
// implementation must reject unknown kinds rather than silently
// treating them as no-ops.
type Kind uint8

const (
	KindSet Kind = iota
	KindCopy
	KindInc
	KindDec
	KindIf0
	KindLoop
	KindBlock
	KindBreak
	KindContinue
	KindSkip
	KindStop
	KindReadReg
	KindWriteReg
	KindMatch
)

func (k Kind) String() string {
	switch k {
	case KindSet:
		return "Set"
	case KindCopy:
		return "Copy"
	case KindInc:
		return "Inc"
	case KindDec:
		return "Dec"
	case KindIf0:
		return "If0"
	case KindLoop:
		return "Loop"
	case KindBlock:
		return "Block"
	case KindBreak:
		return "Break"
	case KindContinue:
		return "Continue"
	case KindSkip:
		return "Skip"
	case KindStop:
		return "Stop"
	case KindReadReg:
		return "ReadReg"
	case KindWriteReg:
		return "WriteReg"
	case KindMatch:
		return "Match"
	default:
		return "Unknown"
	}
}

// MatchArm is one (body, immediateSet) arm of a Match node. Arms
// cover a subset of [0,16); a Match falls through if no arm's set
// contains the scrutinee.
type MatchArm struct {
	Values map[int]bool
	Body   Block
}

// Node is a single tagged MIR instruction. Only the fields relevant
// to Kind are meaningful; this mirrors the teacher's flat
// Opcode/Instruction tagging (pkg/ir.Instruction) but adds the
// recursive Then/Else/Body/Arms fields a structured tree needs.
//
//   Set(c, n)          Kind=KindSet,    Cell=c, Imm=n
//   Copy(to, from)     Kind=KindCopy,   Cell=to, From=from
//   Inc(c) / Dec(c)    Kind=KindInc/KindDec, Cell=c
//   If0(c, t, e)       Kind=KindIf0,    Cell=c, Then=t, Else=e
//   Loop(body)         Kind=KindLoop,   Body=body
//   Block(body)        Kind=KindBlock,  Body=body
//   Break/Continue     Kind=KindBreak/KindContinue
//   Skip/Stop          Kind=KindSkip/KindStop
//   ReadReg(c, r)      Kind=KindReadReg, Cell=c, Reg=r
//   WriteReg(r, v)     Kind=KindWriteReg, Reg=r, and either
//                      UseImm=true,Imm=v or UseImm=false,From=v
//   Match(c, arms)     Kind=KindMatch,  Cell=c, Arms=arms
type Node struct {
	Kind Kind

	Cell Cell
	From Cell
	Imm  Immediate
	Reg  Register

	UseImm bool // WriteReg only: value operand is Imm, not From

	Then Block
	Else Block
	Body Block
	Arms []MatchArm
}

// Block is an ordered sequence of MIR nodes executed statement by
// statement until one returns a non-None skip-status.
type Block []Node

func NewBlock(nodes ...Node) Block {
	b := make(Block, len(nodes))
	copy(b, nodes)
	return b
}

// Constructors. Each returns a Node ready to append to a Block.

func Set(c Cell, n Immediate) Node        { return Node{Kind: KindSet, Cell: c, Imm: n} }
func Copy(to, from Cell) Node             { return Node{Kind: KindCopy, Cell: to, From: from} }
func Inc(c Cell) Node                     { return Node{Kind: KindInc, Cell: c} }
func Dec(c Cell) Node                     { return Node{Kind: KindDec, Cell: c} }
func If0(c Cell, then, els Block) Node    { return Node{Kind: KindIf0, Cell: c, Then: then, Else: els} }
func Loop(body Block) Node                { return Node{Kind: KindLoop, Body: body} }
func BlockNode(body Block) Node           { return Node{Kind: KindBlock, Body: body} }
func Break() Node                         { return Node{Kind: KindBreak} }
func Continue() Node                      { return Node{Kind: KindContinue} }
func Skip() Node                          { return Node{Kind: KindSkip} }
func Stop() Node                          { return Node{Kind: KindStop} }
func ReadReg(c Cell, r Register) Node     { return Node{Kind: KindReadReg, Cell: c, Reg: r} }

func WriteRegImm(r Register, v Immediate) Node {
	return Node{Kind: KindWriteReg, Reg: r, UseImm: true, Imm: v}
}

func WriteRegCell(r Register, v Cell) Node {
	return Node{Kind: KindWriteReg, Reg: r, UseImm: false, From: v}
}

func Match(c Cell, arms []MatchArm) Node {
	return Node{Kind: KindMatch, Cell: c, Arms: arms}
}
