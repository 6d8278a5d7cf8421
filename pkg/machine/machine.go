// Package machine executes the flat machine-word program pkg/emit
// assembles, playing the role of the Cythan host runtime spec §6
// describes (the register protocol's observable side effects) for
// the CLI's exe/run/precomp subcommands. It is a thin fetch-decode-
// execute loop over pkg/emit's own opcode encoding rather than the
// original Cythan hardware's bit-level instruction set, since that
// encoding is this project's own and has no independent existence to
// retarget to. Grounded on the teacher's pkg/emulator package (a
// small CPU stepper driven by an explicit program counter and
// host-callback I/O), reduced from cycle-accurate Z80 semantics to
// the Cythan machine's single fixed instruction encoding.
package machine

import (
	"fmt"
	"io"

	"github.com/cythanc/cythanc/pkg/emit"
)

// Host receives the machine's observable I/O side effects: one
// printed byte per control-port write of 1, one requested input byte
// per control-port write of 2 (spec §6).
type Host struct {
	Input  io.Reader
	Output io.Writer
}

// Machine holds the mutable state of one program run: a flat cell
// memory, the three registers spec §6 names, and a program counter
// indexing into Words.
type Machine struct {
	Words []uint64
	cells map[uint64]uint64
	regs  [3]uint64
	pc    uint64
	host  Host
}

// New constructs a Machine ready to execute words.
func New(words []uint64, host Host) *Machine {
	return &Machine{Words: words, cells: make(map[uint64]uint64), host: host}
}

func (m *Machine) get(c uint64) uint64 { return m.cells[c] }

func (m *Machine) set(c, v uint64) { m.cells[c] = v % 16 }

// Halted reports whether the program counter has run off the end of
// the word stream without an explicit Stop — a malformed or
// truncated binary, not a normal halt.
func (m *Machine) Halted() bool { return m.pc >= uint64(len(m.Words)) }

func (m *Machine) word(i uint64) (uint64, error) {
	if i >= uint64(len(m.Words)) {
		return 0, fmt.Errorf("machine: program counter %d out of bounds (%d words)", i, len(m.Words))
	}
	return m.Words[i], nil
}

func (m *Machine) value(tag, payload uint64) uint64 {
	if tag == 1 {
		return payload % 16
	}
	return m.get(payload)
}

// Step executes exactly one instruction and reports whether the
// machine halted (encountered Stop) during it.
func (m *Machine) Step() (halted bool, err error) {
	op, err := m.word(m.pc)
	if err != nil {
		return false, err
	}

	switch emit.Opcode(op) {
	case emit.OpCopy:
		cell, _ := m.word(m.pc + 1)
		tag, _ := m.word(m.pc + 2)
		payload, _ := m.word(m.pc + 3)
		m.set(cell, m.value(tag, payload))
		m.pc += 4

	case emit.OpInc:
		cell, _ := m.word(m.pc + 1)
		m.set(cell, (m.get(cell)+1)%16)
		m.pc += 2

	case emit.OpDec:
		cell, _ := m.word(m.pc + 1)
		m.set(cell, (m.get(cell)+15)%16)
		m.pc += 2

	case emit.OpJump:
		target, err := m.word(m.pc + 1)
		if err != nil {
			return false, err
		}
		m.pc = target

	case emit.OpIf0:
		cell, _ := m.word(m.pc + 1)
		target, err := m.word(m.pc + 2)
		if err != nil {
			return false, err
		}
		if m.get(cell) == 0 {
			m.pc = target
		} else {
			m.pc += 3
		}

	case emit.OpStop:
		return true, nil

	case emit.OpReadReg:
		cell, _ := m.word(m.pc + 1)
		reg, _ := m.word(m.pc + 2)
		m.set(cell, m.regs[reg])
		m.pc += 3

	case emit.OpWriteReg:
		reg, _ := m.word(m.pc + 1)
		tag, _ := m.word(m.pc + 2)
		payload, _ := m.word(m.pc + 3)
		m.regs[reg] = m.value(tag, payload) % 16
		m.pc += 4
		if reg == 0 {
			if err := m.handleControl(); err != nil {
				return false, err
			}
		}

	case emit.OpMatch:
		cell, _ := m.word(m.pc + 1)
		scrutinee := m.get(cell)
		target, err := m.word(m.pc + 2 + scrutinee)
		if err != nil {
			return false, err
		}
		m.pc = target

	default:
		return false, fmt.Errorf("machine: unknown opcode %d at word %d", op, m.pc)
	}

	return false, nil
}

// handleControl implements the register protocol of spec §6: a
// control-port write of 1 prints, of 2 reads a byte; other values are
// no-ops at the host level.
func (m *Machine) handleControl() error {
	switch m.regs[0] {
	case 1:
		b := byte(m.regs[1]%16)*16 + byte(m.regs[2]%16)
		if m.host.Output != nil {
			if _, err := m.host.Output.Write([]byte{b}); err != nil {
				return err
			}
		}
	case 2:
		var buf [1]byte
		if m.host.Input != nil {
			if _, err := m.host.Input.Read(buf[:]); err != nil && err != io.EOF {
				return err
			}
		}
		m.regs[1] = uint64(buf[0] / 16)
		m.regs[2] = uint64(buf[0] % 16)
	}
	return nil
}

// Run steps the machine until it executes Stop or maxSteps is
// exhausted, returning the number of instructions executed and
// whether a Stop was reached.
func (m *Machine) Run(maxSteps int) (steps int, halted bool, err error) {
	for steps = 0; maxSteps <= 0 || steps < maxSteps; steps++ {
		if m.Halted() {
			return steps, false, nil
		}
		h, err := m.Step()
		if err != nil {
			return steps, false, err
		}
		if h {
			return steps + 1, true, nil
		}
	}
	return steps, false, nil
}

// Memory snapshots the machine's current cell contents as a dense
// slice sized to cover every cell touched so far, used by the
// "precomp" CLI subcommand to persist a partially-executed image.
func (m *Machine) Memory() []uint64 {
	max := uint64(0)
	for c := range m.cells {
		if c+1 > max {
			max = c + 1
		}
	}
	out := make([]uint64, max)
	for c, v := range m.cells {
		out[c] = v
	}
	return out
}
