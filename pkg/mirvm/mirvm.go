// Package mirvm implements the optional direct MIR interpreter spec
// §1 lists as an external, test-only collaborator, honoring the
// register protocol of spec §6 exactly: treat each cell as 4-bit
// (wrapping mod 16), execute statement by statement per spec §3's
// skip-status model. Used to cross-check the MIR interpreter's
// WriteReg(0, 1|2) effects against the LIR-assembly path for the same
// program (spec §8 invariant 2). Grounded on the teacher's
// pkg/mirvm.VM (Config/Statistics/VM shape), reduced from a full
// register-machine interpreter to one that walks the MIR tree
// directly instead of a flat instruction array.
package mirvm

import (
	"fmt"
	"io"

	"github.com/cythanc/cythanc/pkg/mir"
)

// Config configures a VM run. Input supplies bytes for
// register-controlled reads; Output receives printed characters.
// MemorySize is not consulted by the interpreter: a program may
// address any cell.
type Config struct {
	MemorySize int
	Input      io.Reader
	Output     io.Writer
}

// Statistics tracks a finished run for test assertions.
type Statistics struct {
	InstructionsExecuted int
	CharsPrinted         int
}

type signal int

const (
	sigNone signal = iota
	sigBreak
	sigContinue
	sigSkip
	sigStop
)

// VM holds the interpreter's mutable state: the cell memory and the
// three registers spec §6 names.
type VM struct {
	cfg   Config
	cells map[mir.Cell]mir.Immediate
	regs  [3]mir.Immediate
	stats Statistics
}

func New(cfg Config) *VM {
	return &VM{cfg: cfg, cells: make(map[mir.Cell]mir.Immediate)}
}

// Run executes block to completion (a Stop, or falling off the end)
// and returns the run's statistics.
func (vm *VM) Run(block mir.Block) (Statistics, error) {
	if _, err := vm.execBlock(block); err != nil {
		return vm.stats, err
	}
	return vm.stats, nil
}

func (vm *VM) get(c mir.Cell) mir.Immediate {
	return vm.cells[c] // unwritten cells read as 0 (spec §3)
}

func (vm *VM) set(c mir.Cell, v mir.Immediate) {
	vm.cells[c] = mir.Immediate(((int(v) % mir.Width) + mir.Width) % mir.Width)
}

func (vm *VM) execBlock(block mir.Block) (signal, error) {
	for _, n := range block {
		sig, err := vm.execNode(n)
		if err != nil {
			return sigNone, err
		}
		if sig != sigNone {
			return sig, nil
		}
	}
	return sigNone, nil
}

func (vm *VM) execNode(n mir.Node) (signal, error) {
	vm.stats.InstructionsExecuted++

	switch n.Kind {
	case mir.KindSet:
		vm.set(n.Cell, n.Imm)
		return sigNone, nil

	case mir.KindCopy:
		vm.set(n.Cell, vm.get(n.From))
		return sigNone, nil

	case mir.KindInc:
		vm.set(n.Cell, mir.Immediate(mir.IncMod(int(vm.get(n.Cell)))))
		return sigNone, nil

	case mir.KindDec:
		vm.set(n.Cell, mir.Immediate(mir.DecMod(int(vm.get(n.Cell)))))
		return sigNone, nil

	case mir.KindIf0:
		if vm.get(n.Cell) == 0 {
			return vm.execBlock(n.Then)
		}
		return vm.execBlock(n.Else)

	case mir.KindLoop:
		for {
			sig, err := vm.execBlock(n.Body)
			if err != nil {
				return sigNone, err
			}
			switch sig {
			case sigBreak:
				return sigNone, nil
			case sigStop, sigSkip:
				// A Skip in a loop body targets a Block enclosing the
				// Loop, so it leaves the loop too; that Block consumes
				// it. The type checker rejects a Skip with no
				// enclosing Block.
				return sig, nil
			case sigContinue, sigNone:
				continue
			}
		}

	case mir.KindBlock:
		sig, err := vm.execBlock(n.Body)
		if err != nil {
			return sigNone, err
		}
		if sig == sigSkip {
			return sigNone, nil
		}
		return sig, nil

	case mir.KindBreak:
		return sigBreak, nil
	case mir.KindContinue:
		return sigContinue, nil
	case mir.KindSkip:
		return sigSkip, nil
	case mir.KindStop:
		return sigStop, nil

	case mir.KindReadReg:
		vm.set(n.Cell, vm.regs[n.Reg])
		return sigNone, nil

	case mir.KindWriteReg:
		var v mir.Immediate
		if n.UseImm {
			v = n.Imm
		} else {
			v = vm.get(n.From)
		}
		vm.regs[n.Reg] = mir.Immediate(((int(v) % mir.Width) + mir.Width) % mir.Width)
		if n.Reg == mir.RegControl {
			return sigNone, vm.handleControl()
		}
		return sigNone, nil

	case mir.KindMatch:
		scrutinee := int(vm.get(n.Cell))
		for _, arm := range n.Arms {
			if arm.Values[scrutinee] {
				return vm.execBlock(arm.Body)
			}
		}
		return sigNone, nil

	default:
		return sigNone, fmt.Errorf("mirvm: unknown MIR node kind %s", n.Kind)
	}
}

// handleControl implements the register protocol of spec §6: a
// control-port write of 1 prints, of 2 reads a byte; other values are
// no-ops at the host level.
func (vm *VM) handleControl() error {
	switch vm.regs[mir.RegControl] {
	case 1:
		b := byte(int(vm.regs[mir.RegData1])%16)*16 + byte(int(vm.regs[mir.RegData2])%16)
		if vm.cfg.Output != nil {
			if _, err := vm.cfg.Output.Write([]byte{b}); err != nil {
				return err
			}
		}
		vm.stats.CharsPrinted++
		return nil
	case 2:
		var buf [1]byte
		if vm.cfg.Input != nil {
			if _, err := vm.cfg.Input.Read(buf[:]); err != nil && err != io.EOF {
				return err
			}
		}
		vm.regs[mir.RegData1] = mir.Immediate(buf[0] / 16)
		vm.regs[mir.RegData2] = mir.Immediate(buf[0] % 16)
		return nil
	default:
		return nil
	}
}
