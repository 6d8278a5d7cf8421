// Package codemgr implements the "external code manager" spec §3 and
// §6 describe: a monotonic cell allocator that the MIR core never
// owns but always assumes exists upstream ("Cell addresses are
// allocated by an external code manager (monotonic counter) and never
// freed"). Grounded on original_source/src/compiler/state/code_manager.rs's
// CodeManager.alloc/alloc_block, translated from a Rust u32 counter to
// a Go mir.Cell counter.
package codemgr

import "github.com/cythanc/cythanc/pkg/mir"

// Manager hands out fresh, never-reused mir.Cell addresses.
type Manager struct {
	next mir.Cell
}

func New() *Manager {
	return &Manager{}
}

// Alloc returns a single fresh cell.
func (m *Manager) Alloc() mir.Cell {
	c := m.next
	m.next++
	return c
}

// AllocBlock returns size contiguous fresh cells, used for multi-cell
// values such as class instances (spec §3: "multi-cell values ... are
// represented as ... vectors of cell addresses held by external
// collaborators").
func (m *Manager) AllocBlock(size int) []mir.Cell {
	block := make([]mir.Cell, size)
	for i := range block {
		block[i] = m.Alloc()
	}
	return block
}

// Next reports the next cell that would be allocated, without
// allocating it — the starting counter value the MIR→LIR lowering's
// external contract (spec §6) says it must not collide with.
func (m *Manager) Next() mir.Cell {
	return m.next
}
