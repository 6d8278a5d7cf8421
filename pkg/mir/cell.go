// Package mir implements the structured mid-level intermediate
// representation described by the compiler core: a tree of blocks,
// loops, two-armed conditionals, early-exit markers, flat cell
// addresses and register I/O.
package mir

import "fmt"

// Cell is a flat nonnegative integer identifying a single 4-bit
// memory cell. Cells are the atomic unit of storage at both the MIR
// and LIR levels.
type Cell int

// Immediate is a compile-time 4-bit literal, an integer in [0,16).
type Immediate int

// Width is the number of distinct values a 4-bit Cythan cell holds.
// All immediates and all cell arithmetic wrap modulo Width.
const Width = 16

// Valid reports whether n is a legal 4-bit immediate.
func (n Immediate) Valid() bool {
	return n >= 0 && n < Width
}

// IncMod returns (n+1) mod 16, so IncMod(15) == 0.
func IncMod(n int) int {
	return (n + 1) % Width
}

// DecMod returns (n-1) mod 16, so DecMod(0) == 15.
func DecMod(n int) int {
	return (n - 1 + Width) % Width
}

func (c Cell) String() string {
	return fmt.Sprintf("c%d", int(c))
}

func (n Immediate) String() string {
	return fmt.Sprintf("%d", int(n))
}
