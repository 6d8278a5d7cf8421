// Package resolver resolves a parsed Cythan source file (classes,
// fields, methods) into flat cell assignments, one of the external
// collaborators spec §1 names ("the class/method resolver"). Grounded
// on the scope-chain symbol table shape of the teacher's
// pkg/semantic/scope.go (a marker-interface Symbol plus a parent-
// linked Scope), reduced to the two symbol kinds this language needs,
// and on original_source/src/compiler/class_loader.rs's per-class
// field-offset bookkeeping.
package resolver

import (
	"github.com/cythanc/cythanc/pkg/ast"
	"github.com/cythanc/cythanc/pkg/codemgr"
	"github.com/cythanc/cythanc/pkg/diag"
	"github.com/cythanc/cythanc/pkg/mir"
)

// FieldSymbol records a resolved field: the class it belongs to and
// the cell the code manager allocated for it.
type FieldSymbol struct {
	Class string
	Cell  mir.Cell
}

// MethodSymbol records a resolved method: its declaring class and its
// declaration. The builder opens the method's locals scope.
type MethodSymbol struct {
	Class string
	Decl  *ast.MethodDecl
}

// Class is a resolved class: its fields (in declaration order, cells
// assigned contiguously) and its methods.
type Class struct {
	Name    string
	Fields  map[string]*FieldSymbol
	Methods map[string]*MethodSymbol
}

// Program is the fully resolved source unit handed to the builder.
type Program struct {
	Classes map[string]*Class
}

// Resolve walks file and assigns one cell per field via mgr, rejecting
// duplicate class or field names. Methods are resolved but their
// bodies are left to the builder, which opens a fresh local scope per
// call.
func Resolve(file *ast.File, mgr *codemgr.Manager) (*Program, error) {
	prog := &Program{Classes: make(map[string]*Class)}

	for _, cd := range file.Classes {
		if _, dup := prog.Classes[cd.Name]; dup {
			return nil, diag.Structural(diag.Span{Line: cd.Pos().Line, Col: cd.Pos().Col}, "duplicate class %q", cd.Name)
		}
		class := &Class{
			Name:    cd.Name,
			Fields:  make(map[string]*FieldSymbol),
			Methods: make(map[string]*MethodSymbol),
		}
		for _, fd := range cd.Fields {
			if _, dup := class.Fields[fd.Name]; dup {
				return nil, diag.Structural(diag.Span{Line: fd.Pos().Line, Col: fd.Pos().Col}, "duplicate field %q in class %q", fd.Name, cd.Name)
			}
			class.Fields[fd.Name] = &FieldSymbol{Class: cd.Name, Cell: mgr.Alloc()}
		}
		for _, md := range cd.Methods {
			if _, dup := class.Methods[md.Name]; dup {
				return nil, diag.Structural(diag.Span{Line: md.Pos().Line, Col: md.Pos().Col}, "duplicate method %q in class %q", md.Name, cd.Name)
			}
			class.Methods[md.Name] = &MethodSymbol{Class: cd.Name, Decl: md}
		}
		prog.Classes[cd.Name] = class
	}

	return prog, nil
}

// Locals is a per-method lexical scope mapping local variable names to
// cells, chained to the class's field scope so unqualified field
// references resolve without an explicit "this." prefix.
type Locals struct {
	class *Class
	vars  map[string]mir.Cell
}

func NewLocals(class *Class) *Locals {
	return &Locals{class: class, vars: make(map[string]mir.Cell)}
}

func (l *Locals) Define(name string, cell mir.Cell) {
	l.vars[name] = cell
}

// Lookup resolves name to a cell, checking locals before the
// enclosing class's fields.
func (l *Locals) Lookup(name string) (mir.Cell, bool) {
	if c, ok := l.vars[name]; ok {
		return c, true
	}
	if l.class != nil {
		if f, ok := l.class.Fields[name]; ok {
			return f.Cell, true
		}
	}
	return 0, false
}
