// Package builder lowers a resolved Cythan source method into the MIR
// tree the core consumes, discharging the "construction contract"
// spec §6 assigns to the external Builder: a fully constructed MIR
// block plus a running cell-counter so the lowering and later stages
// never collide with builder-allocated cells. Grounded on the teacher's
// pkg/semantic/analyzer.go's statement-by-statement AST-to-IR walk,
// retargeted to emit mir.Node values instead of the teacher's flat
// ir.Instruction.
package builder

import (
	"github.com/cythanc/cythanc/pkg/ast"
	"github.com/cythanc/cythanc/pkg/codemgr"
	"github.com/cythanc/cythanc/pkg/diag"
	"github.com/cythanc/cythanc/pkg/mir"
	"github.com/cythanc/cythanc/pkg/resolver"
)

type Builder struct {
	file   string
	mgr    *codemgr.Manager
	locals *resolver.Locals
}

// Build lowers one method's body to a MIR block. Parameters are bound
// to freshly allocated cells in declaration order before the body is
// walked.
func Build(file string, class *resolver.Class, method *resolver.MethodSymbol, mgr *codemgr.Manager) (mir.Block, error) {
	locals := resolver.NewLocals(class)
	for _, param := range method.Decl.Params {
		locals.Define(param, mgr.Alloc())
	}
	b := &Builder{file: file, mgr: mgr, locals: locals}
	return b.buildBlock(method.Decl.Body)
}

func (b *Builder) span(pos struct{ Line, Col int }) diag.Span {
	return diag.Span{File: b.file, Line: pos.Line, Col: pos.Col}
}

func posOf(n ast.Node) struct{ Line, Col int } {
	p := n.Pos()
	return struct{ Line, Col int }{p.Line, p.Col}
}

func (b *Builder) buildBlock(stmts []ast.Stmt) (mir.Block, error) {
	var out mir.Block
	for _, s := range stmts {
		nodes, err := b.buildStmt(s)
		if err != nil {
			return nil, err
		}
		out = append(out, nodes...)
	}
	return out, nil
}

func (b *Builder) buildStmt(s ast.Stmt) (mir.Block, error) {
	switch n := s.(type) {
	case *ast.VarDecl:
		cell := b.mgr.Alloc()
		b.locals.Define(n.Name, cell)
		return b.buildAssign(cell, n.Value, posOf(n))

	case *ast.Assign:
		cell, ok := b.locals.Lookup(n.Target)
		if !ok {
			return nil, diag.Structural(b.span(posOf(n)), "undefined identifier %q", n.Target)
		}
		return b.buildAssign(cell, n.Value, posOf(n))

	case *ast.If:
		condCell, prelude, err := b.cellOf(n.Cond)
		if err != nil {
			return nil, err
		}
		then, err := b.buildBlock(n.Then)
		if err != nil {
			return nil, err
		}
		els, err := b.buildBlock(n.Else)
		if err != nil {
			return nil, err
		}
		return append(prelude, mir.If0(condCell, then, els)), nil

	case *ast.Loop:
		body, err := b.buildBlock(n.Body)
		if err != nil {
			return nil, err
		}
		return mir.NewBlock(mir.Loop(body)), nil

	case *ast.BlockStmt:
		body, err := b.buildBlock(n.Body)
		if err != nil {
			return nil, err
		}
		return mir.NewBlock(mir.BlockNode(body)), nil

	case *ast.Break:
		return mir.NewBlock(mir.Break()), nil
	case *ast.Continue:
		return mir.NewBlock(mir.Continue()), nil
	case *ast.Skip:
		return mir.NewBlock(mir.Skip()), nil
	case *ast.Stop:
		return mir.NewBlock(mir.Stop()), nil

	case *ast.Match:
		scrutCell, prelude, err := b.cellOf(n.Scrutinee)
		if err != nil {
			return nil, err
		}
		arms := make([]mir.MatchArm, len(n.Arms))
		for i, arm := range n.Arms {
			values := make(map[int]bool, len(arm.Values))
			for _, v := range arm.Values {
				if v < 0 || v >= mir.Width {
					return nil, diag.Structural(b.span(posOf(n)), "match arm immediate %d outside [0,16)", v)
				}
				values[v] = true
			}
			body, err := b.buildBlock(arm.Body)
			if err != nil {
				return nil, err
			}
			arms[i] = mir.MatchArm{Values: values, Body: body}
		}
		return append(prelude, mir.Match(scrutCell, arms)), nil

	case *ast.ReadReg:
		cell := b.mgr.Alloc()
		b.locals.Define(n.Target, cell)
		return mir.NewBlock(mir.ReadReg(cell, mir.Register(n.Reg))), nil

	case *ast.WriteReg:
		switch v := n.Value.(type) {
		case *ast.IntLit:
			if !mir.Immediate(v.Value).Valid() {
				return nil, diag.Width(b.span(posOf(n)), "immediate %d outside [0,16)", v.Value)
			}
			return mir.NewBlock(mir.WriteRegImm(mir.Register(n.Reg), mir.Immediate(v.Value))), nil
		case *ast.Ident:
			cell, ok := b.locals.Lookup(v.Name)
			if !ok {
				return nil, diag.Structural(b.span(posOf(n)), "undefined identifier %q", v.Name)
			}
			return mir.NewBlock(mir.WriteRegCell(mir.Register(n.Reg), cell)), nil
		default:
			return nil, diag.Structural(b.span(posOf(n)), "unsupported writereg value expression")
		}

	default:
		return nil, diag.Structural(b.span(posOf(s)), "unsupported statement")
	}
}

// buildAssign lowers `target <- value` to a single Set or Copy node.
func (b *Builder) buildAssign(target mir.Cell, value ast.Expr, pos struct{ Line, Col int }) (mir.Block, error) {
	switch v := value.(type) {
	case *ast.IntLit:
		if !mir.Immediate(v.Value).Valid() {
			return nil, diag.Width(b.span(pos), "immediate %d outside [0,16)", v.Value)
		}
		return mir.NewBlock(mir.Set(target, mir.Immediate(v.Value))), nil
	case *ast.Ident:
		cell, ok := b.locals.Lookup(v.Name)
		if !ok {
			return nil, diag.Structural(b.span(pos), "undefined identifier %q", v.Name)
		}
		return mir.NewBlock(mir.Copy(target, cell)), nil
	default:
		return nil, diag.Structural(b.span(pos), "unsupported expression")
	}
}

// cellOf resolves e to a cell, materializing a fresh cell with a
// leading Set if e is an immediate literal rather than a reference
// (If0 and Match conditions are always a cell in MIR, spec §3).
func (b *Builder) cellOf(e ast.Expr) (mir.Cell, mir.Block, error) {
	switch v := e.(type) {
	case *ast.Ident:
		cell, ok := b.locals.Lookup(v.Name)
		if !ok {
			return 0, nil, diag.Structural(b.span(posOf(v)), "undefined identifier %q", v.Name)
		}
		return cell, nil, nil
	case *ast.IntLit:
		if !mir.Immediate(v.Value).Valid() {
			return 0, nil, diag.Width(b.span(posOf(v)), "immediate %d outside [0,16)", v.Value)
		}
		temp := b.mgr.Alloc()
		return temp, mir.NewBlock(mir.Set(temp, mir.Immediate(v.Value))), nil
	default:
		return 0, nil, diag.Structural(b.span(posOf(e)), "unsupported condition expression")
	}
}
