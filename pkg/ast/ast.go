// Package ast defines the source-level AST for the Cythan class/method
// language: the external collaborator spec §6 calls the "Builder"'s
// input. Grounded on the teacher's sealed-interface AST shape
// (pkg/ast/ast.go: Node/Statement/Expression marker interfaces with
// Pos()/End()), simplified to the much smaller surface this source
// language actually needs (no generics, no modules, no templates —
// those exist in original_source/ but spec §1 explicitly scopes
// source-level semantics out of the core).
package ast

import "github.com/cythanc/cythanc/pkg/token"

type Node interface {
	Pos() token.Position
}

type Stmt interface {
	Node
	stmtNode()
}

type Expr interface {
	Node
	exprNode()
}

// File is a single parsed source unit: a list of class declarations.
type File struct {
	Classes []*ClassDecl
}

type ClassDecl struct {
	Name      string
	Fields    []*FieldDecl
	Methods   []*MethodDecl
	StartPos  token.Position
}

func (c *ClassDecl) Pos() token.Position { return c.StartPos }

type FieldDecl struct {
	Name     string
	StartPos token.Position
}

func (f *FieldDecl) Pos() token.Position { return f.StartPos }

type MethodDecl struct {
	Name     string
	Params   []string
	Body     []Stmt
	StartPos token.Position
}

func (m *MethodDecl) Pos() token.Position { return m.StartPos }

// Statements.

type VarDecl struct {
	Name     string
	Value    Expr
	StartPos token.Position
}

func (*VarDecl) stmtNode()              {}
func (s *VarDecl) Pos() token.Position { return s.StartPos }

type Assign struct {
	Target   string
	Value    Expr
	StartPos token.Position
}

func (*Assign) stmtNode()              {}
func (s *Assign) Pos() token.Position { return s.StartPos }

type If struct {
	Cond     Expr
	Then     []Stmt
	Else     []Stmt
	StartPos token.Position
}

func (*If) stmtNode()              {}
func (s *If) Pos() token.Position { return s.StartPos }

type Loop struct {
	Body     []Stmt
	StartPos token.Position
}

func (*Loop) stmtNode()              {}
func (s *Loop) Pos() token.Position { return s.StartPos }

type BlockStmt struct {
	Body     []Stmt
	StartPos token.Position
}

func (*BlockStmt) stmtNode()              {}
func (s *BlockStmt) Pos() token.Position { return s.StartPos }

type Break struct{ StartPos token.Position }

func (*Break) stmtNode()              {}
func (s *Break) Pos() token.Position { return s.StartPos }

type Continue struct{ StartPos token.Position }

func (*Continue) stmtNode()              {}
func (s *Continue) Pos() token.Position { return s.StartPos }

type Skip struct{ StartPos token.Position }

func (*Skip) stmtNode()              {}
func (s *Skip) Pos() token.Position { return s.StartPos }

type Stop struct{ StartPos token.Position }

func (*Stop) stmtNode()              {}
func (s *Stop) Pos() token.Position { return s.StartPos }

type MatchArm struct {
	Values []int
	Body   []Stmt
}

type Match struct {
	Scrutinee Expr
	Arms      []MatchArm
	StartPos  token.Position
}

func (*Match) stmtNode()              {}
func (s *Match) Pos() token.Position { return s.StartPos }

type ReadReg struct {
	Target   string
	Reg      int
	StartPos token.Position
}

func (*ReadReg) stmtNode()              {}
func (s *ReadReg) Pos() token.Position { return s.StartPos }

type WriteReg struct {
	Reg      int
	Value    Expr
	StartPos token.Position
}

func (*WriteReg) stmtNode()              {}
func (s *WriteReg) Pos() token.Position { return s.StartPos }

// Expressions.

type IntLit struct {
	Value    int
	StartPos token.Position
}

func (*IntLit) exprNode()              {}
func (e *IntLit) Pos() token.Position { return e.StartPos }

type Ident struct {
	Name     string
	StartPos token.Position
}

func (*Ident) exprNode()              {}
func (e *Ident) Pos() token.Position { return e.StartPos }
