// Package parser implements a hand-rolled recursive-descent parser for
// the Cythan class/method source language. Grounded directly on the
// teacher's SimpleParser (pkg/parser/simple_parser.go), which the
// teacher itself describes as "a basic recursive descent parser ...
// a temporary solution until tree-sitter integration is fixed" — this
// project keeps that fallback-parser idiom as the only parser, since
// wiring a generated-grammar dependency (antlr4-go, go-tree-sitter)
// would mean fabricating grammar artifacts this project has no
// grounding to generate (see DESIGN.md).
package parser

import (
	"fmt"

	"github.com/cythanc/cythanc/pkg/ast"
	"github.com/cythanc/cythanc/pkg/diag"
	"github.com/cythanc/cythanc/pkg/lexer"
	"github.com/cythanc/cythanc/pkg/token"
)

type Parser struct {
	file   string
	toks   []token.Token
	pos    int
}

func New(file string, toks []token.Token) *Parser {
	return &Parser{file: file, toks: toks}
}

func (p *Parser) peek() token.Token  { return p.toks[p.pos] }
func (p *Parser) advance() token.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) span(pos token.Position) diag.Span {
	return diag.Span{File: p.file, Line: pos.Line, Col: pos.Col}
}

func (p *Parser) errorf(pos token.Position, format string, args ...interface{}) error {
	return diag.Structural(p.span(pos), format, args...)
}

func (p *Parser) expect(k token.Kind) (token.Token, error) {
	t := p.peek()
	if t.Kind != k {
		return t, p.errorf(t.Pos, "expected %s, got %s %q", k, t.Kind, t.Text)
	}
	return p.advance(), nil
}

// ParseFile parses a complete source unit: zero or more class
// declarations.
func ParseFile(name, src string) (*ast.File, error) {
	toks := lexer.New(src).Tokenize()
	p := New(name, toks)
	return p.parseFile()
}

func (p *Parser) parseFile() (*ast.File, error) {
	file := &ast.File{}
	for p.peek().Kind != token.EOF {
		class, err := p.parseClass()
		if err != nil {
			return nil, err
		}
		file.Classes = append(file.Classes, class)
	}
	return file, nil
}

func (p *Parser) parseClass() (*ast.ClassDecl, error) {
	kw, err := p.expect(token.KwClass)
	if err != nil {
		return nil, err
	}
	name, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}

	class := &ast.ClassDecl{Name: name.Text, StartPos: kw.Pos}
	for p.peek().Kind != token.RBrace {
		switch p.peek().Kind {
		case token.KwField:
			field, err := p.parseField()
			if err != nil {
				return nil, err
			}
			class.Fields = append(class.Fields, field)
		case token.KwMethod:
			method, err := p.parseMethod()
			if err != nil {
				return nil, err
			}
			class.Methods = append(class.Methods, method)
		default:
			t := p.peek()
			return nil, p.errorf(t.Pos, "expected field or method declaration, got %s %q", t.Kind, t.Text)
		}
	}
	if _, err := p.expect(token.RBrace); err != nil {
		return nil, err
	}
	return class, nil
}

func (p *Parser) parseField() (*ast.FieldDecl, error) {
	kw, err := p.expect(token.KwField)
	if err != nil {
		return nil, err
	}
	name, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semicolon); err != nil {
		return nil, err
	}
	return &ast.FieldDecl{Name: name.Text, StartPos: kw.Pos}, nil
}

func (p *Parser) parseMethod() (*ast.MethodDecl, error) {
	kw, err := p.expect(token.KwMethod)
	if err != nil {
		return nil, err
	}
	name, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	var params []string
	for p.peek().Kind != token.RParen {
		if len(params) > 0 {
			if _, err := p.expect(token.Comma); err != nil {
				return nil, err
			}
		}
		param, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		params = append(params, param.Text)
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.MethodDecl{Name: name.Text, Params: params, Body: body, StartPos: kw.Pos}, nil
}

// parseBlock parses a brace-delimited statement list.
func (p *Parser) parseBlock() ([]ast.Stmt, error) {
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	var stmts []ast.Stmt
	for p.peek().Kind != token.RBrace {
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	if _, err := p.expect(token.RBrace); err != nil {
		return nil, err
	}
	return stmts, nil
}

func (p *Parser) parseStmt() (ast.Stmt, error) {
	t := p.peek()
	switch t.Kind {
	case token.KwVar:
		return p.parseVarDecl()
	case token.KwIf:
		return p.parseIf()
	case token.KwLoop:
		return p.parseLoop()
	case token.KwBlock:
		return p.parseBlockStmt()
	case token.KwBreak:
		p.advance()
		return p.endStmt(&ast.Break{StartPos: t.Pos})
	case token.KwContinue:
		p.advance()
		return p.endStmt(&ast.Continue{StartPos: t.Pos})
	case token.KwSkip:
		p.advance()
		return p.endStmt(&ast.Skip{StartPos: t.Pos})
	case token.KwStop:
		p.advance()
		return p.endStmt(&ast.Stop{StartPos: t.Pos})
	case token.KwMatch:
		return p.parseMatch()
	case token.KwReadReg:
		return p.parseReadReg()
	case token.KwWriteReg:
		return p.parseWriteReg()
	case token.Ident:
		return p.parseAssign()
	default:
		return nil, p.errorf(t.Pos, "unexpected token %s %q at start of statement", t.Kind, t.Text)
	}
}

func (p *Parser) endStmt(s ast.Stmt) (ast.Stmt, error) {
	if _, err := p.expect(token.Semicolon); err != nil {
		return nil, err
	}
	return s, nil
}

func (p *Parser) parseVarDecl() (ast.Stmt, error) {
	kw, err := p.expect(token.KwVar)
	if err != nil {
		return nil, err
	}
	name, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Assign); err != nil {
		return nil, err
	}
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return p.endStmt(&ast.VarDecl{Name: name.Text, Value: value, StartPos: kw.Pos})
}

func (p *Parser) parseAssign() (ast.Stmt, error) {
	name, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Assign); err != nil {
		return nil, err
	}
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return p.endStmt(&ast.Assign{Target: name.Text, Value: value, StartPos: name.Pos})
}

func (p *Parser) parseIf() (ast.Stmt, error) {
	kw, err := p.expect(token.KwIf)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	var els []ast.Stmt
	if p.peek().Kind == token.KwElse {
		p.advance()
		els, err = p.parseBlock()
		if err != nil {
			return nil, err
		}
	}
	return &ast.If{Cond: cond, Then: then, Else: els, StartPos: kw.Pos}, nil
}

func (p *Parser) parseLoop() (ast.Stmt, error) {
	kw, err := p.expect(token.KwLoop)
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.Loop{Body: body, StartPos: kw.Pos}, nil
}

func (p *Parser) parseBlockStmt() (ast.Stmt, error) {
	kw, err := p.expect(token.KwBlock)
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.BlockStmt{Body: body, StartPos: kw.Pos}, nil
}

func (p *Parser) parseMatch() (ast.Stmt, error) {
	kw, err := p.expect(token.KwMatch)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	scrutinee, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}

	var arms []ast.MatchArm
	for p.peek().Kind != token.RBrace {
		if _, err := p.expect(token.KwCase); err != nil {
			return nil, err
		}
		var values []int
		for {
			num, err := p.expect(token.Number)
			if err != nil {
				return nil, err
			}
			var v int
			if _, scanErr := fmt.Sscanf(num.Text, "%d", &v); scanErr != nil {
				return nil, p.errorf(num.Pos, "malformed match immediate %q", num.Text)
			}
			values = append(values, v)
			if p.peek().Kind != token.Comma {
				break
			}
			p.advance()
		}
		if _, err := p.expect(token.Arrow); err != nil {
			return nil, err
		}
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		arms = append(arms, ast.MatchArm{Values: values, Body: body})
	}
	if _, err := p.expect(token.RBrace); err != nil {
		return nil, err
	}
	return &ast.Match{Scrutinee: scrutinee, Arms: arms, StartPos: kw.Pos}, nil
}

func (p *Parser) parseReadReg() (ast.Stmt, error) {
	kw, err := p.expect(token.KwReadReg)
	if err != nil {
		return nil, err
	}
	target, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Comma); err != nil {
		return nil, err
	}
	reg, err := p.expect(token.Number)
	if err != nil {
		return nil, err
	}
	var regNum int
	fmt.Sscanf(reg.Text, "%d", &regNum)
	return p.endStmt(&ast.ReadReg{Target: target.Text, Reg: regNum, StartPos: kw.Pos})
}

func (p *Parser) parseWriteReg() (ast.Stmt, error) {
	kw, err := p.expect(token.KwWriteReg)
	if err != nil {
		return nil, err
	}
	reg, err := p.expect(token.Number)
	if err != nil {
		return nil, err
	}
	var regNum int
	fmt.Sscanf(reg.Text, "%d", &regNum)
	if _, err := p.expect(token.Comma); err != nil {
		return nil, err
	}
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return p.endStmt(&ast.WriteReg{Reg: regNum, Value: value, StartPos: kw.Pos})
}

// parseExpr covers the small expression grammar this language needs:
// an integer literal or a bare identifier reference.
func (p *Parser) parseExpr() (ast.Expr, error) {
	t := p.peek()
	switch t.Kind {
	case token.Number:
		p.advance()
		var v int
		if _, err := fmt.Sscanf(t.Text, "%d", &v); err != nil {
			return nil, p.errorf(t.Pos, "malformed integer literal %q", t.Text)
		}
		return &ast.IntLit{Value: v, StartPos: t.Pos}, nil
	case token.Ident:
		p.advance()
		return &ast.Ident{Name: t.Text, StartPos: t.Pos}, nil
	default:
		return nil, p.errorf(t.Pos, "expected expression, got %s %q", t.Kind, t.Text)
	}
}
