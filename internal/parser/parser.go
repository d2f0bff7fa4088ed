// Package parser is a representative recursive-descent/Pratt front end
// for the checked language's surface syntax. Per spec.md §1, lexing and
// parsing are external-collaborator black boxes the checker depends on
// only through the AST it receives — this package exists to drive
// cmd/onyxcheck end-to-end, not to be a complete grammar. It covers
// procedures, structs, memres globals, the statement forms C4 checks
// other than switch and defer, and the expression forms C3/C5/C6 check;
// switch and defer statements, casts, if-expressions, do-blocks,
// polymorphic `$T` parameters and #solidify/#insert source
// syntax are checker-supported but not present in this parser's grammar
// (those AST shapes are exercised directly by internal/check's tests).
package parser

import (
	"fmt"

	"github.com/sunholo/onyxcheck/internal/ast"
	"github.com/sunholo/onyxcheck/internal/lexer"
)

// Parser turns a token stream into top-level ast.Node declarations.
type Parser struct {
	l    *lexer.Lexer
	file string

	cur  lexer.Token
	peek lexer.Token

	errors []string
}

// New creates a Parser reading from l.
func New(l *lexer.Lexer, file string) *Parser {
	p := &Parser{l: l, file: file}
	p.next()
	p.next()
	return p
}

// Errors reports every parse error accumulated so far.
func (p *Parser) Errors() []string { return p.errors }

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

func (p *Parser) pos() ast.Pos {
	return ast.Pos{File: p.file, Line: p.cur.Line, Column: p.cur.Column}
}

func (p *Parser) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf("%s:%d:%d: %s", p.file, p.cur.Line, p.cur.Column, fmt.Sprintf(format, args...)))
}

func (p *Parser) expect(t lexer.TokenType) lexer.Token {
	tok := p.cur
	if p.cur.Type != t {
		p.errorf("expected %s, got %s (%q)", t, p.cur.Type, p.cur.Literal)
	}
	p.next()
	return tok
}

func (p *Parser) at(t lexer.TokenType) bool { return p.cur.Type == t }

// ParseFile parses every top-level declaration in the file.
func (p *Parser) ParseFile() []ast.Node {
	var decls []ast.Node
	for !p.at(lexer.EOF) {
		d := p.parseTopDecl()
		if d != nil {
			decls = append(decls, d)
		} else {
			p.next() // avoid an infinite loop on a bad token
		}
	}
	return decls
}

func (p *Parser) parseTopDecl() ast.Node {
	switch p.cur.Type {
	case lexer.PROC:
		return p.parseProc()
	case lexer.STRUCT:
		return p.parseStruct()
	case lexer.MEMRES:
		return p.parseMemres()
	case lexer.DIRECTIVE:
		return p.parseTopDirective()
	default:
		p.errorf("unexpected token %s at top level", p.cur.Type)
		return nil
	}
}

func (p *Parser) parseTopDirective() ast.Node {
	switch p.cur.Literal {
	case "#static_if":
		return p.parseStaticIf()
	case "#export":
		return p.parseDirectiveExport()
	case "#library":
		return p.parseDirectiveLibrary()
	default:
		p.errorf("unsupported top-level directive %s", p.cur.Literal)
		return nil
	}
}

func (p *Parser) parseStaticIf() ast.Node {
	pos := p.pos()
	p.next() // #static_if
	cond := p.parseExpr(precLowest)
	trueBlock := p.parseBraceDeclBlock()
	var falseBlock *ast.Block
	if p.at(lexer.ELSE) {
		p.next()
		falseBlock = p.parseBraceDeclBlock()
	}
	si := &ast.StaticIf{Base: ast.Base{KindTag: ast.KStaticIf, At: pos}, Cond: ast.NewSlot(cond)}
	si.TrueEntities = blockNodes(trueBlock)
	if falseBlock != nil {
		si.FalseEntities = blockNodes(falseBlock)
	}
	return si
}

// parseBraceDeclBlock parses "{" TopDecl* "}" for use inside a
// top-level #static_if, whose branches hold declarations, not statements.
func (p *Parser) parseBraceDeclBlock() *ast.Block {
	pos := p.pos()
	p.expect(lexer.LBRACE)
	var stmts []*ast.Slot
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		d := p.parseTopDecl()
		if d != nil {
			stmts = append(stmts, ast.NewSlot(d))
		} else {
			p.next()
		}
	}
	p.expect(lexer.RBRACE)
	return ast.NewBlock(pos, stmts...)
}

func blockNodes(b *ast.Block) []ast.Node {
	out := make([]ast.Node, len(b.Stmts))
	for i, s := range b.Stmts {
		out[i] = s.Get()
	}
	return out
}

func (p *Parser) parseDirectiveExport() ast.Node {
	pos := p.pos()
	p.next() // #export
	name := p.parseExpr(precLowest)
	target := p.parseExpr(precLowest)
	return &ast.DirectiveExport{Base: ast.Base{KindTag: ast.KDirectiveExport, At: pos}, Name: ast.NewSlot(name), Target: target}
}

func (p *Parser) parseDirectiveLibrary() ast.Node {
	pos := p.pos()
	p.next() // #library
	name := p.expect(lexer.STRING)
	return &ast.DirectiveLibrary{Base: ast.Base{KindTag: ast.KDirectiveLibrary, At: pos}, Name: name.Literal}
}

func (p *Parser) parseProc() *ast.Function {
	pos := p.pos()
	p.next() // proc
	name := p.expect(lexer.IDENT).Literal

	fn := &ast.Function{Base: ast.Base{KindTag: ast.KFunction, At: pos}, Name: name}

	p.expect(lexer.LPAREN)
	for !p.at(lexer.RPAREN) && !p.at(lexer.EOF) {
		fn.Params = append(fn.Params, p.parseParam())
		if p.at(lexer.COMMA) {
			p.next()
		}
	}
	p.expect(lexer.RPAREN)

	if p.at(lexer.ARROW) {
		p.next()
		fn.ReturnTypeExpr = p.parseType()
	}

	fn.Body = p.parseBlock()
	return fn
}

func (p *Parser) parseParam() *ast.Param {
	name := p.expect(lexer.IDENT).Literal
	p.expect(lexer.COLON)
	typeExpr := p.parseType()
	param := &ast.Param{Name: name, TypeExpr: typeExpr}
	if _, ok := typeExpr.(*ast.TypeVarArgs); ok {
		param.IsVarArgs = true
	}
	if p.at(lexer.ASSIGN) {
		p.next()
		param.Default = ast.NewSlot(p.parseExpr(precLowest))
	}
	return param
}

// parseType parses a type expression: ^T (pointer), []T (slice),
// [N]T (array), [..]T (dynamic array), ..T (varargs), or a bare name.
func (p *Parser) parseType() ast.Node {
	pos := p.pos()
	switch p.cur.Type {
	case lexer.CARET:
		p.next()
		return &ast.TypePointer{Base: ast.Base{KindTag: ast.KTypePointer, At: pos}, Elem: p.parseType()}
	case lexer.DOTDOT:
		p.next()
		return &ast.TypeVarArgs{Base: ast.Base{KindTag: ast.KTypeVarArgs, At: pos}, Elem: p.parseType()}
	case lexer.LBRACKET:
		p.next()
		if p.at(lexer.RBRACKET) {
			p.next()
			return &ast.TypeSlice{Base: ast.Base{KindTag: ast.KTypeSlice, At: pos}, Elem: p.parseType()}
		}
		if p.at(lexer.DOTDOT) {
			p.next()
			p.expect(lexer.RBRACKET)
			return &ast.TypeDynArray{Base: ast.Base{KindTag: ast.KTypeDynArray, At: pos}, Elem: p.parseType()}
		}
		length := p.parseExpr(precLowest)
		p.expect(lexer.RBRACKET)
		return &ast.TypeArray{Base: ast.Base{KindTag: ast.KTypeArray, At: pos}, Elem: p.parseType(), Length: ast.NewSlot(length)}
	default:
		name := p.expect(lexer.IDENT).Literal
		return &ast.TypeName{Base: ast.Base{KindTag: ast.KTypeName, At: pos}, Name: name}
	}
}

func (p *Parser) parseStruct() *ast.StructType {
	pos := p.pos()
	p.next() // struct
	name := p.expect(lexer.IDENT).Literal
	st := &ast.StructType{Base: ast.Base{KindTag: ast.KStructType, At: pos}, Name: name}

	p.expect(lexer.LBRACE)
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		use := false
		if p.at(lexer.USE) {
			use = true
			p.next()
		}
		mname := p.expect(lexer.IDENT).Literal
		p.expect(lexer.COLON)
		mtype := p.parseType()
		member := &ast.Member{Name: mname, TypeExpr: mtype, Use: use}
		if p.at(lexer.ASSIGN) {
			p.next()
			member.Default = ast.NewSlot(p.parseExpr(precLowest))
		}
		st.Members = append(st.Members, member)
	}
	p.expect(lexer.RBRACE)
	return st
}

func (p *Parser) parseMemres() *ast.Global {
	pos := p.pos()
	p.next() // memres
	name := p.expect(lexer.IDENT).Literal
	g := &ast.Global{Base: ast.Base{KindTag: ast.KGlobal, At: pos}, Name: name}
	p.expect(lexer.COLON)
	g.TypeExpr = p.parseType()
	if p.at(lexer.ASSIGN) {
		p.next()
		g.Init = ast.NewSlot(p.parseExpr(precLowest))
	}
	return g
}

// ---------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------

func (p *Parser) parseBlock() *ast.Block {
	pos := p.pos()
	p.expect(lexer.LBRACE)
	var stmts []*ast.Slot
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		s := p.parseStmt()
		if s != nil {
			stmts = append(stmts, ast.NewSlot(s))
		}
	}
	p.expect(lexer.RBRACE)
	return ast.NewBlock(pos, stmts...)
}

func (p *Parser) parseStmt() ast.Node {
	switch p.cur.Type {
	case lexer.RETURN:
		return p.parseReturn()
	case lexer.IF:
		return p.parseIf()
	case lexer.WHILE:
		return p.parseWhile()
	case lexer.FOR:
		return p.parseFor()
	case lexer.LBRACE:
		return p.parseBlock()
	case lexer.DIRECTIVE:
		if p.cur.Literal == "#remove" {
			pos := p.pos()
			p.next()
			return &ast.DirectiveRemove{Base: ast.Base{KindTag: ast.KDirectiveRemove, At: pos}}
		}
	}
	if p.at(lexer.IDENT) && p.peek.Type == lexer.COLON {
		return p.parseLocal()
	}
	return p.parseExprStmt()
}

func (p *Parser) parseReturn() *ast.Return {
	pos := p.pos()
	p.next() // return
	ret := &ast.Return{Base: ast.Base{KindTag: ast.KReturn, At: pos}}
	if !p.at(lexer.RBRACE) {
		ret.Expr = ast.NewSlot(p.parseExpr(precLowest))
	}
	return ret
}

func (p *Parser) parseIf() *ast.If {
	pos := p.pos()
	p.next() // if
	cond := p.parseExpr(precLowest)
	then := p.parseBlock()
	n := &ast.If{Base: ast.Base{KindTag: ast.KIf, At: pos}, Cond: ast.NewSlot(cond), Then: then}
	if p.at(lexer.ELSE) {
		p.next()
		if p.at(lexer.IF) {
			inner := p.parseIf()
			n.Else = ast.NewBlock(inner.Pos(), ast.NewSlot(inner))
		} else {
			n.Else = p.parseBlock()
		}
	}
	return n
}

func (p *Parser) parseWhile() *ast.While {
	pos := p.pos()
	p.next() // while
	cond := p.parseExpr(precLowest)
	body := p.parseBlock()
	return &ast.While{Base: ast.Base{KindTag: ast.KWhile, At: pos}, Cond: ast.NewSlot(cond), Body: body}
}

func (p *Parser) parseFor() *ast.For {
	pos := p.pos()
	p.next() // for
	byPointer := false
	if p.at(lexer.CARET) {
		byPointer = true
		p.next()
	}
	name := p.expect(lexer.IDENT).Literal
	p.expect(lexer.COLON)
	iterable := p.parseExpr(precLowest)
	body := p.parseBlock()
	return &ast.For{Base: ast.Base{KindTag: ast.KFor, At: pos}, VarName: name, ByPointer: byPointer, Iterable: ast.NewSlot(iterable), Body: body}
}

func (p *Parser) parseLocal() *ast.Local {
	pos := p.pos()
	name := p.cur.Literal
	p.next() // ident
	p.next() // colon
	loc := &ast.Local{Base: ast.Base{KindTag: ast.KLocal, At: pos}, Name: name}
	if !p.at(lexer.ASSIGN) {
		loc.SetTypeNode(p.parseType())
	}
	if p.at(lexer.ASSIGN) {
		p.next()
		loc.Init = ast.NewSlot(p.parseExpr(precLowest))
	}
	return loc
}

var assignOps = map[lexer.TokenType]string{
	lexer.ASSIGN:  "=",
	lexer.PLUSEQ:  "+=",
	lexer.MINUSEQ: "-=",
	lexer.STAREQ:  "*=",
	lexer.SLASHEQ: "/=",
}

func (p *Parser) parseExprStmt() ast.Node {
	pos := p.pos()
	expr := p.parseExpr(precLowest)
	if op, ok := assignOps[p.cur.Type]; ok {
		p.next()
		rhs := p.parseExpr(precLowest)
		bin := ast.NewBinOp(pos, op, expr, rhs)
		return &ast.ExprStmt{Base: ast.Base{KindTag: ast.KExprStmt, At: pos}, Expr: ast.NewSlot(bin)}
	}
	return &ast.ExprStmt{Base: ast.Base{KindTag: ast.KExprStmt, At: pos}, Expr: ast.NewSlot(expr)}
}

// ---------------------------------------------------------------------
// Expressions (precedence-climbing, grounded on the teacher lexer's
// Token.Precedence table)
// ---------------------------------------------------------------------

const (
	precLowest = iota
	precRange
	precOr
	precAnd
	precEquality
	precCompare
	precAdd
	precMul
	precUnary
	precPostfix
)

func (p *Parser) precedence(t lexer.TokenType) int {
	switch t {
	case lexer.DOTDOT:
		return precRange
	case lexer.OROR:
		return precOr
	case lexer.ANDAND:
		return precAnd
	case lexer.EQ, lexer.NEQ:
		return precEquality
	case lexer.LT, lexer.GT, lexer.LTE, lexer.GTE:
		return precCompare
	case lexer.PLUS, lexer.MINUS, lexer.PIPE:
		return precAdd
	case lexer.STAR, lexer.SLASH, lexer.PERCENT, lexer.AMP, lexer.CARET:
		return precMul
	default:
		return precLowest
	}
}

func (p *Parser) parseExpr(minPrec int) ast.Node {
	left := p.parseUnary()
	for {
		prec := p.precedence(p.cur.Type)
		if prec <= minPrec || prec == precLowest {
			break
		}
		if p.cur.Type == lexer.DOTDOT {
			pos := p.pos()
			p.next()
			right := p.parseExpr(prec)
			left = &ast.RangeLiteral{Base: ast.Base{KindTag: ast.KRangeLiteral, At: pos}, Low: ast.NewSlot(left), High: ast.NewSlot(right)}
			continue
		}
		op := p.cur.Type.String()
		pos := p.pos()
		p.next()
		right := p.parseExpr(prec)
		left = ast.NewBinOp(pos, op, left, right)
	}
	return left
}

func (p *Parser) parseUnary() ast.Node {
	switch p.cur.Type {
	case lexer.MINUS:
		pos := p.pos()
		p.next()
		return ast.NewUnaryOp(pos, "negate", p.parseUnary())
	case lexer.BANG:
		pos := p.pos()
		p.next()
		return ast.NewUnaryOp(pos, "not", p.parseUnary())
	case lexer.AMP:
		pos := p.pos()
		p.next()
		return ast.NewAddressOf(pos, p.parseUnary())
	}
	return p.parsePostfix(p.parsePrimary())
}

func (p *Parser) parsePostfix(n ast.Node) ast.Node {
	for {
		switch p.cur.Type {
		case lexer.DOT:
			if p.peek.Type == lexer.STAR {
				pos := p.pos()
				p.next() // .
				p.next() // *
				n = ast.NewDereference(pos, n)
				continue
			}
			pos := p.pos()
			p.next() // .
			field := p.expect(lexer.IDENT).Literal
			n = ast.NewFieldAccess(pos, n, field)
		case lexer.LBRACKET:
			pos := p.pos()
			p.next()
			idx := p.parseExpr(precLowest)
			if p.at(lexer.DOTDOT) {
				p.next()
				var high ast.Node
				if !p.at(lexer.RBRACKET) {
					high = p.parseExpr(precLowest)
				}
				p.expect(lexer.RBRACKET)
				n = &ast.Slice{Base: ast.Base{KindTag: ast.KSlice, At: pos}, Target: ast.NewSlot(n), Low: ast.NewSlot(idx)}
				if high != nil {
					n.(*ast.Slice).High = ast.NewSlot(high)
				}
				continue
			}
			p.expect(lexer.RBRACKET)
			n = ast.NewSubscript(pos, n, idx)
		case lexer.LPAREN:
			pos := p.pos()
			p.next()
			var args []*ast.Arg
			for !p.at(lexer.RPAREN) && !p.at(lexer.EOF) {
				args = append(args, &ast.Arg{Value: ast.NewSlot(p.parseExpr(precLowest))})
				if p.at(lexer.COMMA) {
					p.next()
				}
			}
			p.expect(lexer.RPAREN)
			n = ast.NewCall(pos, n, args...)
		case lexer.ARROW:
			pos := p.pos()
			p.next()
			name := p.expect(lexer.IDENT).Literal
			p.expect(lexer.LPAREN)
			var args []*ast.Arg
			for !p.at(lexer.RPAREN) && !p.at(lexer.EOF) {
				args = append(args, &ast.Arg{Value: ast.NewSlot(p.parseExpr(precLowest))})
				if p.at(lexer.COMMA) {
					p.next()
				}
			}
			p.expect(lexer.RPAREN)
			n = ast.NewMethodCall(pos, n, name, args...)
		default:
			return n
		}
	}
}

func (p *Parser) parsePrimary() ast.Node {
	pos := p.pos()
	switch p.cur.Type {
	case lexer.INT:
		lit := p.cur.Literal
		p.next()
		var v int64
		fmt.Sscanf(lit, "%d", &v)
		return ast.NewNumLitInt(pos, v)
	case lexer.FLOAT:
		lit := p.cur.Literal
		p.next()
		var v float64
		fmt.Sscanf(lit, "%g", &v)
		return ast.NewNumLitFloat(pos, v)
	case lexer.STRING:
		lit := p.cur.Literal
		p.next()
		return ast.NewStrLit(pos, lit)
	case lexer.TRUE:
		p.next()
		return ast.NewBoolLit(pos, true)
	case lexer.FALSE:
		p.next()
		return ast.NewBoolLit(pos, false)
	case lexer.DIRECTIVE:
		return p.parseDirectiveExpr()
	case lexer.LPAREN:
		p.next()
		first := p.parseExpr(precLowest)
		if p.at(lexer.COMMA) {
			elems := []ast.Node{first}
			for p.at(lexer.COMMA) {
				p.next()
				elems = append(elems, p.parseExpr(precLowest))
			}
			p.expect(lexer.RPAREN)
			slots := make([]*ast.Slot, len(elems))
			for i, e := range elems {
				slots[i] = ast.NewSlot(e)
			}
			return &ast.Compound{Base: ast.Base{KindTag: ast.KCompound, At: pos}, Exprs: slots}
		}
		p.expect(lexer.RPAREN)
		return first
	case lexer.LBRACKET:
		p.next()
		var elems []*ast.Slot
		for !p.at(lexer.RBRACKET) && !p.at(lexer.EOF) {
			elems = append(elems, ast.NewSlot(p.parseExpr(precLowest)))
			if p.at(lexer.COMMA) {
				p.next()
			}
		}
		p.expect(lexer.RBRACKET)
		return ast.NewArrayLiteral(pos, nil, elems...)
	case lexer.IDENT:
		name := p.cur.Literal
		p.next()
		if p.at(lexer.DOT) && p.peek.Type == lexer.LBRACE {
			p.next() // .
			return p.parseStructLiteral(pos, name)
		}
		return ast.NewIdent(pos, name)
	default:
		p.errorf("unexpected token %s in expression", p.cur.Type)
		p.next()
		return ast.NewIdent(pos, "<error>")
	}
}

func (p *Parser) parseStructLiteral(pos ast.Pos, typeName string) ast.Node {
	p.expect(lexer.LBRACE)
	lit := ast.NewStructLiteral(pos)
	lit.TypeExpr = &ast.TypeName{Base: ast.Base{KindTag: ast.KTypeName, At: pos}, Name: typeName}
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		fname := p.expect(lexer.IDENT).Literal
		p.expect(lexer.ASSIGN)
		fval := p.parseExpr(precLowest)
		lit.Named[fname] = ast.NewSlot(fval)
		lit.NamedOrder = append(lit.NamedOrder, fname)
		if p.at(lexer.COMMA) {
			p.next()
		}
	}
	p.expect(lexer.RBRACE)
	return lit
}

func (p *Parser) parseDirectiveExpr() ast.Node {
	pos := p.pos()
	switch p.cur.Literal {
	case "#size_of":
		p.next()
		p.expect(lexer.LPAREN)
		t := p.parseType()
		p.expect(lexer.RPAREN)
		return &ast.SizeOf{Base: ast.Base{KindTag: ast.KSizeOf, At: pos}, OperandType: t}
	case "#align_of":
		p.next()
		p.expect(lexer.LPAREN)
		t := p.parseType()
		p.expect(lexer.RPAREN)
		return &ast.AlignOf{Base: ast.Base{KindTag: ast.KAlignOf, At: pos}, OperandType: t}
	case "#defined":
		p.next()
		p.expect(lexer.LPAREN)
		inner := p.parseExpr(precLowest)
		p.expect(lexer.RPAREN)
		return &ast.DirectiveDefined{Base: ast.Base{KindTag: ast.KDirectiveDefined, At: pos}, Target: inner}
	default:
		lit := p.cur.Literal
		p.next()
		p.errorf("unsupported directive %s in expression position", lit)
		return ast.NewIdent(pos, "<error>")
	}
}
