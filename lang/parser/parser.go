// Package parser turns a scanned SDL token stream into the ast.Node tree
// contract consumed by the interpreter core (spec §3, §6). It is a small
// hand-written recursive-descent parser; spec.md treats "parsing proper"
// as an external PEG-grammar collaborator, so this package does not aim
// for grammar fidelity with a reference OpenSCAD PEG — only to produce
// real node kinds (see SPEC_FULL.md §3) so the static/dynamic rule tables
// can be exercised against genuine SDL source text.
package parser

import (
	"fmt"

	"github.com/mna/sdlcad/lang/ast"
	"github.com/mna/sdlcad/lang/scanner"
	"github.com/mna/sdlcad/lang/token"
)

// Error is a parse error with its source position.
type Error struct {
	Pos token.Position
	Msg string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Pos, e.Msg) }

// Parser consumes a token stream produced by the scanner and builds an
// ast.Node tree.
type Parser struct {
	filename string
	toks     []scanner.TokenAndValue
	pos      int
	errs     []error
}

// ParseFile scans and parses a single SDL source file into an Input node.
func ParseFile(filename string, src []byte) (*ast.Node, error) {
	toks, serr := scanner.ScanAll(filename, src)
	p := &Parser{filename: filename, toks: toks}
	n := p.parseInput()
	if serr != nil {
		p.errs = append(p.errs, serr)
	}
	if len(p.errs) > 0 {
		return n, errList(p.errs)
	}
	return n, nil
}

type errList []error

func (el errList) Error() string {
	s := ""
	for i, e := range el {
		if i > 0 {
			s += "\n"
		}
		s += e.Error()
	}
	return s
}
func (el errList) Unwrap() []error { return el }

func (p *Parser) cur() scanner.TokenAndValue  { return p.toks[p.pos] }
func (p *Parser) kind() token.Kind            { return p.cur().Kind }
func (p *Parser) position() token.Position {
	l, c := p.cur().Pos.LineCol()
	return token.Position{Filename: p.filename, Line: l, Col: c}
}

func (p *Parser) advance() scanner.TokenAndValue {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) errorf(format string, args ...interface{}) {
	p.errs = append(p.errs, &Error{Pos: p.position(), Msg: fmt.Sprintf(format, args...)})
}

func (p *Parser) expect(k token.Kind) scanner.TokenAndValue {
	if p.kind() != k {
		p.errorf("expected %s, found %s %q", k, p.kind(), p.cur().Value)
		return p.cur()
	}
	return p.advance()
}

// ---- top level ----

func (p *Parser) parseInput() *ast.Node {
	start := p.cur().Pos
	n := ast.New("Input", start)
	for p.kind() != token.EOF {
		before := p.pos
		n.Children = append(n.Children, p.parseStatement())
		if p.pos == before {
			// safety valve: never loop forever on an unexpected token
			p.errorf("unexpected token %s %q", p.kind(), p.cur().Value)
			p.advance()
		}
	}
	n.Children = append(n.Children, ast.Leaf("EOF", "", p.cur().Pos))
	return n
}

func (p *Parser) parseStatement() *ast.Node {
	start := p.cur().Pos
	var inner *ast.Node
	switch p.kind() {
	case token.SEMI:
		p.advance()
		inner = ast.New("no_child", start)
	case token.LBRACE:
		inner = p.parseStmtList()
	case token.FUNCTION:
		inner = p.parseFnDecl()
	case token.MODULE:
		inner = p.parseModDecl()
	case token.IF:
		inner = p.parseIfElse()
	case token.INCLUDE:
		p.advance()
		v := p.expect(token.STRING)
		p.expect(token.SEMI)
		inner = ast.Leaf("Include", v.Value, start)
	case token.USE:
		p.advance()
		v := p.expect(token.STRING)
		p.expect(token.SEMI)
		inner = ast.Leaf("Use", v.Value, start)
	case token.IDENT:
		if p.looksLikeAssignment() {
			inner = p.parseAssignment()
		} else {
			inner = p.parseStmtObj()
		}
	case token.BANG, token.HASH, token.PERCENT, token.STAR:
		inner = p.parseStmtObj()
	default:
		p.errorf("unexpected token %s %q at statement start", p.kind(), p.cur().Value)
		p.advance()
		inner = ast.New("no_child", start)
	}
	return ast.New("statement", start, inner)
}

func (p *Parser) looksLikeAssignment() bool {
	return p.toks[p.pos+1].Kind == token.ASSIGN
}

func (p *Parser) parseStmtList() *ast.Node {
	start := p.expect(token.LBRACE).Pos
	n := ast.New("stmt_list", start)
	for p.kind() != token.RBRACE && p.kind() != token.EOF {
		n.Children = append(n.Children, p.parseStatement())
	}
	p.expect(token.RBRACE)
	return n
}

func (p *Parser) parseAssignment() *ast.Node {
	start := p.cur().Pos
	name := p.expect(token.IDENT)
	p.expect(token.ASSIGN)
	e := p.parseExpr()
	p.expect(token.SEMI)
	return ast.New("assignment", start, ast.Leaf("ident", name.Value, name.Pos), e)
}

func (p *Parser) parseStmtObj() *ast.Node {
	start := p.cur().Pos
	mi := p.parseModuleInstantiation()
	return ast.New("stmt_obj", start, mi)
}

func (p *Parser) parseIfElse() *ast.Node {
	start := p.expect(token.IF).Pos
	p.expect(token.LPAREN)
	cond := p.parseExpr()
	p.expect(token.RPAREN)
	then := p.parseStatement()
	children := []*ast.Node{cond, then}
	if p.kind() == token.ELSE {
		p.advance()
		children = append(children, p.parseStatement())
	}
	return ast.New("ifelse_statement", start, children...)
}

func (p *Parser) parseFnDecl() *ast.Node {
	start := p.expect(token.FUNCTION).Pos
	name := p.expect(token.IDENT)
	p.expect(token.LPAREN)
	params := p.parseParametersUntil(token.RPAREN)
	p.expect(token.RPAREN)
	p.expect(token.ASSIGN)
	body := p.parseExpr()
	p.expect(token.SEMI)
	return ast.New("stmt_decl_fn", start, ast.Leaf("ident", name.Value, name.Pos), params, body)
}

func (p *Parser) parseModDecl() *ast.Node {
	start := p.expect(token.MODULE).Pos
	name := p.expect(token.IDENT)
	p.expect(token.LPAREN)
	params := p.parseParametersUntil(token.RPAREN)
	p.expect(token.RPAREN)
	body := p.parseStatement()
	return ast.New("stmt_decl_mod", start, ast.Leaf("ident", name.Value, name.Pos), params, body)
}

// ---- module instantiation ----

func (p *Parser) parseModuleInstantiation() *ast.Node {
	start := p.cur().Pos
	switch p.kind() {
	case token.BANG:
		p.advance()
		return ast.New("module_instantiation", start, ast.New("mod_inst_bang", start, p.parseModuleInstantiation()))
	case token.HASH:
		p.advance()
		return ast.New("module_instantiation", start, ast.New("mod_inst_hash", start, p.parseModuleInstantiation()))
	case token.PERCENT:
		p.advance()
		return ast.New("module_instantiation", start, ast.New("mod_inst_perc", start, p.parseModuleInstantiation()))
	case token.STAR:
		p.advance()
		return ast.New("module_instantiation", start, ast.New("mod_inst_star", start, p.parseModuleInstantiation()))
	default:
		return ast.New("module_instantiation", start, p.parseModInstChild())
	}
}

func (p *Parser) parseModInstChild() *ast.Node {
	start := p.cur().Pos
	call := p.parseModCall()
	switch p.kind() {
	case token.SEMI:
		p.advance()
		return ast.New("mod_inst_child", start, call)
	default:
		child := p.parseChildStatement()
		return ast.New("mod_inst_child", start, call, child)
	}
}

func (p *Parser) parseChildStatement() *ast.Node {
	start := p.cur().Pos
	var inner *ast.Node
	switch p.kind() {
	case token.SEMI:
		p.advance()
		inner = ast.New("no_child", start)
	case token.LBRACE:
		inner = p.parseExplicitChild()
	case token.EOF:
		p.errorf("unexpected end of input, expected a child statement")
		inner = ast.New("no_child", start)
	default:
		inner = p.parseModuleInstantiation()
	}
	return ast.New("child_statement", start, inner)
}

func (p *Parser) parseExplicitChild() *ast.Node {
	start := p.expect(token.LBRACE).Pos
	list := ast.New("child_statements", start)
	for p.kind() != token.RBRACE && p.kind() != token.EOF {
		cs := p.parseChildStatement()
		list.Children = append(list.Children, cs)
	}
	p.expect(token.RBRACE)
	return ast.New("explicit_child", start, list)
}

func (p *Parser) parseModCall() *ast.Node {
	start := p.cur().Pos
	name := p.expect(token.IDENT)
	p.expect(token.LPAREN)
	if p.kind() == token.RPAREN {
		p.advance()
		return ast.New("mod_call", start, ast.Leaf("ident", name.Value, name.Pos))
	}
	args := p.parseArgumentsUntil(token.RPAREN)
	p.expect(token.RPAREN)
	return ast.New("mod_call", start, ast.Leaf("ident", name.Value, name.Pos), args)
}

// ---- parameters & arguments ----

func (p *Parser) parseParametersUntil(end token.Kind) *ast.Node {
	start := p.cur().Pos
	list := ast.New("parameter_list", start)
	for p.kind() != end {
		list.Children = append(list.Children, p.parseParameter())
		if p.kind() == token.COMMA {
			p.advance()
		} else {
			break
		}
	}
	return ast.New("parameters", start, list)
}

func (p *Parser) parseParameter() *ast.Node {
	start := p.cur().Pos
	name := p.expect(token.IDENT)
	if p.kind() == token.ASSIGN {
		p.advance()
		def := p.parseExpr()
		return ast.New("parameter", start, ast.Leaf("ident", name.Value, name.Pos), def)
	}
	return ast.New("parameter", start, ast.Leaf("ident", name.Value, name.Pos))
}

func (p *Parser) parseArgumentsUntil(end token.Kind) *ast.Node {
	start := p.cur().Pos
	list := ast.New("argument_list", start)
	for p.kind() != end {
		list.Children = append(list.Children, p.parseArgument())
		if p.kind() == token.COMMA {
			p.advance()
		} else {
			break
		}
	}
	return ast.New("arguments", start, list)
}

func (p *Parser) parseArgument() *ast.Node {
	start := p.cur().Pos
	if p.kind() == token.IDENT && p.toks[p.pos+1].Kind == token.ASSIGN {
		name := p.advance()
		p.advance() // '='
		v := p.parseExpr()
		return ast.New("argument", start, ast.Leaf("ident", name.Value, name.Pos), v)
	}
	return ast.New("argument", start, p.parseExpr())
}

// ---- expressions ----

func (p *Parser) parseExpr() *ast.Node {
	start := p.cur().Pos
	return ast.New("expr", start, p.parseExprCase())
}

func (p *Parser) parseExprCase() *ast.Node {
	start := p.cur().Pos
	cond := p.parseLogicOr()
	if p.kind() == token.QUESTION {
		p.advance()
		then := p.parseExpr()
		p.expect(token.COLON)
		els := p.parseExpr()
		return ast.New("expr_case", start, cond, then, els)
	}
	return ast.New("expr_case", start, cond)
}

func (p *Parser) parseLogicOr() *ast.Node {
	start := p.cur().Pos
	n := ast.New("logic_or", start, p.parseLogicAnd())
	for p.kind() == token.OR {
		p.advance()
		n.Children = append(n.Children, p.parseLogicAnd())
	}
	return n
}

func (p *Parser) parseLogicAnd() *ast.Node {
	start := p.cur().Pos
	n := ast.New("logic_and", start, p.parseEquality())
	for p.kind() == token.AND {
		p.advance()
		n.Children = append(n.Children, p.parseEquality())
	}
	return n
}

func (p *Parser) parseEquality() *ast.Node {
	start := p.cur().Pos
	n := ast.New("equality", start, p.parseComparison())
	for p.kind() == token.EQ || p.kind() == token.NE {
		op := p.advance()
		n.Children = append(n.Children, ast.Leaf("op", op.Value, op.Pos), p.parseComparison())
	}
	return n
}

func (p *Parser) parseComparison() *ast.Node {
	start := p.cur().Pos
	n := ast.New("comparison", start, p.parseAddition())
	for p.kind() == token.LT || p.kind() == token.LE || p.kind() == token.GT || p.kind() == token.GE {
		op := p.advance()
		n.Children = append(n.Children, ast.Leaf("op", op.Value, op.Pos), p.parseAddition())
	}
	return n
}

func (p *Parser) parseAddition() *ast.Node {
	start := p.cur().Pos
	n := ast.New("addition", start, p.parseMultiplication())
	for p.kind() == token.PLUS || p.kind() == token.MINUS {
		op := p.advance()
		n.Children = append(n.Children, ast.Leaf("op", op.Value, op.Pos), p.parseMultiplication())
	}
	return n
}

func (p *Parser) parseMultiplication() *ast.Node {
	start := p.cur().Pos
	n := ast.New("multiplication", start, p.parseUnary())
	for p.kind() == token.STAR || p.kind() == token.SLASH || p.kind() == token.PERCENT {
		op := p.advance()
		n.Children = append(n.Children, ast.Leaf("op", op.Value, op.Pos), p.parseUnary())
	}
	return n
}

func (p *Parser) parseUnary() *ast.Node {
	start := p.cur().Pos
	if p.kind() == token.PLUS || p.kind() == token.MINUS || p.kind() == token.BANG {
		op := p.advance()
		return ast.New("unary", start, ast.Leaf("op", op.Value, op.Pos), p.parseUnary())
	}
	return ast.New("unary", start, p.parseExponent())
}

func (p *Parser) parseExponent() *ast.Node {
	start := p.cur().Pos
	base := p.parseCall()
	if p.kind() == token.CARET {
		op := p.advance()
		return ast.New("exponent", start, base, ast.Leaf("op", op.Value, op.Pos), p.parseExponent())
	}
	return ast.New("exponent", start, base)
}

func (p *Parser) parseCall() *ast.Node {
	start := p.cur().Pos
	n := ast.New("call", start, p.parsePrimary())
	for {
		switch p.kind() {
		case token.LPAREN:
			p.advance()
			if p.kind() == token.RPAREN {
				p.advance()
				n.Children = append(n.Children, ast.New("add_args", start))
				continue
			}
			args := p.parseArgumentsUntil(token.RPAREN)
			p.expect(token.RPAREN)
			n.Children = append(n.Children, ast.New("add_args", start, args))
		case token.LBRACKET:
			p.advance()
			idx := p.parseExpr()
			p.expect(token.RBRACKET)
			n.Children = append(n.Children, ast.New("add_index", start, idx))
		default:
			return n
		}
	}
}

func (p *Parser) parsePrimary() *ast.Node {
	start := p.cur().Pos
	switch p.kind() {
	case token.NUMBER:
		t := p.advance()
		return ast.New("primary", start, ast.Leaf("pr_Num", t.Value, t.Pos))
	case token.STRING:
		t := p.advance()
		return ast.New("primary", start, ast.Leaf("pr_Str", t.Value, t.Pos))
	case token.TRUE:
		p.advance()
		return ast.New("primary", start, ast.New("pr_true", start))
	case token.FALSE:
		p.advance()
		return ast.New("primary", start, ast.New("pr_false", start))
	case token.UNDEF:
		p.advance()
		return ast.New("primary", start, ast.New("pr_undef", start))
	case token.LPAREN:
		p.advance()
		e := p.parseExpr()
		p.expect(token.RPAREN)
		return ast.New("primary", start, ast.New("pr_paren", start, e))
	case token.LBRACKET:
		return ast.New("primary", start, p.parseVector())
	case token.FUNCTION:
		return ast.New("primary", start, p.parseExprFn())
	case token.IDENT:
		if p.toks[p.pos+1].Kind == token.LPAREN {
			return ast.New("primary", start, p.parseFnCall())
		}
		t := p.advance()
		return ast.New("primary", start, ast.Leaf("pr_Sym", t.Value, t.Pos))
	default:
		p.errorf("unexpected token %s %q in expression", p.kind(), p.cur().Value)
		t := p.advance()
		return ast.New("primary", start, ast.Leaf("pr_Sym", t.Value, t.Pos))
	}
}

func (p *Parser) parseFnCall() *ast.Node {
	start := p.cur().Pos
	name := p.advance()
	p.expect(token.LPAREN)
	if p.kind() == token.RPAREN {
		p.advance()
		return ast.New("fn_call", start, ast.Leaf("ident", name.Value, name.Pos))
	}
	args := p.parseArgumentsUntil(token.RPAREN)
	p.expect(token.RPAREN)
	return ast.New("fn_call", start, ast.Leaf("ident", name.Value, name.Pos), args)
}

func (p *Parser) parseExprFn() *ast.Node {
	start := p.expect(token.FUNCTION).Pos
	p.expect(token.LPAREN)
	params := p.parseParametersUntil(token.RPAREN)
	p.expect(token.RPAREN)
	body := p.parseExpr()
	return ast.New("expr_fn", start, params, body)
}

func (p *Parser) parseVector() *ast.Node {
	start := p.expect(token.LBRACKET).Pos
	if p.kind() == token.RBRACKET {
		p.advance()
		return ast.New("pr_vec_empty", start)
	}
	first := p.parseExpr()
	if p.kind() == token.COLON {
		p.advance()
		second := p.parseExpr()
		if p.kind() == token.COLON {
			p.advance()
			third := p.parseExpr()
			p.expect(token.RBRACKET)
			// [start:step:end]
			return ast.New("pr_vec_elems", start, ast.New("vector_elements", start,
				ast.New("vector_element", start, ast.New("pr_for3", start, first, second, third))))
		}
		p.expect(token.RBRACKET)
		// [start:end]
		return ast.New("pr_vec_elems", start, ast.New("vector_elements", start,
			ast.New("vector_element", start, ast.New("pr_for2", start, first, second))))
	}

	elems := ast.New("vector_elements", start, ast.New("vector_element", start, first))
	for p.kind() == token.COMMA {
		p.advance()
		e := p.parseExpr()
		elems.Children = append(elems.Children, ast.New("vector_element", start, e))
	}
	p.expect(token.RBRACKET)
	return ast.New("pr_vec_elems", start, elems)
}
