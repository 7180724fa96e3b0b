package compiler

import (
	"fmt"
	"strconv"
)

// ---------------------------------------------------------------------------
// Parser: Recursive descent parser for MiniJava
// ---------------------------------------------------------------------------

// Parser parses MiniJava source code into an AST.
type Parser struct {
	lexer     *Lexer
	curToken  Token
	peekToken Token
	errors    []string
}

// NewParser creates a new parser for the given input.
func NewParser(input string) *Parser {
	p := &Parser{
		lexer: NewLexer(input),
	}
	// Read two tokens to fill curToken and peekToken
	p.nextToken()
	p.nextToken()
	return p
}

// nextToken advances to the next token. Illegal characters are reported
// and skipped.
func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.lexer.NextToken()
	for p.curToken.Type == TokenError {
		p.errorf("%s", p.curToken.Literal)
		p.curToken = p.peekToken
		p.peekToken = p.lexer.NextToken()
	}
}

// curTokenIs checks if the current token is of the given type.
func (p *Parser) curTokenIs(t TokenType) bool {
	return p.curToken.Type == t
}

// peekTokenIs checks if the peek token is of the given type.
func (p *Parser) peekTokenIs(t TokenType) bool {
	return p.peekToken.Type == t
}

// expect advances if the current token matches, otherwise records an error.
func (p *Parser) expect(t TokenType) bool {
	if p.curTokenIs(t) {
		p.nextToken()
		return true
	}
	p.errorf("expected %s, got %s", t, p.curToken)
	return false
}

// expectIdent consumes an identifier and returns its text.
func (p *Parser) expectIdent() (string, bool) {
	if !p.curTokenIs(TokenIdentifier) {
		p.errorf("expected identifier, got %s", p.curToken)
		return "", false
	}
	name := p.curToken.Literal
	p.nextToken()
	return name, true
}

// errorf records a parse error.
func (p *Parser) errorf(format string, args ...interface{}) {
	msg := fmt.Sprintf("line %d: %s", p.curToken.Pos.Line, fmt.Sprintf(format, args...))
	p.errors = append(p.errors, msg)
}

// Errors returns accumulated parse errors.
func (p *Parser) Errors() []string {
	return p.errors
}

// HasLexicalErrors reports whether the lexer met an illegal character.
func (p *Parser) HasLexicalErrors() bool {
	return p.lexer.ErrorCount() > 0
}

func (p *Parser) span(start Position) Span {
	return Span{Start: start, End: p.curToken.Pos}
}

// skipTo advances until one of the given token types or EOF.
func (p *Parser) skipTo(types ...TokenType) {
	for !p.curTokenIs(TokenEOF) {
		for _, t := range types {
			if p.curTokenIs(t) {
				return
			}
		}
		p.nextToken()
	}
}

// ---------------------------------------------------------------------------
// Top-level parsing
// ---------------------------------------------------------------------------

// ParseProgram parses a main class followed by any number of classes.
func (p *Parser) ParseProgram() *Program {
	start := p.curToken.Pos
	prog := &Program{}

	prog.Main = p.parseMainClass()

	for !p.curTokenIs(TokenEOF) {
		if !p.curTokenIs(TokenClass) {
			p.errorf("expected class declaration, got %s", p.curToken)
			p.nextToken()
			p.skipTo(TokenClass)
			continue
		}
		if cls := p.parseClassDecl(); cls != nil {
			prog.Classes = append(prog.Classes, cls)
		}
	}

	prog.SpanVal = p.span(start)
	return prog
}

// parseMainClass parses:
//
//	[public] class Name { public static void main(String[] args) { Stmt* } }
func (p *Parser) parseMainClass() *MainClass {
	start := p.curToken.Pos
	if p.curTokenIs(TokenPublic) {
		p.nextToken()
	}
	if !p.expect(TokenClass) {
		p.skipTo(TokenClass)
		return nil
	}
	mc := &MainClass{}
	mc.Name, _ = p.expectIdent()
	p.expect(TokenLBrace)
	p.expect(TokenPublic)
	p.expect(TokenStatic)
	p.expect(TokenVoid)
	if p.curTokenIs(TokenIdentifier) && p.curToken.Literal == "main" {
		p.nextToken()
	} else {
		p.errorf("expected main, got %s", p.curToken)
	}
	p.expect(TokenLParen)
	if p.curTokenIs(TokenIdentifier) && p.curToken.Literal == "String" {
		p.nextToken()
	} else {
		p.errorf("expected String, got %s", p.curToken)
	}
	p.expect(TokenLBracket)
	p.expect(TokenRBracket)
	mc.ArgsName, _ = p.expectIdent()
	p.expect(TokenRParen)
	p.expect(TokenLBrace)
	mc.Body = p.parseStatements()
	p.expect(TokenRBrace)
	if !p.expect(TokenRBrace) {
		p.skipTo(TokenClass)
	}
	mc.SpanVal = p.span(start)
	return mc
}

// parseClassDecl parses:
//
//	class Name [extends Super] { VarDecl* MethodDecl* }
func (p *Parser) parseClassDecl() *ClassDecl {
	start := p.curToken.Pos
	p.expect(TokenClass)

	cls := &ClassDecl{}
	name, ok := p.expectIdent()
	if !ok {
		p.skipTo(TokenClass)
		return nil
	}
	cls.Name = name

	if p.curTokenIs(TokenExtends) {
		p.nextToken()
		cls.Superclass, _ = p.expectIdent()
	}

	if !p.expect(TokenLBrace) {
		p.skipTo(TokenClass)
		return nil
	}

	for p.isVarDeclStart() {
		if v := p.parseVarDecl(); v != nil {
			cls.Fields = append(cls.Fields, v)
		}
	}

	for p.curTokenIs(TokenPublic) {
		if m := p.parseMethodDecl(); m != nil {
			cls.Methods = append(cls.Methods, m)
		}
	}

	if !p.expect(TokenRBrace) {
		p.skipTo(TokenClass)
	}
	cls.SpanVal = p.span(start)
	return cls
}

// isVarDeclStart reports whether the current tokens begin "Type name".
func (p *Parser) isVarDeclStart() bool {
	switch p.curToken.Type {
	case TokenInt, TokenBoolean:
		return true
	case TokenIdentifier:
		return p.peekTokenIs(TokenIdentifier)
	}
	return false
}

// parseVarDecl parses: Type name ;
func (p *Parser) parseVarDecl() *VarDecl {
	start := p.curToken.Pos
	typ := p.parseType()
	name, ok := p.expectIdent()
	if !ok {
		p.skipTo(TokenSemicolon, TokenRBrace)
		if p.curTokenIs(TokenSemicolon) {
			p.nextToken()
		}
		return nil
	}
	p.expect(TokenSemicolon)
	return &VarDecl{SpanVal: p.span(start), Type: typ, Name: name}
}

// parseType parses int, boolean or a class name. Array types are rejected.
func (p *Parser) parseType() Type {
	start := p.curToken.Pos
	switch p.curToken.Type {
	case TokenInt:
		p.nextToken()
		if p.curTokenIs(TokenLBracket) {
			p.errorf("array types are not supported")
			p.nextToken()
			p.expect(TokenRBracket)
		}
		return &IntType{SpanVal: p.span(start)}
	case TokenBoolean:
		p.nextToken()
		return &BoolType{SpanVal: p.span(start)}
	case TokenIdentifier:
		name := p.curToken.Literal
		p.nextToken()
		return &ClassType{SpanVal: p.span(start), Name: name}
	}
	p.errorf("expected type, got %s", p.curToken)
	p.nextToken()
	return nil
}

// parseMethodDecl parses:
//
//	public Type name ( [Type name {, Type name}] ) { VarDecl* Stmt* return Expr ; }
func (p *Parser) parseMethodDecl() *MethodDecl {
	start := p.curToken.Pos
	p.expect(TokenPublic)

	m := &MethodDecl{}
	m.ReturnType = p.parseType()
	name, ok := p.expectIdent()
	if !ok {
		p.skipTo(TokenPublic, TokenClass)
		return nil
	}
	m.Name = name

	p.expect(TokenLParen)
	for !p.curTokenIs(TokenRParen) && !p.curTokenIs(TokenEOF) {
		pstart := p.curToken.Pos
		typ := p.parseType()
		pname, ok := p.expectIdent()
		if !ok {
			p.skipTo(TokenRParen, TokenLBrace)
			break
		}
		m.Params = append(m.Params, &VarDecl{SpanVal: p.span(pstart), Type: typ, Name: pname})
		if p.curTokenIs(TokenComma) {
			p.nextToken()
			continue
		}
		if !p.curTokenIs(TokenRParen) {
			p.errorf("expected , or ) in parameter list, got %s", p.curToken)
			p.skipTo(TokenRParen, TokenLBrace)
			break
		}
	}
	p.expect(TokenRParen)

	if !p.expect(TokenLBrace) {
		p.skipTo(TokenPublic, TokenClass)
		return nil
	}

	for p.isVarDeclStart() {
		if v := p.parseVarDecl(); v != nil {
			m.Locals = append(m.Locals, v)
		}
	}

	m.Body = p.parseStatements()

	if !p.expect(TokenReturn) {
		p.skipTo(TokenRBrace)
		p.nextToken()
		return nil
	}
	m.Return = p.ParseExpression()
	p.expect(TokenSemicolon)
	p.expect(TokenRBrace)

	m.SpanVal = p.span(start)
	return m
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// parseStatements parses statements up to a closing brace or return.
func (p *Parser) parseStatements() []Stmt {
	var stmts []Stmt
	for !p.curTokenIs(TokenRBrace) && !p.curTokenIs(TokenReturn) && !p.curTokenIs(TokenEOF) {
		before := p.curToken
		if stmt := p.ParseStatement(); stmt != nil {
			stmts = append(stmts, stmt)
		}
		if p.curToken == before {
			// No progress; drop the offending token.
			p.nextToken()
		}
	}
	return stmts
}

// ParseStatement parses a single statement.
func (p *Parser) ParseStatement() Stmt {
	start := p.curToken.Pos

	switch p.curToken.Type {
	case TokenLBrace:
		p.nextToken()
		stmts := p.parseStatements()
		p.expect(TokenRBrace)
		return &BlockStmt{SpanVal: p.span(start), Stmts: stmts}

	case TokenIf:
		p.nextToken()
		p.expect(TokenLParen)
		cond := p.ParseExpression()
		p.expect(TokenRParen)
		then := p.ParseStatement()
		var els Stmt
		if p.curTokenIs(TokenElse) {
			p.nextToken()
			els = p.ParseStatement()
		}
		if cond == nil || then == nil {
			return nil
		}
		return &IfStmt{SpanVal: p.span(start), Cond: cond, Then: then, Else: els}

	case TokenWhile:
		p.nextToken()
		p.expect(TokenLParen)
		cond := p.ParseExpression()
		p.expect(TokenRParen)
		body := p.ParseStatement()
		if cond == nil || body == nil {
			return nil
		}
		return &WhileStmt{SpanVal: p.span(start), Cond: cond, Body: body}

	case TokenPrintln:
		p.nextToken()
		p.expect(TokenLParen)
		value := p.ParseExpression()
		p.expect(TokenRParen)
		p.expect(TokenSemicolon)
		if value == nil {
			return nil
		}
		return &PrintStmt{SpanVal: p.span(start), Value: value}

	case TokenIdentifier:
		name := p.curToken.Literal
		if p.peekTokenIs(TokenLBracket) {
			p.errorf("array assignment is not supported")
			p.skipStatement()
			return nil
		}
		p.nextToken()
		if !p.expect(TokenAssign) {
			p.skipStatement()
			return nil
		}
		value := p.ParseExpression()
		p.expect(TokenSemicolon)
		if value == nil {
			return nil
		}
		return &AssignStmt{SpanVal: p.span(start), Name: name, Value: value}
	}

	p.errorf("unexpected %s at start of statement", p.curToken)
	p.skipStatement()
	return nil
}

// skipStatement discards tokens through the next semicolon.
func (p *Parser) skipStatement() {
	p.skipTo(TokenSemicolon, TokenRBrace)
	if p.curTokenIs(TokenSemicolon) {
		p.nextToken()
	}
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// ParseExpression parses a single expression.
func (p *Parser) ParseExpression() Expr {
	return p.parseOr()
}

func (p *Parser) parseBinaryLevel(next func() Expr, ops map[TokenType]BinaryOp) Expr {
	left := next()
	for left != nil {
		op, ok := ops[p.curToken.Type]
		if !ok {
			return left
		}
		p.nextToken()
		right := next()
		if right == nil {
			return nil
		}
		left = &BinaryExpr{
			SpanVal: Span{Start: left.Span().Start, End: right.Span().End},
			Op:      op,
			Left:    left,
			Right:   right,
		}
	}
	return left
}

func (p *Parser) parseOr() Expr {
	return p.parseBinaryLevel(p.parseAnd, map[TokenType]BinaryOp{TokenOr: OpOr})
}

func (p *Parser) parseAnd() Expr {
	return p.parseBinaryLevel(p.parseEquality, map[TokenType]BinaryOp{TokenAnd: OpAnd})
}

func (p *Parser) parseEquality() Expr {
	return p.parseBinaryLevel(p.parseRelational, map[TokenType]BinaryOp{TokenEqual: OpEq})
}

func (p *Parser) parseRelational() Expr {
	return p.parseBinaryLevel(p.parseAdditive, map[TokenType]BinaryOp{TokenLess: OpLt, TokenGreater: OpGt})
}

func (p *Parser) parseAdditive() Expr {
	return p.parseBinaryLevel(p.parseMultiplicative, map[TokenType]BinaryOp{TokenPlus: OpAdd, TokenMinus: OpSub})
}

func (p *Parser) parseMultiplicative() Expr {
	return p.parseBinaryLevel(p.parseUnary, map[TokenType]BinaryOp{TokenStar: OpMul, TokenSlash: OpDiv})
}

func (p *Parser) parseUnary() Expr {
	if p.curTokenIs(TokenBang) {
		start := p.curToken.Pos
		p.nextToken()
		operand := p.parseUnary()
		if operand == nil {
			return nil
		}
		return &UnaryExpr{SpanVal: Span{Start: start, End: operand.Span().End}, Op: OpNot, Operand: operand}
	}
	return p.parsePostfix()
}

// parsePostfix parses a primary followed by any number of method calls.
func (p *Parser) parsePostfix() Expr {
	expr := p.parsePrimary()
	for expr != nil {
		switch {
		case p.curTokenIs(TokenPeriod):
			p.nextToken()
			if p.curTokenIs(TokenIdentifier) && p.curToken.Literal == "length" && !p.peekTokenIs(TokenLParen) {
				p.errorf("array length is not supported")
				p.nextToken()
				return nil
			}
			method, ok := p.expectIdent()
			if !ok {
				return nil
			}
			p.expect(TokenLParen)
			args := p.parseArguments()
			end := p.curToken.Pos
			p.expect(TokenRParen)
			expr = &CallExpr{
				SpanVal:  Span{Start: expr.Span().Start, End: end},
				Receiver: expr,
				Method:   method,
				Args:     args,
			}

		case p.curTokenIs(TokenLBracket):
			p.errorf("array indexing is not supported")
			p.skipTo(TokenRBracket, TokenSemicolon)
			if p.curTokenIs(TokenRBracket) {
				p.nextToken()
			}
			return nil

		default:
			return expr
		}
	}
	return nil
}

func (p *Parser) parseArguments() []Expr {
	var args []Expr
	if p.curTokenIs(TokenRParen) {
		return args
	}
	for {
		arg := p.ParseExpression()
		if arg == nil {
			p.skipTo(TokenRParen, TokenSemicolon)
			return args
		}
		args = append(args, arg)
		if !p.curTokenIs(TokenComma) {
			return args
		}
		p.nextToken()
	}
}

func (p *Parser) parsePrimary() Expr {
	tok := p.curToken
	start := tok.Pos

	switch tok.Type {
	case TokenInteger:
		p.nextToken()
		v, err := strconv.ParseInt(tok.Literal, 10, 32)
		if err != nil {
			p.errorf("integer literal %s out of range", tok.Literal)
			return nil
		}
		return &IntLiteral{SpanVal: p.span(start), Value: v}

	case TokenTrue, TokenFalse:
		p.nextToken()
		return &BoolLiteral{SpanVal: p.span(start), Value: tok.Type == TokenTrue}

	case TokenIdentifier:
		p.nextToken()
		return &Identifier{SpanVal: p.span(start), Name: tok.Literal}

	case TokenThis:
		p.nextToken()
		return &ThisExpr{SpanVal: p.span(start)}

	case TokenNew:
		p.nextToken()
		if p.curTokenIs(TokenInt) {
			p.errorf("array allocation is not supported")
			p.skipTo(TokenRBracket, TokenSemicolon)
			if p.curTokenIs(TokenRBracket) {
				p.nextToken()
			}
			return nil
		}
		class, ok := p.expectIdent()
		if !ok {
			return nil
		}
		p.expect(TokenLParen)
		p.expect(TokenRParen)
		return &NewObject{SpanVal: p.span(start), Class: class}

	case TokenLParen:
		p.nextToken()
		inner := p.ParseExpression()
		p.expect(TokenRParen)
		return inner
	}

	p.errorf("unexpected %s in expression", tok)
	return nil
}

// ParseProgram parses source and returns the tree with any syntax errors.
func ParseProgram(source string) (*Program, []string) {
	p := NewParser(source)
	prog := p.ParseProgram()
	return prog, p.Errors()
}
