// Package parser implements the Lox language parser.
package parser

import (
	"errors"
	"fmt"

	"github.com/thomasrohde/lox/pkg/ast"
	"github.com/thomasrohde/lox/pkg/diagnostics"
	"github.com/thomasrohde/lox/pkg/lexer"
)

// MaxArgs is the largest number of parameters or call arguments accepted.
const MaxArgs = 255

type parser struct {
	tokens     []lexer.Token
	pos        int
	diags      []diagnostics.Diagnostic
	eofErrors  int
	blockDepth int // enclosing '{' blocks being parsed
}

// Parse tokenizes source and parses it into an AST. When lexing fails only
// the lexical diagnostics are returned; otherwise every syntax error found
// during one pass is returned. The program is nil whenever diagnostics are.
func Parse(source, filename string) (*ast.Program, []diagnostics.Diagnostic) {
	tokens, err := lexer.Tokenize(source, filename)
	if err != nil {
		var le *lexer.LexError
		if errors.As(err, &le) {
			return nil, le.Diags
		}
		return nil, []diagnostics.Diagnostic{diagnostics.MakeDiag(diagnostics.ELex, err.Error(), nil, "")}
	}
	return ParseTokens(tokens, filename)
}

// ParseTokens parses an already tokenized compilation unit.
func ParseTokens(tokens []lexer.Token, filename string) (*ast.Program, []diagnostics.Diagnostic) {
	p := newParser(tokens, filename)
	prog := p.parseProgram()
	if len(p.diags) > 0 {
		return nil, p.diags
	}
	return prog, nil
}

// Incomplete reports whether source fails to parse only because input ended
// too early: an unterminated string or block comment, or syntax errors that
// all sit at end of file. The REPL uses it to ask for a continuation line.
func Incomplete(source string) bool {
	tokens, err := lexer.Tokenize(source, "<input>")
	if err != nil {
		var le *lexer.LexError
		return errors.As(err, &le) && le.Unterminated
	}
	p := newParser(tokens, "<input>")
	p.parseProgram()
	return len(p.diags) > 0 && p.eofErrors == len(p.diags)
}

func newParser(tokens []lexer.Token, filename string) *parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != lexer.TokEOF {
		eof := lexer.Token{Type: lexer.TokEOF, Span: ast.Span{File: filename, StartLine: 1, StartCol: 1, EndLine: 1, EndCol: 1}}
		if len(tokens) > 0 {
			last := tokens[len(tokens)-1].Span
			eof.Span = ast.Span{File: last.File, StartLine: last.EndLine, StartCol: last.EndCol, EndLine: last.EndLine, EndCol: last.EndCol}
		}
		tokens = append(tokens[:len(tokens):len(tokens)], eof)
	}
	return &parser{tokens: tokens}
}

func (p *parser) current() lexer.Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // EOF
	}
	return p.tokens[p.pos]
}

func (p *parser) previous() lexer.Token {
	if p.pos == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.pos-1]
}

func (p *parser) peek() lexer.TokenType {
	return p.current().Type
}

func (p *parser) advance() lexer.Token {
	tok := p.current()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) check(typ lexer.TokenType) bool {
	return p.peek() == typ
}

func (p *parser) match(types ...lexer.TokenType) bool {
	for _, typ := range types {
		if p.check(typ) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *parser) expect(typ lexer.TokenType, context string) (lexer.Token, bool) {
	tok := p.current()
	if tok.Type != typ {
		msg := fmt.Sprintf("expected %s, got %s", typ, describe(tok))
		if context != "" {
			msg = fmt.Sprintf("expected %s %s, got %s", typ, context, describe(tok))
		}
		p.errorAt(tok, msg)
		return tok, false
	}
	return p.advance(), true
}

func (p *parser) errorAt(tok lexer.Token, msg string) {
	if tok.Type == lexer.TokEOF {
		p.eofErrors++
	}
	span := tok.Span
	p.diags = append(p.diags, diagnostics.MakeDiag(diagnostics.EParse, msg, &span, ""))
}

func (p *parser) spanFrom(start ast.Span) ast.Span {
	return p.spanFromTo(start, p.previous().Span)
}

func (p *parser) spanFromTo(start, end ast.Span) ast.Span {
	return ast.Span{
		File:      start.File,
		StartLine: start.StartLine,
		StartCol:  start.StartCol,
		EndLine:   end.EndLine,
		EndCol:    end.EndCol,
	}
}

func describe(tok lexer.Token) string {
	if tok.Type == lexer.TokEOF {
		return "end of file"
	}
	return "'" + tok.Lexeme + "'"
}

// synchronize discards tokens until a likely statement boundary: just past a
// ';' or just before a keyword that starts a statement. Inside a block it also
// stops before '}' so the block still closes where the source closes it.
func (p *parser) synchronize() {
	if p.blockDepth > 0 && p.check(lexer.TokRBrace) {
		return
	}
	p.advance()
	for !p.check(lexer.TokEOF) {
		if p.previous().Type == lexer.TokSemicolon {
			return
		}
		switch p.peek() {
		case lexer.TokClass, lexer.TokFun, lexer.TokVar, lexer.TokFor, lexer.TokIf,
			lexer.TokWhile, lexer.TokPrint, lexer.TokReturn, lexer.TokBreak,
			lexer.TokContinue, lexer.TokImport:
			return
		case lexer.TokRBrace:
			if p.blockDepth > 0 {
				return
			}
		}
		p.advance()
	}
}

// --- Program ---

func (p *parser) parseProgram() *ast.Program {
	startSpan := p.current().Span
	var stmts []ast.Stmt
	for !p.check(lexer.TokEOF) {
		if stmt := p.parseDeclaration(); stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	return &ast.Program{
		Span:       p.spanFromTo(startSpan, p.current().Span),
		Statements: stmts,
	}
}

// parseDeclaration parses one declaration or statement. On a syntax error it
// synchronizes and returns nil so the caller can keep going.
func (p *parser) parseDeclaration() ast.Stmt {
	var stmt ast.Stmt
	switch p.peek() {
	case lexer.TokClass:
		if d := p.parseClassDecl(); d != nil {
			stmt = d
		}
	case lexer.TokFun:
		start := p.advance() // consume 'fun'
		if fn := p.parseFunction("function", start.Span); fn != nil {
			stmt = fn
		}
	case lexer.TokVar:
		if d := p.parseVarDecl(); d != nil {
			stmt = d
		}
	default:
		stmt = p.parseStatement()
	}
	if stmt == nil {
		p.synchronize()
		return nil
	}
	return stmt
}

// --- Declarations ---

func (p *parser) parseClassDecl() *ast.ClassDecl {
	start := p.advance() // consume 'class'
	name, ok := p.expect(lexer.TokIdent, "for class name")
	if !ok {
		return nil
	}

	var superclass *ast.Variable
	if p.match(lexer.TokLt) {
		sup, ok := p.expect(lexer.TokIdent, "for superclass name")
		if !ok {
			return nil
		}
		superclass = &ast.Variable{Span: sup.Span, Name: sup.Lexeme}
	}

	if _, ok := p.expect(lexer.TokLBrace, "before class body"); !ok {
		return nil
	}

	var methods []*ast.FunctionDecl
	for !p.check(lexer.TokRBrace) && !p.check(lexer.TokEOF) {
		method := p.parseFunction("method", p.current().Span)
		if method == nil {
			return nil
		}
		methods = append(methods, method)
	}

	if _, ok := p.expect(lexer.TokRBrace, "after class body"); !ok {
		return nil
	}

	return &ast.ClassDecl{
		Span:       p.spanFrom(start.Span),
		Name:       name.Lexeme,
		Superclass: superclass,
		Methods:    methods,
	}
}

// parseFunction parses `name(params) { body }`; the leading 'fun' (if any)
// has already been consumed and start is its span.
func (p *parser) parseFunction(kind string, start ast.Span) *ast.FunctionDecl {
	name, ok := p.expect(lexer.TokIdent, "for "+kind+" name")
	if !ok {
		return nil
	}
	if _, ok := p.expect(lexer.TokLParen, "after "+kind+" name"); !ok {
		return nil
	}

	var params []string
	if !p.check(lexer.TokRParen) {
		for {
			if len(params) >= MaxArgs {
				p.errorAt(p.current(), fmt.Sprintf("can't have more than %d parameters", MaxArgs))
			}
			param, ok := p.expect(lexer.TokIdent, "for parameter name")
			if !ok {
				return nil
			}
			params = append(params, param.Lexeme)
			if !p.match(lexer.TokComma) {
				break
			}
		}
	}
	if _, ok := p.expect(lexer.TokRParen, "after parameters"); !ok {
		return nil
	}

	if !p.check(lexer.TokLBrace) {
		p.errorAt(p.current(), fmt.Sprintf("expected '{' before %s body, got %s", kind, describe(p.current())))
		return nil
	}
	body := p.parseBlock()
	if body == nil {
		return nil
	}

	return &ast.FunctionDecl{
		Span:   p.spanFrom(start),
		Name:   name.Lexeme,
		Params: params,
		Body:   body.Statements,
	}
}

func (p *parser) parseVarDecl() *ast.VarDecl {
	start := p.advance() // consume 'var'
	name, ok := p.expect(lexer.TokIdent, "for variable name")
	if !ok {
		return nil
	}

	var init ast.Expr
	if p.match(lexer.TokEquals) {
		init = p.parseExpr()
		if init == nil {
			return nil
		}
	}

	if _, ok := p.expect(lexer.TokSemicolon, "after variable declaration"); !ok {
		return nil
	}
	return &ast.VarDecl{
		Span: p.spanFrom(start.Span),
		Name: name.Lexeme,
		Init: init,
	}
}

// --- Statements ---

func (p *parser) parseStatement() ast.Stmt {
	switch p.peek() {
	case lexer.TokPrint:
		return p.parsePrintStmt()
	case lexer.TokLBrace:
		if b := p.parseBlock(); b != nil {
			return b
		}
		return nil
	case lexer.TokIf:
		return p.parseIfStmt()
	case lexer.TokWhile:
		return p.parseWhileStmt()
	case lexer.TokFor:
		return p.parseForStmt()
	case lexer.TokReturn:
		return p.parseReturnStmt()
	case lexer.TokBreak:
		start := p.advance()
		if _, ok := p.expect(lexer.TokSemicolon, "after 'break'"); !ok {
			return nil
		}
		return &ast.BreakStmt{Span: p.spanFrom(start.Span)}
	case lexer.TokContinue:
		start := p.advance()
		if _, ok := p.expect(lexer.TokSemicolon, "after 'continue'"); !ok {
			return nil
		}
		return &ast.ContinueStmt{Span: p.spanFrom(start.Span)}
	case lexer.TokImport:
		return p.parseImportStmt()
	default:
		return p.parseExprStmt()
	}
}

func (p *parser) parsePrintStmt() ast.Stmt {
	start := p.advance() // consume 'print'
	value := p.parseExpr()
	if value == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokSemicolon, "after value"); !ok {
		return nil
	}
	return &ast.PrintStmt{Span: p.spanFrom(start.Span), Expr: value}
}

func (p *parser) parseExprStmt() ast.Stmt {
	start := p.current()
	expr := p.parseExpr()
	if expr == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokSemicolon, "after expression"); !ok {
		return nil
	}
	return &ast.ExprStmt{Span: p.spanFrom(start.Span), Expr: expr}
}

// parseBlock parses `{ declaration* }`. Errors inside the block are
// synchronized locally so the remaining statements are still checked.
func (p *parser) parseBlock() *ast.BlockStmt {
	start, ok := p.expect(lexer.TokLBrace, "")
	if !ok {
		return nil
	}
	p.blockDepth++
	defer func() { p.blockDepth-- }()

	var stmts []ast.Stmt
	for !p.check(lexer.TokRBrace) && !p.check(lexer.TokEOF) {
		if stmt := p.parseDeclaration(); stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	if _, ok := p.expect(lexer.TokRBrace, "after block"); !ok {
		return nil
	}
	return &ast.BlockStmt{Span: p.spanFrom(start.Span), Statements: stmts}
}

func (p *parser) parseCondition(keyword string) ast.Expr {
	if _, ok := p.expect(lexer.TokLParen, "after '"+keyword+"'"); !ok {
		return nil
	}
	cond := p.parseExpr()
	if cond == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokRParen, "after "+keyword+" condition"); !ok {
		return nil
	}
	return cond
}

func (p *parser) parseIfStmt() ast.Stmt {
	start := p.advance() // consume 'if'
	cond := p.parseCondition("if")
	if cond == nil {
		return nil
	}
	then := p.parseStatement()
	if then == nil {
		return nil
	}
	var elseBranch ast.Stmt
	if p.match(lexer.TokElse) {
		elseBranch = p.parseStatement()
		if elseBranch == nil {
			return nil
		}
	}
	return &ast.IfStmt{
		Span: p.spanFrom(start.Span),
		Cond: cond,
		Then: then,
		Else: elseBranch,
	}
}

func (p *parser) parseWhileStmt() ast.Stmt {
	start := p.advance() // consume 'while'
	cond := p.parseCondition("while")
	if cond == nil {
		return nil
	}
	body := p.parseStatement()
	if body == nil {
		return nil
	}
	return &ast.WhileStmt{Span: p.spanFrom(start.Span), Cond: cond, Body: body}
}

// parseForStmt desugars `for (init; cond; inc) body` into
// `{ init; while (cond) body }` with inc carried as the loop's increment so
// that continue still runs it.
func (p *parser) parseForStmt() ast.Stmt {
	start := p.advance() // consume 'for'
	if _, ok := p.expect(lexer.TokLParen, "after 'for'"); !ok {
		return nil
	}

	var init ast.Stmt
	switch p.peek() {
	case lexer.TokSemicolon:
		p.advance()
	case lexer.TokVar:
		d := p.parseVarDecl()
		if d == nil {
			return nil
		}
		init = d
	default:
		init = p.parseExprStmt()
		if init == nil {
			return nil
		}
	}

	var cond ast.Expr
	if !p.check(lexer.TokSemicolon) {
		cond = p.parseExpr()
		if cond == nil {
			return nil
		}
	}
	semi, ok := p.expect(lexer.TokSemicolon, "after loop condition")
	if !ok {
		return nil
	}
	if cond == nil {
		cond = &ast.BoolLiteral{Span: semi.Span, Value: true}
	}

	var increment ast.Expr
	if !p.check(lexer.TokRParen) {
		increment = p.parseExpr()
		if increment == nil {
			return nil
		}
	}
	if _, ok := p.expect(lexer.TokRParen, "after for clauses"); !ok {
		return nil
	}

	body := p.parseStatement()
	if body == nil {
		return nil
	}

	span := p.spanFrom(start.Span)
	loop := &ast.WhileStmt{Span: span, Cond: cond, Body: body, Increment: increment}
	if init == nil {
		return loop
	}
	return &ast.BlockStmt{Span: span, Statements: []ast.Stmt{init, loop}}
}

func (p *parser) parseReturnStmt() ast.Stmt {
	start := p.advance() // consume 'return'
	var value ast.Expr
	if !p.check(lexer.TokSemicolon) {
		value = p.parseExpr()
		if value == nil {
			return nil
		}
	}
	if _, ok := p.expect(lexer.TokSemicolon, "after return value"); !ok {
		return nil
	}
	return &ast.ReturnStmt{Span: p.spanFrom(start.Span), Value: value}
}

func (p *parser) parseImportStmt() ast.Stmt {
	start := p.advance() // consume 'import'
	name := p.current()
	if name.Type != lexer.TokString {
		p.errorAt(name, fmt.Sprintf("expected module name string after 'import', got %s", describe(name)))
		return nil
	}
	p.advance()
	if _, ok := p.expect(lexer.TokSemicolon, "after import"); !ok {
		return nil
	}
	return &ast.ImportStmt{Span: p.spanFrom(start.Span), Module: name.Literal.(string)}
}

// --- Expressions ---

func (p *parser) parseExpr() ast.Expr {
	return p.parseAssignment()
}

func (p *parser) parseAssignment() ast.Expr {
	target := p.parseOr()
	if target == nil {
		return nil
	}

	switch p.peek() {
	case lexer.TokEquals:
		eq := p.advance()
		value := p.parseAssignment()
		if value == nil {
			return nil
		}
		span := p.spanFromTo(target.NodeSpan(), value.NodeSpan())
		switch t := target.(type) {
		case *ast.Variable:
			return &ast.Assign{Span: span, Name: t.Name, Value: value}
		case *ast.GetExpr:
			return &ast.SetExpr{Span: span, Object: t.Object, Name: t.Name, Value: value}
		case *ast.IndexGet:
			return &ast.IndexSet{Span: span, Array: t.Array, Index: t.Index, Value: value}
		}
		// Reported without synchronizing: the parser is not confused.
		p.errorAt(eq, "invalid assignment target")
		return target

	case lexer.TokPlusEqual, lexer.TokMinusEqual:
		opTok := p.advance()
		value := p.parseAssignment()
		if value == nil {
			return nil
		}
		v, ok := target.(*ast.Variable)
		if !ok {
			p.errorAt(opTok, "invalid compound assignment target")
			return target
		}
		op := ast.OpAdd
		if opTok.Type == lexer.TokMinusEqual {
			op = ast.OpSub
		}
		return &ast.CompoundAssign{
			Span:  p.spanFromTo(target.NodeSpan(), value.NodeSpan()),
			Name:  v.Name,
			Op:    op,
			Value: value,
		}
	}
	return target
}

func (p *parser) parseOr() ast.Expr {
	left := p.parseAnd()
	if left == nil {
		return nil
	}
	for p.check(lexer.TokOr) {
		p.advance()
		right := p.parseAnd()
		if right == nil {
			return nil
		}
		left = &ast.LogicalExpr{
			Span:  p.spanFromTo(left.NodeSpan(), right.NodeSpan()),
			Op:    ast.OpOr,
			Left:  left,
			Right: right,
		}
	}
	return left
}

func (p *parser) parseAnd() ast.Expr {
	left := p.parseEquality()
	if left == nil {
		return nil
	}
	for p.check(lexer.TokAnd) {
		p.advance()
		right := p.parseEquality()
		if right == nil {
			return nil
		}
		left = &ast.LogicalExpr{
			Span:  p.spanFromTo(left.NodeSpan(), right.NodeSpan()),
			Op:    ast.OpAnd,
			Left:  left,
			Right: right,
		}
	}
	return left
}

// --- Precedence climbing ---

var (
	equalityOps = map[lexer.TokenType]ast.BinaryOp{
		lexer.TokEqEq:   ast.OpEqEq,
		lexer.TokBangEq: ast.OpNeq,
	}
	comparisonOps = map[lexer.TokenType]ast.BinaryOp{
		lexer.TokGt:   ast.OpGt,
		lexer.TokGtEq: ast.OpGtEq,
		lexer.TokLt:   ast.OpLt,
		lexer.TokLtEq: ast.OpLtEq,
	}
	additiveOps = map[lexer.TokenType]ast.BinaryOp{
		lexer.TokPlus:  ast.OpAdd,
		lexer.TokMinus: ast.OpSub,
	}
	multiplicativeOps = map[lexer.TokenType]ast.BinaryOp{
		lexer.TokStar:    ast.OpMul,
		lexer.TokSlash:   ast.OpDiv,
		lexer.TokPercent: ast.OpMod,
	}
)

// parseBinary parses a left-associative chain of the operators in ops whose
// operands are parsed by next.
func (p *parser) parseBinary(ops map[lexer.TokenType]ast.BinaryOp, next func() ast.Expr) ast.Expr {
	left := next()
	if left == nil {
		return nil
	}
	for {
		op, ok := ops[p.peek()]
		if !ok {
			return left
		}
		p.advance()
		right := next()
		if right == nil {
			return nil
		}
		left = &ast.BinaryExpr{
			Span:  p.spanFromTo(left.NodeSpan(), right.NodeSpan()),
			Op:    op,
			Left:  left,
			Right: right,
		}
	}
}

func (p *parser) parseEquality() ast.Expr {
	return p.parseBinary(equalityOps, p.parseComparison)
}

func (p *parser) parseComparison() ast.Expr {
	return p.parseBinary(comparisonOps, p.parseAdditive)
}

func (p *parser) parseAdditive() ast.Expr {
	return p.parseBinary(additiveOps, p.parseMultiplicative)
}

func (p *parser) parseMultiplicative() ast.Expr {
	return p.parseBinary(multiplicativeOps, p.parseUnary)
}

func (p *parser) parseUnary() ast.Expr {
	if p.check(lexer.TokBang) || p.check(lexer.TokMinus) {
		start := p.advance()
		operand := p.parseUnary()
		if operand == nil {
			return nil
		}
		op := ast.OpNeg
		if start.Type == lexer.TokBang {
			op = ast.OpNot
		}
		return &ast.UnaryExpr{
			Span:    p.spanFromTo(start.Span, operand.NodeSpan()),
			Op:      op,
			Operand: operand,
		}
	}
	return p.parseCall()
}

// parseCall parses a primary followed by any chain of calls, property
// accesses and index operations.
func (p *parser) parseCall() ast.Expr {
	expr := p.parsePrimary()
	if expr == nil {
		return nil
	}

	for {
		switch p.peek() {
		case lexer.TokLParen:
			p.advance()
			args, ok := p.parseArgs()
			if !ok {
				return nil
			}
			expr = &ast.CallExpr{Span: p.spanFrom(expr.NodeSpan()), Callee: expr, Args: args}
		case lexer.TokDot:
			p.advance()
			name, ok := p.expect(lexer.TokIdent, "for property name after '.'")
			if !ok {
				return nil
			}
			expr = &ast.GetExpr{Span: p.spanFrom(expr.NodeSpan()), Object: expr, Name: name.Lexeme}
		case lexer.TokLBracket:
			p.advance()
			index := p.parseExpr()
			if index == nil {
				return nil
			}
			if _, ok := p.expect(lexer.TokRBracket, "after index"); !ok {
				return nil
			}
			expr = &ast.IndexGet{Span: p.spanFrom(expr.NodeSpan()), Array: expr, Index: index}
		default:
			return expr
		}
	}
}

// parseArgs parses call arguments after the opening '(' through the ')'.
func (p *parser) parseArgs() ([]ast.Expr, bool) {
	var args []ast.Expr
	if !p.check(lexer.TokRParen) {
		for {
			if len(args) >= MaxArgs {
				p.errorAt(p.current(), fmt.Sprintf("can't have more than %d arguments", MaxArgs))
			}
			arg := p.parseExpr()
			if arg == nil {
				return nil, false
			}
			args = append(args, arg)
			if !p.match(lexer.TokComma) {
				break
			}
		}
	}
	if _, ok := p.expect(lexer.TokRParen, "after arguments"); !ok {
		return nil, false
	}
	return args, true
}

func (p *parser) parsePrimary() ast.Expr {
	tok := p.current()

	switch tok.Type {
	case lexer.TokNumber:
		p.advance()
		return &ast.NumberLiteral{Span: tok.Span, Value: tok.Literal.(float64)}
	case lexer.TokString:
		p.advance()
		return &ast.StringLiteral{Span: tok.Span, Value: tok.Literal.(string)}
	case lexer.TokTrue:
		p.advance()
		return &ast.BoolLiteral{Span: tok.Span, Value: true}
	case lexer.TokFalse:
		p.advance()
		return &ast.BoolLiteral{Span: tok.Span, Value: false}
	case lexer.TokNil:
		p.advance()
		return &ast.NilLiteral{Span: tok.Span}
	case lexer.TokIdent:
		p.advance()
		return &ast.Variable{Span: tok.Span, Name: tok.Lexeme}
	case lexer.TokThis:
		p.advance()
		return &ast.ThisExpr{Span: tok.Span}
	case lexer.TokSuper:
		p.advance()
		if _, ok := p.expect(lexer.TokDot, "after 'super'"); !ok {
			return nil
		}
		method, ok := p.expect(lexer.TokIdent, "for superclass method name")
		if !ok {
			return nil
		}
		return &ast.SuperExpr{Span: p.spanFrom(tok.Span), Method: method.Lexeme}
	case lexer.TokLParen:
		p.advance()
		inner := p.parseExpr()
		if inner == nil {
			return nil
		}
		if _, ok := p.expect(lexer.TokRParen, "after expression"); !ok {
			return nil
		}
		return &ast.Grouping{Span: p.spanFrom(tok.Span), Inner: inner}
	case lexer.TokLBracket:
		return p.parseArrayLiteral()
	}

	p.errorAt(tok, fmt.Sprintf("expected expression, got %s", describe(tok)))
	return nil
}

func (p *parser) parseArrayLiteral() ast.Expr {
	start := p.advance() // consume '['
	var elements []ast.Expr
	if !p.check(lexer.TokRBracket) {
		for {
			elem := p.parseExpr()
			if elem == nil {
				return nil
			}
			elements = append(elements, elem)
			if !p.match(lexer.TokComma) {
				break
			}
		}
	}
	if _, ok := p.expect(lexer.TokRBracket, "after array elements"); !ok {
		return nil
	}
	return &ast.ArrayLiteral{Span: p.spanFrom(start.Span), Elements: elements}
}
