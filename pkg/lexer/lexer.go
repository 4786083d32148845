// Package lexer implements the Lox language tokenizer.
package lexer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/thomasrohde/lox/pkg/ast"
	"github.com/thomasrohde/lox/pkg/diagnostics"
)

// TokenType identifies the type of a lexer token.
type TokenType int

const (
	// Keywords
	TokAnd TokenType = iota
	TokClass
	TokElse
	TokFalse
	TokFun
	TokFor
	TokIf
	TokNil
	TokOr
	TokPrint
	TokReturn
	TokSuper
	TokThis
	TokTrue
	TokVar
	TokWhile
	TokBreak
	TokContinue
	TokImport

	// Literals
	TokNumber
	TokString

	// Identifiers
	TokIdent

	// Punctuation
	TokLParen    // (
	TokRParen    // )
	TokLBrace    // {
	TokRBrace    // }
	TokLBracket  // [
	TokRBracket  // ]
	TokComma     // ,
	TokDot       // .
	TokSemicolon // ;

	// Operators
	TokPlus       // +
	TokMinus      // -
	TokStar       // *
	TokSlash      // /
	TokPercent    // %
	TokBang       // !
	TokBangEq     // !=
	TokEquals     // =
	TokEqEq       // ==
	TokGt         // >
	TokGtEq       // >=
	TokLt         // <
	TokLtEq       // <=
	TokPlusEqual  // +=
	TokMinusEqual // -=

	// Special
	TokEOF
)

var tokenNames = map[TokenType]string{
	TokNumber: "number", TokString: "string", TokIdent: "identifier",
	TokLParen: "'('", TokRParen: "')'", TokLBrace: "'{'", TokRBrace: "'}'",
	TokLBracket: "'['", TokRBracket: "']'", TokComma: "','", TokDot: "'.'",
	TokSemicolon: "';'", TokPlus: "'+'", TokMinus: "'-'", TokStar: "'*'",
	TokSlash: "'/'", TokPercent: "'%'", TokBang: "'!'", TokBangEq: "'!='",
	TokEquals: "'='", TokEqEq: "'=='", TokGt: "'>'", TokGtEq: "'>='",
	TokLt: "'<'", TokLtEq: "'<='", TokPlusEqual: "'+='", TokMinusEqual: "'-='",
	TokEOF: "end of file",
}

// String returns a human readable name for the token type, as used in diagnostics.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	for kw, typ := range keywords {
		if typ == t {
			return "'" + kw + "'"
		}
	}
	return fmt.Sprintf("token(%d)", int(t))
}

// IsKeyword reports whether the token type is a reserved word.
func (t TokenType) IsKeyword() bool {
	return t >= TokAnd && t <= TokImport
}

// Token represents a single lexer token. Literal holds a float64 for numbers
// and the unescaped text for strings; it is nil for every other token.
type Token struct {
	Type    TokenType
	Lexeme  string
	Literal any
	Span    ast.Span
}

// Line returns the line the token starts on.
func (t Token) Line() int {
	return t.Span.StartLine
}

var keywords = map[string]TokenType{
	"and":      TokAnd,
	"class":    TokClass,
	"else":     TokElse,
	"false":    TokFalse,
	"for":      TokFor,
	"fun":      TokFun,
	"if":       TokIf,
	"nil":      TokNil,
	"or":       TokOr,
	"print":    TokPrint,
	"return":   TokReturn,
	"super":    TokSuper,
	"this":     TokThis,
	"true":     TokTrue,
	"var":      TokVar,
	"while":    TokWhile,
	"break":    TokBreak,
	"continue": TokContinue,
	"import":   TokImport,
}

// Keywords returns the reserved words of the language.
func Keywords() []string {
	out := make([]string, 0, len(keywords))
	for kw := range keywords {
		out = append(out, kw)
	}
	return out
}

type scanner struct {
	source       string
	filename     string
	pos          int
	line         int
	col          int
	diags        []diagnostics.Diagnostic
	fatal        bool
	unterminated bool // input ended inside a string or block comment
}

func newScanner(source, filename string) *scanner {
	return &scanner{
		source:   source,
		filename: filename,
		pos:      0,
		line:     1,
		col:      1,
	}
}

func (s *scanner) atEnd() bool {
	return s.pos >= len(s.source)
}

func (s *scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.source[s.pos]
}

func (s *scanner) peekAt(offset int) byte {
	p := s.pos + offset
	if p >= len(s.source) {
		return 0
	}
	return s.source[p]
}

func (s *scanner) advance() byte {
	ch := s.source[s.pos]
	s.pos++
	if ch == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return ch
}

func (s *scanner) match(expected byte) bool {
	if s.atEnd() || s.source[s.pos] != expected {
		return false
	}
	s.advance()
	return true
}

func (s *scanner) span(startLine, startCol int) ast.Span {
	return ast.Span{
		File:      s.filename,
		StartLine: startLine,
		StartCol:  startCol,
		EndLine:   s.line,
		EndCol:    s.col,
	}
}

func (s *scanner) lexError(line, col int, msg string) {
	s.diags = append(s.diags, diagnostics.MakeDiag(
		diagnostics.ELex,
		msg,
		&ast.Span{File: s.filename, StartLine: line, StartCol: col, EndLine: line, EndCol: col + 1},
		"",
	))
}

func (s *scanner) skipWhitespaceAndComments() {
	for !s.atEnd() {
		ch := s.peek()
		switch {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			s.advance()
		case ch == '/' && s.peekAt(1) == '/':
			for !s.atEnd() && s.peek() != '\n' {
				s.advance()
			}
		case ch == '/' && s.peekAt(1) == '*':
			if !s.skipBlockComment() {
				return
			}
		default:
			return
		}
	}
}

// skipBlockComment consumes a possibly nested /* ... */ comment. It returns
// false when the comment is unterminated, which ends lexing.
func (s *scanner) skipBlockComment() bool {
	startLine, startCol := s.line, s.col
	s.advance()
	s.advance()
	depth := 1
	for !s.atEnd() && depth > 0 {
		switch {
		case s.peek() == '/' && s.peekAt(1) == '*':
			s.advance()
			s.advance()
			depth++
		case s.peek() == '*' && s.peekAt(1) == '/':
			s.advance()
			s.advance()
			depth--
		default:
			s.advance()
		}
	}
	if depth > 0 {
		s.lexError(startLine, startCol, "unterminated block comment")
		s.fatal = true
		s.unterminated = true
		return false
	}
	return true
}

func isAlpha(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isAlphaNumeric(ch byte) bool {
	return isAlpha(ch) || isDigit(ch)
}

func (s *scanner) scanString() (Token, bool) {
	startLine, startCol := s.line, s.col
	startPos := s.pos
	s.advance() // consume opening "

	var buf strings.Builder
	valid := true
	for !s.atEnd() {
		ch := s.peek()
		if ch == '"' {
			s.advance() // consume closing "
			if !valid {
				return Token{}, false
			}
			return Token{
				Type:    TokString,
				Lexeme:  s.source[startPos:s.pos],
				Literal: buf.String(),
				Span:    s.span(startLine, startCol),
			}, true
		}
		if ch == '\\' {
			escLine, escCol := s.line, s.col
			s.advance() // consume backslash
			if s.atEnd() {
				break
			}
			esc := s.advance()
			switch esc {
			case 'n':
				buf.WriteByte('\n')
			case 't':
				buf.WriteByte('\t')
			case '"':
				buf.WriteByte('"')
			case '\\':
				buf.WriteByte('\\')
			default:
				s.lexError(escLine, escCol, fmt.Sprintf("invalid escape sequence '\\%c'", esc))
				valid = false
			}
			continue
		}
		_, size := utf8.DecodeRuneInString(s.source[s.pos:])
		buf.WriteString(s.source[s.pos : s.pos+size])
		for i := 0; i < size; i++ {
			s.advance()
		}
	}
	s.lexError(startLine, startCol, "unterminated string")
	s.unterminated = true
	return Token{}, false
}

func (s *scanner) scanNumber() Token {
	startLine, startCol := s.line, s.col
	startPos := s.pos

	for !s.atEnd() && isDigit(s.peek()) {
		s.advance()
	}

	// A fractional part needs at least one digit after the dot.
	if s.peek() == '.' && isDigit(s.peekAt(1)) {
		s.advance()
		for !s.atEnd() && isDigit(s.peek()) {
			s.advance()
		}
	}

	text := s.source[startPos:s.pos]
	val, _ := strconv.ParseFloat(text, 64)
	return Token{
		Type:    TokNumber,
		Lexeme:  text,
		Literal: val,
		Span:    s.span(startLine, startCol),
	}
}

func (s *scanner) scanIdentOrKeyword() Token {
	startLine, startCol := s.line, s.col
	startPos := s.pos

	for !s.atEnd() && isAlphaNumeric(s.peek()) {
		s.advance()
	}

	text := s.source[startPos:s.pos]
	tokType := TokIdent
	if kw, ok := keywords[text]; ok {
		tokType = kw
	}
	return Token{
		Type:   tokType,
		Lexeme: text,
		Span:   s.span(startLine, startCol),
	}
}

// nextToken scans one token. ok is false when the scanned text produced a
// diagnostic instead of a token; the caller keeps going unless s.fatal is set.
func (s *scanner) nextToken() (tok Token, ok bool) {
	s.skipWhitespaceAndComments()
	if s.fatal {
		return Token{}, false
	}

	if s.atEnd() {
		return Token{
			Type: TokEOF,
			Span: s.span(s.line, s.col),
		}, true
	}

	ch := s.peek()
	startLine, startCol, startPos := s.line, s.col, s.pos
	simple := func(typ TokenType) (Token, bool) {
		return Token{Type: typ, Lexeme: s.source[startPos:s.pos], Span: s.span(startLine, startCol)}, true
	}

	switch {
	case isDigit(ch):
		return s.scanNumber(), true
	case isAlpha(ch):
		return s.scanIdentOrKeyword(), true
	case ch == '"':
		return s.scanString()
	}

	s.advance()
	switch ch {
	case '(':
		return simple(TokLParen)
	case ')':
		return simple(TokRParen)
	case '{':
		return simple(TokLBrace)
	case '}':
		return simple(TokRBrace)
	case '[':
		return simple(TokLBracket)
	case ']':
		return simple(TokRBracket)
	case ',':
		return simple(TokComma)
	case '.':
		return simple(TokDot)
	case ';':
		return simple(TokSemicolon)
	case '*':
		return simple(TokStar)
	case '%':
		return simple(TokPercent)
	case '/':
		return simple(TokSlash)
	case '+':
		if s.match('=') {
			return simple(TokPlusEqual)
		}
		return simple(TokPlus)
	case '-':
		if s.match('=') {
			return simple(TokMinusEqual)
		}
		return simple(TokMinus)
	case '!':
		if s.match('=') {
			return simple(TokBangEq)
		}
		return simple(TokBang)
	case '=':
		if s.match('=') {
			return simple(TokEqEq)
		}
		return simple(TokEquals)
	case '<':
		if s.match('=') {
			return simple(TokLtEq)
		}
		return simple(TokLt)
	case '>':
		if s.match('=') {
			return simple(TokGtEq)
		}
		return simple(TokGt)
	case '&':
		if s.match('&') {
			return simple(TokAnd)
		}
		s.lexError(startLine, startCol, "unexpected character '&' (did you mean '&&'?)")
		return Token{}, false
	case '|':
		if s.match('|') {
			return simple(TokOr)
		}
		s.lexError(startLine, startCol, "unexpected character '|' (did you mean '||'?)")
		return Token{}, false
	}

	// Consume the rest of a multi-byte character so it is reported once.
	r, size := utf8.DecodeRuneInString(s.source[startPos:])
	for i := 1; i < size; i++ {
		s.advance()
	}
	if r == utf8.RuneError && size == 1 {
		s.lexError(startLine, startCol, "invalid UTF-8 byte in source")
	} else {
		s.lexError(startLine, startCol, fmt.Sprintf("unexpected character '%c'", r))
	}
	return Token{}, false
}

// LexError carries every lexical diagnostic found in a compilation unit.
type LexError struct {
	Diags []diagnostics.Diagnostic
	// Unterminated is set when lexing ran out of input inside a string or
	// block comment, i.e. more input could make the unit valid.
	Unterminated bool
}

func (e *LexError) Error() string {
	msgs := make([]string, len(e.Diags))
	for i, d := range e.Diags {
		msgs[i] = fmt.Sprintf("[line %d] %s", d.Line(), d.Message)
	}
	return strings.Join(msgs, "; ")
}

// Tokenize breaks source code into a slice of tokens terminated by TokEOF.
// Lexical problems do not stop scanning (except an unterminated block
// comment); they are all returned together as a *LexError alongside the
// tokens that could be recognised.
func Tokenize(source, filename string) ([]Token, error) {
	s := newScanner(source, filename)
	var tokens []Token

	for {
		tok, ok := s.nextToken()
		if !ok {
			if s.fatal {
				tokens = append(tokens, Token{Type: TokEOF, Span: s.span(s.line, s.col)})
				break
			}
			continue
		}
		tokens = append(tokens, tok)
		if tok.Type == TokEOF {
			break
		}
	}

	if len(s.diags) > 0 {
		return tokens, &LexError{Diags: s.diags, Unterminated: s.unterminated}
	}
	return tokens, nil
}
