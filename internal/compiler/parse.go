package compiler

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/roach88/zerv/internal/zerv"
)

// Schema text keys.
const (
	keyCore       = "core"
	keyExtraCore  = "extra_core"
	keyBuild      = "build"
	keyPrecedence = "precedence_order"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokColon
	tokComma
	tokIdent
	tokString
	tokNumber
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokLBracket:
		return "'['"
	case tokRBracket:
		return "']'"
	case tokColon:
		return "':'"
	case tokComma:
		return "','"
	case tokIdent:
		return "identifier"
	case tokString:
		return "string"
	default:
		return "number"
	}
}

type lexToken struct {
	kind tokenKind
	text string
	line int
	col  int
}

// lexer splits schema text into tokens. Whitespace and // comments are
// skipped.
type lexer struct {
	src  []rune
	pos  int
	line int
	col  int
}

func newLexer(src string) *lexer {
	return &lexer{src: []rune(src), line: 1, col: 1}
}

func (l *lexer) advance() rune {
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) {
		r := l.src[l.pos]
		switch {
		case unicode.IsSpace(r):
			l.advance()
		case r == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '/':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

func (l *lexer) next() (lexToken, error) {
	l.skipSpace()
	tok := lexToken{line: l.line, col: l.col}
	if l.pos >= len(l.src) {
		tok.kind = tokEOF
		return tok, nil
	}

	r := l.src[l.pos]
	single := map[rune]tokenKind{
		'(': tokLParen, ')': tokRParen, '[': tokLBracket, ']': tokRBracket, ':': tokColon, ',': tokComma,
	}
	if kind, ok := single[r]; ok {
		l.advance()
		tok.kind = kind
		tok.text = string(r)
		return tok, nil
	}

	start := l.pos
	switch {
	case r == '"':
		l.advance()
		for {
			if l.pos >= len(l.src) || l.src[l.pos] == '\n' {
				return tok, ValidationError{
					Field: "string", Code: ErrUnterminatedString,
					Message: "unterminated string literal", Line: tok.line, Column: tok.col,
				}
			}
			c := l.advance()
			if c == '\\' && l.pos < len(l.src) {
				l.advance()
				continue
			}
			if c == '"' {
				break
			}
		}
		text, err := strconv.Unquote(string(l.src[start:l.pos]))
		if err != nil {
			return tok, ValidationError{
				Field: "string", Code: ErrSyntax,
				Message: fmt.Sprintf("invalid string literal %s", string(l.src[start:l.pos])),
				Line:    tok.line, Column: tok.col,
			}
		}
		tok.kind = tokString
		tok.text = text
	case r >= '0' && r <= '9':
		for l.pos < len(l.src) && l.src[l.pos] >= '0' && l.src[l.pos] <= '9' {
			l.advance()
		}
		tok.kind = tokNumber
		tok.text = string(l.src[start:l.pos])
	case r == '_' || unicode.IsLetter(r):
		for l.pos < len(l.src) && (l.src[l.pos] == '_' || unicode.IsLetter(l.src[l.pos]) || unicode.IsDigit(l.src[l.pos])) {
			l.advance()
		}
		tok.kind = tokIdent
		tok.text = string(l.src[start:l.pos])
	default:
		return tok, ValidationError{
			Field: "schema", Code: ErrSyntax,
			Message: fmt.Sprintf("unexpected character %q", r), Line: tok.line, Column: tok.col,
		}
	}
	return tok, nil
}

// parser is a one-token-lookahead recursive descent parser.
type parser struct {
	lex *lexer
	tok lexToken
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) errorf(code, field, format string, args ...any) error {
	return ValidationError{
		Field:   field,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Line:    p.tok.line,
		Column:  p.tok.col,
	}
}

func (p *parser) expect(kind tokenKind, field string) (lexToken, error) {
	tok := p.tok
	if tok.kind != kind {
		return tok, p.errorf(ErrSyntax, field, "expected %s, found %s", kind, describe(tok))
	}
	return tok, p.advance()
}

func describe(tok lexToken) string {
	switch tok.kind {
	case tokIdent, tokNumber:
		return fmt.Sprintf("%s %s", tok.kind, tok.text)
	case tokString:
		return fmt.Sprintf("string %q", tok.text)
	}
	return tok.kind.String()
}

// ParseSchema parses the schema text format and validates the result.
// Omitted sections are empty; an omitted or empty precedence_order
// selects the default order. An optional type name may precede the
// opening parenthesis.
func ParseSchema(text string) (*zerv.Schema, error) {
	p := &parser{lex: newLexer(text)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.tok.kind == tokIdent {
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(tokLParen, "schema"); err != nil {
		return nil, err
	}

	sections := map[string][]zerv.Component{}
	var order []zerv.Precedence
	seen := map[string]bool{}

	for p.tok.kind != tokRParen {
		key, err := p.expect(tokIdent, "schema")
		if err != nil {
			return nil, err
		}
		if seen[key.text] {
			return nil, ValidationError{
				Field: key.text, Code: ErrDuplicateKey,
				Message: fmt.Sprintf("key %q given more than once", key.text), Line: key.line, Column: key.col,
			}
		}
		seen[key.text] = true
		if _, err := p.expect(tokColon, key.text); err != nil {
			return nil, err
		}

		switch key.text {
		case keyCore, keyExtraCore, keyBuild:
			comps, err := p.parseComponents(key.text)
			if err != nil {
				return nil, err
			}
			sections[key.text] = comps
		case keyPrecedence:
			if order, err = p.parsePrecedence(); err != nil {
				return nil, err
			}
		default:
			return nil, ValidationError{
				Field: key.text, Code: ErrUnknownKey,
				Message: fmt.Sprintf("unknown key %q: must be one of core, extra_core, build, precedence_order", key.text),
				Line:    key.line, Column: key.col,
			}
		}

		if p.tok.kind != tokComma {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(tokRParen, "schema"); err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, p.errorf(ErrTrailingInput, "schema", "unexpected %s after schema", describe(p.tok))
	}

	if len(order) == 0 {
		order = nil
	}
	return zerv.NewSchema(sections[keyCore], sections[keyExtraCore], sections[keyBuild], order)
}

// parseList parses a bracketed, comma-separated list with an optional
// trailing comma, calling item for each element.
func (p *parser) parseList(field string, item func(index int) error) error {
	if _, err := p.expect(tokLBracket, field); err != nil {
		return err
	}
	for i := 0; p.tok.kind != tokRBracket; i++ {
		if err := item(i); err != nil {
			return err
		}
		if p.tok.kind != tokComma {
			break
		}
		if err := p.advance(); err != nil {
			return err
		}
	}
	_, err := p.expect(tokRBracket, field)
	return err
}

func (p *parser) parseComponents(section string) ([]zerv.Component, error) {
	comps := []zerv.Component{}
	err := p.parseList(section, func(i int) error {
		c, err := p.parseComponent(fmt.Sprintf("%s[%d]", section, i))
		if err != nil {
			return err
		}
		comps = append(comps, c)
		return nil
	})
	return comps, err
}

func (p *parser) parseComponent(field string) (zerv.Component, error) {
	tag, err := p.expect(tokIdent, field)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokLParen, field); err != nil {
		return nil, err
	}
	arg := p.tok

	var c zerv.Component
	switch tag.text {
	case "str":
		if _, err := p.expect(tokString, field); err != nil {
			return nil, err
		}
		c = zerv.Literal{Text: arg.text}
	case "int":
		if _, err := p.expect(tokNumber, field); err != nil {
			return nil, p.errorf(ErrInvalidInteger, field, "int() takes an unsigned integer, found %s", describe(arg))
		}
		n, err := strconv.ParseUint(arg.text, 10, 64)
		if err != nil {
			return nil, ValidationError{
				Field: field, Code: ErrInvalidInteger,
				Message: fmt.Sprintf("integer %s out of range", arg.text), Line: arg.line, Column: arg.col,
			}
		}
		c = zerv.Integer{Value: n}
	case "var":
		if _, err := p.expect(tokString, field); err != nil {
			return nil, err
		}
		v, err := zerv.ParseVar(arg.text)
		if err != nil {
			return nil, ValidationError{
				Field: field, Code: ErrUnknownField,
				Message: err.Error(), Line: arg.line, Column: arg.col,
			}
		}
		c = zerv.F(v)
	case "ts":
		if _, err := p.expect(tokString, field); err != nil {
			return nil, err
		}
		c = zerv.Timestamp{Pattern: arg.text}
	default:
		return nil, ValidationError{
			Field: field, Code: ErrUnknownTag,
			Message: fmt.Sprintf("unknown component %q: must be one of str, int, var, ts", tag.text),
			Line:    tag.line, Column: tag.col,
		}
	}

	if _, err := p.expect(tokRParen, field); err != nil {
		return nil, err
	}
	return c, nil
}

func (p *parser) parsePrecedence() ([]zerv.Precedence, error) {
	var order []zerv.Precedence
	err := p.parseList(keyPrecedence, func(i int) error {
		field := fmt.Sprintf("%s[%d]", keyPrecedence, i)
		tok := p.tok
		if tok.kind != tokIdent && tok.kind != tokString {
			return p.errorf(ErrSyntax, field, "expected precedence name, found %s", describe(tok))
		}
		prec, err := zerv.ParsePrecedence(snakeCase(tok.text))
		if err != nil {
			return ValidationError{
				Field: field, Code: ErrUnknownPrecedence,
				Message: err.Error(), Line: tok.line, Column: tok.col,
			}
		}
		order = append(order, prec)
		return p.advance()
	})
	return order, err
}

// snakeCase maps PreReleaseLabel to pre_release_label. Names already in
// snake case are returned unchanged.
func snakeCase(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
