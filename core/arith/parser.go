package arith

import (
	"fmt"
	"strconv"
	"strings"
)

// SyntaxError reports a malformed arithmetic expression.
type SyntaxError struct {
	Msg string
}

func (e *SyntaxError) Error() string {
	return "arithmetic syntax error: " + e.Msg
}

func syntaxErrorf(format string, a ...interface{}) error {
	return &SyntaxError{Msg: fmt.Sprintf(format, a...)}
}

// Parse builds the Expr tree for a full expression. Trailing input is an
// error.
func Parse(input string) (Expr, error) {
	p := &parser{tokens: scan(input)}
	expr, err := p.parseComma()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok != "" {
		return nil, syntaxErrorf("unexpected %q", tok)
	}
	return expr, nil
}

type parser struct {
	tokens []string
	pos    int
}

func (p *parser) peek() string {
	if p.pos >= len(p.tokens) {
		return ""
	}
	return p.tokens[p.pos]
}

func (p *parser) next() string {
	tok := p.peek()
	if tok != "" {
		p.pos++
	}
	return tok
}

func (p *parser) accept(op string) bool {
	if p.peek() == op {
		p.pos++
		return true
	}
	return false
}

// Multi-character operators ordered longest first so the scanner never splits
// them.
var operators = []string{
	"<<=", ">>=",
	"**", "++", "--", "&&", "||", "==", "!=", "<=", ">=", "<<", ">>",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=",
	"+", "-", "*", "/", "%", "&", "|", "^", "~", "!", "<", ">", "=",
	"?", ":", ",", "(", ")",
}

func scan(input string) []string {
	var tokens []string
	i := 0
	for i < len(input) {
		c := input[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n':
			i++
		case c >= '0' && c <= '9':
			start := i
			for i < len(input) && isNumChar(input[i]) {
				i++
			}
			tokens = append(tokens, input[start:i])
		case isIdentStart(c):
			start := i
			for i < len(input) && isIdentChar(input[i]) {
				i++
			}
			tokens = append(tokens, input[start:i])
		default:
			matched := false
			for _, op := range operators {
				if strings.HasPrefix(input[i:], op) {
					tokens = append(tokens, op)
					i += len(op)
					matched = true
					break
				}
			}
			if !matched {
				// Preserve the bad character so the parser can report it.
				tokens = append(tokens, string(c))
				i++
			}
		}
	}
	return tokens
}

func isNumChar(c byte) bool {
	// Covers decimal and the 0x / 0X hex forms; strconv rejects leftovers.
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' ||
		c >= 'A' && c <= 'F' || c == 'x' || c == 'X'
}

func isIdentStart(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9'
}

func isIdent(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdentChar(s[i]) {
			return false
		}
	}
	return true
}

// parseComma: expr , expr (lowest precedence).
func (p *parser) parseComma() (Expr, error) {
	left, err := p.parseAssign()
	if err != nil {
		return nil, err
	}
	for p.accept(",") {
		right, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		left = Comma{X: left, Y: right}
	}
	return left, nil
}

var assignOps = map[string]string{
	"=": "", "+=": "+", "-=": "-", "*=": "*", "/=": "/", "%=": "%",
	"<<=": "<<", ">>=": ">>", "&=": "&", "|=": "|", "^=": "^",
}

// parseAssign: name op= value, right associative.
func (p *parser) parseAssign() (Expr, error) {
	// Assignment needs two tokens of lookahead: an identifier followed by an
	// assignment operator.
	if tok := p.peek(); isIdent(tok) && p.pos+1 < len(p.tokens) {
		if op, ok := assignOps[p.tokens[p.pos+1]]; ok {
			p.pos += 2
			value, err := p.parseAssign()
			if err != nil {
				return nil, err
			}
			return Assign{Name: tok, Op: op, X: value}, nil
		}
	}
	return p.parseTernary()
}

func (p *parser) parseTernary() (Expr, error) {
	cond, err := p.parseLogicalOr()
	if err != nil {
		return nil, err
	}
	if !p.accept("?") {
		return cond, nil
	}
	then, err := p.parseAssign()
	if err != nil {
		return nil, err
	}
	if !p.accept(":") {
		return nil, syntaxErrorf("expected ':' in ternary")
	}
	els, err := p.parseAssign()
	if err != nil {
		return nil, err
	}
	return Ternary{Cond: cond, Then: then, Else: els}, nil
}

// parseBinaryLevel builds one left-associative precedence level.
func (p *parser) parseBinaryLevel(ops []string, next func() (Expr, error)) (Expr, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for {
		matched := false
		for _, op := range ops {
			if p.accept(op) {
				right, err := next()
				if err != nil {
					return nil, err
				}
				left = Binary{Op: op, X: left, Y: right}
				matched = true
				break
			}
		}
		if !matched {
			return left, nil
		}
	}
}

func (p *parser) parseLogicalOr() (Expr, error) {
	return p.parseBinaryLevel([]string{"||"}, p.parseLogicalAnd)
}

func (p *parser) parseLogicalAnd() (Expr, error) {
	return p.parseBinaryLevel([]string{"&&"}, p.parseBitOr)
}

func (p *parser) parseBitOr() (Expr, error) {
	return p.parseBinaryLevel([]string{"|"}, p.parseBitXor)
}

func (p *parser) parseBitXor() (Expr, error) {
	return p.parseBinaryLevel([]string{"^"}, p.parseBitAnd)
}

func (p *parser) parseBitAnd() (Expr, error) {
	return p.parseBinaryLevel([]string{"&"}, p.parseEquality)
}

func (p *parser) parseEquality() (Expr, error) {
	return p.parseBinaryLevel([]string{"==", "!="}, p.parseRelational)
}

func (p *parser) parseRelational() (Expr, error) {
	return p.parseBinaryLevel([]string{"<=", ">=", "<", ">"}, p.parseShift)
}

func (p *parser) parseShift() (Expr, error) {
	return p.parseBinaryLevel([]string{"<<", ">>"}, p.parseAdditive)
}

func (p *parser) parseAdditive() (Expr, error) {
	return p.parseBinaryLevel([]string{"+", "-"}, p.parseMultiplicative)
}

func (p *parser) parseMultiplicative() (Expr, error) {
	return p.parseBinaryLevel([]string{"*", "/", "%"}, p.parsePower)
}

// parsePower: right associative **, binding looser than unary.
func (p *parser) parsePower() (Expr, error) {
	base, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if !p.accept("**") {
		return base, nil
	}
	exp, err := p.parsePower()
	if err != nil {
		return nil, err
	}
	return Binary{Op: "**", X: base, Y: exp}, nil
}

func (p *parser) parseUnary() (Expr, error) {
	switch tok := p.peek(); tok {
	case "!", "~", "-", "+":
		p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Unary{Op: tok, X: x}, nil
	case "++", "--":
		p.next()
		name := p.next()
		if !isIdent(name) {
			return nil, syntaxErrorf("%s requires a variable", tok)
		}
		return IncDec{Name: name, Decr: tok == "--"}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expr, error) {
	tok := p.next()
	switch {
	case tok == "":
		return nil, syntaxErrorf("unexpected end of expression")

	case tok == "(":
		inner, err := p.parseComma()
		if err != nil {
			return nil, err
		}
		if !p.accept(")") {
			return nil, syntaxErrorf("missing ')'")
		}
		return inner, nil

	case tok[0] >= '0' && tok[0] <= '9':
		// Base 0 accepts decimal, 0x-hex and leading-zero octal.
		n, err := strconv.ParseInt(tok, 0, 64)
		if err != nil {
			return nil, syntaxErrorf("invalid number %q", tok)
		}
		return Literal{Value: n}, nil

	case isIdent(tok):
		// Postfix increment and decrement attach here.
		switch p.peek() {
		case "++":
			p.next()
			return IncDec{Name: tok, Post: true}, nil
		case "--":
			p.next()
			return IncDec{Name: tok, Decr: true, Post: true}, nil
		}
		return Variable{Name: tok}, nil

	default:
		return nil, syntaxErrorf("unexpected %q", tok)
	}
}
