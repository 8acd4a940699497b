// Package lexer turns a raw command line into a flat token stream suitable
// for display, highlighting and completion. Execution re-tokenizes per
// construct, so the stream favors stable byte spans over grammar fidelity.
package lexer

import "strings"

// Lex tokenizes a single line of input. Empty input produces an empty slice;
// whitespace-only input produces only Whitespace tokens.
func Lex(input string) []Token {
	l := &lexer{input: input}
	l.run()
	return l.tokens
}

type lexer struct {
	input   string
	pos     int
	tokens  []Token
	wantCmd bool
}

func (l *lexer) run() {
	// The first word on a line is a command.
	l.wantCmd = true

	for l.pos < len(l.input) {
		switch c := l.input[l.pos]; {
		case c == ' ' || c == '\t' || c == '\n':
			l.lexWhitespace()
		case c == '#':
			l.lexComment()
		case c == '\'' || c == '"':
			l.lexString(c)
		case l.lexOperator():
			// consumed by lexOperator
		default:
			l.lexWord()
		}
	}
}

func (l *lexer) emit(kind Kind, start int) {
	l.tokens = append(l.tokens, Token{
		Kind:  kind,
		Text:  l.input[start:l.pos],
		Start: start,
		End:   l.pos,
	})
}

func (l *lexer) lexWhitespace() {
	start := l.pos
	sawNewline := false
	for l.pos < len(l.input) {
		switch l.input[l.pos] {
		case ' ', '\t':
		case '\n':
			sawNewline = true
		default:
			l.emit(Whitespace, start)
			if sawNewline {
				l.wantCmd = true
			}
			return
		}
		l.pos++
	}
	l.emit(Whitespace, start)
	if sawNewline {
		l.wantCmd = true
	}
}

// skipDollarGroup consumes a $(...) group starting at the '$', honoring
// nested parens and quotes. Unterminated groups run to the end of the input;
// expansion reports those.
func skipDollarGroup(s string, i int) int {
	depth := 0
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case '\'':
			for j++; j < len(s) && s[j] != '\''; j++ {
			}
		case '"':
			for j++; j < len(s) && s[j] != '"'; j++ {
				if s[j] == '\\' {
					j++
				}
			}
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return j + 1
			}
		}
	}
	return len(s)
}

// lexComment consumes from '#' to the end of the line.
func (l *lexer) lexComment() {
	start := l.pos
	for l.pos < len(l.input) && l.input[l.pos] != '\n' {
		l.pos++
	}
	l.emit(Comment, start)
}

// lexString consumes a quoted region, quotes included. Backslash escapes are
// consumed verbatim; there is no nested quoting. An unterminated string runs
// to the end of the input.
func (l *lexer) lexString(quote byte) {
	start := l.pos
	l.pos++ // opening quote
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		if c == '\\' && l.pos+1 < len(l.input) {
			l.pos += 2
			continue
		}
		if c == quote {
			l.pos++
			break
		}
		l.pos++
	}
	l.emit(String, start)
	l.wantCmd = false
}

// lexOperator tries the two-character operators before the one-character
// ones. It reports whether an operator was consumed.
func (l *lexer) lexOperator() bool {
	start := l.pos
	rest := l.input[l.pos:]

	var kind Kind
	switch {
	case strings.HasPrefix(rest, "&&"):
		kind, l.pos = And, l.pos+2
	case strings.HasPrefix(rest, "||"):
		kind, l.pos = Or, l.pos+2
	case strings.HasPrefix(rest, ">>"):
		kind, l.pos = Redirect, l.pos+2
	case rest[0] == '|':
		kind, l.pos = Pipe, l.pos+1
	case rest[0] == '&':
		kind, l.pos = Background, l.pos+1
	case rest[0] == ';':
		kind, l.pos = Semicolon, l.pos+1
	case rest[0] == '>' || rest[0] == '<':
		kind, l.pos = Redirect, l.pos+1
	default:
		return false
	}

	l.emit(kind, start)
	// The next word after an operator starts a new command.
	l.wantCmd = kind != Redirect
	return true
}

// lexWord consumes a bare word and classifies it: the first non-flag word of
// a command is Command, '-'-prefixed words are Flag, everything else is
// Argument.
func (l *lexer) lexWord() {
	start := l.pos
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		// $(...) groups belong to the word; operators inside them are the
		// substitution's own.
		if c == '$' && l.pos+1 < len(l.input) && l.input[l.pos+1] == '(' {
			l.pos = skipDollarGroup(l.input, l.pos)
			continue
		}
		if c == ' ' || c == '\t' || c == '\n' || c == '\'' || c == '"' ||
			c == '|' || c == '&' || c == ';' || c == '>' || c == '<' {
			break
		}
		l.pos++
	}

	text := l.input[start:l.pos]
	switch {
	case strings.HasPrefix(text, "-"):
		l.emit(Flag, start)
	case l.wantCmd:
		l.emit(Command, start)
		l.wantCmd = false
	default:
		l.emit(Argument, start)
	}
}
