// Package flow parses the shell control-flow constructs: for, while, until
// and case. Keyword boundaries are located by scanning lexer tokens with
// nesting-depth counters rather than re-scanning raw text, so keywords
// embedded in quoted literals never confuse the parsers.
package flow

import (
	"fmt"
	"strings"

	"github.com/rushshell/rush/core/lexer"
)

// SyntaxError reports a malformed control-flow construct.
type SyntaxError struct {
	Msg string
}

func (e *SyntaxError) Error() string {
	return "syntax error: " + e.Msg
}

func syntaxErrorf(format string, a ...interface{}) error {
	return &SyntaxError{Msg: fmt.Sprintf(format, a...)}
}

// ForLoop is a parsed `for name in words...; do body; done`.
type ForLoop struct {
	// Var is the loop variable name.
	Var string
	// Words are the raw (unexpanded) iteration words.
	Words []string
	// BodyRaw is the body text exactly as written, pipes and redirections
	// preserved.
	BodyRaw string
}

// WhileLoop is a parsed `while cond; do body; done`, or the until form when
// Until is set.
type WhileLoop struct {
	// Cond is the raw condition command.
	Cond string
	// BodyRaw is the body text exactly as written.
	BodyRaw string
	// Until inverts the condition test.
	Until bool
}

// CasePattern is one arm of a case statement.
type CasePattern struct {
	// Patterns are the glob patterns of the arm, one per '|' alternative.
	Patterns []string
	// BodyRaw is the arm body text.
	BodyRaw string
	// FallThrough marks the ;& terminator: run the next arm's body without
	// testing its pattern.
	FallThrough bool
	// TestNext marks the ;;& terminator: test the next arm's pattern even
	// after a match.
	TestNext bool
}

// CaseStatement is a parsed `case value in arms... esac`.
//
// Multiple `*)` default arms have no defined precedence; the first matching
// arm wins, which leaves later defaults unreachable unless entered through
// ;& or ;;&.
type CaseStatement struct {
	// Value is the raw (unexpanded) word being matched.
	Value string
	// Arms are the patterns in source order.
	Arms []CasePattern
}

// loop-opening keywords share the done closer.
func opensDone(word string) bool {
	return word == "for" || word == "while" || word == "until"
}

// keywordToken pairs a significant token with whether it sits at a command
// position, where reserved words are recognized.
type keywordToken struct {
	tok   lexer.Token
	atCmd bool
}

// scanKeywords classifies each non-whitespace token. A token is at command
// position when the lexer marked it Command or when it directly follows a
// prefix keyword (do, then, else, elif).
func scanKeywords(input string) []keywordToken {
	var out []keywordToken
	afterPrefix := false

	for _, tok := range lexer.Lex(input) {
		if tok.Kind == lexer.Whitespace {
			continue
		}
		atCmd := tok.Kind == lexer.Command || afterPrefix
		out = append(out, keywordToken{tok: tok, atCmd: atCmd})

		switch tok.Text {
		case "do", "then", "else", "elif":
			afterPrefix = atCmd
		default:
			afterPrefix = false
		}
	}
	return out
}

// findKeyword returns the index in kts of the first `word` at command
// position with nesting depth zero, starting from index from. Loop keywords
// and case/esac adjust the depth. Returns -1 when absent.
func findKeyword(kts []keywordToken, from int, word string) int {
	depth := 0
	for i := from; i < len(kts); i++ {
		kt := kts[i]
		if !kt.atCmd {
			continue
		}
		if depth == 0 && kt.tok.Text == word {
			return i
		}
		switch {
		case opensDone(kt.tok.Text) || kt.tok.Text == "case":
			depth++
		case kt.tok.Text == "done" || kt.tok.Text == "esac":
			depth--
		}
	}
	return -1
}

// ParseFor parses `for name in w1 w2 ...; do body; done`. The word list may
// be empty. A missing `in` iterates nothing (positional parameters are not
// supported).
func ParseFor(input string) (*ForLoop, error) {
	kts := scanKeywords(input)
	if len(kts) == 0 || !kts[0].atCmd || kts[0].tok.Text != "for" {
		return nil, syntaxErrorf("not a for loop")
	}
	if len(kts) < 2 {
		return nil, syntaxErrorf("for: missing variable name")
	}

	name := kts[1].tok.Text
	if name == "" || kts[1].tok.IsOperator() {
		return nil, syntaxErrorf("for: missing variable name")
	}

	doIdx := findKeyword(kts, 1, "do")
	if doIdx < 0 {
		return nil, syntaxErrorf("for: expected 'do'")
	}
	doneIdx := findKeyword(kts, doIdx+1, "done")
	if doneIdx < 0 {
		return nil, syntaxErrorf("for: expected 'done'")
	}

	var words []string
	if len(kts) > 2 && kts[2].tok.Text == "in" {
		for i := 3; i < doIdx; i++ {
			if kts[i].tok.Kind == lexer.Semicolon {
				continue
			}
			words = append(words, kts[i].tok.Text)
		}
	} else if 2 < doIdx && kts[2].tok.Kind != lexer.Semicolon {
		return nil, syntaxErrorf("for: expected 'in'")
	}

	body := input[kts[doIdx].tok.End:kts[doneIdx].tok.Start]
	return &ForLoop{
		Var:     name,
		Words:   words,
		BodyRaw: trimBody(body),
	}, nil
}

// ParseWhile parses `while cond; do body; done`.
func ParseWhile(input string) (*WhileLoop, error) {
	return parseCondLoop(input, "while")
}

// ParseUntil parses `until cond; do body; done`.
func ParseUntil(input string) (*WhileLoop, error) {
	return parseCondLoop(input, "until")
}

func parseCondLoop(input, keyword string) (*WhileLoop, error) {
	kts := scanKeywords(input)
	if len(kts) == 0 || !kts[0].atCmd || kts[0].tok.Text != keyword {
		return nil, syntaxErrorf("not a %s loop", keyword)
	}

	doIdx := findKeyword(kts, 1, "do")
	if doIdx < 0 {
		return nil, syntaxErrorf("%s: expected 'do'", keyword)
	}
	doneIdx := findKeyword(kts, doIdx+1, "done")
	if doneIdx < 0 {
		return nil, syntaxErrorf("%s: expected 'done'", keyword)
	}

	cond := input[kts[0].tok.End:kts[doIdx].tok.Start]
	cond = strings.TrimSpace(cond)
	cond = strings.TrimRight(cond, ";\n \t")
	if cond == "" {
		return nil, syntaxErrorf("%s: missing condition", keyword)
	}

	body := input[kts[doIdx].tok.End:kts[doneIdx].tok.Start]
	return &WhileLoop{
		Cond:    cond,
		BodyRaw: trimBody(body),
		Until:   keyword == "until",
	}, nil
}

// trimBody strips the statement separators surrounding a loop body without
// disturbing interior structure.
func trimBody(body string) string {
	body = strings.TrimSpace(body)
	body = strings.TrimPrefix(body, ";")
	body = strings.TrimSuffix(body, ";")
	return strings.TrimSpace(body)
}

// SplitStatements splits a command list into executable statements at
// top-level ';' and newline boundaries. Control-flow constructs stay intact:
// separators inside for/while/until/case bodies don't split.
func SplitStatements(input string) []string {
	var stmts []string
	depth := 0
	start := 0
	afterPrefix := false

	add := func(end int) {
		if stmt := strings.TrimSpace(input[start:end]); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}

	for _, tok := range lexer.Lex(input) {
		if tok.Kind == lexer.Whitespace {
			if depth == 0 && strings.Contains(tok.Text, "\n") {
				add(tok.Start)
				start = tok.End
			}
			continue
		}

		atCmd := tok.Kind == lexer.Command || afterPrefix
		switch {
		case atCmd && (opensDone(tok.Text) || tok.Text == "case"):
			depth++
		case atCmd && (tok.Text == "done" || tok.Text == "esac"):
			depth--

		case tok.Kind == lexer.Semicolon && depth == 0:
			add(tok.Start)
			start = tok.End

		case tok.Kind == lexer.Background && depth == 0:
			// Keep the '&' with its statement.
			add(tok.End)
			start = tok.End
		}

		switch tok.Text {
		case "do", "then", "else", "elif":
			afterPrefix = atCmd
		default:
			afterPrefix = false
		}
	}

	add(len(input))
	return stmts
}
