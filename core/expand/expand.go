// Package expand implements the word-expansion pipeline: tilde, variables,
// command substitution, arithmetic, field splitting and globbing, applied in
// shell order. Double quotes suppress splitting and globbing but keep
// variable and command substitution; single quotes suppress everything.
//
// A word is expanded in a single left-to-right scan. Text produced by an
// expansion lands in its own span and is never re-scanned, so quote
// characters and $ sequences held in variable values stay literal.
package expand

import (
	"strconv"
	"strings"

	shlex "github.com/anmitsu/go-shlex"
	"github.com/spf13/afero"

	"github.com/rushshell/rush/core/arith"
	"github.com/rushshell/rush/core/environ"
	"github.com/rushshell/rush/core/glob"
)

// Expander applies the expansion pipeline to shell words.
type Expander struct {
	// Vars supplies variable values; also mutated by arithmetic
	// assignment.
	Vars environ.Store
	// Fs is listed for glob expansion.
	Fs afero.Fs
	// Cwd reports the directory relative globs list. Empty means ".".
	Cwd func() string
	// Runner executes command substitutions; nil disables them.
	Runner Runner
	// Depth is the enclosing command-substitution depth. The shell threads
	// it through Runner.Capture so recursion through substitutions stays
	// bounded at MaxSubstDepth.
	Depth int
}

// span is one stretch of expanded text. Quoted spans (quote contents,
// escaped characters) join the surrounding field verbatim; unquoted spans
// are subject to field splitting and globbing.
type span struct {
	text   string
	quoted bool
}

// ExpandWord runs the full pipeline on one raw word (quotes still present)
// and returns the resulting fields. An unquoted word whose expansion is
// empty produces no fields.
func (e *Expander) ExpandWord(word string) ([]string, error) {
	spans, err := e.expandSpans(word)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, f := range buildFields(spans) {
		if !f.quoted && glob.HasMeta(f.text) {
			out = append(out, glob.Expand(e.fs(), e.cwd(), f.text)...)
		} else {
			out = append(out, f.text)
		}
	}
	return out, nil
}

// ExpandString runs the pipeline without field splitting or globbing, for
// contexts that need exactly one result (case values, [[ operands,
// assignment values). Quotes are removed.
func (e *Expander) ExpandString(word string) (string, error) {
	spans, err := e.expandSpans(word)
	if err != nil {
		return "", err
	}
	var out strings.Builder
	for _, sp := range spans {
		out.WriteString(sp.text)
	}
	return out.String(), nil
}

// expandSpans is the single scanning pass over a raw word. Quote regions and
// $-expansions each emit one span; the scanner only ever advances through
// the original word, never through produced text.
func (e *Expander) expandSpans(word string) ([]span, error) {
	var spans []span
	var lit strings.Builder
	flushLit := func() {
		if lit.Len() > 0 {
			spans = append(spans, span{text: lit.String()})
			lit.Reset()
		}
	}

	i := 0
	if home, ok := e.tildePrefix(word); ok {
		spans = append(spans, span{text: home})
		i = 1
	}

	for i < len(word) {
		c := word[i]
		switch {
		case c == '\\' && i+1 < len(word):
			// The escaped character is literal: exempt from splitting,
			// globbing and expansion.
			flushLit()
			spans = append(spans, span{text: word[i+1 : i+2], quoted: true})
			i += 2

		case c == '\'':
			end := strings.IndexByte(word[i+1:], '\'')
			if end < 0 {
				return nil, ErrUnterminatedQuote
			}
			flushLit()
			spans = append(spans, span{text: word[i+1 : i+1+end], quoted: true})
			i += end + 2

		case c == '"':
			content, n, err := e.expandDoubleQuoted(word[i:])
			if err != nil {
				return nil, err
			}
			flushLit()
			spans = append(spans, span{text: content, quoted: true})
			i += n

		case c == '$':
			var out strings.Builder
			n, err := e.expandDollar(word, i, &out)
			if err != nil {
				return nil, err
			}
			if n == 0 {
				lit.WriteByte('$')
				i++
				continue
			}
			flushLit()
			spans = append(spans, span{text: out.String()})
			i += n

		default:
			lit.WriteByte(c)
			i++
		}
	}
	flushLit()

	return spans, nil
}

// tildePrefix reports whether the word opens with an expandable tilde: a
// bare ~ or ~/..., with HOME set.
func (e *Expander) tildePrefix(word string) (string, bool) {
	if !strings.HasPrefix(word, "~") {
		return "", false
	}
	rest := word[1:]
	if rest != "" && !strings.HasPrefix(rest, "/") {
		return "", false
	}
	home, ok := e.Vars.Get("HOME")
	if !ok || home == "" {
		return "", false
	}
	return home, true
}

// expandDoubleQuoted consumes a "..." region starting at s[0] and returns
// its expanded content and the bytes consumed. Variable references,
// command substitution and arithmetic stay live inside double quotes; an
// apostrophe is an ordinary character.
func (e *Expander) expandDoubleQuoted(s string) (string, int, error) {
	var out strings.Builder
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s):
			// Only these four lose the backslash inside double quotes.
			switch s[i+1] {
			case '"', '\\', '$', '`':
				out.WriteByte(s[i+1])
			default:
				out.WriteByte('\\')
				out.WriteByte(s[i+1])
			}
			i++

		case c == '"':
			return out.String(), i + 1, nil

		case c == '$':
			n, err := e.expandDollar(s, i, &out)
			if err != nil {
				return "", 0, err
			}
			if n == 0 {
				out.WriteByte('$')
				continue
			}
			i += n - 1

		default:
			out.WriteByte(c)
		}
	}
	return "", 0, ErrUnterminatedQuote
}

// expandDollar expands the $-form starting at s[i] into out and returns the
// bytes consumed: $((...)) arithmetic, $(...) command substitution, or a
// variable reference. Zero means the $ is literal.
func (e *Expander) expandDollar(s string, i int, out *strings.Builder) (int, error) {
	if i+1 < len(s) && s[i+1] == '(' {
		if i+2 < len(s) && s[i+2] == '(' {
			if closer := matchingArith(s, i); closer >= 0 {
				n, err := arith.Eval(s[i+3:closer-1], e.Vars)
				if err != nil {
					return 0, err
				}
				out.WriteString(strconv.FormatInt(n, 10))
				return closer - i + 1, nil
			}
			// Without the )) closer this is a substitution that happens to
			// open with a subshell.
		}
		closer, err := matchingParen(s, i+1)
		if err != nil {
			return 0, err
		}
		stdout, err := e.runSubstitution(s[i+2 : closer])
		if err != nil {
			return 0, err
		}
		out.WriteString(stdout)
		return closer - i + 1, nil
	}

	body, consumed := scanVarRef(s[i:])
	if consumed == 0 {
		return 0, nil
	}
	out.WriteString(e.lookupRef(body))
	return consumed, nil
}

// scanVarRef reads a $NAME or ${...} reference at the start of s and
// returns the reference body and total bytes consumed (0 if s isn't a
// reference).
func scanVarRef(s string) (body string, consumed int) {
	if len(s) < 2 || s[0] != '$' {
		return "", 0
	}

	// Special parameters: $?, $$, $#, $!.
	switch s[1] {
	case '?', '$', '#', '!':
		return s[1:2], 2
	}

	if s[1] == '{' {
		end := strings.IndexByte(s, '}')
		if end < 0 {
			return "", 0
		}
		return s[2:end], end + 1
	}

	i := 1
	if !isNameStart(s[i]) {
		return "", 0
	}
	for i < len(s) && isNameChar(s[i]) {
		i++
	}
	return s[1:i], i
}

// lookupRef resolves a variable reference body, including the array forms
// name[N], name[@] and name[*].
func (e *Expander) lookupRef(body string) string {
	if open := strings.IndexByte(body, '['); open >= 0 && strings.HasSuffix(body, "]") {
		name := body[:open]
		sub := body[open+1 : len(body)-1]

		switch sub {
		case "@", "*":
			if as, ok := e.Vars.(environ.ArrayStore); ok {
				if arr, found := as.GetArray(name); found {
					return strings.Join(arr, " ")
				}
			}
			return ""
		default:
			idx, err := strconv.Atoi(sub)
			if err != nil {
				return ""
			}
			return environ.Index(e.Vars, name, idx)
		}
	}

	value, _ := e.Vars.Get(body)
	return value
}

type field struct {
	text   string
	quoted bool
}

// buildFields performs word splitting: unquoted span text splits on
// whitespace, quoted spans join the current field verbatim. A quoted span
// keeps an otherwise empty field alive; purely unquoted empty expansions
// vanish.
func buildFields(spans []span) []field {
	var fields []field
	var cur strings.Builder
	curQuoted := false
	started := false

	flush := func() {
		if started {
			fields = append(fields, field{text: cur.String(), quoted: curQuoted})
		}
		cur.Reset()
		curQuoted = false
		started = false
	}

	for _, sp := range spans {
		if sp.quoted {
			cur.WriteString(sp.text)
			curQuoted = true
			started = true
			continue
		}
		for k := 0; k < len(sp.text); k++ {
			c := sp.text[k]
			if c == ' ' || c == '\t' || c == '\n' {
				flush()
			} else {
				cur.WriteByte(c)
				started = true
			}
		}
	}
	flush()

	return fields
}

// SplitArray splits an array literal body (the text between the parens of
// name=(...)) into elements, honoring quotes.
func SplitArray(body string) ([]string, error) {
	elements, err := shlex.Split(body, true)
	if err != nil {
		return nil, err
	}
	return elements, nil
}

func (e *Expander) fs() afero.Fs {
	if e.Fs == nil {
		return afero.NewOsFs()
	}
	return e.Fs
}

func (e *Expander) cwd() string {
	if e.Cwd == nil {
		return ""
	}
	return e.Cwd()
}

func isNameStart(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isNameChar(c byte) bool {
	return isNameStart(c) || c >= '0' && c <= '9'
}
