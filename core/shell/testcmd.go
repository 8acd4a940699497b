package shell

import (
	"regexp"
	"strconv"

	"github.com/rushshell/rush/core/glob"
)

// maxCondDepth bounds grouping recursion inside [[ ]].
const maxCondDepth = 32

// builtinTest implements test and [ with POSIX argument-count dispatch.
func (s *Shell) builtinTest(ctx *ExecutionContext, name string, args []string) int {
	if name == "[" {
		if len(args) == 0 || args[len(args)-1] != "]" {
			return s.report(ctx, errorf(KindSyntax, "[: missing closing ]"))
		}
		args = args[:len(args)-1]
	}

	ok, err := s.evalTest(args)
	if err != nil {
		return s.report(ctx, err)
	}
	if ok {
		return 0
	}
	return 1
}

// evalTest applies the argument-count rules: zero args is false, one arg
// tests non-emptiness, two args is a unary check, three a binary one. A
// leading ! negates the rest.
func (s *Shell) evalTest(args []string) (bool, error) {
	if len(args) > 0 && args[0] == "!" {
		ok, err := s.evalTest(args[1:])
		return !ok, err
	}

	switch len(args) {
	case 0:
		return false, nil
	case 1:
		return args[0] != "", nil
	case 2:
		return s.unaryTest(args[0], args[1])
	case 3:
		return s.binaryTest(args[0], args[1], args[2])
	default:
		return false, errorf(KindSyntax, "test: too many arguments")
	}
}

func (s *Shell) unaryTest(op, operand string) (bool, error) {
	switch op {
	case "-n":
		return operand != "", nil
	case "-z":
		return operand == "", nil
	case "-e", "-f", "-d", "-s", "-r", "-w", "-x":
		info, err := s.Fs.Stat(s.resolvePath(operand))
		if err != nil {
			return false, nil
		}
		switch op {
		case "-e":
			return true, nil
		case "-f":
			return info.Mode().IsRegular(), nil
		case "-d":
			return info.IsDir(), nil
		case "-s":
			return info.Size() > 0, nil
		case "-r":
			return info.Mode().Perm()&0444 != 0, nil
		case "-w":
			return info.Mode().Perm()&0222 != 0, nil
		default: // -x
			return info.Mode().Perm()&0111 != 0, nil
		}
	default:
		return false, errorf(KindInvalidOperator, "test: %s: unary operator expected", op)
	}
}

func (s *Shell) binaryTest(x, op, y string) (bool, error) {
	switch op {
	case "=", "==":
		return x == y, nil
	case "!=":
		return x != y, nil
	case "-eq", "-ne", "-lt", "-le", "-gt", "-ge":
		a, errA := strconv.Atoi(x)
		b, errB := strconv.Atoi(y)
		if errA != nil || errB != nil {
			// Non-numeric operands compare false rather than erroring.
			return false, nil
		}
		switch op {
		case "-eq":
			return a == b, nil
		case "-ne":
			return a != b, nil
		case "-lt":
			return a < b, nil
		case "-le":
			return a <= b, nil
		case "-gt":
			return a > b, nil
		default: // -ge
			return a >= b, nil
		}
	default:
		return false, errorf(KindInvalidOperator, "test: %s: binary operator expected", op)
	}
}

// builtinCond implements [[ ]]: && || ! and parenthesized grouping around
// the test primaries, with glob-aware == and regex =~.
func (s *Shell) builtinCond(ctx *ExecutionContext, args []string) int {
	if len(args) == 0 || args[len(args)-1] != "]]" {
		return s.report(ctx, errorf(KindSyntax, "[[: missing closing ]]"))
	}

	p := &condParser{sh: s, toks: args[:len(args)-1]}
	ok, err := p.parseOr(0)
	if err == nil && !p.eof() {
		err = errorf(KindSyntax, "[[: unexpected token %q", p.toks[p.pos])
	}
	if err != nil {
		return s.report(ctx, err)
	}
	if ok {
		return 0
	}
	return 1
}

func condBoundary(tok string) bool {
	switch tok {
	case "&&", "||", ")":
		return true
	}
	return false
}

type condParser struct {
	sh   *Shell
	toks []string
	pos  int
}

func (p *condParser) eof() bool {
	return p.pos >= len(p.toks)
}

func (p *condParser) parseOr(depth int) (bool, error) {
	if depth > maxCondDepth {
		return false, errorf(KindSyntax, "[[: expression nested too deeply")
	}
	left, err := p.parseAnd(depth)
	if err != nil {
		return false, err
	}
	for !p.eof() && p.toks[p.pos] == "||" {
		p.pos++
		right, err := p.parseAnd(depth)
		if err != nil {
			return false, err
		}
		left = left || right
	}
	return left, nil
}

func (p *condParser) parseAnd(depth int) (bool, error) {
	left, err := p.parseUnary(depth)
	if err != nil {
		return false, err
	}
	for !p.eof() && p.toks[p.pos] == "&&" {
		p.pos++
		right, err := p.parseUnary(depth)
		if err != nil {
			return false, err
		}
		left = left && right
	}
	return left, nil
}

func (p *condParser) parseUnary(depth int) (bool, error) {
	if depth > maxCondDepth {
		return false, errorf(KindSyntax, "[[: expression nested too deeply")
	}
	if p.eof() {
		return false, errorf(KindSyntax, "[[: expression expected")
	}

	switch p.toks[p.pos] {
	case "!":
		p.pos++
		v, err := p.parseUnary(depth + 1)
		return !v, err
	case "(":
		p.pos++
		v, err := p.parseOr(depth + 1)
		if err != nil {
			return false, err
		}
		if p.eof() || p.toks[p.pos] != ")" {
			return false, errorf(KindSyntax, "[[: expected ')'")
		}
		p.pos++
		return v, nil
	}
	return p.parsePrimary()
}

// parsePrimary consumes up to three tokens forming one comparison.
func (p *condParser) parsePrimary() (bool, error) {
	start := p.pos
	for !p.eof() && p.pos-start < 3 && !condBoundary(p.toks[p.pos]) {
		p.pos++
	}
	toks := p.toks[start:p.pos]

	switch len(toks) {
	case 1:
		return toks[0] != "", nil
	case 2:
		return p.sh.unaryTest(toks[0], toks[1])
	case 3:
		x, op, y := toks[0], toks[1], toks[2]
		switch op {
		case "=", "==":
			// The right side is a glob pattern inside [[.
			return glob.Match(y, x), nil
		case "!=":
			return !glob.Match(y, x), nil
		case "=~":
			matched, err := regexp.MatchString(y, x)
			if err != nil {
				return false, errorf(KindSyntax, "[[: invalid regular expression %q", y)
			}
			return matched, nil
		default:
			return p.sh.binaryTest(x, op, y)
		}
	default:
		return false, errorf(KindSyntax, "[[: expression expected")
	}
}
