package arith

import (
	"errors"
	"strconv"
	"strings"

	"github.com/rushshell/rush/core/environ"
)

// ErrDivisionByZero is returned for x/0 and x%0.
var ErrDivisionByZero = errors.New("division by zero")

// Eval parses and evaluates an expression against vars. Assignments and
// increments write through to the store.
func Eval(input string, vars environ.Store) (int64, error) {
	expr, err := Parse(input)
	if err != nil {
		return 0, err
	}
	return EvalExpr(expr, vars)
}

// EvalExpr evaluates a parsed expression.
func EvalExpr(expr Expr, vars environ.Store) (int64, error) {
	switch e := expr.(type) {
	case Literal:
		return e.Value, nil

	case Variable:
		return lookup(vars, e.Name), nil

	case Unary:
		x, err := EvalExpr(e.X, vars)
		if err != nil {
			return 0, err
		}
		switch e.Op {
		case "-":
			return -x, nil
		case "+":
			return x, nil
		case "~":
			return ^x, nil
		case "!":
			return boolToInt(x == 0), nil
		}
		return 0, syntaxErrorf("unknown unary operator %q", e.Op)

	case Binary:
		return evalBinary(e, vars)

	case Assign:
		value, err := EvalExpr(e.X, vars)
		if err != nil {
			return 0, err
		}
		if e.Op != "" {
			value, err = apply(e.Op, lookup(vars, e.Name), value)
			if err != nil {
				return 0, err
			}
		}
		vars.Set(e.Name, strconv.FormatInt(value, 10))
		return value, nil

	case IncDec:
		old := lookup(vars, e.Name)
		delta := int64(1)
		if e.Decr {
			delta = -1
		}
		vars.Set(e.Name, strconv.FormatInt(old+delta, 10))
		if e.Post {
			return old, nil
		}
		return old + delta, nil

	case Ternary:
		cond, err := EvalExpr(e.Cond, vars)
		if err != nil {
			return 0, err
		}
		if cond != 0 {
			return EvalExpr(e.Then, vars)
		}
		return EvalExpr(e.Else, vars)

	case Comma:
		if _, err := EvalExpr(e.X, vars); err != nil {
			return 0, err
		}
		return EvalExpr(e.Y, vars)
	}

	return 0, syntaxErrorf("unknown expression node")
}

func evalBinary(e Binary, vars environ.Store) (int64, error) {
	x, err := EvalExpr(e.X, vars)
	if err != nil {
		return 0, err
	}

	// Logical forms short-circuit: the untaken side never runs, so its
	// assignments and increments never happen.
	switch e.Op {
	case "&&":
		if x == 0 {
			return 0, nil
		}
		y, err := EvalExpr(e.Y, vars)
		if err != nil {
			return 0, err
		}
		return boolToInt(y != 0), nil
	case "||":
		if x != 0 {
			return 1, nil
		}
		y, err := EvalExpr(e.Y, vars)
		if err != nil {
			return 0, err
		}
		return boolToInt(y != 0), nil
	}

	y, err := EvalExpr(e.Y, vars)
	if err != nil {
		return 0, err
	}
	return apply(e.Op, x, y)
}

func apply(op string, x, y int64) (int64, error) {
	switch op {
	case "+":
		return x + y, nil
	case "-":
		return x - y, nil
	case "*":
		return x * y, nil
	case "/":
		if y == 0 {
			return 0, ErrDivisionByZero
		}
		return x / y, nil
	case "%":
		if y == 0 {
			return 0, ErrDivisionByZero
		}
		return x % y, nil
	case "**":
		return power(x, y), nil
	case "<<":
		return x << (uint64(y) & 63), nil
	case ">>":
		return x >> (uint64(y) & 63), nil
	case "&":
		return x & y, nil
	case "|":
		return x | y, nil
	case "^":
		return x ^ y, nil
	case "==":
		return boolToInt(x == y), nil
	case "!=":
		return boolToInt(x != y), nil
	case "<":
		return boolToInt(x < y), nil
	case "<=":
		return boolToInt(x <= y), nil
	case ">":
		return boolToInt(x > y), nil
	case ">=":
		return boolToInt(x >= y), nil
	}
	return 0, syntaxErrorf("unknown operator %q", op)
}

// power computes x**y with wrapping multiplication. Negative exponents
// truncate to zero like the shells do, except x**-n for |x|=1.
func power(x, y int64) int64 {
	if y < 0 {
		switch x {
		case 1:
			return 1
		case -1:
			if y%2 == 0 {
				return 1
			}
			return -1
		}
		return 0
	}
	result := int64(1)
	for ; y > 0; y-- {
		result *= x
	}
	return result
}

// lookup reads a variable as an integer; unset or non-numeric values read as
// zero.
func lookup(vars environ.Store, name string) int64 {
	raw, ok := vars.Get(name)
	if !ok {
		return 0
	}
	raw = strings.TrimSpace(raw)
	n, err := strconv.ParseInt(raw, 0, 64)
	if err != nil {
		return 0
	}
	return n
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
