package arith

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rushshell/rush/core/environ"
)

func TestEvalBasics(t *testing.T) {
	cases := []struct {
		expr string
		want int64
	}{
		{"0", 0},
		{"42", 42},
		{"2+3*4", 14},
		{"(2+3)*4", 20},
		{"10-4-3", 3}, // left associative
		{"7/2", 3},
		{"7%2", 1},
		{"2**10", 1024},
		{"2**3**2", 512}, // right associative
		{"-3", -3},
		{"- -3", 3},
		{"!0", 1},
		{"!5", 0},
		{"~0", -1},
		{"1<<4", 16},
		{"256>>4", 16},
		{"5&3", 1},
		{"5|3", 7},
		{"5^3", 6},
		{"3==3", 1},
		{"3!=3", 0},
		{"2<3", 1},
		{"3<=3", 1},
		{"4>5", 0},
		{"1&&1", 1},
		{"1&&0", 0},
		{"0||2", 1},
		{"0||0", 0},
		{"1?10:20", 10},
		{"0?10:20", 20},
		{"1,2,3", 3},
		{"0x1F", 31},
		{"010", 8},
	}

	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			got, err := Eval(tc.expr, environ.NewMapStore())
			assert.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEvalVariables(t *testing.T) {
	vars := environ.NewMapStore()
	vars.Set("x", "7")
	vars.Set("junk", "not a number")

	got, err := Eval("x*2", vars)
	assert.NoError(t, err)
	assert.Equal(t, int64(14), got)

	// Undefined and non-numeric variables evaluate to zero.
	got, err = Eval("nope+1", vars)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), got)

	got, err = Eval("junk+1", vars)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), got)
}

func TestEvalAssignment(t *testing.T) {
	vars := environ.NewMapStore()

	got, err := Eval("x = 5", vars)
	assert.NoError(t, err)
	assert.Equal(t, int64(5), got)
	val, _ := vars.Get("x")
	assert.Equal(t, "5", val)

	got, err = Eval("x += 3", vars)
	assert.NoError(t, err)
	assert.Equal(t, int64(8), got)

	got, err = Eval("x <<= 2", vars)
	assert.NoError(t, err)
	assert.Equal(t, int64(32), got)

	// Right associative chain.
	got, err = Eval("a = b = 4", vars)
	assert.NoError(t, err)
	assert.Equal(t, int64(4), got)
	val, _ = vars.Get("b")
	assert.Equal(t, "4", val)
}

func TestEvalIncDec(t *testing.T) {
	vars := environ.NewMapStore()
	vars.Set("n", "5")

	got, err := Eval("n++", vars)
	assert.NoError(t, err)
	assert.Equal(t, int64(5), got) // post returns the prior value
	val, _ := vars.Get("n")
	assert.Equal(t, "6", val)

	got, err = Eval("++n", vars)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), got)

	got, err = Eval("n--", vars)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), got)

	got, err = Eval("--n", vars)
	assert.NoError(t, err)
	assert.Equal(t, int64(5), got)
}

func TestEvalShortCircuitSkipsSideEffects(t *testing.T) {
	vars := environ.NewMapStore()
	vars.Set("x", "0")

	_, err := Eval("0 && (x = 99)", vars)
	assert.NoError(t, err)
	val, _ := vars.Get("x")
	assert.Equal(t, "0", val)

	_, err = Eval("1 || (x = 99)", vars)
	assert.NoError(t, err)
	val, _ = vars.Get("x")
	assert.Equal(t, "0", val)

	// The untaken ternary branch never runs.
	_, err = Eval("1 ? 2 : (x = 99)", vars)
	assert.NoError(t, err)
	val, _ = vars.Get("x")
	assert.Equal(t, "0", val)
}

func TestEvalDivisionByZero(t *testing.T) {
	_, err := Eval("1/0", environ.NewMapStore())
	assert.ErrorIs(t, err, ErrDivisionByZero)

	_, err = Eval("1%0", environ.NewMapStore())
	assert.ErrorIs(t, err, ErrDivisionByZero)

	// Short-circuit protects the divisor.
	got, err := Eval("0 && 1/0", environ.NewMapStore())
	assert.NoError(t, err)
	assert.Equal(t, int64(0), got)
}

func TestEvalOverflowWraps(t *testing.T) {
	vars := environ.NewMapStore()
	vars.Set("max", "9223372036854775807")

	got, err := Eval("max+1", vars)
	assert.NoError(t, err)
	assert.Equal(t, int64(math.MinInt64), got)
}

func TestEvalSyntaxErrors(t *testing.T) {
	for _, expr := range []string{"", "1+", "(1", "1 ? 2", "5 @ 3", "++3"} {
		t.Run(expr, func(t *testing.T) {
			_, err := Eval(expr, environ.NewMapStore())
			assert.Error(t, err)
			var syntaxErr *SyntaxError
			assert.ErrorAs(t, err, &syntaxErr)
		})
	}
}
