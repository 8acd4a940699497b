// Package arith evaluates shell arithmetic: $((...)) and the let builtin.
//
// Expressions follow C precedence and semantics on 64-bit signed integers.
// Overflow wraps, division by zero is a reported error, undefined variables
// read as zero, and assignment operators write through the variable store.
package arith

// Expr is a parsed arithmetic expression node.
type Expr interface {
	expr()
}

// Literal is an integer constant.
type Literal struct {
	Value int64
}

// Variable is a named variable reference.
type Variable struct {
	Name string
}

// Unary is !x, ~x, -x or +x.
type Unary struct {
	Op string
	X  Expr
}

// Binary covers the arithmetic, relational, shift, bitwise and logical
// two-operand forms. Logical forms short-circuit during evaluation.
type Binary struct {
	Op string
	X  Expr
	Y  Expr
}

// Assign is name op= value, where Op is "" for plain assignment.
type Assign struct {
	Name string
	Op   string
	X    Expr
}

// IncDec is ++name, --name, name++ or name--.
type IncDec struct {
	Name string
	Decr bool
	Post bool
}

// Ternary is cond ? a : b. The untaken branch is never evaluated.
type Ternary struct {
	Cond Expr
	Then Expr
	Else Expr
}

// Comma is "x, y": evaluate both, yield y.
type Comma struct {
	X Expr
	Y Expr
}

func (Literal) expr()  {}
func (Variable) expr() {}
func (Unary) expr()    {}
func (Binary) expr()   {}
func (Assign) expr()   {}
func (IncDec) expr()   {}
func (Ternary) expr()  {}
func (Comma) expr()    {}
