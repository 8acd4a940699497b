package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFor(t *testing.T) {
	loop, err := ParseFor("for f in a b c; do echo $f; done")
	require.NoError(t, err)

	assert.Equal(t, "f", loop.Var)
	assert.Equal(t, []string{"a", "b", "c"}, loop.Words)
	assert.Equal(t, "echo $f", loop.BodyRaw)
}

func TestParseForEmptyWordList(t *testing.T) {
	loop, err := ParseFor("for f in; do echo $f; done")
	require.NoError(t, err)
	assert.Empty(t, loop.Words)
}

func TestParseForMultiline(t *testing.T) {
	loop, err := ParseFor("for x in 1 2\ndo\n  echo $x\ndone")
	require.NoError(t, err)

	assert.Equal(t, "x", loop.Var)
	assert.Equal(t, []string{"1", "2"}, loop.Words)
	assert.Equal(t, "echo $x", loop.BodyRaw)
}

func TestParseForNested(t *testing.T) {
	input := "for a in 1 2; do for b in x y; do echo $a$b; done; done"
	loop, err := ParseFor(input)
	require.NoError(t, err)

	assert.Equal(t, "a", loop.Var)
	assert.Equal(t, "for b in x y; do echo $a$b; done", loop.BodyRaw)

	inner, err := ParseFor(loop.BodyRaw)
	require.NoError(t, err)
	assert.Equal(t, "b", inner.Var)
	assert.Equal(t, "echo $a$b", inner.BodyRaw)
}

func TestParseForKeywordInsideQuotes(t *testing.T) {
	loop, err := ParseFor(`for w in a; do echo "not done yet"; done`)
	require.NoError(t, err)
	assert.Equal(t, `echo "not done yet"`, loop.BodyRaw)
}

func TestParseForErrors(t *testing.T) {
	for _, input := range []string{
		"for",
		"for x in a b",
		"for x in a b; do echo",
		"echo for",
	} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseFor(input)
			assert.Error(t, err)
		})
	}
}

func TestParseWhile(t *testing.T) {
	loop, err := ParseWhile("while test -f /tmp/flag; do sleep 1; done")
	require.NoError(t, err)

	assert.False(t, loop.Until)
	assert.Equal(t, "test -f /tmp/flag", loop.Cond)
	assert.Equal(t, "sleep 1", loop.BodyRaw)
}

func TestParseUntil(t *testing.T) {
	loop, err := ParseUntil("until test -f /tmp/flag; do sleep 1; done")
	require.NoError(t, err)

	assert.True(t, loop.Until)
	assert.Equal(t, "test -f /tmp/flag", loop.Cond)
}

func TestParseWhileNestedBody(t *testing.T) {
	input := "while true; do for i in 1; do echo $i; done; done"
	loop, err := ParseWhile(input)
	require.NoError(t, err)
	assert.Equal(t, "for i in 1; do echo $i; done", loop.BodyRaw)
}

func TestParseCase(t *testing.T) {
	input := "case $x in a|b) echo ab;; c) echo c;; *) echo other;; esac"
	stmt, err := ParseCase(input)
	require.NoError(t, err)

	assert.Equal(t, "$x", stmt.Value)
	require.Len(t, stmt.Arms, 3)

	assert.Equal(t, []string{"a", "b"}, stmt.Arms[0].Patterns)
	assert.Equal(t, "echo ab", stmt.Arms[0].BodyRaw)
	assert.False(t, stmt.Arms[0].FallThrough)
	assert.False(t, stmt.Arms[0].TestNext)

	assert.Equal(t, []string{"c"}, stmt.Arms[1].Patterns)
	assert.Equal(t, []string{"*"}, stmt.Arms[2].Patterns)
}

func TestParseCaseTerminators(t *testing.T) {
	input := "case $x in a) one;& b) two;;& c) three;; esac"
	stmt, err := ParseCase(input)
	require.NoError(t, err)
	require.Len(t, stmt.Arms, 3)

	assert.True(t, stmt.Arms[0].FallThrough)
	assert.False(t, stmt.Arms[0].TestNext)

	assert.False(t, stmt.Arms[1].FallThrough)
	assert.True(t, stmt.Arms[1].TestNext)

	assert.False(t, stmt.Arms[2].FallThrough)
	assert.False(t, stmt.Arms[2].TestNext)
}

func TestParseCaseLastArmWithoutTerminator(t *testing.T) {
	stmt, err := ParseCase("case $x in a) echo a ;; *) echo default\nesac")
	require.NoError(t, err)
	require.Len(t, stmt.Arms, 2)
	assert.Equal(t, "echo default", stmt.Arms[1].BodyRaw)
}

func TestParseCaseErrors(t *testing.T) {
	for _, input := range []string{
		"case",
		"case $x",
		"case $x in a) echo a;;",
		"echo case",
	} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseCase(input)
			assert.Error(t, err)
		})
	}
}

func TestIsComplete(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"echo hi", true},
		{"for x in a b", false},
		{"for x in a b; do echo", false},
		{"for x in a b; do echo; done", true},
		{"while true; do", false},
		{"while true; do x; done", true},
		{"until false; do x; done", true},
		{"case $x in", false},
		{"case $x in a) echo;;", false},
		{"case $x in a) echo;; esac", true},
		{"for a in 1; do for b in 2; do echo; done", false},
		{"for a in 1; do for b in 2; do echo; done; done", true},
	}

	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.want, IsComplete(tc.input))
		})
	}
}

func TestSplitStatements(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "simple",
			input: "echo a; echo b",
			want:  []string{"echo a", "echo b"},
		},
		{
			name:  "newlines",
			input: "echo a\necho b",
			want:  []string{"echo a", "echo b"},
		},
		{
			name:  "keeps-loops-whole",
			input: "x=1; for i in a b; do echo $i; done; echo end",
			want:  []string{"x=1", "for i in a b; do echo $i; done", "echo end"},
		},
		{
			name:  "keeps-case-whole",
			input: "case $x in a) echo a;; esac; echo end",
			want:  []string{"case $x in a) echo a;; esac", "echo end"},
		},
		{
			name:  "background-stays-attached",
			input: "sleep 5 & echo next",
			want:  []string{"sleep 5 &", "echo next"},
		},
		{
			name:  "quoted-semicolon",
			input: `echo "a; b"; echo c`,
			want:  []string{`echo "a; b"`, "echo c"},
		},
		{
			name:  "empty",
			input: "  ;  ; ",
			want:  nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SplitStatements(tc.input))
		})
	}
}
