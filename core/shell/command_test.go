package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitAndOr(t *testing.T) {
	cases := []struct {
		in   string
		want []chainPart
	}{
		{"echo a", []chainPart{{"echo a", ""}}},
		{"a && b", []chainPart{{"a", ""}, {"b", "&&"}}},
		{"a || b && c", []chainPart{{"a", ""}, {"b", "||"}, {"c", "&&"}}},
		{`echo "x && y"`, []chainPart{{`echo "x && y"`, ""}}},
		{"echo $(a && b) && c", []chainPart{{"echo $(a && b)", ""}, {"c", "&&"}}},
		{"[[ a == a && b == b ]] && echo ok", []chainPart{
			{"[[ a == a && b == b ]]", ""},
			{"echo ok", "&&"},
		}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, splitAndOr(tc.in), "input: %s", tc.in)
	}
}

func TestSplitPipes(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"echo a", []string{"echo a"}},
		{"a | b | c", []string{"a", "b", "c"}},
		{`echo "a | b"`, []string{`echo "a | b"`}},
		{"echo $(a | b) | c", []string{"echo $(a | b)", "c"}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, splitPipes(tc.in), "input: %s", tc.in)
	}
}

func TestStripBackground(t *testing.T) {
	cases := []struct {
		in     string
		want   string
		isBack bool
	}{
		{"sleep 10 &", "sleep 10", true},
		{"sleep 10", "sleep 10", false},
		{`echo "a&"`, `echo "a&"`, false},
		{"echo $(x &)", "echo $(x &)", false},
	}
	for _, tc := range cases {
		got, back := stripBackground(tc.in)
		assert.Equal(t, tc.isBack, back, "input: %s", tc.in)
		assert.Equal(t, tc.want, got, "input: %s", tc.in)
	}
}

func TestParseWords(t *testing.T) {
	words, redirs, err := parseWords(`echo "a b" $(date +%s) plain`)
	require.NoError(t, err)
	assert.Equal(t, []string{"echo", `"a b"`, "$(date +%s)", "plain"}, words)
	assert.Empty(t, redirs)
}

func TestParseWordsRedirects(t *testing.T) {
	words, redirs, err := parseWords("cmd arg > out.txt 2>>err.log < in.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"cmd", "arg"}, words)
	require.Len(t, redirs, 3)

	assert.Equal(t, redirect{fd: 1, op: redirOut, target: "out.txt"}, redirs[0])
	assert.Equal(t, redirect{fd: 2, op: redirAppend, target: "err.log"}, redirs[1])
	assert.Equal(t, redirect{fd: 0, op: redirIn, target: "in.txt"}, redirs[2])
}

func TestParseWordsDup(t *testing.T) {
	words, redirs, err := parseWords("cmd 2>&1")
	require.NoError(t, err)
	assert.Equal(t, []string{"cmd"}, words)
	require.Len(t, redirs, 1)
	assert.Equal(t, redirect{fd: 2, op: redirDup, dupTo: 1}, redirs[0])
}

func TestParseWordsMissingTarget(t *testing.T) {
	_, _, err := parseWords("cmd >")
	assert.Error(t, err)
}

func TestParseWordsQuotedOperators(t *testing.T) {
	words, redirs, err := parseWords(`echo "a > b" '2>&1'`)
	require.NoError(t, err)
	assert.Equal(t, []string{"echo", `"a > b"`, "'2>&1'"}, words)
	assert.Empty(t, redirs)
}

func TestSplitAssignment(t *testing.T) {
	name, value, ok := splitAssignment("x=5")
	assert.True(t, ok)
	assert.Equal(t, "x", name)
	assert.Equal(t, "5", value)

	name, value, ok = splitAssignment("PATH=/bin:/usr/bin")
	assert.True(t, ok)
	assert.Equal(t, "PATH", name)
	assert.Equal(t, "/bin:/usr/bin", value)

	_, _, ok = splitAssignment("echo")
	assert.False(t, ok)

	_, _, ok = splitAssignment("1x=5")
	assert.False(t, ok)

	_, _, ok = splitAssignment("=5")
	assert.False(t, ok)
}

func TestArrayAssignment(t *testing.T) {
	name, body, ok := arrayAssignment("arr=(one two three)")
	assert.True(t, ok)
	assert.Equal(t, "arr", name)
	assert.Equal(t, "one two three", body)

	_, _, ok = arrayAssignment("arr=(one two) extra")
	assert.False(t, ok)

	_, _, ok = arrayAssignment("x=5")
	assert.False(t, ok)
}
