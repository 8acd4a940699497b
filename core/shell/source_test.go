package shell

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0755))
}

func TestSourceRunsInCurrentShell(t *testing.T) {
	s := newTestShell(t)
	writeScript(t, s.fs, "/work/lib.sh", "greeting=hello\nalias hi='echo aliased'\n")

	assert.Equal(t, 0, s.Execute("source lib.sh"))

	greeting, ok := s.Env.Get("greeting")
	assert.True(t, ok)
	assert.Equal(t, "hello", greeting)

	s.Execute("hi there")
	assert.Equal(t, "aliased there\n", s.out.String())
}

func TestDotIsSource(t *testing.T) {
	s := newTestShell(t)
	writeScript(t, s.fs, "/work/lib.sh", "dotted=yes\n")

	assert.Equal(t, 0, s.Execute(". lib.sh"))
	v, _ := s.Env.Get("dotted")
	assert.Equal(t, "yes", v)
}

func TestSourceMultiLineConstructs(t *testing.T) {
	s := newTestShell(t)
	writeScript(t, s.fs, "/work/loop.sh", `for x in 1 2
do
  echo line $x
done
`)

	assert.Equal(t, 0, s.Execute("source loop.sh"))
	assert.Equal(t, "line 1\nline 2\n", s.out.String())
}

func TestSourceSkipsCommentsAndBlanks(t *testing.T) {
	s := newTestShell(t)
	writeScript(t, s.fs, "/work/c.sh", "# header\n\necho only\n\n# trailer\n")

	assert.Equal(t, 0, s.Execute("source c.sh"))
	assert.Equal(t, "only\n", s.out.String())
}

func TestSourceExitCodeIsLastStatement(t *testing.T) {
	s := newTestShell(t)
	writeScript(t, s.fs, "/work/f.sh", "echo hi\nfalse\n")

	assert.Equal(t, 1, s.Execute("source f.sh"))
}

func TestSourceMissingFile(t *testing.T) {
	s := newTestShell(t)

	code := s.Execute("source nope.sh")
	assert.Equal(t, 1, code)
	assert.Contains(t, s.errOut.String(), "no such file")
}

func TestSourceNoArgument(t *testing.T) {
	s := newTestShell(t)

	assert.Equal(t, 2, s.Execute("source"))
	assert.Contains(t, s.errOut.String(), "filename argument required")
}

func TestSourceResolvesThroughPath(t *testing.T) {
	s := newTestShell(t)
	require.NoError(t, s.fs.MkdirAll("/opt/scripts", 0755))
	writeScript(t, s.fs, "/opt/scripts/tool.sh", "found=path\n")
	s.Env.Set("PATH", "/opt/scripts:/bin")

	assert.Equal(t, 0, s.Execute("source tool.sh"))
	v, _ := s.Env.Get("found")
	assert.Equal(t, "path", v)
}

func TestSourceTildePath(t *testing.T) {
	s := newTestShell(t)
	require.NoError(t, s.fs.MkdirAll("/home/u", 0755))
	writeScript(t, s.fs, "/home/u/rc.sh", "fromhome=1\n")

	assert.Equal(t, 0, s.Execute("source ~/rc.sh"))
	v, _ := s.Env.Get("fromhome")
	assert.Equal(t, "1", v)
}

func TestSourceDepthCapped(t *testing.T) {
	s := newTestShell(t)
	writeScript(t, s.fs, "/work/self.sh", "source self.sh\n")

	code := s.Execute("source self.sh")
	assert.Equal(t, 1, code)
	assert.Contains(t, s.errOut.String(), "nesting exceeds")
}

func TestSourceThroughSubstitutionStaysBounded(t *testing.T) {
	s := newTestShell(t)
	// Re-sourcing through a substitution must hit a depth cap instead of
	// recursing forever: the counters survive the capture round trip.
	writeScript(t, s.fs, "/work/self.sh", "x=$(source /work/self.sh)\n")

	s.Execute("source /work/self.sh")
	assert.Contains(t, s.errOut.String(), "nested deeper")
}

func TestNestedSourceWithinCap(t *testing.T) {
	s := newTestShell(t)
	writeScript(t, s.fs, "/work/outer.sh", "source inner.sh\nouter=1\n")
	writeScript(t, s.fs, "/work/inner.sh", "inner=1\n")

	assert.Equal(t, 0, s.Execute("source outer.sh"))
	v, _ := s.Env.Get("inner")
	assert.Equal(t, "1", v)
	v, _ = s.Env.Get("outer")
	assert.Equal(t, "1", v)
}
