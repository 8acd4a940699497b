package shell

import (
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/rushshell/rush/core/flow"
)

// builtinSource reads and executes a script in the current shell: variables
// and aliases it sets persist. Nesting is bounded by MaxSourceDepth.
func (s *Shell) builtinSource(ctx *ExecutionContext, args []string) int {
	if len(args) == 0 {
		return s.report(ctx, errorf(KindSyntax, "source: filename argument required"))
	}
	if ctx.SourceDepth >= MaxSourceDepth {
		return s.report(ctx, errorf(KindExecution, "source: %s: nesting exceeds %d levels", args[0], MaxSourceDepth))
	}

	path, ok := s.findScript(args[0])
	if !ok {
		return s.report(ctx, errorf(KindExecution, "source: %s: no such file", args[0]))
	}

	content, err := afero.ReadFile(s.Fs, path)
	if err != nil {
		return s.report(ctx, errorf(KindExecution, "source: %s: %v", args[0], err))
	}

	sub := ctx.clone()
	sub.SourceDepth++
	return s.runScript(string(content), sub)
}

// findScript resolves a source operand: absolute paths and ~/ paths as
// given, anything with a slash relative to the working directory, and bare
// names through the working directory then $PATH.
func (s *Shell) findScript(name string) (string, bool) {
	candidates := func() []string {
		switch {
		case filepath.IsAbs(name):
			return []string{name}
		case strings.HasPrefix(name, "~/"):
			home, _ := s.Env.Get("HOME")
			return []string{filepath.Join(home, name[2:])}
		case strings.ContainsRune(name, '/'):
			return []string{filepath.Join(s.cwd, name)}
		default:
			out := []string{filepath.Join(s.cwd, name)}
			path, _ := s.Env.Get("PATH")
			for _, dir := range strings.Split(path, ":") {
				if dir != "" {
					out = append(out, filepath.Join(dir, name))
				}
			}
			return out
		}
	}()

	for _, candidate := range candidates {
		if ok, _ := afero.Exists(s.Fs, candidate); ok {
			if isDir, _ := afero.IsDir(s.Fs, candidate); !isDir {
				return candidate, true
			}
		}
	}
	return "", false
}

// runScript executes script text line by line, accumulating physical lines
// until control-flow constructs are complete. The exit code is the last
// statement's, 0 for an effectively empty script.
func (s *Shell) runScript(content string, ctx *ExecutionContext) int {
	code := 0
	var buf strings.Builder

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if buf.Len() == 0 && (trimmed == "" || strings.HasPrefix(trimmed, "#")) {
			continue
		}

		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(line)
		if !flow.IsComplete(buf.String()) {
			continue
		}

		code = s.executeList(buf.String(), ctx)
		buf.Reset()
		if s.Quit {
			return code
		}
	}

	if buf.Len() > 0 {
		code = s.executeList(buf.String(), ctx)
	}
	return code
}

// RunScript executes script text against the shell's root streams, for
// non-interactive invocation (rush file.sh, rush -c).
func (s *Shell) RunScript(content string) int {
	ctx := &ExecutionContext{
		Stdin:  s.Stdin,
		Stdout: s.Stdout,
		Stderr: s.Stderr,
	}
	return s.runScript(content, ctx)
}
