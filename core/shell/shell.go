// Package shell executes command lines: it splits statements, runs the
// expansion pipeline, dispatches builtins and spawns external processes. The
// interactive front end under cmd/ owns the read loop; this package owns the
// semantics.
package shell

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/afero"

	"github.com/rushshell/rush/core/alias"
	"github.com/rushshell/rush/core/config"
	"github.com/rushshell/rush/core/environ"
	"github.com/rushshell/rush/core/expand"
	"github.com/rushshell/rush/core/flow"
	"github.com/rushshell/rush/core/jobs"
)

var errColor = color.New(color.FgRed, color.Bold)

// Options configures a Shell. Zero values fall back to the real process
// environment: OS variables, the OS filesystem and the standard streams.
type Options struct {
	Env     environ.ArrayStore
	Fs      afero.Fs
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
	Aliases *alias.Manager
	Jobs    *jobs.Manager
	Config  *config.Config
	// WorkDir is the starting working directory.
	WorkDir string
}

// Shell is one command interpreter instance. It is not safe for concurrent
// Execute calls.
type Shell struct {
	Env     environ.ArrayStore
	Fs      afero.Fs
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
	Aliases *alias.Manager
	Jobs    *jobs.Manager
	Config  *config.Config

	// Quit is set by the exit builtin; the front end's loop checks it.
	Quit bool

	expander *expand.Expander
	cwd      string
	lastRet  int
	history  []string
}

// New creates a ready-to-use Shell.
func New(opts Options) *Shell {
	s := &Shell{
		Env:     opts.Env,
		Fs:      opts.Fs,
		Stdin:   opts.Stdin,
		Stdout:  opts.Stdout,
		Stderr:  opts.Stderr,
		Aliases: opts.Aliases,
		Jobs:    opts.Jobs,
		Config:  opts.Config,
		cwd:     opts.WorkDir,
	}

	if s.Env == nil {
		s.Env = environ.NewMapStoreFromEnviron(os.Environ())
	}
	if s.Fs == nil {
		s.Fs = afero.NewOsFs()
	}
	if s.Stdin == nil {
		s.Stdin = os.Stdin
	}
	if s.Stdout == nil {
		s.Stdout = os.Stdout
	}
	if s.Stderr == nil {
		s.Stderr = os.Stderr
	}
	if s.Jobs == nil {
		s.Jobs = jobs.NewManager()
	}
	if s.Config == nil {
		s.Config = config.Default()
	}
	if s.Aliases == nil {
		home, _ := s.Env.Get("HOME")
		s.Aliases = alias.NewManager(s.Fs, alias.DefaultPath(home))
	}
	if s.cwd == "" {
		if wd, err := os.Getwd(); err == nil {
			s.cwd = wd
		} else {
			s.cwd = "/"
		}
	}

	s.Env.Set("$", strconv.Itoa(os.Getpid()))
	s.Env.Set("?", "0")
	s.Env.Set("PWD", s.cwd)

	s.expander = &expand.Expander{
		Vars: s.Env,
		Fs:   s.Fs,
		Cwd:  func() string { return s.cwd },
	}
	return s
}

// expanderFor binds the shared expander to one execution context, so
// command substitutions run against the context's streams and the depth
// counters travel with the recursion.
func (s *Shell) expanderFor(ctx *ExecutionContext) *expand.Expander {
	ex := *s.expander
	ex.Depth = ctx.SubstDepth
	ex.Runner = &ctxRunner{sh: s, ctx: ctx}
	return &ex
}

// Cwd returns the shell's current working directory.
func (s *Shell) Cwd() string {
	return s.cwd
}

// LastExit returns the exit code of the most recent statement.
func (s *Shell) LastExit() int {
	return s.lastRet
}

// History returns the recorded command lines, oldest first.
func (s *Shell) History() []string {
	out := make([]string, len(s.history))
	copy(out, s.history)
	return out
}

// Execute interprets one complete input line (possibly spanning multiple
// physical lines for control-flow constructs) and returns the exit code of
// the last statement. Errors are reported to Stderr; they never escape, so
// the caller loop always survives.
func (s *Shell) Execute(line string) int {
	if trimmed := strings.TrimSpace(line); trimmed != "" && !strings.HasPrefix(trimmed, "#") {
		s.remember(trimmed)
	}

	ctx := &ExecutionContext{
		Stdin:  s.Stdin,
		Stdout: s.Stdout,
		Stderr: s.Stderr,
	}
	return s.executeList(line, ctx)
}

func (s *Shell) remember(line string) {
	s.history = append(s.history, line)
	if max := s.Config.HistorySize; max > 0 && len(s.history) > max {
		s.history = s.history[len(s.history)-max:]
	}
}

// executeList runs each statement of a command list in order and returns the
// last exit code.
func (s *Shell) executeList(text string, ctx *ExecutionContext) int {
	code := 0
	for _, stmt := range flow.SplitStatements(text) {
		code = s.executeStatement(stmt, ctx)
		s.setExit(code)
	}
	return code
}

func (s *Shell) setExit(code int) {
	s.lastRet = code
	s.Env.Set("?", strconv.Itoa(code))
}

// executeStatement runs one statement: a control-flow construct, an array
// assignment, a background job or an && / || chain of pipelines.
func (s *Shell) executeStatement(stmt string, ctx *ExecutionContext) int {
	stmt = strings.TrimSpace(stmt)
	if stmt == "" || strings.HasPrefix(stmt, "#") {
		return s.lastRet
	}

	switch flow.LeadingKeyword(stmt) {
	case "for":
		return s.executeFor(stmt, ctx)
	case "while", "until":
		return s.executeWhile(stmt, ctx)
	case "case":
		return s.executeCase(stmt, ctx)
	}

	if name, body, ok := arrayAssignment(stmt); ok {
		return s.assignArray(name, body, ctx)
	}

	if rest, background := stripBackground(stmt); background {
		return s.runBackground(rest, ctx)
	}

	code := s.lastRet
	for _, part := range splitAndOr(stmt) {
		switch part.op {
		case "&&":
			if code != 0 {
				continue
			}
		case "||":
			if code == 0 {
				continue
			}
		}
		code = s.executePipeline(part.text, ctx)
	}
	return code
}

// executePipeline runs cmd1 | cmd2 | ... with each stage's stdout feeding the
// next stage's stdin. Stages run left to right; the pipeline's exit code is
// the final stage's.
func (s *Shell) executePipeline(text string, ctx *ExecutionContext) int {
	segments := splitPipes(text)
	if len(segments) == 1 {
		return s.runCommand(segments[0], ctx)
	}

	code := 0
	stdin := ctx.Stdin
	for i, segment := range segments {
		stage := ctx.clone()
		stage.Stdin = stdin
		if i < len(segments)-1 {
			buf := &bytes.Buffer{}
			stage.Stdout = buf
			stdin = buf
		}
		code = s.runCommand(segment, stage)
	}
	return code
}

// runCommand executes a single command: leading assignments, alias
// expansion, word expansion, redirections, then builtin or external
// dispatch.
func (s *Shell) runCommand(segment string, ctx *ExecutionContext) int {
	words, redirs, err := parseWords(segment)
	if err != nil {
		return s.report(ctx, err)
	}
	ex := s.expanderFor(ctx)

	// Leading NAME=value words assign; with no command they set shell
	// variables, before a command they only reach the child environment.
	var assigns [][2]string
	for len(words) > 0 {
		name, rawValue, ok := splitAssignment(words[0])
		if !ok {
			break
		}
		value, err := ex.ExpandString(rawValue)
		if err != nil {
			return s.report(ctx, err)
		}
		assigns = append(assigns, [2]string{name, value})
		words = words[1:]
	}

	if len(words) == 0 {
		for _, kv := range assigns {
			s.Env.Set(kv[0], kv[1])
		}
		return 0
	}

	words, redirs = s.expandAliases(words, redirs)

	// Inside [[ ]] expansion results are never split or globbed, and empty
	// expansions stay as empty operands.
	noSplit := words[0] == "[["

	var fields []string
	for _, word := range words {
		if noSplit {
			value, err := ex.ExpandString(word)
			if err != nil {
				return s.report(ctx, err)
			}
			fields = append(fields, value)
			continue
		}
		expanded, err := ex.ExpandWord(word)
		if err != nil {
			return s.report(ctx, err)
		}
		fields = append(fields, expanded...)
	}
	if len(fields) == 0 {
		return 0
	}

	rctx, cleanup, err := s.applyRedirects(ctx, redirs)
	if err != nil {
		return s.report(ctx, err)
	}
	defer cleanup()

	if b := LookupBuiltin(fields[0]); b != BuiltinNone {
		// Builtins run in-process; prefix assignments land in the shell's
		// own variables.
		for _, kv := range assigns {
			s.Env.Set(kv[0], kv[1])
		}
		return s.runBuiltin(b, rctx, fields)
	}

	return s.runExternal(rctx, fields, assigns)
}

// expandAliases rewrites the command name through the alias table. Each name
// expands at most once per command, so self-referential aliases terminate.
func (s *Shell) expandAliases(words []string, redirs []redirect) ([]string, []redirect) {
	seen := make(map[string]bool)
	for len(words) > 0 {
		name := words[0]
		if seen[name] {
			break
		}
		value, ok := s.Aliases.Get(name)
		if !ok {
			break
		}
		seen[name] = true

		vwords, vredirs, err := parseWords(value)
		if err != nil || len(vwords) == 0 {
			break
		}
		words = append(append([]string(nil), vwords...), words[1:]...)
		redirs = append(append([]redirect(nil), vredirs...), redirs...)
	}
	return words, redirs
}

// assignArray handles the whole-statement NAME=(elem ...) form.
func (s *Shell) assignArray(name, body string, ctx *ExecutionContext) int {
	elements, err := expand.SplitArray(body)
	if err != nil {
		return s.report(ctx, errorf(KindSyntax, "bad array literal: %v", err))
	}

	ex := s.expanderFor(ctx)
	expanded := make([]string, 0, len(elements))
	for _, elem := range elements {
		value, err := ex.ExpandString(elem)
		if err != nil {
			return s.report(ctx, err)
		}
		expanded = append(expanded, value)
	}
	s.Env.SetArray(name, expanded)
	return 0
}

// applyRedirects opens redirection targets on the shell filesystem and
// rewires a derived context. The returned cleanup closes opened files.
func (s *Shell) applyRedirects(ctx *ExecutionContext, redirs []redirect) (*ExecutionContext, func(), error) {
	if len(redirs) == 0 {
		return ctx, func() {}, nil
	}

	ex := s.expanderFor(ctx)
	out := ctx.clone()
	var closers []io.Closer
	cleanup := func() {
		for _, c := range closers {
			c.Close()
		}
	}

	for _, r := range redirs {
		if r.op == redirDup {
			switch {
			case r.fd == 2 && r.dupTo == 1:
				out.Stderr = out.Stdout
			case r.fd == 1 && r.dupTo == 2:
				out.Stdout = out.Stderr
			default:
				cleanup()
				return nil, nil, errorf(KindSyntax, "unsupported descriptor duplication %d>&%d", r.fd, r.dupTo)
			}
			continue
		}

		target, err := ex.ExpandString(r.target)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		path := s.resolvePath(target)

		var file afero.File
		switch r.op {
		case redirIn:
			file, err = s.Fs.Open(path)
		case redirOut:
			file, err = s.Fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		case redirAppend:
			file, err = s.Fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		}
		if err != nil {
			cleanup()
			return nil, nil, errorf(KindExecution, "cannot open %s: %v", target, err)
		}
		closers = append(closers, file)

		switch r.fd {
		case 0:
			out.Stdin = file
		case 1:
			out.Stdout = file
		case 2:
			out.Stderr = file
		default:
			cleanup()
			return nil, nil, errorf(KindSyntax, "unsupported file descriptor %d", r.fd)
		}
	}

	return out, cleanup, nil
}

// resolvePath makes a path absolute relative to the shell's working
// directory.
func (s *Shell) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.cwd, path)
}

// runExternal spawns one foreground process and waits for it.
func (s *Shell) runExternal(ctx *ExecutionContext, fields []string, assigns [][2]string) int {
	cmd := exec.Command(fields[0], fields[1:]...)
	cmd.Dir = s.cwd
	cmd.Env = s.childEnv(assigns)
	cmd.Stdin = ctx.Stdin
	cmd.Stdout = ctx.Stdout
	cmd.Stderr = ctx.Stderr

	err := cmd.Run()
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	if errors.Is(err, exec.ErrNotFound) {
		fmt.Fprintf(ctx.Stderr, "rush: command not found: %s\n", fields[0])
		return 127
	}
	s.report(ctx, errorf(KindExecution, "%s: %v", fields[0], err))
	return 126
}

// childEnv builds the environment for a spawned process: every
// identifier-named shell variable plus the command's prefix assignments.
// Special parameters like ? and $ stay internal.
func (s *Shell) childEnv(assigns [][2]string) []string {
	var env []string
	for _, kv := range s.Env.Environ() {
		name := kv[:strings.IndexByte(kv, '=')]
		if isName(name) {
			env = append(env, kv)
		}
	}
	for _, kv := range assigns {
		env = append(env, kv[0]+"="+kv[1])
	}
	return env
}

// ctxRunner implements expand.Runner for one execution context. It runs a
// command substitution body and collects its stdout; the substitution
// shares the shell's variables and inherits the calling context's stderr,
// like a subshell whose stdout is a pipe. The caller's source depth and the
// substitution depth carry over, so recursion through substitutions stays
// bounded.
type ctxRunner struct {
	sh  *Shell
	ctx *ExecutionContext
}

func (r *ctxRunner) Capture(command string, depth int) (string, int, error) {
	buf := &bytes.Buffer{}
	sub := &ExecutionContext{
		Stdin:       strings.NewReader(""),
		Stdout:      buf,
		Stderr:      r.ctx.Stderr,
		SourceDepth: r.ctx.SourceDepth,
		SubstDepth:  depth,
	}
	code := r.sh.executeList(command, sub)
	return buf.String(), code, nil
}

// report prints an engine error in the standard format and returns the exit
// code the statement should yield.
func (s *Shell) report(ctx *ExecutionContext, err error) int {
	wrapped := wrapError(err)
	fmt.Fprintf(ctx.Stderr, "%s %s\n", errColor.Sprint("rush: error:"), wrapped.Error())
	return wrapped.ExitCode()
}
