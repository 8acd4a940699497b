package shell

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pborman/getopt/v2"
	"github.com/spf13/afero"

	"github.com/rushshell/rush/core/alias"
	"github.com/rushshell/rush/core/arith"
)

// Builtin identifies a shell builtin. The set is closed: dispatch is a
// switch over these values, never a name lookup at execution time.
type Builtin int

const (
	BuiltinNone Builtin = iota
	BuiltinCd
	BuiltinPwd
	BuiltinEcho
	BuiltinExit
	BuiltinTrue
	BuiltinFalse
	// BuiltinTest covers both the `test` and `[` spellings.
	BuiltinTest
	// BuiltinCond is the extended `[[ ]]` conditional.
	BuiltinCond
	// BuiltinSource covers both `source` and `.`.
	BuiltinSource
	BuiltinAlias
	BuiltinUnalias
	BuiltinLet
	BuiltinExport
	BuiltinUnset
	BuiltinJobs
	BuiltinHistory
)

// LookupBuiltin maps a command name to its builtin, or BuiltinNone.
func LookupBuiltin(name string) Builtin {
	switch name {
	case "cd":
		return BuiltinCd
	case "pwd":
		return BuiltinPwd
	case "echo":
		return BuiltinEcho
	case "exit":
		return BuiltinExit
	case "true":
		return BuiltinTrue
	case "false":
		return BuiltinFalse
	case "test", "[":
		return BuiltinTest
	case "[[":
		return BuiltinCond
	case "source", ".":
		return BuiltinSource
	case "alias":
		return BuiltinAlias
	case "unalias":
		return BuiltinUnalias
	case "let":
		return BuiltinLet
	case "export":
		return BuiltinExport
	case "unset":
		return BuiltinUnset
	case "jobs":
		return BuiltinJobs
	case "history":
		return BuiltinHistory
	default:
		return BuiltinNone
	}
}

func (s *Shell) runBuiltin(b Builtin, ctx *ExecutionContext, fields []string) int {
	name, args := fields[0], fields[1:]
	switch b {
	case BuiltinCd:
		return s.builtinCd(ctx, args)
	case BuiltinPwd:
		fmt.Fprintln(ctx.Stdout, s.cwd)
		return 0
	case BuiltinEcho:
		return s.builtinEcho(ctx, args)
	case BuiltinExit:
		return s.builtinExit(ctx, args)
	case BuiltinTrue:
		return 0
	case BuiltinFalse:
		return 1
	case BuiltinTest:
		return s.builtinTest(ctx, name, args)
	case BuiltinCond:
		return s.builtinCond(ctx, args)
	case BuiltinSource:
		return s.builtinSource(ctx, args)
	case BuiltinAlias:
		return s.builtinAlias(ctx, args)
	case BuiltinUnalias:
		return s.builtinUnalias(ctx, args)
	case BuiltinLet:
		return s.builtinLet(ctx, args)
	case BuiltinExport:
		return s.builtinExport(ctx, args)
	case BuiltinUnset:
		for _, name := range args {
			s.Env.Unset(name)
		}
		return 0
	case BuiltinJobs:
		return s.builtinJobs(ctx, args)
	case BuiltinHistory:
		return s.builtinHistory(ctx, args)
	default:
		return 0
	}
}

func (s *Shell) builtinCd(ctx *ExecutionContext, args []string) int {
	var target string
	switch {
	case len(args) == 0:
		home, ok := s.Env.Get("HOME")
		if !ok || home == "" {
			return s.report(ctx, errorf(KindExecution, "cd: HOME not set"))
		}
		target = home
	case args[0] == "-":
		old, ok := s.Env.Get("OLDPWD")
		if !ok {
			return s.report(ctx, errorf(KindExecution, "cd: OLDPWD not set"))
		}
		target = old
		fmt.Fprintln(ctx.Stdout, old)
	default:
		target = args[0]
	}

	path := s.resolvePath(target)
	ok, err := afero.DirExists(s.Fs, path)
	if err != nil || !ok {
		return s.report(ctx, errorf(KindExecution, "cd: %s: no such directory", target))
	}

	s.Env.Set("OLDPWD", s.cwd)
	s.cwd = path
	s.Env.Set("PWD", path)
	return 0
}

func (s *Shell) builtinEcho(ctx *ExecutionContext, args []string) int {
	newline := true
	if len(args) > 0 && args[0] == "-n" {
		newline = false
		args = args[1:]
	}
	fmt.Fprint(ctx.Stdout, strings.Join(args, " "))
	if newline {
		fmt.Fprintln(ctx.Stdout)
	}
	return 0
}

func (s *Shell) builtinExit(ctx *ExecutionContext, args []string) int {
	s.Quit = true
	if len(args) == 0 {
		return s.lastRet
	}
	code, err := strconv.Atoi(args[0])
	if err != nil {
		return s.report(ctx, errorf(KindSyntax, "exit: %s: numeric argument required", args[0]))
	}
	return code & 0xff
}

func (s *Shell) builtinLet(ctx *ExecutionContext, args []string) int {
	if len(args) == 0 {
		return s.report(ctx, errorf(KindSyntax, "let: expression expected"))
	}

	var result int64
	for _, expr := range args {
		n, err := arith.Eval(expr, s.Env)
		if err != nil {
			return s.report(ctx, err)
		}
		result = n
	}
	// let inverts: a non-zero result is success.
	if result != 0 {
		return 0
	}
	return 1
}

func (s *Shell) builtinExport(ctx *ExecutionContext, args []string) int {
	if len(args) == 0 {
		for _, kv := range s.Env.Environ() {
			if isName(kv[:strings.IndexByte(kv, '=')]) {
				fmt.Fprintf(ctx.Stdout, "export %s\n", kv)
			}
		}
		return 0
	}
	for _, arg := range args {
		if name, value, ok := splitAssignment(arg); ok {
			s.Env.Set(name, value)
		}
		// A bare name is a no-op: every shell variable already reaches
		// child environments.
	}
	return 0
}

func (s *Shell) builtinAlias(ctx *ExecutionContext, args []string) int {
	set := getopt.New()
	set.SetProgram("alias")
	printAll := set.BoolLong("print", 'p', "print all aliases")
	if err := set.Getopt(append([]string{"alias"}, args...), nil); err != nil {
		return s.report(ctx, errorf(KindSyntax, "alias: %v", err))
	}
	rest := set.Args()

	if *printAll || len(rest) == 0 {
		for _, name := range s.Aliases.Names() {
			value, _ := s.Aliases.Get(name)
			fmt.Fprintf(ctx.Stdout, "alias %s=%s\n", name, alias.Quote(value))
		}
		return 0
	}

	code := 0
	changed := false
	for _, arg := range rest {
		if eq := strings.IndexByte(arg, '='); eq > 0 {
			if err := s.Aliases.Set(arg[:eq], arg[eq+1:]); err != nil {
				code = s.report(ctx, errorf(KindExecution, "alias: %v", err))
				continue
			}
			changed = true
			continue
		}
		value, ok := s.Aliases.Get(arg)
		if !ok {
			fmt.Fprintf(ctx.Stderr, "rush: alias: %s: not found\n", arg)
			code = 1
			continue
		}
		fmt.Fprintf(ctx.Stdout, "alias %s=%s\n", arg, alias.Quote(value))
	}

	if changed {
		if err := s.Aliases.Save(); err != nil {
			return s.report(ctx, errorf(KindExecution, "alias: %v", err))
		}
	}
	return code
}

func (s *Shell) builtinUnalias(ctx *ExecutionContext, args []string) int {
	set := getopt.New()
	set.SetProgram("unalias")
	all := set.BoolLong("all", 'a', "remove all aliases")
	if err := set.Getopt(append([]string{"unalias"}, args...), nil); err != nil {
		return s.report(ctx, errorf(KindSyntax, "unalias: %v", err))
	}

	code := 0
	if *all {
		for _, name := range s.Aliases.Names() {
			s.Aliases.Remove(name)
		}
	} else {
		for _, name := range set.Args() {
			if !s.Aliases.Remove(name) {
				fmt.Fprintf(ctx.Stderr, "rush: unalias: %s: not found\n", name)
				code = 1
			}
		}
	}

	if err := s.Aliases.Save(); err != nil {
		return s.report(ctx, errorf(KindExecution, "unalias: %v", err))
	}
	return code
}

func (s *Shell) builtinJobs(ctx *ExecutionContext, args []string) int {
	set := getopt.New()
	set.SetProgram("jobs")
	long := set.BoolLong("long", 'l', "also show process IDs")
	pidsOnly := set.BoolLong("pids", 'p', "show process group IDs only")
	if err := set.Getopt(append([]string{"jobs"}, args...), nil); err != nil {
		return s.report(ctx, errorf(KindSyntax, "jobs: %v", err))
	}

	s.Jobs.UpdateStatus()
	for _, job := range s.Jobs.Jobs() {
		switch {
		case *pidsOnly:
			fmt.Fprintln(ctx.Stdout, job.Pgid)
		case *long:
			fmt.Fprintf(ctx.Stdout, "[%d] %d %-10s %s\n", job.ID, job.Pgid, job.Status, job.Command)
		default:
			fmt.Fprintf(ctx.Stdout, "[%d]  %-10s %s\n", job.ID, job.Status, job.Command)
		}
	}
	return 0
}

func (s *Shell) builtinHistory(ctx *ExecutionContext, args []string) int {
	set := getopt.New()
	set.SetProgram("history")
	clear := set.BoolLong("clear", 'c', "clear the history list")
	if err := set.Getopt(append([]string{"history"}, args...), nil); err != nil {
		return s.report(ctx, errorf(KindSyntax, "history: %v", err))
	}

	if *clear {
		s.history = nil
		return 0
	}
	for i, line := range s.history {
		fmt.Fprintf(ctx.Stdout, "%5d  %s\n", i+1, line)
	}
	return 0
}
