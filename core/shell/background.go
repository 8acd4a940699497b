package shell

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"syscall"

	"github.com/rushshell/rush/core/jobs"
)

// runBackground launches a pipeline without waiting for it. Every stage runs
// as a real process in a fresh process group so the whole pipeline can be
// tracked (and signaled) as one job. Builtins have external counterparts on
// any POSIX system, so background stages always exec.
func (s *Shell) runBackground(text string, ctx *ExecutionContext) int {
	segments := splitPipes(text)
	ex := s.expanderFor(ctx)

	cmds := make([]*exec.Cmd, 0, len(segments))
	for _, segment := range segments {
		words, _, err := parseWords(segment)
		if err != nil {
			return s.report(ctx, err)
		}

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

		var fields []string
		for _, word := range words {
			expanded, err := ex.ExpandWord(word)
			if err != nil {
				return s.report(ctx, err)
			}
			fields = append(fields, expanded...)
		}
		if len(fields) == 0 {
			return s.report(ctx, errorf(KindSyntax, "empty command in background pipeline"))
		}

		cmd := exec.Command(fields[0], fields[1:]...)
		cmd.Dir = s.cwd
		cmd.Env = s.childEnv(assigns)
		cmd.Stderr = ctx.Stderr
		cmds = append(cmds, cmd)
	}

	// Wire adjacent stages with real pipes; the parent closes its copies
	// once the children hold them.
	var parentEnds []*os.File
	for i := 0; i < len(cmds)-1; i++ {
		r, w, err := os.Pipe()
		if err != nil {
			return s.report(ctx, errorf(KindExecution, "pipe: %v", err))
		}
		cmds[i].Stdout = w
		cmds[i+1].Stdin = r
		parentEnds = append(parentEnds, r, w)
	}
	cmds[len(cmds)-1].Stdout = ctx.Stdout

	var pids []int
	pgid := 0
	for _, cmd := range cmds {
		cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true, Pgid: pgid}
		if err := cmd.Start(); err != nil {
			for _, end := range parentEnds {
				end.Close()
			}
			fmt.Fprintf(ctx.Stderr, "rush: command not found: %s\n", cmd.Path)
			return 127
		}
		if pgid == 0 {
			pgid = cmd.Process.Pid
		}
		pids = append(pids, cmd.Process.Pid)
	}
	for _, end := range parentEnds {
		end.Close()
	}

	job := s.Jobs.Add(pgid, pids, text+" &")
	s.Env.Set("!", strconv.Itoa(pids[len(pids)-1]))
	fmt.Fprintf(ctx.Stdout, "[%d] %d\n", job.ID, pids[len(pids)-1])
	return 0
}

// NotifyJobs polls the job table and prints one notification per freshly
// finished job, the way an interactive shell reports between prompts.
func (s *Shell) NotifyJobs(w io.Writer) {
	s.Jobs.UpdateStatus()
	for _, job := range s.Jobs.Cleanup() {
		status := "Done"
		if job.Status == jobs.Failed {
			status = fmt.Sprintf("Exit %d", job.ExitCode())
		}
		fmt.Fprintf(w, "[%d]  %-24s%s\n", job.ID, status, job.Command)
	}
}
