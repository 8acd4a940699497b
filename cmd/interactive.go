package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/abiosoft/readline"

	"github.com/rushshell/rush/core/flow"
	"github.com/rushshell/rush/core/shell"
)

const continuationPrompt = "> "

// runInteractive is the read-eval loop. Lines accumulate until control-flow
// constructs are complete, and finished background jobs are reported between
// prompts.
func runInteractive(sh *shell.Shell) int {
	rl, err := readline.NewEx(&readline.Config{
		Prompt: renderPrompt(sh),
	})
	if err != nil {
		fmt.Fprintf(sh.Stderr, "rush: %v\n", err)
		return 1
	}
	defer rl.Close()

	var pending strings.Builder
	for !sh.Quit {
		sh.NotifyJobs(sh.Stdout)

		if pending.Len() == 0 {
			rl.SetPrompt(renderPrompt(sh))
		} else {
			rl.SetPrompt(continuationPrompt)
		}

		line, err := rl.Readline()
		switch {
		case err == readline.ErrInterrupt:
			// ^C abandons the partial construct.
			pending.Reset()
			continue
		case err == io.EOF:
			return sh.LastExit()
		case err != nil:
			fmt.Fprintf(sh.Stderr, "rush: %v\n", err)
			return 1
		}

		if pending.Len() > 0 {
			pending.WriteByte('\n')
		}
		pending.WriteString(line)

		input := pending.String()
		if strings.TrimSpace(input) == "" {
			pending.Reset()
			continue
		}
		if !flow.IsComplete(input) {
			continue
		}

		pending.Reset()
		sh.Execute(input)
	}
	return sh.LastExit()
}

// renderPrompt expands the configured PS1-style template: \u user, \h host,
// \w working directory (home shown as ~), \$ the privilege marker.
func renderPrompt(sh *shell.Shell) string {
	prompt := sh.Config.Prompt

	user, _ := sh.Env.Get("USER")
	if user == "" {
		user = "user"
	}
	prompt = strings.ReplaceAll(prompt, `\u`, user)

	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}
	prompt = strings.ReplaceAll(prompt, `\h`, host)

	pwd := sh.Cwd()
	if home, _ := sh.Env.Get("HOME"); home != "" && strings.HasPrefix(pwd, home) {
		pwd = "~" + strings.TrimPrefix(pwd, home)
	}
	prompt = strings.ReplaceAll(prompt, `\w`, pwd)

	marker := "$"
	if os.Geteuid() == 0 {
		marker = "#"
	}
	return strings.ReplaceAll(prompt, `\$`, marker)
}
