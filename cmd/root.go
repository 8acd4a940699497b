// Package cmd wires the rush shell engine to its command-line entry points:
// interactive sessions, script files and -c one-liners.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/rushshell/rush/core/alias"
	"github.com/rushshell/rush/core/config"
	"github.com/rushshell/rush/core/shell"
)

var (
	commandFlag string
	exitCode    int
)

var rootCmd = &cobra.Command{
	Use:   "rush [script]",
	Short: "A POSIX-influenced command shell",
	Long: `rush is a command interpreter with pipelines, && / || chains,
variable and command substitution, arithmetic, globbing, control flow
(for, while, until, case), aliases and background jobs.

Without arguments rush starts an interactive session. With a script
argument it runs the file; with -c it runs the given command string.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		fs := afero.NewOsFs()
		home, err := os.UserHomeDir()
		if err != nil {
			home = "/"
		}

		cfg, err := config.Load(fs, home)
		if err != nil {
			return err
		}

		aliasPath := cfg.AliasFile
		if aliasPath == "" {
			aliasPath = alias.DefaultPath(home)
		}
		aliases := alias.NewManager(fs, aliasPath)
		if err := aliases.Load(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "rush: %v\n", err)
		}

		sh := shell.New(shell.Options{
			Fs:      fs,
			Aliases: aliases,
			Config:  cfg,
		})

		switch {
		case commandFlag != "":
			exitCode = sh.RunScript(commandFlag)
		case len(args) == 1:
			content, err := afero.ReadFile(fs, args[0])
			if err != nil {
				return fmt.Errorf("read script: %w", err)
			}
			exitCode = sh.RunScript(string(content))
		default:
			exitCode = runInteractive(sh)
		}
		return nil
	},
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return exitCode
}

func init() {
	rootCmd.Flags().StringVarP(&commandFlag, "command", "c", "", "execute the given command string and exit")
}
