package main

import (
	"bufio"
	"context"
	"io"

	"github.com/cmdvault/cv/internal/config"
	"github.com/cmdvault/cv/internal/executor"
	"github.com/spf13/cobra"
)

var (
	runHostFlags []string
	runVars      []string
)

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringArrayVar(&runHostFlags, "host", nil, "Run over SSH on [user@]host[:port] (repeatable)")
	runCmd.Flags().StringArrayVar(&runVars, "var", nil, "Variable value as name=value (repeatable)")
}

var runCmd = &cobra.Command{
	Use:   "run <id>",
	Short: "Fill in variables and run a command",
	Long: `Fill in a command's {variables} and run it.

Without --host the command runs in the configured local shell. With one
or more --host flags, or with deliver set to "ssh" in the config, it runs
on each host over SSH using keys from ssh-agent. Up to 5 hosts run at once
and new connections are paced by ssh.rate.

Examples:
  cv run 8
  cv run 12 --host sw1 --host admin@sw2:2222 --var vlan_id=20`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, db, e, err := loadEntry(args[0])
	if err != nil {
		return err
	}
	// Done with the store before running anything
	db.Close()

	// Input the prompt read ahead of its answers belongs to the command.
	in := bufio.NewReader(stdin)
	text, err := expandEntry(cfg, *e, runVars, false, in)
	if err != nil {
		return err
	}

	hosts := runHosts(cfg, runHostFlags)
	if len(hosts) == 0 {
		sh := executor.Shell{Path: cfg.Shell, Stdin: shellInput(in), Stdout: stdout, Stderr: stderr}
		return sh.Deliver(cmd.Context(), text)
	}
	return runRemote(cmd.Context(), cfg, hosts, e.ID, text)
}

// shellInput returns what the local command reads. Stdin is passed through
// untouched unless prompting left input buffered, so a terminal stays a
// terminal for interactive commands.
func shellInput(in *bufio.Reader) io.Reader {
	if in.Buffered() > 0 {
		return in
	}
	return stdin
}

// RunResponse is the JSON response for run over SSH.
type RunResponse struct {
	ID      int64                 `json:"id"`
	Command string                `json:"command"`
	Hosts   []executor.HostResult `json:"hosts"`
}

func runRemote(ctx context.Context, cfg *config.Config, hosts []string, id int64, text string) error {
	runner, err := executor.NewAgentRunner(sshConfig(cfg))
	if err != nil {
		return withCode(ExitConfigError, err)
	}
	defer runner.Close()

	s := &executor.SSH{Runner: runner, Hosts: hosts, Limiter: newLimiter(cfg.SSH.Rate)}
	if humanOutput {
		s.Out = stdout
		return s.Deliver(ctx, text)
	}

	results := s.Run(ctx, text)
	if err := outputJSON(RunResponse{ID: id, Command: text, Hosts: results}); err != nil {
		return err
	}
	for _, r := range results {
		if r.Error != "" || r.ExitCode != 0 {
			return exitStatus(ExitError)
		}
	}
	return nil
}

