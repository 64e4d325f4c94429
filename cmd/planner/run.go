package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/viant/planner"
	"github.com/viant/planner/policy"
	"github.com/viant/planner/progress"
	"github.com/viant/planner/service/orchestrator"
)

type runOptions struct {
	goal       string
	prompt     string
	promptFile string
	reason     string
	mode       string
	output     string
}

func (c *cli) runCmd() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a goal, or read goals interactively",
		Long: `Run a single goal given with --goal, or read goals line by line from
stdin until exit, quit or q.

Examples:
  planner run --goal "Review last 5 chats"
  planner run --goal "Check 3 conversations and create PR if any score is below 3"
  planner run --goal "Update prompt" --prompt-file prompt.txt --policy auto`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGoals(cmd.Context(), opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&opts.goal, "goal", "g", "", "goal to run; omit for interactive mode")
	flags.StringVar(&opts.prompt, "prompt", "", "prompt text to propose instead of the default")
	flags.StringVar(&opts.promptFile, "prompt-file", "", "file holding the prompt text to propose")
	flags.StringVar(&opts.reason, "reason", "", "reason recorded with the change request")
	flags.StringVar(&opts.mode, "policy", "", "policy mode for this run: ask, auto or deny")
	flags.StringVarP(&opts.output, "output", "o", "text", "output format: text, json or yaml")
	return cmd
}

func (c *cli) runGoals(ctx context.Context, opts *runOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	overrides, err := opts.overrides()
	if err != nil {
		return err
	}
	srv, err := c.service()
	if err != nil {
		return err
	}
	defer srv.Close(context.Background())

	if opts.mode != "" {
		mode, err := policy.ParseMode(opts.mode)
		if err != nil {
			return err
		}
		configured := srv.Config().Policy
		ctx = policy.WithPolicy(ctx, &policy.Policy{Mode: mode, AllowList: configured.AllowList, BlockList: configured.BlockList})
	}

	if opts.goal != "" {
		return c.runGoal(ctx, srv, opts.goal, overrides, opts.output)
	}

	scanner := bufio.NewScanner(c.stdin)
	for {
		fmt.Fprint(c.stdout, "goal> ")
		if !scanner.Scan() {
			fmt.Fprintln(c.stdout)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit", "q":
			return nil
		}
		if err := c.runGoal(ctx, srv, line, overrides, opts.output); err != nil {
			fmt.Fprintln(c.stderr, "Error:", err)
		}
	}
}

func (c *cli) runGoal(ctx context.Context, srv *planner.Service, goal string, overrides *orchestrator.Overrides, format string) error {
	ctx, _ = progress.WithNewTracker(ctx, goal, func(p progress.Counters) {
		if p.Total == 0 {
			return
		}
		fmt.Fprintf(c.stderr, "evaluated %d/%d", p.Completed, p.Total)
		if p.Degraded > 0 {
			fmt.Fprintf(c.stderr, " (%d degraded)", p.Degraded)
		}
		fmt.Fprintln(c.stderr)
	})
	summary, err := srv.Execute(ctx, goal, overrides)
	if err != nil {
		return err
	}
	if format == "" || format == "text" {
		_, err = fmt.Fprint(c.stdout, summary.String())
		return err
	}
	return render(c.stdout, format, summary)
}

func (o *runOptions) overrides() (*orchestrator.Overrides, error) {
	if o.prompt != "" && o.promptFile != "" {
		return nil, fmt.Errorf("--prompt and --prompt-file are mutually exclusive")
	}
	text := o.prompt
	if o.promptFile != "" {
		data, err := os.ReadFile(o.promptFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read prompt file %s: %w", o.promptFile, err)
		}
		text = string(data)
	}
	return &orchestrator.Overrides{PromptText: text, Reason: o.reason}, nil
}
