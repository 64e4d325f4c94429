// Package main implements the planner CLI: it runs goals against the
// configured capabilities and lets approvers decide pending change requests.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/viant/planner"
	"github.com/viant/planner/service/approval"
	"gopkg.in/yaml.v3"
)

// Exit codes.
const (
	exitOK                = 0
	exitError             = 1
	exitNotFound          = 2
	exitInvalidTransition = 3
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd(stdin, stdout, stderr)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return exitCode(err)
	}
	return exitOK
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, approval.ErrNotFound), errors.Is(err, approval.ErrInvalidID):
		return exitNotFound
	case errors.Is(err, approval.ErrInvalidTransition):
		return exitInvalidTransition
	}
	return exitError
}

// cli carries state shared by all commands.
type cli struct {
	configPath string
	stdin      io.Reader
	stdout     io.Writer
	stderr     io.Writer
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	c := &cli{stdin: stdin, stdout: stdout, stderr: stderr}
	root := &cobra.Command{
		Use:   "planner",
		Short: "Goal driven prompt maintenance with human approval",
		Long: `planner reviews recent chatbot conversations, scores the responses and
proposes system prompt updates. State changing actions wait for approval
unless the policy says otherwise.

Configuration is read from --config (YAML) and PLANNER_ prefixed
environment variables, e.g. PLANNER_APPROVAL_DIR or PLANNER_POLICY_MODE.`,
		Version:       planner.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", os.Getenv("PLANNER_CONFIG"), "path to YAML configuration")
	root.AddCommand(c.runCmd(), c.approvalsCmd(), c.capabilitiesCmd())
	return root
}

func (c *cli) service() (*planner.Service, error) {
	cfg, err := planner.LoadConfig(c.configPath)
	if err != nil {
		return nil, err
	}
	return planner.New(planner.WithConfig(cfg))
}

// render writes value as json or yaml; text output is left to the caller.
func render(w io.Writer, format string, value interface{}) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(value); err != nil {
			return err
		}
		return encoder.Close()
	}
	return fmt.Errorf("unsupported output format %q, expected text, json or yaml", format)
}
