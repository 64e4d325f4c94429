package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/viant/planner/service/approval"
)

func (c *cli) approvalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "approvals",
		Aliases: []string{"approval"},
		Short:   "List and decide approval requests",
	}
	cmd.AddCommand(c.listCmd(), c.showCmd(),
		c.decideCmd("approve", approval.StatusApproved),
		c.decideCmd("reject", approval.StatusRejected))
	return cmd
}

func (c *cli) listCmd() *cobra.Command {
	var all bool
	var status string
	var output string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List approval requests, pending ones by default",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var statuses []approval.Status
			switch {
			case all:
			case status != "":
				for _, item := range strings.Split(status, ",") {
					parsed, err := approval.ParseStatus(item)
					if err != nil {
						return err
					}
					statuses = append(statuses, parsed)
				}
			default:
				statuses = []approval.Status{approval.StatusPending}
			}
			srv, err := c.service()
			if err != nil {
				return err
			}
			requests, err := srv.Gateway().List(cmd.Context(), statuses...)
			if err != nil {
				return err
			}
			if output != "text" {
				return render(c.stdout, output, requests)
			}
			if len(requests) == 0 {
				fmt.Fprintln(c.stdout, "No approval requests")
				return nil
			}
			w := tabwriter.NewWriter(c.stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tACTION\tSTATUS\tCREATED\tREASON")
			for _, request := range requests {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", request.ID, request.Action, request.Status,
					request.CreatedAt.Format(time.RFC3339), request.Reason())
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "list requests in every status")
	cmd.Flags().StringVar(&status, "status", "", "comma separated statuses to list")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text, json or yaml")
	return cmd
}

func (c *cli) showCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "show <request-id>",
		Short: "Show one approval request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := c.service()
			if err != nil {
				return err
			}
			request, err := srv.Gateway().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if output != "text" {
				return render(c.stdout, output, request)
			}
			c.printRequest(request)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text, json or yaml")
	return cmd
}

func (c *cli) decideCmd(name string, outcome approval.Status) *cobra.Command {
	var notes string
	cmd := &cobra.Command{
		Use:   name + " <request-id>",
		Short: strings.ToUpper(name[:1]) + name[1:] + " a pending approval request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := c.service()
			if err != nil {
				return err
			}
			request, err := srv.Gateway().Decide(cmd.Context(), args[0], outcome, notes)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.stdout, "Request %s is %s\n", request.ID, request.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&notes, "notes", "", "notes recorded with the decision")
	return cmd
}

func (c *cli) printRequest(r *approval.Request) {
	fmt.Fprintf(c.stdout, "ID:        %s\n", r.ID)
	fmt.Fprintf(c.stdout, "Action:    %s\n", r.Action)
	fmt.Fprintf(c.stdout, "Status:    %s\n", r.Status)
	fmt.Fprintf(c.stdout, "Created:   %s\n", r.CreatedAt.Format(time.RFC3339))
	if r.DecidedAt != nil {
		fmt.Fprintf(c.stdout, "Decided:   %s\n", r.DecidedAt.Format(time.RFC3339))
	}
	if r.ProcessedAt != nil {
		fmt.Fprintf(c.stdout, "Processed: %s\n", r.ProcessedAt.Format(time.RFC3339))
	}
	if r.Notes != "" {
		fmt.Fprintf(c.stdout, "Notes:     %s\n", r.Notes)
	}
	keys := make([]string, 0, len(r.Payload))
	for key := range r.Payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	fmt.Fprintln(c.stdout, "Payload:")
	for _, key := range keys {
		fmt.Fprintf(c.stdout, "  %s: %v\n", key, r.Payload[key])
	}
}
