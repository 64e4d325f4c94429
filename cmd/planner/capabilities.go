package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/viant/planner/service/capability"
)

func (c *cli) capabilitiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "capabilities",
		Short: "List well-known capabilities and whether they are configured",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := c.service()
			if err != nil {
				return err
			}
			registry := srv.Registry()
			for _, def := range capability.Definitions {
				state := "not configured"
				if registry.Lookup(def.Name) != nil {
					state = "configured"
				}
				fmt.Fprintf(c.stdout, "%s (%s)\n  %s\n", def.Name, state, def.Description)
				for _, name := range def.Parameters.Names() {
					param := def.Parameters[name]
					var traits []string
					traits = append(traits, param.Type)
					if param.Required {
						traits = append(traits, "required")
					}
					if param.Default != nil && param.Default != "" {
						traits = append(traits, fmt.Sprintf("default %v", param.Default))
					}
					fmt.Fprintf(c.stdout, "  - %s [%s] %s\n", name, strings.Join(traits, ", "), param.Description)
				}
			}
			return nil
		},
	}
}
