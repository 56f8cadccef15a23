package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var orgsCmd = &cobra.Command{
	Use:   "orgs",
	Short: "List the configured organizations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tk, err := newToolkit()
		if err != nil {
			return err
		}
		for _, name := range tk.registry.Organizations() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the providers configured for an organization",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagOrg == "" {
			return fmt.Errorf("--org is required")
		}
		tk, err := newToolkit()
		if err != nil {
			return err
		}
		org, err := tk.registry.Lookup(flagOrg)
		if err != nil {
			return err
		}
		for _, p := range org.Providers {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t(channel: %s, connection: %s)\n", p.Name, p.ChannelProvider, p.ConnectionID)
		}
		return nil
	},
}
