package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check NUMBER [NUMBER...]",
	Short: "Check whether phone numbers are available",
	Long: `Check fetches the provider's free-number listing once and reports, for
each given number, whether it appears in the listing.

Example:
  numberctl check --org IDFC --provider "Sarvam 1M" +10000000001 +10000000002`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireTarget(); err != nil {
			return err
		}
		tk, err := newToolkit()
		if err != nil {
			return err
		}

		results, err := tk.client.CheckAvailability(cmd.Context(), flagOrg, flagProvider, args)
		if err != nil {
			return err
		}

		numbers := make([]string, 0, len(results))
		for number := range results {
			numbers = append(numbers, number)
		}
		sort.Strings(numbers)
		for _, number := range numbers {
			status := "unavailable"
			if results[number] {
				status = "available"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", number, status)
		}
		return nil
	},
}
