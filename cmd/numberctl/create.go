package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/numberdesk/numberdesk/internal/number_service/domain"
)

var (
	createPrecheck bool

	createCmd = &cobra.Command{
		Use:   "create NUMBER [NUMBER...]",
		Short: "Register phone numbers as endpoints",
		Long: `Create registers each given number as an endpoint on the provider
connection. Failures are reported per number; one rejection never stops
the rest of the batch.

With --precheck, numbers missing from the current free-number listing are
marked failed up front without calling the provider for them.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCreate,
	}
)

func init() {
	createCmd.Flags().BoolVar(&createPrecheck, "precheck", false, "skip numbers that are not in the free-number listing")
}

func runCreate(cmd *cobra.Command, args []string) error {
	if err := requireTarget(); err != nil {
		return err
	}
	tk, err := newToolkit()
	if err != nil {
		return err
	}

	numbers := args
	var results []domain.CreateResult

	if createPrecheck {
		availability, err := tk.client.CheckAvailability(cmd.Context(), flagOrg, flagProvider, numbers)
		if err != nil {
			return err
		}
		eligible := make([]string, 0, len(numbers))
		skipped := make(map[string]bool, len(numbers))
		for _, number := range numbers {
			if availability[number] {
				eligible = append(eligible, number)
			} else {
				skipped[number] = true
			}
		}

		var created []domain.CreateResult
		if len(eligible) > 0 {
			created, err = tk.client.CreateEndpoints(cmd.Context(), flagOrg, flagProvider, eligible)
			if err != nil {
				return err
			}
		}
		byNumber := make(map[string]domain.CreateResult, len(created))
		for _, res := range created {
			byNumber[domain.NormalizeNumber(res.Number)] = res
		}
		for _, number := range numbers {
			if skipped[number] {
				results = append(results, domain.CreateResult{Number: number, Created: false, Error: "number is not available in the current listing"})
				continue
			}
			results = append(results, byNumber[domain.NormalizeNumber(number)])
		}
	} else {
		results, err = tk.client.CreateEndpoints(cmd.Context(), flagOrg, flagProvider, numbers)
		if err != nil {
			return err
		}
	}

	createdCount := 0
	for _, res := range results {
		if res.Created {
			createdCount++
			fmt.Fprintf(cmd.OutOrStdout(), "%s\tcreated\n", res.Number)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\tfailed\t%s\n", res.Number, res.Error)
		}
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%d created, %d failed\n", createdCount, len(results)-createdCount)
	return nil
}
