package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/numberdesk/numberdesk/internal/number_service/provider"
)

var (
	listPrefix string
	listLimit  int
	listCSV    string

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List free phone numbers for a provider",
		Long: `List fetches the full free-number listing for the selected provider,
optionally filtered by prefix and truncated to a limit.

Examples:
  numberctl list --org IDFC --provider "Sarvam 1M"
  numberctl list --org IDFC --provider "Axonwise 1M" --prefix +9180 --limit 50
  numberctl list --org IDFC --provider "Sarvam 1M" --csv numbers.csv`,
		Args: cobra.NoArgs,
		RunE: runList,
	}
)

func init() {
	listCmd.Flags().StringVar(&listPrefix, "prefix", "", "only show numbers starting with this prefix")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "stop after this many numbers (0 = all)")
	listCmd.Flags().StringVar(&listCSV, "csv", "", "write the listing to this CSV file instead of stdout")
}

func runList(cmd *cobra.Command, args []string) error {
	if err := requireTarget(); err != nil {
		return err
	}
	tk, err := newToolkit()
	if err != nil {
		return err
	}

	records, err := tk.client.ListNumbers(cmd.Context(), flagOrg, flagProvider, provider.ListOptions{Prefix: listPrefix})
	if err != nil {
		return err
	}
	if listLimit > 0 && len(records) > listLimit {
		records = records[:listLimit]
	}

	if listCSV != "" {
		f, err := os.Create(listCSV)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", listCSV, err)
		}
		defer f.Close()

		cw := csv.NewWriter(f)
		if err := cw.Write([]string{"phone_number", "prefix", "area_code", "available"}); err != nil {
			return err
		}
		for _, r := range records {
			if err := cw.Write([]string{r.Number, r.Prefix, r.AreaCode, strconv.FormatBool(r.Available)}); err != nil {
				return err
			}
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d numbers to %s\n", len(records), listCSV)
		return nil
	}

	for _, r := range records {
		fmt.Fprintln(cmd.OutOrStdout(), r.Number)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%d numbers\n", len(records))
	return nil
}
