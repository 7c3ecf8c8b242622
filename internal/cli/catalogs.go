package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refetch every catalog and print the entry counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		result := catalogService.Refresh(context.Background())
		if jsonOutput {
			return printJSON(cmd, result)
		}
		for _, st := range catalogService.Status() {
			cmd.Printf("  %-18s %d\n", st.ID, result.Counts[st.ID])
		}
		cmd.Printf("Total: %d\n", result.Total)
		return nil
	},
}

var catalogsCmd = &cobra.Command{
	Use:   "catalogs",
	Short: "List configured catalogs",
	Long:  "Lists configured catalogs with their cached state. Nothing is fetched.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		status := catalogService.Status()
		if jsonOutput {
			return printJSON(cmd, status)
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCOUNT\tFETCHED\tURL")
		for _, st := range status {
			fetched := st.FetchedAt
			if fetched == "" {
				fetched = "-"
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", st.ID, st.Count, fetched, st.URL)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(catalogsCmd)
}
