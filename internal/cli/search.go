package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/timmy/figureimg/internal/domain"
)

var (
	searchSources string
	searchLine    string
	searchLimit   int
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search every source for figure images",
	Long: `Searches the cached visual guides and the enabled live sources,
ranks the candidates and prints the merged, de-duplicated results.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchSources, "sources", "s", "all", "comma separated source ids")
	searchCmd.Flags().StringVarP(&searchLine, "line", "l", "", "product line hint, e.g. \"DC Multiverse\"")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "print at most n results (0 prints all)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	resp, err := searchService.Search(context.Background(), domain.SearchQuery{
		Text:         strings.Join(args, " "),
		SourceFilter: domain.ParseSourceFilter(searchSources),
		LineHint:     searchLine,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if searchLimit > 0 && len(resp.Results) > searchLimit {
		resp.Results = resp.Results[:searchLimit]
		resp.Count = len(resp.Results)
	}

	if jsonOutput {
		return printJSON(cmd, resp)
	}

	if len(resp.Results) == 0 {
		cmd.Println("No results found.")
		return nil
	}
	cmd.Printf("Results for %q (%d):\n\n", resp.Query, resp.Count)
	for i, r := range resp.Results {
		cmd.Printf("  [%d] %s\n", i+1, r.Title)
		cmd.Printf("      %s (%s)\n", r.ImageURL, r.SourceName)
	}
	return nil
}
