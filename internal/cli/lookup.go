package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/timmy/figureimg/internal/domain"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup [item-url]",
	Short: "Resolve the images of one item page",
	Args:  cobra.ExactArgs(1),
	RunE:  runLookup,
}

func init() {
	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
	result, err := productService.Lookup(context.Background(), args[0])
	if err != nil {
		var resErr *domain.ResolutionError
		if errors.As(err, &resErr) && resErr.Title != "" {
			return fmt.Errorf("lookup failed for %q: %w", resErr.Title, err)
		}
		return fmt.Errorf("lookup failed: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, result)
	}

	cmd.Println(result.Title)
	for _, img := range result.Images {
		cmd.Printf("  %s\n", img)
	}
	return nil
}
