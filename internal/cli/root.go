// Package cli implements figurectl, a command line client that runs
// searches, lookups and cache maintenance in-process.
package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/timmy/figureimg/internal/app"
	"github.com/timmy/figureimg/internal/config"
	"github.com/timmy/figureimg/internal/domain"
	"github.com/timmy/figureimg/internal/logger"
)

// Searcher runs one aggregated search.
type Searcher interface {
	Search(ctx context.Context, q domain.SearchQuery) (*domain.SearchResponse, error)
}

// ProductResolver resolves a single item page.
type ProductResolver interface {
	Lookup(ctx context.Context, itemURL string) (*domain.ProductResult, error)
}

// CatalogAdmin refreshes and describes the catalog cache.
type CatalogAdmin interface {
	Refresh(ctx context.Context) *domain.RefreshResult
	Status() []domain.CatalogStatus
}

// Services used by the commands. They are built from configuration on first
// use unless already set.
var (
	searchService  Searcher
	productService ProductResolver
	catalogService CatalogAdmin
)

var (
	configPath string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:           "figurectl",
	Short:         "Find action figure images from the command line",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return ensureServices()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func ensureServices() error {
	if searchService != nil && productService != nil && catalogService != nil {
		return nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	a, err := app.New(cfg, logger.GetDefault())
	if err != nil {
		return err
	}
	if searchService == nil {
		searchService = a.Search
	}
	if productService == nil {
		productService = a.Product
	}
	if catalogService == nil {
		catalogService = a.Catalog
	}
	return nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
