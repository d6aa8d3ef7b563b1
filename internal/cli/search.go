package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"watch-catalog/internal/app"
)

var (
	searchReference string
	searchBrand     string
	searchModel     string
	searchText      string
	searchPage      int
	searchSize      int
	searchSort      string
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Display one page of matching snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		if searchPage < 0 {
			return fmt.Errorf("--page cannot be negative")
		}

		opts := app.SearchOptions{
			Reference: searchReference,
			Brand:     searchBrand,
			Model:     searchModel,
			Text:      searchText,
			Page:      searchPage,
			Size:      searchSize,
			Sort:      searchSort,
		}

		return getApp().Search(cmd.Context(), opts)
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchReference, "reference", "", "Reference code to match")
	searchCmd.Flags().StringVar(&searchBrand, "brand", "", "Brand to match")
	searchCmd.Flags().StringVar(&searchModel, "model", "", "Model to match")
	searchCmd.Flags().StringVar(&searchText, "text", "", "Free-text search")
	searchCmd.Flags().IntVar(&searchPage, "page", 0, "Zero-based page number")
	searchCmd.Flags().IntVar(&searchSize, "size", 20, "Page size")
	searchCmd.Flags().StringVar(&searchSort, "sort", "date_desc", "Sort key (date|price|brand, _asc|_desc)")
}
