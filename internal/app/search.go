package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"watch-catalog/internal/catalog"
)

// Search prints one page of matching snapshots.
func (a *App) Search(ctx context.Context, opts SearchOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot search")
	}
	defer closeStore()

	eng := a.newEngine(store)

	filter := catalog.FilterSpec{
		ReferenceCode: opts.Reference,
		Brand:         opts.Brand,
		Model:         opts.Model,
		Text:          opts.Text,
	}
	req := catalog.PageRequest{
		Page: opts.Page,
		Size: opts.Size,
		Sort: catalog.ParseSortKey(opts.Sort),
	}

	page, err := eng.Search(ctx, filter, req)
	if err != nil {
		return err
	}
	if len(page.Items) == 0 {
		fmt.Fprintln(os.Stdout, "no snapshots found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Reference\tBrand\tModel\tCondition\tPrice (USD)\tAs Of")

	for _, item := range page.Items {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\n",
			item.ReferenceCode,
			item.Brand,
			sanitizeInline(item.Model),
			item.Condition,
			item.FinalAmount.StringFixed(2),
			item.AsOfDate.Format("2006-01-02"),
		)
	}
	writer.Flush()

	fmt.Fprintf(os.Stdout, "page %d/%d, %d total\n", page.Page+1, page.Pages(), page.Total)
	return nil
}

// Summary prints the latest-date rollup for one reference.
func (a *App) Summary(ctx context.Context, reference string) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot summarize")
	}
	defer closeStore()

	summary, err := a.newEngine(store).SummarizeReference(ctx, reference)
	if err != nil {
		return err
	}
	if summary == nil {
		return fmt.Errorf("reference %q not found", reference)
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(writer, "Reference\t%s\n", summary.ReferenceCode)
	fmt.Fprintf(writer, "Brand\t%s\n", summary.Brand)
	fmt.Fprintf(writer, "Min (USD)\t%s\n", summary.MinPriceUSD.StringFixed(2))
	fmt.Fprintf(writer, "Max (USD)\t%s\n", summary.MaxPriceUSD.StringFixed(2))
	fmt.Fprintf(writer, "Avg (USD)\t%s\n", summary.AvgPriceUSD.StringFixed(2))
	fmt.Fprintf(writer, "Conditions\t%s\n", strings.Join(summary.Conditions, ", "))
	fmt.Fprintf(writer, "Colors\t%s\n", strings.Join(summary.Colors, ", "))
	fmt.Fprintf(writer, "Currencies\t%s\n", strings.Join(summary.Currencies, ", "))
	fmt.Fprintf(writer, "As of\t%s\n", summary.LastAsOfDate.Format("2006-01-02"))
	writer.Flush()

	return nil
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	return cleaned
}
