package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/expenses/internal/cli"
	"github.com/Veraticus/expenses/internal/common"
	"github.com/Veraticus/expenses/internal/export"
	"github.com/Veraticus/expenses/internal/model"
	"github.com/Veraticus/expenses/internal/report"
	"github.com/Veraticus/expenses/internal/tui/themes"
)

const monthLayout = "2006-01"

func reportCmd(a *app) *cobra.Command {
	var (
		currency string
		month    string
		xlsxPath string
		details  bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print monthly expense reports",
		Long: `Print the monthly category breakdown of every currency, most recent month first.

Purchases are grouped by their effective category: the purchase category if
set, else the vendor category, else Other.`,
		Example: `  expenses report --currency USD --month 2024-02 --details
  expenses report --xlsx expenses.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			filter := reportFilter{}
			if currency != "" {
				code, err := model.ParseCurrency(currency)
				if err != nil {
					return common.NewUserError("invalid --currency", err)
				}
				filter.currency = code
			}
			if month != "" {
				t, err := time.ParseInLocation(monthLayout, month, a.cfg.Location)
				if err != nil {
					return common.NewUserError("--month must look like 2024-02", err)
				}
				filter.month = &t
			}

			store, err := a.initStorage(ctx, nil)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			reports, err := report.NewWatcher(store, a.cfg.Location).Load(ctx)
			if err != nil {
				return fmt.Errorf("failed to build reports: %w", err)
			}
			reports = filter.apply(reports)

			if xlsxPath != "" {
				return writeXLSX(cmd.OutOrStdout(), xlsxPath, reports, a.formatter())
			}

			if len(reports) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No purchases found."))
				return nil
			}
			printReports(cmd.OutOrStdout(), reports, a.formatter(), details)
			return nil
		},
	}

	cmd.Flags().StringVar(&currency, "currency", "", "only report this currency")
	cmd.Flags().StringVar(&month, "month", "", "only report this month (YYYY-MM)")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "write the report to an Excel workbook instead")
	cmd.Flags().BoolVar(&details, "details", false, "list the purchases of every category")

	return cmd
}

type reportFilter struct {
	month    *time.Time
	currency string
}

// apply narrows reports down to the selected currency and month. Currencies
// left without months are dropped.
func (f reportFilter) apply(reports map[string]*report.Collection) map[string]*report.Collection {
	out := make(map[string]*report.Collection, len(reports))
	for code, c := range reports {
		if f.currency != "" && code != f.currency {
			continue
		}
		if f.month == nil {
			out[code] = c
			continue
		}
		if i := c.MonthIndex(*f.month); i >= 0 {
			out[code] = &report.Collection{Currency: code, Months: []report.MonthReport{c.Months[i]}}
		}
	}
	return out
}

func printReports(w io.Writer, reports map[string]*report.Collection, f *report.Formatter, details bool) {
	codes := make([]string, 0, len(reports))
	for code := range reports {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		for _, month := range reports[code].Months {
			fmt.Fprintln(w, cli.FormatReportTitle(f.MonthTitle(month.Month)+" · "+code, f.Amount(month.Total, code)))

			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
			for _, cat := range month.Categories {
				fmt.Fprintf(tw, "%s %s\t%d\t%s\t\n",
					themes.GetCategoryIcon(cat.Category.Icon), cat.Category.Name,
					len(cat.Purchases), f.Amount(cat.Total, code))
				if !details {
					continue
				}
				for _, e := range cat.Purchases {
					fmt.Fprintf(tw, "    %s\t%s\t%s\t\n",
						e.Vendor.Name, f.Timestamp(e.Purchase.Timestamp), f.Amount(e.Purchase.Amount, code))
				}
			}
			_ = tw.Flush()
			fmt.Fprintln(w)
		}
	}
}

func writeXLSX(out io.Writer, path string, reports map[string]*report.Collection, f *report.Formatter) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := export.WriteXLSX(file, reports, f); err != nil {
		return err
	}

	sheets := make([]string, 0, len(reports))
	for code := range reports {
		sheets = append(sheets, code)
	}
	sort.Strings(sheets)
	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Wrote %s (%s)", path, strings.Join(sheets, ", "))))
	return nil
}

func monthsCmd(a *app) *cobra.Command {
	var currency string

	cmd := &cobra.Command{
		Use:   "months",
		Short: "List the months that have purchases in a currency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if currency == "" {
				currency = a.cfg.DefaultCurrency
			}
			code, err := model.ParseCurrency(currency)
			if err != nil {
				return common.NewUserError("invalid --currency", err)
			}

			store, err := a.initStorage(ctx, nil)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			span, err := store.PurchaseTimeRange(ctx, code)
			if err != nil {
				return fmt.Errorf("failed to get purchase range: %w", err)
			}
			if span == nil {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo(fmt.Sprintf("No %s purchases found.", code)))
				return nil
			}

			f := a.formatter()
			for _, m := range report.Months(*span, a.cfg.Location) {
				fmt.Fprintln(cmd.OutOrStdout(), f.MonthTitle(m))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&currency, "currency", "", "ISO 4217 currency code (default: import.default_currency)")

	return cmd
}
