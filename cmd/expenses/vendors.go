package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Veraticus/expenses/internal/cli"
	"github.com/Veraticus/expenses/internal/common"
)

func vendorsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vendors",
		Short: "Manage vendors",
		Long:  `List vendors and assign the default category of all their purchases.`,
	}

	cmd.AddCommand(listVendorsCmd(a))
	cmd.AddCommand(setVendorCategoryCmd(a))

	return cmd
}

func listVendorsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all vendors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := a.initStorage(ctx, nil)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			vendors, err := store.GetVendors(ctx)
			if err != nil {
				return fmt.Errorf("failed to get vendors: %w", err)
			}
			if len(vendors) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.InfoStyle.Render("No vendors found. Import some purchases first."))
				return nil
			}

			categories, err := store.CategoriesByID(ctx)
			if err != nil {
				return fmt.Errorf("failed to get categories: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			headerStyle := lipgloss.NewStyle().Bold(true).Foreground(cli.PrimaryColor)
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				headerStyle.Render("ID"),
				headerStyle.Render("Vendor"),
				headerStyle.Render("Category"))
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				strings.Repeat("-", 4),
				strings.Repeat("-", 30),
				strings.Repeat("-", 20))

			for _, v := range vendors {
				category := "-"
				if v.CategoryID != nil {
					if c, ok := categories[*v.CategoryID]; ok {
						category = c.Name
					}
				}
				fmt.Fprintf(w, "%d\t%s\t%s\n", v.ID, v.Name, category)
			}
			return nil
		},
	}
}

func setVendorCategoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set-category <vendor> <category|none>",
		Short: "Set the category of all purchases of a vendor",
		Long: `Set the default category of a vendor. Every purchase of the vendor without
its own category moves to the new category. Use "none" to clear it.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := a.initStorage(ctx, nil)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			vendor, err := store.GetVendorByName(ctx, args[0])
			if errors.Is(err, common.ErrNotFound) {
				return common.NewUserError(fmt.Sprintf("unknown vendor %q", args[0]), err)
			}
			if err != nil {
				return fmt.Errorf("failed to look up vendor: %w", err)
			}

			categoryID, err := resolveCategory(ctx, store, args[1])
			if err != nil {
				return err
			}

			if err := store.SetVendorCategory(ctx, vendor.ID, categoryID); err != nil {
				return fmt.Errorf("failed to recategorize %s: %w", vendor.Name, err)
			}

			category := "no category"
			if categoryID != nil {
				category = args[1]
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%s is now in %s", vendor.Name, category)))
			return nil
		},
	}
}
