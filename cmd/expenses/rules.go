package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Veraticus/expenses/internal/cli"
	"github.com/Veraticus/expenses/internal/rules"
)

func rulesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage SMS rules",
		Long: `SMS rules turn bank notifications into purchases. A rule has a sender, a
regular expression that must match the whole message body with named groups
AMOUNT and VENDOR, and the currency of the amount.`,
	}

	cmd.AddCommand(listRulesCmd(a))
	cmd.AddCommand(loadRulesCmd(a))

	return cmd
}

func listRulesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List SMS rules in match order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := a.initStorage(ctx, nil)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			smsRules, err := store.GetSmsRules(ctx)
			if err != nil {
				return fmt.Errorf("failed to get sms rules: %w", err)
			}
			if len(smsRules) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.InfoStyle.Render("No SMS rules found. Use 'expenses rules load' to add some."))
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			headerStyle := lipgloss.NewStyle().Bold(true).Foreground(cli.PrimaryColor)
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				headerStyle.Render("Sender"),
				headerStyle.Render("Currency"),
				headerStyle.Render("Pattern"))
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				strings.Repeat("-", 12),
				strings.Repeat("-", 8),
				strings.Repeat("-", 40))

			for _, r := range smsRules {
				fmt.Fprintf(w, "%s\t%s\t%s\n", r.Sender, r.Currency, r.Regex)
			}
			return nil
		},
	}
}

func loadRulesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "load <csv>",
		Short: "Append SMS rules from a CSV file",
		Long: `Append the rules of a CSV file with sender, regex and currency columns.
Rules are tried in the order they were added, so existing rules keep precedence.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			smsRules, err := rules.LoadFile(args[0])
			if err != nil {
				return err
			}

			store, err := a.initStorage(ctx, nil)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			tx, err := store.BeginTx(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = tx.Rollback() }()

			n, err := rules.Store(ctx, tx, smsRules)
			if err != nil {
				return err
			}
			if err := tx.Commit(); err != nil {
				return fmt.Errorf("failed to commit rules: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Loaded %d rules from %s", n, args[0])))
			return nil
		},
	}
}
