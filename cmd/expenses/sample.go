package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/expenses/internal/cli"
)

func sampleCmd(a *app) *cobra.Command {
	var (
		vendors   int
		purchases int
		seed      int64
	)

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Generate sample purchases",
		Long: `Add randomly named vendors and purchases spread over the 180 days before
2023-11-11. The same seed always produces the same data.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg := a.cfg.SampleConfig()
			if cmd.Flags().Changed("vendors") {
				cfg.Vendors = vendors
			}
			if cmd.Flags().Changed("purchases") {
				cfg.Purchases = purchases
			}
			if cmd.Flags().Changed("seed") {
				cfg.Seed = seed
			}

			store, err := a.initStorage(ctx, nil)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			result, err := a.generateSample(ctx, store, cfg)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
				fmt.Sprintf("Generated %d vendors and %d purchases", result.Vendors, result.Purchases)))
			return nil
		},
	}

	cmd.Flags().IntVar(&vendors, "vendors", 0, "number of vendors (default: sample.vendors)")
	cmd.Flags().IntVar(&purchases, "purchases", 0, "number of purchases (default: sample.purchases)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed")

	return cmd
}
