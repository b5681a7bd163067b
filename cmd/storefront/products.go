package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yuzvak/storefront-checkout/internal/domain/pricing"
)

func productsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Browse the product catalog",
	}
	cmd.AddCommand(productsListCmd(a))
	cmd.AddCommand(productsShowCmd(a))
	return cmd
}

func productsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, err := a.gateway(cmd)
			if err != nil {
				return err
			}
			products, _, err := gw.ListProducts(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tPRICE\tSTOCK")
			for _, p := range products {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", p.ID, p.Name, pricing.FormatCurrency(p.Price, p.Currency, a.locale), p.Stock)
			}
			return tw.Flush()
		},
	}
}

func productsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, err := a.gateway(cmd)
			if err != nil {
				return err
			}
			p, _, err := gw.GetProduct(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "%s (%s)\n", p.Name, p.ID)
			fmt.Fprintf(a.out, "  Price: %s\n", pricing.FormatCurrency(p.Price, p.Currency, a.locale))
			fmt.Fprintf(a.out, "  Stock: %d\n", p.Stock)
			if p.LongDescription != "" {
				fmt.Fprintf(a.out, "\n%s\n", p.LongDescription)
			}
			return nil
		},
	}
}
