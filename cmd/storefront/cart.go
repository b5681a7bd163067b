package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yuzvak/storefront-checkout/internal/application/use_cases"
	domainErrors "github.com/yuzvak/storefront-checkout/internal/domain/errors"
	"github.com/yuzvak/storefront-checkout/internal/domain/pricing"
)

func cartCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Manage the local cart",
	}
	cmd.AddCommand(cartListCmd(a))
	cmd.AddCommand(cartAddCmd(a))
	cmd.AddCommand(cartStepCmd(a, "inc", "Increase the quantity of an item by one", 1))
	cmd.AddCommand(cartStepCmd(a, "dec", "Decrease the quantity of an item by one", -1))
	cmd.AddCommand(cartRemoveCmd(a))
	cmd.AddCommand(cartClearCmd(a))
	return cmd
}

func cartListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.cart(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			return printCart(a, svc)
		},
	}
}

func cartAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add [productId]",
		Short: "Add one unit of a product",
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
			if !p.InStock() {
				return fmt.Errorf("%s: %w", p.Name, domainErrors.ErrOutOfStock)
			}

			svc, err := a.cart(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			svc.AddItem(cmd.Context(), p)
			fmt.Fprintf(a.out, "Added %s\n", p.Name)
			return printCart(a, svc)
		},
	}
}

func cartStepCmd(a *app, use, short string, delta int) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [id]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.cart(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			if _, ok := svc.Find(args[0]); !ok {
				return fmt.Errorf("%s: %w", args[0], domainErrors.ErrItemNotInCart)
			}
			svc.UpdateQuantity(cmd.Context(), args[0], delta)
			return printCart(a, svc)
		},
	}
}

func cartRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove [id]",
		Short: "Remove an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.cart(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			svc.RemoveItem(cmd.Context(), args[0])
			return printCart(a, svc)
		},
	}
}

func cartClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.cart(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			svc.Clear(cmd.Context())
			return printCart(a, svc)
		},
	}
}

func printCart(a *app, svc *use_cases.CartService) error {
	items := svc.Items()
	if len(items) == 0 {
		fmt.Fprintln(a.out, "Cart is empty")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tQTY\tPRICE\tTOTAL")
	for _, item := range items {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			item.ID, item.Name, item.Quantity,
			pricing.FormatCurrency(item.Price, item.Currency, a.locale),
			pricing.FormatCurrency(item.LineTotal(), item.Currency, a.locale))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Subtotal (%d items): %s\n", svc.Count(),
		pricing.FormatCurrency(svc.Subtotal(), items[0].Currency, a.locale))
	return nil
}
