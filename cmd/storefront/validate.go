package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	domainErrors "github.com/yuzvak/storefront-checkout/internal/domain/errors"
	"github.com/yuzvak/storefront-checkout/internal/domain/payment"
)

func validateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Run local checks without calling the API",
	}
	cmd.AddCommand(validateCardCmd(a))
	return cmd
}

func validateCardCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "card [number] [MM/YYYY]",
		Short: "Check a card number and expiry",
		Long: `Runs the same checks the checkout applies before creating a
transaction: Luhn checksum, brand detection and expiry against today's date.
Nothing is stored or sent anywhere.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			number := payment.SanitizeCardNumber(args[0])
			month, year, err := parseExpiry(args[1])
			if err != nil {
				return err
			}

			brand := payment.CardBrand(number)
			luhn := payment.IsValidLuhn(number)
			expiry := payment.IsValidExpiry(month, year, a.clock.Now())

			brandLabel := string(brand)
			if brand == payment.BrandUnknown {
				brandLabel = "unknown"
			}
			fmt.Fprintf(a.out, "Card:   %s\n", maskCard(number))
			fmt.Fprintf(a.out, "Brand:  %s\n", brandLabel)
			fmt.Fprintf(a.out, "Luhn:   %s\n", passFail(luhn))
			fmt.Fprintf(a.out, "Expiry: %s\n", passFail(expiry))

			switch {
			case !luhn:
				return domainErrors.ErrInvalidCardNumber
			case !expiry:
				return domainErrors.ErrInvalidExpiry
			}
			return nil
		},
	}
}

// parseExpiry accepts MM/YYYY or MM/YY.
func parseExpiry(raw string) (int, int, error) {
	parts := strings.Split(strings.TrimSpace(raw), "/")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expiry %q must look like MM/YYYY", raw)
	}
	month, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("expiry month %q: %w", parts[0], domainErrors.ErrInvalidExpiry)
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("expiry year %q: %w", parts[1], domainErrors.ErrInvalidExpiry)
	}
	if len(parts[1]) == 2 {
		year += 2000
	}
	return month, year, nil
}

func maskCard(number string) string {
	if len(number) <= 4 {
		return strings.Repeat("*", len(number))
	}
	return strings.Repeat("*", len(number)-4) + number[len(number)-4:]
}

func passFail(ok bool) string {
	if ok {
		return "ok"
	}
	return "FAILED"
}
