package greenops

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/currency"
)

// ParseCurrency validates an ISO 4217 code. An empty code means DefaultCurrency.
func ParseCurrency(code string) (currency.Unit, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = DefaultCurrency
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return currency.Unit{}, fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}
	return unit, nil
}

// ConvertToCurrency prices an annual kg CO2 total:
//
//	amount = totalKg / 1000 * perTonne * socialCostMultiplier
//
// rounded half-up to two decimals. The result is linear in totalKg.
func ConvertToCurrency(totalKg float64, price Price) (CurrencyValue, error) {
	for _, v := range []float64{totalKg, price.PerTonne, price.SocialCostMultiplier} {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return CurrencyValue{}, ErrCalculationOverflow
		}
		if v < 0 {
			return CurrencyValue{}, ErrNegativeValue
		}
	}

	unit, err := ParseCurrency(price.Currency)
	if err != nil {
		return CurrencyValue{}, err
	}
	price.Currency = unit.String()

	amount := Round2(totalKg / KgPerTonne * price.PerTonne * price.SocialCostMultiplier)
	return CurrencyValue{
		Amount:    amount,
		Currency:  price.Currency,
		Formatted: printer.Sprint(currency.Symbol(unit.Amount(amount))),
		Price:     price,
	}, nil
}

// Round2 rounds half-up at 10^-2 resolution. Footprint components and
// currency amounts share it.
func Round2(x float64) float64 {
	return math.Floor(x*100+0.5) / 100
}
