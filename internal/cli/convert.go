package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rshade/bytecarbon/internal/config"
	"github.com/rshade/bytecarbon/internal/greenops"
)

// ConvertParams holds the parameters for the convert command execution.
type ConvertParams struct {
	Amount     float64
	Unit       string
	Price      float64
	Multiplier float64
	Currency   string
	Output     string
}

// convertOutput is the --output json document.
type convertOutput struct {
	InputKg       float64                    `json:"inputKg"`
	Value         greenops.CurrencyValue     `json:"value"`
	Equivalencies greenops.EquivalencyOutput `json:"equivalencies"`
}

// NewConvertCmd creates the "convert" command.
func NewConvertCmd() *cobra.Command {
	var params ConvertParams

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Price a carbon amount and show equivalencies",
		Long: `Convert a carbon amount into money using a price per tonne and a social-cost
multiplier, and show everyday equivalencies. Price, multiplier and currency
default to the configured factors.`,
		Example: `  # Price 113.57 kg at the configured carbon price
  bytecarbon convert --kg 113.57

  # 2.5 tonnes at 80 EUR per tonne with a 1.5 multiplier
  bytecarbon convert --amount 2.5 --unit t --price 80 --multiplier 1.5 --currency EUR`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return executeConvert(cmd, params)
		},
	}

	cmd.Flags().Float64Var(&params.Amount, "kg", 0, "Carbon amount in kg CO2")
	cmd.Flags().Float64Var(&params.Amount, "amount", 0, "Carbon amount in --unit")
	cmd.Flags().StringVar(&params.Unit, "unit", "kg", "Unit of --amount (g, kg, t, lb)")
	cmd.Flags().Float64Var(&params.Price, "price", 0, "Price per tonne CO2 (default: configured)")
	cmd.Flags().Float64Var(&params.Multiplier, "multiplier", 0, "Social-cost multiplier (default: configured)")
	cmd.Flags().StringVar(&params.Currency, "currency", "", "ISO 4217 currency code (default: configured)")
	cmd.Flags().StringVar(&params.Output, "output", "", "Output format (table, json)")

	cmd.MarkFlagsMutuallyExclusive("kg", "amount")
	cmd.MarkFlagsOneRequired("kg", "amount")
	cmd.MarkFlagsMutuallyExclusive("kg", "unit")

	return cmd
}

func executeConvert(cmd *cobra.Command, params ConvertParams) error {
	cfg, err := activeConfig()
	if err != nil {
		return err
	}
	format, err := resolveFormat(cfg, params.Output)
	if err != nil {
		return inputError(err)
	}

	kg, err := greenops.NormalizeToKg(params.Amount, params.Unit)
	if err != nil {
		return inputError(fmt.Errorf("converting %s %s: %w",
			strconv.FormatFloat(params.Amount, 'f', -1, 64), params.Unit, err))
	}

	price := cfg.Factors.Price()
	flags := cmd.Flags()
	if flags.Changed("price") {
		price.PerTonne = params.Price
	}
	if flags.Changed("multiplier") {
		price.SocialCostMultiplier = params.Multiplier
	}
	if flags.Changed("currency") {
		price.Currency = params.Currency
	}

	value, err := greenops.ConvertToCurrency(kg, price)
	if err != nil {
		return inputError(err)
	}
	equivalencies, err := greenops.ForKg(kg)
	if err != nil {
		return inputError(err)
	}

	logger.Debug().Ctx(cmd.Context()).
		Float64("kg", kg).
		Float64("amount", value.Amount).
		Str("currency", value.Currency).
		Msg("converted carbon amount")

	w := cmd.OutOrStdout()
	if format != config.FormatTable {
		return json.NewEncoder(w).Encode(convertOutput{
			InputKg:       kg,
			Value:         value,
			Equivalencies: equivalencies,
		})
	}

	fmt.Fprintf(w, "%s = %s\n", greenops.FormatKg(kg, cfg.Output.Precision), value.Formatted)
	fmt.Fprintf(w, "  at %s %s per tonne x %s\n",
		greenops.FormatFloat(price.PerTonne, 2), value.Currency,
		strconv.FormatFloat(price.SocialCostMultiplier, 'f', -1, 64))
	if !equivalencies.IsEmpty {
		fmt.Fprintln(w, equivalencies.DisplayText)
	}
	return nil
}
