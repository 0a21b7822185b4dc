package greenops

import (
	"fmt"
	"math"
)

type equivalencyDef struct {
	kind   EquivalencyType
	factor float64
	label  string
}

//nolint:gochecknoglobals // Read-only table.
var equivalencyDefs = []equivalencyDef{
	{EquivalencyMilesDriven, EPAMilesDrivenFactor, "miles driven"},
	{EquivalencySmartphonesCharged, EPASmartphoneChargeFactor, "smartphones charged"},
	{EquivalencyTreeSeedlings, EPATreeSeedlingFactor, "tree seedlings grown for 10 years"},
	{EquivalencyHomeDays, EPAHomeDayFactor, "days of home electricity"},
}

// Calculate normalizes input to kilograms and computes its equivalencies.
// A normalization error yields an empty output together with the error.
func Calculate(input CarbonInput) (EquivalencyOutput, error) {
	kg, err := NormalizeToKg(input.Value, input.Unit)
	if err != nil {
		return EquivalencyOutput{IsEmpty: true}, err
	}
	return ForKg(kg)
}

// ForKg computes equivalencies for an annual kg CO2 total. Totals under
// MinEquivalencyThresholdKg produce an empty output without error.
func ForKg(kg float64) (EquivalencyOutput, error) {
	if math.IsInf(kg, 0) || math.IsNaN(kg) {
		return EquivalencyOutput{IsEmpty: true}, ErrCalculationOverflow
	}
	if kg < 0 {
		return EquivalencyOutput{IsEmpty: true}, ErrNegativeValue
	}
	if kg < MinEquivalencyThresholdKg {
		return EquivalencyOutput{InputKg: kg, IsEmpty: true}, nil
	}

	results := make([]EquivalencyResult, 0, len(equivalencyDefs))
	for _, def := range equivalencyDefs {
		v := kg / def.factor
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return EquivalencyOutput{IsEmpty: true}, ErrCalculationOverflow
		}
		results = append(results, EquivalencyResult{
			Type:           def.kind,
			Value:          v,
			FormattedValue: formatEquivalencyValue(v),
			Label:          def.label,
		})
	}

	miles := results[EquivalencyMilesDriven].FormattedValue
	phones := results[EquivalencySmartphonesCharged].FormattedValue

	return EquivalencyOutput{
		InputKg:     kg,
		Results:     results,
		DisplayText: fmt.Sprintf("Equivalent to driving ~%s miles or charging ~%s smartphones", miles, phones),
		CompactText: fmt.Sprintf("(≈ %s mi, %s phones)", miles, phones),
	}, nil
}

// Lookup returns the result of the given type, if present.
func (o EquivalencyOutput) Lookup(kind EquivalencyType) (EquivalencyResult, bool) {
	for _, r := range o.Results {
		if r.Type == kind {
			return r, true
		}
	}
	return EquivalencyResult{}, false
}

func formatEquivalencyValue(v float64) string {
	if v >= LargeNumberThreshold {
		return FormatLarge(v)
	}
	return FormatNumber(int64(math.Round(v)))
}
