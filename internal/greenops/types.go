// Package greenops turns an annual kg CO2 total into things a reader can
// relate to: EPA equivalencies such as miles driven, and a monetary value
// under a carbon price.
package greenops

import "fmt"

// EquivalencyType is a category of carbon equivalency.
type EquivalencyType int

const (
	// EquivalencyMilesDriven is miles driven in an average passenger vehicle.
	EquivalencyMilesDriven EquivalencyType = iota

	// EquivalencySmartphonesCharged is full smartphone charges.
	EquivalencySmartphonesCharged

	// EquivalencyTreeSeedlings is tree seedlings grown for 10 years to absorb the total.
	EquivalencyTreeSeedlings

	// EquivalencyHomeDays is days of average US home electricity use.
	EquivalencyHomeDays
)

// String returns the stable name of the type, used as the JSON key.
func (e EquivalencyType) String() string {
	switch e {
	case EquivalencyMilesDriven:
		return "MilesDriven"
	case EquivalencySmartphonesCharged:
		return "SmartphonesCharged"
	case EquivalencyTreeSeedlings:
		return "TreeSeedlings"
	case EquivalencyHomeDays:
		return "HomeDays"
	default:
		return fmt.Sprintf("EquivalencyType(%d)", e)
	}
}

// MarshalText encodes the type by name.
func (e EquivalencyType) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText decodes a name written by MarshalText.
func (e *EquivalencyType) UnmarshalText(text []byte) error {
	for t := EquivalencyMilesDriven; t <= EquivalencyHomeDays; t++ {
		if t.String() == string(text) {
			*e = t
			return nil
		}
	}
	return fmt.Errorf("unknown equivalency type %q", text)
}

// CarbonInput is a carbon amount in any recognized unit.
type CarbonInput struct {
	Value float64 `json:"value"`
	// Unit is one of g, kg, t, lb, optionally suffixed with CO2e.
	Unit string `json:"unit"`
}

// EquivalencyResult is one calculated equivalency.
type EquivalencyResult struct {
	Type           EquivalencyType `json:"type"`
	Value          float64         `json:"value"`
	FormattedValue string          `json:"formattedValue"`
	Label          string          `json:"label"`
}

// EquivalencyOutput is every equivalency for one total.
type EquivalencyOutput struct {
	InputKg float64             `json:"inputKg"`
	Results []EquivalencyResult `json:"results"`
	// DisplayText is the prose form, e.g.
	// "Equivalent to driving ~781 miles or charging ~18,248 smartphones".
	DisplayText string `json:"displayText"`
	// CompactText is the short form used in table footers.
	CompactText string `json:"compactText"`
	IsEmpty     bool   `json:"isEmpty"`
}

// Price is a carbon price: currency per tonne, scaled by a social-cost
// multiplier for externality severity.
type Price struct {
	PerTonne             float64 `json:"perTonne"             yaml:"per_tonne"`
	Currency             string  `json:"currency"             yaml:"currency"`
	SocialCostMultiplier float64 `json:"socialCostMultiplier" yaml:"social_cost_multiplier"`
}

// CurrencyValue is a kg total expressed as money.
type CurrencyValue struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	// Formatted carries the currency symbol and separators, e.g. "$ 5.79".
	Formatted string `json:"formatted"`
	Price     Price  `json:"price"`
}
