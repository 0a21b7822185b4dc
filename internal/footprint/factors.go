// Package footprint is the estimation engine: it maps a survey response and a
// set of emission factors to an annual kg CO2 breakdown across device power
// draw, network data transfer and AI service usage.
//
// Every function in this package is pure. Factors are passed by value, the
// response is never mutated, and identical inputs produce bit-identical
// output.
package footprint

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/rshade/bytecarbon/internal/greenops"
	"github.com/rshade/bytecarbon/internal/survey"
)

// Annualization conventions for weekly-hour answers.
const (
	// AnnualizeWeekly multiplies weekly quantities by 52.
	AnnualizeWeekly = "weekly"
	// AnnualizeMonthly multiplies by 4.345 weeks/month and 12 months (~52.14).
	AnnualizeMonthly = "monthly"
)

// AI emission models.
const (
	// AIModelPerQuery derives queries from session length and applies a
	// per-query factor chosen by interaction type.
	AIModelPerQuery = "per_query"
	// AIModelPerMinute applies a flat per-minute factor.
	AIModelPerMinute = "per_minute"
)

// Calendar constants.
const (
	DaysPerYear     = 365
	WeeksPerYear    = 52
	WeeksPerMonth   = 4.345
	MonthsPerYear   = 12
	WattsPerKW      = 1000
	KgPerTonne      = 1000
	minutesPerQuery = 2
)

// Factor validation errors.
var (
	ErrNegativeFactor        = errors.New("emission factor cannot be negative")
	ErrUnknownAnnualization  = errors.New("annualization must be 'weekly' or 'monthly'")
	ErrUnknownAIModel        = errors.New("ai model must be 'per_query' or 'per_minute'")
	ErrMissingCurrency       = errors.New("currency is required")
	ErrInvalidPowerDrawEntry = errors.New("device power draw entry is invalid")
)

// StreamingRate is the data consumed per hour of streaming, either flat or
// tiered by quality (SD, HD, 4K).
type StreamingRate struct {
	Flat  float64            `yaml:"flat"            json:"flat"`
	Tiers map[string]float64 `yaml:"tiers,omitempty" json:"tiers,omitempty"`
}

// For returns the GB/hour rate for a quality key, falling back to Flat.
func (s StreamingRate) For(quality string) float64 {
	if quality != "" {
		if rate, ok := s.Tiers[quality]; ok {
			return rate
		}
	}
	return s.Flat
}

// AIIntensity is kg CO2 per AI query, keyed by interaction type.
type AIIntensity struct {
	ByType  map[string]float64 `yaml:"by_type,omitempty" json:"byType,omitempty"`
	Default float64            `yaml:"default"           json:"default"`
}

// For returns the per-query factor for an interaction type key.
func (a AIIntensity) For(aiType string) float64 {
	if v, ok := a.ByType[aiType]; ok {
		return v
	}
	return a.Default
}

// Factors is the set of tunable constants one computation applies.
type Factors struct {
	// GridIntensity is kg CO2 per kWh of grid electricity.
	GridIntensity float64 `yaml:"grid_intensity" json:"gridIntensity"`
	// DevicePowerDraw maps device category to average watts.
	DevicePowerDraw map[string]float64 `yaml:"device_power_draw" json:"devicePowerDraw"`
	// DataTransferIntensity is kg CO2 per GB transferred.
	DataTransferIntensity float64 `yaml:"data_transfer_intensity" json:"dataTransferIntensity"`
	// CarbonPrice is currency units per tonne CO2.
	CarbonPrice float64 `yaml:"carbon_price" json:"carbonPrice"`
	// Currency is the ISO code CarbonPrice is expressed in.
	Currency string `yaml:"currency" json:"currency"`
	// SocialCostMultiplier scales the carbon price for externality severity.
	SocialCostMultiplier float64 `yaml:"social_cost_multiplier" json:"socialCostMultiplier"`

	StreamingDataRate StreamingRate `yaml:"streaming_data_rate" json:"streamingDataRate"`
	// CloudDataRate is GB per hour of cloud storage/sync usage.
	CloudDataRate    float64     `yaml:"cloud_data_rate"    json:"cloudDataRate"`
	AIQueryIntensity AIIntensity `yaml:"ai_query_intensity" json:"aiQueryIntensity"`
	// AIPerMinuteFactor is kg CO2 per minute of AI session for the per-minute model.
	AIPerMinuteFactor float64 `yaml:"ai_per_minute_factor" json:"aiPerMinuteFactor"`
	AIModel           string  `yaml:"ai_model"             json:"aiModel"`
	Annualization     string  `yaml:"annualization"        json:"annualization"`
}

// DefaultFactors returns the built-in configuration.
func DefaultFactors() Factors {
	byType := make(map[string]float64, len(survey.AIType.Rows))
	for _, row := range survey.AIType.Rows {
		byType[row.Key] = row.Value
	}

	return Factors{
		GridIntensity: 0.7,
		DevicePowerDraw: map[string]float64{
			"Smartphone":    5,
			"Tablet":        10,
			"Laptop":        50,
			"Desktop":       200,
			"Monitor":       30,
			"Television":    100,
			"GamingConsole": 120,
			"SmartSpeaker":  3,
		},
		DataTransferIntensity: 0.065,
		CarbonPrice:           51,
		Currency:              "USD",
		SocialCostMultiplier:  1.0,
		StreamingDataRate: StreamingRate{
			Flat: 1.2,
			Tiers: map[string]float64{
				survey.QualitySD: 0.7,
				survey.QualityHD: 3.0,
				survey.Quality4K: 7.0,
			},
		},
		CloudDataRate: 0.5,
		AIQueryIntensity: AIIntensity{
			ByType:  byType,
			Default: survey.AIType.Default,
		},
		AIPerMinuteFactor: 0.00002,
		AIModel:           AIModelPerQuery,
		Annualization:     AnnualizeWeekly,
	}
}

// PowerDraw returns the wattage for a category using a case-insensitive
// lookup. Unknown categories report false and contribute nothing.
func (f Factors) PowerDraw(category string) (float64, bool) {
	if w, ok := f.DevicePowerDraw[category]; ok {
		return w, true
	}
	names := slices.Sorted(maps.Keys(f.DevicePowerDraw))
	for _, name := range names {
		if strings.EqualFold(name, category) {
			return f.DevicePowerDraw[name], true
		}
	}
	return 0, false
}

// Price is the carbon price these factors express.
func (f Factors) Price() greenops.Price {
	return greenops.Price{
		PerTonne:             f.CarbonPrice,
		Currency:             f.Currency,
		SocialCostMultiplier: f.SocialCostMultiplier,
	}
}

// WeeksPerYear returns the annualization multiplier for weekly quantities.
func (f Factors) WeeksPerYear() float64 {
	if f.Annualization == AnnualizeMonthly {
		return WeeksPerMonth * MonthsPerYear
	}
	return WeeksPerYear
}

// Validate checks that every factor is usable.
func (f Factors) Validate() error {
	scalars := []struct {
		name  string
		value float64
	}{
		{"grid_intensity", f.GridIntensity},
		{"data_transfer_intensity", f.DataTransferIntensity},
		{"carbon_price", f.CarbonPrice},
		{"social_cost_multiplier", f.SocialCostMultiplier},
		{"streaming_data_rate.flat", f.StreamingDataRate.Flat},
		{"cloud_data_rate", f.CloudDataRate},
		{"ai_query_intensity.default", f.AIQueryIntensity.Default},
		{"ai_per_minute_factor", f.AIPerMinuteFactor},
	}
	for _, s := range scalars {
		if s.value < 0 {
			return fmt.Errorf("%w: %s = %g", ErrNegativeFactor, s.name, s.value)
		}
	}
	for name, w := range f.DevicePowerDraw {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: empty category name", ErrInvalidPowerDrawEntry)
		}
		if w < 0 {
			return fmt.Errorf("%w: device_power_draw.%s = %g", ErrNegativeFactor, name, w)
		}
	}
	for tier, rate := range f.StreamingDataRate.Tiers {
		if rate < 0 {
			return fmt.Errorf("%w: streaming_data_rate.tiers.%s = %g", ErrNegativeFactor, tier, rate)
		}
	}
	for aiType, v := range f.AIQueryIntensity.ByType {
		if v < 0 {
			return fmt.Errorf("%w: ai_query_intensity.by_type.%s = %g", ErrNegativeFactor, aiType, v)
		}
	}
	switch f.Annualization {
	case AnnualizeWeekly, AnnualizeMonthly:
	default:
		return fmt.Errorf("%w: got %q", ErrUnknownAnnualization, f.Annualization)
	}
	switch f.AIModel {
	case AIModelPerQuery, AIModelPerMinute:
	default:
		return fmt.Errorf("%w: got %q", ErrUnknownAIModel, f.AIModel)
	}
	if strings.TrimSpace(f.Currency) == "" {
		return ErrMissingCurrency
	}
	return nil
}

// Overlay decodes a partial factors document onto a copy of f. Keys present
// in the document replace the copy's values, zero included; absent keys keep
// f's values and map entries are merged key by key. decode is a
// yaml.Unmarshal or json.Unmarshal closure over the raw document.
func (f Factors) Overlay(decode func(target any) error) (Factors, error) {
	out := f.Clone()
	if err := decode(&out); err != nil {
		return f, err
	}
	return out, nil
}

// Clone deep-copies the maps so callers cannot alias shared defaults.
func (f Factors) Clone() Factors {
	out := f
	out.DevicePowerDraw = maps.Clone(f.DevicePowerDraw)
	out.StreamingDataRate.Tiers = maps.Clone(f.StreamingDataRate.Tiers)
	out.AIQueryIntensity.ByType = maps.Clone(f.AIQueryIntensity.ByType)
	return out
}
