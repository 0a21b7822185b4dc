package greenops

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		name        string
		input       CarbonInput
		wantMiles   float64
		wantPhones  float64
		wantIsEmpty bool
		wantErr     error
	}{
		{
			name:       "150kg reference value",
			input:      CarbonInput{Value: 150.0, Unit: "kg"},
			wantMiles:  781.25,
			wantPhones: 18248.18,
		},
		{
			name:       "grams normalized",
			input:      CarbonInput{Value: 150000.0, Unit: "g"},
			wantMiles:  781.25,
			wantPhones: 18248.18,
		},
		{
			name:       "tonnes normalized",
			input:      CarbonInput{Value: 0.15, Unit: "tCO2e"},
			wantMiles:  781.25,
			wantPhones: 18248.18,
		},
		{
			name:       "exactly at threshold",
			input:      CarbonInput{Value: 1.0, Unit: "kg"},
			wantMiles:  5.208333,
			wantPhones: 121.65,
		},
		{
			name:        "below threshold is empty",
			input:       CarbonInput{Value: 0.5, Unit: "kg"},
			wantIsEmpty: true,
		},
		{
			name:        "negative value",
			input:       CarbonInput{Value: -1, Unit: "kg"},
			wantIsEmpty: true,
			wantErr:     ErrNegativeValue,
		},
		{
			name:        "unknown unit",
			input:       CarbonInput{Value: 10, Unit: "stone"},
			wantIsEmpty: true,
			wantErr:     ErrInvalidUnit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Calculate(tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantIsEmpty, got.IsEmpty)
			if tt.wantIsEmpty {
				assert.Empty(t, got.Results)
				return
			}

			miles, ok := got.Lookup(EquivalencyMilesDriven)
			require.True(t, ok)
			assert.InEpsilon(t, tt.wantMiles, miles.Value, 0.01)

			phones, ok := got.Lookup(EquivalencySmartphonesCharged)
			require.True(t, ok)
			assert.InEpsilon(t, tt.wantPhones, phones.Value, 0.01)
		})
	}
}

func TestForKg_AllEquivalencies(t *testing.T) {
	got, err := ForKg(120)
	require.NoError(t, err)

	require.Len(t, got.Results, 4)
	trees, ok := got.Lookup(EquivalencyTreeSeedlings)
	require.True(t, ok)
	assert.InDelta(t, 2.0, trees.Value, 1e-9)
	assert.Equal(t, "2", trees.FormattedValue)

	home, ok := got.Lookup(EquivalencyHomeDays)
	require.True(t, ok)
	assert.InDelta(t, 120/18.3, home.Value, 1e-9)

	assert.Equal(t, "Equivalent to driving ~625 miles or charging ~14,599 smartphones", got.DisplayText)
	assert.Equal(t, "(≈ 625 mi, 14,599 phones)", got.CompactText)
}

func TestForKg_NonFinite(t *testing.T) {
	_, err := ForKg(math.Inf(1))
	require.ErrorIs(t, err, ErrCalculationOverflow)

	_, err = ForKg(math.NaN())
	require.ErrorIs(t, err, ErrCalculationOverflow)
}

func TestEquivalencyType_JSON(t *testing.T) {
	b, err := json.Marshal(EquivalencyResult{Type: EquivalencyHomeDays})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"type":"HomeDays"`)
	assert.Equal(t, "EquivalencyType(9)", EquivalencyType(9).String())

	var decoded EquivalencyResult
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, EquivalencyHomeDays, decoded.Type)
	require.Error(t, json.Unmarshal([]byte(`{"type":"Bicycles"}`), &decoded))
}

func TestNormalizeToKg(t *testing.T) {
	tests := []struct {
		value   float64
		unit    string
		want    float64
		wantErr error
	}{
		{1500, "g", 1.5, nil},
		{2, "KG", 2, nil},
		{2, "", 2, nil},
		{1, "t", 1000, nil},
		{10, "lb", 4.53592, nil},
		{1, "oz", 0, ErrInvalidUnit},
		{-1, "kg", 0, ErrNegativeValue},
		{math.NaN(), "kg", 0, ErrCalculationOverflow},
		{math.MaxFloat64, "t", 0, ErrCalculationOverflow},
	}

	for _, tt := range tests {
		got, err := NormalizeToKg(tt.value, tt.unit)
		if tt.wantErr != nil {
			assert.ErrorIs(t, err, tt.wantErr, "%v %s", tt.value, tt.unit)
			continue
		}
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got, 1e-9)
		assert.True(t, IsRecognizedUnit(tt.unit))
	}
}
