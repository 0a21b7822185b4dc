package greenops

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0"},
		{123, "123"},
		{18248, "18,248"},
		{1234567, "1,234,567"},
		{-1234, "-1,234"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatNumber(tt.n))
	}
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		name      string
		f         float64
		precision int
		want      string
	}{
		{"two decimals", 1234.567, 2, "1,234.57"},
		{"small", 5.11, 2, "5.11"},
		{"zero precision rounds", 113.57, 0, "114"},
		{"negative", -1234.5, 1, "-1,234.5"},
		{"negative fraction", -0.25, 2, "-0.25"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatFloat(tt.f, tt.precision))
		})
	}
}

func TestFormatKg(t *testing.T) {
	assert.Equal(t, "113.57 kg CO2", FormatKg(113.568, 2))
}

func TestFormatLarge(t *testing.T) {
	assert.Equal(t, "999,999", FormatLarge(999_999))
	assert.Equal(t, "~1.5 million", FormatLarge(1_500_000))
	assert.Equal(t, "~2.3 billion", FormatLarge(2_300_000_000))
}
