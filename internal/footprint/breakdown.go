package footprint

import (
	"math"

	"github.com/rshade/bytecarbon/internal/greenops"
	"github.com/rshade/bytecarbon/internal/survey"
)

// Breakdown is the engine output: annual kg CO2 per category and in total.
// Each component is rounded independently; TotalKg is the rounded sum of the
// unrounded components, so it may differ from the sum of the displayed
// components by one hundredth.
type Breakdown struct {
	DeviceKg float64 `json:"deviceKg" yaml:"deviceKg"`
	DataKg   float64 `json:"dataKg"   yaml:"dataKg"`
	AIKg     float64 `json:"aiKg"     yaml:"aiKg"`
	TotalKg  float64 `json:"totalKg"  yaml:"totalKg"`
}

// DeviceEmission is the contribution of one device category.
type DeviceEmission struct {
	survey.DeviceUsage

	Watts      float64 `json:"watts"`
	KnownPower bool    `json:"knownPower"`
	KWhPerYear float64 `json:"kWhPerYear"`
	Kg         float64 `json:"kg"`
}

// DataVolume is the annual transfer behind DataKg.
type DataVolume struct {
	StreamingGB float64 `json:"streamingGB"`
	CloudGB     float64 `json:"cloudGB"`
	BulkGB      float64 `json:"bulkGB"`
}

// TotalGB sums the three transfer sources.
func (d DataVolume) TotalGB() float64 {
	return d.StreamingGB + d.CloudGB + d.BulkGB
}

// Report is a Breakdown together with the intermediate quantities that
// produced it.
type Report struct {
	Breakdown Breakdown        `json:"results"`
	Usage     survey.Usage     `json:"usage"`
	Devices   []DeviceEmission `json:"devices"`
	Data      DataVolume       `json:"data"`
	// AIQueriesPerYear is 0 under the per-minute model.
	AIQueriesPerYear float64 `json:"aiQueriesPerYear"`
	AIFactor         float64 `json:"aiFactor"`
}

// Calculate computes the breakdown for a response with the given factors.
func Calculate(r survey.Response, f Factors) Breakdown {
	return Explain(r, f).Breakdown
}

// Explain computes the breakdown and keeps every intermediate value.
func Explain(r survey.Response, f Factors) Report {
	usage := survey.Normalize(r)

	devices, deviceKg := deviceEmissions(usage, f)
	data := dataVolume(usage, f)
	dataKg := data.TotalGB() * f.DataTransferIntensity
	aiKg, queries, aiFactor := aiEmissions(usage, f)

	return Report{
		Breakdown: Breakdown{
			DeviceKg: greenops.Round2(deviceKg),
			DataKg:   greenops.Round2(dataKg),
			AIKg:     greenops.Round2(aiKg),
			TotalKg:  greenops.Round2(deviceKg + dataKg + aiKg),
		},
		Usage:            usage,
		Devices:          devices,
		Data:             data,
		AIQueriesPerYear: queries,
		AIFactor:         aiFactor,
	}
}

// DeviceKg is the unrounded annual device emission for a usage.
func DeviceKg(u survey.Usage, f Factors) float64 {
	_, kg := deviceEmissions(u, f)
	return kg
}

// DataKg is the unrounded annual data-transfer emission for a usage.
func DataKg(u survey.Usage, f Factors) float64 {
	return dataVolume(u, f).TotalGB() * f.DataTransferIntensity
}

// AIKg is the unrounded annual AI emission for a usage.
func AIKg(u survey.Usage, f Factors) float64 {
	kg, _, _ := aiEmissions(u, f)
	return kg
}

// deviceEmissions applies
//
//	kWhPerYear = watts * dailyHours * 365 / 1000
//	kg         = count * kWhPerYear * gridIntensity * powerSource * charging
//
// per category. Devices are already sorted, which fixes the summation order.
func deviceEmissions(u survey.Usage, f Factors) ([]DeviceEmission, float64) {
	if u.NoDevices {
		return nil, 0
	}

	out := make([]DeviceEmission, 0, len(u.Devices))
	total := 0.0
	for _, d := range u.Devices {
		e := DeviceEmission{DeviceUsage: d}
		e.Watts, e.KnownPower = f.PowerDraw(d.Category)
		if e.KnownPower && d.Active() {
			e.KWhPerYear = e.Watts * d.DailyHours * DaysPerYear / WattsPerKW
			base := d.Count * e.KWhPerYear * f.GridIntensity
			e.Kg = base * u.PowerSourceMultiplier * u.ChargingMultiplier
			total += e.Kg
		}
		out = append(out, e)
	}
	return out, total
}

func dataVolume(u survey.Usage, f Factors) DataVolume {
	weeks := f.WeeksPerYear()
	return DataVolume{
		StreamingGB: u.StreamingHoursPerWeek() * f.StreamingDataRate.For(u.StreamingQuality) * weeks,
		CloudGB:     u.CloudHoursPerWeek * f.CloudDataRate * weeks,
		BulkGB:      u.BulkGBPerMonth * MonthsPerYear,
	}
}

// aiEmissions returns kg, queries per year and the factor applied. Either
// unknown (interactions or session length of 0) yields 0 rather than a
// product of guesses.
func aiEmissions(u survey.Usage, f Factors) (kg, queriesPerYear, factor float64) {
	if u.AIInteractionsPerDay <= 0 || u.AISessionMinutes <= 0 {
		return 0, 0, 0
	}

	if f.AIModel == AIModelPerMinute {
		factor = f.AIPerMinuteFactor
		kg = u.AIInteractionsPerDay * u.AISessionMinutes * DaysPerYear * factor
		return kg, 0, factor
	}

	queriesPerSession := math.Max(1, u.AISessionMinutes/minutesPerQuery)
	factor = f.AIQueryIntensity.For(u.AIType)
	queriesPerYear = u.AIInteractionsPerDay * queriesPerSession * DaysPerYear
	return queriesPerYear * factor, queriesPerYear, factor
}
