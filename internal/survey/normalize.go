package survey

import (
	"sort"
	"strings"
	"unicode"
)

// Field names and aliases understood by Normalize.
//
//nolint:gochecknoglobals // Alias lists are read-only.
var (
	FieldNoDevices              = []string{"noDevices", "noDevicesOwned"}
	FieldRenewableEnergy        = []string{"renewableEnergy", "renewableEnergyUsage"}
	FieldChargingHabit          = []string{"chargingHabit", "chargingHabits"}
	FieldAcademicStreaming      = []string{"academicStreaming", "academicHoursPerWeek"}
	FieldEntertainmentStreaming = []string{
		"entertainmentStreaming", "nonAcademicStreaming", "nonAcademicHoursPerWeek", "streamingHours",
	}
	FieldStreamingQuality = []string{"streamingQuality"}
	FieldCloudUsage       = []string{"cloudUsage", "cloudHours"}
	FieldBulkTransfer     = []string{"bulkTransferGB", "dataTransferGB"}
	FieldAIInteractions   = []string{"aiInteractions", "aiInteractionsPerDay"}
	FieldAISessionLength  = []string{"aiSessionLength", "aiSessionMinutes"}
	FieldAIType           = []string{"aiType"}
	FieldCity             = []string{"city"}
	FieldState            = []string{"state"}
	FieldConsent          = []string{"consent"}
)

// Per-device field suffixes: smartphoneCount, smartphoneHours, smartphoneAge.
const (
	suffixCount = "Count"
	suffixHours = "Hours"
	suffixAge   = "Age"
)

// DeviceUsage is one owned-device category.
type DeviceUsage struct {
	// Category is the field prefix as written in the response, e.g. "smartphone".
	Category   string  `json:"category"`
	Count      float64 `json:"count"`
	DailyHours float64 `json:"dailyHours"`
	AgeYears   float64 `json:"ageYears,omitempty"`
}

// Active reports whether the entry can contribute emissions.
func (d DeviceUsage) Active() bool {
	return d.Count > 0 && d.DailyHours > 0
}

// Usage is a response reduced to the numeric quantities the formulas need.
type Usage struct {
	NoDevices bool          `json:"noDevices"`
	Devices   []DeviceUsage `json:"devices"`

	PowerSourceMultiplier float64 `json:"powerSourceMultiplier"`
	ChargingMultiplier    float64 `json:"chargingMultiplier"`

	AcademicHoursPerWeek      float64 `json:"academicHoursPerWeek"`
	EntertainmentHoursPerWeek float64 `json:"entertainmentHoursPerWeek"`
	StreamingQuality          string  `json:"streamingQuality,omitempty"`
	CloudHoursPerWeek         float64 `json:"cloudHoursPerWeek"`
	BulkGBPerMonth            float64 `json:"bulkGBPerMonth"`

	AIInteractionsPerDay float64 `json:"aiInteractionsPerDay"`
	AISessionMinutes     float64 `json:"aiSessionMinutes"`
	AIType               string  `json:"aiType"`
}

// StreamingHoursPerWeek is the combined academic and entertainment streaming.
func (u Usage) StreamingHoursPerWeek() float64 {
	return u.AcademicHoursPerWeek + u.EntertainmentHoursPerWeek
}

// Normalize resolves every recognised field of r. It never fails: missing or
// malformed answers become 0, and absent extended-only multipliers become
// Neutral so that simple-variant responses are unaffected by them.
func Normalize(r Response) Usage {
	u := Usage{
		NoDevices:             r.Bool(FieldNoDevices...),
		Devices:               Devices(r),
		PowerSourceMultiplier: multiplier(r, PowerSource, FieldRenewableEnergy),
		ChargingMultiplier:    multiplier(r, ChargingHabit, FieldChargingHabit),
		StreamingQuality:      StreamingQuality.Key(r.Text(FieldStreamingQuality...)),
		BulkGBPerMonth:        r.Number(FieldBulkTransfer...),
		AIType:                AIType.Key(r.Text(FieldAIType...)),
	}
	u.AcademicHoursPerWeek = quantity(r, AcademicStreaming, FieldAcademicStreaming)
	u.EntertainmentHoursPerWeek = quantity(r, EntertainmentStreaming, FieldEntertainmentStreaming)
	u.CloudHoursPerWeek = quantity(r, CloudUsage, FieldCloudUsage)
	u.AIInteractionsPerDay = quantity(r, AIInteractions, FieldAIInteractions)
	u.AISessionMinutes = quantity(r, AISessionLength, FieldAISessionLength)
	return u
}

// Devices collects every <category>Count field into a DeviceUsage, sorted by
// category so that downstream sums are order-stable.
func Devices(r Response) []DeviceUsage {
	var devices []DeviceUsage
	for field := range r {
		category, ok := strings.CutSuffix(field, suffixCount)
		if !ok || category == "" || !isCategoryName(category) {
			continue
		}
		hoursRaw, hasHours := r.Lookup(category + suffixHours)
		ageRaw, hasAge := r.Lookup(category + suffixAge)
		devices = append(devices, DeviceUsage{
			Category:   category,
			Count:      r.Number(field),
			DailyHours: DailyHours.Quantity(hoursRaw, hasHours),
			AgeYears:   DeviceAge.Quantity(ageRaw, hasAge),
		})
	}
	sort.Slice(devices, func(i, j int) bool {
		return devices[i].Category < devices[j].Category
	})
	return devices
}

// CityState builds the location display string: "city, state", either part
// alone, or "".
func CityState(r Response) string {
	city := r.Text(FieldCity...)
	state := r.Text(FieldState...)
	switch {
	case city != "" && state != "":
		return city + ", " + state
	case city != "":
		return city
	default:
		return state
	}
}

func quantity(r Response, t Table, aliases []string) float64 {
	raw, ok := r.Lookup(aliases...)
	return t.Quantity(raw, ok)
}

func multiplier(r Response, t Table, aliases []string) float64 {
	if !r.Has(aliases...) {
		return Neutral
	}
	return t.Lookup(r.Text(aliases...))
}

// isCategoryName rejects prefixes that are not plain identifiers, such as
// "device " or "phone-".
func isCategoryName(s string) bool {
	for _, c := range s {
		if !unicode.IsLetter(c) && !unicode.IsDigit(c) {
			return false
		}
	}
	return true
}
