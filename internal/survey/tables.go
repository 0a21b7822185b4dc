package survey

import "strings"

// TablesVersion identifies the revision of the categorical tables below.
// Exported results are only comparable between identical table versions.
const TablesVersion = "2024.1"

// Row maps every label containing Pattern to Value.
type Row struct {
	Pattern string  `json:"pattern" yaml:"pattern"`
	Value   float64 `json:"value"   yaml:"value"`
	// Key names the row for tables whose values are selectors rather than
	// quantities (AI type, streaming quality). Empty for quantity tables.
	Key string `json:"key,omitempty" yaml:"key,omitempty"`
}

// Table is an ordered list of substring patterns. Lookup returns the first
// row whose pattern occurs in the label, so rows with overlapping patterns
// must be listed most specific first.
type Table struct {
	Name    string  `json:"name"    yaml:"name"`
	Unit    string  `json:"unit"    yaml:"unit"`
	Rows    []Row   `json:"rows"    yaml:"rows"`
	Default float64 `json:"default" yaml:"default"`
	// DefaultKey is returned by Match when no row matches.
	DefaultKey string `json:"default_key,omitempty" yaml:"default_key,omitempty"`
	// Labels are the option texts the questionnaire presents for this table.
	Labels []string `json:"labels" yaml:"labels"`
}

// Match returns the first row whose pattern is contained in label.
// Matching is case-sensitive.
func (t Table) Match(label string) (Row, bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		return Row{}, false
	}
	for _, row := range t.Rows {
		if strings.Contains(label, row.Pattern) {
			return row, true
		}
	}
	return Row{}, false
}

// Lookup maps label to its row value, or to the table default.
func (t Table) Lookup(label string) float64 {
	if row, ok := t.Match(label); ok {
		return row.Value
	}
	return t.Default
}

// Key maps label to its row key, or to DefaultKey.
func (t Table) Key(label string) string {
	if row, ok := t.Match(label); ok {
		return row.Key
	}
	return t.DefaultKey
}

// Quantity resolves a raw answer that may be either a number or a range
// label. Numbers win; anything else goes through the table.
func (t Table) Quantity(raw any, present bool) float64 {
	if !present {
		return 0
	}
	if n, ok := parseNumber(raw); ok {
		return n
	}
	s, isString := raw.(string)
	if !isString {
		return 0
	}
	return t.Lookup(s)
}

// AI interaction type keys.
const (
	AITypeText  = "text"
	AITypeImage = "image"
	AITypeCode  = "code"
	AITypeVoice = "voice"
	AITypeMixed = "mixed"
	// AITypeDefault is used when the answer is missing or unrecognised.
	AITypeDefault = "default"
)

// Streaming quality keys.
const (
	QualitySD   = "SD"
	QualityHD   = "HD"
	Quality4K   = "4K"
	QualityFlat = ""
)

// Neutral is the multiplier applied when an extended-only answer is absent.
const Neutral = 1.0

//nolint:gochecknoglobals // Versioned lookup tables, read-only after init.
var (
	// AcademicStreaming maps weekly study/lecture streaming answers to hours.
	AcademicStreaming = Table{
		Name: "academic_streaming",
		Unit: "hours/week",
		Rows: []Row{
			{Pattern: "None", Value: 0},
			{Pattern: "1-5", Value: 3},
			{Pattern: "6-15", Value: 10},
			{Pattern: "16-30", Value: 23},
			{Pattern: "More than 30", Value: 35},
		},
		Labels: []string{
			"None (0 hrs)",
			"1-5 hrs - Light usage",
			"6-15 hrs - Moderate usage",
			"16-30 hrs - Heavy usage",
			"More than 30 hrs - Very heavy usage",
		},
	}

	// EntertainmentStreaming maps weekly non-academic streaming answers to hours.
	EntertainmentStreaming = Table{
		Name: "entertainment_streaming",
		Unit: "hours/week",
		Rows: []Row{
			{Pattern: "None", Value: 0},
			{Pattern: "1-10", Value: 5},
			{Pattern: "11-25", Value: 18},
			{Pattern: "26-40", Value: 33},
			{Pattern: "More than 40", Value: 45},
		},
		Labels: []string{
			"None (0 hrs)",
			"1-10 hrs - Light usage",
			"11-25 hrs - Moderate usage",
			"26-40 hrs - Heavy usage",
			"More than 40 hrs - Very heavy usage",
		},
	}

	// CloudUsage maps weekly cloud storage/sync answers to hours.
	CloudUsage = Table{
		Name: "cloud_usage",
		Unit: "hours/week",
		Rows: []Row{
			{Pattern: "None", Value: 0},
			{Pattern: "Less than 1", Value: 0.5},
			{Pattern: "1-5", Value: 3},
			{Pattern: "6-10", Value: 8},
			{Pattern: "More than 10", Value: 12},
		},
		Labels: []string{
			"None",
			"Less than 1 hr",
			"1-5 hrs",
			"6-10 hrs",
			"More than 10 hrs",
		},
	}

	// DailyHours maps per-device daily usage answers to hours.
	DailyHours = Table{
		Name: "daily_hours",
		Unit: "hours/day",
		Rows: []Row{
			{Pattern: "None", Value: 0},
			{Pattern: "Less than 1", Value: 0.5},
			{Pattern: "1-3", Value: 2},
			{Pattern: "4-6", Value: 5},
			{Pattern: "7-9", Value: 8},
			{Pattern: "More than 10", Value: 12},
			{Pattern: "10+", Value: 12},
		},
		Labels: []string{
			"None",
			"Less than 1 hr",
			"1-3 hrs",
			"4-6 hrs",
			"7-9 hrs",
			"10+ hrs",
		},
	}

	// DeviceAge maps device age answers to years.
	DeviceAge = Table{
		Name: "device_age",
		Unit: "years",
		Rows: []Row{
			{Pattern: "Less than 1", Value: 0.5},
			{Pattern: "1-2", Value: 1.5},
			{Pattern: "3-4", Value: 3.5},
			{Pattern: "5+", Value: 6},
			{Pattern: "More than 5", Value: 6},
		},
		Labels: []string{
			"Less than 1 year",
			"1-2 years",
			"3-4 years",
			"5+ years",
		},
	}

	// AIInteractions maps daily AI assistant usage answers to interactions.
	AIInteractions = Table{
		Name: "ai_interactions",
		Unit: "interactions/day",
		Rows: []Row{
			{Pattern: "Never", Value: 0},
			{Pattern: "1-5", Value: 3},
			{Pattern: "6-10", Value: 8},
			{Pattern: "11-20", Value: 15},
			{Pattern: "More than 20", Value: 25},
		},
		Labels: []string{
			"Never",
			"1-5 times",
			"6-10 times",
			"11-20 times",
			"More than 20 times",
		},
	}

	// AISessionLength maps AI session length answers to minutes.
	AISessionLength = Table{
		Name: "ai_session_length",
		Unit: "minutes",
		Rows: []Row{
			{Pattern: "Less than 1", Value: 0.5},
			{Pattern: "1-5", Value: 3},
			{Pattern: "6-15", Value: 10},
			{Pattern: "16-30", Value: 23},
			{Pattern: "More than 30", Value: 40},
		},
		Labels: []string{
			"Less than 1 minute",
			"1-5 minutes",
			"6-15 minutes",
			"16-30 minutes",
			"More than 30 minutes",
		},
	}

	// AIType maps the predominant interaction type to kg CO2 per query.
	// Unrecognised answers fall back to the mixed/default factor, never 0.
	AIType = Table{
		Name: "ai_type",
		Unit: "kgCO2/query",
		Rows: []Row{
			{Pattern: "Text", Value: 0.0001, Key: AITypeText},
			{Pattern: "Image", Value: 0.003, Key: AITypeImage},
			{Pattern: "Code", Value: 0.0002, Key: AITypeCode},
			{Pattern: "Voice", Value: 0.0005, Key: AITypeVoice},
			{Pattern: "Mixed", Value: 0.001, Key: AITypeMixed},
		},
		Default:    0.001,
		DefaultKey: AITypeDefault,
		Labels: []string{
			"Text generation",
			"Image generation",
			"Code assistance",
			"Voice assistant",
			"Mixed usage",
		},
	}

	// PowerSource maps the household renewable-energy band to a multiplier
	// on device emissions. "Don't know" and other answers use 0.8.
	PowerSource = Table{
		Name: "power_source",
		Unit: "multiplier",
		Rows: []Row{
			{Pattern: "None", Value: 1.0},
			{Pattern: "Less than 25", Value: 0.9},
			{Pattern: "25-50", Value: 0.75},
			{Pattern: "51-75", Value: 0.5},
			{Pattern: "76-99", Value: 0.3},
			{Pattern: "100%", Value: 0.1},
		},
		Default: 0.8,
		Labels: []string{
			"None (grid only)",
			"Less than 25%",
			"25-50%",
			"51-75%",
			"76-99%",
			"100% renewable",
			"Don't know",
		},
	}

	// ChargingHabit maps charging behaviour to a multiplier on device emissions.
	ChargingHabit = Table{
		Name: "charging_habit",
		Unit: "multiplier",
		Rows: []Row{
			{Pattern: "Unplug", Value: 0.95},
			{Pattern: "overnight", Value: 1.1},
			{Pattern: "plugged in", Value: 1.2},
			{Pattern: "Optimized", Value: 0.9},
			{Pattern: "when low", Value: 1.0},
		},
		Default: 1.0,
		Labels: []string{
			"Unplug when fully charged",
			"Charge overnight",
			"Keep plugged in",
			"Optimized charging",
			"Charge only when low",
		},
	}

	// StreamingQuality selects the streaming data-rate tier. "4K Ultra HD"
	// contains "HD", so the 4K rows come first.
	StreamingQuality = Table{
		Name: "streaming_quality",
		Unit: "tier",
		Rows: []Row{
			{Pattern: "4K", Key: Quality4K},
			{Pattern: "Ultra", Key: Quality4K},
			{Pattern: "HD", Key: QualityHD},
			{Pattern: "SD", Key: QualitySD},
		},
		DefaultKey: QualityFlat,
		Labels: []string{
			"SD (480p)",
			"HD (1080p)",
			"4K Ultra HD",
		},
	}
)

// Tables returns every categorical table in presentation order.
func Tables() []Table {
	return []Table{
		AcademicStreaming,
		EntertainmentStreaming,
		CloudUsage,
		DailyHours,
		DeviceAge,
		AIInteractions,
		AISessionLength,
		AIType,
		PowerSource,
		ChargingHabit,
		StreamingQuality,
	}
}
