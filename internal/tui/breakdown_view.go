package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rshade/bytecarbon/internal/footprint"
	"github.com/rshade/bytecarbon/internal/greenops"
)

// Column widths for the field table.
const (
	fieldKeyWidth   = 24
	fieldValueWidth = 22
	separatorWidth  = 78
	categoryWidth   = 10
	minTruncateLen  = 3
	displayDecimals = 2
)

// RenderKgDelta renders a signed kg change with a directional arrow. An
// increase is a warning, a reduction is good news.
func RenderKgDelta(delta float64) string {
	rounded := greenops.Round2(delta)

	var icon, sign string
	var color lipgloss.Color

	switch {
	case rounded > 0:
		icon = IconArrowUp
		sign = "+"
		color = ColorWarning
	case rounded < 0:
		icon = IconArrowDown
		sign = "-"
		color = ColorOK
	default:
		icon = IconArrowRight
		color = ColorMuted
	}

	style := lipgloss.NewStyle().Foreground(color).Bold(true)
	return style.Render(fmt.Sprintf("%s%s kg %s", sign, greenops.FormatFloat(math.Abs(rounded), displayDecimals), icon))
}

// RenderWhatIfHeader renders the title box of the what-if editor.
func RenderWhatIfHeader(location string) string {
	var sb strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorHeader).
		Border(lipgloss.NormalBorder()).
		BorderForeground(ColorBorder).
		Padding(0, 1)

	sb.WriteString(titleStyle.Render("What-If Footprint Analysis"))
	if location != "" {
		sb.WriteString("\n\n")
		sb.WriteString(LabelStyle.Render("Location: "))
		sb.WriteString(ValueStyle.Render(location))
	}
	return sb.String()
}

// RenderBreakdownComparison renders baseline and modified breakdowns side by
// side with the per-category change.
func RenderBreakdownComparison(baseline, modified footprint.Breakdown) string {
	var sb strings.Builder

	sb.WriteString(LabelStyle.Render(fmt.Sprintf("%-*s %14s %14s  %s", categoryWidth, "", "Baseline", "Modified", "Change")))
	sb.WriteString("\n")

	rows := []struct {
		name      string
		base, mod float64
	}{
		{"Devices", baseline.DeviceKg, modified.DeviceKg},
		{"Data", baseline.DataKg, modified.DataKg},
		{"AI", baseline.AIKg, modified.AIKg},
		{"Total", baseline.TotalKg, modified.TotalKg},
	}
	for _, row := range rows {
		label := LabelStyle
		if row.name == "Total" {
			label = HeaderStyle
		}
		sb.WriteString(label.Render(fmt.Sprintf("%-*s", categoryWidth, row.name)))
		sb.WriteString(" ")
		sb.WriteString(ValueStyle.Render(fmt.Sprintf("%14s %14s", kgCell(row.base), kgCell(row.mod))))
		sb.WriteString("  ")
		sb.WriteString(RenderKgDelta(row.mod - row.base))
		sb.WriteString("\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}

func kgCell(kg float64) string {
	return greenops.FormatFloat(kg, displayDecimals) + " kg"
}

// RenderFieldTable renders the editable response fields. input is the
// rendered text input shown in place of the focused value while editing.
func RenderFieldTable(rows []FieldRow, focusedRow int, editing bool, input string) string {
	if len(rows) == 0 {
		muted := lipgloss.NewStyle().Foreground(ColorMuted).Italic(true)
		return muted.Render("No fields to edit")
	}

	var sb strings.Builder

	sb.WriteString(HeaderStyle.Render("Answers:"))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", separatorWidth))
	sb.WriteString("\n")
	sb.WriteString(LabelStyle.Render(fmt.Sprintf("  %-*s %-*s %-*s %s",
		fieldKeyWidth, "Field", fieldValueWidth, "Original", fieldValueWidth, "Modified", "Δ Total")))
	sb.WriteString("\n")

	for i, row := range rows {
		if editing && i == focusedRow {
			sb.WriteString(renderEditingRow(row, input))
		} else {
			sb.WriteString(renderFieldRow(row, i == focusedRow))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func renderFieldRow(row FieldRow, focused bool) string {
	var sb strings.Builder

	if focused {
		sb.WriteString(IconArrowRight + " ")
	} else {
		sb.WriteString("  ")
	}

	valueStyle := lipgloss.NewStyle().Foreground(ColorValue)
	modifiedStyle := lipgloss.NewStyle().Foreground(ColorHighlight).Bold(true)

	sb.WriteString(LabelStyle.Render(fmt.Sprintf("%-*s ", fieldKeyWidth, truncate(row.Key, fieldKeyWidth))))
	sb.WriteString(valueStyle.Render(fmt.Sprintf("%-*s ", fieldValueWidth, truncate(displayValue(row.OriginalValue), fieldValueWidth))))

	current := fmt.Sprintf("%-*s ", fieldValueWidth, truncate(displayValue(row.CurrentValue), fieldValueWidth))
	if row.Changed() {
		sb.WriteString(modifiedStyle.Render(current))
		sb.WriteString(RenderKgDelta(row.DeltaKg))
	} else {
		sb.WriteString(valueStyle.Render(current))
	}

	return sb.String()
}

func renderEditingRow(row FieldRow, input string) string {
	return "> " +
		LabelStyle.Render(fmt.Sprintf("%-*s ", fieldKeyWidth, truncate(row.Key, fieldKeyWidth))) +
		lipgloss.NewStyle().Foreground(ColorValue).Render(fmt.Sprintf("%-*s ", fieldValueWidth,
			truncate(displayValue(row.OriginalValue), fieldValueWidth))) +
		input
}

func displayValue(v string) string {
	if v == "" {
		return "-"
	}
	return v
}

// truncate shortens s to maxLen runes with a trailing ellipsis.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= minTruncateLen {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-minTruncateLen]) + "..."
}

// RenderWhatIfHelp renders the key bindings.
func RenderWhatIfHelp(editing bool) string {
	shortcuts := []string{
		"↑/↓: Navigate",
		"Enter: Edit answer",
		"r: Reset row",
		"q: Done",
	}
	if editing {
		shortcuts = []string{
			"Enter: Apply",
			"Esc: Cancel",
			"empty value: clear answer",
		}
	}
	return SubtleStyle.Render(strings.Join(shortcuts, " | "))
}

// Summary is everything the styled estimate view shows for one response.
type Summary struct {
	// Source names the form, e.g. its file path.
	Source        string
	Location      string
	Report        footprint.Report
	Value         *greenops.CurrencyValue
	Equivalencies greenops.EquivalencyOutput
}

// RenderSummary renders a boxed breakdown with device detail, the monetary
// value and equivalencies.
func RenderSummary(s Summary, width int) string {
	var sb strings.Builder

	title := "Annual Digital Footprint"
	if s.Source != "" {
		title += " · " + s.Source
	}
	sb.WriteString(HeaderStyle.Render(title))
	sb.WriteString("\n")
	if s.Location != "" {
		sb.WriteString(LabelStyle.Render("Location: "))
		sb.WriteString(ValueStyle.Render(s.Location))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	b := s.Report.Breakdown
	for _, row := range []struct {
		name string
		kg   float64
	}{
		{"Devices", b.DeviceKg},
		{"Data", b.DataKg},
		{"AI", b.AIKg},
	} {
		sb.WriteString(LabelStyle.Render(fmt.Sprintf("%-*s", categoryWidth, row.name)))
		sb.WriteString(ValueStyle.Render(fmt.Sprintf("%14s", kgCell(row.kg))))
		sb.WriteString(" ")
		sb.WriteString(SubtleStyle.Render(share(row.kg, b.TotalKg)))
		sb.WriteString("\n")
	}
	sb.WriteString(HeaderStyle.Render(fmt.Sprintf("%-*s", categoryWidth, "Total")))
	sb.WriteString(ValueStyle.Render(fmt.Sprintf("%14s", kgCell(b.TotalKg))))
	sb.WriteString("\n")

	if devices := renderDeviceDetail(s.Report.Devices); devices != "" {
		sb.WriteString("\n")
		sb.WriteString(devices)
	}

	if s.Value != nil {
		sb.WriteString("\n")
		sb.WriteString(LabelStyle.Render("Carbon cost: "))
		sb.WriteString(ValueStyle.Render(s.Value.Formatted))
		sb.WriteString(SubtleStyle.Render(fmt.Sprintf(" (%s/t × %s)",
			greenops.FormatFloat(s.Value.Price.PerTonne, displayDecimals),
			greenops.FormatFloat(s.Value.Price.SocialCostMultiplier, displayDecimals))))
		sb.WriteString("\n")
	}

	if !s.Equivalencies.IsEmpty && s.Equivalencies.DisplayText != "" {
		sb.WriteString(InfoStyle.Render(s.Equivalencies.DisplayText))
		sb.WriteString("\n")
	}

	style := BoxStyle
	if width > 0 {
		style = style.MaxWidth(width)
	}
	return style.Render(strings.TrimRight(sb.String(), "\n")) + "\n"
}

func renderDeviceDetail(devices []footprint.DeviceEmission) string {
	if len(devices) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(LabelStyle.Render("Device detail:"))
	sb.WriteString("\n")
	for _, d := range devices {
		line := fmt.Sprintf("  %-14s ×%-3s %5s h/day %10s kWh  %s",
			d.Category,
			greenops.FormatFloat(d.Count, 0),
			greenops.FormatFloat(d.DailyHours, 1),
			greenops.FormatFloat(d.KWhPerYear, 1),
			kgCell(greenops.Round2(d.Kg)))
		if !d.KnownPower {
			sb.WriteString(WarningStyle.Render(line + "  (unknown device type)"))
		} else {
			sb.WriteString(SubtleStyle.Render(line))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func share(part, total float64) string {
	if total <= 0 {
		return ""
	}
	return fmt.Sprintf("%3.0f%%", part/total*100)
}

