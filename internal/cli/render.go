package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rshade/bytecarbon/internal/config"
	"github.com/rshade/bytecarbon/internal/greenops"
	"github.com/rshade/bytecarbon/internal/survey"
	"github.com/rshade/bytecarbon/internal/tui"
)

// tabPadding is the minimum column padding for tabwriter output.
const tabPadding = 2

// estimatesJSONOutput is the --output json document.
type estimatesJSONOutput struct {
	TablesVersion string     `json:"tablesVersion"`
	Estimates     []Estimate `json:"estimates"`
	TotalKg       float64    `json:"totalKg"`
}

// renderEstimates writes estimates in the requested format.
func renderEstimates(w io.Writer, format string, precision int, estimates []Estimate) error {
	switch format {
	case config.FormatJSON:
		return renderEstimatesJSON(w, estimates)
	case config.FormatNDJSON:
		return renderEstimatesNDJSON(w, estimates)
	default:
		if styledOutput(w) {
			return renderEstimatesStyled(w, estimates)
		}
		return renderEstimatesTable(w, precision, estimates)
	}
}

// styledOutput reports whether w is a colour-capable terminal.
func styledOutput(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f != os.Stdout {
		return false
	}
	return tui.DetectOutputMode(false, false, false) == tui.OutputModeStyled
}

func renderEstimatesStyled(w io.Writer, estimates []Estimate) error {
	width := tui.TerminalWidth()
	for i, e := range estimates {
		if i > 0 {
			fmt.Fprintln(w)
		}
		value := e.Currency
		summary := tui.Summary{
			Source:        e.Source,
			Location:      e.CityState,
			Report:        e.Report,
			Value:         &value,
			Equivalencies: e.Equivalencies,
		}
		if _, err := fmt.Fprintln(w, tui.RenderSummary(summary, width)); err != nil {
			return err
		}
	}
	return nil
}

func renderEstimatesTable(w io.Writer, precision int, estimates []Estimate) error {
	tw := tabwriter.NewWriter(w, 0, 0, tabPadding, ' ', 0)

	fmt.Fprintln(tw, "Source\tLocation\tDevices (kg)\tData (kg)\tAI (kg)\tTotal (kg)\tCarbon Cost")
	fmt.Fprintln(tw, "------\t--------\t------------\t---------\t-------\t----------\t-----------")

	total := 0.0
	for _, e := range estimates {
		location := e.CityState
		if location == "" {
			location = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Source,
			location,
			greenops.FormatFloat(e.Results.DeviceKg, precision),
			greenops.FormatFloat(e.Results.DataKg, precision),
			greenops.FormatFloat(e.Results.AIKg, precision),
			greenops.FormatFloat(e.Results.TotalKg, precision),
			e.Currency.Formatted,
		)
		total += e.Results.TotalKg
	}
	if len(estimates) > 1 {
		fmt.Fprintf(tw, "TOTAL\t\t\t\t\t%s\t\n", greenops.FormatFloat(greenops.Round2(total), precision))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, e := range estimates {
		if e.Equivalencies.IsEmpty {
			continue
		}
		if len(estimates) == 1 {
			fmt.Fprintf(w, "\n%s\n", e.Equivalencies.DisplayText)
			continue
		}
		fmt.Fprintf(w, "%s: %s\n", e.Source, e.Equivalencies.CompactText)
	}
	return nil
}

func renderEstimatesJSON(w io.Writer, estimates []Estimate) error {
	total := 0.0
	for _, e := range estimates {
		total += e.Results.TotalKg
	}
	output := estimatesJSONOutput{
		TablesVersion: survey.TablesVersion,
		Estimates:     estimates,
		TotalKg:       greenops.Round2(total),
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(output); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// renderEstimatesNDJSON writes one estimate object per line.
func renderEstimatesNDJSON(w io.Writer, estimates []Estimate) error {
	encoder := json.NewEncoder(w)
	for _, e := range estimates {
		if err := encoder.Encode(e); err != nil {
			return fmt.Errorf("encoding NDJSON: %w", err)
		}
	}
	return nil
}
