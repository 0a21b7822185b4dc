package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rshade/bytecarbon/internal/config"
	"github.com/rshade/bytecarbon/internal/survey"
)

type tablesOutput struct {
	Version string         `json:"version"`
	Tables  []survey.Table `json:"tables"`
}

// NewTablesCmd creates the "tables" command.
func NewTablesCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "tables",
		Short: "Show the categorical answer tables",
		Long: `Print every categorical table used to turn answer labels into numbers. A label
maps to the first row whose pattern it contains (case-sensitive); labels that
match no row take the table default.`,
		Example: `  bytecarbon tables
  bytecarbon tables --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := activeConfig()
			if err != nil {
				return err
			}
			format, err := resolveFormat(cfg, output)
			if err != nil {
				return inputError(err)
			}
			if format != config.FormatTable {
				return renderTablesJSON(cmd.OutOrStdout(), format == config.FormatJSON)
			}
			return renderTables(cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&output, "output", "", "Output format (table, json)")
	return cmd
}

func renderTablesJSON(w io.Writer, indent bool) error {
	encoder := json.NewEncoder(w)
	if indent {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(tablesOutput{Version: survey.TablesVersion, Tables: survey.Tables()}); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

func renderTables(w io.Writer) error {
	fmt.Fprintf(w, "Categorical tables (version %s)\n", survey.TablesVersion)

	for _, t := range survey.Tables() {
		fmt.Fprintf(w, "\n%s", t.Name)
		if t.Unit != "" {
			fmt.Fprintf(w, " (%s)", t.Unit)
		}
		fmt.Fprintln(w)

		tw := tabwriter.NewWriter(w, 0, 0, tabPadding, ' ', 0)
		fmt.Fprintln(tw, "  Pattern\tValue")
		for _, row := range t.Rows {
			fmt.Fprintf(tw, "  %s\t%s\n", row.Pattern, rowValue(row))
		}
		if t.DefaultKey != "" {
			fmt.Fprintf(tw, "  (no match)\t%s\n", t.DefaultKey)
		} else {
			fmt.Fprintf(tw, "  (no match)\t%s\n", strconv.FormatFloat(t.Default, 'f', -1, 64))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func rowValue(row survey.Row) string {
	if row.Key != "" {
		return row.Key
	}
	return strconv.FormatFloat(row.Value, 'f', -1, 64)
}
