package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/bytecarbon/internal/config"
	"github.com/rshade/bytecarbon/internal/export"
	"github.com/rshade/bytecarbon/internal/footprint"
	"github.com/rshade/bytecarbon/internal/greenops"
)

// ExportParams holds the parameters for the export command execution.
type ExportParams struct {
	Form        string
	Dir         string
	Sets        []string
	FactorsPath string
}

// nowFunc is replaced in tests.
var nowFunc = time.Now //nolint:gochecknoglobals // Test seam for participant IDs

// NewExportCmd creates the "export" command.
func NewExportCmd() *cobra.Command {
	var params ExportParams

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a questionnaire and its results as an export record",
		Long: `Compute the footprint of a questionnaire and write it, together with the
raw answers, to survey_<participantId>.json. The participant ID is P followed
by the current Unix time in milliseconds.`,
		Example: `  # Export into the configured directory
  bytecarbon export --form form.json

  # Export into ./exports after correcting an answer
  bytecarbon export --form form.json --dir exports --set consent=true`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return executeExport(cmd, params)
		},
	}

	cmd.Flags().StringVar(&params.Form, "form", "", "Questionnaire file (JSON or YAML, - for stdin)")
	cmd.Flags().StringVar(&params.Dir, "dir", "", "Output directory (default: configured export directory)")
	cmd.Flags().StringArrayVar(&params.Sets, "set", nil, "Answer override key=value (repeatable)")
	cmd.Flags().StringVar(&params.FactorsPath, "factors", "", "YAML file of emission factors merged onto the config")
	_ = cmd.MarkFlagRequired("form")

	return cmd
}

func executeExport(cmd *cobra.Command, params ExportParams) error {
	ctx := cmd.Context()

	cfg, err := activeConfig()
	if err != nil {
		return err
	}

	audit := newAuditContext(ctx, "export", map[string]string{
		"form": params.Form,
		"dir":  params.Dir,
	})

	rec, err := buildRecord(cmd, cfg, params.Form, params.Sets, params.FactorsPath)
	if err != nil {
		audit.logFailure(ctx, err)
		return inputError(err)
	}

	dir := params.Dir
	if dir == "" {
		dir = cfg.Export.Directory
	}
	path, err := export.WriteFile(dir, rec)
	if err != nil {
		audit.logFailure(ctx, err)
		return inputError(err)
	}
	audit.logSuccess(ctx, rec.Results.TotalKg)

	logger.Info().Ctx(ctx).
		Str("participant_id", rec.ParticipantID).
		Str("path", path).
		Msg("export written")

	fmt.Fprintf(cmd.OutOrStdout(), "Exported %s (%s) to %s\n",
		rec.ParticipantID, greenops.FormatKg(rec.Results.TotalKg, cfg.Output.Precision), path)
	if err = export.CheckConsent(rec.Form); errors.Is(err, export.ErrConsentRequired) {
		fmt.Fprintln(cmd.ErrOrStderr(), "Note: the form has no consent; this record cannot be submitted.")
	}
	return nil
}

// buildRecord loads a form, applies overrides and computes its record.
func buildRecord(
	cmd *cobra.Command,
	cfg *config.Config,
	formPath string,
	sets []string,
	factorsPath string,
) (export.Record, error) {
	overrides, err := ParseOverrides(sets)
	if err != nil {
		return export.Record{}, fmt.Errorf("parsing --set: %w", err)
	}
	factors, err := resolveFactors(cfg, factorsPath)
	if err != nil {
		return export.Record{}, err
	}
	form, err := loadForm(cmd, formPath)
	if err != nil {
		return export.Record{}, err
	}
	form = applyOverrides(form, overrides)

	return export.NewRecord(form, footprint.Calculate(form, factors), nowFunc()), nil
}
