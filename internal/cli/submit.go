package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/bytecarbon/internal/config"
	"github.com/rshade/bytecarbon/internal/export"
	"github.com/rshade/bytecarbon/internal/footprint"
	"github.com/rshade/bytecarbon/internal/greenops"
)

// ErrSubmissionDeclined is returned when the user answers no at the prompt.
var ErrSubmissionDeclined = errors.New("submission declined")

// SubmitParams holds the parameters for the submit command execution.
type SubmitParams struct {
	Form        string
	Record      string
	Endpoint    string
	Sets        []string
	FactorsPath string
	Yes         bool
	Output      string
}

// NewSubmitCmd creates the "submit" command.
func NewSubmitCmd() *cobra.Command {
	var params SubmitParams

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit an export record to a collection endpoint",
		Long: `POST an export record as JSON to the configured collection endpoint. The
record is built from --form or read from a file written by "bytecarbon export".

Submission requires the form's consent answer to be true. Network failures and
server errors are retried with exponential backoff. When a record is not
submitted its results are still printed, and a record built from --form is
saved to the export directory for a later --record submission.

Exit codes: 0 submitted, 1 input error, 2 consent missing, 3 transport failure.`,
		Example: `  # Submit a form directly
  bytecarbon submit --form form.json --endpoint https://collector.example.org/api/v1/submissions

  # Submit an existing export without prompting
  bytecarbon submit --record survey_P1709993107123.json --yes`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return executeSubmit(cmd, params)
		},
	}

	cmd.Flags().StringVar(&params.Form, "form", "", "Questionnaire file (JSON or YAML, - for stdin)")
	cmd.Flags().StringVar(&params.Record, "record", "", "Export record file")
	cmd.Flags().StringVar(&params.Endpoint, "endpoint", "", "Collection URL (default: configured endpoint)")
	cmd.Flags().StringArrayVar(&params.Sets, "set", nil, "Answer override key=value (with --form)")
	cmd.Flags().StringVar(&params.FactorsPath, "factors", "", "YAML file of emission factors (with --form)")
	cmd.Flags().BoolVarP(&params.Yes, "yes", "y", false, "Submit without confirmation")
	cmd.Flags().StringVar(&params.Output, "output", "", "Output format (table, json)")

	cmd.MarkFlagsMutuallyExclusive("form", "record")
	cmd.MarkFlagsOneRequired("form", "record")
	cmd.MarkFlagsMutuallyExclusive("record", "set")
	cmd.MarkFlagsMutuallyExclusive("record", "factors")

	return cmd
}

func executeSubmit(cmd *cobra.Command, params SubmitParams) error {
	ctx := cmd.Context()

	cfg, err := activeConfig()
	if err != nil {
		return err
	}
	format, err := resolveFormat(cfg, params.Output)
	if err != nil {
		return inputError(err)
	}

	endpoint := params.Endpoint
	if endpoint == "" {
		endpoint = cfg.Submission.Endpoint
	}

	audit := newAuditContext(ctx, "submit", map[string]string{
		"form":     params.Form,
		"record":   params.Record,
		"endpoint": endpoint,
	})

	if endpoint == "" {
		audit.logFailure(ctx, export.ErrNoEndpoint)
		return inputError(fmt.Errorf("%w: use --endpoint or set submission.endpoint", export.ErrNoEndpoint))
	}

	rec, err := loadSubmission(cmd, cfg, params)
	if err != nil {
		audit.logFailure(ctx, err)
		return inputError(err)
	}

	if err = export.CheckConsent(rec.Form); err != nil {
		audit.logFailure(ctx, err)
		return keepResults(cmd, cfg, format, params, rec, err)
	}

	if !params.Yes {
		answer := ConfirmSubmission(cmd.ErrOrStderr(), cmd.InOrStdin(),
			rec.ParticipantID, rec.Results.TotalKg, endpoint)
		if !answer.Accepted && !answer.Skipped {
			audit.logFailure(ctx, ErrSubmissionDeclined)
			return keepResults(cmd, cfg, format, params, rec, inputError(ErrSubmissionDeclined))
		}
	}

	submitter := export.NewSubmitter(endpoint,
		export.WithTimeout(time.Duration(cfg.Submission.TimeoutSeconds)*time.Second),
		export.WithMaxRetries(cfg.Submission.MaxRetries),
	)
	receipt, err := submitter.Submit(ctx, rec)
	if err != nil {
		audit.logFailure(ctx, err)
		return keepResults(cmd, cfg, format, params, rec, err)
	}
	audit.logSuccess(ctx, rec.Results.TotalKg)

	w := cmd.OutOrStdout()
	if format != config.FormatTable {
		return json.NewEncoder(w).Encode(receipt)
	}

	fmt.Fprintf(w, "Submitted %s to %s (HTTP %d)\n", rec.ParticipantID, endpoint, receipt.StatusCode)
	if receipt.ReceiptID != "" {
		fmt.Fprintf(w, "Receipt: %s\n", receipt.ReceiptID)
		if !receipt.ResultsMatch {
			fmt.Fprintln(cmd.ErrOrStderr(), "Warning: the collector computed different results for this form.")
		}
	}
	return nil
}

// loadSubmission builds the record from --form or reads it from --record.
func loadSubmission(cmd *cobra.Command, cfg *config.Config, params SubmitParams) (export.Record, error) {
	if params.Record != "" {
		return export.ReadRecord(params.Record)
	}
	return buildRecord(cmd, cfg, params.Form, params.Sets, params.FactorsPath)
}

// keptResults is printed when a record was not submitted.
type keptResults struct {
	ParticipantID string              `json:"participantId"`
	Results       footprint.Breakdown `json:"results"`
	SavedTo       string              `json:"savedTo,omitempty"`
	Error         string              `json:"error"`
}

// keepResults prints the results of a record that was not submitted and, for
// a record built from --form, saves it to the export directory so that it can
// be submitted later with --record. cause is returned unchanged.
func keepResults(
	cmd *cobra.Command,
	cfg *config.Config,
	format string,
	params SubmitParams,
	rec export.Record,
	cause error,
) error {
	ctx := cmd.Context()

	savedTo := params.Record
	if savedTo == "" {
		path, err := export.WriteFile(cfg.Export.Directory, rec)
		if err != nil {
			logger.Warn().Ctx(ctx).Err(err).
				Str("participant_id", rec.ParticipantID).
				Msg("could not save unsubmitted record")
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: results were not saved: %v\n", err)
		} else {
			savedTo = path
			logger.Info().Ctx(ctx).
				Str("participant_id", rec.ParticipantID).
				Str("path", path).
				Msg("unsubmitted record saved")
		}
	}

	w := cmd.OutOrStdout()
	if format != config.FormatTable {
		if err := json.NewEncoder(w).Encode(keptResults{
			ParticipantID: rec.ParticipantID,
			Results:       rec.Results,
			SavedTo:       savedTo,
			Error:         cause.Error(),
		}); err != nil {
			return errors.Join(cause, fmt.Errorf("encoding JSON: %w", err))
		}
		return cause
	}

	precision := cfg.Output.Precision
	fmt.Fprintf(w, "Not submitted: %s\n", rec.ParticipantID)
	tw := tabwriter.NewWriter(w, 0, 0, tabPadding, ' ', 0)
	fmt.Fprintf(tw, "  Devices\t%s\n", greenops.FormatKg(rec.Results.DeviceKg, precision))
	fmt.Fprintf(tw, "  Data\t%s\n", greenops.FormatKg(rec.Results.DataKg, precision))
	fmt.Fprintf(tw, "  AI\t%s\n", greenops.FormatKg(rec.Results.AIKg, precision))
	fmt.Fprintf(tw, "  Total\t%s\n", greenops.FormatKg(rec.Results.TotalKg, precision))
	_ = tw.Flush()
	if savedTo != "" {
		fmt.Fprintf(w, "Saved to %s (resubmit with: bytecarbon submit --record %s)\n", savedTo, savedTo)
	}
	return cause
}
