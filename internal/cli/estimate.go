package cli

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rshade/bytecarbon/internal/footprint"
	"github.com/rshade/bytecarbon/internal/greenops"
	"github.com/rshade/bytecarbon/internal/logging"
	"github.com/rshade/bytecarbon/internal/survey"
	"github.com/rshade/bytecarbon/internal/tui"
)

// EstimateParams holds the parameters for the estimate command execution.
// Exported for testing.
type EstimateParams struct {
	Files       []string
	Sets        []string // key=value format
	FactorsPath string
	Output      string
	Interactive bool
}

// Estimate is the computed footprint of one form.
type Estimate struct {
	Source        string                     `json:"source"`
	CityState     string                     `json:"cityState,omitempty"`
	Results       footprint.Breakdown        `json:"results"`
	Currency      greenops.CurrencyValue     `json:"currency"`
	Equivalencies greenops.EquivalencyOutput `json:"equivalencies"`

	Report footprint.Report `json:"-"`
}

// NewEstimate computes the breakdown, its carbon cost and equivalencies.
func NewEstimate(source string, form survey.Response, f footprint.Factors) (Estimate, error) {
	report := footprint.Explain(form, f)

	value, err := greenops.ConvertToCurrency(report.Breakdown.TotalKg, f.Price())
	if err != nil {
		return Estimate{}, fmt.Errorf("%s: %w", source, err)
	}
	equivalencies, err := greenops.ForKg(report.Breakdown.TotalKg)
	if err != nil {
		return Estimate{}, fmt.Errorf("%s: %w", source, err)
	}

	return Estimate{
		Source:        source,
		CityState:     survey.CityState(form),
		Results:       report.Breakdown,
		Currency:      value,
		Equivalencies: equivalencies,
		Report:        report,
	}, nil
}

// NewEstimateCmd creates the "estimate" command.
func NewEstimateCmd() *cobra.Command {
	var params EstimateParams

	cmd := &cobra.Command{
		Use:   "estimate [form files...]",
		Short: "Estimate the annual footprint of questionnaire responses",
		Long: `Compute the annual kg CO2 of device use, data transfer and AI services for one
or more questionnaire responses (JSON, or YAML by extension). Use - to read a
JSON form from stdin. Several forms are estimated concurrently.

--set overrides individual answers before estimation; an empty value removes
the answer. --interactive opens an editor that recomputes on every change.`,
		Example: `  # Estimate one form
  bytecarbon estimate form.json

  # What if streaming dropped to 1-5 hours a week?
  bytecarbon estimate form.json --set entertainmentStreaming="1-5 hrs"

  # Use a regional grid factor file and NDJSON output
  bytecarbon estimate *.json --factors eu-grid.yaml --output ndjson

  # Interactive what-if analysis
  bytecarbon estimate form.json --interactive`,
		RunE: func(cmd *cobra.Command, args []string) error {
			params.Files = args
			return executeEstimate(cmd, params)
		},
	}

	cmd.Flags().StringArrayVar(&params.Sets, "set", nil, "Answer override key=value (repeatable)")
	cmd.Flags().StringVar(&params.FactorsPath, "factors", "", "YAML file of emission factors merged onto the config")
	cmd.Flags().StringVar(&params.Output, "output", "", "Output format (table, json, ndjson)")
	cmd.Flags().BoolVar(&params.Interactive, "interactive", false, "Launch interactive what-if editor")

	return cmd
}

// ValidateEstimateParams checks flag consistency.
// Exported for testing.
func ValidateEstimateParams(params *EstimateParams) error {
	if len(params.Files) == 0 && !params.Interactive {
		return errors.New("at least one form file is required (use - for stdin)")
	}
	if params.Interactive && len(params.Files) > 1 {
		return errors.New("--interactive takes at most one form file")
	}
	stdinCount := 0
	for _, f := range params.Files {
		if f == stdinPath {
			stdinCount++
		}
	}
	if stdinCount > 1 {
		return errors.New("stdin (-) can only be read once")
	}
	if params.Interactive && stdinCount > 0 {
		return errors.New("--interactive cannot read the form from stdin")
	}
	return nil
}

func executeEstimate(cmd *cobra.Command, params EstimateParams) error {
	ctx := cmd.Context()
	log := logging.FromContext(ctx)

	if err := ValidateEstimateParams(&params); err != nil {
		return inputError(err)
	}

	cfg, err := activeConfig()
	if err != nil {
		return err
	}
	factors, err := resolveFactors(cfg, params.FactorsPath)
	if err != nil {
		return inputError(err)
	}
	format, err := resolveFormat(cfg, params.Output)
	if err != nil {
		return inputError(err)
	}
	overrides, err := ParseOverrides(params.Sets)
	if err != nil {
		return inputError(fmt.Errorf("parsing --set: %w", err))
	}

	audit := newAuditContext(ctx, "estimate", map[string]string{
		"files":       strings.Join(params.Files, ","),
		"overrides":   fmt.Sprint(len(overrides)),
		"interactive": fmt.Sprint(params.Interactive),
	})

	log.Debug().Ctx(ctx).
		Int("form_count", len(params.Files)).
		Int("override_count", len(overrides)).
		Str("annualization", factors.Annualization).
		Str("ai_model", factors.AIModel).
		Msg("estimating forms")

	var estimates []Estimate
	if params.Interactive {
		estimates, err = estimateInteractive(cmd, params, overrides, factors)
	} else {
		estimates, err = estimateForms(ctx, cmd, params.Files, overrides, factors)
	}
	if err != nil {
		audit.logFailure(ctx, err)
		return err
	}

	total := 0.0
	for _, e := range estimates {
		total += e.Results.TotalKg
	}
	audit.logSuccess(ctx, greenops.Round2(total))

	return renderEstimates(cmd.OutOrStdout(), format, cfg.Output.Precision, estimates)
}

// estimateForms loads and estimates every form concurrently. Results keep
// the argument order.
func estimateForms(
	ctx context.Context,
	cmd *cobra.Command,
	files []string,
	overrides map[string]string,
	factors footprint.Factors,
) ([]Estimate, error) {
	estimates := make([]Estimate, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			form, err := loadForm(cmd, path)
			if err != nil {
				return err
			}
			est, err := NewEstimate(sourceName(path), applyOverrides(form, overrides), factors)
			if err != nil {
				return err
			}
			logging.FromContext(ctx).Debug().Ctx(ctx).
				Str("source", est.Source).
				Float64("total_kg", est.Results.TotalKg).
				Msg("form estimated")
			estimates[i] = est
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, inputError(err)
	}
	return estimates, nil
}

// estimateInteractive runs the what-if editor and estimates the edited form.
func estimateInteractive(
	cmd *cobra.Command,
	params EstimateParams,
	overrides map[string]string,
	factors footprint.Factors,
) ([]Estimate, error) {
	form := survey.Response{}
	source := "interactive"
	if len(params.Files) == 1 {
		loaded, err := loadForm(cmd, params.Files[0])
		if err != nil {
			return nil, inputError(err)
		}
		form = loaded
		source = params.Files[0]
	}

	edited, _, err := tui.RunWhatIf(cmd.Context(), applyOverrides(form, overrides), factors,
		tea.WithInput(cmd.InOrStdin()), tea.WithOutput(cmd.OutOrStdout()))
	if err != nil {
		return nil, err
	}

	est, err := NewEstimate(source, edited, factors)
	if err != nil {
		return nil, inputError(err)
	}
	return []Estimate{est}, nil
}

func sourceName(path string) string {
	if path == stdinPath {
		return "stdin"
	}
	return path
}
