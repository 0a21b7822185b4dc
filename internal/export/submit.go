package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/rshade/bytecarbon/internal/footprint"
	"github.com/rshade/bytecarbon/internal/logging"
	"github.com/rshade/bytecarbon/internal/survey"
)

// ErrConsentRequired is returned when a record is submitted without the
// participant's explicit consent.
var ErrConsentRequired = errors.New("consent is required before submitting results")

// ErrNoEndpoint is returned when no submission endpoint is configured.
var ErrNoEndpoint = errors.New("no submission endpoint configured")

const maxResponseBytes = 1 << 20

// TransportError is a failed submission. StatusCode is 0 when no response
// was received.
type TransportError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("submitting to %s: server returned %d: %v", e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("submitting to %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Temporary reports whether a retry could succeed.
func (e *TransportError) Temporary() bool {
	return e.StatusCode == 0 || e.StatusCode >= http.StatusInternalServerError ||
		e.StatusCode == http.StatusTooManyRequests
}

// Receipt is the collector's acknowledgement of a submission.
type Receipt struct {
	ReceiptID     string              `json:"receiptId,omitempty"`
	ParticipantID string              `json:"participantId"`
	Results       footprint.Breakdown `json:"results"`
	ResultsMatch  bool                `json:"resultsMatch"`
	StatusCode    int                 `json:"-"`
}

// CheckConsent returns ErrConsentRequired unless the form carries consent
// as the boolean true.
func CheckConsent(form survey.Response) error {
	if !form.Bool(survey.FieldConsent...) {
		return ErrConsentRequired
	}
	return nil
}

// Submitter posts records to a collection endpoint.
type Submitter struct {
	endpoint        string
	client          *http.Client
	maxRetries      int
	initialInterval time.Duration
}

// Option configures a Submitter.
type Option func(*Submitter)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Submitter) { s.client = c }
}

// WithTimeout sets the per-request timeout of the default client.
func WithTimeout(d time.Duration) Option {
	return func(s *Submitter) { s.client.Timeout = d }
}

// WithMaxRetries bounds the retries after the first attempt.
func WithMaxRetries(n int) Option {
	return func(s *Submitter) {
		if n >= 0 {
			s.maxRetries = n
		}
	}
}

// WithInitialInterval sets the first backoff delay.
func WithInitialInterval(d time.Duration) Option {
	return func(s *Submitter) { s.initialInterval = d }
}

// NewSubmitter returns a Submitter for endpoint.
func NewSubmitter(endpoint string, opts ...Option) *Submitter {
	s := &Submitter{
		endpoint: endpoint,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		maxRetries:      3,
		initialInterval: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Endpoint returns the configured URL.
func (s *Submitter) Endpoint() string { return s.endpoint }

// Submit posts rec as JSON. Server errors and network failures are retried
// with exponential backoff; other 4xx answers fail immediately. A failed
// submission never alters rec.
func (s *Submitter) Submit(ctx context.Context, rec Record) (*Receipt, error) {
	if s.endpoint == "" {
		return nil, ErrNoEndpoint
	}
	if err := CheckConsent(rec.Form); err != nil {
		return nil, err
	}

	body, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}

	log := logging.FromContext(ctx)

	var receipt *Receipt
	operation := func() error {
		r, postErr := s.post(ctx, body)
		if postErr != nil {
			var te *TransportError
			if errors.As(postErr, &te) && !te.Temporary() {
				return backoff.Permanent(postErr)
			}
			return postErr
		}
		receipt = r
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.initialInterval
	policy.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(s.maxRetries)), ctx)

	err = backoff.RetryNotify(operation, b, func(retryErr error, d time.Duration) {
		log.Warn().Ctx(ctx).Err(retryErr).
			Str("component", "export").
			Dur("retry_in", d).
			Msg("submission failed, retrying")
	})
	if err != nil {
		var te *TransportError
		if !errors.As(err, &te) {
			err = &TransportError{Endpoint: s.endpoint, Err: err}
		}
		return nil, err
	}

	log.Info().Ctx(ctx).
		Str("component", "export").
		Str("participant_id", rec.ParticipantID).
		Int("status", receipt.StatusCode).
		Msg("submission accepted")
	return receipt, nil
}

func (s *Submitter) post(ctx context.Context, body []byte) (*Receipt, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, backoff.Permanent(&TransportError{Endpoint: s.endpoint, Err: err})
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	res, err := s.client.Do(req)
	if err != nil {
		return nil, &TransportError{Endpoint: s.endpoint, Err: err}
	}
	defer res.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return nil, &TransportError{Endpoint: s.endpoint, StatusCode: res.StatusCode, Err: err}
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		msg := string(bytes.TrimSpace(payload))
		if msg == "" {
			msg = http.StatusText(res.StatusCode)
		}
		return nil, &TransportError{
			Endpoint:   s.endpoint,
			StatusCode: res.StatusCode,
			Err:        errors.New(msg),
		}
	}

	receipt := &Receipt{}
	if len(bytes.TrimSpace(payload)) > 0 {
		// Collectors are free to answer with any body; only a JSON receipt is read.
		if err = json.Unmarshal(payload, receipt); err != nil {
			logging.FromContext(ctx).Debug().Ctx(ctx).Err(err).
				Str("component", "export").
				Int("status", res.StatusCode).
				Int("body_bytes", len(payload)).
				Msg("collector response is not a JSON receipt")
			*receipt = Receipt{}
		}
	}
	receipt.StatusCode = res.StatusCode
	return receipt, nil
}
