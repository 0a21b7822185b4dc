// Package export serializes a completed questionnaire with its computed
// breakdown, writes it to disk, and optionally submits it over HTTP.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rshade/bytecarbon/internal/footprint"
	"github.com/rshade/bytecarbon/internal/survey"
)

// TimestampLayout is ISO-8601 UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

const (
	participantPrefix = "P"
	filenamePrefix    = "survey_"
	filenameExt       = ".json"
)

// ErrEmptyRecord is returned when decoding a record without a participant ID.
var ErrEmptyRecord = errors.New("record has no participantId")

// Record is the exported form of one completed questionnaire.
type Record struct {
	ParticipantID string              `json:"participantId"`
	Timestamp     string              `json:"timestamp"`
	Form          survey.Response     `json:"form"`
	Results       footprint.Breakdown `json:"results"`
	CityState     string              `json:"cityState"`
}

// ParticipantID derives the export identifier from a point in time.
func ParticipantID(t time.Time) string {
	return participantPrefix + strconv.FormatInt(t.UnixMilli(), 10)
}

// NewRecord builds a record stamped with now. The form is copied.
func NewRecord(form survey.Response, results footprint.Breakdown, now time.Time) Record {
	return Record{
		ParticipantID: ParticipantID(now),
		Timestamp:     now.UTC().Format(TimestampLayout),
		Form:          form.Clone(),
		Results:       results,
		CityState:     survey.CityState(form),
	}
}

// Filename is the conventional file name for the record.
func (r Record) Filename() string {
	return filenamePrefix + r.ParticipantID + filenameExt
}

// Encode writes the record as indented JSON.
func (r Record) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteFile writes the record into dir and returns the file path.
func WriteFile(dir string, r Record) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}

	path := filepath.Join(dir, r.Filename())
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("creating export file: %w", err)
	}
	if err = r.Encode(f); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("writing export file: %w", err)
	}
	if err = f.Close(); err != nil {
		return "", fmt.Errorf("closing export file: %w", err)
	}
	return path, nil
}

// DecodeRecord reads one JSON record.
func DecodeRecord(r io.Reader) (Record, error) {
	var rec Record
	if err := json.NewDecoder(r).Decode(&rec); err != nil {
		return Record{}, fmt.Errorf("decoding record: %w", err)
	}
	if rec.ParticipantID == "" {
		return Record{}, ErrEmptyRecord
	}
	if rec.Form == nil {
		rec.Form = survey.Response{}
	}
	return rec, nil
}

// ReadRecord reads a record previously written by WriteFile.
func ReadRecord(path string) (Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return Record{}, fmt.Errorf("opening record: %w", err)
	}
	defer f.Close()
	return DecodeRecord(f)
}

// ReadForm loads a questionnaire response from a JSON or YAML file. The
// format follows the extension; anything other than .yaml or .yml is JSON.
func ReadForm(path string) (survey.Response, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading form %s: %w", path, err)
	}

	form := survey.Response{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &form)
	default:
		err = json.Unmarshal(data, &form)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing form %s: %w", path, err)
	}
	return form, nil
}

// DecodeForm reads a JSON questionnaire response, e.g. from stdin.
func DecodeForm(r io.Reader) (survey.Response, error) {
	form := survey.Response{}
	if err := json.NewDecoder(r).Decode(&form); err != nil {
		return nil, fmt.Errorf("decoding form: %w", err)
	}
	return form, nil
}
