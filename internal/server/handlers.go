package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rshade/bytecarbon/internal/export"
	"github.com/rshade/bytecarbon/internal/footprint"
	"github.com/rshade/bytecarbon/internal/greenops"
	"github.com/rshade/bytecarbon/internal/logging"
	"github.com/rshade/bytecarbon/internal/survey"
)

// estimateRequest carries factors raw so that they can be decoded onto the
// server's factors; keys the client omits keep the server's values.
type estimateRequest struct {
	Form    survey.Response `json:"form"`
	Factors json.RawMessage `json:"factors,omitempty"`
}

type estimateKey struct {
	Form    survey.Response   `json:"form"`
	Factors footprint.Factors `json:"factors"`
}

type estimateResponse struct {
	Results       footprint.Breakdown        `json:"results"`
	Currency      greenops.CurrencyValue     `json:"currency"`
	Equivalencies greenops.EquivalencyOutput `json:"equivalencies"`
	TablesVersion string                     `json:"tablesVersion"`
}

type tablesResponse struct {
	Version string         `json:"version"`
	Tables  []survey.Table `json:"tables"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"cache":  s.memo.stats(),
	})
}

func (s *Server) handleFactors(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.factors)
}

func (s *Server) handleTables(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, tablesResponse{
		Version: survey.TablesVersion,
		Tables:  survey.Tables(),
	})
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var req estimateRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Form == nil {
		respondError(w, http.StatusBadRequest, "form is required", nil)
		return
	}

	factors := s.factors
	if len(req.Factors) > 0 {
		overlaid, err := factors.Overlay(func(out any) error { return json.Unmarshal(req.Factors, out) })
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid factors", err)
			return
		}
		factors = overlaid
		if err := factors.Validate(); err != nil {
			respondError(w, http.StatusBadRequest, "invalid factors", err)
			return
		}
	}

	canonical, err := json.Marshal(estimateKey{Form: req.Form, Factors: factors})
	if err != nil {
		respondError(w, http.StatusBadRequest, "form is not serializable", err)
		return
	}
	key := memoKey(canonical)
	if cached, ok := s.memo.get(key); ok {
		w.Header().Set("X-Cache", "hit")
		respondJSON(w, http.StatusOK, cached)
		return
	}

	resp, err := estimate(req.Form, factors)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "estimate failed", err)
		return
	}
	s.memo.put(key, resp)

	logging.FromContext(r.Context()).Debug().
		Float64("total_kg", resp.Results.TotalKg).
		Msg("estimate computed")

	w.Header().Set("X-Cache", "miss")
	respondJSON(w, http.StatusOK, resp)
}

func estimate(form survey.Response, f footprint.Factors) (estimateResponse, error) {
	results := footprint.Calculate(form, f)

	value, err := greenops.ConvertToCurrency(results.TotalKg, f.Price())
	if err != nil {
		return estimateResponse{}, err
	}
	equivalencies, err := greenops.ForKg(results.TotalKg)
	if err != nil {
		return estimateResponse{}, err
	}

	return estimateResponse{
		Results:       results,
		Currency:      value,
		Equivalencies: equivalencies,
		TablesVersion: survey.TablesVersion,
	}, nil
}

// handleSubmission acknowledges an exported record. Results are recomputed
// with the server's factors and compared; nothing is stored.
func (s *Server) handleSubmission(w http.ResponseWriter, r *http.Request) {
	rec, err := export.DecodeRecord(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid record", err)
		return
	}
	if err = export.CheckConsent(rec.Form); err != nil {
		respondError(w, http.StatusUnprocessableEntity, "consent required", err)
		return
	}

	recomputed := footprint.Calculate(rec.Form, s.factors)
	receipt := export.Receipt{
		ReceiptID:     s.newReceiptID(),
		ParticipantID: rec.ParticipantID,
		Results:       recomputed,
		ResultsMatch:  recomputed == rec.Results,
	}

	logging.FromContext(r.Context()).Info().
		Str("receipt_id", receipt.ReceiptID).
		Str("participant_id", rec.ParticipantID).
		Bool("results_match", receipt.ResultsMatch).
		Msg("submission received")

	respondJSON(w, http.StatusAccepted, receipt)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]string{
		"error": message,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}
