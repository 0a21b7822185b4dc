package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/bytecarbon/internal/export"
	"github.com/rshade/bytecarbon/internal/footprint"
	"github.com/rshade/bytecarbon/internal/survey"
)

func newTestServer(t *testing.T, cacheEntries int) *Server {
	t.Helper()
	s, err := New(Options{
		Factors:      footprint.DefaultFactors(),
		CacheEntries: cacheEntries,
		Logger:       zerolog.Nop(),
		NewReceiptID: func() string { return "receipt-1" },
	})
	require.NoError(t, err)
	return s
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNew_RejectsInvalidFactors(t *testing.T) {
	f := footprint.DefaultFactors()
	f.AIModel = "per_token"

	_, err := New(Options{Factors: f})
	require.ErrorIs(t, err, footprint.ErrUnknownAIModel)
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(t, 4), http.MethodGet, "/api/v1/health", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
}

func TestFactorsAndTables(t *testing.T) {
	s := newTestServer(t, 4)

	rec := do(t, s, http.MethodGet, "/api/v1/factors", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var f footprint.Factors
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &f))
	assert.Equal(t, footprint.DefaultFactors(), f)

	rec = do(t, s, http.MethodGet, "/api/v1/tables", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var tables tablesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tables))
	assert.Equal(t, survey.TablesVersion, tables.Version)
	assert.Len(t, tables.Tables, len(survey.Tables()))
}

func TestEstimate(t *testing.T) {
	s := newTestServer(t, 4)
	body := map[string]any{
		"form": map[string]any{
			"academicStreaming":      "6-15 hrs",
			"entertainmentStreaming": "11-25 hrs",
		},
	}

	rec := do(t, s, http.MethodPost, "/api/v1/estimate", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "miss", rec.Header().Get("X-Cache"))

	var resp estimateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.InDelta(t, 113.57, resp.Results.DataKg, 1e-9)
	assert.InDelta(t, 113.57, resp.Results.TotalKg, 1e-9)
	assert.InDelta(t, 5.79, resp.Currency.Amount, 1e-9)
	assert.Equal(t, "USD", resp.Currency.Currency)
	assert.False(t, resp.Equivalencies.IsEmpty)

	again := do(t, s, http.MethodPost, "/api/v1/estimate", body)
	assert.Equal(t, "hit", again.Header().Get("X-Cache"))
	assert.JSONEq(t, rec.Body.String(), again.Body.String())
}

func TestEstimate_FactorOverride(t *testing.T) {
	s := newTestServer(t, 4)
	body := map[string]any{
		"form":    map[string]any{"smartphoneCount": 1, "smartphoneHours": 4},
		"factors": map[string]any{"gridIntensity": 0.4, "carbonPrice": 100, "currency": "EUR"},
	}

	rec := do(t, s, http.MethodPost, "/api/v1/estimate", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp estimateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.InDelta(t, 2.92, resp.Results.DeviceKg, 1e-9)
	assert.Equal(t, "EUR", resp.Currency.Currency)
	assert.InDelta(t, 0.29, resp.Currency.Amount, 1e-9)
}

func TestEstimate_ZeroFactorOverride(t *testing.T) {
	s := newTestServer(t, 4)
	form := map[string]any{"smartphoneCount": 1, "smartphoneHours": 4}

	baseline := do(t, s, http.MethodPost, "/api/v1/estimate", map[string]any{"form": form})
	require.Equal(t, http.StatusOK, baseline.Code, baseline.Body.String())

	rec := do(t, s, http.MethodPost, "/api/v1/estimate", map[string]any{
		"form":    form,
		"factors": map[string]any{"gridIntensity": 0, "socialCostMultiplier": 0},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "miss", rec.Header().Get("X-Cache"), "zeroed factors must not reuse the default entry")

	var resp estimateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Zero(t, resp.Results.DeviceKg)
	assert.Zero(t, resp.Results.TotalKg)
	assert.Zero(t, resp.Currency.Amount)
	assert.InDelta(t, 0.0, resp.Currency.Price.SocialCostMultiplier, 1e-12)

	// The server's own factors are unchanged.
	again := do(t, s, http.MethodPost, "/api/v1/estimate", map[string]any{"form": form})
	require.NoError(t, json.Unmarshal(again.Body.Bytes(), &resp))
	assert.InDelta(t, 5.11, resp.Results.DeviceKg, 1e-9)
}

func TestEstimate_BadRequests(t *testing.T) {
	s := newTestServer(t, 4)

	tests := []struct {
		name string
		body any
		code int
	}{
		{"malformed", "{", http.StatusBadRequest},
		{"missing form", map[string]any{}, http.StatusBadRequest},
		{"trailing data", `{"form":{}} {"form":{}}`, http.StatusBadRequest},
		{"factors not an object", map[string]any{"form": map[string]any{}, "factors": []int{1}}, http.StatusBadRequest},
		{"negative factor", map[string]any{"form": map[string]any{}, "factors": map[string]any{"gridIntensity": -1}}, http.StatusBadRequest},
		{"bad currency", map[string]any{"form": map[string]any{}, "factors": map[string]any{"currency": "ZZZ"}}, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/v1/estimate", tt.body)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestSubmission(t *testing.T) {
	s := newTestServer(t, 0)
	form := survey.Response{"consent": true, "smartphoneCount": 1.0, "smartphoneHours": 4.0}
	rec := export.NewRecord(form, footprint.Calculate(form, footprint.DefaultFactors()), time.UnixMilli(1700000000000))

	resp := do(t, s, http.MethodPost, "/api/v1/submissions", rec)
	require.Equal(t, http.StatusAccepted, resp.Code, resp.Body.String())

	var receipt export.Receipt
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &receipt))
	assert.Equal(t, "receipt-1", receipt.ReceiptID)
	assert.Equal(t, "P1700000000000", receipt.ParticipantID)
	assert.True(t, receipt.ResultsMatch)

	rec.Results.TotalKg = 999
	resp = do(t, s, http.MethodPost, "/api/v1/submissions", rec)
	require.Equal(t, http.StatusAccepted, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &receipt))
	assert.False(t, receipt.ResultsMatch)
	assert.InDelta(t, 5.11, receipt.Results.TotalKg, 1e-9)
}

func TestSubmission_Rejected(t *testing.T) {
	s := newTestServer(t, 0)

	noConsent := export.NewRecord(survey.Response{"consent": false}, footprint.Breakdown{}, time.Now())
	resp := do(t, s, http.MethodPost, "/api/v1/submissions", noConsent)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	resp = do(t, s, http.MethodPost, "/api/v1/submissions", `{"form":{}}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestSubmitterAgainstServer(t *testing.T) {
	srv := httptest.NewServer(newTestServer(t, 0))
	defer srv.Close()

	form := survey.Response{"consent": true, "laptopCount": 1.0, "laptopHours": "4-6 hrs"}
	rec := export.NewRecord(form, footprint.Calculate(form, footprint.DefaultFactors()), time.Now())

	receipt, err := export.NewSubmitter(srv.URL+"/api/v1/submissions").Submit(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, "receipt-1", receipt.ReceiptID)
	assert.True(t, receipt.ResultsMatch)
	assert.Equal(t, http.StatusAccepted, receipt.StatusCode)
}

func TestMemo_EvictsOldest(t *testing.T) {
	m := newMemo(2)
	m.put(1, estimateResponse{TablesVersion: "a"})
	m.put(2, estimateResponse{TablesVersion: "b"})
	m.put(3, estimateResponse{TablesVersion: "c"})

	_, ok := m.get(1)
	assert.False(t, ok)
	got, ok := m.get(3)
	require.True(t, ok)
	assert.Equal(t, "c", got.TablesVersion)

	stats := m.stats()
	assert.Equal(t, 2, stats.Entries)
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)

	disabled := newMemo(0)
	disabled.put(1, estimateResponse{})
	_, ok = disabled.get(1)
	assert.False(t, ok)
}

func TestMemoKey_Stable(t *testing.T) {
	a, err := json.Marshal(map[string]any{"b": 1, "a": 2})
	require.NoError(t, err)
	b, err := json.Marshal(map[string]any{"a": 2, "b": 1})
	require.NoError(t, err)
	assert.Equal(t, memoKey(a), memoKey(b))
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	s := newTestServer(t, 0)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0") }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
