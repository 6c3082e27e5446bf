// Package handlers exposes the merchant validation service over HTTP.
package handlers

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/locusaudit/merchant-validation/internal/batch"
	"github.com/locusaudit/merchant-validation/internal/directory"
	"github.com/locusaudit/merchant-validation/internal/registry"
	"github.com/locusaudit/merchant-validation/internal/taxid"
	"github.com/locusaudit/merchant-validation/internal/validation"
)

const (
	defaultSearchLimit = 5
	maxSearchLimit     = 20
	maxCSVUploadBytes  = 5 << 20
)

// DirectorySearcher serves interactive merchant searches.
type DirectorySearcher interface {
	Search(ctx context.Context, query string, limit int) ([]directory.Summary, error)
}

// HTTPHandler handles HTTP requests for merchant validation.
type HTTPHandler struct {
	validator    *validation.Validator
	orchestrator *batch.Orchestrator
	searcher     DirectorySearcher
	registry     registry.Lookup
	logger       *slog.Logger
	now          func() time.Time
}

// NewHTTPHandler creates a new HTTP handler. The searcher and registry
// lookup are optional; a nil value turns the corresponding endpoints into
// 503 responses.
func NewHTTPHandler(
	validator *validation.Validator,
	orchestrator *batch.Orchestrator,
	searcher DirectorySearcher,
	reg registry.Lookup,
	logger *slog.Logger,
) *HTTPHandler {
	return &HTTPHandler{
		validator:    validator,
		orchestrator: orchestrator,
		searcher:     searcher,
		registry:     reg,
		logger:       logger,
		now:          time.Now,
	}
}

// RegisterRoutes registers HTTP routes.
func (h *HTTPHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/v1/merchants/validate", h.ValidateMerchant).Methods("POST")
	router.HandleFunc("/api/v1/merchants/search", h.SearchMerchants).Methods("GET")

	router.HandleFunc("/api/v1/registry/{taxID}", h.GetRegistryRecord).Methods("GET")
	router.HandleFunc("/api/v1/registry/compare", h.CompareRegistry).Methods("POST")

	router.HandleFunc("/api/v1/batches", h.SubmitBatch).Methods("POST")
	router.HandleFunc("/api/v1/batches/csv", h.SubmitBatchCSV).Methods("POST")
	router.HandleFunc("/api/v1/batches/{id}", h.GetBatchJob).Methods("GET")

	router.HandleFunc("/api/v1/health", h.HealthCheck).Methods("GET")
}

// ValidateMerchant handles single merchant validation.
func (h *HTTPHandler) ValidateMerchant(w http.ResponseWriter, r *http.Request) {
	var req validation.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.MerchantName) == "" {
		h.writeErrorResponse(w, http.StatusBadRequest, "merchant_name is required", nil)
		return
	}

	result := h.validator.Validate(r.Context(), req)
	h.writeJSONResponse(w, http.StatusOK, result)
}

// SearchMerchants handles interactive directory searches.
func (h *HTTPHandler) SearchMerchants(w http.ResponseWriter, r *http.Request) {
	if h.searcher == nil {
		h.writeErrorResponse(w, http.StatusServiceUnavailable, "Directory search is not configured", nil)
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		h.writeErrorResponse(w, http.StatusBadRequest, "query is required", nil)
		return
	}

	limit := defaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.writeErrorResponse(w, http.StatusBadRequest, "limit must be a positive integer", err)
			return
		}
		if parsed > maxSearchLimit {
			parsed = maxSearchLimit
		}
		limit = parsed
	}

	results, err := h.searcher.Search(r.Context(), query, limit)
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadGateway, "Directory search failed", err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"query":   query,
		"results": results,
		"count":   len(results),
	})
}

// GetRegistryRecord looks up a company registration by tax identifier.
func (h *HTTPHandler) GetRegistryRecord(w http.ResponseWriter, r *http.Request) {
	if h.registry == nil {
		h.writeErrorResponse(w, http.StatusServiceUnavailable, "Registry lookup is not configured", nil)
		return
	}

	id := mux.Vars(r)["taxID"]
	if !taxid.IsValidFormat(id) {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid tax identifier format", nil)
		return
	}

	record, err := h.registry.Fetch(r.Context(), id)
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadGateway, "Registry lookup failed", err)
		return
	}
	if record == nil {
		h.writeErrorResponse(w, http.StatusNotFound, "Registration not found", nil)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, record)
}

// CompareRegistryRequest is the payload of a registry comparison.
type CompareRegistryRequest struct {
	TaxID        string `json:"tax_id"`
	MerchantName string `json:"merchant_name"`
	Address      string `json:"address,omitempty"`
}

// CompareRegistry compares a merchant against its company registration.
func (h *HTTPHandler) CompareRegistry(w http.ResponseWriter, r *http.Request) {
	if h.registry == nil {
		h.writeErrorResponse(w, http.StatusServiceUnavailable, "Registry lookup is not configured", nil)
		return
	}

	var req CompareRegistryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.MerchantName == "" {
		h.writeErrorResponse(w, http.StatusBadRequest, "merchant_name is required", nil)
		return
	}
	if !taxid.IsValidFormat(req.TaxID) {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid tax identifier format", nil)
		return
	}

	record, err := h.registry.Fetch(r.Context(), taxid.Clean(req.TaxID))
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadGateway, "Registry lookup failed", err)
		return
	}
	if record == nil {
		h.writeErrorResponse(w, http.StatusNotFound, "Registration not found", nil)
		return
	}

	cmp := &validation.RegistryComparison{
		TaxIDFound:     true,
		Record:         record,
		NameComparison: validation.CompareNames(req.MerchantName, record.CompanyName, record.TradeName),
	}
	if req.Address != "" && record.Address.FullAddress != "" {
		cmp.AddressComparison = validation.CompareAddresses(req.Address, record.Address.FullAddress)
	}
	profile := registry.AssessRisk(record, h.now())
	cmp.RiskProfile = &profile

	h.writeJSONResponse(w, http.StatusOK, cmp)
}

// BatchRequest is the payload of a JSON batch submission.
type BatchRequest struct {
	Merchants []validation.Request `json:"merchants"`
}

// SubmitBatch handles JSON batch submissions.
func (h *HTTPHandler) SubmitBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.Merchants) == 0 {
		h.writeErrorResponse(w, http.StatusBadRequest, "At least one merchant is required", nil)
		return
	}

	job, err := h.orchestrator.Submit(r.Context(), req.Merchants)
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Batch rejected", err)
		return
	}

	h.writeJSONResponse(w, http.StatusAccepted, job)
}

// SubmitBatchCSV handles CSV batch submissions. The file must carry a header
// row with a merchant_name column; address, place_id, phone,
// transaction_amount and transaction_type columns are optional.
func (h *HTTPHandler) SubmitBatchCSV(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxCSVUploadBytes); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid multipart form", err)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "file is required", err)
		return
	}
	defer file.Close()

	requests, err := parseCSV(file)
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid CSV file", err)
		return
	}

	job, err := h.orchestrator.Submit(r.Context(), requests)
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Batch rejected", err)
		return
	}

	h.writeJSONResponse(w, http.StatusAccepted, job)
}

// GetBatchJob reports the current state of a batch job.
func (h *HTTPHandler) GetBatchJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	job := h.orchestrator.Lookup(r.Context(), id)
	if job == nil {
		h.writeErrorResponse(w, http.StatusNotFound, "Batch job not found", nil)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, job)
}

// HealthCheck reports service liveness and which collaborators are wired.
func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "merchant-validation",
		"timestamp": h.now().UTC().Format(time.RFC3339),
		"collaborators": map[string]bool{
			"directory_search": h.searcher != nil,
			"registry":         h.registry != nil,
		},
	})
}

// parseCSV converts an uploaded CSV file into validation requests.
func parseCSV(r io.Reader) ([]validation.Request, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := columns["merchant_name"]; !ok {
		return nil, fmt.Errorf("CSV header is missing the merchant_name column")
	}

	field := func(row []string, name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var requests []validation.Request
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}

		req := validation.Request{
			MerchantName:    field(row, "merchant_name"),
			Address:         field(row, "address"),
			PlaceID:         field(row, "place_id"),
			Phone:           field(row, "phone"),
			TransactionType: field(row, "transaction_type"),
		}
		if raw := field(row, "transaction_amount"); raw != "" {
			amount, err := decimal.NewFromString(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid transaction_amount on CSV line %d: %w", line, err)
			}
			req.TransactionAmount = &amount
		}
		requests = append(requests, req)
	}

	return requests, nil
}

func (h *HTTPHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", "error", err)
	}
}

func (h *HTTPHandler) writeErrorResponse(w http.ResponseWriter, statusCode int, message string, err error) {
	response := map[string]interface{}{
		"error":  message,
		"status": statusCode,
	}
	if err != nil {
		response["details"] = err.Error()
	}

	h.writeJSONResponse(w, statusCode, response)
}
