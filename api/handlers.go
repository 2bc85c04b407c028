package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"property-valuation/apperrors"
	"property-valuation/models"
	"property-valuation/services"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 32 << 20

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// AuditResponse is the body of GET /api/audit.
type AuditResponse struct {
	Count  int                 `json:"count"`
	Events []models.AuditEvent `json:"events"`
}

type finalizeRequest struct {
	Actor string `json:"actor"`
}

func (s *Server) createIngestion(w http.ResponseWriter, r *http.Request) {
	var req services.IngestRequest
	if !s.decode(w, r, &req) {
		return
	}
	run, err := s.engine.Ingest(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, run)
}

func (s *Server) listIngestions(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r.URL.Query().Get("limit"), 20)
	runs, err := s.engine.ListRuns(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) getIngestion(w http.ResponseWriter, r *http.Request) {
	run, err := s.engine.GetRun(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) searchComparables(w http.ResponseWriter, r *http.Request) {
	var req services.SearchRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.engine.Search(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) overrideAdjustment(w http.ResponseWriter, r *http.Request) {
	var req services.OverrideRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.engine.Override(r.Context(), mux.Vars(r)["runId"], req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) createValuation(w http.ResponseWriter, r *http.Request) {
	var req services.ValueRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.engine.Value(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) createReport(w http.ResponseWriter, r *http.Request) {
	var req services.CreateReportRequest
	if !s.decode(w, r, &req) {
		return
	}
	report, err := s.engine.CreateReport(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.engine.GetReport(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) finalizeReport(w http.ResponseWriter, r *http.Request) {
	var req finalizeRequest
	if !s.decode(w, r, &req) {
		return
	}
	report, err := s.engine.FinalizeReport(r.Context(), mux.Vars(r)["id"], req.Actor)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) listAudit(w http.ResponseWriter, r *http.Request) {
	events, err := s.engine.Ledger().Recent(r.Context(), s.auditLimit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AuditResponse{Count: len(events), Events: events})
}

// decode reads a JSON body into dst and answers 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		s.writeError(w, apperrors.Validation("api.decode", "invalid JSON body: %v", err))
		return false
	}
	return true
}

// writeError maps the error category to a status code.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("[api] %v", err)
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch apperrors.CategoryOf(err) {
	case apperrors.CategoryValidation:
		return http.StatusBadRequest
	case apperrors.CategoryNotFound:
		return http.StatusNotFound
	case apperrors.CategoryConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		fmt.Fprintf(w, `{"error":%q}`, err.Error())
	}
}

func parseIntParam(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}
