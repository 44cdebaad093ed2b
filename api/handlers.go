package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"plskit/adapters/report"
	"plskit/app"
	"plskit/domain/pls"
	"plskit/internal/errors"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleBehavioral(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeRequest(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.svc.RunBehavioral(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.store(res)
	s.writeJSON(w, http.StatusOK, toResponse(res))
}

func (s *Server) handleMeanCentered(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeRequest(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.svc.RunMeanCentered(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.store(res)
	s.writeJSON(w, http.StatusOK, toResponse(res))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if res, ok := s.lookup(id); ok {
		s.writeJSON(w, http.StatusOK, toResponse(res))
		return
	}
	// Fall back to the persisted summary for runs from earlier processes.
	parsed, err := uuid.Parse(id)
	if err != nil {
		s.writeError(w, errors.InvalidInput("run id must be a uuid"))
		return
	}
	summary, err := s.svc.GetSummary(r.Context(), parsed)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeError(w, errors.InvalidInput("limit must be a positive integer"))
			return
		}
		limit = parsed
	}
	summaries, err := s.svc.ListSummaries(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	res, ok := s.lookup(id)
	if !ok {
		s.writeError(w, errors.NotFound("run "+id))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(report.HTML(res))
}

func (s *Server) decodeRequest(r *http.Request) (app.AnalysisRequest, error) {
	var body AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return app.AnalysisRequest{}, errors.InvalidInput("request body is not valid JSON")
	}

	x, err := toDense(body.X)
	if err != nil {
		return app.AnalysisRequest{}, err
	}
	req := app.AnalysisRequest{
		X:      x,
		Groups: body.Groups,
		NCond:  body.NCond,
		Config: body.Config.Apply(s.defaults()),
	}
	if body.Y != nil {
		req.Y, err = toDense(body.Y)
		if err != nil {
			return app.AnalysisRequest{}, err
		}
	}
	return req, nil
}

func (s *Server) defaults() pls.Config {
	return s.defaultCfg
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("failed to encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := http.StatusInternalServerError
	switch code {
	case errors.CodeConfigInvalid, errors.CodeInvalidInput, errors.CodePlanShape:
		status = http.StatusBadRequest
	case errors.CodeNotFound:
		status = http.StatusNotFound
	case errors.CodeInfeasibleResample, errors.CodeNumericalError, errors.CodeDecompositionFailed:
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		s.log.Error("request failed: %v", err)
	}
	s.writeJSON(w, status, ErrorResponse{Code: code, Message: err.Error()})
}
