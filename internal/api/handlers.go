package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/dimfreight/internal/dimensions"
	"github.com/sells-group/dimfreight/internal/learner"
	"github.com/sells-group/dimfreight/internal/model"
	"github.com/sells-group/dimfreight/internal/reconcile"
	"github.com/sells-group/dimfreight/internal/resilience"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error      string                `json:"error"`
	Violations []reconcile.Violation `json:"violations,omitempty"`
}

type observationResponse struct {
	VariantID string                 `json:"variant_id"`
	Packaging *model.PackagingRecord `json:"packaging"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDimensions(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")
	res, err := resilience.DoVal(r.Context(), s.retry("resolve_dimensions"), func(ctx context.Context) (*dimensions.Result, error) {
		return s.deps.Dimensions.Resolve(ctx, sku)
	})
	switch {
	case errors.Is(err, dimensions.ErrVariantNotFound):
		writeError(w, http.StatusNotFound, "variant not found: "+sku)
	case err != nil:
		zap.L().Error("api: resolve dimensions", zap.String("sku", sku), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "dimension lookup unavailable")
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

func (s *Server) handleObservation(w http.ResponseWriter, r *http.Request) {
	variantID := chi.URLParam(r, "variantID")
	var in reconcile.ObservationInput
	if !decode(w, r, &in) {
		return
	}

	rec, err := resilience.DoVal(r.Context(), s.retry("insert_observation"), func(ctx context.Context) (*model.PackagingRecord, error) {
		return s.deps.Reconciler.InsertObservationAndReconcile(ctx, variantID, in)
	})
	var verr *reconcile.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: verr.Error(), Violations: verr.Violations})
	case err != nil:
		zap.L().Error("api: insert observation", zap.String("variant_id", variantID), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "observation store unavailable")
	default:
		writeJSON(w, http.StatusCreated, observationResponse{VariantID: variantID, Packaging: rec})
	}
}

func (s *Server) handleFreightQuote(w http.ResponseWriter, r *http.Request) {
	var f model.ProductFacts
	if !decode(w, r, &f) {
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Freight.CalcFreightSmart(f.Normalize(), zap.L()))
}

func (s *Server) handleCartonEstimate(w http.ResponseWriter, r *http.Request) {
	var f model.ProductFacts
	if !decode(w, r, &f) {
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Carton.Estimate(r.Context(), f.Normalize()))
}

// handleRefreshPatterns joins concurrent requests onto a single run. The run
// is detached from any one request's cancellation.
func (s *Server) handleRefreshPatterns(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithoutCancel(r.Context())
	v, _, shared := s.refresh.Do("category_patterns", func() (any, error) {
		return s.deps.Learner.Refresh(ctx), nil
	})
	res := v.(learner.Result)
	if shared {
		w.Header().Set("X-Refresh-Shared", "true")
	}
	status := http.StatusOK
	if !res.Success {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, res)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}
