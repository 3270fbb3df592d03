package handler

import (
	"net/http"

	"ride-hail-realtime/internal/general/uistate"

	"github.com/go-chi/chi/v5"
)

// ----- Handler: GET /healthz -----

// handleHealth always answers 200 while the process runs and reports the
// connection status indicator.
func (handler *StatusHTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	state := handler.svc.State()
	type resp struct {
		Status    string `json:"status"`
		State     string `json:"state"`
		Indicator string `json:"indicator"`
	}
	handler.jsonResponse(r.Context(), w, http.StatusOK, resp{Status: "ok", State: state.String(), Indicator: state.Indicator()})
}

// ----- Handler: GET /readyz -----

func (handler *StatusHTTPHandler) handleReady(w http.ResponseWriter, r *http.Request) {
	status, body := http.StatusOK, "ready"
	if !handler.svc.Ready() {
		status, body = http.StatusServiceUnavailable, "not ready"
	}
	handler.jsonResponse(r.Context(), w, status, map[string]string{"status": body})
}

// ----- Handler: GET /v1/overview -----

func (handler *StatusHTTPHandler) handleOverview(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)
	handler.jsonResponse(ctx, w, http.StatusOK, handler.svc.Overview(ctx))
}

// ----- Handler: POST /v1/flags/{name}/dismiss -----

func (handler *StatusHTTPHandler) handleDismiss(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)
	name := uistate.Name(chi.URLParam(r, "name"))

	if err := handler.svc.Dismiss(ctx, name); err != nil {
		handler.httpError(ctx, w, http.StatusNotFound, "unknown flag", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
