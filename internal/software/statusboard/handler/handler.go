package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"ride-hail-realtime/internal/general/jwt"
	"ride-hail-realtime/internal/general/logger"
	"ride-hail-realtime/internal/software/statusboard/service"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatusHTTPHandler serves health, metrics, the status overview and the UI
// bridge of a running agent.
type StatusHTTPHandler struct {
	svc      *service.StatusService
	logger   *logger.Logger
	auth     *jwt.Manager
	identity string
	bridge   http.Handler
	uiPath   string
}

// Options configure the optional parts of the board.
type Options struct {
	// Auth protects the overview, flag and bridge routes when set.
	Auth     *jwt.Manager
	Identity string
	Bridge   http.Handler
	UIPath   string
}

func NewStatusHTTPHandler(svc *service.StatusService, logger *logger.Logger, opts Options) *StatusHTTPHandler {
	return &StatusHTTPHandler{
		svc:      svc,
		logger:   logger,
		auth:     opts.Auth,
		identity: opts.Identity,
		bridge:   opts.Bridge,
		uiPath:   opts.UIPath,
	}
}

// Routes builds the router.
func (handler *StatusHTTPHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(handler.recoverer)

	r.Get("/healthz", handler.handleHealth)
	r.Get("/readyz", handler.handleReady)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if handler.auth != nil {
			r.Use(jwt.Middleware(handler.auth, handler.identity))
		}
		r.Get("/v1/overview", handler.handleOverview)
		r.Post("/v1/flags/{name}/dismiss", handler.handleDismiss)
		if handler.bridge != nil && handler.uiPath != "" {
			r.Handle(handler.uiPath, handler.bridge)
		}
	})
	return r
}

func (handler *StatusHTTPHandler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				handler.logger.Warn(r.Context(), "http_panic", "Recovered from handler panic", map[string]any{"panic": rec, "path": r.URL.Path})
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// ----- general helpers -----

// jsonResponse takes any type of data and encode it to HTTP response.
func (handler *StatusHTTPHandler) jsonResponse(ctx context.Context, w http.ResponseWriter, status int, data any) {
	var buf []byte
	var err error

	if data != nil {
		buf, err = json.Marshal(data)
		if err != nil {
			handler.logger.Error(ctx, "response_encode_failed", "Failed to encode response", err, nil)
			http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
			return
		}
	} else {
		buf = []byte("{}")
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(buf)
}

// httpError sends a JSON error response with a message.
func (handler *StatusHTTPHandler) httpError(ctx context.Context, w http.ResponseWriter, status int, msg string, err error) {
	action := "request_failed"
	if status >= 500 {
		action = "http_internal_error"
	} else if status == http.StatusNotFound {
		action = "not_found"
	}
	if err != nil {
		handler.logger.Error(ctx, action, msg, err, nil)
	} else {
		handler.logger.Warn(ctx, action, msg, nil)
	}

	type errBody struct {
		Error string `json:"error"`
	}
	handler.jsonResponse(ctx, w, status, errBody{Error: msg})
}

// withReqID extracts or generates a request ID and adds it to the context.
func (handler *StatusHTTPHandler) withReqID(ctx context.Context, r *http.Request) context.Context {
	reqID := r.Header.Get("X-Request-ID")
	if strings.TrimSpace(reqID) == "" {
		reqID = randID()
	}
	return handler.logger.WithRequestID(ctx, reqID)
}

// randID generates a random 24-char hex string suitable for request IDs.
func randID() string {
	var b [12]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
