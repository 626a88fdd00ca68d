// Package api exposes the live activity module surface over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/HeoJeongBo/expo-live-activity/internal/auth"
	"github.com/HeoJeongBo/expo-live-activity/internal/domain"
	"github.com/HeoJeongBo/expo-live-activity/internal/module"
)

// Handler coordinates HTTP requests with the host module boundary.
type Handler struct {
	module *module.Module
}

// NewHandler builds a Handler.
func NewHandler(m *module.Module) *Handler {
	return &Handler{module: m}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/activities", h.activities)
	mux.HandleFunc("/v1/activities/", h.activityByID)
	mux.HandleFunc("/v1/activities:validate", h.validateConfig)
	mux.HandleFunc("/v1/capabilities", h.capabilities)
	mux.HandleFunc("/v1/events", h.events)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) activities(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.startActivity(w, r)
	case http.MethodGet:
		h.listActive(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) activityByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/activities/")
	if rest == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing activity id")
		return
	}

	// POST /v1/activities/{id}/actions/{actionId} injects a native tap.
	if parts := strings.SplitN(rest, "/", 3); len(parts) == 3 && parts[1] == "actions" {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
			return
		}
		h.triggerAction(w, r, parts[0], parts[2])
		return
	}

	if strings.Contains(rest, "/") {
		writeError(w, http.StatusNotFound, "invalid_request", "unknown resource")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getActivity(w, r, rest)
	case http.MethodPatch:
		h.updateActivity(w, r, rest)
	case http.MethodDelete:
		h.endActivity(w, r, rest)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) startActivity(w http.ResponseWriter, r *http.Request) {
	if !requireScope(w, r, auth.ScopeActivitiesWrite) {
		return
	}

	var configObject map[string]any
	if err := json.NewDecoder(r.Body).Decode(&configObject); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	instance, err := h.module.StartActivity(r.Context(), configObject)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, instance)
}

func (h *Handler) listActive(w http.ResponseWriter, r *http.Request) {
	if !requireScope(w, r, auth.ScopeActivitiesRead, auth.ScopeActivitiesWrite) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": h.module.GetActiveActivities(r.Context()),
	})
}

func (h *Handler) getActivity(w http.ResponseWriter, r *http.Request, id string) {
	if !requireScope(w, r, auth.ScopeActivitiesRead, auth.ScopeActivitiesWrite) {
		return
	}
	instance := h.module.GetActivity(r.Context(), id)
	if instance == nil {
		writeError(w, http.StatusNotFound, string(domain.CodeActivityNotFound), "activity not found")
		return
	}
	writeJSON(w, http.StatusOK, instance)
}

func (h *Handler) updateActivity(w http.ResponseWriter, r *http.Request, id string) {
	if !requireScope(w, r, auth.ScopeActivitiesWrite) {
		return
	}

	var contentObject map[string]any
	if err := json.NewDecoder(r.Body).Decode(&contentObject); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	ok, err := h.module.UpdateActivity(r.Context(), id, contentObject)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": ok})
}

func (h *Handler) endActivity(w http.ResponseWriter, r *http.Request, id string) {
	if !requireScope(w, r, auth.ScopeActivitiesWrite) {
		return
	}

	var options map[string]any
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&options); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
			return
		}
	}

	ok, err := h.module.EndActivity(r.Context(), id, options)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ended": ok})
}

func (h *Handler) triggerAction(w http.ResponseWriter, r *http.Request, activityID, actionID string) {
	if !requireScope(w, r, auth.ScopeActivitiesWrite) {
		return
	}
	h.module.HandleUserAction(activityID, actionID)
	writeJSON(w, http.StatusAccepted, map[string]any{"accepted": true})
}

func (h *Handler) validateConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if !requireScope(w, r, auth.ScopeActivitiesRead, auth.ScopeActivitiesWrite) {
		return
	}

	var configObject map[string]any
	if err := json.NewDecoder(r.Body).Decode(&configObject); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	writeJSON(w, http.StatusOK, h.module.ValidateActivityConfig(configObject))
}

func (h *Handler) capabilities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	writeJSON(w, http.StatusOK, h.module.Constants())
}

func requireScope(w http.ResponseWriter, r *http.Request, scopes ...string) bool {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return false
	}
	for _, scope := range scopes {
		if claims.HasScope(scope) {
			return true
		}
	}
	writeError(w, http.StatusForbidden, "forbidden", "scope "+scopes[0]+" required")
	return false
}

// statusForCode maps the machine-readable error taxonomy onto HTTP statuses.
func statusForCode(code domain.ErrorCode) int {
	switch code {
	case domain.CodeInvalidConfiguration:
		return http.StatusBadRequest
	case domain.CodeActivityNotFound:
		return http.StatusNotFound
	case domain.CodeAlreadyStarted:
		return http.StatusConflict
	case domain.CodeSystemNotSupported:
		return http.StatusNotImplemented
	case domain.CodePermissionDenied:
		return http.StatusForbidden
	case domain.CodeNetworkError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	var domainErr *domain.Error
	if !errors.As(err, &domainErr) {
		writeError(w, http.StatusInternalServerError, string(domain.CodeUnknown), err.Error())
		return
	}
	writeError(w, statusForCode(domainErr.Code), string(domainErr.Code), domainErr.Message)
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, map[string]string{
		"code":    code,
		"message": detail,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
