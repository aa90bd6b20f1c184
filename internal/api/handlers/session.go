package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/pathwise-ai/pathwise/internal/domain"
	"github.com/pathwise-ai/pathwise/internal/service"
)

// SessionHandler exposes per-session flexibility tracking over HTTP.
// Every route resolves the session's manager through the registry. The
// store is optional; without it List falls back to resident sessions.
type SessionHandler struct {
	registry *service.SessionRegistry
	sessions domain.SessionStore
}

func NewSessionHandler(registry *service.SessionRegistry, sessions domain.SessionStore) *SessionHandler {
	return &SessionHandler{registry: registry, sessions: sessions}
}

type createSessionRequest struct {
	SessionID string `json:"session_id"`
	Problem   string `json:"problem,omitempty"`
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	mgr, err := h.registry.GetOrCreate(r.Context(), req.SessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to open session")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"session_id": mgr.SessionID(),
		"metrics":    mgr.Metrics(),
	})
}

func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	if h.sessions == nil {
		ids := h.registry.SessionIDs()
		if len(ids) > limit {
			ids = ids[len(ids)-limit:]
		}
		writeJSON(w, http.StatusOK, map[string]any{"sessions": ids})
		return
	}

	sessions, err := h.sessions.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (h *SessionHandler) manager(w http.ResponseWriter, r *http.Request) (*service.ErgodicityManager, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "session id is required")
		return nil, false
	}

	mgr, err := h.registry.GetOrCreate(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to open session")
		return nil, false
	}
	return mgr, true
}

type recordStepRequest struct {
	Technique      string                 `json:"technique"`
	Step           int                    `json:"step"`
	Decision       string                 `json:"decision"`
	Impact         domain.Impact          `json:"impact"`
	SessionContext *domain.SessionContext `json:"session_context,omitempty"`
}

func (h *SessionHandler) RecordStep(w http.ResponseWriter, r *http.Request) {
	mgr, ok := h.manager(w, r)
	if !ok {
		return
	}

	var req recordStepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Technique == "" {
		writeError(w, http.StatusBadRequest, "technique is required")
		return
	}
	if req.Decision == "" {
		writeError(w, http.StatusBadRequest, "decision is required")
		return
	}

	result, err := mgr.RecordThinkingStep(r.Context(), req.Technique, req.Step, req.Decision, req.Impact, req.SessionContext)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to record step")
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

func (h *SessionHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	mgr, ok := h.manager(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": mgr.SessionID(),
		"summary":    mgr.Status(),
		"metrics":    mgr.Metrics(),
		"warnings":   mgr.Warnings(),
	})
}

func (h *SessionHandler) GetPath(w http.ResponseWriter, r *http.Request) {
	mgr, ok := h.manager(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, mgr.PathMemory())
}

func (h *SessionHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	mgr, ok := h.manager(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, mgr.Metrics())
}

func (h *SessionHandler) GetWarnings(w http.ResponseWriter, r *http.Request) {
	mgr, ok := h.manager(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"warnings": mgr.Warnings()})
}

func (h *SessionHandler) GetEscapeRoutes(w http.ResponseWriter, r *http.Request) {
	mgr, ok := h.manager(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"routes": mgr.EscapeRoutes()})
}

type generateOptionsRequest struct {
	Categories  []string `json:"categories,omitempty"`
	TargetCount int      `json:"target_count,omitempty"`
}

func (h *SessionHandler) GenerateOptions(w http.ResponseWriter, r *http.Request) {
	mgr, ok := h.manager(w, r)
	if !ok {
		return
	}

	var req generateOptionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	domainReq := domain.OptionRequest{TargetCount: req.TargetCount}
	for _, c := range req.Categories {
		cat := domain.OptionCategory(c)
		if !domain.ValidOptionCategory(c) {
			writeError(w, http.StatusBadRequest, "invalid category: "+c)
			return
		}
		domainReq.Categories = append(domainReq.Categories, cat)
	}

	writeJSON(w, http.StatusOK, mgr.GenerateOptions(domainReq))
}

type escapeAnalysisRequest struct {
	SessionContext domain.SessionContext `json:"session_context"`
}

func (h *SessionHandler) AnalyzeEscape(w http.ResponseWriter, r *http.Request) {
	mgr, ok := h.manager(w, r)
	if !ok {
		return
	}

	var req escapeAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	analysis, err := mgr.AnalyzeEscapeVelocity(&req.SessionContext)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "escape analysis failed")
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

type executeEscapeRequest struct {
	Level    int  `json:"level"`
	Approved bool `json:"approved"`
}

func (h *SessionHandler) ExecuteEscape(w http.ResponseWriter, r *http.Request) {
	mgr, ok := h.manager(w, r)
	if !ok {
		return
	}

	var req executeEscapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := mgr.ExecuteEscapeProtocol(r.Context(), domain.ProtocolLevel(req.Level), req.Approved)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownProtocol):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrApprovalRequired):
			writeError(w, http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrInsufficientFlexibility):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "escape execution failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *SessionHandler) GetEscapeStats(w http.ResponseWriter, r *http.Request) {
	mgr, ok := h.manager(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, mgr.EscapeStats())
}

func (h *SessionHandler) GetMonitorHistory(w http.ResponseWriter, r *http.Request) {
	mgr, ok := h.manager(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"readings": mgr.MonitorHistory()})
}

func (h *SessionHandler) ResetMonitoring(w http.ResponseWriter, r *http.Request) {
	mgr, ok := h.manager(w, r)
	if !ok {
		return
	}
	mgr.ResetMonitoring()
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "session id is required")
		return
	}
	h.registry.Remove(id)
	w.WriteHeader(http.StatusNoContent)
}
