// Package rest exposes the introduction-request workflow over HTTP JSON.
package rest

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/introhub/internal/platform/errors"
	"github.com/louisbranch/introhub/internal/platform/httpx"
	"github.com/louisbranch/introhub/internal/platform/ratelimit"
	"github.com/louisbranch/introhub/internal/services/introductions/auth"
	"github.com/louisbranch/introhub/internal/services/introductions/domain"
	"github.com/louisbranch/introhub/internal/services/introductions/storage"
	"github.com/louisbranch/introhub/internal/services/introductions/workflow"
)

// HTTPObserver counts HTTP responses per route.
type HTTPObserver interface {
	ObserveHTTP(route string, status int)
}

// Handler serves the introductions HTTP API.
type Handler struct {
	engine   *workflow.Engine
	verifier *auth.Verifier
	limiter  *ratelimit.KeyLimiter
	observer HTTPObserver
}

// NewHandler constructs the HTTP API handler. The verifier guards the
// requester and hub endpoints; the limiter throttles the public token-gated
// endpoints. Either may be nil.
func NewHandler(engine *workflow.Engine, verifier *auth.Verifier, limiter *ratelimit.KeyLimiter, observer HTTPObserver) *Handler {
	return &Handler{
		engine:   engine,
		verifier: verifier,
		limiter:  limiter,
		observer: observer,
	}
}

// Register mounts all API routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if mux == nil {
		return
	}
	limited := func(route string, fn http.HandlerFunc) http.Handler {
		return httpx.Chain(
			h.observed(route, fn),
			httpx.RecoverPanic(),
			httpx.RequestID(),
			httpx.RateLimit(h.limiter, httpx.RemoteOrTokenKey),
		)
	}
	open := func(route string, fn http.HandlerFunc) http.Handler {
		return httpx.Chain(
			h.observed(route, fn),
			httpx.RecoverPanic(),
			httpx.RequestID(),
		)
	}

	mux.Handle(http.MethodPost+" /api/intro-requests/submit", open("submit", h.handleSubmit))
	mux.Handle(http.MethodGet+" /api/intro-requests/my-requests", open("my_requests", h.handleMyRequests))
	mux.Handle(http.MethodGet+" /api/intro-requests/{id}/status", open("status", h.handleStatus))
	mux.Handle(http.MethodPost+" /api/intro-requests/{id}/approve", limited("approve", h.handleApprove))
	mux.Handle(http.MethodPost+" /api/intro-requests/{id}/decline", limited("decline", h.handleDecline))
	mux.Handle(http.MethodPost+" /api/intro-requests/{id}/pass", limited("pass", h.handlePass))
	mux.Handle(http.MethodPost+" /api/intro-requests/{id}/consent", limited("consent", h.handleConsent))
	mux.Handle(http.MethodGet+" /api/hub/requests/pending", open("hub_pending", h.handleHubPending))
	mux.Handle(http.MethodGet+" /api/hub/requests/history", open("hub_history", h.handleHubHistory))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *Handler) observed(route string, fn http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.observer == nil {
			fn(w, r)
			return
		}
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		fn(recorder, r)
		h.observer.ObserveHTTP(route, recorder.status)
	})
}

// requireClaims verifies the Authorization header. A nil verifier disables
// the bearer surface entirely.
func (h *Handler) requireClaims(w http.ResponseWriter, r *http.Request) (auth.Claims, bool) {
	if h.verifier == nil {
		httpx.WriteError(w, apperrors.New(apperrors.CodeBearerInvalid, "authenticated endpoints are not configured"))
		return auth.Claims{}, false
	}
	claims, err := h.verifier.Verify(auth.BearerFromHeader(r.Header.Get("Authorization")))
	if err != nil {
		httpx.WriteError(w, err)
		return auth.Claims{}, false
	}
	return claims, true
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.requireClaims(w, r)
	if !ok {
		return
	}
	var body submitRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.WriteError(w, apperrors.New(apperrors.CodeMalformedBody, "request body is not valid JSON"))
		return
	}
	request, err := h.engine.Submit(httpx.RequestContext(r), workflow.SubmitInput{
		Requester:   claims.Identity(),
		Target:      body.Target,
		WorkspaceID: body.WorkspaceID,
		UserMessage: body.Message,
		MatchReason: body.MatchReason,
		Urgency:     domain.Urgency(body.Urgency),
	})
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusCreated, mutationResponse{
		Success:       true,
		RequestID:     request.ID,
		DisplayStatus: string(request.DisplayStatus()),
	})
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	query := workflow.StatusQuery{
		RequestID: r.PathValue("id"),
		Token:     strings.TrimSpace(r.URL.Query().Get("token")),
	}
	if query.Token == "" && h.verifier != nil {
		if bearer := auth.BearerFromHeader(r.Header.Get("Authorization")); bearer != "" {
			claims, err := h.verifier.Verify(bearer)
			if err != nil {
				httpx.WriteError(w, err)
				return
			}
			query.ActorUserID = claims.UserID
		}
	}
	view, err := h.engine.Status(httpx.RequestContext(r), query)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, statusResponseOf(view))
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	var body approveRequest
	if r.Body != nil {
		// The note body is optional; approval works with an empty body.
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	request, err := h.engine.Approve(
		httpx.RequestContext(r),
		r.PathValue("id"),
		strings.TrimSpace(r.URL.Query().Get("token")),
		body.H1Note,
	)
	h.writeMutation(w, request.ID, string(request.DisplayStatus()), err)
}

func (h *Handler) handleDecline(w http.ResponseWriter, r *http.Request) {
	request, err := h.engine.Decline(
		httpx.RequestContext(r),
		r.PathValue("id"),
		strings.TrimSpace(r.URL.Query().Get("token")),
	)
	h.writeMutation(w, request.ID, string(request.DisplayStatus()), err)
}

func (h *Handler) handlePass(w http.ResponseWriter, r *http.Request) {
	request, err := h.engine.Pass(
		httpx.RequestContext(r),
		r.PathValue("id"),
		strings.TrimSpace(r.URL.Query().Get("token")),
	)
	h.writeMutation(w, request.ID, string(request.DisplayStatus()), err)
}

func (h *Handler) handleConsent(w http.ResponseWriter, r *http.Request) {
	request, err := h.engine.Consent(
		httpx.RequestContext(r),
		r.PathValue("id"),
		strings.TrimSpace(r.URL.Query().Get("token")),
	)
	h.writeMutation(w, request.ID, string(request.DisplayStatus()), err)
}

func (h *Handler) writeMutation(w http.ResponseWriter, requestID, displayStatus string, err error) {
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, mutationResponse{
		Success:       true,
		RequestID:     requestID,
		DisplayStatus: displayStatus,
	})
}

func (h *Handler) handleHubPending(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.requireClaims(w, r)
	if !ok {
		return
	}
	limit, offset := pageParams(r)
	page, err := h.engine.ListPending(httpx.RequestContext(r), claims.UserID, limit, offset)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, listResponseOf(page))
}

func (h *Handler) handleHubHistory(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.requireClaims(w, r)
	if !ok {
		return
	}
	limit, offset := pageParams(r)
	page, err := h.engine.ListHistory(httpx.RequestContext(r), claims.UserID, statusFilter(r), limit, offset)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, listResponseOf(page))
}

func (h *Handler) handleMyRequests(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.requireClaims(w, r)
	if !ok {
		return
	}
	limit, offset := pageParams(r)
	page, err := h.engine.ListMine(httpx.RequestContext(r), claims.UserID, statusFilter(r), limit, offset)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, listResponseOf(page))
}

func pageParams(r *http.Request) (int, int) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	return limit, offset
}

func statusFilter(r *http.Request) storage.ListFilter {
	return storage.ListFilter{
		DisplayStatus: domain.ParseDisplayStatus(r.URL.Query().Get("status_filter")),
	}
}
