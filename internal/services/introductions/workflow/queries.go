package workflow

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/louisbranch/introhub/internal/platform/errors"
	"github.com/louisbranch/introhub/internal/services/introductions/domain"
	"github.com/louisbranch/introhub/internal/services/introductions/storage"
	"github.com/louisbranch/introhub/internal/services/introductions/token"
)

// StatusQuery identifies a request and the caller asking about it. Either a
// workflow token or an authenticated actor must be supplied.
type StatusQuery struct {
	RequestID   string
	Token       string
	ActorUserID string
}

// StatusView is the aggregated read model for one request.
type StatusView struct {
	RequestID      string
	DisplayStatus  domain.DisplayStatus
	ApprovalStatus domain.ApprovalStatus
	ConsentStatus  domain.ConsentStatus
	Requester      domain.Identity
	Target         domain.Identity
	HubOwner       domain.Identity
	WorkspaceID    string
	UserMessage    string
	MatchReason    string
	Urgency        domain.Urgency
	H1Note         string
	CreatedAt      time.Time
	H1ApprovedAt   *time.Time
	S2ConsentedAt  *time.Time
	CompletedAt    *time.Time
}

// Status returns the current request state for a caller holding one of the
// request's tokens or for one of its three participants. Tokens authorize
// reads even after they were consumed by a decision.
func (e *Engine) Status(ctx context.Context, query StatusQuery) (StatusView, error) {
	request, err := e.getRequest(ctx, query.RequestID)
	if err != nil {
		return StatusView{}, err
	}
	if err := authorizeStatus(request, query); err != nil {
		return StatusView{}, err
	}
	return viewOf(request), nil
}

func authorizeStatus(request domain.IntroductionRequest, query StatusQuery) error {
	if query.Token != "" {
		if _, ok := token.RoleOf(query.Token, bindings(request)); ok {
			return nil
		}
		return apperrors.New(apperrors.CodeTokenInvalid, "token is unknown for this request")
	}
	if query.ActorUserID != "" {
		switch query.ActorUserID {
		case request.Requester.UserID, request.Target.UserID, request.HubOwner.UserID:
			return nil
		}
		return apperrors.New(apperrors.CodeTokenMismatch, "caller is not a participant in this request")
	}
	return apperrors.New(apperrors.CodeTokenInvalid, "a token or an authenticated caller is required")
}

func viewOf(request domain.IntroductionRequest) StatusView {
	return StatusView{
		RequestID:      request.ID,
		DisplayStatus:  request.DisplayStatus(),
		ApprovalStatus: request.ApprovalStatus,
		ConsentStatus:  request.ConsentStatus,
		Requester:      request.Requester,
		Target:         request.Target,
		HubOwner:       request.HubOwner,
		WorkspaceID:    request.WorkspaceID,
		UserMessage:    request.UserMessage,
		MatchReason:    request.MatchReason,
		Urgency:        request.Urgency,
		H1Note:         request.H1Note,
		CreatedAt:      request.CreatedAt,
		H1ApprovedAt:   request.H1ApprovedAt,
		S2ConsentedAt:  request.S2ConsentedAt,
		CompletedAt:    request.CompletedAt,
	}
}

// Page is a bounded slice of requests plus the total match count.
type Page struct {
	Views      []StatusView
	TotalCount int
	Limit      int
	Offset     int
}

// ListPending returns requests awaiting the hub owner's approval, oldest
// first.
func (e *Engine) ListPending(ctx context.Context, hubOwnerUserID string, limit, offset int) (Page, error) {
	limit, offset = clampPage(limit, offset)
	page, err := e.store.ListPendingByHub(ctx, hubOwnerUserID, limit, offset)
	if err != nil {
		return Page{}, apperrors.Wrap(apperrors.CodeStoreUnavailable, "list pending requests", err)
	}
	return pageOf(page), nil
}

// ListHistory returns the hub owner's resolved requests, newest first,
// optionally filtered by display status.
func (e *Engine) ListHistory(ctx context.Context, hubOwnerUserID string, filter storage.ListFilter, limit, offset int) (Page, error) {
	limit, offset = clampPage(limit, offset)
	page, err := e.store.ListResolvedByHub(ctx, hubOwnerUserID, filter, limit, offset)
	if err != nil {
		return Page{}, apperrors.Wrap(apperrors.CodeStoreUnavailable, "list resolved requests", err)
	}
	return pageOf(page), nil
}

// ListMine returns the requests a requester submitted, newest first,
// optionally filtered by display status.
func (e *Engine) ListMine(ctx context.Context, requesterUserID string, filter storage.ListFilter, limit, offset int) (Page, error) {
	limit, offset = clampPage(limit, offset)
	page, err := e.store.ListByRequester(ctx, requesterUserID, filter, limit, offset)
	if err != nil {
		return Page{}, apperrors.Wrap(apperrors.CodeStoreUnavailable, "list submitted requests", err)
	}
	return pageOf(page), nil
}

// RegisterWorkspace creates a hub workspace owned by the given identity.
func (e *Engine) RegisterWorkspace(ctx context.Context, input domain.RegisterWorkspaceInput) (domain.Workspace, error) {
	normalized, err := domain.NormalizeRegisterWorkspaceInput(input)
	if err != nil {
		return domain.Workspace{}, err
	}
	workspaceID, err := e.newID()
	if err != nil {
		return domain.Workspace{}, err
	}
	now := e.clock().UTC()
	workspace := domain.Workspace{
		ID:        workspaceID,
		Name:      normalized.Name,
		Owner:     normalized.Owner,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.store.PutWorkspace(ctx, workspace); err != nil {
		return domain.Workspace{}, apperrors.Wrap(apperrors.CodeStoreUnavailable, "store workspace", err)
	}
	return workspace, nil
}

// Workspace loads a workspace by id.
func (e *Engine) Workspace(ctx context.Context, workspaceID string) (domain.Workspace, error) {
	workspace, err := e.store.GetWorkspace(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Workspace{}, apperrors.New(apperrors.CodeWorkspaceNotFound, "workspace is unknown")
		}
		return domain.Workspace{}, apperrors.Wrap(apperrors.CodeStoreUnavailable, "load workspace", err)
	}
	return workspace, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func pageOf(page storage.RequestPage) Page {
	views := make([]StatusView, 0, len(page.Requests))
	for _, request := range page.Requests {
		views = append(views, viewOf(request))
	}
	return Page{
		Views:      views,
		TotalCount: page.TotalCount,
		Limit:      page.Limit,
		Offset:     page.Offset,
	}
}
