// Package storage defines persistence contracts for introduction-request state.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/louisbranch/introhub/internal/services/introductions/domain"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// ErrConflict indicates a conditional update lost its precondition: the
// decision field it targeted was no longer pending when the write ran.
var ErrConflict = errors.New("conditional update conflict")

// ResolveApprovalInput describes the atomic hub-owner decision write. The
// update must apply only while the stored approval status is still pending.
type ResolveApprovalInput struct {
	RequestID  string
	Outcome    domain.ApprovalStatus
	Note       string
	ResolvedAt time.Time

	// OpenConsent flips the consent field to pending and records the freshly
	// minted consent token. Set on approval, left zero on decline.
	OpenConsent  bool
	ConsentToken string
}

// ResolveConsentInput describes the atomic target decision write. The update
// must apply only while the stored consent status is still pending.
type ResolveConsentInput struct {
	RequestID  string
	Outcome    domain.ConsentStatus
	ResolvedAt time.Time

	// CompletedAt is recorded when the outcome completes the introduction.
	CompletedAt *time.Time
}

// ListFilter narrows list queries to one derived display status. Empty means
// no filtering.
type ListFilter struct {
	DisplayStatus domain.DisplayStatus
}

// RequestPage is one limit/offset window of requests plus the total count
// the window was cut from.
type RequestPage struct {
	Requests   []domain.IntroductionRequest
	TotalCount int
	Limit      int
	Offset     int
}

// RequestStore persists introduction requests and applies their decision
// writes with a compare-and-set discipline.
type RequestStore interface {
	CreateRequest(ctx context.Context, request domain.IntroductionRequest) error
	GetRequest(ctx context.Context, requestID string) (domain.IntroductionRequest, error)

	// ResolveApproval and ResolveConsent return ErrConflict when the guarded
	// field was already resolved, without touching the row.
	ResolveApproval(ctx context.Context, input ResolveApprovalInput) (domain.IntroductionRequest, error)
	ResolveConsent(ctx context.Context, input ResolveConsentInput) (domain.IntroductionRequest, error)

	ListPendingByHub(ctx context.Context, hubOwnerUserID string, limit, offset int) (RequestPage, error)
	ListResolvedByHub(ctx context.Context, hubOwnerUserID string, filter ListFilter, limit, offset int) (RequestPage, error)
	ListByRequester(ctx context.Context, requesterUserID string, filter ListFilter, limit, offset int) (RequestPage, error)
}

// WorkspaceStore persists hub workspaces.
type WorkspaceStore interface {
	PutWorkspace(ctx context.Context, workspace domain.Workspace) error
	GetWorkspace(ctx context.Context, workspaceID string) (domain.Workspace, error)
}

// Store is the combined persistence boundary for the introductions service.
type Store interface {
	RequestStore
	WorkspaceStore
}
