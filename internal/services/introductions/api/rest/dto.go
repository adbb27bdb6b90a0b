package rest

import (
	"time"

	"github.com/louisbranch/introhub/internal/services/introductions/domain"
	"github.com/louisbranch/introhub/internal/services/introductions/workflow"
)

type submitRequest struct {
	Target      domain.Identity `json:"target"`
	WorkspaceID string          `json:"workspace_id"`
	Message     string          `json:"message"`
	MatchReason string          `json:"match_reason,omitempty"`
	Urgency     string          `json:"urgency,omitempty"`
}

type approveRequest struct {
	H1Note string `json:"h1_note,omitempty"`
}

type mutationResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message,omitempty"`
	RequestID     string `json:"request_id,omitempty"`
	DisplayStatus string `json:"display_status,omitempty"`
}

type statusResponse struct {
	RequestID      string          `json:"request_id"`
	DisplayStatus  string          `json:"display_status"`
	ApprovalStatus string          `json:"approval_status"`
	ConsentStatus  string          `json:"consent_status"`
	Requester      domain.Identity `json:"requester"`
	Target         domain.Identity `json:"target"`
	HubOwner       domain.Identity `json:"hub_owner"`
	WorkspaceID    string          `json:"workspace_id"`
	Message        string          `json:"message"`
	MatchReason    string          `json:"match_reason,omitempty"`
	Urgency        string          `json:"urgency"`
	H1Note         string          `json:"h1_note,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	H1ApprovedAt   *time.Time      `json:"h1_approved_at,omitempty"`
	S2ConsentedAt  *time.Time      `json:"s2_consented_at,omitempty"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
}

type listResponse struct {
	Items      []statusResponse `json:"items"`
	TotalCount int              `json:"total_count"`
	Limit      int              `json:"limit"`
	Offset     int              `json:"offset"`
}

func statusResponseOf(view workflow.StatusView) statusResponse {
	return statusResponse{
		RequestID:      view.RequestID,
		DisplayStatus:  string(view.DisplayStatus),
		ApprovalStatus: string(view.ApprovalStatus),
		ConsentStatus:  string(view.ConsentStatus),
		Requester:      view.Requester,
		Target:         view.Target,
		HubOwner:       view.HubOwner,
		WorkspaceID:    view.WorkspaceID,
		Message:        view.UserMessage,
		MatchReason:    view.MatchReason,
		Urgency:        string(view.Urgency),
		H1Note:         view.H1Note,
		CreatedAt:      view.CreatedAt,
		H1ApprovedAt:   view.H1ApprovedAt,
		S2ConsentedAt:  view.S2ConsentedAt,
		CompletedAt:    view.CompletedAt,
	}
}

func listResponseOf(page workflow.Page) listResponse {
	items := make([]statusResponse, 0, len(page.Views))
	for _, view := range page.Views {
		items = append(items, statusResponseOf(view))
	}
	return listResponse{
		Items:      items,
		TotalCount: page.TotalCount,
		Limit:      page.Limit,
		Offset:     page.Offset,
	}
}
