package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/introhub/internal/services/introductions/domain"
	"github.com/louisbranch/introhub/internal/services/introductions/storage"
)

const requestColumns = `id, workspace_id,
	requester_json, target_json, hub_owner_json,
	user_message, match_reason, urgency, h1_note,
	h1_approval_status, s2_consent_status,
	approval_token, consent_token,
	created_at, h1_approved_at, s2_consented_at, completed_at`

// CreateRequest inserts a new introduction request.
func (s *Store) CreateRequest(ctx context.Context, request domain.IntroductionRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	requestID := strings.TrimSpace(request.ID)
	if requestID == "" {
		return fmt.Errorf("request id is required")
	}
	requesterJSON, err := marshalIdentity(request.Requester)
	if err != nil {
		return err
	}
	targetJSON, err := marshalIdentity(request.Target)
	if err != nil {
		return err
	}
	hubOwnerJSON, err := marshalIdentity(request.HubOwner)
	if err != nil {
		return err
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO introduction_requests (
		   id, workspace_id,
		   requester_user_id, requester_json,
		   target_user_id, target_json,
		   hub_owner_user_id, hub_owner_json,
		   user_message, match_reason, urgency, h1_note,
		   h1_approval_status, s2_consent_status,
		   approval_token, consent_token,
		   created_at, h1_approved_at, s2_consented_at, completed_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		requestID,
		request.WorkspaceID,
		request.Requester.UserID,
		requesterJSON,
		request.Target.UserID,
		targetJSON,
		request.HubOwner.UserID,
		hubOwnerJSON,
		request.UserMessage,
		request.MatchReason,
		string(request.Urgency),
		request.H1Note,
		string(request.ApprovalStatus),
		string(request.ConsentStatus),
		request.ApprovalToken,
		request.ConsentToken,
		toMillis(request.CreatedAt),
		toNullMillis(request.H1ApprovedAt),
		toNullMillis(request.S2ConsentedAt),
		toNullMillis(request.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return nil
}

// GetRequest returns one introduction request by id.
func (s *Store) GetRequest(ctx context.Context, requestID string) (domain.IntroductionRequest, error) {
	if err := ctx.Err(); err != nil {
		return domain.IntroductionRequest{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.IntroductionRequest{}, fmt.Errorf("storage is not configured")
	}
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return domain.IntroductionRequest{}, storage.ErrNotFound
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT `+requestColumns+`
		 FROM introduction_requests
		 WHERE id = ?`,
		requestID,
	)
	request, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.IntroductionRequest{}, storage.ErrNotFound
		}
		return domain.IntroductionRequest{}, fmt.Errorf("get request: %w", err)
	}
	return request, nil
}

// ResolveApproval applies the hub owner's decision with a conditional update
// keyed on the approval field still reading pending. A lost precondition
// surfaces as storage.ErrConflict with the row untouched.
func (s *Store) ResolveApproval(ctx context.Context, input storage.ResolveApprovalInput) (domain.IntroductionRequest, error) {
	if err := ctx.Err(); err != nil {
		return domain.IntroductionRequest{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.IntroductionRequest{}, fmt.Errorf("storage is not configured")
	}

	consentStatus := ""
	if input.OpenConsent {
		consentStatus = string(domain.ConsentPending)
	}
	var approvedAt sql.NullInt64
	if input.Outcome == domain.ApprovalApproved {
		approvedAt = sql.NullInt64{Int64: toMillis(input.ResolvedAt), Valid: true}
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE introduction_requests SET
		   h1_approval_status = ?,
		   h1_note = ?,
		   h1_approved_at = COALESCE(?, h1_approved_at),
		   s2_consent_status = CASE WHEN ? != '' THEN ? ELSE s2_consent_status END,
		   consent_token = CASE WHEN ? != '' THEN ? ELSE consent_token END
		 WHERE id = ? AND h1_approval_status = ?`,
		string(input.Outcome),
		input.Note,
		approvedAt,
		consentStatus,
		consentStatus,
		input.ConsentToken,
		input.ConsentToken,
		input.RequestID,
		string(domain.ApprovalPending),
	)
	if err != nil {
		return domain.IntroductionRequest{}, fmt.Errorf("resolve approval: %w", err)
	}
	return s.afterConditionalUpdate(ctx, input.RequestID, result)
}

// ResolveConsent applies the target's decision with a conditional update
// keyed on the consent field still reading pending.
func (s *Store) ResolveConsent(ctx context.Context, input storage.ResolveConsentInput) (domain.IntroductionRequest, error) {
	if err := ctx.Err(); err != nil {
		return domain.IntroductionRequest{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.IntroductionRequest{}, fmt.Errorf("storage is not configured")
	}

	var consentedAt sql.NullInt64
	if input.Outcome == domain.ConsentConsented {
		consentedAt = sql.NullInt64{Int64: toMillis(input.ResolvedAt), Valid: true}
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE introduction_requests SET
		   s2_consent_status = ?,
		   s2_consented_at = COALESCE(?, s2_consented_at),
		   completed_at = COALESCE(?, completed_at)
		 WHERE id = ? AND s2_consent_status = ?`,
		string(input.Outcome),
		consentedAt,
		toNullMillis(input.CompletedAt),
		input.RequestID,
		string(domain.ConsentPending),
	)
	if err != nil {
		return domain.IntroductionRequest{}, fmt.Errorf("resolve consent: %w", err)
	}
	return s.afterConditionalUpdate(ctx, input.RequestID, result)
}

func (s *Store) afterConditionalUpdate(ctx context.Context, requestID string, result sql.Result) (domain.IntroductionRequest, error) {
	affected, err := result.RowsAffected()
	if err != nil {
		return domain.IntroductionRequest{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		if _, getErr := s.GetRequest(ctx, requestID); getErr != nil {
			return domain.IntroductionRequest{}, getErr
		}
		return domain.IntroductionRequest{}, storage.ErrConflict
	}
	return s.GetRequest(ctx, requestID)
}

// ListPendingByHub returns requests awaiting the hub owner, oldest first.
func (s *Store) ListPendingByHub(ctx context.Context, hubOwnerUserID string, limit, offset int) (storage.RequestPage, error) {
	where := "hub_owner_user_id = ? AND h1_approval_status = ?"
	args := []any{hubOwnerUserID, string(domain.ApprovalPending)}
	return s.listRequests(ctx, where, args, "created_at ASC", limit, offset)
}

// ListResolvedByHub returns the hub owner's resolved requests, newest first.
func (s *Store) ListResolvedByHub(ctx context.Context, hubOwnerUserID string, filter storage.ListFilter, limit, offset int) (storage.RequestPage, error) {
	where := "hub_owner_user_id = ? AND h1_approval_status != ?"
	args := []any{hubOwnerUserID, string(domain.ApprovalPending)}
	where, args = applyDisplayFilter(where, args, filter)
	return s.listRequests(ctx, where, args, "created_at DESC", limit, offset)
}

// ListByRequester returns the requests a requester submitted, newest first.
func (s *Store) ListByRequester(ctx context.Context, requesterUserID string, filter storage.ListFilter, limit, offset int) (storage.RequestPage, error) {
	where := "requester_user_id = ?"
	args := []any{requesterUserID}
	where, args = applyDisplayFilter(where, args, filter)
	return s.listRequests(ctx, where, args, "created_at DESC", limit, offset)
}

// applyDisplayFilter narrows a query to the decision-field combinations a
// derived display status maps back to.
func applyDisplayFilter(where string, args []any, filter storage.ListFilter) (string, []any) {
	switch filter.DisplayStatus {
	case domain.DisplayPending:
		where += " AND h1_approval_status = ?"
		args = append(args, string(domain.ApprovalPending))
	case domain.DisplayHubApproved:
		where += " AND h1_approval_status = ? AND s2_consent_status = ?"
		args = append(args, string(domain.ApprovalApproved), string(domain.ConsentPending))
	case domain.DisplayConnected:
		where += " AND h1_approval_status = ? AND s2_consent_status = ?"
		args = append(args, string(domain.ApprovalApproved), string(domain.ConsentConsented))
	case domain.DisplayDeclined:
		where += " AND (h1_approval_status = ? OR s2_consent_status = ?)"
		args = append(args, string(domain.ApprovalDeclined), string(domain.ConsentDeclined))
	}
	return where, args
}

func (s *Store) listRequests(ctx context.Context, where string, args []any, order string, limit, offset int) (storage.RequestPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.RequestPage{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.RequestPage{}, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	countRow := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM introduction_requests WHERE `+where,
		args...,
	)
	if err := countRow.Scan(&total); err != nil {
		return storage.RequestPage{}, fmt.Errorf("count requests: %w", err)
	}

	pageArgs := append(append([]any{}, args...), limit, offset)
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT `+requestColumns+`
		 FROM introduction_requests
		 WHERE `+where+`
		 ORDER BY `+order+`
		 LIMIT ? OFFSET ?`,
		pageArgs...,
	)
	if err != nil {
		return storage.RequestPage{}, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	var requests []domain.IntroductionRequest
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return storage.RequestPage{}, fmt.Errorf("scan request: %w", err)
		}
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		return storage.RequestPage{}, fmt.Errorf("iterate requests: %w", err)
	}

	return storage.RequestPage{
		Requests:   requests,
		TotalCount: total,
		Limit:      limit,
		Offset:     offset,
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (domain.IntroductionRequest, error) {
	var request domain.IntroductionRequest
	var requesterJSON, targetJSON, hubOwnerJSON string
	var urgency, approvalStatus, consentStatus string
	var createdAt int64
	var approvedAt, consentedAt, completedAt sql.NullInt64

	err := row.Scan(
		&request.ID,
		&request.WorkspaceID,
		&requesterJSON,
		&targetJSON,
		&hubOwnerJSON,
		&request.UserMessage,
		&request.MatchReason,
		&urgency,
		&request.H1Note,
		&approvalStatus,
		&consentStatus,
		&request.ApprovalToken,
		&request.ConsentToken,
		&createdAt,
		&approvedAt,
		&consentedAt,
		&completedAt,
	)
	if err != nil {
		return domain.IntroductionRequest{}, err
	}

	if request.Requester, err = unmarshalIdentity(requesterJSON); err != nil {
		return domain.IntroductionRequest{}, err
	}
	if request.Target, err = unmarshalIdentity(targetJSON); err != nil {
		return domain.IntroductionRequest{}, err
	}
	if request.HubOwner, err = unmarshalIdentity(hubOwnerJSON); err != nil {
		return domain.IntroductionRequest{}, err
	}
	request.Urgency = domain.Urgency(urgency)
	request.ApprovalStatus = domain.ApprovalStatus(approvalStatus)
	request.ConsentStatus = domain.ConsentStatus(consentStatus)
	request.CreatedAt = fromMillis(createdAt)
	request.H1ApprovedAt = fromNullMillis(approvedAt)
	request.S2ConsentedAt = fromNullMillis(consentedAt)
	request.CompletedAt = fromNullMillis(completedAt)
	return request, nil
}
