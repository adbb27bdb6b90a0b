// Package workflow enforces the introduction-request state machine.
//
// The engine is a stateless request handler over a shared durable store.
// Every decision write is a compare-and-set keyed on the pre-transition
// status value, so concurrent callers race to exactly one winner and no
// transition is ever partially applied. Notification dispatch happens after
// the commit and never rolls state back.
package workflow

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/louisbranch/introhub/internal/platform/errors"
	"github.com/louisbranch/introhub/internal/platform/id"
	"github.com/louisbranch/introhub/internal/services/introductions/domain"
	"github.com/louisbranch/introhub/internal/services/introductions/notify"
	"github.com/louisbranch/introhub/internal/services/introductions/storage"
	"github.com/louisbranch/introhub/internal/services/introductions/token"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// TransitionObserver counts successful workflow transitions.
type TransitionObserver interface {
	ObserveTransition(event string)
}

// Engine orchestrates the introduction-request lifecycle.
type Engine struct {
	store       storage.Store
	tokens      *token.Service
	trigger     notify.Trigger
	clock       func() time.Time
	newID       func() (string, error)
	transitions TransitionObserver
}

// Options configures optional engine collaborators.
type Options struct {
	Clock       func() time.Time
	NewID       func() (string, error)
	Transitions TransitionObserver
}

// NewEngine constructs a workflow engine over the given store.
func NewEngine(store storage.Store, tokens *token.Service, trigger notify.Trigger, options Options) *Engine {
	if tokens == nil {
		tokens = token.NewService(0, nil, nil)
	}
	if trigger == nil {
		trigger = notify.LogTrigger{}
	}
	clock := options.Clock
	if clock == nil {
		clock = time.Now
	}
	newID := options.NewID
	if newID == nil {
		newID = id.NewID
	}
	return &Engine{
		store:       store,
		tokens:      tokens,
		trigger:     trigger,
		clock:       clock,
		newID:       newID,
		transitions: options.Transitions,
	}
}

// SubmitInput describes a new introduction request.
type SubmitInput struct {
	Requester   domain.Identity
	Target      domain.Identity
	WorkspaceID string
	UserMessage string
	MatchReason string
	Urgency     domain.Urgency
}

// Submit creates a request in the pending-approval state and mints the hub
// owner's approval token.
func (e *Engine) Submit(ctx context.Context, input SubmitInput) (domain.IntroductionRequest, error) {
	input.Requester = domain.NormalizeIdentity(input.Requester)
	input.Target = domain.NormalizeIdentity(input.Target)

	if input.Requester.IsZero() {
		return domain.IntroductionRequest{}, apperrors.New(apperrors.CodeSubmissionRequesterRequired, "requester is required")
	}
	if input.Target.IsZero() {
		return domain.IntroductionRequest{}, apperrors.New(apperrors.CodeSubmissionTargetRequired, "target is required")
	}
	message := input.UserMessage
	if len(message) == 0 {
		return domain.IntroductionRequest{}, apperrors.New(apperrors.CodeSubmissionMessageRequired, "message is required")
	}
	if len(message) > domain.MaxMessageLength {
		return domain.IntroductionRequest{}, apperrors.WithMetadata(
			apperrors.CodeSubmissionMessageTooLong,
			"message exceeds the allowed length",
			map[string]string{"max": "2000"},
		)
	}
	urgency := input.Urgency
	if urgency == "" {
		urgency = domain.UrgencyNormal
	}
	if !domain.ValidUrgency(urgency) {
		return domain.IntroductionRequest{}, apperrors.New(apperrors.CodeSubmissionInvalidUrgency, "urgency is not recognized")
	}

	workspace, err := e.store.GetWorkspace(ctx, input.WorkspaceID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.IntroductionRequest{}, apperrors.New(apperrors.CodeWorkspaceNotFound, "workspace is unknown")
		}
		return domain.IntroductionRequest{}, apperrors.Wrap(apperrors.CodeStoreUnavailable, "load workspace", err)
	}

	requestID, err := e.newID()
	if err != nil {
		return domain.IntroductionRequest{}, err
	}
	approvalToken, err := e.tokens.Mint()
	if err != nil {
		return domain.IntroductionRequest{}, err
	}

	request := domain.IntroductionRequest{
		ID:             requestID,
		Requester:      input.Requester,
		Target:         input.Target,
		WorkspaceID:    workspace.ID,
		HubOwner:       workspace.Owner,
		UserMessage:    message,
		MatchReason:    input.MatchReason,
		Urgency:        urgency,
		ApprovalStatus: domain.ApprovalPending,
		ConsentStatus:  domain.ConsentNotApplicable,
		ApprovalToken:  approvalToken,
		CreatedAt:      e.clock().UTC(),
	}
	if err := e.store.CreateRequest(ctx, request); err != nil {
		return domain.IntroductionRequest{}, apperrors.Wrap(apperrors.CodeStoreUnavailable, "create request", err)
	}

	e.emit(ctx, notify.KindSubmitted, request)
	return request, nil
}

// Approve records the hub owner's approval, opens the consent stage, and
// mints the target's consent token.
func (e *Engine) Approve(ctx context.Context, requestID, presentedToken, note string) (domain.IntroductionRequest, error) {
	return e.resolveApproval(ctx, requestID, presentedToken, note, domain.ApprovalApproved, notify.KindHubApproved)
}

// DeclineByH1 records the hub owner's decline. Terminal.
func (e *Engine) DeclineByH1(ctx context.Context, requestID, presentedToken string) (domain.IntroductionRequest, error) {
	return e.resolveApproval(ctx, requestID, presentedToken, "", domain.ApprovalDeclined, notify.KindHubDeclined)
}

// Pass is the hub owner's soft decline: identical state effect to
// DeclineByH1 with distinct notification copy.
func (e *Engine) Pass(ctx context.Context, requestID, presentedToken string) (domain.IntroductionRequest, error) {
	return e.resolveApproval(ctx, requestID, presentedToken, "", domain.ApprovalDeclined, notify.KindHubPassed)
}

// Consent records the target's consent and completes the introduction.
// Terminal.
func (e *Engine) Consent(ctx context.Context, requestID, presentedToken string) (domain.IntroductionRequest, error) {
	return e.resolveConsent(ctx, requestID, presentedToken, domain.ConsentConsented, notify.KindConnected)
}

// DeclineByS2 records the target's decline. Terminal.
func (e *Engine) DeclineByS2(ctx context.Context, requestID, presentedToken string) (domain.IntroductionRequest, error) {
	return e.resolveConsent(ctx, requestID, presentedToken, domain.ConsentDeclined, notify.KindTargetDeclined)
}

// Decline resolves a decline with the role inferred from the presented
// token: the approval token declines for the hub owner, the consent token
// for the target.
func (e *Engine) Decline(ctx context.Context, requestID, presentedToken string) (domain.IntroductionRequest, error) {
	request, err := e.getRequest(ctx, requestID)
	if err != nil {
		return domain.IntroductionRequest{}, err
	}
	role, ok := token.RoleOf(presentedToken, bindings(request))
	if !ok {
		return domain.IntroductionRequest{}, apperrors.New(apperrors.CodeTokenInvalid, "token is unknown for this request")
	}
	if role == token.RoleHubOwner {
		return e.DeclineByH1(ctx, requestID, presentedToken)
	}
	return e.DeclineByS2(ctx, requestID, presentedToken)
}

func (e *Engine) resolveApproval(ctx context.Context, requestID, presentedToken, note string, outcome domain.ApprovalStatus, kind notify.Kind) (domain.IntroductionRequest, error) {
	request, err := e.getRequest(ctx, requestID)
	if err != nil {
		return domain.IntroductionRequest{}, err
	}
	if err := e.tokens.Validate(presentedToken, token.RoleHubOwner, bindings(request)); err != nil {
		return domain.IntroductionRequest{}, err
	}
	if err := classifyResolved(string(request.ApprovalStatus), string(domain.ApprovalPending), string(outcome)); err != nil {
		return domain.IntroductionRequest{}, err
	}

	input := storage.ResolveApprovalInput{
		RequestID:  requestID,
		Outcome:    outcome,
		Note:       note,
		ResolvedAt: e.clock().UTC(),
	}
	if outcome == domain.ApprovalApproved {
		consentToken, err := e.tokens.Mint()
		if err != nil {
			return domain.IntroductionRequest{}, err
		}
		input.OpenConsent = true
		input.ConsentToken = consentToken
	}

	updated, err := e.store.ResolveApproval(ctx, input)
	if err != nil {
		return domain.IntroductionRequest{}, e.classifyResolveErr(ctx, requestID, err, func(r domain.IntroductionRequest) error {
			return classifyResolved(string(r.ApprovalStatus), string(domain.ApprovalPending), string(outcome))
		})
	}

	e.emit(ctx, kind, updated)
	return updated, nil
}

func (e *Engine) resolveConsent(ctx context.Context, requestID, presentedToken string, outcome domain.ConsentStatus, kind notify.Kind) (domain.IntroductionRequest, error) {
	request, err := e.getRequest(ctx, requestID)
	if err != nil {
		return domain.IntroductionRequest{}, err
	}
	// Consent is gated on approval: until the hub owner approves there is
	// no consent stage for any token to act on.
	if request.ApprovalStatus != domain.ApprovalApproved {
		return domain.IntroductionRequest{}, apperrors.New(apperrors.CodeStateConflict, "request is not awaiting consent")
	}
	if err := e.tokens.Validate(presentedToken, token.RoleTarget, bindings(request)); err != nil {
		return domain.IntroductionRequest{}, err
	}
	if err := classifyResolved(string(request.ConsentStatus), string(domain.ConsentPending), string(outcome)); err != nil {
		return domain.IntroductionRequest{}, err
	}

	resolvedAt := e.clock().UTC()
	input := storage.ResolveConsentInput{
		RequestID:  requestID,
		Outcome:    outcome,
		ResolvedAt: resolvedAt,
	}
	if outcome == domain.ConsentConsented {
		input.CompletedAt = &resolvedAt
	}

	updated, err := e.store.ResolveConsent(ctx, input)
	if err != nil {
		return domain.IntroductionRequest{}, e.classifyResolveErr(ctx, requestID, err, func(r domain.IntroductionRequest) error {
			return classifyResolved(string(r.ConsentStatus), string(domain.ConsentPending), string(outcome))
		})
	}

	e.emit(ctx, kind, updated)
	return updated, nil
}

// classifyResolved maps an already-resolved decision field to the caller
// error. The same outcome means this exact action already consumed the
// token ("this link was already used"); a different outcome means someone
// else acted on the request first.
func classifyResolved(current, pending, want string) error {
	if current == pending {
		return nil
	}
	if current == want {
		return apperrors.New(apperrors.CodeTokenInvalid, "token was already used")
	}
	return apperrors.New(apperrors.CodeStateConflict, "someone already acted on this request")
}

// classifyResolveErr turns a lost compare-and-set into the precise caller
// error by re-reading the row the race left behind.
func (e *Engine) classifyResolveErr(ctx context.Context, requestID string, err error, classify func(domain.IntroductionRequest) error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperrors.New(apperrors.CodeRequestNotFound, "request not found")
	}
	if !errors.Is(err, storage.ErrConflict) {
		return apperrors.Wrap(apperrors.CodeStoreUnavailable, "resolve request", err)
	}
	current, getErr := e.getRequest(ctx, requestID)
	if getErr != nil {
		return getErr
	}
	if classifyErr := classify(current); classifyErr != nil {
		return classifyErr
	}
	// The guarded field reads pending again only if the losing write raced
	// something that itself failed; surface the conflict as-is.
	return apperrors.New(apperrors.CodeStateConflict, "someone already acted on this request")
}

func (e *Engine) getRequest(ctx context.Context, requestID string) (domain.IntroductionRequest, error) {
	request, err := e.store.GetRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.IntroductionRequest{}, apperrors.New(apperrors.CodeRequestNotFound, "request not found")
		}
		return domain.IntroductionRequest{}, apperrors.Wrap(apperrors.CodeStoreUnavailable, "load request", err)
	}
	return request, nil
}

func bindings(request domain.IntroductionRequest) []token.Binding {
	out := make([]token.Binding, 0, 2)
	if request.ApprovalToken != "" {
		out = append(out, token.Binding{
			Role:     token.RoleHubOwner,
			Token:    request.ApprovalToken,
			IssuedAt: request.CreatedAt,
		})
	}
	if request.ConsentToken != "" {
		binding := token.Binding{Role: token.RoleTarget, Token: request.ConsentToken}
		if request.H1ApprovedAt != nil {
			binding.IssuedAt = *request.H1ApprovedAt
		}
		out = append(out, binding)
	}
	return out
}

func (e *Engine) emit(ctx context.Context, kind notify.Kind, request domain.IntroductionRequest) {
	event := notify.Event{
		Kind:        kind,
		RequestID:   request.ID,
		WorkspaceID: request.WorkspaceID,
		Requester:   request.Requester,
		Target:      request.Target,
		HubOwner:    request.HubOwner,
		Note:        request.H1Note,
		OccurredAt:  e.clock().UTC(),
	}
	_ = e.trigger.Notify(ctx, event)
	if e.transitions != nil {
		e.transitions.ObserveTransition(string(kind))
	}
}
