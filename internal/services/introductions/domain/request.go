// Package domain models the introduction-request lifecycle and its workflow engine.
package domain

import (
	"strings"
	"time"
)

// MaxMessageLength bounds the free-form message supplied at submission.
const MaxMessageLength = 2000

// Urgency classifies how time-sensitive a request is.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyNormal Urgency = "normal"
	UrgencyHigh   Urgency = "high"
)

// ValidUrgency reports whether the value is one of the allowed urgencies.
func ValidUrgency(u Urgency) bool {
	switch u {
	case UrgencyLow, UrgencyNormal, UrgencyHigh:
		return true
	default:
		return false
	}
}

// ApprovalStatus is the hub owner's decision field. It only moves forward:
// pending resolves to approved or declined exactly once.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalDeclined ApprovalStatus = "declined"
)

// ConsentStatus is the target's decision field. It stays not_applicable
// until the hub owner approves, then resolves exactly once.
type ConsentStatus string

const (
	ConsentNotApplicable ConsentStatus = "not_applicable"
	ConsentPending       ConsentStatus = "pending"
	ConsentConsented     ConsentStatus = "consented"
	ConsentDeclined      ConsentStatus = "declined"
)

// DisplayStatus is the derived, user-facing status. It is computed on every
// read and never stored.
type DisplayStatus string

const (
	DisplayPending     DisplayStatus = "Pending"
	DisplayHubApproved DisplayStatus = "HubApproved"
	DisplayConnected   DisplayStatus = "Connected"
	DisplayDeclined    DisplayStatus = "Declined"
)

// ComputeDisplayStatus derives the user-facing status from the two decision
// fields. It is total over all combinations, reachable or not.
func ComputeDisplayStatus(approval ApprovalStatus, consent ConsentStatus) DisplayStatus {
	switch {
	case approval == ApprovalDeclined || consent == ConsentDeclined:
		return DisplayDeclined
	case approval == ApprovalApproved && consent == ConsentConsented:
		return DisplayConnected
	case approval == ApprovalApproved:
		return DisplayHubApproved
	default:
		return DisplayPending
	}
}

// ParseDisplayStatus converts a label to a DisplayStatus, empty on no match.
func ParseDisplayStatus(label string) DisplayStatus {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "pending":
		return DisplayPending
	case "hubapproved", "hub_approved":
		return DisplayHubApproved
	case "connected":
		return DisplayConnected
	case "declined":
		return DisplayDeclined
	default:
		return ""
	}
}

// IntroductionRequest is the central workflow entity. The requester (S1)
// asks the hub owner (H1) to broker an introduction to the target (S2).
type IntroductionRequest struct {
	ID string

	Requester Identity
	Target    Identity

	WorkspaceID string
	HubOwner    Identity

	UserMessage string
	MatchReason string
	Urgency     Urgency
	H1Note      string

	ApprovalStatus ApprovalStatus
	ConsentStatus  ConsentStatus

	ApprovalToken string
	ConsentToken  string

	CreatedAt     time.Time
	H1ApprovedAt  *time.Time
	S2ConsentedAt *time.Time
	CompletedAt   *time.Time
}

// DisplayStatus derives the user-facing status for this request.
func (r IntroductionRequest) DisplayStatus() DisplayStatus {
	return ComputeDisplayStatus(r.ApprovalStatus, r.ConsentStatus)
}

// Terminal reports whether the request accepts no further writes.
func (r IntroductionRequest) Terminal() bool {
	return r.ApprovalStatus == ApprovalDeclined ||
		r.ConsentStatus == ConsentDeclined ||
		r.ConsentStatus == ConsentConsented
}
