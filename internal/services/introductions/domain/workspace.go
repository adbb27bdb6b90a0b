package domain

import (
	"strings"
	"time"

	apperrors "github.com/louisbranch/introhub/internal/platform/errors"
)

// Workspace is the scoped hub/network a request is submitted against,
// owned by the hub owner whose approval gates every introduction.
type Workspace struct {
	ID        string
	Name      string
	Owner     Identity
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RegisterWorkspaceInput describes the metadata needed to create a workspace.
type RegisterWorkspaceInput struct {
	Name  string
	Owner Identity
}

// NormalizeRegisterWorkspaceInput trims and validates workspace input.
func NormalizeRegisterWorkspaceInput(input RegisterWorkspaceInput) (RegisterWorkspaceInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return RegisterWorkspaceInput{}, apperrors.New(apperrors.CodeWorkspaceNameRequired, "workspace name is required")
	}
	input.Owner = NormalizeIdentity(input.Owner)
	if input.Owner.UserID == "" {
		return RegisterWorkspaceInput{}, apperrors.New(apperrors.CodeWorkspaceOwnerRequired, "workspace owner is required")
	}
	return input, nil
}
