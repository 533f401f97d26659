package invitation

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"cluster-provisioner/internal/controlplane"
	"cluster-provisioner/pkg/log"
)

// DirectoryLookup resolves a user id to the contact identity the console
// invitation is addressed to.
type DirectoryLookup func(ctx context.Context, userID string) (string, error)

// Service sends console-access invitations for humans tied to an
// organization. Invitations are best effort: callers log failures and move
// on, they never abort provisioning.
type Service interface {
	Invite(ctx context.Context, projectID, userID string) (*controlplane.Invitation, error)
	Status(ctx context.Context, projectID, invitationID string) (string, error)
	Cancel(ctx context.Context, projectID, invitationID string) error
}

type ConsoleInviter struct {
	controlPlane controlplane.Client
	lookup       DirectoryLookup
	roles        []string
	logger       zerolog.Logger
}

func NewConsoleInviter(controlPlane controlplane.Client, lookup DirectoryLookup) *ConsoleInviter {
	return &ConsoleInviter{
		controlPlane: controlPlane,
		lookup:       lookup,
		roles:        []string{"GROUP_DATA_ACCESS_READ_WRITE"},
		logger:       log.Logger.With().Str("component", "console_inviter").Logger(),
	}
}

func (s *ConsoleInviter) Invite(ctx context.Context, projectID, userID string) (*controlplane.Invitation, error) {
	logger := s.logger.With().Str("project_id", projectID).Str("user_id", userID).Logger()

	email, err := s.lookup(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve contact identity for user %s: %w", userID, err)
	}

	invitation, err := s.controlPlane.CreateInvitation(ctx, projectID, controlplane.InvitationSpec{
		Email: email,
		Roles: s.roles,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create console invitation: %w", err)
	}

	logger.Info().
		Str("invitation_ref", invitation.ID).
		Str("status", invitation.Status).
		Msg("Sent console invitation")
	return invitation, nil
}

// Status reports the current state of an invitation. An accepted invitation
// disappears from the control plane, so ErrNotFound maps to the accepted
// state rather than an error.
func (s *ConsoleInviter) Status(ctx context.Context, projectID, invitationID string) (string, error) {
	invitation, err := s.controlPlane.GetInvitation(ctx, projectID, invitationID)
	if errors.Is(err, controlplane.ErrNotFound) {
		return controlplane.InvitationStateAccepted, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read console invitation: %w", err)
	}
	return invitation.Status, nil
}

// Cancel withdraws a still-pending invitation. An invitation that no longer
// exists counts as cancelled.
func (s *ConsoleInviter) Cancel(ctx context.Context, projectID, invitationID string) error {
	err := s.controlPlane.CancelInvitation(ctx, projectID, invitationID)
	if errors.Is(err, controlplane.ErrNotFound) {
		s.logger.Debug().Str("invitation_ref", invitationID).Msg("Invitation already gone")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to cancel console invitation: %w", err)
	}
	s.logger.Info().Str("invitation_ref", invitationID).Msg("Cancelled console invitation")
	return nil
}
