package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"team-service/internal/models"
	"team-service/internal/repository"
)

// MemberSummary represents one team member for API responses
type MemberSummary struct {
	ProfileID uuid.UUID `json:"profile_id"`
	UserID    uuid.UUID `json:"user_id"`
	Role      string    `json:"role"`
	JoinedAt  string    `json:"joined_at"`
}

// MembershipService handles team member management
type MembershipService struct {
	profileRepo ProfileRepositoryInterface
	orgRepo     OrganizationRepositoryInterface
	publisher   EventPublisherInterface
	seatCache   SeatCacheInterface
	log         *logrus.Logger
}

// NewMembershipService creates a new membership service
func NewMembershipService(profileRepo ProfileRepositoryInterface, orgRepo OrganizationRepositoryInterface, log *logrus.Logger) *MembershipService {
	return &MembershipService{
		profileRepo: profileRepo,
		orgRepo:     orgRepo,
		log:         log,
	}
}

// SetPublisher wires the event publisher (optional)
func (s *MembershipService) SetPublisher(p EventPublisherInterface) {
	s.publisher = p
}

// SetSeatCache wires the seat summary cache (optional)
func (s *MembershipService) SetSeatCache(c SeatCacheInterface) {
	s.seatCache = c
}

// ListMembers returns the organization's active members. Any active member may
// view the roster.
func (s *MembershipService) ListMembers(ctx context.Context, orgID, requestedBy uuid.UUID) ([]MemberSummary, error) {
	if _, err := s.profileRepo.GetRole(ctx, orgID, requestedBy); err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, NewAuthorizationError("caller is not a member of this organization")
		}
		return nil, &StoreUnavailableError{Op: "check membership", Err: err}
	}

	profiles, err := s.profileRepo.ListActive(ctx, orgID)
	if err != nil {
		return nil, &StoreUnavailableError{Op: "list members", Err: err}
	}

	members := make([]MemberSummary, 0, len(profiles))
	for _, p := range profiles {
		members = append(members, MemberSummary{
			ProfileID: p.ID,
			UserID:    p.UserID,
			Role:      p.Role,
			JoinedAt:  p.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return members, nil
}

// RemoveMember deactivates a member's profile and releases the seat in one
// transaction. The owner can never be removed.
func (s *MembershipService) RemoveMember(ctx context.Context, orgID, targetUserID, removedBy uuid.UUID) error {
	removerRole, err := s.profileRepo.GetRole(ctx, orgID, removedBy)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return NewAuthorizationError("caller is not a member of this organization")
		}
		return &StoreUnavailableError{Op: "check caller role", Err: err}
	}
	if removerRole != models.ProfileRoleOwner && removerRole != models.ProfileRoleAdmin {
		return NewAuthorizationError("only owners and admins can remove members")
	}

	targetRole, err := s.profileRepo.GetRole(ctx, orgID, targetUserID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return NewNotFoundError("member", "no active member with this user id")
		}
		return &StoreUnavailableError{Op: "check member role", Err: err}
	}
	if targetRole == models.ProfileRoleOwner {
		return NewAuthorizationError("the organization owner cannot be removed")
	}

	if err := s.profileRepo.Deactivate(ctx, orgID, targetUserID); err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return NewNotFoundError("member", "no active member with this user id")
		}
		return &StoreUnavailableError{Op: "remove member", Err: err}
	}

	if s.seatCache != nil {
		s.seatCache.InvalidateSeatSummary(ctx, orgID)
	}
	s.log.WithFields(logrus.Fields{
		"organization_id": orgID,
		"user_id":         targetUserID,
		"removed_by":      removedBy,
	}).Info("member removed")
	if s.publisher != nil {
		s.publisher.PublishMemberRemoved(orgID, targetUserID)
	}
	return nil
}
