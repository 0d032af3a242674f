package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"team-service/internal/metrics"
	"team-service/internal/models"
	"team-service/internal/repository"
)

// InvitationRepositoryInterface defines the invitation persistence operations
// the service depends on
type InvitationRepositoryInterface interface {
	CreatePending(ctx context.Context, inv *models.TeamInvitation) error
	GetByID(ctx context.Context, orgID, invitationID uuid.UUID) (*models.TeamInvitation, error)
	List(ctx context.Context, orgID uuid.UUID, status string) ([]models.TeamInvitation, error)
	Accept(ctx context.Context, tokenDigest string, userID uuid.UUID) (*repository.AcceptResult, error)
	Revoke(ctx context.Context, orgID, invitationID uuid.UUID) (*models.TeamInvitation, error)
	SweepExpired(ctx context.Context) (int64, error)
	LogActivity(ctx context.Context, entry *models.ActivityLog) error
}

// OrganizationRepositoryInterface defines the organization persistence
// operations the service depends on
type OrganizationRepositoryInterface interface {
	GetByID(ctx context.Context, orgID uuid.UUID) (*models.Organization, error)
	GetSeatSummary(ctx context.Context, orgID uuid.UUID) (*repository.SeatSummary, error)
}

// ProfileRepositoryInterface defines the profile persistence operations the
// service depends on
type ProfileRepositoryInterface interface {
	GetRole(ctx context.Context, orgID, userID uuid.UUID) (string, error)
	ListActive(ctx context.Context, orgID uuid.UUID) ([]models.Profile, error)
	Deactivate(ctx context.Context, orgID, userID uuid.UUID) error
}

// EventPublisherInterface publishes lifecycle events. Publishing is
// best-effort; a failed publish never rolls back the operation it describes.
type EventPublisherInterface interface {
	PublishInvitationCreated(orgID, invitationID uuid.UUID, email, role string)
	PublishInvitationAccepted(orgID, invitationID, profileID uuid.UUID)
	PublishInvitationRevoked(orgID, invitationID uuid.UUID)
	PublishMemberRemoved(orgID, userID uuid.UUID)
	PublishSweepCompleted(count int64)
}

// NotifierInterface dispatches the invitation email. Fire-and-forget: failures
// are logged and the invitation can be resent.
type NotifierInterface interface {
	SendInvitationEmail(ctx context.Context, to, orgName, acceptLink string, expiresIn time.Duration) error
}

// SeatCacheInterface caches read-only seat summaries for the GET endpoint.
// Enforcement always goes to the store.
type SeatCacheInterface interface {
	GetSeatSummary(ctx context.Context, orgID uuid.UUID) (*repository.SeatSummary, bool)
	SetSeatSummary(ctx context.Context, orgID uuid.UUID, summary *repository.SeatSummary)
	InvalidateSeatSummary(ctx context.Context, orgID uuid.UUID)
}

// InvitationService handles the team invitation lifecycle and seat accounting
type InvitationService struct {
	invitationRepo InvitationRepositoryInterface
	orgRepo        OrganizationRepositoryInterface
	profileRepo    ProfileRepositoryInterface
	publisher      EventPublisherInterface
	notifier       NotifierInterface
	seatCache      SeatCacheInterface
	expiryWindow   time.Duration
	acceptBaseURL  string
	log            *logrus.Logger
}

// NewInvitationService creates a new invitation service
func NewInvitationService(
	invitationRepo InvitationRepositoryInterface,
	orgRepo OrganizationRepositoryInterface,
	profileRepo ProfileRepositoryInterface,
	expiryWindow time.Duration,
	acceptBaseURL string,
	log *logrus.Logger,
) *InvitationService {
	return &InvitationService{
		invitationRepo: invitationRepo,
		orgRepo:        orgRepo,
		profileRepo:    profileRepo,
		expiryWindow:   expiryWindow,
		acceptBaseURL:  acceptBaseURL,
		log:            log,
	}
}

// SetPublisher wires the event publisher (optional)
func (s *InvitationService) SetPublisher(p EventPublisherInterface) {
	s.publisher = p
}

// SetNotifier wires the email dispatch collaborator (optional)
func (s *InvitationService) SetNotifier(n NotifierInterface) {
	s.notifier = n
}

// SetSeatCache wires the seat summary cache (optional)
func (s *InvitationService) SetSeatCache(c SeatCacheInterface) {
	s.seatCache = c
}

// IssueInvitationRequest represents a request to invite a team member
type IssueInvitationRequest struct {
	OrganizationID uuid.UUID
	Email          string
	Role           string
	InvitedBy      uuid.UUID
	IPAddress      string
	UserAgent      string
}

// Issue creates a new pending invitation.
//
// The seat check here is advisory: it produces a friendly failure before the
// insert, but the binding check happens again at acceptance time via the
// guarded seat increment. The duplicate guard is not advisory: the partial
// unique index decides atomically at insert.
func (s *InvitationService) Issue(ctx context.Context, req *IssueInvitationRequest) (*models.TeamInvitation, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, NewValidationError("email", "must be a valid email address")
	}
	if !models.IsInvitableRole(req.Role) {
		return nil, NewValidationError("role", fmt.Sprintf("must be one of: %s", strings.Join(models.InvitableRoles, ", ")))
	}

	if err := s.requireAdmin(ctx, req.OrganizationID, req.InvitedBy, "invite members"); err != nil {
		return nil, err
	}

	org, err := s.orgRepo.GetByID(ctx, req.OrganizationID)
	if err != nil {
		return nil, s.mapRepoError("get organization", err)
	}

	summary, err := s.orgRepo.GetSeatSummary(ctx, req.OrganizationID)
	if err != nil {
		return nil, s.mapRepoError("check seats", err)
	}
	if !summary.CanInvite {
		metrics.LicenseLimitRejections.Inc()
		return nil, &LicenseLimitError{
			UsedSeats:      summary.UsedSeats,
			MaxSeats:       summary.MaxSeats,
			AvailableSeats: summary.AvailableSeats,
		}
	}

	rawToken, digest, err := generateInvitationToken()
	if err != nil {
		return nil, err
	}

	inv := &models.TeamInvitation{
		OrganizationID: req.OrganizationID,
		Email:          email,
		Role:           req.Role,
		InvitedBy:      req.InvitedBy,
		TokenDigest:    digest,
		ExpiresAt:      time.Now().Add(s.expiryWindow),
	}

	if err := s.invitationRepo.CreatePending(ctx, inv); err != nil {
		if errors.Is(err, repository.ErrDuplicatePendingInvitation) {
			return nil, &DuplicateInvitationError{Email: email}
		}
		return nil, s.mapRepoError("create invitation", err)
	}

	metrics.InvitationsIssued.Inc()
	s.logActivity(ctx, req.OrganizationID, req.InvitedBy, "invitation.created", inv.ID, map[string]interface{}{
		"email": email,
		"role":  req.Role,
	}, req.IPAddress, req.UserAgent)

	if s.publisher != nil {
		s.publisher.PublishInvitationCreated(inv.OrganizationID, inv.ID, email, req.Role)
	}

	// The raw token leaves the service only through the acceptance link.
	if s.notifier != nil {
		acceptLink := fmt.Sprintf("%s?token=%s", s.acceptBaseURL, rawToken)
		if err := s.notifier.SendInvitationEmail(ctx, email, org.DisplayName, acceptLink, s.expiryWindow); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"organization_id": inv.OrganizationID,
				"invitation_id":   inv.ID,
			}).Warn("invitation created but email dispatch failed; invitation can be resent")
		}
	}

	return inv, nil
}

// AcceptResult describes a successful acceptance
type AcceptResult struct {
	Invitation *models.TeamInvitation `json:"invitation"`
	Profile    *models.Profile        `json:"profile"`
}

// Accept redeems a raw token for membership. See the repository for the
// transaction; this layer maps outcomes onto the error taxonomy and handles
// the side channels (cache, events, audit).
func (s *InvitationService) Accept(ctx context.Context, rawToken string, userID uuid.UUID) (*AcceptResult, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil, NewValidationError("token", "token is required")
	}

	result, err := s.invitationRepo.Accept(ctx, digestToken(rawToken), userID)
	if err != nil {
		var notPending *repository.NotPendingError
		var expired *repository.ExpiredError
		var seatLimit *repository.SeatLimitError
		switch {
		case errors.Is(err, repository.ErrInvitationNotFound):
			return nil, NewNotFoundError("invitation", "no invitation matches this token")
		case errors.As(err, &notPending):
			return nil, &InvitationStateError{Status: notPending.Status}
		case errors.As(err, &expired):
			metrics.InvitationsExpired.Inc()
			return nil, &InvitationExpiredError{ExpiredAt: expired.ExpiredAt.Format(time.RFC3339)}
		case errors.As(err, &seatLimit):
			metrics.LicenseLimitRejections.Inc()
			limitErr := &LicenseLimitError{}
			// Counts are display data for the upgrade prompt; the rejection
			// stands even if the snapshot read fails.
			if summary, sumErr := s.orgRepo.GetSeatSummary(ctx, seatLimit.OrganizationID); sumErr == nil {
				limitErr.UsedSeats = summary.UsedSeats
				limitErr.MaxSeats = summary.MaxSeats
				limitErr.AvailableSeats = summary.AvailableSeats
			}
			return nil, limitErr
		case errors.Is(err, repository.ErrOrganizationNotFound):
			return nil, NewNotFoundError("organization", "the inviting organization no longer exists")
		default:
			return nil, s.mapRepoError("accept invitation", err)
		}
	}

	inv := result.Invitation
	metrics.InvitationsAccepted.Inc()
	if s.seatCache != nil {
		s.seatCache.InvalidateSeatSummary(ctx, inv.OrganizationID)
	}
	s.logActivity(ctx, inv.OrganizationID, userID, "invitation.accepted", inv.ID, map[string]interface{}{
		"role": inv.Role,
	}, "", "")
	if s.publisher != nil {
		s.publisher.PublishInvitationAccepted(inv.OrganizationID, inv.ID, result.Profile.ID)
	}

	return &AcceptResult{Invitation: inv, Profile: result.Profile}, nil
}

// Revoke cancels a pending invitation. Per the API contract, a non-pending
// invitation is indistinguishable from a missing one on this path.
func (s *InvitationService) Revoke(ctx context.Context, orgID, invitationID, requestedBy uuid.UUID) (*models.TeamInvitation, error) {
	if err := s.requireAdmin(ctx, orgID, requestedBy, "revoke invitations"); err != nil {
		return nil, err
	}

	inv, err := s.invitationRepo.Revoke(ctx, orgID, invitationID)
	if err != nil {
		var notPending *repository.NotPendingError
		switch {
		case errors.Is(err, repository.ErrInvitationNotFound):
			return nil, NewNotFoundError("invitation", "no pending invitation with this id")
		case errors.As(err, &notPending):
			return nil, NewNotFoundError("invitation", "no pending invitation with this id")
		default:
			return nil, s.mapRepoError("revoke invitation", err)
		}
	}

	metrics.InvitationsRevoked.Inc()
	s.logActivity(ctx, orgID, requestedBy, "invitation.revoked", inv.ID, map[string]interface{}{
		"email": inv.Email,
	}, "", "")
	if s.publisher != nil {
		s.publisher.PublishInvitationRevoked(orgID, inv.ID)
	}

	return inv, nil
}

// Get returns a single invitation scoped to the caller's organization.
func (s *InvitationService) Get(ctx context.Context, orgID, invitationID, requestedBy uuid.UUID) (*models.TeamInvitation, error) {
	if err := s.requireAdmin(ctx, orgID, requestedBy, "view invitations"); err != nil {
		return nil, err
	}

	inv, err := s.invitationRepo.GetByID(ctx, orgID, invitationID)
	if err != nil {
		if errors.Is(err, repository.ErrInvitationNotFound) {
			return nil, NewNotFoundError("invitation", "no invitation with this id")
		}
		return nil, s.mapRepoError("get invitation", err)
	}
	return inv, nil
}

// List returns the organization's invitations, optionally filtered by status.
func (s *InvitationService) List(ctx context.Context, orgID, requestedBy uuid.UUID, status string) ([]models.TeamInvitation, error) {
	if status != "" {
		switch status {
		case models.InvitationStatusPending, models.InvitationStatusAccepted,
			models.InvitationStatusExpired, models.InvitationStatusRevoked:
		default:
			return nil, NewValidationError("status", "must be one of: pending, accepted, expired, revoked")
		}
	}

	if err := s.requireAdmin(ctx, orgID, requestedBy, "list invitations"); err != nil {
		return nil, err
	}

	invitations, err := s.invitationRepo.List(ctx, orgID, status)
	if err != nil {
		return nil, s.mapRepoError("list invitations", err)
	}
	return invitations, nil
}

// SeatSummary answers "can this organization invite one more member right
// now?". Responses may come from a short-TTL cache; seat enforcement never
// does.
func (s *InvitationService) SeatSummary(ctx context.Context, orgID, requestedBy uuid.UUID) (*repository.SeatSummary, error) {
	// Any active member may view seat usage.
	if _, err := s.profileRepo.GetRole(ctx, orgID, requestedBy); err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, NewAuthorizationError("caller is not a member of this organization")
		}
		return nil, s.mapRepoError("check membership", err)
	}

	if s.seatCache != nil {
		if summary, ok := s.seatCache.GetSeatSummary(ctx, orgID); ok {
			return summary, nil
		}
	}

	summary, err := s.orgRepo.GetSeatSummary(ctx, orgID)
	if err != nil {
		return nil, s.mapRepoError("get seat summary", err)
	}

	if s.seatCache != nil {
		s.seatCache.SetSeatSummary(ctx, orgID, summary)
	}
	return summary, nil
}

// SweepExpired demotes stale pending invitations to expired and returns the
// number of rows transitioned. Safe to run from multiple triggers; the bulk
// UPDATE is idempotent.
func (s *InvitationService) SweepExpired(ctx context.Context) (int64, error) {
	count, err := s.invitationRepo.SweepExpired(ctx)
	if err != nil {
		return 0, s.mapRepoError("sweep expired invitations", err)
	}

	if count > 0 {
		metrics.InvitationsExpired.Add(float64(count))
		s.log.WithField("count", count).Info("expired stale pending invitations")
		if s.publisher != nil {
			s.publisher.PublishSweepCompleted(count)
		}
	}
	return count, nil
}

// requireAdmin verifies the caller holds the owner or admin role in the
// organization. Authorization is always resolved server-side from the profile
// table, never from client input.
func (s *InvitationService) requireAdmin(ctx context.Context, orgID, userID uuid.UUID, action string) error {
	role, err := s.profileRepo.GetRole(ctx, orgID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return NewAuthorizationError("caller is not a member of this organization")
		}
		return s.mapRepoError("check caller role", err)
	}
	if role != models.ProfileRoleOwner && role != models.ProfileRoleAdmin {
		return NewAuthorizationError(fmt.Sprintf("only owners and admins can %s", action))
	}
	return nil
}

// mapRepoError wraps unexpected repository failures as transient store errors.
func (s *InvitationService) mapRepoError(op string, err error) error {
	s.log.WithError(err).WithField("op", op).Error("storage operation failed")
	return &StoreUnavailableError{Op: op, Err: err}
}

// logActivity appends an audit record, logging on failure without affecting
// the operation being recorded.
func (s *InvitationService) logActivity(ctx context.Context, orgID, userID uuid.UUID, action string, resourceID uuid.UUID, details map[string]interface{}, ip, userAgent string) {
	detailsJSON, err := models.NewJSONB(details)
	if err != nil {
		s.log.WithError(err).Warn("failed to serialize activity details")
		detailsJSON = models.JSONB{}
	}

	entry := &models.ActivityLog{
		OrganizationID: orgID,
		UserID:         userID,
		Action:         action,
		ResourceType:   "invitation",
		ResourceID:     &resourceID,
		Details:        detailsJSON,
		IPAddress:      ip,
		UserAgent:      userAgent,
	}
	if err := s.invitationRepo.LogActivity(ctx, entry); err != nil {
		s.log.WithError(err).WithField("action", action).Warn("failed to write activity log")
	}
}
