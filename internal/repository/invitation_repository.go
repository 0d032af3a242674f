package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"team-service/internal/models"
)

var (
	// ErrInvitationNotFound indicates no invitation matches the given token or id.
	ErrInvitationNotFound = errors.New("invitation not found")
	// ErrDuplicatePendingInvitation indicates the partial unique index rejected
	// a second pending invitation for the same (organization, email) pair.
	ErrDuplicatePendingInvitation = errors.New("pending invitation already exists")
)

// NotPendingError indicates an invitation is in a terminal state.
type NotPendingError struct {
	Status string
}

func (e *NotPendingError) Error() string {
	return fmt.Sprintf("invitation is %s, not pending", e.Status)
}

// ExpiredError indicates an invitation's expiry window has passed.
type ExpiredError struct {
	ExpiredAt time.Time
}

func (e *ExpiredError) Error() string {
	return fmt.Sprintf("invitation expired at %s", e.ExpiredAt.Format(time.RFC3339))
}

// SeatLimitError indicates an acceptance lost the race for the last seat. It
// carries the organization id so callers can report current seat counts.
type SeatLimitError struct {
	OrganizationID uuid.UUID
}

func (e *SeatLimitError) Error() string {
	return fmt.Sprintf("no seats available in organization %s", e.OrganizationID)
}

func (e *SeatLimitError) Unwrap() error {
	return ErrSeatLimitReached
}

// AcceptResult is what an acceptance transaction produces.
type AcceptResult struct {
	Invitation *models.TeamInvitation
	Profile    *models.Profile
}

// InvitationRepository handles team invitation database operations. Every
// multi-step invariant (duplicate guard, seat accounting, acceptance) runs
// inside a single transaction here rather than in database triggers, so the
// failure modes surface as Go errors.
type InvitationRepository struct {
	db  *gorm.DB
	log *logrus.Logger
}

// NewInvitationRepository creates a new invitation repository
func NewInvitationRepository(db *gorm.DB, log *logrus.Logger) *InvitationRepository {
	return &InvitationRepository{db: db, log: log}
}

// CreatePending inserts a new pending invitation. The insert races against
// concurrent issuance for the same email; the partial unique index decides the
// winner, and the loser gets ErrDuplicatePendingInvitation. Requires the db to
// be opened with TranslateError so unique violations map to
// gorm.ErrDuplicatedKey.
func (r *InvitationRepository) CreatePending(ctx context.Context, inv *models.TeamInvitation) error {
	inv.Status = models.InvitationStatusPending
	if err := r.db.WithContext(ctx).Create(inv).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// The token digest is 256 random bits, so a duplicated key here is
			// the pending-per-email index for all practical purposes.
			return ErrDuplicatePendingInvitation
		}
		return fmt.Errorf("failed to create invitation: %w", err)
	}
	return nil
}

// GetByID retrieves an invitation by id within an organization. The
// organization filter is the tenant-isolation check: an id from another
// organization behaves exactly like a missing row.
func (r *InvitationRepository) GetByID(ctx context.Context, orgID, invitationID uuid.UUID) (*models.TeamInvitation, error) {
	var inv models.TeamInvitation
	if err := r.db.WithContext(ctx).
		Where("id = ? AND organization_id = ?", invitationID, orgID).
		First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	return &inv, nil
}

// List retrieves an organization's invitations, optionally filtered by status,
// newest first.
func (r *InvitationRepository) List(ctx context.Context, orgID uuid.UUID, status string) ([]models.TeamInvitation, error) {
	query := r.db.WithContext(ctx).Where("organization_id = ?", orgID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var invitations []models.TeamInvitation
	if err := query.Order("created_at DESC").Find(&invitations).Error; err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	return invitations, nil
}

// Accept atomically transitions a pending invitation to accepted and
// materializes the membership. All steps commit or roll back together:
//
//  1. look up the invitation by token digest (row-locked)
//  2. reject terminal states
//  3. on a passed expiry, persist the expired transition, then fail
//  4. consume a seat via guarded increment (re-validated here, not at issuance)
//  5. create or reactivate the accepting user's profile
//  6. mark the invitation accepted
//
// A user who already holds an active profile in the organization does not
// consume a second seat; the invitation just links to the existing profile.
func (r *InvitationRepository) Accept(ctx context.Context, tokenDigest string, userID uuid.UUID) (*AcceptResult, error) {
	var result AcceptResult

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inv models.TeamInvitation
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("token_digest = ?", tokenDigest).
			First(&inv).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvitationNotFound
			}
			return fmt.Errorf("failed to get invitation: %w", err)
		}

		if inv.Status != models.InvitationStatusPending {
			return &NotPendingError{Status: inv.Status}
		}

		now := time.Now()
		if inv.IsExpiredAt(now) {
			// The expired transition must commit even though the acceptance
			// fails, so this branch returns nil from the transaction and the
			// caller converts the committed state into ExpiredError.
			if err := tx.Model(&models.TeamInvitation{}).
				Where("id = ? AND status = ?", inv.ID, models.InvitationStatusPending).
				Updates(map[string]interface{}{
					"status":     models.InvitationStatusExpired,
					"updated_at": now,
				}).Error; err != nil {
				return fmt.Errorf("failed to expire invitation: %w", err)
			}
			inv.Status = models.InvitationStatusExpired
			result.Invitation = &inv
			return nil
		}

		// Existing active profile: no seat change, link and accept.
		var existing models.Profile
		findErr := tx.Where("organization_id = ? AND user_id = ?", inv.OrganizationID, userID).
			First(&existing).Error
		switch {
		case findErr == nil && existing.IsActive:
			result.Profile = &existing

		case findErr == nil:
			// Inactive profile left by a previous removal: reactivate under
			// the invited role, consuming a seat again.
			if err := incrementSeats(tx, inv.OrganizationID); err != nil {
				if errors.Is(err, ErrSeatLimitReached) {
					return &SeatLimitError{OrganizationID: inv.OrganizationID}
				}
				return err
			}
			existing.Role = inv.Role
			existing.IsActive = true
			existing.UpdatedAt = now
			if err := tx.Save(&existing).Error; err != nil {
				return fmt.Errorf("failed to reactivate profile: %w", err)
			}
			result.Profile = &existing

		case errors.Is(findErr, gorm.ErrRecordNotFound):
			if err := incrementSeats(tx, inv.OrganizationID); err != nil {
				if errors.Is(err, ErrSeatLimitReached) {
					return &SeatLimitError{OrganizationID: inv.OrganizationID}
				}
				return err
			}
			profile := models.Profile{
				UserID:         userID,
				OrganizationID: inv.OrganizationID,
				Role:           inv.Role,
				IsActive:       true,
			}
			if err := tx.Create(&profile).Error; err != nil {
				return fmt.Errorf("failed to create profile: %w", err)
			}
			result.Profile = &profile

		default:
			return fmt.Errorf("failed to look up profile: %w", findErr)
		}

		inv.Status = models.InvitationStatusAccepted
		inv.AcceptedAt = &now
		inv.AcceptedProfileID = &result.Profile.ID
		inv.UpdatedAt = now
		if err := tx.Save(&inv).Error; err != nil {
			return fmt.Errorf("failed to mark invitation accepted: %w", err)
		}

		result.Invitation = &inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Expired side effect committed above; now report the failure.
	if result.Invitation != nil && result.Invitation.Status == models.InvitationStatusExpired {
		return nil, &ExpiredError{ExpiredAt: result.Invitation.ExpiresAt}
	}

	return &result, nil
}

// Revoke transitions a pending invitation to revoked. The guarded UPDATE makes
// the transition race-safe against a concurrent acceptance: whichever commits
// first wins, the other sees zero rows.
func (r *InvitationRepository) Revoke(ctx context.Context, orgID, invitationID uuid.UUID) (*models.TeamInvitation, error) {
	var revoked *models.TeamInvitation

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.TeamInvitation{}).
			Where("id = ? AND organization_id = ? AND status = ?",
				invitationID, orgID, models.InvitationStatusPending).
			Updates(map[string]interface{}{
				"status":     models.InvitationStatusRevoked,
				"updated_at": time.Now(),
			})
		if res.Error != nil {
			return fmt.Errorf("failed to revoke invitation: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			var inv models.TeamInvitation
			if err := tx.Where("id = ? AND organization_id = ?", invitationID, orgID).
				First(&inv).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrInvitationNotFound
				}
				return fmt.Errorf("failed to get invitation: %w", err)
			}
			return &NotPendingError{Status: inv.Status}
		}

		var inv models.TeamInvitation
		if err := tx.First(&inv, "id = ?", invitationID).Error; err != nil {
			return fmt.Errorf("failed to reload invitation: %w", err)
		}
		revoked = &inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return revoked, nil
}

// SweepExpired demotes every pending invitation whose expiry has passed to
// expired, across all organizations, and returns the number of rows
// transitioned. Idempotent: a second run matches nothing. Expired invitations
// never consumed a seat, so there is no counter effect.
func (r *InvitationRepository) SweepExpired(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.TeamInvitation{}).
		Where("status = ? AND expires_at < ?", models.InvitationStatusPending, time.Now()).
		Updates(map[string]interface{}{
			"status":     models.InvitationStatusExpired,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to sweep expired invitations: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// LogActivity appends an audit record. Audit writes are best-effort relative
// to the business transaction they describe.
func (r *InvitationRepository) LogActivity(ctx context.Context, entry *models.ActivityLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to write activity log: %w", err)
	}
	return nil
}
