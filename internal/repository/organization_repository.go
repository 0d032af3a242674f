package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"team-service/internal/metrics"
	"team-service/internal/models"
)

// Repository-level sentinel errors. Services map these onto the API error
// taxonomy; repositories never shape HTTP responses.
var (
	// ErrOrganizationNotFound indicates the organization row does not exist.
	ErrOrganizationNotFound = errors.New("organization not found")
	// ErrSeatLimitReached indicates a guarded seat increment matched zero rows
	// because used_team_members has reached max_team_members.
	ErrSeatLimitReached = errors.New("seat limit reached")
	// ErrSeatFloorReached indicates a guarded seat decrement matched zero rows.
	// used_team_members never drops below 1 (the owner always holds a seat).
	ErrSeatFloorReached = errors.New("seat floor reached")
)

// SeatSummary is a consistent snapshot of an organization's seat usage.
type SeatSummary struct {
	OrganizationID uuid.UUID `json:"organization_id"`
	MaxSeats       int       `json:"max_seats"`
	UsedSeats      int       `json:"used_seats"`
	AvailableSeats int       `json:"available_seats"`
	CanInvite      bool      `json:"can_invite"`
}

// OrganizationRepository handles organization and seat-accounting database operations
type OrganizationRepository struct {
	db  *gorm.DB
	log *logrus.Logger
}

// NewOrganizationRepository creates a new organization repository
func NewOrganizationRepository(db *gorm.DB, log *logrus.Logger) *OrganizationRepository {
	return &OrganizationRepository{db: db, log: log}
}

// Migrate runs schema migration for all models and creates the partial unique
// index backing the duplicate-pending-invitation guard. Postgres expresses
// "unique among rows matching a predicate" natively, so the guard is a real
// constraint rather than a check-then-insert.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Organization{},
		&models.User{},
		&models.Profile{},
		&models.TeamInvitation{},
		&models.ActivityLog{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	if err := db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_invitations_one_pending_per_email
		 ON team_invitations (organization_id, lower(email))
		 WHERE status = 'pending'`,
	).Error; err != nil {
		return fmt.Errorf("failed to create pending-invitation index: %w", err)
	}

	return nil
}

// GetByID retrieves an organization by its ID
func (r *OrganizationRepository) GetByID(ctx context.Context, orgID uuid.UUID) (*models.Organization, error) {
	var org models.Organization
	if err := r.db.WithContext(ctx).First(&org, "id = ?", orgID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return &org, nil
}

// GetBySlug retrieves an organization by its URL slug
func (r *OrganizationRepository) GetBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	var org models.Organization
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&org).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to get organization by slug: %w", err)
	}
	return &org, nil
}

// Create persists a new organization
func (r *OrganizationRepository) Create(ctx context.Context, org *models.Organization) error {
	if err := r.db.WithContext(ctx).Create(org).Error; err != nil {
		return fmt.Errorf("failed to create organization: %w", err)
	}
	return nil
}

// GetSeatSummary reads the organization's seat counters in a single row read,
// so max and used always come from the same snapshot. A negative available
// count means the seat invariant was violated elsewhere; it is clamped to
// zero and logged.
func (r *OrganizationRepository) GetSeatSummary(ctx context.Context, orgID uuid.UUID) (*SeatSummary, error) {
	org, err := r.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}

	available := org.MaxTeamMembers - org.UsedTeamMembers
	if available < 0 {
		r.log.WithFields(logrus.Fields{
			"organization_id": orgID,
			"max_seats":       org.MaxTeamMembers,
			"used_seats":      org.UsedTeamMembers,
		}).Error("seat invariant violated: used_team_members exceeds max_team_members")
		metrics.SeatInvariantViolations.Inc()
		available = 0
	}

	return &SeatSummary{
		OrganizationID: org.ID,
		MaxSeats:       org.MaxTeamMembers,
		UsedSeats:      org.UsedTeamMembers,
		AvailableSeats: available,
		CanInvite:      available > 0,
	}, nil
}

// incrementSeats atomically consumes one seat inside tx. The WHERE clause is
// the whole concurrency story: two acceptances racing for the last seat both
// reach this UPDATE, but only one matches a row.
func incrementSeats(tx *gorm.DB, orgID uuid.UUID) error {
	res := tx.Model(&models.Organization{}).
		Where("id = ? AND used_team_members < max_team_members", orgID).
		Updates(map[string]interface{}{
			"used_team_members": gorm.Expr("used_team_members + 1"),
			"updated_at":        time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to increment seats: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// Distinguish "no free seat" from "no such organization".
		var count int64
		if err := tx.Model(&models.Organization{}).Where("id = ?", orgID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check organization: %w", err)
		}
		if count == 0 {
			return ErrOrganizationNotFound
		}
		return ErrSeatLimitReached
	}
	return nil
}

// decrementSeats atomically releases one seat inside tx.
func decrementSeats(tx *gorm.DB, orgID uuid.UUID) error {
	res := tx.Model(&models.Organization{}).
		Where("id = ? AND used_team_members > 1", orgID).
		Updates(map[string]interface{}{
			"used_team_members": gorm.Expr("used_team_members - 1"),
			"updated_at":        time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to decrement seats: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrSeatFloorReached
	}
	return nil
}
