package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"team-service/internal/models"
)

// ErrProfileNotFound indicates no active profile links the user to the organization.
var ErrProfileNotFound = errors.New("profile not found")

// ProfileRepository handles profile (membership) database operations
type ProfileRepository struct {
	db  *gorm.DB
	log *logrus.Logger
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *gorm.DB, log *logrus.Logger) *ProfileRepository {
	return &ProfileRepository{db: db, log: log}
}

// GetActive retrieves a user's active profile in an organization
func (r *ProfileRepository) GetActive(ctx context.Context, orgID, userID uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND user_id = ? AND is_active = ?", orgID, userID, true).
		First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &profile, nil
}

// GetRole returns the caller's role in an organization. ErrProfileNotFound
// doubles as the tenant-isolation signal: no active profile, no access.
func (r *ProfileRepository) GetRole(ctx context.Context, orgID, userID uuid.UUID) (string, error) {
	profile, err := r.GetActive(ctx, orgID, userID)
	if err != nil {
		return "", err
	}
	return profile.Role, nil
}

// ListActive retrieves all active profiles of an organization
func (r *ProfileRepository) ListActive(ctx context.Context, orgID uuid.UUID) ([]models.Profile, error) {
	var profiles []models.Profile
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND is_active = ?", orgID, true).
		Order("created_at ASC").
		Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return profiles, nil
}

// Deactivate removes a member: the profile flips to inactive and the seat is
// released in the same transaction, never as two round trips.
func (r *ProfileRepository) Deactivate(ctx context.Context, orgID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Profile{}).
			Where("organization_id = ? AND user_id = ? AND is_active = ?", orgID, userID, true).
			Updates(map[string]interface{}{
				"is_active":  false,
				"updated_at": time.Now(),
			})
		if res.Error != nil {
			return fmt.Errorf("failed to deactivate profile: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrProfileNotFound
		}

		return decrementSeats(tx, orgID)
	})
}

// CreateOwner creates the organization's owner profile. The owner occupies the
// seat that used_team_members starts at, so no increment happens here.
func (r *ProfileRepository) CreateOwner(ctx context.Context, orgID, userID uuid.UUID) (*models.Profile, error) {
	profile := models.Profile{
		UserID:         userID,
		OrganizationID: orgID,
		Role:           models.ProfileRoleOwner,
		IsActive:       true,
	}
	if err := r.db.WithContext(ctx).Create(&profile).Error; err != nil {
		return nil, fmt.Errorf("failed to create owner profile: %w", err)
	}
	return &profile, nil
}
