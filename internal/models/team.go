package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Organization is the tenant root. Every profile and invitation belongs to
// exactly one organization, and the seat counters live here.
type Organization struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	Name        string    `json:"name" gorm:"not null" validate:"required,min=2,max=255"`
	Slug        string    `json:"slug" gorm:"unique;not null;size:50" validate:"required,min=3,max=50"`
	DisplayName string    `json:"display_name" gorm:"size:255"`
	Status      string    `json:"status" gorm:"default:'active';index" validate:"oneof=active inactive suspended"`

	// Seat accounting. UsedTeamMembers is only ever mutated through guarded
	// atomic updates inside the same transaction as the profile mutation
	// (see repository.OrganizationRepository).
	MaxTeamMembers  int `json:"max_team_members" gorm:"not null;default:5;check:max_team_members >= 1"`
	UsedTeamMembers int `json:"used_team_members" gorm:"not null;default:1;check:used_team_members >= 1"`

	// WhatsApp Business credentials. Access token is hidden from JSON.
	WhatsAppPhoneNumberID     *string `json:"whatsapp_phone_number_id,omitempty" gorm:"size:255"`
	WhatsAppBusinessAccountID *string `json:"whatsapp_business_account_id,omitempty" gorm:"size:255"`
	WhatsAppAccessToken       *string `json:"-" gorm:"size:512"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Profiles    []Profile        `json:"profiles,omitempty" gorm:"foreignKey:OrganizationID"`
	Invitations []TeamInvitation `json:"invitations,omitempty" gorm:"foreignKey:OrganizationID"`
}

// TableName specifies the table name for Organization
func (Organization) TableName() string {
	return "organizations"
}

// AvailableSeats returns the number of unoccupied seats, clamped at zero.
func (o *Organization) AvailableSeats() int {
	available := o.MaxTeamMembers - o.UsedTeamMembers
	if available < 0 {
		return 0
	}
	return available
}

// User is a global account that can hold profiles in organizations.
type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	Email        string    `json:"email" gorm:"unique;not null;index" validate:"required,email"`
	FullName     string    `json:"full_name" gorm:"size:255"`
	PasswordHash string    `json:"-" gorm:"size:255"`
	Status       string    `json:"status" gorm:"default:'active';index" validate:"oneof=active inactive suspended"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relations
	Profiles []Profile `json:"profiles,omitempty" gorm:"foreignKey:UserID"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// Profile role constants
const (
	ProfileRoleOwner = "owner"
	ProfileRoleAdmin = "admin"
	ProfileRoleAgent = "agent"
)

// InvitableRoles are the roles an invitation may request. Ownership is never
// granted through an invitation.
var InvitableRoles = []string{ProfileRoleAdmin, ProfileRoleAgent}

// IsInvitableRole reports whether role may be requested on an invitation.
func IsInvitableRole(role string) bool {
	for _, r := range InvitableRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Profile is a user's membership record within one organization. An active
// profile occupies exactly one seat of its organization.
type Profile struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	UserID         uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_profiles_org_user"`
	OrganizationID uuid.UUID `json:"organization_id" gorm:"type:uuid;not null;uniqueIndex:idx_profiles_org_user;index"`

	// owner: full control including seat cap and organization deletion
	// admin: member and invitation management
	// agent: inbox access only
	Role string `json:"role" gorm:"size:50;not null;default:'agent'" validate:"oneof=owner admin agent"`

	IsActive bool `json:"is_active" gorm:"default:true"`

	// Fine-grained permissions as JSONB, e.g. {"inbox": ["read", "write"]}
	Permissions JSONB `json:"permissions" gorm:"type:jsonb;default:'{}'"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Organization *Organization `json:"organization,omitempty" gorm:"foreignKey:OrganizationID"`
	User         *User         `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// TableName specifies the table name for Profile
func (Profile) TableName() string {
	return "profiles"
}

// Invitation status constants
const (
	InvitationStatusPending  = "pending"
	InvitationStatusAccepted = "accepted"
	InvitationStatusExpired  = "expired"
	InvitationStatusRevoked  = "revoked"
)

// TeamInvitation is an offer of membership in an organization.
//
// Lifecycle: pending -> accepted | expired | revoked. The three non-pending
// states are terminal. At most one pending invitation may exist per
// (organization, email) pair; that invariant is a partial unique index created
// in repository.Migrate.
type TeamInvitation struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	OrganizationID uuid.UUID `json:"organization_id" gorm:"type:uuid;not null;index;constraint:OnDelete:CASCADE"`

	Email string `json:"email" gorm:"size:255;not null;index" validate:"required,email"`
	Role  string `json:"role" gorm:"size:50;not null;default:'agent'" validate:"oneof=admin agent"`

	Status string `json:"status" gorm:"size:20;not null;default:'pending';index" validate:"oneof=pending accepted expired revoked"`

	// TokenDigest is the SHA-256 of the raw acceptance token. The raw token is
	// only ever handed to the notification dispatch path.
	TokenDigest string `json:"-" gorm:"size:64;uniqueIndex;not null"`

	InvitedBy uuid.UUID `json:"invited_by" gorm:"type:uuid;not null"`

	ExpiresAt         time.Time  `json:"expires_at" gorm:"not null;index"`
	AcceptedAt        *time.Time `json:"accepted_at,omitempty"`
	AcceptedProfileID *uuid.UUID `json:"accepted_profile_id,omitempty" gorm:"type:uuid"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Organization *Organization `json:"organization,omitempty" gorm:"foreignKey:OrganizationID"`
}

// TableName specifies the table name for TeamInvitation
func (TeamInvitation) TableName() string {
	return "team_invitations"
}

// IsPending reports whether the invitation can still transition.
func (i *TeamInvitation) IsPending() bool {
	return i.Status == InvitationStatusPending
}

// IsExpiredAt reports whether the invitation's expiry has passed at t while
// the invitation is still pending.
func (i *TeamInvitation) IsExpiredAt(t time.Time) bool {
	return i.Status == InvitationStatusPending && !t.Before(i.ExpiresAt)
}

// ActivityLog is the audit trail for membership and invitation activity.
type ActivityLog struct {
	ID             uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	OrganizationID uuid.UUID  `json:"organization_id" gorm:"type:uuid;not null;index"`
	UserID         uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;index"`
	Action         string     `json:"action" gorm:"size:100;not null;index"` // e.g. 'invitation.created', 'member.removed'
	ResourceType   string     `json:"resource_type" gorm:"size:50"`
	ResourceID     *uuid.UUID `json:"resource_id" gorm:"type:uuid"`
	Details        JSONB      `json:"details" gorm:"type:jsonb;default:'{}'"`
	IPAddress      string     `json:"ip_address" gorm:"size:45"`
	UserAgent      string     `json:"user_agent"`
	CreatedAt      time.Time  `json:"created_at" gorm:"index"`
}

// TableName specifies the table name for ActivityLog
func (ActivityLog) TableName() string {
	return "activity_log"
}

// BeforeCreate hooks assign IDs when the database default is unavailable
// (e.g. in tests running without the uuid-ossp extension).

func (o *Organization) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (i *TeamInvitation) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (l *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
