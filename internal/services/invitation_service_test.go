package services

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"team-service/internal/models"
	"team-service/internal/repository"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestService(invRepo *MockInvitationRepository, orgRepo *MockOrganizationRepository, profileRepo *MockProfileRepository) *InvitationService {
	return NewInvitationService(invRepo, orgRepo, profileRepo, 168*time.Hour, "https://app.adsapp.io/accept-invitation", testLogger())
}

func seatSummary(orgID uuid.UUID, used, max int) *repository.SeatSummary {
	available := max - used
	if available < 0 {
		available = 0
	}
	return &repository.SeatSummary{
		OrganizationID: orgID,
		MaxSeats:       max,
		UsedSeats:      used,
		AvailableSeats: available,
		CanInvite:      used < max,
	}
}

func TestIssue_Success(t *testing.T) {
	invRepo := new(MockInvitationRepository)
	orgRepo := new(MockOrganizationRepository)
	profileRepo := new(MockProfileRepository)
	svc := newTestService(invRepo, orgRepo, profileRepo)

	orgID := uuid.New()
	adminID := uuid.New()

	profileRepo.On("GetRole", mock.Anything, orgID, adminID).Return(models.ProfileRoleAdmin, nil)
	orgRepo.On("GetByID", mock.Anything, orgID).Return(&models.Organization{ID: orgID, DisplayName: "Acme Support"}, nil)
	orgRepo.On("GetSeatSummary", mock.Anything, orgID).Return(seatSummary(orgID, 2, 5), nil)

	var created *models.TeamInvitation
	invRepo.On("CreatePending", mock.Anything, mock.AnythingOfType("*models.TeamInvitation")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*models.TeamInvitation)
		}).Return(nil)
	invRepo.On("LogActivity", mock.Anything, mock.AnythingOfType("*models.ActivityLog")).Return(nil)

	inv, err := svc.Issue(context.Background(), &IssueInvitationRequest{
		OrganizationID: orgID,
		Email:          "  New.Agent@Example.COM ",
		Role:           models.ProfileRoleAgent,
		InvitedBy:      adminID,
	})

	require.NoError(t, err)
	require.NotNil(t, inv)
	assert.Equal(t, "new.agent@example.com", inv.Email)
	assert.Equal(t, models.ProfileRoleAgent, inv.Role)
	assert.Equal(t, adminID, inv.InvitedBy)
	assert.WithinDuration(t, time.Now().Add(168*time.Hour), inv.ExpiresAt, 5*time.Second)

	// Only the SHA-256 digest is handed to the store, never the raw token.
	require.NotNil(t, created)
	assert.Len(t, created.TokenDigest, 64)
	invRepo.AssertExpectations(t)
}

func TestIssue_SendsAcceptLink(t *testing.T) {
	invRepo := new(MockInvitationRepository)
	orgRepo := new(MockOrganizationRepository)
	profileRepo := new(MockProfileRepository)
	svc := newTestService(invRepo, orgRepo, profileRepo)

	notifier := new(MockNotifier)
	svc.SetNotifier(notifier)

	orgID := uuid.New()
	adminID := uuid.New()

	profileRepo.On("GetRole", mock.Anything, orgID, adminID).Return(models.ProfileRoleOwner, nil)
	orgRepo.On("GetByID", mock.Anything, orgID).Return(&models.Organization{ID: orgID, DisplayName: "Acme Support"}, nil)
	orgRepo.On("GetSeatSummary", mock.Anything, orgID).Return(seatSummary(orgID, 1, 5), nil)
	invRepo.On("CreatePending", mock.Anything, mock.Anything).Return(nil)
	invRepo.On("LogActivity", mock.Anything, mock.Anything).Return(nil)

	var sentLink string
	notifier.On("SendInvitationEmail", mock.Anything, "agent@example.com", "Acme Support", mock.AnythingOfType("string"), 168*time.Hour).
		Run(func(args mock.Arguments) {
			sentLink = args.String(3)
		}).Return(nil)

	_, err := svc.Issue(context.Background(), &IssueInvitationRequest{
		OrganizationID: orgID,
		Email:          "agent@example.com",
		Role:           models.ProfileRoleAgent,
		InvitedBy:      adminID,
	})

	require.NoError(t, err)
	assert.Contains(t, sentLink, "https://app.adsapp.io/accept-invitation?token=")
	notifier.AssertExpectations(t)
}

func TestIssue_EmailDispatchFailureDoesNotFailIssue(t *testing.T) {
	invRepo := new(MockInvitationRepository)
	orgRepo := new(MockOrganizationRepository)
	profileRepo := new(MockProfileRepository)
	svc := newTestService(invRepo, orgRepo, profileRepo)

	notifier := new(MockNotifier)
	svc.SetNotifier(notifier)

	orgID := uuid.New()
	adminID := uuid.New()

	profileRepo.On("GetRole", mock.Anything, orgID, adminID).Return(models.ProfileRoleAdmin, nil)
	orgRepo.On("GetByID", mock.Anything, orgID).Return(&models.Organization{ID: orgID}, nil)
	orgRepo.On("GetSeatSummary", mock.Anything, orgID).Return(seatSummary(orgID, 1, 5), nil)
	invRepo.On("CreatePending", mock.Anything, mock.Anything).Return(nil)
	invRepo.On("LogActivity", mock.Anything, mock.Anything).Return(nil)
	notifier.On("SendInvitationEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(assert.AnError)

	inv, err := svc.Issue(context.Background(), &IssueInvitationRequest{
		OrganizationID: orgID,
		Email:          "agent@example.com",
		Role:           models.ProfileRoleAgent,
		InvitedBy:      adminID,
	})

	require.NoError(t, err)
	assert.NotNil(t, inv)
}

func TestIssue_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		email string
		role  string
		field string
	}{
		{"malformed email", "not-an-email", models.ProfileRoleAgent, "email"},
		{"empty email", "", models.ProfileRoleAgent, "email"},
		{"owner role not invitable", "agent@example.com", models.ProfileRoleOwner, "role"},
		{"unknown role", "agent@example.com", "superuser", "role"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			invRepo := new(MockInvitationRepository)
			orgRepo := new(MockOrganizationRepository)
			profileRepo := new(MockProfileRepository)
			svc := newTestService(invRepo, orgRepo, profileRepo)

			_, err := svc.Issue(context.Background(), &IssueInvitationRequest{
				OrganizationID: uuid.New(),
				Email:          tt.email,
				Role:           tt.role,
				InvitedBy:      uuid.New(),
			})

			validationErr, ok := IsValidationError(err)
			require.True(t, ok, "expected ValidationError, got %v", err)
			assert.Equal(t, tt.field, validationErr.Field)
			invRepo.AssertNotCalled(t, "CreatePending", mock.Anything, mock.Anything)
		})
	}
}

func TestIssue_AgentCannotInvite(t *testing.T) {
	invRepo := new(MockInvitationRepository)
	orgRepo := new(MockOrganizationRepository)
	profileRepo := new(MockProfileRepository)
	svc := newTestService(invRepo, orgRepo, profileRepo)

	orgID := uuid.New()
	agentID := uuid.New()
	profileRepo.On("GetRole", mock.Anything, orgID, agentID).Return(models.ProfileRoleAgent, nil)

	_, err := svc.Issue(context.Background(), &IssueInvitationRequest{
		OrganizationID: orgID,
		Email:          "new@example.com",
		Role:           models.ProfileRoleAgent,
		InvitedBy:      agentID,
	})

	_, ok := IsAuthorizationError(err)
	assert.True(t, ok, "expected AuthorizationError, got %v", err)
	invRepo.AssertNotCalled(t, "CreatePending", mock.Anything, mock.Anything)
}

func TestIssue_NonMemberCannotInvite(t *testing.T) {
	invRepo := new(MockInvitationRepository)
	orgRepo := new(MockOrganizationRepository)
	profileRepo := new(MockProfileRepository)
	svc := newTestService(invRepo, orgRepo, profileRepo)

	orgID := uuid.New()
	outsiderID := uuid.New()
	profileRepo.On("GetRole", mock.Anything, orgID, outsiderID).Return("", repository.ErrProfileNotFound)

	_, err := svc.Issue(context.Background(), &IssueInvitationRequest{
		OrganizationID: orgID,
		Email:          "new@example.com",
		Role:           models.ProfileRoleAgent,
		InvitedBy:      outsiderID,
	})

	_, ok := IsAuthorizationError(err)
	assert.True(t, ok, "expected AuthorizationError, got %v", err)
}

func TestIssue_NoSeatsAvailable(t *testing.T) {
	invRepo := new(MockInvitationRepository)
	orgRepo := new(MockOrganizationRepository)
	profileRepo := new(MockProfileRepository)
	svc := newTestService(invRepo, orgRepo, profileRepo)

	orgID := uuid.New()
	adminID := uuid.New()

	profileRepo.On("GetRole", mock.Anything, orgID, adminID).Return(models.ProfileRoleAdmin, nil)
	orgRepo.On("GetByID", mock.Anything, orgID).Return(&models.Organization{ID: orgID}, nil)
	orgRepo.On("GetSeatSummary", mock.Anything, orgID).Return(seatSummary(orgID, 5, 5), nil)

	_, err := svc.Issue(context.Background(), &IssueInvitationRequest{
		OrganizationID: orgID,
		Email:          "sixth@example.com",
		Role:           models.ProfileRoleAgent,
		InvitedBy:      adminID,
	})

	limitErr, ok := IsLicenseLimitError(err)
	require.True(t, ok, "expected LicenseLimitError, got %v", err)
	assert.Equal(t, 5, limitErr.UsedSeats)
	assert.Equal(t, 5, limitErr.MaxSeats)
	assert.Equal(t, 0, limitErr.AvailableSeats)
	invRepo.AssertNotCalled(t, "CreatePending", mock.Anything, mock.Anything)
}

func TestIssue_DuplicatePending(t *testing.T) {
	invRepo := new(MockInvitationRepository)
	orgRepo := new(MockOrganizationRepository)
	profileRepo := new(MockProfileRepository)
	svc := newTestService(invRepo, orgRepo, profileRepo)

	orgID := uuid.New()
	adminID := uuid.New()

	profileRepo.On("GetRole", mock.Anything, orgID, adminID).Return(models.ProfileRoleAdmin, nil)
	orgRepo.On("GetByID", mock.Anything, orgID).Return(&models.Organization{ID: orgID}, nil)
	orgRepo.On("GetSeatSummary", mock.Anything, orgID).Return(seatSummary(orgID, 2, 5), nil)
	invRepo.On("CreatePending", mock.Anything, mock.Anything).Return(repository.ErrDuplicatePendingInvitation)

	_, err := svc.Issue(context.Background(), &IssueInvitationRequest{
		OrganizationID: orgID,
		Email:          "Already.Invited@Example.com",
		Role:           models.ProfileRoleAgent,
		InvitedBy:      adminID,
	})

	dupErr, ok := IsDuplicateInvitationError(err)
	require.True(t, ok, "expected DuplicateInvitationError, got %v", err)
	assert.Equal(t, "already.invited@example.com", dupErr.Email)
}

func TestIssue_StoreFailure(t *testing.T) {
	invRepo := new(MockInvitationRepository)
	orgRepo := new(MockOrganizationRepository)
	profileRepo := new(MockProfileRepository)
	svc := newTestService(invRepo, orgRepo, profileRepo)

	orgID := uuid.New()
	adminID := uuid.New()

	profileRepo.On("GetRole", mock.Anything, orgID, adminID).Return(models.ProfileRoleAdmin, nil)
	orgRepo.On("GetByID", mock.Anything, orgID).Return(&models.Organization{ID: orgID}, nil)
	orgRepo.On("GetSeatSummary", mock.Anything, orgID).Return(seatSummary(orgID, 2, 5), nil)
	invRepo.On("CreatePending", mock.Anything, mock.Anything).Return(assert.AnError)

	_, err := svc.Issue(context.Background(), &IssueInvitationRequest{
		OrganizationID: orgID,
		Email:          "agent@example.com",
		Role:           models.ProfileRoleAgent,
		InvitedBy:      adminID,
	})

	_, ok := IsStoreUnavailableError(err)
	assert.True(t, ok, "expected StoreUnavailableError, got %v", err)
}

func TestAccept_Success(t *testing.T) {
	invRepo := new(MockInvitationRepository)
	orgRepo := new(MockOrganizationRepository)
	profileRepo := new(MockProfileRepository)
	svc := newTestService(invRepo, orgRepo, profileRepo)

	cache := new(MockSeatCache)
	svc.SetSeatCache(cache)
	publisher := new(MockPublisher)
	svc.SetPublisher(publisher)

	orgID := uuid.New()
	userID := uuid.New()
	invID := uuid.New()
	profileID := uuid.New()
	acceptedAt := time.Now()

	accepted := &models.TeamInvitation{
		ID:                invID,
		OrganizationID:    orgID,
		Email:             "agent@example.com",
		Role:              models.ProfileRoleAgent,
		Status:            models.InvitationStatusAccepted,
		AcceptedAt:        &acceptedAt,
		AcceptedProfileID: &profileID,
	}
	profile := &models.Profile{ID: profileID, OrganizationID: orgID, UserID: userID, Role: models.ProfileRoleAgent, IsActive: true}

	invRepo.On("Accept", mock.Anything, digestToken("raw-token"), userID).
		Return(&repository.AcceptResult{Invitation: accepted, Profile: profile}, nil)
	invRepo.On("LogActivity", mock.Anything, mock.Anything).Return(nil)
	cache.On("InvalidateSeatSummary", mock.Anything, orgID).Return()
	publisher.On("PublishInvitationAccepted", orgID, invID, profileID).Return()

	result, err := svc.Accept(context.Background(), "raw-token", userID)

	require.NoError(t, err)
	assert.Equal(t, models.InvitationStatusAccepted, result.Invitation.Status)
	assert.NotNil(t, result.Invitation.AcceptedAt)
	assert.Equal(t, profileID, *result.Invitation.AcceptedProfileID)
	assert.True(t, result.Profile.IsActive)
	cache.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestAccept_EmptyToken(t *testing.T) {
	svc := newTestService(new(MockInvitationRepository), new(MockOrganizationRepository), new(MockProfileRepository))

	_, err := svc.Accept(context.Background(), "   ", uuid.New())

	_, ok := IsValidationError(err)
	assert.True(t, ok, "expected ValidationError, got %v", err)
}

func TestAccept_UnknownToken(t *testing.T) {
	invRepo := new(MockInvitationRepository)
	svc := newTestService(invRepo, new(MockOrganizationRepository), new(MockProfileRepository))

	invRepo.On("Accept", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, repository.ErrInvitationNotFound)

	_, err := svc.Accept(context.Background(), "unknown", uuid.New())

	_, ok := IsNotFoundError(err)
	assert.True(t, ok, "expected NotFoundError, got %v", err)
}

func TestAccept_AlreadyResolved(t *testing.T) {
	for _, status := range []string{models.InvitationStatusAccepted, models.InvitationStatusRevoked} {
		t.Run(status, func(t *testing.T) {
			invRepo := new(MockInvitationRepository)
			svc := newTestService(invRepo, new(MockOrganizationRepository), new(MockProfileRepository))

			invRepo.On("Accept", mock.Anything, mock.Anything, mock.Anything).
				Return(nil, &repository.NotPendingError{Status: status})

			_, err := svc.Accept(context.Background(), "raw-token", uuid.New())

			stateErr, ok := IsInvitationStateError(err)
			require.True(t, ok, "expected InvitationStateError, got %v", err)
			assert.Equal(t, status, stateErr.Status)
		})
	}
}

func TestAccept_Expired(t *testing.T) {
	invRepo := new(MockInvitationRepository)
	svc := newTestService(invRepo, new(MockOrganizationRepository), new(MockProfileRepository))

	expiredAt := time.Now().Add(-time.Hour)
	invRepo.On("Accept", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &repository.ExpiredError{ExpiredAt: expiredAt})

	_, err := svc.Accept(context.Background(), "raw-token", uuid.New())

	expErr, ok := IsInvitationExpiredError(err)
	require.True(t, ok, "expected InvitationExpiredError, got %v", err)
	assert.Equal(t, expiredAt.Format(time.RFC3339), expErr.ExpiredAt)
}

func TestAccept_SeatRaceLost(t *testing.T) {
	invRepo := new(MockInvitationRepository)
	orgRepo := new(MockOrganizationRepository)
	svc := newTestService(invRepo, orgRepo, new(MockProfileRepository))

	orgID := uuid.New()
	invRepo.On("Accept", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &repository.SeatLimitError{OrganizationID: orgID})
	orgRepo.On("GetSeatSummary", mock.Anything, orgID).Return(seatSummary(orgID, 5, 5), nil)

	_, err := svc.Accept(context.Background(), "raw-token", uuid.New())

	limitErr, ok := IsLicenseLimitError(err)
	require.True(t, ok, "expected LicenseLimitError, got %v", err)
	assert.Equal(t, 5, limitErr.UsedSeats)
	assert.Equal(t, 5, limitErr.MaxSeats)
}

func TestAccept_SeatRaceLostSnapshotUnavailable(t *testing.T) {
	invRepo := new(MockInvitationRepository)
	orgRepo := new(MockOrganizationRepository)
	svc := newTestService(invRepo, orgRepo, new(MockProfileRepository))

	orgID := uuid.New()
	invRepo.On("Accept", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &repository.SeatLimitError{OrganizationID: orgID})
	orgRepo.On("GetSeatSummary", mock.Anything, orgID).Return(nil, assert.AnError)

	_, err := svc.Accept(context.Background(), "raw-token", uuid.New())

	// The rejection stands even when the display counts cannot be read.
	_, ok := IsLicenseLimitError(err)
	assert.True(t, ok, "expected LicenseLimitError, got %v", err)
}

func TestRevoke_Success(t *testing.T) {
	invRepo := new(MockInvitationRepository)
	orgRepo := new(MockOrganizationRepository)
	profileRepo := new(MockProfileRepository)
	svc := newTestService(invRepo, orgRepo, profileRepo)

	publisher := new(MockPublisher)
	svc.SetPublisher(publisher)

	orgID := uuid.New()
	adminID := uuid.New()
	invID := uuid.New()

	profileRepo.On("GetRole", mock.Anything, orgID, adminID).Return(models.ProfileRoleAdmin, nil)
	invRepo.On("Revoke", mock.Anything, orgID, invID).Return(&models.TeamInvitation{
		ID:             invID,
		OrganizationID: orgID,
		Email:          "agent@example.com",
		Status:         models.InvitationStatusRevoked,
	}, nil)
	invRepo.On("LogActivity", mock.Anything, mock.Anything).Return(nil)
	publisher.On("PublishInvitationRevoked", orgID, invID).Return()

	inv, err := svc.Revoke(context.Background(), orgID, invID, adminID)

	require.NoError(t, err)
	assert.Equal(t, models.InvitationStatusRevoked, inv.Status)
	publisher.AssertExpectations(t)
}

func TestRevoke_NotPendingReportsNotFound(t *testing.T) {
	invRepo := new(MockInvitationRepository)
	profileRepo := new(MockProfileRepository)
	svc := newTestService(invRepo, new(MockOrganizationRepository), profileRepo)

	orgID := uuid.New()
	adminID := uuid.New()
	invID := uuid.New()

	profileRepo.On("GetRole", mock.Anything, orgID, adminID).Return(models.ProfileRoleOwner, nil)
	invRepo.On("Revoke", mock.Anything, orgID, invID).
		Return(nil, &repository.NotPendingError{Status: models.InvitationStatusAccepted})

	_, err := svc.Revoke(context.Background(), orgID, invID, adminID)

	_, ok := IsNotFoundError(err)
	assert.True(t, ok, "expected NotFoundError, got %v", err)
}

func TestRevoke_MissingInvitation(t *testing.T) {
	invRepo := new(MockInvitationRepository)
	profileRepo := new(MockProfileRepository)
	svc := newTestService(invRepo, new(MockOrganizationRepository), profileRepo)

	orgID := uuid.New()
	adminID := uuid.New()
	invID := uuid.New()

	profileRepo.On("GetRole", mock.Anything, orgID, adminID).Return(models.ProfileRoleAdmin, nil)
	invRepo.On("Revoke", mock.Anything, orgID, invID).Return(nil, repository.ErrInvitationNotFound)

	_, err := svc.Revoke(context.Background(), orgID, invID, adminID)

	_, ok := IsNotFoundError(err)
	assert.True(t, ok, "expected NotFoundError, got %v", err)
}

func TestRevoke_AgentForbidden(t *testing.T) {
	invRepo := new(MockInvitationRepository)
	profileRepo := new(MockProfileRepository)
	svc := newTestService(invRepo, new(MockOrganizationRepository), profileRepo)

	orgID := uuid.New()
	agentID := uuid.New()
	profileRepo.On("GetRole", mock.Anything, orgID, agentID).Return(models.ProfileRoleAgent, nil)

	_, err := svc.Revoke(context.Background(), orgID, uuid.New(), agentID)

	_, ok := IsAuthorizationError(err)
	assert.True(t, ok, "expected AuthorizationError, got %v", err)
	invRepo.AssertNotCalled(t, "Revoke", mock.Anything, mock.Anything, mock.Anything)
}

func TestGet_ScopedToOrganization(t *testing.T) {
	invRepo := new(MockInvitationRepository)
	profileRepo := new(MockProfileRepository)
	svc := newTestService(invRepo, new(MockOrganizationRepository), profileRepo)

	orgID := uuid.New()
	adminID := uuid.New()
	invID := uuid.New()

	profileRepo.On("GetRole", mock.Anything, orgID, adminID).Return(models.ProfileRoleAdmin, nil)
	invRepo.On("GetByID", mock.Anything, orgID, invID).Return(nil, repository.ErrInvitationNotFound)

	// An invitation belonging to another organization reads as missing.
	_, err := svc.Get(context.Background(), orgID, invID, adminID)

	_, ok := IsNotFoundError(err)
	assert.True(t, ok, "expected NotFoundError, got %v", err)
}

func TestGet_Success(t *testing.T) {
	invRepo := new(MockInvitationRepository)
	profileRepo := new(MockProfileRepository)
	svc := newTestService(invRepo, new(MockOrganizationRepository), profileRepo)

	orgID := uuid.New()
	adminID := uuid.New()
	invID := uuid.New()

	profileRepo.On("GetRole", mock.Anything, orgID, adminID).Return(models.ProfileRoleOwner, nil)
	invRepo.On("GetByID", mock.Anything, orgID, invID).Return(&models.TeamInvitation{
		ID: invID, OrganizationID: orgID, Status: models.InvitationStatusPending,
	}, nil)

	inv, err := svc.Get(context.Background(), orgID, invID, adminID)

	require.NoError(t, err)
	assert.Equal(t, invID, inv.ID)
}

func TestList_FiltersByStatus(t *testing.T) {
	invRepo := new(MockInvitationRepository)
	profileRepo := new(MockProfileRepository)
	svc := newTestService(invRepo, new(MockOrganizationRepository), profileRepo)

	orgID := uuid.New()
	adminID := uuid.New()

	profileRepo.On("GetRole", mock.Anything, orgID, adminID).Return(models.ProfileRoleAdmin, nil)
	invRepo.On("List", mock.Anything, orgID, models.InvitationStatusPending).Return([]models.TeamInvitation{
		{ID: uuid.New(), OrganizationID: orgID, Status: models.InvitationStatusPending},
	}, nil)

	invitations, err := svc.List(context.Background(), orgID, adminID, models.InvitationStatusPending)

	require.NoError(t, err)
	assert.Len(t, invitations, 1)
}

func TestList_RejectsUnknownStatus(t *testing.T) {
	svc := newTestService(new(MockInvitationRepository), new(MockOrganizationRepository), new(MockProfileRepository))

	_, err := svc.List(context.Background(), uuid.New(), uuid.New(), "cancelled")

	_, ok := IsValidationError(err)
	assert.True(t, ok, "expected ValidationError, got %v", err)
}

func TestSeatSummary_CacheHitSkipsStore(t *testing.T) {
	invRepo := new(MockInvitationRepository)
	orgRepo := new(MockOrganizationRepository)
	profileRepo := new(MockProfileRepository)
	svc := newTestService(invRepo, orgRepo, profileRepo)

	cache := new(MockSeatCache)
	svc.SetSeatCache(cache)

	orgID := uuid.New()
	memberID := uuid.New()

	profileRepo.On("GetRole", mock.Anything, orgID, memberID).Return(models.ProfileRoleAgent, nil)
	cache.On("GetSeatSummary", mock.Anything, orgID).Return(seatSummary(orgID, 3, 5), true)

	summary, err := svc.SeatSummary(context.Background(), orgID, memberID)

	require.NoError(t, err)
	assert.Equal(t, 3, summary.UsedSeats)
	orgRepo.AssertNotCalled(t, "GetSeatSummary", mock.Anything, mock.Anything)
}

func TestSeatSummary_CacheMissPopulatesCache(t *testing.T) {
	invRepo := new(MockInvitationRepository)
	orgRepo := new(MockOrganizationRepository)
	profileRepo := new(MockProfileRepository)
	svc := newTestService(invRepo, orgRepo, profileRepo)

	cache := new(MockSeatCache)
	svc.SetSeatCache(cache)

	orgID := uuid.New()
	memberID := uuid.New()
	summary := seatSummary(orgID, 3, 5)

	profileRepo.On("GetRole", mock.Anything, orgID, memberID).Return(models.ProfileRoleAgent, nil)
	cache.On("GetSeatSummary", mock.Anything, orgID).Return(nil, false)
	orgRepo.On("GetSeatSummary", mock.Anything, orgID).Return(summary, nil)
	cache.On("SetSeatSummary", mock.Anything, orgID, summary).Return()

	got, err := svc.SeatSummary(context.Background(), orgID, memberID)

	require.NoError(t, err)
	assert.True(t, got.CanInvite)
	assert.Equal(t, 2, got.AvailableSeats)
	cache.AssertExpectations(t)
}

func TestSeatSummary_NonMemberForbidden(t *testing.T) {
	profileRepo := new(MockProfileRepository)
	svc := newTestService(new(MockInvitationRepository), new(MockOrganizationRepository), profileRepo)

	orgID := uuid.New()
	outsiderID := uuid.New()
	profileRepo.On("GetRole", mock.Anything, orgID, outsiderID).Return("", repository.ErrProfileNotFound)

	_, err := svc.SeatSummary(context.Background(), orgID, outsiderID)

	_, ok := IsAuthorizationError(err)
	assert.True(t, ok, "expected AuthorizationError, got %v", err)
}

func TestSweepExpired_PublishesCount(t *testing.T) {
	invRepo := new(MockInvitationRepository)
	svc := newTestService(invRepo, new(MockOrganizationRepository), new(MockProfileRepository))

	publisher := new(MockPublisher)
	svc.SetPublisher(publisher)

	invRepo.On("SweepExpired", mock.Anything).Return(int64(3), nil)
	publisher.On("PublishSweepCompleted", int64(3)).Return()

	count, err := svc.SweepExpired(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	publisher.AssertExpectations(t)
}

func TestSweepExpired_NothingToSweep(t *testing.T) {
	invRepo := new(MockInvitationRepository)
	svc := newTestService(invRepo, new(MockOrganizationRepository), new(MockProfileRepository))

	publisher := new(MockPublisher)
	svc.SetPublisher(publisher)

	invRepo.On("SweepExpired", mock.Anything).Return(int64(0), nil)

	count, err := svc.SweepExpired(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
	publisher.AssertNotCalled(t, "PublishSweepCompleted", mock.Anything)
}
