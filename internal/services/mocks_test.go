package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"team-service/internal/models"
	"team-service/internal/repository"
)

// MockInvitationRepository is a mock implementation of InvitationRepositoryInterface
type MockInvitationRepository struct {
	mock.Mock
}

func (m *MockInvitationRepository) CreatePending(ctx context.Context, inv *models.TeamInvitation) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *MockInvitationRepository) GetByID(ctx context.Context, orgID, invitationID uuid.UUID) (*models.TeamInvitation, error) {
	args := m.Called(ctx, orgID, invitationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TeamInvitation), args.Error(1)
}

func (m *MockInvitationRepository) List(ctx context.Context, orgID uuid.UUID, status string) ([]models.TeamInvitation, error) {
	args := m.Called(ctx, orgID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TeamInvitation), args.Error(1)
}

func (m *MockInvitationRepository) Accept(ctx context.Context, tokenDigest string, userID uuid.UUID) (*repository.AcceptResult, error) {
	args := m.Called(ctx, tokenDigest, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.AcceptResult), args.Error(1)
}

func (m *MockInvitationRepository) Revoke(ctx context.Context, orgID, invitationID uuid.UUID) (*models.TeamInvitation, error) {
	args := m.Called(ctx, orgID, invitationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TeamInvitation), args.Error(1)
}

func (m *MockInvitationRepository) SweepExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvitationRepository) LogActivity(ctx context.Context, entry *models.ActivityLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// MockOrganizationRepository is a mock implementation of OrganizationRepositoryInterface
type MockOrganizationRepository struct {
	mock.Mock
}

func (m *MockOrganizationRepository) GetByID(ctx context.Context, orgID uuid.UUID) (*models.Organization, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Organization), args.Error(1)
}

func (m *MockOrganizationRepository) GetSeatSummary(ctx context.Context, orgID uuid.UUID) (*repository.SeatSummary, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.SeatSummary), args.Error(1)
}

// MockProfileRepository is a mock implementation of ProfileRepositoryInterface
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) GetRole(ctx context.Context, orgID, userID uuid.UUID) (string, error) {
	args := m.Called(ctx, orgID, userID)
	return args.String(0), args.Error(1)
}

func (m *MockProfileRepository) ListActive(ctx context.Context, orgID uuid.UUID) ([]models.Profile, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Profile), args.Error(1)
}

func (m *MockProfileRepository) Deactivate(ctx context.Context, orgID, userID uuid.UUID) error {
	args := m.Called(ctx, orgID, userID)
	return args.Error(0)
}

// MockPublisher is a mock implementation of EventPublisherInterface
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishInvitationCreated(orgID, invitationID uuid.UUID, email, role string) {
	m.Called(orgID, invitationID, email, role)
}

func (m *MockPublisher) PublishInvitationAccepted(orgID, invitationID, profileID uuid.UUID) {
	m.Called(orgID, invitationID, profileID)
}

func (m *MockPublisher) PublishInvitationRevoked(orgID, invitationID uuid.UUID) {
	m.Called(orgID, invitationID)
}

func (m *MockPublisher) PublishMemberRemoved(orgID, userID uuid.UUID) {
	m.Called(orgID, userID)
}

func (m *MockPublisher) PublishSweepCompleted(count int64) {
	m.Called(count)
}

// MockNotifier is a mock implementation of NotifierInterface
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendInvitationEmail(ctx context.Context, to, orgName, acceptLink string, expiresIn time.Duration) error {
	args := m.Called(ctx, to, orgName, acceptLink, expiresIn)
	return args.Error(0)
}

// MockSeatCache is a mock implementation of SeatCacheInterface
type MockSeatCache struct {
	mock.Mock
}

func (m *MockSeatCache) GetSeatSummary(ctx context.Context, orgID uuid.UUID) (*repository.SeatSummary, bool) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*repository.SeatSummary), args.Bool(1)
}

func (m *MockSeatCache) SetSeatSummary(ctx context.Context, orgID uuid.UUID, summary *repository.SeatSummary) {
	m.Called(ctx, orgID, summary)
}

func (m *MockSeatCache) InvalidateSeatSummary(ctx context.Context, orgID uuid.UUID) {
	m.Called(ctx, orgID)
}
