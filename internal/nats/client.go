package nats

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// Event subjects
const (
	SubjectInvitationCreated  = "team.invitation.created"
	SubjectInvitationAccepted = "team.invitation.accepted"
	SubjectInvitationRevoked  = "team.invitation.revoked"
	SubjectMemberRemoved      = "team.member.removed"
	SubjectSweepCompleted     = "team.invitation.sweep_completed"
)

// InvitationCreatedEvent is published when a new invitation is issued. The
// acceptance token is deliberately absent; it only travels on the email path.
type InvitationCreatedEvent struct {
	EventType      string    `json:"event_type"`
	OrganizationID string    `json:"organization_id"`
	InvitationID   string    `json:"invitation_id"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	Timestamp      time.Time `json:"timestamp"`
}

// InvitationAcceptedEvent is published when an invitation is accepted
type InvitationAcceptedEvent struct {
	EventType      string    `json:"event_type"`
	OrganizationID string    `json:"organization_id"`
	InvitationID   string    `json:"invitation_id"`
	ProfileID      string    `json:"profile_id"`
	Timestamp      time.Time `json:"timestamp"`
}

// InvitationRevokedEvent is published when an administrator revokes an invitation
type InvitationRevokedEvent struct {
	EventType      string    `json:"event_type"`
	OrganizationID string    `json:"organization_id"`
	InvitationID   string    `json:"invitation_id"`
	Timestamp      time.Time `json:"timestamp"`
}

// MemberRemovedEvent is published when a member is removed from an organization
type MemberRemovedEvent struct {
	EventType      string    `json:"event_type"`
	OrganizationID string    `json:"organization_id"`
	UserID         string    `json:"user_id"`
	Timestamp      time.Time `json:"timestamp"`
}

// SweepCompletedEvent is published after an expiry sweep transitioned rows
type SweepCompletedEvent struct {
	EventType string    `json:"event_type"`
	Count     int64     `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

// Client wraps the NATS connection for event publishing
type Client struct {
	conn *nats.Conn
	log  *logrus.Logger
}

// NewClient creates a new NATS client with production reconnect settings
func NewClient(url string, log *logrus.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.Name("team-service"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.WithError(err).Warn("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.WithField("url", nc.ConnectedUrl()).Info("NATS reconnected")
		}),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}

	return &Client{conn: conn, log: log}, nil
}

// Close drains and closes the NATS connection
func (c *Client) Close() {
	if c.conn != nil {
		if err := c.conn.Drain(); err != nil {
			c.log.WithError(err).Warn("failed to drain NATS connection")
		}
	}
}

// IsConnected reports connection health for readiness checks
func (c *Client) IsConnected() bool {
	return c.conn != nil && c.conn.IsConnected()
}

// publish marshals and publishes an event. Event publishing is best-effort:
// failures are logged, never propagated into the request path.
func (c *Client) publish(subject string, event interface{}) {
	data, err := json.Marshal(event)
	if err != nil {
		c.log.WithError(err).WithField("subject", subject).Error("failed to marshal event")
		return
	}
	if err := c.conn.Publish(subject, data); err != nil {
		c.log.WithError(err).WithField("subject", subject).Warn("failed to publish event")
	}
}

// PublishInvitationCreated publishes a team.invitation.created event
func (c *Client) PublishInvitationCreated(orgID, invitationID uuid.UUID, email, role string) {
	c.publish(SubjectInvitationCreated, InvitationCreatedEvent{
		EventType:      SubjectInvitationCreated,
		OrganizationID: orgID.String(),
		InvitationID:   invitationID.String(),
		Email:          email,
		Role:           role,
		Timestamp:      time.Now().UTC(),
	})
}

// PublishInvitationAccepted publishes a team.invitation.accepted event
func (c *Client) PublishInvitationAccepted(orgID, invitationID, profileID uuid.UUID) {
	c.publish(SubjectInvitationAccepted, InvitationAcceptedEvent{
		EventType:      SubjectInvitationAccepted,
		OrganizationID: orgID.String(),
		InvitationID:   invitationID.String(),
		ProfileID:      profileID.String(),
		Timestamp:      time.Now().UTC(),
	})
}

// PublishInvitationRevoked publishes a team.invitation.revoked event
func (c *Client) PublishInvitationRevoked(orgID, invitationID uuid.UUID) {
	c.publish(SubjectInvitationRevoked, InvitationRevokedEvent{
		EventType:      SubjectInvitationRevoked,
		OrganizationID: orgID.String(),
		InvitationID:   invitationID.String(),
		Timestamp:      time.Now().UTC(),
	})
}

// PublishMemberRemoved publishes a team.member.removed event
func (c *Client) PublishMemberRemoved(orgID, userID uuid.UUID) {
	c.publish(SubjectMemberRemoved, MemberRemovedEvent{
		EventType:      SubjectMemberRemoved,
		OrganizationID: orgID.String(),
		UserID:         userID.String(),
		Timestamp:      time.Now().UTC(),
	})
}

// PublishSweepCompleted publishes a team.invitation.sweep_completed event
func (c *Client) PublishSweepCompleted(count int64) {
	c.publish(SubjectSweepCompleted, SweepCompletedEvent{
		EventType: SubjectSweepCompleted,
		Count:     count,
		Timestamp: time.Now().UTC(),
	})
}
