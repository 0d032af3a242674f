package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// NotificationClient handles communication with notification-service for
// sending invitation emails
type NotificationClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewNotificationClient creates a new notification service client
func NewNotificationClient(baseURL, apiKey string) *NotificationClient {
	return &NotificationClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NotificationSendRequest represents a request to notification-service /api/v1/notifications/send
type NotificationSendRequest struct {
	Channel        string `json:"channel"`
	RecipientEmail string `json:"recipientEmail"`
	Subject        string `json:"subject"`
	Body           string `json:"body"`
	BodyHTML       string `json:"bodyHtml"`
	Priority       string `json:"priority,omitempty"`
}

// formatExpiry renders the expiry window for the email body, preferring whole
// days over an hour count.
func formatExpiry(window time.Duration) string {
	hours := int(window.Hours())
	if hours >= 24 && hours%24 == 0 {
		days := hours / 24
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	}
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}

// SendInvitationEmail sends the team invitation email carrying the acceptance
// link. This is the only channel the raw invitation token travels on.
func (c *NotificationClient) SendInvitationEmail(ctx context.Context, to, orgName, acceptLink string, expiresIn time.Duration) error {
	expiry := formatExpiry(expiresIn)
	subject := fmt.Sprintf("You've been invited to join %s", orgName)
	body := fmt.Sprintf(
		"You have been invited to join %s.\n\nAccept your invitation here: %s\n\nThis link expires in %s.",
		orgName, acceptLink, expiry,
	)
	bodyHTML := fmt.Sprintf(
		`<p>You have been invited to join <strong>%s</strong>.</p>
<p><a href="%s">Accept your invitation</a></p>
<p>This link expires in %s.</p>`,
		orgName, acceptLink, expiry,
	)

	req := NotificationSendRequest{
		Channel:        "EMAIL",
		RecipientEmail: to,
		Subject:        subject,
		Body:           body,
		BodyHTML:       bodyHTML,
		Priority:       "high",
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal notification request: %w", err)
	}

	url := c.baseURL + "/api/v1/notifications/send"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to call notification-service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("notification-service returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
