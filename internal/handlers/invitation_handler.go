package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"team-service/internal/middleware"
	"team-service/internal/models"
	"team-service/internal/services"
)

// InvitationHandler handles invitation-related HTTP requests
type InvitationHandler struct {
	invitationSvc *services.InvitationService
	log           *logrus.Logger
}

// NewInvitationHandler creates a new invitation handler
func NewInvitationHandler(invitationSvc *services.InvitationService, log *logrus.Logger) *InvitationHandler {
	return &InvitationHandler{invitationSvc: invitationSvc, log: log}
}

// invitationView is the API shape of an invitation. The acceptance token is
// never part of any API response; it only travels in the emailed link.
type invitationView struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	Status         string    `json:"status"`
	InvitedBy      uuid.UUID `json:"invited_by"`
	ExpiresAt      string    `json:"expires_at"`
	AcceptedAt     *string   `json:"accepted_at,omitempty"`
	CreatedAt      string    `json:"created_at"`
}

func toInvitationView(inv *models.TeamInvitation) invitationView {
	view := invitationView{
		ID:             inv.ID,
		OrganizationID: inv.OrganizationID,
		Email:          inv.Email,
		Role:           inv.Role,
		Status:         inv.Status,
		InvitedBy:      inv.InvitedBy,
		ExpiresAt:      inv.ExpiresAt.UTC().Format(time.RFC3339),
		CreatedAt:      inv.CreatedAt.UTC().Format(time.RFC3339),
	}
	if inv.AcceptedAt != nil {
		accepted := inv.AcceptedAt.UTC().Format(time.RFC3339)
		view.AcceptedAt = &accepted
	}
	return view
}

// CreateInvitationRequest is the POST /invitations body
type CreateInvitationRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"required,oneof=admin agent"`
}

// Create issues a new invitation for the caller's organization
// POST /api/v1/invitations
func (h *InvitationHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}
	orgID, ok := middleware.GetOrganizationID(c)
	if !ok {
		ErrorResponse(c, http.StatusBadRequest, "No organization in token", nil)
		return
	}

	var req CreateInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error(), nil)
		return
	}

	inv, err := h.invitationSvc.Issue(c.Request.Context(), &services.IssueInvitationRequest{
		OrganizationID: orgID,
		Email:          req.Email,
		Role:           req.Role,
		InvitedBy:      userID,
		IPAddress:      c.ClientIP(),
		UserAgent:      c.Request.UserAgent(),
	})
	if err != nil {
		RespondServiceError(c, h.log, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "Invitation created", toInvitationView(inv))
}

// List returns the caller's organization invitations
// GET /api/v1/invitations?status=pending
func (h *InvitationHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}
	orgID, ok := middleware.GetOrganizationID(c)
	if !ok {
		ErrorResponse(c, http.StatusBadRequest, "No organization in token", nil)
		return
	}

	invitations, err := h.invitationSvc.List(c.Request.Context(), orgID, userID, c.Query("status"))
	if err != nil {
		RespondServiceError(c, h.log, err)
		return
	}

	views := make([]invitationView, 0, len(invitations))
	for i := range invitations {
		views = append(views, toInvitationView(&invitations[i]))
	}

	SuccessResponse(c, http.StatusOK, "Invitations retrieved", gin.H{
		"invitations": views,
		"count":       len(views),
	})
}

// Get returns a single invitation
// GET /api/v1/invitations/:invitationId
func (h *InvitationHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}
	orgID, ok := middleware.GetOrganizationID(c)
	if !ok {
		ErrorResponse(c, http.StatusBadRequest, "No organization in token", nil)
		return
	}

	invitationID, err := uuid.Parse(c.Param("invitationId"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid invitation id", nil)
		return
	}

	inv, err := h.invitationSvc.Get(c.Request.Context(), orgID, invitationID, userID)
	if err != nil {
		RespondServiceError(c, h.log, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "Invitation retrieved", toInvitationView(inv))
}

// Revoke cancels a pending invitation
// DELETE /api/v1/invitations/:invitationId
func (h *InvitationHandler) Revoke(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}
	orgID, ok := middleware.GetOrganizationID(c)
	if !ok {
		ErrorResponse(c, http.StatusBadRequest, "No organization in token", nil)
		return
	}

	invitationID, err := uuid.Parse(c.Param("invitationId"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid invitation id", nil)
		return
	}

	inv, err := h.invitationSvc.Revoke(c.Request.Context(), orgID, invitationID, userID)
	if err != nil {
		RespondServiceError(c, h.log, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "Invitation revoked", toInvitationView(inv))
}

// AcceptInvitationRequest is the POST /invitations/accept body
type AcceptInvitationRequest struct {
	Token string `json:"token" binding:"required"`
}

// Accept redeems an invitation token for membership. Any authenticated user
// may call this; the token decides which organization they join.
// POST /api/v1/invitations/accept
func (h *InvitationHandler) Accept(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	var req AcceptInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error(), nil)
		return
	}

	result, err := h.invitationSvc.Accept(c.Request.Context(), req.Token, userID)
	if err != nil {
		RespondServiceError(c, h.log, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "Invitation accepted", gin.H{
		"invitation": toInvitationView(result.Invitation),
		"membership": result.Profile,
	})
}

// Seats returns the caller's organization seat summary
// GET /api/v1/organizations/seats
func (h *InvitationHandler) Seats(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}
	orgID, ok := middleware.GetOrganizationID(c)
	if !ok {
		ErrorResponse(c, http.StatusBadRequest, "No organization in token", nil)
		return
	}

	summary, err := h.invitationSvc.SeatSummary(c.Request.Context(), orgID, userID)
	if err != nil {
		RespondServiceError(c, h.log, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "Seat summary retrieved", summary)
}
