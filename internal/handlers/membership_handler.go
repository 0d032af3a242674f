package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"team-service/internal/middleware"
	"team-service/internal/services"
)

// MembershipHandler handles team member HTTP requests
type MembershipHandler struct {
	membershipSvc *services.MembershipService
	log           *logrus.Logger
}

// NewMembershipHandler creates a new membership handler
func NewMembershipHandler(membershipSvc *services.MembershipService, log *logrus.Logger) *MembershipHandler {
	return &MembershipHandler{membershipSvc: membershipSvc, log: log}
}

// List returns the caller's organization roster
// GET /api/v1/members
func (h *MembershipHandler) List(c *gin.Context) {
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

	members, err := h.membershipSvc.ListMembers(c.Request.Context(), orgID, userID)
	if err != nil {
		RespondServiceError(c, h.log, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "Members retrieved", gin.H{
		"members": members,
		"count":   len(members),
	})
}

// Remove deactivates a member and releases their seat
// DELETE /api/v1/members/:userId
func (h *MembershipHandler) Remove(c *gin.Context) {
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

	targetUserID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid user id", nil)
		return
	}

	if err := h.membershipSvc.RemoveMember(c.Request.Context(), orgID, targetUserID, userID); err != nil {
		RespondServiceError(c, h.log, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "Member removed", nil)
}
