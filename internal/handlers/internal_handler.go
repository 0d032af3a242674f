package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"team-service/internal/services"
)

// InternalHandler handles trusted internal endpoints
type InternalHandler struct {
	invitationSvc *services.InvitationService
	log           *logrus.Logger
}

// NewInternalHandler creates a new internal handler
func NewInternalHandler(invitationSvc *services.InvitationService, log *logrus.Logger) *InternalHandler {
	return &InternalHandler{invitationSvc: invitationSvc, log: log}
}

// SweepExpired transitions all stale pending invitations to expired. Invoked
// by the external scheduler; running it repeatedly is harmless.
// POST /internal/invitations/sweep-expired
func (h *InternalHandler) SweepExpired(c *gin.Context) {
	count, err := h.invitationSvc.SweepExpired(c.Request.Context())
	if err != nil {
		RespondServiceError(c, h.log, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "Sweep completed", gin.H{
		"expired_count": count,
	})
}
