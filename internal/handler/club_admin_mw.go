package handler

import (
	"net/http"

	"github.com/ClubHub/club-service/internal/dto"
	"github.com/gin-gonic/gin"
)

// clubAdminMiddleware must run after authMiddleware.
func (h *Handler) clubAdminMiddleware(c *gin.Context) {
	user := h.getUserFromRequest(c)
	if user == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewBasicResponse(false, errNotAuthorized.Error()))
		return
	}

	clubID, err := parseIDParam(c, "clubID")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewBasicResponse(false, errInvalidClubID.Error()))
		return
	}

	isAdmin, err := h.services.Club.IsAdmin(c.Request.Context(), clubID, user.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if !isAdmin {
		c.AbortWithStatusJSON(http.StatusForbidden, dto.NewBasicResponse(false, errNotAClubAdmin.Error()))
		return
	}

	c.Next()
}
