package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/ClubHub/club-service/internal/dto"
	"github.com/gin-gonic/gin"
)

// optionalFormFile returns nil when the request is not multipart or the file is absent.
func optionalFormFile(c *gin.Context, name string) (*multipart.FileHeader, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil, nil
	}

	fileHeader, err := c.FormFile(name)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}

	return fileHeader, err
}

func (h *Handler) clubsCreate(c *gin.Context) {
	user := h.getUserFromRequest(c)

	var input dto.CreateClubRequest
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, err.Error()))
		return
	}

	logo, err := optionalFormFile(c, "logo")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, err.Error()))
		return
	}
	cover, err := optionalFormFile(c, "cover")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, err.Error()))
		return
	}

	club, err := h.services.Club.Create(c.Request.Context(), user.ID, input, logo, cover)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, club)
}

func (h *Handler) clubsJoinByCode(c *gin.Context) {
	user := h.getUserFromRequest(c)

	var input dto.JoinClubRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, err.Error()))
		return
	}

	club, err := h.services.Club.JoinByCode(c.Request.Context(), user.ID, input.Code)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, club)
}

func (h *Handler) clubsJoin(c *gin.Context) {
	user := h.getUserFromRequest(c)

	clubID, err := parseIDParam(c, "clubID")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, errInvalidClubID.Error()))
		return
	}

	if err := h.services.Club.Join(c.Request.Context(), user.ID, clubID); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewBasicResponse(true, ""))
}

func (h *Handler) clubsSearch(c *gin.Context) {
	user := h.getUserFromRequest(c)

	clubs, err := h.services.Club.Search(c.Request.Context(), user.ID, c.Query("q"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, clubs)
}

func (h *Handler) clubsGetMy(c *gin.Context) {
	user := h.getUserFromRequest(c)

	clubs, err := h.services.Club.FindUserClubs(c.Request.Context(), user.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, clubs)
}

func (h *Handler) clubsGetByID(c *gin.Context) {
	clubID, err := parseIDParam(c, "clubID")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, errInvalidClubID.Error()))
		return
	}

	club, err := h.services.Club.FindByID(c.Request.Context(), clubID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, club)
}

func (h *Handler) clubsRegenerateCode(c *gin.Context) {
	clubID, err := parseIDParam(c, "clubID")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, errInvalidClubID.Error()))
		return
	}

	code, err := h.services.Club.RegenerateCode(c.Request.Context(), clubID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": code})
}
