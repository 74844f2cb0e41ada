package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/ClubHub/club-service/internal/dto"
	"github.com/gin-gonic/gin"
)

const STREAM_EVENT = "engagement"

func (h *Handler) postsLike(c *gin.Context) {
	user := h.getUserFromRequest(c)

	postID, err := parseIDParam(c, "postID")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, errInvalidPostID.Error()))
		return
	}

	state, err := h.services.Engagement.ToggleLike(c.Request.Context(), postID, user.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

func (h *Handler) postsLikeState(c *gin.Context) {
	postID, err := parseIDParam(c, "postID")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, errInvalidPostID.Error()))
		return
	}

	state, err := h.services.Engagement.LikeState(c.Request.Context(), postID, h.currentUserID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

func (h *Handler) postsRSVP(c *gin.Context) {
	user := h.getUserFromRequest(c)

	postID, err := parseIDParam(c, "postID")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, errInvalidPostID.Error()))
		return
	}

	state, err := h.services.Engagement.ToggleRSVP(c.Request.Context(), postID, user.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

func (h *Handler) postsRSVPState(c *gin.Context) {
	postID, err := parseIDParam(c, "postID")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, errInvalidPostID.Error()))
		return
	}

	state, err := h.services.Engagement.RSVPState(c.Request.Context(), postID, h.currentUserID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

func (h *Handler) postsVote(c *gin.Context) {
	user := h.getUserFromRequest(c)

	postID, err := parseIDParam(c, "postID")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, errInvalidPostID.Error()))
		return
	}

	var input dto.VoteRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, err.Error()))
		return
	}

	tally, err := h.services.Poll.Vote(c.Request.Context(), postID, user.ID, input.Option)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, tally)
}

func (h *Handler) postsTally(c *gin.Context) {
	postID, err := parseIDParam(c, "postID")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, errInvalidPostID.Error()))
		return
	}

	tally, err := h.services.Poll.Tally(c.Request.Context(), postID, h.currentUserID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, tally)
}

// postsStream pushes like and RSVP count changes of the post as server-sent events.
func (h *Handler) postsStream(c *gin.Context) {
	postID, err := parseIDParam(c, "postID")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, errInvalidPostID.Error()))
		return
	}

	if _, err := h.services.Post.FindByID(c.Request.Context(), postID); err != nil {
		abortWithError(c, err)
		return
	}

	// the server write timeout would otherwise cut the stream
	if err := http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Sugar().Warnf("failed to clear write deadline for post(%d) stream: %s", postID, err.Error())
	}

	updates, cancel := h.services.Engagement.Subscribe(postID)
	defer cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case update, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent(STREAM_EVENT, update)
			return true
		}
	})
}
