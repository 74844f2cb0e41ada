package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ClubHub/club-service/internal/dto"
	"github.com/ClubHub/club-service/internal/model"
	"github.com/ClubHub/club-service/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const userContextKey = "user"

type Handler struct {
	services     *service.Service
	logger       *zap.Logger
	accessSecret []byte
}

func New(services *service.Service, logger *zap.Logger, accessSecret []byte) *Handler {
	return &Handler{
		services:     services,
		logger:       logger,
		accessSecret: accessSecret,
	}
}

func (h *Handler) InitRoutes() *gin.Engine {
	r := gin.New()

	r.Use(h.requestLogger, gin.CustomRecovery(h.recovery))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{viper.GetString("client.origin")},
		AllowMethods:     []string{"POST", "GET", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", h.authRegister)
			auth.POST("/login", h.authLogin)
		}

		profiles := v1.Group("/profiles", h.authMiddleware)
		{
			profiles.GET("/me", h.profilesGetMe)
			profiles.PUT("/me", h.profilesUpdateMe)
			profiles.POST("/me/avatar", h.profilesUploadAvatar)
			profiles.GET("/:userID", h.profilesGet)
		}

		clubs := v1.Group("/clubs", h.authMiddleware)
		{
			clubs.POST("", h.clubsCreate)
			clubs.POST("/join", h.clubsJoinByCode)
			clubs.GET("/search", h.clubsSearch)
			clubs.GET("/my", h.clubsGetMy)

			club := clubs.Group("/:clubID")
			{
				club.GET("", h.clubsGetByID)
				club.POST("/join", h.clubsJoin)
				club.POST("/code", h.clubAdminMiddleware, h.clubsRegenerateCode)
				club.POST("/posts", h.postsCreate)
				club.GET("/feed", h.postsFeed)
			}
		}

		posts := v1.Group("/posts")
		{
			post := posts.Group("/:postID")
			{
				post.GET("", h.notRequiredAuthMiddleware, h.postsGetByID)
				post.DELETE("", h.authMiddleware, h.postsDelete)

				post.POST("/comments", h.authMiddleware, h.commentsCreate)
				post.GET("/comments", h.commentsGet)
				post.DELETE("/comments/:commentID", h.authMiddleware, h.commentsDelete)

				post.POST("/like", h.authMiddleware, h.postsLike)
				post.GET("/like", h.notRequiredAuthMiddleware, h.postsLikeState)
				post.POST("/rsvp", h.authMiddleware, h.postsRSVP)
				post.GET("/rsvp", h.notRequiredAuthMiddleware, h.postsRSVPState)
				post.POST("/vote", h.authMiddleware, h.postsVote)
				post.GET("/tally", h.notRequiredAuthMiddleware, h.postsTally)
				post.GET("/stream", h.postsStream)
			}
		}

		events := v1.Group("/events", h.authMiddleware)
		{
			events.GET("/my", h.eventsGetMy)
		}
	}

	return r
}

func (h *Handler) requestLogger(c *gin.Context) {
	start := time.Now()

	c.Next()

	h.logger.Info("request",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", c.Writer.Status()),
		zap.Duration("latency", time.Since(start)),
		zap.String("ip", c.ClientIP()),
	)
}

func (h *Handler) recovery(c *gin.Context, recovered interface{}) {
	h.logger.Sugar().Errorf("panic while serving %s %s: %v", c.Request.Method, c.Request.URL.Path, recovered)
	c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewBasicResponse(false, service.ErrInternal.Error()))
}

func (h *Handler) getUserFromRequest(c *gin.Context) *model.User {
	userReq, exists := c.Get(userContextKey)
	if !exists {
		return nil
	}

	user, ok := userReq.(model.User)
	if !ok {
		return nil
	}

	return &user
}

// currentUserID is uuid.Nil for anonymous requests.
func (h *Handler) currentUserID(c *gin.Context) uuid.UUID {
	user := h.getUserFromRequest(c)
	if user == nil {
		return uuid.Nil
	}
	return user.ID
}

func parseIDParam(c *gin.Context, name string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(c.Param(name)), 10, 64)
}
