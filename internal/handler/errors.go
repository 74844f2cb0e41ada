package handler

import (
	"errors"
	"net/http"

	"github.com/ClubHub/club-service/internal/dto"
	"github.com/ClubHub/club-service/internal/service"
	"github.com/gin-gonic/gin"
)

var (
	errNotAuthorized  = errors.New("user is not authorized")
	errInvalidPostID  = errors.New("invalid post ID")
	errInvalidClubID  = errors.New("invalid club ID")
	errInvalidUserID  = errors.New("invalid user ID")
	errInvalidID      = errors.New("invalid ID")
	errNotAClubAdmin  = errors.New("user is not an admin of the club")
	errLimitMustBeInt = errors.New("limit and offset must be int")
)

func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrAlreadyExists), errors.Is(err, service.ErrAlreadyMember):
		return http.StatusConflict
	case errors.Is(err, service.ErrForbidden), errors.Is(err, service.ErrNotMember):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrNoUser):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrInvalidPostKind),
		errors.Is(err, service.ErrEventTimeRequired),
		errors.Is(err, service.ErrInvalidPollOptions),
		errors.Is(err, service.ErrNotAnEvent),
		errors.Is(err, service.ErrNotAPoll),
		errors.Is(err, service.ErrInvalidOption),
		errors.Is(err, service.ErrParentNotInPost),
		errors.Is(err, service.ErrFileMustBeImage),
		errors.Is(err, service.ErrFileMustHaveAValidExtension):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrFailedToUploadImageToCDN):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(errorStatus(err), dto.NewBasicResponse(false, err.Error()))
}
