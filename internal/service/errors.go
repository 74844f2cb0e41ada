package service

import "errors"

var (
	ErrInternal                    = errors.New("internal server error")
	ErrNotFound                    = errors.New("not found")
	ErrAlreadyExists               = errors.New("already exists")
	ErrForbidden                   = errors.New("no access")
	ErrNotMember                   = errors.New("user is not a member of the club")
	ErrAlreadyMember               = errors.New("user is already a member of the club")
	ErrInvalidCredentials          = errors.New("invalid email or password")
	ErrNoUser                      = errors.New("user is not authorized")
	ErrInvalidPostKind             = errors.New("post kind must be one of post, poll, event")
	ErrEventTimeRequired           = errors.New("event must have an event time")
	ErrInvalidPollOptions          = errors.New("poll must have no options or at least two non-empty options")
	ErrNotAnEvent                  = errors.New("post is not an event")
	ErrNotAPoll                    = errors.New("post is not a poll")
	ErrInvalidOption               = errors.New("option is not part of the poll")
	ErrParentNotInPost             = errors.New("parent comment does not belong to the post")
	ErrFileMustBeImage             = errors.New("file must be an image")
	ErrFileMustHaveAValidExtension = errors.New("file must have a valid extension")
	ErrFailedToUploadImageToCDN    = errors.New("failed to upload image to CDN")
)
