package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gramwave/gramwave/internal/apierror"
	followdomain "github.com/gramwave/gramwave/internal/follow/domain"
	notificationdomain "github.com/gramwave/gramwave/internal/notification/domain"
	"github.com/gramwave/gramwave/pkg/db/option"
	"github.com/gramwave/gramwave/pkg/repository"
	"go.uber.org/zap"
)

type followRequest struct {
	FollowedUID string `json:"followed_uid" binding:"required"`
}

func (s *Server) CreateFollow(c *gin.Context) {
	user := s.currentUser(c)
	if user == nil {
		AbortWithError(c, apierror.ErrUnauthorized)
		return
	}

	var req followRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, apierror.ErrBadRequest.WithCause(err))
		return
	}

	followed, err := s.usersvc.GetByUID(c.Request.Context(), req.FollowedUID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if followed.ID == user.ID {
		AbortWithError(c, apierror.ErrBadRequest.WithLog("user attempted to follow themselves"))
		return
	}

	existing, err := s.follows.Get(c.Request.Context(),
		repository.Filter{"follower_id": user.ID, "followed_id": followed.ID})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if existing != nil {
		AbortWithError(c, apierror.ErrResourceConflict)
		return
	}

	follow := &followdomain.Follow{FollowerID: user.ID, FollowedID: followed.ID}
	if err := s.follows.Save(c.Request.Context(), follow); err != nil {
		AbortWithError(c, err)
		return
	}

	// Best effort; a missed notification never fails the follow.
	note := &notificationdomain.Notification{
		UserID:  followed.ID,
		Kind:    "follow",
		Message: fmt.Sprintf("%s started following you", user.Username),
	}
	if err := s.notifications.Save(c.Request.Context(), note); err != nil {
		s.log.Warn("follow notification not recorded", zap.Error(err))
	}

	s.respondCreated(c, follow)
}

func (s *Server) ListFollows(c *gin.Context) {
	user := s.currentUser(c)
	if user == nil {
		AbortWithError(c, apierror.ErrUnauthorized)
		return
	}

	follows, err := s.follows.Find(c.Request.Context(),
		repository.Filter{"follower_id": user.ID},
		option.OrderByRecency(),
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.respond(c, http.StatusOK, follows)
}

func (s *Server) DeleteFollow(c *gin.Context) {
	user := s.currentUser(c)
	if user == nil {
		AbortWithError(c, apierror.ErrUnauthorized)
		return
	}

	follow, err := s.follows.Get(c.Request.Context(), repository.Filter{"uid": c.Param("uid")})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if follow == nil || follow.FollowerID != user.ID {
		AbortWithError(c, apierror.ErrResourceNotFound)
		return
	}

	if err := s.follows.Delete(c.Request.Context(), follow); err != nil {
		AbortWithError(c, err)
		return
	}

	s.respondDeleted(c)
}
