package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gramwave/gramwave/internal/apierror"
	"github.com/gramwave/gramwave/pkg/db/option"
	"github.com/gramwave/gramwave/pkg/repository"
)

func (s *Server) ListNotifications(c *gin.Context) {
	user := s.currentUser(c)
	if user == nil {
		AbortWithError(c, apierror.ErrUnauthorized)
		return
	}

	notes, err := s.notifications.Find(c.Request.Context(),
		repository.Filter{"user_id": user.ID},
		option.OrderByRecency(),
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.respond(c, http.StatusOK, notes)
}

func (s *Server) ReadNotification(c *gin.Context) {
	user := s.currentUser(c)
	if user == nil {
		AbortWithError(c, apierror.ErrUnauthorized)
		return
	}

	note, err := s.notifications.Get(c.Request.Context(), repository.Filter{"uid": c.Param("uid")})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if note == nil || note.UserID != user.ID {
		AbortWithError(c, apierror.ErrResourceNotFound)
		return
	}

	if err := s.notifications.Update(c.Request.Context(), note, map[string]any{"read": true}); err != nil {
		AbortWithError(c, err)
		return
	}
	note.Read = true

	s.respond(c, http.StatusOK, note)
}
