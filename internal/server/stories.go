package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gramwave/gramwave/internal/apierror"
	storydomain "github.com/gramwave/gramwave/internal/story/domain"
	"github.com/gramwave/gramwave/pkg/db/option"
	"github.com/gramwave/gramwave/pkg/repository"
)

// storyTTL is how long a story stays visible after posting.
const storyTTL = 24 * time.Hour

type storyRequest struct {
	Body string `json:"body" binding:"required"`
}

func (s *Server) CreateStory(c *gin.Context) {
	user := s.currentUser(c)
	if user == nil {
		AbortWithError(c, apierror.ErrUnauthorized)
		return
	}

	var req storyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, apierror.ErrBadRequest.WithCause(err))
		return
	}

	story := &storydomain.Story{
		Body:      req.Body,
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(storyTTL),
	}
	if err := s.stories.Save(c.Request.Context(), story); err != nil {
		AbortWithError(c, err)
		return
	}

	s.respondCreated(c, story)
}

// ListStories returns the caller's stories that have not expired yet.
// Expired rows stay in the store; they only fall out of this read.
func (s *Server) ListStories(c *gin.Context) {
	user := s.currentUser(c)
	if user == nil {
		AbortWithError(c, apierror.ErrUnauthorized)
		return
	}

	stories, err := s.stories.Find(c.Request.Context(),
		repository.Filter{"user_id": user.ID},
		option.Where("expires_at > ?", time.Now()),
		option.OrderByRecency(),
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.respond(c, http.StatusOK, stories)
}

func (s *Server) DeleteStory(c *gin.Context) {
	user := s.currentUser(c)
	if user == nil {
		AbortWithError(c, apierror.ErrUnauthorized)
		return
	}

	story, err := s.stories.Get(c.Request.Context(), repository.Filter{"uid": c.Param("uid")})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if story == nil || story.UserID != user.ID {
		AbortWithError(c, apierror.ErrResourceNotFound)
		return
	}

	if err := s.stories.Delete(c.Request.Context(), story); err != nil {
		AbortWithError(c, err)
		return
	}

	s.respondDeleted(c)
}
