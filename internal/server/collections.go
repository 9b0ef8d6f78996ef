package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gramwave/gramwave/internal/apierror"
	collectiondomain "github.com/gramwave/gramwave/internal/collection/domain"
	userdomain "github.com/gramwave/gramwave/internal/user/domain"
	"github.com/gramwave/gramwave/pkg/db/option"
	"github.com/gramwave/gramwave/pkg/repository"
)

type collectionRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type collectionUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (s *Server) ownedCollection(c *gin.Context, user *userdomain.User) (*collectiondomain.Collection, error) {
	col, err := s.collections.Get(c.Request.Context(), repository.Filter{"uid": c.Param("uid")})
	if err != nil {
		return nil, err
	}
	if col == nil || col.UserID != user.ID {
		return nil, apierror.ErrResourceNotFound
	}
	return col, nil
}

func (s *Server) CreateCollection(c *gin.Context) {
	user := s.currentUser(c)
	if user == nil {
		AbortWithError(c, apierror.ErrUnauthorized)
		return
	}

	var req collectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, apierror.ErrBadRequest.WithCause(err))
		return
	}

	// One collection per name per user among the living rows.
	existing, err := s.collections.Get(c.Request.Context(),
		repository.Filter{"user_id": user.ID, "name": req.Name})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if existing != nil {
		AbortWithError(c, apierror.ErrResourceConflict)
		return
	}

	col := &collectiondomain.Collection{
		Name:        req.Name,
		Description: req.Description,
		UserID:      user.ID,
	}
	if err := s.collections.Save(c.Request.Context(), col); err != nil {
		AbortWithError(c, err)
		return
	}

	s.respondCreated(c, col)
}

func (s *Server) ListCollections(c *gin.Context) {
	user := s.currentUser(c)
	if user == nil {
		AbortWithError(c, apierror.ErrUnauthorized)
		return
	}

	cols, err := s.collections.Find(c.Request.Context(),
		repository.Filter{"user_id": user.ID},
		option.OrderByRecency(),
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.respond(c, http.StatusOK, cols)
}

func (s *Server) GetCollection(c *gin.Context) {
	user := s.currentUser(c)
	if user == nil {
		AbortWithError(c, apierror.ErrUnauthorized)
		return
	}

	col, err := s.ownedCollection(c, user)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.respond(c, http.StatusOK, col)
}

func (s *Server) UpdateCollection(c *gin.Context) {
	user := s.currentUser(c)
	if user == nil {
		AbortWithError(c, apierror.ErrUnauthorized)
		return
	}

	var req collectionUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, apierror.ErrBadRequest.WithCause(err))
		return
	}

	col, err := s.ownedCollection(c, user)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	fields := map[string]any{}
	if req.Name != nil {
		fields["name"] = *req.Name
		col.Name = *req.Name
	}
	if req.Description != nil {
		fields["description"] = *req.Description
		col.Description = *req.Description
	}
	if len(fields) == 0 {
		AbortWithError(c, apierror.ErrBadRequest.WithLog("collection update with no fields"))
		return
	}

	if err := s.collections.Update(c.Request.Context(), col, fields); err != nil {
		AbortWithError(c, err)
		return
	}

	s.respond(c, http.StatusOK, col)
}

func (s *Server) DeleteCollection(c *gin.Context) {
	user := s.currentUser(c)
	if user == nil {
		AbortWithError(c, apierror.ErrUnauthorized)
		return
	}

	col, err := s.ownedCollection(c, user)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.collections.Delete(c.Request.Context(), col); err != nil {
		AbortWithError(c, err)
		return
	}

	s.respondDeleted(c)
}
