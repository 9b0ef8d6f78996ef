package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gramwave/gramwave/internal/apierror"
	"github.com/gramwave/gramwave/internal/requestctx"
	userdomain "github.com/gramwave/gramwave/internal/user/domain"
)

// currentUser returns the request's principal when it is a user, or nil.
func (s *Server) currentUser(c *gin.Context) *userdomain.User {
	principal := requestctx.ResolvePrincipal(c.Request.Context())
	if principal == nil {
		return nil
	}
	user, ok := principal.(*userdomain.User)
	if !ok {
		return nil
	}
	return user
}

func (s *Server) RegisterUser(c *gin.Context) {
	var req userdomain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, apierror.ErrBadRequest.WithCause(err))
		return
	}

	created, err := s.usersvc.Register(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.respondCreated(c, created)
}

func (s *Server) GetUser(c *gin.Context) {
	found, err := s.usersvc.GetByUID(c.Request.Context(), c.Param("uid"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.respond(c, http.StatusOK, found)
}

func (s *Server) Me(c *gin.Context) {
	user := s.currentUser(c)
	if user == nil {
		AbortWithError(c, apierror.ErrUnauthorized)
		return
	}
	s.respond(c, http.StatusOK, user)
}
