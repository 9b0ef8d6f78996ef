package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gramwave/gramwave/internal/apierror"
)

// CreateToken is the credential exchange: the basic-auth middleware already
// resolved the principal, so all that is left is signing its token.
func (s *Server) CreateToken(c *gin.Context) {
	user := s.currentUser(c)
	if user == nil {
		AbortWithError(c, apierror.ErrUnauthorized)
		return
	}

	token, err := s.authsvc.IssueToken(user.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.respond(c, http.StatusOK, token)
}
