package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gramwave/gramwave/internal/apierror"
	postdomain "github.com/gramwave/gramwave/internal/post/domain"
	userdomain "github.com/gramwave/gramwave/internal/user/domain"
	"github.com/gramwave/gramwave/pkg/db/option"
	"github.com/gramwave/gramwave/pkg/repository"
)

type postRequest struct {
	Body string `json:"body" binding:"required"`
}

// ownedPost loads a post by uid and enforces that caller owns it. Missing
// and foreign posts are indistinguishable to the caller.
func (s *Server) ownedPost(c *gin.Context, user *userdomain.User) (*postdomain.Post, error) {
	post, err := s.posts.Get(c.Request.Context(), repository.Filter{"uid": c.Param("uid")})
	if err != nil {
		return nil, err
	}
	if post == nil || post.UserID != user.ID {
		return nil, apierror.ErrResourceNotFound
	}
	return post, nil
}

func (s *Server) CreatePost(c *gin.Context) {
	user := s.currentUser(c)
	if user == nil {
		AbortWithError(c, apierror.ErrUnauthorized)
		return
	}

	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, apierror.ErrBadRequest.WithCause(err))
		return
	}

	post := &postdomain.Post{Body: req.Body, UserID: user.ID}
	if err := s.posts.Save(c.Request.Context(), post); err != nil {
		AbortWithError(c, err)
		return
	}

	s.respondCreated(c, post)
}

func (s *Server) ListPosts(c *gin.Context) {
	user := s.currentUser(c)
	if user == nil {
		AbortWithError(c, apierror.ErrUnauthorized)
		return
	}

	posts, err := s.posts.Find(c.Request.Context(),
		repository.Filter{"user_id": user.ID},
		option.OrderByRecency(),
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.respond(c, http.StatusOK, posts)
}

func (s *Server) GetPost(c *gin.Context) {
	post, err := s.posts.Get(c.Request.Context(), repository.Filter{"uid": c.Param("uid")})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if post == nil {
		AbortWithError(c, apierror.ErrResourceNotFound)
		return
	}

	s.respond(c, http.StatusOK, post)
}

func (s *Server) UpdatePost(c *gin.Context) {
	user := s.currentUser(c)
	if user == nil {
		AbortWithError(c, apierror.ErrUnauthorized)
		return
	}

	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, apierror.ErrBadRequest.WithCause(err))
		return
	}

	post, err := s.ownedPost(c, user)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.posts.Update(c.Request.Context(), post, map[string]any{"body": req.Body}); err != nil {
		AbortWithError(c, err)
		return
	}
	post.Body = req.Body

	s.respond(c, http.StatusOK, post)
}

func (s *Server) DeletePost(c *gin.Context) {
	user := s.currentUser(c)
	if user == nil {
		AbortWithError(c, apierror.ErrUnauthorized)
		return
	}

	post, err := s.ownedPost(c, user)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.posts.Delete(c.Request.Context(), post); err != nil {
		AbortWithError(c, err)
		return
	}

	s.respondDeleted(c)
}
