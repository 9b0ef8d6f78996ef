package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	authdomain "github.com/gramwave/gramwave/internal/auth/domain"
)

// RegisterAPIRoutes wires the versioned API surface. Every route under the
// group runs through the activity pipeline, so every request is logged and
// billed; authentication mode varies per route.
func (s *Server) RegisterAPIRoutes() {
	api := s.engine.Group("/api/v1")
	api.Use(s.ActivityPipeline(), s.ErrorHandlingMiddleware(), s.RateLimit())

	api.GET("/", func(c *gin.Context) {
		s.respond(c, http.StatusOK, "Welcome to gramwave")
	})

	// Registration is the one unauthenticated write; there is no principal
	// to authenticate yet.
	api.POST("/users", s.RegisterUser)

	// Credential exchange: basic-auth in, bearer token out.
	api.POST("/tokens", s.AuthRequired(authdomain.CredentialExchange), s.CreateToken)

	bearer := api.Group("", s.AuthRequired(authdomain.TokenBearer))

	bearer.GET("/me", s.Me)
	bearer.GET("/users/:uid", s.GetUser)

	bearer.POST("/posts", s.CreatePost)
	bearer.GET("/posts", s.ListPosts)
	bearer.GET("/posts/:uid", s.GetPost)
	bearer.PATCH("/posts/:uid", s.UpdatePost)
	bearer.DELETE("/posts/:uid", s.DeletePost)

	bearer.POST("/stories", s.CreateStory)
	bearer.GET("/stories", s.ListStories)
	bearer.DELETE("/stories/:uid", s.DeleteStory)

	bearer.POST("/collections", s.CreateCollection)
	bearer.GET("/collections", s.ListCollections)
	bearer.GET("/collections/:uid", s.GetCollection)
	bearer.PATCH("/collections/:uid", s.UpdateCollection)
	bearer.DELETE("/collections/:uid", s.DeleteCollection)

	bearer.POST("/follows", s.CreateFollow)
	bearer.GET("/follows", s.ListFollows)
	bearer.DELETE("/follows/:uid", s.DeleteFollow)

	bearer.GET("/notifications", s.ListNotifications)
	bearer.POST("/notifications/:uid/read", s.ReadNotification)
}
