package server

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gramwave/gramwave/internal/requestctx"
)

const (
	statusSuccess = "SUCCESS"
	statusFailure = "FAILURE"
)

// requestEcho mirrors the caller's own request back inside the envelope.
type requestEcho struct {
	URL       string `json:"url"`
	QueryArgs any    `json:"query_args"`
	Payload   any    `json:"payload"`
}

// envelope is the uniform response shape shared by every endpoint, success
// and failure alike.
type envelope struct {
	APIRef       string      `json:"api_ref"`
	Status       string      `json:"status"`
	Message      any         `json:"message"`
	Meta         any         `json:"meta"`
	YourRequest  requestEcho `json:"your_request"`
	YourResponse any         `json:"your_response"`
}

func buildEnvelope(c *gin.Context, status string, message, meta, data any) envelope {
	var payload any
	if raw := requestPayload(c); len(raw) > 0 {
		var parsed any
		if err := json.Unmarshal(raw, &parsed); err == nil {
			payload = parsed
		} else {
			payload = string(raw)
		}
	}

	return envelope{
		APIRef:  requestctx.Ref(c.Request.Context()),
		Status:  status,
		Message: message,
		Meta:    meta,
		YourRequest: requestEcho{
			URL:       c.Request.URL.String(),
			QueryArgs: c.Request.URL.Query(),
			Payload:   payload,
		},
		YourResponse: data,
	}
}

func (s *Server) respond(c *gin.Context, code int, data any) {
	s.respondEnvelope(c, code, nil, nil, data)
}

func (s *Server) respondCreated(c *gin.Context, data any) {
	s.respondEnvelope(c, http.StatusCreated, nil, nil, data)
}

// respondDeleted answers with 204. net/http forbids a body on that status,
// so deletes are the one response that goes out without an envelope.
func (s *Server) respondDeleted(c *gin.Context) {
	s.respondEnvelope(c, http.StatusNoContent, nil, nil, nil)
}

func (s *Server) respondEnvelope(c *gin.Context, code int, message, meta, data any) {
	c.JSON(code, buildEnvelope(c, statusSuccess, message, meta, data))
}

func respondFailure(c *gin.Context, code int, message string) {
	c.JSON(code, buildEnvelope(c, statusFailure, message, nil, map[string]any{}))
}
