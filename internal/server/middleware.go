package server

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/gramwave/gramwave/internal/activity/domain"
	"github.com/gramwave/gramwave/internal/apierror"
	authdomain "github.com/gramwave/gramwave/internal/auth/domain"
	"github.com/gramwave/gramwave/internal/requestctx"
	"go.uber.org/zap"
)

const (
	contextPayloadKey = "request_payload"
	contextHeadersKey = "request_headers"

	// maxPayloadSnapshot bounds what gets copied into the activity record.
	maxPayloadSnapshot = 64 << 10
)

// bodyCapture tees the response body so the teardown hook can write it into
// the activity record.
type bodyCapture struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyCapture) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyCapture) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// ActivityPipeline owns the request lifecycle: it creates the request
// context, opens the activity record before anything else runs, and
// guarantees finalize and billing on every exit path, panics and dropped
// connections included.
func (s *Server) ActivityPipeline() gin.HandlerFunc {
	return func(c *gin.Context) {
		rc := requestctx.New()
		c.Request = c.Request.WithContext(requestctx.With(c.Request.Context(), rc))

		payload := snapshotPayload(c)
		headers := snapshotHeaders(c)
		c.Set(contextPayloadKey, payload)
		c.Set(contextHeadersKey, headers)

		capture := &bodyCapture{ResponseWriter: c.Writer}
		c.Writer = capture

		// The ledger is load-bearing: no open record, no request.
		_, err := s.activitysvc.Open(c.Request.Context(), domain.OpenParams{
			Ref:      rc.Ref(),
			Endpoint: fmt.Sprintf("%s %s", c.Request.Method, c.Request.URL.String()),
			Headers:  headers,
			Payload:  string(payload),
		})
		if err != nil {
			s.log.Error("opening activity record failed", zap.Error(err))
			respondFailure(c, apierror.ErrInternal.Status, apierror.ErrInternal.Message)
			c.Abort()
			return
		}

		defer s.teardown(c, rc, capture)

		c.Next()
	}
}

// teardown finalizes the activity record and runs the billing meter. It
// must never fail the response; everything here is logged, not raised.
func (s *Server) teardown(c *gin.Context, rc *requestctx.Context, capture *bodyCapture) {
	// A dropped connection cancels the request context; finalize and billing
	// still have to land, so they run detached from that cancellation.
	ctx := context.WithoutCancel(c.Request.Context())

	var actorID *int64
	if p := rc.Principal(); p != nil {
		id := p.PrincipalID()
		actorID = &id
	}

	finalize := func() {
		err := s.activitysvc.Finalize(ctx, rc.Ref(), domain.FinalizeParams{
			ResponseData: capture.buf.String(),
			Headers:      requestHeaders(c),
			ActorID:      actorID,
			Cost:         rc.Cost(),
		})
		if err != nil {
			s.log.Error("finalizing activity record failed",
				zap.String("api_ref", rc.Ref()), zap.Error(err))
		}
	}

	finalize()

	if rc.Principal() != nil {
		debited, err := s.billingsvc.Charge(ctx)
		if err != nil {
			s.log.Error("billing charge failed",
				zap.String("api_ref", rc.Ref()), zap.Error(err))
			return
		}
		if debited > 0 {
			// Re-apply the finalize with the billed cost; the update is
			// idempotent so this is an ordinary retry.
			finalize()
		}
	}
}

// RateLimit drains one token per client before the handler chain proceeds.
// Runs after the pipeline so rejected requests still land in the ledger.
// With no limiter configured it is a no-op.
func (s *Server) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter == nil {
			c.Next()
			return
		}

		res, err := s.limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			// Limiter outage falls open; availability over budgets.
			s.log.Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !res.Allowed {
			c.Header("Retry-After", fmt.Sprintf("%d", int(res.RetryAfter.Seconds())+1))
			AbortWithError(c, apierror.ErrTooManyRequests)
			return
		}

		c.Next()
	}
}

// AuthRequired resolves the principal for the route's authentication mode.
func (s *Server) AuthRequired(mode authdomain.Mode) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := s.authsvc.Resolve(c.Request.Context(), c.Request, mode); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

func snapshotPayload(c *gin.Context) []byte {
	if c.Request.Body == nil {
		return nil
	}
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPayloadSnapshot))
	if err != nil {
		return nil
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(raw))
	return raw
}

func snapshotHeaders(c *gin.Context) map[string]any {
	headers := make(map[string]any, len(c.Request.Header))
	for key, values := range c.Request.Header {
		if key == "Authorization" {
			// Credentials never land in the ledger.
			headers[key] = "[redacted]"
			continue
		}
		if len(values) == 1 {
			headers[key] = values[0]
			continue
		}
		headers[key] = values
	}
	return headers
}

func requestPayload(c *gin.Context) []byte {
	if value, ok := c.Get(contextPayloadKey); ok {
		if raw, ok := value.([]byte); ok {
			return raw
		}
	}
	return nil
}

func requestHeaders(c *gin.Context) map[string]any {
	if value, ok := c.Get(contextHeadersKey); ok {
		if headers, ok := value.(map[string]any); ok {
			return headers
		}
	}
	return nil
}
