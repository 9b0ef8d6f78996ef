package domain

import (
	"context"
	"net/http"
	"time"

	"github.com/gramwave/gramwave/internal/requestctx"
)

// Mode selects the authentication strategy for a route.
type Mode int

const (
	// CredentialExchange authenticates a username/secret pair from the
	// basic-auth header; it is how clients obtain a bearer token.
	CredentialExchange Mode = iota
	// TokenBearer verifies a signed, time-limited token from the
	// Authorization header.
	TokenBearer
)

// Token is a signed bearer token and its expiry, returned from the
// credential exchange.
type Token struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Service resolves the principal for a request. A successful Resolve binds
// the principal into the request context exactly once; a failed one binds
// nothing.
type Service interface {
	Resolve(ctx context.Context, r *http.Request, mode Mode) (requestctx.Principal, error)
	IssueToken(userID int64) (Token, error)
}
