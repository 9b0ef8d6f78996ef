// Package requestctx carries the per-request state: the unique request
// reference, the resolved principal and the accrued cost. One Context is
// created per inbound request and torn down with it; nothing here is ever
// shared across requests, so no locking is needed.
package requestctx

import (
	"context"

	"github.com/google/uuid"
)

// Principal is the authenticated actor attributed to a request, either a
// user or an application.
type Principal interface {
	PrincipalID() int64
	PrincipalUID() string
	PrincipalKind() string
}

type Context struct {
	ref       string
	principal Principal
	cost      int64
}

func New() *Context {
	return &Context{}
}

// Ref returns the request reference, generating and memoizing it on first
// access.
func (c *Context) Ref() string {
	if c.ref == "" {
		c.ref = uuid.NewString()
	}
	return c.ref
}

// BindPrincipal attaches the resolved principal. Resolution binds exactly
// once per request; later calls are ignored.
func (c *Context) BindPrincipal(p Principal) {
	if c.principal != nil {
		return
	}
	c.principal = p
}

func (c *Context) Principal() Principal { return c.principal }

// RecordCost adds to the request's running cost accumulator.
func (c *Context) RecordCost(amount int64) {
	c.cost += amount
}

func (c *Context) Cost() int64 { return c.cost }

type contextKey struct{}

func With(ctx context.Context, rc *Context) context.Context {
	return context.WithValue(ctx, contextKey{}, rc)
}

func From(ctx context.Context) (*Context, bool) {
	rc, ok := ctx.Value(contextKey{}).(*Context)
	return rc, ok
}

// Ref is the collaborator-facing form of Context.Ref.
func Ref(ctx context.Context) string {
	if rc, ok := From(ctx); ok {
		return rc.Ref()
	}
	return ""
}

// ResolvePrincipal returns the request's principal, or nil when
// authentication has not run or failed.
func ResolvePrincipal(ctx context.Context) Principal {
	if rc, ok := From(ctx); ok {
		return rc.Principal()
	}
	return nil
}

// RecordCost accrues cost against the current request, if there is one.
func RecordCost(ctx context.Context, amount int64) {
	if rc, ok := From(ctx); ok {
		rc.RecordCost(amount)
	}
}
