package service

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gramwave/gramwave/internal/apierror"
	"github.com/gramwave/gramwave/internal/auth/domain"
	"github.com/gramwave/gramwave/internal/auth/password"
	"github.com/gramwave/gramwave/internal/clock"
	"github.com/gramwave/gramwave/internal/config"
	"github.com/gramwave/gramwave/internal/entity"
	"github.com/gramwave/gramwave/internal/requestctx"
	userdomain "github.com/gramwave/gramwave/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// SentinelUsername is the fixed principal substituted when auth enforcement
// is disabled. Seeded at startup in non-production environments only.
const SentinelUsername = "dev-sentinel"

type Params struct {
	fx.In

	Cfg   config.Config
	Log   *zap.Logger
	Users userdomain.Service
	Clock clock.Clock
}

type Service struct {
	cfg   config.Config
	log   *zap.Logger
	users userdomain.Service
	clock clock.Clock
}

func New(p Params) domain.Service {
	return &Service{
		cfg:   p.Cfg,
		log:   p.Log.Named("auth.service"),
		users: p.Users,
		clock: p.Clock,
	}
}

func (s *Service) Resolve(ctx context.Context, r *http.Request, mode domain.Mode) (requestctx.Principal, error) {
	if s.cfg.AuthEnforcementDisabled {
		return s.resolveSentinel(ctx)
	}

	var (
		user *userdomain.User
		err  error
	)
	switch mode {
	case domain.CredentialExchange:
		user, err = s.resolveCredentials(ctx, r)
	case domain.TokenBearer:
		user, err = s.resolveBearer(ctx, r)
	default:
		return nil, apierror.ErrUnauthorized.WithLog("unknown authentication mode")
	}
	if err != nil {
		return nil, err
	}

	s.bind(ctx, user)
	return user, nil
}

func (s *Service) IssueToken(userID int64) (domain.Token, error) {
	lifespan := time.Duration(s.cfg.TokenLifespan) * time.Second
	return domain.SignToken(s.cfg.TokenSecret, userID, lifespan, s.clock.Now())
}

func (s *Service) resolveCredentials(ctx context.Context, r *http.Request) (*userdomain.User, error) {
	username, secret, ok := r.BasicAuth()
	if !ok {
		return nil, apierror.ErrMissingCredentials
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil || !password.Verify(secret, user.PasswordHash) {
		s.log.Error("username or password authentication failed", zap.String("username", username))
		return nil, apierror.ErrUnsuccessfulAuthentication
	}

	return user, nil
}

func (s *Service) resolveBearer(ctx context.Context, r *http.Request) (*userdomain.User, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	parts := strings.Fields(header)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, apierror.ErrInvalidToken.WithLog("malformed or missing bearer header")
	}

	userID, err := domain.ParseToken(s.cfg.TokenSecret, parts[1], s.clock.Now)
	if err != nil {
		return nil, err
	}

	// Resolution bypasses the lifecycle filter on purpose: a token for a
	// deleted principal and a token for an unknown one fail differently.
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apierror.ErrUnsuccessfulAuthentication
	}
	if user.StatusID == entity.StatusDeleted {
		return nil, apierror.ErrDeletedResource
	}

	return user, nil
}

func (s *Service) resolveSentinel(ctx context.Context) (requestctx.Principal, error) {
	s.log.Warn("auth enforcement disabled, substituting sentinel principal; not safe for production")

	user, err := s.users.FindByUsername(ctx, SentinelUsername)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apierror.ErrInternal.WithLog("sentinel principal missing; seed did not run")
	}

	s.bind(ctx, user)
	return user, nil
}

func (s *Service) bind(ctx context.Context, p requestctx.Principal) {
	if rc, ok := requestctx.From(ctx); ok {
		rc.BindPrincipal(p)
	}
}
