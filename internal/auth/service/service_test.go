package service

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/gramwave/gramwave/internal/apierror"
	"github.com/gramwave/gramwave/internal/auth/domain"
	"github.com/gramwave/gramwave/internal/clock"
	"github.com/gramwave/gramwave/internal/config"
	"github.com/gramwave/gramwave/internal/entity"
	userdomain "github.com/gramwave/gramwave/internal/user/domain"
	userservice "github.com/gramwave/gramwave/internal/user/service"
	"github.com/gramwave/gramwave/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type authFixture struct {
	db    *gorm.DB
	svc   domain.Service
	users userdomain.Service
	clock *clock.FakeClock
	cfg   config.Config
}

func newAuthFixture(t *testing.T, cfg config.Config) *authFixture {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&userdomain.User{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	users := userservice.New(userservice.Params{
		DB:      gdb,
		Log:     zap.NewNop(),
		Repo:    repository.ProvideStore[userdomain.User](gdb, node),
		Pricing: config.NewStaticPricingConfigHolder(config.DefaultPricingConfig()),
	})

	fake := clock.NewFakeClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	svc := New(Params{
		Cfg:   cfg,
		Log:   zap.NewNop(),
		Users: users,
		Clock: fake,
	})

	return &authFixture{db: gdb, svc: svc, users: users, clock: fake, cfg: cfg}
}

func enforcedConfig() config.Config {
	return config.Config{
		Environment:   "test",
		TokenSecret:   "test-secret",
		TokenLifespan: 3600,
	}
}

func (f *authFixture) register(t *testing.T, username, pass string) *userdomain.User {
	t.Helper()
	user, err := f.users.Register(context.Background(), userdomain.RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: pass,
	})
	require.NoError(t, err)
	return user
}

func TestCredentialExchange(t *testing.T) {
	f := newAuthFixture(t, enforcedConfig())
	f.register(t, "alice", "hunter2")

	r := httptest.NewRequest("POST", "/api/v1/tokens", nil)
	r.SetBasicAuth("alice", "hunter2")

	p, err := f.svc.Resolve(context.Background(), r, domain.CredentialExchange)
	require.NoError(t, err)
	assert.Equal(t, "user", p.PrincipalKind())
}

func TestCredentialExchangeMissingHeader(t *testing.T) {
	f := newAuthFixture(t, enforcedConfig())

	r := httptest.NewRequest("POST", "/api/v1/tokens", nil)
	_, err := f.svc.Resolve(context.Background(), r, domain.CredentialExchange)
	assert.ErrorIs(t, err, apierror.ErrMissingCredentials)
}

func TestCredentialExchangeWrongSecret(t *testing.T) {
	f := newAuthFixture(t, enforcedConfig())
	f.register(t, "alice", "hunter2")

	r := httptest.NewRequest("POST", "/api/v1/tokens", nil)
	r.SetBasicAuth("alice", "wrong")

	_, err := f.svc.Resolve(context.Background(), r, domain.CredentialExchange)
	assert.ErrorIs(t, err, apierror.ErrUnsuccessfulAuthentication)
}

func TestCredentialExchangeUnknownUser(t *testing.T) {
	f := newAuthFixture(t, enforcedConfig())

	r := httptest.NewRequest("POST", "/api/v1/tokens", nil)
	r.SetBasicAuth("nobody", "whatever")

	_, err := f.svc.Resolve(context.Background(), r, domain.CredentialExchange)
	assert.ErrorIs(t, err, apierror.ErrUnsuccessfulAuthentication)
}

func TestTokenBearerRoundTrip(t *testing.T) {
	f := newAuthFixture(t, enforcedConfig())
	user := f.register(t, "alice", "hunter2")

	token, err := f.svc.IssueToken(user.ID)
	require.NoError(t, err)
	require.NotEmpty(t, token.Token)

	r := httptest.NewRequest("GET", "/api/v1/me", nil)
	r.Header.Set("Authorization", "Bearer "+token.Token)

	p, err := f.svc.Resolve(context.Background(), r, domain.TokenBearer)
	require.NoError(t, err)
	assert.Equal(t, user.ID, p.PrincipalID())
}

func TestTokenBearerExpiry(t *testing.T) {
	f := newAuthFixture(t, enforcedConfig())
	user := f.register(t, "alice", "hunter2")

	token, err := f.svc.IssueToken(user.ID)
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/api/v1/me", nil)
	r.Header.Set("Authorization", "Bearer "+token.Token)

	// Still inside the lifespan.
	f.clock.Advance(59 * time.Minute)
	_, err = f.svc.Resolve(context.Background(), r, domain.TokenBearer)
	require.NoError(t, err)

	// Past it.
	f.clock.Advance(2 * time.Minute)
	_, err = f.svc.Resolve(context.Background(), r, domain.TokenBearer)
	assert.ErrorIs(t, err, apierror.ErrTokenExpired)
}

func TestTokenBearerMalformedHeader(t *testing.T) {
	f := newAuthFixture(t, enforcedConfig())

	for _, header := range []string{"", "Bearer", "Basic abc", "Bearer not-a-jwt"} {
		r := httptest.NewRequest("GET", "/api/v1/me", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		_, err := f.svc.Resolve(context.Background(), r, domain.TokenBearer)
		assert.ErrorIs(t, err, apierror.ErrInvalidToken, "header %q", header)
	}
}

func TestTokenBearerWrongSecret(t *testing.T) {
	f := newAuthFixture(t, enforcedConfig())
	user := f.register(t, "alice", "hunter2")

	forged, err := domain.SignToken("other-secret", user.ID, time.Hour, f.clock.Now())
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/api/v1/me", nil)
	r.Header.Set("Authorization", "Bearer "+forged.Token)

	_, err = f.svc.Resolve(context.Background(), r, domain.TokenBearer)
	assert.ErrorIs(t, err, apierror.ErrInvalidToken)
}

func TestTokenBearerDeletedUser(t *testing.T) {
	f := newAuthFixture(t, enforcedConfig())
	user := f.register(t, "alice", "hunter2")

	token, err := f.svc.IssueToken(user.ID)
	require.NoError(t, err)

	// Soft delete behind the token's back.
	err = f.db.Model(&userdomain.User{}).
		Where("id = ?", user.ID).
		Update("status_id", entity.StatusDeleted).Error
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/api/v1/me", nil)
	r.Header.Set("Authorization", "Bearer "+token.Token)

	_, err = f.svc.Resolve(context.Background(), r, domain.TokenBearer)
	assert.ErrorIs(t, err, apierror.ErrDeletedResource)
}

func TestSentinelBypass(t *testing.T) {
	cfg := enforcedConfig()
	cfg.AuthEnforcementDisabled = true
	f := newAuthFixture(t, cfg)
	sentinel := f.register(t, SentinelUsername, "irrelevant")

	// No credentials at all.
	r := httptest.NewRequest("GET", "/api/v1/me", nil)
	p, err := f.svc.Resolve(context.Background(), r, domain.TokenBearer)
	require.NoError(t, err)
	assert.Equal(t, sentinel.ID, p.PrincipalID())
}
