package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	activitydomain "github.com/gramwave/gramwave/internal/activity/domain"
	activityservice "github.com/gramwave/gramwave/internal/activity/service"
	appdomain "github.com/gramwave/gramwave/internal/application/domain"
	authdomain "github.com/gramwave/gramwave/internal/auth/domain"
	authservice "github.com/gramwave/gramwave/internal/auth/service"
	billingdomain "github.com/gramwave/gramwave/internal/billing/domain"
	billingservice "github.com/gramwave/gramwave/internal/billing/service"
	"github.com/gramwave/gramwave/internal/clock"
	collectiondomain "github.com/gramwave/gramwave/internal/collection/domain"
	"github.com/gramwave/gramwave/internal/config"
	"github.com/gramwave/gramwave/internal/entity"
	followdomain "github.com/gramwave/gramwave/internal/follow/domain"
	notificationdomain "github.com/gramwave/gramwave/internal/notification/domain"
	postdomain "github.com/gramwave/gramwave/internal/post/domain"
	storydomain "github.com/gramwave/gramwave/internal/story/domain"
	userdomain "github.com/gramwave/gramwave/internal/user/domain"
	userservice "github.com/gramwave/gramwave/internal/user/service"
	"github.com/gramwave/gramwave/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type serverFixture struct {
	srv   *Server
	db    *gorm.DB
	clock *clock.FakeClock
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(
		&userdomain.User{},
		&appdomain.Application{},
		&activitydomain.ActivityRecord{},
		&billingdomain.PricingTier{},
		&postdomain.Post{},
		&storydomain.Story{},
		&collectiondomain.Collection{},
		&followdomain.Follow{},
		&notificationdomain.Notification{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	cfg := config.Config{
		AppName:       "gramwave-test",
		Environment:   "test",
		TokenSecret:   "test-secret",
		TokenLifespan: 3600,
	}
	log := zap.NewNop()
	pricing := config.NewStaticPricingConfigHolder(config.DefaultPricingConfig())
	fake := clock.NewFakeClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))

	users := userservice.New(userservice.Params{
		DB:      gdb,
		Log:     log,
		Repo:    repository.ProvideStore[userdomain.User](gdb, node),
		Pricing: pricing,
	})
	activity := activityservice.New(activityservice.Params{
		DB:   gdb,
		Log:  log,
		Repo: repository.ProvideStore[activitydomain.ActivityRecord](gdb, node),
	})
	billing := billingservice.New(billingservice.Params{
		Log:      log,
		Activity: activity,
		Users:    users,
		Tiers:    repository.ProvideStore[billingdomain.PricingTier](gdb, node),
		Apps:     repository.ProvideStore[appdomain.Application](gdb, node),
		Pricing:  pricing,
		Clock:    fake,
	})
	auth := authservice.New(authservice.Params{
		Cfg:   cfg,
		Log:   log,
		Users: users,
		Clock: fake,
	})

	srv := NewServer(ServerParams{
		Gin:           gin.New(),
		Cfg:           cfg,
		Log:           log,
		DB:            gdb,
		Authsvc:       auth,
		Usersvc:       users,
		Activitysvc:   activity,
		Billingsvc:    billing,
		Posts:         repository.ProvideStore[postdomain.Post](gdb, node),
		Stories:       repository.ProvideStore[storydomain.Story](gdb, node),
		Collections:   repository.ProvideStore[collectiondomain.Collection](gdb, node),
		Follows:       repository.ProvideStore[followdomain.Follow](gdb, node),
		Notifications: repository.ProvideStore[notificationdomain.Notification](gdb, node),
	})
	srv.RegisterAPIRoutes()

	return &serverFixture{srv: srv, db: gdb, clock: fake}
}

func (f *serverFixture) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	r := httptest.NewRequest(method, path, reader)
	r.Header.Set("Content-Type", "application/json")
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	f.srv.engine.ServeHTTP(w, r)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

// register creates a user over the API and exchanges its credentials for a
// bearer token.
func (f *serverFixture) register(t *testing.T, username string) (string, string) {
	t.Helper()

	w, env := f.do(t, "POST", "/api/v1/users", "", map[string]any{
		"username": username,
		"email":    username + "@example.com",
		"password": "hunter2",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	uid := env.YourResponse.(map[string]any)["uid"].(string)

	r := httptest.NewRequest("POST", "/api/v1/tokens", nil)
	r.SetBasicAuth(username, "hunter2")
	w2 := httptest.NewRecorder()
	f.srv.engine.ServeHTTP(w2, r)
	require.Equal(t, http.StatusOK, w2.Code)

	var tokenEnv envelope
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &tokenEnv))
	token := tokenEnv.YourResponse.(map[string]any)["token"].(string)
	require.NotEmpty(t, token)

	return uid, token
}

func (f *serverFixture) ledgerCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&activitydomain.ActivityRecord{}).Count(&n).Error)
	return n
}

func TestEnvelopeShape(t *testing.T) {
	f := newServerFixture(t)

	w, env := f.do(t, "POST", "/api/v1/users", "", map[string]any{
		"username": "alice",
		"password": "hunter2",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, statusSuccess, env.Status)
	assert.NotEmpty(t, env.APIRef)
	assert.Equal(t, "/api/v1/users", env.YourRequest.URL)

	// The echo carries the parsed payload back, password included as sent.
	payload := env.YourRequest.Payload.(map[string]any)
	assert.Equal(t, "alice", payload["username"])
}

func TestEveryRequestLandsInLedger(t *testing.T) {
	f := newServerFixture(t)

	// A failing, unauthenticated request still gets a finalized record.
	w, env := f.do(t, "GET", "/api/v1/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, statusFailure, env.Status)

	assert.EqualValues(t, 1, f.ledgerCount(t))

	var record activitydomain.ActivityRecord
	require.NoError(t, f.db.Where("api_ref = ?", env.APIRef).First(&record).Error)
	assert.Contains(t, record.ResponseData, statusFailure)
	assert.Nil(t, record.CreatedByID)
}

func TestExpiredTokenResponse(t *testing.T) {
	f := newServerFixture(t)
	_, token := f.register(t, "alice")

	f.clock.Advance(2 * time.Hour)

	w, env := f.do(t, "GET", "/api/v1/me", token, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, statusFailure, env.Status)
	assert.Equal(t, "Token has expired.", env.Message)
}

func TestAuthorizationHeaderRedacted(t *testing.T) {
	f := newServerFixture(t)
	_, token := f.register(t, "alice")

	w, env := f.do(t, "GET", "/api/v1/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var record activitydomain.ActivityRecord
	require.NoError(t, f.db.Where("api_ref = ?", env.APIRef).First(&record).Error)
	assert.Equal(t, "[redacted]", record.RequestHeaders["Authorization"])
	assert.NotContains(t, record.ResponseData, token)
}

func TestSoftDeleteThroughAPI(t *testing.T) {
	f := newServerFixture(t)
	_, token := f.register(t, "alice")

	w, env := f.do(t, "POST", "/api/v1/collections", token, map[string]any{
		"name": "summer",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	uid := env.YourResponse.(map[string]any)["uid"].(string)

	w, _ = f.do(t, "DELETE", "/api/v1/collections/"+uid, token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Zero(t, w.Body.Len())

	// Reads no longer find it.
	w, env = f.do(t, "GET", "/api/v1/collections/"+uid, token, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Resource not found", env.Message)

	// The row survives with its status flipped.
	var col collectiondomain.Collection
	require.NoError(t, f.db.Where("uid = ?", uid).First(&col).Error)
	assert.Equal(t, entity.StatusDeleted, col.StatusID)
}

func TestBillingThroughPipeline(t *testing.T) {
	f := newServerFixture(t)
	uid, token := f.register(t, "alice")

	// Only rows attributed to alice count toward her window: registration
	// carries no principal, the token exchange is her first. Five /me calls
	// bring her to six, one past the free quota.
	for i := 0; i < 5; i++ {
		w, _ := f.do(t, "GET", "/api/v1/me", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
	}

	var user userdomain.User
	require.NoError(t, f.db.Where("uid = ?", uid).First(&user).Error)
	assert.EqualValues(t, 98, user.Tokens)

	// The billed request's ledger row carries its cost.
	var billed []activitydomain.ActivityRecord
	require.NoError(t, f.db.Where("created_by_id = ? AND cost > 0", user.ID).Find(&billed).Error)
	require.Len(t, billed, 1)
	assert.EqualValues(t, 2, billed[0].Cost)
}

func TestOwnershipIsOpaque(t *testing.T) {
	f := newServerFixture(t)
	_, aliceToken := f.register(t, "alice")
	_, bobToken := f.register(t, "bob")

	w, env := f.do(t, "POST", "/api/v1/posts", aliceToken, map[string]any{"body": "mine"})
	require.Equal(t, http.StatusCreated, w.Code)
	uid := env.YourResponse.(map[string]any)["uid"].(string)

	// Another user deleting it sees not-found, not forbidden.
	w, env = f.do(t, "DELETE", "/api/v1/posts/"+uid, bobToken, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, statusFailure, env.Status)

	// Still alive for the owner.
	w, _ = f.do(t, "GET", "/api/v1/posts/"+uid, aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestFollowCreatesNotification(t *testing.T) {
	f := newServerFixture(t)
	_, aliceToken := f.register(t, "alice")
	bobUID, bobToken := f.register(t, "bob")

	w, _ := f.do(t, "POST", "/api/v1/follows", aliceToken, map[string]any{
		"followed_uid": bobUID,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// Following twice conflicts.
	w, env := f.do(t, "POST", "/api/v1/follows", aliceToken, map[string]any{
		"followed_uid": bobUID,
	})
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Resource already exists", env.Message)

	w, env = f.do(t, "GET", "/api/v1/notifications", bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	notes := env.YourResponse.([]any)
	require.Len(t, notes, 1)
	assert.Equal(t, "follow", notes[0].(map[string]any)["kind"])
}

func TestStoriesExpire(t *testing.T) {
	f := newServerFixture(t)
	_, token := f.register(t, "alice")

	w, _ := f.do(t, "POST", "/api/v1/stories", token, map[string]any{"body": "ephemeral"})
	require.Equal(t, http.StatusCreated, w.Code)

	w, env := f.do(t, "GET", "/api/v1/stories", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, env.YourResponse.([]any), 1)

	// Stories age out against wall time.
	require.NoError(t, f.db.Model(&storydomain.Story{}).
		Where("1 = 1").
		Update("expires_at", time.Now().Add(-time.Minute)).Error)

	w, env = f.do(t, "GET", "/api/v1/stories", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, env.YourResponse)
}

func TestLedgerFailureAbortsRequest(t *testing.T) {
	f := newServerFixture(t)
	_, token := f.register(t, "alice")

	// Drop the ledger table out from under the pipeline.
	require.NoError(t, f.db.Migrator().DropTable(&activitydomain.ActivityRecord{}))

	w, env := f.do(t, "GET", "/api/v1/me", token, nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, statusFailure, env.Status)
	assert.Equal(t, "Server cannot validate requests sent at this time, please try again.", env.Message)
}

func TestClientDisconnectStillFinalizes(t *testing.T) {
	f := newServerFixture(t)
	_, token := f.register(t, "alice")

	// The handler cancels the request context itself, standing in for a
	// client that hangs up mid-request.
	ctx, cancel := context.WithCancel(context.Background())
	f.srv.engine.GET("/api/v1/dropped",
		f.srv.ActivityPipeline(), f.srv.ErrorHandlingMiddleware(),
		f.srv.AuthRequired(authdomain.TokenBearer),
		func(c *gin.Context) {
			cancel()
			f.srv.respond(c, http.StatusOK, map[string]any{"ok": true})
		})

	r := httptest.NewRequest("GET", "/api/v1/dropped", nil).WithContext(ctx)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	f.srv.engine.ServeHTTP(w, r)
	require.Equal(t, http.StatusOK, w.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))

	// The record is fully written despite the cancellation: response body
	// captured, actor attributed.
	var record activitydomain.ActivityRecord
	require.NoError(t, f.db.Where("api_ref = ?", env.APIRef).First(&record).Error)
	assert.Contains(t, record.ResponseData, statusSuccess)
	require.NotNil(t, record.CreatedByID)

	var user userdomain.User
	require.NoError(t, f.db.Where("username = ?", "alice").First(&user).Error)
	assert.Equal(t, user.ID, *record.CreatedByID)
}

func TestSelfFollowRejected(t *testing.T) {
	f := newServerFixture(t)
	uid, token := f.register(t, "alice")

	w, env := f.do(t, "POST", "/api/v1/follows", token, map[string]any{
		"followed_uid": uid,
	})
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Bad request", env.Message)
}
