package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	activitydomain "github.com/gramwave/gramwave/internal/activity/domain"
	activityservice "github.com/gramwave/gramwave/internal/activity/service"
	appdomain "github.com/gramwave/gramwave/internal/application/domain"
	"github.com/gramwave/gramwave/internal/billing/domain"
	"github.com/gramwave/gramwave/internal/clock"
	"github.com/gramwave/gramwave/internal/config"
	"github.com/gramwave/gramwave/internal/entity"
	"github.com/gramwave/gramwave/internal/requestctx"
	userdomain "github.com/gramwave/gramwave/internal/user/domain"
	userservice "github.com/gramwave/gramwave/internal/user/service"
	"github.com/gramwave/gramwave/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type billingFixture struct {
	db       *gorm.DB
	svc      domain.Service
	users    userdomain.Service
	activity activitydomain.Service
	clock    *clock.FakeClock
	node     *snowflake.Node
}

func newBillingFixture(t *testing.T) *billingFixture {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(
		&userdomain.User{},
		&appdomain.Application{},
		&activitydomain.ActivityRecord{},
		&domain.PricingTier{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	pricing := config.NewStaticPricingConfigHolder(config.DefaultPricingConfig())

	users := userservice.New(userservice.Params{
		DB:      gdb,
		Log:     zap.NewNop(),
		Repo:    repository.ProvideStore[userdomain.User](gdb, node),
		Pricing: pricing,
	})

	activity := activityservice.New(activityservice.Params{
		DB:   gdb,
		Log:  zap.NewNop(),
		Repo: repository.ProvideStore[activitydomain.ActivityRecord](gdb, node),
	})

	fake := clock.NewFakeClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	svc := New(Params{
		Log:      zap.NewNop(),
		Activity: activity,
		Users:    users,
		Tiers:    repository.ProvideStore[domain.PricingTier](gdb, node),
		Apps:     repository.ProvideStore[appdomain.Application](gdb, node),
		Pricing:  pricing,
		Clock:    fake,
	})

	return &billingFixture{db: gdb, svc: svc, users: users, activity: activity, clock: fake, node: node}
}

func (f *billingFixture) register(t *testing.T, username string) *userdomain.User {
	t.Helper()
	user, err := f.users.Register(context.Background(), userdomain.RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: "hunter2",
	})
	require.NoError(t, err)
	return user
}

// logActivity opens and finalizes n ledger rows attributed to the user,
// timestamped inside today's window.
func (f *billingFixture) logActivity(t *testing.T, userID int64, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		ref := fmt.Sprintf("ref-%d-%d", userID, f.node.Generate().Int64())
		_, err := f.activity.Open(ctx, activitydomain.OpenParams{Ref: ref, Endpoint: "/x"})
		require.NoError(t, err)
		require.NoError(t, f.activity.Finalize(ctx, ref, activitydomain.FinalizeParams{ActorID: &userID}))
		require.NoError(t, f.db.Model(&activitydomain.ActivityRecord{}).
			Where("api_ref = ?", ref).
			Update("created_at", f.clock.Now()).Error)
	}
}

// chargeCtx builds a request context with the principal bound, the way the
// pipeline does before the meter runs.
func (f *billingFixture) chargeCtx(user *userdomain.User) context.Context {
	rc := requestctx.New()
	rc.BindPrincipal(user)
	return requestctx.With(context.Background(), rc)
}

func TestChargeWithinFreeQuota(t *testing.T) {
	f := newBillingFixture(t)
	user := f.register(t, "alice")

	// Five requests logged, quota is five: still free.
	f.logActivity(t, user.ID, 5)

	cost, err := f.svc.Charge(f.chargeCtx(user))
	require.NoError(t, err)
	assert.Zero(t, cost)

	got, err := f.users.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 100, got.Tokens)
}

func TestChargeBeyondFreeQuota(t *testing.T) {
	f := newBillingFixture(t)
	user := f.register(t, "alice")

	// The sixth request of the day crosses the quota.
	f.logActivity(t, user.ID, 6)

	cost, err := f.svc.Charge(f.chargeCtx(user))
	require.NoError(t, err)
	assert.EqualValues(t, 2, cost)

	got, err := f.users.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 98, got.Tokens)
}

func TestChargeWindowResetsAtMidnight(t *testing.T) {
	f := newBillingFixture(t)
	user := f.register(t, "alice")

	f.logActivity(t, user.ID, 6)

	// Move to the next day; yesterday's activity no longer counts.
	f.clock.Advance(13 * time.Hour)
	f.logActivity(t, user.ID, 1)

	cost, err := f.svc.Charge(f.chargeCtx(user))
	require.NoError(t, err)
	assert.Zero(t, cost)
}

func TestChargeUsesUserTier(t *testing.T) {
	f := newBillingFixture(t)
	user := f.register(t, "alice")

	tier := &domain.PricingTier{Name: "premium", RequestCost: 10, FreeDailyRequests: 1}
	tiers := repository.ProvideStore[domain.PricingTier](f.db, f.node)
	require.NoError(t, tiers.Save(context.Background(), tier))
	require.NoError(t, f.db.Model(&userdomain.User{}).
		Where("id = ?", user.ID).
		Update("pricing_tier_id", tier.ID).Error)

	f.logActivity(t, user.ID, 2)

	cost, err := f.svc.Charge(f.chargeCtx(user))
	require.NoError(t, err)
	assert.EqualValues(t, 10, cost)
}

func TestChargeInsufficientFunds(t *testing.T) {
	f := newBillingFixture(t)
	user := f.register(t, "alice")

	require.NoError(t, f.db.Model(&userdomain.User{}).
		Where("id = ?", user.ID).
		Update("tokens", 1).Error)

	f.logActivity(t, user.ID, 6)

	_, err := f.svc.Charge(f.chargeCtx(user))
	assert.ErrorIs(t, err, userdomain.ErrInsufficientFunds)

	// The failed debit leaves the balance untouched.
	got, err := f.users.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.Tokens)
}

func TestChargeSkipsUnboundContext(t *testing.T) {
	f := newBillingFixture(t)

	cost, err := f.svc.Charge(context.Background())
	require.NoError(t, err)
	assert.Zero(t, cost)
}

func TestChargeSkipsDeletedPrincipal(t *testing.T) {
	f := newBillingFixture(t)
	user := f.register(t, "alice")

	require.NoError(t, f.db.Model(&userdomain.User{}).
		Where("id = ?", user.ID).
		Update("status_id", entity.StatusDeleted).Error)

	f.logActivity(t, user.ID, 6)

	// FindByID still resolves the row; billing charges deleted users'
	// outstanding requests like anyone else's.
	cost, err := f.svc.Charge(f.chargeCtx(user))
	require.NoError(t, err)
	assert.EqualValues(t, 2, cost)
}
