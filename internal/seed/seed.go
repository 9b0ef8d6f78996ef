// Package seed prepares the database for a fresh process: schema migration,
// the fallback pricing tier, and the development sentinel user.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	activitydomain "github.com/gramwave/gramwave/internal/activity/domain"
	applicationdomain "github.com/gramwave/gramwave/internal/application/domain"
	"github.com/gramwave/gramwave/internal/auth/password"
	authservice "github.com/gramwave/gramwave/internal/auth/service"
	billingdomain "github.com/gramwave/gramwave/internal/billing/domain"
	collectiondomain "github.com/gramwave/gramwave/internal/collection/domain"
	"github.com/gramwave/gramwave/internal/config"
	"github.com/gramwave/gramwave/internal/entity"
	followdomain "github.com/gramwave/gramwave/internal/follow/domain"
	notificationdomain "github.com/gramwave/gramwave/internal/notification/domain"
	postdomain "github.com/gramwave/gramwave/internal/post/domain"
	storydomain "github.com/gramwave/gramwave/internal/story/domain"
	userdomain "github.com/gramwave/gramwave/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultTierName = "free"

var Module = fx.Module("seed",
	fx.Invoke(Run),
)

type Params struct {
	fx.In

	Cfg     config.Config
	Log     *zap.Logger
	DB      *gorm.DB
	Node    *snowflake.Node
	Pricing *config.PricingConfigHolder
}

// Run migrates the schema and inserts the bootstrap rows. It is idempotent;
// restarts find the rows already present and leave them alone.
func Run(p Params) error {
	log := p.Log.Named("seed")

	if err := p.DB.AutoMigrate(
		&userdomain.User{},
		&applicationdomain.Application{},
		&activitydomain.ActivityRecord{},
		&billingdomain.PricingTier{},
		&postdomain.Post{},
		&storydomain.Story{},
		&collectiondomain.Collection{},
		&followdomain.Follow{},
		&notificationdomain.Notification{},
	); err != nil {
		return err
	}

	ctx := context.Background()
	if err := ensureDefaultTier(ctx, p); err != nil {
		return err
	}

	if p.Cfg.AuthEnforcementDisabled {
		if err := ensureSentinelUser(ctx, p); err != nil {
			return err
		}
		log.Warn("auth enforcement disabled, sentinel principal active",
			zap.String("username", authservice.SentinelUsername))
	}

	log.Info("database ready")
	return nil
}

func ensureDefaultTier(ctx context.Context, p Params) error {
	var tier billingdomain.PricingTier
	err := p.DB.WithContext(ctx).Where("name = ?", defaultTierName).First(&tier).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	pricing := p.Pricing.Get()
	tier = billingdomain.PricingTier{
		Name:              defaultTierName,
		RequestCost:       pricing.RequestCost,
		FreeDailyRequests: pricing.FreeDailyRequests,
	}
	stamp(&tier.Base, p.Node)
	return p.DB.WithContext(ctx).Create(&tier).Error
}

func ensureSentinelUser(ctx context.Context, p Params) error {
	var user userdomain.User
	err := p.DB.WithContext(ctx).Where("username = ?", authservice.SentinelUsername).First(&user).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	// The sentinel never authenticates with this hash; it exists so the
	// row satisfies the same constraints as a real user.
	hashed, err := password.Hash(authservice.SentinelUsername)
	if err != nil {
		return err
	}

	user = userdomain.User{
		Username:     authservice.SentinelUsername,
		Email:        "sentinel@localhost",
		PasswordHash: hashed,
		Tokens:       p.Pricing.Get().DefaultTokenGrant,
	}
	stamp(&user.Base, p.Node)
	return p.DB.WithContext(ctx).Create(&user).Error
}

func stamp(base *entity.Base, node *snowflake.Node) {
	now := time.Now().UTC()
	base.ID = node.Generate().Int64()
	base.UID = entity.NewUID()
	base.StatusID = entity.StatusActive
	base.CreatedAt = now
	base.ModifiedAt = now
}
