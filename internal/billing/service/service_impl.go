package service

import (
	"context"
	"time"

	activitydomain "github.com/gramwave/gramwave/internal/activity/domain"
	appdomain "github.com/gramwave/gramwave/internal/application/domain"
	"github.com/gramwave/gramwave/internal/billing/domain"
	"github.com/gramwave/gramwave/internal/cache"
	"github.com/gramwave/gramwave/internal/clock"
	"github.com/gramwave/gramwave/internal/config"
	"github.com/gramwave/gramwave/internal/observability/metrics"
	"github.com/gramwave/gramwave/internal/requestctx"
	userdomain "github.com/gramwave/gramwave/internal/user/domain"
	"github.com/gramwave/gramwave/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Activity activitydomain.Service
	Users    userdomain.Service
	Tiers    repository.Repository[domain.PricingTier, *domain.PricingTier]
	Apps     repository.Repository[appdomain.Application, *appdomain.Application]
	Pricing  *config.PricingConfigHolder
	Clock    clock.Clock
	Policies *cache.PolicyCache `optional:"true"`
	Metrics  *metrics.Metrics   `optional:"true"`
}

type Service struct {
	log      *zap.Logger
	activity activitydomain.Service
	users    userdomain.Service
	tiers    repository.Repository[domain.PricingTier, *domain.PricingTier]
	apps     repository.Repository[appdomain.Application, *appdomain.Application]
	pricing  *config.PricingConfigHolder
	clock    clock.Clock
	policies *cache.PolicyCache
	metrics  *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		log:      p.Log.Named("billing.meter"),
		activity: p.Activity,
		users:    p.Users,
		tiers:    p.Tiers,
		apps:     p.Apps,
		pricing:  p.Pricing,
		clock:    p.Clock,
		policies: p.Policies,
		metrics:  p.Metrics,
	}
}

func (s *Service) Charge(ctx context.Context) (int64, error) {
	rc, ok := requestctx.From(ctx)
	if !ok {
		return 0, nil
	}
	principal := rc.Principal()
	if principal == nil || principal.PrincipalKind() != "user" {
		return 0, nil
	}

	user, err := s.users.FindByID(ctx, principal.PrincipalID())
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, nil
	}

	policy, err := s.resolvePolicy(ctx, user)
	if err != nil {
		return 0, err
	}

	// The ledger is the single metering source of truth: the quota check
	// counts already-logged activity, including the record opened for this
	// request.
	count, err := s.activity.CountForUserSince(ctx, user.ID, s.windowStart())
	if err != nil {
		return 0, err
	}
	if count > policy.FreeDailyRequests {
		rc.RecordCost(policy.RequestCost)
	}

	cost := rc.Cost()
	if cost <= 0 {
		return 0, nil
	}

	if err := s.users.DebitTokens(ctx, user.ID, cost); err != nil {
		return 0, err
	}

	if s.metrics != nil {
		s.metrics.TokensDebited.Add(float64(cost))
	}
	return cost, nil
}

// resolvePolicy finds the cost/quota policy for a user: its own tier first,
// then the tier of the application that created it, then the configured
// default.
func (s *Service) resolvePolicy(ctx context.Context, user *userdomain.User) (domain.Policy, error) {
	if s.policies != nil {
		if policy, ok := s.policies.Get(user.ID); ok {
			return policy, nil
		}
	}

	policy, err := s.lookupPolicy(ctx, user)
	if err != nil {
		return domain.Policy{}, err
	}
	if s.policies != nil {
		s.policies.Set(user.ID, policy)
	}
	return policy, nil
}

func (s *Service) lookupPolicy(ctx context.Context, user *userdomain.User) (domain.Policy, error) {
	if user.PricingTierID != 0 {
		tier, err := s.tiers.FindByID(ctx, user.PricingTierID)
		if err != nil {
			return domain.Policy{}, err
		}
		if tier != nil {
			return domain.Policy{RequestCost: tier.RequestCost, FreeDailyRequests: tier.FreeDailyRequests}, nil
		}
	}

	if user.CreatedByAppID != 0 {
		app, err := s.apps.FindByID(ctx, user.CreatedByAppID)
		if err != nil {
			return domain.Policy{}, err
		}
		if app != nil && app.PricingTierID != 0 {
			tier, err := s.tiers.FindByID(ctx, app.PricingTierID)
			if err != nil {
				return domain.Policy{}, err
			}
			if tier != nil {
				return domain.Policy{RequestCost: tier.RequestCost, FreeDailyRequests: tier.FreeDailyRequests}, nil
			}
		}
	}

	fallback := s.pricing.Get()
	return domain.Policy{RequestCost: fallback.RequestCost, FreeDailyRequests: fallback.FreeDailyRequests}, nil
}

// windowStart is local midnight: the billing window is "today".
func (s *Service) windowStart() time.Time {
	now := s.clock.Now()
	year, month, day := now.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, now.Location())
}
