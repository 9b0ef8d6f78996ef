package billing

import (
	appdomain "github.com/gramwave/gramwave/internal/application/domain"
	"github.com/gramwave/gramwave/internal/billing/domain"
	"github.com/gramwave/gramwave/internal/billing/service"
	"github.com/gramwave/gramwave/internal/cache"
	"github.com/gramwave/gramwave/pkg/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("billing.meter",
	fx.Provide(repository.ProvideStore[domain.PricingTier]),
	fx.Provide(repository.ProvideStore[appdomain.Application]),
	fx.Provide(cache.NewPolicyCache),
	fx.Provide(service.New),
)
