package activity

import (
	"github.com/gramwave/gramwave/internal/activity/domain"
	"github.com/gramwave/gramwave/internal/activity/service"
	"github.com/gramwave/gramwave/pkg/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("activity.service",
	fx.Provide(repository.ProvideStore[domain.ActivityRecord]),
	fx.Provide(service.New),
)
