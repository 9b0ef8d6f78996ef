package user

import (
	"github.com/gramwave/gramwave/internal/user/domain"
	"github.com/gramwave/gramwave/internal/user/service"
	"github.com/gramwave/gramwave/pkg/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("user.service",
	fx.Provide(repository.ProvideStore[domain.User]),
	fx.Provide(service.New),
)
