package service

import (
	"context"
	"strings"
	"time"

	"github.com/gramwave/gramwave/internal/auth/password"
	"github.com/gramwave/gramwave/internal/config"
	"github.com/gramwave/gramwave/internal/user/domain"
	"github.com/gramwave/gramwave/pkg/db"
	"github.com/gramwave/gramwave/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Repo    repository.Repository[domain.User, *domain.User]
	Pricing *config.PricingConfigHolder
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	repo    repository.Repository[domain.User, *domain.User]
	pricing *config.PricingConfigHolder
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("user.service"),
		repo:    p.Repo,
		pricing: p.Pricing,
	}
}

func (s *Service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, domain.ErrInvalidUsername
	}

	email := strings.TrimSpace(req.Email)
	if email != "" && !strings.Contains(email, "@") {
		return nil, domain.ErrInvalidEmail
	}

	if req.Password == "" {
		return nil, domain.ErrInvalidPassword
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Tokens:       s.pricing.Get().DefaultTokenGrant,
	}

	if err := s.repo.Save(ctx, &user); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrUsernameTaken
		}
		return nil, err
	}

	return &user, nil
}

func (s *Service) GetByUID(ctx context.Context, uid string) (*domain.User, error) {
	user, err := s.repo.GetNotDeleted(ctx, repository.Filter{"uid": uid})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}
	return user, nil
}

func (s *Service) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.repo.GetNotDeleted(ctx, repository.Filter{"username": username})
}

func (s *Service) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *Service) DebitTokens(ctx context.Context, userID int64, amount int64) error {
	if amount <= 0 {
		return nil
	}

	// Single guarded statement: balance check and decrement happen in one
	// round trip so concurrent debits against the same row cannot interleave.
	res := s.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ? AND tokens >= ?", userID, amount).
		UpdateColumns(map[string]any{
			"tokens":      gorm.Expr("tokens - ?", amount),
			"modified_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrInsufficientFunds
	}
	return nil
}
