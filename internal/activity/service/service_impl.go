package service

import (
	"context"
	"time"

	"github.com/gramwave/gramwave/internal/activity/domain"
	"github.com/gramwave/gramwave/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo repository.Repository[domain.ActivityRecord, *domain.ActivityRecord]
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo repository.Repository[domain.ActivityRecord, *domain.ActivityRecord]
}

func New(p Params) domain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("activity.service"),
		repo: p.Repo,
	}
}

func (s *Service) Open(ctx context.Context, p domain.OpenParams) (*domain.ActivityRecord, error) {
	record := domain.ActivityRecord{
		APIRef:         p.Ref,
		Endpoint:       p.Endpoint,
		RequestHeaders: datatypes.JSONMap(p.Headers),
		RequestData:    p.Payload,
	}
	if err := s.repo.Save(ctx, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *Service) Finalize(ctx context.Context, ref string, p domain.FinalizeParams) error {
	// A fixed field set keyed by api_ref: retries overwrite with identical
	// values, so the stored record converges no matter how often this runs.
	updates := map[string]any{
		"response_data": p.ResponseData,
		"cost":          p.Cost,
	}
	if p.Headers != nil {
		updates["request_headers"] = datatypes.JSONMap(p.Headers)
	}
	if p.ActorID != nil {
		updates["created_by_id"] = *p.ActorID
	}

	return s.db.WithContext(ctx).
		Model(&domain.ActivityRecord{}).
		Where("api_ref = ?", ref).
		Updates(updates).Error
}

func (s *Service) CountForUserSince(ctx context.Context, userID int64, since time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&domain.ActivityRecord{}).
		Where("created_by_id = ? AND created_at >= ?", userID, since).
		Count(&count).Error
	return count, err
}

func (s *Service) GetByRef(ctx context.Context, ref string) (*domain.ActivityRecord, error) {
	return s.repo.Get(ctx, repository.Filter{"api_ref": ref})
}
