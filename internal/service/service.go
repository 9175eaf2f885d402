package service

import (
	"go.uber.org/zap"

	"peer-feedback/backend/config"
	"peer-feedback/backend/internal/repository"
	"peer-feedback/backend/pkg/metrics"
)

// Service 所有 Service 的聚合入口
type Service struct {
	FeedbackResponse FeedbackResponseService
	FeedbackSession  FeedbackSessionService
	Export           ExportService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	locker CascadeLocker,
	m *metrics.CascadeMetrics,
	logger *zap.Logger,
) *Service {
	return &Service{
		FeedbackResponse: NewFeedbackResponseService(&cfg.Feedback, repo, locker, m, logger),
		FeedbackSession:  NewFeedbackSessionService(repo, logger),
		Export:           NewExportService(repo, logger),
	}
}
