package service

import (
	"context"

	"github.com/campustrade/backend/internal/model"
	"github.com/campustrade/backend/internal/repository"
	"github.com/rs/zerolog"
)

type NotificationService interface {
	List(ctx context.Context, userUID string, unreadOnly bool, limit int) ([]model.Notification, int64, error)
	MarkRead(ctx context.Context, userUID, id string) error
	MarkAllRead(ctx context.Context, userUID string) error
}

type notificationService struct {
	repo repository.NotificationRepository
	log  zerolog.Logger
}

func NewNotificationService(repo repository.NotificationRepository, log zerolog.Logger) NotificationService {
	return &notificationService{repo: repo, log: log}
}

func (s *notificationService) List(ctx context.Context, userUID string, unreadOnly bool, limit int) ([]model.Notification, int64, error) {
	if userUID == "" {
		return nil, 0, nil
	}
	list, err := s.repo.ListByUser(ctx, userUID, unreadOnly, limit)
	if err != nil {
		return nil, 0, err
	}
	cnt, err := s.repo.CountUnread(ctx, userUID)
	if err != nil {
		return list, 0, err
	}
	return list, cnt, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userUID, id string) error {
	if userUID == "" || id == "" {
		return nil
	}
	return s.repo.MarkRead(ctx, id, userUID)
}

func (s *notificationService) MarkAllRead(ctx context.Context, userUID string) error {
	if userUID == "" {
		return nil
	}
	return s.repo.MarkAllRead(ctx, userUID)
}
