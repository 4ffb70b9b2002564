package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/campustrade/backend/internal/model"
	"github.com/campustrade/backend/internal/realtime"
	"github.com/campustrade/backend/internal/repository"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// ItemInput carries the caller-editable item fields.
type ItemInput struct {
	Title       string
	Description string
	Price       uint
	Category    string
	Condition   string
	Location    string
	Tags        string
	Images      string
}

// ItemPatch is the optional-field variant used by Update. The Status field
// is the seller's direct edit path; it bypasses the booking coordinator and
// accepts any known status, including PENDING_PICKUP.
type ItemPatch struct {
	Title       *string
	Description *string
	Price       *uint
	Category    *string
	Condition   *string
	Location    *string
	Tags        *string
	Images      *string
	Status      *model.ItemStatus
}

type ItemService interface {
	Create(ctx context.Context, sellerUID string, in ItemInput) (*model.Item, error)
	Get(ctx context.Context, id string) (*model.Item, error)
	List(ctx context.Context, f repository.ItemFilter, limit, offset int) ([]model.Item, int64, error)
	ListBySeller(ctx context.Context, sellerUID string) ([]model.Item, error)
	Update(ctx context.Context, id, actorUID string, patch ItemPatch) (*model.Item, error)
	Delete(ctx context.Context, id, actorUID string) error
}

type itemService struct {
	repo      repository.ItemRepository
	apptRepo  repository.AppointmentRepository
	publisher realtime.Publisher
	log       zerolog.Logger
}

func NewItemService(repo repository.ItemRepository, apptRepo repository.AppointmentRepository, publisher realtime.Publisher, log zerolog.Logger) ItemService {
	return &itemService{repo: repo, apptRepo: apptRepo, publisher: publisher, log: log}
}

func (s *itemService) Create(ctx context.Context, sellerUID string, in ItemInput) (*model.Item, error) {
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	if sellerUID == "" {
		return nil, fmt.Errorf("%w: seller is required", ErrInvalidOperation)
	}
	if len(title) < 3 || len(title) > 120 {
		return nil, fmt.Errorf("%w: title must be 3-120 characters", ErrInvalidOperation)
	}
	if len(description) < 10 {
		return nil, fmt.Errorf("%w: description must be at least 10 characters", ErrInvalidOperation)
	}

	item := &model.Item{
		SellerUID:   sellerUID,
		Title:       title,
		Description: description,
		Price:       in.Price,
		Category:    strings.TrimSpace(in.Category),
		Condition:   strings.TrimSpace(in.Condition),
		Location:    strings.TrimSpace(in.Location),
		Tags:        strings.TrimSpace(in.Tags),
		Images:      in.Images,
		Status:      model.ItemStatusAvailable,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *itemService) Get(ctx context.Context, id string) (*model.Item, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: item", ErrNotFound)
		}
		return nil, err
	}
	return item, nil
}

func (s *itemService) List(ctx context.Context, f repository.ItemFilter, limit, offset int) ([]model.Item, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 12
	}
	if offset < 0 {
		offset = 0
	}
	if f.Status != "" && !model.ValidItemStatus(f.Status) {
		return nil, 0, fmt.Errorf("%w: unknown status %q", ErrInvalidOperation, f.Status)
	}
	return s.repo.List(ctx, f, limit, offset)
}

func (s *itemService) ListBySeller(ctx context.Context, sellerUID string) ([]model.Item, error) {
	return s.repo.ListBySeller(ctx, sellerUID)
}

func (s *itemService) Update(ctx context.Context, id, actorUID string, patch ItemPatch) (*model.Item, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: item", ErrNotFound)
		}
		return nil, err
	}
	if item.SellerUID != actorUID {
		return nil, ErrForbidden
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if len(title) < 3 || len(title) > 120 {
			return nil, fmt.Errorf("%w: title must be 3-120 characters", ErrInvalidOperation)
		}
		item.Title = title
	}
	if patch.Description != nil {
		description := strings.TrimSpace(*patch.Description)
		if len(description) < 10 {
			return nil, fmt.Errorf("%w: description must be at least 10 characters", ErrInvalidOperation)
		}
		item.Description = description
	}
	if patch.Price != nil {
		item.Price = *patch.Price
	}
	if patch.Category != nil {
		item.Category = strings.TrimSpace(*patch.Category)
	}
	if patch.Condition != nil {
		item.Condition = strings.TrimSpace(*patch.Condition)
	}
	if patch.Location != nil {
		item.Location = strings.TrimSpace(*patch.Location)
	}
	if patch.Tags != nil {
		item.Tags = strings.TrimSpace(*patch.Tags)
	}
	if patch.Images != nil {
		item.Images = *patch.Images
	}
	if patch.Status != nil {
		if !model.ValidItemStatus(*patch.Status) {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidOperation, *patch.Status)
		}
		item.Status = *patch.Status
	}

	if err := s.repo.Update(ctx, item); err != nil {
		return nil, err
	}
	if s.publisher != nil {
		s.publisher.Publish(realtime.TopicGlobal, realtime.EventItemUpdated, item)
	}
	return item, nil
}

// Delete removes an item unless an active appointment still references it.
func (s *itemService) Delete(ctx context.Context, id, actorUID string) error {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: item", ErrNotFound)
		}
		return err
	}
	if item.SellerUID != actorUID {
		return ErrForbidden
	}
	active, err := s.apptRepo.ListActiveByItem(ctx, id)
	if err != nil {
		return err
	}
	if len(active) > 0 {
		return fmt.Errorf("%w: item has active appointments", ErrConflict)
	}
	return s.repo.Delete(ctx, id)
}
