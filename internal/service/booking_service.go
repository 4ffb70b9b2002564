package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/campustrade/backend/internal/metrics"
	"github.com/campustrade/backend/internal/model"
	"github.com/campustrade/backend/internal/realtime"
	"github.com/campustrade/backend/internal/repository"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// AppointmentMailer dispatches a best-effort email for an appointment
// transition. kind is one of "created", "updated", "cancelled".
type AppointmentMailer interface {
	SendAppointment(ctx context.Context, kind string, appt *model.Appointment, item *model.Item) error
}

// AppointmentPatch carries the optional fields of an update request. Nil
// means "leave unchanged".
type AppointmentPatch struct {
	StartTime *time.Time
	EndTime   *time.Time
	Status    *model.AppointmentStatus
	Location  *string
	Notes     *string
}

// BookingService coordinates appointment booking with item lifecycle state.
// It is the only component allowed to flip item status as a side effect of
// appointment transitions, and the only one with cross-entity invariants.
type BookingService interface {
	RequestBooking(ctx context.Context, itemID, requesterUID string, startTime, endTime time.Time, location, notes string) (*model.Appointment, error)
	UpdateAppointment(ctx context.Context, id, actorUID string, patch AppointmentPatch) (*model.Appointment, error)
	CancelAppointment(ctx context.Context, id, actorUID string) (*model.Appointment, error)
	Get(ctx context.Context, id, uid string) (*model.Appointment, error)
	ListForUser(ctx context.Context, uid string, status model.AppointmentStatus, upcomingOnly bool) ([]model.Appointment, error)
	ListForItem(ctx context.Context, itemID, uid string) ([]model.Appointment, error)
}

type bookingService struct {
	apptRepo  repository.AppointmentRepository
	itemRepo  repository.ItemRepository
	notifRepo repository.NotificationRepository
	publisher realtime.Publisher
	mailer    AppointmentMailer
	log       zerolog.Logger
}

func NewBookingService(
	apptRepo repository.AppointmentRepository,
	itemRepo repository.ItemRepository,
	notifRepo repository.NotificationRepository,
	publisher realtime.Publisher,
	mailer AppointmentMailer,
	log zerolog.Logger,
) BookingService {
	return &bookingService{
		apptRepo:  apptRepo,
		itemRepo:  itemRepo,
		notifRepo: notifRepo,
		publisher: publisher,
		mailer:    mailer,
		log:       log,
	}
}

func (s *bookingService) RequestBooking(ctx context.Context, itemID, requesterUID string, startTime, endTime time.Time, location, notes string) (*model.Appointment, error) {
	now := time.Now()
	if !startTime.After(now) {
		metrics.IncBooking("rejected")
		return nil, fmt.Errorf("%w: appointment cannot be scheduled in the past", ErrInvalidTimeRange)
	}
	if !endTime.After(startTime) {
		metrics.IncBooking("rejected")
		return nil, fmt.Errorf("%w: end time must be after start time", ErrInvalidTimeRange)
	}

	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.IncBooking("rejected")
			return nil, fmt.Errorf("%w: item", ErrNotFound)
		}
		metrics.IncBooking("error")
		return nil, err
	}
	if item.Status != model.ItemStatusAvailable {
		metrics.IncBooking("conflict")
		return nil, fmt.Errorf("%w: item not available", ErrConflict)
	}
	if requesterUID == item.SellerUID {
		metrics.IncBooking("rejected")
		return nil, fmt.Errorf("%w: cannot book your own item", ErrInvalidOperation)
	}

	appt := &model.Appointment{
		ItemID:    itemID,
		SellerUID: item.SellerUID,
		BuyerUID:  requesterUID,
		StartTime: startTime,
		EndTime:   endTime,
		Status:    model.AppointmentStatusPending,
		Location:  location,
		Notes:     notes,
	}
	// Conflict check, appointment insert and item flip happen atomically
	// under the item row lock; the AVAILABLE check above only produces the
	// friendlier error ordering.
	if err := s.apptRepo.CreateWithReservation(ctx, appt); err != nil {
		switch {
		case errors.Is(err, repository.ErrItemUnavailable):
			metrics.IncBooking("conflict")
			return nil, fmt.Errorf("%w: item not available", ErrConflict)
		case errors.Is(err, repository.ErrSlotTaken):
			metrics.IncBooking("conflict")
			return nil, fmt.Errorf("%w: time slot already booked", ErrConflict)
		case errors.Is(err, gorm.ErrRecordNotFound):
			metrics.IncBooking("rejected")
			return nil, fmt.Errorf("%w: item", ErrNotFound)
		default:
			metrics.IncBooking("error")
			return nil, err
		}
	}

	metrics.IncBooking("success")
	s.afterBooking(ctx, appt, item)
	return appt, nil
}

// afterBooking runs the post-commit fan-out for a successful booking. Every
// hook is best effort and fault-isolated; failures are logged, never surfaced.
func (s *bookingService) afterBooking(ctx context.Context, appt *model.Appointment, item *model.Item) {
	s.publisher.Publish(realtime.TopicGlobal, realtime.EventItemStatusUpdated,
		ItemStatusPayload{ItemID: item.ID, Status: model.ItemStatusReserved})

	sellerNote, buyerNote := BookingNotifications(appt, item)
	s.createNotification(ctx, &sellerNote)
	s.createNotification(ctx, &buyerNote)

	s.publisher.Publish(realtime.UserTopic(appt.SellerUID), realtime.EventNotification, sellerNote)
	s.publisher.Publish(realtime.UserTopic(appt.BuyerUID), realtime.EventNotification, buyerNote)

	s.publisher.Publish(realtime.UserTopic(appt.SellerUID), realtime.EventAppointmentCreated, appt)
	s.publisher.Publish(realtime.UserTopic(appt.BuyerUID), realtime.EventAppointmentCreated, appt)

	s.sendMail("created", appt, item)
}

func (s *bookingService) UpdateAppointment(ctx context.Context, id, actorUID string, patch AppointmentPatch) (*model.Appointment, error) {
	appt, err := s.apptRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: appointment", ErrNotFound)
		}
		return nil, err
	}
	if actorUID != appt.SellerUID && actorUID != appt.BuyerUID {
		return nil, ErrForbidden
	}

	if patch.StartTime != nil || patch.EndTime != nil {
		newStart := appt.StartTime
		newEnd := appt.EndTime
		if patch.StartTime != nil {
			newStart = *patch.StartTime
		}
		if patch.EndTime != nil {
			newEnd = *patch.EndTime
		}
		now := time.Now()
		if !newStart.After(now) {
			return nil, fmt.Errorf("%w: appointment cannot be scheduled in the past", ErrInvalidTimeRange)
		}
		if !newEnd.After(newStart) {
			return nil, fmt.Errorf("%w: end time must be after start time", ErrInvalidTimeRange)
		}
		appt.StartTime = newStart
		appt.EndTime = newEnd
	}

	var itemStatus *model.ItemStatus
	prevStatus := appt.Status
	if patch.Status != nil {
		next := *patch.Status
		if !model.ValidAppointmentStatus(next) {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidOperation, next)
		}
		if !CanTransition(prevStatus, next) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, prevStatus, next)
		}
		appt.Status = next
		switch next {
		case model.AppointmentStatusCompleted:
			st := model.ItemStatusSold
			itemStatus = &st
		case model.AppointmentStatusCancelled:
			st := model.ItemStatusAvailable
			itemStatus = &st
		}
	}
	if patch.Location != nil {
		appt.Location = *patch.Location
	}
	if patch.Notes != nil {
		appt.Notes = *patch.Notes
	}

	if err := s.apptRepo.SaveWithItemStatus(ctx, appt, itemStatus); err != nil {
		return nil, err
	}
	metrics.IncAppointmentUpdate(string(appt.Status))

	item, itemErr := s.itemRepo.FindByID(ctx, appt.ItemID)
	if itemErr != nil {
		s.log.Warn().Err(itemErr).Str("item_id", appt.ItemID).Msg("load item for update fan-out")
	}

	if itemStatus != nil {
		s.publisher.Publish(realtime.TopicGlobal, realtime.EventItemStatusUpdated,
			ItemStatusPayload{ItemID: appt.ItemID, Status: *itemStatus})
	}

	title := appt.ItemID
	if item != nil {
		title = item.Title
	}
	note := UpdateNotification(appt, title, Counterparty(appt, actorUID))
	s.createNotification(ctx, &note)
	s.publisher.Publish(realtime.UserTopic(note.UserUID), realtime.EventNotification, note)

	s.publisher.Publish(realtime.UserTopic(appt.SellerUID), realtime.EventAppointmentUpdated, appt)
	s.publisher.Publish(realtime.UserTopic(appt.BuyerUID), realtime.EventAppointmentUpdated, appt)

	s.sendMail("updated", appt, item)
	return appt, nil
}

func (s *bookingService) CancelAppointment(ctx context.Context, id, actorUID string) (*model.Appointment, error) {
	appt, err := s.apptRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: appointment", ErrNotFound)
		}
		return nil, err
	}
	if actorUID != appt.SellerUID && actorUID != appt.BuyerUID {
		return nil, ErrForbidden
	}
	if !CanTransition(appt.Status, model.AppointmentStatusCancelled) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, appt.Status, model.AppointmentStatusCancelled)
	}

	appt.Status = model.AppointmentStatusCancelled
	available := model.ItemStatusAvailable
	if err := s.apptRepo.SaveWithItemStatus(ctx, appt, &available); err != nil {
		return nil, err
	}
	metrics.IncAppointmentUpdate(string(model.AppointmentStatusCancelled))

	s.publisher.Publish(realtime.TopicGlobal, realtime.EventItemStatusUpdated,
		ItemStatusPayload{ItemID: appt.ItemID, Status: model.ItemStatusAvailable})

	item, itemErr := s.itemRepo.FindByID(ctx, appt.ItemID)
	if itemErr != nil {
		s.log.Warn().Err(itemErr).Str("item_id", appt.ItemID).Msg("load item for cancel fan-out")
	}
	title := appt.ItemID
	if item != nil {
		title = item.Title
	}
	note := CancelNotification(appt, title, Counterparty(appt, actorUID))
	s.createNotification(ctx, &note)
	s.publisher.Publish(realtime.UserTopic(note.UserUID), realtime.EventNotification, note)

	// Cancellation intentionally sends no appointment-updated push; clients
	// learn about it from the notification and the item status broadcast.
	s.sendMail("cancelled", appt, item)
	return appt, nil
}

func (s *bookingService) Get(ctx context.Context, id, uid string) (*model.Appointment, error) {
	appt, err := s.apptRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: appointment", ErrNotFound)
		}
		return nil, err
	}
	if uid != appt.SellerUID && uid != appt.BuyerUID {
		return nil, ErrForbidden
	}
	return appt, nil
}

func (s *bookingService) ListForUser(ctx context.Context, uid string, status model.AppointmentStatus, upcomingOnly bool) ([]model.Appointment, error) {
	if status != "" && !model.ValidAppointmentStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidOperation, status)
	}
	return s.apptRepo.ListByUser(ctx, uid, status, upcomingOnly)
}

func (s *bookingService) ListForItem(ctx context.Context, itemID, uid string) ([]model.Appointment, error) {
	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: item", ErrNotFound)
		}
		return nil, err
	}
	if item.SellerUID != uid {
		return nil, ErrForbidden
	}
	return s.apptRepo.ListByItem(ctx, itemID)
}

func (s *bookingService) createNotification(ctx context.Context, n *model.Notification) {
	if err := s.notifRepo.Create(ctx, n); err != nil {
		s.log.Error().Err(err).Str("user_uid", n.UserUID).Str("type", n.Type).Msg("create notification")
	}
}

// sendMail dispatches the appointment email in the background. Failures are
// logged and counted, never propagated to the caller.
func (s *bookingService) sendMail(kind string, appt *model.Appointment, item *model.Item) {
	if s.mailer == nil || item == nil {
		return
	}
	apptCopy := *appt
	itemCopy := *item
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.mailer.SendAppointment(ctx, kind, &apptCopy, &itemCopy); err != nil {
			metrics.IncEmail(kind, "error")
			s.log.Error().Err(err).Str("kind", kind).Str("appointment_id", apptCopy.ID).Msg("send appointment email")
			return
		}
		metrics.IncEmail(kind, "ok")
	}()
}
