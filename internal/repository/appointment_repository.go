package repository

import (
	"context"
	"errors"
	"time"

	"github.com/campustrade/backend/internal/model"
	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrItemUnavailable means the item left AVAILABLE between the caller's
	// read and the locked re-check inside the reservation transaction.
	ErrItemUnavailable = errors.New("item not available")
	// ErrSlotTaken means an active appointment overlaps the requested interval.
	ErrSlotTaken = errors.New("time slot already booked")
)

var activeAppointmentStatuses = []model.AppointmentStatus{
	model.AppointmentStatusPending,
	model.AppointmentStatusConfirmed,
}

const reserveMaxAttempts = 3

type AppointmentRepository interface {
	FindByID(ctx context.Context, id string) (*model.Appointment, error)
	ListByUser(ctx context.Context, uid string, status model.AppointmentStatus, upcomingOnly bool) ([]model.Appointment, error)
	ListByItem(ctx context.Context, itemID string) ([]model.Appointment, error)
	ListActiveByItem(ctx context.Context, itemID string) ([]model.Appointment, error)
	CreateWithReservation(ctx context.Context, appt *model.Appointment) error
	SaveWithItemStatus(ctx context.Context, appt *model.Appointment, itemStatus *model.ItemStatus) error
	SetDB(db *gorm.DB)
}

type appointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) AppointmentRepository {
	return &appointmentRepository{db: db}
}

func (r *appointmentRepository) FindByID(ctx context.Context, id string) (*model.Appointment, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var a model.Appointment
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *appointmentRepository) ListByUser(ctx context.Context, uid string, status model.AppointmentStatus, upcomingOnly bool) ([]model.Appointment, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	q := r.db.WithContext(ctx).
		Where("seller_uid = ? OR buyer_uid = ?", uid, uid)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if upcomingOnly {
		q = q.Where("start_time >= ?", time.Now())
	}
	var list []model.Appointment
	if err := q.Order("start_time asc").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *appointmentRepository) ListByItem(ctx context.Context, itemID string) ([]model.Appointment, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.Appointment
	if err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("start_time asc").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *appointmentRepository) ListActiveByItem(ctx context.Context, itemID string) ([]model.Appointment, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.Appointment
	if err := r.db.WithContext(ctx).
		Where("item_id = ? AND status IN ?", itemID, activeAppointmentStatuses).
		Order("start_time asc").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// CreateWithReservation performs the booking write as one transaction: it
// locks the item row, re-checks availability, checks for an overlapping
// active appointment with half-open interval semantics, inserts the
// appointment and flips the item to RESERVED. Two concurrent bookings on the
// same item serialize on the row lock, so at most one can succeed.
func (r *appointmentRepository) CreateWithReservation(ctx context.Context, appt *model.Appointment) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	var lastErr error
	for attempt := 1; attempt <= reserveMaxAttempts; attempt++ {
		lastErr = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var item model.Item
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&item, "id = ?", appt.ItemID).Error; err != nil {
				return err
			}
			if item.Status != model.ItemStatusAvailable {
				return ErrItemUnavailable
			}

			// [s1,e1) and [s2,e2) overlap iff s1 < e2 AND s2 < e1.
			var overlapping int64
			if err := tx.Model(&model.Appointment{}).
				Where("item_id = ? AND status IN ? AND start_time < ? AND end_time > ?",
					appt.ItemID, activeAppointmentStatuses, appt.EndTime, appt.StartTime).
				Count(&overlapping).Error; err != nil {
				return err
			}
			if overlapping > 0 {
				return ErrSlotTaken
			}

			if err := tx.Create(appt).Error; err != nil {
				return err
			}
			return tx.Model(&model.Item{}).
				Where("id = ?", appt.ItemID).
				Update("status", model.ItemStatusReserved).Error
		})
		if lastErr == nil || !isSerializationFailure(lastErr) {
			return lastErr
		}
		time.Sleep(time.Duration(attempt) * 25 * time.Millisecond)
	}
	return lastErr
}

// SaveWithItemStatus writes the appointment and, when itemStatus is non-nil,
// the paired item status change in a single transaction.
func (r *appointmentRepository) SaveWithItemStatus(ctx context.Context, appt *model.Appointment, itemStatus *model.ItemStatus) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(appt).Error; err != nil {
			return err
		}
		if itemStatus == nil {
			return nil
		}
		return tx.Model(&model.Item{}).
			Where("id = ?", appt.ItemID).
			Update("status", *itemStatus).Error
	})
}

func (r *appointmentRepository) SetDB(db *gorm.DB) {
	r.db = db
}

// isSerializationFailure matches InnoDB deadlock (1213) and lock wait
// timeout (1205); only these are worth retrying.
func isSerializationFailure(err error) bool {
	var mysqlErr *mysql.MySQLError
	if !errors.As(err, &mysqlErr) {
		return false
	}
	return mysqlErr.Number == 1213 || mysqlErr.Number == 1205
}
