package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "PENDING"
	AppointmentStatusConfirmed AppointmentStatus = "CONFIRMED"
	AppointmentStatusCompleted AppointmentStatus = "COMPLETED"
	AppointmentStatusCancelled AppointmentStatus = "CANCELLED"
)

// ValidAppointmentStatus reports whether s is one of the known appointment statuses.
func ValidAppointmentStatus(s AppointmentStatus) bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusConfirmed, AppointmentStatusCompleted, AppointmentStatusCancelled:
		return true
	}
	return false
}

// Appointment is a buyer-seller meeting over an item and a half-open
// [StartTime, EndTime) interval. SellerUID is copied from the item at
// creation time and never changes afterwards.
type Appointment struct {
	ID        string            `gorm:"primaryKey;size:36"`
	ItemID    string            `gorm:"column:item_id;size:36;index;not null"`
	SellerUID string            `gorm:"column:seller_uid;size:128;index;not null"`
	BuyerUID  string            `gorm:"column:buyer_uid;size:128;index;not null"`
	StartTime time.Time         `gorm:"not null;index"`
	EndTime   time.Time         `gorm:"not null"`
	Status    AppointmentStatus `gorm:"size:32;not null;index"`
	Location  string            `gorm:"size:255"`
	Notes     string            `gorm:"size:500"`
	CreatedAt time.Time         `gorm:"autoCreateTime"`
	UpdatedAt time.Time         `gorm:"autoUpdateTime"`
}

func (Appointment) TableName() string {
	return "appointments"
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = AppointmentStatusPending
	}
	return nil
}

// Overlaps reports whether [s1,e1) and [s2,e2) intersect.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}
