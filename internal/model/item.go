package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ItemStatus string

const (
	ItemStatusAvailable     ItemStatus = "AVAILABLE"
	ItemStatusReserved      ItemStatus = "RESERVED"
	ItemStatusSold          ItemStatus = "SOLD"
	ItemStatusPendingPickup ItemStatus = "PENDING_PICKUP"
)

// ValidItemStatus reports whether s is one of the known item statuses.
func ValidItemStatus(s ItemStatus) bool {
	switch s {
	case ItemStatusAvailable, ItemStatusReserved, ItemStatusSold, ItemStatusPendingPickup:
		return true
	}
	return false
}

type Item struct {
	ID          string     `gorm:"primaryKey;size:36"`
	SellerUID   string     `gorm:"column:seller_uid;size:128;index;not null"`
	Title       string     `gorm:"size:120;not null"`
	Description string     `gorm:"type:text;not null"`
	Price       uint       `gorm:"not null"`
	Category    string     `gorm:"size:64;index"`
	Condition   string     `gorm:"size:64"`
	Location    string     `gorm:"size:255"`
	Tags        string     `gorm:"size:512"`
	Images      string     `gorm:"type:text"`
	Status      ItemStatus `gorm:"size:32;not null;index"`
	CreatedAt   time.Time  `gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime"`
}

func (Item) TableName() string {
	return "items"
}

func (i *Item) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Status == "" {
		i.Status = ItemStatusAvailable
	}
	return nil
}
