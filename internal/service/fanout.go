package service

import (
	"encoding/json"
	"fmt"

	"github.com/campustrade/backend/internal/model"
)

const (
	NotificationTypeAppointmentBooked    = "APPOINTMENT_BOOKED"
	NotificationTypeAppointmentUpdated   = "APPOINTMENT_UPDATED"
	NotificationTypeAppointmentCancelled = "APPOINTMENT_CANCELLED"
)

// ItemStatusPayload is the body of an item-status-updated event.
type ItemStatusPayload struct {
	ItemID string           `json:"itemId"`
	Status model.ItemStatus `json:"status"`
}

type appointmentMetadata struct {
	AppointmentID string `json:"appointmentId"`
	ItemID        string `json:"itemId"`
}

func metadataJSON(appointmentID, itemID string) string {
	raw, _ := json.Marshal(appointmentMetadata{AppointmentID: appointmentID, ItemID: itemID})
	return string(raw)
}

// Counterparty returns whichever of seller/buyer is not the actor.
func Counterparty(a *model.Appointment, actorUID string) string {
	if actorUID == a.SellerUID {
		return a.BuyerUID
	}
	return a.SellerUID
}

// BookingNotifications builds the two records produced by a successful
// booking, one per party, with role-specific message text.
func BookingNotifications(appt *model.Appointment, item *model.Item) (seller, buyer model.Notification) {
	meta := metadataJSON(appt.ID, item.ID)
	seller = model.Notification{
		UserUID:  appt.SellerUID,
		Type:     NotificationTypeAppointmentBooked,
		Title:    "New Appointment Request",
		Message:  fmt.Sprintf("A user has requested to view %q", item.Title),
		Metadata: meta,
	}
	buyer = model.Notification{
		UserUID:  appt.BuyerUID,
		Type:     NotificationTypeAppointmentBooked,
		Title:    "Appointment Request Sent",
		Message:  fmt.Sprintf("Your appointment request for %q has been sent to the seller", item.Title),
		Metadata: meta,
	}
	return seller, buyer
}

// UpdateNotification builds the record sent to the non-acting party after an
// appointment mutation.
func UpdateNotification(appt *model.Appointment, itemTitle, recipientUID string) model.Notification {
	return model.Notification{
		UserUID:  recipientUID,
		Type:     NotificationTypeAppointmentUpdated,
		Title:    "Appointment Updated",
		Message:  fmt.Sprintf("The appointment for %q has been updated", itemTitle),
		Metadata: metadataJSON(appt.ID, appt.ItemID),
	}
}

// CancelNotification builds the record sent to the non-acting party after a
// cancellation.
func CancelNotification(appt *model.Appointment, itemTitle, recipientUID string) model.Notification {
	return model.Notification{
		UserUID:  recipientUID,
		Type:     NotificationTypeAppointmentCancelled,
		Title:    "Appointment Cancelled",
		Message:  fmt.Sprintf("The appointment for %q has been cancelled", itemTitle),
		Metadata: metadataJSON(appt.ID, appt.ItemID),
	}
}
