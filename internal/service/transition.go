package service

import "github.com/campustrade/backend/internal/model"

// CanTransition reports whether an appointment status may move from cur to
// next. Writing the current status back is always a no-op and allowed, which
// keeps repeated cancels idempotent. PENDING may jump straight to COMPLETED
// for meetups that close without an explicit confirmation step. COMPLETED is
// terminal.
func CanTransition(cur, next model.AppointmentStatus) bool {
	if cur == next {
		return true
	}
	switch cur {
	case model.AppointmentStatusPending:
		return next == model.AppointmentStatusConfirmed ||
			next == model.AppointmentStatusCompleted ||
			next == model.AppointmentStatusCancelled
	case model.AppointmentStatusConfirmed:
		return next == model.AppointmentStatusCompleted ||
			next == model.AppointmentStatusCancelled
	default:
		return false
	}
}
