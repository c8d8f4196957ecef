package model

import (
	"fmt"
	"time"

	rModel "quicktable/internal/domains/reservation/model"
	"quicktable/shared/model"

	"github.com/google/uuid"
)

const (
	TableName  = "notifications"
	EntityName = "notification"

	FieldID            = "id"
	FieldReservationID = "reservation_id"
	FieldUserID        = "user_id"
	FieldType          = "type"
	FieldScheduledFor  = "scheduled_for"
	FieldSent          = "sent"
	FieldSentAt        = "sent_at"
)

const (
	TypeReminder24h  = "REMINDER_24H"
	TypeReminder2h   = "REMINDER_2H"
	TypeConfirmation = "CONFIRMATION"
	TypeCancellation = "CANCELLATION"
)

// Notification is a pending or delivered message for a reservation. Unsent
// rows double as the outbox: lifecycle events are recorded here in the same
// transaction as the reservation write and delivered later by the sweep.
type Notification struct {
	ID            string     `db:"id"`
	ReservationID string     `db:"reservation_id"`
	UserID        string     `db:"user_id"`
	Type          string     `db:"type"`
	Title         string     `db:"title"`
	Message       string     `db:"message"`
	ScheduledFor  time.Time  `db:"scheduled_for"`
	Sent          bool       `db:"sent"`
	SentAt        *time.Time `db:"sent_at"`
	model.Metadata
}

func newNotification(res rModel.Reservation, kind, title, message string, scheduledFor, now time.Time) Notification {
	return Notification{
		ID:            uuid.NewString(),
		ReservationID: res.ID,
		UserID:        res.UserID,
		Type:          kind,
		Title:         title,
		Message:       message,
		ScheduledFor:  scheduledFor,
		Metadata: model.Metadata{
			CreatedAt:  now,
			ModifiedAt: now,
			CreatedBy:  res.UserID,
			ModifiedBy: res.UserID,
		},
	}
}

// NewConfirmation builds the confirmation event, scheduled for immediate
// delivery by the sweep.
func NewConfirmation(res rModel.Reservation, now time.Time) Notification {
	return newNotification(res, TypeConfirmation,
		"Reservation confirmed",
		fmt.Sprintf("Your reservation %s on %s at %s is confirmed.",
			res.Code, res.Date.Format("2006-01-02"), res.Time),
		now, now)
}

// NewCancellation builds the cancellation event, scheduled for immediate
// delivery by the sweep.
func NewCancellation(res rModel.Reservation, now time.Time) Notification {
	return newNotification(res, TypeCancellation,
		"Reservation cancelled",
		fmt.Sprintf("Your reservation %s on %s at %s has been cancelled.",
			res.Code, res.Date.Format("2006-01-02"), res.Time),
		now, now)
}

// BuildReminders builds the 24 hour and 2 hour reminders for a reservation.
// A reminder whose send time has already passed is not built at all.
func BuildReminders(res rModel.Reservation, now time.Time) ([]Notification, error) {
	startsAt, err := res.StartsAt()
	if err != nil {
		return nil, err
	}

	var reminders []Notification

	if at := startsAt.Add(-24 * time.Hour); at.After(now) {
		reminders = append(reminders, newNotification(res, TypeReminder24h,
			"Reservation tomorrow",
			fmt.Sprintf("Reminder: reservation %s tomorrow at %s.", res.Code, res.Time),
			at, now))
	}

	if at := startsAt.Add(-2 * time.Hour); at.After(now) {
		reminders = append(reminders, newNotification(res, TypeReminder2h,
			"Reservation in two hours",
			fmt.Sprintf("Reminder: reservation %s today at %s.", res.Code, res.Time),
			at, now))
	}

	return reminders, nil
}
