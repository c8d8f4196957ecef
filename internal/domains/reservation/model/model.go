package model

import (
	"fmt"
	"strings"
	"time"

	"quicktable/shared/model"
	"quicktable/shared/window"

	"github.com/google/uuid"
)

const (
	TableName  = "reservations"
	EntityName = "reservation"

	FieldID      = "id"
	FieldCode    = "reservation_code"
	FieldUserID  = "user_id"
	FieldTableID = "table_id"
	FieldDate    = "reservation_date"
	FieldTime    = "reservation_time"
	FieldStatus  = "status"

	FieldReminder24hSent = "reminder_sent_24h"
	FieldReminder2hSent  = "reminder_sent_2h"

	FieldPointsEarned       = "loyalty_points_earned"
	FieldCancellationReason = "cancellation_reason"
	FieldCancelledAt        = "cancelled_at"
	FieldCancelledBy        = "cancelled_by"
)

// Reservation statuses. Bookings made through Create are written CONFIRMED
// directly; PENDING exists for rows seeded by imports or manual staff entry,
// which Confirm promotes.
const (
	StatusPending   = "PENDING"
	StatusConfirmed = "CONFIRMED"
	StatusCompleted = "COMPLETED"
	StatusCancelled = "CANCELLED"
)

// PointsPerGuest is the loyalty award rate applied when a reservation
// completes.
const PointsPerGuest = 10

type Reservation struct {
	ID                 string     `db:"id"`
	Code               string     `db:"reservation_code"`
	UserID             string     `db:"user_id"`
	TableID            string     `db:"table_id"`
	CustomerName       string     `db:"customer_name"`
	CustomerEmail      string     `db:"customer_email"`
	CustomerPhone      string     `db:"customer_phone"`
	Date               time.Time  `db:"reservation_date"`
	Time               string     `db:"reservation_time"`
	Guests             int        `db:"number_of_guests"`
	Status             string     `db:"status"`
	SpecialRequests    string     `db:"special_requests"`
	PointsEarned       int        `db:"loyalty_points_earned"`
	Reminder24hSent    bool       `db:"reminder_sent_24h"`
	Reminder2hSent     bool       `db:"reminder_sent_2h"`
	CancellationReason string     `db:"cancellation_reason"`
	CancelledAt        *time.Time `db:"cancelled_at"`
	CancelledBy        string     `db:"cancelled_by"`
	model.Metadata
}

// Active reports whether the reservation still holds its table.
func (r Reservation) Active() bool {
	return r.Status == StatusPending || r.Status == StatusConfirmed
}

// Clock parses the stored HH:MM start time.
func (r Reservation) Clock() (window.Clock, error) {
	clock, err := window.ParseClock(r.Time)
	if err != nil {
		return 0, fmt.Errorf("reservation %s: %w", r.ID, err)
	}

	return clock, nil
}

// StartsAt anchors the start time onto the reservation date.
func (r Reservation) StartsAt() (time.Time, error) {
	clock, err := r.Clock()
	if err != nil {
		return time.Time{}, err
	}

	return clock.At(r.Date), nil
}

// NewCode derives a short human readable reservation code.
func NewCode() string {
	fragment := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))

	return "RES-" + fragment[:8]
}
