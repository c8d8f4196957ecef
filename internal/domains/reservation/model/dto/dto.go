package dto

import (
	"time"

	"quicktable/internal/domains/reservation/model"
	"quicktable/shared"
	"quicktable/shared/constant"
	gDto "quicktable/shared/dto"
	gModel "quicktable/shared/model"
	"quicktable/shared/timezone"

	"github.com/google/uuid"
)

type CreateReservationRequest struct {
	TableID         string `json:"table_id"         validate:"required,uuid"`
	UserID          string `json:"user_id"          validate:"omitempty,uuid"`
	CustomerName    string `json:"customer_name"    validate:"required,max=100"`
	CustomerEmail   string `json:"customer_email"   validate:"required,email"`
	CustomerPhone   string `json:"customer_phone"   validate:"required,max=20"`
	Date            string `json:"date"             validate:"required,dateonly"`
	Time            string `json:"time"             validate:"required,clock"`
	Guests          int    `json:"number_of_guests" validate:"required,min=1"`
	SpecialRequests string `json:"special_requests" validate:"omitempty,max=500"`
}

func (c *CreateReservationRequest) ToModel(date time.Time, userID, actor string) model.Reservation {
	return model.Reservation{
		ID:              uuid.NewString(),
		Code:            model.NewCode(),
		UserID:          userID,
		TableID:         c.TableID,
		CustomerName:    c.CustomerName,
		CustomerEmail:   c.CustomerEmail,
		CustomerPhone:   c.CustomerPhone,
		Date:            date,
		Time:            c.Time,
		Guests:          c.Guests,
		Status:          model.StatusConfirmed,
		SpecialRequests: c.SpecialRequests,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  actor,
			ModifiedBy: actor,
		},
	}
}

type UpdateReservationRequest struct {
	CustomerName    string `db:"customer_name"    json:"customer_name"    validate:"omitempty,max=100"`
	CustomerEmail   string `db:"customer_email"   json:"customer_email"   validate:"omitempty,email"`
	CustomerPhone   string `db:"customer_phone"   json:"customer_phone"   validate:"omitempty,max=20"`
	SpecialRequests string `db:"special_requests" json:"special_requests" validate:"omitempty,max=500"`
}

type CancelReservationRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=255"`
}

type ReservationResponse struct {
	ID                 string     `json:"id"`
	Code               string     `json:"reservation_code"`
	UserID             string     `json:"user_id"`
	TableID            string     `json:"table_id"`
	CustomerName       string     `json:"customer_name"`
	CustomerEmail      string     `json:"customer_email"`
	CustomerPhone      string     `json:"customer_phone"`
	Date               string     `json:"reservation_date"`
	Time               string     `json:"reservation_time"`
	Guests             int        `json:"number_of_guests"`
	Status             string     `json:"status"`
	SpecialRequests    string     `json:"special_requests"`
	PointsEarned       int        `json:"loyalty_points_earned"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancelledBy        string     `json:"cancelled_by,omitempty"`
	gDto.Metadata
}

func (r *ReservationResponse) FromModel(mod model.Reservation) {
	r.ID = mod.ID
	r.Code = mod.Code
	r.UserID = mod.UserID
	r.TableID = mod.TableID
	r.CustomerName = mod.CustomerName
	r.CustomerEmail = mod.CustomerEmail
	r.CustomerPhone = mod.CustomerPhone
	r.Date = mod.Date.Format(constant.DateOnlyFormat)
	r.Time = mod.Time
	r.Guests = mod.Guests
	r.Status = mod.Status
	r.SpecialRequests = mod.SpecialRequests
	r.PointsEarned = mod.PointsEarned
	r.CancellationReason = mod.CancellationReason
	r.CancelledAt = mod.CancelledAt
	r.CancelledBy = mod.CancelledBy
	r.Metadata.FromModel(mod.Metadata)
}

type GetReservationsResponse struct {
	Reservations []ReservationResponse `json:"reservations"`
	TotalPage    int                   `json:"total_page"`
	TotalData    int                   `json:"total_data"`
}

func (r *GetReservationsResponse) FromModels(models []model.Reservation, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Reservations = make([]ReservationResponse, len(models))
	for i, mod := range models {
		r.Reservations[i].FromModel(mod)
	}
}
