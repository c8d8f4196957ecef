package dto

import (
	"time"

	"quicktable/internal/domains/notification/model"
	"quicktable/shared"
	gDto "quicktable/shared/dto"
)

type NotificationResponse struct {
	ID            string     `json:"id"`
	ReservationID string     `json:"reservation_id"`
	Type          string     `json:"type"`
	Title         string     `json:"title"`
	Message       string     `json:"message"`
	ScheduledFor  time.Time  `json:"scheduled_for"`
	Sent          bool       `json:"sent"`
	SentAt        *time.Time `json:"sent_at"`
	gDto.Metadata
}

func (r *NotificationResponse) FromModel(model model.Notification) {
	r.ID = model.ID
	r.ReservationID = model.ReservationID
	r.Type = model.Type
	r.Title = model.Title
	r.Message = model.Message
	r.ScheduledFor = model.ScheduledFor
	r.Sent = model.Sent
	r.SentAt = model.SentAt
	r.Metadata.FromModel(model.Metadata)
}

type GetNotificationsResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	TotalPage     int                    `json:"total_page"`
	TotalData     int                    `json:"total_data"`
}

func (r *GetNotificationsResponse) FromModels(models []model.Notification, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Notifications = make([]NotificationResponse, len(models))
	for i, mod := range models {
		r.Notifications[i].FromModel(mod)
	}
}
