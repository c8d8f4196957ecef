package dispatcher

//go:generate go run go.uber.org/mock/mockgen -source=./dispatcher.go -destination=../mocks/dispatcher_mock.go -package=mocks

import (
	"context"
	"fmt"
	"time"

	"quicktable/config"
	"quicktable/infras/kafka"
	"quicktable/internal/domains/notification/model"
)

// Event is the payload published for each delivered notification. Rendering
// the message into an email or push is the consumer's job.
type Event struct {
	NotificationID string    `json:"notification_id"`
	ReservationID  string    `json:"reservation_id"`
	UserID         string    `json:"user_id"`
	Type           string    `json:"type"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	ScheduledFor   time.Time `json:"scheduled_for"`
}

// Dispatcher delivers a notification to the outside world.
type Dispatcher interface {
	Send(ctx context.Context, notification model.Notification) error
}

type kafkaDispatcher struct {
	client kafka.Client
	cfg    *config.Config
}

func NewKafka(client kafka.Client, cfg *config.Config) Dispatcher {
	return &kafkaDispatcher{
		client: client,
		cfg:    cfg,
	}
}

// Send publishes the notification event keyed by user, so one user's
// notifications stay ordered within a partition.
func (d *kafkaDispatcher) Send(ctx context.Context, notification model.Notification) error {
	event := Event{
		NotificationID: notification.ID,
		ReservationID:  notification.ReservationID,
		UserID:         notification.UserID,
		Type:           notification.Type,
		Title:          notification.Title,
		Message:        notification.Message,
		ScheduledFor:   notification.ScheduledFor,
	}

	message := kafka.Message{
		Key:   notification.UserID,
		Value: event,
	}

	err := d.client.SendMessages(ctx, d.cfg.Kafka.Topics.Notifications, message)
	if err != nil {
		return fmt.Errorf("failed to dispatch notification %s: %w", notification.ID, err)
	}

	return nil
}
