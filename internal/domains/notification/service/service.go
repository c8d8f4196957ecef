package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks -mock_names=Notification=MockNotificationService

import (
	"context"
	"fmt"
	"time"

	"quicktable/config"
	"quicktable/infras/otel"
	"quicktable/internal/domains/notification/dispatcher"
	"quicktable/internal/domains/notification/model"
	"quicktable/internal/domains/notification/model/dto"
	"quicktable/internal/domains/notification/repository"
	rModel "quicktable/internal/domains/reservation/model"
	rRepo "quicktable/internal/domains/reservation/repository"
	"quicktable/shared"
	"quicktable/shared/constant"
	gDto "quicktable/shared/dto"
	"quicktable/shared/timezone"

	"github.com/rs/zerolog/log"
)

// sweepBatchSize caps how many due notifications a single sweep delivers.
// Leftovers are picked up by the next run.
const sweepBatchSize = 100

// sweepActor is recorded as the modifier on rows marked sent by the sweep.
const sweepActor = "notifier"

type Notification interface {
	ListByUser(ctx context.Context, userID string, params gDto.QueryParams) (dto.GetNotificationsResponse, error)
	ProcessDue(ctx context.Context, now time.Time) (int, error)
}

type serviceImpl struct {
	repo         repository.Notification
	reservations rRepo.Reservation
	dispatcher   dispatcher.Dispatcher
	cfg          *config.Config
	otel         otel.Otel
}

func New(repo repository.Notification, reservations rRepo.Reservation, dispatcher dispatcher.Dispatcher, cfg *config.Config, otel otel.Otel) Notification {
	return &serviceImpl{
		repo:         repo,
		reservations: reservations,
		dispatcher:   dispatcher,
		cfg:          cfg,
		otel:         otel,
	}
}

func (s *serviceImpl) ListByUser(ctx context.Context, userID string, params gDto.QueryParams) (res dto.GetNotificationsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ListByUser")
	defer scope.End()
	defer scope.TraceIfError(err)

	filter := gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldUserID,
				Value:    userID,
				Operator: gDto.FilterOperatorEq,
				Table:    model.TableName,
			},
		},
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count notifications")

		return res, fmt.Errorf("failed to count notifications: %w", err)
	}

	if params.SortBy == constant.Empty {
		params.SortBy = model.FieldScheduledFor
		params.SortDir = gDto.SortDirDesc
	}

	models, err := s.repo.GetAll(ctx, params, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get notifications")

		return res, fmt.Errorf("failed to get notifications: %w", err)
	}

	res.FromModels(models, total, params.Limit)

	return res, nil
}

// ProcessDue delivers due notifications and returns how many went out.
// A row is marked sent only after the dispatcher accepts it, so a failed
// delivery is retried on the next sweep. Duplicate sends are possible when
// the process dies between the two steps; consumers must tolerate that.
func (s *serviceImpl) ProcessDue(ctx context.Context, now time.Time) (sent int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ProcessDue")
	defer scope.End()
	defer scope.TraceIfError(err)

	due, err := s.repo.ListDue(ctx, now, sweepBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("failed to list due notifications")

		return 0, fmt.Errorf("failed to list due notifications: %w", err)
	}

	for _, notification := range due {
		if err := s.dispatcher.Send(ctx, notification); err != nil {
			log.Error().Err(err).Str("notification", notification.ID).Msg("failed to dispatch notification, will retry")

			continue
		}

		updatedFields := map[string]any{
			model.FieldSent:          true,
			model.FieldSentAt:        timezone.Now(),
			constant.FieldModifiedAt: timezone.Now(),
			constant.FieldModifiedBy: sweepActor,
		}

		if err := s.repo.Update(ctx, updatedFields, shared.FilterByID(notification.ID, model.FieldID, model.TableName)); err != nil {
			log.Error().Err(err).Str("notification", notification.ID).Msg("failed to mark notification sent")

			continue
		}

		s.flagReminderSent(ctx, notification)

		sent++
	}

	if sent > 0 {
		log.Info().Int("sent", sent).Msg("dispatched due notifications")
	}

	return sent, nil
}

// flagReminderSent mirrors reminder delivery onto the reservation row so the
// reservation itself records which reminders went out. Best effort: the
// notification row is already marked sent.
func (s *serviceImpl) flagReminderSent(ctx context.Context, notification model.Notification) {
	var field string

	switch notification.Type {
	case model.TypeReminder24h:
		field = rModel.FieldReminder24hSent
	case model.TypeReminder2h:
		field = rModel.FieldReminder2hSent
	default:
		return
	}

	updatedFields := map[string]any{
		field:                    true,
		constant.FieldModifiedAt: timezone.Now(),
		constant.FieldModifiedBy: sweepActor,
	}

	filter := shared.FilterByID(notification.ReservationID, rModel.FieldID, rModel.TableName)

	if err := s.reservations.Update(ctx, updatedFields, filter); err != nil {
		log.Error().Err(err).Str("reservation", notification.ReservationID).Msg("failed to flag reminder on reservation")
	}
}
