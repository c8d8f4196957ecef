package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"fmt"
	"quicktable/infras/otel"
	"quicktable/infras/postgres"
	"quicktable/internal/domains/notification/model"
	"quicktable/shared/constant"
	gDto "quicktable/shared/dto"
	"quicktable/shared/logger"
	gRepo "quicktable/shared/repository"
	"time"

	"github.com/jmoiron/sqlx"
)

type Notification interface {
	Insert(ctx context.Context, model model.Notification) error
	InsertTx(ctx context.Context, tx *sqlx.Tx, model model.Notification) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Notification, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Notification, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	Delete(ctx context.Context, filter gDto.FilterGroup) error
	ListDue(ctx context.Context, now time.Time, limit int) ([]model.Notification, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Notification]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Notification {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Notification](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

// ListDue returns unsent notifications whose scheduled time has arrived,
// oldest first.
func (repo *repositoryImpl) ListDue(ctx context.Context, now time.Time, limit int) ([]model.Notification, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".notification.ListDue")
	defer scope.End()

	query := fmt.Sprintf(
		"SELECT * FROM %s WHERE sent = FALSE AND scheduled_for <= $1 ORDER BY scheduled_for ASC LIMIT $2",
		model.TableName,
	)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	var models []model.Notification

	err := repo.db.Read.SelectContext(ctx, &models, query, now, limit)
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return nil, fmt.Errorf("failed to list due notifications: %w", err)
	}

	return models, nil
}
