package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"fmt"
	"quicktable/infras/otel"
	"quicktable/infras/postgres"
	"quicktable/internal/domains/table/model"
	"quicktable/shared/constant"
	gDto "quicktable/shared/dto"
	"quicktable/shared/logger"
	gRepo "quicktable/shared/repository"
)

type StatusCount struct {
	Status string `db:"status"`
	Count  int    `db:"count"`
}

type Table interface {
	Insert(ctx context.Context, model model.Table) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Table, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Table, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	Delete(ctx context.Context, filter gDto.FilterGroup) error
	CountByStatus(ctx context.Context) ([]StatusCount, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Table]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Table {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Table](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

func (repo *repositoryImpl) CountByStatus(ctx context.Context) ([]StatusCount, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".table.CountByStatus")
	defer scope.End()

	query := fmt.Sprintf("SELECT status, COUNT(id) AS count FROM %s GROUP BY status", model.TableName)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	var counts []StatusCount

	err := repo.db.Read.SelectContext(ctx, &counts, query)
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return nil, fmt.Errorf("failed to count tables by status: %w", err)
	}

	return counts, nil
}
