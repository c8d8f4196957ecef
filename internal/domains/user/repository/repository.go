package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"quicktable/infras/otel"
	"quicktable/infras/postgres"
	"quicktable/internal/domains/user/model"
	"quicktable/shared/constant"
	gDto "quicktable/shared/dto"
	"quicktable/shared/logger"
	gRepo "quicktable/shared/repository"
)

// ErrUserMissing is returned by the counter updates when the user row does
// not exist.
var ErrUserMissing = errors.New("user does not exist")

type User interface {
	Insert(ctx context.Context, model model.User) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.User, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.User, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	Delete(ctx context.Context, filter gDto.FilterGroup) error
	AddPoints(ctx context.Context, id string, points int) (int, error)
	BumpStats(ctx context.Context, id string, total, completed, cancelled int) error
}

type repositoryImpl struct {
	gRepo.Repository[model.User]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) User {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.User](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

// AddPoints atomically adds to the loyalty balance and returns the new total.
// The increment happens in SQL, so concurrent awards never lose points.
func (repo *repositoryImpl) AddPoints(ctx context.Context, id string, points int) (int, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".user.AddPoints")
	defer scope.End()

	query := fmt.Sprintf(
		"UPDATE %s SET loyalty_points = loyalty_points + $1, modified_at = NOW() WHERE id = $2 RETURNING loyalty_points",
		model.TableName,
	)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	var balance int

	err := repo.db.Write.GetContext(ctx, &balance, query, points, id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrUserMissing
	}

	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return 0, fmt.Errorf("failed to add loyalty points: %w", err)
	}

	return balance, nil
}

// BumpStats atomically increments the reservation counters.
func (repo *repositoryImpl) BumpStats(ctx context.Context, id string, total, completed, cancelled int) error {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".user.BumpStats")
	defer scope.End()

	query := fmt.Sprintf(
		"UPDATE %s SET total_reservations = total_reservations + $1, completed_reservations = completed_reservations + $2, cancelled_reservations = cancelled_reservations + $3, modified_at = NOW() WHERE id = $4",
		model.TableName,
	)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	result, err := repo.db.Write.ExecContext(ctx, query, total, completed, cancelled, id)
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return fmt.Errorf("failed to bump reservation stats: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		return ErrUserMissing
	}

	return nil
}
