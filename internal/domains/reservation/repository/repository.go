package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"quicktable/infras/otel"
	"quicktable/infras/postgres"
	"quicktable/internal/domains/reservation/model"
	tableModel "quicktable/internal/domains/table/model"
	"quicktable/shared/constant"
	gDto "quicktable/shared/dto"
	"quicktable/shared/logger"
	gRepo "quicktable/shared/repository"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// ErrTableMissing is returned by InsertGuarded when the target table row does
// not exist.
var ErrTableMissing = errors.New("table does not exist")

// GuardFunc runs inside the booking transaction while the table row is
// locked. Returning an error aborts the insert and surfaces unchanged to the
// caller.
type GuardFunc func(table tableModel.Table, active []model.Reservation) error

// OutboxFunc records side-effect rows in the same transaction as the
// reservation write.
type OutboxFunc func(ctx context.Context, tx *sqlx.Tx) error

type Reservation interface {
	Insert(ctx context.Context, model model.Reservation) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Reservation, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Reservation, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	Delete(ctx context.Context, filter gDto.FilterGroup) error
	InsertGuarded(ctx context.Context, res model.Reservation, guard GuardFunc, outbox OutboxFunc) error
	ListActiveByDate(ctx context.Context, date string) ([]model.Reservation, error)
	ListActiveByTableDate(ctx context.Context, tableID, date string) ([]model.Reservation, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Reservation]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Reservation {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Reservation](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

// InsertGuarded inserts a reservation behind a row lock on its table. The
// locked table and that day's active reservations are handed to the guard;
// only when the guard passes are the reservation and its outbox rows written,
// all in one transaction. Concurrent writers of the same table queue on the
// row lock, so at most one of two colliding bookings can commit.
func (repo *repositoryImpl) InsertGuarded(ctx context.Context, res model.Reservation, guard GuardFunc, outbox OutboxFunc) (err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".reservation.InsertGuarded")
	defer scope.End()
	defer scope.TraceIfError(err)

	tx, err := repo.db.Write.BeginTxx(ctx, nil)
	if err != nil {
		logger.ErrorWithStack(err)

		return fmt.Errorf("failed to begin booking transaction: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				log.Error().Err(rbErr).Msg("failed to roll back booking transaction")
			}
		}
	}()

	lockQuery := fmt.Sprintf("SELECT * FROM %s WHERE id = $1 FOR UPDATE", tableModel.TableName)
	scope.SetAttribute(constant.OtelQueryAttributeKey, lockQuery)

	var table tableModel.Table

	err = tx.GetContext(ctx, &table, lockQuery, res.TableID)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrTableMissing

		return err
	}

	if err != nil {
		logger.ErrorWithStack(err)

		return fmt.Errorf("failed to lock table row: %w", err)
	}

	activeQuery := fmt.Sprintf(
		"SELECT * FROM %s WHERE table_id = $1 AND reservation_date = $2 AND status IN ('%s', '%s')",
		model.TableName, model.StatusPending, model.StatusConfirmed,
	)

	var active []model.Reservation

	err = tx.SelectContext(ctx, &active, activeQuery, res.TableID, res.Date.Format(constant.DateOnlyFormat))
	if err != nil {
		logger.ErrorWithStack(err)

		return fmt.Errorf("failed to load active reservations: %w", err)
	}

	if err = guard(table, active); err != nil {
		return err
	}

	if err = repo.InsertTx(ctx, tx, res); err != nil {
		return err
	}

	if outbox != nil {
		if err = outbox(ctx, tx); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		logger.ErrorWithStack(err)

		return fmt.Errorf("failed to commit booking transaction: %w", err)
	}

	return nil
}

func (repo *repositoryImpl) ListActiveByDate(ctx context.Context, date string) ([]model.Reservation, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".reservation.ListActiveByDate")
	defer scope.End()

	query := fmt.Sprintf(
		"SELECT * FROM %s WHERE reservation_date = $1 AND status IN ('%s', '%s')",
		model.TableName, model.StatusPending, model.StatusConfirmed,
	)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	var models []model.Reservation

	err := repo.db.Read.SelectContext(ctx, &models, query, date)
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return nil, fmt.Errorf("failed to list active reservations: %w", err)
	}

	return models, nil
}

func (repo *repositoryImpl) ListActiveByTableDate(ctx context.Context, tableID, date string) ([]model.Reservation, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".reservation.ListActiveByTableDate")
	defer scope.End()

	query := fmt.Sprintf(
		"SELECT * FROM %s WHERE table_id = $1 AND reservation_date = $2 AND status IN ('%s', '%s')",
		model.TableName, model.StatusPending, model.StatusConfirmed,
	)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	var models []model.Reservation

	err := repo.db.Read.SelectContext(ctx, &models, query, tableID, date)
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return nil, fmt.Errorf("failed to list active reservations for table: %w", err)
	}

	return models, nil
}
