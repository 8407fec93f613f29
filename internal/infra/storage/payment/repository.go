package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/pgerr"
	"github.com/m04kA/SMC-AppointmentService/pkg/psqlbuilder"
)

// activeBookingConstraint частичный уникальный индекс payments(booking_id) по статусам pending, completed
const activeBookingConstraint = "ux_payments_active_booking"

var paymentColumns = []string{
	"id",
	"booking_id",
	"requester_id",
	"amount",
	"currency",
	"method",
	"reference",
	"external_transaction_id",
	"status",
	"raw_gateway_payload",
	"failure_reason",
	"created_at",
	"updated_at",
}

// Repository репозиторий платежей
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория платежей
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает запись о платеже.
// Второй активный платеж по тому же бронированию отклоняется индексом (ErrActivePaymentExists).
func (r *Repository) Create(ctx context.Context, record *domain.PaymentRecord) (*domain.PaymentRecord, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("payments").
		Columns(
			"booking_id",
			"requester_id",
			"amount",
			"currency",
			"method",
			"reference",
			"external_transaction_id",
			"status",
			"raw_gateway_payload",
		).
		Values(
			record.BookingID,
			record.RequesterID,
			record.Amount,
			record.Currency,
			record.Method,
			record.Reference,
			record.ExternalTransactionID,
			record.Status,
			nullableBytes(record.RawGatewayPayload),
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&record.ID, &createdAt, &updatedAt)
	if err != nil {
		if constraint, ok := pgerr.UniqueViolation(err); ok {
			if constraint == activeBookingConstraint {
				return nil, ErrActivePaymentExists
			}
			return nil, ErrTransactionIDTaken
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %w", ErrExecQuery, err)
	}

	record.CreatedAt = createdAt.Time
	record.UpdatedAt = updatedAt.Time

	return record, nil
}

// GetByID получает платеж по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.PaymentRecord, error) {
	return r.getOne(ctx, "GetByID", squirrel.Eq{"id": id})
}

// GetByExternalID получает платеж по идентификатору транзакции шлюза.
// Внутри транзакции строка блокируется, что сериализует обработку уведомлений по одной транзакции.
func (r *Repository) GetByExternalID(ctx context.Context, externalID string) (*domain.PaymentRecord, error) {
	return r.getOne(ctx, "GetByExternalID", squirrel.Eq{"external_transaction_id": externalID})
}

// GetByReference получает платеж по локальной ссылке
func (r *Repository) GetByReference(ctx context.Context, reference string) (*domain.PaymentRecord, error) {
	return r.getOne(ctx, "GetByReference", squirrel.Eq{"reference": reference})
}

// GetActiveByBookingID получает pending или completed платеж бронирования
func (r *Repository) GetActiveByBookingID(ctx context.Context, bookingID int64) (*domain.PaymentRecord, error) {
	return r.getOne(ctx, "GetActiveByBookingID", squirrel.Eq{
		"booking_id": bookingID,
		"status":     paymentStatusStrings(domain.ActivePaymentStatuses),
	})
}

func (r *Repository) getOne(ctx context.Context, op string, where squirrel.Sqlizer) (*domain.PaymentRecord, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(paymentColumns...).
		From("payments").
		Where(where).
		OrderBy("id DESC").
		Limit(1)

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, op, err)
	}

	record, err := scanPayment(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s - scan payment: %w", ErrScanRow, op, err)
	}

	return record, nil
}

// ListByRequester получает историю платежей пациента, новые первыми
func (r *Repository) ListByRequester(ctx context.Context, filter domain.RequesterPaymentsFilter) ([]*domain.PaymentRecord, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(paymentColumns...).
		From("payments").
		Where(squirrel.Eq{"requester_id": filter.RequesterID}).
		OrderBy("created_at DESC", "id DESC")

	if filter.Status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.Limit > 0 {
		selectBuilder = selectBuilder.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		selectBuilder = selectBuilder.Offset(filter.Offset)
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListByRequester - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListByRequester - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanPayments(rows)
}

// ListAwaitingConfirmation получает завершённые платежи, чьи бронирования всё ещё в статусе scheduled
func (r *Repository) ListAwaitingConfirmation(ctx context.Context, limit uint64) ([]*domain.PaymentRecord, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	columns := make([]string, len(paymentColumns))
	for i, c := range paymentColumns {
		columns[i] = "p." + c
	}

	query, args, err := psqlbuilder.Select(columns...).
		From("payments p").
		Join("bookings b ON b.id = p.booking_id").
		Where(squirrel.Eq{
			"p.status": string(domain.PaymentCompleted),
			"b.status": string(domain.StatusScheduled),
		}).
		OrderBy("p.updated_at ASC").
		Limit(limit).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListAwaitingConfirmation - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListAwaitingConfirmation - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanPayments(rows)
}

// Stats считает платежи пациента: всего, успешные, неуспешные и сумму завершённых
func (r *Repository) Stats(ctx context.Context, requesterID int64) (*domain.PaymentStats, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"COUNT(*)",
		fmt.Sprintf("COUNT(*) FILTER (WHERE status = '%s')", domain.PaymentCompleted),
		fmt.Sprintf("COUNT(*) FILTER (WHERE status = '%s')", domain.PaymentFailed),
		fmt.Sprintf("COALESCE(SUM(amount) FILTER (WHERE status = '%s'), 0)", domain.PaymentCompleted),
	).
		From("payments").
		Where(squirrel.Eq{"requester_id": requesterID}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Stats - build select query: %v", ErrBuildQuery, err)
	}

	var stats domain.PaymentStats
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&stats.Total,
		&stats.Successful,
		&stats.Failed,
		&stats.CompletedAmount,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: Stats - scan row: %w", ErrScanRow, err)
	}

	return &stats, nil
}

// AssignExternalID записывает идентификатор транзакции шлюза.
// Идентификатор неизменяем: если он уже задан, возвращается ErrTransactionIDTaken.
func (r *Repository) AssignExternalID(ctx context.Context, id int64, externalID string, payload []byte) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	updateBuilder := psqlbuilder.Update("payments").
		Set("external_transaction_id", externalID).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "external_transaction_id": nil})

	if payload != nil {
		updateBuilder = updateBuilder.Set("raw_gateway_payload", nullableBytes(payload))
	}

	query, args, err := updateBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: AssignExternalID - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		if _, ok := pgerr.UniqueViolation(err); ok {
			return ErrTransactionIDTaken
		}
		return fmt.Errorf("%w: AssignExternalID - execute update: %w", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: AssignExternalID - get rows affected: %w", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrTransactionIDTaken
	}

	return nil
}

// UpdateStatus меняет статус платежа только если текущий статус равен from
func (r *Repository) UpdateStatus(
	ctx context.Context,
	id int64,
	from, to domain.PaymentStatus,
	payload []byte,
	failureReason *string,
) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	updateBuilder := psqlbuilder.Update("payments").
		Set("status", to).
		Set("failure_reason", failureReason).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "status": from})

	if payload != nil {
		updateBuilder = updateBuilder.Set("raw_gateway_payload", nullableBytes(payload))
	}

	query, args, err := updateBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		if constraint, ok := pgerr.UniqueViolation(err); ok && constraint == activeBookingConstraint {
			return ErrActivePaymentExists
		}
		return fmt.Errorf("%w: UpdateStatus - execute update: %w", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - get rows affected: %w", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrStatusChanged
	}

	return nil
}

// FlagRefund помечает локально закрытый платёж, по которому шлюз всё же списал средства.
// Статус остаётся failed, к причине добавляется RefundFlagPrefix.
func (r *Repository) FlagRefund(ctx context.Context, id int64, payload []byte) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	updateBuilder := psqlbuilder.Update("payments").
		Set("failure_reason", squirrel.Expr("? || failure_reason", domain.RefundFlagPrefix)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "status": domain.PaymentFailed}).
		Where(squirrel.Like{"failure_reason": domain.LocalFailurePrefix + "%"})

	if payload != nil {
		updateBuilder = updateBuilder.Set("raw_gateway_payload", nullableBytes(payload))
	}

	query, args, err := updateBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: FlagRefund - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: FlagRefund - execute update: %w", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: FlagRefund - get rows affected: %w", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrStatusChanged
	}

	return nil
}

func scanPayment(row interface{ Scan(dest ...interface{}) error }) (*domain.PaymentRecord, error) {
	var record domain.PaymentRecord
	var payload []byte
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&record.ID,
		&record.BookingID,
		&record.RequesterID,
		&record.Amount,
		&record.Currency,
		&record.Method,
		&record.Reference,
		&record.ExternalTransactionID,
		&record.Status,
		&payload,
		&record.FailureReason,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.RawGatewayPayload = payload
	record.CreatedAt = createdAt.Time
	record.UpdatedAt = updatedAt.Time

	return &record, nil
}

func scanPayments(rows *sql.Rows) ([]*domain.PaymentRecord, error) {
	records := make([]*domain.PaymentRecord, 0)

	for rows.Next() {
		record, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanPayments - scan row: %w", ErrScanRow, err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanPayments - rows error: %w", ErrScanRow, err)
	}

	return records, nil
}

// nullableBytes пустое тело ответа шлюза пишем как NULL
func nullableBytes(payload []byte) interface{} {
	if len(payload) == 0 {
		return nil
	}
	return payload
}

func paymentStatusStrings(statuses []domain.PaymentStatus) []string {
	result := make([]string, len(statuses))
	for i, s := range statuses {
		result[i] = string(s)
	}
	return result
}
