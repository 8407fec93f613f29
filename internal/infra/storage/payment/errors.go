package payment

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

var (
	// ErrPaymentNotFound возвращается, когда платеж не найден
	ErrPaymentNotFound = fmt.Errorf("payment.repository: payment not found: %w", domain.ErrNotFound)

	// ErrActivePaymentExists возвращается, когда у бронирования уже есть pending или completed платеж
	ErrActivePaymentExists = fmt.Errorf("payment.repository: active payment already exists: %w", domain.ErrDuplicatePayment)

	// ErrTransactionIDTaken возвращается, когда external_transaction_id или reference уже заняты
	ErrTransactionIDTaken = fmt.Errorf("payment.repository: transaction id already recorded: %w", domain.ErrPersistenceConflict)

	// ErrStatusChanged возвращается, когда статус платежа изменился с момента чтения
	ErrStatusChanged = fmt.Errorf("payment.repository: payment status changed concurrently: %w", domain.ErrPersistenceConflict)

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("payment.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("payment.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("payment.repository: failed to scan row")
)
