package memory

import (
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

var (
	ErrBookingNotFound     = fmt.Errorf("memory.storage: booking not found: %w", domain.ErrNotFound)
	ErrSlotTaken           = fmt.Errorf("memory.storage: slot already taken: %w", domain.ErrPersistenceConflict)
	ErrVersionConflict     = fmt.Errorf("memory.storage: version conflict: %w", domain.ErrPersistenceConflict)
	ErrPaymentNotFound     = fmt.Errorf("memory.storage: payment not found: %w", domain.ErrNotFound)
	ErrActivePaymentExists = fmt.Errorf("memory.storage: active payment already exists: %w", domain.ErrDuplicatePayment)
	ErrTransactionIDTaken  = fmt.Errorf("memory.storage: transaction id already recorded: %w", domain.ErrPersistenceConflict)
	ErrStatusChanged       = fmt.Errorf("memory.storage: payment status changed concurrently: %w", domain.ErrPersistenceConflict)
	ErrProviderNotFound    = fmt.Errorf("memory.storage: provider not found: %w", domain.ErrNotFound)
)
