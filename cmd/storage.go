package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/m04kA/SMC-AppointmentService/internal/config"
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/storage/memory"
	paymentRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/payment"
	providerRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/provider"
	bookingsService "github.com/m04kA/SMC-AppointmentService/internal/service/bookings"
	paymentsService "github.com/m04kA/SMC-AppointmentService/internal/service/payments"
	providersService "github.com/m04kA/SMC-AppointmentService/internal/service/providers"
	"github.com/m04kA/SMC-AppointmentService/internal/service/reconciliation"
	bookAppointmentUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/book_appointment"
	getAvailableSlotsUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/get_available_slots"
	rescheduleAppointmentUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/reschedule_appointment"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
	"github.com/m04kA/SMC-AppointmentService/pkg/metrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/txmanager"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// Объединения интерфейсов потребителей: и Postgres, и memory реализации подходят под все
type (
	bookingStore interface {
		bookAppointmentUC.BookingRepository
		rescheduleAppointmentUC.BookingRepository
		getAvailableSlotsUC.BookingRepository
		bookingsService.BookingRepository
		reconciliation.BookingRepository
	}

	paymentStore interface {
		reconciliation.PaymentRepository
		paymentsService.PaymentRepository
	}

	providerStore interface {
		providersService.ProviderRepository
	}

	txManager interface {
		Do(ctx context.Context, fn func(ctx context.Context) error) error
	}
)

// storage репозитории выбранного хранилища
type storage struct {
	bookings  bookingStore
	payments  paymentStore
	providers providerStore
	txManager txManager
	// ping проверка доступности для /health, nil для memory
	ping func(ctx context.Context) error
	// close освобождает соединения
	close func()
}

// openStorage подключает Postgres или поднимает хранилище в памяти
func openStorage(cfg *config.Config, metricsCollector *metrics.Metrics, log *logger.Logger) (*storage, error) {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		return openMemory(cfg, log), nil
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Обёртка замеряет запросы, с nil метриками работает как прокси
	stopPoolStats := make(chan struct{})
	var wrappedDB *dbmetrics.DB
	if metricsCollector != nil {
		wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, stopPoolStats)
		log.Info("Database metrics collection started")
	} else {
		wrappedDB = dbmetrics.Wrap(db, nil)
	}

	return &storage{
		bookings:  bookingRepo.NewRepository(wrappedDB),
		payments:  paymentRepo.NewRepository(wrappedDB),
		providers: providerRepo.NewRepository(wrappedDB),
		txManager: txmanager.NewTransactionManager(wrappedDB),
		ping:      db.PingContext,
		close: func() {
			close(stopPoolStats)
			db.Close()
		},
	}, nil
}

func openMemory(cfg *config.Config, log *logger.Logger) *storage {
	store := memory.NewStore()

	// График по умолчанию: пн-пт 09:00-17:00
	hours := domain.WorkingHours{}
	for day := time.Monday; day <= time.Friday; day++ {
		hours[day] = domain.DaySchedule{
			IsOpen:    true,
			OpenTime:  types.TimeString("09:00"),
			CloseTime: types.TimeString("17:00"),
		}
	}
	for _, id := range cfg.Storage.SeedProviders {
		store.Providers().Put(context.Background(), &domain.Provider{
			ID:              id,
			Name:            fmt.Sprintf("Provider %d", id),
			ConsultationFee: domain.DefaultConsultationFee,
			Currency:        cfg.Payments.Currency,
			IsActive:        true,
			WorkingHours:    hours,
		})
	}

	log.Warn("Using in-memory storage, data is lost on restart (seeded providers: %v)", cfg.Storage.SeedProviders)

	return &storage{
		bookings:  store.Bookings(),
		payments:  store.Payments(),
		providers: store.Providers(),
		txManager: store.TxManager(),
		close:     func() {},
	}
}
