package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	cancelBookingHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/cancel_booking"
	createBookingHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/create_booking"
	getAvailableSlotsHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_available_slots"
	getBookingHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_booking"
	getBookingStatsHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_booking_stats"
	getMyBookingsHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_my_bookings"
	getMyPaymentsHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_my_payments"
	getPaymentHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_payment"
	getPaymentStatsHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_payment_stats"
	getProviderBookingsHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_provider_bookings"
	getProviderProfileHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_provider_profile"
	getRecentBookingsHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_recent_bookings"
	getUpcomingBookingsHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_upcoming_bookings"
	healthHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/health"
	initiatePaymentHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/initiate_payment"
	intasendWebhookHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/intasend_webhook"
	rescheduleBookingHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/reschedule_booking"
	stripeWebhookHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/stripe_webhook"
	updateBookingStatusHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/update_booking_status"
	updateProviderProfileHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/update_provider_profile"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	"github.com/m04kA/SMC-AppointmentService/internal/config"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/cache/notifications"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/scheduler"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/intasend"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/simulated"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/stripegateway"
	bookingsService "github.com/m04kA/SMC-AppointmentService/internal/service/bookings"
	"github.com/m04kA/SMC-AppointmentService/internal/service/lifecycle"
	paymentsService "github.com/m04kA/SMC-AppointmentService/internal/service/payments"
	providersService "github.com/m04kA/SMC-AppointmentService/internal/service/providers"
	"github.com/m04kA/SMC-AppointmentService/internal/service/reconciliation"
	bookAppointmentUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/book_appointment"
	cancelAppointmentUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/cancel_appointment"
	getAvailableSlotsUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/get_available_slots"
	initiatePaymentUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/initiate_payment"
	reconcilePaymentUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/reconcile_payment"
	rescheduleAppointmentUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/reschedule_appointment"
	"github.com/m04kA/SMC-AppointmentService/internal/worker"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
	"github.com/m04kA/SMC-AppointmentService/pkg/metrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/mq"
)

// eventPublisher издатель доменных событий, nil если RabbitMQ выключен
type eventPublisher interface {
	PublishJSON(ctx context.Context, routingKey string, v interface{}) error
}

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-AppointmentService...")
	log.Info("Configuration loaded from config.toml (storage=%s, payments=%s)",
		cfg.Storage.Driver, cfg.Payments.Provider)

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаем хранилище
	store, err := openStorage(cfg, metricsCollector, log)
	if err != nil {
		log.Fatal("Failed to open storage: %v", err)
	}
	defer store.close()

	// Машина состояний бронирований
	location, err := cfg.Booking.Location()
	if err != nil {
		log.Fatal("Failed to load timezone %s: %v", cfg.Booking.Timezone, err)
	}
	machine := lifecycle.NewMachine(lifecycle.RealTimeProvider{}, cfg.Booking.CancellationGrace(), location)

	// Redis: кэш уведомлений и очередь отложенных подтверждений
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	notificationCache := notifications.New(rdb, time.Duration(cfg.Payments.NotificationCacheTTL)*time.Second)

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	settlementScheduler := scheduler.New(redisOpt, cfg.Redis.Queue, log)
	defer settlementScheduler.Close()
	log.Info("Redis initialized (addr=%s, queue=%s)", cfg.Redis.Addr, cfg.Redis.Queue)

	// RabbitMQ: события и входящие уведомления (если включен)
	var (
		publisher eventPublisher
		consumer  *mq.Consumer
	)
	if cfg.RabbitMQ.Enabled {
		mqPublisher, err := mq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			log.Fatal("Failed to connect publisher to RabbitMQ: %v", err)
		}
		defer mqPublisher.Close()
		publisher = mqPublisher

		consumer, err = mq.NewConsumer(
			cfg.RabbitMQ.URL,
			cfg.RabbitMQ.Exchange,
			cfg.RabbitMQ.NotificationQueue,
			[]string{worker.NotificationRoutingKey},
			cfg.RabbitMQ.Prefetch,
		)
		if err != nil {
			log.Fatal("Failed to connect consumer to RabbitMQ: %v", err)
		}
		defer consumer.Close()
		log.Info("RabbitMQ initialized (exchange=%s, queue=%s)", cfg.RabbitMQ.Exchange, cfg.RabbitMQ.NotificationQueue)
	} else {
		log.Warn("RabbitMQ disabled: domain events are not published")
	}

	// Инициализируем платёжный шлюз
	var (
		gateway       reconciliation.Gateway
		stripeGateway *stripegateway.Gateway
		intasendGW    *intasend.Client
	)
	switch cfg.Payments.Provider {
	case config.PaymentProviderStripe:
		stripeGateway = stripegateway.New(stripegateway.Config{
			SecretKey:     cfg.Stripe.SecretKey,
			WebhookSecret: cfg.Stripe.WebhookSecret,
		})
		gateway = stripeGateway
	case config.PaymentProviderIntaSend:
		intasendGW = intasend.NewClient(intasend.Config{
			BaseURL:     cfg.IntaSend.BaseURL,
			APIKey:      cfg.IntaSend.APIKey,
			CallbackURL: cfg.IntaSend.CallbackURL,
			SuccessURL:  cfg.IntaSend.SuccessURL,
			FailURL:     cfg.IntaSend.FailURL,
			Challenge:   cfg.IntaSend.Challenge,
			Timeout:     time.Duration(cfg.IntaSend.Timeout) * time.Second,
		}, log)
		gateway = intasendGW
	default:
		gateway = simulated.New(
			time.Duration(cfg.Payments.SettleAfter)*time.Second,
			cfg.Payments.SimulatedRedirectURL,
		)
	}
	log.Info("Payment gateway initialized (provider=%s)", gateway.Name())

	// Движок сверки платежей
	engine := reconciliation.NewEngine(
		store.bookings,
		store.payments,
		store.txManager,
		gateway,
		settlementScheduler,
		publisher,
		machine,
		metricsCollector,
		log,
		reconciliation.Options{
			GatewayTimeout: time.Duration(cfg.Payments.GatewayTimeout) * time.Second,
		},
	)

	// Инициализируем сервисы
	bookingSvc := bookingsService.NewService(store.bookings, machine, publisher, metricsCollector, log)
	providerSvc := providersService.NewService(store.providers, log)
	paymentSvc := paymentsService.NewService(store.payments, log)

	// Инициализируем use cases
	bookAppointmentUseCase := bookAppointmentUC.NewUseCase(
		store.bookings,
		store.providers,
		machine,
		publisher,
		metricsCollector,
		log,
	)
	cancelAppointmentUseCase := cancelAppointmentUC.NewUseCase(
		store.bookings,
		machine,
		engine,
		store.txManager,
		publisher,
		metricsCollector,
		log,
	)
	rescheduleAppointmentUseCase := rescheduleAppointmentUC.NewUseCase(
		store.bookings,
		machine,
		engine,
		store.txManager,
		publisher,
		metricsCollector,
		log,
	)
	getAvailableSlotsUseCase := getAvailableSlotsUC.NewUseCase(
		store.bookings,
		store.providers,
		getAvailableSlotsUC.Settings{
			SlotDurationMinutes:     cfg.Booking.DefaultDurationMinutes,
			MinBookingNoticeMinutes: cfg.Booking.MinNoticeMinutes,
			Location:                location,
		},
		log,
	)
	initiatePaymentUseCase := initiatePaymentUC.NewUseCase(store.bookings, store.providers, engine, log)
	reconcilePaymentUseCase := reconcilePaymentUC.NewUseCase(engine, notificationCache, log)

	// Инициализируем handlers
	createBooking := createBookingHandler.NewHandler(bookAppointmentUseCase, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	getMyBookings := getMyBookingsHandler.NewHandler(bookingSvc, log)
	getUpcomingBookings := getUpcomingBookingsHandler.NewHandler(bookingSvc, log)
	getRecentBookings := getRecentBookingsHandler.NewHandler(bookingSvc, log)
	getBookingStats := getBookingStatsHandler.NewHandler(bookingSvc, log)
	cancelBooking := cancelBookingHandler.NewHandler(cancelAppointmentUseCase, log)
	rescheduleBooking := rescheduleBookingHandler.NewHandler(rescheduleAppointmentUseCase, log)
	getProviderBookings := getProviderBookingsHandler.NewHandler(bookingSvc, log)
	updateBookingStatus := updateBookingStatusHandler.NewHandler(bookingSvc, log)
	getAvailableSlots := getAvailableSlotsHandler.NewHandler(getAvailableSlotsUseCase, log)
	getProviderProfile := getProviderProfileHandler.NewHandler(providerSvc, log)
	updateProviderProfile := updateProviderProfileHandler.NewHandler(providerSvc, log)
	initiatePayment := initiatePaymentHandler.NewHandler(initiatePaymentUseCase, log)
	getPayment := getPaymentHandler.NewHandler(paymentSvc, log)
	getMyPayments := getMyPaymentsHandler.NewHandler(paymentSvc, log)
	getPaymentStats := getPaymentStatsHandler.NewHandler(paymentSvc, log)

	checks := map[string]healthHandler.Checker{
		"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}
	if store.ping != nil {
		checks["postgres"] = store.ping
	}
	health := healthHandler.NewHandler(checks, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		r.Handle(cfg.Metrics.Path, metricsCollector.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	r.HandleFunc("/health", health.Handle).Methods(http.MethodGet)

	// ============================================================
	// WEBHOOKS (подлинность проверяет шлюз, без X-User-ID)
	// ============================================================

	webhooks := r.PathPrefix("/webhooks").Subrouter()
	if cfg.RateLimit.Enabled {
		webhooks.Use(middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, log).Middleware())
	}
	if stripeGateway != nil {
		stripeWebhook := stripeWebhookHandler.NewHandler(stripeGateway, reconcilePaymentUseCase, log)
		webhooks.HandleFunc("/stripe", stripeWebhook.Handle).Methods(http.MethodPost)
	}
	if intasendGW != nil {
		intasendWebhook := intasendWebhookHandler.NewHandler(intasendGW, reconcilePaymentUseCase, log)
		webhooks.HandleFunc("/intasend", intasendWebhook.Handle).Methods(http.MethodPost)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Профиль провайдера
	api.HandleFunc("/providers/{providerId}/profile", getProviderProfile.Handle).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Бронирования ---
	protected.HandleFunc("/bookings", createBooking.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/bookings", getMyBookings.Handle).Methods(http.MethodGet)
	// Сводки для кабинета регистрируются раньше маршрутов с {bookingId}
	protected.HandleFunc("/bookings/upcoming", getUpcomingBookings.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/recent", getRecentBookings.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/stats/overview", getBookingStats.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{bookingId}/cancel", cancelBooking.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/bookings/{bookingId}/reschedule", rescheduleBooking.Handle).Methods(http.MethodPut)

	// --- Платежи ---
	protected.HandleFunc("/bookings/{bookingId}/payments", initiatePayment.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/payments", getMyPayments.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/payments/stats/overview", getPaymentStats.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/payments/{paymentId}", getPayment.Handle).Methods(http.MethodGet)

	// --- Расписание провайдера ---
	protected.HandleFunc("/providers/{providerId}/available-slots", getAvailableSlots.Handle).Methods(http.MethodGet)

	// --- Управление (только сам провайдер) ---
	protected.HandleFunc("/providers/{providerId}/bookings", getProviderBookings.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/providers/{providerId}/bookings/{bookingId}/status", updateBookingStatus.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/providers/{providerId}/profile", updateProviderProfile.Handle).Methods(http.MethodPut)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Сервер задач подтверждения платежей
	settlementServer := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.Payments.SettlementConcurrency,
		Queues:      map[string]int{cfg.Redis.Queue: 1},
	})
	settlementMux := asynq.NewServeMux()
	worker.NewSettlementHandler(reconcilePaymentUseCase, log).Register(settlementMux)

	redriver := worker.NewRedriver(
		engine,
		time.Duration(cfg.Payments.RedriveInterval)*time.Second,
		cfg.Payments.RedriveBatch,
		log,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
		)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Server forced to shutdown: %v", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := settlementServer.Start(settlementMux); err != nil {
			return fmt.Errorf("settlement server: %w", err)
		}
		log.Info("Settlement worker started (queue=%s, concurrency=%d)", cfg.Redis.Queue, cfg.Payments.SettlementConcurrency)
		<-gctx.Done()
		settlementServer.Shutdown()
		return nil
	})

	g.Go(func() error {
		return redriver.Run(gctx)
	})

	if consumer != nil {
		g.Go(func() error {
			return worker.NewNotificationConsumer(consumer, reconcilePaymentUseCase, log).Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("Service stopped with error: %v", err)
	}

	log.Info("Server stopped gracefully")
}
