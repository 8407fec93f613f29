package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/ptr"
)

const (
	defaultGatewayTimeout  = 10 * time.Second
	defaultConfirmAttempts = 3
	defaultConfirmBackoff  = 20 * time.Millisecond
	referencePrefix        = "APT-"
)

// Options настройки движка сверки
type Options struct {
	// GatewayTimeout ограничение на вызов шлюза при открытии платежа
	GatewayTimeout time.Duration
	// ConfirmAttempts число попыток подтвердить бронирование при конфликте версий
	ConfirmAttempts int
	// ConfirmBackoff базовая пауза между попытками, растёт линейно
	ConfirmBackoff time.Duration
}

// Engine сводит уведомления шлюзов с платежами и бронированиями.
// Уведомления приходят хотя бы один раз и в любом порядке,
// поэтому каждое применение идемпотентно, а статус платежа движется только вперёд.
type Engine struct {
	bookings  BookingRepository
	payments  PaymentRepository
	txManager TransactionManager
	gateway   Gateway
	scheduler SettlementScheduler
	publisher EventPublisher
	machine   StateMachine
	metrics   Metrics
	logger    Logger
	opts      Options
}

// NewEngine создает движок сверки. scheduler и publisher могут быть nil.
func NewEngine(
	bookings BookingRepository,
	payments PaymentRepository,
	txManager TransactionManager,
	gateway Gateway,
	scheduler SettlementScheduler,
	publisher EventPublisher,
	machine StateMachine,
	metrics Metrics,
	logger Logger,
	opts Options,
) *Engine {
	if opts.GatewayTimeout <= 0 {
		opts.GatewayTimeout = defaultGatewayTimeout
	}
	if opts.ConfirmAttempts <= 0 {
		opts.ConfirmAttempts = defaultConfirmAttempts
	}
	if opts.ConfirmBackoff <= 0 {
		opts.ConfirmBackoff = defaultConfirmBackoff
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}

	return &Engine{
		bookings:  bookings,
		payments:  payments,
		txManager: txManager,
		gateway:   gateway,
		scheduler: scheduler,
		publisher: publisher,
		machine:   machine,
		metrics:   metrics,
		logger:    logger,
		opts:      opts,
	}
}

// GatewayName имя активного платёжного шлюза
func (e *Engine) GatewayName() string {
	return e.gateway.Name()
}

// Initiate открывает платёж по бронированию в статусе Scheduled.
// Pending запись создаётся до обращения к шлюзу, поэтому уведомление,
// пришедшее раньше ответа шлюза, находит платёж по reference.
func (e *Engine) Initiate(ctx context.Context, req InitiateRequest) (*domain.PaymentIntent, error) {
	e.logger.Info("Initiate: booking=%d, amount=%d %s, method=%s, gateway=%s",
		req.BookingID, req.Amount, req.Currency, req.Method, e.gateway.Name())

	// 1. Бронирование должно ожидать оплаты
	booking, err := e.bookings.GetByID(ctx, req.BookingID)
	if err != nil {
		e.logger.Warn("Initiate: failed to get booking id=%d: %v", req.BookingID, err)
		return nil, wrap("Initiate - get booking", err)
	}
	if booking.Status != domain.StatusScheduled {
		e.logger.Warn("Initiate: booking id=%d is %s", booking.ID, booking.Status)
		return nil, fmt.Errorf("%w: booking %d is %s", domain.ErrInvalidBookingState, booking.ID, booking.Status)
	}

	// 2. Не больше одного активного платежа на бронирование
	existing, err := e.payments.GetActiveByBookingID(ctx, booking.ID)
	switch {
	case err == nil:
		e.logger.Warn("Initiate: booking id=%d already has payment id=%d (%s)", booking.ID, existing.ID, existing.Status)
		return nil, fmt.Errorf("%w: booking %d already has payment %d in status %s",
			domain.ErrDuplicatePayment, booking.ID, existing.ID, existing.Status)
	case !errors.Is(err, domain.ErrNotFound):
		e.logger.Error("Initiate: failed to get active payment for booking id=%d: %v", booking.ID, err)
		return nil, wrap("Initiate - get active payment", err)
	}

	// 3. Pending запись до вызова шлюза
	record, err := e.payments.Create(ctx, &domain.PaymentRecord{
		BookingID:   booking.ID,
		RequesterID: req.RequesterID,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Method:      req.Method,
		Reference:   newReference(),
		Status:      domain.PaymentPending,
	})
	if err != nil {
		e.logger.Warn("Initiate: failed to create payment for booking id=%d: %v", booking.ID, err)
		return nil, wrap("Initiate - create payment", err)
	}

	// 4. Вызов шлюза с ограничением по времени
	gwCtx, cancel := context.WithTimeout(ctx, e.opts.GatewayTimeout)
	resp, err := e.gateway.InitiatePayment(gwCtx, domain.GatewayPaymentRequest{
		Amount:    record.Amount,
		Currency:  record.Currency,
		Reference: record.Reference,
		Method:    record.Method,
		Metadata: map[string]string{
			"booking_id": fmt.Sprint(record.BookingID),
			"payment_id": fmt.Sprint(record.ID),
			"reference":  record.Reference,
		},
	})
	cancel()
	if err != nil {
		gwErr, label := classifyGatewayError(err)
		e.metrics.IncGatewayCall(e.gateway.Name(), label)
		e.logger.Error("Initiate: gateway %s failed for payment id=%d: %v", e.gateway.Name(), record.ID, err)
		e.failPending(ctx, record, err.Error())
		return nil, gwErr
	}
	e.metrics.IncGatewayCall(e.gateway.Name(), "ok")

	// 5. Привязываем идентификатор транзакции шлюза
	if resp.TransactionID != "" {
		if err := e.payments.AssignExternalID(ctx, record.ID, resp.TransactionID, resp.Payload); err != nil {
			// уведомление могло прийти раньше ответа и уже привязать тот же идентификатор
			current, getErr := e.payments.GetByID(ctx, record.ID)
			if getErr != nil || current.ExternalTransactionID == nil || *current.ExternalTransactionID != resp.TransactionID {
				e.logger.Error("Initiate: failed to assign transaction id=%s to payment id=%d: %v",
					resp.TransactionID, record.ID, err)
				return nil, wrap("Initiate - assign transaction id", err)
			}
			record = current
		}
		record.ExternalTransactionID = ptr.Ptr(resp.TransactionID)
	}

	// 6. Шлюзы без уведомлений подтверждаются отложенной задачей
	if resp.AutoSettleAfter > 0 {
		if err := e.scheduleSettlement(ctx, record, resp); err != nil {
			e.logger.Error("Initiate: failed to schedule settlement for payment id=%d: %v", record.ID, err)
			e.failPending(ctx, record, "settlement scheduling failed")
			return nil, fmt.Errorf("%w: schedule settlement: %v", domain.ErrGatewayUnavailable, err)
		}
	}

	status := record.Status

	// 7. Синхронный итог применяем сразу через общий путь сверки
	if resp.Status == domain.NotificationCompleted || resp.Status == domain.NotificationFailed {
		result, err := e.Reconcile(ctx, domain.Notification{
			GatewayTransactionID: resp.TransactionID,
			Reference:            record.Reference,
			Status:               resp.Status,
			Payload:              resp.Payload,
			Source:               domain.SourceGateway,
		})
		if err != nil {
			return nil, err
		}
		status = result.PaymentStatus
	}

	e.logger.Info("Initiate: payment id=%d ref=%s opened for booking id=%d, status=%s",
		record.ID, record.Reference, record.BookingID, status)

	return &domain.PaymentIntent{
		PaymentID:            record.ID,
		BookingID:            record.BookingID,
		Reference:            record.Reference,
		GatewayTransactionID: resp.TransactionID,
		RedirectURL:          resp.RedirectURL,
		Amount:               record.Amount,
		Currency:             record.Currency,
		Method:               record.Method,
		Status:               status,
	}, nil
}

// Reconcile применяет уведомление шлюза.
// Платёж и бронирование меняются в одной транзакции, события публикуются после фиксации.
// Повторное уведомление ничего не меняет, уведомление с более ранним статусом игнорируется.
func (e *Engine) Reconcile(ctx context.Context, n domain.Notification) (*Result, error) {
	e.logger.Info("Reconcile: tx=%s, ref=%s, status=%s, source=%s",
		n.GatewayTransactionID, n.Reference, n.Status, n.Source)

	if err := n.Validate(); err != nil {
		e.logger.Warn("Reconcile: invalid notification: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidNotification, err)
	}

	target := n.Status.PaymentStatus()

	var (
		result      *Result
		events      []outboundEvent
		finalized   bool
		lateCapture bool
	)

	// Поиск без блокировок: блокировки берутся в том же порядке, что при отмене и переносе,
	// сначала бронирование, затем платёж
	resolved, err := e.resolvePayment(ctx, n)
	if err == nil {
		err = e.txManager.Do(ctx, func(txCtx context.Context) error {
			result = &Result{PaymentID: resolved.ID, BookingID: resolved.BookingID}
			events = nil
			finalized = false
			lateCapture = false

			locked, err := e.bookings.GetByID(txCtx, resolved.BookingID)
			if err != nil {
				return err
			}
			result.BookingStatus = locked.Status

			record, err := e.payments.GetByID(txCtx, resolved.ID)
			if err != nil {
				return err
			}
			if err := e.attachTransaction(txCtx, record, n); err != nil {
				return err
			}

			// Шлюз списал средства по платежу, который мы уже закрыли сами
			if target == domain.PaymentCompleted && record.RefundFlagged() {
				result.PaymentStatus = record.Status
				result.Outcome = OutcomeDuplicate
				result.RefundRequired = true
				return nil
			}
			if target == domain.PaymentCompleted && record.FailedLocally() {
				if err := e.payments.FlagRefund(txCtx, record.ID, n.Payload); err != nil {
					return err
				}
				record.FailureReason = ptr.Ptr(domain.RefundFlagPrefix + *record.FailureReason)
				result.PaymentStatus = record.Status
				result.Outcome = OutcomeRefund
				result.RefundRequired = true
				lateCapture = true

				ev := domain.NewPaymentEvent(record, e.machine.Now())
				ev.RefundRequired = true
				events = append(events, outboundEvent{domain.EventPaymentCompleted, ev})
				return nil
			}

			applied := false
			if record.Status.CanTransitionTo(target) {
				if err := e.payments.UpdateStatus(txCtx, record.ID, record.Status, target, n.Payload, failureReason(n)); err != nil {
					return err
				}
				record.Status = target
				applied = true
				finalized = true
			}
			result.PaymentStatus = record.Status

			switch {
			case applied:
				result.Outcome = OutcomeApplied
			case record.Status == target:
				result.Outcome = OutcomeDuplicate
			default:
				result.Outcome = OutcomeStale
			}

			if applied && record.Status == domain.PaymentFailed {
				events = append(events, outboundEvent{domain.EventPaymentFailed, domain.NewPaymentEvent(record, e.machine.Now())})
			}

			if record.Status != domain.PaymentCompleted {
				return nil
			}

			// Завершённый платёж подтверждает бронирование, в том числе при повторе
			booking, confirmed, err := e.confirmBooking(txCtx, record.BookingID)
			switch {
			case errors.Is(err, domain.ErrInvalidTransition):
				result.RefundRequired = true
				result.BookingStatus = booking.Status
				if applied {
					result.Outcome = OutcomeRefund
					e.logger.Warn("Reconcile: payment id=%d completed for %s booking id=%d, refund required",
						record.ID, booking.Status, booking.ID)
				}
			case err != nil:
				return err
			default:
				result.BookingStatus = booking.Status
				result.BookingConfirmed = confirmed
				if confirmed {
					if !applied {
						result.Outcome = OutcomeRedriven
					}
					events = append(events, outboundEvent{domain.EventBookingConfirmed, domain.NewBookingEvent(booking, e.machine.Now())})
				}
			}

			if applied {
				ev := domain.NewPaymentEvent(record, e.machine.Now())
				ev.RefundRequired = result.RefundRequired
				events = append(events, outboundEvent{domain.EventPaymentCompleted, ev})
			}
			return nil
		})
	}

	if err != nil {
		if errors.Is(err, domain.ErrUnknownTransaction) {
			e.metrics.IncUnknownTransaction()
			e.metrics.IncReconciliation(OutcomeUnknown)
			e.logger.Warn("Reconcile: unknown transaction tx=%s ref=%s source=%s",
				n.GatewayTransactionID, n.Reference, n.Source)
			return nil, err
		}
		e.metrics.IncReconciliation(OutcomeError)
		e.logger.Error("Reconcile: failed to apply tx=%s ref=%s: %v", n.GatewayTransactionID, n.Reference, err)
		return nil, wrap("Reconcile", err)
	}

	e.metrics.IncReconciliation(result.Outcome)

	if lateCapture {
		e.logger.Warn("Reconcile: gateway captured payment id=%d after it was failed locally, booking id=%d is %s, refund required",
			result.PaymentID, result.BookingID, result.BookingStatus)
	}
	if finalized && n.Source != domain.SourceSettlementJob {
		e.cancelSettlement(ctx, result.PaymentID)
	}
	e.publish(ctx, events)

	e.logger.Info("Reconcile: payment id=%d is %s, booking id=%d is %s, outcome=%s",
		result.PaymentID, result.PaymentStatus, result.BookingID, result.BookingStatus, result.Outcome)
	return result, nil
}

// ReconfirmAfterReschedule повторно подтверждает перенесённое бронирование,
// если по нему уже есть завершённый платёж. Изменяет только b, сохраняет вызывающий.
func (e *Engine) ReconfirmAfterReschedule(ctx context.Context, b *domain.Booking) (bool, error) {
	record, err := e.payments.GetActiveByBookingID(ctx, b.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, wrap("ReconfirmAfterReschedule - get active payment", err)
	}
	if record.Status != domain.PaymentCompleted {
		return false, nil
	}

	changed, err := e.machine.ConfirmViaPayment(b)
	if err != nil {
		return false, err
	}
	if changed {
		e.logger.Info("ReconfirmAfterReschedule: booking id=%d confirmed by payment id=%d", b.ID, record.ID)
	}
	return changed, nil
}

// AbandonPending закрывает ожидающий платёж отменяемого бронирования.
// Возвращает активный платёж (nil, если его нет): pending переводится в failed,
// completed остаётся как есть и требует возврата.
// Вызывается внутри транзакции отмены, после фиксации нужен FinalizeAbandoned.
func (e *Engine) AbandonPending(ctx context.Context, bookingID int64) (*domain.PaymentRecord, error) {
	record, err := e.payments.GetActiveByBookingID(ctx, bookingID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("AbandonPending - get active payment", err)
	}

	if record.Status == domain.PaymentPending {
		reason := domain.LocalFailureReason("booking cancelled")
		if err := e.payments.UpdateStatus(ctx, record.ID, domain.PaymentPending, domain.PaymentFailed, nil, reason); err != nil {
			return nil, wrap("AbandonPending - update status", err)
		}
		record.Status = domain.PaymentFailed
		record.FailureReason = reason
	}

	return record, nil
}

// FinalizeAbandoned снимает задачу подтверждения и публикует payment.failed для платежа,
// закрытого AbandonPending
func (e *Engine) FinalizeAbandoned(ctx context.Context, record *domain.PaymentRecord) {
	if record == nil || record.Status != domain.PaymentFailed {
		return
	}
	e.cancelSettlement(ctx, record.ID)
	e.publish(ctx, []outboundEvent{{domain.EventPaymentFailed, domain.NewPaymentEvent(record, e.machine.Now())}})
}

// RedriveConfirmations подтверждает бронирования, оплата которых завершена,
// но подтверждение не было записано. Возвращает число подтверждённых.
func (e *Engine) RedriveConfirmations(ctx context.Context, limit int) (int, error) {
	records, err := e.payments.ListAwaitingConfirmation(ctx, uint64(limit))
	if err != nil {
		e.logger.Error("RedriveConfirmations: failed to list payments: %v", err)
		return 0, wrap("RedriveConfirmations - list payments", err)
	}

	confirmed := 0
	for _, record := range records {
		var booking *domain.Booking
		var changed bool

		err := e.txManager.Do(ctx, func(txCtx context.Context) error {
			var err error
			booking, changed, err = e.confirmBooking(txCtx, record.BookingID)
			return err
		})
		if err != nil {
			e.logger.Warn("RedriveConfirmations: booking id=%d for payment id=%d not confirmed: %v",
				record.BookingID, record.ID, err)
			continue
		}
		if !changed {
			continue
		}

		confirmed++
		e.metrics.IncReconciliation(OutcomeRedriven)
		e.publish(ctx, []outboundEvent{{domain.EventBookingConfirmed, domain.NewBookingEvent(booking, e.machine.Now())}})
	}

	if confirmed > 0 {
		e.logger.Info("RedriveConfirmations: confirmed %d of %d bookings", confirmed, len(records))
	}
	return confirmed, nil
}

// resolvePayment ищет платёж по идентификатору транзакции, затем по reference. Без блокировки.
func (e *Engine) resolvePayment(ctx context.Context, n domain.Notification) (*domain.PaymentRecord, error) {
	if n.GatewayTransactionID != "" {
		record, err := e.payments.GetByExternalID(ctx, n.GatewayTransactionID)
		if err == nil {
			return record, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}

	if n.Reference != "" {
		record, err := e.payments.GetByReference(ctx, n.Reference)
		if err == nil {
			return record, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w: tx=%q ref=%q", domain.ErrUnknownTransaction, n.GatewayTransactionID, n.Reference)
}

// attachTransaction привязывает идентификатор транзакции к заблокированному платежу,
// найденному по reference. Чужой идентификатор означает неизвестную транзакцию.
func (e *Engine) attachTransaction(ctx context.Context, record *domain.PaymentRecord, n domain.Notification) error {
	if n.GatewayTransactionID == "" {
		return nil
	}
	if record.ExternalTransactionID == nil {
		if err := e.payments.AssignExternalID(ctx, record.ID, n.GatewayTransactionID, nil); err != nil {
			return err
		}
		record.ExternalTransactionID = ptr.Ptr(n.GatewayTransactionID)
		return nil
	}
	if *record.ExternalTransactionID != n.GatewayTransactionID {
		return fmt.Errorf("%w: reference %s belongs to transaction %s, got %s",
			domain.ErrUnknownTransaction, record.Reference, *record.ExternalTransactionID, n.GatewayTransactionID)
	}
	return nil
}

// confirmBooking переводит бронирование в Confirmed, повторяя при конфликте версий
func (e *Engine) confirmBooking(ctx context.Context, bookingID int64) (*domain.Booking, bool, error) {
	var lastErr error

	for attempt := 1; attempt <= e.opts.ConfirmAttempts; attempt++ {
		booking, err := e.bookings.GetByID(ctx, bookingID)
		if err != nil {
			return nil, false, err
		}

		changed, err := e.machine.ConfirmViaPayment(booking)
		if err != nil || !changed {
			return booking, false, err
		}

		_, err = e.bookings.Update(ctx, booking)
		if err == nil {
			e.metrics.IncBookingTransition("confirmed")
			return booking, true, nil
		}
		if !errors.Is(err, domain.ErrPersistenceConflict) {
			return nil, false, err
		}

		lastErr = err
		e.logger.Warn("confirmBooking: conflict on booking id=%d, attempt %d/%d", bookingID, attempt, e.opts.ConfirmAttempts)

		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		case <-time.After(time.Duration(attempt) * e.opts.ConfirmBackoff):
		}
	}

	return nil, false, lastErr
}

func (e *Engine) scheduleSettlement(ctx context.Context, record *domain.PaymentRecord, resp *domain.GatewayPaymentResponse) error {
	if e.scheduler == nil {
		return errors.New("settlement scheduler is not configured")
	}

	job := domain.SettlementJob{
		PaymentID:            record.ID,
		GatewayTransactionID: resp.TransactionID,
		FireAt:               e.machine.Now().Add(resp.AutoSettleAfter),
	}
	if err := e.scheduler.ScheduleSettlement(ctx, job); err != nil {
		return err
	}

	e.metrics.IncSettlementJob("scheduled")
	e.logger.Info("Initiate: settlement of payment id=%d scheduled at %s", record.ID, job.FireAt.Format(time.RFC3339))
	return nil
}

func (e *Engine) cancelSettlement(ctx context.Context, paymentID int64) {
	if e.scheduler == nil {
		return
	}
	if err := e.scheduler.CancelSettlement(ctx, paymentID); err != nil {
		e.logger.Warn("cancelSettlement: payment id=%d: %v", paymentID, err)
		return
	}
	e.metrics.IncSettlementJob("cancelled")
}

// failPending переводит только что созданный платёж в failed, чтобы бронирование можно было оплатить снова.
// Итог на стороне шлюза неизвестен, поэтому причина помечается как локальная.
func (e *Engine) failPending(ctx context.Context, record *domain.PaymentRecord, reason string) {
	failure := domain.LocalFailureReason(reason)
	err := e.payments.UpdateStatus(ctx, record.ID, domain.PaymentPending, domain.PaymentFailed, nil, failure)
	if err != nil {
		e.logger.Error("Initiate: failed to mark payment id=%d as failed: %v", record.ID, err)
		return
	}
	record.Status = domain.PaymentFailed
	record.FailureReason = failure
}

type outboundEvent struct {
	key     string
	payload interface{}
}

func (e *Engine) publish(ctx context.Context, events []outboundEvent) {
	if e.publisher == nil {
		return
	}
	for _, ev := range events {
		if err := e.publisher.PublishJSON(ctx, ev.key, ev.payload); err != nil {
			e.logger.Warn("publish: failed to publish %s: %v", ev.key, err)
		}
	}
}

func classifyGatewayError(err error) (error, string) {
	switch {
	case errors.Is(err, domain.ErrGatewayTimeout), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", domain.ErrGatewayTimeout, err), "timeout"
	case errors.Is(err, domain.ErrGatewayUnavailable):
		return err, "unavailable"
	default:
		return fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err), "error"
	}
}

func failureReason(n domain.Notification) *string {
	if n.Status != domain.NotificationFailed {
		return nil
	}
	return ptr.Ptr("gateway reported failure via " + n.Source)
}

func newReference() string {
	return referencePrefix + uuid.NewString()
}

// wrap сохраняет доменные ошибки для errors.Is, остальные сводит к ErrInternal
func wrap(op string, err error) error {
	for _, target := range []error{
		domain.ErrNotFound,
		domain.ErrDuplicatePayment,
		domain.ErrPersistenceConflict,
		domain.ErrInvalidTransition,
		domain.ErrInvalidBookingState,
		domain.ErrUnknownTransaction,
		domain.ErrGatewayTimeout,
		domain.ErrGatewayUnavailable,
	} {
		if errors.Is(err, target) {
			return fmt.Errorf("reconciliation: %s: %w", op, err)
		}
	}
	return fmt.Errorf("%w: %s: %w", ErrInternal, op, err)
}

type nopMetrics struct{}

func (nopMetrics) IncReconciliation(string) {}
func (nopMetrics) IncUnknownTransaction() {}
func (nopMetrics) IncGatewayCall(string, string) {}
func (nopMetrics) IncSettlementJob(string) {}
func (nopMetrics) IncBookingTransition(string) {}
