package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-AppointmentService/internal/service/lifecycle"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

var testNow = time.Date(2026, 5, 12, 10, 0, 0, 0, time.UTC)

type fixedClock struct{}

func (fixedClock) Now() time.Time { return testNow }

type fakeGateway struct {
	mu         sync.Mutex
	calls      int
	status     domain.NotificationStatus
	autoSettle time.Duration
	err        error
	lastRef    string
}

func (g *fakeGateway) Name() string { return "fake" }

func (g *fakeGateway) InitiatePayment(_ context.Context, req domain.GatewayPaymentRequest) (*domain.GatewayPaymentResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.lastRef = req.Reference
	if g.err != nil {
		return nil, g.err
	}
	status := g.status
	if status == "" {
		status = domain.NotificationPending
	}
	return &domain.GatewayPaymentResponse{
		TransactionID:   fmt.Sprintf("tx-%d", g.calls),
		RedirectURL:     "https://pay.example/" + req.Reference,
		Status:          status,
		AutoSettleAfter: g.autoSettle,
	}, nil
}

type fakeScheduler struct {
	mu        sync.Mutex
	jobs      map[int64]domain.SettlementJob
	cancelled []int64
}

func (s *fakeScheduler) ScheduleSettlement(_ context.Context, job domain.SettlementJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.jobs == nil {
		s.jobs = make(map[int64]domain.SettlementJob)
	}
	s.jobs[job.PaymentID] = job
	return nil
}

func (s *fakeScheduler) CancelSettlement(_ context.Context, paymentID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, paymentID)
	s.cancelled = append(s.cancelled, paymentID)
	return nil
}

type fakePublisher struct {
	mu   sync.Mutex
	keys []string
	last map[string]interface{}
}

func (p *fakePublisher) PublishJSON(_ context.Context, key string, v interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == nil {
		p.last = make(map[string]interface{})
	}
	p.keys = append(p.keys, key)
	p.last[key] = v
	return nil
}

func (p *fakePublisher) count(key string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, k := range p.keys {
		if k == key {
			n++
		}
	}
	return n
}

type fakeMetrics struct {
	nopMetrics
	mu       sync.Mutex
	outcomes map[string]int
	unknown  int
}

func (m *fakeMetrics) IncReconciliation(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.outcomes == nil {
		m.outcomes = make(map[string]int)
	}
	m.outcomes[outcome]++
}

func (m *fakeMetrics) IncUnknownTransaction() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unknown++
}

type fixture struct {
	store     *memory.Store
	engine    *Engine
	gateway   *fakeGateway
	scheduler *fakeScheduler
	publisher *fakePublisher
	metrics   *fakeMetrics
	booking   *domain.Booking
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:     memory.NewStore(),
		gateway:   &fakeGateway{},
		scheduler: &fakeScheduler{},
		publisher: &fakePublisher{},
		metrics:   &fakeMetrics{},
	}

	machine := lifecycle.NewMachine(fixedClock{}, 2*time.Hour, time.UTC)
	f.engine = NewEngine(
		f.store.Bookings(),
		f.store.Payments(),
		f.store.TxManager(),
		f.gateway,
		f.scheduler,
		f.publisher,
		machine,
		f.metrics,
		logger.NewNop(),
		Options{ConfirmBackoff: time.Millisecond},
	)

	start := testNow.Add(24 * time.Hour)
	booking, err := f.store.Bookings().Create(context.Background(), &domain.Booking{
		RequesterID:      1,
		ProviderID:       2,
		BookingDate:      time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC),
		StartTime:        types.NewTimeString(start),
		DurationMinutes:  30,
		ConsultationType: domain.ConsultationVideo,
		Status:           domain.StatusScheduled,
	})
	require.NoError(t, err)
	f.booking = booking

	return f
}

func (f *fixture) initiate(t *testing.T) *domain.PaymentIntent {
	t.Helper()
	intent, err := f.engine.Initiate(context.Background(), InitiateRequest{
		BookingID:   f.booking.ID,
		RequesterID: f.booking.RequesterID,
		Amount:      5000,
		Currency:    "USD",
		Method:      domain.MethodCard,
	})
	require.NoError(t, err)
	return intent
}

func (f *fixture) bookingStatus(t *testing.T) domain.BookingStatus {
	t.Helper()
	b, err := f.store.Bookings().GetByID(context.Background(), f.booking.ID)
	require.NoError(t, err)
	return b.Status
}

func (f *fixture) paymentStatus(t *testing.T, id int64) domain.PaymentStatus {
	t.Helper()
	p, err := f.store.Payments().GetByID(context.Background(), id)
	require.NoError(t, err)
	return p.Status
}

func completed(txID string) domain.Notification {
	return domain.Notification{
		GatewayTransactionID: txID,
		Status:               domain.NotificationCompleted,
		Source:               domain.SourceWebhook,
	}
}

func TestEngine_InitiateThenComplete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	intent := f.initiate(t)
	assert.Equal(t, domain.PaymentPending, intent.Status)
	assert.Equal(t, "tx-1", intent.GatewayTransactionID)
	assert.Contains(t, intent.RedirectURL, intent.Reference)
	assert.Equal(t, domain.StatusScheduled, f.bookingStatus(t))

	result, err := f.engine.Reconcile(ctx, completed("tx-1"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, result.Outcome)
	assert.True(t, result.BookingConfirmed)
	assert.Equal(t, domain.PaymentCompleted, f.paymentStatus(t, intent.PaymentID))
	assert.Equal(t, domain.StatusConfirmed, f.bookingStatus(t))

	assert.Equal(t, 1, f.publisher.count(domain.EventPaymentCompleted))
	assert.Equal(t, 1, f.publisher.count(domain.EventBookingConfirmed))
}

func TestEngine_DuplicateNotificationIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	intent := f.initiate(t)

	_, err := f.engine.Reconcile(ctx, completed(intent.GatewayTransactionID))
	require.NoError(t, err)

	result, err := f.engine.Reconcile(ctx, completed(intent.GatewayTransactionID))
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, result.Outcome)
	assert.False(t, result.BookingConfirmed)
	assert.Equal(t, domain.StatusConfirmed, f.bookingStatus(t))

	assert.Equal(t, 1, f.publisher.count(domain.EventPaymentCompleted))
	assert.Equal(t, 1, f.publisher.count(domain.EventBookingConfirmed))
}

func TestEngine_ConcurrentDuplicates(t *testing.T) {
	f := newFixture(t)
	intent := f.initiate(t)

	const n = 16
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.Reconcile(context.Background(), completed(intent.GatewayTransactionID))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, f.metrics.outcomes[OutcomeApplied])
	assert.Equal(t, n-1, f.metrics.outcomes[OutcomeDuplicate])
	assert.Equal(t, 1, f.publisher.count(domain.EventBookingConfirmed))
	assert.Equal(t, domain.StatusConfirmed, f.bookingStatus(t))
}

func TestEngine_NoRegression(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	intent := f.initiate(t)

	_, err := f.engine.Reconcile(ctx, completed(intent.GatewayTransactionID))
	require.NoError(t, err)

	result, err := f.engine.Reconcile(ctx, domain.Notification{
		GatewayTransactionID: intent.GatewayTransactionID,
		Status:               domain.NotificationFailed,
		Source:               domain.SourceWebhook,
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeStale, result.Outcome)
	assert.Equal(t, domain.PaymentCompleted, f.paymentStatus(t, intent.PaymentID))
	assert.Equal(t, domain.StatusConfirmed, f.bookingStatus(t))
	assert.Zero(t, f.publisher.count(domain.EventPaymentFailed))
}

func TestEngine_FailedPaymentLeavesBookingScheduled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	intent := f.initiate(t)

	result, err := f.engine.Reconcile(ctx, domain.Notification{
		GatewayTransactionID: intent.GatewayTransactionID,
		Status:               domain.NotificationFailed,
		Source:               domain.SourceWebhook,
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, result.Outcome)
	assert.Equal(t, domain.PaymentFailed, f.paymentStatus(t, intent.PaymentID))
	assert.Equal(t, domain.StatusScheduled, f.bookingStatus(t))
	assert.Equal(t, 1, f.publisher.count(domain.EventPaymentFailed))

	// после неуспешной попытки можно оплатить снова
	second := f.initiate(t)
	assert.NotEqual(t, intent.PaymentID, second.PaymentID)
}

func TestEngine_UnknownTransaction(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Reconcile(context.Background(), completed("nobody-knows"))
	assert.ErrorIs(t, err, domain.ErrUnknownTransaction)
	assert.Equal(t, 1, f.metrics.unknown)
	assert.Equal(t, domain.StatusScheduled, f.bookingStatus(t))
}

func TestEngine_InvalidNotification(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Reconcile(context.Background(), domain.Notification{Status: domain.NotificationCompleted})
	assert.ErrorIs(t, err, ErrInvalidNotification)
}

func TestEngine_ReferenceFallbackAttachesTransactionID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// уведомление пришло раньше, чем ответ шлюза записал идентификатор транзакции
	record, err := f.store.Payments().Create(ctx, &domain.PaymentRecord{
		BookingID: f.booking.ID,
		Amount:    5000,
		Currency:  "USD",
		Method:    domain.MethodCard,
		Reference: "APT-early",
		Status:    domain.PaymentPending,
	})
	require.NoError(t, err)

	result, err := f.engine.Reconcile(ctx, domain.Notification{
		GatewayTransactionID: "tx-early",
		Reference:            "APT-early",
		Status:               domain.NotificationCompleted,
		Source:               domain.SourceWebhook,
	})
	require.NoError(t, err)
	assert.Equal(t, record.ID, result.PaymentID)

	stored, err := f.store.Payments().GetByExternalID(ctx, "tx-early")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentCompleted, stored.Status)
	assert.Equal(t, domain.StatusConfirmed, f.bookingStatus(t))
}

func TestEngine_CompletedForCancelledBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	intent := f.initiate(t)

	b, err := f.store.Bookings().GetByID(ctx, f.booking.ID)
	require.NoError(t, err)
	b.Status = domain.StatusCancelled
	_, err = f.store.Bookings().Update(ctx, b)
	require.NoError(t, err)

	result, err := f.engine.Reconcile(ctx, completed(intent.GatewayTransactionID))
	require.NoError(t, err)
	assert.Equal(t, OutcomeRefund, result.Outcome)
	assert.True(t, result.RefundRequired)
	assert.Equal(t, domain.PaymentCompleted, f.paymentStatus(t, intent.PaymentID))
	assert.Equal(t, domain.StatusCancelled, f.bookingStatus(t))

	ev, ok := f.publisher.last[domain.EventPaymentCompleted].(domain.PaymentEvent)
	require.True(t, ok)
	assert.True(t, ev.RefundRequired)
}

func TestEngine_InitiateGuards(t *testing.T) {
	t.Run("second active payment", func(t *testing.T) {
		f := newFixture(t)
		f.initiate(t)

		_, err := f.engine.Initiate(context.Background(), InitiateRequest{
			BookingID: f.booking.ID,
			Amount:    5000,
			Currency:  "USD",
			Method:    domain.MethodCard,
		})
		assert.ErrorIs(t, err, domain.ErrDuplicatePayment)
		assert.Equal(t, 1, f.gateway.calls)
	})

	t.Run("booking not scheduled", func(t *testing.T) {
		f := newFixture(t)
		intent := f.initiate(t)
		_, err := f.engine.Reconcile(context.Background(), completed(intent.GatewayTransactionID))
		require.NoError(t, err)

		_, err = f.engine.Initiate(context.Background(), InitiateRequest{
			BookingID: f.booking.ID,
			Amount:    5000,
			Currency:  "USD",
			Method:    domain.MethodCard,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidBookingState)
	})

	t.Run("unknown booking", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.engine.Initiate(context.Background(), InitiateRequest{BookingID: 999, Amount: 1, Currency: "USD"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestEngine_GatewayTimeout(t *testing.T) {
	f := newFixture(t)
	f.gateway.err = context.DeadlineExceeded

	_, err := f.engine.Initiate(context.Background(), InitiateRequest{
		BookingID: f.booking.ID,
		Amount:    5000,
		Currency:  "USD",
		Method:    domain.MethodCard,
	})
	assert.ErrorIs(t, err, domain.ErrGatewayTimeout)
	assert.True(t, domain.IsRetryable(err))

	// неуспешная попытка не блокирует следующую
	f.gateway.err = nil
	intent := f.initiate(t)
	assert.Equal(t, domain.PaymentPending, intent.Status)
}

func TestEngine_GatewayUnavailable(t *testing.T) {
	f := newFixture(t)
	f.gateway.err = errors.New("connection refused")

	_, err := f.engine.Initiate(context.Background(), InitiateRequest{
		BookingID: f.booking.ID,
		Amount:    5000,
		Currency:  "USD",
		Method:    domain.MethodCard,
	})
	assert.ErrorIs(t, err, domain.ErrGatewayUnavailable)
}

func TestEngine_SynchronousGateway(t *testing.T) {
	f := newFixture(t)
	f.gateway.status = domain.NotificationCompleted

	intent := f.initiate(t)
	assert.Equal(t, domain.PaymentCompleted, intent.Status)
	assert.Equal(t, domain.StatusConfirmed, f.bookingStatus(t))
}

func TestEngine_AutoSettlement(t *testing.T) {
	f := newFixture(t)
	f.gateway.autoSettle = 5 * time.Second

	intent := f.initiate(t)
	job, ok := f.scheduler.jobs[intent.PaymentID]
	require.True(t, ok)
	assert.Equal(t, testNow.Add(5*time.Second), job.FireAt)
	assert.Equal(t, intent.GatewayTransactionID, job.GatewayTransactionID)

	result, err := f.engine.Reconcile(context.Background(), domain.Notification{
		GatewayTransactionID: job.GatewayTransactionID,
		Status:               domain.NotificationCompleted,
		Source:               domain.SourceSettlementJob,
	})
	require.NoError(t, err)
	assert.True(t, result.BookingConfirmed)
	assert.Empty(t, f.scheduler.cancelled)
}

func TestEngine_WebhookCancelsSettlementJob(t *testing.T) {
	f := newFixture(t)
	f.gateway.autoSettle = 5 * time.Second

	intent := f.initiate(t)
	_, err := f.engine.Reconcile(context.Background(), completed(intent.GatewayTransactionID))
	require.NoError(t, err)

	assert.Equal(t, []int64{intent.PaymentID}, f.scheduler.cancelled)
	assert.NotContains(t, f.scheduler.jobs, intent.PaymentID)
}

func TestEngine_RedriveConfirmations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	intent := f.initiate(t)

	// платёж завершён, но подтверждение бронирования потеряно
	require.NoError(t, f.store.Payments().UpdateStatus(ctx, intent.PaymentID,
		domain.PaymentPending, domain.PaymentCompleted, nil, nil))

	confirmed, err := f.engine.RedriveConfirmations(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, confirmed)
	assert.Equal(t, domain.StatusConfirmed, f.bookingStatus(t))

	confirmed, err = f.engine.RedriveConfirmations(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, confirmed)
}

func TestEngine_ReconfirmAfterReschedule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.store.Bookings().GetByID(ctx, f.booking.ID)
	require.NoError(t, err)

	changed, err := f.engine.ReconfirmAfterReschedule(ctx, b)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, domain.StatusScheduled, b.Status)

	intent := f.initiate(t)
	require.NoError(t, f.store.Payments().UpdateStatus(ctx, intent.PaymentID,
		domain.PaymentPending, domain.PaymentCompleted, nil, nil))

	changed, err = f.engine.ReconfirmAfterReschedule(ctx, b)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, domain.StatusConfirmed, b.Status)
}

func TestEngine_AbandonPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	record, err := f.engine.AbandonPending(ctx, f.booking.ID)
	require.NoError(t, err)
	assert.Nil(t, record)

	f.gateway.autoSettle = time.Minute
	intent := f.initiate(t)

	record, err = f.engine.AbandonPending(ctx, f.booking.ID)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, domain.PaymentFailed, record.Status)
	assert.Equal(t, domain.PaymentFailed, f.paymentStatus(t, intent.PaymentID))

	f.engine.FinalizeAbandoned(ctx, record)
	assert.NotContains(t, f.scheduler.jobs, intent.PaymentID)
	assert.Equal(t, 1, f.publisher.count(domain.EventPaymentFailed))
}

func TestEngine_CompletedAfterCancelAbandon(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	intent := f.initiate(t)

	record, err := f.engine.AbandonPending(ctx, f.booking.ID)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.True(t, record.FailedLocally())

	b, err := f.store.Bookings().GetByID(ctx, f.booking.ID)
	require.NoError(t, err)
	b.Status = domain.StatusCancelled
	_, err = f.store.Bookings().Update(ctx, b)
	require.NoError(t, err)

	// шлюз всё же списал средства
	result, err := f.engine.Reconcile(ctx, completed(intent.GatewayTransactionID))
	require.NoError(t, err)
	assert.Equal(t, OutcomeRefund, result.Outcome)
	assert.True(t, result.RefundRequired)
	assert.Equal(t, domain.PaymentFailed, result.PaymentStatus)
	assert.Equal(t, domain.StatusCancelled, result.BookingStatus)
	assert.Equal(t, domain.PaymentFailed, f.paymentStatus(t, intent.PaymentID))
	assert.Equal(t, 1, f.metrics.outcomes[OutcomeRefund])

	ev, ok := f.publisher.last[domain.EventPaymentCompleted].(domain.PaymentEvent)
	require.True(t, ok)
	assert.True(t, ev.RefundRequired)
	assert.Equal(t, intent.PaymentID, ev.PaymentID)

	stored, err := f.store.Payments().GetByID(ctx, intent.PaymentID)
	require.NoError(t, err)
	assert.True(t, stored.RefundFlagged())

	// повторная доставка не публикует событие снова
	result, err = f.engine.Reconcile(ctx, completed(intent.GatewayTransactionID))
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, result.Outcome)
	assert.True(t, result.RefundRequired)
	assert.Equal(t, 1, f.publisher.count(domain.EventPaymentCompleted))
}

func TestEngine_CompletedAfterGatewayTimeout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.gateway.err = context.DeadlineExceeded

	_, err := f.engine.Initiate(ctx, InitiateRequest{
		BookingID: f.booking.ID,
		Amount:    5000,
		Currency:  "USD",
		Method:    domain.MethodCard,
	})
	require.ErrorIs(t, err, domain.ErrGatewayTimeout)

	failed, err := f.store.Payments().GetByReference(ctx, f.gateway.lastRef)
	require.NoError(t, err)
	assert.True(t, failed.FailedLocally())

	// шлюз успел принять платёж, уведомление находит его по reference
	result, err := f.engine.Reconcile(ctx, domain.Notification{
		GatewayTransactionID: "tx-late",
		Reference:            f.gateway.lastRef,
		Status:               domain.NotificationCompleted,
		Source:               domain.SourceWebhook,
	})
	require.NoError(t, err)
	assert.Equal(t, failed.ID, result.PaymentID)
	assert.Equal(t, OutcomeRefund, result.Outcome)
	assert.True(t, result.RefundRequired)
	assert.False(t, result.BookingConfirmed)
	assert.Equal(t, domain.PaymentFailed, f.paymentStatus(t, failed.ID))
	assert.Equal(t, domain.StatusScheduled, f.bookingStatus(t))
	assert.Equal(t, 1, f.publisher.count(domain.EventPaymentCompleted))

	stored, err := f.store.Payments().GetByExternalID(ctx, "tx-late")
	require.NoError(t, err)
	assert.Equal(t, failed.ID, stored.ID)

	result, err = f.engine.Reconcile(ctx, completed("tx-late"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, result.Outcome)
	assert.Equal(t, 1, f.publisher.count(domain.EventPaymentCompleted))

	// бронирование по-прежнему можно оплатить
	f.gateway.err = nil
	second := f.initiate(t)
	assert.NotEqual(t, failed.ID, second.PaymentID)
}

func TestEngine_GatewayFailureAfterLocalFailureIsDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	intent := f.initiate(t)

	_, err := f.engine.AbandonPending(ctx, f.booking.ID)
	require.NoError(t, err)

	result, err := f.engine.Reconcile(ctx, domain.Notification{
		GatewayTransactionID: intent.GatewayTransactionID,
		Status:               domain.NotificationFailed,
		Source:               domain.SourceWebhook,
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, result.Outcome)
	assert.False(t, result.RefundRequired)
	assert.Zero(t, f.publisher.count(domain.EventPaymentCompleted))
}

type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

type loggingBookings struct {
	BookingRepository
	log *callLog
}

func (r loggingBookings) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	r.log.add("booking.GetByID")
	return r.BookingRepository.GetByID(ctx, id)
}

type loggingPayments struct {
	PaymentRepository
	log *callLog
}

func (r loggingPayments) GetByID(ctx context.Context, id int64) (*domain.PaymentRecord, error) {
	r.log.add("payment.GetByID")
	return r.PaymentRepository.GetByID(ctx, id)
}

func (r loggingPayments) GetByExternalID(ctx context.Context, externalID string) (*domain.PaymentRecord, error) {
	r.log.add("payment.GetByExternalID")
	return r.PaymentRepository.GetByExternalID(ctx, externalID)
}

func TestEngine_ReconcileLocksBookingBeforePayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	intent := f.initiate(t)

	log := &callLog{}
	engine := NewEngine(
		loggingBookings{BookingRepository: f.store.Bookings(), log: log},
		loggingPayments{PaymentRepository: f.store.Payments(), log: log},
		f.store.TxManager(),
		f.gateway,
		f.scheduler,
		f.publisher,
		lifecycle.NewMachine(fixedClock{}, 2*time.Hour, time.UTC),
		f.metrics,
		logger.NewNop(),
		Options{ConfirmBackoff: time.Millisecond},
	)

	result, err := engine.Reconcile(ctx, completed(intent.GatewayTransactionID))
	require.NoError(t, err)
	assert.True(t, result.BookingConfirmed)

	// отмена и перенос блокируют бронирование, затем платёж
	require.GreaterOrEqual(t, len(log.calls), 3)
	assert.Equal(t, []string{"payment.GetByExternalID", "booking.GetByID", "payment.GetByID"}, log.calls[:3])
}

func TestEngine_ReferenceOwnedByOtherTransaction(t *testing.T) {
	f := newFixture(t)
	intent := f.initiate(t)

	_, err := f.engine.Reconcile(context.Background(), domain.Notification{
		GatewayTransactionID: "tx-other",
		Reference:            intent.Reference,
		Status:               domain.NotificationCompleted,
		Source:               domain.SourceWebhook,
	})
	assert.ErrorIs(t, err, domain.ErrUnknownTransaction)
	assert.Equal(t, domain.PaymentPending, f.paymentStatus(t, intent.PaymentID))
}

func TestEngine_FailedAttemptThenSucceeded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	intent := f.initiate(t)

	// неудачная попытка карты не закрывает платёж
	result, err := f.engine.Reconcile(ctx, domain.Notification{
		GatewayTransactionID: intent.GatewayTransactionID,
		Status:               domain.NotificationPending,
		Payload:              []byte(`{"type":"payment_intent.payment_failed"}`),
		Source:               domain.SourceWebhook,
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, result.Outcome)
	assert.Equal(t, domain.PaymentPending, f.paymentStatus(t, intent.PaymentID))
	assert.Zero(t, f.publisher.count(domain.EventPaymentFailed))

	result, err = f.engine.Reconcile(ctx, completed(intent.GatewayTransactionID))
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, result.Outcome)
	assert.True(t, result.BookingConfirmed)
}
