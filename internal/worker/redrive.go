package worker

import (
	"context"
	"time"
)

const (
	// DefaultRedriveInterval период повторного подтверждения
	DefaultRedriveInterval = time.Minute
	// DefaultRedriveBatch сколько платежей обрабатывать за проход
	DefaultRedriveBatch = 100
)

// Redriver периодически подтверждает бронирования, оплата которых
// завершилась, но подтверждение не было записано
type Redriver struct {
	engine   ConfirmationRedriver
	interval time.Duration
	batch    int
	logger   Logger
}

// NewRedriver создает цикл повторного подтверждения
func NewRedriver(engine ConfirmationRedriver, interval time.Duration, batch int, logger Logger) *Redriver {
	if interval <= 0 {
		interval = DefaultRedriveInterval
	}
	if batch <= 0 {
		batch = DefaultRedriveBatch
	}
	return &Redriver{
		engine:   engine,
		interval: interval,
		batch:    batch,
		logger:   logger,
	}
}

// Run выполняет проходы до отмены ctx
func (r *Redriver) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("Redriver: started, interval=%s", r.interval)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Redriver: stopped")
			return nil
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce выполняет один проход
func (r *Redriver) RunOnce(ctx context.Context) int {
	confirmed, err := r.engine.RedriveConfirmations(ctx, r.batch)
	if err != nil {
		r.logger.Error("Redriver: pass failed: %v", err)
		return 0
	}
	return confirmed
}
