package memory

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// ProviderRepository справочник провайдеров в памяти
type ProviderRepository struct {
	store *Store
}

// Put добавляет или заменяет провайдера
func (r *ProviderRepository) Put(ctx context.Context, provider *domain.Provider) {
	defer r.store.lock(ctx)()

	cp := *provider
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = r.store.now()
	}
	cp.UpdatedAt = r.store.now()
	r.store.state.providers[cp.ID] = &cp
}

func (r *ProviderRepository) GetByID(ctx context.Context, id int64) (*domain.Provider, error) {
	defer r.store.lock(ctx)()

	provider, ok := r.store.state.providers[id]
	if !ok {
		return nil, ErrProviderNotFound
	}
	cp := *provider
	return &cp, nil
}

// Update заменяет данные существующего провайдера
func (r *ProviderRepository) Update(ctx context.Context, provider *domain.Provider) (*domain.Provider, error) {
	defer r.store.lock(ctx)()

	existing, ok := r.store.state.providers[provider.ID]
	if !ok {
		return nil, ErrProviderNotFound
	}

	cp := *provider
	cp.CreatedAt = existing.CreatedAt
	cp.UpdatedAt = r.store.now()
	r.store.state.providers[cp.ID] = &cp

	out := cp
	return &out, nil
}
