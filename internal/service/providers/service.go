package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/providers/models"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// Service сервис профиля провайдера: тариф и расписание работы
type Service struct {
	providerRepo ProviderRepository
	logger       Logger
}

// NewService создает новый экземпляр сервиса провайдеров
func NewService(providerRepo ProviderRepository, logger Logger) *Service {
	return &Service{
		providerRepo: providerRepo,
		logger:       logger,
	}
}

// GetProfile получает профиль провайдера
// Публичный метод - доступен всем
func (s *Service) GetProfile(ctx context.Context, providerID int64) (*models.ProfileResponse, error) {
	s.logger.Info("GetProfile: fetching provider id=%d", providerID)

	provider, err := s.get(ctx, "GetProfile", providerID)
	if err != nil {
		return nil, err
	}

	return models.FromDomainProvider(provider), nil
}

// UpdateProfile обновляет профиль провайдера
// Доступно только самому провайдеру, поддерживает частичное обновление
func (s *Service) UpdateProfile(ctx context.Context, req *models.UpdateProfileRequest) (*models.ProfileResponse, error) {
	s.logger.Info("UpdateProfile: updating provider id=%d by user=%d", req.ProviderID, req.UserID)

	// 1. Проверяем права доступа
	if req.UserID != req.ProviderID {
		s.logger.Warn("UpdateProfile: user=%d is not provider=%d", req.UserID, req.ProviderID)
		return nil, ErrAccessDenied
	}

	// 2. Получаем текущий профиль
	provider, err := s.get(ctx, "UpdateProfile", req.ProviderID)
	if err != nil {
		return nil, err
	}

	// 3. Применяем изменения
	if err := applyUpdate(provider, req); err != nil {
		s.logger.Warn("UpdateProfile: validation failed: %v", err)
		return nil, err
	}

	// 4. Сохраняем
	updated, err := s.providerRepo.Update(ctx, provider)
	if err != nil {
		s.logger.Error("UpdateProfile: repository error for provider id=%d: %v", req.ProviderID, err)
		return nil, fmt.Errorf("%w: UpdateProfile - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("UpdateProfile: successfully updated provider id=%d", req.ProviderID)
	return models.FromDomainProvider(updated), nil
}

func (s *Service) get(ctx context.Context, op string, id int64) (*domain.Provider, error) {
	provider, err := s.providerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("%s: provider id=%d not found", op, id)
			return nil, ErrProviderNotFound
		}
		s.logger.Error("%s: repository error for provider id=%d: %v", op, id, err)
		return nil, fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
	}
	return provider, nil
}

func applyUpdate(p *domain.Provider, req *models.UpdateProfileRequest) error {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
		}
		p.Name = name
	}

	if req.ConsultationFee != nil {
		if *req.ConsultationFee <= 0 {
			return fmt.Errorf("%w: consultationFee must be positive", ErrInvalidInput)
		}
		p.ConsultationFee = *req.ConsultationFee
	}

	if req.Currency != nil {
		currency := strings.ToUpper(strings.TrimSpace(*req.Currency))
		if len(currency) != 3 {
			return fmt.Errorf("%w: currency must be an ISO 4217 code", ErrInvalidInput)
		}
		p.Currency = currency
	}

	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}

	if req.WorkingHours != nil {
		hours, err := toDomainWorkingHours(req.WorkingHours)
		if err != nil {
			return err
		}
		p.WorkingHours = hours
	}

	return nil
}

func toDomainWorkingHours(days map[string]models.DaySchedule) (domain.WorkingHours, error) {
	result := make(domain.WorkingHours, len(days))

	for name, day := range days {
		weekday, ok := parseWeekday(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown weekday %q", ErrInvalidInput, name)
		}

		schedule := domain.DaySchedule{IsOpen: day.IsOpen}
		if day.IsOpen {
			open, err := types.NewTimeStringFromString(day.OpenTime)
			if err != nil {
				return nil, fmt.Errorf("%w: %s openTime: %v", ErrInvalidInput, name, err)
			}
			closing, err := types.NewTimeStringFromString(day.CloseTime)
			if err != nil {
				return nil, fmt.Errorf("%w: %s closeTime: %v", ErrInvalidInput, name, err)
			}
			if !open.IsBefore(closing) {
				return nil, fmt.Errorf("%w: %s openTime must be before closeTime", ErrInvalidInput, name)
			}
			schedule.OpenTime = open
			schedule.CloseTime = closing
		}
		result[weekday] = schedule
	}

	return result, nil
}

func parseWeekday(name string) (time.Weekday, bool) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), name) {
			return d, true
		}
	}
	return 0, false
}
