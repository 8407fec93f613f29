package provider

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/psqlbuilder"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

type DBExecutor = dbmetrics.DBExecutor

// Repository справочник провайдеров: тариф и расписание работы
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория провайдеров
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// daySchedule формат расписания в колонке working_hours (JSONB), ключи - названия дней недели
type daySchedule struct {
	IsOpen    bool   `json:"isOpen"`
	OpenTime  string `json:"openTime"`
	CloseTime string `json:"closeTime"`
}

// GetByID получает провайдера по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Provider, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"name",
		"consultation_fee",
		"currency",
		"is_active",
		"working_hours",
		"created_at",
		"updated_at",
	).
		From("providers").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	var provider domain.Provider
	var workingHours []byte
	var createdAt, updatedAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&provider.ID,
		&provider.Name,
		&provider.ConsultationFee,
		&provider.Currency,
		&provider.IsActive,
		&workingHours,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProviderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan provider: %w", ErrScanRow, err)
	}

	provider.WorkingHours, err = decodeWorkingHours(workingHours)
	if err != nil {
		return nil, err
	}
	provider.CreatedAt = createdAt.Time
	provider.UpdatedAt = updatedAt.Time

	return &provider, nil
}

// Update обновляет тариф, статус и расписание провайдера
func (r *Repository) Update(ctx context.Context, provider *domain.Provider) (*domain.Provider, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	workingHours, err := encodeWorkingHours(provider.WorkingHours)
	if err != nil {
		return nil, err
	}

	query, args, err := psqlbuilder.Update("providers").
		Set("name", provider.Name).
		Set("consultation_fee", provider.ConsultationFee).
		Set("currency", provider.Currency).
		Set("is_active", provider.IsActive).
		Set("working_hours", workingHours).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": provider.ID}).
		Suffix("RETURNING updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Update - build update query: %v", ErrBuildQuery, err)
	}

	var updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProviderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Update - execute update: %w", ErrExecQuery, err)
	}

	provider.UpdatedAt = updatedAt.Time
	return provider, nil
}

func encodeWorkingHours(hours domain.WorkingHours) ([]byte, error) {
	byDay := make(map[string]daySchedule, len(hours))
	for weekday, day := range hours {
		byDay[strings.ToLower(weekday.String())] = daySchedule{
			IsOpen:    day.IsOpen,
			OpenTime:  day.OpenTime.String(),
			CloseTime: day.CloseTime.String(),
		}
	}

	raw, err := json.Marshal(byDay)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkingHours, err)
	}
	return raw, nil
}

func decodeWorkingHours(raw []byte) (domain.WorkingHours, error) {
	result := make(domain.WorkingHours)
	if len(raw) == 0 {
		return result, nil
	}

	var byDay map[string]daySchedule
	if err := json.Unmarshal(raw, &byDay); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkingHours, err)
	}

	for name, schedule := range byDay {
		weekday, ok := parseWeekday(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown weekday %q", ErrInvalidWorkingHours, name)
		}
		day := domain.DaySchedule{IsOpen: schedule.IsOpen}
		if schedule.IsOpen {
			open, err := types.NewTimeStringFromString(schedule.OpenTime)
			if err != nil {
				return nil, fmt.Errorf("%w: %s open time: %v", ErrInvalidWorkingHours, name, err)
			}
			closing, err := types.NewTimeStringFromString(schedule.CloseTime)
			if err != nil {
				return nil, fmt.Errorf("%w: %s close time: %v", ErrInvalidWorkingHours, name, err)
			}
			day.OpenTime = open
			day.CloseTime = closing
		}
		result[weekday] = day
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
