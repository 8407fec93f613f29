package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const timeLayout = "15:04"

// ErrInvalidTimeString возвращается, когда строка не соответствует формату HH:MM
var ErrInvalidTimeString = errors.New("types: invalid time string, expected HH:MM")

// TimeString время суток в формате HH:MM без даты и часового пояса.
// Хранится в колонках TIME и сравнивается поминутно.
type TimeString string

// NewTimeString создает TimeString из часов и минут переданного времени
func NewTimeString(t time.Time) TimeString {
	return TimeString(t.Format(timeLayout))
}

// NewTimeStringFromString парсит строку HH:MM (допускается HH:MM:SS)
func NewTimeStringFromString(s string) (TimeString, error) {
	t, err := parse(s)
	if err != nil {
		return "", err
	}
	return NewTimeString(t), nil
}

func parse(s string) (time.Time, error) {
	if t, err := time.Parse(timeLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("15:04:05", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimeString, s)
}

// Minutes возвращает количество минут с начала суток
func (ts TimeString) Minutes() int {
	t, err := parse(string(ts))
	if err != nil {
		return 0
	}
	return t.Hour()*60 + t.Minute()
}

// AddMinutes возвращает время, сдвинутое на указанное количество минут.
// Выход за пределы суток считается ошибкой.
func (ts TimeString) AddMinutes(minutes int) (TimeString, error) {
	if !ts.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidTimeString, string(ts))
	}
	total := ts.Minutes() + minutes
	if total < 0 || total > 24*60 {
		return "", fmt.Errorf("types: time %s%+d minutes is out of day range", ts, minutes)
	}
	if total == 24*60 {
		return "24:00", nil
	}
	return TimeString(fmt.Sprintf("%02d:%02d", total/60, total%60)), nil
}

// IsValid проверяет формат
func (ts TimeString) IsValid() bool {
	if ts == "24:00" {
		return true
	}
	_, err := parse(string(ts))
	return err == nil
}

func (ts TimeString) minutesOrEndOfDay() int {
	if ts == "24:00" {
		return 24 * 60
	}
	return ts.Minutes()
}

// IsBefore строго раньше other
func (ts TimeString) IsBefore(other TimeString) bool {
	return ts.minutesOrEndOfDay() < other.minutesOrEndOfDay()
}

// IsAfter строго позже other
func (ts TimeString) IsAfter(other TimeString) bool {
	return ts.minutesOrEndOfDay() > other.minutesOrEndOfDay()
}

// On возвращает момент времени на указанную дату в часовом поясе loc
func (ts TimeString) On(date time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := date.Date()
	minutes := ts.minutesOrEndOfDay()
	return time.Date(y, m, d, minutes/60, minutes%60, 0, 0, loc)
}

func (ts TimeString) String() string {
	return string(ts)
}

// Value реализует driver.Valuer
func (ts TimeString) Value() (driver.Value, error) {
	if !ts.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimeString, string(ts))
	}
	return string(ts), nil
}

// Scan реализует sql.Scanner. Postgres TIME приходит как "HH:MM:SS".
func (ts *TimeString) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*ts = ""
		return nil
	case time.Time:
		*ts = NewTimeString(v)
		return nil
	case []byte:
		return ts.scanString(string(v))
	case string:
		return ts.scanString(v)
	default:
		return fmt.Errorf("types: cannot scan %T into TimeString", src)
	}
}

func (ts *TimeString) scanString(s string) error {
	parsed, err := NewTimeStringFromString(s)
	if err != nil {
		return err
	}
	*ts = parsed
	return nil
}

// UnmarshalJSON принимает только валидное время
func (ts *TimeString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := NewTimeStringFromString(s)
	if err != nil {
		return err
	}
	*ts = parsed
	return nil
}
