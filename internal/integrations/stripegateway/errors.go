package stripegateway

import "errors"

var (
	// ErrInvalidSignature возвращается, если подпись webhook не прошла проверку
	ErrInvalidSignature = errors.New("stripe gateway: invalid webhook signature")

	// ErrIgnoredEvent возвращается для событий, не влияющих на статус платежа
	ErrIgnoredEvent = errors.New("stripe gateway: event ignored")

	// ErrInvalidEvent возвращается, если событие не удалось разобрать
	ErrInvalidEvent = errors.New("stripe gateway: invalid event")
)
