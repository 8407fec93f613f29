package intasend

import "errors"

var (
	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("intasend client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от IntaSend
	ErrInvalidResponse = errors.New("intasend client: invalid response")

	// ErrUnauthorized возвращается, если IntaSend отклонил ключ API
	ErrUnauthorized = errors.New("intasend client: unauthorized")

	// ErrPaymentNotFound возвращается, если IntaSend не знает такой платеж
	ErrPaymentNotFound = errors.New("intasend client: payment not found")

	// ErrInvalidCallback возвращается при некорректном уведомлении
	ErrInvalidCallback = errors.New("intasend client: invalid callback")
)
