package pgerr

import (
	"errors"

	"github.com/lib/pq"
)

const (
	uniqueViolation      = "23505"
	serializationFailure = "40001"
	deadlockDetected     = "40P01"
)

// UniqueViolation сообщает, нарушен ли уникальный индекс, и возвращает его имя
func UniqueViolation(err error) (constraint string, ok bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return pqErr.Constraint, true
	}
	return "", false
}

// SerializationFailure сообщает о конфликте сериализуемых транзакций
func SerializationFailure(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == serializationFailure
}

// Deadlock сообщает, что транзакция прервана детектором взаимоблокировок
func Deadlock(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == deadlockDetected
}

// Retryable сообщает, что транзакцию можно безопасно повторить целиком
func Retryable(err error) bool {
	return SerializationFailure(err) || Deadlock(err)
}
