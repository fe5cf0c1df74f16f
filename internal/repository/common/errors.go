package common

import (
	"errors"

	"github.com/lib/pq"
)

// Общие ошибки для всех репозиториев
var (
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidInput  = errors.New("invalid input")
)

// SQLSTATE коды PostgreSQL, на которые реагирует приложение.
const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateUniqueViolation      = "23505"
	sqlStateCheckViolation       = "23514"
)

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// IsSerializationFailure сообщает о конфликте, после которого транзакцию можно повторить.
func IsSerializationFailure(err error) bool {
	code := pqCode(err)
	return code == sqlStateSerializationFailure || code == sqlStateDeadlockDetected
}

func IsUniqueViolation(err error) bool {
	return pqCode(err) == sqlStateUniqueViolation
}

// IsCheckViolation срабатывает, например, на CHECK (balance >= 0).
func IsCheckViolation(err error) bool {
	return pqCode(err) == sqlStateCheckViolation
}
