package storage

import (
	"context"
	"time"

	"github.com/lib/pq"
)

const (
	retryAttempts  = 3
	retryBaseDelay = 100 * time.Millisecond
)

// isTransient сообщает, является ли ошибка временной проблемой соединения,
// которую имеет смысл повторить. Класс "08" в postgres — connection exception
func isTransient(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code.Class() == "08"
	}
	return false
}

// withRetry выполняет fn с ограниченным числом повторов и растущей задержкой.
// Повторяются только временные ошибки соединения, остальные возвращаются сразу
func withRetry(ctx context.Context, fn func() error) error {
	var err error
	delay := retryBaseDelay
	for attempt := 0; attempt < retryAttempts; attempt++ {
		if err = fn(); err == nil || !isTransient(err) {
			return err
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
	}
	return err
}
