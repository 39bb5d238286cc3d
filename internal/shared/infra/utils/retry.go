package utils

import (
	"context"
	"time"
)

// Retry ejecuta una función con reintentos a intervalo fijo.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		if err == nil {
			return nil
		}

		select {
		case <-time.After(delay):
			// espera antes del siguiente intento
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// RetryBackoff ejecuta una función con backoff exponencial: 2^intento
// segundos entre intentos (2s, 4s, 8s...), acotado por attempts.
func RetryBackoff(ctx context.Context, attempts int, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		if err == nil {
			return nil
		}

		delay := time.Duration(1<<uint(i+1)) * time.Second
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
