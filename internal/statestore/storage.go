// Package statestore provides the fast/durable state-store bridge used by
// the conversation control plane.
package statestore

import (
	"errors"
	"time"
)

// ErrTimeout is returned when a fast-store operation exceeds its deadline.
var ErrTimeout = errors.New("store operation timed out")

// Storage is the fast expiring key-value contract. It matches the Fiber
// storage interface so the Redis storage driver plugs in directly; Get
// returns nil with no error on a miss.
type Storage interface {
	Get(key string) ([]byte, error)
	Set(key string, val []byte, exp time.Duration) error
	Delete(key string) error
}

type getResult struct {
	val []byte
	err error
}

// GetTimeout runs Get with a deadline. The underlying call is abandoned on
// timeout; the driver finishes it in the background.
func GetTimeout(s Storage, key string, d time.Duration) ([]byte, error) {
	ch := make(chan getResult, 1)
	go func() {
		val, err := s.Get(key)
		ch <- getResult{val, err}
	}()

	select {
	case r := <-ch:
		return r.val, r.err
	case <-time.After(d):
		return nil, ErrTimeout
	}
}

// SetTimeout runs Set with a deadline.
func SetTimeout(s Storage, key string, val []byte, exp, d time.Duration) error {
	ch := make(chan error, 1)
	go func() {
		ch <- s.Set(key, val, exp)
	}()

	select {
	case err := <-ch:
		return err
	case <-time.After(d):
		return ErrTimeout
	}
}

// DeleteTimeout runs Delete with a deadline.
func DeleteTimeout(s Storage, key string, d time.Duration) error {
	ch := make(chan error, 1)
	go func() {
		ch <- s.Delete(key)
	}()

	select {
	case err := <-ch:
		return err
	case <-time.After(d):
		return ErrTimeout
	}
}
