package storage

import "time"

// Storage defines interface for any object storage
type Storage[K comparable, V any] interface {
	Set(key K, value V)
	Get(key K) (V, bool)
	Delete(key K) bool
	Keys() []K
	UpdatedAt(key K) (time.Time, bool)
	ForEach(fn func(key K, value V) bool)
	Count() int
}
