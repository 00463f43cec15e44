// Package storage persists campground images in an object store.
package storage

import (
	"context"
	"errors"
)

// ErrObjectNotFound is returned when a key does not exist in the store.
var ErrObjectNotFound = errors.New("object not found in storage")

// StoredObject identifies an uploaded image: Filename is the object key used for
// deletion, URL is where clients fetch it.
type StoredObject struct {
	URL      string
	Filename string
}

// ImageStore is the contract the campground service needs from an object store.
type ImageStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (StoredObject, error)
	Delete(ctx context.Context, key string) error
}
