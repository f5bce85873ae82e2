package repository

import (
	"context"
	"errors"
)

// TokenKey is the well-known key the bearer token is stored under.
const TokenKey = "token"

var (
	ErrNotFound = errors.New("not found")
)

// Repository is the console's persisted key/value storage.
type Repository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
