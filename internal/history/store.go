// Package history persists document snapshots ("commits") per room and
// serves them newest first.
package history

import (
	"context"
	"errors"

	"github.com/dkeye/CodeRoom/internal/domain"
)

var (
	ErrEmptyRoom = errors.New("room is required")
	ErrCacheMiss = errors.New("cache miss")
	ErrBadDriver = errors.New("unsupported database driver")
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// Store is the append-only commit log.
type Store interface {
	Append(ctx context.Context, c domain.Commit) (domain.Commit, error)
	// List returns at most limit commits of room, newest first.
	List(ctx context.Context, room domain.RoomID, limit int) ([]domain.Commit, error)
	Close() error
}
