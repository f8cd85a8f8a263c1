package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/CodeRoom/internal/domain"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// listTimeout bounds a shared read once it no longer follows any caller.
const listTimeout = 10 * time.Second

// Service validates requests and fronts the store with the list cache.
type Service struct {
	store Store
	cache Cache
	sf    singleflight.Group
	now   func() time.Time
}

func NewService(store Store, cache Cache) *Service {
	if cache == nil {
		cache = NoopCache()
	}
	return &Service{store: store, cache: cache, now: time.Now}
}

// Save appends a snapshot of code for room.
func (s *Service) Save(ctx context.Context, room domain.RoomID, code, author string) (domain.Commit, error) {
	if room == "" {
		return domain.Commit{}, ErrEmptyRoom
	}

	c, err := s.store.Append(ctx, domain.Commit{
		Room:      room,
		Code:      code,
		Author:    author,
		Timestamp: s.now().UTC(),
	})
	if err != nil {
		return domain.Commit{}, err
	}

	if err := s.cache.Invalidate(ctx, room); err != nil {
		log.Warn().Err(err).Str("module", "history").Str("room", string(room)).Msg("cache invalidate failed")
	}
	return c, nil
}

// List returns the newest commits of room. Concurrent reads of the same
// page share one store query, which outlives a caller that gives up.
func (s *Service) List(ctx context.Context, room domain.RoomID, limit int) ([]domain.Commit, error) {
	if room == "" {
		return nil, ErrEmptyRoom
	}
	limit = normalizeLimit(limit)

	key := fmt.Sprintf("%s|%d", room, limit)
	ch := s.sf.DoChan(key, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), listTimeout)
		defer cancel()

		cached, err := s.cache.Get(ctx, room, limit)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			log.Warn().Err(err).Str("module", "history").Str("room", string(room)).Msg("cache get failed")
		}

		commits, err := s.store.List(ctx, room, limit)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, room, limit, commits); err != nil {
			log.Warn().Err(err).Str("module", "history").Str("room", string(room)).Msg("cache set failed")
		}
		return commits, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.([]domain.Commit), nil
	}
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
