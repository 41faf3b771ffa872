// Package cache wraps a task store with a Redis read-through cache for
// list queries.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/Joseda-hg/lazyplan/internal/model"
	"github.com/Joseda-hg/lazyplan/internal/planner"
)

const (
	keyList = "lazyplan:list:"
	// keyVersion is bumped on every write. A list read from the backing
	// store is only cached if no write happened while it was being read.
	keyVersion = "lazyplan:version"
)

var errStale = errors.New("list changed while loading")

// Store caches List results per filter and drops every cached list on any
// write. Single lookups and history always hit the backing store.
type Store struct {
	next planner.Store
	rdb  *redis.Client
	ttl  time.Duration
	sf   singleflight.Group
}

func NewStore(next planner.Store, rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{next: next, rdb: rdb, ttl: ttl}
}

func (s *Store) Create(ctx context.Context, task model.Task) (model.Task, error) {
	created, err := s.next.Create(ctx, task)
	if err != nil {
		return model.Task{}, err
	}
	s.invalidate(ctx)
	return created, nil
}

func (s *Store) Get(ctx context.Context, id string) (model.Task, error) {
	return s.next.Get(ctx, id)
}

func (s *Store) Update(ctx context.Context, id string, patch model.Patch) (model.Task, error) {
	updated, err := s.next.Update(ctx, id, patch)
	if err != nil {
		return model.Task{}, err
	}
	s.invalidate(ctx)
	return updated, nil
}

func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	deleted, err := s.next.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if deleted {
		s.invalidate(ctx)
	}
	return deleted, nil
}

func (s *Store) List(ctx context.Context, filter model.Filter) ([]model.Task, error) {
	key := listKey(filter)
	if tasks, ok := s.lookup(ctx, key); ok {
		return tasks, nil
	}

	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		version, versionErr := s.version(ctx, s.rdb)
		tasks, err := s.next.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		if versionErr == nil {
			s.store(ctx, key, tasks, version)
		}
		return tasks, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneAll(v.([]model.Task)), nil
}

func (s *Store) ListHistory(ctx context.Context, taskID string) ([]model.HistoryEntry, error) {
	history, ok := s.next.(planner.HistoryStore)
	if !ok {
		return []model.HistoryEntry{}, nil
	}
	return history.ListHistory(ctx, taskID)
}

// Redis failures degrade to the backing store rather than failing the call.
func (s *Store) lookup(ctx context.Context, key string) ([]model.Task, bool) {
	b, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		log.Printf("[cache] get %s: %v", key, err)
		return nil, false
	}
	var tasks []model.Task
	if err := json.Unmarshal(b, &tasks); err != nil {
		log.Printf("[cache] decode %s: %v", key, err)
		return nil, false
	}
	return tasks, true
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *Store) version(ctx context.Context, c getter) (int64, error) {
	v, err := c.Get(ctx, keyVersion).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		log.Printf("[cache] version: %v", err)
	}
	return v, err
}

// store writes tasks under key unless the version moved past seen.
func (s *Store) store(ctx context.Context, key string, tasks []model.Task, seen int64) {
	b, err := json.Marshal(tasks)
	if err != nil {
		log.Printf("[cache] encode %s: %v", key, err)
		return
	}
	err = s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := s.version(ctx, tx)
		if err != nil {
			return err
		}
		if current != seen {
			return errStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, b, s.ttl)
			return nil
		})
		return err
	}, keyVersion)
	switch {
	case err == nil, errors.Is(err, errStale), errors.Is(err, redis.TxFailedErr):
	default:
		log.Printf("[cache] set %s: %v", key, err)
	}
}

func (s *Store) invalidate(ctx context.Context) {
	if err := s.rdb.Incr(ctx, keyVersion).Err(); err != nil {
		log.Printf("[cache] bump version: %v", err)
	}
	iter := s.rdb.Scan(ctx, 0, keyList+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			log.Printf("[cache] invalidate %s: %v", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		log.Printf("[cache] invalidate: %v", err)
	}
}

func listKey(filter model.Filter) string {
	hasDate := "any"
	if filter.HasDate != nil {
		hasDate = fmt.Sprintf("%t", *filter.HasDate)
	}
	return fmt.Sprintf("%s%s|%s|%s", keyList, filter.Category, filter.Date, hasDate)
}

func cloneAll(tasks []model.Task) []model.Task {
	out := make([]model.Task, len(tasks))
	for i, task := range tasks {
		out[i] = task.Clone()
	}
	return out
}
