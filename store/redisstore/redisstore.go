// Package redisstore keeps token slots in Redis so that several processes, or
// several machines of one operator, share a session profile. Every write is
// announced on a pub/sub channel; that is how a logout elsewhere is observed.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/enertrack-console/session"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var _ session.Store = (*Store)(nil)

const (
	DefaultPrefix = "enertrack:session:"
	opTimeout     = 5 * time.Second

	opSet    = "set"
	opDelete = "del"
)

type watcher struct {
	id int
	fn func(value string)
}

type Store struct {
	client *redis.Client
	prefix string
	log    zerolog.Logger

	mu       sync.Mutex
	pubsub   *redis.PubSub
	watchers map[string][]watcher
	nextID   int
}

// OpenRedis parses dsn, configures a small connection pool and pings the server.
func OpenRedis(dsn string) (*redis.Client, error) {
	opt, err := redis.ParseURL(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis DSN: %w", err)
	}

	opt.PoolSize = 4
	opt.MinIdleConns = 1
	opt.DialTimeout = 5 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func New(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{
		client:   client,
		prefix:   prefix,
		log:      log.Logger.With().Str("component", "redisstore").Logger(),
		watchers: make(map[string][]watcher),
	}
}

func (s *Store) key(slot string) string {
	return s.prefix + slot
}

func (s *Store) channel() string {
	return s.prefix + "events"
}

// Get returns "" for a missing slot.
func (s *Store) Get(slot string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	value, err := s.client.Get(ctx, s.key(slot)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read slot %s: %w", slot, err)
	}
	return value, nil
}

func (s *Store) Set(slot, value string) error {
	if value == "" {
		return s.Delete(slot)
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := s.client.Set(ctx, s.key(slot), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write slot %s: %w", slot, err)
	}
	return s.announce(ctx, opSet, slot)
}

func (s *Store) Delete(slot string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	removed, err := s.client.Del(ctx, s.key(slot)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete slot %s: %w", slot, err)
	}
	if removed == 0 {
		return nil
	}
	return s.announce(ctx, opDelete, slot)
}

// announce publishes "<op> <slot>". Token values never go on the channel.
func (s *Store) announce(ctx context.Context, op, slot string) error {
	if err := s.client.Publish(ctx, s.channel(), op+" "+slot).Err(); err != nil {
		return fmt.Errorf("failed to publish change of slot %s: %w", slot, err)
	}
	return nil
}

// Watch subscribes to the change channel on first use.
func (s *Store) Watch(slot string, fn func(value string)) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pubsub == nil {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()

		pubsub := s.client.Subscribe(ctx, s.channel())
		if _, err := pubsub.Receive(ctx); err != nil {
			pubsub.Close()
			return nil, fmt.Errorf("failed to subscribe to %s: %w", s.channel(), err)
		}
		s.pubsub = pubsub
		go s.loop(pubsub.Channel())
	}

	s.nextID++
	id := s.nextID
	s.watchers[slot] = append(s.watchers[slot], watcher{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		list := s.watchers[slot]
		for i, w := range list {
			if w.id == id {
				s.watchers[slot] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
		if len(s.watchers[slot]) == 0 {
			delete(s.watchers, slot)
		}
	}, nil
}

// Close ends the subscription. The Redis client is owned by the caller.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pubsub == nil {
		return nil
	}
	err := s.pubsub.Close()
	s.pubsub = nil
	return err
}

func (s *Store) loop(messages <-chan *redis.Message) {
	for msg := range messages {
		op, slot, ok := strings.Cut(msg.Payload, " ")
		if !ok {
			s.log.Warn().Str("payload", msg.Payload).Msg("ignoring malformed change event")
			continue
		}

		s.mu.Lock()
		watchers := append([]watcher(nil), s.watchers[slot]...)
		s.mu.Unlock()

		if len(watchers) == 0 {
			continue
		}

		// A delete is reported as such even if the slot was refilled since.
		var value string
		if op != opDelete {
			var err error
			if value, err = s.Get(slot); err != nil {
				s.log.Warn().Err(err).Str("slot", slot).Msg("failed to read changed slot")
				continue
			}
		}
		for _, w := range watchers {
			go w.fn(value)
		}
	}
}
