package redis

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/negotiate-go/domain/event"
)

// EventStore is a Redis-backed implementation of event.Store. Events are
// kept in a list per session, sequence numbers come from an INCR counter,
// and Subscribe rides on Redis pub/sub so subscribers on other processes
// see appends too.
type EventStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewEventStore creates a new Redis event store with the given configuration.
func NewEventStore(cfg Config, opts ...ConfigOption) (*EventStore, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Join(ErrConnectionFailed, err)
	}

	return &EventStore{
		client:    client,
		keyPrefix: cfg.KeyPrefix,
	}, nil
}

// NewEventStoreFromClient creates an event store from an existing Redis client.
func NewEventStoreFromClient(client *redis.Client, keyPrefix string) *EventStore {
	return &EventStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (s *EventStore) eventsKey(sessionID string) string {
	return s.keyPrefix + "events:" + sessionID
}

func (s *EventStore) seqKey(sessionID string) string {
	return s.keyPrefix + "seq:" + sessionID
}

func (s *EventStore) sessionsKey() string {
	return s.keyPrefix + "sessions"
}

func (s *EventStore) channelKey(sessionID string) string {
	return s.keyPrefix + "channel:" + sessionID
}

// Append persists one or more events.
func (s *EventStore) Append(ctx context.Context, events ...event.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(events) == 0 {
		return nil
	}

	for i := range events {
		e := &events[i]

		if e.Type == "" {
			return event.ErrInvalidEvent
		}

		if e.ID == "" {
			e.ID = uuid.New().String()
		}

		seq, err := s.client.Incr(ctx, s.seqKey(e.SessionID)).Result()
		if err != nil {
			return errors.Join(ErrOperationFailed, err)
		}
		e.Sequence = uint64(seq)

		data, err := json.Marshal(e)
		if err != nil {
			return err
		}

		pipe := s.client.TxPipeline()
		pipe.RPush(ctx, s.eventsKey(e.SessionID), data)
		pipe.SAdd(ctx, s.sessionsKey(), e.SessionID)
		pipe.Publish(ctx, s.channelKey(e.SessionID), data)
		if _, err := pipe.Exec(ctx); err != nil {
			return errors.Join(ErrOperationFailed, err)
		}
	}

	return nil
}

// LoadEvents retrieves all events for a session in sequence order.
func (s *EventStore) LoadEvents(ctx context.Context, sessionID string) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := s.client.LRange(ctx, s.eventsKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, errors.Join(ErrOperationFailed, err)
	}

	return decodeEvents(raw), nil
}

// LoadEventsFrom retrieves events starting from a specific sequence number.
func (s *EventStore) LoadEventsFrom(ctx context.Context, sessionID string, fromSeq uint64) ([]event.Event, error) {
	all, err := s.LoadEvents(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var events []event.Event
	for _, e := range all {
		if e.Sequence >= fromSeq {
			events = append(events, e)
		}
	}

	return events, nil
}

// decodeEvents deserializes list entries, skipping malformed ones.
func decodeEvents(raw []string) []event.Event {
	var events []event.Event
	for _, item := range raw {
		var e event.Event
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			continue
		}
		events = append(events, e)
	}
	return events
}

// Subscribe returns a channel that receives new events for a session.
func (s *EventStore) Subscribe(ctx context.Context, sessionID string) (<-chan event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sub := s.client.Subscribe(ctx, s.channelKey(sessionID))

	// Confirm the subscription before returning so callers do not miss
	// events published right after Subscribe.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, errors.Join(ErrConnectionFailed, err)
	}

	ch := make(chan event.Event, 100)

	go func() {
		defer close(ch)
		defer func() { _ = sub.Close() }()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}

				var e event.Event
				if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
					continue
				}

				select {
				case ch <- e:
				default:
					// Channel full, skip
				}
			}
		}
	}()

	return ch, nil
}

// Query retrieves events matching the given options.
func (s *EventStore) Query(ctx context.Context, sessionID string, opts event.QueryOptions) ([]event.Event, error) {
	all, err := s.LoadEvents(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var events []event.Event
	skip := opts.Offset

	for _, e := range all {
		if len(opts.Types) > 0 {
			found := false
			for _, t := range opts.Types {
				if e.Type == t {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}

		ts := e.Timestamp.Unix()
		if opts.FromTime > 0 && ts < opts.FromTime {
			continue
		}
		if opts.ToTime > 0 && ts > opts.ToTime {
			continue
		}

		if skip > 0 {
			skip--
			continue
		}

		events = append(events, e)

		if opts.Limit > 0 && len(events) >= opts.Limit {
			break
		}
	}

	return events, nil
}

// CountEvents returns the number of events for a session.
func (s *EventStore) CountEvents(ctx context.Context, sessionID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	count, err := s.client.LLen(ctx, s.eventsKey(sessionID)).Result()
	if err != nil {
		return 0, errors.Join(ErrOperationFailed, err)
	}

	return count, nil
}

// ListSessions returns all session IDs with events in the store.
func (s *EventStore) ListSessions(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sessions, err := s.client.SMembers(ctx, s.sessionsKey()).Result()
	if err != nil {
		return nil, errors.Join(ErrOperationFailed, err)
	}

	return sessions, nil
}

// PruneEvents removes events before a sequence number by rewriting the list.
func (s *EventStore) PruneEvents(ctx context.Context, sessionID string, beforeSeq uint64) error {
	all, err := s.LoadEvents(ctx, sessionID)
	if err != nil {
		return err
	}

	var kept [][]byte
	for _, e := range all {
		if e.Sequence < beforeSeq {
			continue
		}
		data, err := json.Marshal(e)
		if err != nil {
			return err
		}
		kept = append(kept, data)
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.eventsKey(sessionID))
	for _, data := range kept {
		pipe.RPush(ctx, s.eventsKey(sessionID), data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Join(ErrOperationFailed, err)
	}

	return nil
}

// DeleteSession removes all events for a specific session.
func (s *EventStore) DeleteSession(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.eventsKey(sessionID))
	pipe.Del(ctx, s.seqKey(sessionID))
	pipe.SRem(ctx, s.sessionsKey(), sessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Join(ErrOperationFailed, err)
	}

	return nil
}

// Close closes the Redis client.
func (s *EventStore) Close() error {
	return s.client.Close()
}

// Client returns the underlying Redis client.
func (s *EventStore) Client() *redis.Client {
	return s.client
}

// Ensure EventStore implements the storage interfaces
var (
	_ event.Store   = (*EventStore)(nil)
	_ event.Querier = (*EventStore)(nil)
	_ event.Pruner  = (*EventStore)(nil)
)
