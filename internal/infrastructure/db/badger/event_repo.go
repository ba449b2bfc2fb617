package badgerdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"

	"github.com/mintmarket/marketd/internal/core/domain"
)

const eventStoreDir = "events"

type subscriber struct {
	topic   string
	handler func(events []domain.Event)
}

// eventDTO is the persisted form of an event: the concrete payload is kept as
// JSON for auditing, dispatch always uses the in-flight domain value.
type eventDTO struct {
	ID        string `badgerhold:"key"`
	Type      string
	Asset     string
	Payload   []byte
	CreatedAt int64
}

type eventRepository struct {
	store *badgerhold.Store

	subscribers    map[string][]subscriber
	subscriberLock *sync.Mutex
}

func NewEventRepository(config ...interface{}) (domain.EventRepository, error) {
	if len(config) != 2 {
		return nil, fmt.Errorf("invalid config")
	}
	baseDir, ok := config[0].(string)
	if !ok {
		return nil, fmt.Errorf("invalid base directory")
	}
	var logger badger.Logger
	if config[1] != nil {
		logger, ok = config[1].(badger.Logger)
		if !ok {
			return nil, fmt.Errorf("invalid logger")
		}
	}

	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, eventStoreDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open event store: %s", err)
	}

	return &eventRepository{
		store:          store,
		subscribers:    make(map[string][]subscriber),
		subscriberLock: &sync.Mutex{},
	}, nil
}

func (r *eventRepository) Append(ctx context.Context, events ...domain.Event) error {
	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to serialize event: %w", err)
		}
		dto := eventDTO{
			ID:        event.GetID(),
			Type:      string(event.GetType()),
			Asset:     event.GetAsset().String(),
			Payload:   payload,
			CreatedAt: event.GetCreatedAt(),
		}
		if err := r.upsert(dto); err != nil {
			return fmt.Errorf("failed to store event: %w", err)
		}
	}

	r.dispatch(domain.MarketTopic, events)
	return nil
}

func (r *eventRepository) RegisterEventsHandler(
	topic string, handler func(events []domain.Event),
) {
	r.subscriberLock.Lock()
	defer r.subscriberLock.Unlock()

	if _, ok := r.subscribers[topic]; !ok {
		r.subscribers[topic] = make([]subscriber, 0)
	}

	r.subscribers[topic] = append(r.subscribers[topic], subscriber{
		topic:   topic,
		handler: handler,
	})
}

func (r *eventRepository) Close() {
	// nolint:all
	r.store.Close()
}

func (r *eventRepository) dispatch(topic string, events []domain.Event) {
	if len(events) == 0 {
		return
	}

	r.subscriberLock.Lock()
	defer r.subscriberLock.Unlock()
	for _, sub := range r.subscribers[topic] {
		go sub.handler(events)
	}
}

func (r *eventRepository) upsert(dto eventDTO) error {
	if err := r.store.Upsert(dto.ID, &dto); err != nil {
		if errors.Is(err, badger.ErrConflict) {
			attempts := 1
			for errors.Is(err, badger.ErrConflict) && attempts <= maxRetries {
				time.Sleep(100 * time.Millisecond)
				err = r.store.Upsert(dto.ID, &dto)
				attempts++
			}
		}
		return err
	}
	return nil
}
