// Package events is the in-process plugin event bus. Delivery is fire-and-forget:
// a subscriber that fails or panics never affects the publisher.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/devilmonastery/multioauth/internal/pkg/metrics"
)

// LoginSucceeded is fired after a login resolved to a local user
const LoginSucceeded = "action:oauth2.login"

// Event is one notification
type Event struct {
	Name     string          `json:"name"`
	Provider string          `json:"provider"`
	UserID   string          `json:"uid"`
	Profile  json.RawMessage `json:"profile,omitempty"`
}

// Handler receives events it subscribed to
type Handler func(ctx context.Context, ev Event) error

// Bus dispatches events to subscribers on their own goroutines
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	wg       sync.WaitGroup
	logger   *slog.Logger
}

func NewBus() *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
		logger:   slog.Default().With(slog.String("component", "events")),
	}
}

// Subscribe registers h for events named name
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

// Publish hands ev to every subscriber and returns without waiting for them
func (b *Bus) Publish(ctx context.Context, ev Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[ev.Name]...)
	b.mu.RUnlock()

	// Subscribers outlive the request that triggered them
	ctx = context.WithoutCancel(ctx)
	for _, h := range handlers {
		b.wg.Add(1)
		go b.deliver(ctx, h, ev)
	}
}

func (b *Bus) deliver(ctx context.Context, h Handler, ev Event) {
	defer b.wg.Done()

	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("subscriber panic: %v", r)
		}
		status := "success"
		if err != nil {
			status = "error"
			b.logger.Warn("event subscriber failed",
				slog.String("event", ev.Name),
				slog.String("provider", ev.Provider),
				slog.String("error", err.Error()))
		}
		metrics.EventsPublished.WithLabelValues(ev.Name, status).Inc()
	}()

	err = h(ctx, ev)
}

// Wait blocks until every delivery started so far has finished
func (b *Bus) Wait() {
	b.wg.Wait()
}
