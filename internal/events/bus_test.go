package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishDeliversToSubscribers(t *testing.T) {
	bus := NewBus()

	var got atomic.Value
	bus.Subscribe(LoginSucceeded, func(ctx context.Context, ev Event) error {
		got.Store(ev)
		return nil
	})
	bus.Subscribe("other", func(ctx context.Context, ev Event) error {
		t.Error("unexpected delivery")
		return nil
	})

	bus.Publish(context.Background(), Event{Name: LoginSucceeded, Provider: "okta", UserID: "42"})
	bus.Wait()

	ev, ok := got.Load().(Event)
	assert.True(t, ok)
	assert.Equal(t, "42", ev.UserID)
}

func TestPublishSurvivesFailingSubscribers(t *testing.T) {
	bus := NewBus()

	var calls atomic.Int32
	bus.Subscribe(LoginSucceeded, func(ctx context.Context, ev Event) error {
		calls.Add(1)
		panic("boom")
	})
	bus.Subscribe(LoginSucceeded, func(ctx context.Context, ev Event) error {
		calls.Add(1)
		return errors.New("failed")
	})

	ctx, cancel := context.WithCancel(context.Background())
	bus.Subscribe(LoginSucceeded, func(subCtx context.Context, ev Event) error {
		calls.Add(1)
		assert.NoError(t, subCtx.Err())
		return nil
	})
	cancel()

	assert.NotPanics(t, func() {
		bus.Publish(ctx, Event{Name: LoginSucceeded})
		bus.Wait()
	})
	assert.Equal(t, int32(3), calls.Load())
}

func TestPublishWithoutSubscribers(t *testing.T) {
	bus := NewBus()
	bus.Publish(context.Background(), Event{Name: LoginSucceeded})
	bus.Wait()
}
