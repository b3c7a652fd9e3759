package events

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDispatcher_DeliversToSubscribersOfType(t *testing.T) {
	d := NewInMemoryDispatcher()
	var got []EventType
	d.Subscribe(EventUserDeleted, func(_ context.Context, e Event) error {
		got = append(got, e.Type)
		return nil
	})

	ctx := context.Background()
	_ = d.Publish(ctx, New(EventUserDeleted, 1, Actor{}, time.Now(), UserDeletedPayload{Email: "a@b.c"}))
	_ = d.Publish(ctx, New(EventAssetDeleted, 1, Actor{}, time.Now(), nil))

	if len(got) != 1 || got[0] != EventUserDeleted {
		t.Fatalf("delivered = %v, want [%s]", got, EventUserDeleted)
	}
}

func TestDispatcher_RunsAllHandlersAndJoinsErrors(t *testing.T) {
	d := NewInMemoryDispatcher()
	first := errors.New("first")
	calls := 0
	d.Subscribe(EventAssetTagIssued, func(context.Context, Event) error {
		calls++
		return first
	})
	d.Subscribe(EventAssetTagIssued, func(context.Context, Event) error {
		calls++
		return nil
	})

	err := d.Publish(context.Background(), New(EventAssetTagIssued, 7, Actor{}, time.Now(), nil))
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if !errors.Is(err, first) {
		t.Errorf("Publish() err = %v, want first", err)
	}
}

func TestNew_StampsIDAndUTC(t *testing.T) {
	at := time.Date(2025, 3, 10, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	a := New(EventUserRegistered, 3, Actor{}, at, nil)
	b := New(EventUserRegistered, 3, Actor{}, at, nil)

	if a.ID == "" || a.ID == b.ID {
		t.Errorf("ids = %q, %q; want distinct non-empty", a.ID, b.ID)
	}
	if a.Timestamp.Location() != time.UTC || !a.Timestamp.Equal(at) {
		t.Errorf("Timestamp = %v", a.Timestamp)
	}
}
