package bus

import "testing"

type fakeEvent struct {
	kind EventKind
}

func (e fakeEvent) Kind() EventKind { return e.kind }

func TestPublishFansOutInRegistrationOrder(t *testing.T) {
	b := New()
	var order []int
	b.Subscribe(EventTick, func(Event) { order = append(order, 1) })
	b.Subscribe(EventTick, func(Event) { order = append(order, 2) })
	b.Subscribe(EventTick, func(Event) { order = append(order, 3) })

	b.Publish(fakeEvent{kind: EventTick})

	if len(order) != 3 {
		t.Fatalf("expected 3 handlers, got %d", len(order))
	}
	for i, v := range order {
		if v != i+1 {
			t.Fatalf("handlers fired out of order: %v", order)
		}
	}
}

func TestPublishOnlyMatchingKind(t *testing.T) {
	b := New()
	fired := 0
	b.Subscribe(EventTick, func(Event) { fired++ })
	b.Subscribe(EventGapSnapshot, func(Event) { t.Fatal("wrong kind dispatched") })

	b.Publish(fakeEvent{kind: EventTick})

	if fired != 1 {
		t.Fatalf("expected 1 dispatch, got %d", fired)
	}
}

func TestPublishIsSynchronous(t *testing.T) {
	b := New()
	done := false
	b.Subscribe(EventIntent, func(Event) { done = true })

	b.Publish(fakeEvent{kind: EventIntent})
	if !done {
		t.Fatal("handler did not run before Publish returned")
	}
}

func TestKindString(t *testing.T) {
	if EventCandleClosed.String() != "candle_closed" {
		t.Fatalf("unexpected name %q", EventCandleClosed.String())
	}
	if EventKind(999).String() != "unknown" {
		t.Fatalf("expected unknown for out-of-range kind")
	}
}
