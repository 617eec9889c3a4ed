package feed

import "testing"

func TestHubBroadcast(t *testing.T) {
	h := NewHub[int]()
	a := h.Subscribe(4)
	b := h.Subscribe(4)

	h.Broadcast(7)
	if v := <-a.Ch(); v != 7 {
		t.Errorf("expected 7, got %d", v)
	}
	if v := <-b.Ch(); v != 7 {
		t.Errorf("expected 7, got %d", v)
	}
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	h := NewHub[int]()
	sub := h.Subscribe(1)
	h.Unsubscribe(sub)
	if _, ok := <-sub.Ch(); ok {
		t.Error("expected channel closed after unsubscribe")
	}
	// double unsubscribe must not panic
	h.Unsubscribe(sub)
}

func TestHubDropsWhenSubscriberFull(t *testing.T) {
	h := NewHub[int]()
	sub := h.Subscribe(1)
	h.Broadcast(1)
	h.Broadcast(2) // buffer full, dropped
	if v := <-sub.Ch(); v != 1 {
		t.Errorf("expected first value kept, got %d", v)
	}
	select {
	case v := <-sub.Ch():
		t.Errorf("expected second value dropped, got %d", v)
	default:
	}
}
