package storage

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, ok, err := m.Get(ctx, "user"); err != nil || ok {
		t.Fatalf("Get on empty = ok %v, err %v; want false, nil", ok, err)
	}

	if err := m.Set(ctx, "user", `{"id":"1"}`); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok, err := m.Get(ctx, "user")
	if err != nil || !ok {
		t.Fatalf("get: ok %v, err %v", ok, err)
	}
	if v != `{"id":"1"}` {
		t.Errorf("value = %q", v)
	}

	if err := m.Remove(ctx, "user"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok, _ := m.Get(ctx, "user"); ok {
		t.Error("expected key to be gone after remove")
	}
	if err := m.Remove(ctx, "user"); err != nil {
		t.Errorf("remove missing key: %v", err)
	}
}

func TestMemoryHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewMemory()
	if err := m.Set(ctx, "k", "v"); !errors.Is(err, context.Canceled) {
		t.Errorf("Set err = %v, want context.Canceled", err)
	}
	if _, _, err := m.Get(ctx, "k"); !errors.Is(err, context.Canceled) {
		t.Errorf("Get err = %v, want context.Canceled", err)
	}
	if err := m.Remove(ctx, "k"); !errors.Is(err, context.Canceled) {
		t.Errorf("Remove err = %v, want context.Canceled", err)
	}
}
