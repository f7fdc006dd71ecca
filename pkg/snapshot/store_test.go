package snapshot

import (
	"context"
	"testing"
)

func TestMemStorePutAndGet(t *testing.T) {
	m := NewMemStore()

	loc, err := m.Put(context.Background(), "home.html", []byte("<div>hi</div>"))
	if err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if loc != "mem://home.html" {
		t.Errorf("unexpected location %q", loc)
	}

	got, ok := m.Get("home.html")
	if !ok || string(got) != "<div>hi</div>" {
		t.Errorf("get mismatch: %q (%v)", got, ok)
	}
	if m.Len() != 1 {
		t.Errorf("expected 1 object, got %d", m.Len())
	}
}

func TestMemStoreCopiesInput(t *testing.T) {
	m := NewMemStore()

	buf := []byte("original")
	m.Put(context.Background(), "a", buf)
	buf[0] = 'X'

	got, _ := m.Get("a")
	if string(got) != "original" {
		t.Error("store must copy the snapshot bytes")
	}
}
