package app

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func TestSessions_CreateGet(t *testing.T) {
	s := NewSessions(listing(133, nil), zerolog.Nop())

	id, c := s.Create()
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("session id %q is not a UUID: %v", id, err)
	}

	got, ok := s.Get(id)
	if !ok || got != c {
		t.Fatal("Get() did not return the created controller")
	}
	if _, ok := s.Get("missing"); ok {
		t.Error("Get(missing) = ok")
	}

	other, _ := s.Create()
	if other == id {
		t.Error("duplicate session id")
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}

func TestSessions_Isolated(t *testing.T) {
	s := NewSessions(listing(133, nil), zerolog.Nop())
	_, a := s.Create()
	_, b := s.Create()

	a.LoadInitial(context.Background())
	b.LoadInitial(context.Background())
	a.ToggleRow(1000, true)

	if b.Snapshot().CountSelected() != 0 {
		t.Error("selection leaked between sessions")
	}
}

func TestSessions_Sweep(t *testing.T) {
	s := NewSessions(listing(133, nil), zerolog.Nop())
	id, _ := s.Create()

	if n := s.Sweep(time.Hour); n != 0 {
		t.Errorf("Sweep(1h) removed %d", n)
	}
	if n := s.Sweep(0); n != 1 {
		t.Errorf("Sweep(0) removed %d, want 1", n)
	}
	if _, ok := s.Get(id); ok {
		t.Error("swept session still present")
	}
}

func TestSessions_RunSweeper(t *testing.T) {
	s := NewSessions(listing(133, nil), zerolog.Nop())
	s.Create()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.RunSweeper(ctx, 5*time.Millisecond, 0)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for s.Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	if s.Len() != 0 {
		t.Errorf("Len() = %d after sweeper ran", s.Len())
	}
}
