package sched

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestArmFires(t *testing.T) {
	s := New()
	done := make(chan struct{})
	s.Arm("wheat", time.Now().Add(20*time.Millisecond), func() { close(done) })
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
	if s.Armed("wheat") {
		t.Fatal("fired timer still registered")
	}
}

func TestArmPastFiresImmediately(t *testing.T) {
	s := New()
	done := make(chan struct{})
	s.Arm("wheat", time.Now().Add(-time.Hour), func() { close(done) })
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("past fireAt was skipped")
	}
}

func TestArmReplaces(t *testing.T) {
	s := New()
	var first atomic.Bool
	done := make(chan struct{})
	s.Arm("wheat", time.Now().Add(30*time.Millisecond), func() { first.Store(true) })
	s.Arm("wheat", time.Now().Add(60*time.Millisecond), func() { close(done) })
	if s.Len() != 1 {
		t.Fatalf("expected 1 pending timer, got %d", s.Len())
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("replacement timer did not fire")
	}
	// give the replaced timer's window time to elapse
	time.Sleep(50 * time.Millisecond)
	if first.Load() {
		t.Fatal("replaced timer callback ran")
	}
}

func TestCancelIdempotent(t *testing.T) {
	s := New()
	var fired atomic.Bool
	s.Arm("wheat", time.Now().Add(30*time.Millisecond), func() { fired.Store(true) })
	s.Cancel("wheat")
	s.Cancel("wheat")
	s.Cancel("never-armed")
	time.Sleep(80 * time.Millisecond)
	if fired.Load() {
		t.Fatal("canceled timer callback ran")
	}
	if s.Len() != 0 {
		t.Fatalf("expected no timers, got %d", s.Len())
	}
}

func TestFireAt(t *testing.T) {
	s := New()
	at := time.Now().Add(time.Hour)
	s.Arm("wheat", at, func() {})
	defer s.CancelAll()
	got, ok := s.FireAt("wheat")
	if !ok || !got.Equal(at) {
		t.Fatalf("FireAt = %v, %v; want %v, true", got, ok, at)
	}
	if _, ok := s.FireAt("corn"); ok {
		t.Fatal("FireAt for unarmed name reported armed")
	}
}

// Interleave arbitrary arm/cancel sequences and assert at most one timer per
// name exists at any instant.
func TestAtMostOneTimerPerName(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	names := []string{"wheat", "corn", "melon"}
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(seed int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				name := names[(seed+j)%len(names)]
				switch j % 3 {
				case 0, 1:
					s.Arm(name, time.Now().Add(time.Duration(j)*time.Millisecond), func() {})
				case 2:
					s.Cancel(name)
				}
				if n := s.Len(); n > len(names) {
					t.Errorf("more timers than names: %d", n)
					return
				}
			}
		}(i)
	}
	wg.Wait()
	s.CancelAll()
	if s.Len() != 0 {
		t.Fatalf("timers left after CancelAll: %d", s.Len())
	}
}

func TestCancelAllManyNames(t *testing.T) {
	s := New()
	for i := 0; i < 20; i++ {
		s.Arm(fmt.Sprintf("farm-%d", i), time.Now().Add(time.Hour), func() {})
	}
	if s.Len() != 20 {
		t.Fatalf("expected 20 timers, got %d", s.Len())
	}
	s.CancelAll()
	if s.Len() != 0 {
		t.Fatalf("expected 0 timers, got %d", s.Len())
	}
}
