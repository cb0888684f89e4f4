package spsc

import (
	"testing"
)

func TestRingBasic(t *testing.T) {
	r := New[int](4)

	if !r.TryPush(1) || !r.TryPush(2) {
		t.Fatal("push failed unexpectedly")
	}
	if v, ok := r.TryPop(); !ok || v != 1 {
		t.Errorf("expected first pop to be 1, got %d ok=%v", v, ok)
	}
	if v, ok := r.TryPop(); !ok || v != 2 {
		t.Errorf("expected second pop to be 2, got %d ok=%v", v, ok)
	}
	if _, ok := r.TryPop(); ok {
		t.Error("expected empty ring to report not ok")
	}
}

func TestRingFull(t *testing.T) {
	r := New[int](4)
	for i := 0; i < r.Cap(); i++ {
		if !r.TryPush(i) {
			t.Fatalf("push %d failed before capacity", i)
		}
	}
	if r.TryPush(99) {
		t.Error("expected push on full ring to fail")
	}
	if !r.IsFull() {
		t.Error("expected IsFull")
	}
	if _, ok := r.TryPop(); !ok {
		t.Fatal("pop on full ring failed")
	}
	if !r.TryPush(99) {
		t.Error("expected push to succeed after pop freed a slot")
	}
}

func TestRingCapacityRoundsUp(t *testing.T) {
	r := New[int](5)
	if r.Cap() != 8 {
		t.Errorf("expected capacity 8, got %d", r.Cap())
	}
	r = New[int](0)
	if r.Cap() != 2 {
		t.Errorf("expected minimum capacity 2, got %d", r.Cap())
	}
}

func TestRingWrapAround(t *testing.T) {
	r := New[int](4)
	for round := 0; round < 10; round++ {
		for i := 0; i < 3; i++ {
			r.Push(round*10 + i)
		}
		for i := 0; i < 3; i++ {
			v, ok := r.TryPop()
			if !ok || v != round*10+i {
				t.Fatalf("round %d: expected %d, got %d ok=%v", round, round*10+i, v, ok)
			}
		}
	}
	if !r.IsEmpty() {
		t.Error("expected ring to be empty after drain")
	}
}

func TestRingConcurrent(t *testing.T) {
	const n = 100000
	r := New[uint64](1024)
	done := make(chan struct{})

	go func() {
		for i := uint64(0); i < n; i++ {
			r.Push(i)
		}
		close(done)
	}()

	var next uint64
	for next < n {
		v, ok := r.TryPop()
		if !ok {
			continue
		}
		if v != next {
			t.Fatalf("out of order: expected %d, got %d", next, v)
		}
		next++
	}
	<-done
}
