package ratelimit

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestLimiter(maxCalls int, window time.Duration) *Limiter {
	return NewLimiter("test-source", maxCalls, window, zerolog.Nop())
}

func TestLimiter_CanCall_WithinBudget(t *testing.T) {
	l := newTestLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !l.CanCall() {
			t.Fatalf("call %d: expected CanCall true within budget", i)
		}
		l.AddCall()
	}

	if l.CanCall() {
		t.Fatal("expected CanCall false after exhausting budget")
	}
}

func TestLimiter_WaitTime(t *testing.T) {
	tests := []struct {
		name       string
		maxCalls   int
		makeCalls  int
		expectZero bool
	}{
		{name: "under budget waits zero", maxCalls: 5, makeCalls: 2, expectZero: true},
		{name: "at budget must wait", maxCalls: 2, makeCalls: 2, expectZero: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLimiter(tt.maxCalls, time.Minute)
			for i := 0; i < tt.makeCalls; i++ {
				l.AddCall()
			}

			wait := l.WaitTime()
			if tt.expectZero && wait != 0 {
				t.Errorf("expected zero wait, got %v", wait)
			}
			if !tt.expectZero && wait <= 0 {
				t.Errorf("expected positive wait, got %v", wait)
			}
		})
	}
}

func TestLimiter_EvictsExpiredCalls(t *testing.T) {
	l := newTestLimiter(1, 10*time.Millisecond)
	l.AddCall()

	if l.CanCall() {
		t.Fatal("expected CanCall false immediately after exhausting budget")
	}

	time.Sleep(20 * time.Millisecond)

	if !l.CanCall() {
		t.Fatal("expected CanCall true after window elapsed")
	}
}

func TestLimiter_NeverBlocks(t *testing.T) {
	l := newTestLimiter(1, time.Hour)
	l.AddCall()

	done := make(chan struct{})
	go func() {
		_ = l.CanCall()
		_ = l.WaitTime()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("limiter call blocked")
	}
}
