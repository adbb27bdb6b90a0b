package ratelimit

import (
	"testing"
	"time"
)

func TestNewRejectsInvalidArgs(t *testing.T) {
	if New(0, 1, time.Minute) != nil {
		t.Fatal("expected nil limiter for zero rps")
	}
	if New(1, 0, time.Minute) != nil {
		t.Fatal("expected nil limiter for zero burst")
	}
}

func TestNilLimiterAllowsEverything(t *testing.T) {
	var l *KeyLimiter
	if !l.Allow("any", time.Now()) {
		t.Fatal("nil limiter must allow")
	}
}

func TestAllowEnforcesBurstPerKey(t *testing.T) {
	l := New(1, 2, time.Minute)
	now := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)

	if !l.Allow("token-a", now) {
		t.Fatal("first hit should pass")
	}
	if !l.Allow("token-a", now) {
		t.Fatal("second hit within burst should pass")
	}
	if l.Allow("token-a", now) {
		t.Fatal("third hit should be limited")
	}
	// Independent key has its own bucket.
	if !l.Allow("token-b", now) {
		t.Fatal("other key should pass")
	}
}

func TestAllowRefillsOverTime(t *testing.T) {
	l := New(1, 1, time.Minute)
	now := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)

	if !l.Allow("token-a", now) {
		t.Fatal("first hit should pass")
	}
	if l.Allow("token-a", now) {
		t.Fatal("second hit should be limited")
	}
	if !l.Allow("token-a", now.Add(2*time.Second)) {
		t.Fatal("hit after refill should pass")
	}
}

func TestAllowSkipsBlankKeys(t *testing.T) {
	l := New(1, 1, time.Minute)
	now := time.Now()
	for i := 0; i < 5; i++ {
		if !l.Allow("  ", now) {
			t.Fatal("blank keys must never be limited")
		}
	}
}
