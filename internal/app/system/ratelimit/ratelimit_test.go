package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestAllow_EnforcesLimit(t *testing.T) {
	l := New(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !l.Allow("10.0.0.1") {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if l.Allow("10.0.0.1") {
		t.Error("fourth attempt should be refused")
	}
	if !l.Allow("10.0.0.2") {
		t.Error("other keys should be unaffected")
	}
}

func TestAllow_WindowSlides(t *testing.T) {
	l := New(2, 10*time.Millisecond)

	l.Allow("k")
	l.Allow("k")
	if l.Allow("k") {
		t.Fatal("limit should be reached")
	}

	time.Sleep(20 * time.Millisecond)
	if !l.Allow("k") {
		t.Error("attempts should be allowed again after the window passes")
	}
}

func TestReset_ClearsKey(t *testing.T) {
	l := New(1, time.Minute)

	l.Allow("k")
	if l.Allow("k") {
		t.Fatal("limit should be reached")
	}

	l.Reset("k")
	if !l.Allow("k") {
		t.Error("reset should allow attempts again")
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.0.2.7:4123"
	if got := ClientIP(r); got != "192.0.2.7" {
		t.Errorf("ClientIP: got %q, want %q", got, "192.0.2.7")
	}

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 192.0.2.7")
	if got := ClientIP(r); got != "203.0.113.9" {
		t.Errorf("ClientIP with X-Forwarded-For: got %q, want %q", got, "203.0.113.9")
	}
}
