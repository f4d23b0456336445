package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestSetAndGet(t *testing.T) {
	c := New(10, time.Minute)

	c.Set("natgeo", "787132")
	got, ok := c.Get("natgeo")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got != "787132" {
		t.Errorf("Get = %q, want %q", got, "787132")
	}

	if _, ok := c.Get("missing"); ok {
		t.Error("expected cache miss for unknown key")
	}
}

func TestExpiry(t *testing.T) {
	c := New(10, 20*time.Millisecond)

	c.Set("k", "v")
	time.Sleep(40 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Error("expired entry should not be returned")
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d after expired read, want 0", c.Len())
	}
}

func TestBoundedSize(t *testing.T) {
	c := New(5, time.Minute)

	for i := 0; i < 20; i++ {
		c.Set(fmt.Sprintf("key-%d", i), "v")
	}

	if c.Len() > 5 {
		t.Errorf("Len = %d, cache must stay bounded at 5", c.Len())
	}
}

func TestOverwrite(t *testing.T) {
	c := New(10, time.Minute)

	c.Set("user", "1")
	c.Set("user", "2")

	got, _ := c.Get("user")
	if got != "2" {
		t.Errorf("Get = %q, want latest value", got)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}
