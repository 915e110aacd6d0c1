package cache

import (
	"testing"
	"time"

	"github.com/use-agent/ecocal/models"
)

func TestGetSet(t *testing.T) {
	c := New(time.Hour)
	key := Key("09/01/2023", "09/07/2023")
	resp := &models.GatherResponse{Success: true, StartDate: "09/01/2023", EndDate: "09/07/2023"}

	if _, ok := c.Get(key, 60_000); ok {
		t.Fatal("hit on empty cache")
	}

	c.Set(key, resp)

	got, ok := c.Get(key, 60_000)
	if !ok || got != resp {
		t.Fatalf("Get = %v, %v; want stored response", got, ok)
	}
	if _, ok := c.Get(key, 0); ok {
		t.Error("maxAge 0 must bypass the cache")
	}
	if _, ok := c.Get(Key("09/01/2023", "09/08/2023"), 60_000); ok {
		t.Error("different range must miss")
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestGet_MaxAge(t *testing.T) {
	c := New(time.Hour)
	key := Key("a", "b")
	c.Set(key, &models.GatherResponse{})

	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get(key, 5); ok {
		t.Error("entry older than maxAge must miss")
	}
	if _, ok := c.Get(key, 60_000); !ok {
		t.Error("entry within maxAge must hit")
	}
}

func TestGet_Expired(t *testing.T) {
	c := New(10 * time.Millisecond)
	key := Key("a", "b")
	c.Set(key, &models.GatherResponse{})

	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Get(key, 60_000); ok {
		t.Error("entry past ttl must miss")
	}
}

func TestKey(t *testing.T) {
	if Key("a", "b") == Key("b", "a") {
		t.Error("key must depend on order")
	}
}
