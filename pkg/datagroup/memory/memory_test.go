package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/mwessel/relais/pkg/datagroup"
)

func TestPutGetRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.Put(ctx, "name", "Bobby123", "people"); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := s.Get(ctx, "name", "people")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "Bobby123" {
		t.Errorf("value = %q, want Bobby123", got)
	}
}

func TestGetMissingKey(t *testing.T) {
	s := New()

	_, err := s.Get(context.Background(), "nope", "people")
	if !errors.Is(err, datagroup.ErrKeyNotFound) {
		t.Errorf("err = %v, want ErrKeyNotFound", err)
	}
}

func TestGetWrongGroup(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.Put(ctx, "name", "Bobby123", "people"); err != nil {
		t.Fatalf("put: %v", err)
	}

	_, err := s.Get(ctx, "name", "machines")
	if !errors.Is(err, datagroup.ErrAccessDenied) {
		t.Errorf("err = %v, want ErrAccessDenied", err)
	}
}

func TestRePutReplacesValueAndGroup(t *testing.T) {
	s := New()
	ctx := context.Background()

	s.Put(ctx, "name", "Bobby123", "people")
	s.Put(ctx, "name", "HAL", "machines")

	if _, err := s.Get(ctx, "name", "people"); !errors.Is(err, datagroup.ErrAccessDenied) {
		t.Errorf("old group still has access: err = %v", err)
	}

	got, err := s.Get(ctx, "name", "machines")
	if err != nil {
		t.Fatalf("get with new group: %v", err)
	}
	if got != "HAL" {
		t.Errorf("value = %q, want HAL", got)
	}
	if s.Len() != 1 {
		t.Errorf("len = %d, want 1 (re-put replaces, not adds)", s.Len())
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := New()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", n)
			s.Put(ctx, key, "value", "grp")
			if _, err := s.Get(ctx, key, "grp"); err != nil {
				t.Errorf("get %s: %v", key, err)
			}
		}(i)
	}
	wg.Wait()

	if s.Len() != 16 {
		t.Errorf("len = %d, want 16", s.Len())
	}
}
