package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/rolo/internal/models"
)

// fakeUpdater implements RedisUpdater for tests
type fakeUpdater struct {
	failH     int // number of times to fail HSet before succeeding
	failPush  int // number of times to fail PushActivity before succeeding
	hCalls    int
	pushCalls int
	keys      []string
	limit     int64
}

func (f *fakeUpdater) HSet(ctx context.Context, key string, values map[string]interface{}) error {
	f.hCalls++
	if f.hCalls <= f.failH {
		return errors.New("hset fail")
	}
	f.keys = append(f.keys, key)
	return nil
}

func (f *fakeUpdater) PushActivity(ctx context.Context, key string, value []byte, limit int64) error {
	f.pushCalls++
	if f.pushCalls <= f.failPush {
		return errors.New("push fail")
	}
	f.keys = append(f.keys, key)
	f.limit = limit
	return nil
}

var completed = models.RideEvent{RideID: "r1", UserID: "u1", From: models.StatusInProgress, To: models.StatusCompleted, At: time.Now()}

func TestProjectWithRetry_SucceedsAfterRetries(t *testing.T) {
	f := &fakeUpdater{failH: 1, failPush: 1}
	start := time.Now()
	if err := projectWithRetry(context.Background(), f, completed, []byte(`{}`), 3, 10*time.Millisecond); err != nil {
		t.Fatalf("expected success, got err=%v", err)
	}
	if f.hCalls < 2 || f.pushCalls < 2 {
		t.Fatalf("expected retries, got hset=%d push=%d", f.hCalls, f.pushCalls)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Fatalf("expected at least one backoff")
	}
}

func TestProjectWithRetry_WritesStatusAndActivity(t *testing.T) {
	f := &fakeUpdater{}
	if err := projectWithRetry(context.Background(), f, completed, []byte(`{}`), 1, time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if len(f.keys) != 2 || f.keys[0] != "ride:status:r1" || f.keys[1] != "activity:u1" {
		t.Fatalf("keys = %v", f.keys)
	}
	if f.limit != 50 {
		t.Fatalf("activity limit = %d", f.limit)
	}
}

func TestProjectWithRetry_FailsWhenExhausted(t *testing.T) {
	f := &fakeUpdater{failH: 5}
	if err := projectWithRetry(context.Background(), f, completed, []byte(`{}`), 3, 5*time.Millisecond); err == nil {
		t.Fatalf("expected error after retries")
	}
}
