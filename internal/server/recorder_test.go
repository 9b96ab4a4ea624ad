package server

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluejays/teamtrack/internal/drill"
	"github.com/bluejays/teamtrack/internal/team"
)

type fakeFocusStore struct {
	mu      sync.Mutex
	scores  map[string][]int
	gate    chan struct{} // when set, RecordFocus waits for it
	failFor string
}

func newFakeFocusStore() *fakeFocusStore {
	return &fakeFocusStore{scores: make(map[string][]int)}
}

func (f *fakeFocusStore) RecordFocus(_ context.Context, uid string, score int) (team.FocusLog, error) {
	if f.gate != nil {
		<-f.gate
	}
	if uid == f.failFor {
		return team.FocusLog{}, errors.New("disk full")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scores[uid] = append(f.scores[uid], score)
	return team.FocusLog{UID: uid, Score: score}, nil
}

func (f *fakeFocusStore) get(uid string) []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.scores[uid]...)
}

func TestRecorder_WritesResults(t *testing.T) {
	store := newFakeFocusStore()
	rec := newRecorder(store, 4)

	rec.sinkFor("u1").Record(drill.Result{Score: 12})
	rec.sinkFor("u2").Record(drill.Result{Score: 40, Completed: true})
	rec.sinkFor("u1").Record(drill.Result{Score: 15})
	rec.Close()

	assert.Equal(t, []int{12, 15}, store.get("u1"))
	assert.Equal(t, []int{40}, store.get("u2"))
}

func TestRecorder_NeverBlocks(t *testing.T) {
	store := newFakeFocusStore()
	store.gate = make(chan struct{})
	rec := newRecorder(store, 1)

	sink := rec.sinkFor("u1")
	done := make(chan struct{})
	go func() {
		defer close(done)
		// One is picked up by the worker, one fills the buffer and the
		// rest are dropped.
		for i := 0; i < 10; i++ {
			sink.Record(drill.Result{Score: i})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Record blocked on a slow store")
	}

	close(store.gate)
	rec.Close()
	got := store.get("u1")
	assert.NotEmpty(t, got)
	assert.LessOrEqual(t, len(got), 2)
	assert.Equal(t, 0, got[0])
}

func TestRecorder_FailureIsLoggedNotRetried(t *testing.T) {
	store := newFakeFocusStore()
	store.failFor = "bad"
	rec := newRecorder(store, 4)

	rec.sinkFor("bad").Record(drill.Result{Score: 3})
	rec.sinkFor("good").Record(drill.Result{Score: 4})
	rec.Close()

	assert.Empty(t, store.get("bad"))
	assert.Equal(t, []int{4}, store.get("good"))
}

func TestRecorder_AfterClose(t *testing.T) {
	store := newFakeFocusStore()
	rec := newRecorder(store, 4)
	rec.Close()
	rec.Close()

	require.NotPanics(t, func() {
		rec.sinkFor("u1").Record(drill.Result{Score: 1})
	})
	assert.Empty(t, store.get("u1"))
}
