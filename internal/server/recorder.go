package server

import (
	"context"
	"sync"
	"time"

	"github.com/bluejays/teamtrack/internal/drill"
	"github.com/bluejays/teamtrack/internal/logging"
	"github.com/bluejays/teamtrack/internal/team"
)

const recordTimeout = 10 * time.Second

type resultJob struct {
	uid    string
	result drill.Result
}

// focusRecorder is the subset of team.Service the recorder writes to.
type focusRecorder interface {
	RecordFocus(ctx context.Context, uid string, score int) (team.FocusLog, error)
}

// recorder writes drill results to the focus log on a background worker.
// Record never blocks: when the buffer is full the result is dropped and
// logged.
type recorder struct {
	store focusRecorder
	jobs  chan resultJob
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

func newRecorder(store focusRecorder, buffer int) *recorder {
	r := &recorder{
		store: store,
		jobs:  make(chan resultJob, buffer),
		done:  make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *recorder) run() {
	defer close(r.done)
	for job := range r.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		_, err := r.store.RecordFocus(ctx, job.uid, job.result.Score)
		cancel()
		if err != nil {
			logging.Error("failed to record focus result",
				"uid", job.uid, "score", job.result.Score, "error", err)
			continue
		}
		logging.Debug("recorded focus result",
			"uid", job.uid, "score", job.result.Score, "completed", job.result.Completed)
	}
}

// sinkFor returns the drill result sink for uid.
func (r *recorder) sinkFor(uid string) drill.ResultSink {
	return drill.SinkFunc(func(res drill.Result) {
		r.enqueue(resultJob{uid: uid, result: res})
	})
}

func (r *recorder) enqueue(job resultJob) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		logging.Warn("dropped focus result after shutdown", "uid", job.uid, "score", job.result.Score)
		return
	}
	select {
	case r.jobs <- job:
	default:
		logging.Warn("dropped focus result, recorder busy", "uid", job.uid, "score", job.result.Score)
	}
}

// Close stops accepting results and waits for queued ones to be written.
func (r *recorder) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.jobs)
	}
	r.mu.Unlock()
	<-r.done
}
