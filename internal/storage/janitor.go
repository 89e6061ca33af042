package storage

import (
	"time"

	"github.com/moritama/project-board-api/internal/logging"
)

// Janitor deletes stored objects after their metadata entry has been removed.
// Metadata is the source of truth: a failed physical delete is retried a few
// times and then logged, never surfaced to the request that removed the
// attachment.
type Janitor struct {
	store    Store
	queue    chan string
	retries  int
	backoff  time.Duration
	done     chan struct{}
}

func NewJanitor(store Store) *Janitor {
	return &Janitor{
		store:   store,
		queue:   make(chan string, 256),
		retries: 3,
		backoff: 2 * time.Second,
		done:    make(chan struct{}),
	}
}

// Start launches the background worker. Call Stop to drain and exit.
func (j *Janitor) Start() {
	go func() {
		defer close(j.done)
		for path := range j.queue {
			j.remove(path)
		}
	}()
}

// Stop closes the queue and waits for the worker to finish pending deletes.
func (j *Janitor) Stop() {
	close(j.queue)
	<-j.done
}

// Schedule enqueues a physical delete. When the queue is full the delete is
// attempted inline so the object is not silently leaked.
func (j *Janitor) Schedule(path string) {
	select {
	case j.queue <- path:
	default:
		j.remove(path)
	}
}

func (j *Janitor) remove(path string) {
	var err error
	for attempt := 0; attempt <= j.retries; attempt++ {
		if attempt > 0 {
			time.Sleep(j.backoff)
		}
		if err = j.store.Remove(path); err == nil {
			return
		}
	}
	logging.Logger.WithField("path", path).
		Warnf("Failed to delete stored attachment after %d attempts: %v", j.retries+1, err)
}
