package api

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"taskboard-api/domain"
)

// Activity events are best-effort: they ride a bounded worker pool so request
// latency never depends on the queue, and a failed publish is logged, not
// surfaced.

type publishJob struct {
	userID string
	events []domain.TaskEvent
	added  []string // keys recorded in the deduper (for rollback on failure)
}

var (
	once           sync.Once
	jobs           chan publishJob
	workerCount    int
	jobBuf         int
	publishTimeout time.Duration
	handoffTimeout time.Duration
	bg             = context.Background()
	globalStore    Storage
	globalDeduper  Deduper
	globalLog      *log.Logger
	workerWG       sync.WaitGroup
)

// shutdownEventPublisher stops worker goroutines and clears shared state. It
// is intended for tests.
func shutdownEventPublisher() {
	if jobs != nil {
		close(jobs)
		jobs = nil
	}

	workerWG.Wait()

	globalStore = nil
	globalDeduper = nil
	globalLog = nil
	workerCount = 0
	jobBuf = 0
	publishTimeout = 0
	handoffTimeout = 0
	once = sync.Once{}
	workerWG = sync.WaitGroup{}
}

func initEventPublisher(store Storage, deduper Deduper, logger *log.Logger) {
	once.Do(func() {
		globalStore = store
		globalDeduper = deduper
		if logger == nil {
			panic("Logger is not initialized")
		}
		globalLog = logger

		workerCount = envInt("EVENTS_WORKERS", 8)
		jobBuf = envInt("EVENTS_BUFFER", 1024)
		publishTimeout = envDur("EVENTS_TIMEOUT", 30*time.Second)
		handoffTimeout = envDur("EVENTS_HANDOFF_TIMEOUT", 10*time.Millisecond)

		jobs = make(chan publishJob, jobBuf)
		for i := 0; i < workerCount; i++ {
			workerWG.Add(1)
			go worker(i, jobs)
		}
		globalLog.Infof("event publisher started, workers: %d, buffer: %d, timeout: %v, handoff: %v", workerCount, jobBuf, publishTimeout, handoffTimeout)
	})
}

func worker(id int, jobCh <-chan publishJob) {
	defer workerWG.Done()
	for j := range jobCh {
		ctx, cancel := context.WithTimeout(bg, publishTimeout)
		err := globalStore.EnqueueEvents(ctx, j.userID, j.events)
		cancel()

		if err != nil {
			rollbackDedupeKeys(j.userID, j.added)
			globalLog.Errorf("event publish failed, err: %v, user: %s, count: %d, worker: %d", err, j.userID, len(j.events), id)
		}
	}
}

func rollbackDedupeKeys(userID string, keys []string) {
	if globalDeduper == nil {
		return
	}
	for _, k := range keys {
		if err := globalDeduper.Remove(bg, userID, k); err != nil {
			globalLog.Errorf("dedupe rollback failed, err: %v, key: %s, user: %s", err, k, userID)
		}
	}
}

// publishTaskEvent dedupes one event and hands it to the pool, falling back
// to a background inline publish when the pool is saturated.
func publishTaskEvent(userID string, ev domain.TaskEvent) {
	if globalStore == nil || globalLog == nil {
		return
	}

	ev.Timestamp = nextTimestamp()
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}

	var added []string
	if globalDeduper != nil {
		newlyAdded, err := globalDeduper.Add(bg, userID, ev.ID)
		if err != nil {
			globalLog.Warnf("dedupe add failed, publishing anyway: %v", err)
		} else if !newlyAdded {
			return
		} else {
			added = append(added, ev.ID)
		}
	}

	job := publishJob{userID: userID, events: []domain.TaskEvent{ev}, added: added}
	if tryPublishJob(job) {
		return
	}

	globalLog.Warn("event publisher saturated; publishing inline")
	go func() {
		ctx, cancel := context.WithTimeout(bg, publishTimeout)
		defer cancel()
		if err := globalStore.EnqueueEvents(ctx, job.userID, job.events); err != nil {
			rollbackDedupeKeys(job.userID, job.added)
			globalLog.Errorf("inline event publish failed, err: %v, user: %s", err, job.userID)
		}
	}()
}

func tryPublishJob(job publishJob) bool {
	if jobs == nil {
		return false
	}

	if ok, closed := trySendNonBlocking(jobs, job); closed {
		return false
	} else if ok {
		return true
	}

	if handoffTimeout <= 0 {
		return false
	}

	timer := time.NewTimer(handoffTimeout)
	defer timer.Stop()

	ok, closed := sendWithTimer(jobs, job, timer.C)
	if closed {
		return false
	}
	return ok
}

func trySendNonBlocking(ch chan publishJob, job publishJob) (ok bool, closed bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			closed = true
		}
	}()

	select {
	case ch <- job:
		return true, false
	default:
		return false, false
	}
}

func sendWithTimer(ch chan publishJob, job publishJob, timer <-chan time.Time) (ok bool, closed bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			closed = true
		}
	}()

	select {
	case ch <- job:
		return true, false
	case <-timer:
		return false, false
	}
}
