package registrar

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// studentLocks hands out one exclusive slot per student id. Entries are
// reference counted and dropped once no caller holds or waits on them.
type studentLocks struct {
	mu    sync.Mutex
	locks map[int64]*studentLock
}

type studentLock struct {
	sem  *semaphore.Weighted
	refs int
}

func newStudentLocks() *studentLocks {
	return &studentLocks{locks: make(map[int64]*studentLock)}
}

// lock blocks until studentID is owned by the caller or ctx is done.
// On success the returned func releases the slot.
func (l *studentLocks) lock(ctx context.Context, studentID int64) (func(), error) {
	l.mu.Lock()
	entry, ok := l.locks[studentID]
	if !ok {
		entry = &studentLock{sem: semaphore.NewWeighted(1)}
		l.locks[studentID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	if err := entry.sem.Acquire(ctx, 1); err != nil {
		l.unref(studentID, entry)
		return nil, err
	}

	return func() {
		entry.sem.Release(1)
		l.unref(studentID, entry)
	}, nil
}

func (l *studentLocks) unref(studentID int64, entry *studentLock) {
	l.mu.Lock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, studentID)
	}
	l.mu.Unlock()
}

func (l *studentLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
