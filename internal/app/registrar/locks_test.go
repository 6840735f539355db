package registrar

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStudentLocksSerializeSameStudent(t *testing.T) {
	locks := newStudentLocks()

	var (
		wg      sync.WaitGroup
		counter int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locks.lock(context.Background(), 7)
			if !assert.NoError(t, err) {
				return
			}
			defer release()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Zero(t, locks.size())
}

func TestStudentLocksIndependentStudents(t *testing.T) {
	locks := newStudentLocks()
	ctx := context.Background()

	releaseA, err := locks.lock(ctx, 1)
	require.NoError(t, err)
	releaseB, err := locks.lock(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, locks.size())

	releaseA()
	releaseB()
	assert.Zero(t, locks.size())
}

func TestStudentLocksWaiterHonoursDeadline(t *testing.T) {
	locks := newStudentLocks()

	release, err := locks.lock(context.Background(), 1)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	waiterRelease, err := locks.lock(ctx, 1)
	elapsed := time.Since(start)

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Nil(t, waiterRelease)
	assert.Less(t, elapsed, time.Second)
	assert.Equal(t, 1, locks.size(), "holder entry survives the abandoned wait")

	release()
	assert.Zero(t, locks.size())

	// The slot is free again for the next caller.
	again, err := locks.lock(context.Background(), 1)
	require.NoError(t, err)
	again()
}
