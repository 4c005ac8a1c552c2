package app

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	db "github.com/jdylanwp/trendjack/internal/storage"
)

type fakeLock struct {
	released int
}

func (f *fakeLock) Release(_ context.Context) error {
	f.released++

	return nil
}

type fakeLocker struct {
	lock db.Lock
	err  error
	keys []int64
}

func (f *fakeLocker) TryAcquireLock(_ context.Context, key int64) (db.Lock, error) {
	f.keys = append(f.keys, key)

	return f.lock, f.err
}

func TestRunLockedRunsAndReleases(t *testing.T) {
	logger := zerolog.Nop()
	lock := &fakeLock{}
	locker := &fakeLocker{lock: lock}
	a := &App{locks: locker, logger: &logger}

	var ran bool

	err := a.runLocked(context.Background(), db.LockLeadsPipeline, "leads", func(_ context.Context) error {
		ran = true

		return nil
	})
	require.NoError(t, err)

	assert.True(t, ran)
	assert.Equal(t, 1, lock.released)
	assert.Equal(t, []int64{db.LockLeadsPipeline}, locker.keys)
}

func TestRunLockedSkipsWhenLockHeld(t *testing.T) {
	logger := zerolog.Nop()
	a := &App{locks: &fakeLocker{lock: nil}, logger: &logger}

	var ran bool

	err := a.runLocked(context.Background(), db.LockTrendsPipeline, "trends", func(_ context.Context) error {
		ran = true

		return nil
	})
	require.NoError(t, err)

	assert.False(t, ran)
}

func TestRunLockedReleasesOnRunError(t *testing.T) {
	logger := zerolog.Nop()
	lock := &fakeLock{}
	a := &App{locks: &fakeLocker{lock: lock}, logger: &logger}

	runErr := errors.New("pipeline failed")

	err := a.runLocked(context.Background(), db.LockEntitiesPipeline, "entities", func(_ context.Context) error {
		return runErr
	})

	assert.ErrorIs(t, err, runErr)
	assert.Equal(t, 1, lock.released)
}
