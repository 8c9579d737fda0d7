package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeExecutor struct {
	calls atomic.Int64
	err   error
}

func (f *fakeExecutor) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	f.calls.Add(1)
	return pgconn.CommandTag{}, f.err
}

func TestSummaryRefresher_RunOnce(t *testing.T) {
	db := &fakeExecutor{}
	r := NewSummaryRefresher(zap.NewNop(), db, nil, time.Hour)

	r.runOnce(context.Background())
	assert.Equal(t, int64(1), db.calls.Load())
}

func TestSummaryRefresher_RefreshFailureDoesNotPanic(t *testing.T) {
	db := &fakeExecutor{err: errors.New("relation does not exist")}
	r := NewSummaryRefresher(zap.NewNop(), db, nil, time.Hour)

	r.runOnce(context.Background())
	assert.Equal(t, int64(1), db.calls.Load())
}

func TestSummaryRefresher_StopsOnContextCancel(t *testing.T) {
	db := &fakeExecutor{}
	r := NewSummaryRefresher(zap.NewNop(), db, nil, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresher did not stop on context cancel")
	}
}

func TestSummaryRefresher_ManualStop(t *testing.T) {
	db := &fakeExecutor{}
	r := NewSummaryRefresher(zap.NewNop(), db, nil, time.Hour)

	done := make(chan struct{})
	go func() {
		r.Start(context.Background())
		close(done)
	}()

	r.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresher did not stop after Stop()")
	}
}
