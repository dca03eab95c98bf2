package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func startLoop(t *testing.T) *Loop {
	t.Helper()
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)
	t.Cleanup(func() {
		cancel()
		l.Stop()
	})
	return l
}

func TestLoop_DoRunsAndWaits(t *testing.T) {
	l := startLoop(t)
	ran := false
	if err := l.Do(func() { ran = true }); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if !ran {
		t.Error("Do returned before fn ran")
	}
}

func TestLoop_DoAfterStop(t *testing.T) {
	l := NewLoop()
	l.Stop()
	if err := l.Do(func() {}); err != ErrStopped {
		t.Errorf("expected ErrStopped, got %v", err)
	}
}

func TestLoop_AfterFuncRunsOnLoop(t *testing.T) {
	l := startLoop(t)
	done := make(chan struct{})
	l.AfterFunc(10*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("AfterFunc never fired")
	}
}

func TestLoop_StoppedTaskNeverRuns(t *testing.T) {
	l := startLoop(t)
	var fired atomic.Bool
	task := l.AfterFunc(20*time.Millisecond, func() { fired.Store(true) })
	if !task.Stop() {
		t.Fatal("Stop should report true for a pending task")
	}
	time.Sleep(60 * time.Millisecond)
	if err := l.Do(func() {}); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if fired.Load() {
		t.Error("stopped task ran")
	}
}

func TestLoop_PanicDoesNotKillLoop(t *testing.T) {
	l := startLoop(t)
	_ = l.Do(func() { panic("boom") })
	ran := false
	if err := l.Do(func() { ran = true }); err != nil {
		t.Fatalf("Do after panic: %v", err)
	}
	if !ran {
		t.Error("loop stopped processing after a panic")
	}
}

func TestLoop_CancelledContextStopsDo(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	exited := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(exited)
	}()
	cancel()
	<-exited
	if err := l.Do(func() {}); err != ErrStopped {
		t.Errorf("expected ErrStopped after cancel, got %v", err)
	}
}
