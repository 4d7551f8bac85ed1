package commit

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestScheduleReplacesPendingTask(t *testing.T) {
	s := NewScheduler()
	defer s.CancelAll()

	var first, second atomic.Int32
	s.Schedule("k", 10*time.Millisecond, func() { first.Add(1) })
	s.Schedule("k", 10*time.Millisecond, func() { second.Add(1) })

	time.Sleep(50 * time.Millisecond)

	if first.Load() != 0 {
		t.Error("replaced task still fired")
	}
	if second.Load() != 1 {
		t.Errorf("replacement fired %d times, want 1", second.Load())
	}
}

func TestCancel(t *testing.T) {
	s := NewScheduler()
	defer s.CancelAll()

	var fired atomic.Int32
	s.Schedule("k", 10*time.Millisecond, func() { fired.Add(1) })
	s.Cancel("k")

	time.Sleep(50 * time.Millisecond)

	if fired.Load() != 0 {
		t.Error("cancelled task fired")
	}
}

func TestCancelAll(t *testing.T) {
	s := NewScheduler()

	var fired atomic.Int32
	s.Schedule("a", 10*time.Millisecond, func() { fired.Add(1) })
	s.Schedule("b", 10*time.Millisecond, func() { fired.Add(1) })
	s.CancelAll()

	time.Sleep(50 * time.Millisecond)

	if fired.Load() != 0 {
		t.Errorf("%d cancelled tasks fired", fired.Load())
	}
}

func TestIndependentKeysBothFire(t *testing.T) {
	s := NewScheduler()
	defer s.CancelAll()

	var fired atomic.Int32
	s.Schedule("a", 5*time.Millisecond, func() { fired.Add(1) })
	s.Schedule("b", 5*time.Millisecond, func() { fired.Add(1) })

	time.Sleep(50 * time.Millisecond)

	if fired.Load() != 2 {
		t.Errorf("fired %d tasks, want 2", fired.Load())
	}
}
