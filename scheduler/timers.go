package scheduler

import (
	"sync"
	"time"
)

// debounceTimer is one of the scheduler's three debounce timers (idle,
// touch, display-power; §4.7 "Inputs"). Each runs on its own goroutine
// ("timer thread", §5) and calls back into the scheduler when it fires.
//
// A reset restarts the countdown; once the countdown elapses without a
// further reset the timer is considered Expired and the callback fires.
type debounceTimer struct {
	mu       sync.Mutex
	duration time.Duration
	timer    *time.Timer
	onReset  func()
	onExpire func()
	stopped  bool
}

func newDebounceTimer(d time.Duration, onReset, onExpire func()) *debounceTimer {
	return &debounceTimer{duration: d, onReset: onReset, onExpire: onExpire}
}

// Reset restarts the countdown and fires onReset, matching the spec's
// TimerState transitioning to Reset on activity.
func (t *debounceTimer) Reset() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(t.duration, t.fire)
	t.mu.Unlock()

	if t.onReset != nil {
		t.onReset()
	}
}

func (t *debounceTimer) fire() {
	t.mu.Lock()
	stopped := t.stopped
	t.mu.Unlock()
	if stopped {
		return
	}
	if t.onExpire != nil {
		t.onExpire()
	}
}

// Stop cancels the timer and prevents future resets from rearming it.
func (t *debounceTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	if t.timer != nil {
		t.timer.Stop()
	}
}

// StartIdleTimer creates and arms the idle debounce timer with duration d.
// When supportKernelTimer is enabled (§4.7, "Kernel-idle mode"), the idle
// timer's callback is routed to the hardware-vsync resync logic instead of
// directly affecting refresh-rate type.
func (s *Scheduler) StartIdleTimer(d time.Duration, supportKernelTimer bool) {
	s.idleTimer = newDebounceTimer(d,
		func() {
			if supportKernelTimer {
				s.onIdleTimerKernelReset()
			} else {
				s.setIdleTimerState(Reset)
			}
		},
		func() {
			if supportKernelTimer {
				s.onIdleTimerKernelExpired()
			} else {
				s.setIdleTimerState(Expired)
			}
		},
	)
	s.idleTimer.Reset()
}

// StartTouchTimer creates and arms the touch debounce timer.
func (s *Scheduler) StartTouchTimer(d time.Duration) {
	s.touchTimer = newDebounceTimer(d,
		func() { s.setTouchTimerState(true) },
		func() { s.setTouchTimerState(false) },
	)
	s.touchTimer.Reset()
}

// StartDisplayPowerTimer creates and arms the display-power debounce timer.
func (s *Scheduler) StartDisplayPowerTimer(d time.Duration) {
	s.powerTimer = newDebounceTimer(d,
		func() { s.setDisplayPowerTimerState(Reset) },
		func() { s.setDisplayPowerTimerState(Expired) },
	)
	s.powerTimer.Reset()
}

// ResetIdleTimer reports idle-timer activity (e.g. a new frame was
// composed), restarting its countdown.
func (s *Scheduler) ResetIdleTimer() {
	if s.idleTimer != nil {
		s.idleTimer.Reset()
	}
}

// ResetTouchTimer reports touch activity.
func (s *Scheduler) ResetTouchTimer() {
	if s.touchTimer != nil {
		s.touchTimer.Reset()
	}
}

// ResetDisplayPowerTimer reports a display-power-relevant event.
func (s *Scheduler) ResetDisplayPowerTimer() {
	if s.powerTimer != nil {
		s.powerTimer.Reset()
	}
}

// StopTimers stops all three debounce timers, used on shutdown.
func (s *Scheduler) StopTimers() {
	for _, t := range []*debounceTimer{s.idleTimer, s.touchTimer, s.powerTimer} {
		if t != nil {
			t.Stop()
		}
	}
}
