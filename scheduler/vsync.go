package scheduler

import "time"

// resyncDebounce is the 750ms debounce window for Resync() (§4.7).
const resyncDebounce = 750 * time.Millisecond

// HWVsyncControl is the narrow control surface the scheduler drives to
// (re)synchronize with hardware vsync: enabling/disabling HW vsync delivery
// and feeding resync samples into a DispSync-equivalent model. This mirrors
// the hardware-composer contract's vsync toggle (§1, "toggles vsync
// delivery") without pulling the full HWC interface into this package.
type HWVsyncControl interface {
	SetVsyncPeriod(period time.Duration)
	EnableHardwareVsync(makeAvailable bool)
	DisableHardwareVsync(makeUnavailable bool)
	// AddResyncSample forwards a resync sample; returns whether HW vsync
	// should remain enabled after this sample.
	AddResyncSample(ts time.Time) (keepEnabled bool)
	// AddPresentFence forwards the present-fence path; returns whether HW
	// vsync should remain enabled after this fence.
	AddPresentFence() (keepEnabled bool)
}

// vsyncState is the hardware-vsync bookkeeping guarded by mHWVsyncLock
// (§5, "Hardware-vsync state").
type vsyncState struct {
	control     HWVsyncControl
	hwVsyncOn   bool
	lastResync  time.Time
	hasResynced bool
	period      time.Duration
}

// BindHWVsyncControl attaches the control surface the scheduler drives.
// Must be called before Resync/AddResyncSample/AddPresentFence are used.
func (s *Scheduler) BindHWVsyncControl(c HWVsyncControl) {
	s.mHWVsyncLock.Lock()
	defer s.mHWVsyncLock.Unlock()
	s.vsync.control = c
}

// Resync implements §4.7's debounced resync(): calls less than 750ms since
// the last call are ignored, otherwise resyncToHardwareVsync(makeAvailable
// = false, currentVsyncPeriod) runs.
func (s *Scheduler) Resync(now time.Time) {
	s.mHWVsyncLock.Lock()
	if s.vsync.hasResynced && now.Sub(s.vsync.lastResync) < resyncDebounce {
		s.mHWVsyncLock.Unlock()
		return
	}
	s.vsync.lastResync = now
	s.vsync.hasResynced = true
	period := s.vsync.period
	s.mHWVsyncLock.Unlock()

	s.resyncToHardwareVsync(false, period)
}

// resyncToHardwareVsync implements §4.7: sets the vsync period and enables
// HW vsync, which begins the DispSync resync and asks the event-control
// thread to turn on vsync.
func (s *Scheduler) resyncToHardwareVsync(makeAvailable bool, period time.Duration) {
	s.mHWVsyncLock.Lock()
	s.vsync.period = period
	s.vsync.hwVsyncOn = true
	control := s.vsync.control
	s.mHWVsyncLock.Unlock()

	if control == nil {
		return
	}
	control.SetVsyncPeriod(period)
	control.EnableHardwareVsync(makeAvailable)
}

// disableHardwareVsync turns off HW vsync delivery.
func (s *Scheduler) disableHardwareVsync(makeUnavailable bool) {
	s.mHWVsyncLock.Lock()
	s.vsync.hwVsyncOn = false
	control := s.vsync.control
	s.mHWVsyncLock.Unlock()

	if control != nil {
		control.DisableHardwareVsync(makeUnavailable)
	}
}

// AddResyncSample implements addResyncSample(ts, &periodFlushed): forwards
// to the DispSync model iff HW vsync is currently on; its boolean result
// enables or disables HW vsync accordingly.
func (s *Scheduler) AddResyncSample(ts time.Time) {
	s.mHWVsyncLock.Lock()
	on := s.vsync.hwVsyncOn
	control := s.vsync.control
	s.mHWVsyncLock.Unlock()

	if !on || control == nil {
		return
	}
	if control.AddResyncSample(ts) {
		s.resyncToHardwareVsync(false, s.currentVsyncPeriod())
	} else {
		s.disableHardwareVsync(false)
	}
}

// AddPresentFence implements addPresentFence using DispSync's present-fence
// path, with the same enable/disable logic as AddResyncSample.
func (s *Scheduler) AddPresentFence() {
	s.mHWVsyncLock.Lock()
	on := s.vsync.hwVsyncOn
	control := s.vsync.control
	s.mHWVsyncLock.Unlock()

	if !on || control == nil {
		return
	}
	if control.AddPresentFence() {
		s.resyncToHardwareVsync(false, s.currentVsyncPeriod())
	} else {
		s.disableHardwareVsync(false)
	}
}

func (s *Scheduler) currentVsyncPeriod() time.Duration {
	s.mHWVsyncLock.Lock()
	defer s.mHWVsyncLock.Unlock()
	return s.vsync.period
}

// onIdleTimerKernelReset implements §4.7's kernel-idle mode idle-timer Reset
// branch: Reset + currently PERFORMANCE resyncs to hardware vsync with
// makeAvailable=true.
func (s *Scheduler) onIdleTimerKernelReset() {
	if s.CurrentRefreshRateType() == Performance {
		s.resyncToHardwareVsync(true, s.currentVsyncPeriod())
	}
}

// onIdleTimerKernelExpired implements the Expired branch: Expired + not
// PERFORMANCE disables hardware vsync (makeUnavailable=false).
func (s *Scheduler) onIdleTimerKernelExpired() {
	if s.CurrentRefreshRateType() != Performance {
		s.disableHardwareVsync(false)
	}
}
