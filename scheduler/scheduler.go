// Package scheduler implements the refresh-rate scheduler (§4.7): three
// debounce timers, a layer-history content-rate estimator, feature-state
// aggregation that picks between a DEFAULT and a PERFORMANCE refresh rate,
// and hardware-vsync resync orchestration.
package scheduler

import (
	"sync"

	"github.com/framegrace/surfaceflow/internal/logx"
)

// RefreshRateType is the coarse mode selector the scheduler picks between
// (§3, "Refresh-rate features").
type RefreshRateType int

const (
	Default RefreshRateType = iota
	Performance
)

func (t RefreshRateType) String() string {
	if t == Performance {
		return "PERFORMANCE"
	}
	return "DEFAULT"
}

// ChangeEvent classifies why a refresh-rate change callback fired (§4.7).
type ChangeEvent int

const (
	EventNone ChangeEvent = iota
	EventChanged
)

// TimerState is the two-valued state of a debounce timer (§3).
type TimerState int

const (
	Reset TimerState = iota
	Expired
)

// TouchState is whether touch input is currently active (§3).
type TouchState int

const (
	TouchInactive TouchState = iota
	TouchActive
)

// ContentDetection toggles whether the content-rate estimate (rule 7) is
// trusted at all (§3).
type ContentDetection int

const (
	ContentDetectionOn ContentDetection = iota
	ContentDetectionOff
)

// RateMapEntry is one entry of the supported-refresh-rate table consulted by
// rule 7 of §4.7's decision procedure.
type RateMapEntry struct {
	Type RefreshRateType
	FPS  float64
}

// featureState mirrors §3's "Refresh-rate features" struct, guarded by
// mFeatureStateLock per §5.
type featureState struct {
	contentRefreshRate       float64
	isHDRContent             bool
	contentDetection         ContentDetection
	idleTimer                TimerState
	touch                    TouchState
	displayPowerTimer        TimerState
	isDisplayPowerStateNormal bool
	refreshRateType          RefreshRateType
}

// ChangeRefreshRateFunc is the outward event callback (§6, "Outward
// events"). It may be invoked from the composition thread, a timer thread,
// or an input/power caller (§5); the scheduler only ever holds
// mCallbackLock while invoking it.
type ChangeRefreshRateFunc func(t RefreshRateType, event ChangeEvent)

// Config holds the construction-time parameters that do not change at
// runtime: whether refresh-rate switching is supported at all, whether HDR
// content is forced to DEFAULT, and the supported-rate table used by rule 7.
// This mirrors the teacher's config idiom (property/sysprop reads belong to
// construction-time config, not runtime, per §9's "Global state" note).
type Config struct {
	SwitchingSupported bool
	ForceHDRToDefault  bool
	// RateMap lists supported rates in the order rule 7 should scan for a
	// better integer-ratio match; index 0 is typically DEFAULT's rate.
	RateMap []RateMapEntry
}

// Scheduler implements §4.7. It is safe for concurrent use by multiple
// goroutines (§5.1): mFeatureStateLock guards feature state, mHWVsyncLock
// guards hardware-vsync state, mCallbackLock guards the callback slot, and
// the callback is invoked while holding only mCallbackLock.
type Scheduler struct {
	cfg Config

	mFeatureStateLock sync.Mutex
	feature           featureState

	mCallbackLock sync.Mutex
	onChange      ChangeRefreshRateFunc

	vsync vsyncState
	mHWVsyncLock sync.Mutex

	idleTimer   *debounceTimer
	touchTimer  *debounceTimer
	powerTimer  *debounceTimer

	history *ContentRateEstimator
}

// New constructs a Scheduler. The three debounce timers are not created
// here; callers create and arm them via StartIdleTimer/StartTouchTimer/
// StartDisplayPowerTimer once durations are known (matching the teacher's
// construction-then-configure idiom, e.g. config.App followed by explicit
// setup calls).
func New(cfg Config) *Scheduler {
	s := &Scheduler{
		cfg:     cfg,
		history: NewContentRateEstimator(historySize),
	}
	s.feature.isDisplayPowerStateNormal = true
	s.feature.displayPowerTimer = Expired
	s.feature.contentDetection = ContentDetectionOn
	s.feature.refreshRateType = Default
	return s
}

// OnChangeRefreshRate registers the callback invoked when the computed
// refresh-rate type changes (§6, "Outward events").
func (s *Scheduler) OnChangeRefreshRate(fn ChangeRefreshRateFunc) {
	s.mCallbackLock.Lock()
	defer s.mCallbackLock.Unlock()
	s.onChange = fn
}

func (s *Scheduler) invokeCallback(t RefreshRateType, event ChangeEvent) {
	s.mCallbackLock.Lock()
	defer s.mCallbackLock.Unlock()
	if s.onChange != nil {
		s.onChange(t, event)
	}
}

// calculateRefreshRateType implements §4.7's ordered decision procedure.
// Callers must hold mFeatureStateLock.
func (s *Scheduler) calculateRefreshRateType() RefreshRateType {
	f := &s.feature

	// Rule 1.
	if !s.cfg.SwitchingSupported {
		return Default
	}
	// Rule 2.
	if s.cfg.ForceHDRToDefault && f.isHDRContent {
		return Default
	}
	// Rule 3.
	if !f.isDisplayPowerStateNormal || f.displayPowerTimer == Reset {
		return Performance
	}
	// Rule 4.
	if f.touch == TouchActive {
		return Performance
	}
	// Rule 5.
	if f.idleTimer == Expired {
		return Default
	}
	// Rule 6.
	if f.contentDetection == ContentDetectionOff {
		return Performance
	}
	// Rule 7.
	return s.bestRateForContent(f.contentRefreshRate)
}

// bestRateForContent implements rule 7: pick the rate map entry closest to
// contentRate, preferring one within 0.05 of an integer ratio, else scanning
// later entries for a better integer-ratio match.
func (s *Scheduler) bestRateForContent(contentRate float64) RefreshRateType {
	if len(s.cfg.RateMap) == 0 || contentRate <= 0 {
		return Default
	}

	best := s.cfg.RateMap[0]
	bestDist := ratioMargin(best.FPS, contentRate)
	for _, entry := range s.cfg.RateMap[1:] {
		dist := ratioMargin(entry.FPS, contentRate)
		if dist < bestDist {
			best, bestDist = entry, dist
		}
	}
	if bestDist <= 0.05 {
		return best.Type
	}
	// Nothing hit the margin: fall back to the nearest absolute fps, which
	// is what "pick the refresh rate whose fps is closest" degrades to when
	// no candidate satisfies the integer-ratio preference.
	nearest := s.cfg.RateMap[0]
	nearestDist := absDiff(nearest.FPS, contentRate)
	for _, entry := range s.cfg.RateMap[1:] {
		d := absDiff(entry.FPS, contentRate)
		if d < nearestDist {
			nearest, nearestDist = entry, d
		}
	}
	return nearest.Type
}

// ratioMargin returns how far fps/contentRate is from the nearest integer,
// used to judge "within 0.05 of an integer ratio".
func ratioMargin(fps, contentRate float64) float64 {
	if contentRate <= 0 {
		return 1
	}
	ratio := fps / contentRate
	nearestInt := float64(int(ratio + 0.5))
	d := ratio - nearestInt
	if d < 0 {
		d = -d
	}
	return d
}

func absDiff(a, b float64) float64 {
	if a < b {
		return b - a
	}
	return a - b
}

// recompute re-derives the refresh-rate type under mFeatureStateLock and
// invokes the callback if it changed. trigger classifies the caller for the
// "event = Changed" rule in §4.7.
type triggerKind int

const (
	triggerContent triggerKind = iota
	triggerTouch
	triggerDisplayPower
	triggerIdle
	triggerOther
)

func (s *Scheduler) recompute(trigger triggerKind) {
	s.mFeatureStateLock.Lock()
	next := s.calculateRefreshRateType()
	changed := next != s.feature.refreshRateType
	contentDetectionOn := s.feature.contentDetection == ContentDetectionOn
	if changed {
		s.feature.refreshRateType = next
	}
	s.mFeatureStateLock.Unlock()

	if !changed {
		return
	}

	event := EventNone
	switch trigger {
	case triggerContent:
		event = EventChanged
	case triggerTouch, triggerDisplayPower:
		if contentDetectionOn {
			event = EventChanged
		}
	case triggerIdle, triggerOther:
		event = EventNone
	}

	logx.Debugf("scheduler: refresh rate -> %s (event=%v)", next, event)
	s.invokeCallback(next, event)
}

// NotifyContentRefreshRate updates the estimated content rate and HDR flag,
// typically fed by the layer-history estimator (§4.7, "Inputs").
func (s *Scheduler) NotifyContentRefreshRate(fps float64, isHDR bool) {
	s.mFeatureStateLock.Lock()
	s.feature.contentRefreshRate = fps
	s.feature.isHDRContent = isHDR
	s.mFeatureStateLock.Unlock()
	s.recompute(triggerContent)
}

// SetContentDetection toggles whether rule 7's content-rate estimate is
// trusted (§4.7 rule 6).
func (s *Scheduler) SetContentDetection(d ContentDetection) {
	s.mFeatureStateLock.Lock()
	s.feature.contentDetection = d
	s.mFeatureStateLock.Unlock()
	s.recompute(triggerOther)
}

// SetTouchActive notifies the scheduler of a touch-input transition (§4.7
// rule 4).
func (s *Scheduler) SetTouchActive(active bool) {
	s.mFeatureStateLock.Lock()
	if active {
		s.feature.touch = TouchActive
	} else {
		s.feature.touch = TouchInactive
	}
	s.mFeatureStateLock.Unlock()
	s.recompute(triggerTouch)
}

// SetDisplayPowerStateNormal notifies the scheduler of a display-power-state
// transition (§4.7 rule 3).
func (s *Scheduler) SetDisplayPowerStateNormal(normal bool) {
	s.mFeatureStateLock.Lock()
	s.feature.isDisplayPowerStateNormal = normal
	s.mFeatureStateLock.Unlock()
	s.recompute(triggerDisplayPower)
}

func (s *Scheduler) setIdleTimerState(state TimerState) {
	s.mFeatureStateLock.Lock()
	s.feature.idleTimer = state
	s.mFeatureStateLock.Unlock()
	s.recompute(triggerIdle)
}

func (s *Scheduler) setTouchTimerState(active bool) {
	s.SetTouchActive(active)
}

func (s *Scheduler) setDisplayPowerTimerState(state TimerState) {
	s.mFeatureStateLock.Lock()
	s.feature.displayPowerTimer = state
	s.mFeatureStateLock.Unlock()
	s.recompute(triggerDisplayPower)
}

// CurrentRefreshRateType returns the scheduler's current decision, mainly
// for tests and diagnostics.
func (s *Scheduler) CurrentRefreshRateType() RefreshRateType {
	s.mFeatureStateLock.Lock()
	defer s.mFeatureStateLock.Unlock()
	return s.feature.refreshRateType
}
