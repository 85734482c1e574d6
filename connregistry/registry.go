// Package connregistry implements the connection registry (§4.8): opaque
// integer handles handed to vsync-event subscribers, forwarding hotplug,
// power, and config-change notifications to the subscriber's event-thread.
package connregistry

import (
	"sync"
	"sync/atomic"

	"github.com/framegrace/surfaceflow/internal/logx"
)

// Handle is an opaque, monotonically-allocated connection identifier (§4.8).
type Handle int64

// PowerState mirrors a display's screen-acquired/released transition.
type PowerState int

const (
	ScreenReleased PowerState = iota
	ScreenAcquired
)

// EventThread is the forwarding target for a registered connection (§4.8,
// "forwards ... events"; SPEC_FULL.md §3.1's "Connection record"). It is an
// interface, not a goroutine-per-connection requirement, since the spec
// keeps fanout logic itself external (§1, "the event-thread fanout").
type EventThread interface {
	OnHotplug(displayID string, connected bool)
	OnScreenAcquired(displayID string)
	OnScreenReleased(displayID string)
	OnConfigChanged(displayID string, configID int)
	SetPhaseOffset(offsetNanos int64)
	Dump() string
}

// connection is the per-handle record (SPEC_FULL.md §3.1).
type connection struct {
	handle      Handle
	displayID   string
	eventThread EventThread
}

// Registry hands out opaque handles to vsync-event subscribers and forwards
// events to the associated event-thread. It uses a single sync.RWMutex
// guarding its handle map, matching the teacher's server/manager.go Manager
// (§5.1).
type Registry struct {
	mu      sync.RWMutex
	conns   map[Handle]*connection
	nextSeq int64
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{conns: make(map[Handle]*connection)}
}

// Register allocates a new monotonically-increasing handle for the given
// display and event-thread and returns it.
func (r *Registry) Register(displayID string, thread EventThread) Handle {
	h := Handle(atomic.AddInt64(&r.nextSeq, 1))
	r.mu.Lock()
	r.conns[h] = &connection{handle: h, displayID: displayID, eventThread: thread}
	r.mu.Unlock()
	return h
}

// Unregister removes a handle. Unregistering an unknown handle is a no-op.
func (r *Registry) Unregister(h Handle) {
	r.mu.Lock()
	delete(r.conns, h)
	r.mu.Unlock()
}

func (r *Registry) lookup(h Handle) (*connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[h]
	return c, ok
}

// OnHotplug forwards a hotplug event to h's event-thread. An unknown handle
// logs and does nothing, matching §7's "Invalid connection handle" policy.
func (r *Registry) OnHotplug(h Handle, connected bool) {
	c, ok := r.lookup(h)
	if !ok {
		logx.Warnf("connregistry: OnHotplug on unknown handle %d", h)
		return
	}
	c.eventThread.OnHotplug(c.displayID, connected)
}

// OnScreenAcquired forwards a screen-acquired event.
func (r *Registry) OnScreenAcquired(h Handle) {
	c, ok := r.lookup(h)
	if !ok {
		logx.Warnf("connregistry: OnScreenAcquired on unknown handle %d", h)
		return
	}
	c.eventThread.OnScreenAcquired(c.displayID)
}

// OnScreenReleased forwards a screen-released event.
func (r *Registry) OnScreenReleased(h Handle) {
	c, ok := r.lookup(h)
	if !ok {
		logx.Warnf("connregistry: OnScreenReleased on unknown handle %d", h)
		return
	}
	c.eventThread.OnScreenReleased(c.displayID)
}

// OnConfigChanged forwards a config-changed event.
func (r *Registry) OnConfigChanged(h Handle, configID int) {
	c, ok := r.lookup(h)
	if !ok {
		logx.Warnf("connregistry: OnConfigChanged on unknown handle %d", h)
		return
	}
	c.eventThread.OnConfigChanged(c.displayID, configID)
}

// SetPhaseOffset forwards a phase-offset update. Returns false for an
// unknown handle (the "typed default" §7 calls for).
func (r *Registry) SetPhaseOffset(h Handle, offsetNanos int64) bool {
	c, ok := r.lookup(h)
	if !ok {
		logx.Warnf("connregistry: SetPhaseOffset on unknown handle %d", h)
		return false
	}
	c.eventThread.SetPhaseOffset(offsetNanos)
	return true
}

// Dump forwards a debug-dump request, returning "" for an unknown handle.
func (r *Registry) Dump(h Handle) string {
	c, ok := r.lookup(h)
	if !ok {
		logx.Warnf("connregistry: Dump on unknown handle %d", h)
		return ""
	}
	return c.eventThread.Dump()
}

// Broadcast forwards an event-thread callback to every registered
// connection for a display, used for hotplug/power events that affect all
// subscribers of a display rather than a single connection.
func (r *Registry) Broadcast(displayID string, fn func(EventThread)) {
	r.mu.RLock()
	targets := make([]EventThread, 0, len(r.conns))
	for _, c := range r.conns {
		if c.displayID == displayID {
			targets = append(targets, c.eventThread)
		}
	}
	r.mu.RUnlock()
	for _, t := range targets {
		fn(t)
	}
}

// Count returns the number of currently-registered connections, for tests
// and diagnostics.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
