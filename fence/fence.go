// Package fence implements the synchronization primitive used to signal
// buffer lifecycle events (present, release, client-target acquire) across
// the composition core. There is no real GPU backing these fences; they are
// channel-backed synchronization points between goroutines standing in for
// kernel sync_file handles.
package fence

import "context"

// Fence signals a single point in time. It is safe to Wait on from multiple
// goroutines and to Signal at most once.
type Fence struct {
	done chan struct{}
}

// NoFence is the zero fence: already signaled, matching the spec's NO_FENCE
// default used when a release-fence lookup misses.
var NoFence = Signaled()

// New returns an unsignaled fence.
func New() *Fence {
	return &Fence{done: make(chan struct{})}
}

// Signaled returns an already-signaled fence.
func Signaled() *Fence {
	f := New()
	f.Signal()
	return f
}

// Signal marks the fence signaled. Signaling twice is a no-op.
func (f *Fence) Signal() {
	select {
	case <-f.done:
	default:
		close(f.done)
	}
}

// IsSignaled reports whether the fence has fired, without blocking.
func (f *Fence) IsSignaled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the fence signals or ctx is done.
func (f *Fence) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Merge returns a fence that signals once both a and b have signaled. A nil
// argument is treated as already-signaled, matching the merge used by
// postFramebuffer when one side is absent.
func Merge(a, b *Fence) *Fence {
	if a == nil {
		a = Signaled()
	}
	if b == nil {
		b = Signaled()
	}
	merged := New()
	go func() {
		<-a.done
		<-b.done
		merged.Signal()
	}()
	return merged
}
