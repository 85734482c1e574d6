package fence

import (
	"context"
	"testing"
	"time"
)

func TestNoFenceIsAlreadySignaled(t *testing.T) {
	if !NoFence.IsSignaled() {
		t.Fatalf("NoFence should be signaled by construction")
	}
}

func TestMergeWithNoFenceDoesNotBlock(t *testing.T) {
	acquire := Signaled()
	merged := Merge(NoFence, acquire)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := merged.Wait(ctx); err != nil {
		t.Fatalf("Merge(NoFence, acquire) should signal promptly, got %v", err)
	}
}

func TestSignalTwiceIsNoOp(t *testing.T) {
	f := New()
	f.Signal()
	f.Signal()
	if !f.IsSignaled() {
		t.Fatalf("expected fence to remain signaled")
	}
}
