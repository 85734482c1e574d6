package compose

import (
	"testing"

	"github.com/framegrace/surfaceflow/region"
)

func TestSetCompositionEnabledIdempotent(t *testing.T) {
	out := outputWithBounds(10, 10)
	out.State.DirtyRegion = region.FromRect(region.NewRect(0, 0, 5, 5))

	out.SetCompositionEnabled(true)
	dirtyAfterFirst := out.State.DirtyRegion

	out.SetCompositionEnabled(true)
	if !regionsEqual(out.State.DirtyRegion, dirtyAfterFirst) {
		t.Fatalf("second SetCompositionEnabled call with same value mutated dirty region")
	}
}

func TestDirtyRegionSubsetOfBounds(t *testing.T) {
	out := outputWithBounds(50, 50)
	l := newOpaqueLayer(region.NewRect(0, 0, 200, 200))
	RunVisibilityPass(out, []InputLayer{{ID: 1, FE: l}}, NewFrameState())

	if !out.State.DirtyRegion.Subtract(region.FromRect(out.State.Bounds)).IsEmpty() {
		t.Fatalf("dirty region escapes bounds: %v", out.State.DirtyRegion.Rects())
	}
}

func TestVisibleNonTransparentSubsetOfVisible(t *testing.T) {
	out := outputWithBounds(100, 100)
	l := newTranslucentLayer(region.NewRect(0, 0, 100, 100))
	l.state.TransparentRegionHint = region.FromRect(region.NewRect(0, 0, 10, 10))
	RunVisibilityPass(out, []InputLayer{{ID: 1, FE: l}}, NewFrameState())

	ol := out.Layers[0]
	if !ol.VisibleNonTransparentRegion.Subtract(ol.VisibleRegion).IsEmpty() {
		t.Fatalf("visibleNonTransparentRegion escapes visibleRegion")
	}
}
