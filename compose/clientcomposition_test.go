package compose

import (
	"errors"
	"testing"

	"github.com/framegrace/surfaceflow/fence"
	"github.com/framegrace/surfaceflow/hwc"
	"github.com/framegrace/surfaceflow/region"
)

func TestComposeSurfacesSkippedWhenNoClientCompositionNeeded(t *testing.T) {
	out := outputWithBounds(10, 10)
	out.State.UsesClientComposition = false

	ready, ok := ComposeSurfaces(out, RefreshArgs{}, NewFrameState(), nil)
	if !ok || ready != nil {
		t.Fatalf("pure device composition should short-circuit with ok=true, ready=nil; got ok=%v ready=%v", ok, ready)
	}
}

func TestComposeSurfacesDequeueFailureReturnsNotOK(t *testing.T) {
	out := outputWithBounds(10, 10)
	out.State.UsesClientComposition = true
	out.Surface = &fakeSurface{clientTarget: fence.Signaled(), dequeueFails: true}

	_, ok := ComposeSurfaces(out, RefreshArgs{}, NewFrameState(), nil)
	if ok {
		t.Fatalf("a DequeueBuffer failure should report ok=false")
	}
}

func TestComposeSurfacesDrawLayersErrorReturnsNotOK(t *testing.T) {
	out := outputWithBounds(10, 10)
	out.State.UsesClientComposition = true
	out.Surface = newFakeSurface()
	out.RenderEngine = &fakeRenderEngine{err: errors.New("draw failed")}

	_, ok := ComposeSurfaces(out, RefreshArgs{}, NewFrameState(), nil)
	if ok {
		t.Fatalf("a RenderEngine.DrawLayers error should report ok=false")
	}
}

func TestGenerateDrawRequestsSkipsLayerClaimedByDevice(t *testing.T) {
	out := outputWithBounds(10, 10)
	l := newOpaqueLayer(region.NewRect(0, 0, 10, 10))
	frame := NewFrameState()
	RunVisibilityPass(out, []InputLayer{{ID: 1, FE: l}}, frame)
	out.Layers[0].DeviceCompositionType = hwc.Device

	requests := generateDrawRequests(out, frame)
	if len(requests) != 0 {
		t.Fatalf("a layer fully claimed by the device with no clear request should generate no draw request, got %d", len(requests))
	}
}

func TestGenerateDrawRequestsFirstLayerNeverClearSkips(t *testing.T) {
	out := outputWithBounds(10, 10)
	l := newOpaqueLayer(region.NewRect(0, 0, 10, 10))
	l.prepareSettings = LayerSettings{Geometry: region.NewRect(0, 0, 10, 10), Alpha: 1}
	frame := NewFrameState()
	RunVisibilityPass(out, []InputLayer{{ID: 1, FE: l}}, frame)
	out.Layers[0].DeviceCompositionType = hwc.Device
	out.Layers[0].ClearClientTarget = true // even the bottom layer, should still not early-skip via the clear path

	requests := generateDrawRequests(out, frame)
	// Bottom-most layer's ClearClientTarget is special-cased off (firstLayer
	// guard), so a device-claimed bottom layer still produces nothing.
	if len(requests) != 0 {
		t.Fatalf("expected no draw request for a device-claimed, first-position layer, got %d", len(requests))
	}
}

func TestGenerateDrawRequestsClearClientTargetProducesBlankFill(t *testing.T) {
	out := outputWithBounds(10, 10)
	bottom := newOpaqueLayer(region.NewRect(0, 0, 10, 10))
	bottom.prepareSettings = LayerSettings{Geometry: region.NewRect(0, 0, 10, 10)}
	top := newOpaqueLayer(region.NewRect(0, 0, 5, 5))
	top.prepareSettings = LayerSettings{Geometry: region.NewRect(0, 0, 5, 5)}

	frame := NewFrameState()
	RunVisibilityPass(out, []InputLayer{{ID: 1, FE: bottom}, {ID: 2, FE: top}}, frame)

	out.Layers[0].DeviceCompositionType = hwc.Device // bottom also claimed, so it contributes nothing
	out.Layers[1].DeviceCompositionType = hwc.Device
	out.Layers[1].ClearClientTarget = true

	requests := generateDrawRequests(out, frame)
	if len(requests) != 1 {
		t.Fatalf("expected exactly one clear-fill draw request, got %d", len(requests))
	}
	if requests[0].SolidColor == nil || *requests[0].SolidColor != [3]float64{0, 0, 0} || requests[0].Alpha != 0 {
		t.Fatalf("clear-only request should be a transparent-black fill, got %+v", requests[0])
	}
}

func TestComposeSurfacesRepaintFlashAppendsOverlay(t *testing.T) {
	out := outputWithBounds(10, 10)
	out.State.UsesClientComposition = true
	out.State.DirtyRegion = region.FromRect(region.NewRect(0, 0, 10, 10))
	out.Surface = newFakeSurface()
	engine := &fakeRenderEngine{}
	out.RenderEngine = engine

	ComposeSurfaces(out, RefreshArgs{DevOptRepaintFlash: true}, NewFrameState(), nil)

	found := false
	for _, l := range engine.lastLayers {
		if l.SolidColor != nil && *l.SolidColor == flashColor {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected the debug repaint-flash overlay to be appended to the draw requests")
	}
}

func TestComposeSurfacesProtectedContentSwitching(t *testing.T) {
	out := outputWithBounds(10, 10)
	out.State.UsesClientComposition = true
	out.IsSecure = true
	surf := newFakeSurface()
	out.Surface = surf
	engine := &fakeRenderEngine{supportsProtected: true}
	out.RenderEngine = engine

	l := newOpaqueLayer(region.NewRect(0, 0, 10, 10))
	l.state.HasProtectedContent = true
	frame := NewFrameState()
	RunVisibilityPass(out, []InputLayer{{ID: 1, FE: l}}, frame)

	ComposeSurfaces(out, RefreshArgs{}, frame, nil)

	if !engine.protected {
		t.Fatalf("expected UseProtectedContext(true) when a visible layer carries protected content")
	}
	if !surf.protected {
		t.Fatalf("expected the surface to be switched to protected mode")
	}
}

func TestComposeSurfacesFlagsExpensiveRenderingForDisplayP3(t *testing.T) {
	out := outputWithBounds(10, 10)
	out.State.UsesClientComposition = true
	out.State.Dataspace = DataspaceDisplayP3
	surf := newFakeSurface()
	out.Surface = surf
	out.RenderEngine = &fakeRenderEngine{}

	ComposeSurfaces(out, RefreshArgs{}, NewFrameState(), nil)

	if len(surf.expensiveRenderingCalls) != 2 {
		t.Fatalf("expected expensive rendering to be flagged then unflagged, got %v", surf.expensiveRenderingCalls)
	}
	if surf.expensiveRenderingCalls[0] != true || surf.expensiveRenderingCalls[1] != false {
		t.Fatalf("expected [true, false], got %v", surf.expensiveRenderingCalls)
	}
}

func TestComposeSurfacesDoesNotFlagExpensiveRenderingForSRGB(t *testing.T) {
	out := outputWithBounds(10, 10)
	out.State.UsesClientComposition = true
	surf := newFakeSurface()
	out.Surface = surf
	out.RenderEngine = &fakeRenderEngine{}

	ComposeSurfaces(out, RefreshArgs{}, NewFrameState(), nil)

	if len(surf.expensiveRenderingCalls) != 0 {
		t.Fatalf("expected no expensive-rendering flag for a non-P3 dataspace, got %v", surf.expensiveRenderingCalls)
	}
}

type fakeRenderEngine struct {
	err               error
	supportsProtected bool
	protected         bool
	lastLayers        []LayerSettings
}

func (e *fakeRenderEngine) SupportsProtectedContent() bool { return e.supportsProtected }
func (e *fakeRenderEngine) IsProtected() bool               { return e.protected }
func (e *fakeRenderEngine) UseProtectedContext(use bool)    { e.protected = use }
func (e *fakeRenderEngine) DrawLayers(settings DisplaySettings, layers []LayerSettings, buf *Buffer, useCache bool, inFence *fence.Fence) (*fence.Fence, error) {
	e.lastLayers = layers
	if e.err != nil {
		return nil, e.err
	}
	return fence.Signaled(), nil
}
