package compose

import (
	"github.com/framegrace/surfaceflow/fence"
	"github.com/framegrace/surfaceflow/region"
)

// fakeLayerFE is a LayerFE test double driven entirely by field assignment,
// mirroring hwc.Fake's style for the hardware-composer contract.
type fakeLayerFE struct {
	state           FEState
	prepareSettings LayerSettings
	prepareOK       bool
	displayed       []*fence.Fence
}

func (f *fakeLayerFE) LatchCompositionState(state *FEState, subset LatchSubset) {
	*state = f.state
}

func (f *fakeLayerFE) PrepareClientComposition(target TargetSettings) (LayerSettings, bool) {
	return f.prepareSettings, f.prepareOK
}

func (f *fakeLayerFE) OnLayerDisplayed(release *fence.Fence) {
	f.displayed = append(f.displayed, release)
}

func newOpaqueLayer(bounds region.Rect) *fakeLayerFE {
	return &fakeLayerFE{
		state: FEState{
			Bounds:       bounds,
			Transform:    region.Identity(),
			IsVisible:    true,
			IsOpaque:     true,
			ContentDirty: true,
		},
		prepareOK: true,
	}
}

func newTranslucentLayer(bounds region.Rect) *fakeLayerFE {
	return &fakeLayerFE{
		state: FEState{
			Bounds:       bounds,
			Transform:    region.Identity(),
			IsVisible:    true,
			IsOpaque:     false,
			ContentDirty: true,
		},
		prepareOK: true,
	}
}

func outputWithBounds(w, h int) *Output {
	out := NewOutput("disp-0", "test")
	out.State.IsEnabled = true
	bounds := region.NewRect(0, 0, w, h)
	out.State.Bounds = bounds
	out.State.Viewport = bounds
	out.State.Scissor = bounds
	out.State.Transform = region.Identity()
	return out
}
