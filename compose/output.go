package compose

import (
	"github.com/framegrace/surfaceflow/hwc"
	"github.com/framegrace/surfaceflow/region"
)

// CompositionState is the mutable per-output snapshot (§3, "Output
// composition state"). It is mutated only through Output's methods or the
// per-frame pipeline and is not meant to be accessed concurrently.
type CompositionState struct {
	IsEnabled          bool
	IsSecure           bool
	LayerStackID       int64
	LayerStackInternal bool
	Transform          region.Transform
	Orientation        int
	Frame              region.Rect
	Viewport           region.Rect
	Scissor            region.Rect
	Bounds             region.Rect
	NeedsFiltering     bool
	ColorMode          ColorMode
	Dataspace          Dataspace
	RenderIntent       RenderIntent
	TargetDataspace    Dataspace
	ColorTransformMatrix [16]float64

	DirtyRegion     region.Region
	UndefinedRegion region.Region

	UsesClientComposition bool
	UsesDeviceComposition bool
	FlipClientTarget      bool

	LastCompositionHadVisibleLayers bool
}

// Output owns one display's composition state (§3, "Output"). Physical vs.
// virtual display differences are modeled as a small capability table
// (Composer nil for virtual, HDR capability fields, etc.) injected at
// construction, per the design notes' "do not grow an inheritance
// hierarchy" guidance.
type Output struct {
	DisplayID string
	Name      string
	// Internal marks this output as an internal display, consulted by the
	// visibility pass's layer-stack matching (§4.2 step 2).
	Internal bool
	IsSecure bool

	State CompositionState

	Layers []*OutputLayer

	// ReleasedLayers holds layers present last frame but not this one, each
	// carrying the FE handle it was last latched against so release-fence
	// delivery doesn't depend on this frame's latch map (§3, "Released-layers
	// set"; §9.1 for the weak-reference substitute).
	ReleasedLayers []ReleasedLayer

	Composer     hwc.Composer // nil if no hardware composer bound (virtual display)
	Surface      RenderSurface
	RenderEngine RenderEngine
	ColorProfile DisplayColorProfile

	// MaxLuminance is this output's HDR capability used by client
	// composition's DisplaySettings (§4.6).
	MaxLuminance float64
	// SkipColorTransform mirrors Output::getSkipColorTransform, which
	// differs between physical and virtual displays.
	SkipColorTransform bool
}

// NewOutput constructs an Output with sane zero state: disabled, empty
// bounds, client composition as the safe default.
func NewOutput(displayID, name string) *Output {
	return &Output{
		DisplayID: displayID,
		Name:      name,
		State: CompositionState{
			UsesClientComposition: true,
		},
	}
}

// SetCompositionEnabled enables or disables the output. Calling it twice
// with the same value is idempotent and does not touch DirtyRegion on the
// second call (§8, round-trip property).
func (o *Output) SetCompositionEnabled(enabled bool) {
	if o.State.IsEnabled == enabled {
		return
	}
	o.State.IsEnabled = enabled
}

// GetDirtyRegion returns the current dirty region, optionally repainting
// everything (forceRepaint reproduces getDirtyRegion(true) from the
// original, used by explicit full-redraw requests).
func (o *Output) GetDirtyRegion(forceRepaint bool) region.Region {
	if forceRepaint {
		return region.FromRect(o.State.Bounds)
	}
	return o.State.DirtyRegion
}

// findOutputLayerByHandle returns the output-layer bound to the given hardware
// composer handle, or nil.
func (o *Output) findOutputLayerByHandle(h hwc.LayerHandle) *OutputLayer {
	for _, ol := range o.Layers {
		if ol.HWCHandle != nil && *ol.HWCHandle == h {
			return ol
		}
	}
	return nil
}

// anyLayersRequireClientComposition reports whether any output-layer still
// needs client composition, used both by the strategy selector (§4.3) and by
// the HWC query ("needsClient" argument).
func anyLayersRequireClientComposition(o *Output) bool {
	for _, ol := range o.Layers {
		if ol.RequiresClientComposition() {
			return true
		}
	}
	return false
}

func allLayersRequireClientComposition(o *Output) bool {
	for _, ol := range o.Layers {
		if !ol.RequiresClientComposition() {
			return false
		}
	}
	return true
}
