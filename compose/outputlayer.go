package compose

import (
	"github.com/framegrace/surfaceflow/hwc"
	"github.com/framegrace/surfaceflow/region"
)

// OutputLayer is the per-(output,layer) derived state (§3, "OutputLayer").
// It is exclusively owned by its Output; lifecycle (create/reuse/destroy) is
// managed by the visibility pass.
type OutputLayer struct {
	LayerID LayerID
	Z       int

	// FE is the layer front-end handle this OutputLayer was last latched
	// against, retained so a layer dropped from the input list still has
	// somewhere to deliver its release fence once it moves into
	// Output.ReleasedLayers (§9.1's weak-reference substitute).
	FE LayerFE

	VisibleRegion               region.Region
	VisibleNonTransparentRegion region.Region
	CoveredRegion               region.Region
	OutputSpaceVisibleRegion    region.Region

	ForceClientComposition bool
	ClearClientTarget      bool
	DeviceCompositionType  hwc.CompositionType

	// HWCHandle is the opaque hardware-composer layer handle, nil if this
	// output has no hardware composer bound.
	HWCHandle *hwc.LayerHandle
}

// ReleasedLayer is an entry in Output.ReleasedLayers: a layer that was
// present last frame but dropped from this frame's input list, with the FE
// handle it last latched against so its release fence still has somewhere
// to go (§9.1's weak-reference substitute).
type ReleasedLayer struct {
	LayerID LayerID
	FE      LayerFE
}

// RequiresClientComposition reports whether this layer still needs the
// compositor's own GPU path rather than the hardware composer, consulted by
// the strategy selector (§4.3) and client composition (§4.6). A layer
// requires client composition unless the hardware composer has explicitly
// claimed it for device composition and nothing has forced it back.
func (ol *OutputLayer) RequiresClientComposition() bool {
	if ol.ForceClientComposition {
		return true
	}
	return ol.DeviceCompositionType != hwc.Device
}
