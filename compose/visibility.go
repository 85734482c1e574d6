package compose

import "github.com/framegrace/surfaceflow/region"

// FrameState carries the per-frame bookkeeping shared across every output
// composed in a single round: each layer's front-end state is latched at
// most once across all outputs (§4.2, "Inputs").
type FrameState struct {
	latched map[LayerID]*FEState
	fes     map[LayerID]LayerFE
}

// NewFrameState returns an empty FrameState for one composition round.
func NewFrameState() *FrameState {
	return &FrameState{latched: make(map[LayerID]*FEState), fes: make(map[LayerID]LayerFE)}
}

func (fs *FrameState) latch(layer InputLayer) *FEState {
	if st, ok := fs.latched[layer.ID]; ok {
		return st
	}
	st := &FEState{}
	layer.FE.LatchCompositionState(st, BasicGeometry)
	fs.latched[layer.ID] = st
	fs.fes[layer.ID] = layer.FE
	return st
}

// FE returns the layer front-end handle latched this frame for id, if any.
func (fs *FrameState) FE(id LayerID) (LayerFE, bool) {
	fe, ok := fs.fes[id]
	return fe, ok
}

// RunVisibilityPass walks layersBackToFront front-to-back (i.e. in reverse)
// and rebuilds out.Layers, out.State.DirtyRegion, out.State.UndefinedRegion
// and out.ReleasedLayers per §4.2.
func RunVisibilityPass(out *Output, layersBackToFront []InputLayer, frame *FrameState) {
	prev := make(map[LayerID]*OutputLayer, len(out.Layers))
	for _, ol := range out.Layers {
		prev[ol.LayerID] = ol
	}

	var aboveOpaque, aboveCovered region.Region
	var dirty region.Region
	var emitted []*OutputLayer

	for i := len(layersBackToFront) - 1; i >= 0; i-- {
		layer := layersBackToFront[i]
		st := frame.latch(layer)

		// Step 2: layer stack membership.
		if st.LayerStackID != out.State.LayerStackID {
			continue
		}
		if st.InternalOnly && !out.Internal {
			continue
		}

		// Step 3.
		if !st.IsVisible {
			continue
		}

		// Step 4.
		visible := region.FromRect(st.Transform.ApplyRect(st.Bounds)).Intersect(region.FromRect(out.State.Viewport))
		if visible.IsEmpty() {
			continue
		}

		// Step 5.
		var transparent region.Region
		if !st.IsOpaque && st.Transform.RectPreserving {
			transparent = st.Transform.ApplyRegion(st.TransparentRegionHint)
		}

		// Step 6.
		var opaque region.Region
		if st.IsOpaque && st.Transform.IsValidOrientation() {
			opaque = visible
		}

		// Step 7-8.
		covered := aboveCovered.Intersect(visible)
		aboveCovered = aboveCovered.Union(visible)

		// Step 9.
		visible = visible.Subtract(aboveOpaque)
		if visible.IsEmpty() {
			continue
		}

		// Step 10.
		var oldVisible, oldCovered region.Region
		prevOL, hadPrev := prev[layer.ID]
		if hadPrev {
			oldVisible, oldCovered = prevOL.VisibleRegion, prevOL.CoveredRegion
			delete(prev, layer.ID)
		}

		// Step 11.
		var layerDirty region.Region
		if st.ContentDirty {
			layerDirty = visible.Union(oldVisible)
		} else {
			newExposed := visible.Subtract(covered)
			oldExposed := oldVisible.Subtract(oldCovered)
			layerDirty = visible.Intersect(oldCovered).Union(newExposed.Subtract(oldExposed))
		}

		// Step 12.
		layerDirty = layerDirty.Subtract(aboveOpaque)
		dirty = dirty.Union(layerDirty)

		// Step 13.
		aboveOpaque = aboveOpaque.Union(opaque)

		// Step 14.
		visibleNonTransparent := visible.Subtract(transparent)
		drawRegion := out.State.Transform.ApplyRegion(visibleNonTransparent).Intersect(region.FromRect(out.State.Bounds))
		if drawRegion.IsEmpty() {
			continue
		}

		// Step 15.
		var ol *OutputLayer
		if hadPrev {
			ol = prevOL
		} else {
			ol = &OutputLayer{LayerID: layer.ID}
		}
		ol.FE = layer.FE
		ol.VisibleRegion = visible
		ol.VisibleNonTransparentRegion = visibleNonTransparent
		ol.CoveredRegion = covered
		ol.OutputSpaceVisibleRegion = out.State.Transform.ApplyRegion(visible.Intersect(region.FromRect(out.State.Viewport)))

		// Step 16.
		emitted = append(emitted, ol)
	}

	// Reverse to restore back-to-front order and reassign z.
	for i, j := 0, len(emitted)-1; i < j; i, j = i+1, j-1 {
		emitted[i], emitted[j] = emitted[j], emitted[i]
	}
	for z, ol := range emitted {
		ol.Z = z
	}

	out.Layers = emitted
	out.State.UndefinedRegion = region.FromRect(out.State.Bounds).Subtract(out.State.Transform.ApplyRegion(aboveOpaque))
	out.State.DirtyRegion = out.State.DirtyRegion.Union(dirty)

	// Anything left in prev was not reused this frame: released. Each
	// entry carries the FE handle it was latched against as of its last
	// appearance, since it won't be latched again in frame.fes this round.
	out.ReleasedLayers = out.ReleasedLayers[:0]
	for id, prevOL := range prev {
		out.ReleasedLayers = append(out.ReleasedLayers, ReleasedLayer{LayerID: id, FE: prevOL.FE})
	}
}
