package compose

import (
	"github.com/framegrace/surfaceflow/fence"
	"github.com/framegrace/surfaceflow/internal/logx"
	"github.com/framegrace/surfaceflow/region"
)

// flashColor is the debug repaint-flash overlay color: solid magenta, fully
// opaque (§4.6 step 2).
var flashColor = [3]float64{1, 0, 1}

// generateDrawRequests implements the draw-request generation described at
// the end of §4.6, iterating output-layers back-to-front.
func generateDrawRequests(out *Output, frame *FrameState) []LayerSettings {
	var requests []LayerSettings
	for i, ol := range out.Layers {
		st, ok := frame.latched[ol.LayerID]
		if !ok {
			continue
		}

		clip := region.FromRect(out.State.Viewport).Intersect(ol.VisibleRegion)
		if clip.IsEmpty() {
			continue
		}

		clientComposition := ol.RequiresClientComposition()
		firstLayer := i == 0
		clearClientComposition := ol.ClearClientTarget && st.IsOpaque && !firstLayer

		if !clientComposition && !clearClientComposition {
			continue
		}

		clearRegion := region.Region{}
		if clientComposition {
			clearRegion = out.State.UndefinedRegion
		}

		settings, ok := layerOrNilPrepare(ol, st, out, frame, clip.Bounds(), clearRegion)
		if !ok {
			continue
		}

		if !clientComposition {
			// This is a pure clear (clearClientComposition is true, actual
			// client composition is not needed): zero the buffer area.
			settings.SolidColor = &[3]float64{0, 0, 0}
			settings.Alpha = 0
			settings.DisableBlending = true
		}
		requests = append(requests, settings)
	}
	return requests
}

// layerOrNilPrepare asks the layer front-end to prepare its client
// composition draw spec. The front-end handle is resolved through the
// FrameState populated during this frame's visibility-pass latch (§4.2
// step 1); a layer not latched this frame gets no draw spec.
func layerOrNilPrepare(ol *OutputLayer, st *FEState, out *Output, frame *FrameState, clip region.Rect, clearRegion region.Region) (LayerSettings, bool) {
	fe, ok := frame.FE(ol.LayerID)
	if !ok {
		return LayerSettings{}, false
	}
	target := TargetSettings{
		Clip:                     clip,
		UseIdentityTransform:     false,
		NeedsFiltering:           st.NeedsFiltering || out.State.NeedsFiltering,
		IsSecure:                 out.IsSecure,
		SupportsProtectedContent: out.RenderEngine != nil && out.RenderEngine.SupportsProtectedContent(),
		ClearRegion:              clearRegion,
	}
	return fe.PrepareClientComposition(target)
}

// ComposeSurfaces implements §4.6: builds DisplaySettings, generates draw
// requests plus the debug flash overlay, handles protected-content
// switching, dequeues a buffer and invokes the render engine. dirty only
// selects the region the debug repaint-flash overlay covers; a nil dirty
// (§9.1's Region::INVALID substitute) means "use the output's current
// internal dirty region". The layer draw requests do not depend on it.
func ComposeSurfaces(out *Output, args RefreshArgs, frame *FrameState, dirty *region.Region) (*fence.Fence, bool) {
	if !out.State.UsesClientComposition {
		return nil, true
	}

	settings := DisplaySettings{
		PhysicalDisplay: out.State.Scissor,
		Clip:            out.State.Scissor,
		GlobalTransform: transformMatrix4(out.State.Transform),
		Orientation:     out.State.Orientation,
		MaxLuminance:    out.MaxLuminance,
	}
	if out.State.Dataspace.IsWideGamut() {
		settings.OutputDataspace = out.State.Dataspace
	} else {
		settings.OutputDataspace = DataspaceUnknown
	}
	if !out.State.UsesDeviceComposition && !out.SkipColorTransform {
		m := out.State.ColorTransformMatrix
		settings.ColorTransform = &m
	}

	requests := generateDrawRequests(out, frame)

	var flashRegion region.Region
	if args.DevOptRepaintFlash {
		if dirty != nil {
			flashRegion = *dirty
		} else {
			flashRegion = out.State.DirtyRegion
		}
		for _, r := range flashRegion.Rects() {
			requests = append(requests, LayerSettings{
				Geometry:   r,
				Alpha:      1,
				SolidColor: &flashColor,
			})
		}
	}

	if out.IsSecure && out.RenderEngine != nil && out.RenderEngine.SupportsProtectedContent() {
		anyProtected := false
		for _, ol := range out.Layers {
			if st, ok := frame.latched[ol.LayerID]; ok && st.HasProtectedContent {
				anyProtected = true
				break
			}
		}
		out.RenderEngine.UseProtectedContext(anyProtected)
		out.Surface.SetProtected(anyProtected)
	}

	buf, inFence, ok := out.Surface.DequeueBuffer()
	if !ok {
		// Dequeue failure: log at warn level, return "no ready-fence" (§7).
		logx.Warnf("compose: DequeueBuffer on %s failed", out.DisplayID)
		return nil, false
	}

	if out.RenderEngine == nil {
		return fence.Signaled(), true
	}

	expensive := out.State.Dataspace == DataspaceDisplayP3
	if expensive {
		out.Surface.SetExpensiveRenderingExpected(true)
	}
	ready, err := out.RenderEngine.DrawLayers(settings, requests, buf, true, inFence)
	if expensive {
		out.Surface.SetExpensiveRenderingExpected(false)
	}
	if err != nil {
		return nil, false
	}
	return ready, true
}

// transformMatrix4 expands a region.Transform into a row-major 4x4 matrix
// for DisplaySettings.GlobalTransform, per §4.6 ("globalTransform as 4x4").
// There is no dedicated matrix4 type in the retrieved pack usable as an
// import (see DESIGN.md), so this repo carries a minimal conversion here.
func transformMatrix4(t region.Transform) [16]float64 {
	m := [16]float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
	if t.RectPreserving {
		a, b, c, d := 1.0, 0.0, 0.0, 1.0
		switch t.Rotation {
		case 90:
			a, b, c, d = 0, -1, 1, 0
		case 180:
			a, b, c, d = -1, 0, 0, -1
		case 270:
			a, b, c, d = 0, 1, -1, 0
		}
		if t.FlipH {
			a, c = -a, -c
		}
		if t.FlipV {
			b, d = -b, -d
		}
		m[0], m[1] = a, b
		m[4], m[5] = c, d
		m[3], m[7] = float64(t.TX), float64(t.TY)
		return m
	}
	m[0], m[1] = t.Matrix[0], t.Matrix[1]
	m[4], m[5] = t.Matrix[2], t.Matrix[3]
	m[3], m[7] = t.Matrix[4], t.Matrix[5]
	return m
}
