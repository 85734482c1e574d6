package compose

import (
	"time"

	"github.com/framegrace/surfaceflow/fence"
	"github.com/framegrace/surfaceflow/internal/logx"
	"github.com/framegrace/surfaceflow/region"
)

// FrameFences is returned from PostFramebuffer (§3, "FrameFences"): one
// present fence and one client-target acquire fence. Per-layer release
// fences are delivered to the layer front-ends directly and are not
// returned here.
type FrameFences struct {
	PresentFence             *fence.Fence
	ClientTargetAcquireFence *fence.Fence
}

// RepaintFlashDelay is how long devOptRepaintFlash sleeps after posting the
// flash frame before re-preparing (§4.5 step 6). Overridable by callers
// (e.g. tests) that don't want to actually sleep.
var RepaintFlashDelay = 200 * time.Millisecond

// updateAndWriteCompositionState implements §4.5 step 2: applies the
// dev-option force-client-composition flag to every output-layer.
// There is no per-layer HWC state push in this repo's narrow Composer
// contract (§6 lists no such call), so this step only applies the
// dev-option flag; it is still its own phase to keep the driver's ordering
// visible, matching the spec's numbered phase list.
func updateAndWriteCompositionState(out *Output, args RefreshArgs) {
	for _, ol := range out.Layers {
		if args.DevOptForceClientComposition {
			ol.ForceClientComposition = true
		}
	}
}

// setColorTransform implements §4.5 step 3: updates the output's color
// transform matrix if the refresh args carry a different one, re-dirtying
// the output when it changes.
func setColorTransform(out *Output, args RefreshArgs) {
	if out.State.ColorTransformMatrix == args.ColorTransformMatrix {
		return
	}
	out.State.ColorTransformMatrix = args.ColorTransformMatrix
	if err := out.setComposerColorTransform(args.ColorTransformMatrix); err != nil {
		logx.Warnf("compose: setColorTransform on %s failed: %v", out.DisplayID, err)
	}
	dirtyWholeOutput(out)
}

func (o *Output) setComposerColorTransform(m [16]float64) error {
	if o.Composer == nil {
		return nil
	}
	return o.Composer.SetColorTransform(o.DisplayID, m)
}

// BeginFrame implements §4.5 step 4. It reports whether a recompose is
// needed this frame and updates LastCompositionHadVisibleLayers accordingly,
// preserving the "exactly one black frame" rationale.
func BeginFrame(out *Output) bool {
	if !out.State.IsEnabled {
		return false
	}
	dirty := !out.GetDirtyRegion(false).IsEmpty()
	empty := len(out.Layers) == 0
	wasEmpty := !out.State.LastCompositionHadVisibleLayers
	mustRecompose := dirty && !(empty && wasEmpty)

	if out.Surface != nil {
		out.Surface.BeginFrame(mustRecompose)
	}
	if mustRecompose {
		out.State.LastCompositionHadVisibleLayers = !empty
	}
	return mustRecompose
}

// PrepareFrame implements §4.5 step 5: runs the strategy selector and tells
// the render surface which composition paths will run this frame.
func PrepareFrame(out *Output) {
	if !out.State.IsEnabled {
		return
	}
	ChooseCompositionStrategy(out)
	if out.Surface != nil {
		out.Surface.PrepareFrame(out.State.UsesClientComposition, out.State.UsesDeviceComposition)
	}
}

// FinishFrame implements §4.5 step 7: client-composes with the internal
// dirty region (nil dirty, §9.1) and queues the resulting buffer.
func FinishFrame(out *Output, args RefreshArgs, frame *FrameState) {
	if !out.State.IsEnabled {
		return
	}
	ready, ok := ComposeSurfaces(out, args, frame, nil)
	if !ok {
		return
	}
	if out.Surface != nil {
		out.Surface.QueueBuffer(ready)
	}
}

// DevOptRepaintFlash implements §4.5 step 6: the debug repaint-flash path.
// Per §9, the ready-fence ComposeSurfaces returns here is intentionally
// discarded — QueueBuffer is called with an unconnected fence, matching the
// preserved pre-flash behavior.
func DevOptRepaintFlash(out *Output, args RefreshArgs, frame *FrameState, sleep func(time.Duration)) {
	if !args.DevOptRepaintFlash || !out.State.IsEnabled {
		return
	}
	dirty := out.GetDirtyRegion(false)
	if dirty.IsEmpty() {
		return
	}
	_, _ = ComposeSurfaces(out, args, frame, &dirty)
	if out.Surface != nil {
		out.Surface.QueueBuffer(fence.New())
	}
	PostFramebuffer(out, frame)
	if sleep == nil {
		sleep = time.Sleep
	}
	sleep(RepaintFlashDelay)
	PrepareFrame(out)
}

// PostFramebuffer implements §4.5 step 8: flips the surface, collects
// present/layer fences, distributes release fences to current output-layers
// and the released-layers set, and clears the dirty region and released set.
//
// Per §9's preserved-quirk note, the release fence merged with each
// output-layer is the *current* frame's client-target-acquire fence, not the
// previous frame's.
func PostFramebuffer(out *Output, frame *FrameState) FrameFences {
	var fences FrameFences
	if !out.State.IsEnabled {
		return fences
	}

	out.State.DirtyRegion = region.Region{}

	if out.Surface != nil {
		out.Surface.Flip()
	}

	if out.Composer != nil {
		if err := out.Composer.PresentAndGetReleaseFences(out.DisplayID); err != nil {
			logx.Warnf("compose: present on %s failed: %v", out.DisplayID, err)
		}
		fences.PresentFence = out.Composer.GetPresentFence(out.DisplayID)
	} else {
		fences.PresentFence = fence.Signaled()
	}

	if out.Surface != nil {
		out.Surface.OnPresentDisplayCompleted()
		fences.ClientTargetAcquireFence = out.Surface.GetClientTargetAcquireFence()
	}

	for _, ol := range out.Layers {
		if ol.HWCHandle == nil {
			continue
		}
		release := fence.NoFence
		if out.Composer != nil {
			release = out.Composer.GetLayerReleaseFence(out.DisplayID, *ol.HWCHandle)
		}
		if out.State.UsesClientComposition {
			release = fence.Merge(release, fences.ClientTargetAcquireFence)
		}
		if fe, ok := frame.FE(ol.LayerID); ok {
			fe.OnLayerDisplayed(release)
		}
	}

	if out.Composer != nil {
		out.Composer.ClearReleaseFences(out.DisplayID)
	}

	for _, rl := range out.ReleasedLayers {
		if rl.FE != nil {
			rl.FE.OnLayerDisplayed(fences.PresentFence)
		}
	}
	out.ReleasedLayers = out.ReleasedLayers[:0]

	return fences
}

// RunFrame drives one full per-output present, sequencing §4.5's phases in
// order. It is the entry point the composition thread calls once per vsync
// per output.
func RunFrame(out *Output, args RefreshArgs, layersBackToFront []InputLayer, frame *FrameState) FrameFences {
	if !out.State.IsEnabled {
		return FrameFences{}
	}

	RunVisibilityPass(out, layersBackToFront, frame)

	UpdateColorProfile(out, args, frame)
	updateAndWriteCompositionState(out, args)
	setColorTransform(out, args)

	mustRecompose := BeginFrame(out)
	PrepareFrame(out)

	DevOptRepaintFlash(out, args, frame, nil)

	if !mustRecompose {
		return FrameFences{}
	}

	FinishFrame(out, args, frame)
	return PostFramebuffer(out, frame)
}
