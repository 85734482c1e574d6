package compose

import "github.com/framegrace/surfaceflow/internal/logx"

// RefreshArgs parameterizes one pass of the per-frame driver (§4.5, §4.4).
type RefreshArgs struct {
	ColorSetting          ColorSetting
	VendorRenderIntent    RenderIntent
	ForceOutputColorMode  *ColorMode
	ColorTransformMatrix  [16]float64
	DevOptForceClientComposition bool
	DevOptRepaintFlash           bool
}

// UpdateColorProfile implements §4.4, returning whether the color profile
// changed (and therefore whether the whole output must be re-dirtied, per
// §4.5 step 1).
func UpdateColorProfile(out *Output, args RefreshArgs, frame *FrameState) bool {
	var next ColorProfile

	if args.ColorSetting == ColorSettingUnmanaged {
		next = ColorProfile{Mode: ColorModeNative, Dataspace: DataspaceUnknown, RenderIntent: RenderIntentColorimetric}
		return applyColorProfile(out, next)
	}

	bestDataSpace := DataspaceSRGB
	var hdrDataSpace Dataspace
	hdrForcesClient := false

	for _, ol := range out.Layers {
		st, ok := frame.latched[ol.LayerID]
		if !ok {
			continue
		}
		switch {
		case st.Dataspace == DataspaceDisplayBT2020 || st.Dataspace == DataspaceBT2020PQ || st.Dataspace == DataspaceBT2020HLG:
			bestDataSpace = DataspaceDisplayBT2020
		case st.Dataspace == DataspaceDisplayP3 && bestDataSpace != DataspaceDisplayBT2020:
			bestDataSpace = DataspaceDisplayP3
		}
		if st.Dataspace == DataspaceBT2020PQ {
			hdrDataSpace = DataspaceBT2020PQ
		} else if st.Dataspace == DataspaceBT2020HLG && hdrDataSpace != DataspaceBT2020PQ {
			hdrDataSpace = DataspaceBT2020HLG
		}
		if st.Dataspace.IsHDR() && ol.RequiresClientComposition() {
			hdrForcesClient = true
		}
	}

	// Step 3: forceOutputColorMode override.
	if args.ForceOutputColorMode != nil {
		if ds, ok := colorModeNativeDataspace[*args.ForceOutputColorMode]; ok {
			bestDataSpace = ds
		}
	}

	isHDR := hdrDataSpace != DataspaceUnknown

	// Step 4: promote to HDR dataspace when legacy support is absent and no
	// HDR layer is already forced into client composition.
	if isHDR && out.ColorProfile != nil && !out.ColorProfile.HasLegacyHDRSupport(hdrDataSpace) && !hdrForcesClient {
		bestDataSpace = hdrDataSpace
	}

	// Step 5: render intent.
	var intent RenderIntent
	switch args.ColorSetting {
	case ColorSettingManaged:
		if isHDR {
			intent = RenderIntentToneMapColorimetric
		} else {
			intent = RenderIntentColorimetric
		}
	case ColorSettingEnhanced:
		if isHDR {
			intent = RenderIntentToneMapEnhance
		} else {
			intent = RenderIntentEnhance
		}
	case ColorSettingVendor:
		intent = args.VendorRenderIntent
	}

	// Step 6: resolve via the display color profile contract.
	if out.ColorProfile == nil {
		next = ColorProfile{Mode: ColorModeNative, Dataspace: bestDataSpace, RenderIntent: intent}
		return applyColorProfile(out, next)
	}
	resolved, err := out.ColorProfile.Resolve(bestDataSpace, intent)
	if err != nil {
		// Virtual display + setColorMode is ignored with a warning (§7);
		// keep the existing profile.
		logx.Warnf("compose: color profile resolve on %s ignored: %v", out.DisplayID, err)
		return false
	}
	return applyColorProfile(out, resolved)
}

func applyColorProfile(out *Output, next ColorProfile) bool {
	current := ColorProfile{Mode: out.State.ColorMode, Dataspace: out.State.Dataspace, RenderIntent: out.State.RenderIntent}
	if current == next {
		return false
	}
	out.State.ColorMode = next.Mode
	out.State.Dataspace = next.Dataspace
	out.State.RenderIntent = next.RenderIntent
	dirtyWholeOutput(out)
	return true
}

func dirtyWholeOutput(out *Output) {
	out.State.DirtyRegion = out.State.DirtyRegion.Union(out.GetDirtyRegion(true))
}
