// Package colorprofile provides a concrete DisplayColorProfile
// implementation for the composition core's color profile selection (§4.4,
// §6.1), using github.com/lucasb-eyer/go-colorful for gamut-distance
// comparisons the way the cogentcore-core example repo's color package
// builds on colorful.Color for perceptual distance.
package colorprofile

import (
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/framegrace/surfaceflow/compose"
)

// gamutPrimary is one supported (ColorMode, Dataspace) pair's
// representative white-point color, used only to rank candidate gamuts by
// perceptual distance when resolving a requested dataspace.
type gamutPrimary struct {
	mode      compose.ColorMode
	dataspace compose.Dataspace
	white     colorful.Color
	legacyHDR bool
}

// table lists the gamuts this profile knows how to resolve to, widest gamut
// last so a tie in distance prefers the narrower (safer) gamut — mirroring
// the original's preference for an exact match over an expanded one.
var table = []gamutPrimary{
	{mode: compose.ColorModeSRGB, dataspace: compose.DataspaceSRGB, white: colorful.Color{R: 0.9505, G: 1.0, B: 1.089}, legacyHDR: false},
	{mode: compose.ColorModeDisplayP3, dataspace: compose.DataspaceDisplayP3, white: colorful.Color{R: 0.9505, G: 1.0, B: 1.089}, legacyHDR: false},
	{mode: compose.ColorModeDisplayBT2020, dataspace: compose.DataspaceDisplayBT2020, white: colorful.Color{R: 0.9642, G: 1.0, B: 0.8249}, legacyHDR: false},
}

// candidateWhite approximates a requested dataspace's white point for
// distance comparison; this repo does not carry full primaries/whitepoint
// metadata for every dataspace (out of scope per §1's "pixel math of color
// conversion"), so HDR dataspaces are mapped to the BT2020 entry's white
// point and all others to sRGB's.
func candidateWhite(ds compose.Dataspace) colorful.Color {
	switch ds {
	case compose.DataspaceDisplayBT2020, compose.DataspaceBT2020PQ, compose.DataspaceBT2020HLG:
		return colorful.Color{R: 0.9642, G: 1.0, B: 0.8249}
	case compose.DataspaceDisplayP3:
		return colorful.Color{R: 0.9505, G: 1.0, B: 1.089}
	default:
		return colorful.Color{R: 0.9505, G: 1.0, B: 1.089}
	}
}

// Default implements compose.DisplayColorProfile (§6.1).
type Default struct{}

// NewDefault returns a Default color profile.
func NewDefault() Default { return Default{} }

// Resolve implements §4.4 step 6: pick the best-matching (colorMode,
// dataspace, renderIntent) for candidate, preferring an exact dataspace
// match and otherwise the nearest gamut by Lab distance.
func (Default) Resolve(candidate compose.Dataspace, intent compose.RenderIntent) (compose.ColorProfile, error) {
	for _, g := range table {
		if g.dataspace == candidate {
			return compose.ColorProfile{Mode: g.mode, Dataspace: candidate, RenderIntent: intent}, nil
		}
	}

	target := candidateWhite(candidate)
	best := table[0]
	bestDist := target.DistanceLab(best.white)
	for _, g := range table[1:] {
		if d := target.DistanceLab(g.white); d < bestDist {
			best, bestDist = g, d
		}
	}
	return compose.ColorProfile{Mode: best.mode, Dataspace: candidate, RenderIntent: intent}, nil
}

// HasLegacyHDRSupport implements §4.4 step 4's "does not have legacy HDR
// support" check. None of this repo's static gamut table carries legacy HDR
// support, matching a typical non-HDR-certified display panel.
func (Default) HasLegacyHDRSupport(ds compose.Dataspace) bool {
	for _, g := range table {
		if g.dataspace == ds {
			return g.legacyHDR
		}
	}
	return false
}
