// Package region implements integer rectangle algebra for the composition
// core: union, intersection, subtraction and transform of closed-open
// rectangular regions.
package region

// Rect is a closed-open integer rectangle: it contains x in [Left,Right) and
// y in [Top,Bottom).
type Rect struct {
	Left, Top, Right, Bottom int
}

// NewRect builds a rectangle, normalizing negative width/height to empty.
func NewRect(left, top, right, bottom int) Rect {
	if right < left {
		right = left
	}
	if bottom < top {
		bottom = top
	}
	return Rect{Left: left, Top: top, Right: right, Bottom: bottom}
}

// IsEmpty reports whether the rectangle has zero area.
func (r Rect) IsEmpty() bool {
	return r.Right <= r.Left || r.Bottom <= r.Top
}

// Width returns the rectangle's width, zero if empty.
func (r Rect) Width() int {
	if r.IsEmpty() {
		return 0
	}
	return r.Right - r.Left
}

// Height returns the rectangle's height, zero if empty.
func (r Rect) Height() int {
	if r.IsEmpty() {
		return 0
	}
	return r.Bottom - r.Top
}

// Intersect returns the overlap of r and o; empty if disjoint.
func (r Rect) Intersect(o Rect) Rect {
	left, top := max(r.Left, o.Left), max(r.Top, o.Top)
	right, bottom := min(r.Right, o.Right), min(r.Bottom, o.Bottom)
	return NewRect(left, top, right, bottom)
}

// Union returns the bounding rectangle containing both r and o. Callers that
// need exact (non-bounding) union of disjoint rects should use Region.
func (r Rect) Union(o Rect) Rect {
	if r.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return r
	}
	return NewRect(min(r.Left, o.Left), min(r.Top, o.Top), max(r.Right, o.Right), max(r.Bottom, o.Bottom))
}

// Contains reports whether (x,y) lies within the rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.Left && x < r.Right && y >= r.Top && y < r.Bottom
}

// Translate shifts the rectangle by (dx, dy).
func (r Rect) Translate(dx, dy int) Rect {
	if r.IsEmpty() {
		return r
	}
	return NewRect(r.Left+dx, r.Top+dy, r.Right+dx, r.Bottom+dy)
}

// Region is a set of pixels represented as a list of non-overlapping
// rectangles. The zero value is the empty region.
type Region struct {
	rects []Rect
}

// FromRect builds a region containing a single rectangle.
func FromRect(r Rect) Region {
	if r.IsEmpty() {
		return Region{}
	}
	return Region{rects: []Rect{r}}
}

// IsEmpty reports whether the region has no area.
func (reg Region) IsEmpty() bool {
	return len(reg.rects) == 0
}

// Rects returns the constituent rectangles. Callers must not mutate the
// returned slice.
func (reg Region) Rects() []Rect {
	return reg.rects
}

// Bounds returns the smallest rectangle containing the whole region.
func (reg Region) Bounds() Rect {
	var b Rect
	for _, r := range reg.rects {
		b = b.Union(r)
	}
	return b
}

// normalize drops empty rectangles and merges exactly-adjacent same-row or
// same-column rectangles to keep the rect list from growing without bound under repeated
// subtract/union calls; it is not a full plane-sweep coalescer.
func normalize(rects []Rect) []Rect {
	out := rects[:0]
	for _, r := range rects {
		if !r.IsEmpty() {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil
	}
	merged := true
	for merged {
		merged = false
		for i := 0; i < len(out); i++ {
			for j := i + 1; j < len(out); j++ {
				if combined, ok := tryMerge(out[i], out[j]); ok {
					out[i] = combined
					out = append(out[:j], out[j+1:]...)
					merged = true
					break
				}
			}
			if merged {
				break
			}
		}
	}
	return out
}

func tryMerge(a, b Rect) (Rect, bool) {
	if a.Top == b.Top && a.Bottom == b.Bottom {
		if a.Right == b.Left {
			return NewRect(a.Left, a.Top, b.Right, a.Bottom), true
		}
		if b.Right == a.Left {
			return NewRect(b.Left, a.Top, a.Right, a.Bottom), true
		}
	}
	if a.Left == b.Left && a.Right == b.Right {
		if a.Bottom == b.Top {
			return NewRect(a.Left, a.Top, a.Right, b.Bottom), true
		}
		if b.Bottom == a.Top {
			return NewRect(a.Left, b.Top, a.Right, a.Bottom), true
		}
	}
	return Rect{}, false
}

// Union returns the set union of reg and o.
func (reg Region) Union(o Region) Region {
	if reg.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return reg
	}
	combined := append(append([]Rect{}, reg.rects...), o.rects...)
	return Region{rects: normalize(subtractOverlapUnion(combined))}
}

// subtractOverlapUnion de-duplicates overlapping area across a rect list by
// repeatedly splitting later rects against earlier ones, so Union never
// double-counts overlapping input rectangles.
func subtractOverlapUnion(rects []Rect) []Rect {
	var out []Rect
	for _, r := range rects {
		pieces := []Rect{r}
		for _, existing := range out {
			var next []Rect
			for _, p := range pieces {
				next = append(next, subtractRect(p, existing)...)
			}
			pieces = next
		}
		out = append(out, pieces...)
	}
	return out
}

// Intersect returns the set intersection of reg and o.
func (reg Region) Intersect(o Region) Region {
	var out []Rect
	for _, a := range reg.rects {
		for _, b := range o.rects {
			if c := a.Intersect(b); !c.IsEmpty() {
				out = append(out, c)
			}
		}
	}
	return Region{rects: normalize(out)}
}

// Subtract returns reg with every rectangle of o removed.
func (reg Region) Subtract(o Region) Region {
	pieces := append([]Rect{}, reg.rects...)
	for _, sub := range o.rects {
		var next []Rect
		for _, p := range pieces {
			next = append(next, subtractRect(p, sub)...)
		}
		pieces = next
	}
	return Region{rects: normalize(pieces)}
}

// subtractRect removes sub from r, returning zero to four rectangles that
// cover r \ sub.
func subtractRect(r, sub Rect) []Rect {
	overlap := r.Intersect(sub)
	if overlap.IsEmpty() {
		return []Rect{r}
	}
	var out []Rect
	if overlap.Top > r.Top {
		out = append(out, NewRect(r.Left, r.Top, r.Right, overlap.Top))
	}
	if overlap.Bottom < r.Bottom {
		out = append(out, NewRect(r.Left, overlap.Bottom, r.Right, r.Bottom))
	}
	if overlap.Left > r.Left {
		out = append(out, NewRect(r.Left, overlap.Top, overlap.Left, overlap.Bottom))
	}
	if overlap.Right < r.Right {
		out = append(out, NewRect(overlap.Right, overlap.Top, r.Right, overlap.Bottom))
	}
	return out
}

// Transform is an integer 2D transform. Rotation/Flip describe the rect-
// preserving subset (0/90/180/270 degrees, optionally flipped) used by the
// visibility pass; Matrix is populated only for general affine transforms.
type Transform struct {
	RectPreserving bool
	// Rotation is one of 0, 90, 180, 270 and only meaningful when
	// RectPreserving is true.
	Rotation int
	FlipH    bool
	FlipV    bool
	TX, TY   int
	// Matrix holds a general 2x3 affine transform [a b tx; c d ty] used when
	// RectPreserving is false. ApplyRect/ApplyRegion on such a transform
	// return only conservative bounding rects, per spec.
	Matrix [6]float64
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{RectPreserving: true}
}

// IsValidOrientation reports whether the transform is one of the eight
// rect-preserving orientations (0/90/180/270, optionally flipped).
func (t Transform) IsValidOrientation() bool {
	if !t.RectPreserving {
		return false
	}
	switch t.Rotation {
	case 0, 90, 180, 270:
		return true
	default:
		return false
	}
}

// ApplyRect transforms a single rectangle. For rect-preserving transforms the
// result is exact; for general affine transforms it is the bounding box of
// the four corners (a conservative over-approximation).
func (t Transform) ApplyRect(r Rect) Rect {
	if r.IsEmpty() {
		return Rect{}
	}
	if t.RectPreserving {
		w, h := r.Width(), r.Height()
		left, top := r.Left, r.Top
		switch t.Rotation {
		case 90:
			left, top = -r.Top-h, r.Left
			w, h = h, w
		case 180:
			left, top = -r.Right, -r.Bottom
		case 270:
			left, top = r.Top, -r.Left-w
			w, h = h, w
		}
		if t.FlipH {
			left = -left - w
		}
		if t.FlipV {
			top = -top - h
		}
		return NewRect(left+t.TX, top+t.TY, left+w+t.TX, top+h+t.TY)
	}
	corners := [4][2]float64{
		{float64(r.Left), float64(r.Top)},
		{float64(r.Right), float64(r.Top)},
		{float64(r.Left), float64(r.Bottom)},
		{float64(r.Right), float64(r.Bottom)},
	}
	a, b, c, d, tx, ty := t.Matrix[0], t.Matrix[1], t.Matrix[2], t.Matrix[3], t.Matrix[4], t.Matrix[5]
	minX, minY := float64(1<<62), float64(1<<62)
	maxX, maxY := -float64(1<<62), -float64(1<<62)
	for _, p := range corners {
		x := a*p[0] + b*p[1] + tx
		y := c*p[0] + d*p[1] + ty
		minX, maxX = min(minX, x), max(maxX, x)
		minY, maxY = min(minY, y), max(maxY, y)
	}
	return NewRect(int(minX), int(minY), int(maxX+0.5), int(maxY+0.5))
}

// ApplyRegion applies the transform rect-by-rect. For general affine
// transforms, each constituent rectangle becomes its own conservative
// bounding rect (never merged into one overall bound), preserving as much
// precision as the rect-preserving case allows for composite regions.
func (t Transform) ApplyRegion(reg Region) Region {
	if reg.IsEmpty() {
		return Region{}
	}
	out := make([]Rect, 0, len(reg.rects))
	for _, r := range reg.rects {
		if tr := t.ApplyRect(r); !tr.IsEmpty() {
			out = append(out, tr)
		}
	}
	return Region{rects: normalize(out)}
}
