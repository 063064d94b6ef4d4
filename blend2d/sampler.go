// Package blend2d computes per-child weights for the 2D blend tree types.
//
// Given a 2D sample point and the children's anchor points it fills a
// weight slice that is non-negative and sums to 1. Freeform types use
// gradient band interpolation, in cartesian space for FreeformCartesian2D
// and in polar (magnitude, angle) space for FreeformDirectional2D.
// SimpleDirectional2D interpolates between the two anchors bracketing the
// sample direction, with any leftover weight going to an anchor at the
// origin.
package blend2d

import (
	"math"

	"github.com/milk9111/animachine/common"
	"github.com/milk9111/animachine/graph"
)

const (
	// angleWeight scales the angular axis of the polar gradient bands so a
	// radian of angular difference counts about as much as a doubling of
	// magnitude.
	angleWeight = 2

	epsilon = 1e-9
)

type Sampler struct{}

func New() *Sampler {
	return &Sampler{}
}

// Weights fills out[:len(tree.Children)] with the child weights for the
// sample point (x, y). It writes nothing when out is too short.
func (s *Sampler) Weights(tree *graph.BlendTree, x, y float64, out []float64) {
	if tree == nil {
		return
	}
	n := len(tree.Children)
	if n == 0 || len(out) < n {
		return
	}
	out = out[:n]
	if n == 1 {
		out[0] = 1
		return
	}

	switch tree.Type {
	case graph.BlendSimpleDirectional2D:
		simpleDirectional(tree.Children, x, y, out)
	case graph.BlendFreeformCartesian2D:
		freeform(tree.Children, x, y, out, cartesianGradient)
	default:
		freeform(tree.Children, x, y, out, polarGradient)
	}
}

func uniform(out []float64) {
	w := 1.0 / float64(len(out))
	for i := range out {
		out[i] = w
	}
}

// gradientFn returns the influence of sample (sx, sy) on the band running
// from anchor (px, py) toward anchor (qx, qy), clamped to [0, 1].
type gradientFn func(px, py, qx, qy, sx, sy float64) float64

func freeform(children []graph.BlendChild, x, y float64, out []float64, band gradientFn) {
	total := 0.0
	for i := range children {
		w := 1.0
		for j := range children {
			if j == i {
				continue
			}
			h := band(children[i].X, children[i].Y, children[j].X, children[j].Y, x, y)
			if h < w {
				w = h
			}
		}
		out[i] = w
		total += w
	}
	if total <= epsilon {
		uniform(out)
		return
	}
	for i := range out {
		out[i] /= total
	}
}

func cartesianGradient(px, py, qx, qy, sx, sy float64) float64 {
	ijx, ijy := qx-px, qy-py
	ipx, ipy := sx-px, sy-py
	den := ijx*ijx + ijy*ijy
	if den <= epsilon {
		// coincident anchors carve out no band
		return 1
	}
	return common.Clamp01(1 - (ipx*ijx+ipy*ijy)/den)
}

func polarGradient(px, py, qx, qy, sx, sy float64) float64 {
	pm := math.Hypot(px, py)
	qm := math.Hypot(qx, qy)
	sm := math.Hypot(sx, sy)
	avg := (pm + qm) / 2
	if avg <= epsilon {
		return cartesianGradient(px, py, qx, qy, sx, sy)
	}
	ijx := (qm - pm) / avg
	ijy := signedAngle(px, py, qx, qy) * angleWeight
	ipx := (sm - pm) / avg
	ipy := signedAngle(px, py, sx, sy) * angleWeight
	den := ijx*ijx + ijy*ijy
	if den <= epsilon {
		return 1
	}
	return common.Clamp01(1 - (ipx*ijx+ipy*ijy)/den)
}

func signedAngle(ax, ay, bx, by float64) float64 {
	if (ax == 0 && ay == 0) || (bx == 0 && by == 0) {
		return 0
	}
	return math.Atan2(ax*by-ay*bx, ax*bx+ay*by)
}

func simpleDirectional(children []graph.BlendChild, x, y float64, out []float64) {
	origin := -1
	directional := 0
	for i := range children {
		out[i] = 0
		if math.Hypot(children[i].X, children[i].Y) <= epsilon {
			if origin < 0 {
				origin = i
			}
			continue
		}
		directional++
	}

	if directional < 2 {
		// not enough directions to bracket; fall back to gradient bands
		freeform(children, x, y, out, polarGradient)
		return
	}

	if math.Hypot(x, y) <= epsilon {
		if origin >= 0 {
			out[origin] = 1
		} else {
			uniform(out)
		}
		return
	}

	// find the anchors bracketing the sample direction: the nearest child
	// clockwise of the sample and the nearest counter-clockwise
	sa := math.Atan2(y, x)
	lo, hi := -1, -1
	loDelta, hiDelta := math.Inf(1), math.Inf(1)
	for i := range children {
		cx, cy := children[i].X, children[i].Y
		if math.Hypot(cx, cy) <= epsilon {
			continue
		}
		ca := math.Atan2(cy, cx)
		if d := wrapPositive(sa - ca); d < loDelta {
			loDelta, lo = d, i
		}
		if d := wrapPositive(ca - sa); d < hiDelta {
			hiDelta, hi = d, i
		}
	}

	if lo == hi {
		out[lo] = 1
		return
	}

	ax, ay := children[lo].X, children[lo].Y
	bx, by := children[hi].X, children[hi].Y
	det := ax*by - ay*bx
	if math.Abs(det) <= epsilon {
		// parallel anchors, split by proximity along the ray
		out[lo], out[hi] = 0.5, 0.5
		return
	}
	wa := (x*by - y*bx) / det
	wb := (ax*y - ay*x) / det
	if wa < 0 {
		wa = 0
	}
	if wb < 0 {
		wb = 0
	}
	total := wa + wb
	switch {
	case total <= epsilon:
		out[lo], out[hi] = 0.5, 0.5
	case total > 1 || origin < 0:
		out[lo] = wa / total
		out[hi] = wb / total
	default:
		out[lo] = wa
		out[hi] = wb
		out[origin] = 1 - total
	}
}

func wrapPositive(a float64) float64 {
	for a < 0 {
		a += 2 * math.Pi
	}
	for a >= 2*math.Pi {
		a -= 2 * math.Pi
	}
	return a
}
