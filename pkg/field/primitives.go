package field

import (
	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms3"
)

// Sphere is the ball of the given radius around Center. Its SDF is
// exact everywhere.
type Sphere struct {
	Center ms3.Vec
	Radius float32
}

func (s Sphere) Distance(p ms3.Vec) float32 {
	return ms3.Norm(ms3.Sub(p, s.Center)) - s.Radius
}

// Box is an axis-aligned box around Center with the given half extents.
type Box struct {
	Center ms3.Vec
	Half   ms3.Vec
}

// Distance is the exact box SDF, correct both outside and inside:
// the norm of the positive part of q covers the outside, the largest
// (negative) component of q covers the inside.
func (b Box) Distance(p ms3.Vec) float32 {
	q := ms3.Sub(ms3.AbsElem(ms3.Sub(p, b.Center)), b.Half)
	outside := ms3.Norm(ms3.MaxElem(q, ms3.Vec{}))
	inside := math32.Min(math32.Max(q.X, math32.Max(q.Y, q.Z)), 0)
	return outside + inside
}

// Torus is a donut around Center whose axis is local Z: Major is the
// radius from the center to the middle of the tube, Minor the tube
// radius.
type Torus struct {
	Center ms3.Vec
	Major  float32
	Minor  float32
}

func (t Torus) Distance(p ms3.Vec) float32 {
	q := ms3.Sub(p, t.Center)
	ring := math32.Hypot(q.X, q.Y) - t.Major
	return math32.Hypot(ring, q.Z) - t.Minor
}
