package field

import (
	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms3"
)

// normalEps is the half-width of the central differences used for
// gradient estimation.
const normalEps = 1e-4

// fallbackNormal is returned when the gradient vanishes, e.g. deep
// inside a flat region. A fixed direction keeps glyph selection free
// of NaNs.
var fallbackNormal = ms3.Vec{Z: 1}

// Normal estimates the surface normal of f at p with symmetric central
// differences along each axis, at the cost of six distance
// evaluations. Only meaningful near the surface, where the field is
// smooth.
func Normal(f Field, p ms3.Vec) ms3.Vec {
	grad := ms3.Vec{
		X: f.Distance(ms3.Add(p, ms3.Vec{X: normalEps})) - f.Distance(ms3.Sub(p, ms3.Vec{X: normalEps})),
		Y: f.Distance(ms3.Add(p, ms3.Vec{Y: normalEps})) - f.Distance(ms3.Sub(p, ms3.Vec{Y: normalEps})),
		Z: f.Distance(ms3.Add(p, ms3.Vec{Z: normalEps})) - f.Distance(ms3.Sub(p, ms3.Vec{Z: normalEps})),
	}
	n := ms3.Norm(grad)
	if n < 1e-12 || math32.IsNaN(n) {
		return fallbackNormal
	}
	return ms3.Scale(1/n, grad)
}
