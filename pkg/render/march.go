package render

import (
	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms3"

	"github.com/chazu/termray/pkg/field"
)

const (
	// HitEpsilon is the surface proximity at which a march counts as a
	// hit.
	HitEpsilon = 0.01
	// MaxSteps bounds the number of marching steps per ray.
	MaxSteps = 100
	// MaxDistance bounds the total distance traveled along a ray.
	MaxDistance = 100.0

	ambient = 0.1
	diffuse = 0.9
)

// March sphere-traces one ray through f and returns the pixel
// intensity in [0,1]. The field value at the current point is a lower
// bound on the distance to the nearest surface, so advancing by
// exactly that value can never overshoot geometry; that bound is what
// makes the loop converge. A hit yields the ambient floor plus the
// Lambertian term; running out of steps or distance yields exactly 0.
//
// The result is purely a function of (f, origin, dir, lightDir).
func March(f field.Field, origin, dir, lightDir ms3.Vec) float32 {
	p := origin
	total := float32(0)
	for step := 0; step < MaxSteps && total < MaxDistance; step++ {
		d := f.Distance(p)
		if d < HitEpsilon {
			return ambient + diffuse*lambert(f, p, lightDir)
		}
		p = ms3.Add(p, ms3.Scale(d, dir))
		total += d
	}
	return 0
}

// lambert is the diffuse reflectance at the surface point p. LightDir
// points from the light toward the scene, so the surface-to-light
// direction is its negation.
func lambert(f field.Field, p, lightDir ms3.Vec) float32 {
	n := field.Normal(f, p)
	return math32.Max(ms3.Dot(n, ms3.Scale(-1, lightDir)), 0)
}
