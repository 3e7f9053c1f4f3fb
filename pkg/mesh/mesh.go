// Package mesh exports distance fields as triangle meshes using the
// github.com/deadsy/sdfx marching-cubes renderer.
package mesh

import (
	"fmt"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/soypat/glgl/math/ms3"

	"github.com/chazu/termray/pkg/field"
)

// Compile-time interface check.
var _ sdf.SDF3 = (*fieldSDF3)(nil)

// defaultCells controls marching cubes tessellation resolution.
const defaultCells = 200

// fieldSDF3 adapts a field.Field to the sdfx SDF3 interface. sdfx
// works in float64 and needs explicit bounds; a distance field has no
// intrinsic extent, so the caller supplies the box to sample.
type fieldSDF3 struct {
	f      field.Field
	bounds sdf.Box3
}

func (s *fieldSDF3) Evaluate(p v3.Vec) float64 {
	return float64(s.f.Distance(ms3.Vec{X: float32(p.X), Y: float32(p.Y), Z: float32(p.Z)}))
}

func (s *fieldSDF3) BoundingBox() sdf.Box3 {
	return s.bounds
}

// Wrap adapts f to an sdf.SDF3 sampled over the axis-aligned box
// [min, max]. Geometry outside the box is cut off by the sampler.
func Wrap(f field.Field, min, max ms3.Vec) (sdf.SDF3, error) {
	if min.X >= max.X || min.Y >= max.Y || min.Z >= max.Z {
		return nil, fmt.Errorf("mesh: degenerate bounds min=%v max=%v", min, max)
	}
	return &fieldSDF3{
		f: f,
		bounds: sdf.Box3{
			Min: v3.Vec{X: float64(min.X), Y: float64(min.Y), Z: float64(min.Z)},
			Max: v3.Vec{X: float64(max.X), Y: float64(max.Y), Z: float64(max.Z)},
		},
	}, nil
}

// ExportSTL writes f to path as an STL mesh, sampling [min, max] with
// cells marching-cubes cells along the longest axis. cells <= 0 uses
// the default resolution.
func ExportSTL(f field.Field, min, max ms3.Vec, cells int, path string) error {
	if cells <= 0 {
		cells = defaultCells
	}
	s, err := Wrap(f, min, max)
	if err != nil {
		return err
	}
	render.ToSTL(s, path, render.NewMarchingCubesUniform(cells))
	return nil
}
