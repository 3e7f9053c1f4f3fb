// Package scene defines the renderable scene value and the built-in
// animated demo scene.
//
// A Scene is constructed fresh for every frame from an animation time
// and is immutable once built. Rebuilding the whole field tree per
// frame keeps rendering a pure function of time and leaves no stale
// state between frames.
package scene

import (
	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms3"

	"github.com/chazu/termray/pkg/field"
)

// Scene is one frame's worth of world: the composite distance field
// plus camera and light parameters.
type Scene struct {
	Field field.Field

	// CameraPos and LookAt define the view direction; Up orients the
	// view window.
	CameraPos ms3.Vec
	LookAt    ms3.Vec
	Up        ms3.Vec

	// CameraSize is the half-extent of the orthographic view window in
	// world units along the shorter screen axis.
	CameraSize float32

	// LightDir is a unit vector pointing from the light toward the
	// scene.
	LightDir ms3.Vec
}

// Donut builds the demo scene at animation time t: a torus spinning on
// two axes, a small sphere orbiting it, and a tumbling box drifting
// below. Pure in t.
func Donut(t float32) *Scene {
	donut := field.Rotate(
		field.Rotate(
			field.Torus{Major: 6, Minor: 2.5},
			t*0.7, ms3.Vec{X: 1},
		),
		t, ms3.Vec{Y: 1},
	)

	moon := field.Sphere{
		Center: ms3.Vec{
			X: 11 * math32.Cos(t*0.9),
			Y: 4 * math32.Sin(t*1.3),
			Z: 11 * math32.Sin(t*0.9),
		},
		Radius: 1.5,
	}

	cube := field.Translate(
		field.Rotate(
			field.Box{Half: ms3.Vec{X: 1.4, Y: 1.4, Z: 1.4}},
			t*1.4, ms3.Unit(ms3.Vec{X: 1, Y: 1, Z: 0}),
		),
		ms3.Vec{X: 4 * math32.Sin(t*0.5), Y: -8},
	)

	return &Scene{
		Field:      field.Union(donut, moon, cube),
		CameraPos:  ms3.Vec{Z: 20},
		LookAt:     ms3.Vec{},
		Up:         ms3.Vec{Y: 1},
		CameraSize: 30,
		LightDir:   ms3.Unit(ms3.Vec{X: 1, Y: -1, Z: -1}),
	}
}
