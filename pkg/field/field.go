// Package field implements signed distance fields: primitive shapes,
// union and transform combinators, and surface normal estimation.
//
// Every Field must be a true SDF: its value at a point is a lower
// bound on the distance to the nearest surface, negative inside a
// solid. Sphere tracing relies on that bound as a safe step size, so a
// merely "distance-like" field breaks convergence.
package field

import (
	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms3"
)

// Field is the distance-field capability: the signed distance from a
// world-space point to the nearest surface of the shape.
type Field interface {
	Distance(p ms3.Vec) float32
}

// Union composes members into a single field whose distance is the
// minimum over all members. The result owns its children; combinators
// nest freely into a tree that is evaluated depth-first, linear in
// tree size per query.
//
// At least one member is required. A scene is built in code, not read
// from data, so an empty union is a construction bug and panics.
func Union(members ...Field) Field {
	if len(members) == 0 {
		panic("field: Union requires at least one member")
	}
	return &union{members: members}
}

type union struct {
	members []Field
}

func (u *union) Distance(p ms3.Vec) float32 {
	d := u.members[0].Distance(p)
	for _, m := range u.members[1:] {
		d = math32.Min(d, m.Distance(p))
	}
	return d
}

// Transform wraps inner under a world→local matrix: query points are
// mapped through worldToLocal before inner evaluates them. Note the
// stored matrix is the inverse of the placement: to place a shape with
// transform T in the world, pass T⁻¹ here. Rotate does the inversion
// for the common case.
func Transform(inner Field, worldToLocal ms3.Mat4) Field {
	return &transformed{inv: worldToLocal, inner: inner}
}

type transformed struct {
	inv   ms3.Mat4
	inner Field
}

func (t *transformed) Distance(p ms3.Vec) float32 {
	return t.inner.Distance(t.inv.MulPosition(p))
}

// Translate places inner offset by v in world space. Translation needs
// no matrix: the query point is shifted back by v.
func Translate(inner Field, v ms3.Vec) Field {
	return &translated{offset: v, inner: inner}
}

type translated struct {
	offset ms3.Vec
	inner  Field
}

func (t *translated) Distance(p ms3.Vec) float32 {
	return t.inner.Distance(ms3.Sub(p, t.offset))
}

// Rotate places inner rotated by radians around the unit axis through
// the origin.
func Rotate(inner Field, radians float32, axis ms3.Vec) Field {
	return Transform(inner, ms3.RotatingMat4(-radians, axis))
}
