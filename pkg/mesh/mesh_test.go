package mesh

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/soypat/glgl/math/ms3"

	"github.com/chazu/termray/pkg/field"
)

func TestWrapEvaluate(t *testing.T) {
	f := field.Sphere{Radius: 5}
	s, err := Wrap(f, ms3.Vec{X: -10, Y: -10, Z: -10}, ms3.Vec{X: 10, Y: 10, Z: 10})
	if err != nil {
		t.Fatalf("Wrap failed: %v", err)
	}

	tests := []struct {
		p    v3.Vec
		want float64
	}{
		{v3.Vec{}, -5},
		{v3.Vec{X: 5}, 0},
		{v3.Vec{X: 8}, 3},
	}
	for _, tc := range tests {
		if got := s.Evaluate(tc.p); math.Abs(got-tc.want) > 1e-4 {
			t.Errorf("Evaluate(%v) = %v, want %v", tc.p, got, tc.want)
		}
	}

	bb := s.BoundingBox()
	if bb.Min.X != -10 || bb.Max.Z != 10 {
		t.Errorf("bounding box %v..%v, want -10..10", bb.Min, bb.Max)
	}
}

func TestWrapRejectsDegenerateBounds(t *testing.T) {
	f := field.Sphere{Radius: 1}
	if _, err := Wrap(f, ms3.Vec{X: 5}, ms3.Vec{X: -5}); err == nil {
		t.Fatal("expected error for inverted bounds")
	}
	if _, err := Wrap(f, ms3.Vec{}, ms3.Vec{}); err == nil {
		t.Fatal("expected error for empty bounds")
	}
}

func TestExportSTL(t *testing.T) {
	f := field.Sphere{Radius: 3}
	path := filepath.Join(t.TempDir(), "sphere.stl")

	err := ExportSTL(f, ms3.Vec{X: -4, Y: -4, Z: -4}, ms3.Vec{X: 4, Y: 4, Z: 4}, 32, path)
	if err != nil {
		t.Fatalf("ExportSTL failed: %v", err)
	}

	fi, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat output: %v", err)
	}
	if fi.Size() == 0 {
		t.Fatal("exported STL is empty")
	}
}
