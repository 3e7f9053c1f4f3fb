package scene

import (
	"testing"

	"github.com/soypat/glgl/math/ms3"
)

func TestDonutIsPureInTime(t *testing.T) {
	a := Donut(2.5)
	b := Donut(2.5)

	probes := []ms3.Vec{{}, {X: 6}, {X: 3, Y: -8, Z: 1}, {X: 11, Z: 2}}
	for _, p := range probes {
		if a.Field.Distance(p) != b.Field.Distance(p) {
			t.Fatalf("two scenes built at the same time disagree at %v", p)
		}
	}
}

func TestDonutAnimates(t *testing.T) {
	a := Donut(0)
	b := Donut(1)

	// The field tree moves with time; at least one probe must differ.
	moved := false
	for _, p := range []ms3.Vec{{X: 6}, {Y: 6}, {X: 11}, {Y: -8}} {
		if a.Field.Distance(p) != b.Field.Distance(p) {
			moved = true
			break
		}
	}
	if !moved {
		t.Error("scene does not change with time")
	}
}

func TestDonutCameraAndLight(t *testing.T) {
	sc := Donut(0)
	if sc.Field == nil {
		t.Fatal("scene has no field")
	}
	if sc.CameraSize <= 0 {
		t.Errorf("camera size %v, want > 0", sc.CameraSize)
	}
	if n := ms3.Norm(sc.LightDir); n < 0.999 || n > 1.001 {
		t.Errorf("light direction norm %v, want unit", n)
	}
	if n := ms3.Norm(ms3.Sub(sc.LookAt, sc.CameraPos)); n == 0 {
		t.Error("camera sits on its look-at target")
	}
}

func TestDonutFieldContainsTorus(t *testing.T) {
	// At t=0 the torus is unrotated: the ring through (6,0,0) is
	// inside the union regardless of where the moon and cube sit.
	sc := Donut(0)
	if d := sc.Field.Distance(ms3.Vec{X: 6}); d > 0 {
		t.Errorf("tube center distance %v, want <= 0", d)
	}
	// The hole of the donut is empty space.
	if d := sc.Field.Distance(ms3.Vec{}); d <= 0 {
		t.Errorf("origin distance %v, want > 0", d)
	}
}
