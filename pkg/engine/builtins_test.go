package engine

import (
	"strings"
	"testing"

	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms3"

	"github.com/chazu/termray/pkg/scene"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(sphere :radius 5)`,
			expect: `(sphere "__kw_radius" 5)`,
		},
		{
			name:   "multiple keywords",
			input:  `(torus :major 6 :minor 2.5)`,
			expect: `(torus "__kw_major" 6 "__kw_minor" 2.5)`,
		},
		{
			name:   "hyphenated keyword keeps hyphen",
			input:  `(scene s :look-at (vec3 0 0 0))`,
			expect: `(scene s "__kw_look-at" (vec3 0 0 0))`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(def half-size 3)`,
			expect: `(def half_size 3)`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "negative literal preserved",
			input:  `(vec3 1 -1 -1)`,
			expect: `(vec3 1 -1 -1)`,
		},
		{
			name:   "lisp comment converted",
			input:  "(sphere) ; the moon",
			expect: "(sphere) // the moon",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := preprocessSource(tc.input); got != tc.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tc.input, got, tc.expect)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Builtin behavior, exercised through full evaluations
// ---------------------------------------------------------------------------

// evalScene evaluates source at time t and fails the test on any error.
func evalScene(t *testing.T, source string, at float32) *sceneResult {
	t.Helper()
	eng := NewEngine()
	sc, evalErrs, err := eng.Evaluate(source, at)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if sc == nil {
		t.Fatal("expected a scene")
	}
	return &sceneResult{t: t, sc: sc}
}

// evalExpectError evaluates source and returns the eval errors, failing
// the test if evaluation succeeded or died fatally.
func evalExpectError(t *testing.T, source string) []EvalError {
	t.Helper()
	eng := NewEngine()
	sc, evalErrs, err := eng.Evaluate(source, 0)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if sc != nil {
		t.Fatal("expected evaluation to fail, got a scene")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected eval errors")
	}
	return evalErrs
}

type sceneResult struct {
	t  *testing.T
	sc *scene.Scene
}

func TestSphereBuiltin(t *testing.T) {
	r := evalScene(t, `(scene (sphere :radius 5 :center (vec3 1 2 3)))`, 0)
	r.distanceIs(ms3.Vec{X: 1, Y: 2, Z: 3}, -5)
	r.distanceIs(ms3.Vec{X: 1, Y: 2, Z: 9}, 1)
}

func TestBoxBuiltinSizeAndHalf(t *testing.T) {
	// :size takes full extents.
	r := evalScene(t, `(scene (box :size (vec3 2 4 6)))`, 0)
	r.distanceIs(ms3.Vec{Z: 3}, 0)
	r.distanceIs(ms3.Vec{X: 1}, 0)

	// :half takes half extents directly.
	r = evalScene(t, `(scene (box :half (vec3 1 2 3)))`, 0)
	r.distanceIs(ms3.Vec{Z: 3}, 0)
}

func TestTorusBuiltin(t *testing.T) {
	r := evalScene(t, `(scene (torus :major 5 :minor 1))`, 0)
	r.distanceIs(ms3.Vec{X: 6}, 0)
	r.distanceIs(ms3.Vec{X: 5}, -1)
}

func TestUnionBuiltin(t *testing.T) {
	r := evalScene(t, `(scene (union (sphere :radius 1 :center (vec3 -5 0 0))
                               (sphere :radius 2 :center (vec3 5 0 0))))`, 0)
	r.distanceIs(ms3.Vec{X: -5}, -1)
	r.distanceIs(ms3.Vec{X: 5}, -2)
}

func TestTranslateBuiltin(t *testing.T) {
	r := evalScene(t, `(scene (translate (sphere :radius 1) (vec3 0 10 0)))`, 0)
	r.distanceIs(ms3.Vec{Y: 10}, -1)
	r.distanceIs(ms3.Vec{}, 9)
}

func TestRotateBuiltin(t *testing.T) {
	// A sphere at (5,0,0) rotated 90° about z lands at (0,5,0).
	r := evalScene(t, `(scene (rotate (sphere :radius 1 :center (vec3 5 0 0))
                              :axis :z :angle 90))`, 0)
	r.distanceIs(ms3.Vec{Y: 5}, -1)
}

func TestRotateVectorAxis(t *testing.T) {
	// A non-unit axis vector is normalized before use; rotating about
	// (0 0 2) is the same as rotating about z.
	r := evalScene(t, `(scene (rotate (sphere :radius 1 :center (vec3 5 0 0))
                              :axis (vec3 0 0 2) :angle 90))`, 0)
	r.distanceIs(ms3.Vec{Y: 5}, -1)
}

func TestSceneBuiltinParameters(t *testing.T) {
	r := evalScene(t, `(scene (sphere :radius 7)
                        :camera (vec3 0 0 40)
                        :look-at (vec3 0 1 0)
                        :up (vec3 1 0 0)
                        :size 12
                        :light (vec3 0 -2 0))`, 0)
	sc := r.sc
	if sc.CameraPos != (ms3.Vec{Z: 40}) {
		t.Errorf("camera = %v", sc.CameraPos)
	}
	if sc.LookAt != (ms3.Vec{Y: 1}) {
		t.Errorf("look-at = %v", sc.LookAt)
	}
	if sc.Up != (ms3.Vec{X: 1}) {
		t.Errorf("up = %v", sc.Up)
	}
	if sc.CameraSize != 12 {
		t.Errorf("size = %v", sc.CameraSize)
	}
	// Light arrives normalized.
	if sc.LightDir != (ms3.Vec{Y: -1}) {
		t.Errorf("light = %v, want unit -y", sc.LightDir)
	}
}

func TestAnimatedScript(t *testing.T) {
	src := `(scene (rotate (torus :major 6 :minor 2.5) :axis :y :angle (* time 40)))`
	a := evalScene(t, src, 0).sc
	b := evalScene(t, src, 1).sc
	p := ms3.Vec{X: 6}
	if a.Field.Distance(p) == b.Field.Distance(p) {
		t.Error("rotation does not track time")
	}
}

func TestDefAndReuse(t *testing.T) {
	src := `
(def ring (torus :major 6 :minor 1))
(def moon (sphere :radius 1.5 :center (vec3 11 0 0)))
(scene (union ring moon) :size 30)
`
	r := evalScene(t, src, 0)
	r.distanceIs(ms3.Vec{X: 6}, -1)
	r.distanceIs(ms3.Vec{X: 11}, -1.5)
}

// ---------------------------------------------------------------------------
// Error reporting
// ---------------------------------------------------------------------------

func TestUnionRequiresMembers(t *testing.T) {
	errs := evalExpectError(t, `(scene (union))`)
	if !strings.Contains(errs[0].Message, "union") {
		t.Errorf("unexpected message: %q", errs[0].Message)
	}
}

func TestRotateRequiresAxis(t *testing.T) {
	errs := evalExpectError(t, `(scene (rotate (sphere) :angle 45))`)
	if !strings.Contains(errs[0].Message, "axis") {
		t.Errorf("unexpected message: %q", errs[0].Message)
	}
}

func TestSphereRejectsNonPositiveRadius(t *testing.T) {
	errs := evalExpectError(t, `(scene (sphere :radius -2))`)
	if !strings.Contains(errs[0].Message, "radius") {
		t.Errorf("unexpected message: %q", errs[0].Message)
	}
}

func TestSceneRejectsZeroLight(t *testing.T) {
	errs := evalExpectError(t, `(scene (sphere) :light (vec3 0 0 0))`)
	if !strings.Contains(errs[0].Message, "light") {
		t.Errorf("unexpected message: %q", errs[0].Message)
	}
}

func TestSceneRejectsNonShape(t *testing.T) {
	errs := evalExpectError(t, `(scene 42)`)
	if !strings.Contains(errs[0].Message, "shape") {
		t.Errorf("unexpected message: %q", errs[0].Message)
	}
}

func TestVec3Arity(t *testing.T) {
	errs := evalExpectError(t, `(scene (sphere :center (vec3 1 2)))`)
	if !strings.Contains(errs[0].Message, "vec3") {
		t.Errorf("unexpected message: %q", errs[0].Message)
	}
}

// distanceIs asserts the scene field's distance at p.
func (r *sceneResult) distanceIs(p ms3.Vec, want float32) {
	r.t.Helper()
	got := r.sc.Field.Distance(p)
	if math32.Abs(got-want) > 1e-4 {
		r.t.Errorf("distance at %v = %v, want %v", p, got, want)
	}
}
