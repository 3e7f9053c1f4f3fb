package engine

import (
	"fmt"
	"math"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/soypat/glgl/math/ms3"

	"github.com/chazu/termray/pkg/field"
	"github.com/chazu/termray/pkg/scene"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms termray Lisp source code before passing
// it to zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: look-at -> look_at
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpField wraps a field.Field so shapes can be passed between builtins.
type sexpField struct {
	f    field.Field
	desc string // human-readable form for error messages and printing
}

func (s *sexpField) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(shape %s)", s.desc)
}
func (s *sexpField) Type() *zygo.RegisteredType { return nil }

// sexpVec3 wraps an ms3.Vec.
type sexpVec3 struct {
	vec ms3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %.2f %.2f %.2f)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sceneCollector receives the scene defined by the script. Builtins
// populate it during evaluation, mirroring how the interpreter hands
// results back to the engine.
type sceneCollector struct {
	scene *scene.Scene
}

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value — treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat32 extracts a float32 from a Sexp (SexpInt or SexpFloat).
func toFloat32(s zygo.Sexp) (float32, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float32(v.Val), nil
	case *zygo.SexpFloat:
		return float32(v.Val), nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_z) and plain strings ("z").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toVec3 extracts an ms3.Vec from a sexpVec3.
func toVec3(s zygo.Sexp) (ms3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return ms3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toField extracts a field.Field from a sexpField.
func toField(s zygo.Sexp) (field.Field, error) {
	if f, ok := s.(*sexpField); ok {
		return f.f, nil
	}
	return nil, fmt.Errorf("expected shape, got %T (%s)", s, s.SexpString(nil))
}

// toAxis converts an axis keyword (:x, :y, :z) or a vec3 into a unit
// rotation axis.
func toAxis(s zygo.Sexp) (ms3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		n := ms3.Norm(v.vec)
		if n < 1e-12 {
			return ms3.Vec{}, fmt.Errorf("rotation axis must be nonzero")
		}
		return ms3.Scale(1/n, v.vec), nil
	}
	name, err := toKeywordString(s)
	if err != nil {
		return ms3.Vec{}, fmt.Errorf("expected axis keyword (:x, :y, :z) or vec3: %w", err)
	}
	switch name {
	case "x":
		return ms3.Vec{X: 1}, nil
	case "y":
		return ms3.Vec{Y: 1}, nil
	case "z":
		return ms3.Vec{Z: 1}, nil
	}
	return ms3.Vec{}, fmt.Errorf("invalid axis %q, expected x, y, or z", name)
}

// kwVec3 reads an optional vec3 keyword argument, keeping def if absent.
func kwVec3(pa kwArgs, name string, def ms3.Vec) (ms3.Vec, error) {
	s, ok := pa.kw[name]
	if !ok {
		return def, nil
	}
	v, err := toVec3(s)
	if err != nil {
		return ms3.Vec{}, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}

// kwFloat32 reads an optional numeric keyword argument, keeping def if absent.
func kwFloat32(pa kwArgs, name string, def float32) (float32, error) {
	s, ok := pa.kw[name]
	if !ok {
		return def, nil
	}
	f, err := toFloat32(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return f, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the scene DSL builtins into a zygomys
// environment. The scene builtin records its result on the collector.
//
// Source code must be preprocessed with preprocessSource() before
// evaluation so that :keyword tokens are converted to recognizable
// string literals.
func registerBuiltins(env *zygo.Zlisp, out *sceneCollector) {

	// -----------------------------------------------------------------------
	// (vec3 x y z)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3: want 3 components, got %d", len(args))
		}
		var v ms3.Vec
		for i, dst := range []*float32{&v.X, &v.Y, &v.Z} {
			f, err := toFloat32(args[i])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: component %d: %w", i, err)
			}
			*dst = f
		}
		return &sexpVec3{vec: v}, nil
	})

	// -----------------------------------------------------------------------
	// (sphere :radius 5 :center (vec3 0 0 0))
	// -----------------------------------------------------------------------
	env.AddFunction("sphere", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		radius, err := kwFloat32(pa, "radius", 1)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sphere: %w", err)
		}
		if radius <= 0 {
			return zygo.SexpNull, fmt.Errorf("sphere: radius must be positive, got %v", radius)
		}
		center, err := kwVec3(pa, "center", ms3.Vec{})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sphere: %w", err)
		}
		return &sexpField{
			f:    field.Sphere{Center: center, Radius: radius},
			desc: fmt.Sprintf("sphere r=%.2f", radius),
		}, nil
	})

	// -----------------------------------------------------------------------
	// (box :size (vec3 2 2 2) :center (vec3 0 0 0))
	// :size is full extents; :half takes half extents directly.
	// -----------------------------------------------------------------------
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		half := ms3.Vec{X: 1, Y: 1, Z: 1}
		if s, ok := pa.kw["size"]; ok {
			v, err := toVec3(s)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("box: size: %w", err)
			}
			half = ms3.Scale(0.5, v)
		}
		if s, ok := pa.kw["half"]; ok {
			v, err := toVec3(s)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("box: half: %w", err)
			}
			half = v
		}
		if half.X <= 0 || half.Y <= 0 || half.Z <= 0 {
			return zygo.SexpNull, fmt.Errorf("box: extents must be positive, got %v", half)
		}
		center, err := kwVec3(pa, "center", ms3.Vec{})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("box: %w", err)
		}
		return &sexpField{
			f:    field.Box{Center: center, Half: half},
			desc: fmt.Sprintf("box %.2fx%.2fx%.2f", 2*half.X, 2*half.Y, 2*half.Z),
		}, nil
	})

	// -----------------------------------------------------------------------
	// (torus :major 6 :minor 2.5 :center (vec3 0 0 0))
	// -----------------------------------------------------------------------
	env.AddFunction("torus", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		major, err := kwFloat32(pa, "major", 2)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("torus: %w", err)
		}
		minor, err := kwFloat32(pa, "minor", 0.5)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("torus: %w", err)
		}
		if major <= 0 || minor <= 0 {
			return zygo.SexpNull, fmt.Errorf("torus: radii must be positive, got major=%v minor=%v", major, minor)
		}
		center, err := kwVec3(pa, "center", ms3.Vec{})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("torus: %w", err)
		}
		return &sexpField{
			f:    field.Torus{Center: center, Major: major, Minor: minor},
			desc: fmt.Sprintf("torus R=%.2f r=%.2f", major, minor),
		}, nil
	})

	// -----------------------------------------------------------------------
	// (union a b c ...)
	// -----------------------------------------------------------------------
	env.AddFunction("union", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) == 0 {
			// field.Union panics on zero members; in script code this
			// is a user error, reported instead of crashing the frame.
			return zygo.SexpNull, fmt.Errorf("union: at least one shape required")
		}
		members := make([]field.Field, 0, len(pa.positional))
		for i, s := range pa.positional {
			f, err := toField(s)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("union: member %d: %w", i, err)
			}
			members = append(members, f)
		}
		return &sexpField{
			f:    field.Union(members...),
			desc: fmt.Sprintf("union of %d", len(members)),
		}, nil
	})

	// -----------------------------------------------------------------------
	// (translate shape (vec3 0 -8 0))
	// -----------------------------------------------------------------------
	env.AddFunction("translate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 2 {
			return zygo.SexpNull, fmt.Errorf("translate: want (translate shape (vec3 ...)), got %d arguments", len(pa.positional))
		}
		f, err := toField(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("translate: %w", err)
		}
		v, err := toVec3(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("translate: %w", err)
		}
		return &sexpField{
			f:    field.Translate(f, v),
			desc: fmt.Sprintf("translated by (%.2f %.2f %.2f)", v.X, v.Y, v.Z),
		}, nil
	})

	// -----------------------------------------------------------------------
	// (rotate shape :axis :y :angle 45)   angle in degrees
	// -----------------------------------------------------------------------
	env.AddFunction("rotate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("rotate: want (rotate shape :axis ... :angle ...), got %d positional arguments", len(pa.positional))
		}
		f, err := toField(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rotate: %w", err)
		}
		axisArg, ok := pa.kw["axis"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("rotate: missing :axis")
		}
		axis, err := toAxis(axisArg)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rotate: %w", err)
		}
		degrees, err := kwFloat32(pa, "angle", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rotate: %w", err)
		}
		radians := degrees * math.Pi / 180
		return &sexpField{
			f:    field.Rotate(f, radians, axis),
			desc: fmt.Sprintf("rotated %.1f°", degrees),
		}, nil
	})

	// -----------------------------------------------------------------------
	// (scene shape :camera (vec3 0 0 20) :look-at (vec3 0 0 0)
	//              :up (vec3 0 1 0) :size 20 :light (vec3 1 -1 -1))
	// -----------------------------------------------------------------------
	env.AddFunction("scene", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("scene: want exactly one shape, got %d", len(pa.positional))
		}
		f, err := toField(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("scene: %w", err)
		}

		camera, err := kwVec3(pa, "camera", ms3.Vec{Z: 20})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("scene: %w", err)
		}
		lookAt, err := kwVec3(pa, "look-at", ms3.Vec{})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("scene: %w", err)
		}
		up, err := kwVec3(pa, "up", ms3.Vec{Y: 1})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("scene: %w", err)
		}
		size, err := kwFloat32(pa, "size", 20)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("scene: %w", err)
		}
		if size <= 0 {
			return zygo.SexpNull, fmt.Errorf("scene: size must be positive, got %v", size)
		}
		light, err := kwVec3(pa, "light", ms3.Vec{X: 1, Y: -1, Z: -1})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("scene: %w", err)
		}
		n := ms3.Norm(light)
		if n < 1e-12 {
			return zygo.SexpNull, fmt.Errorf("scene: light direction must be nonzero")
		}

		out.scene = &scene.Scene{
			Field:      f,
			CameraPos:  camera,
			LookAt:     lookAt,
			Up:         up,
			CameraSize: size,
			LightDir:   ms3.Scale(1/n, light),
		}
		return zygo.SexpNull, nil
	})
}
