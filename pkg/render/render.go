// Package render implements the sphere-tracing ASCII renderer: an
// orthographic camera casting one parallel ray per character cell,
// the ray marcher, Lambertian shading, and quantization of intensity
// onto a fixed glyph ramp.
package render

import (
	"strings"
	"sync"

	"github.com/soypat/glgl/math/ms3"

	"github.com/chazu/termray/pkg/scene"
)

// Ramp is the glyph palette from empty to brightest.
const Ramp = " .,:;i1tfLCG08@"

// DefaultAspectCorrection compensates for terminal glyphs being
// roughly twice as tall as they are wide.
const DefaultAspectCorrection = 0.5

// Glyph quantizes an intensity into one of the len(Ramp) equal-width
// buckets. The input is clamped to [0,1] first, so out-of-range
// intensities never index outside the ramp.
func Glyph(intensity float32) byte {
	if !(intensity > 0) { // also traps NaN
		intensity = 0
	}
	if intensity > 1 {
		intensity = 1
	}
	i := int(intensity * float32(len(Ramp)))
	if i >= len(Ramp) {
		i = len(Ramp) - 1
	}
	return Ramp[i]
}

// Sink receives a rendered frame one glyph at a time. The renderer
// queries Size and AspectCorrection per frame, so a sink backed by a
// resizable device just reports its current dimensions.
type Sink interface {
	Size() (width, height int)
	AspectCorrection() float32
	Glyph(x, y int, g byte)
	EndRow(y int)
}

// Options configure a Renderer.
type Options struct {
	// RowSep is appended after every row by RenderString. Whether rows
	// are separated at all is the sink's business, so it is
	// configurable; the default is "\n".
	RowSep string
	// NoRowSep suppresses the separator entirely.
	NoRowSep bool
	// AspectCorrection overrides DefaultAspectCorrection for
	// RenderString. Streaming sinks report their own factor.
	AspectCorrection float32
	// Workers renders rows on that many goroutines when > 1. A frame
	// is a pure function of the immutable scene, so rows share nothing
	// but read-only state.
	Workers int
}

// Renderer turns scenes into glyph frames.
type Renderer struct {
	opts Options
}

// New returns a Renderer with the given options.
func New(opts Options) *Renderer {
	if opts.RowSep == "" && !opts.NoRowSep {
		opts.RowSep = "\n"
	}
	if opts.AspectCorrection == 0 {
		opts.AspectCorrection = DefaultAspectCorrection
	}
	return &Renderer{opts: opts}
}

// RenderString renders one w×h frame into a row-major string, rows
// joined by the configured separator.
func (r *Renderer) RenderString(sc *scene.Scene, w, h int) string {
	if w <= 0 || h <= 0 {
		return ""
	}
	pixels := r.renderPixels(sc, w, h, r.opts.AspectCorrection)

	var b strings.Builder
	b.Grow((w + len(r.opts.RowSep)) * h)
	for y := 0; y < h; y++ {
		b.Write(pixels[y*w : (y+1)*w])
		b.WriteString(r.opts.RowSep)
	}
	return b.String()
}

// RenderTo renders one frame into sink at whatever size the sink
// currently reports.
func (r *Renderer) RenderTo(sc *scene.Scene, sink Sink) {
	w, h := sink.Size()
	if w <= 0 || h <= 0 {
		return
	}
	pixels := r.renderPixels(sc, w, h, sink.AspectCorrection())
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sink.Glyph(x, y, pixels[y*w+x])
		}
		sink.EndRow(y)
	}
}

// basis builds the orthographic camera frame. Each degenerate input
// (camera on top of its target, up parallel to forward) falls back to
// a fixed axis rather than yielding NaN.
func basis(sc *scene.Scene) (right, up, forward ms3.Vec) {
	forward = unitOr(ms3.Sub(sc.LookAt, sc.CameraPos), ms3.Vec{Z: -1})
	right = unitOr(ms3.Cross(forward, sc.Up), ms3.Vec{X: 1})
	// Screen-space up: points down-screen so row 0 is the top row.
	up = unitOr(ms3.Cross(forward, right), ms3.Vec{Y: 1})
	return right, up, forward
}

// unitOr normalizes v, or returns fallback when v is ~zero.
func unitOr(v, fallback ms3.Vec) ms3.Vec {
	n := ms3.Norm(v)
	if n < 1e-12 {
		return fallback
	}
	return ms3.Scale(1/n, v)
}

// cameraDims derives the view-window extents from the scene's camera
// size. The longer screen axis stretches by the pixel-grid aspect
// ratio times the device correction factor, the shorter keeps the
// camera size, so a sphere stays round on any grid shape.
func cameraDims(size float32, w, h int, corr float32) (camW, camH float32) {
	fw, fh := float32(w), float32(h)
	if fw >= fh {
		return size * (fw / fh) * corr, size
	}
	return size, size * (fh / fw) / corr
}

// renderPixels computes the w*h glyph grid, row-major. Per-pixel work
// is independent, so rows fan out over Workers goroutines when asked.
func (r *Renderer) renderPixels(sc *scene.Scene, w, h int, corr float32) []byte {
	right, up, forward := basis(sc)
	camW, camH := cameraDims(sc.CameraSize, w, h, corr)

	pixels := make([]byte, w*h)
	renderRow := func(sy int) {
		rowBase := ms3.Add(sc.CameraPos, ms3.Scale(camH*(float32(sy)/float32(h)-0.5), up))
		for sx := 0; sx < w; sx++ {
			origin := ms3.Add(rowBase, ms3.Scale(camW*(float32(sx)/float32(w)-0.5), right))
			pixels[sy*w+sx] = Glyph(March(sc.Field, origin, forward, sc.LightDir))
		}
	}

	if r.opts.Workers > 1 {
		rows := make(chan int)
		var wg sync.WaitGroup
		for i := 0; i < r.opts.Workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for sy := range rows {
					renderRow(sy)
				}
			}()
		}
		for sy := 0; sy < h; sy++ {
			rows <- sy
		}
		close(rows)
		wg.Wait()
	} else {
		for sy := 0; sy < h; sy++ {
			renderRow(sy)
		}
	}
	return pixels
}
