// Command termray animates a sphere-traced ASCII scene in the
// terminal. By default it renders the built-in donut scene; -scene
// loads a Lisp scene script instead, re-evaluated every frame with the
// current animation time. -stl skips the terminal entirely and exports
// the frame-zero field as a mesh.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	termbox "github.com/nsf/termbox-go"
	"github.com/soypat/glgl/math/ms3"

	"github.com/chazu/termray/pkg/engine"
	"github.com/chazu/termray/pkg/mesh"
	"github.com/chazu/termray/pkg/render"
	"github.com/chazu/termray/pkg/scene"
)

func main() {
	var (
		scenePath = flag.String("scene", "", "Lisp scene script (default: built-in donut scene)")
		fps       = flag.Int("fps", 30, "target frames per second")
		stlPath   = flag.String("stl", "", "export the scene at t=0 as STL to this path and exit")
		cells     = flag.Int("cells", 200, "marching cubes resolution for -stl")
		extent    = flag.Float64("extent", 20, "half-extent of the sampling box for -stl")
	)
	flag.Parse()

	provider, err := sceneProvider(*scenePath)
	if err != nil {
		log.Fatalf("termray: %v", err)
	}

	if *stlPath != "" {
		if err := exportSTL(provider, *stlPath, *cells, float32(*extent)); err != nil {
			log.Fatalf("termray: %v", err)
		}
		return
	}

	if *fps <= 0 {
		*fps = 30
	}
	if err := run(provider, *fps); err != nil {
		log.Fatalf("termray: %v", err)
	}
}

// sceneProvider returns the per-frame scene source: either the
// built-in donut or a DSL script evaluated fresh each frame.
func sceneProvider(path string) (func(t float32) (*scene.Scene, error), error) {
	if path == "" {
		return func(t float32) (*scene.Scene, error) {
			return scene.Donut(t), nil
		}, nil
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene script: %w", err)
	}
	eng := engine.NewEngine()
	return func(t float32) (*scene.Scene, error) {
		sc, evalErrs, err := eng.Evaluate(string(src), t)
		if err != nil {
			return nil, err
		}
		if len(evalErrs) > 0 {
			return nil, fmt.Errorf("%s: %w", path, evalErrs[0])
		}
		return sc, nil
	}, nil
}

func exportSTL(provider func(float32) (*scene.Scene, error), path string, cells int, extent float32) error {
	sc, err := provider(0)
	if err != nil {
		return err
	}
	min := ms3.Vec{X: -extent, Y: -extent, Z: -extent}
	max := ms3.Vec{X: extent, Y: extent, Z: extent}
	if err := mesh.ExportSTL(sc.Field, min, max, cells, path); err != nil {
		return err
	}
	log.Printf("wrote %s", path)
	return nil
}

// termSink draws glyphs straight into termbox cells. Rows need no
// separator since every cell is positioned explicitly.
type termSink struct{}

func (termSink) Size() (int, int)          { return termbox.Size() }
func (termSink) AspectCorrection() float32 { return render.DefaultAspectCorrection }
func (termSink) EndRow(int)                {}

func (termSink) Glyph(x, y int, g byte) {
	termbox.SetCell(x, y, rune(g), termbox.ColorDefault, termbox.ColorDefault)
}

// run owns the terminal for the duration of the animation: raw screen,
// hidden cursor, one render per tick, exit on any key press. Resizes
// are picked up naturally because the sink reports the current size
// each frame.
func run(provider func(float32) (*scene.Scene, error), fps int) error {
	if err := termbox.Init(); err != nil {
		return fmt.Errorf("initializing terminal: %w", err)
	}
	defer termbox.Close()
	termbox.HideCursor()

	events := make(chan termbox.Event, 8)
	go func() {
		for {
			events <- termbox.PollEvent()
		}
	}()

	r := render.New(render.Options{Workers: runtime.NumCPU()})
	sink := termSink{}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()
	start := time.Now()

	for {
		select {
		case ev := <-events:
			switch ev.Type {
			case termbox.EventKey:
				return nil
			case termbox.EventError:
				return ev.Err
			}
			// Resize events need no handling; the next frame queries
			// the new size.
		case <-ticker.C:
			sc, err := provider(float32(time.Since(start).Seconds()))
			if err != nil {
				return err
			}
			r.RenderTo(sc, sink)
			if err := termbox.Flush(); err != nil {
				return err
			}
		}
	}
}
