// Package engine provides the Lisp scene engine for termray.
// It wraps zygomys in a sandboxed environment and produces a
// scene.Scene from user source code at a given animation time.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/termray/pkg/scene"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in scene code.
type EvalError struct {
	Line    int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Engine wraps the zygomys interpreter for scene evaluation.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64
}

// NewEngine creates a new Engine instance.
func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate runs a scene script at animation time t and returns the
// scene it defines. The driver calls this once per frame, so the whole
// scene tree is rebuilt from t every time.
//
// Return semantics:
//   - On success: returns scene + nil errors + nil error
//   - On parse/eval failure, or a script that never calls (scene ...):
//     returns nil scene + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string, t float32) (*scene.Scene, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		sc, evalErrs, err := e.evaluate(source, t)
		ch <- evalResult{scene: sc, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ch, gen, &e.mu, &e.generation)
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string, t float32) (*scene.Scene, []EvalError, error) {
	if strings.TrimSpace(source) == "" {
		return nil, []EvalError{{Message: "script defines no scene; call (scene shape ...)"}}, nil
	}

	// Create a fresh sandboxed zygomys environment.
	// Sandbox mode prevents scene code from accessing the filesystem
	// or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	out := &sceneCollector{}
	registerBuiltins(env, out)

	// Bind the animation time by prepending a plain definition, so
	// scripts can write (rotate shape :axis :y :angle (* time 40)).
	timeDef := fmt.Sprintf("(def time %s)\n", strconv.FormatFloat(float64(t), 'g', -1, 32))
	src := timeDef + preprocessSource(source)

	// Load and compile the source string into bytecode.
	if err := env.LoadString(src); err != nil {
		return nil, parseZygomysError(err), nil
	}

	// Execute the compiled bytecode.
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}

	if out.scene == nil {
		return nil, []EvalError{{Message: "script defines no scene; call (scene shape ...)"}}, nil
	}
	return out.scene, nil, nil
}

// lineRe pulls a line number out of a zygomys error message.
var lineRe = regexp.MustCompile(`line (\d+)`)

// parseZygomysError converts a zygomys error into EvalError values.
// Line numbers are shifted down by one to account for the injected
// time definition on line 1.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()
	line := 0
	if m := lineRe.FindStringSubmatch(msg); m != nil {
		if n, convErr := strconv.Atoi(m[1]); convErr == nil && n > 1 {
			line = n - 1
		}
	}
	return []EvalError{{Line: line, Message: msg}}
}
