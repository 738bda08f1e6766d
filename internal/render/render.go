// Package render expands generated note attributes from a model's template map.
package render

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cbroglie/mustache"
	"golang.org/x/sync/errgroup"
)

// SideEffectKey is the template slot rendered only for its side effects
const SideEffectKey = "_"

// Renderer evaluates a template string against a data context
type Renderer interface {
	Render(ctx context.Context, tmpl string, data map[string]interface{}) (string, error)
}

// RendererFunc adapts a function to Renderer
type RendererFunc func(ctx context.Context, tmpl string, data map[string]interface{}) (string, error)

// Render calls f
func (f RendererFunc) Render(ctx context.Context, tmpl string, data map[string]interface{}) (string, error) {
	return f(ctx, tmpl, data)
}

// Mustache renders {{name}} style templates. Missing variables render empty.
type Mustache struct{}

// Render implements Renderer
func (Mustache) Render(_ context.Context, tmpl string, data map[string]interface{}) (string, error) {
	t, err := mustache.ParseString(tmpl)
	if err != nil {
		return "", err
	}
	return t.Render(data)
}

// Expansion is the result of expanding one note
type Expansion struct {
	// Derived holds rendered (or passed through) values for every template key except "_".
	Derived map[string]interface{}
	// Merged is Derived overlaid with the literal data; literal values win.
	Merged map[string]interface{}
	// SideEffectRan is true when the "_" template was rendered.
	SideEffectRan bool
}

// Engine runs a Renderer over a template map
type Engine struct {
	Renderer Renderer
	// Timeout bounds the whole expansion of one note. Zero means no limit.
	Timeout time.Duration
}

// NewEngine returns an engine using r, or Mustache when r is nil
func NewEngine(r Renderer, timeout time.Duration) *Engine {
	if r == nil {
		r = Mustache{}
	}
	return &Engine{Renderer: r, Timeout: timeout}
}

// KeyError identifies the template key whose rendering failed
type KeyError struct {
	Key string
	Err error
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("template %q: %v", e.Key, e.Err)
}

func (e *KeyError) Unwrap() error {
	return e.Err
}

// Expand renders every string template in templates against literal.
// Keys render concurrently; they only share read access to literal.
func (e *Engine) Expand(ctx context.Context, templates map[string]interface{}, literal map[string]interface{}) (*Expansion, error) {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	out := &Expansion{Derived: make(map[string]interface{})}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for key, tmpl := range templates {
		if key == SideEffectKey {
			continue
		}
		s, ok := tmpl.(string)
		if !ok {
			out.Derived[key] = tmpl
			continue
		}
		g.Go(func() error {
			rendered, err := e.render(gctx, s, literal)
			if err != nil {
				return &KeyError{Key: key, Err: err}
			}
			mu.Lock()
			out.Derived[key] = rendered
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out.Merged = make(map[string]interface{}, len(out.Derived)+len(literal))
	for k, v := range out.Derived {
		out.Merged[k] = v
	}
	for k, v := range literal {
		out.Merged[k] = v
	}

	if s, ok := templates[SideEffectKey].(string); ok {
		if _, err := e.render(ctx, s, out.Merged); err != nil {
			return nil, &KeyError{Key: SideEffectKey, Err: err}
		}
		out.SideEffectRan = true
	}

	return out, nil
}

// Eval renders a condition template against data and reports whether it holds.
// A blank condition holds.
func (e *Engine) Eval(ctx context.Context, cond string, data map[string]interface{}) (bool, error) {
	if strings.TrimSpace(cond) == "" {
		return true, nil
	}
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	s, err := e.render(ctx, cond, data)
	if err != nil {
		return false, err
	}
	return Truthy(s), nil
}

// Truthy reads rendered condition output. Blank, "false", "0" and "no" are false
// regardless of case and surrounding space; anything else is true.
func Truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "false", "0", "no":
		return false
	}
	return true
}

// render runs the renderer and gives up when ctx is done, even if the renderer ignores ctx.
func (e *Engine) render(ctx context.Context, tmpl string, data map[string]interface{}) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type result struct {
		s   string
		err error
	}
	done := make(chan result, 1)
	go func() {
		s, err := e.Renderer.Render(ctx, tmpl, data)
		done <- result{s, err}
	}()

	select {
	case r := <-done:
		return r.s, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
