// Package card defines the renderable payload an export mounts onto a stage.
package card

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"

	"wrapped/pkg/dom"
	"wrapped/pkg/js"
	"wrapped/pkg/markup"
	"wrapped/pkg/stage"
)

// ErrMount is returned when a payload fails to render into a stage.
var ErrMount = errors.New("card mount failed")

// Renderable is anything that can attach itself to a stage. Mount returns
// once the tree is attached; the payload may keep mutating the stage from
// timers afterwards. Those timers are cancelled when the stage is released.
type Renderable interface {
	Mount(ctx context.Context, s *stage.Stage) error
}

// Func adapts a function that builds the tree directly.
type Func func(ctx context.Context, root *dom.Node) error

func (f Func) Mount(ctx context.Context, s *stage.Stage) (err error) {
	defer recoverMount(&err)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrMount, err)
	}
	if err := s.Mutate(func(root *dom.Node) error { return f(ctx, root) }); err != nil {
		return fmt.Errorf("%w: %w", ErrMount, err)
	}
	return nil
}

// Template is a card described by markup. The template is executed with
// Data, parsed, attached to the stage root, and its scripts run with a
// script engine bound to the stage.
type Template struct {
	Name string
	tmpl *template.Template
	Data any
}

// NewTemplate parses src as an html/template named name. funcs may be nil.
func NewTemplate(name, src string, funcs template.FuncMap, data any) (*Template, error) {
	t := template.New(name).Funcs(DefaultFuncs())
	if funcs != nil {
		t = t.Funcs(funcs)
	}
	t, err := t.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse card template %s: %w", name, err)
	}
	return &Template{Name: name, tmpl: t, Data: data}, nil
}

// Render executes the template and returns the card markup.
func (t *Template) Render() (string, error) {
	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, t.Data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (t *Template) Mount(ctx context.Context, s *stage.Stage) (err error) {
	defer recoverMount(&err)

	src, err := t.Render()
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMount, t.Name, err)
	}
	frag, err := markup.Parse(src)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMount, t.Name, err)
	}
	err = s.Mutate(func(root *dom.Node) error {
		for _, n := range frag.Nodes {
			root.AddChild(n)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMount, t.Name, err)
	}
	if len(frag.Scripts) == 0 {
		return nil
	}

	log := s.Logger().With().Str("card", t.Name).Logger()
	if err := js.New(s, log).Run(ctx, frag.Scripts); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMount, t.Name, err)
	}
	return nil
}

func recoverMount(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: panic: %v", ErrMount, r)
	}
}
